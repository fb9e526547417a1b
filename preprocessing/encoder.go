package preprocessing

import (
	"fmt"
	"math"
	"sort"
	"strconv"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/edaml/core/model"
	"github.com/YuminosukeSato/edaml/pkg/errors"
)

// OneHotEncoder はカテゴリ特徴量をワンホット表現に変換する
// カテゴリは列ごとに辞書順で並ぶ
type OneHotEncoder struct {
	state *model.StateManager

	// HandleUnknown は "ignore"（全ゼロで符号化）または "error"
	HandleUnknown string

	categories [][]string
	index      []map[string]int
	offsets    []int
	width      int
}

// NewOneHotEncoder creates an encoder that encodes unknown categories as all
// zeros.
func NewOneHotEncoder() *OneHotEncoder {
	return &OneHotEncoder{state: model.NewStateManager(), HandleUnknown: "ignore"}
}

// IsFitted reports whether Fit has succeeded.
func (e *OneHotEncoder) IsFitted() bool { return e.state.IsFitted() }

// Fit learns the sorted categories of every column.
func (e *OneHotEncoder) Fit(rows [][]string) error {
	c, err := stringWidth("OneHotEncoder.Fit", rows)
	if err != nil {
		return err
	}
	if e.HandleUnknown != "ignore" && e.HandleUnknown != "error" {
		return errors.NewValidationError("handle_unknown", "must be ignore or error", e.HandleUnknown)
	}

	e.categories = make([][]string, c)
	e.index = make([]map[string]int, c)
	e.offsets = make([]int, c)
	e.width = 0
	for j := 0; j < c; j++ {
		seen := make(map[string]struct{})
		for _, row := range rows {
			seen[row[j]] = struct{}{}
		}
		cats := make([]string, 0, len(seen))
		for v := range seen {
			cats = append(cats, v)
		}
		sort.Strings(cats)

		e.categories[j] = cats
		e.index[j] = make(map[string]int, len(cats))
		for k, v := range cats {
			e.index[j][v] = k
		}
		e.offsets[j] = e.width
		e.width += len(cats)
	}

	e.state.SetDimensions(c, len(rows))
	e.state.SetFitted()
	return nil
}

// Transform encodes rows into a len(rows) x NOutputs() indicator matrix.
func (e *OneHotEncoder) Transform(rows [][]string) (*mat.Dense, error) {
	if err := e.state.RequireFitted("OneHotEncoder", "Transform"); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, errors.NewModelError("OneHotEncoder.Transform", "empty data", errors.ErrEmptyData)
	}

	out := mat.NewDense(len(rows), e.width, nil)
	for i, row := range rows {
		if err := e.state.CheckFeatures("OneHotEncoder.Transform", len(row)); err != nil {
			return nil, err
		}
		for j, v := range row {
			k, ok := e.index[j][v]
			if !ok {
				if e.HandleUnknown == "error" {
					return nil, errors.NewValueError("OneHotEncoder.Transform",
						fmt.Sprintf("found unknown category %q in column %d", v, j))
				}
				continue
			}
			out.Set(i, e.offsets[j]+k, 1)
		}
	}
	return out, nil
}

// FitTransform fits and transforms rows.
func (e *OneHotEncoder) FitTransform(rows [][]string) (*mat.Dense, error) {
	if err := e.Fit(rows); err != nil {
		return nil, err
	}
	return e.Transform(rows)
}

// Categories returns the learned categories per column.
func (e *OneHotEncoder) Categories() [][]string { return e.categories }

// NOutputs returns the number of indicator columns.
func (e *OneHotEncoder) NOutputs() int { return e.width }

// FeatureNames names every output column as <input>_<category>.
func (e *OneHotEncoder) FeatureNames(inputs []string) []string {
	names := make([]string, 0, e.width)
	for j, cats := range e.categories {
		in := fmt.Sprintf("x%d", j)
		if j < len(inputs) {
			in = inputs[j]
		}
		for _, c := range cats {
			names = append(names, in+"_"+c)
		}
	}
	return names
}

// LabelEncoder maps target labels to integer codes 0..n-1 following the
// sorted order of the distinct labels.
type LabelEncoder struct {
	state   *model.StateManager
	numeric bool
	classes []string
	index   map[string]int
}

// NewLabelEncoder creates a LabelEncoder ordering labels lexically.
func NewLabelEncoder() *LabelEncoder {
	return &LabelEncoder{state: model.NewStateManager()}
}

// NewNumericLabelEncoder creates a LabelEncoder for labels that are
// formatted numbers. They are ordered by value; labels that do not parse
// (such as "NaN") sort last, lexically among themselves.
func NewNumericLabelEncoder() *LabelEncoder {
	return &LabelEncoder{state: model.NewStateManager(), numeric: true}
}

// IsFitted reports whether Fit has succeeded.
func (l *LabelEncoder) IsFitted() bool { return l.state.IsFitted() }

// Fit learns the sorted vocabulary of labels.
func (l *LabelEncoder) Fit(labels []string) error {
	if len(labels) == 0 {
		return errors.NewModelError("LabelEncoder.Fit", "empty data", errors.ErrEmptyData)
	}
	seen := make(map[string]struct{})
	for _, v := range labels {
		seen[v] = struct{}{}
	}
	l.classes = make([]string, 0, len(seen))
	for v := range seen {
		l.classes = append(l.classes, v)
	}
	if l.numeric {
		sort.Slice(l.classes, func(a, b int) bool { return numericLess(l.classes[a], l.classes[b]) })
	} else {
		sort.Strings(l.classes)
	}
	l.index = make(map[string]int, len(l.classes))
	for i, v := range l.classes {
		l.index[v] = i
	}
	l.state.SetDimensions(1, len(labels))
	l.state.SetFitted()
	return nil
}

// Transform encodes labels; an unseen label is a ValueError.
func (l *LabelEncoder) Transform(labels []string) ([]int, error) {
	if err := l.state.RequireFitted("LabelEncoder", "Transform"); err != nil {
		return nil, err
	}
	codes := make([]int, len(labels))
	for i, v := range labels {
		c, ok := l.index[v]
		if !ok {
			return nil, errors.NewValueError("LabelEncoder.Transform", fmt.Sprintf("y contains previously unseen label %q", v))
		}
		codes[i] = c
	}
	return codes, nil
}

// FitTransform fits and encodes labels.
func (l *LabelEncoder) FitTransform(labels []string) ([]int, error) {
	if err := l.Fit(labels); err != nil {
		return nil, err
	}
	return l.Transform(labels)
}

// InverseTransform decodes codes back to labels.
func (l *LabelEncoder) InverseTransform(codes []int) ([]string, error) {
	if err := l.state.RequireFitted("LabelEncoder", "InverseTransform"); err != nil {
		return nil, err
	}
	labels := make([]string, len(codes))
	for i, c := range codes {
		if c < 0 || c >= len(l.classes) {
			return nil, errors.NewValueError("LabelEncoder.InverseTransform", fmt.Sprintf("code %d out of range", c))
		}
		labels[i] = l.classes[c]
	}
	return labels, nil
}

// Classes returns the sorted vocabulary.
func (l *LabelEncoder) Classes() []string { return l.classes }

func numericLess(a, b string) bool {
	x, errA := strconv.ParseFloat(a, 64)
	y, errB := strconv.ParseFloat(b, 64)
	okA := errA == nil && !math.IsNaN(x)
	okB := errB == nil && !math.IsNaN(y)
	switch {
	case okA && okB:
		return x < y
	case okA != okB:
		return okA
	default:
		return a < b
	}
}
