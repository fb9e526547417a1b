package preprocessing

import (
	"math"
	"sort"
	"strconv"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/YuminosukeSato/edaml/core/model"
	"github.com/YuminosukeSato/edaml/pkg/errors"
)

// Imputation strategies.
const (
	StrategyMean         = "mean"
	StrategyMedian       = "median"
	StrategyMostFrequent = "most_frequent"
	StrategyConstant     = "constant"
)

// SimpleImputer は数値行列の欠損値 (NaN) を列ごとの統計量で補完する
type SimpleImputer struct {
	state *model.StateManager

	// Strategy は mean / median / most_frequent / constant のいずれか
	Strategy string

	// FillValue は constant 戦略の値。全欠損列の補完にも使う
	FillValue float64

	// Statistics は学習した列ごとの補完値
	Statistics []float64
}

var _ model.MatrixTransformer = (*SimpleImputer)(nil)

// NewSimpleImputer creates an imputer for numeric matrices.
func NewSimpleImputer(strategy string) *SimpleImputer {
	return &SimpleImputer{state: model.NewStateManager(), Strategy: strategy}
}

// IsFitted reports whether Fit has succeeded.
func (s *SimpleImputer) IsFitted() bool { return s.state.IsFitted() }

// Fit learns one fill value per column from its non-NaN entries. A column
// without any value is filled with FillValue and an EmptyColumnWarning is
// emitted.
func (s *SimpleImputer) Fit(X mat.Matrix) error {
	r, c := X.Dims()
	if r == 0 || c == 0 {
		return errors.NewModelError("SimpleImputer.Fit", "empty data", errors.ErrEmptyData)
	}
	switch s.Strategy {
	case StrategyMean, StrategyMedian, StrategyMostFrequent, StrategyConstant:
	default:
		return errors.NewValidationError("strategy", "must be mean, median, most_frequent or constant", s.Strategy)
	}

	s.Statistics = make([]float64, c)
	for j := 0; j < c; j++ {
		present := make([]float64, 0, r)
		for i := 0; i < r; i++ {
			if v := X.At(i, j); !math.IsNaN(v) {
				present = append(present, v)
			}
		}
		if len(present) == 0 || s.Strategy == StrategyConstant {
			if len(present) == 0 && s.Strategy != StrategyConstant {
				errors.Warn(errors.NewEmptyColumnWarning("SimpleImputer.Fit", j,
					strconv.FormatFloat(s.FillValue, 'g', -1, 64)))
			}
			s.Statistics[j] = s.FillValue
			continue
		}
		s.Statistics[j] = columnStatistic(s.Strategy, present)
	}

	s.state.SetDimensions(c, r)
	s.state.SetFitted()
	return nil
}

func columnStatistic(strategy string, values []float64) float64 {
	switch strategy {
	case StrategyMean:
		return stat.Mean(values, nil)
	case StrategyMedian:
		sort.Float64s(values)
		n := len(values)
		if n%2 == 1 {
			return values[n/2]
		}
		return (values[n/2-1] + values[n/2]) / 2
	default:
		// 最頻値、同数なら最小値
		sort.Float64s(values)
		best, bestCount := values[0], 0
		for i := 0; i < len(values); {
			k := i
			for k < len(values) && values[k] == values[i] {
				k++
			}
			if k-i > bestCount {
				best, bestCount = values[i], k-i
			}
			i = k
		}
		return best
	}
}

// Transform replaces NaN entries with the learned statistics.
func (s *SimpleImputer) Transform(X mat.Matrix) (mat.Matrix, error) {
	if err := s.state.RequireFitted("SimpleImputer", "Transform"); err != nil {
		return nil, err
	}
	r, c := X.Dims()
	if err := s.state.CheckFeatures("SimpleImputer.Transform", c); err != nil {
		return nil, err
	}

	out := mat.NewDense(r, c, nil)
	out.Apply(func(i, j int, v float64) float64 {
		if math.IsNaN(v) {
			return s.Statistics[j]
		}
		return v
	}, X)
	return out, nil
}

// FitTransform fits and transforms X.
func (s *SimpleImputer) FitTransform(X mat.Matrix) (mat.Matrix, error) {
	if err := s.Fit(X); err != nil {
		return nil, err
	}
	return s.Transform(X)
}

// CategoricalImputer fills missing entries of string features. Rows are
// samples; "" marks a missing entry.
type CategoricalImputer struct {
	state *model.StateManager

	// Strategy は most_frequent または constant
	Strategy string

	// FillValue is used by the constant strategy and for columns without
	// any observed value.
	FillValue string

	// Statistics は学習した列ごとの補完値
	Statistics []string
}

var _ model.TextTransformer = (*CategoricalImputer)(nil)

// NewCategoricalImputer creates an imputer for string features.
func NewCategoricalImputer(strategy string) *CategoricalImputer {
	return &CategoricalImputer{state: model.NewStateManager(), Strategy: strategy, FillValue: "missing"}
}

// IsFitted reports whether Fit has succeeded.
func (s *CategoricalImputer) IsFitted() bool { return s.state.IsFitted() }

// Fit learns the most frequent value per column; ties go to the smallest
// value in lexical order.
func (s *CategoricalImputer) Fit(rows [][]string) error {
	c, err := stringWidth("CategoricalImputer.Fit", rows)
	if err != nil {
		return err
	}
	if s.Strategy != StrategyMostFrequent && s.Strategy != StrategyConstant {
		return errors.NewValidationError("strategy", "must be most_frequent or constant", s.Strategy)
	}

	s.Statistics = make([]string, c)
	for j := 0; j < c; j++ {
		counts := make(map[string]int)
		for _, row := range rows {
			if row[j] != "" {
				counts[row[j]]++
			}
		}
		if len(counts) == 0 || s.Strategy == StrategyConstant {
			if len(counts) == 0 && s.Strategy != StrategyConstant {
				errors.Warn(errors.NewEmptyColumnWarning("CategoricalImputer.Fit", j, strconv.Quote(s.FillValue)))
			}
			s.Statistics[j] = s.FillValue
			continue
		}
		best, bestCount := "", 0
		for v, n := range counts {
			if n > bestCount || (n == bestCount && v < best) {
				best, bestCount = v, n
			}
		}
		s.Statistics[j] = best
	}

	s.state.SetDimensions(c, len(rows))
	s.state.SetFitted()
	return nil
}

// Transform returns a copy of rows with missing entries filled.
func (s *CategoricalImputer) Transform(rows [][]string) ([][]string, error) {
	if err := s.state.RequireFitted("CategoricalImputer", "Transform"); err != nil {
		return nil, err
	}
	out := make([][]string, len(rows))
	for i, row := range rows {
		if err := s.state.CheckFeatures("CategoricalImputer.Transform", len(row)); err != nil {
			return nil, err
		}
		out[i] = make([]string, len(row))
		for j, v := range row {
			if v == "" {
				v = s.Statistics[j]
			}
			out[i][j] = v
		}
	}
	return out, nil
}

// FitTransform fits and transforms rows.
func (s *CategoricalImputer) FitTransform(rows [][]string) ([][]string, error) {
	if err := s.Fit(rows); err != nil {
		return nil, err
	}
	return s.Transform(rows)
}

// stringWidth validates that rows is a non-empty rectangle and returns its width.
func stringWidth(op string, rows [][]string) (int, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return 0, errors.NewModelError(op, "empty data", errors.ErrEmptyData)
	}
	c := len(rows[0])
	for _, row := range rows {
		if len(row) != c {
			return 0, errors.NewDimensionError(op, c, len(row), 1)
		}
	}
	return c, nil
}
