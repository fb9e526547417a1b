package preprocessing

import (
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/edaml/core/model"
	"github.com/YuminosukeSato/edaml/dataset"
	"github.com/YuminosukeSato/edaml/pkg/errors"
)

// ColumnTransformer turns dataset features into a numeric design matrix.
//
// Numeric columns go through median imputation and standardization;
// the remaining columns are read as text (timestamps in RFC 3339), imputed
// with their most frequent value and one-hot encoded. Output columns are the
// numeric block followed by the indicator block.
type ColumnTransformer struct {
	state *model.StateManager

	// Numeric and Categorical name the input columns of each block.
	Numeric     []string
	Categorical []string

	numImputer *SimpleImputer
	scaler     *StandardScaler
	catImputer *CategoricalImputer
	encoder    *OneHotEncoder
}

// NewColumnTransformer builds a transformer for the given blocks.
func NewColumnTransformer(numeric, categorical []string) *ColumnTransformer {
	return &ColumnTransformer{
		state:       model.NewStateManager(),
		Numeric:     numeric,
		Categorical: categorical,
		numImputer:  NewSimpleImputer(StrategyMedian),
		scaler:      NewStandardScalerDefault(),
		catImputer:  NewCategoricalImputer(StrategyMostFrequent),
		encoder:     NewOneHotEncoder(),
	}
}

// ForDataset splits the columns of ds by storage: numeric columns form the
// numeric block, every other column the categorical block.
func ForDataset(ds *dataset.Dataset) *ColumnTransformer {
	var numeric, categorical []string
	for _, c := range ds.Columns() {
		if c.IsNumeric() {
			numeric = append(numeric, c.Name)
		} else {
			categorical = append(categorical, c.Name)
		}
	}
	return NewColumnTransformer(numeric, categorical)
}

// IsFitted reports whether Fit has succeeded.
func (ct *ColumnTransformer) IsFitted() bool { return ct.state.IsFitted() }

// Fit learns imputation values, scaling and categories from ds.
func (ct *ColumnTransformer) Fit(ds *dataset.Dataset) error {
	_, err := ct.FitTransform(ds)
	return err
}

// FitTransform fits on ds and returns its design matrix.
func (ct *ColumnTransformer) FitTransform(ds *dataset.Dataset) (*mat.Dense, error) {
	if len(ct.Numeric)+len(ct.Categorical) == 0 {
		return nil, errors.WithStack(errors.ErrNoFeatures)
	}
	if ds.NRows() == 0 {
		return nil, errors.NewModelError("ColumnTransformer.Fit", "empty data", errors.ErrEmptyData)
	}

	var blocks []mat.Matrix
	if len(ct.Numeric) > 0 {
		X, err := numericBlock(ds, ct.Numeric)
		if err != nil {
			return nil, err
		}
		scaled, err := model.FitTransformAll[mat.Matrix](X, ct.numImputer, ct.scaler)
		if err != nil {
			return nil, err
		}
		blocks = append(blocks, scaled)
	}
	if len(ct.Categorical) > 0 {
		rows, err := textBlock(ds, ct.Categorical)
		if err != nil {
			return nil, err
		}
		filled, err := ct.catImputer.FitTransform(rows)
		if err != nil {
			return nil, err
		}
		encoded, err := ct.encoder.FitTransform(filled)
		if err != nil {
			return nil, err
		}
		blocks = append(blocks, encoded)
	}

	out := hstack(ds.NRows(), blocks)
	_, c := out.Dims()
	ct.state.SetDimensions(c, ds.NRows())
	ct.state.SetFitted()
	return out, nil
}

// Transform builds the design matrix of ds using the fitted state. ds must
// contain every input column; numeric cells that are not numbers count as
// missing and unknown categories encode as zeros.
func (ct *ColumnTransformer) Transform(ds *dataset.Dataset) (*mat.Dense, error) {
	if err := ct.state.RequireFitted("ColumnTransformer", "Transform"); err != nil {
		return nil, err
	}
	if ds.NRows() == 0 {
		return nil, errors.NewModelError("ColumnTransformer.Transform", "empty data", errors.ErrEmptyData)
	}

	var blocks []mat.Matrix
	if len(ct.Numeric) > 0 {
		X, err := numericBlock(ds, ct.Numeric)
		if err != nil {
			return nil, err
		}
		scaled, err := model.TransformAll[mat.Matrix](X, ct.numImputer, ct.scaler)
		if err != nil {
			return nil, err
		}
		blocks = append(blocks, scaled)
	}
	if len(ct.Categorical) > 0 {
		rows, err := textBlock(ds, ct.Categorical)
		if err != nil {
			return nil, err
		}
		filled, err := ct.catImputer.Transform(rows)
		if err != nil {
			return nil, err
		}
		encoded, err := ct.encoder.Transform(filled)
		if err != nil {
			return nil, err
		}
		blocks = append(blocks, encoded)
	}
	return hstack(ds.NRows(), blocks), nil
}

// NOutputs returns the width of the design matrix.
func (ct *ColumnTransformer) NOutputs() int {
	n, _ := ct.state.GetDimensions()
	return n
}

// FeatureNames names the output columns.
func (ct *ColumnTransformer) FeatureNames() []string {
	names := append([]string(nil), ct.Numeric...)
	if len(ct.Categorical) > 0 && ct.encoder.IsFitted() {
		names = append(names, ct.encoder.FeatureNames(ct.Categorical)...)
	}
	return names
}

func numericBlock(ds *dataset.Dataset, names []string) (*mat.Dense, error) {
	X := mat.NewDense(ds.NRows(), len(names), nil)
	for j, name := range names {
		col, ok := ds.Col(name)
		if !ok {
			return nil, errors.NewDataFormatError(name, "feature column is missing")
		}
		for i := 0; i < col.Len(); i++ {
			X.Set(i, j, col.Float(i))
		}
	}
	return X, nil
}

func textBlock(ds *dataset.Dataset, names []string) ([][]string, error) {
	rows := make([][]string, ds.NRows())
	for i := range rows {
		rows[i] = make([]string, len(names))
	}
	for j, name := range names {
		col, ok := ds.Col(name)
		if !ok {
			return nil, errors.NewDataFormatError(name, "feature column is missing")
		}
		for i := range rows {
			rows[i][j] = col.String(i)
		}
	}
	return rows, nil
}

func hstack(rows int, blocks []mat.Matrix) *mat.Dense {
	width := 0
	for _, b := range blocks {
		_, c := b.Dims()
		width += c
	}
	out := mat.NewDense(rows, width, nil)
	offset := 0
	for _, b := range blocks {
		_, c := b.Dims()
		out.Slice(0, rows, offset, offset+c).(*mat.Dense).Copy(b)
		offset += c
	}
	return out
}
