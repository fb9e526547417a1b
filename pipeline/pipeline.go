// Package pipeline chains the dataset preprocessor with a classifier.
// It mirrors sklearn.pipeline.Pipeline with a fixed two-step layout:
// a ColumnTransformer named "preprocessor" followed by a classifier named
// "classifier".
package pipeline

import (
	"fmt"
	"strings"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/edaml/core/model"
	"github.com/YuminosukeSato/edaml/dataset"
	"github.com/YuminosukeSato/edaml/pkg/errors"
	"github.com/YuminosukeSato/edaml/pkg/log"
	"github.com/YuminosukeSato/edaml/preprocessing"
)

// Step names.
const (
	PreprocessorStep = "preprocessor"
	ClassifierStep   = "classifier"
)

// Pipeline transforms datasets with a ColumnTransformer and fits or queries
// a classifier on the result. Targets are integer class codes.
type Pipeline struct {
	state  *model.StateManager
	logger log.Logger

	preprocessor *preprocessing.ColumnTransformer
	classifier   model.Classifier
}

// New creates a pipeline from its two steps.
func New(preprocessor *preprocessing.ColumnTransformer, classifier model.Classifier) *Pipeline {
	return &Pipeline{
		state:        model.NewStateManager(),
		logger:       log.GetLoggerWithName("Pipeline"),
		preprocessor: preprocessor,
		classifier:   classifier,
	}
}

// IsFitted reports whether Fit has succeeded.
func (p *Pipeline) IsFitted() bool { return p.state.IsFitted() }

// Fit fits the preprocessor on ds, transforms it and fits the classifier.
func (p *Pipeline) Fit(ds *dataset.Dataset, y []int) error {
	if ds.NRows() != len(y) {
		return errors.NewDimensionError("Pipeline.Fit", ds.NRows(), len(y), 0)
	}

	Xt, err := p.preprocessor.FitTransform(ds)
	if err != nil {
		return errors.Wrap(err, fmt.Sprintf("failed to fit step '%s'", PreprocessorStep))
	}
	// 無限大は補完されずにそのまま残る
	rows, cols := Xt.Dims()
	if err := errors.CheckMatrix("Pipeline.Fit", Xt, rows, cols, 0); err != nil {
		return err
	}
	if err := p.classifier.Fit(Xt, labelColumn(y)); err != nil {
		return errors.Wrap(err, fmt.Sprintf("failed to fit final step '%s'", ClassifierStep))
	}

	p.logger.Debug("pipeline fitted",
		log.OperationKey, log.OperationFit,
		log.SamplesKey, rows,
		log.FeaturesKey, cols,
		log.ClassesKey, len(p.classifier.Classes()),
	)
	p.state.SetDimensions(ds.NCols(), rows)
	p.state.SetFitted()
	return nil
}

// Transform applies the fitted preprocessor only.
func (p *Pipeline) Transform(ds *dataset.Dataset) (*mat.Dense, error) {
	if err := p.state.RequireFitted("Pipeline", "Transform"); err != nil {
		return nil, err
	}
	Xt, err := p.preprocessor.Transform(ds)
	if err != nil {
		return nil, errors.Wrap(err, fmt.Sprintf("failed to transform at step '%s'", PreprocessorStep))
	}
	r, c := Xt.Dims()
	if err := errors.CheckMatrix("Pipeline.Transform", Xt, r, c, 0); err != nil {
		return nil, err
	}
	return Xt, nil
}

// Predict returns one class code per row of ds.
func (p *Pipeline) Predict(ds *dataset.Dataset) ([]int, error) {
	Xt, err := p.Transform(ds)
	if err != nil {
		return nil, err
	}
	pred, err := p.classifier.Predict(Xt)
	if err != nil {
		return nil, err
	}
	rows, _ := pred.Dims()
	out := make([]int, rows)
	for i := range out {
		out[i] = int(pred.At(i, 0))
	}
	return out, nil
}

// PredictProba returns class probabilities with one column per entry of
// Classes().
func (p *Pipeline) PredictProba(ds *dataset.Dataset) (mat.Matrix, error) {
	Xt, err := p.Transform(ds)
	if err != nil {
		return nil, err
	}
	return p.classifier.PredictProba(Xt)
}

// Score returns the accuracy of the classifier on ds.
func (p *Pipeline) Score(ds *dataset.Dataset, y []int) (float64, error) {
	Xt, err := p.Transform(ds)
	if err != nil {
		return 0, err
	}
	if r, _ := Xt.Dims(); r != len(y) {
		return 0, errors.NewDimensionError("Pipeline.Score", r, len(y), 0)
	}
	return p.classifier.Score(Xt, labelColumn(y))
}

// Classes returns the class codes known to the fitted classifier.
func (p *Pipeline) Classes() []int { return p.classifier.Classes() }

// Preprocessor returns the first step.
func (p *Pipeline) Preprocessor() *preprocessing.ColumnTransformer { return p.preprocessor }

// Classifier returns the final step.
func (p *Pipeline) Classifier() model.Classifier { return p.classifier }

// NamedSteps returns the steps by name.
func (p *Pipeline) NamedSteps() map[string]interface{} {
	return map[string]interface{}{
		PreprocessorStep: p.preprocessor,
		ClassifierStep:   p.classifier,
	}
}

// GetParams returns the classifier parameters prefixed with "classifier__".
func (p *Pipeline) GetParams() map[string]interface{} {
	params := make(map[string]interface{})
	if getter, ok := p.classifier.(model.ParameterGetter); ok {
		for key, value := range getter.GetParams() {
			params[ClassifierStep+"__"+key] = value
		}
	}
	return params
}

// SetParams routes "classifier__<name>" keys to the classifier.
func (p *Pipeline) SetParams(params map[string]interface{}) error {
	nested := make(map[string]interface{})
	for key, value := range params {
		step, name, ok := strings.Cut(key, "__")
		if !ok || step != ClassifierStep {
			return model.UnknownParam("Pipeline", key, value)
		}
		nested[name] = value
	}
	if len(nested) == 0 {
		return nil
	}
	setter, ok := p.classifier.(model.ParameterSetter)
	if !ok {
		return errors.NewValidationError("pipeline final step", "classifier does not accept parameters", ClassifierStep)
	}
	return setter.SetParams(nested)
}

func labelColumn(y []int) *mat.Dense {
	col := mat.NewDense(len(y), 1, nil)
	for i, v := range y {
		col.Set(i, 0, float64(v))
	}
	return col
}
