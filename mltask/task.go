// Package mltask builds and runs classifier pipelines on cleaned datasets.
//
// The last column of a dataset is the target, every other column a feature.
// Numeric features are median-imputed and standardized, the others are
// imputed with their most frequent value and one-hot encoded. The model is
// picked by name from a fixed catalog and configured from loosely-typed
// hyperparameters.
package mltask

import (
	"fmt"
	"sort"
	"strings"

	"github.com/YuminosukeSato/edaml/dataset"
	"github.com/YuminosukeSato/edaml/model_selection"
	"github.com/YuminosukeSato/edaml/pipeline"
	"github.com/YuminosukeSato/edaml/pkg/errors"
	"github.com/YuminosukeSato/edaml/pkg/log"
	"github.com/YuminosukeSato/edaml/preprocessing"
)

// Action selects what Run reports after evaluation.
type Action string

// Actions understood by Run.
const (
	ActionRetrain Action = "retrain"
	ActionPredict Action = "predict"
)

// NotAvailable is the metrics text of results without an evaluation.
const NotAvailable = "N/A"

// Result is the outcome of Run. Output and Metrics are display strings;
// Err carries the typed error of a failed step.
type Result struct {
	Output  string `json:"output"`
	Metrics string `json:"metrics"`
	Err     error  `json:"-"`
}

// Built is an unfitted pipeline together with its encoded target.
type Built struct {
	Model    ModelName
	Pipeline *pipeline.Pipeline
	Labels   *preprocessing.LabelEncoder

	// Features holds every column but the last.
	Features *dataset.Dataset
	// Target is the label-encoded last column.
	Target []int
	// Params are the hyperparameters applied to the model; nil when the
	// model fell back to its base configuration.
	Params map[string]interface{}
}

// Build splits ds into features and target, label-encodes the target and
// assembles the preprocessing pipeline around the named model. When the
// hyperparameters are rejected the model is rebuilt with its base
// configuration and a warning is logged.
func Build(ds *dataset.Dataset, name ModelName, params map[string]string, opts ...Option) (*Built, error) {
	o := resolve(opts)
	return build(ds, name, params, o)
}

func build(ds *dataset.Dataset, name ModelName, params map[string]string, o Options) (*Built, error) {
	if ds.NCols() < 2 {
		return nil, errors.NewInsufficientColumnsError(2, ds.NCols())
	}
	names := ds.Names()
	features, err := ds.Select(names[:len(names)-1]...)
	if err != nil {
		return nil, err
	}
	targetCol := ds.Column(ds.NCols() - 1)

	labels := make([]string, targetCol.Len())
	for i := range labels {
		if targetCol.IsNull(i) {
			labels[i] = "NaN"
		} else {
			labels[i] = targetCol.String(i)
		}
	}
	le := preprocessing.NewLabelEncoder()
	if targetCol.IsNumeric() {
		le = preprocessing.NewNumericLabelEncoder()
	}
	target, err := le.FitTransform(labels)
	if err != nil {
		return nil, err
	}

	coerced := CoerceParams(params)
	clf, err := NewModel(name, coerced, o)
	if err != nil {
		var construction *errors.ModelConstructionError
		if !errors.As(err, &construction) {
			return nil, err
		}
		o.logger.Warn("hyperparameters rejected, using defaults",
			log.ModelNameKey, string(name),
			log.HyperParamsKey, coerced,
			"error", err,
		)
		coerced = nil
		if clf, err = NewModel(name, nil, o); err != nil {
			return nil, err
		}
	}

	return &Built{
		Model:    name,
		Pipeline: pipeline.New(preprocessing.ForDataset(features), clf),
		Labels:   le,
		Features: features,
		Target:   target,
		Params:   coerced,
	}, nil
}

// Run builds the pipeline, reports its accuracy on a stratified held-out
// split and then either confirms the retraining or predicts newRow. Run
// never fails; every error ends up in the returned Result.
func Run(ds *dataset.Dataset, name ModelName, params map[string]string, newRow map[string]string, action Action, opts ...Option) Result {
	o := resolve(opts)
	logger := o.logger.With(log.ModelNameKey, string(name), log.ActionKey, string(action))

	if ds.NCols() < 2 {
		err := errors.NewInsufficientColumnsError(2, ds.NCols())
		logger.Error("cannot split features and target", "error", err)
		return Result{
			Output:  fmt.Sprintf("Error splitting X and Y. The dataset needs at least 2 columns. Error: %v", err),
			Metrics: NotAvailable,
			Err:     err,
		}
	}

	built, err := build(ds, name, params, o)
	if err != nil {
		logger.Error("cannot build pipeline", "error", err)
		return Result{Output: fmt.Sprintf("Error building pipeline: %v", err), Metrics: NotAvailable, Err: err}
	}

	split, err := model_selection.TrainTestSplit(len(built.Target),
		model_selection.WithTestSize(o.TestSize),
		model_selection.WithRandomState(o.Seed),
		model_selection.WithStratify(built.Target),
	)
	if err != nil {
		return trainingFailure(logger, name, "split", err)
	}

	train := built.Features.Take(split.Train)
	if err := built.Pipeline.Fit(train, pick(built.Target, split.Train)); err != nil {
		return trainingFailure(logger, name, "fit", err)
	}
	acc, err := built.Pipeline.Score(built.Features.Take(split.Test), pick(built.Target, split.Test))
	if err != nil {
		return trainingFailure(logger, name, "score", err)
	}

	testPct := int(o.TestSize*100 + 0.5)
	metrics := fmt.Sprintf("acc=%.2f (based on %d/%d split of the original dataset)", acc, 100-testPct, testPct)
	logger.Info("model evaluated",
		log.SamplesKey, len(split.Train),
		log.FeaturesKey, built.Features.NCols(),
		log.ClassesKey, len(built.Labels.Classes()),
		log.AccuracyKey, acc,
		log.RandomSeedKey, o.Seed,
	)

	switch action {
	case ActionRetrain:
		return Result{
			Output:  fmt.Sprintf("Model %s retrained with HPs: %s", name, formatParams(params)),
			Metrics: metrics,
		}
	case ActionPredict:
		label, score, err := predictRow(built, newRow, o.FeaturePrefix)
		if err != nil {
			err = errors.NewPredictionError(string(name), err)
			logger.Error("prediction failed", "error", err)
			return Result{Output: fmt.Sprintf("Error in prediction: %v", err), Metrics: metrics, Err: err}
		}
		return Result{
			Output:  fmt.Sprintf("Prediction: class='%s' / score=%.2f", label, score),
			Metrics: metrics,
		}
	default:
		return Result{Output: "Unknown action.", Metrics: NotAvailable}
	}
}

func trainingFailure(logger log.Logger, name ModelName, stage string, err error) Result {
	err = errors.NewTrainingError(string(name), stage, err)
	logger.Error("training failed", "error", err)
	return Result{Output: fmt.Sprintf("Error training model: %v", err), Metrics: NotAvailable, Err: err}
}

func pick(values []int, idx []int) []int {
	out := make([]int, len(idx))
	for i, j := range idx {
		out[i] = values[j]
	}
	return out
}

// formatParams renders the raw hyperparameters as {k: v, ...} in key order.
func formatParams(params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + ": " + params[k]
	}
	return "{" + strings.Join(parts, ", ") + "}"
}
