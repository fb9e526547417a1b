// Package ensemble provides a random forest classifier built from
// sklearn/tree decision trees.
package ensemble

import (
	"math/rand"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/edaml/core/model"
	"github.com/YuminosukeSato/edaml/core/parallel"
	"github.com/YuminosukeSato/edaml/metrics"
	"github.com/YuminosukeSato/edaml/pkg/errors"
	"github.com/YuminosukeSato/edaml/sklearn/tree"
)

// RandomForestClassifier averages the class probabilities of bootstrapped trees
// Compatible with scikit-learn's RandomForestClassifier
type RandomForestClassifier struct {
	state *model.StateManager

	// Hyperparameters
	nEstimators         int
	criterion           string
	maxDepth            int // 0 = unlimited
	minSamplesSplit     int
	minSamplesLeaf      int
	maxFeatures         string // "", "sqrt", "log2" or "int"
	maxFeaturesN        int
	minImpurityDecrease float64
	bootstrap           bool
	randomState         int64
	nJobs               int // 受け付けるだけ。並列度は CPU 数で決まる

	// Model parameters
	estimators_ []*tree.DecisionTreeClassifier
	classes_    []int
}

// Option is a functional option for RandomForestClassifier
type Option func(*RandomForestClassifier)

// NewRandomForestClassifier creates a forest with scikit-learn's defaults
// (100 trees, sqrt features, bootstrap).
func NewRandomForestClassifier(opts ...Option) *RandomForestClassifier {
	rf := &RandomForestClassifier{
		state:           model.NewStateManager(),
		nEstimators:     100,
		criterion:       "gini",
		minSamplesSplit: 2,
		minSamplesLeaf:  1,
		maxFeatures:     "sqrt",
		bootstrap:       true,
	}
	for _, opt := range opts {
		opt(rf)
	}
	return rf
}

// WithNEstimators sets the number of trees
func WithNEstimators(n int) Option {
	return func(rf *RandomForestClassifier) { rf.nEstimators = n }
}

// WithCriterion sets the split criterion of every tree
func WithCriterion(criterion string) Option {
	return func(rf *RandomForestClassifier) { rf.criterion = criterion }
}

// WithMaxDepth sets the maximum depth of every tree; 0 means unlimited
func WithMaxDepth(depth int) Option {
	return func(rf *RandomForestClassifier) { rf.maxDepth = depth }
}

// WithBootstrap toggles bootstrap sampling
func WithBootstrap(b bool) Option {
	return func(rf *RandomForestClassifier) { rf.bootstrap = b }
}

// WithRandomState sets the random seed
func WithRandomState(seed int64) Option {
	return func(rf *RandomForestClassifier) { rf.randomState = seed }
}

// IsFitted reports whether Fit has succeeded.
func (rf *RandomForestClassifier) IsFitted() bool { return rf.state.IsFitted() }

// Fit grows nEstimators trees in parallel. Every tree receives its seed from
// a generator seeded with random_state before any goroutine starts, so the
// forest does not depend on scheduling.
func (rf *RandomForestClassifier) Fit(X, y mat.Matrix) error {
	if rf.nEstimators < 1 {
		return errors.NewValidationError("n_estimators", "must be >= 1", rf.nEstimators)
	}
	nSamples, nFeatures := X.Dims()
	if nSamples == 0 || nFeatures == 0 {
		return errors.NewModelError("RandomForestClassifier.Fit", "empty data", errors.ErrEmptyData)
	}

	rng := rand.New(rand.NewSource(rf.randomState))
	seeds := make([]int64, rf.nEstimators)
	for i := range seeds {
		seeds[i] = rng.Int63()
	}

	trees := make([]*tree.DecisionTreeClassifier, rf.nEstimators)
	err := parallel.ParallelizeErr(rf.nEstimators, 4, func(start, end int) error {
		for t := start; t < end; t++ {
			treeRand := rand.New(rand.NewSource(seeds[t]))
			sample := make([]int, nSamples)
			for i := range sample {
				if rf.bootstrap {
					sample[i] = treeRand.Intn(nSamples)
				} else {
					sample[i] = i
				}
			}
			dt := rf.newTree(treeRand.Int63())
			if err := dt.FitSample(X, y, sample); err != nil {
				return err
			}
			trees[t] = dt
		}
		return nil
	})
	if err != nil {
		return errors.NewModelError("RandomForestClassifier.Fit", "tree fitting failed", err)
	}

	rf.estimators_ = trees
	rf.classes_ = trees[0].Classes()
	rf.state.SetDimensions(nFeatures, nSamples)
	rf.state.SetFitted()
	return nil
}

func (rf *RandomForestClassifier) newTree(seed int64) *tree.DecisionTreeClassifier {
	opts := []tree.Option{
		tree.WithCriterion(rf.criterion),
		tree.WithMaxDepth(rf.maxDepth),
		tree.WithMinSamplesSplit(rf.minSamplesSplit),
		tree.WithMinSamplesLeaf(rf.minSamplesLeaf),
		tree.WithMinImpurityDecrease(rf.minImpurityDecrease),
		tree.WithRandomState(seed),
	}
	if rf.maxFeatures == "int" {
		opts = append(opts, tree.WithMaxFeaturesN(rf.maxFeaturesN))
	} else {
		opts = append(opts, tree.WithMaxFeatures(rf.maxFeatures))
	}
	return tree.NewDecisionTreeClassifier(opts...)
}

// PredictProba averages the tree probabilities.
func (rf *RandomForestClassifier) PredictProba(X mat.Matrix) (mat.Matrix, error) {
	if err := rf.state.RequireFitted("RandomForestClassifier", "PredictProba"); err != nil {
		return nil, err
	}
	nSamples, nFeatures := X.Dims()
	if err := rf.state.CheckFeatures("RandomForestClassifier.PredictProba", nFeatures); err != nil {
		return nil, err
	}

	sum := mat.NewDense(nSamples, len(rf.classes_), nil)
	for _, dt := range rf.estimators_ {
		p, err := dt.PredictProba(X)
		if err != nil {
			return nil, err
		}
		sum.Add(sum, p)
	}
	sum.Scale(1/float64(len(rf.estimators_)), sum)
	return sum, nil
}

// Predict returns the class with the highest mean probability.
func (rf *RandomForestClassifier) Predict(X mat.Matrix) (mat.Matrix, error) {
	proba, err := rf.PredictProba(X)
	if err != nil {
		return nil, err
	}
	return tree.ArgmaxClasses(proba, rf.classes_), nil
}

// Score returns the mean accuracy on the given test data and labels
func (rf *RandomForestClassifier) Score(X, y mat.Matrix) (float64, error) {
	predictions, err := rf.Predict(X)
	if err != nil {
		return 0, err
	}
	return metrics.AccuracyMatrix(y, predictions)
}

// Classes returns the sorted class labels seen during fitting.
func (rf *RandomForestClassifier) Classes() []int { return rf.classes_ }

// Estimators returns the fitted trees.
func (rf *RandomForestClassifier) Estimators() []*tree.DecisionTreeClassifier { return rf.estimators_ }

// GetParams returns the model hyperparameters
func (rf *RandomForestClassifier) GetParams() map[string]interface{} {
	var maxDepth interface{}
	if rf.maxDepth > 0 {
		maxDepth = rf.maxDepth
	}
	var maxFeatures interface{}
	switch rf.maxFeatures {
	case "sqrt", "log2":
		maxFeatures = rf.maxFeatures
	case "int":
		maxFeatures = rf.maxFeaturesN
	}
	return map[string]interface{}{
		"n_estimators":          rf.nEstimators,
		"criterion":             rf.criterion,
		"max_depth":             maxDepth,
		"min_samples_split":     rf.minSamplesSplit,
		"min_samples_leaf":      rf.minSamplesLeaf,
		"max_features":          maxFeatures,
		"min_impurity_decrease": rf.minImpurityDecrease,
		"bootstrap":             rf.bootstrap,
		"random_state":          rf.randomState,
		"n_jobs":                rf.nJobs,
	}
}

// SetParams sets the model hyperparameters
func (rf *RandomForestClassifier) SetParams(params map[string]interface{}) error {
	for key, value := range params {
		var err error
		switch key {
		case "n_estimators":
			rf.nEstimators, err = model.ParamInt(key, value)
			if err == nil && rf.nEstimators < 1 {
				err = errors.NewValidationError(key, "must be >= 1", value)
			}
		case "criterion":
			rf.criterion, err = model.ParamChoice(key, value, "gini", "entropy")
		case "max_depth":
			rf.maxDepth, err = model.ParamOptionalInt(key, value, 0)
			if err == nil && rf.maxDepth < 0 {
				err = errors.NewValidationError(key, "must be >= 1 or None", value)
			}
		case "min_samples_split":
			rf.minSamplesSplit, err = model.ParamInt(key, value)
			if err == nil && rf.minSamplesSplit < 2 {
				err = errors.NewValidationError(key, "must be >= 2", value)
			}
		case "min_samples_leaf":
			rf.minSamplesLeaf, err = model.ParamInt(key, value)
			if err == nil && rf.minSamplesLeaf < 1 {
				err = errors.NewValidationError(key, "must be >= 1", value)
			}
		case "max_features":
			rf.maxFeatures, rf.maxFeaturesN, err = tree.ParseMaxFeatures(value)
		case "min_impurity_decrease":
			rf.minImpurityDecrease, err = model.ParamFloat(key, value)
		case "bootstrap":
			rf.bootstrap, err = model.ParamBool(key, value)
		case "random_state":
			var seed int
			seed, err = model.ParamInt(key, value)
			rf.randomState = int64(seed)
		case "n_jobs":
			rf.nJobs, err = model.ParamOptionalInt(key, value, 0)
		default:
			err = model.UnknownParam("RandomForestClassifier", key, value)
		}
		if err != nil {
			return err
		}
	}
	return nil
}
