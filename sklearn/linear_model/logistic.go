package linear_model

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/edaml/core/model"
	"github.com/YuminosukeSato/edaml/metrics"
	"github.com/YuminosukeSato/edaml/pkg/errors"
)

// LogisticRegression implements logistic regression for classification
// Compatible with scikit-learn's LogisticRegression
type LogisticRegression struct {
	state *model.StateManager // State management (composition)

	// Hyperparameters
	penalty          string  // Regularization: "l2", "l1", "none"
	C                float64 // Inverse regularization strength (1/alpha)
	fitIntercept     bool    // Whether to fit intercept
	interceptScaling float64 // Intercept scaling
	classWeight      string  // Class weight: "balanced", "none"
	randomState      int64   // Random seed (accepted for compatibility)
	solver           string  // Solver: "lbfgs", "liblinear", "newton-cg", "sag", "saga"
	maxIter          int     // Maximum iterations
	multiClass       string  // Multi-class: "auto", "ovr", "multinomial"
	verbose          int     // Verbosity level
	warmStart        bool    // Reuse previous solution
	l1Ratio          float64 // L1 ratio for elastic net
	tol              float64 // Tolerance for stopping

	// Model parameters
	coef_        [][]float64 // Coefficients (n_classes x n_features or 1 x n_features for binary)
	intercept_   []float64   // Intercept terms
	classes_     []int       // Unique class labels
	nClasses_    int         // Number of classes
	nFeatures_   int         // Number of features
	nIter_       []int       // Actual iterations per fitted problem
	multinomial_ bool        // Whether the coefficients are softmax weights
}

// LogisticRegressionOption is a functional option for LogisticRegression
type LogisticRegressionOption func(*LogisticRegression)

// NewLogisticRegression creates a new LogisticRegression classifier
func NewLogisticRegression(opts ...LogisticRegressionOption) *LogisticRegression {
	lr := &LogisticRegression{
		state:            model.NewStateManager(),
		penalty:          "l2",
		C:                1.0,
		fitIntercept:     true,
		interceptScaling: 1.0,
		classWeight:      "none",
		randomState:      0,
		solver:           "lbfgs",
		maxIter:          100,
		multiClass:       "auto",
		verbose:          0,
		warmStart:        false,
		l1Ratio:          0.5,
		tol:              1e-4,
	}

	// Apply options
	for _, opt := range opts {
		opt(lr)
	}

	return lr
}

// Option functions

// WithLRPenalty sets the regularization type
func WithLRPenalty(penalty string) LogisticRegressionOption {
	return func(lr *LogisticRegression) {
		lr.penalty = penalty
	}
}

// WithLRC sets the inverse regularization strength
func WithLRC(c float64) LogisticRegressionOption {
	return func(lr *LogisticRegression) {
		lr.C = c
	}
}

// WithLogisticFitIntercept sets whether to fit intercept
func WithLogisticFitIntercept(fit bool) LogisticRegressionOption {
	return func(lr *LogisticRegression) {
		lr.fitIntercept = fit
	}
}

// WithLRSolver sets the optimization solver
func WithLRSolver(solver string) LogisticRegressionOption {
	return func(lr *LogisticRegression) {
		lr.solver = solver
	}
}

// WithLRMaxIter sets the maximum number of iterations
func WithLRMaxIter(maxIter int) LogisticRegressionOption {
	return func(lr *LogisticRegression) {
		lr.maxIter = maxIter
	}
}

// WithLRTol sets the tolerance for stopping criteria
func WithLRTol(tol float64) LogisticRegressionOption {
	return func(lr *LogisticRegression) {
		lr.tol = tol
	}
}

// WithLRMultiClass sets the multi-class strategy
func WithLRMultiClass(strategy string) LogisticRegressionOption {
	return func(lr *LogisticRegression) {
		lr.multiClass = strategy
	}
}

// WithLRClassWeight sets the class weighting ("balanced" or "none")
func WithLRClassWeight(weight string) LogisticRegressionOption {
	return func(lr *LogisticRegression) {
		lr.classWeight = weight
	}
}

// WithLRRandomState sets the random seed
func WithLRRandomState(seed int64) LogisticRegressionOption {
	return func(lr *LogisticRegression) {
		lr.randomState = seed
	}
}

// IsFitted reports whether Fit has succeeded.
func (lr *LogisticRegression) IsFitted() bool { return lr.state.IsFitted() }

// validate checks hyperparameters the same way scikit-learn does at fit time
func (lr *LogisticRegression) validate() error {
	if lr.C <= 0 || math.IsNaN(lr.C) {
		return errors.NewValidationError("C", "penalty term must be positive", lr.C)
	}
	if lr.maxIter < 1 {
		return errors.NewValidationError("max_iter", "must be >= 1", lr.maxIter)
	}
	if lr.tol <= 0 {
		return errors.NewValidationError("tol", "must be positive", lr.tol)
	}
	switch lr.penalty {
	case "l2", "none":
	case "l1":
		if lr.solver != "liblinear" && lr.solver != "saga" {
			return errors.NewValidationError("penalty",
				fmt.Sprintf("solver %s supports only 'l2' or 'none' penalties", lr.solver), lr.penalty)
		}
	default:
		return errors.NewValidationError("penalty", "must be l1, l2 or none", lr.penalty)
	}
	switch lr.solver {
	case "lbfgs", "liblinear", "newton-cg", "newton-cholesky", "sag", "saga":
	default:
		return errors.NewValidationError("solver", "unknown solver", lr.solver)
	}
	switch lr.multiClass {
	case "auto", "ovr", "multinomial":
	default:
		return errors.NewValidationError("multi_class", "must be auto, ovr or multinomial", lr.multiClass)
	}
	if lr.classWeight != "none" && lr.classWeight != "balanced" {
		return errors.NewValidationError("class_weight", "must be balanced or None", lr.classWeight)
	}
	return nil
}

// Fit trains the logistic regression model
func (lr *LogisticRegression) Fit(X, y mat.Matrix) error {
	if err := lr.validate(); err != nil {
		return err
	}

	// Validate inputs
	nSamples, nFeatures := X.Dims()
	yRows, yCols := y.Dims()

	if nSamples == 0 || nFeatures == 0 {
		return errors.NewModelError("LogisticRegression.Fit", "empty data", errors.ErrEmptyData)
	}
	if nSamples != yRows {
		return errors.NewDimensionError("LogisticRegression.Fit", nSamples, yRows, 0)
	}
	if yCols != 1 {
		return errors.NewValueError("LogisticRegression.Fit", fmt.Sprintf("y must be a column vector: got shape (%d, %d)", yRows, yCols))
	}

	// Extract unique classes
	lr.extractClasses(y)
	if lr.nClasses_ < 2 {
		return errors.NewValueError("LogisticRegression.Fit",
			fmt.Sprintf("this solver needs samples of at least 2 classes in the data, but the data contains only one class: %d", lr.classes_[0]))
	}
	lr.nFeatures_ = nFeatures

	codes := make([]int, nSamples)
	for i := range codes {
		codes[i] = sort.SearchInts(lr.classes_, int(y.At(i, 0)))
	}
	weights := lr.sampleWeights(codes)
	Xd := mat.DenseCopyOf(X)

	// liblinear は常に one-vs-rest
	lr.multinomial_ = lr.nClasses_ > 2 && lr.multiClass != "ovr" && lr.solver != "liblinear"

	warm := lr.warmStart && lr.coef_ != nil && len(lr.coef_[0]) == nFeatures
	switch {
	case lr.nClasses_ == 2:
		// Binary classification: single set of weights
		if !warm || len(lr.coef_) != 1 {
			lr.initializeWeights(1, nFeatures)
		}
		targets := make([]int, nSamples)
		for i, c := range codes {
			if c == 1 {
				targets[i] = 1
			}
		}
		if err := lr.fitProblem(Xd, targets, weights, 1, 0); err != nil {
			return err
		}
	case lr.multinomial_:
		if !warm || len(lr.coef_) != lr.nClasses_ {
			lr.initializeWeights(lr.nClasses_, nFeatures)
		}
		if err := lr.fitProblem(Xd, codes, weights, lr.nClasses_, 0); err != nil {
			return err
		}
	default:
		// One-vs-rest
		if !warm || len(lr.coef_) != lr.nClasses_ {
			lr.initializeWeights(lr.nClasses_, nFeatures)
		}
		for classIdx := range lr.classes_ {
			targets := make([]int, nSamples)
			for i, c := range codes {
				if c == classIdx {
					targets[i] = 1
				}
			}
			if err := lr.fitProblem(Xd, targets, weights, 1, classIdx); err != nil {
				return fmt.Errorf("failed to fit class %d: %w", lr.classes_[classIdx], err)
			}
		}
	}

	lr.state.SetDimensions(nFeatures, nSamples)
	lr.state.SetFitted()
	return nil
}

// extractClasses identifies unique class labels
func (lr *LogisticRegression) extractClasses(y mat.Matrix) {
	rows, _ := y.Dims()
	classMap := make(map[int]bool)

	for i := 0; i < rows; i++ {
		label := int(y.At(i, 0))
		classMap[label] = true
	}

	lr.classes_ = make([]int, 0, len(classMap))
	for class := range classMap {
		lr.classes_ = append(lr.classes_, class)
	}

	// Sort classes for consistency
	sort.Ints(lr.classes_)
	lr.nClasses_ = len(lr.classes_)
}

// sampleWeights returns per-sample weights; "balanced" gives every class the
// same total weight n / n_classes.
func (lr *LogisticRegression) sampleWeights(codes []int) []float64 {
	w := make([]float64, len(codes))
	if lr.classWeight != "balanced" {
		for i := range w {
			w[i] = 1
		}
		return w
	}
	counts := make([]float64, lr.nClasses_)
	for _, c := range codes {
		counts[c]++
	}
	for i, c := range codes {
		w[i] = float64(len(codes)) / (float64(lr.nClasses_) * counts[c])
	}
	return w
}

// initializeWeights zeroes rows weight vectors
func (lr *LogisticRegression) initializeWeights(rows, nFeatures int) {
	lr.coef_ = make([][]float64, rows)
	for i := range lr.coef_ {
		lr.coef_[i] = make([]float64, nFeatures)
	}
	lr.intercept_ = make([]float64, rows)
	lr.nIter_ = make([]int, rows)
}

// fitProblem minimizes the penalized mean log-loss of k weight vectors
// starting at coef_[offset]. k == 1 is a binary problem with 0/1 targets,
// k > 1 a softmax problem with class-index targets.
func (lr *LogisticRegression) fitProblem(X *mat.Dense, targets []int, weights []float64, k, offset int) error {
	obj := newLogLoss(X, targets, weights, k, lr.fitIntercept)
	// scikit-learn の目的関数 C*Σloss + penalty を 1/(C*Σw) 倍したもの
	obj.alpha = 1 / (lr.C * floats.Sum(weights))

	x0 := make([]float64, obj.dim())
	for c := 0; c < k; c++ {
		obj.pack(x0, c, lr.coef_[offset+c], lr.intercept_[offset+c])
	}

	var (
		x     []float64
		iters int
		done  bool
	)
	switch lr.penalty {
	case "l1":
		x, iters, done = obj.proximalGradient(x0, lr.maxIter, lr.tol)
	case "none":
		obj.alpha = 0
		fallthrough
	default:
		var err error
		x, iters, done, err = obj.lbfgs(x0, lr.maxIter, lr.tol)
		if err != nil {
			return errors.NewModelError("LogisticRegression.Fit", "optimization", err)
		}
	}
	if err := errors.CheckNumericalStability("LogisticRegression.Fit", x, iters); err != nil {
		return err
	}
	if !done {
		errors.Warn(errors.NewConvergenceWarning(lr.solver, iters,
			"failed to converge, increase the number of iterations (max_iter) or scale the data"))
	}

	for c := 0; c < k; c++ {
		lr.coef_[offset+c], lr.intercept_[offset+c] = obj.unpack(x, c)
		lr.nIter_[offset+c] = iters
	}
	return nil
}

// decision returns the raw scores of row x for every weight vector
func (lr *LogisticRegression) decision(x []float64, scores []float64) {
	for c := range lr.coef_ {
		scores[c] = lr.intercept_[c] + floats.Dot(x, lr.coef_[c])
	}
}

// Predict makes predictions for input data
func (lr *LogisticRegression) Predict(X mat.Matrix) (mat.Matrix, error) {
	probas, err := lr.PredictProba(X)
	if err != nil {
		return nil, err
	}
	nSamples, _ := probas.Dims()
	predictions := mat.NewDense(nSamples, 1, nil)
	for i := 0; i < nSamples; i++ {
		best := 0
		for c := 1; c < lr.nClasses_; c++ {
			if probas.At(i, c) > probas.At(i, best) {
				best = c
			}
		}
		predictions.Set(i, 0, float64(lr.classes_[best]))
	}
	return predictions, nil
}

// PredictProba returns probability estimates for each class
func (lr *LogisticRegression) PredictProba(X mat.Matrix) (mat.Matrix, error) {
	if err := lr.state.RequireFitted("LogisticRegression", "PredictProba"); err != nil {
		return nil, err
	}
	nSamples, nFeatures := X.Dims()
	if err := lr.state.CheckFeatures("LogisticRegression.PredictProba", nFeatures); err != nil {
		return nil, err
	}

	probas := mat.NewDense(nSamples, lr.nClasses_, nil)
	row := make([]float64, nFeatures)
	scores := make([]float64, len(lr.coef_))
	for i := 0; i < nSamples; i++ {
		mat.Row(row, i, X)
		lr.decision(row, scores)
		out := probas.RawRowView(i)

		switch {
		case lr.nClasses_ == 2:
			p1 := errors.Sigmoid(scores[0])
			out[0], out[1] = 1-p1, p1
		case lr.multinomial_:
			copy(out, scores)
			errors.Softmax(out)
		default:
			// OvR: シグモイドを正規化
			for c, s := range scores {
				out[c] = errors.Sigmoid(s)
			}
			floats.Scale(1/floats.Sum(out), out)
		}
	}
	return probas, nil
}

// Score returns the mean accuracy on the given test data and labels
func (lr *LogisticRegression) Score(X, y mat.Matrix) (float64, error) {
	predictions, err := lr.Predict(X)
	if err != nil {
		return 0, err
	}
	return metrics.AccuracyMatrix(y, predictions)
}

// Classes returns the sorted class labels seen during fitting.
func (lr *LogisticRegression) Classes() []int { return lr.classes_ }

// Coef returns a copy of the fitted coefficients
func (lr *LogisticRegression) Coef() [][]float64 {
	out := make([][]float64, len(lr.coef_))
	for i, c := range lr.coef_ {
		out[i] = append([]float64(nil), c...)
	}
	return out
}

// Intercept returns a copy of the fitted intercepts
func (lr *LogisticRegression) Intercept() []float64 {
	return append([]float64(nil), lr.intercept_...)
}

// NIter returns the number of iterations run for each fitted problem
func (lr *LogisticRegression) NIter() []int { return lr.nIter_ }

// GetParams returns the model hyperparameters
func (lr *LogisticRegression) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"penalty":           lr.penalty,
		"C":                 lr.C,
		"fit_intercept":     lr.fitIntercept,
		"intercept_scaling": lr.interceptScaling,
		"class_weight":      lr.classWeight,
		"random_state":      lr.randomState,
		"solver":            lr.solver,
		"max_iter":          lr.maxIter,
		"multi_class":       lr.multiClass,
		"verbose":           lr.verbose,
		"warm_start":        lr.warmStart,
		"l1_ratio":          lr.l1Ratio,
		"tol":               lr.tol,
	}
}

// SetParams sets the model hyperparameters
func (lr *LogisticRegression) SetParams(params map[string]interface{}) error {
	for key, value := range params {
		var err error
		switch key {
		case "penalty":
			lr.penalty, err = model.ParamString(key, value)
			if lr.penalty == "None" {
				lr.penalty = "none"
			}
		case "C":
			lr.C, err = model.ParamFloat(key, value)
		case "fit_intercept":
			lr.fitIntercept, err = model.ParamBool(key, value)
		case "intercept_scaling":
			lr.interceptScaling, err = model.ParamFloat(key, value)
		case "class_weight":
			lr.classWeight, err = model.ParamString(key, value)
			if lr.classWeight == "None" {
				lr.classWeight = "none"
			}
		case "random_state":
			var seed int
			seed, err = model.ParamOptionalInt(key, value, 0)
			lr.randomState = int64(seed)
		case "solver":
			lr.solver, err = model.ParamString(key, value)
		case "max_iter":
			lr.maxIter, err = model.ParamInt(key, value)
		case "multi_class":
			lr.multiClass, err = model.ParamChoice(key, value, "auto", "ovr", "multinomial")
		case "verbose":
			lr.verbose, err = model.ParamInt(key, value)
		case "warm_start":
			lr.warmStart, err = model.ParamBool(key, value)
		case "l1_ratio":
			lr.l1Ratio, err = model.ParamFloat(key, value)
		case "tol":
			lr.tol, err = model.ParamFloat(key, value)
		case "n_jobs", "dual":
			// 受け付けるだけ
		default:
			err = model.UnknownParam("LogisticRegression", key, value)
		}
		if err != nil {
			return err
		}
	}
	return nil
}
