// Package svm provides a kernel support vector classifier.
package svm

import (
	"fmt"
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/edaml/core/model"
	"github.com/YuminosukeSato/edaml/core/parallel"
	"github.com/YuminosukeSato/edaml/metrics"
	"github.com/YuminosukeSato/edaml/pkg/errors"
)

// SVC is a C-support vector classifier.
// Compatible with scikit-learn's SVC: multiclass problems are decomposed
// one-vs-one, Predict votes over the pairwise decisions, and PredictProba
// (probability=true) couples Platt-scaled pairwise probabilities.
type SVC struct {
	state *model.StateManager

	// Hyperparameters
	C           float64
	kernel      string
	gamma       string // "scale", "auto" or "value"
	gammaValue  float64
	degree      int
	coef0       float64
	tol         float64
	maxIter     int // -1 = no limit
	probability bool
	randomState int64
	shrinking   bool // 受け付けるだけ
	cacheSize   float64

	// Model parameters
	classes_ []int
	pairs_   []*pairModel
	gamma_   float64
	nIter_   []int
}

// pairModel is the binary machine separating classes[pos] (+1) from
// classes[neg] (-1).
type pairModel struct {
	pos, neg int
	sv       [][]float64
	svIndex  []int
	coef     []float64 // α_i y_i
	rho      float64
	k        kernelFunc

	probA, probB float64
}

func (m *pairModel) decisionRow(x []float64) float64 {
	s := -m.rho
	for i, v := range m.sv {
		s += m.coef[i] * m.k(v, x)
	}
	return s
}

// Option is a functional option for SVC
type Option func(*SVC)

// NewSVC creates an SVC with scikit-learn's defaults (C=1, rbf kernel,
// gamma="scale", probability disabled).
func NewSVC(opts ...Option) *SVC {
	svc := &SVC{
		state:     model.NewStateManager(),
		C:         1.0,
		kernel:    KernelRBF,
		gamma:     "scale",
		degree:    3,
		tol:       1e-3,
		maxIter:   -1,
		shrinking: true,
		cacheSize: 200,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// WithC sets the penalty parameter
func WithC(c float64) Option {
	return func(s *SVC) { s.C = c }
}

// WithKernel sets the kernel (linear, poly, rbf, sigmoid)
func WithKernel(kernel string) Option {
	return func(s *SVC) { s.kernel = kernel }
}

// WithGamma sets a fixed kernel coefficient
func WithGamma(gamma float64) Option {
	return func(s *SVC) { s.gamma, s.gammaValue = "value", gamma }
}

// WithGammaRule sets gamma to "scale" or "auto"
func WithGammaRule(rule string) Option {
	return func(s *SVC) { s.gamma = rule }
}

// WithDegree sets the degree of the polynomial kernel
func WithDegree(d int) Option {
	return func(s *SVC) { s.degree = d }
}

// WithCoef0 sets the independent term of the poly and sigmoid kernels
func WithCoef0(c float64) Option {
	return func(s *SVC) { s.coef0 = c }
}

// WithTol sets the stopping tolerance
func WithTol(tol float64) Option {
	return func(s *SVC) { s.tol = tol }
}

// WithMaxIter limits the solver iterations; -1 means no limit
func WithMaxIter(n int) Option {
	return func(s *SVC) { s.maxIter = n }
}

// WithProbability enables probability estimates
func WithProbability(p bool) Option {
	return func(s *SVC) { s.probability = p }
}

// WithRandomState seeds the cross-validation folds of the probability calibration
func WithRandomState(seed int64) Option {
	return func(s *SVC) { s.randomState = seed }
}

// IsFitted reports whether Fit has succeeded.
func (s *SVC) IsFitted() bool { return s.state.IsFitted() }

func (s *SVC) validate() error {
	if !(s.C > 0) {
		return errors.NewValidationError("C", "must be > 0", s.C)
	}
	switch s.kernel {
	case KernelLinear, KernelPoly, KernelRBF, KernelSigmoid:
	default:
		return errors.NewValidationError("kernel", "must be one of linear, poly, rbf, sigmoid", s.kernel)
	}
	switch s.gamma {
	case "scale", "auto":
	case "value":
		if !(s.gammaValue > 0) {
			return errors.NewValidationError("gamma", "must be > 0, scale or auto", s.gammaValue)
		}
	default:
		return errors.NewValidationError("gamma", "must be > 0, scale or auto", s.gamma)
	}
	if s.degree < 0 {
		return errors.NewValidationError("degree", "must be >= 0", s.degree)
	}
	if !(s.tol > 0) {
		return errors.NewValidationError("tol", "must be > 0", s.tol)
	}
	if s.maxIter == 0 || s.maxIter < -1 {
		return errors.NewValidationError("max_iter", "must be >= 1 or -1", s.maxIter)
	}
	return nil
}

// Fit trains one binary machine per pair of classes. Pairs are solved in
// parallel; each pair gets its calibration seed before any goroutine starts.
func (s *SVC) Fit(X, y mat.Matrix) error {
	if err := s.validate(); err != nil {
		return err
	}
	nSamples, nFeatures := X.Dims()
	yRows, yCols := y.Dims()
	if nSamples == 0 || nFeatures == 0 {
		return errors.NewModelError("SVC.Fit", "empty data", errors.ErrEmptyData)
	}
	if nSamples != yRows {
		return errors.NewDimensionError("SVC.Fit", nSamples, yRows, 0)
	}
	if yCols != 1 {
		return errors.NewValueError("SVC.Fit", fmt.Sprintf("y must be a column vector: got shape (%d, %d)", yRows, yCols))
	}

	labels := make([]int, nSamples)
	seen := make(map[int]struct{})
	for i := range labels {
		labels[i] = int(y.At(i, 0))
		seen[labels[i]] = struct{}{}
	}
	classes := make([]int, 0, len(seen))
	for c := range seen {
		classes = append(classes, c)
	}
	sort.Ints(classes)
	if len(classes) < 2 {
		return errors.NewValueError("SVC.Fit",
			fmt.Sprintf("the number of classes has to be greater than one; got %d class", len(classes)))
	}

	Xd := mat.DenseCopyOf(X)
	rows := make([][]float64, nSamples)
	for i := range rows {
		rows[i] = Xd.RawRowView(i)
	}
	byClass := make([][]int, len(classes))
	for i, l := range labels {
		c := sort.SearchInts(classes, l)
		byClass[c] = append(byClass[c], i)
	}

	gamma := resolveGamma(s.gamma, s.gammaValue, Xd)
	k := newKernel(s.kernel, gamma, s.degree, s.coef0)

	var pairs []*pairModel
	for a := 0; a < len(classes); a++ {
		for b := a + 1; b < len(classes); b++ {
			pairs = append(pairs, &pairModel{pos: a, neg: b, k: k})
		}
	}
	rng := rand.New(rand.NewSource(s.randomState))
	seeds := make([]int64, len(pairs))
	for i := range seeds {
		seeds[i] = rng.Int63()
	}
	iters := make([]int, len(pairs))
	converged := make([]bool, len(pairs))

	err := parallel.ParallelizeErr(len(pairs), 1, func(start, end int) error {
		for p := start; p < end; p++ {
			pm := pairs[p]
			idx := append(append([]int(nil), byClass[pm.pos]...), byClass[pm.neg]...)
			sub := make([][]float64, len(idx))
			sy := make([]float64, len(idx))
			for i, r := range idx {
				sub[i] = rows[r]
				sy[i] = -1
				if i < len(byClass[pm.pos]) {
					sy[i] = 1
				}
			}

			if s.probability {
				dec := crossValidatedDecisions(sub, sy, func(r [][]float64, yy []float64) *pairModel {
					m, _ := s.trainBinary(r, yy, nil, k)
					return m
				}, rand.New(rand.NewSource(seeds[p])))
				pm.probA, pm.probB = sigmoidTrain(dec, sy)
			}

			m, sol := s.trainBinary(sub, sy, idx, k)
			pm.sv, pm.svIndex, pm.coef, pm.rho = m.sv, m.svIndex, m.coef, m.rho
			iters[p], converged[p] = sol.iters, sol.converged
		}
		return nil
	})
	if err != nil {
		return errors.NewModelError("SVC.Fit", "solver failed", err)
	}
	for p, ok := range converged {
		if !ok {
			errors.Warn(errors.NewConvergenceWarning("libsvm", iters[p],
				"solver terminated early (max_iter reached), consider pre-processing your data"))
		}
	}

	s.classes_ = classes
	s.pairs_ = pairs
	s.gamma_ = gamma
	s.nIter_ = iters
	s.state.SetDimensions(nFeatures, nSamples)
	s.state.SetFitted()
	return nil
}

// trainBinary solves one binary problem and keeps the support vectors.
// index maps rows to training sample indices and may be nil.
func (s *SVC) trainBinary(rows [][]float64, y []float64, index []int, k kernelFunc) (*pairModel, binarySolution) {
	prob := &binaryProblem{
		kc:      newKernelCache(rows, k),
		y:       y,
		C:       s.C,
		eps:     s.tol,
		maxIter: s.maxIter,
	}
	sol := prob.solve()

	m := &pairModel{rho: sol.rho, k: k}
	for i, a := range sol.alpha {
		if a > 0 {
			m.sv = append(m.sv, rows[i])
			m.coef = append(m.coef, a*y[i])
			if index != nil {
				m.svIndex = append(m.svIndex, index[i])
			}
		}
	}
	return m, sol
}

// DecisionFunction returns the pairwise decision values, one column per
// pair in (0,1), (0,2), ..., (1,2), ... order. Positive values favour the
// first class of the pair.
func (s *SVC) DecisionFunction(X mat.Matrix) (mat.Matrix, error) {
	if err := s.state.RequireFitted("SVC", "DecisionFunction"); err != nil {
		return nil, err
	}
	nSamples, nFeatures := X.Dims()
	if err := s.state.CheckFeatures("SVC.DecisionFunction", nFeatures); err != nil {
		return nil, err
	}

	out := mat.NewDense(nSamples, len(s.pairs_), nil)
	parallel.ParallelizeWithThreshold(nSamples, 64, func(start, end int) {
		x := make([]float64, nFeatures)
		for i := start; i < end; i++ {
			mat.Row(x, i, X)
			for p, pm := range s.pairs_ {
				out.Set(i, p, pm.decisionRow(x))
			}
		}
	})
	return out, nil
}

// Predict returns the class with the most pairwise votes; ties go to the
// smaller class label.
func (s *SVC) Predict(X mat.Matrix) (mat.Matrix, error) {
	dec, err := s.DecisionFunction(X)
	if err != nil {
		return nil, err
	}
	nSamples, _ := dec.Dims()
	out := mat.NewDense(nSamples, 1, nil)
	votes := make([]int, len(s.classes_))
	for i := 0; i < nSamples; i++ {
		for c := range votes {
			votes[c] = 0
		}
		for p, pm := range s.pairs_ {
			if dec.At(i, p) > 0 {
				votes[pm.pos]++
			} else {
				votes[pm.neg]++
			}
		}
		best := 0
		for c := 1; c < len(votes); c++ {
			if votes[c] > votes[best] {
				best = c
			}
		}
		out.Set(i, 0, float64(s.classes_[best]))
	}
	return out, nil
}

// PredictProba returns class probabilities. It requires probability=true.
func (s *SVC) PredictProba(X mat.Matrix) (mat.Matrix, error) {
	if err := s.state.RequireFitted("SVC", "PredictProba"); err != nil {
		return nil, err
	}
	if !s.probability {
		return nil, errors.NewValueError("SVC.PredictProba", "predict_proba is not available when probability=false")
	}
	dec, err := s.DecisionFunction(X)
	if err != nil {
		return nil, err
	}

	const minProb = 1e-7
	k := len(s.classes_)
	nSamples, _ := dec.Dims()
	out := mat.NewDense(nSamples, k, nil)
	for i := 0; i < nSamples; i++ {
		r := make([][]float64, k)
		for c := range r {
			r[c] = make([]float64, k)
		}
		for p, pm := range s.pairs_ {
			v := sigmoidPredict(dec.At(i, p), pm.probA, pm.probB)
			if v < minProb {
				v = minProb
			} else if v > 1-minProb {
				v = 1 - minProb
			}
			r[pm.pos][pm.neg] = v
			r[pm.neg][pm.pos] = 1 - v
		}
		if k == 2 {
			out.Set(i, 0, r[0][1])
			out.Set(i, 1, r[1][0])
			continue
		}
		out.SetRow(i, coupleProbabilities(r))
	}
	return out, nil
}

// Score returns the mean accuracy on the given test data and labels
func (s *SVC) Score(X, y mat.Matrix) (float64, error) {
	predictions, err := s.Predict(X)
	if err != nil {
		return 0, err
	}
	return metrics.AccuracyMatrix(y, predictions)
}

// Classes returns the sorted class labels seen during fitting.
func (s *SVC) Classes() []int { return s.classes_ }

// Gamma returns the kernel coefficient used during fitting.
func (s *SVC) Gamma() float64 { return s.gamma_ }

// NIter returns the solver iterations per pair.
func (s *SVC) NIter() []int { return s.nIter_ }

// Support returns the sorted training indices of all support vectors.
func (s *SVC) Support() []int {
	seen := make(map[int]struct{})
	for _, pm := range s.pairs_ {
		for _, i := range pm.svIndex {
			seen[i] = struct{}{}
		}
	}
	out := make([]int, 0, len(seen))
	for i := range seen {
		out = append(out, i)
	}
	sort.Ints(out)
	return out
}

// GetParams returns the model hyperparameters
func (s *SVC) GetParams() map[string]interface{} {
	var gamma interface{} = s.gamma
	if s.gamma == "value" {
		gamma = s.gammaValue
	}
	return map[string]interface{}{
		"C":            s.C,
		"kernel":       s.kernel,
		"degree":       s.degree,
		"gamma":        gamma,
		"coef0":        s.coef0,
		"shrinking":    s.shrinking,
		"probability":  s.probability,
		"tol":          s.tol,
		"cache_size":   s.cacheSize,
		"max_iter":     s.maxIter,
		"random_state": s.randomState,
	}
}

// SetParams sets the model hyperparameters. Values are checked for type
// here and for range at Fit time.
func (s *SVC) SetParams(params map[string]interface{}) error {
	for key, value := range params {
		var err error
		switch key {
		case "C":
			s.C, err = model.ParamFloat(key, value)
		case "kernel":
			s.kernel, err = model.ParamChoice(key, value, KernelLinear, KernelPoly, KernelRBF, KernelSigmoid)
		case "degree":
			s.degree, err = model.ParamInt(key, value)
		case "gamma":
			if rule, ok := value.(string); ok && (rule == "scale" || rule == "auto") {
				s.gamma = rule
				break
			}
			s.gammaValue, err = model.ParamFloat(key, value)
			s.gamma = "value"
		case "coef0":
			s.coef0, err = model.ParamFloat(key, value)
		case "shrinking":
			s.shrinking, err = model.ParamBool(key, value)
		case "probability":
			s.probability, err = model.ParamBool(key, value)
		case "tol":
			s.tol, err = model.ParamFloat(key, value)
		case "cache_size":
			s.cacheSize, err = model.ParamFloat(key, value)
		case "max_iter":
			s.maxIter, err = model.ParamInt(key, value)
		case "random_state":
			var seed int
			seed, err = model.ParamOptionalInt(key, value, 0)
			s.randomState = int64(seed)
		default:
			err = model.UnknownParam("SVC", key, value)
		}
		if err != nil {
			return err
		}
	}
	return nil
}
