// Package neighbors provides a k-nearest-neighbors classifier.
package neighbors

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/edaml/core/model"
	"github.com/YuminosukeSato/edaml/core/parallel"
	"github.com/YuminosukeSato/edaml/metrics"
	"github.com/YuminosukeSato/edaml/pkg/errors"
)

// KNeighborsClassifier votes among the k closest training rows
// Compatible with scikit-learn's KNeighborsClassifier (brute force search)
type KNeighborsClassifier struct {
	state *model.StateManager

	// Hyperparameters
	nNeighbors int
	weights    string // "uniform" or "distance"
	p          int    // Minkowski power
	metric     string // "minkowski", "euclidean", "manhattan", "chebyshev"
	algorithm  string // 受け付けるだけ。常に全探索
	leafSize   int
	nJobs      int

	// Model parameters
	X_        *mat.Dense
	y_        []int // index into classes_
	classes_  []int
	nClasses_ int
}

// Option is a functional option for KNeighborsClassifier
type Option func(*KNeighborsClassifier)

// NewKNeighborsClassifier creates a classifier with 5 uniform-weighted neighbors
func NewKNeighborsClassifier(opts ...Option) *KNeighborsClassifier {
	knn := &KNeighborsClassifier{
		state:      model.NewStateManager(),
		nNeighbors: 5,
		weights:    "uniform",
		p:          2,
		metric:     "minkowski",
		algorithm:  "auto",
		leafSize:   30,
	}
	for _, opt := range opts {
		opt(knn)
	}
	return knn
}

// WithNNeighbors sets k
func WithNNeighbors(k int) Option {
	return func(knn *KNeighborsClassifier) { knn.nNeighbors = k }
}

// WithWeights sets the vote weighting ("uniform" or "distance")
func WithWeights(w string) Option {
	return func(knn *KNeighborsClassifier) { knn.weights = w }
}

// WithMetric sets the distance metric
func WithMetric(metric string) Option {
	return func(knn *KNeighborsClassifier) { knn.metric = metric }
}

// WithP sets the power of the Minkowski metric
func WithP(p int) Option {
	return func(knn *KNeighborsClassifier) { knn.p = p }
}

// IsFitted reports whether Fit has succeeded.
func (knn *KNeighborsClassifier) IsFitted() bool { return knn.state.IsFitted() }

func (knn *KNeighborsClassifier) validate(nSamples int) error {
	if knn.nNeighbors < 1 {
		return errors.NewValidationError("n_neighbors", "must be >= 1", knn.nNeighbors)
	}
	if knn.nNeighbors > nSamples {
		return errors.NewValueError("KNeighborsClassifier.Fit",
			fmt.Sprintf("expected n_neighbors <= n_samples_fit, but n_neighbors = %d, n_samples_fit = %d", knn.nNeighbors, nSamples))
	}
	if knn.weights != "uniform" && knn.weights != "distance" {
		return errors.NewValidationError("weights", "must be uniform or distance", knn.weights)
	}
	switch knn.metric {
	case "minkowski":
		if knn.p < 1 {
			return errors.NewValidationError("p", "must be >= 1", knn.p)
		}
	case "euclidean", "manhattan", "chebyshev":
	default:
		return errors.NewValidationError("metric", "must be minkowski, euclidean, manhattan or chebyshev", knn.metric)
	}
	return nil
}

// Fit stores the training rows.
func (knn *KNeighborsClassifier) Fit(X, y mat.Matrix) error {
	nSamples, nFeatures := X.Dims()
	yRows, yCols := y.Dims()
	if nSamples == 0 || nFeatures == 0 {
		return errors.NewModelError("KNeighborsClassifier.Fit", "empty data", errors.ErrEmptyData)
	}
	if nSamples != yRows {
		return errors.NewDimensionError("KNeighborsClassifier.Fit", nSamples, yRows, 0)
	}
	if yCols != 1 {
		return errors.NewValueError("KNeighborsClassifier.Fit", fmt.Sprintf("y must be a column vector: got shape (%d, %d)", yRows, yCols))
	}
	if err := knn.validate(nSamples); err != nil {
		return err
	}

	knn.X_ = mat.DenseCopyOf(X)
	seen := make(map[int]struct{})
	for i := 0; i < nSamples; i++ {
		seen[int(y.At(i, 0))] = struct{}{}
	}
	knn.classes_ = make([]int, 0, len(seen))
	for c := range seen {
		knn.classes_ = append(knn.classes_, c)
	}
	sort.Ints(knn.classes_)
	knn.nClasses_ = len(knn.classes_)

	index := make(map[int]int, knn.nClasses_)
	for k, c := range knn.classes_ {
		index[c] = k
	}
	knn.y_ = make([]int, nSamples)
	for i := range knn.y_ {
		knn.y_[i] = index[int(y.At(i, 0))]
	}

	knn.state.SetDimensions(nFeatures, nSamples)
	knn.state.SetFitted()
	return nil
}

type neighbor struct {
	d float64
	i int
}

// PredictProba returns the (weighted) share of each class among the
// neighbors. Rows are processed in parallel; each row writes only its own
// output row.
func (knn *KNeighborsClassifier) PredictProba(X mat.Matrix) (mat.Matrix, error) {
	if err := knn.state.RequireFitted("KNeighborsClassifier", "PredictProba"); err != nil {
		return nil, err
	}
	nSamples, nFeatures := X.Dims()
	if err := knn.state.CheckFeatures("KNeighborsClassifier.PredictProba", nFeatures); err != nil {
		return nil, err
	}

	query := mat.DenseCopyOf(X)
	out := mat.NewDense(nSamples, knn.nClasses_, nil)
	parallel.ParallelizeWithThreshold(nSamples, 64, func(start, end int) {
		for i := start; i < end; i++ {
			knn.voteRow(query.RawRowView(i), out.RawRowView(i))
		}
	})
	return out, nil
}

func (knn *KNeighborsClassifier) voteRow(x, votes []float64) {
	nTrain, _ := knn.X_.Dims()
	nbrs := make([]neighbor, nTrain)
	for j := 0; j < nTrain; j++ {
		nbrs[j] = neighbor{d: knn.distance(x, knn.X_.RawRowView(j)), i: j}
	}
	// 距離が同じなら訓練データ順
	sort.SliceStable(nbrs, func(a, b int) bool { return nbrs[a].d < nbrs[b].d })
	nbrs = nbrs[:knn.nNeighbors]

	exact := false
	if knn.weights == "distance" {
		for _, n := range nbrs {
			if n.d == 0 {
				exact = true
				break
			}
		}
	}
	total := 0.0
	for _, n := range nbrs {
		w := 1.0
		if knn.weights == "distance" {
			switch {
			case exact && n.d == 0:
				w = 1
			case exact:
				w = 0
			default:
				w = 1 / n.d
			}
		}
		votes[knn.y_[n.i]] += w
		total += w
	}
	for k := range votes {
		votes[k] /= total
	}
}

func (knn *KNeighborsClassifier) distance(a, b []float64) float64 {
	switch knn.metric {
	case "manhattan":
		return minkowski(a, b, 1)
	case "euclidean":
		return minkowski(a, b, 2)
	case "chebyshev":
		m := 0.0
		for k := range a {
			m = math.Max(m, math.Abs(a[k]-b[k]))
		}
		return m
	default:
		return minkowski(a, b, knn.p)
	}
}

func minkowski(a, b []float64, p int) float64 {
	s := 0.0
	for k := range a {
		d := math.Abs(a[k] - b[k])
		switch p {
		case 1:
			s += d
		case 2:
			s += d * d
		default:
			s += math.Pow(d, float64(p))
		}
	}
	switch p {
	case 1:
		return s
	case 2:
		return math.Sqrt(s)
	default:
		return math.Pow(s, 1/float64(p))
	}
}

// Predict returns the class with the highest vote; ties go to the lower class.
func (knn *KNeighborsClassifier) Predict(X mat.Matrix) (mat.Matrix, error) {
	proba, err := knn.PredictProba(X)
	if err != nil {
		return nil, err
	}
	r, c := proba.Dims()
	out := mat.NewDense(r, 1, nil)
	for i := 0; i < r; i++ {
		best := 0
		for k := 1; k < c; k++ {
			if proba.At(i, k) > proba.At(i, best) {
				best = k
			}
		}
		out.Set(i, 0, float64(knn.classes_[best]))
	}
	return out, nil
}

// Score returns the mean accuracy on the given test data and labels
func (knn *KNeighborsClassifier) Score(X, y mat.Matrix) (float64, error) {
	predictions, err := knn.Predict(X)
	if err != nil {
		return 0, err
	}
	return metrics.AccuracyMatrix(y, predictions)
}

// Classes returns the sorted class labels seen during fitting.
func (knn *KNeighborsClassifier) Classes() []int { return knn.classes_ }

// GetParams returns the model hyperparameters
func (knn *KNeighborsClassifier) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"n_neighbors": knn.nNeighbors,
		"weights":     knn.weights,
		"p":           knn.p,
		"metric":      knn.metric,
		"algorithm":   knn.algorithm,
		"leaf_size":   knn.leafSize,
		"n_jobs":      knn.nJobs,
	}
}

// SetParams sets the model hyperparameters
func (knn *KNeighborsClassifier) SetParams(params map[string]interface{}) error {
	for key, value := range params {
		var err error
		switch key {
		case "n_neighbors":
			knn.nNeighbors, err = model.ParamInt(key, value)
			if err == nil && knn.nNeighbors < 1 {
				err = errors.NewValidationError(key, "must be >= 1", value)
			}
		case "weights":
			knn.weights, err = model.ParamChoice(key, value, "uniform", "distance")
		case "p":
			knn.p, err = model.ParamInt(key, value)
			if err == nil && knn.p < 1 {
				err = errors.NewValidationError(key, "must be >= 1", value)
			}
		case "metric":
			knn.metric, err = model.ParamChoice(key, value, "minkowski", "euclidean", "manhattan", "chebyshev")
		case "algorithm":
			knn.algorithm, err = model.ParamChoice(key, value, "auto", "ball_tree", "kd_tree", "brute")
		case "leaf_size":
			knn.leafSize, err = model.ParamInt(key, value)
		case "n_jobs":
			knn.nJobs, err = model.ParamOptionalInt(key, value, 0)
		default:
			err = model.UnknownParam("KNeighborsClassifier", key, value)
		}
		if err != nil {
			return err
		}
	}
	return nil
}
