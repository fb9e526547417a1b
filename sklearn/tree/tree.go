// Package tree provides a CART decision tree classifier.
package tree

import (
	"fmt"
	"math"
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/edaml/core/model"
	"github.com/YuminosukeSato/edaml/metrics"
	"github.com/YuminosukeSato/edaml/pkg/errors"
)

// DecisionTreeClassifier implements a CART classification tree
// Compatible with scikit-learn's DecisionTreeClassifier
type DecisionTreeClassifier struct {
	state *model.StateManager // State management (composition)

	// Hyperparameters
	criterion           string  // "gini" or "entropy"
	maxDepth            int     // 0 = unlimited
	minSamplesSplit     int     // Minimum samples to split an internal node
	minSamplesLeaf      int     // Minimum samples in each leaf
	maxFeatures         string  // "", "sqrt", "log2" or "int"
	maxFeaturesN        int     // Used when maxFeatures == "int"
	minImpurityDecrease float64 // Minimum weighted impurity decrease to split
	randomState         int64   // Seed of the feature sampling

	// Model parameters
	root                 *node
	classes_             []int
	nClasses_            int
	nFeatures_           int
	featureImportances_  []float64
	nLeaves_, depth_     int
	totalWeightedSamples float64
}

// node は木のノード。left == nil なら葉
type node struct {
	feature   int
	threshold float64
	left      *node
	right     *node

	counts   []float64 // クラスごとの訓練サンプル数
	nSamples int
	impurity float64
}

func (n *node) isLeaf() bool { return n.left == nil }

// Option is a functional option for DecisionTreeClassifier
type Option func(*DecisionTreeClassifier)

// NewDecisionTreeClassifier creates a new DecisionTreeClassifier
func NewDecisionTreeClassifier(opts ...Option) *DecisionTreeClassifier {
	dt := &DecisionTreeClassifier{
		state:           model.NewStateManager(),
		criterion:       "gini",
		maxDepth:        0,
		minSamplesSplit: 2,
		minSamplesLeaf:  1,
		randomState:     0,
	}
	for _, opt := range opts {
		opt(dt)
	}
	return dt
}

// WithCriterion sets the split quality measure ("gini" or "entropy")
func WithCriterion(criterion string) Option {
	return func(dt *DecisionTreeClassifier) {
		dt.criterion = criterion
	}
}

// WithMaxDepth sets the maximum depth; 0 means unlimited
func WithMaxDepth(depth int) Option {
	return func(dt *DecisionTreeClassifier) {
		dt.maxDepth = depth
	}
}

// WithMinSamplesSplit sets the minimum number of samples to split a node
func WithMinSamplesSplit(n int) Option {
	return func(dt *DecisionTreeClassifier) {
		dt.minSamplesSplit = n
	}
}

// WithMinSamplesLeaf sets the minimum number of samples in a leaf
func WithMinSamplesLeaf(n int) Option {
	return func(dt *DecisionTreeClassifier) {
		dt.minSamplesLeaf = n
	}
}

// WithMaxFeatures sets the feature sampling rule: "sqrt", "log2" or "" (all)
func WithMaxFeatures(rule string) Option {
	return func(dt *DecisionTreeClassifier) {
		dt.maxFeatures = rule
	}
}

// WithMaxFeaturesN samples n features at every split
func WithMaxFeaturesN(n int) Option {
	return func(dt *DecisionTreeClassifier) {
		dt.maxFeatures = "int"
		dt.maxFeaturesN = n
	}
}

// WithMinImpurityDecrease sets the minimum weighted impurity decrease of a split
func WithMinImpurityDecrease(v float64) Option {
	return func(dt *DecisionTreeClassifier) {
		dt.minImpurityDecrease = v
	}
}

// WithRandomState sets the random seed
func WithRandomState(seed int64) Option {
	return func(dt *DecisionTreeClassifier) {
		dt.randomState = seed
	}
}

// IsFitted reports whether Fit has succeeded.
func (dt *DecisionTreeClassifier) IsFitted() bool { return dt.state.IsFitted() }

// Fit grows the tree on all rows of X.
func (dt *DecisionTreeClassifier) Fit(X, y mat.Matrix) error {
	nSamples, _ := X.Dims()
	sample := make([]int, nSamples)
	for i := range sample {
		sample[i] = i
	}
	return dt.FitSample(X, y, sample)
}

// FitSample grows the tree on the rows listed in sample, which may repeat
// (bootstrap). Classes are taken from all of y so that trees grown on
// different samples share the same probability columns.
func (dt *DecisionTreeClassifier) FitSample(X, y mat.Matrix, sample []int) error {
	if err := dt.validate(); err != nil {
		return err
	}
	nSamples, nFeatures := X.Dims()
	yRows, yCols := y.Dims()
	if nSamples == 0 || nFeatures == 0 || len(sample) == 0 {
		return errors.NewModelError("DecisionTreeClassifier.Fit", "empty data", errors.ErrEmptyData)
	}
	if nSamples != yRows {
		return errors.NewDimensionError("DecisionTreeClassifier.Fit", nSamples, yRows, 0)
	}
	if yCols != 1 {
		return errors.NewValueError("DecisionTreeClassifier.Fit", fmt.Sprintf("y must be a column vector: got shape (%d, %d)", yRows, yCols))
	}

	dt.classes_ = extractClasses(y)
	dt.nClasses_ = len(dt.classes_)
	dt.nFeatures_ = nFeatures

	index := make(map[int]int, dt.nClasses_)
	for k, c := range dt.classes_ {
		index[c] = k
	}
	codes := make([]int, nSamples)
	for i := range codes {
		codes[i] = index[int(y.At(i, 0))]
	}

	b := &builder{
		dt:    dt,
		X:     X,
		codes: codes,
		rng:   rand.New(rand.NewSource(dt.randomState)),
		imp:   make([]float64, nFeatures),
	}
	dt.totalWeightedSamples = float64(len(sample))
	dt.nLeaves_, dt.depth_ = 0, 0
	dt.root = b.grow(append([]int(nil), sample...), 0)

	total := 0.0
	for _, v := range b.imp {
		total += v
	}
	dt.featureImportances_ = make([]float64, nFeatures)
	if total > 0 {
		for j, v := range b.imp {
			dt.featureImportances_[j] = v / total
		}
	}

	dt.state.SetDimensions(nFeatures, len(sample))
	dt.state.SetFitted()
	return nil
}

func (dt *DecisionTreeClassifier) validate() error {
	if dt.criterion != "gini" && dt.criterion != "entropy" {
		return errors.NewValidationError("criterion", "must be gini or entropy", dt.criterion)
	}
	if dt.maxDepth < 0 {
		return errors.NewValidationError("max_depth", "must be >= 1 or None", dt.maxDepth)
	}
	if dt.minSamplesSplit < 2 {
		return errors.NewValidationError("min_samples_split", "must be >= 2", dt.minSamplesSplit)
	}
	if dt.minSamplesLeaf < 1 {
		return errors.NewValidationError("min_samples_leaf", "must be >= 1", dt.minSamplesLeaf)
	}
	if dt.minImpurityDecrease < 0 {
		return errors.NewValidationError("min_impurity_decrease", "must be >= 0", dt.minImpurityDecrease)
	}
	switch dt.maxFeatures {
	case "", "sqrt", "log2":
	case "int":
		if dt.maxFeaturesN < 1 {
			return errors.NewValidationError("max_features", "must be >= 1", dt.maxFeaturesN)
		}
	default:
		return errors.NewValidationError("max_features", "must be sqrt, log2, an integer or None", dt.maxFeatures)
	}
	return nil
}

// nFeaturesToTry resolves max_features against the number of columns.
func (dt *DecisionTreeClassifier) nFeaturesToTry(p int) int {
	k := p
	switch dt.maxFeatures {
	case "sqrt":
		k = int(math.Sqrt(float64(p)))
	case "log2":
		k = int(math.Log2(float64(p)))
	case "int":
		k = dt.maxFeaturesN
	}
	if k < 1 {
		k = 1
	}
	if k > p {
		k = p
	}
	return k
}

type builder struct {
	dt    *DecisionTreeClassifier
	X     mat.Matrix
	codes []int
	rng   *rand.Rand
	imp   []float64
}

type split struct {
	feature   int
	threshold float64
	childImp  float64 // 子ノードの重み付き不純度
}

type pair struct {
	v float64
	i int
}

func (b *builder) grow(idx []int, depth int) *node {
	dt := b.dt
	n := &node{counts: make([]float64, dt.nClasses_), nSamples: len(idx)}
	for _, i := range idx {
		n.counts[b.codes[i]]++
	}
	n.impurity = dt.impurity(n.counts, float64(len(idx)))

	if depth > dt.depth_ {
		dt.depth_ = depth
	}
	if (dt.maxDepth > 0 && depth >= dt.maxDepth) ||
		len(idx) < dt.minSamplesSplit ||
		len(idx) < 2*dt.minSamplesLeaf ||
		n.impurity <= 1e-12 {
		dt.nLeaves_++
		return n
	}

	best, ok := b.bestSplit(idx)
	if !ok {
		dt.nLeaves_++
		return n
	}
	nn := float64(len(idx))
	decrease := nn / dt.totalWeightedSamples * (n.impurity - best.childImp)
	if decrease+1e-12 < dt.minImpurityDecrease {
		dt.nLeaves_++
		return n
	}

	var left, right []int
	for _, i := range idx {
		if b.X.At(i, best.feature) <= best.threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	b.imp[best.feature] += nn * (n.impurity - best.childImp)

	n.feature = best.feature
	n.threshold = best.threshold
	n.left = b.grow(left, depth+1)
	n.right = b.grow(right, depth+1)
	return n
}

// bestSplit searches the candidate features for the split with the lowest
// weighted child impurity. Ties keep the first feature and the first
// threshold found.
func (b *builder) bestSplit(idx []int) (split, bool) {
	dt := b.dt
	p := dt.nFeatures_
	features := make([]int, p)
	for j := range features {
		features[j] = j
	}
	if k := dt.nFeaturesToTry(p); k < p {
		b.rng.Shuffle(p, func(a, c int) { features[a], features[c] = features[c], features[a] })
		features = features[:k]
		sort.Ints(features)
	}

	nn := float64(len(idx))
	best := split{feature: -1, childImp: math.Inf(1)}
	pairs := make([]pair, len(idx))
	left := make([]float64, dt.nClasses_)
	right := make([]float64, dt.nClasses_)

	for _, f := range features {
		for k, i := range idx {
			pairs[k] = pair{v: b.X.At(i, f), i: i}
		}
		sort.SliceStable(pairs, func(a, c int) bool { return pairs[a].v < pairs[c].v })

		for k := range left {
			left[k] = 0
			right[k] = 0
		}
		for _, pr := range pairs {
			right[b.codes[pr.i]]++
		}

		for s := 1; s < len(pairs); s++ {
			c := b.codes[pairs[s-1].i]
			left[c]++
			right[c]--
			if pairs[s].v <= pairs[s-1].v {
				continue
			}
			if s < dt.minSamplesLeaf || len(pairs)-s < dt.minSamplesLeaf {
				continue
			}
			nl, nr := float64(s), nn-float64(s)
			child := (nl*dt.impurity(left, nl) + nr*dt.impurity(right, nr)) / nn
			if child < best.childImp-1e-12 {
				thr := pairs[s-1].v + (pairs[s].v-pairs[s-1].v)/2
				if thr >= pairs[s].v || math.IsInf(thr, 0) {
					thr = pairs[s-1].v
				}
				best = split{feature: f, threshold: thr, childImp: child}
			}
		}
	}
	return best, best.feature >= 0
}

func (dt *DecisionTreeClassifier) impurity(counts []float64, n float64) float64 {
	if n == 0 {
		return 0
	}
	if dt.criterion == "entropy" {
		h := 0.0
		for _, c := range counts {
			if c > 0 {
				p := c / n
				h -= p * math.Log2(p)
			}
		}
		return h
	}
	g := 1.0
	for _, c := range counts {
		p := c / n
		g -= p * p
	}
	return g
}

// Predict returns the class with the highest leaf probability.
func (dt *DecisionTreeClassifier) Predict(X mat.Matrix) (mat.Matrix, error) {
	proba, err := dt.PredictProba(X)
	if err != nil {
		return nil, err
	}
	return ArgmaxClasses(proba, dt.classes_), nil
}

// PredictProba returns the class distribution of the leaf each row falls in.
func (dt *DecisionTreeClassifier) PredictProba(X mat.Matrix) (mat.Matrix, error) {
	if err := dt.state.RequireFitted("DecisionTreeClassifier", "PredictProba"); err != nil {
		return nil, err
	}
	nSamples, nFeatures := X.Dims()
	if err := dt.state.CheckFeatures("DecisionTreeClassifier.PredictProba", nFeatures); err != nil {
		return nil, err
	}

	probas := mat.NewDense(nSamples, dt.nClasses_, nil)
	for i := 0; i < nSamples; i++ {
		leaf := dt.root
		for !leaf.isLeaf() {
			if X.At(i, leaf.feature) <= leaf.threshold {
				leaf = leaf.left
			} else {
				leaf = leaf.right
			}
		}
		for k, c := range leaf.counts {
			probas.Set(i, k, c/float64(leaf.nSamples))
		}
	}
	return probas, nil
}

// Score returns the mean accuracy on the given test data and labels
func (dt *DecisionTreeClassifier) Score(X, y mat.Matrix) (float64, error) {
	predictions, err := dt.Predict(X)
	if err != nil {
		return 0, err
	}
	return metrics.AccuracyMatrix(y, predictions)
}

// Classes returns the sorted class labels seen during fitting.
func (dt *DecisionTreeClassifier) Classes() []int { return dt.classes_ }

// GetFeatureImportances returns the normalized total impurity decrease per feature.
func (dt *DecisionTreeClassifier) GetFeatureImportances() []float64 {
	return dt.featureImportances_
}

// GetDepth returns the depth of the fitted tree (root = 0).
func (dt *DecisionTreeClassifier) GetDepth() int { return dt.depth_ }

// GetNLeaves returns the number of leaves of the fitted tree.
func (dt *DecisionTreeClassifier) GetNLeaves() int { return dt.nLeaves_ }

// GetParams returns the model hyperparameters
func (dt *DecisionTreeClassifier) GetParams() map[string]interface{} {
	var maxDepth interface{}
	if dt.maxDepth > 0 {
		maxDepth = dt.maxDepth
	}
	var maxFeatures interface{}
	switch dt.maxFeatures {
	case "sqrt", "log2":
		maxFeatures = dt.maxFeatures
	case "int":
		maxFeatures = dt.maxFeaturesN
	}
	return map[string]interface{}{
		"criterion":             dt.criterion,
		"max_depth":             maxDepth,
		"min_samples_split":     dt.minSamplesSplit,
		"min_samples_leaf":      dt.minSamplesLeaf,
		"max_features":          maxFeatures,
		"min_impurity_decrease": dt.minImpurityDecrease,
		"random_state":          dt.randomState,
	}
}

// SetParams sets the model hyperparameters
func (dt *DecisionTreeClassifier) SetParams(params map[string]interface{}) error {
	for key, value := range params {
		var err error
		switch key {
		case "criterion":
			dt.criterion, err = model.ParamChoice(key, value, "gini", "entropy")
		case "max_depth":
			// None は無制限 (0)
			dt.maxDepth, err = model.ParamOptionalInt(key, value, 0)
		case "min_samples_split":
			dt.minSamplesSplit, err = model.ParamInt(key, value)
		case "min_samples_leaf":
			dt.minSamplesLeaf, err = model.ParamInt(key, value)
		case "max_features":
			dt.maxFeatures, dt.maxFeaturesN, err = ParseMaxFeatures(value)
		case "min_impurity_decrease":
			dt.minImpurityDecrease, err = model.ParamFloat(key, value)
		case "random_state":
			var seed int
			seed, err = model.ParamInt(key, value)
			dt.randomState = int64(seed)
		default:
			err = model.UnknownParam("DecisionTreeClassifier", key, value)
		}
		if err != nil {
			return err
		}
	}
	return dt.validate()
}

// ParseMaxFeatures reads a max_features value: nil or "None" (all features),
// "sqrt", "log2" or a positive integer.
func ParseMaxFeatures(value interface{}) (string, int, error) {
	if value == nil {
		return "", 0, nil
	}
	if s, ok := value.(string); ok {
		switch s {
		case "None", "none", "":
			return "", 0, nil
		case "sqrt", "log2":
			return s, 0, nil
		case "auto":
			return "sqrt", 0, nil
		}
	}
	n, err := model.ParamInt("max_features", value)
	if err != nil {
		return "", 0, errors.NewValidationError("max_features", "must be sqrt, log2, an integer or None", value)
	}
	if n < 1 {
		return "", 0, errors.NewValidationError("max_features", "must be >= 1", value)
	}
	return "int", n, nil
}

// ArgmaxClasses maps every row of proba to the class with the highest
// probability; ties go to the lower class index.
func ArgmaxClasses(proba mat.Matrix, classes []int) *mat.Dense {
	r, c := proba.Dims()
	out := mat.NewDense(r, 1, nil)
	for i := 0; i < r; i++ {
		best := 0
		for k := 1; k < c; k++ {
			if proba.At(i, k) > proba.At(i, best) {
				best = k
			}
		}
		out.Set(i, 0, float64(classes[best]))
	}
	return out
}

// extractClasses returns the sorted distinct labels of y
func extractClasses(y mat.Matrix) []int {
	rows, _ := y.Dims()
	seen := make(map[int]struct{})
	for i := 0; i < rows; i++ {
		seen[int(y.At(i, 0))] = struct{}{}
	}
	classes := make([]int, 0, len(seen))
	for c := range seen {
		classes = append(classes, c)
	}
	sort.Ints(classes)
	return classes
}
