// Package model_selection splits samples into train and test sets.
package model_selection

import (
	"fmt"
	"math"
	"math/rand"
	"sort"

	"github.com/YuminosukeSato/edaml/pkg/errors"
)

// Split holds the row indices of each side, in ascending order.
type Split struct {
	Train []int
	Test  []int
}

type splitConfig struct {
	testSize    float64
	randomState int64
	shuffle     bool
	stratify    []int
}

// SplitOption configures TrainTestSplit.
type SplitOption func(*splitConfig)

// WithTestSize sets the fraction of samples assigned to the test side (default 0.25).
func WithTestSize(size float64) SplitOption {
	return func(c *splitConfig) {
		c.testSize = size
	}
}

// WithRandomState sets the seed of the shuffle.
func WithRandomState(seed int64) SplitOption {
	return func(c *splitConfig) {
		c.randomState = seed
	}
}

// WithShuffle disables shuffling when false; the last rows become the test side.
func WithShuffle(shuffle bool) SplitOption {
	return func(c *splitConfig) {
		c.shuffle = shuffle
	}
}

// WithStratify keeps the class proportions of y on both sides.
func WithStratify(y []int) SplitOption {
	return func(c *splitConfig) {
		c.stratify = y
	}
}

// TrainTestSplit splits n samples into train and test index sets.
//
// The test side holds ceil(testSize*n) samples. With WithStratify each class
// contributes to the test side in proportion to its frequency; every class
// needs at least two members and both sides must be able to hold one sample
// per class. The result depends only on n, the options and the seed.
func TrainTestSplit(n int, opts ...SplitOption) (*Split, error) {
	cfg := &splitConfig{testSize: 0.25, randomState: 0, shuffle: true}
	for _, opt := range opts {
		opt(cfg)
	}

	if n <= 0 {
		return nil, errors.NewModelError("TrainTestSplit", "empty data", errors.ErrEmptyData)
	}
	if cfg.testSize <= 0 || cfg.testSize >= 1 {
		return nil, errors.NewValidationError("test_size", "must be in (0, 1)", cfg.testSize)
	}
	nTest := int(math.Ceil(cfg.testSize * float64(n)))
	nTrain := n - nTest
	if nTrain == 0 {
		return nil, errors.NewValueError("TrainTestSplit",
			fmt.Sprintf("with n_samples=%d and test_size=%g the train set would be empty", n, cfg.testSize))
	}

	rng := rand.New(rand.NewSource(cfg.randomState))

	if cfg.stratify == nil {
		perm := make([]int, n)
		for i := range perm {
			perm[i] = i
		}
		if cfg.shuffle {
			perm = rng.Perm(n)
		}
		return newSplit(perm[:nTrain], perm[nTrain:]), nil
	}

	if !cfg.shuffle {
		return nil, errors.NewValueError("TrainTestSplit", "stratified split requires shuffle")
	}
	if len(cfg.stratify) != n {
		return nil, errors.NewDimensionError("TrainTestSplit", n, len(cfg.stratify), 0)
	}
	return stratifiedSplit(cfg.stratify, nTest, nTrain, rng)
}

func stratifiedSplit(y []int, nTest, nTrain int, rng *rand.Rand) (*Split, error) {
	members := make(map[int][]int)
	for i, c := range y {
		members[c] = append(members[c], i)
	}
	classes := make([]int, 0, len(members))
	for c := range members {
		classes = append(classes, c)
	}
	sort.Ints(classes)

	for _, c := range classes {
		if len(members[c]) < 2 {
			return nil, errors.NewValueError("TrainTestSplit",
				fmt.Sprintf("the least populated class %d has only 1 member, which is too few; the minimum number of groups for any class cannot be less than 2", c))
		}
	}
	if nTest < len(classes) {
		return nil, errors.NewValueError("TrainTestSplit",
			fmt.Sprintf("the test_size = %d should be greater or equal to the number of classes = %d", nTest, len(classes)))
	}
	if nTrain < len(classes) {
		return nil, errors.NewValueError("TrainTestSplit",
			fmt.Sprintf("the train_size = %d should be greater or equal to the number of classes = %d", nTrain, len(classes)))
	}

	counts := make([]int, len(classes))
	for k, c := range classes {
		counts[k] = len(members[c])
	}
	testCounts := allocate(counts, nTest, len(y))

	var train, test []int
	for k, c := range classes {
		idx := members[c]
		perm := rng.Perm(len(idx))
		for p, j := range perm {
			if p < testCounts[k] {
				test = append(test, idx[j])
			} else {
				train = append(train, idx[j])
			}
		}
	}
	return newSplit(train, test), nil
}

// allocate distributes total draws over classes proportionally to counts.
// 端数は小数部の大きいクラスから順に配り、同値なら件数の多いクラス、次にクラス順
func allocate(counts []int, total, n int) []int {
	out := make([]int, len(counts))
	rem := make([]float64, len(counts))
	assigned := 0
	for k, c := range counts {
		exact := float64(c) * float64(total) / float64(n)
		out[k] = int(math.Floor(exact))
		rem[k] = exact - float64(out[k])
		assigned += out[k]
	}

	order := make([]int, len(counts))
	for k := range order {
		order[k] = k
	}
	sort.SliceStable(order, func(a, b int) bool {
		ka, kb := order[a], order[b]
		if rem[ka] != rem[kb] {
			return rem[ka] > rem[kb]
		}
		return counts[ka] > counts[kb]
	})
	for i := 0; assigned < total; i = (i + 1) % len(order) {
		k := order[i]
		if out[k] < counts[k]-1 {
			out[k]++
			assigned++
		}
	}
	return out
}

func newSplit(train, test []int) *Split {
	s := &Split{
		Train: append([]int(nil), train...),
		Test:  append([]int(nil), test...),
	}
	sort.Ints(s.Train)
	sort.Ints(s.Test)
	return s
}
