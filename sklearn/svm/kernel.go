package svm

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// Kernel names accepted by SVC.
const (
	KernelLinear  = "linear"
	KernelPoly    = "poly"
	KernelRBF     = "rbf"
	KernelSigmoid = "sigmoid"
)

// kernelFunc evaluates K(a, b).
type kernelFunc func(a, b []float64) float64

func newKernel(name string, gamma float64, degree int, coef0 float64) kernelFunc {
	switch name {
	case KernelLinear:
		return floats.Dot
	case KernelPoly:
		return func(a, b []float64) float64 {
			return math.Pow(gamma*floats.Dot(a, b)+coef0, float64(degree))
		}
	case KernelSigmoid:
		return func(a, b []float64) float64 {
			return math.Tanh(gamma*floats.Dot(a, b) + coef0)
		}
	default:
		return func(a, b []float64) float64 {
			d := 0.0
			for i := range a {
				diff := a[i] - b[i]
				d += diff * diff
			}
			return math.Exp(-gamma * d)
		}
	}
}

// resolveGamma turns the gamma setting into a value.
// scale: 1 / (n_features * Var(X)), auto: 1 / n_features.
func resolveGamma(gamma string, value float64, X *mat.Dense) float64 {
	_, p := X.Dims()
	switch gamma {
	case "scale":
		v := stat.PopVariance(X.RawMatrix().Data, nil)
		if v == 0 {
			return 1
		}
		return 1 / (float64(p) * v)
	case "auto":
		return 1 / float64(p)
	default:
		return value
	}
}

// kernelCache keeps kernel rows of a training subset.
type kernelCache struct {
	rows    [][]float64
	k       kernelFunc
	cache   map[int][]float64
	maxRows int
	diag    []float64
}

func newKernelCache(rows [][]float64, k kernelFunc) *kernelCache {
	kc := &kernelCache{
		rows:    rows,
		k:       k,
		cache:   make(map[int][]float64),
		maxRows: cacheRows(len(rows)),
		diag:    make([]float64, len(rows)),
	}
	for i, r := range rows {
		kc.diag[i] = k(r, r)
	}
	return kc
}

// 約 200MB を上限にする
func cacheRows(n int) int {
	const budget = 200 << 20
	if n == 0 {
		return 0
	}
	m := budget / (8 * n)
	if m < 2 {
		m = 2
	}
	return m
}

func (kc *kernelCache) row(i int) []float64 {
	if r, ok := kc.cache[i]; ok {
		return r
	}
	if len(kc.cache) >= kc.maxRows {
		// 単純に全消去
		kc.cache = make(map[int][]float64)
	}
	r := make([]float64, len(kc.rows))
	for j, x := range kc.rows {
		r[j] = kc.k(kc.rows[i], x)
	}
	kc.cache[i] = r
	return r
}
