package linear_model

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize"

	"github.com/YuminosukeSato/edaml/pkg/errors"
)

// logLoss is the weighted mean log-loss of k linear scores plus a penalty
// on the weights (never on the intercepts). Parameters are packed per score
// as [w_0 .. w_{p-1}, b].
type logLoss struct {
	X         *mat.Dense
	targets   []int
	weights   []float64
	sumW      float64
	k         int
	p         int
	intercept bool

	alpha float64 // 正則化の強さ
	l1    bool    // true なら alpha は L1 項 (eval には含めない)
}

func newLogLoss(X *mat.Dense, targets []int, weights []float64, k int, intercept bool) *logLoss {
	_, p := X.Dims()
	return &logLoss{
		X:         X,
		targets:   targets,
		weights:   weights,
		sumW:      floats.Sum(weights),
		k:         k,
		p:         p,
		intercept: intercept,
	}
}

func (l *logLoss) stride() int {
	if l.intercept {
		return l.p + 1
	}
	return l.p
}

func (l *logLoss) dim() int { return l.k * l.stride() }

func (l *logLoss) pack(x []float64, c int, w []float64, b float64) {
	s := l.stride()
	copy(x[c*s:c*s+l.p], w)
	if l.intercept {
		x[c*s+l.p] = b
	}
}

func (l *logLoss) unpack(x []float64, c int) ([]float64, float64) {
	s := l.stride()
	w := append([]float64(nil), x[c*s:c*s+l.p]...)
	b := 0.0
	if l.intercept {
		b = x[c*s+l.p]
	}
	return w, b
}

// eval returns the objective at x and, when grad is non-nil, stores its gradient.
func (l *logLoss) eval(x, grad []float64) float64 {
	n, _ := l.X.Dims()
	s := l.stride()
	if grad != nil {
		for j := range grad {
			grad[j] = 0
		}
	}

	z := make([]float64, l.k)
	resid := make([]float64, l.k)
	loss := 0.0
	for i := 0; i < n; i++ {
		row := l.X.RawRowView(i)
		for c := 0; c < l.k; c++ {
			z[c] = floats.Dot(row, x[c*s:c*s+l.p])
			if l.intercept {
				z[c] += x[c*s+l.p]
			}
		}
		wi := l.weights[i] / l.sumW

		if l.k == 1 {
			t := float64(l.targets[i])
			loss += wi * (softplus(z[0]) - t*z[0])
			resid[0] = errors.Sigmoid(z[0]) - t
		} else {
			lse := errors.LogSumExp(z)
			loss += wi * (lse - z[l.targets[i]])
			for c := range z {
				resid[c] = math.Exp(z[c] - lse)
			}
			resid[l.targets[i]]--
		}

		if grad != nil {
			for c := 0; c < l.k; c++ {
				floats.AddScaled(grad[c*s:c*s+l.p], wi*resid[c], row)
				if l.intercept {
					grad[c*s+l.p] += wi * resid[c]
				}
			}
		}
	}

	if !l.l1 && l.alpha > 0 {
		for c := 0; c < l.k; c++ {
			w := x[c*s : c*s+l.p]
			loss += 0.5 * l.alpha * floats.Dot(w, w)
			if grad != nil {
				floats.AddScaled(grad[c*s:c*s+l.p], l.alpha, w)
			}
		}
	}
	return loss
}

// lbfgs minimizes the smooth objective with gonum's L-BFGS. done reports
// whether the gradient threshold was reached before maxIter.
func (l *logLoss) lbfgs(x0 []float64, maxIter int, tol float64) (x []float64, iters int, done bool, err error) {
	problem := optimize.Problem{
		Func: func(x []float64) float64 { return l.eval(x, nil) },
		Grad: func(grad, x []float64) { l.eval(x, grad) },
	}
	settings := &optimize.Settings{
		GradientThreshold: tol,
		MajorIterations:   maxIter,
	}
	result, err := optimize.Minimize(problem, x0, settings, &optimize.LBFGS{})
	if result == nil {
		return nil, 0, false, err
	}
	// 直線探索の失敗は最良点で打ち切る (収束警告のみ)
	done = err == nil && result.Status != optimize.IterationLimit
	return result.X, result.MajorIterations, done, nil
}

// proximalGradient minimizes loss + alpha*||w||_1 by iterative soft
// thresholding with the constant step 1/L.
func (l *logLoss) proximalGradient(x0 []float64, maxIter int, tol float64) (x []float64, iters int, done bool) {
	l.l1 = true
	defer func() { l.l1 = false }()

	n, _ := l.X.Dims()
	lip := 0.0
	for i := 0; i < n; i++ {
		row := l.X.RawRowView(i)
		norm := floats.Dot(row, row)
		if l.intercept {
			norm++
		}
		lip += l.weights[i] / l.sumW * norm
	}
	if l.k == 1 {
		lip *= 0.25
	} else {
		lip *= 0.5
	}
	if lip == 0 {
		lip = 1
	}
	step := 1 / lip

	s := l.stride()
	x = append([]float64(nil), x0...)
	grad := make([]float64, len(x))
	for iters = 1; iters <= maxIter; iters++ {
		l.eval(x, grad)
		maxDelta := 0.0
		for j := range x {
			v := x[j] - step*grad[j]
			if j%s < l.p {
				v = softThreshold(v, step*l.alpha)
			}
			maxDelta = math.Max(maxDelta, math.Abs(v-x[j]))
			x[j] = v
		}
		if maxDelta < tol {
			return x, iters, true
		}
	}
	return x, maxIter, false
}

func softplus(z float64) float64 {
	if z > 0 {
		return z + math.Log1p(math.Exp(-z))
	}
	return math.Log1p(math.Exp(z))
}

func softThreshold(v, t float64) float64 {
	switch {
	case v > t:
		return v - t
	case v < -t:
		return v + t
	default:
		return 0
	}
}
