package svm

import "math"

const tau = 1e-12

// binaryProblem is the C-SVC dual for one pair of classes:
//
//	min ½ αᵀQα − eᵀα,  0 ≤ α ≤ C,  yᵀα = 0,  Q_ij = y_i y_j K(x_i, x_j)
//
// solved by SMO with second order working set selection.
type binaryProblem struct {
	kc      *kernelCache
	y       []float64 // ±1
	C       float64
	eps     float64
	maxIter int // <= 0 なら上限なし (実際には安全上の上限を置く)
}

type binarySolution struct {
	alpha     []float64
	rho       float64
	iters     int
	converged bool
}

func (p *binaryProblem) upper(a float64) bool { return a >= p.C }
func (p *binaryProblem) lower(a float64) bool { return a <= 0 }

func (p *binaryProblem) solve() binarySolution {
	n := len(p.y)
	alpha := make([]float64, n)
	grad := make([]float64, n)
	for i := range grad {
		grad[i] = -1
	}

	limit := p.maxIter
	if limit <= 0 {
		limit = 100 * n
		if limit < 10000000 {
			limit = 10000000
		}
	}

	iter := 0
	converged := false
	for iter < limit {
		i, j, ok := p.selectWorkingSet(alpha, grad)
		if !ok {
			converged = true
			break
		}
		iter++

		Ki := p.kc.row(i)
		Kj := p.kc.row(j)
		yi, yj := p.y[i], p.y[j]
		oldI, oldJ := alpha[i], alpha[j]

		if yi != yj {
			quad := p.kc.diag[i] + p.kc.diag[j] - 2*Ki[j]
			if quad <= 0 {
				quad = tau
			}
			delta := (-grad[i] - grad[j]) / quad
			diff := alpha[i] - alpha[j]
			alpha[i] += delta
			alpha[j] += delta
			if diff > 0 {
				if alpha[j] < 0 {
					alpha[j] = 0
					alpha[i] = diff
				}
			} else if alpha[i] < 0 {
				alpha[i] = 0
				alpha[j] = -diff
			}
			if diff > 0 {
				if alpha[i] > p.C {
					alpha[i] = p.C
					alpha[j] = p.C - diff
				}
			} else if alpha[j] > p.C {
				alpha[j] = p.C
				alpha[i] = p.C + diff
			}
		} else {
			quad := p.kc.diag[i] + p.kc.diag[j] - 2*Ki[j]
			if quad <= 0 {
				quad = tau
			}
			delta := (grad[i] - grad[j]) / quad
			sum := alpha[i] + alpha[j]
			alpha[i] -= delta
			alpha[j] += delta
			if sum > p.C {
				if alpha[i] > p.C {
					alpha[i] = p.C
					alpha[j] = sum - p.C
				}
			} else if alpha[j] < 0 {
				alpha[j] = 0
				alpha[i] = sum
			}
			if sum > p.C {
				if alpha[j] > p.C {
					alpha[j] = p.C
					alpha[i] = sum - p.C
				}
			} else if alpha[i] < 0 {
				alpha[i] = 0
				alpha[j] = sum
			}
		}

		dI, dJ := alpha[i]-oldI, alpha[j]-oldJ
		for k := 0; k < n; k++ {
			grad[k] += p.y[k] * (yi*Ki[k]*dI + yj*Kj[k]*dJ)
		}
	}

	return binarySolution{
		alpha:     alpha,
		rho:       p.rho(alpha, grad),
		iters:     iter,
		converged: converged,
	}
}

// selectWorkingSet picks the maximal violating i and the j with the largest
// second order decrease. ok is false once the KKT gap is below eps.
func (p *binaryProblem) selectWorkingSet(alpha, grad []float64) (int, int, bool) {
	gmax, gmax2 := math.Inf(-1), math.Inf(-1)
	i := -1
	for t, yt := range p.y {
		if yt > 0 {
			if !p.upper(alpha[t]) && -grad[t] >= gmax {
				gmax, i = -grad[t], t
			}
		} else if !p.lower(alpha[t]) && grad[t] >= gmax {
			gmax, i = grad[t], t
		}
	}
	if i < 0 {
		return 0, 0, false
	}

	Ki := p.kc.row(i)
	j := -1
	objMin := math.Inf(1)
	for t, yt := range p.y {
		var gradDiff float64
		if yt > 0 {
			if p.lower(alpha[t]) {
				continue
			}
			gradDiff = gmax + grad[t]
			if grad[t] >= gmax2 {
				gmax2 = grad[t]
			}
		} else {
			if p.upper(alpha[t]) {
				continue
			}
			gradDiff = gmax - grad[t]
			if -grad[t] >= gmax2 {
				gmax2 = -grad[t]
			}
		}
		if gradDiff <= 0 {
			continue
		}
		quad := p.kc.diag[i] + p.kc.diag[t] - 2*Ki[t]
		if quad <= 0 {
			quad = tau
		}
		if obj := -gradDiff * gradDiff / quad; obj <= objMin {
			objMin, j = obj, t
		}
	}

	if gmax+gmax2 < p.eps || j < 0 {
		return 0, 0, false
	}
	return i, j, true
}

// rho averages y_i G_i over free vectors, falling back to the midpoint of
// the feasible interval.
func (p *binaryProblem) rho(alpha, grad []float64) float64 {
	ub, lb := math.Inf(1), math.Inf(-1)
	sumFree, nFree := 0.0, 0
	for i, yi := range p.y {
		yg := yi * grad[i]
		switch {
		case p.upper(alpha[i]):
			if yi < 0 {
				ub = math.Min(ub, yg)
			} else {
				lb = math.Max(lb, yg)
			}
		case p.lower(alpha[i]):
			if yi > 0 {
				ub = math.Min(ub, yg)
			} else {
				lb = math.Max(lb, yg)
			}
		default:
			nFree++
			sumFree += yg
		}
	}
	if nFree > 0 {
		return sumFree / float64(nFree)
	}
	return (ub + lb) / 2
}
