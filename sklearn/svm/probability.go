package svm

import (
	"math"
	"math/rand"
)

// Platt scaling: P(y=+1 | f) = 1 / (1 + exp(A f + B)).
// Newton's method with backtracking (Lin, Lin & Weng 2007).
func sigmoidTrain(dec, y []float64) (A, B float64) {
	var prior1, prior0 float64
	for _, v := range y {
		if v > 0 {
			prior1++
		} else {
			prior0++
		}
	}

	const (
		maxIter = 100
		minStep = 1e-10
		sigma   = 1e-12
		eps     = 1e-5
	)
	hiTarget := (prior1 + 1) / (prior1 + 2)
	loTarget := 1 / (prior0 + 2)
	t := make([]float64, len(y))
	for i, v := range y {
		if v > 0 {
			t[i] = hiTarget
		} else {
			t[i] = loTarget
		}
	}

	objective := func(a, b float64) float64 {
		f := 0.0
		for i, d := range dec {
			fApB := d*a + b
			if fApB >= 0 {
				f += t[i]*fApB + math.Log1p(math.Exp(-fApB))
			} else {
				f += (t[i]-1)*fApB + math.Log1p(math.Exp(fApB))
			}
		}
		return f
	}

	A, B = 0, math.Log((prior0+1)/(prior1+1))
	fval := objective(A, B)
	for iter := 0; iter < maxIter; iter++ {
		h11, h22, h21 := sigma, sigma, 0.0
		g1, g2 := 0.0, 0.0
		for i, d := range dec {
			fApB := d*A + B
			var p, q float64
			if fApB >= 0 {
				e := math.Exp(-fApB)
				p, q = e/(1+e), 1/(1+e)
			} else {
				e := math.Exp(fApB)
				p, q = 1/(1+e), e/(1+e)
			}
			d2 := p * q
			h11 += d * d * d2
			h22 += d2
			h21 += d * d2
			d1 := t[i] - p
			g1 += d * d1
			g2 += d1
		}
		if math.Abs(g1) < eps && math.Abs(g2) < eps {
			break
		}

		det := h11*h22 - h21*h21
		dA := -(h22*g1 - h21*g2) / det
		dB := -(-h21*g1 + h11*g2) / det
		gd := g1*dA + g2*dB

		step := 1.0
		for step >= minStep {
			newA, newB := A+step*dA, B+step*dB
			if newf := objective(newA, newB); newf < fval+1e-4*step*gd {
				A, B, fval = newA, newB, newf
				break
			}
			step /= 2
		}
		if step < minStep {
			break
		}
	}
	return A, B
}

func sigmoidPredict(dec, A, B float64) float64 {
	fApB := dec*A + B
	if fApB >= 0 {
		return math.Exp(-fApB) / (1 + math.Exp(-fApB))
	}
	return 1 / (1 + math.Exp(fApB))
}

// coupleProbabilities turns pairwise estimates r[i][j] = P(i | i or j) into
// class probabilities (Wu, Lin & Weng 2004, method 2).
func coupleProbabilities(r [][]float64) []float64 {
	k := len(r)
	p := make([]float64, k)
	Q := make([][]float64, k)
	Qp := make([]float64, k)
	for t := 0; t < k; t++ {
		p[t] = 1 / float64(k)
		Q[t] = make([]float64, k)
		for j := 0; j < k; j++ {
			if j == t {
				continue
			}
			Q[t][t] += r[j][t] * r[j][t]
			Q[t][j] = -r[j][t] * r[t][j]
		}
	}

	maxIter := 100
	if k > maxIter {
		maxIter = k
	}
	eps := 0.005 / float64(k)
	for iter := 0; iter < maxIter; iter++ {
		pQp := 0.0
		for t := 0; t < k; t++ {
			Qp[t] = 0
			for j := 0; j < k; j++ {
				Qp[t] += Q[t][j] * p[j]
			}
			pQp += p[t] * Qp[t]
		}
		maxError := 0.0
		for t := 0; t < k; t++ {
			maxError = math.Max(maxError, math.Abs(Qp[t]-pQp))
		}
		if maxError < eps {
			break
		}
		for t := 0; t < k; t++ {
			diff := (-Qp[t] + pQp) / Q[t][t]
			p[t] += diff
			pQp = (pQp + diff*(diff*Q[t][t]+2*Qp[t])) / (1 + diff) / (1 + diff)
			for j := 0; j < k; j++ {
				Qp[j] = (Qp[j] + diff*Q[t][j]) / (1 + diff)
				p[j] /= 1 + diff
			}
		}
	}
	return p
}

// crossValidatedDecisions returns out-of-fold decision values of a 5-fold
// split so the sigmoid is not fitted on training scores.
func crossValidatedDecisions(rows [][]float64, y []float64, train func(rows [][]float64, y []float64) *pairModel, rng *rand.Rand) []float64 {
	const nFolds = 5
	n := len(rows)
	perm := rng.Perm(n)
	dec := make([]float64, n)

	for f := 0; f < nFolds; f++ {
		begin, end := f*n/nFolds, (f+1)*n/nFolds
		var (
			trRows [][]float64
			trY    []float64
		)
		nPos, nNeg := 0, 0
		for _, idx := range append(append([]int(nil), perm[:begin]...), perm[end:]...) {
			trRows = append(trRows, rows[idx])
			trY = append(trY, y[idx])
			if y[idx] > 0 {
				nPos++
			} else {
				nNeg++
			}
		}

		var constant float64
		switch {
		case nPos == 0 && nNeg == 0:
			constant = 0
		case nNeg == 0:
			constant = 1
		case nPos == 0:
			constant = -1
		default:
			m := train(trRows, trY)
			for _, idx := range perm[begin:end] {
				dec[idx] = m.decisionRow(rows[idx])
			}
			continue
		}
		for _, idx := range perm[begin:end] {
			dec[idx] = constant
		}
	}
	return dec
}
