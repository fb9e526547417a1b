package profiler

import (
	"math"
	"sort"
	"strconv"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/YuminosukeSato/edaml/plotting"
)

// Summary is the descriptive statistics of a numeric column.
type Summary struct {
	Count float64
	Mean  float64
	Std   float64
	Min   float64
	Q25   float64
	Q50   float64
	Q75   float64
	Max   float64
}

// Describe summarizes the non-missing values. Std uses n-1 degrees of
// freedom. Statistics that are undefined for the input are NaN.
func Describe(values []float64) Summary {
	nan := math.NaN()
	s := Summary{Count: float64(len(values)), Mean: nan, Std: nan, Min: nan, Q25: nan, Q50: nan, Q75: nan, Max: nan}
	if len(values) == 0 {
		return s
	}

	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	s.Mean, s.Std = stat.MeanStdDev(sorted, nil)
	if len(values) < 2 {
		s.Std = nan
	}
	s.Min = sorted[0]
	s.Max = sorted[len(sorted)-1]
	s.Q25 = Quantile(sorted, 0.25)
	s.Q50 = Quantile(sorted, 0.50)
	s.Q75 = Quantile(sorted, 0.75)
	return s
}

// Quantile returns the p-quantile of sorted values, interpolating linearly
// between the two closest ranks. gonum's stat.Quantile only offers the
// empirical and LinInterp definitions, neither of which matches the
// (n-1)p rank convention used for report tables.
func Quantile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return math.NaN()
	}
	pos := p * float64(n-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo] + frac*(sorted[hi]-sorted[lo])
}

// Table lays the summary out as a one-column table labelled by column.
func (s Summary) Table(column string) *plotting.Table {
	index := []string{"count", "mean", "std", "min", "25%", "50%", "75%", "max"}
	values := []float64{s.Count, s.Mean, s.Std, s.Min, s.Q25, s.Q50, s.Q75, s.Max}
	rows := make([][]string, len(values))
	for i, v := range values {
		rows[i] = []string{strconv.FormatFloat(v, 'f', 6, 64)}
	}
	return &plotting.Table{Columns: []string{column}, Index: index, Rows: rows}
}

// CorrelationMatrix returns the Pearson correlation of every pair of columns,
// each computed over the rows where both values are present. Pairs with
// fewer than two complete rows or without variance are NaN.
func CorrelationMatrix(columns [][]float64) *mat.SymDense {
	n := len(columns)
	corr := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			corr.SetSym(i, j, pearson(columns[i], columns[j]))
		}
	}
	return corr
}

func pearson(x, y []float64) float64 {
	var px, py []float64
	for k := range x {
		if math.IsNaN(x[k]) || math.IsNaN(y[k]) {
			continue
		}
		px = append(px, x[k])
		py = append(py, y[k])
	}
	if len(px) < 2 {
		return math.NaN()
	}
	if stat.Variance(px, nil) == 0 || stat.Variance(py, nil) == 0 {
		return math.NaN()
	}
	r := stat.Correlation(px, py, nil)
	// 丸め誤差で [-1, 1] を超えることがある
	return math.Max(-1, math.Min(1, r))
}

// Pair is an ordered pair of columns and their correlation.
type Pair struct {
	X, Y string
	R    float64
}

// TopCorrelatedPairs selects up to k pairs with the largest |r| strictly
// below 1. Both orientations of a pair are candidates, as in an unstacked
// correlation matrix, so a strong pair usually fills two slots. Pairs are
// enumerated row-major over i != j and stably sorted by |r| descending;
// self pairs and NaN coefficients are excluded.
func TopCorrelatedPairs(names []string, corr mat.Symmetric, k int) []Pair {
	n := corr.SymmetricDim()
	var pairs []Pair
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if i == j {
				continue
			}
			r := corr.At(i, j)
			if math.IsNaN(r) || math.Abs(r) >= 1 {
				continue
			}
			pairs = append(pairs, Pair{X: names[i], Y: names[j], R: r})
		}
	}
	sort.SliceStable(pairs, func(a, b int) bool {
		return math.Abs(pairs[a].R) > math.Abs(pairs[b].R)
	})
	if k >= 0 && len(pairs) > k {
		pairs = pairs[:k]
	}
	return pairs
}
