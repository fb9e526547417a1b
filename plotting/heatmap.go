package plotting

import (
	"fmt"
	"image/color"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/text"

	"github.com/YuminosukeSato/edaml/pkg/errors"
)

// corrGrid adapts a square correlation matrix to plotter.GridXYZ. Grid row 0
// is drawn at the bottom, so rows are flipped to keep the first variable on
// top as in a printed matrix.
type corrGrid struct {
	m mat.Matrix
	n int
}

func (g corrGrid) Dims() (c, r int)   { return g.n, g.n }
func (g corrGrid) Z(c, r int) float64 { return g.m.At(g.n-1-r, c) }
func (g corrGrid) X(c int) float64    { return float64(c) }
func (g corrGrid) Y(r int) float64    { return float64(r) }
func (g corrGrid) Min() float64       { return -1 }
func (g corrGrid) Max() float64       { return 1 }

// CorrelationHeatmap draws a square matrix of coefficients in [-1, 1] and
// annotates every cell with its absolute value.
func CorrelationHeatmap(title string, names []string, corr mat.Matrix, size Size) (Artifact, error) {
	r, c := corr.Dims()
	if r != c {
		return Artifact{}, errors.NewDimensionError("CorrelationHeatmap", r, c, 1)
	}
	if r != len(names) || r == 0 {
		return Artifact{}, errors.NewDimensionError("CorrelationHeatmap", len(names), r, 0)
	}
	n := r

	p := newPlot(title, "", "")
	hm := plotter.NewHeatMap(corrGrid{m: corr, n: n}, moreland.SmoothBlueRed().Palette(255))
	hm.NaN = color.RGBA{R: 220, G: 220, B: 220, A: 255}
	p.Add(hm)

	xys := make(plotter.XYs, 0, n*n)
	labels := make([]string, 0, n*n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			v := corr.At(i, j)
			label := "nan"
			if !math.IsNaN(v) {
				label = fmt.Sprintf("%.2f", math.Abs(v))
			}
			xys = append(xys, plotter.XY{X: float64(j), Y: float64(n - 1 - i)})
			labels = append(labels, label)
		}
	}
	lbl, err := plotter.NewLabels(plotter.XYLabels{XYs: xys, Labels: labels})
	if err != nil {
		return Artifact{}, errors.Wrap(err, "plotting: heatmap labels")
	}
	for i := range lbl.TextStyle {
		lbl.TextStyle[i].XAlign = text.XCenter
		lbl.TextStyle[i].YAlign = text.YCenter
	}
	p.Add(lbl)

	reversed := make([]string, n)
	for i, name := range names {
		reversed[n-1-i] = name
	}
	p.NominalX(names...)
	p.NominalY(reversed...)

	return encode(p, size)
}
