package plotting

import (
	"bytes"
	"image/color"
	"math"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/YuminosukeSato/edaml/pkg/errors"
)

// HistogramBox draws a histogram of values with a horizontal box plot of the
// same values underneath, sharing the x range.
//
// A column without observed values gets empty axes with a note instead of an
// error.
func HistogramBox(title, xlabel string, values []float64, size Size) (Artifact, error) {
	if len(values) == 0 {
		return emptyChart(title, xlabel, "count", size)
	}
	if err := plotter.CheckFloats(values...); err != nil {
		return Artifact{}, errors.Wrap(err, "plotting: histogram values")
	}

	hist := newPlot(title, "", "count")
	h, err := plotter.NewHist(plotter.Values(values), histogramBins(len(values)))
	if err != nil {
		return Artifact{}, errors.Wrap(err, "plotting: histogram")
	}
	h.FillColor = plotutil.Color(2)
	hist.Add(h)

	box := newPlot("", xlabel, "")
	b, err := plotter.NewBoxPlot(vg.Points(20), 0, plotter.Values(values))
	if err != nil {
		return Artifact{}, errors.Wrap(err, "plotting: box plot")
	}
	b.Horizontal = true
	b.FillColor = plotutil.Color(2)
	box.Add(b)
	box.HideY()

	lo := math.Min(hist.X.Min, box.X.Min)
	hi := math.Max(hist.X.Max, box.X.Max)
	for _, p := range []*plot.Plot{hist, box} {
		p.X.Min, p.X.Max = lo, hi
	}

	return encodeGrid([][]*plot.Plot{{hist}, {box}}, size)
}

const noDataNote = "no observed values"

func emptyChart(title, xlabel, ylabel string, size Size) (Artifact, error) {
	p := newPlot(title, xlabel, ylabel)
	note, err := plotter.NewLabels(plotter.XYLabels{XYs: plotter.XYs{{X: 0, Y: 0}}, Labels: []string{noDataNote}})
	if err != nil {
		return Artifact{}, errors.Wrap(err, "plotting: empty chart")
	}
	note.TextStyle[0].XAlign = draw.XCenter
	note.TextStyle[0].YAlign = draw.YCenter
	p.Add(note)
	p.X.Min, p.X.Max = -1, 1
	p.Y.Min, p.Y.Max = -1, 1
	return encode(p, size)
}

// histogramBins はスタージェスの公式でビン数を決める
func histogramBins(n int) int {
	return int(math.Ceil(math.Log2(float64(n)))) + 1
}

// encodeGrid lays plots out on aligned tiles and encodes the result as PNG.
func encodeGrid(plots [][]*plot.Plot, size Size) (Artifact, error) {
	size = size.orDefault()
	rows, cols := len(plots), len(plots[0])

	img := vgimg.New(size.Width, size.Height)
	dc := draw.New(img)
	t := draw.Tiles{
		Rows:      rows,
		Cols:      cols,
		PadX:      vg.Millimeter,
		PadY:      vg.Millimeter,
		PadTop:    vg.Points(2),
		PadBottom: vg.Points(2),
		PadLeft:   vg.Points(2),
		PadRight:  vg.Points(2),
	}
	canvases := plot.Align(plots, t, dc)
	for i := range plots {
		for j := range plots[i] {
			if plots[i][j] != nil {
				plots[i][j].Draw(canvases[i][j])
			}
		}
	}

	var buf bytes.Buffer
	if _, err := (vgimg.PngCanvas{Canvas: img}).WriteTo(&buf); err != nil {
		return Artifact{}, errors.Wrap(err, "plotting: encode png")
	}
	return Artifact{Kind: KindImage, MIME: mimePNG, Data: buf.Bytes()}, nil
}

// KDE evaluates a gaussian kernel density estimate of values on n evenly
// spaced points spanning two bandwidths beyond the data range. The bandwidth
// follows Scott's rule. Degenerate inputs (fewer than two values, or zero
// spread) use a unit bandwidth.
func KDE(values []float64, n int) (xs, density []float64) {
	if len(values) == 0 || n < 2 {
		return nil, nil
	}
	bw := scottBandwidth(values)
	lo, hi := values[0], values[0]
	for _, v := range values {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	lo -= 2 * bw
	hi += 2 * bw

	kernels := make([]distuv.Normal, len(values))
	for i, v := range values {
		kernels[i] = distuv.Normal{Mu: v, Sigma: bw}
	}

	xs = make([]float64, n)
	density = make([]float64, n)
	step := (hi - lo) / float64(n-1)
	for i := range xs {
		x := lo + float64(i)*step
		xs[i] = x
		sum := 0.0
		for _, k := range kernels {
			sum += k.Prob(x)
		}
		density[i] = sum / float64(len(values))
	}
	return xs, density
}

func scottBandwidth(values []float64) float64 {
	if len(values) < 2 {
		return 1
	}
	sd := stat.StdDev(values, nil)
	if sd == 0 || math.IsNaN(sd) {
		return 1
	}
	return sd * math.Pow(float64(len(values)), -0.2)
}

// kdePoints is the resolution of the violin outline.
const kdePoints = 100

// Violin draws a vertical violin of values: the mirrored KDE outline, an inner
// box plot and every observation as a point.
func Violin(title, ylabel string, values []float64, size Size) (Artifact, error) {
	if len(values) == 0 {
		return emptyChart(title, "", ylabel, size)
	}
	if err := plotter.CheckFloats(values...); err != nil {
		return Artifact{}, errors.Wrap(err, "plotting: violin values")
	}

	ys, density := KDE(values, kdePoints)
	peak := 0.0
	for _, d := range density {
		peak = math.Max(peak, d)
	}
	const halfWidth = 0.4

	outline := make(plotter.XYs, 0, 2*len(ys))
	for i := range ys {
		outline = append(outline, plotter.XY{X: -halfWidth * density[i] / peak, Y: ys[i]})
	}
	for i := len(ys) - 1; i >= 0; i-- {
		outline = append(outline, plotter.XY{X: halfWidth * density[i] / peak, Y: ys[i]})
	}

	p := newPlot(title, "", ylabel)
	poly, err := plotter.NewPolygon(outline)
	if err != nil {
		return Artifact{}, errors.Wrap(err, "plotting: violin outline")
	}
	poly.Color = color.RGBA{R: 90, G: 155, B: 212, A: 160}
	p.Add(poly)

	box, err := plotter.NewBoxPlot(vg.Points(8), 0, plotter.Values(values))
	if err != nil {
		return Artifact{}, errors.Wrap(err, "plotting: violin box")
	}
	box.FillColor = color.White
	p.Add(box)

	pts := make(plotter.XYs, len(values))
	for i, v := range values {
		pts[i] = plotter.XY{X: 0, Y: v}
	}
	sc, err := plotter.NewScatter(pts)
	if err != nil {
		return Artifact{}, errors.Wrap(err, "plotting: violin points")
	}
	sc.GlyphStyle.Radius = vg.Points(1.5)
	sc.GlyphStyle.Shape = draw.CircleGlyph{}
	sc.GlyphStyle.Color = color.RGBA{A: 120}
	p.Add(sc)

	p.X.Min, p.X.Max = -0.5, 0.5
	p.HideX()

	return encode(p, size)
}
