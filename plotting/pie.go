package plotting

import (
	"fmt"
	"image/color"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/text"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/YuminosukeSato/edaml/pkg/errors"
)

// pieChart implements plot.Plotter. gonum/plot has no pie plotter, so the
// wedges are filled as polygons directly on the data canvas.
type pieChart struct {
	values []float64
	labels []string
	colors []color.Color
	total  float64
}

// arcSteps is the number of segments per full turn of the outline.
const arcSteps = 180

func (pc *pieChart) Plot(c draw.Canvas, plt *plot.Plot) {
	center := c.Center()
	w, h := c.Max.X-c.Min.X, c.Max.Y-c.Min.Y
	radius := vg.Length(math.Min(float64(w), float64(h))) / 2 * 0.9

	sty := text.Style{
		Color:   color.Black,
		Font:    plt.Legend.TextStyle.Font,
		XAlign:  text.XCenter,
		YAlign:  text.YCenter,
		Handler: plt.Legend.TextStyle.Handler,
	}

	// 12時の位置から時計回り
	start := math.Pi / 2
	for i, v := range pc.values {
		sweep := 2 * math.Pi * v / pc.total
		steps := int(math.Ceil(arcSteps * sweep / (2 * math.Pi)))
		if steps < 1 {
			steps = 1
		}
		pts := make([]vg.Point, 0, steps+2)
		pts = append(pts, center)
		for k := 0; k <= steps; k++ {
			a := start - sweep*float64(k)/float64(steps)
			pts = append(pts, vg.Point{
				X: center.X + radius*vg.Length(math.Cos(a)),
				Y: center.Y + radius*vg.Length(math.Sin(a)),
			})
		}
		c.FillPolygon(pc.colors[i], pts)

		mid := start - sweep/2
		at := vg.Point{
			X: center.X + radius*0.65*vg.Length(math.Cos(mid)),
			Y: center.Y + radius*0.65*vg.Length(math.Sin(mid)),
		}
		c.FillText(sty, at, fmt.Sprintf("%.1f%%", 100*v/pc.total))
		start -= sweep
	}
}

// swatch is a legend thumbnail filled with a single color.
type swatch struct{ color color.Color }

func (s swatch) Thumbnail(c *draw.Canvas) {
	pts := []vg.Point{
		{X: c.Min.X, Y: c.Min.Y},
		{X: c.Min.X, Y: c.Max.Y},
		{X: c.Max.X, Y: c.Max.Y},
		{X: c.Max.X, Y: c.Min.Y},
	}
	c.FillPolygon(s.color, pts)
}

// Pie draws a proportion chart, one wedge per label, with percentages on the
// wedges and the labels in the legend.
func Pie(title string, labels []string, values []float64, size Size) (Artifact, error) {
	if len(labels) == 0 {
		return Artifact{}, errors.NewValueError("Pie", "no wedges to draw")
	}
	if len(labels) != len(values) {
		return Artifact{}, errors.NewDimensionError("Pie", len(labels), len(values), 0)
	}
	total := 0.0
	for _, v := range values {
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return Artifact{}, errors.NewValidationError("values", "pie values must be finite and non-negative", v)
		}
		total += v
	}
	if total == 0 {
		return Artifact{}, errors.NewValueError("Pie", "values sum to zero")
	}

	pc := &pieChart{values: values, labels: labels, total: total, colors: make([]color.Color, len(values))}
	p := newPlot(title, "", "")
	for i, l := range labels {
		pc.colors[i] = plotutil.Color(i)
		p.Legend.Add(l, swatch{color: pc.colors[i]})
	}
	p.Add(pc)
	p.HideAxes()
	p.Legend.Top = true

	return encode(p, size)
}
