package plotting

import (
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/YuminosukeSato/edaml/pkg/errors"
)

// HorizontalBar draws one horizontal bar per label. Bars are laid out bottom
// to top in the order given, so callers wanting the largest bar on top pass
// the values sorted ascending.
func HorizontalBar(title, xlabel string, labels []string, values []float64, size Size) (Artifact, error) {
	if len(labels) == 0 {
		return Artifact{}, errors.NewValueError("HorizontalBar", "no bars to draw")
	}
	if len(labels) != len(values) {
		return Artifact{}, errors.NewDimensionError("HorizontalBar", len(labels), len(values), 0)
	}

	p := newPlot(title, xlabel, "")
	bars, err := plotter.NewBarChart(plotter.Values(values), vg.Points(12))
	if err != nil {
		return Artifact{}, errors.Wrap(err, "plotting: bar chart")
	}
	bars.Horizontal = true
	bars.Color = plotutil.Color(2)
	bars.LineStyle.Width = 0
	p.Add(bars)
	p.NominalY(labels...)
	p.X.Min = 0

	return encode(p, size)
}
