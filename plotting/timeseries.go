package plotting

import (
	"math"
	"time"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/YuminosukeSato/edaml/pkg/errors"
)

// dayFormat is the tick label layout of time axes.
const dayFormat = "2006-01-02"

func timeXYs(days []time.Time, values []float64) plotter.XYs {
	xys := make(plotter.XYs, 0, len(days))
	for i, d := range days {
		if math.IsNaN(values[i]) {
			continue
		}
		xys = append(xys, plotter.XY{X: float64(d.Unix()), Y: values[i]})
	}
	return xys
}

func newTimePlot(title, ylabel string) *plot.Plot {
	p := newPlot(title, "date", ylabel)
	p.X.Tick.Marker = plot.TimeTicks{Format: dayFormat}
	return p
}

// DailyLine draws one marker per day joined by a line.
func DailyLine(title, ylabel string, days []time.Time, counts []float64, size Size) (Artifact, error) {
	if len(days) == 0 {
		return Artifact{}, errors.NewValueError("DailyLine", "no days to draw")
	}
	if len(days) != len(counts) {
		return Artifact{}, errors.NewDimensionError("DailyLine", len(days), len(counts), 0)
	}

	p := newTimePlot(title, ylabel)
	line, points, err := plotter.NewLinePoints(timeXYs(days, counts))
	if err != nil {
		return Artifact{}, errors.Wrap(err, "plotting: daily line")
	}
	line.LineStyle.Color = plotutil.Color(2)
	points.GlyphStyle.Color = plotutil.Color(2)
	p.Add(line, points)

	return encode(p, size)
}

// TrendLine overlays a smoothed series (NaN where undefined) on the daily
// series.
func TrendLine(title, ylabel string, days []time.Time, counts, smoothed []float64, smoothLabel string, size Size) (Artifact, error) {
	if len(days) == 0 {
		return Artifact{}, errors.NewValueError("TrendLine", "no days to draw")
	}
	if len(days) != len(counts) {
		return Artifact{}, errors.NewDimensionError("TrendLine", len(days), len(counts), 0)
	}
	if len(days) != len(smoothed) {
		return Artifact{}, errors.NewDimensionError("TrendLine", len(days), len(smoothed), 0)
	}

	p := newTimePlot(title, ylabel)
	daily, err := plotter.NewLine(timeXYs(days, counts))
	if err != nil {
		return Artifact{}, errors.Wrap(err, "plotting: daily series")
	}
	daily.LineStyle.Color = plotutil.Color(2)
	daily.LineStyle.Dashes = []vg.Length{vg.Points(3), vg.Points(2)}
	p.Add(daily)
	p.Legend.Add("daily", daily)

	if xys := timeXYs(days, smoothed); len(xys) > 0 {
		ma, err := plotter.NewLine(xys)
		if err != nil {
			return Artifact{}, errors.Wrap(err, "plotting: smoothed series")
		}
		ma.LineStyle.Color = plotutil.Color(0)
		ma.LineStyle.Width = vg.Points(2)
		p.Add(ma)
		p.Legend.Add(smoothLabel, ma)
	}
	p.Legend.Top = true

	return encode(p, size)
}
