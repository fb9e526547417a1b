package plotting

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/YuminosukeSato/edaml/pkg/errors"
)

// ScatterTrend draws the (x, y) pairs where both values are present, with an
// ordinary least squares trend line.
func ScatterTrend(title, xlabel, ylabel string, xs, ys []float64, size Size) (Artifact, error) {
	if len(xs) != len(ys) {
		return Artifact{}, errors.NewDimensionError("ScatterTrend", len(xs), len(ys), 0)
	}
	px, py := completePairs(xs, ys)
	if len(px) == 0 {
		return Artifact{}, errors.NewValueError("ScatterTrend", "no complete pairs to draw")
	}

	p := newPlot(title, xlabel, ylabel)
	pts := make(plotter.XYs, len(px))
	for i := range px {
		pts[i] = plotter.XY{X: px[i], Y: py[i]}
	}
	sc, err := plotter.NewScatter(pts)
	if err != nil {
		return Artifact{}, errors.Wrap(err, "plotting: scatter")
	}
	sc.GlyphStyle.Color = plotutil.Color(2)
	sc.GlyphStyle.Shape = draw.CircleGlyph{}
	sc.GlyphStyle.Radius = vg.Points(2)
	p.Add(sc)

	if lo, hi := floats.Min(px), floats.Max(px); len(px) >= 2 && hi > lo {
		alpha, beta := stat.LinearRegression(px, py, nil, false)
		if !math.IsNaN(alpha) && !math.IsNaN(beta) {
			trend, err := plotter.NewLine(plotter.XYs{
				{X: lo, Y: alpha + beta*lo},
				{X: hi, Y: alpha + beta*hi},
			})
			if err != nil {
				return Artifact{}, errors.Wrap(err, "plotting: trend line")
			}
			trend.LineStyle.Color = plotutil.Color(0)
			trend.LineStyle.Width = vg.Points(1.5)
			p.Add(trend)
			p.Legend.Add("OLS trend", trend)
		}
	}

	return encode(p, size)
}

// completePairs drops every index where either value is NaN.
func completePairs(xs, ys []float64) (px, py []float64) {
	for i := range xs {
		if math.IsNaN(xs[i]) || math.IsNaN(ys[i]) {
			continue
		}
		px = append(px, xs[i])
		py = append(py, ys[i])
	}
	return px, py
}

// GeoScatter draws coordinates as a map-like scatter (x = longitude,
// y = latitude). When groups is non-nil each distinct group gets its own
// color and legend entry, in first-appearance order; missing groups are
// labelled "NaN".
func GeoScatter(title string, lon, lat []float64, groups []string, size Size) (Artifact, error) {
	if len(lon) != len(lat) {
		return Artifact{}, errors.NewDimensionError("GeoScatter", len(lon), len(lat), 0)
	}
	if groups != nil && len(groups) != len(lon) {
		return Artifact{}, errors.NewDimensionError("GeoScatter", len(lon), len(groups), 0)
	}

	var order []string
	byGroup := make(map[string]plotter.XYs)
	for i := range lon {
		if math.IsNaN(lon[i]) || math.IsNaN(lat[i]) {
			continue
		}
		g := ""
		if groups != nil {
			g = groups[i]
			if g == "" {
				g = "NaN"
			}
		}
		if _, ok := byGroup[g]; !ok {
			order = append(order, g)
		}
		byGroup[g] = append(byGroup[g], plotter.XY{X: lon[i], Y: lat[i]})
	}
	if len(order) == 0 {
		return Artifact{}, errors.NewValueError("GeoScatter", "no coordinates to draw")
	}

	p := newPlot(title, "longitude", "latitude")
	for i, g := range order {
		sc, err := plotter.NewScatter(byGroup[g])
		if err != nil {
			return Artifact{}, errors.Wrap(err, "plotting: geo scatter")
		}
		sc.GlyphStyle.Color = plotutil.Color(i)
		sc.GlyphStyle.Shape = draw.CircleGlyph{}
		sc.GlyphStyle.Radius = vg.Points(2.5)
		p.Add(sc)
		if groups != nil {
			p.Legend.Add(g, sc)
		}
	}
	p.Legend.Top = true

	return encode(p, size)
}
