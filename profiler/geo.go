package profiler

import (
	"fmt"
	"strings"

	"github.com/YuminosukeSato/edaml/dataset"
	"github.com/YuminosukeSato/edaml/plotting"
)

// Geo generates at most one geographic item. A latitude/longitude scatter
// map takes priority; when it cannot be drawn, the first geographic column
// that was categorical-eligible gets a top-N frequency bar. It returns nil
// when neither applies.
func (p *Profiler) Geo() *ReportItem {
	var item *ReportItem

	lat, lon := p.coordinateColumns()
	if lat != nil && lon != nil && lat.IsNumeric() && lon.IsNumeric() {
		p.attempt(SectionGeographic, "map", lat.Name+","+lon.Name, func() error {
			var groups []string
			if len(p.cls.Categorical) > 0 {
				color, _ := p.data.Col(p.cls.Categorical[0])
				groups = make([]string, color.Len())
				for i := range groups {
					groups[i] = color.String(i)
				}
			}
			a, err := plotting.GeoScatter("Geographic data view", lon.Floats(), lat.Floats(), groups, p.opts.ChartSize)
			if err != nil {
				return err
			}
			item = &ReportItem{Section: SectionGeographic, Title: "Geographic scatter map", Artifact: a}
			return nil
		})
		if item != nil {
			return item
		}
	}

	for _, name := range p.cls.Geographic {
		if !p.cls.Candidates(name).Has(TagCategorical) {
			continue
		}
		col, _ := p.data.Col(name)
		counts := col.ValueCounts()
		if len(counts) == 0 {
			return nil
		}
		p.attempt(SectionGeographic, "bar", name, func() error {
			labels, values := ascending(counts, p.opts.GeoTopCategories)
			a, err := plotting.HorizontalBar(
				fmt.Sprintf("Top %d locations in %q", p.opts.GeoTopCategories, name),
				"count", labels, values, p.opts.ChartSize)
			if err != nil {
				return err
			}
			item = &ReportItem{Section: SectionGeographic, Title: fmt.Sprintf("Count by %q", name), Artifact: a}
			return nil
		})
		return item
	}
	return nil
}

// coordinateColumns returns the first column whose name contains "lat" and
// the first whose name contains "lon" or "lng", in dataset order.
func (p *Profiler) coordinateColumns() (lat, lon *dataset.Column) {
	for _, col := range p.data.Columns() {
		if lat == nil && strings.Contains(col.Name, "lat") {
			lat = col
		}
		if lon == nil && (strings.Contains(col.Name, "lon") || strings.Contains(col.Name, "lng")) {
			lon = col
		}
	}
	return lat, lon
}
