package profiler

import (
	"fmt"

	"github.com/YuminosukeSato/edaml/plotting"
)

// Advanced generates violin plots per numeric column and, with at least two
// numeric columns, a correlation heatmap followed by scatter plots of the
// most correlated pairs.
func (p *Profiler) Advanced() []ReportItem {
	var items []ReportItem

	for _, name := range p.cls.Numeric {
		col, _ := p.data.Col(name)
		if col.Len() == 0 {
			continue
		}
		values := col.Present()
		p.attempt(SectionUnivariate, "violin", name, func() error {
			a, err := plotting.Violin(fmt.Sprintf("Distribution (violin plot) of %q", name), name, values, p.opts.ChartSize)
			if err != nil {
				return err
			}
			items = append(items, ReportItem{Section: SectionUnivariate, Title: fmt.Sprintf("Violin plot of %q", name), Artifact: a})
			return nil
		})
	}

	if len(p.cls.Numeric) < 2 {
		return items
	}

	names := p.cls.Numeric
	columns := make([][]float64, len(names))
	for i, name := range names {
		col, _ := p.data.Col(name)
		columns[i] = col.Floats()
	}
	corr := CorrelationMatrix(columns)

	p.attempt(SectionBivariate, "heatmap", "", func() error {
		a, err := plotting.CorrelationHeatmap("Numeric correlation heatmap", names, corr, p.opts.ChartSize)
		if err != nil {
			return err
		}
		items = append(items, ReportItem{Section: SectionBivariate, Title: "Correlation heatmap", Artifact: a})
		return nil
	})

	index := make(map[string]int, len(names))
	for i, name := range names {
		index[name] = i
	}
	for _, pair := range TopCorrelatedPairs(names, corr, p.opts.TopCorrelatedPairs) {
		p.attempt(SectionBivariate, "scatter", pair.X+","+pair.Y, func() error {
			a, err := plotting.ScatterTrend(
				fmt.Sprintf("Correlation: %s vs %s", pair.X, pair.Y),
				pair.X, pair.Y, columns[index[pair.X]], columns[index[pair.Y]], p.opts.ChartSize)
			if err != nil {
				return err
			}
			items = append(items, ReportItem{Section: SectionBivariate, Title: fmt.Sprintf("Scatter: %s vs %s", pair.X, pair.Y), Artifact: a})
			return nil
		})
	}

	return items
}
