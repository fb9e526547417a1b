package profiler

import (
	"fmt"

	"github.com/YuminosukeSato/edaml/dataset"
	"github.com/YuminosukeSato/edaml/plotting"
)

// Basic generates the categorical and numerical sections: frequency bars and
// pies for categorical columns, then histograms and descriptive statistics
// for numeric columns.
func (p *Profiler) Basic() []ReportItem {
	var items []ReportItem

	for _, name := range p.cls.Categorical {
		col, _ := p.data.Col(name)
		counts := col.ValueCounts()
		if len(counts) == 0 {
			continue
		}

		p.attempt(SectionCategorical, "bar", name, func() error {
			labels, values := ascending(counts, p.opts.TopCategories)
			a, err := plotting.HorizontalBar(
				fmt.Sprintf("Count of %q (Top %d)", name, p.opts.TopCategories),
				"count", labels, values, p.opts.ChartSize)
			if err != nil {
				return err
			}
			items = append(items, ReportItem{Section: SectionCategorical, Title: fmt.Sprintf("Count by %q", name), Artifact: a})
			return nil
		})

		if n := len(counts); n >= p.opts.PieMinCategories && n <= p.opts.PieMaxCategories {
			p.attempt(SectionCategorical, "pie", name, func() error {
				labels := make([]string, len(counts))
				values := make([]float64, len(counts))
				for i, vc := range counts {
					labels[i], values[i] = vc.Value, float64(vc.Count)
				}
				a, err := plotting.Pie(fmt.Sprintf("Pie distribution of %q", name), labels, values, p.opts.ChartSize)
				if err != nil {
					return err
				}
				items = append(items, ReportItem{Section: SectionCategorical, Title: fmt.Sprintf("Pie of %q", name), Artifact: a})
				return nil
			})
		}
	}

	for _, name := range p.cls.Numeric {
		col, _ := p.data.Col(name)
		values := col.Present()

		// 全て欠損の列も行があれば空のチャートを出す
		if col.Len() > 0 {
			p.attempt(SectionNumerical, "histogram", name, func() error {
				a, err := plotting.HistogramBox(fmt.Sprintf("Histogram and box plot of %q", name), name, values, p.opts.ChartSize)
				if err != nil {
					return err
				}
				items = append(items, ReportItem{Section: SectionNumerical, Title: fmt.Sprintf("Distribution of %q", name), Artifact: a})
				return nil
			})
		}

		p.attempt(SectionNumerical, "statistics", name, func() error {
			a, err := plotting.HTMLTable(Describe(values).Table(name))
			if err != nil {
				return err
			}
			items = append(items, ReportItem{Section: SectionNumerical, Title: fmt.Sprintf("Descriptive statistics for %q", name), Artifact: a})
			return nil
		})
	}

	return items
}

// ascending keeps the top n of counts (sorted most frequent first) and
// returns them least frequent first.
func ascending(counts []dataset.ValueCount, n int) ([]string, []float64) {
	if n > 0 && len(counts) > n {
		counts = counts[:n]
	}
	labels := make([]string, len(counts))
	values := make([]float64, len(counts))
	for i, vc := range counts {
		j := len(counts) - 1 - i
		labels[j], values[j] = vc.Value, float64(vc.Count)
	}
	return labels, values
}
