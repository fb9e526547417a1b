package profiler

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/YuminosukeSato/edaml/plotting"
)

// Temporal generates, per temporal column, a daily count line and, when
// there are more days than the moving-average window, a trend chart
// overlaying the moving average.
func (p *Profiler) Temporal() []ReportItem {
	var items []ReportItem
	window := p.opts.MovingAverageWindow

	for _, name := range p.cls.Temporal {
		col, _ := p.data.Col(name)
		days, counts := DailyCounts(col.Times())
		if len(days) == 0 {
			continue
		}

		p.attempt(SectionTemporal, "daily", name, func() error {
			a, err := plotting.DailyLine(fmt.Sprintf("Daily evolution (%s)", name), "count", days, counts, p.opts.ChartSize)
			if err != nil {
				return err
			}
			items = append(items, ReportItem{Section: SectionTemporal, Title: fmt.Sprintf("Evolution by date (%s)", name), Artifact: a})
			return nil
		})

		if len(days) > window {
			p.attempt(SectionTemporal, "trend", name, func() error {
				title := fmt.Sprintf("Trend with moving average (%s)", name)
				a, err := plotting.TrendLine(title, "count", days, counts, MovingAverage(counts, window),
					fmt.Sprintf("%d-day moving average", window), p.opts.ChartSize)
				if err != nil {
					return err
				}
				items = append(items, ReportItem{Section: SectionTemporal, Title: title, Artifact: a})
				return nil
			})
		}
	}
	return items
}

// DailyCounts buckets timestamps by calendar day (in each timestamp's own
// location) and returns the non-empty days in ascending order with their
// counts. Days are returned as midnight UTC.
func DailyCounts(times []time.Time) ([]time.Time, []float64) {
	buckets := make(map[time.Time]float64)
	for _, t := range times {
		y, m, d := t.Date()
		buckets[time.Date(y, m, d, 0, 0, 0, 0, time.UTC)]++
	}

	days := make([]time.Time, 0, len(buckets))
	for day := range buckets {
		days = append(days, day)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })

	counts := make([]float64, len(days))
	for i, day := range days {
		counts[i] = buckets[day]
	}
	return days, counts
}

// MovingAverage returns the trailing mean over window values. The first
// window-1 entries are NaN. A window below 1 is treated as 1.
func MovingAverage(values []float64, window int) []float64 {
	if window < 1 {
		window = 1
	}
	out := make([]float64, len(values))
	sum := 0.0
	for i, v := range values {
		sum += v
		if i >= window {
			sum -= values[i-window]
		}
		if i < window-1 {
			out[i] = math.NaN()
			continue
		}
		out[i] = sum / float64(window)
	}
	return out
}
