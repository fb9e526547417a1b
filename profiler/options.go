package profiler

import (
	"github.com/YuminosukeSato/edaml/pkg/config"
	"github.com/YuminosukeSato/edaml/pkg/log"
	"github.com/YuminosukeSato/edaml/plotting"
)

// Options holds the thresholds of the classification cascade and the report
// generators.
type Options struct {
	// CategoricalThreshold is the distinct-value count at which a numeric
	// column stops being categorical.
	CategoricalThreshold int
	TopCategories        int
	PieMinCategories     int
	PieMaxCategories     int
	GeoTopCategories     int
	TopCorrelatedPairs   int
	MovingAverageWindow  int

	GeoKeywords      []string
	TemporalKeywords []string

	ChartSize plotting.Size
}

// DefaultOptions returns the options of the default configuration.
func DefaultOptions() Options {
	return FromConfig(config.DefaultConfig().Profiling)
}

// FromConfig maps the profiling section of the configuration to Options.
func FromConfig(c config.ProfilingConfig) Options {
	return Options{
		CategoricalThreshold: c.CategoricalThreshold,
		TopCategories:        c.TopCategories,
		PieMinCategories:     c.PieMinCategories,
		PieMaxCategories:     c.PieMaxCategories,
		GeoTopCategories:     c.GeoTopCategories,
		TopCorrelatedPairs:   c.TopCorrelatedPairs,
		MovingAverageWindow:  c.MovingAverageWindow,
		GeoKeywords:          append([]string(nil), c.GeoKeywords...),
		TemporalKeywords:     append([]string(nil), c.TemporalKeywords...),
		ChartSize:            plotting.SizeCm(c.ChartWidthCm, c.ChartHeightCm),
	}
}

// Option configures a Profiler.
type Option func(*Profiler)

// WithOptions replaces the profiler's thresholds.
func WithOptions(o Options) Option {
	return func(p *Profiler) {
		p.opts = o
	}
}

// WithLogger sets the logger used to report skipped items.
func WithLogger(l log.Logger) Option {
	return func(p *Profiler) {
		p.logger = l
	}
}
