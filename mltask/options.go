package mltask

import (
	"github.com/YuminosukeSato/edaml/pkg/config"
	"github.com/YuminosukeSato/edaml/pkg/log"
)

// Options holds the runner settings.
type Options struct {
	// Seed drives the train/test split.
	Seed int64
	// TestSize is the held-out fraction used for the accuracy metric.
	TestSize float64
	// FeaturePrefix marks the fields of a prediction request.
	FeaturePrefix   string
	LogisticMaxIter int

	logger log.Logger
}

// DefaultOptions returns the options of the default configuration.
func DefaultOptions() Options {
	return FromConfig(config.DefaultConfig().ML)
}

// FromConfig maps the ml section of the configuration to Options.
func FromConfig(c config.MLConfig) Options {
	return Options{
		Seed:            c.Seed,
		TestSize:        c.TestSize,
		FeaturePrefix:   c.FeaturePrefix,
		LogisticMaxIter: c.LogisticMaxIter,
	}
}

// Option configures Build and Run.
type Option func(*Options)

// WithOptions replaces all settings; the logger is kept.
func WithOptions(o Options) Option {
	return func(dst *Options) {
		l := dst.logger
		*dst = o
		if dst.logger == nil {
			dst.logger = l
		}
	}
}

// WithSeed sets the split seed.
func WithSeed(seed int64) Option {
	return func(o *Options) { o.Seed = seed }
}

// WithTestSize sets the held-out fraction.
func WithTestSize(size float64) Option {
	return func(o *Options) { o.TestSize = size }
}

// WithLogger sets the logger.
func WithLogger(l log.Logger) Option {
	return func(o *Options) { o.logger = l }
}

func resolve(opts []Option) Options {
	o := DefaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = log.GetLoggerWithName("mltask")
	}
	return o
}
