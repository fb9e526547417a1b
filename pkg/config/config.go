// Package config provides configuration loading for edaml.
//
// Configuration starts from DefaultConfig, is overlaid with the first
// .edaml.yaml (or .edaml.yml) found walking up from the working directory,
// and finally with EDAML_* environment variables.
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/YuminosukeSato/edaml/pkg/errors"
	"github.com/YuminosukeSato/edaml/pkg/log"
)

// Config represents the complete configuration.
type Config struct {
	Profiling ProfilingConfig `yaml:"profiling"`
	ML        MLConfig        `yaml:"ml"`
	Logging   LoggingConfig   `yaml:"logging"`
	Server    ServerConfig    `yaml:"server"`
}

// ProfilingConfig holds the thresholds of the column classifier and the
// report generators.
type ProfilingConfig struct {
	CategoricalThreshold int      `yaml:"categorical_threshold"`
	TopCategories        int      `yaml:"top_categories"`
	PieMinCategories     int      `yaml:"pie_min_categories"`
	PieMaxCategories     int      `yaml:"pie_max_categories"`
	GeoTopCategories     int      `yaml:"geo_top_categories"`
	TopCorrelatedPairs   int      `yaml:"top_correlated_pairs"`
	MovingAverageWindow  int      `yaml:"moving_average_window"`
	GeoKeywords          []string `yaml:"geo_keywords"`
	TemporalKeywords     []string `yaml:"temporal_keywords"`
	ChartWidthCm         float64  `yaml:"chart_width_cm"`
	ChartHeightCm        float64  `yaml:"chart_height_cm"`
}

// MLConfig holds the pipeline runner settings.
type MLConfig struct {
	Seed            int64   `yaml:"seed"`
	TestSize        float64 `yaml:"test_size"`
	FeaturePrefix   string  `yaml:"feature_prefix"`
	HyperPrefix     string  `yaml:"hyperparam_prefix"`
	LogisticMaxIter int     `yaml:"logistic_max_iter"`
}

// LoggingConfig configures the zerolog provider.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// ServerConfig configures the upload host.
type ServerConfig struct {
	Addr           string   `yaml:"addr"`
	MaxUploads     int      `yaml:"max_uploads"`
	MaxUploadBytes int64    `yaml:"max_upload_bytes"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Profiling: ProfilingConfig{
			CategoricalThreshold: 20,
			TopCategories:        20,
			PieMinCategories:     2,
			PieMaxCategories:     10,
			GeoTopCategories:     15,
			TopCorrelatedPairs:   3,
			MovingAverageWindow:  7,
			GeoKeywords: []string{
				"latitude", "longitude", "lat", "lon", "lng",
				"postal_code", "cep", "city", "cidade", "state", "estado", "country", "pais",
			},
			TemporalKeywords: []string{"date", "data", "year", "ano", "time", "timestamp"},
			ChartWidthCm:     16,
			ChartHeightCm:    10,
		},
		ML: MLConfig{
			Seed:            42,
			TestSize:        0.2,
			FeaturePrefix:   "X_",
			HyperPrefix:     "hp_",
			LogisticMaxIter: 1000,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		Server: ServerConfig{
			Addr:           ":8080",
			MaxUploads:     5,
			MaxUploadBytes: 32 << 20,
			AllowedOrigins: []string{"http://localhost:3000", "http://127.0.0.1:3000"},
		},
	}
}

// Load reads configuration from file and environment variables.
func Load() (*Config, error) {
	cfg := DefaultConfig()

	if path := findConfigFile(); path != "" {
		if err := loadFromFile(cfg, path); err != nil {
			return nil, errors.Wrapf(err, "failed to load config file %s", path)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFile reads configuration from an explicit path, then applies
// environment overrides.
func LoadFile(path string) (*Config, error) {
	cfg := DefaultConfig()
	if err := loadFromFile(cfg, path); err != nil {
		return nil, errors.Wrapf(err, "failed to load config file %s", path)
	}
	applyEnvOverrides(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks ranges that would otherwise surface as confusing
// failures deep inside profiling or training.
func (c *Config) Validate() error {
	p := c.Profiling
	switch {
	case p.CategoricalThreshold < 1:
		return errors.NewValidationError("profiling.categorical_threshold", "must be >= 1", p.CategoricalThreshold)
	case p.PieMinCategories < 1 || p.PieMaxCategories < p.PieMinCategories:
		return errors.NewValidationError("profiling.pie_max_categories", "must be >= pie_min_categories >= 1", p.PieMaxCategories)
	case p.MovingAverageWindow < 1:
		return errors.NewValidationError("profiling.moving_average_window", "must be >= 1", p.MovingAverageWindow)
	case p.TopCategories < 1 || p.GeoTopCategories < 1:
		return errors.NewValidationError("profiling.top_categories", "must be >= 1", p.TopCategories)
	case p.ChartWidthCm <= 0 || p.ChartHeightCm <= 0:
		return errors.NewValidationError("profiling.chart_width_cm", "chart size must be positive", p.ChartWidthCm)
	}
	if c.ML.TestSize <= 0 || c.ML.TestSize >= 1 {
		return errors.NewValidationError("ml.test_size", "must be in (0, 1)", c.ML.TestSize)
	}
	if _, err := log.ParseLevel(c.Logging.Level); err != nil {
		return errors.NewValidationError("logging.level", err.Error(), c.Logging.Level)
	}
	if c.Server.MaxUploads < 1 {
		return errors.NewValidationError("server.max_uploads", "must be >= 1", c.Server.MaxUploads)
	}
	return nil
}

// findConfigFile searches for the configuration file.
func findConfigFile() string {
	candidates := []string{
		".edaml.yaml",
		".edaml.yml",
	}

	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		for _, name := range candidates {
			path := filepath.Join(dir, name)
			if _, err := os.Stat(path); err == nil {
				return path
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}

// loadFromFile reads configuration from a YAML file.
func loadFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	return yaml.Unmarshal(data, cfg)
}

// applyEnvOverrides applies environment variable overrides.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("EDAML_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}

	if v := os.Getenv("EDAML_ADDR"); v != "" {
		cfg.Server.Addr = v
	}

	if v := os.Getenv("EDAML_SEED"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.ML.Seed = n
		}
	}

	if v := os.Getenv("EDAML_MAX_UPLOADS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Server.MaxUploads = n
		}
	}

	if v := os.Getenv("EDAML_ALLOWED_ORIGINS"); v != "" {
		var origins []string
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
		cfg.Server.AllowedOrigins = origins
	}
}
