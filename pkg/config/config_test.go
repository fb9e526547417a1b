package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Profiling.CategoricalThreshold != 20 {
		t.Errorf("CategoricalThreshold = %d, want 20", cfg.Profiling.CategoricalThreshold)
	}
	if cfg.Profiling.PieMinCategories != 2 || cfg.Profiling.PieMaxCategories != 10 {
		t.Errorf("pie range = [%d, %d], want [2, 10]", cfg.Profiling.PieMinCategories, cfg.Profiling.PieMaxCategories)
	}
	if cfg.ML.Seed != 42 || cfg.ML.TestSize != 0.2 {
		t.Errorf("ML = %+v, want seed 42 and test size 0.2", cfg.ML)
	}
	if cfg.ML.FeaturePrefix != "X_" {
		t.Errorf("FeaturePrefix = %q, want X_", cfg.ML.FeaturePrefix)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should be valid: %v", err)
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".edaml.yaml")
	content := `
profiling:
  categorical_threshold: 5
  geo_keywords: [lat, lon]
ml:
  seed: 7
logging:
  level: debug
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if cfg.Profiling.CategoricalThreshold != 5 {
		t.Errorf("CategoricalThreshold = %d, want 5", cfg.Profiling.CategoricalThreshold)
	}
	if len(cfg.Profiling.GeoKeywords) != 2 {
		t.Errorf("GeoKeywords = %v, want [lat lon]", cfg.Profiling.GeoKeywords)
	}
	if cfg.ML.Seed != 7 {
		t.Errorf("Seed = %d, want 7", cfg.ML.Seed)
	}
	// untouched keys keep defaults
	if cfg.Profiling.TopCategories != 20 {
		t.Errorf("TopCategories = %d, want default 20", cfg.Profiling.TopCategories)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("EDAML_LOG_LEVEL", "warn")
	t.Setenv("EDAML_SEED", "99")
	t.Setenv("EDAML_MAX_UPLOADS", "3")
	t.Setenv("EDAML_ALLOWED_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("EDAML_ADDR", ":9000")

	cfg := DefaultConfig()
	applyEnvOverrides(cfg)

	if cfg.Logging.Level != "warn" {
		t.Errorf("Level = %q, want warn", cfg.Logging.Level)
	}
	if cfg.ML.Seed != 99 {
		t.Errorf("Seed = %d, want 99", cfg.ML.Seed)
	}
	if cfg.Server.MaxUploads != 3 {
		t.Errorf("MaxUploads = %d, want 3", cfg.Server.MaxUploads)
	}
	if len(cfg.Server.AllowedOrigins) != 2 || cfg.Server.AllowedOrigins[1] != "https://b.example" {
		t.Errorf("AllowedOrigins = %v", cfg.Server.AllowedOrigins)
	}
	if cfg.Server.Addr != ":9000" {
		t.Errorf("Addr = %q", cfg.Server.Addr)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"threshold", func(c *Config) { c.Profiling.CategoricalThreshold = 0 }},
		{"pie range", func(c *Config) { c.Profiling.PieMaxCategories = 1 }},
		{"window", func(c *Config) { c.Profiling.MovingAverageWindow = 0 }},
		{"test size", func(c *Config) { c.ML.TestSize = 1.5 }},
		{"log level", func(c *Config) { c.Logging.Level = "chatty" }},
		{"uploads", func(c *Config) { c.Server.MaxUploads = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}
