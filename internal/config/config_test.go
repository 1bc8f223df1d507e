package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"PORT", "DATASET_SOURCE", "STOP_STRATEGY", "ALERTS_CACHE_TTL", "RANDOM_SEED", "REQUIRE_MODEL", "ALLOWED_ORIGINS"} {
		t.Setenv(key, "")
	}

	cfg := Load()

	if cfg.Port != "8000" {
		t.Errorf("Port = %s, expected 8000", cfg.Port)
	}
	if cfg.DatasetSource != DatasetJSON {
		t.Errorf("DatasetSource = %s, expected %s", cfg.DatasetSource, DatasetJSON)
	}
	if cfg.StopStrategy != "dataset" {
		t.Errorf("StopStrategy = %s", cfg.StopStrategy)
	}
	if cfg.AlertsCacheTTL != 60*time.Second {
		t.Errorf("AlertsCacheTTL = %v", cfg.AlertsCacheTTL)
	}
	if cfg.RandomSeed != 0 || cfg.RequireModel {
		t.Errorf("unexpected behaviour defaults %+v", cfg)
	}
	if len(cfg.AllowedOrigins) != 1 {
		t.Errorf("AllowedOrigins = %v", cfg.AllowedOrigins)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should be valid: %v", err)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("DATASET_SOURCE", "SQLite")
	t.Setenv("ALERTS_CACHE_TTL", "5")
	t.Setenv("RANDOM_SEED", "42")
	t.Setenv("REQUIRE_MODEL", "true")
	t.Setenv("FALLBACK_BASE", "75.5")
	t.Setenv("ALLOWED_ORIGINS", "http://a.test, ,http://b.test")

	cfg := Load()

	if cfg.Port != "9090" {
		t.Errorf("Port = %s", cfg.Port)
	}
	if cfg.DatasetSource != DatasetSQLite {
		t.Errorf("DatasetSource = %s", cfg.DatasetSource)
	}
	if cfg.AlertsCacheTTL != 5*time.Second {
		t.Errorf("AlertsCacheTTL = %v", cfg.AlertsCacheTTL)
	}
	if cfg.RandomSeed != 42 || !cfg.RequireModel {
		t.Errorf("unexpected behaviour settings %+v", cfg)
	}
	if cfg.FallbackBase != 75.5 {
		t.Errorf("FallbackBase = %v", cfg.FallbackBase)
	}
	if len(cfg.AllowedOrigins) != 2 || cfg.AllowedOrigins[1] != "http://b.test" {
		t.Errorf("AllowedOrigins = %v", cfg.AllowedOrigins)
	}
}

func TestLoad_InvalidNumbersUseDefaults(t *testing.T) {
	t.Setenv("ALERTS_CACHE_TTL", "soon")
	t.Setenv("RANDOM_SEED", "-3")
	t.Setenv("REQUIRE_DATASET", "maybe")

	cfg := Load()

	if cfg.AlertsCacheTTL != 60*time.Second {
		t.Errorf("AlertsCacheTTL = %v", cfg.AlertsCacheTTL)
	}
	if cfg.RandomSeed != 0 {
		t.Errorf("RandomSeed = %d", cfg.RandomSeed)
	}
	if cfg.RequireDataset {
		t.Error("RequireDataset should fall back to false")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(*Config) {}, false},
		{"none source", func(c *Config) { c.DatasetSource = DatasetNone }, false},
		{"unknown source", func(c *Config) { c.DatasetSource = "mongo" }, true},
		{"postgres without url", func(c *Config) { c.DatasetSource = DatasetPostgres; c.DatabaseURL = "" }, true},
		{"postgres with url", func(c *Config) { c.DatasetSource = DatasetPostgres; c.DatabaseURL = "postgres://localhost/routia" }, false},
		{"unknown strategy", func(c *Config) { c.StopStrategy = "random" }, true},
		{"negative fallback", func(c *Config) { c.FallbackBase = -1 }, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := &Config{DatasetSource: DatasetJSON, StopStrategy: "dataset", FallbackBase: 90}
			tc.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tc.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}

func TestLoadEnvFiles(t *testing.T) {
	dir := t.TempDir()
	os.WriteFile(filepath.Join(dir, ".env"), []byte("ROUTIA_TEST_BASE=base\nROUTIA_TEST_OVERRIDE=base\n"), 0644)
	os.WriteFile(filepath.Join(dir, ".env.local"), []byte("ROUTIA_TEST_OVERRIDE=local\n"), 0644)

	t.Setenv("ROUTIA_TEST_BASE", "")
	t.Setenv("ROUTIA_TEST_OVERRIDE", "")
	os.Unsetenv("ROUTIA_TEST_BASE")
	os.Unsetenv("ROUTIA_TEST_OVERRIDE")

	LoadEnvFiles(dir)

	if got := os.Getenv("ROUTIA_TEST_BASE"); got != "base" {
		t.Errorf("ROUTIA_TEST_BASE = %q, expected base", got)
	}
	if got := os.Getenv("ROUTIA_TEST_OVERRIDE"); got != "local" {
		t.Errorf("ROUTIA_TEST_OVERRIDE = %q, expected local", got)
	}
}
