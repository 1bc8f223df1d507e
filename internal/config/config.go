package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Dataset sources
const (
	DatasetSQLite   = "sqlite"
	DatasetPostgres = "postgres"
	DatasetJSON     = "json"
	DatasetNone     = "none"
)

// Config holds all configuration for the prediction service
type Config struct {
	// HTTP
	Port           string
	AllowedOrigins []string

	// Reference dataset
	DatasetSource string
	DatabasePath  string
	DatabaseURL   string
	DatasetFile   string
	StopStrategy  string

	// Model
	ModelPath    string
	FallbackBase float64

	// Alerts (GTFS-RT)
	AlertsURL      string
	AlertsCacheTTL time.Duration
	AlertsTimeout  time.Duration

	// Behaviour
	RandomSeed     uint64
	RequireModel   bool
	RequireDataset bool
	StartupTimeout time.Duration
}

// LoadEnvFiles loads <dir>/.env, then lets <dir>/.env.local override it.
// Missing files are ignored.
func LoadEnvFiles(dir string) {
	_ = godotenv.Load(filepath.Join(dir, ".env"))
	_ = godotenv.Overload(filepath.Join(dir, ".env.local"))
}

// Load reads configuration from environment variables with sensible defaults
func Load() *Config {
	return &Config{
		// HTTP
		Port:           getEnv("PORT", "8000"),
		AllowedOrigins: getEnvList("ALLOWED_ORIGINS", []string{"http://localhost:8501"}),

		// Reference dataset
		DatasetSource: strings.ToLower(getEnv("DATASET_SOURCE", DatasetJSON)),
		DatabasePath:  getEnv("SQLITE_DATABASE", "data/routia.db"),
		DatabaseURL:   getEnv("DATABASE_URL", ""),
		DatasetFile:   getEnv("DATASET_FILE", "data/lines_ctan.json"),
		StopStrategy:  strings.ToLower(getEnv("STOP_STRATEGY", "dataset")),

		// Model
		ModelPath:    getEnv("MODEL_PATH", "data/model_routia.json"),
		FallbackBase: getEnvFloat("FALLBACK_BASE", 90),

		// Alerts (GTFS-RT)
		AlertsURL:      getEnv("ALERTS_URL", ""),
		AlertsCacheTTL: time.Duration(getEnvInt("ALERTS_CACHE_TTL", 60)) * time.Second,
		AlertsTimeout:  time.Duration(getEnvInt("ALERTS_TIMEOUT", 10)) * time.Second,

		// Behaviour
		RandomSeed:     uint64(getEnvInt("RANDOM_SEED", 0)),
		RequireModel:   getEnvBool("REQUIRE_MODEL", false),
		RequireDataset: getEnvBool("REQUIRE_DATASET", false),
		StartupTimeout: time.Duration(getEnvInt("STARTUP_TIMEOUT", 30)) * time.Second,
	}
}

// Validate rejects settings the service cannot start with
func (c *Config) Validate() error {
	switch c.DatasetSource {
	case DatasetSQLite, DatasetJSON, DatasetNone:
	case DatasetPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when DATASET_SOURCE=%s", DatasetPostgres)
		}
	default:
		return fmt.Errorf("unknown DATASET_SOURCE %q", c.DatasetSource)
	}

	switch c.StopStrategy {
	case "dataset", "synthesized":
	default:
		return fmt.Errorf("unknown STOP_STRATEGY %q", c.StopStrategy)
	}

	if c.FallbackBase < 0 {
		return fmt.Errorf("FALLBACK_BASE must not be negative, got %v", c.FallbackBase)
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil && intValue >= 0 {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

// getEnvList splits a comma-separated variable, dropping empty entries
func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
