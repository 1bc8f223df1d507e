package bootstrap

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/berajelin/routia/internal/config"
	"github.com/berajelin/routia/internal/prediction"
	"github.com/berajelin/routia/models"
	"github.com/berajelin/routia/repository"
)

const testModel = `{
	"type": "linear",
	"features": ["hour", "weekday", "month", "is_holiday", "temperature", "rain", "near_event", "event_type_code"],
	"intercept": 40,
	"coefficients": [1, 0, 0, -5, 0, 5, 10, 0]
}`

const testDataset = `{
	"M-101A": {
		"nombre": "Sevilla - Alcalá de Guadaíra",
		"paradas": [
			{"idParada": 1, "nombre": "Plaza de Armas", "latitud": 37.3929, "longitud": -6.0038},
			{"idParada": 2, "nombre": "Prado", "latitud": 37.3801, "longitud": -5.9843},
			{"idParada": 3, "nombre": "Alcalá", "latitud": 37.338, "longitud": -5.843}
		]
	}
}`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

func baseConfig(t *testing.T) *config.Config {
	dir := t.TempDir()
	return &config.Config{
		DatasetSource:  config.DatasetJSON,
		DatasetFile:    writeFile(t, dir, "lines.json", testDataset),
		DatabasePath:   filepath.Join(dir, "routia.db"),
		ModelPath:      writeFile(t, dir, "model.json", testModel),
		StopStrategy:   models.StopStrategyDataset,
		FallbackBase:   90,
		RandomSeed:     7,
		StartupTimeout: 5 * time.Second,
	}
}

func TestNew_AllResources(t *testing.T) {
	app, err := New(context.Background(), baseConfig(t))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer app.Close()

	h := app.Service.Health()
	if h.Status != models.StatusOK || !h.ModelLoaded || !h.DatasetLoaded || h.LineCount != 1 {
		t.Errorf("unexpected health %+v", h)
	}

	result, err := app.Service.Predict(context.Background(), "M-101A", "2025-06-16", "08:00", "09:00")
	if err != nil {
		t.Fatalf("Predict failed: %v", err)
	}
	if len(result.Stops) != 3 {
		t.Errorf("expected 3 dataset stops, got %d", len(result.Stops))
	}
	if result.DataSource != prediction.DataSourceDataset {
		t.Errorf("DataSource = %q", result.DataSource)
	}
}

func TestNew_DegradedWithoutResources(t *testing.T) {
	cfg := baseConfig(t)
	cfg.ModelPath = filepath.Join(t.TempDir(), "missing.json")
	cfg.DatasetFile = filepath.Join(t.TempDir(), "missing.json")

	app, err := New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("New should degrade instead of failing: %v", err)
	}
	defer app.Close()

	h := app.Service.Health()
	if h.Status != models.StatusDegraded || h.ModelLoaded || h.DatasetLoaded {
		t.Errorf("unexpected health %+v", h)
	}

	result, err := app.Service.Predict(context.Background(), "M-101A", "2025-06-16", "08:00", "09:00")
	if err != nil {
		t.Fatalf("Predict failed in degraded mode: %v", err)
	}
	if len(result.Stops) != 4 {
		t.Errorf("expected 4 synthesized stops, got %d", len(result.Stops))
	}
}

func TestNew_RequireModel(t *testing.T) {
	cfg := baseConfig(t)
	cfg.ModelPath = writeFile(t, t.TempDir(), "short.json", `{"type": "linear", "features": ["hour"], "coefficients": [1]}`)
	cfg.RequireModel = true

	app, err := New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer app.Close()

	// A model with the wrong feature count is rejected at load time
	_, err = app.Service.Predict(context.Background(), "M-101A", "2025-06-16", "08:00", "09:00")
	if !errors.Is(err, prediction.ErrModelUnavailable) {
		t.Errorf("expected ErrModelUnavailable, got %v", err)
	}
}

func TestNew_SQLiteSource(t *testing.T) {
	cfg := baseConfig(t)
	cfg.DatasetSource = config.DatasetSQLite

	// Seed the database the way import-gtfs does
	db, err := repository.NewSQLiteDB(cfg.DatabasePath)
	if err != nil {
		t.Fatalf("NewSQLiteDB failed: %v", err)
	}
	repo := repository.NewSQLiteLineRepository(db)
	if err := repo.EnsureSchema(context.Background()); err != nil {
		t.Fatalf("EnsureSchema failed: %v", err)
	}
	lines, _ := repository.ParseCTANLines([]byte(testDataset))
	if err := repo.UpsertLines(context.Background(), "test", lines); err != nil {
		t.Fatalf("UpsertLines failed: %v", err)
	}
	db.Close()

	app, err := New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer app.Close()

	summaries := app.Service.Lines()
	if len(summaries) != 1 || summaries[0].Code != "M-101A" || summaries[0].StopCount != 3 {
		t.Errorf("unexpected lines %+v", summaries)
	}
}

func TestNew_SynthesizedStrategy(t *testing.T) {
	cfg := baseConfig(t)
	cfg.StopStrategy = models.StopStrategySynthesized

	app, err := New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer app.Close()

	result, err := app.Service.Predict(context.Background(), "M-101A", "2025-06-16", "08:00", "09:00")
	if err != nil {
		t.Fatalf("Predict failed: %v", err)
	}
	if len(result.Stops) != 4 || result.DataSource != prediction.DataSourceSynthesized {
		t.Errorf("expected synthesized stops, got %d (%s)", len(result.Stops), result.DataSource)
	}
	if app.Service.Health().StopStrategy != models.StopStrategySynthesized {
		t.Error("health should report the synthesized strategy")
	}
}

func TestNew_NoDataset(t *testing.T) {
	cfg := baseConfig(t)
	cfg.DatasetSource = config.DatasetNone

	app, err := New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer app.Close()

	if got := app.Service.Lines(); len(got) != 0 {
		t.Errorf("expected no lines, got %d", len(got))
	}
}

func TestNew_InvalidConfig(t *testing.T) {
	cfg := baseConfig(t)
	cfg.DatasetSource = "mongo"

	if _, err := New(context.Background(), cfg); err == nil {
		t.Error("expected error for invalid config")
	}
}

func TestNew_SeededPredictionsRepeat(t *testing.T) {
	predict := func() int {
		app, err := New(context.Background(), baseConfig(t))
		if err != nil {
			t.Fatalf("New failed: %v", err)
		}
		defer app.Close()

		result, err := app.Service.Predict(context.Background(), "M-101A", "2025-06-16", "08:00", "09:00")
		if err != nil {
			t.Fatalf("Predict failed: %v", err)
		}
		return result.TotalRiders
	}

	if a, b := predict(), predict(); a != b {
		t.Errorf("RANDOM_SEED should make predictions reproducible: %d vs %d", a, b)
	}
}
