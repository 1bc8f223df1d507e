package bootstrap

import (
	"context"
	"fmt"
	"log"

	"golang.org/x/sync/errgroup"

	"github.com/berajelin/routia/internal/config"
	"github.com/berajelin/routia/internal/prediction"
	"github.com/berajelin/routia/internal/realtime/alerts"
	"github.com/berajelin/routia/internal/regression"
	"github.com/berajelin/routia/models"
	"github.com/berajelin/routia/repository"
)

// App holds the assembled prediction service and the resources behind it
type App struct {
	Service *prediction.Service
	Config  *config.Config

	closers []func()
}

// New loads the model and the reference dataset in parallel and wires the
// prediction service. A resource that fails to load is logged and the
// service runs degraded; only invalid configuration or an expired startup
// context are returned as errors.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	if cfg.StartupTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.StartupTimeout)
		defer cancel()
	}

	app := &App{Config: cfg}

	var (
		model   regression.Model
		catalog *repository.Catalog
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		m, err := loadModel(cfg.ModelPath)
		if err != nil {
			log.Printf("Warning: model not loaded, using fallback estimator: %v", err)
			return nil
		}
		model = m
		log.Printf("Loaded regression model from %s", cfg.ModelPath)
		return nil
	})

	g.Go(func() error {
		loader, closer, err := openLoader(gctx, cfg)
		if closer != nil {
			app.addCloser(closer)
		}
		if err != nil {
			log.Printf("Warning: dataset source %s unavailable: %v", cfg.DatasetSource, err)
			return nil
		}
		if loader == nil {
			return nil
		}

		c, err := repository.LoadCatalog(gctx, loader)
		if err != nil {
			if gctx.Err() != nil {
				return gctx.Err()
			}
			log.Printf("Warning: dataset not loaded, unknown lines will be synthesized: %v", err)
			return nil
		}
		if c.Len() == 0 {
			log.Printf("Warning: dataset source %s has no lines", cfg.DatasetSource)
		}
		catalog = c
		return nil
	})

	if err := g.Wait(); err != nil {
		app.Close()
		return nil, fmt.Errorf("startup aborted: %w", err)
	}

	app.Service = prediction.NewService(serviceConfig(cfg, model, catalog))

	h := app.Service.Health()
	log.Printf("Prediction service ready: status=%s model=%v dataset=%v lines=%d strategy=%s",
		h.Status, h.ModelLoaded, h.DatasetLoaded, h.LineCount, h.StopStrategy)

	return app, nil
}

// Close releases database connections opened during startup
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

func (a *App) addCloser(fn func()) {
	a.closers = append(a.closers, fn)
}

func serviceConfig(cfg *config.Config, model regression.Model, catalog *repository.Catalog) prediction.ServiceConfig {
	var events prediction.EventSource
	if cfg.AlertsURL != "" {
		events = alerts.NewSource(cfg.AlertsURL, cfg.AlertsCacheTTL, cfg.AlertsTimeout)
	}

	var estimator prediction.Estimator
	if model != nil {
		estimator = prediction.NewRegressionEstimator(model)
	} else {
		estimator = prediction.NewFallbackEstimator(cfg.FallbackBase, nil)
	}

	sc := prediction.ServiceConfig{
		Aggregator:     prediction.NewAggregator(prediction.NewFeatureBuilder(events), estimator, nil),
		NewRand:        prediction.NewRandFactory(cfg.RandomSeed),
		DatasetLoaded:  catalog != nil,
		RequireModel:   cfg.RequireModel,
		RequireDataset: cfg.RequireDataset,
	}

	// Keep nil catalogs out of the interfaces
	if catalog != nil {
		sc.Catalog = catalog
	}

	if cfg.StopStrategy == models.StopStrategySynthesized {
		sc.Enumerator = prediction.SynthesizedEnumerator{}
	} else if catalog != nil {
		sc.Enumerator = prediction.NewDatasetEnumerator(catalog)
	} else {
		sc.Enumerator = prediction.NewDatasetEnumerator(nil)
	}

	return sc
}

func loadModel(path string) (regression.Model, error) {
	if path == "" {
		return nil, fmt.Errorf("MODEL_PATH is empty")
	}
	m, err := regression.Load(path)
	if err != nil {
		return nil, err
	}
	if m.NumFeatures() != len(models.FeatureNames) {
		return nil, fmt.Errorf("model expects %d features, feature builder produces %d", m.NumFeatures(), len(models.FeatureNames))
	}
	return m, nil
}

// openLoader returns the configured dataset loader. The closer, when non-nil,
// must be called on shutdown even if err is set.
func openLoader(ctx context.Context, cfg *config.Config) (repository.LineLoader, func(), error) {
	switch cfg.DatasetSource {
	case config.DatasetSQLite:
		db, err := repository.NewSQLiteDB(cfg.DatabasePath)
		if err != nil {
			return nil, nil, err
		}
		closer := func() { db.Close() }

		repo := repository.NewSQLiteLineRepository(db)
		if err := repo.EnsureSchema(ctx); err != nil {
			return nil, closer, err
		}
		return repo, closer, nil

	case config.DatasetPostgres:
		repo, err := repository.NewPostgresLineRepository(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		return repo, repo.Close, nil

	case config.DatasetJSON:
		return repository.NewJSONLineRepository(cfg.DatasetFile), nil, nil

	default:
		return nil, nil, nil
	}
}
