package prediction

import (
	"context"
	"fmt"
	"time"

	"github.com/berajelin/routia/models"
)

// LineCatalog is the read-only view of the reference dataset used by the service
type LineCatalog interface {
	LineLookup
	Summaries() []models.LineSummary
}

// ServiceConfig holds the immutable resources injected into the service
type ServiceConfig struct {
	Enumerator StopEnumerator
	Aggregator *Aggregator
	Catalog    LineCatalog // nil when no dataset loaded
	NewRand    RandFactory

	DatasetLoaded  bool
	RequireModel   bool
	RequireDataset bool
}

// Service is the stateless prediction entry point behind the HTTP API
type Service struct {
	enumerator StopEnumerator
	aggregator *Aggregator
	catalog    LineCatalog
	newRand    RandFactory

	datasetLoaded  bool
	requireModel   bool
	requireDataset bool

	now func() time.Time
}

// NewService creates a service from its injected resources
func NewService(cfg ServiceConfig) *Service {
	newRand := cfg.NewRand
	if newRand == nil {
		newRand = NewRandFactory(0)
	}

	enumerator := cfg.Enumerator
	if enumerator == nil {
		enumerator = SynthesizedEnumerator{}
	}

	aggregator := cfg.Aggregator
	if aggregator == nil {
		aggregator = NewAggregator(nil, NewFallbackEstimator(DefaultFallbackBase, nil), nil)
	}

	return &Service{
		enumerator:     enumerator,
		aggregator:     aggregator,
		catalog:        cfg.Catalog,
		newRand:        newRand,
		datasetLoaded:  cfg.DatasetLoaded,
		requireModel:   cfg.RequireModel,
		requireDataset: cfg.RequireDataset,
		now:            func() time.Time { return time.Now().UTC() },
	}
}

// Predict validates the request and returns the per-stop demand prediction.
// Errors are *ValidationError for malformed input, or wrap ErrModelUnavailable /
// ErrDataUnavailable when a required resource is missing.
func (s *Service) Predict(ctx context.Context, line, date, timeStart, timeEnd string) (*models.PredictionResult, error) {
	req, err := ParseRequest(line, date, timeStart, timeEnd)
	if err != nil {
		return nil, err
	}

	if s.requireModel && !s.aggregator.ModelBacked() {
		return nil, ErrModelUnavailable
	}
	if s.requireDataset && s.enumerator.Strategy() == models.StopStrategyDataset && !s.datasetLoaded {
		return nil, ErrDataUnavailable
	}

	stops := s.enumerator.StopsFor(req.Line)

	result, err := s.aggregator.Aggregate(ctx, req, stops, s.newRand())
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate prediction: %w", err)
	}

	if err := result.Validate(); err != nil {
		return nil, fmt.Errorf("invalid prediction result: %w", err)
	}

	return result, nil
}

// Lines lists the known lines in dataset order
func (s *Service) Lines() []models.LineSummary {
	if s.catalog == nil {
		return []models.LineSummary{}
	}
	return s.catalog.Summaries()
}

// Health reports which startup resources are available
func (s *Service) Health() models.Health {
	modelLoaded := s.aggregator.ModelBacked()
	strategy := s.enumerator.Strategy()

	lineCount := 0
	if s.catalog != nil {
		lineCount = len(s.catalog.Summaries())
	}

	return models.Health{
		Status:        models.CalculateHealthStatus(modelLoaded, s.datasetLoaded, strategy),
		ModelLoaded:   modelLoaded,
		DatasetLoaded: s.datasetLoaded,
		LineCount:     lineCount,
		StopStrategy:  strategy,
		Timestamp:     s.now(),
	}
}
