package prediction

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/berajelin/routia/models"
)

// Data source tags reported with every prediction
const (
	DataSourceDataset     = "CTAN + RoutIA ML model"
	DataSourceSynthesized = "RoutIA ML model (simulated)"
	fallbackSuffix        = " [fallback estimator]"
)

// Request is a validated prediction request
type Request struct {
	Line  string
	Date  time.Time
	Start Clock
	End   Clock
}

// Aggregator turns per-stop estimates into a PredictionResult
type Aggregator struct {
	features  *FeatureBuilder
	estimator Estimator
	jitter    JitterFunc
	now       func() time.Time
}

// NewAggregator creates an aggregator. jitter defaults to UniformJitter.
func NewAggregator(features *FeatureBuilder, estimator Estimator, jitter JitterFunc) *Aggregator {
	if features == nil {
		features = NewFeatureBuilder(nil)
	}
	if jitter == nil {
		jitter = UniformJitter
	}
	return &Aggregator{
		features:  features,
		estimator: estimator,
		jitter:    jitter,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// ModelBacked reports whether the underlying estimator uses a trained model
func (a *Aggregator) ModelBacked() bool {
	return a.estimator.ModelBacked()
}

// Aggregate predicts every stop of ls and computes the derived metrics.
// No partial result is returned on error.
func (a *Aggregator) Aggregate(ctx context.Context, req Request, ls LineStops, rng Rand) (*models.PredictionResult, error) {
	stops := make([]models.StopPrediction, 0, len(ls.Stops))
	total := 0

	// One event lookup per request; every stop shares the same window
	obs := a.features.Observe(ctx, req.Line)

	for _, stop := range ls.Stops {
		features := a.features.BuildObserved(req.Date, req.Start.Hour, obs, rng)

		base, err := a.estimator.Estimate(features, rng)
		if err != nil {
			return nil, fmt.Errorf("failed to estimate demand for stop %s: %w", stop.ID, err)
		}

		demand := a.scale(base, rng, 0.7, 1.3)

		historical := models.HistoricalRidership{
			SameDayLastYear: a.scale(demand, rng, 0.8, 1.2),
			LastWeek:        a.scale(demand, rng, 0.7, 1.3),
			Yesterday:       a.scale(demand, rng, 0.9, 1.1),
		}

		stops = append(stops, models.StopPrediction{
			StopID:           stop.ID,
			Name:             stop.Name,
			Latitude:         stop.Latitude,
			Longitude:        stop.Longitude,
			Historical:       historical,
			PredictedDemand:  demand,
			VariationPercent: VariationPercent(demand, historical.SameDayLastYear),
			Level:            models.ClassifyDemand(demand),
		})

		total += demand
	}

	return &models.PredictionResult{
		PredictionID:         uuid.New(),
		Line:                 req.Line,
		LineName:             ls.Name,
		Date:                 req.Date.Format(DateLayout),
		TimeStart:            req.Start.String(),
		TimeEnd:              req.End.String(),
		Stops:                stops,
		TotalRiders:          total,
		ModelAccuracyPercent: models.ModelAccuracyPercent,
		DataSource:           a.dataSource(ls.Synthesized),
		GeneratedAt:          a.now(),
	}, nil
}

// scale applies one jitter draw to v, truncating and clamping at 0
func (a *Aggregator) scale(v int, rng Rand, lo, hi float64) int {
	scaled := int(float64(v) * a.jitter(rng, lo, hi))
	if scaled < 0 {
		return 0
	}
	return scaled
}

func (a *Aggregator) dataSource(synthesized bool) string {
	tag := DataSourceDataset
	if synthesized {
		tag = DataSourceSynthesized
	}
	if !a.estimator.ModelBacked() {
		tag += fallbackSuffix
	}
	return tag
}

// VariationPercent is the change of demand against baseline in percent,
// rounded to one decimal. A zero baseline is floored to 1.
func VariationPercent(demand, baseline int) float64 {
	denominator := baseline
	if denominator < 1 {
		denominator = 1
	}
	pct := float64(demand-baseline) / float64(denominator) * 100
	return math.Round(pct*10) / 10
}
