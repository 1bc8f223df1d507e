package prediction

import (
	"fmt"
	"math"

	"github.com/berajelin/routia/internal/regression"
	"github.com/berajelin/routia/models"
)

// DefaultFallbackBase is the mean ridership the fallback estimator jitters around
const DefaultFallbackBase = 90.0

// Estimator maps a feature vector to a non-negative ridership estimate
type Estimator interface {
	Estimate(features models.FeatureVector, rng Rand) (int, error)
	// ModelBacked reports whether estimates come from a trained model
	ModelBacked() bool
}

// RegressionEstimator applies a trained regression model
type RegressionEstimator struct {
	model regression.Model
}

// NewRegressionEstimator wraps a loaded model
func NewRegressionEstimator(model regression.Model) *RegressionEstimator {
	return &RegressionEstimator{model: model}
}

// Estimate clamps negative outputs to 0 and truncates to an integer
func (e *RegressionEstimator) Estimate(features models.FeatureVector, _ Rand) (int, error) {
	y, err := e.model.Predict(features.Values())
	if err != nil {
		return 0, fmt.Errorf("failed to evaluate model: %w", err)
	}
	if math.IsNaN(y) || math.IsInf(y, 0) {
		return 0, fmt.Errorf("model returned non-finite value %v", y)
	}
	if y < 0 {
		return 0, nil
	}
	return int(y), nil
}

// ModelBacked is always true for a regression estimator
func (e *RegressionEstimator) ModelBacked() bool {
	return true
}

// FallbackEstimator stands in for the model when none is loaded:
// base × U[0.7, 1.3]
type FallbackEstimator struct {
	base   float64
	jitter JitterFunc
}

// NewFallbackEstimator creates a fallback around base; jitter defaults to UniformJitter
func NewFallbackEstimator(base float64, jitter JitterFunc) *FallbackEstimator {
	if jitter == nil {
		jitter = UniformJitter
	}
	return &FallbackEstimator{base: base, jitter: jitter}
}

// Estimate ignores the features and perturbs the base value
func (e *FallbackEstimator) Estimate(_ models.FeatureVector, rng Rand) (int, error) {
	v := int(e.base * e.jitter(rng, 0.7, 1.3))
	if v < 0 {
		return 0, nil
	}
	return v, nil
}

// ModelBacked is always false for the fallback
func (e *FallbackEstimator) ModelBacked() bool {
	return false
}
