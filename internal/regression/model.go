package regression

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

// Model artifact types
const (
	TypeLinear           = "linear"
	TypeGradientBoosting = "gradient_boosting"
)

// Model is a pre-trained regression function over a fixed-length feature vector
type Model interface {
	Predict(features []float64) (float64, error)
	NumFeatures() int
}

// Artifact is the on-disk JSON representation of a trained model
type Artifact struct {
	Type     string   `json:"type"`
	Version  string   `json:"version,omitempty"`
	Features []string `json:"features"`
	Accuracy float64  `json:"accuracy,omitempty"` // offline evaluation score, informational

	// Linear models
	Intercept    float64   `json:"intercept,omitempty"`
	Coefficients []float64 `json:"coefficients,omitempty"`

	// Gradient boosting models
	Init         float64 `json:"init,omitempty"`
	LearningRate float64 `json:"learningRate,omitempty"`
	Trees        []Tree  `json:"trees,omitempty"`
}

// Load reads a model artifact from disk
func Load(path string) (Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read model artifact: %w", err)
	}
	return Parse(data)
}

// Parse decodes a model artifact and validates its structure
func Parse(data []byte) (Model, error) {
	var a Artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("failed to decode model artifact: %w", err)
	}

	if len(a.Features) == 0 {
		return nil, errors.New("model artifact lists no features")
	}

	switch a.Type {
	case TypeLinear:
		if len(a.Coefficients) != len(a.Features) {
			return nil, fmt.Errorf("linear model has %d coefficients for %d features", len(a.Coefficients), len(a.Features))
		}
		return &Linear{
			Intercept:    a.Intercept,
			Coefficients: a.Coefficients,
		}, nil

	case TypeGradientBoosting:
		if len(a.Trees) == 0 {
			return nil, errors.New("gradient boosting model has no trees")
		}
		for i := range a.Trees {
			if err := a.Trees[i].validate(len(a.Features)); err != nil {
				return nil, fmt.Errorf("tree %d: %w", i, err)
			}
		}
		return &Ensemble{
			Init:         a.Init,
			LearningRate: a.LearningRate,
			Trees:        a.Trees,
			numFeatures:  len(a.Features),
		}, nil

	default:
		return nil, fmt.Errorf("unsupported model type %q", a.Type)
	}
}

// Linear is an ordinary least squares style model: intercept + Σ coef·x
type Linear struct {
	Intercept    float64
	Coefficients []float64
}

// Predict evaluates the linear model
func (m *Linear) Predict(features []float64) (float64, error) {
	if len(features) != len(m.Coefficients) {
		return 0, fmt.Errorf("expected %d features, got %d", len(m.Coefficients), len(features))
	}

	y := m.Intercept
	for i, x := range features {
		y += m.Coefficients[i] * x
	}
	return y, nil
}

// NumFeatures returns the expected vector length
func (m *Linear) NumFeatures() int {
	return len(m.Coefficients)
}
