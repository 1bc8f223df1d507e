package models

import "time"

// HealthStatus constants
const (
	StatusOK       = "ok"
	StatusDegraded = "degraded"
)

// Stop enumeration strategies
const (
	StopStrategyDataset     = "dataset"
	StopStrategySynthesized = "synthesized"
)

// Health represents the state of the prediction service's startup resources
type Health struct {
	Status        string    `json:"status"` // "ok" or "degraded"
	ModelLoaded   bool      `json:"modelLoaded"`
	DatasetLoaded bool      `json:"datasetLoaded"`
	LineCount     int       `json:"lineCount"`
	StopStrategy  string    `json:"stopStrategy"` // "dataset" or "synthesized"
	Timestamp     time.Time `json:"timestamp"`
}

// CalculateHealthStatus returns "ok" only when every startup resource loaded
func CalculateHealthStatus(modelLoaded, datasetLoaded bool, strategy string) string {
	if !modelLoaded {
		return StatusDegraded
	}
	if strategy == StopStrategyDataset && !datasetLoaded {
		return StatusDegraded
	}
	return StatusOK
}
