package models

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ModelAccuracyPercent is the offline evaluation score of the trained model.
// It is reported as-is with every prediction, never recomputed.
const ModelAccuracyPercent = 88.48

// Demand level thresholds (inclusive lower bounds of Medium and High)
const (
	MediumDemandThreshold = 50
	HighDemandThreshold   = 100
)

// DemandLevel is the coarse three-bucket classification of predicted ridership
type DemandLevel string

const (
	DemandLow    DemandLevel = "Low"
	DemandMedium DemandLevel = "Medium"
	DemandHigh   DemandLevel = "High"
)

// ClassifyDemand returns the demand level for a ridership estimate
func ClassifyDemand(demand int) DemandLevel {
	if demand < MediumDemandThreshold {
		return DemandLow
	}
	if demand < HighDemandThreshold {
		return DemandMedium
	}
	return DemandHigh
}

// FeatureVector is the fixed-order input of the regression model
type FeatureVector struct {
	Hour               int     `json:"hour"`               // 0-23
	Weekday            int     `json:"weekday"`            // 0 = Monday ... 6 = Sunday
	Month              int     `json:"month"`              // 1-12
	IsHoliday          int     `json:"isHoliday"`          // 0/1, weekend proxy
	TemperatureCelsius float64 `json:"temperatureCelsius"` // placeholder unless a weather feed is wired
	IsRaining          int     `json:"isRaining"`          // 0/1
	NearEvent          int     `json:"nearEvent"`          // 0/1
	EventTypeCode      int     `json:"eventTypeCode"`      // 0-3
}

// FeatureNames lists the model features in the order Values emits them
var FeatureNames = []string{
	"hour",
	"weekday",
	"month",
	"is_holiday",
	"temperature",
	"rain",
	"near_event",
	"event_type_code",
}

// Values returns the vector in model feature order
func (f FeatureVector) Values() []float64 {
	return []float64{
		float64(f.Hour),
		float64(f.Weekday),
		float64(f.Month),
		float64(f.IsHoliday),
		f.TemperatureCelsius,
		float64(f.IsRaining),
		float64(f.NearEvent),
		float64(f.EventTypeCode),
	}
}

// HistoricalRidership holds the comparison values shown next to a prediction.
// They are synthesized from the prediction itself until a real historical
// pipeline exists.
type HistoricalRidership struct {
	SameDayLastYear int `json:"sameDayLastYear"`
	LastWeek        int `json:"lastWeek"`
	Yesterday       int `json:"yesterday"`
}

// StopPrediction is the per-stop part of a prediction response
type StopPrediction struct {
	StopID           string              `json:"stopId"`
	Name             string              `json:"name"`
	Latitude         float64             `json:"latitude"`
	Longitude        float64             `json:"longitude"`
	Historical       HistoricalRidership `json:"historical"`
	PredictedDemand  int                 `json:"predictedDemand"`
	VariationPercent float64             `json:"variationPercent"` // vs same day last year, 1 decimal
	Level            DemandLevel         `json:"level"`
}

// PredictionResult is the response returned by GET /demand/...
type PredictionResult struct {
	PredictionID         uuid.UUID        `json:"predictionId"`
	Line                 string           `json:"line"`
	LineName             string           `json:"lineName"`
	Date                 string           `json:"date"`      // YYYY-MM-DD
	TimeStart            string           `json:"timeStart"` // HH:MM
	TimeEnd              string           `json:"timeEnd"`   // HH:MM
	Stops                []StopPrediction `json:"stops"`
	TotalRiders          int              `json:"totalRiders"`
	ModelAccuracyPercent float64          `json:"modelAccuracyPercent"`
	DataSource           string           `json:"dataSource"`
	GeneratedAt          time.Time        `json:"generatedAt"`
}

// Validate checks the response invariants before it is serialized
func (p *PredictionResult) Validate() error {
	if p.Line == "" {
		return errors.New("line is required")
	}

	total := 0
	for _, s := range p.Stops {
		if s.PredictedDemand < 0 {
			return fmt.Errorf("stop %s: negative predicted demand %d", s.StopID, s.PredictedDemand)
		}
		if want := ClassifyDemand(s.PredictedDemand); s.Level != want {
			return fmt.Errorf("stop %s: level %s does not match demand %d (want %s)", s.StopID, s.Level, s.PredictedDemand, want)
		}
		total += s.PredictedDemand
	}

	if total != p.TotalRiders {
		return fmt.Errorf("total riders %d does not match sum of stop demand %d", p.TotalRiders, total)
	}

	return nil
}

// CountByLevel returns how many stops fall into the given demand level
func (p *PredictionResult) CountByLevel(level DemandLevel) int {
	n := 0
	for _, s := range p.Stops {
		if s.Level == level {
			n++
		}
	}
	return n
}
