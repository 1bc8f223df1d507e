package models

import (
	"encoding/json"
	"reflect"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestClassifyDemand(t *testing.T) {
	tests := []struct {
		demand   int
		expected DemandLevel
	}{
		{0, DemandLow},
		{30, DemandLow},
		{49, DemandLow},
		{50, DemandMedium},
		{75, DemandMedium},
		{99, DemandMedium},
		{100, DemandHigh},
		{1000, DemandHigh},
	}

	for _, tc := range tests {
		if got := ClassifyDemand(tc.demand); got != tc.expected {
			t.Errorf("ClassifyDemand(%d) = %s, expected %s", tc.demand, got, tc.expected)
		}
	}
}

func TestFeatureVectorValuesOrder(t *testing.T) {
	fv := FeatureVector{
		Hour:               8,
		Weekday:            6,
		Month:              6,
		IsHoliday:          1,
		TemperatureCelsius: 24.5,
		IsRaining:          0,
		NearEvent:          1,
		EventTypeCode:      3,
	}

	got := fv.Values()
	expected := []float64{8, 6, 6, 1, 24.5, 0, 1, 3}
	if !reflect.DeepEqual(got, expected) {
		t.Errorf("Values() = %v, expected %v", got, expected)
	}
	if len(got) != len(FeatureNames) {
		t.Errorf("Values() has %d entries but FeatureNames has %d", len(got), len(FeatureNames))
	}
}

func samplePrediction() PredictionResult {
	return PredictionResult{
		PredictionID: uuid.MustParse("6f1c1f5e-4d8a-4b0e-9a55-1f2b3c4d5e6f"),
		Line:         "M-101A",
		LineName:     "Sevilla - Dos Hermanas",
		Date:         "2025-06-15",
		TimeStart:    "08:00",
		TimeEnd:      "09:00",
		Stops: []StopPrediction{
			{
				StopID:           "101",
				Name:             "Prado de San Sebastián",
				Latitude:         37.3801,
				Longitude:        -5.9869,
				Historical:       HistoricalRidership{SameDayLastYear: 110, LastWeek: 98, Yesterday: 120},
				PredictedDemand:  120,
				VariationPercent: 9.1,
				Level:            DemandHigh,
			},
			{
				StopID:           "102",
				Name:             "Bellavista",
				Latitude:         37.3302,
				Longitude:        -5.9712,
				Historical:       HistoricalRidership{SameDayLastYear: 40, LastWeek: 35, Yesterday: 44},
				PredictedDemand:  42,
				VariationPercent: 5,
				Level:            DemandLow,
			},
		},
		TotalRiders:          162,
		ModelAccuracyPercent: ModelAccuracyPercent,
		DataSource:           "CTAN + RoutIA ML model",
		GeneratedAt:          time.Date(2025, 6, 14, 10, 30, 0, 0, time.UTC),
	}
}

func TestPredictionResultJSONRoundTrip(t *testing.T) {
	original := samplePrediction()

	data, err := json.Marshal(original)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	var decoded PredictionResult
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}

	if !reflect.DeepEqual(original, decoded) {
		t.Errorf("round trip mismatch:\noriginal: %+v\ndecoded:  %+v", original, decoded)
	}
}

func TestPredictionResultValidate(t *testing.T) {
	valid := samplePrediction()
	if err := valid.Validate(); err != nil {
		t.Fatalf("expected valid prediction, got %v", err)
	}

	t.Run("total mismatch", func(t *testing.T) {
		p := samplePrediction()
		p.TotalRiders = 10
		if err := p.Validate(); err == nil {
			t.Error("expected error for total mismatch")
		}
	})

	t.Run("negative demand", func(t *testing.T) {
		p := samplePrediction()
		p.Stops[1].PredictedDemand = -1
		p.TotalRiders = 119
		if err := p.Validate(); err == nil {
			t.Error("expected error for negative demand")
		}
	})

	t.Run("level mismatch", func(t *testing.T) {
		p := samplePrediction()
		p.Stops[0].Level = DemandMedium
		if err := p.Validate(); err == nil {
			t.Error("expected error for level mismatch")
		}
	})

	t.Run("missing line", func(t *testing.T) {
		p := samplePrediction()
		p.Line = ""
		if err := p.Validate(); err == nil {
			t.Error("expected error for missing line")
		}
	})
}

func TestCountByLevel(t *testing.T) {
	p := samplePrediction()
	if got := p.CountByLevel(DemandHigh); got != 1 {
		t.Errorf("CountByLevel(High) = %d, expected 1", got)
	}
	if got := p.CountByLevel(DemandMedium); got != 0 {
		t.Errorf("CountByLevel(Medium) = %d, expected 0", got)
	}
}

func TestCoordinatesOrDefault(t *testing.T) {
	lat := 37.41
	lon := -6.01

	gotLat, gotLon := CoordinatesOrDefault(&lat, &lon)
	if gotLat != lat || gotLon != lon {
		t.Errorf("expected (%f, %f), got (%f, %f)", lat, lon, gotLat, gotLon)
	}

	gotLat, gotLon = CoordinatesOrDefault(nil, &lon)
	if gotLat != DefaultLatitude || gotLon != lon {
		t.Errorf("expected default latitude, got (%f, %f)", gotLat, gotLon)
	}

	gotLat, gotLon = CoordinatesOrDefault(nil, nil)
	if gotLat != DefaultLatitude || gotLon != DefaultLongitude {
		t.Errorf("expected defaults, got (%f, %f)", gotLat, gotLon)
	}
}

func TestCalculateHealthStatus(t *testing.T) {
	tests := []struct {
		name          string
		modelLoaded   bool
		datasetLoaded bool
		strategy      string
		expected      string
	}{
		{"all loaded", true, true, StopStrategyDataset, StatusOK},
		{"no model", false, true, StopStrategyDataset, StatusDegraded},
		{"no dataset", true, false, StopStrategyDataset, StatusDegraded},
		{"synthesized without dataset", true, false, StopStrategySynthesized, StatusOK},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := CalculateHealthStatus(tc.modelLoaded, tc.datasetLoaded, tc.strategy); got != tc.expected {
				t.Errorf("CalculateHealthStatus() = %s, expected %s", got, tc.expected)
			}
		})
	}
}
