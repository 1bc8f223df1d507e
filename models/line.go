package models

import (
	"errors"
	"fmt"
)

// Default coordinates (Seville city centre) used for stops that the
// reference dataset publishes without a position.
const (
	DefaultLatitude  = 37.38
	DefaultLongitude = -5.98
)

// Stop represents a boarding location on a line from the reference dataset
type Stop struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Line represents a transit line with its ordered stop sequence
// Stop order is dataset order and is never truncated by the core
type Line struct {
	Code  string `json:"code"`
	Name  string `json:"name"`
	Stops []Stop `json:"stops"`
}

// LineSummary is the lightweight listing used by GET /lines
type LineSummary struct {
	Code      string `json:"code"`
	Name      string `json:"name"`
	StopCount int    `json:"stopCount"`
}

// Summary returns the listing view of the line
func (l *Line) Summary() LineSummary {
	return LineSummary{
		Code:      l.Code,
		Name:      l.Name,
		StopCount: len(l.Stops),
	}
}

// Validate checks if the Line has the data the predictor relies on
func (l *Line) Validate() error {
	if l.Code == "" {
		return errors.New("line code is required")
	}

	for i, s := range l.Stops {
		if s.Latitude < -90 || s.Latitude > 90 {
			return fmt.Errorf("stop %d (%s): latitude out of range: must be between -90 and 90", i, s.ID)
		}
		if s.Longitude < -180 || s.Longitude > 180 {
			return fmt.Errorf("stop %d (%s): longitude out of range: must be between -180 and 180", i, s.ID)
		}
	}

	return nil
}

// CoordinatesOrDefault resolves optional dataset coordinates, substituting
// the default position for whichever side is missing
func CoordinatesOrDefault(lat, lon *float64) (float64, float64) {
	resolvedLat := DefaultLatitude
	resolvedLon := DefaultLongitude
	if lat != nil {
		resolvedLat = *lat
	}
	if lon != nil {
		resolvedLon = *lon
	}
	return resolvedLat, resolvedLon
}
