package prediction

import (
	"context"
	"time"

	"github.com/berajelin/routia/models"
)

// Placeholder distributions used while no weather or event feed is wired in
const (
	baseTemperatureCelsius = 22.0
	temperatureStdDev      = 5.0
	rainProbability        = 0.2
	eventProbability       = 0.15
	eventTypeCount         = 4
)

// Event is an observed nearby event for a line
type Event struct {
	NearEvent bool
	TypeCode  int // 0-3
}

// EventSource reports real nearby events for a line.
// ok is false when the source has no observation, in which case the
// placeholder draw is used.
type EventSource interface {
	EventFor(ctx context.Context, line string) (ev Event, ok bool)
}

// FeatureBuilder derives model feature vectors from a date and hour
type FeatureBuilder struct {
	events EventSource
}

// NewFeatureBuilder creates a builder. events may be nil.
func NewFeatureBuilder(events EventSource) *FeatureBuilder {
	return &FeatureBuilder{events: events}
}

// Observation is the event source's answer for one line, looked up once
// per request and shared by every stop
type Observation struct {
	Event    Event
	Observed bool
}

// Observe queries the event source for line. Without a source nothing is
// observed.
func (b *FeatureBuilder) Observe(ctx context.Context, line string) Observation {
	if b.events == nil {
		return Observation{}
	}
	ev, ok := b.events.EventFor(ctx, line)
	return Observation{Event: ev, Observed: ok}
}

// Build returns the feature vector for (date, hour), querying the event
// source for line.
func (b *FeatureBuilder) Build(ctx context.Context, line string, date time.Time, hour int, rng Rand) models.FeatureVector {
	return b.BuildObserved(date, hour, b.Observe(ctx, line), rng)
}

// BuildObserved returns the feature vector for (date, hour) using an
// observation already taken.
// isHoliday only flags weekends; there is no holiday calendar.
func (b *FeatureBuilder) BuildObserved(date time.Time, hour int, obs Observation, rng Rand) models.FeatureVector {
	weekday := MondayIndex(date.Weekday())

	isHoliday := 0
	if weekday >= 5 {
		isHoliday = 1
	}

	fv := models.FeatureVector{
		Hour:               hour,
		Weekday:            weekday,
		Month:              int(date.Month()),
		IsHoliday:          isHoliday,
		TemperatureCelsius: baseTemperatureCelsius + rng.NormFloat64()*temperatureStdDev,
		IsRaining:          bernoulli(rng, rainProbability),
		NearEvent:          bernoulli(rng, eventProbability),
		EventTypeCode:      rng.IntN(eventTypeCount),
	}

	// Draws above are always consumed so a seeded stream stays aligned
	// whether or not the event source answers.
	if obs.Observed {
		fv.NearEvent = 0
		fv.EventTypeCode = 0
		if obs.Event.NearEvent {
			fv.NearEvent = 1
			fv.EventTypeCode = obs.Event.TypeCode
		}
	}

	return fv
}

// MondayIndex converts a time.Weekday (Sunday = 0) to a Monday = 0 index
func MondayIndex(d time.Weekday) int {
	return (int(d) + 6) % 7
}
