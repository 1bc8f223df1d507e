package prediction

import (
	"fmt"

	"github.com/berajelin/routia/models"
)

const (
	synthesizedStopCount = 4
	synthesizedStep      = 0.01
)

// LineStops is the enumerated stop sequence of a line
type LineStops struct {
	Code        string
	Name        string
	Stops       []models.Stop
	Synthesized bool
}

// LineLookup resolves a line code against the reference dataset
type LineLookup interface {
	Get(code string) (models.Line, bool)
}

// StopEnumerator yields the ordered stops of a line. It never fails:
// unknown lines get a synthesized placeholder sequence.
type StopEnumerator interface {
	StopsFor(line string) LineStops
	Strategy() string
}

// DatasetEnumerator serves stops from the reference dataset
type DatasetEnumerator struct {
	lines LineLookup
}

// NewDatasetEnumerator creates an enumerator backed by lines
func NewDatasetEnumerator(lines LineLookup) *DatasetEnumerator {
	return &DatasetEnumerator{lines: lines}
}

// StopsFor returns the dataset stops verbatim, or synthesized stops for unknown lines
func (e *DatasetEnumerator) StopsFor(line string) LineStops {
	if e.lines != nil {
		if l, ok := e.lines.Get(line); ok {
			stops := make([]models.Stop, len(l.Stops))
			copy(stops, l.Stops)
			return LineStops{
				Code:  l.Code,
				Name:  l.Name,
				Stops: stops,
			}
		}
	}
	return Synthesize(line)
}

// Strategy returns models.StopStrategyDataset
func (e *DatasetEnumerator) Strategy() string {
	return models.StopStrategyDataset
}

// SynthesizedEnumerator ignores any dataset and always synthesizes stops
type SynthesizedEnumerator struct{}

// StopsFor returns the placeholder sequence for line
func (SynthesizedEnumerator) StopsFor(line string) LineStops {
	return Synthesize(line)
}

// Strategy returns models.StopStrategySynthesized
func (SynthesizedEnumerator) Strategy() string {
	return models.StopStrategySynthesized
}

// Synthesize builds the fixed 4-stop placeholder line, each stop branded with
// the line code and placed on a diagonal grid starting at the default position
func Synthesize(line string) LineStops {
	stops := make([]models.Stop, synthesizedStopCount)
	for i := range stops {
		stops[i] = models.Stop{
			ID:        fmt.Sprintf("%d", i+1),
			Name:      fmt.Sprintf("Stop %d - %s", i+1, line),
			Latitude:  models.DefaultLatitude + float64(i)*synthesizedStep,
			Longitude: models.DefaultLongitude - float64(i)*synthesizedStep,
		}
	}

	return LineStops{
		Code:        line,
		Name:        fmt.Sprintf("Line %s (Simulated)", line),
		Stops:       stops,
		Synthesized: true,
	}
}
