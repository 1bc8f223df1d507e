package gtfs

import (
	"log"
	"sort"

	"github.com/berajelin/routia/models"
)

// BuildLines converts a parsed feed into dataset lines, one per route that
// has at least one trip. The stop order of a line is the stop sequence of
// its route's longest trip; ties go to the first trip in trips.txt order.
func BuildLines(data *Data) []models.Line {
	stopsByID := make(map[string]Stop, len(data.Stops))
	for _, s := range data.Stops {
		stopsByID[s.StopID] = s
	}

	stopTimesByTrip := make(map[string][]StopTime)
	for _, st := range data.StopTimes {
		stopTimesByTrip[st.TripID] = append(stopTimesByTrip[st.TripID], st)
	}

	// Longest trip per route, scanning trips in file order
	longest := make(map[string]string)
	for _, trip := range data.Trips {
		n := len(stopTimesByTrip[trip.TripID])
		if n == 0 {
			continue
		}
		current, ok := longest[trip.RouteID]
		if !ok || n > len(stopTimesByTrip[current]) {
			longest[trip.RouteID] = trip.TripID
		}
	}

	usedCodes := make(map[string]bool)
	var lines []models.Line
	skipped := 0

	for _, route := range data.Routes {
		tripID, ok := longest[route.RouteID]
		if !ok {
			skipped++
			continue
		}

		code := route.RouteShortName
		if code == "" || usedCodes[code] {
			code = route.RouteID
		}
		usedCodes[code] = true

		name := route.RouteLongName
		if name == "" {
			name = route.RouteShortName
		}
		if name == "" {
			name = route.RouteID
		}

		sequence := make([]StopTime, len(stopTimesByTrip[tripID]))
		copy(sequence, stopTimesByTrip[tripID])
		sort.SliceStable(sequence, func(i, j int) bool {
			return sequence[i].StopSequence < sequence[j].StopSequence
		})

		stops := make([]models.Stop, 0, len(sequence))
		for _, st := range sequence {
			stops = append(stops, toModelStop(st.StopID, stopsByID))
		}

		lines = append(lines, models.Line{Code: code, Name: name, Stops: stops})
	}

	if skipped > 0 {
		log.Printf("GTFS: skipped %d routes without trips", skipped)
	}

	return lines
}

func toModelStop(id string, stopsByID map[string]Stop) models.Stop {
	s, ok := stopsByID[id]
	if !ok || !s.HasPosition {
		name := id
		if ok && s.StopName != "" {
			name = s.StopName
		}
		return models.Stop{
			ID:        id,
			Name:      name,
			Latitude:  models.DefaultLatitude,
			Longitude: models.DefaultLongitude,
		}
	}

	name := s.StopName
	if name == "" {
		name = id
	}
	return models.Stop{
		ID:        id,
		Name:      name,
		Latitude:  s.StopLat,
		Longitude: s.StopLon,
	}
}
