package gtfs

import (
	"archive/zip"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"
)

var requiredFiles = []string{"routes.txt", "stops.txt", "trips.txt", "stop_times.txt"}

// Parse reads a GTFS zip file from disk
func Parse(zipPath string) (*Data, error) {
	r, err := zip.OpenReader(zipPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open zip: %w", err)
	}
	defer r.Close()

	return parseZip(&r.Reader)
}

// ParseReader reads a GTFS zip from an in-memory or seekable source
func ParseReader(ra io.ReaderAt, size int64) (*Data, error) {
	r, err := zip.NewReader(ra, size)
	if err != nil {
		return nil, fmt.Errorf("failed to open zip: %w", err)
	}
	return parseZip(r)
}

func parseZip(r *zip.Reader) (*Data, error) {
	// Some feeds nest the txt files in a folder
	files := make(map[string]*zip.File)
	for _, f := range r.File {
		name := f.Name
		if i := strings.LastIndex(name, "/"); i >= 0 {
			name = name[i+1:]
		}
		files[name] = f
	}

	for _, name := range requiredFiles {
		if _, ok := files[name]; !ok {
			return nil, fmt.Errorf("missing required file %s", name)
		}
	}

	data := &Data{}

	err := readCSV(files["routes.txt"], func(row csvRow) {
		routeType, _ := strconv.Atoi(row.get("route_type"))
		data.Routes = append(data.Routes, Route{
			RouteID:        row.get("route_id"),
			AgencyID:       row.get("agency_id"),
			RouteShortName: row.get("route_short_name"),
			RouteLongName:  row.get("route_long_name"),
			RouteType:      routeType,
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse routes.txt: %w", err)
	}

	err = readCSV(files["stops.txt"], func(row csvRow) {
		s := Stop{
			StopID:   row.get("stop_id"),
			StopName: row.get("stop_name"),
		}
		lat, latErr := strconv.ParseFloat(row.get("stop_lat"), 64)
		lon, lonErr := strconv.ParseFloat(row.get("stop_lon"), 64)
		if latErr == nil && lonErr == nil {
			s.StopLat, s.StopLon, s.HasPosition = lat, lon, true
		}
		data.Stops = append(data.Stops, s)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse stops.txt: %w", err)
	}

	err = readCSV(files["trips.txt"], func(row csvRow) {
		directionID, _ := strconv.Atoi(row.get("direction_id"))
		data.Trips = append(data.Trips, Trip{
			RouteID:     row.get("route_id"),
			ServiceID:   row.get("service_id"),
			TripID:      row.get("trip_id"),
			DirectionID: directionID,
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse trips.txt: %w", err)
	}

	err = readCSV(files["stop_times.txt"], func(row csvRow) {
		seq, err := strconv.Atoi(row.get("stop_sequence"))
		if err != nil {
			return
		}
		data.StopTimes = append(data.StopTimes, StopTime{
			TripID:       row.get("trip_id"),
			StopID:       row.get("stop_id"),
			StopSequence: seq,
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse stop_times.txt: %w", err)
	}

	log.Printf("GTFS parsed: %d routes, %d stops, %d trips, %d stop times",
		len(data.Routes), len(data.Stops), len(data.Trips), len(data.StopTimes))

	return data, nil
}

type csvRow struct {
	record []string
	idx    map[string]int
}

func (r csvRow) get(field string) string {
	if i, ok := r.idx[field]; ok && i < len(r.record) {
		return strings.TrimSpace(r.record[i])
	}
	return ""
}

// readCSV calls fn for every well-formed record of f. Malformed rows are skipped.
func readCSV(f *zip.File, fn func(csvRow)) error {
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	reader := csv.NewReader(rc)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return err
	}

	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))] = i
	}

	for {
		record, err := reader.Read()
		if err == io.EOF {
			return nil
		}
		var parseErr *csv.ParseError
		if errors.As(err, &parseErr) {
			continue
		}
		if err != nil {
			return err
		}
		fn(csvRow{record: record, idx: idx})
	}
}
