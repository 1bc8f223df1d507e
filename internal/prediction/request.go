package prediction

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the accepted request date format
const DateLayout = "2006-01-02"

var (
	// ErrModelUnavailable is returned when the service requires a trained model and none is loaded
	ErrModelUnavailable = errors.New("regression model is not loaded")

	// ErrDataUnavailable is returned when the service requires the reference dataset and it failed to load
	ErrDataUnavailable = errors.New("reference dataset is not loaded")
)

// ValidationError describes a malformed request parameter
type ValidationError struct {
	Field  string
	Value  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s %q: %s", e.Field, e.Value, e.Reason)
}

// Clock is an hour:minute time of day
type Clock struct {
	Hour   int
	Minute int
}

// String formats the clock as HH:MM
func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}

// ParseDate parses a YYYY-MM-DD calendar date
func ParseDate(s string) (time.Time, error) {
	d, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, &ValidationError{Field: "date", Value: s, Reason: "expected YYYY-MM-DD"}
	}
	return d, nil
}

// ParseClock parses HH:MM or the URL-friendly HH_MM form
func ParseClock(field, s string) (Clock, error) {
	sep := ":"
	if strings.Contains(s, "_") {
		sep = "_"
	}

	parts := strings.Split(s, sep)
	if len(parts) != 2 {
		return Clock{}, &ValidationError{Field: field, Value: s, Reason: "expected HH:MM or HH_MM"}
	}

	hour, ok := parseClockPart(parts[0])
	if !ok || hour > 23 {
		return Clock{}, &ValidationError{Field: field, Value: s, Reason: "hour must be between 0 and 23"}
	}

	minute, ok := parseClockPart(parts[1])
	if !ok || minute > 59 {
		return Clock{}, &ValidationError{Field: field, Value: s, Reason: "minute must be between 0 and 59"}
	}

	return Clock{Hour: hour, Minute: minute}, nil
}

func parseClockPart(s string) (int, bool) {
	if len(s) == 0 || len(s) > 2 {
		return 0, false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}

// ParseRequest validates raw request parameters.
// timeStart is not required to precede timeEnd.
func ParseRequest(line, date, timeStart, timeEnd string) (Request, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return Request{}, &ValidationError{Field: "line", Value: line, Reason: "line is required"}
	}

	d, err := ParseDate(date)
	if err != nil {
		return Request{}, err
	}

	start, err := ParseClock("timeStart", timeStart)
	if err != nil {
		return Request{}, err
	}

	end, err := ParseClock("timeEnd", timeEnd)
	if err != nil {
		return Request{}, err
	}

	return Request{Line: line, Date: d, Start: start, End: end}, nil
}
