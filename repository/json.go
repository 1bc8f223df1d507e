package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/berajelin/routia/models"
)

const (
	unknownName   = "Unknown"
	unknownStopID = "N/A"
)

// ctanLine mirrors one entry of the CTAN lines export, keyed by line code
type ctanLine struct {
	Nombre  *string    `json:"nombre"`
	Paradas []ctanStop `json:"paradas"`
}

type ctanStop struct {
	IDParada flexString `json:"idParada"`
	Nombre   *string    `json:"nombre"`
	Latitud  flexFloat  `json:"latitud"`
	Longitud flexFloat  `json:"longitud"`
}

// flexString accepts a JSON string or number. The CTAN export is not
// consistent about stop id types.
type flexString struct {
	value string
	valid bool
}

func (f *flexString) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" {
		return nil
	}
	if strings.HasPrefix(s, `"`) {
		if err := json.Unmarshal(data, &f.value); err != nil {
			return err
		}
	} else {
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return err
		}
		f.value = n.String()
	}
	f.valid = true
	return nil
}

// flexFloat accepts a JSON number or a numeric string
type flexFloat struct {
	value *float64
}

func (f *flexFloat) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" || s == `""` {
		return nil
	}
	s = strings.Trim(s, `"`)
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("invalid coordinate %s: %w", s, err)
	}
	f.value = &v
	return nil
}

// JSONLineRepository loads the reference dataset from a CTAN-style JSON export
type JSONLineRepository struct {
	path string
}

// NewJSONLineRepository creates a loader for the export at path
func NewJSONLineRepository(path string) *JSONLineRepository {
	return &JSONLineRepository{path: path}
}

// LoadLines implements LineLoader
func (r *JSONLineRepository) LoadLines(ctx context.Context) ([]models.Line, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read dataset: %w", err)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	lines, err := ParseCTANLines(data)
	if err != nil {
		return nil, err
	}

	log.Printf("Loaded %d lines from %s", len(lines), r.path)
	return lines, nil
}

// ParseCTANLines decodes a CTAN lines export. Lines and stops keep export
// order; a code repeated in the export keeps its first position and its last
// value. Missing names become "Unknown" and missing coordinates the default
// position. A line that cannot be decoded or fails validation is logged and
// skipped.
func ParseCTANLines(data []byte) ([]models.Line, error) {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("failed to parse dataset: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, errors.New("failed to parse dataset: expected an object keyed by line code")
	}

	lines := make([]models.Line, 0)
	index := make(map[string]int)

	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("failed to parse dataset: %w", err)
		}
		code := tok.(string)

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("failed to parse line %q: %w", code, err)
		}

		line, err := parseCTANLine(code, raw)
		if err != nil {
			log.Printf("Warning: skipping line %q: %v", code, err)
			continue
		}

		if i, seen := index[code]; seen {
			lines[i] = line
			continue
		}
		index[code] = len(lines)
		lines = append(lines, line)
	}

	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("failed to parse dataset: %w", err)
	}

	return lines, nil
}

func parseCTANLine(code string, raw json.RawMessage) (models.Line, error) {
	var entry ctanLine
	if err := json.Unmarshal(raw, &entry); err != nil {
		return models.Line{}, err
	}

	line := models.Line{
		Code:  code,
		Name:  stringOr(entry.Nombre, unknownName),
		Stops: make([]models.Stop, 0, len(entry.Paradas)),
	}

	for _, p := range entry.Paradas {
		id := unknownStopID
		if p.IDParada.valid {
			id = p.IDParada.value
		}
		lat, lon := models.CoordinatesOrDefault(p.Latitud.value, p.Longitud.value)
		line.Stops = append(line.Stops, models.Stop{
			ID:        id,
			Name:      stringOr(p.Nombre, unknownName),
			Latitude:  lat,
			Longitude: lon,
		})
	}

	if err := line.Validate(); err != nil {
		return models.Line{}, err
	}
	return line, nil
}

func stringOr(s *string, fallback string) string {
	if s == nil || *s == "" {
		return fallback
	}
	return *s
}
