package handlers

import (
	"context"
	"encoding/csv"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"regexp"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/berajelin/routia/models"
)

// PredictionService defines the operations the HTTP layer needs
type PredictionService interface {
	Predict(ctx context.Context, line, date, timeStart, timeEnd string) (*models.PredictionResult, error)
	Lines() []models.LineSummary
	Health() models.Health
}

// DemandHandler handles HTTP requests for demand predictions and lines
type DemandHandler struct {
	svc PredictionService
}

// NewDemandHandler creates a new handler with the given service
func NewDemandHandler(svc PredictionService) *DemandHandler {
	return &DemandHandler{svc: svc}
}

// LinesResponse is the JSON response structure for GET /lines
type LinesResponse struct {
	Lines []models.LineSummary `json:"lines"`
	Total int                  `json:"total"`
}

var unsafeFilenameChars = regexp.MustCompile(`[^A-Za-z0-9_-]+`)

// GetDemand handles GET /demand/{line}/{date}/{timeStart}/{timeEnd}
// Returns the per-stop prediction as JSON, or as CSV with ?format=csv
func (h *DemandHandler) GetDemand(w http.ResponseWriter, r *http.Request) {
	line := pathParam(r, "line")
	date := pathParam(r, "date")

	format := r.URL.Query().Get("format")
	if format != "" && format != "json" && format != "csv" {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unsupported format %q: expected json or csv", format))
		return
	}

	result, err := h.svc.Predict(r.Context(), line, date, pathParam(r, "timeStart"), pathParam(r, "timeEnd"))
	if err != nil {
		status := statusForError(err)
		if status == http.StatusInternalServerError {
			log.Printf("Prediction failed for line %s on %s: %v", line, date, err)
		}
		writeError(w, status, err.Error())
		return
	}

	// Predictions are stochastic; never serve them from a cache
	w.Header().Set("Cache-Control", "no-store")

	if format == "csv" {
		writeCSV(w, result)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// GetLines handles GET /lines
func (h *DemandHandler) GetLines(w http.ResponseWriter, r *http.Request) {
	lines := h.svc.Lines()

	w.Header().Set("Cache-Control", "public, max-age=300")
	writeJSON(w, http.StatusOK, LinesResponse{
		Lines: lines,
		Total: len(lines),
	})
}

var csvHeader = []string{
	"stopId", "name", "latitude", "longitude",
	"predictedDemand", "level", "variationPercent",
	"sameDayLastYear", "lastWeek", "yesterday",
}

func writeCSV(w http.ResponseWriter, result *models.PredictionResult) {
	filename := fmt.Sprintf("demand_%s_%s.csv", unsafeFilenameChars.ReplaceAllString(result.Line, "_"), result.Date)

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)

	cw := csv.NewWriter(w)
	cw.Write(csvHeader)
	for _, s := range result.Stops {
		cw.Write([]string{
			s.StopID,
			s.Name,
			strconv.FormatFloat(s.Latitude, 'f', -1, 64),
			strconv.FormatFloat(s.Longitude, 'f', -1, 64),
			strconv.Itoa(s.PredictedDemand),
			string(s.Level),
			strconv.FormatFloat(s.VariationPercent, 'f', 1, 64),
			strconv.Itoa(s.Historical.SameDayLastYear),
			strconv.Itoa(s.Historical.LastWeek),
			strconv.Itoa(s.Historical.Yesterday),
		})
	}
	cw.Flush()

	if err := cw.Error(); err != nil {
		log.Printf("Failed to write CSV: %v", err)
	}
}

// pathParam returns the decoded chi URL parameter
func pathParam(r *http.Request, name string) string {
	raw := chi.URLParam(r, name)
	if decoded, err := url.PathUnescape(raw); err == nil {
		return decoded
	}
	return raw
}
