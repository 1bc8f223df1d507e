package handlers

import (
	"net/http"
)

// Version is reported by the index endpoint
const Version = "2.0.0"

const (
	sourceDataset     = "Consorcio de Transportes de Andalucía (CTAN)"
	sourceSynthesized = "Simulated stops (no reference dataset loaded)"
)

// IndexResponse is the JSON response structure for GET /
type IndexResponse struct {
	Message    string   `json:"message"`
	Version    string   `json:"version"`
	Endpoints  []string `json:"endpoints"`
	DataSource string   `json:"dataSource"`
}

// HealthHandler serves the index and health endpoints
type HealthHandler struct {
	svc PredictionService
}

// NewHealthHandler creates a new HealthHandler
func NewHealthHandler(svc PredictionService) *HealthHandler {
	return &HealthHandler{svc: svc}
}

// GetIndex handles GET /
func (h *HealthHandler) GetIndex(w http.ResponseWriter, r *http.Request) {
	source := sourceSynthesized
	if h.svc.Health().DatasetLoaded {
		source = sourceDataset
	}

	writeJSON(w, http.StatusOK, IndexResponse{
		Message: "RoutIA API - transit demand prediction",
		Version: Version,
		Endpoints: []string{
			"/demand/{line}/{date}/{timeStart}/{timeEnd}",
			"/lines",
			"/health",
		},
		DataSource: source,
	})
}

// GetHealth handles GET /health
// Always 200 while the process serves; status reports degraded mode
func (h *HealthHandler) GetHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "no-cache")
	writeJSON(w, http.StatusOK, h.svc.Health())
}
