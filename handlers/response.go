package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/berajelin/routia/internal/prediction"
)

// ErrorResponse is the JSON body of every error response
type ErrorResponse struct {
	Detail string `json:"detail"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, ErrorResponse{Detail: detail})
}

// statusForError maps service errors to HTTP status codes: malformed input
// is a client error, everything else (including missing resources) is 500
func statusForError(err error) int {
	var vErr *prediction.ValidationError
	if errors.As(err, &vErr) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
