package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// RouterOptions configures NewRouter
type RouterOptions struct {
	AllowedOrigins []string
	// AccessLog enables chi's request logger
	AccessLog bool
}

// NewRouter mounts every API route on a chi router
func NewRouter(svc PredictionService, opts RouterOptions) http.Handler {
	demandHandler := NewDemandHandler(svc)
	healthHandler := NewHealthHandler(svc)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	if opts.AccessLog {
		r.Use(middleware.Logger)
	}
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: opts.AllowedOrigins,
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"*"},
		MaxAge:         300,
	}))

	r.Get("/", healthHandler.GetIndex)
	r.Get("/health", healthHandler.GetHealth)
	r.Get("/lines", demandHandler.GetLines)
	r.Get("/demand/{line}/{date}/{timeStart}/{timeEnd}", demandHandler.GetDemand)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	return r
}
