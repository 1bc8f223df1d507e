package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/berajelin/routia/handlers"
	"github.com/berajelin/routia/internal/bootstrap"
	"github.com/berajelin/routia/internal/config"
)

func main() {
	// Load .env first, then .env.local (which overrides for local development)
	config.LoadEnvFiles(".")

	cfg := config.Load()

	app, err := bootstrap.New(context.Background(), cfg)
	if err != nil {
		log.Fatalf("Failed to start prediction service: %v", err)
	}
	defer app.Close()

	r := handlers.NewRouter(app.Service, handlers.RouterOptions{
		AllowedOrigins: cfg.AllowedOrigins,
		AccessLog:      true,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("API server starting on :%s", cfg.Port)
		log.Println("Endpoints:")
		log.Println("  GET /")
		log.Println("  GET /demand/{line}/{date}/{timeStart}/{timeEnd} (?format=csv)")
		log.Println("  GET /lines")
		log.Println("  GET /health")

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	log.Println("Server stopped")
}
