package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/berajelin/routia/client"
	"github.com/berajelin/routia/internal/bootstrap"
	"github.com/berajelin/routia/internal/config"
	"github.com/berajelin/routia/models"
)

func main() {
	line := flag.String("line", "", "Line code (required)")
	date := flag.String("date", time.Now().Format("2006-01-02"), "Date as YYYY-MM-DD")
	start := flag.String("start", "08:00", "Window start as HH:MM")
	end := flag.String("end", "09:00", "Window end as HH:MM")
	apiURL := flag.String("api", "", "If set, query this API instead of loading the model locally")
	format := flag.String("format", "table", "Output format: table, json or csv")
	limit := flag.Int("limit", defaultLimit, "Maximum stops shown in table output (0 = all)")
	flag.Parse()

	log.SetFlags(0)

	if *line == "" {
		flag.Usage()
		os.Exit(2)
	}
	if !validFormat(*format) {
		log.Fatalf("Unknown format %q: expected table, json or csv", *format)
	}

	ctx := context.Background()

	var (
		result *models.PredictionResult
		err    error
	)
	if *apiURL != "" {
		result, err = predictRemote(ctx, *apiURL, *line, *date, *start, *end)
	} else {
		result, err = predictLocal(ctx, *line, *date, *start, *end)
	}
	if err != nil {
		if errors.Is(err, client.ErrUnreachable) {
			log.Printf("Warning: could not reach the prediction API at %s. Is it running?", *apiURL)
			log.Printf("  %v", err)
			os.Exit(1)
		}
		log.Fatalf("Error: %v", err)
	}

	if err := render(os.Stdout, result, *format, *limit); err != nil {
		log.Fatalf("Failed to write output: %v", err)
	}
}

func predictRemote(ctx context.Context, apiURL, line, date, start, end string) (*models.PredictionResult, error) {
	c := client.New(apiURL)
	return c.Predict(ctx, line, date, start, end)
}

// predictLocal loads the model and dataset in-process, the same way the API does
func predictLocal(ctx context.Context, line, date, start, end string) (*models.PredictionResult, error) {
	config.LoadEnvFiles(".")
	cfg := config.Load()

	app, err := bootstrap.New(ctx, cfg)
	if err != nil {
		return nil, err
	}
	defer app.Close()

	result, err := app.Service.Predict(ctx, line, date, start, end)
	if err != nil {
		return nil, fmt.Errorf("prediction failed: %w", err)
	}
	return result, nil
}
