package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/berajelin/routia/handlers"
	"github.com/berajelin/routia/internal/prediction"
	"github.com/berajelin/routia/models"
)

type fixedEstimator struct{ base int }

func (e fixedEstimator) Estimate(models.FeatureVector, prediction.Rand) (int, error) {
	return e.base, nil
}

func (e fixedEstimator) ModelBacked() bool { return true }

func newTestAPI(t *testing.T) *httptest.Server {
	t.Helper()

	svc := prediction.NewService(prediction.ServiceConfig{
		Aggregator: prediction.NewAggregator(nil, fixedEstimator{base: 100}, prediction.NoJitter),
		NewRand:    prediction.NewRandFactory(1),
	})
	srv := httptest.NewServer(handlers.NewRouter(svc, handlers.RouterOptions{}))
	t.Cleanup(srv.Close)
	return srv
}

func TestPredict(t *testing.T) {
	c := New(newTestAPI(t).URL + "/")

	result, err := c.Predict(context.Background(), "L41", "2025-06-15", "08_00", "09:00")
	if err != nil {
		t.Fatalf("Predict failed: %v", err)
	}
	if result.TotalRiders != 400 || len(result.Stops) != 4 {
		t.Errorf("unexpected result: total=%d stops=%d", result.TotalRiders, len(result.Stops))
	}
	if result.TimeStart != "08:00" {
		t.Errorf("TimeStart = %s", result.TimeStart)
	}
}

func TestPredict_EscapesLine(t *testing.T) {
	c := New(newTestAPI(t).URL)

	result, err := c.Predict(context.Background(), "L 41/B", "2025-06-15", "08:00", "09:00")
	if err != nil {
		t.Fatalf("Predict failed: %v", err)
	}
	if result.Line != "L 41/B" {
		t.Errorf("Line = %q", result.Line)
	}
}

func TestPredict_ValidationError(t *testing.T) {
	c := New(newTestAPI(t).URL)

	_, err := c.Predict(context.Background(), "L41", "15-06-2025", "08:00", "09:00")

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.StatusCode != http.StatusBadRequest {
		t.Errorf("StatusCode = %d", apiErr.StatusCode)
	}
	if apiErr.Detail == "" {
		t.Error("expected detail from error body")
	}
	if errors.Is(err, ErrUnreachable) {
		t.Error("server errors must not be reported as unreachable")
	}
}

func TestServerErrorWithoutJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream exploded", http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := New(srv.URL).Health(context.Background())

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.StatusCode != http.StatusBadGateway || apiErr.Detail != "upstream exploded" {
		t.Errorf("unexpected error %+v", apiErr)
	}
}

func TestUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := New(url, WithTimeout(time.Second))
	_, err := c.Lines(context.Background())
	if !errors.Is(err, ErrUnreachable) {
		t.Errorf("expected ErrUnreachable, got %v", err)
	}
}

func TestLinesAndHealth(t *testing.T) {
	c := New(newTestAPI(t).URL, WithHTTPClient(http.DefaultClient))

	lines, err := c.Lines(context.Background())
	if err != nil {
		t.Fatalf("Lines failed: %v", err)
	}
	if lines.Total != 0 || lines.Lines == nil {
		t.Errorf("unexpected lines %+v", lines)
	}

	h, err := c.Health(context.Background())
	if err != nil {
		t.Fatalf("Health failed: %v", err)
	}
	if !h.ModelLoaded || h.StopStrategy != models.StopStrategySynthesized {
		t.Errorf("unexpected health %+v", h)
	}
}
