// Package client is a typed Go client for the RoutIA prediction API.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/berajelin/routia/models"
)

// ErrUnreachable wraps transport failures: the API could not be contacted
var ErrUnreachable = errors.New("prediction API unreachable")

// APIError is a non-200 response from the API
type APIError struct {
	StatusCode int
	Detail     string
}

func (e *APIError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("prediction API returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("prediction API returned status %d: %s", e.StatusCode, e.Detail)
}

// LinesResponse mirrors GET /lines
type LinesResponse struct {
	Lines []models.LineSummary `json:"lines"`
	Total int                  `json:"total"`
}

// Client calls the prediction API
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTimeout sets the per-request timeout of the default HTTP client
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient = &http.Client{Timeout: d}
	}
}

// New creates a client for the API rooted at baseURL
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Predict requests the demand prediction for line on date between start and end.
// Times may use HH:MM or HH_MM.
func (c *Client) Predict(ctx context.Context, line, date, start, end string) (*models.PredictionResult, error) {
	path := "/demand/" + strings.Join([]string{
		url.PathEscape(line),
		url.PathEscape(date),
		url.PathEscape(start),
		url.PathEscape(end),
	}, "/")

	var result models.PredictionResult
	if err := c.get(ctx, path, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Lines lists the lines known to the API
func (c *Client) Lines(ctx context.Context) (*LinesResponse, error) {
	var resp LinesResponse
	if err := c.get(ctx, "/lines", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Health reports the API's startup resources
func (c *Client) Health(ctx context.Context) (*models.Health, error) {
	var h models.Health
	if err := c.get(ctx, "/health", &h); err != nil {
		return nil, err
	}
	return &h, nil
}

func (c *Client) get(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decodeError(resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	apiErr := &APIError{StatusCode: resp.StatusCode}
	var payload struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Detail != "" {
		apiErr.Detail = payload.Detail
	} else {
		apiErr.Detail = strings.TrimSpace(string(body))
	}
	return apiErr
}
