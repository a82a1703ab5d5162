// Package backend provides a client for the tracking backend, which owns the
// vehicles, consent state and persistence. The service calls its cron routes
// on a schedule and posts processed routes back to it.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/routewise/routewise/internal/route"
	"github.com/routewise/routewise/internal/upstream"
)

const (
	// ClientName identifies the backend in upstream health reporting.
	ClientName = "tracking-backend"

	// DefaultTimeout bounds each backend call.
	DefaultTimeout = 60 * time.Second
)

// HTTPDoer executes HTTP requests.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// ClientConfig holds configuration for the backend client.
type ClientConfig struct {
	// BaseURL of the tracking backend (required).
	BaseURL string

	// CronSecret authenticates cron-route calls.
	CronSecret string

	// HTTPClient overrides the transport. If nil a resilient client with
	// defaults is used.
	HTTPClient HTTPDoer

	// Registry receives call outcomes for health reporting. Optional.
	Registry *upstream.Registry

	// Logger for client operations.
	Logger zerolog.Logger
}

// Client calls the tracking backend.
type Client struct {
	baseURL    string
	cronSecret string
	httpClient HTTPDoer
	logger     zerolog.Logger
}

// NewClient creates a backend client.
func NewClient(cfg ClientConfig) *Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = upstream.NewClient(upstream.Config{
			Name:     ClientName,
			Timeout:  DefaultTimeout,
			Registry: cfg.Registry,
		})
	}

	return &Client{
		baseURL:    cfg.BaseURL,
		cronSecret: cfg.CronSecret,
		httpClient: httpClient,
		logger:     cfg.Logger,
	}
}

// PollLocations asks the backend to pull fresh SIM pings for all consented
// vehicles.
func (c *Client) PollLocations(ctx context.Context) error {
	return c.postCron(ctx, "/api/cron/location-poll")
}

// PollConsent asks the backend to refresh pending consent requests.
func (c *Client) PollConsent(ctx context.Context) error {
	return c.postCron(ctx, "/api/telenity/consent/poll")
}

// RefreshAuth asks the backend to renew its upstream SIM-tracking token.
func (c *Client) RefreshAuth(ctx context.Context) error {
	return c.postCron(ctx, "/api/telenity/auth/refresh")
}

// processedRoute is the payload shape the backend stores per vehicle.
type processedRoute struct {
	VehicleID string        `json:"vehicle_id"`
	Result    *route.Result `json:"result"`
}

// SubmitRoute posts a processed route for a vehicle.
func (c *Client) SubmitRoute(ctx context.Context, vehicleID string, result *route.Result) error {
	body, err := json.Marshal(processedRoute{VehicleID: vehicleID, Result: result})
	if err != nil {
		return fmt.Errorf("encoding route payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/routes", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.authorize(req)

	return c.do(req)
}

func (c *Client) postCron(ctx context.Context, path string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	c.authorize(req)

	c.logger.Debug().Str("path", path).Msg("calling backend cron route")
	return c.do(req)
}

func (c *Client) authorize(req *http.Request) {
	if c.cronSecret != "" {
		req.Header.Set("Authorization", "Bearer "+c.cronSecret)
	}
}

func (c *Client) do(req *http.Request) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("calling backend: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 400 {
		return fmt.Errorf("backend returned status %d for %s", resp.StatusCode, req.URL.Path)
	}
	return nil
}
