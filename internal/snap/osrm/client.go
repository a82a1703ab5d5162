// Package osrm provides a map-matching client for OSRM-compatible routing
// services.
package osrm

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/routewise/routewise/internal/geo"
	"github.com/routewise/routewise/internal/snap"
	"github.com/routewise/routewise/internal/upstream"
)

const (
	// ProviderName identifies this snapping provider.
	ProviderName = "osrm"

	// DefaultBaseURL is the public OSRM instance. Production deployments
	// should point at their own.
	DefaultBaseURL = "http://router.project-osrm.org"

	// DefaultTimeout bounds each match request.
	DefaultTimeout = 30 * time.Second

	// profile is the OSRM routing profile used for vehicle traces.
	profile = "driving"
)

// HTTPDoer executes HTTP requests.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// ClientConfig holds configuration for the OSRM client.
type ClientConfig struct {
	// BaseURL overrides the OSRM base URL. Optional.
	BaseURL string

	// HTTPClient overrides the transport. If nil a resilient client with
	// defaults is used.
	HTTPClient HTTPDoer

	// Timeout is the per-request timeout. Optional.
	Timeout time.Duration

	// Registry receives call outcomes for health reporting. Optional.
	Registry *upstream.Registry

	// Logger for client operations.
	Logger zerolog.Logger
}

// Client is an OSRM map-matching client.
type Client struct {
	baseURL    string
	httpClient HTTPDoer
	logger     zerolog.Logger
}

// NewClient creates an OSRM client.
func NewClient(cfg ClientConfig) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout == 0 {
			timeout = DefaultTimeout
		}
		httpClient = upstream.NewClient(upstream.Config{
			Name:     ProviderName,
			Timeout:  timeout,
			Registry: cfg.Registry,
		})
	}

	return &Client{
		baseURL:    baseURL,
		httpClient: httpClient,
		logger:     cfg.Logger,
	}
}

// Name returns the provider identifier.
func (c *Client) Name() string {
	return ProviderName
}

// matchResponse is the subset of the OSRM match response we consume.
// Tracepoints correspond 1:1 with the input coordinates; an unmatched input
// point is null.
type matchResponse struct {
	Code        string        `json:"code"`
	Tracepoints []*tracepoint `json:"tracepoints"`
}

type tracepoint struct {
	Location [2]float64 `json:"location"` // [lon, lat]
}

// Match snaps the trace via the OSRM match service. The result mirrors the
// tracepoint list as returned (nil where OSRM could not match); callers must
// treat a length that differs from the input as an untrusted response.
func (c *Client) Match(ctx context.Context, points []geo.Coordinate) ([]*geo.Coordinate, error) {
	if len(points) == 0 {
		return nil, nil
	}

	// OSRM takes lon,lat pairs in the path.
	var coords strings.Builder
	for i, p := range points {
		if i > 0 {
			coords.WriteByte(';')
		}
		coords.WriteString(strconv.FormatFloat(p.Lon, 'f', 6, 64))
		coords.WriteByte(',')
		coords.WriteString(strconv.FormatFloat(p.Lat, 'f', 6, 64))
	}

	reqURL := fmt.Sprintf("%s/match/v1/%s/%s?overview=false&steps=false", c.baseURL, profile, coords.String())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	c.logger.Debug().Int("points", len(points)).Msg("requesting road match")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", snap.ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	// OSRM reports NoMatch and NoSegment as 400s with a code in the body.
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusBadRequest {
		return nil, fmt.Errorf("%w: status %d", snap.ErrProviderUnavailable, resp.StatusCode)
	}

	var parsed matchResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("%w: decoding response: %w", snap.ErrProviderUnavailable, err)
	}

	if parsed.Code != "Ok" {
		return nil, fmt.Errorf("%w: code %s", snap.ErrNoMatch, parsed.Code)
	}

	matched := make([]*geo.Coordinate, len(parsed.Tracepoints))
	for i, tp := range parsed.Tracepoints {
		if tp == nil {
			continue
		}
		matched[i] = &geo.Coordinate{Lat: tp.Location[1], Lon: tp.Location[0]}
	}

	c.logger.Debug().Int("matched", countMatched(matched)).Msg("road match completed")
	return matched, nil
}

func countMatched(matched []*geo.Coordinate) int {
	n := 0
	for _, m := range matched {
		if m != nil {
			n++
		}
	}
	return n
}
