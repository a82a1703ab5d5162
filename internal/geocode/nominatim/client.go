// Package nominatim provides a reverse-geocoding client for Nominatim-style
// lookup services.
package nominatim

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/routewise/routewise/internal/geocode"
	"github.com/routewise/routewise/internal/upstream"
)

const (
	// ProviderName identifies this geocoding provider.
	ProviderName = "nominatim"

	// DefaultBaseURL is the public Nominatim instance. Production deployments
	// should point at their own.
	DefaultBaseURL = "https://nominatim.openstreetmap.org"

	// DefaultTimeout bounds each lookup request.
	DefaultTimeout = 10 * time.Second

	// userAgent is required by the Nominatim usage policy.
	userAgent = "routewise/1.0"
)

// HTTPDoer executes HTTP requests.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// ClientConfig holds configuration for the Nominatim client.
type ClientConfig struct {
	// BaseURL overrides the lookup service base URL. Optional.
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

// Client is a Nominatim reverse-geocoding client.
type Client struct {
	baseURL    string
	httpClient HTTPDoer
	logger     zerolog.Logger
}

// NewClient creates a Nominatim client.
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

// nominatimResponse is the subset of the jsonv2 reverse response we consume.
type nominatimResponse struct {
	DisplayName string `json:"display_name"`
	Error       string `json:"error"`
}

// ReverseGeocode resolves a coordinate to its display address.
func (c *Client) ReverseGeocode(ctx context.Context, lat, lon float64) (string, error) {
	query := url.Values{}
	query.Set("format", "jsonv2")
	query.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	query.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))
	query.Set("zoom", "18")
	query.Set("addressdetails", "1")

	reqURL := fmt.Sprintf("%s/reverse?%s", c.baseURL, query.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept-Language", "en")

	c.logger.Debug().Float64("lat", lat).Float64("lon", lon).Msg("reverse geocoding")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %w", geocode.ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: status %d", geocode.ErrProviderUnavailable, resp.StatusCode)
	}

	var parsed nominatimResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("%w: decoding response: %w", geocode.ErrProviderUnavailable, err)
	}

	if parsed.Error != "" || parsed.DisplayName == "" {
		return "", geocode.ErrNoAddress
	}

	c.logger.Debug().Str("address", parsed.DisplayName).Msg("geocoded coordinate")
	return parsed.DisplayName, nil
}
