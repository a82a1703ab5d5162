// Package upstream provides the resilient HTTP client used for calls to the
// road-snapping and geocoding services: per-call timeouts, exponential-backoff
// retries and a circuit breaker per upstream.
package upstream

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sony/gobreaker/v2"
)

var (
	// ErrCircuitOpen is returned while the upstream's circuit breaker is open.
	ErrCircuitOpen = errors.New("upstream circuit open")

	// ErrRetriesExhausted is returned when every retry attempt has failed.
	ErrRetriesExhausted = errors.New("upstream retries exhausted")
)

// StatusError reports a 5xx response from an upstream.
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("upstream returned %d %s", e.StatusCode, http.StatusText(e.StatusCode))
}

// Config tunes a resilient upstream client.
type Config struct {
	// Name identifies the upstream for the circuit breaker and health registry.
	Name string

	// Timeout bounds each individual HTTP attempt. Default 10s.
	Timeout time.Duration

	// MaxRetries is the number of retries after the first attempt. Default 3.
	MaxRetries uint64

	// InitialBackoff is the first retry delay. Default 100ms.
	InitialBackoff time.Duration

	// MaxBackoff caps the retry delay. Default 5s.
	MaxBackoff time.Duration

	// BreakerCooldown is how long an open circuit stays open. Default 60s.
	BreakerCooldown time.Duration

	// Registry records call outcomes for health reporting. Optional.
	Registry *Registry
}

// Client wraps net/http with retries and a circuit breaker. Requests with a
// cancelled context stop retrying immediately; 4xx responses are returned as-is
// and never retried.
type Client struct {
	cfg      Config
	http     *http.Client
	breaker  *gobreaker.CircuitBreaker[*http.Response]
	registry *Registry
}

// NewClient builds a Client, applying defaults for zero-valued settings.
func NewClient(cfg Config) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 3
	}
	if cfg.InitialBackoff == 0 {
		cfg.InitialBackoff = 100 * time.Millisecond
	}
	if cfg.MaxBackoff == 0 {
		cfg.MaxBackoff = 5 * time.Second
	}
	if cfg.BreakerCooldown == 0 {
		cfg.BreakerCooldown = 60 * time.Second
	}

	breaker := gobreaker.NewCircuitBreaker[*http.Response](gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: 1,
		Timeout:     cfg.BreakerCooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			// Trip at a 50% failure rate once the upstream has seen real traffic.
			return counts.Requests >= 5 &&
				float64(counts.TotalFailures)/float64(counts.Requests) >= 0.5
		},
	})

	c := &Client{
		cfg:     cfg,
		http:    &http.Client{Timeout: cfg.Timeout},
		breaker: breaker,
	}
	if cfg.Registry != nil {
		c.registry = cfg.Registry
		cfg.Registry.register(cfg.Name, c)
	}
	return c
}

// Name returns the upstream identifier.
func (c *Client) Name() string {
	return c.cfg.Name
}

// Do executes the request, retrying transient failures (network errors, 5xx)
// with exponential backoff. The caller owns the response body on success.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	ctx := req.Context()

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = c.cfg.InitialBackoff
	bo.MaxInterval = c.cfg.MaxBackoff
	bo.MaxElapsedTime = 0
	policy := backoff.WithContext(backoff.WithMaxRetries(bo, c.cfg.MaxRetries), ctx)

	var resp *http.Response
	attempt := func() error {
		r, err := c.breaker.Execute(func() (*http.Response, error) {
			clone := req.Clone(ctx)
			if req.GetBody != nil {
				body, err := req.GetBody()
				if err != nil {
					return nil, err
				}
				clone.Body = body
			}
			r, err := c.http.Do(clone)
			if err != nil {
				return nil, err
			}
			if r.StatusCode >= 500 {
				r.Body.Close()
				return nil, &StatusError{StatusCode: r.StatusCode}
			}
			return r, nil
		})
		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
				return backoff.Permanent(ErrCircuitOpen)
			}
			return err
		}
		resp = r
		return nil
	}

	if err := backoff.Retry(attempt, policy); err != nil {
		c.record(err)
		if errors.Is(err, ErrCircuitOpen) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", ErrRetriesExhausted, err)
	}

	c.record(nil)
	return resp, nil
}

func (c *Client) record(err error) {
	if c.registry == nil {
		return
	}
	if err != nil {
		c.registry.recordFailure(c.cfg.Name, err)
	} else {
		c.registry.recordSuccess(c.cfg.Name)
	}
}

// BreakerState exposes the circuit breaker state for health reporting.
func (c *Client) BreakerState() gobreaker.State {
	return c.breaker.State()
}

// BreakerCounts exposes the circuit breaker counters for health reporting.
func (c *Client) BreakerCounts() gobreaker.Counts {
	return c.breaker.Counts()
}
