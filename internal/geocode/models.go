// Package geocode resolves coordinates to human-readable addresses with a
// process-wide TTL cache, a global outbound rate limit and single-flight
// deduplication of concurrent identical lookups.
package geocode

import (
	"context"
	"errors"
)

// Sentinel errors for geocoding operations.
var (
	// ErrNoAddress indicates the provider resolved the lookup but found no address.
	ErrNoAddress = errors.New("no address found for coordinate")
	// ErrProviderUnavailable indicates the geocoding provider could not be reached.
	ErrProviderUnavailable = errors.New("geocoding provider unavailable")
)

// Provider is a reverse-geocoding backend.
type Provider interface {
	// ReverseGeocode resolves one coordinate to an address string.
	ReverseGeocode(ctx context.Context, lat, lon float64) (string, error)
	// Name returns the provider identifier for logging and health reporting.
	Name() string
}
