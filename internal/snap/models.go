// Package snap repositions raw GPS points onto road geometry via an external
// map-matching service, degrading to the original points when the service
// fails or returns implausible results.
package snap

import (
	"context"
	"errors"

	"github.com/routewise/routewise/internal/geo"
)

// Sentinel errors for snapping operations.
var (
	// ErrProviderUnavailable indicates the matching service could not be reached.
	ErrProviderUnavailable = errors.New("snapping provider unavailable")
	// ErrNoMatch indicates the service found no road match for the trace.
	ErrNoMatch = errors.New("no road match for trace")
)

// Provider is a map-matching backend.
type Provider interface {
	// Match returns one matched point per input point, in order. A nil entry
	// in the result means the service could not match that point.
	Match(ctx context.Context, points []geo.Coordinate) ([]*geo.Coordinate, error)
	// Name returns the provider identifier for logging and health reporting.
	Name() string
}

// Point is a coordinate with a flag recording whether it was repositioned
// onto a road.
type Point struct {
	geo.Coordinate
	Snapped bool
}
