// Package simplify reduces GPS traces with the Douglas-Peucker algorithm while
// preserving the overall path shape.
package simplify

import (
	"errors"
	"fmt"

	"github.com/routewise/routewise/internal/geo"
)

// DefaultEpsilonKm is the default deviation tolerance. 0.03 km (~30 m) is a
// good match for road-scale GPS noise from cellular pings.
const DefaultEpsilonKm = 0.03

// ErrInvalidEpsilon indicates a non-positive tolerance.
var ErrInvalidEpsilon = errors.New("epsilon must be positive")

// Simplify returns a subsequence of points whose deviation from the original
// path stays within epsilonKm. The first and last point are always retained,
// and inputs of two or fewer points are returned unchanged.
func Simplify(points []geo.Coordinate, epsilonKm float64) ([]geo.Coordinate, error) {
	keep, err := Indices(points, epsilonKm)
	if err != nil {
		return nil, err
	}

	out := make([]geo.Coordinate, len(keep))
	for i, idx := range keep {
		out[i] = points[idx]
	}
	return out, nil
}

// Indices returns the sorted indices of the points Simplify would retain.
// Callers that carry per-point metadata (timestamps, vehicle IDs) use this to
// keep the metadata aligned with the reduced trace.
func Indices(points []geo.Coordinate, epsilonKm float64) ([]int, error) {
	if epsilonKm <= 0 {
		return nil, fmt.Errorf("%w: %f", ErrInvalidEpsilon, epsilonKm)
	}

	if len(points) <= 2 {
		keep := make([]int, len(points))
		for i := range keep {
			keep[i] = i
		}
		return keep, nil
	}

	keep := []int{0}
	keep = douglasPeucker(points, 0, len(points)-1, epsilonKm, keep)
	return append(keep, len(points)-1), nil
}

// douglasPeucker appends the retained interior indices of points[first:last+1]
// to keep, in order. The endpoints themselves are the caller's responsibility.
func douglasPeucker(points []geo.Coordinate, first, last int, epsilonKm float64, keep []int) []int {
	if last-first < 2 {
		return keep
	}

	// Find the interior point farthest from the chord. Strict comparison makes
	// the first point reaching the maximum win ties, keeping output stable.
	maxDist := 0.0
	maxIdx := first
	for i := first + 1; i < last; i++ {
		d := geo.PerpendicularDistance(points[i], points[first], points[last])
		if d > maxDist {
			maxDist = d
			maxIdx = i
		}
	}

	if maxDist <= epsilonKm {
		return keep
	}

	keep = douglasPeucker(points, first, maxIdx, epsilonKm, keep)
	keep = append(keep, maxIdx)
	return douglasPeucker(points, maxIdx, last, epsilonKm, keep)
}
