// Package route orchestrates the GPS route-processing pipeline: validation,
// simplification, road snapping, analytics, reverse geocoding and polyline
// encoding.
package route

import (
	"fmt"
	"time"
)

// Coordinate is a raw GPS ping as received from the tracking backend.
type Coordinate struct {
	Lat       float64    `json:"lat"`
	Lng       float64    `json:"lng"`
	Timestamp *time.Time `json:"timestamp,omitempty"`
	VehicleID string     `json:"vehicle_id,omitempty"`
}

// ProcessedPoint is a pipeline output point. Address is empty when reverse
// geocoding was skipped or could not resolve. SpeedKmh is zero for the first
// point and for points without usable timestamps.
type ProcessedPoint struct {
	Lat                    float64    `json:"lat"`
	Lng                    float64    `json:"lng"`
	Timestamp              *time.Time `json:"timestamp,omitempty"`
	Address                string     `json:"address,omitempty"`
	Snapped                bool       `json:"snapped"`
	DistanceFromPreviousKm float64    `json:"distance_from_previous_km"`
	SpeedKmh               float64    `json:"speed_kmh,omitempty"`
}

// Options selects which pipeline stages run.
type Options struct {
	Simplify       bool `json:"simplify"`
	SnapToRoads    bool `json:"snap_to_roads"`
	ReverseGeocode bool `json:"reverse_geocode"`
}

// Result is the processed route built for one request.
type Result struct {
	OriginalPoints           int              `json:"original_points"`
	ProcessedPoints          int              `json:"processed_points"`
	Route                    []ProcessedPoint `json:"route"`
	EncodedPolyline          string           `json:"encoded_polyline"`
	TotalDistanceKm          float64          `json:"total_distance_km"`
	EstimatedDurationMinutes float64          `json:"estimated_duration_minutes"`
}

// ValidationError reports invalid input. It aborts the pipeline.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid route input: %s", e.Reason)
}

// ConfigurationError reports an invalid tunable. It aborts the pipeline.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid route configuration: %s", e.Reason)
}
