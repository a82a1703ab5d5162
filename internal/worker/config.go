// Package worker provides background processing for routewise: consuming raw
// ping batches from Pub/Sub and driving the tracking backend's poll routes on
// a schedule.
package worker

import (
	"time"

	"github.com/routewise/routewise/internal/route"
)

// TrackBatch is one vehicle's raw pings awaiting processing.
type TrackBatch struct {
	VehicleID string             `json:"vehicle_id"`
	Pings     []route.Coordinate `json:"pings"`
}

// ProcessConfig holds configuration for the batch-processing job.
type ProcessConfig struct {
	// Concurrency is the number of batches processed in parallel.
	// Default: 3
	Concurrency int

	// Timeout bounds the pipeline run per batch.
	// Default: 2 minutes
	Timeout time.Duration

	// Options selects the pipeline stages for worker-processed batches.
	// Zero value means simplify and snap without geocoding.
	Options route.Options
}

// DefaultProcessConfig returns the default processing configuration.
// Geocoding is left off on the batch path; it is bound by the 1 req/s
// upstream ceiling and belongs to on-demand requests.
func DefaultProcessConfig() ProcessConfig {
	return ProcessConfig{
		Concurrency: 3,
		Timeout:     2 * time.Minute,
		Options:     route.Options{Simplify: true, SnapToRoads: true},
	}
}

func (c ProcessConfig) withDefaults() ProcessConfig {
	d := DefaultProcessConfig()
	if c.Concurrency <= 0 {
		c.Concurrency = d.Concurrency
	}
	if c.Timeout == 0 {
		c.Timeout = d.Timeout
	}
	if c.Options == (route.Options{}) {
		c.Options = d.Options
	}
	return c
}
