package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/routewise/routewise/internal/route"
)

// Processor runs the route pipeline. Implemented by route.Processor.
type Processor interface {
	Process(ctx context.Context, coords []route.Coordinate, opts route.Options) (*route.Result, error)
}

// Submitter stores a processed route. Implemented by backend.Client.
type Submitter interface {
	SubmitRoute(ctx context.Context, vehicleID string, result *route.Result) error
}

// ProcessJob turns raw ping batches into processed routes and submits them to
// the tracking backend.
type ProcessJob struct {
	config    ProcessConfig
	processor Processor
	submitter Submitter
	logger    zerolog.Logger
}

// ProcessJobConfig holds configuration for creating a ProcessJob.
type ProcessJobConfig struct {
	Config    ProcessConfig
	Processor Processor
	Submitter Submitter
	Logger    zerolog.Logger
}

// NewProcessJob creates a batch-processing job.
func NewProcessJob(cfg ProcessJobConfig) *ProcessJob {
	return &ProcessJob{
		config:    cfg.Config.withDefaults(),
		processor: cfg.Processor,
		submitter: cfg.Submitter,
		logger:    cfg.Logger,
	}
}

// ProcessResult summarizes one job run.
type ProcessResult struct {
	StartTime  time.Time
	Duration   time.Duration
	Batches    int
	Successful int
	Failed     int
	Errors     []BatchError
}

// BatchError records a failed batch.
type BatchError struct {
	VehicleID string
	Error     string
}

// Run processes all batches with bounded concurrency and returns a summary.
// Individual batch failures do not stop the run.
func (j *ProcessJob) Run(ctx context.Context, batches []TrackBatch) *ProcessResult {
	start := time.Now()
	result := &ProcessResult{StartTime: start, Batches: len(batches)}

	j.logger.Info().
		Int("batches", len(batches)).
		Int("concurrency", j.config.Concurrency).
		Msg("starting track batch processing")

	batchChan := make(chan TrackBatch, len(batches))
	errChan := make(chan *BatchError, len(batches))

	var wg sync.WaitGroup
	for i := 0; i < j.config.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for batch := range batchChan {
				select {
				case <-ctx.Done():
					errChan <- &BatchError{VehicleID: batch.VehicleID, Error: ctx.Err().Error()}
					continue
				default:
				}
				errChan <- j.processBatch(ctx, batch)
			}
		}()
	}

	for _, b := range batches {
		batchChan <- b
	}
	close(batchChan)

	go func() {
		wg.Wait()
		close(errChan)
	}()

	for berr := range errChan {
		if berr == nil {
			result.Successful++
		} else {
			result.Failed++
			result.Errors = append(result.Errors, *berr)
		}
	}

	result.Duration = time.Since(start)
	j.logger.Info().
		Dur("duration", result.Duration).
		Int("successful", result.Successful).
		Int("failed", result.Failed).
		Msg("track batch processing completed")

	return result
}

// processBatch runs one vehicle's pings through the pipeline and submits the
// result. Returns nil on success.
func (j *ProcessJob) processBatch(ctx context.Context, batch TrackBatch) *BatchError {
	logger := j.logger.With().Str("vehicle_id", batch.VehicleID).Logger()

	if len(batch.Pings) == 0 {
		logger.Warn().Msg("skipping empty batch")
		return &BatchError{VehicleID: batch.VehicleID, Error: "empty batch"}
	}

	batchCtx, cancel := context.WithTimeout(ctx, j.config.Timeout)
	defer cancel()

	processed, err := j.processor.Process(batchCtx, batch.Pings, j.config.Options)
	if err != nil {
		// Malformed pings are dropped, not retried.
		var verr *route.ValidationError
		if errors.As(err, &verr) {
			logger.Warn().Err(err).Msg("dropping invalid batch")
		} else {
			logger.Error().Err(err).Msg("batch processing failed")
		}
		return &BatchError{VehicleID: batch.VehicleID, Error: err.Error()}
	}

	if err := j.submitter.SubmitRoute(batchCtx, batch.VehicleID, processed); err != nil {
		logger.Error().Err(err).Msg("route submission failed")
		return &BatchError{VehicleID: batch.VehicleID, Error: err.Error()}
	}

	logger.Info().
		Int("original_points", processed.OriginalPoints).
		Int("processed_points", processed.ProcessedPoints).
		Float64("distance_km", processed.TotalDistanceKm).
		Msg("batch processed")
	return nil
}
