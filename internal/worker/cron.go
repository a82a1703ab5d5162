package worker

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Poller drives the tracking backend's poll routes. Implemented by
// backend.Client.
type Poller interface {
	PollLocations(ctx context.Context) error
	PollConsent(ctx context.Context) error
	RefreshAuth(ctx context.Context) error
}

// SchedulerConfig holds configuration for the cron scheduler.
type SchedulerConfig struct {
	Poller Poller
	Logger zerolog.Logger

	// LocationInterval is the ping-poll cadence. Default 15m, matching the
	// SIM provider's ping frequency.
	LocationInterval time.Duration

	// ConsentInterval is the consent-poll cadence. Default 1h.
	ConsentInterval time.Duration

	// AuthRefreshInterval is the upstream token refresh cadence. Default 6h.
	AuthRefreshInterval time.Duration

	// JobTimeout bounds each poll call. Default 5m.
	JobTimeout time.Duration
}

// Scheduler runs the backend poll jobs on their cadences.
type Scheduler struct {
	cron       *cron.Cron
	poller     Poller
	logger     zerolog.Logger
	jobTimeout time.Duration
}

// NewScheduler creates a scheduler with the poll jobs registered.
func NewScheduler(cfg SchedulerConfig) (*Scheduler, error) {
	locationInterval := cfg.LocationInterval
	if locationInterval == 0 {
		locationInterval = 15 * time.Minute
	}
	consentInterval := cfg.ConsentInterval
	if consentInterval == 0 {
		consentInterval = time.Hour
	}
	authInterval := cfg.AuthRefreshInterval
	if authInterval == 0 {
		authInterval = 6 * time.Hour
	}
	jobTimeout := cfg.JobTimeout
	if jobTimeout == 0 {
		jobTimeout = 5 * time.Minute
	}

	s := &Scheduler{
		cron:       cron.New(),
		poller:     cfg.Poller,
		logger:     cfg.Logger,
		jobTimeout: jobTimeout,
	}

	jobs := []struct {
		name     string
		interval time.Duration
		run      func(context.Context) error
	}{
		{"location-poll", locationInterval, cfg.Poller.PollLocations},
		{"consent-poll", consentInterval, cfg.Poller.PollConsent},
		{"auth-refresh", authInterval, cfg.Poller.RefreshAuth},
	}
	for _, job := range jobs {
		job := job
		_, err := s.cron.AddFunc("@every "+job.interval.String(), func() {
			s.runJob(job.name, job.run)
		})
		if err != nil {
			return nil, err
		}
	}

	return s, nil
}

// Start begins the schedule. Jobs run in their own goroutines.
func (s *Scheduler) Start() {
	s.logger.Info().Msg("starting poll scheduler")
	s.cron.Start()
}

// Stop halts the schedule and waits for running jobs.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info().Msg("poll scheduler stopped")
}

func (s *Scheduler) runJob(name string, run func(context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), s.jobTimeout)
	defer cancel()

	start := time.Now()
	if err := run(ctx); err != nil {
		s.logger.Error().Err(err).Str("job", name).Msg("poll job failed")
		return
	}
	s.logger.Info().
		Str("job", name).
		Dur("duration", time.Since(start)).
		Msg("poll job completed")
}
