// Package main provides the entrypoint for the routewise worker: it consumes
// track batches from Pub/Sub and drives the tracking backend's poll routes.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/routewise/routewise/internal/backend"
	"github.com/routewise/routewise/internal/route"
	"github.com/routewise/routewise/internal/snap"
	"github.com/routewise/routewise/internal/snap/osrm"
	"github.com/routewise/routewise/internal/telemetry"
	"github.com/routewise/routewise/internal/upstream"
	"github.com/routewise/routewise/internal/worker"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	const serviceName = "routewise-worker"

	log := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("service", serviceName).
		Str("version", Version).
		Logger()

	log.Info().
		Str("build_time", BuildTime).
		Msg("starting routewise worker")

	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "8080"
	}

	backendURL := os.Getenv("BACKEND_BASE_URL")
	if backendURL == "" {
		log.Fatal().Msg("BACKEND_BASE_URL is required")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tp, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName:    serviceName,
		ServiceVersion: Version,
		Environment:    os.Getenv("APP_ENV"),
		OTLPEndpoint:   os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		Enabled:        os.Getenv("OTEL_ENABLED") == "true",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize telemetry")
	}
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if shutdownErr := tp.Shutdown(shutdownCtx); shutdownErr != nil {
			log.Error().Err(shutdownErr).Msg("failed to shutdown telemetry")
		}
	}()

	registry := upstream.NewRegistry()

	backendClient := backend.NewClient(backend.ClientConfig{
		BaseURL:    backendURL,
		CronSecret: os.Getenv("CRON_SECRET"),
		Registry:   registry,
		Logger:     log,
	})

	// The worker path snaps but never geocodes; geocoding happens on demand
	// through the API under its own rate ceiling.
	processor := route.NewProcessor(route.ProcessorConfig{
		Snapper: snap.NewService(snap.ServiceConfig{
			Provider: osrm.NewClient(osrm.ClientConfig{
				BaseURL:  os.Getenv("OSRM_BASE_URL"),
				Registry: registry,
				Logger:   log,
			}),
			Logger: log,
		}),
		Logger: log,
	})

	processJob := worker.NewProcessJob(worker.ProcessJobConfig{
		Processor: processor,
		Submitter: backendClient,
		Logger:    log,
	})

	// Cron scheduler keeps the backend polling on cadence
	scheduler, err := worker.NewScheduler(worker.SchedulerConfig{
		Poller: backendClient,
		Logger: log,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create scheduler")
	}
	scheduler.Start()
	defer scheduler.Stop()

	// Pub/Sub consumer for track batches (optional; without it the worker
	// only runs the poll schedule)
	if projectID := os.Getenv("PUBSUB_PROJECT_ID"); projectID != "" {
		subscription := os.Getenv("PUBSUB_SUBSCRIPTION")
		if subscription == "" {
			subscription = "track-batches"
		}

		handler, err := worker.NewPubSubHandler(ctx, worker.PubSubConfig{
			ProjectID:        projectID,
			SubscriptionName: subscription,
			ProcessJob:       processJob,
			Logger:           log,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create pubsub handler")
		}
		defer handler.Close()

		go func() {
			if err := handler.Start(ctx); err != nil && ctx.Err() == nil {
				log.Error().Err(err).Msg("pubsub handler stopped")
			}
		}()
	} else {
		log.Warn().Msg("PUBSUB_PROJECT_ID not set - track batch consumption disabled")
	}

	// Health endpoint for the platform
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, `{"status":"ok","version":%q}`, Version)
	})

	server := &http.Server{
		Addr:         ":" + port,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("health server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("health server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down worker")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("health server forced to shutdown")
	}

	log.Info().Msg("worker stopped")
}
