// Package main provides the entrypoint for the routewise API server.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/routewise/routewise/internal/api"
	"github.com/routewise/routewise/internal/api/middleware"
	"github.com/routewise/routewise/internal/backend"
	"github.com/routewise/routewise/internal/geocode"
	"github.com/routewise/routewise/internal/geocode/nominatim"
	"github.com/routewise/routewise/internal/route"
	"github.com/routewise/routewise/internal/snap"
	"github.com/routewise/routewise/internal/snap/osrm"
	"github.com/routewise/routewise/internal/telemetry"
	"github.com/routewise/routewise/internal/upstream"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	const serviceName = "routewise-api"

	// Setup structured logging
	log := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("service", serviceName).
		Str("version", Version).
		Logger()

	log.Info().
		Str("build_time", BuildTime).
		Msg("starting routewise API")

	// Get configuration from environment
	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "8080"
	}

	otlpEndpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	if otlpEndpoint == "" {
		otlpEndpoint = "localhost:4317"
	}

	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "development"
	}

	// Initialize OpenTelemetry
	ctx := context.Background()
	telemetryEnabled := os.Getenv("OTEL_ENABLED") == "true"

	tp, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName:    serviceName,
		ServiceVersion: Version,
		Environment:    env,
		OTLPEndpoint:   otlpEndpoint,
		Enabled:        telemetryEnabled,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize telemetry")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if shutdownErr := tp.Shutdown(shutdownCtx); shutdownErr != nil {
			log.Error().Err(shutdownErr).Msg("failed to shutdown telemetry")
		}
	}()

	if telemetryEnabled {
		log.Info().
			Str("otlp_endpoint", otlpEndpoint).
			Msg("OpenTelemetry initialized")
	}

	// Initialize metrics
	metrics, err := middleware.NewMetrics()
	if err != nil {
		log.Error().Err(err).Msg("failed to initialize metrics")
		os.Exit(1) //nolint:gocritic // intentional exit, telemetry cleanup is best-effort
	}

	// Upstream registry feeds the ops endpoints with provider health
	registry := upstream.NewRegistry()

	// Reverse geocoding: Nominatim-style provider behind the shared cache
	// and 1 req/s limiter
	geocoder := geocode.NewService(geocode.ServiceConfig{
		Provider: nominatim.NewClient(nominatim.ClientConfig{
			BaseURL:  os.Getenv("NOMINATIM_BASE_URL"),
			Registry: registry,
			Logger:   log,
		}),
		Logger: log,
	})
	log.Info().Msg("geocode service initialized")

	// Road snapping: OSRM match provider with chunking and fallback
	snapper := snap.NewService(snap.ServiceConfig{
		Provider: osrm.NewClient(osrm.ClientConfig{
			BaseURL:  os.Getenv("OSRM_BASE_URL"),
			Registry: registry,
			Logger:   log,
		}),
		Logger:            log,
		MaxDisplacementKm: envFloat(log, "SNAP_MAX_DISPLACEMENT_KM"),
	})
	log.Info().Msg("snap service initialized")

	processor := route.NewProcessor(route.ProcessorConfig{
		Snapper:   snapper,
		Geocoder:  geocoder,
		Logger:    log,
		EpsilonKm: envFloat(log, "SIMPLIFY_EPSILON_KM"),
	})
	log.Info().Msg("route processor initialized")

	// Tracking backend client for the manual trigger endpoints (optional)
	var poller *backend.Client
	if backendURL := os.Getenv("BACKEND_BASE_URL"); backendURL != "" {
		poller = backend.NewClient(backend.ClientConfig{
			BaseURL:    backendURL,
			CronSecret: os.Getenv("CRON_SECRET"),
			Registry:   registry,
			Logger:     log,
		})
		log.Info().Str("base_url", backendURL).Msg("tracking backend client initialized")
	} else {
		log.Warn().Msg("tracking backend not configured - trigger endpoints will fail")
	}

	routerCfg := api.RouterConfig{
		Version:    Version,
		BuildTime:  BuildTime,
		Logger:     log,
		Metrics:    metrics,
		CronSecret: os.Getenv("CRON_SECRET"),
		Processor:  processor,
		Geocoder:   geocoder,
		Snapper:    snapper,
		Cache:      geocoder,
		Upstreams:  registry,
	}
	if poller != nil {
		routerCfg.Poller = poller
	}
	router := api.NewRouter(routerCfg)

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info().
			Str("addr", server.Addr).
			Msg("server listening")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
		os.Exit(1)
	}

	log.Info().Msg("server stopped")
}

// envFloat parses an optional float env var, returning 0 (meaning "use the
// service default") when unset or malformed.
func envFloat(log zerolog.Logger, name string) float64 {
	raw := os.Getenv(name)
	if raw == "" {
		return 0
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		log.Warn().Str("var", name).Str("value", raw).Msg("ignoring malformed float env var")
		return 0
	}
	return v
}
