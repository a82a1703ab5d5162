// Package api provides the HTTP API for routewise.
package api

import (
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/routewise/routewise/internal/api/handler"
	"github.com/routewise/routewise/internal/api/middleware"
	"github.com/routewise/routewise/internal/upstream"
)

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	Version    string
	BuildTime  string
	Logger     zerolog.Logger
	Metrics    *middleware.Metrics
	CronSecret string

	Processor handler.RouteProcessor
	Geocoder  handler.Geocoder
	Snapper   handler.Snapper
	Cache     handler.CacheReporter
	Poller    handler.Poller
	Upstreams *upstream.Registry
}

// NewRouter creates a chi router with all API routes configured.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware - order matters
	r.Use(middleware.RequestID)
	r.Use(middleware.Tracing())
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware())
	}
	r.Use(middleware.Logger(cfg.Logger))
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(chimiddleware.RealIP)

	routeHandler := handler.NewRouteHandler(cfg.Processor)
	geocodeHandler := handler.NewGeocodeHandler(cfg.Geocoder)
	snapHandler := handler.NewSnapHandler(cfg.Snapper)
	opsHandler := handler.NewOpsHandler(cfg.Version, cfg.BuildTime, cfg.Upstreams, cfg.Cache)
	triggerHandler := handler.NewTriggerHandler(cfg.Poller, cfg.Logger)

	processRateLimit := middleware.RateLimitByIP(middleware.ProcessRateLimit)
	geocodeRateLimit := middleware.RateLimitByIP(middleware.GeocodeRateLimit)
	standardRateLimit := middleware.RateLimitByIP(middleware.StandardRateLimit)

	r.Route("/v1", func(r chi.Router) {
		// Pipeline endpoint - fans out to simplify/snap/geocode
		r.With(processRateLimit).Post("/routes:process", routeHandler.ProcessRoute)

		// Thin component wrappers
		r.With(geocodeRateLimit).Post("/geocode", geocodeHandler.ReverseGeocode)
		r.With(standardRateLimit).Post("/snap", snapHandler.SnapRoute)

		// Ops endpoints (public)
		r.Route("/ops", func(r chi.Router) {
			r.Get("/health", opsHandler.HealthCheck)
			r.Get("/ready", opsHandler.ReadinessCheck)
			r.Get("/status", opsHandler.SystemStatus)
		})

		// Manual cron triggers, bearer-secret protected
		r.Route("/trigger", func(r chi.Router) {
			r.Use(middleware.CronSecret(cfg.CronSecret))
			r.Post("/location-poll", triggerHandler.LocationPoll)
			r.Post("/consent-poll", triggerHandler.ConsentPoll)
		})
	})

	return r
}
