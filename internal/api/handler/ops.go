package handler

import (
	"net/http"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/routewise/routewise/internal/api/models"
	"github.com/routewise/routewise/internal/api/response"
	"github.com/routewise/routewise/internal/geocode"
	"github.com/routewise/routewise/internal/upstream"
)

// CacheReporter exposes geocode cache statistics.
type CacheReporter interface {
	CacheStats() geocode.Stats
}

// OpsHandler handles operational endpoints.
type OpsHandler struct {
	version   string
	buildTime string
	upstreams *upstream.Registry
	cache     CacheReporter
}

// NewOpsHandler creates a new OpsHandler.
func NewOpsHandler(version, buildTime string, upstreams *upstream.Registry, cache CacheReporter) *OpsHandler {
	return &OpsHandler{
		version:   version,
		buildTime: buildTime,
		upstreams: upstreams,
		cache:     cache,
	}
}

// HealthCheck handles GET /v1/ops/health - liveness check.
func (h *OpsHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	health := models.Health{
		Status: models.HealthStatusOK,
		Time:   time.Now().UTC(),
		Details: map[string]string{
			"version":   h.version,
			"buildTime": h.buildTime,
		},
	}
	response.JSON(w, r, http.StatusOK, health)
}

// ReadinessCheck handles GET /v1/ops/ready. The service is ready unless every
// upstream circuit is open; a single broken provider only degrades results.
func (h *OpsHandler) ReadinessCheck(w http.ResponseWriter, r *http.Request) {
	status := models.HealthStatusOK
	if h.upstreams != nil {
		snapshot := h.upstreams.Snapshot()
		open := 0
		for _, u := range snapshot {
			if !u.Healthy() && !u.Degraded() {
				open++
			}
		}
		switch {
		case len(snapshot) > 0 && open == len(snapshot):
			status = models.HealthStatusDown
		case open > 0:
			status = models.HealthStatusDegraded
		}
	}

	health := models.Health{Status: status, Time: time.Now().UTC()}
	if status == models.HealthStatusDown {
		response.JSON(w, r, http.StatusServiceUnavailable, health)
		return
	}
	response.JSON(w, r, http.StatusOK, health)
}

// SystemStatus handles GET /v1/ops/status - provider circuit state and cache
// statistics.
func (h *OpsHandler) SystemStatus(w http.ResponseWriter, r *http.Request) {
	status := models.SystemStatus{
		Status:    models.HealthStatusOK,
		Time:      time.Now().UTC(),
		Providers: []models.ProviderStatus{},
	}

	if h.upstreams != nil {
		for _, u := range h.upstreams.Snapshot() {
			ps := models.ProviderStatus{
				Provider:      u.Name,
				Status:        providerStatus(u),
				CircuitState:  u.CircuitState.String(),
				LastSuccessAt: u.LastSuccessAt,
				LastFailureAt: u.LastFailureAt,
				Message:       u.LastError,
			}
			status.Providers = append(status.Providers, ps)
			if ps.Status != models.HealthStatusOK && status.Status == models.HealthStatusOK {
				status.Status = models.HealthStatusDegraded
			}
		}
	}

	if h.cache != nil {
		stats := h.cache.CacheStats()
		status.Geocode = models.GeocodeStatus{CacheEntries: stats.Entries, CacheFresh: stats.Fresh}
	}

	response.JSON(w, r, http.StatusOK, status)
}

func providerStatus(u upstream.Health) models.HealthStatus {
	switch u.CircuitState {
	case gobreaker.StateClosed:
		return models.HealthStatusOK
	case gobreaker.StateHalfOpen:
		return models.HealthStatusDegraded
	default:
		return models.HealthStatusDown
	}
}
