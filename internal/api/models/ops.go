package models

import "time"

// HealthStatus is a coarse component state.
type HealthStatus string

const (
	HealthStatusOK       HealthStatus = "ok"
	HealthStatusDegraded HealthStatus = "degraded"
	HealthStatusDown     HealthStatus = "down"
)

// Health represents the health of the service.
type Health struct {
	Status  HealthStatus      `json:"status"`
	Time    time.Time         `json:"time"`
	Details map[string]string `json:"details,omitempty"`
}

// SystemStatus represents the overall system status.
type SystemStatus struct {
	Status    HealthStatus     `json:"status"`
	Time      time.Time        `json:"time"`
	Providers []ProviderStatus `json:"providers"`
	Geocode   GeocodeStatus    `json:"geocode"`
}

// ProviderStatus represents the status of an external provider.
type ProviderStatus struct {
	Provider      string       `json:"provider"`
	Status        HealthStatus `json:"status"`
	CircuitState  string       `json:"circuitState"`
	LastSuccessAt *time.Time   `json:"lastSuccessAt,omitempty"`
	LastFailureAt *time.Time   `json:"lastFailureAt,omitempty"`
	Message       string       `json:"message,omitempty"`
}

// GeocodeStatus reports the reverse-geocode cache.
type GeocodeStatus struct {
	CacheEntries int `json:"cacheEntries"`
	CacheFresh   int `json:"cacheFresh"`
}
