package upstream

import (
	"sync"
	"time"

	"github.com/sony/gobreaker/v2"
)

// Health is a point-in-time view of one upstream's state, surfaced by the
// operational status endpoint.
type Health struct {
	Name          string
	CircuitState  gobreaker.State
	Counts        gobreaker.Counts
	LastSuccessAt *time.Time
	LastFailureAt *time.Time
	LastError     string
}

// Healthy reports whether the circuit is closed.
func (h Health) Healthy() bool {
	return h.CircuitState == gobreaker.StateClosed
}

// Degraded reports whether the circuit is probing in half-open state.
func (h Health) Degraded() bool {
	return h.CircuitState == gobreaker.StateHalfOpen
}

// Registry tracks the upstream clients of the process and their last outcomes.
type Registry struct {
	mu        sync.RWMutex
	upstreams map[string]*upstreamState
}

type upstreamState struct {
	client        *Client
	lastSuccessAt *time.Time
	lastFailureAt *time.Time
	lastError     string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{upstreams: make(map[string]*upstreamState)}
}

func (r *Registry) register(name string, client *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.upstreams[name] = &upstreamState{client: client}
}

func (r *Registry) recordSuccess(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.upstreams[name]; ok {
		now := time.Now()
		s.lastSuccessAt = &now
	}
}

func (r *Registry) recordFailure(name string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.upstreams[name]; ok {
		now := time.Now()
		s.lastFailureAt = &now
		if err != nil {
			s.lastError = err.Error()
		}
	}
}

// Snapshot returns the health of every registered upstream.
func (r *Registry) Snapshot() []Health {
	r.mu.RLock()
	defer r.mu.RUnlock()

	health := make([]Health, 0, len(r.upstreams))
	for name, s := range r.upstreams {
		health = append(health, Health{
			Name:          name,
			CircuitState:  s.client.BreakerState(),
			Counts:        s.client.BreakerCounts(),
			LastSuccessAt: s.lastSuccessAt,
			LastFailureAt: s.lastFailureAt,
			LastError:     s.lastError,
		})
	}
	return health
}
