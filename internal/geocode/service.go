package geocode

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"github.com/routewise/routewise/internal/geo"
)

// keyPrecision is the number of decimals coordinates are rounded to before
// lookup. 5 decimals is ~1.1 m, well below GPS noise, so nearby pings share
// one cache entry and one remote call.
const keyPrecision = 5

// ServiceConfig holds configuration for the geocoding service.
type ServiceConfig struct {
	// Provider is the reverse-geocoding backend (required).
	Provider Provider

	// Logger for service operations.
	Logger zerolog.Logger

	// CacheTTL is how long resolved addresses stay valid. Default 24h.
	CacheTTL time.Duration

	// CacheSize bounds the number of cached addresses. Default 10000.
	CacheSize int

	// MinInterval is the minimum spacing between remote calls, enforced
	// process-wide across all concurrent requests. Default 1s.
	MinInterval time.Duration

	// LookupTimeout bounds each remote lookup. Default 10s.
	LookupTimeout time.Duration
}

// Service resolves addresses cache-first. Concurrent lookups for the same
// normalized coordinate collapse into one remote call, and all remote calls
// queue behind a single process-wide rate limiter.
type Service struct {
	provider      Provider
	logger        zerolog.Logger
	cache         *Cache
	limiter       *rate.Limiter
	flight        singleflight.Group
	lookupTimeout time.Duration
}

// NewService creates a geocoding service.
func NewService(cfg ServiceConfig) *Service {
	minInterval := cfg.MinInterval
	if minInterval == 0 {
		minInterval = time.Second
	}
	lookupTimeout := cfg.LookupTimeout
	if lookupTimeout == 0 {
		lookupTimeout = 10 * time.Second
	}

	return &Service{
		provider:      cfg.Provider,
		logger:        cfg.Logger,
		cache:         NewCache(cfg.CacheTTL, cfg.CacheSize),
		limiter:       rate.NewLimiter(rate.Every(minInterval), 1),
		lookupTimeout: lookupTimeout,
	}
}

// ReverseOne resolves a single coordinate to an address. Failed lookups are
// not cached, so a transient provider outage heals on the next attempt.
func (s *Service) ReverseOne(ctx context.Context, c geo.Coordinate) (string, error) {
	key := cacheKey(c)

	if addr, ok := s.cache.Get(key); ok {
		s.logger.Debug().Str("key", key).Msg("geocode cache hit")
		return addr, nil
	}

	result, err, shared := s.flight.Do(key, func() (interface{}, error) {
		// Double-check under the flight: another waiter may have populated
		// the cache while this call was queued.
		if addr, ok := s.cache.Get(key); ok {
			return addr, nil
		}

		if err := s.limiter.Wait(ctx); err != nil {
			return "", err
		}

		lookupCtx, cancel := context.WithTimeout(ctx, s.lookupTimeout)
		defer cancel()

		addr, err := s.provider.ReverseGeocode(lookupCtx, c.Lat, c.Lon)
		if err != nil {
			return "", err
		}

		s.cache.Put(key, addr)
		return addr, nil
	})
	if err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("reverse geocode failed")
		return "", err
	}

	if shared {
		s.logger.Debug().Str("key", key).Msg("geocode lookup shared in flight")
	}
	return result.(string), nil
}

// Reverse resolves addresses for points positionally. Unresolvable points
// yield an empty string; one failure never fails the batch. Duplicate
// normalized coordinates are looked up once. Cache hits are filled before any
// rate-limited provider lookup runs, so a cold point never delays a warm one.
func (s *Service) Reverse(ctx context.Context, points []geo.Coordinate) []string {
	addresses := make([]string, len(points))
	keys := make([]string, len(points))
	resolved := make(map[string]string, len(points))

	var misses []int
	for i, p := range points {
		keys[i] = cacheKey(p)
		if addr, ok := resolved[keys[i]]; ok {
			addresses[i] = addr
			continue
		}
		if addr, ok := s.cache.Get(keys[i]); ok {
			resolved[keys[i]] = addr
			addresses[i] = addr
			continue
		}
		misses = append(misses, i)
	}

	for _, i := range misses {
		if ctx.Err() != nil {
			break
		}

		if addr, ok := resolved[keys[i]]; ok {
			addresses[i] = addr
			continue
		}

		addr, err := s.ReverseOne(ctx, points[i])
		if err != nil {
			resolved[keys[i]] = ""
			continue
		}
		resolved[keys[i]] = addr
		addresses[i] = addr
	}

	return addresses
}

// CacheStats exposes cache counts for the status endpoint.
func (s *Service) CacheStats() Stats {
	return s.cache.Stats()
}

// ProviderName returns the underlying provider identifier.
func (s *Service) ProviderName() string {
	return s.provider.Name()
}

func cacheKey(c geo.Coordinate) string {
	return fmt.Sprintf("%.*f,%.*f", keyPrecision, c.Lat, keyPrecision, c.Lon)
}
