package snap

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/routewise/routewise/internal/geo"
)

// ServiceConfig holds configuration for the snapping service.
type ServiceConfig struct {
	// Provider is the map-matching backend (required).
	Provider Provider

	// Logger for service operations.
	Logger zerolog.Logger

	// MaxWaypoints is the waypoint cap per provider call. Default 100.
	MaxWaypoints int

	// MaxConcurrentChunks bounds in-flight chunk calls per request. Default 4.
	MaxConcurrentChunks int

	// MaxDisplacementKm is the sanity bound on how far a matched point may
	// move from its input. A chunk with a larger displacement is untrusted
	// and falls back to the originals. Default 0.5 km.
	MaxDisplacementKm float64

	// ChunkTimeout bounds each chunk call. Default 30s.
	ChunkTimeout time.Duration
}

// Service snaps GPS traces chunk by chunk. It holds no state between calls.
type Service struct {
	provider            Provider
	logger              zerolog.Logger
	maxWaypoints        int
	maxConcurrentChunks int
	maxDisplacementKm   float64
	chunkTimeout        time.Duration
}

// NewService creates a snapping service.
func NewService(cfg ServiceConfig) *Service {
	maxWaypoints := cfg.MaxWaypoints
	if maxWaypoints <= 0 {
		maxWaypoints = 100
	}
	maxConcurrent := cfg.MaxConcurrentChunks
	if maxConcurrent <= 0 {
		maxConcurrent = 4
	}
	maxDisplacement := cfg.MaxDisplacementKm
	if maxDisplacement <= 0 {
		maxDisplacement = 0.5
	}
	chunkTimeout := cfg.ChunkTimeout
	if chunkTimeout == 0 {
		chunkTimeout = 30 * time.Second
	}

	return &Service{
		provider:            cfg.Provider,
		logger:              cfg.Logger,
		maxWaypoints:        maxWaypoints,
		maxConcurrentChunks: maxConcurrent,
		maxDisplacementKm:   maxDisplacement,
		chunkTimeout:        chunkTimeout,
	}
}

// Snap returns one point per input point, in order. Points the provider could
// not match, and whole chunks whose calls failed or returned untrusted
// results, keep their original coordinates with Snapped=false. Snap never
// fails: with the provider fully unreachable the result is the input.
func (s *Service) Snap(ctx context.Context, points []geo.Coordinate) []Point {
	out := make([]Point, len(points))
	for i, p := range points {
		out[i] = Point{Coordinate: p}
	}
	if len(points) == 0 {
		return out
	}

	type chunk struct {
		start, end int // points[start:end]
	}
	var chunks []chunk
	for start := 0; start < len(points); start += s.maxWaypoints {
		end := start + s.maxWaypoints
		if end > len(points) {
			end = len(points)
		}
		chunks = append(chunks, chunk{start: start, end: end})
	}

	// Chunk calls run concurrently under a cap; each writes only its own
	// disjoint slice of out, reassembling results by original index.
	sem := make(chan struct{}, s.maxConcurrentChunks)
	var wg sync.WaitGroup

	for _, ch := range chunks {
		wg.Add(1)
		go func(ch chunk) {
			defer wg.Done()
			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				return
			}
			s.snapChunk(ctx, points[ch.start:ch.end], out[ch.start:ch.end])
		}(ch)
	}
	wg.Wait()

	return out
}

// snapChunk matches one chunk and fills result in place, falling back to the
// originals already present in result when the call fails or is untrusted.
func (s *Service) snapChunk(ctx context.Context, points []geo.Coordinate, result []Point) {
	chunkCtx, cancel := context.WithTimeout(ctx, s.chunkTimeout)
	defer cancel()

	matched, err := s.provider.Match(chunkCtx, points)
	if err != nil {
		s.logger.Warn().Err(err).
			Int("points", len(points)).
			Str("provider", s.provider.Name()).
			Msg("chunk snap failed, keeping original coordinates")
		return
	}

	if len(matched) != len(points) {
		s.logger.Warn().
			Int("requested", len(points)).
			Int("returned", len(matched)).
			Msg("snap result length mismatch, keeping original coordinates")
		return
	}

	// Validate the whole chunk before committing any of it.
	for i, m := range matched {
		if m == nil {
			continue
		}
		if !geo.InBounds(*m) || geo.Distance(points[i], *m) > s.maxDisplacementKm {
			s.logger.Warn().
				Float64("lat", m.Lat).
				Float64("lon", m.Lon).
				Float64("max_displacement_km", s.maxDisplacementKm).
				Msg("implausible snap result, keeping original coordinates for chunk")
			return
		}
	}

	for i, m := range matched {
		if m == nil {
			continue
		}
		result[i] = Point{Coordinate: *m, Snapped: true}
	}
}
