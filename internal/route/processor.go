package route

import (
	"context"
	"fmt"
	"sort"

	"github.com/rs/zerolog"

	"github.com/routewise/routewise/internal/geo"
	"github.com/routewise/routewise/internal/simplify"
	"github.com/routewise/routewise/internal/snap"
	"github.com/routewise/routewise/pkg/polyline"
)

const (
	// DefaultAverageSpeedKmh is the assumed vehicle speed used to estimate
	// duration when the input lacks timestamps.
	DefaultAverageSpeedKmh = 40.0
)

// Snapper aligns a trace to road geometry. Implemented by snap.Service.
type Snapper interface {
	Snap(ctx context.Context, points []geo.Coordinate) []snap.Point
}

// Geocoder resolves addresses for a trace. Implemented by geocode.Service.
type Geocoder interface {
	Reverse(ctx context.Context, points []geo.Coordinate) []string
}

// ProcessorConfig holds configuration for the route processor.
type ProcessorConfig struct {
	// Snapper handles road snapping. Optional; without one SnapToRoads
	// requests keep raw coordinates.
	Snapper Snapper

	// Geocoder handles reverse geocoding. Optional; without one
	// ReverseGeocode requests yield no addresses.
	Geocoder Geocoder

	// Logger for pipeline operations.
	Logger zerolog.Logger

	// EpsilonKm is the simplification tolerance. Default 0.03 km.
	EpsilonKm float64

	// AverageSpeedKmh is the duration-estimate fallback speed. Default 40.
	AverageSpeedKmh float64
}

// Processor runs the route pipeline. Safe for concurrent use; all per-request
// state is local to Process.
type Processor struct {
	snapper         Snapper
	geocoder        Geocoder
	logger          zerolog.Logger
	epsilonKm       float64
	averageSpeedKmh float64
}

// NewProcessor creates a route processor.
func NewProcessor(cfg ProcessorConfig) *Processor {
	epsilon := cfg.EpsilonKm
	if epsilon == 0 {
		epsilon = simplify.DefaultEpsilonKm
	}
	speed := cfg.AverageSpeedKmh
	if speed == 0 {
		speed = DefaultAverageSpeedKmh
	}

	return &Processor{
		snapper:         cfg.Snapper,
		geocoder:        cfg.Geocoder,
		logger:          cfg.Logger,
		epsilonKm:       epsilon,
		averageSpeedKmh: speed,
	}
}

// Process runs the pipeline over coords. Upstream degradation (snap fallback,
// unresolved addresses) never fails a request; only invalid input or invalid
// tunables return an error.
func (p *Processor) Process(ctx context.Context, coords []Coordinate, opts Options) (*Result, error) {
	if len(coords) == 0 {
		return nil, &ValidationError{Reason: "coordinate list is empty"}
	}
	if p.epsilonKm <= 0 {
		return nil, &ConfigurationError{Reason: fmt.Sprintf("epsilon must be positive, got %g", p.epsilonKm)}
	}

	ordered := make([]Coordinate, len(coords))
	copy(ordered, coords)
	for i, c := range ordered {
		if err := geo.Validate(geo.Coordinate{Lat: c.Lat, Lon: c.Lng}); err != nil {
			return nil, &ValidationError{Reason: fmt.Sprintf("coordinate %d: %v", i, err)}
		}
	}

	sortByTimestamp(ordered)

	working := ordered
	if opts.Simplify && len(ordered) > 2 {
		kept, err := simplify.Indices(toGeo(ordered), p.epsilonKm)
		if err != nil {
			return nil, &ConfigurationError{Reason: err.Error()}
		}
		working = make([]Coordinate, len(kept))
		for i, idx := range kept {
			working[i] = ordered[idx]
		}
		p.logger.Debug().
			Int("original", len(ordered)).
			Int("simplified", len(working)).
			Msg("route simplified")
	}

	points := make([]ProcessedPoint, len(working))
	for i, c := range working {
		points[i] = ProcessedPoint{Lat: c.Lat, Lng: c.Lng, Timestamp: c.Timestamp}
	}

	if opts.SnapToRoads && p.snapper != nil {
		snapped := p.snapper.Snap(ctx, toGeo(working))
		if len(snapped) == len(points) {
			for i, sp := range snapped {
				points[i].Lat = sp.Lat
				points[i].Lng = sp.Lon
				points[i].Snapped = sp.Snapped
			}
		}
	}

	totalKm := p.annotateDistances(points)

	if opts.ReverseGeocode && p.geocoder != nil {
		addresses := p.geocoder.Reverse(ctx, finalGeo(points))
		if len(addresses) == len(points) {
			for i, addr := range addresses {
				points[i].Address = addr
			}
		}
	}

	encoded := polyline.Encode(toPolyline(points))

	return &Result{
		OriginalPoints:           len(coords),
		ProcessedPoints:          len(points),
		Route:                    points,
		EncodedPolyline:          encoded,
		TotalDistanceKm:          totalKm,
		EstimatedDurationMinutes: p.estimateDuration(points, totalKm),
	}, nil
}

// annotateDistances fills per-point distance and speed and returns the total
// route distance.
func (p *Processor) annotateDistances(points []ProcessedPoint) float64 {
	total := 0.0
	for i := 1; i < len(points); i++ {
		d := geo.Distance(
			geo.Coordinate{Lat: points[i-1].Lat, Lon: points[i-1].Lng},
			geo.Coordinate{Lat: points[i].Lat, Lon: points[i].Lng},
		)
		points[i].DistanceFromPreviousKm = d
		total += d

		prev, cur := points[i-1].Timestamp, points[i].Timestamp
		if prev != nil && cur != nil {
			if hours := cur.Sub(*prev).Hours(); hours > 0 {
				points[i].SpeedKmh = d / hours
			}
		}
	}
	return total
}

// estimateDuration prefers elapsed timestamps over the average-speed
// assumption.
func (p *Processor) estimateDuration(points []ProcessedPoint, totalKm float64) float64 {
	if len(points) < 2 {
		return 0
	}
	first, last := points[0].Timestamp, points[len(points)-1].Timestamp
	allTimestamped := true
	for _, pt := range points {
		if pt.Timestamp == nil {
			allTimestamped = false
			break
		}
	}
	if allTimestamped {
		if elapsed := last.Sub(*first); elapsed > 0 {
			return elapsed.Minutes()
		}
	}
	return totalKm / p.averageSpeedKmh * 60
}

// sortByTimestamp orders timestamped points chronologically among themselves.
// Points without timestamps keep their original positions; comparing a nil
// timestamp against a real one has no defined order, so they stay out of the
// sort entirely.
func sortByTimestamp(coords []Coordinate) {
	var idx []int
	for i, c := range coords {
		if c.Timestamp != nil {
			idx = append(idx, i)
		}
	}
	if len(idx) < 2 {
		return
	}

	timestamped := make([]Coordinate, len(idx))
	for j, i := range idx {
		timestamped[j] = coords[i]
	}
	sort.SliceStable(timestamped, func(i, j int) bool {
		return timestamped[i].Timestamp.Before(*timestamped[j].Timestamp)
	})
	for j, i := range idx {
		coords[i] = timestamped[j]
	}
}

func toGeo(coords []Coordinate) []geo.Coordinate {
	out := make([]geo.Coordinate, len(coords))
	for i, c := range coords {
		out[i] = geo.Coordinate{Lat: c.Lat, Lon: c.Lng}
	}
	return out
}

func finalGeo(points []ProcessedPoint) []geo.Coordinate {
	out := make([]geo.Coordinate, len(points))
	for i, p := range points {
		out[i] = geo.Coordinate{Lat: p.Lat, Lon: p.Lng}
	}
	return out
}

func toPolyline(points []ProcessedPoint) []polyline.Point {
	out := make([]polyline.Point, len(points))
	for i, p := range points {
		out[i] = polyline.Point{Lat: p.Lat, Lon: p.Lng}
	}
	return out
}
