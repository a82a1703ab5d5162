// Package geo provides geographic primitives for route processing:
// great-circle distance and point-to-segment deviation.
package geo

import (
	"errors"
	"fmt"
	"math"
)

// EarthRadiusKm is the mean Earth radius used for great-circle math.
const EarthRadiusKm = 6371.0

// ErrInvalidCoordinate indicates a coordinate outside valid geographic bounds.
var ErrInvalidCoordinate = errors.New("invalid coordinate")

// Coordinate represents a geographic point.
type Coordinate struct {
	Lat float64
	Lon float64
}

// Validate checks that the coordinate is a real point within geographic bounds.
func Validate(c Coordinate) error {
	if math.IsNaN(c.Lat) || math.IsNaN(c.Lon) || math.IsInf(c.Lat, 0) || math.IsInf(c.Lon, 0) {
		return fmt.Errorf("%w: non-finite lat/lon", ErrInvalidCoordinate)
	}
	if c.Lat < -90 || c.Lat > 90 {
		return fmt.Errorf("%w: latitude %f out of range [-90, 90]", ErrInvalidCoordinate, c.Lat)
	}
	if c.Lon < -180 || c.Lon > 180 {
		return fmt.Errorf("%w: longitude %f out of range [-180, 180]", ErrInvalidCoordinate, c.Lon)
	}
	return nil
}

// InBounds reports whether the coordinate lies within valid geographic bounds.
func InBounds(c Coordinate) bool {
	return Validate(c) == nil
}

// Distance returns the haversine great-circle distance between a and b in kilometers.
func Distance(a, b Coordinate) float64 {
	lat1 := radians(a.Lat)
	lat2 := radians(b.Lat)
	dLat := radians(b.Lat - a.Lat)
	dLon := radians(b.Lon - a.Lon)

	sinDLat := math.Sin(dLat / 2)
	sinDLon := math.Sin(dLon / 2)

	h := sinDLat*sinDLat + math.Cos(lat1)*math.Cos(lat2)*sinDLon*sinDLon
	return 2 * EarthRadiusKm * math.Asin(math.Min(1, math.Sqrt(h)))
}

// PerpendicularDistance returns the cross-track distance in kilometers from p
// to the great circle through a and b. When a and b coincide it degenerates to
// the point-to-point distance.
func PerpendicularDistance(p, a, b Coordinate) float64 {
	d := Distance(a, b)
	if d == 0 {
		return Distance(a, p)
	}

	// Angular distance from a to p and the difference between the bearings
	// a->p and a->b give the cross-track distance.
	delta13 := Distance(a, p) / EarthRadiusKm
	theta13 := bearing(a, p)
	theta12 := bearing(a, b)

	return math.Abs(math.Asin(math.Sin(delta13)*math.Sin(theta13-theta12)) * EarthRadiusKm)
}

// bearing returns the initial bearing from a to b in radians.
func bearing(a, b Coordinate) float64 {
	lat1 := radians(a.Lat)
	lat2 := radians(b.Lat)
	dLon := radians(b.Lon - a.Lon)

	y := math.Sin(dLon) * math.Cos(lat2)
	x := math.Cos(lat1)*math.Sin(lat2) - math.Sin(lat1)*math.Cos(lat2)*math.Cos(dLon)
	return math.Atan2(y, x)
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}
