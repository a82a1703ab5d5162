// Package polyline implements the Google encoded polyline format used by map
// renderers: coordinates scaled to 1e-5 precision, delta-encoded against the
// previous point, zigzag-encoded and emitted as 5-bit ASCII groups offset by 63.
// See https://developers.google.com/maps/documentation/utilities/polylinealgorithm
package polyline

import "math"

// precision is the fixed coordinate scale of the standard format (5 decimals).
const precision = 1e5

// Point is a latitude/longitude pair.
type Point struct {
	Lat float64
	Lon float64
}

// Encode encodes points into a polyline string. An empty input yields "".
// Round-tripping through Decode recovers each coordinate within 1e-5 degrees.
func Encode(points []Point) string {
	if len(points) == 0 {
		return ""
	}

	buf := make([]byte, 0, len(points)*6)
	var prevLat, prevLon int64

	for _, p := range points {
		lat := scale(p.Lat)
		lon := scale(p.Lon)
		buf = appendSigned(buf, lat-prevLat)
		buf = appendSigned(buf, lon-prevLon)
		prevLat, prevLon = lat, lon
	}

	return string(buf)
}

// Decode is the inverse of Encode. It returns nil for an empty string.
func Decode(encoded string) []Point {
	if encoded == "" {
		return nil
	}

	var points []Point
	var lat, lon int64
	i := 0

	for i < len(encoded) {
		dLat, n := readSigned(encoded, i)
		i = n
		dLon, n := readSigned(encoded, i)
		i = n

		lat += dLat
		lon += dLon
		points = append(points, Point{
			Lat: float64(lat) / precision,
			Lon: float64(lon) / precision,
		})
	}

	return points
}

// LengthKm returns the total haversine length of the path in kilometers.
func LengthKm(points []Point) float64 {
	var total float64
	for i := 1; i < len(points); i++ {
		total += haversineKm(points[i-1], points[i])
	}
	return total
}

func scale(deg float64) int64 {
	return int64(math.Round(deg * precision))
}

// appendSigned zigzag-encodes v and appends it as 5-bit groups, each offset by
// 63, with bit 0x20 marking continuation.
func appendSigned(buf []byte, v int64) []byte {
	u := v << 1
	if v < 0 {
		u = ^u
	}
	for u >= 0x20 {
		buf = append(buf, byte(0x20|(u&0x1f))+63)
		u >>= 5
	}
	return append(buf, byte(u)+63)
}

// readSigned decodes one zigzag value starting at index i, returning the value
// and the index of the next unread byte.
func readSigned(s string, i int) (int64, int) {
	var u int64
	var shift uint

	for i < len(s) {
		b := int64(s[i]) - 63
		i++
		u |= (b & 0x1f) << shift
		shift += 5
		if b < 0x20 {
			break
		}
	}

	if u&1 != 0 {
		return ^(u >> 1), i
	}
	return u >> 1, i
}

const earthRadiusKm = 6371.0

func haversineKm(a, b Point) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLon := (b.Lon - a.Lon) * math.Pi / 180

	sinLat := math.Sin(dLat / 2)
	sinLon := math.Sin(dLon / 2)
	h := sinLat*sinLat + math.Cos(lat1)*math.Cos(lat2)*sinLon*sinLon
	return 2 * earthRadiusKm * math.Asin(math.Sqrt(h))
}
