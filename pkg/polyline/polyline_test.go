package polyline

import (
	"math"
	"testing"
)

// Reference example from the Google polyline documentation.
var googleExample = struct {
	encoded string
	points  []Point
}{
	encoded: "_p~iF~ps|U_ulLnnqC_mqNvxq`@",
	points: []Point{
		{Lat: 38.5, Lon: -120.2},
		{Lat: 40.7, Lon: -120.95},
		{Lat: 43.252, Lon: -126.453},
	},
}

func TestEncode_GoogleExample(t *testing.T) {
	got := Encode(googleExample.points)
	if got != googleExample.encoded {
		t.Errorf("Encode() = %q, want %q", got, googleExample.encoded)
	}
}

func TestDecode_GoogleExample(t *testing.T) {
	got := Decode(googleExample.encoded)
	if len(got) != len(googleExample.points) {
		t.Fatalf("expected %d points, got %d", len(googleExample.points), len(got))
	}
	for i, p := range got {
		if !pointsEqual(p, googleExample.points[i], 1e-5) {
			t.Errorf("point %d: got %+v, want %+v", i, p, googleExample.points[i])
		}
	}
}

func TestEncode_Empty(t *testing.T) {
	if got := Encode(nil); got != "" {
		t.Errorf("Encode(nil) = %q, want empty string", got)
	}
}

func TestDecode_Empty(t *testing.T) {
	if got := Decode(""); got != nil {
		t.Errorf("Decode(\"\") = %v, want nil", got)
	}
}

func TestRoundTrip(t *testing.T) {
	tests := []struct {
		name   string
		points []Point
	}{
		{
			name:   "single point",
			points: []Point{{Lat: 28.6139, Lon: 77.2090}},
		},
		{
			name: "dense gps trace",
			points: []Point{
				{Lat: 28.6139, Lon: 77.2090},
				{Lat: 28.61395, Lon: 77.20905},
				{Lat: 28.6140, Lon: 77.2091},
				{Lat: 28.6200, Lon: 77.2150},
				{Lat: 28.7000, Lon: 77.3000},
			},
		},
		{
			name: "negative hemisphere",
			points: []Point{
				{Lat: -33.8688, Lon: 151.2093},
				{Lat: -33.8700, Lon: 151.2100},
			},
		},
		{
			name: "crossing the antimeridian",
			points: []Point{
				{Lat: 0.0, Lon: 179.99995},
				{Lat: 0.0, Lon: -179.99995},
			},
		},
		{
			name: "extreme bounds",
			points: []Point{
				{Lat: 90, Lon: 180},
				{Lat: -90, Lon: -180},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decoded := Decode(Encode(tt.points))
			if len(decoded) != len(tt.points) {
				t.Fatalf("expected %d points, got %d", len(tt.points), len(decoded))
			}
			for i, p := range decoded {
				if !pointsEqual(p, tt.points[i], 1e-5) {
					t.Errorf("point %d: got %+v, want %+v (beyond 1e-5)", i, p, tt.points[i])
				}
			}
		})
	}
}

func TestLengthKm(t *testing.T) {
	// Two points ~1.11 km apart along a meridian.
	points := []Point{
		{Lat: 28.60, Lon: 77.20},
		{Lat: 28.61, Lon: 77.20},
	}
	got := LengthKm(points)
	if got < 1.0 || got > 1.2 {
		t.Errorf("LengthKm() = %f, want ~1.11", got)
	}

	if got := LengthKm(points[:1]); got != 0 {
		t.Errorf("LengthKm(single point) = %f, want 0", got)
	}
}

func pointsEqual(a, b Point, tol float64) bool {
	return math.Abs(a.Lat-b.Lat) <= tol && math.Abs(a.Lon-b.Lon) <= tol
}
