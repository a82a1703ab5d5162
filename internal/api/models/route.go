package models

import "github.com/routewise/routewise/internal/route"

// ProcessRouteRequest is the body of POST /v1/routes:process.
type ProcessRouteRequest struct {
	Coordinates    []route.Coordinate `json:"coordinates"`
	Simplify       *bool              `json:"simplify,omitempty"`
	SnapToRoads    *bool              `json:"snap_to_roads,omitempty"`
	ReverseGeocode *bool              `json:"reverse_geocode,omitempty"`
}

// Options resolves the request flags, defaulting unset ones to true for
// simplify/snap and false for geocoding (geocoding is the slow path).
func (r *ProcessRouteRequest) Options() route.Options {
	opts := route.Options{Simplify: true, SnapToRoads: true}
	if r.Simplify != nil {
		opts.Simplify = *r.Simplify
	}
	if r.SnapToRoads != nil {
		opts.SnapToRoads = *r.SnapToRoads
	}
	if r.ReverseGeocode != nil {
		opts.ReverseGeocode = *r.ReverseGeocode
	}
	return opts
}

// GeocodePoint is one coordinate in a batch geocode request.
type GeocodePoint struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// GeocodeRequest is the body of POST /v1/geocode.
type GeocodeRequest struct {
	Coordinates []GeocodePoint `json:"coordinates"`
}

// GeocodeResult pairs an input coordinate with its resolved address. Address
// is empty when the lookup could not resolve.
type GeocodeResult struct {
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
	Address string  `json:"address,omitempty"`
}

// GeocodeResponse is the body of a successful batch geocode.
type GeocodeResponse struct {
	Results []GeocodeResult `json:"results"`
}

// SnapRequest is the body of POST /v1/snap.
type SnapRequest struct {
	Coordinates []GeocodePoint `json:"coordinates"`
}

// SnapResult is one snapped point. Snapped is false when the point kept its
// original position.
type SnapResult struct {
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
	Snapped bool    `json:"snapped"`
}

// SnapResponse is the body of a successful snap call.
type SnapResponse struct {
	Points []SnapResult `json:"points"`
}

// TriggerResponse acknowledges a manual poll trigger.
type TriggerResponse struct {
	Triggered bool   `json:"triggered"`
	Job       string `json:"job"`
}
