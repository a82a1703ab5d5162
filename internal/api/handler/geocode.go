package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/routewise/routewise/internal/api/models"
	"github.com/routewise/routewise/internal/api/response"
	"github.com/routewise/routewise/internal/geo"
)

// maxBatchPoints caps the coordinate count accepted by the thin wrapper
// endpoints.
const maxBatchPoints = 500

// Geocoder resolves batches of coordinates. Implemented by geocode.Service.
type Geocoder interface {
	Reverse(ctx context.Context, points []geo.Coordinate) []string
}

// GeocodeHandler handles the batch reverse-geocode endpoint.
type GeocodeHandler struct {
	geocoder Geocoder
}

// NewGeocodeHandler creates a new GeocodeHandler.
func NewGeocodeHandler(geocoder Geocoder) *GeocodeHandler {
	return &GeocodeHandler{geocoder: geocoder}
}

// ReverseGeocode handles POST /v1/geocode.
func (h *GeocodeHandler) ReverseGeocode(w http.ResponseWriter, r *http.Request) {
	var input models.GeocodeRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}

	points, ferr := toGeoBatch(input.Coordinates)
	if ferr != nil {
		response.BadRequest(w, r, "invalid coordinates", ferr)
		return
	}

	addresses := h.geocoder.Reverse(r.Context(), points)

	results := make([]models.GeocodeResult, len(points))
	for i, p := range points {
		results[i] = models.GeocodeResult{Lat: p.Lat, Lng: p.Lon, Address: addresses[i]}
	}
	response.JSON(w, r, http.StatusOK, models.GeocodeResponse{Results: results})
}

// toGeoBatch validates a wrapper-endpoint batch, returning field errors for
// invalid input.
func toGeoBatch(coords []models.GeocodePoint) ([]geo.Coordinate, []models.FieldError) {
	if len(coords) == 0 {
		return nil, []models.FieldError{{Field: "coordinates", Message: "must not be empty"}}
	}
	if len(coords) > maxBatchPoints {
		return nil, []models.FieldError{{Field: "coordinates", Message: "too many points"}}
	}

	points := make([]geo.Coordinate, len(coords))
	for i, c := range coords {
		points[i] = geo.Coordinate{Lat: c.Lat, Lon: c.Lng}
		if err := geo.Validate(points[i]); err != nil {
			return nil, []models.FieldError{{Field: "coordinates", Message: err.Error()}}
		}
	}
	return points, nil
}
