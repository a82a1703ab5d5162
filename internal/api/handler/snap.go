package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/routewise/routewise/internal/api/models"
	"github.com/routewise/routewise/internal/api/response"
	"github.com/routewise/routewise/internal/geo"
	"github.com/routewise/routewise/internal/snap"
)

// Snapper aligns traces to road geometry. Implemented by snap.Service.
type Snapper interface {
	Snap(ctx context.Context, points []geo.Coordinate) []snap.Point
}

// SnapHandler handles the snap-only endpoint.
type SnapHandler struct {
	snapper Snapper
}

// NewSnapHandler creates a new SnapHandler.
func NewSnapHandler(snapper Snapper) *SnapHandler {
	return &SnapHandler{snapper: snapper}
}

// SnapRoute handles POST /v1/snap.
func (h *SnapHandler) SnapRoute(w http.ResponseWriter, r *http.Request) {
	var input models.SnapRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}

	points, ferr := toGeoBatch(input.Coordinates)
	if ferr != nil {
		response.BadRequest(w, r, "invalid coordinates", ferr)
		return
	}

	snapped := h.snapper.Snap(r.Context(), points)

	results := make([]models.SnapResult, len(snapped))
	for i, p := range snapped {
		results[i] = models.SnapResult{Lat: p.Lat, Lng: p.Lon, Snapped: p.Snapped}
	}
	response.JSON(w, r, http.StatusOK, models.SnapResponse{Points: results})
}
