// Package handler provides HTTP handlers for the routewise API.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/routewise/routewise/internal/api/models"
	"github.com/routewise/routewise/internal/api/response"
	"github.com/routewise/routewise/internal/route"
)

// RouteProcessor runs the route pipeline. Implemented by route.Processor.
type RouteProcessor interface {
	Process(ctx context.Context, coords []route.Coordinate, opts route.Options) (*route.Result, error)
}

// RouteHandler handles route-processing endpoints.
type RouteHandler struct {
	processor RouteProcessor
}

// NewRouteHandler creates a new RouteHandler.
func NewRouteHandler(processor RouteProcessor) *RouteHandler {
	return &RouteHandler{processor: processor}
}

// ProcessRoute handles POST /v1/routes:process.
func (h *RouteHandler) ProcessRoute(w http.ResponseWriter, r *http.Request) {
	var input models.ProcessRouteRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}

	if len(input.Coordinates) == 0 {
		response.BadRequest(w, r, "at least one coordinate is required", []models.FieldError{
			{Field: "coordinates", Message: "must not be empty"},
		})
		return
	}

	result, err := h.processor.Process(r.Context(), input.Coordinates, input.Options())
	if err != nil {
		var verr *route.ValidationError
		if errors.As(err, &verr) {
			response.BadRequest(w, r, verr.Error(), nil)
			return
		}
		var cerr *route.ConfigurationError
		if errors.As(err, &cerr) {
			response.InternalError(w, r, cerr.Error())
			return
		}
		response.InternalError(w, r, "route processing failed")
		return
	}

	response.JSON(w, r, http.StatusOK, result)
}
