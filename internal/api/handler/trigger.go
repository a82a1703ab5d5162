package handler

import (
	"context"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/routewise/routewise/internal/api/models"
	"github.com/routewise/routewise/internal/api/response"
)

// Poller drives the tracking backend's poll endpoints. Implemented by
// backend.Client.
type Poller interface {
	PollLocations(ctx context.Context) error
	PollConsent(ctx context.Context) error
}

// TriggerHandler handles manual cron triggers.
type TriggerHandler struct {
	poller Poller
	logger zerolog.Logger
}

// NewTriggerHandler creates a new TriggerHandler.
func NewTriggerHandler(poller Poller, logger zerolog.Logger) *TriggerHandler {
	return &TriggerHandler{poller: poller, logger: logger}
}

// LocationPoll handles POST /v1/trigger/location-poll.
func (h *TriggerHandler) LocationPoll(w http.ResponseWriter, r *http.Request) {
	h.trigger(w, r, "location-poll", h.poller.PollLocations)
}

// ConsentPoll handles POST /v1/trigger/consent-poll.
func (h *TriggerHandler) ConsentPoll(w http.ResponseWriter, r *http.Request) {
	h.trigger(w, r, "consent-poll", h.poller.PollConsent)
}

func (h *TriggerHandler) trigger(w http.ResponseWriter, r *http.Request, job string, run func(context.Context) error) {
	if h.poller == nil {
		response.ServiceUnavailable(w, r, "tracking backend is not configured")
		return
	}

	if err := run(r.Context()); err != nil {
		h.logger.Error().Err(err).Str("job", job).Msg("manual trigger failed")
		response.ServiceUnavailable(w, r, "backend poll failed")
		return
	}

	response.JSON(w, r, http.StatusOK, models.TriggerResponse{Triggered: true, Job: job})
}
