package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"transitdesk/lookup"
)

type TripOptionsHandler struct {
	api    lookup.Lister
	logger *zap.Logger
}

func NewTripOptionsHandler(api lookup.Lister, logger *zap.Logger) *TripOptionsHandler {
	return &TripOptionsHandler{api: api, logger: logger}
}

// Get returns every dropdown collection of the trip form, or nothing.
func (h *TripOptionsHandler) Get(w http.ResponseWriter, r *http.Request) {
	opts, err := lookup.LoadTripOptions(r.Context(), h.api)
	if err != nil {
		h.logger.Error("failed to load trip options", zap.Error(err))
		writeError(w, "Failed to load trip form options", statusFor(err))
		return
	}
	writeJSON(w, http.StatusOK, opts)
}
