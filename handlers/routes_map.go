package handlers

import (
	"context"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"transitdesk/listing"
	"transitdesk/lookup"
	"transitdesk/mapview"
	"transitdesk/models"
)

// routeDetailsPath returns the stops of one route in stop order.
const routeDetailsPath = "/route_details"

type MapHandler struct {
	api      lookup.Lister
	registry *listing.Registry
	base     mapview.View
	logger   *zap.Logger
}

func NewMapHandler(api lookup.Lister, registry *listing.Registry, base *mapview.View, logger *zap.Logger) *MapHandler {
	return &MapHandler{api: api, registry: registry, base: *base, logger: logger}
}

type RouteMapResponse struct {
	Details models.Record    `json:"details"`
	Dropped int              `json:"dropped"`
	Map     mapview.Rendered `json:"map"`
}

// RouteMap renders a route's stops as markers centered on the first stop.
func (h *MapHandler) RouteMap(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(r.PathValue("id"))
	if id == "" {
		writeError(w, "Route id is required", http.StatusBadRequest)
		return
	}
	view := h.base
	if s := r.URL.Query().Get("style"); s != "" {
		style, err := mapview.ParseStyle(s)
		if err != nil {
			writeError(w, err.Error(), http.StatusBadRequest)
			return
		}
		_ = view.SetStyle(style)
	}

	stops, err := h.api.List(r.Context(), routeDetailsPath+"/"+id, nil)
	if err != nil {
		h.logger.Error("failed to fetch route details", zap.String("route_id", id), zap.Error(err))
		writeError(w, "Failed to fetch route details", statusFor(err))
		return
	}

	res := models.Stops
	dropped := view.SetMarkers(mapview.MarkersFrom(stops, res.LatField, res.LngField, res.MarkerLabel))
	view.FocusFirst()

	details := models.Record{}
	if len(stops) > 0 {
		details = stops[0].Clone()
	}
	details["routeName"] = h.routeName(r.Context(), id)

	writeJSON(w, http.StatusOK, RouteMapResponse{
		Details: details,
		Dropped: dropped,
		Map:     view.Render(),
	})
}

// routeName looks the route up in the routes list, loading it first when
// nothing has been fetched yet.
func (h *MapHandler) routeName(ctx context.Context, id string) string {
	c, ok := h.registry.Controller(models.Routes.Name)
	if !ok {
		return "Unknown"
	}
	if c.State() == listing.StateIdle {
		if err := c.FetchAll(ctx); err != nil {
			h.logger.Warn("failed to load routes for map", zap.Error(err))
			return "Unknown"
		}
	}
	if r, found := c.Index()[id]; found {
		if name := r.String("route_name"); name != "" {
			return name
		}
	}
	return "Unknown"
}
