package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"transitdesk/auth"
	"transitdesk/middleware"
)

// Handlers groups the console's request handlers.
type Handlers struct {
	Session   *SessionHandler
	Entities  *EntityHandler
	Trips     *TripOptionsHandler
	Maps      *MapHandler
	Calendar  *CalendarHandler
	Analytics *AnalyticsHandler
}

// Register mounts the console API on mux. Session endpoints are open;
// the calendar needs any signed-in operator; everything else needs an
// entity role.
func (h *Handlers) Register(mux *http.ServeMux, sessions middleware.SessionSource) {
	signedIn := middleware.RequireSession(sessions)
	entity := middleware.RequireSession(sessions, auth.EntityRoles...)

	mux.HandleFunc("POST /api/session/login", h.Session.Login)
	mux.HandleFunc("POST /api/session/logout", h.Session.Logout)
	mux.HandleFunc("GET /api/session", h.Session.Current)

	mux.Handle("GET /api/calendar", signedIn(http.HandlerFunc(h.Calendar.Month)))
	mux.Handle("POST /api/calendar/toggle", signedIn(http.HandlerFunc(h.Calendar.Toggle)))
	mux.Handle("POST /api/calendar/note", signedIn(http.HandlerFunc(h.Calendar.Note)))

	mux.Handle("GET /api/trip-options", entity(http.HandlerFunc(h.Trips.Get)))
	mux.Handle("GET /api/routes/{id}/map", entity(http.HandlerFunc(h.Maps.RouteMap)))
	mux.Handle("POST /api/analytics/{tab}", entity(http.HandlerFunc(h.Analytics.Report)))

	mux.Handle("GET /api/{resource}", entity(http.HandlerFunc(h.Entities.List)))
	mux.Handle("POST /api/{resource}", entity(http.HandlerFunc(h.Entities.Create)))
	mux.Handle("GET /api/{resource}/{file}", entity(http.HandlerFunc(h.Entities.Export)))
	mux.Handle("PUT /api/{resource}/{id}", entity(http.HandlerFunc(h.Entities.Update)))
	mux.Handle("DELETE /api/{resource}/{id}", entity(http.HandlerFunc(h.Entities.Delete)))
}

// Chain wraps the mux with the console's outer middleware, outermost first.
func Chain(h http.Handler, logger *zap.Logger, origins []string, limiter *middleware.RateLimiter) http.Handler {
	h = limiter.Middleware()(h)
	h = middleware.CORSMiddleware(origins)(h)
	return middleware.Instrument(logger)(h)
}
