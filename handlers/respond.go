package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"transitdesk/analytics"
	"transitdesk/backend"
	"transitdesk/export"
	"transitdesk/listing"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, message string, status int) {
	writeJSON(w, status, map[string]string{
		"error": message,
	})
}

// decodeBody reads a JSON body keeping numbers as json.Number.
func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	return dec.Decode(v)
}

// statusFor maps a domain error onto the HTTP status the console replies with.
func statusFor(err error) int {
	var se *backend.StatusError
	switch {
	case errors.Is(err, listing.ErrMissingKey),
		errors.Is(err, listing.ErrUnknownFilter),
		errors.Is(err, analytics.ErrNoFilters):
		return http.StatusBadRequest
	case errors.Is(err, listing.ErrNotFound), errors.Is(err, export.ErrEmpty):
		return http.StatusNotFound
	case errors.As(err, &se):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
