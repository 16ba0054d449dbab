package middleware

import (
	"context"
	"encoding/json"
	"net/http"

	"transitdesk/auth"
)

type contextKey string

const SessionContextKey contextKey = "session"

// SessionSource yields the session the guard decides on.
type SessionSource interface {
	Snapshot() *auth.Session
}

// RequireSession guards a handler with the access decision. An empty
// allowed set admits any signed-in operator.
func RequireSession(sessions SessionSource, allowed ...auth.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			s := sessions.Snapshot()
			switch auth.Decide(s, allowed) {
			case auth.OutcomeRedirect:
				writeJSON(w, http.StatusUnauthorized, map[string]string{
					"error":    "Authentication required",
					"redirect": "/",
				})
			case auth.OutcomeLoading:
				w.Header().Set("Retry-After", "1")
				writeError(w, "Session is loading", http.StatusServiceUnavailable)
			case auth.OutcomeDenied:
				writeJSON(w, http.StatusForbidden, map[string]string{
					"error":   "Access Denied",
					"message": "You don't have permission to view this page.",
				})
			default:
				ctx := context.WithValue(r.Context(), SessionContextKey, s)
				next.ServeHTTP(w, r.WithContext(ctx))
			}
		})
	}
}

// GetSessionFromContext retrieves the session stored by RequireSession
func GetSessionFromContext(ctx context.Context) (*auth.Session, bool) {
	s, ok := ctx.Value(SessionContextKey).(*auth.Session)
	return s, ok && s != nil
}

func writeError(w http.ResponseWriter, message string, status int) {
	writeJSON(w, status, map[string]string{
		"error": message,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
