package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"transitdesk/auth"
	"transitdesk/logging"
)

// Resetter discards state cached under the previous session.
type Resetter interface {
	Reset()
}

type SessionHandler struct {
	provider *auth.Provider
	client   auth.Poster
	cached   Resetter
	logger   *zap.Logger
}

func NewSessionHandler(provider *auth.Provider, client auth.Poster, cached Resetter, logger *zap.Logger) *SessionHandler {
	return &SessionHandler{
		provider: provider,
		client:   client,
		cached:   cached,
		logger:   logger,
	}
}

// LoginRequest carries either a token issued elsewhere or backend credentials.
type LoginRequest struct {
	Token    string          `json:"token"`
	User     json.RawMessage `json:"user,omitempty"`
	UserName string          `json:"user_name"`
	Password string          `json:"password"`
}

type SessionResponse struct {
	UserID  string          `json:"user_id"`
	RoleID  auth.Role       `json:"role_id"`
	Role    string          `json:"role"`
	User    json.RawMessage `json:"user,omitempty"`
	Message string          `json:"message,omitempty"`
}

func sessionResponse(s *auth.Session, message string) SessionResponse {
	return SessionResponse{
		UserID:  s.UserID,
		RoleID:  s.RoleID,
		Role:    s.RoleID.String(),
		User:    s.User,
		Message: message,
	}
}

// Login handles operator sign-in
func (h *SessionHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	// A bearer header stands in for a body token.
	if req.Token == "" && req.UserName == "" {
		if header := r.Header.Get("Authorization"); header != "" {
			token, err := auth.ExtractToken(header)
			if err != nil {
				writeError(w, err.Error(), http.StatusUnauthorized)
				return
			}
			req.Token = token
		}
	}

	var (
		s       *auth.Session
		message string
		err     error
	)
	h.cached.Reset()
	switch {
	case strings.TrimSpace(req.Token) != "":
		s, err = h.provider.Login(r.Context(), strings.TrimSpace(req.Token), req.User)
	case req.UserName != "" || req.Password != "":
		s, message, err = h.provider.BackendLogin(r.Context(), h.client, auth.Credentials{
			UserName: req.UserName,
			Password: req.Password,
		})
	default:
		writeError(w, "Token or user name and password are required", http.StatusBadRequest)
		return
	}
	if err != nil {
		h.logger.Warn("login failed", zap.Error(err))
		writeError(w, err.Error(), http.StatusUnauthorized)
		return
	}

	logging.Audit(h.logger, s.UserID, logging.ActionLogin, s.RoleID.String())
	if message == "" {
		message = "Login successful"
	}
	writeJSON(w, http.StatusOK, sessionResponse(s, message))
}

// Logout clears the stored session
func (h *SessionHandler) Logout(w http.ResponseWriter, r *http.Request) {
	userID := h.provider.UserID()
	h.cached.Reset()
	if err := h.provider.Logout(r.Context()); err != nil {
		h.logger.Error("logout failed", zap.Error(err))
		writeError(w, "Failed to clear session", http.StatusInternalServerError)
		return
	}
	logging.Audit(h.logger, userID, logging.ActionLogout, "")
	writeJSON(w, http.StatusOK, map[string]string{"message": "Logged out"})
}

// Current reports the signed-in operator
func (h *SessionHandler) Current(w http.ResponseWriter, r *http.Request) {
	s := h.provider.Snapshot()
	switch auth.Decide(s, nil) {
	case auth.OutcomeRedirect:
		writeJSON(w, http.StatusUnauthorized, map[string]string{
			"error":    "Not signed in",
			"redirect": "/",
		})
	case auth.OutcomeLoading:
		w.Header().Set("Retry-After", "1")
		writeError(w, "Session is loading", http.StatusServiceUnavailable)
	default:
		writeJSON(w, http.StatusOK, sessionResponse(s, ""))
	}
}
