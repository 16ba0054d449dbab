package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"transitdesk/calendar"
	"transitdesk/middleware"
)

type CalendarHandler struct {
	builder *calendar.Builder
	logger  *zap.Logger
	now     func() time.Time
}

func NewCalendarHandler(builder *calendar.Builder, logger *zap.Logger) *CalendarHandler {
	return &CalendarHandler{builder: builder, logger: logger, now: time.Now}
}

// DayRequest names one calendar day.
type DayRequest struct {
	Year  int    `json:"year"`
	Month int    `json:"month"`
	Day   int    `json:"day"`
	Text  string `json:"text,omitempty"`
}

// Month renders the requested month, defaulting to the current one.
func (h *CalendarHandler) Month(w http.ResponseWriter, r *http.Request) {
	today := h.now()
	year, month := today.Year(), int(today.Month())
	q := r.URL.Query()
	if v := q.Get("year"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, "year must be an integer", http.StatusBadRequest)
			return
		}
		year = n
	}
	if v := q.Get("month"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, "month must be an integer", http.StatusBadRequest)
			return
		}
		month = n
	}
	if err := calendar.ValidMonth(month); err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, h.builder.Month(r.Context(), year, time.Month(month), today))
}

// Toggle flips the holiday override of one day
func (h *CalendarHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	var req DayRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	on, err := h.builder.ToggleHoliday(r.Context(), sessionUser(r), req.Year, time.Month(req.Month), req.Day)
	if err != nil {
		h.calendarError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"date":    calendar.ISODate(req.Year, time.Month(req.Month), req.Day),
		"holiday": on,
	})
}

// Note saves the note of one day; empty text removes it.
func (h *CalendarHandler) Note(w http.ResponseWriter, r *http.Request) {
	var req DayRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := h.builder.SetNote(r.Context(), sessionUser(r), req.Year, time.Month(req.Month), req.Day, req.Text); err != nil {
		h.calendarError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"key":  calendar.NoteKey(req.Year, time.Month(req.Month), req.Day),
		"note": req.Text,
	})
}

func (h *CalendarHandler) calendarError(w http.ResponseWriter, err error) {
	if errors.Is(err, calendar.ErrInvalidDate) {
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}
	h.logger.Error("calendar storage failed", zap.Error(err))
	writeError(w, "Failed to save calendar change", http.StatusInternalServerError)
}

func sessionUser(r *http.Request) string {
	if s, ok := middleware.GetSessionFromContext(r.Context()); ok {
		return s.UserID
	}
	return ""
}
