package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"transitdesk/analytics"
	"transitdesk/export"
	"transitdesk/logging"
	"transitdesk/models"
)

type AnalyticsHandler struct {
	api    analytics.Backend
	logger *zap.Logger
	now    func() time.Time
}

func NewAnalyticsHandler(api analytics.Backend, logger *zap.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{api: api, logger: logger, now: time.Now}
}

// Report builds one analytics row. With ?format=csv the row is downloaded.
func (h *AnalyticsHandler) Report(w http.ResponseWriter, r *http.Request) {
	tab := analytics.Tab(r.PathValue("tab"))
	columns, err := analytics.Columns(tab)
	if err != nil {
		writeError(w, err.Error(), http.StatusNotFound)
		return
	}

	var f analytics.Filters
	if err := decodeBody(r, &f); err != nil {
		writeError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	row, err := analytics.Run(r.Context(), h.api, tab, f)
	if err != nil {
		status := statusFor(err)
		if !errors.Is(err, analytics.ErrNoFilters) {
			h.logger.Error("analytics report failed", zap.String("tab", string(tab)), zap.Error(err))
		}
		writeError(w, err.Error(), status)
		return
	}

	if r.URL.Query().Get("format") != "csv" {
		writeJSON(w, http.StatusOK, map[string]any{
			"tab":     tab,
			"columns": columns,
			"row":     row,
		})
		return
	}

	var buf bytes.Buffer
	if err := export.RecordsCSV(&buf, columns, []models.Record{row}); err != nil {
		writeError(w, export.EmptyNotice, statusFor(err))
		return
	}
	logging.Audit(h.logger, sessionUser(r), logging.ActionDataExport, "exported "+analytics.FilePrefix(tab))
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", export.FileName(analytics.FilePrefix(tab), h.now())))
	_, _ = buf.WriteTo(w)
}
