package handlers

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"transitdesk/export"
	"transitdesk/listing"
	"transitdesk/logging"
	"transitdesk/middleware"
	"transitdesk/models"
)

// filterPrefix marks list query parameters that set a filter.
const filterPrefix = "f."

type EntityHandler struct {
	registry *listing.Registry
	logger   *zap.Logger
	now      func() time.Time
}

func NewEntityHandler(registry *listing.Registry, logger *zap.Logger) *EntityHandler {
	return &EntityHandler{
		registry: registry,
		logger:   logger,
		now:      time.Now,
	}
}

func (h *EntityHandler) controller(w http.ResponseWriter, r *http.Request) (*listing.Controller, bool) {
	name := r.PathValue("resource")
	c, ok := h.registry.Controller(name)
	if !ok {
		writeError(w, fmt.Sprintf("Unknown resource %q", name), http.StatusNotFound)
	}
	return c, ok
}

// List returns one page of a resource. The collection is fetched on first
// view, after a failed fetch, and whenever refresh is set.
func (h *EntityHandler) List(w http.ResponseWriter, r *http.Request) {
	c, ok := h.controller(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()

	state := c.State()
	if state == listing.StateIdle || state == listing.StateError || q.Get("refresh") != "" {
		if err := c.FetchAll(r.Context()); err != nil {
			writeJSON(w, http.StatusBadGateway, c.Page())
			return
		}
	}

	filters := make(map[string]string)
	for key, values := range q {
		if name, ok := strings.CutPrefix(key, filterPrefix); ok && len(values) > 0 {
			filters[name] = values[0]
		}
	}
	if err := c.SetFilters(filters); err != nil {
		writeError(w, err.Error(), statusFor(err))
		return
	}
	if v := q.Get("per_page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, "per_page must be a positive integer", http.StatusBadRequest)
			return
		}
		c.SetItemsPerPage(n)
	}
	if v := q.Get("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, "page must be an integer", http.StatusBadRequest)
			return
		}
		c.SetPage(n)
	}

	writeJSON(w, http.StatusOK, c.Page())
}

// Create posts a new record of a resource
func (h *EntityHandler) Create(w http.ResponseWriter, r *http.Request) {
	c, ok := h.controller(w, r)
	if !ok {
		return
	}
	var payload models.Record
	if err := decodeBody(r, &payload); err != nil {
		writeError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	notice, err := c.Create(r.Context(), payload)
	h.mutated(w, c, notice, err, http.StatusCreated)
}

// Update replaces the record named by the path id
func (h *EntityHandler) Update(w http.ResponseWriter, r *http.Request) {
	c, ok := h.controller(w, r)
	if !ok {
		return
	}
	var payload models.Record
	if err := decodeBody(r, &payload); err != nil {
		writeError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	notice, err := c.Update(r.Context(), r.PathValue("id"), payload)
	h.mutated(w, c, notice, err, http.StatusOK)
}

// Delete removes the record named by the path id
func (h *EntityHandler) Delete(w http.ResponseWriter, r *http.Request) {
	c, ok := h.controller(w, r)
	if !ok {
		return
	}
	notice, err := c.Delete(r.Context(), r.PathValue("id"))
	h.mutated(w, c, notice, err, http.StatusOK)
}

func (h *EntityHandler) mutated(w http.ResponseWriter, c *listing.Controller, notice string, err error, status int) {
	if err != nil {
		if notice == "" {
			notice = err.Error()
		}
		writeError(w, notice, statusFor(err))
		return
	}
	writeJSON(w, status, map[string]any{
		"message": notice,
		"page":    c.Page(),
	})
}

// Export downloads the filtered records of a resource as CSV or XLSX.
func (h *EntityHandler) Export(w http.ResponseWriter, r *http.Request) {
	c, ok := h.controller(w, r)
	if !ok {
		return
	}
	format, ok := strings.CutPrefix(r.PathValue("file"), "export.")
	if !ok || (format != "csv" && format != "xlsx") {
		writeError(w, "Not found", http.StatusNotFound)
		return
	}
	if c.State() == listing.StateIdle {
		if err := c.FetchAll(r.Context()); err != nil {
			writeError(w, c.Notice(), http.StatusBadGateway)
			return
		}
	}

	res := c.Resource()
	records := c.Filtered()
	now := h.now()

	var (
		buf         bytes.Buffer
		err         error
		filename    string
		contentType string
	)
	switch format {
	case "csv":
		err = export.RecordsCSV(&buf, res.Columns, records)
		filename = export.FileName(res.Name, now)
		contentType = "text/csv"
	case "xlsx":
		err = export.RecordsXLSX(&buf, res.Label, res.Columns, records)
		filename = export.XLSXFileName(res.Name, now)
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	if err != nil {
		if statusFor(err) == http.StatusNotFound {
			writeError(w, export.EmptyNotice, http.StatusNotFound)
			return
		}
		h.logger.Error("export failed", zap.String("resource", res.Name), zap.Error(err))
		writeError(w, "Failed to export records", http.StatusInternalServerError)
		return
	}

	userID := ""
	if s, ok := middleware.GetSessionFromContext(r.Context()); ok {
		userID = s.UserID
	}
	logging.Audit(h.logger, userID, logging.ActionDataExport,
		fmt.Sprintf("exported %d %s as %s", len(records), res.Name, format))

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	_, _ = buf.WriteTo(w)
}
