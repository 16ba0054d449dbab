// Package listing implements the list controller behind every entity view:
// fetch, normalize, hide archived rows, filter, paginate and mutate one
// backend collection.
package listing

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"go.uber.org/zap"

	"transitdesk/logging"
	"transitdesk/models"
)

var (
	ErrMissingKey    = errors.New("record has no key")
	ErrUnknownFilter = errors.New("unknown filter")
	ErrNotFound      = errors.New("record not found")
)

// DefaultItemsPerPage applies when neither the resource nor the caller sets a size.
const DefaultItemsPerPage = 10

// State of a controller's collection.
type State int

const (
	StateIdle State = iota
	StateLoading
	StateLoaded
	StateError
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateLoaded:
		return "loaded"
	case StateError:
		return "error"
	default:
		return "idle"
	}
}

// Backend is the slice of the REST client a controller needs.
type Backend interface {
	List(ctx context.Context, path string, query url.Values) ([]models.Record, error)
	Get(ctx context.Context, path, id string) (models.Record, error)
	Create(ctx context.Context, path string, payload models.Record) error
	Update(ctx context.Context, path, id string, payload models.Record) error
	Delete(ctx context.Context, path, id string) error
}

// PageView is one rendered page of the filtered collection.
type PageView struct {
	Resource     string            `json:"resource"`
	State        string            `json:"state"`
	Records      []models.Record   `json:"records"`
	CurrentPage  int               `json:"current_page"`
	TotalPages   int               `json:"total_pages"`
	TotalItems   int               `json:"total_items"`
	ItemsPerPage int               `json:"items_per_page"`
	Filters      map[string]string `json:"filters"`
	Empty        bool              `json:"empty"`
	Notice       string            `json:"notice,omitempty"`
	Error        string            `json:"error,omitempty"`
}

// Controller owns one remote collection and its derived view. It is safe
// for concurrent use; backend calls run without the lock held.
type Controller struct {
	res         models.Resource
	api         Backend
	logger      *zap.Logger
	currentUser func() string

	mu       sync.Mutex
	state    State
	err      error
	notice   string
	records  []models.Record
	filters  map[string]string
	filtered []models.Record
	page     int
	perPage  int
}

type Option func(*Controller)

func WithLogger(l *zap.Logger) Option {
	return func(c *Controller) { c.logger = l }
}

// WithItemsPerPage sets the page size used when the resource has none.
func WithItemsPerPage(n int) Option {
	return func(c *Controller) {
		if n > 0 && c.res.ItemsPerPage == 0 {
			c.perPage = n
		}
	}
}

// WithCurrentUser supplies the id stamped into adduid on writes.
func WithCurrentUser(f func() string) Option {
	return func(c *Controller) { c.currentUser = f }
}

func New(res models.Resource, api Backend, opts ...Option) *Controller {
	c := &Controller{
		res:         res,
		api:         api,
		logger:      zap.NewNop(),
		currentUser: func() string { return "" },
		filters:     make(map[string]string),
		page:        1,
		perPage:     DefaultItemsPerPage,
	}
	if res.ItemsPerPage > 0 {
		c.perPage = res.ItemsPerPage
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Controller) Resource() models.Resource { return c.res }

// FetchAll reloads the collection. On failure the previous records stay.
func (c *Controller) FetchAll(ctx context.Context) error {
	c.mu.Lock()
	c.state = StateLoading
	c.mu.Unlock()

	records, err := c.api.List(ctx, c.res.Path, nil)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.state = StateError
		c.err = err
		c.notice = c.loadFailedNotice()
		c.logger.Error("fetch failed", zap.String("resource", c.res.Name), zap.Error(err))
		return fmt.Errorf("fetch %s: %w", c.res.Name, err)
	}

	c.records = c.visible(records)
	c.state = StateLoaded
	c.err = nil
	c.refilter()
	c.clampPage()
	c.logger.Debug("fetched", zap.String("resource", c.res.Name), zap.Int("records", len(c.records)))
	return nil
}

func (c *Controller) visible(records []models.Record) []models.Record {
	if !c.res.HideArchived {
		return records
	}
	out := make([]models.Record, 0, len(records))
	for _, r := range records {
		if r.Status() != models.StatusArchived {
			out = append(out, r)
		}
	}
	return out
}

func (c *Controller) loadFailedNotice() string {
	return fmt.Sprintf("Failed to load %s records.", strings.ToLower(c.res.Label))
}

// Create posts payload and reloads on success. adduid is filled in from
// the signed-in user when the payload has none. The returned notice is
// this call's own, whatever other callers do to the controller meanwhile.
func (c *Controller) Create(ctx context.Context, payload models.Record) (string, error) {
	body := payload.Clone()
	user := c.currentUser()
	if _, ok := body.Key(models.FieldAddUID); !ok && user != "" {
		body[models.FieldAddUID] = user
	}

	if err := c.api.Create(ctx, c.res.Path, body); err != nil {
		return c.mutationFailed("create", "", err)
	}
	logging.Audit(c.logger, user, logging.ActionRecordCreate, c.res.Name)
	return c.succeeded(ctx, fmt.Sprintf("%s created successfully.", c.res.Label))
}

// Update replaces the record with the given id. Backend-maintained fields
// are stripped and adduid is set to the signed-in user.
func (c *Controller) Update(ctx context.Context, id string, payload models.Record) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return c.missingKey("update")
	}
	body := payload.Clone()
	for _, f := range models.BookkeepingFields {
		delete(body, f)
	}
	user := c.currentUser()
	if user != "" {
		body[models.FieldAddUID] = user
	}

	if err := c.api.Update(ctx, c.res.Path, id, body); err != nil {
		return c.mutationFailed("update", id, err)
	}
	logging.Audit(c.logger, user, logging.ActionRecordUpdate, c.res.Name+"/"+id)
	return c.succeeded(ctx, fmt.Sprintf("%s updated successfully.", c.res.Label))
}

// Delete removes the record with the given id. A failed delete leaves the
// list as it was.
func (c *Controller) Delete(ctx context.Context, id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return c.missingKey("delete")
	}
	if err := c.api.Delete(ctx, c.res.Path, id); err != nil {
		return c.mutationFailed("delete", id, err)
	}
	logging.Audit(c.logger, c.currentUser(), logging.ActionRecordDelete, c.res.Name+"/"+id)
	return c.succeeded(ctx, fmt.Sprintf("%s deleted successfully.", c.res.Label))
}

// DeleteRecord deletes the record by its own key field.
func (c *Controller) DeleteRecord(ctx context.Context, r models.Record) (string, error) {
	id, ok := r.Key(c.res.KeyField)
	if !ok {
		return c.missingKey("delete")
	}
	return c.Delete(ctx, id)
}

// Get fetches one record's detail.
func (c *Controller) Get(ctx context.Context, id string) (models.Record, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, ErrMissingKey
	}
	rec, err := c.api.Get(ctx, c.res.Path, id)
	if err != nil {
		return nil, fmt.Errorf("get %s/%s: %w", c.res.Name, id, err)
	}
	if rec == nil {
		return nil, fmt.Errorf("%s/%s: %w", c.res.Name, id, ErrNotFound)
	}
	return rec, nil
}

// succeeded records a mutation's notice and reloads. A failed reload
// reports the load failure instead.
func (c *Controller) succeeded(ctx context.Context, msg string) (string, error) {
	c.setNotice(msg)
	if err := c.FetchAll(ctx); err != nil {
		return c.loadFailedNotice(), err
	}
	return msg, nil
}

func (c *Controller) missingKey(op string) (string, error) {
	msg := fmt.Sprintf("Cannot %s: this %s has no %s.", op, strings.ToLower(c.res.Label), c.res.KeyField)
	c.setNotice(msg)
	return msg, fmt.Errorf("%s %s: %w", op, c.res.Name, ErrMissingKey)
}

func (c *Controller) mutationFailed(op, id string, err error) (string, error) {
	msg := fmt.Sprintf("Failed to %s %s: %v", op, strings.ToLower(c.res.Label), err)
	c.setNotice(msg)
	c.logger.Warn("mutation failed",
		zap.String("resource", c.res.Name),
		zap.String("op", op),
		zap.String("id", id),
		zap.Error(err))
	return msg, fmt.Errorf("%s %s: %w", op, c.res.Name, err)
}

func (c *Controller) setNotice(msg string) {
	c.mu.Lock()
	c.notice = msg
	c.mu.Unlock()
}

// ApplyFilter sets one filter; an empty value clears it. The page resets to 1.
func (c *Controller) ApplyFilter(key, value string) error {
	if _, ok := c.res.Filters[key]; !ok {
		return fmt.Errorf("%w %q for %s", ErrUnknownFilter, key, c.res.Name)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if v := strings.TrimSpace(value); v == "" {
		delete(c.filters, key)
	} else {
		c.filters[key] = v
	}
	c.refilter()
	c.page = 1
	return nil
}

// SetFilters replaces the whole filter state. The page resets to 1 only
// when the state actually changes.
func (c *Controller) SetFilters(filters map[string]string) error {
	next := make(map[string]string, len(filters))
	for k, v := range filters {
		if _, ok := c.res.Filters[k]; !ok {
			return fmt.Errorf("%w %q for %s", ErrUnknownFilter, k, c.res.Name)
		}
		if v = strings.TrimSpace(v); v != "" {
			next[k] = v
		}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if sameFilters(c.filters, next) {
		return nil
	}
	c.filters = next
	c.refilter()
	c.page = 1
	return nil
}

func (c *Controller) ClearFilters() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.filters = make(map[string]string)
	c.refilter()
	c.page = 1
}

func sameFilters(a, b map[string]string) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if b[k] != v {
			return false
		}
	}
	return true
}

// refilter must be called with mu held.
func (c *Controller) refilter() {
	out := make([]models.Record, 0, len(c.records))
	for _, r := range c.records {
		if c.matches(r) {
			out = append(out, r)
		}
	}
	c.filtered = out
}

func (c *Controller) matches(r models.Record) bool {
	for key, value := range c.filters {
		pred, ok := c.res.Filters[key]
		if !ok {
			continue
		}
		if !pred(r, value) {
			return false
		}
	}
	return true
}

// SetPage moves to page n, clamped into [1, TotalPages].
func (c *Controller) SetPage(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.page = n
	c.clampPage()
}

func (c *Controller) NextPage() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.page++
	c.clampPage()
}

func (c *Controller) PrevPage() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.page--
	c.clampPage()
}

// SetItemsPerPage changes the page size; non-positive sizes are ignored.
func (c *Controller) SetItemsPerPage(n int) {
	if n <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.perPage = n
	c.clampPage()
}

func (c *Controller) TotalPages() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.totalPages()
}

func (c *Controller) totalPages() int {
	n := (len(c.filtered) + c.perPage - 1) / c.perPage
	if n < 1 {
		return 1
	}
	return n
}

func (c *Controller) clampPage() {
	if total := c.totalPages(); c.page > total {
		c.page = total
	}
	if c.page < 1 {
		c.page = 1
	}
}

// Page renders the current page.
func (c *Controller) Page() PageView {
	c.mu.Lock()
	defer c.mu.Unlock()

	start := (c.page - 1) * c.perPage
	end := min(start+c.perPage, len(c.filtered))
	rows := make([]models.Record, 0, c.perPage)
	if start < end {
		rows = append(rows, c.filtered[start:end]...)
	}

	filters := make(map[string]string, len(c.filters))
	for k, v := range c.filters {
		filters[k] = v
	}
	view := PageView{
		Resource:     c.res.Name,
		State:        c.state.String(),
		Records:      rows,
		CurrentPage:  c.page,
		TotalPages:   c.totalPages(),
		TotalItems:   len(c.filtered),
		ItemsPerPage: c.perPage,
		Filters:      filters,
		Empty:        len(rows) == 0,
		Notice:       c.notice,
	}
	if c.err != nil {
		view.Error = c.err.Error()
	}
	return view
}

// Records returns a snapshot of every visible record in backend order.
func (c *Controller) Records() []models.Record {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]models.Record(nil), c.records...)
}

// Filtered returns a snapshot of the records matching the current filters.
func (c *Controller) Filtered() []models.Record {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]models.Record(nil), c.filtered...)
}

// Index maps key values to records for display joins.
func (c *Controller) Index() map[string]models.Record {
	return models.Index(c.Records(), c.res.KeyField)
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Err is the last fetch error, nil once a fetch succeeds.
func (c *Controller) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// Notice is the last operator-facing message.
func (c *Controller) Notice() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.notice
}
