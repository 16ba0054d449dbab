package listing

import (
	"sync"

	"go.uber.org/zap"

	"transitdesk/models"
)

// Registry holds one controller per resource for the current session.
type Registry struct {
	api     Backend
	logger  *zap.Logger
	perPage int
	user    func() string

	mu          sync.Mutex
	controllers map[string]*Controller
}

func NewRegistry(api Backend, logger *zap.Logger, itemsPerPage int, currentUser func() string) *Registry {
	return &Registry{
		api:         api,
		logger:      logger,
		perPage:     itemsPerPage,
		user:        currentUser,
		controllers: make(map[string]*Controller),
	}
}

// Controller returns the controller for a catalogue resource, creating it
// on first use.
func (r *Registry) Controller(name string) (*Controller, bool) {
	res, ok := models.Lookup(name)
	if !ok {
		return nil, false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.controllers[name]; ok {
		return c, true
	}
	c := New(res, r.api,
		WithLogger(r.logger.With(zap.String("resource", name))),
		WithItemsPerPage(r.perPage),
		WithCurrentUser(r.user),
	)
	r.controllers[name] = c
	return c, true
}

// Reset drops every controller so the next view fetches under the
// current session.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.controllers = make(map[string]*Controller)
}
