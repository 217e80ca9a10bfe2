package pool

import (
	"fmt"
	"sync"

	sqlgateerrors "sqlgate/pkg/errors"
)

// Registry holds one manager per named pool. Entries share nothing and
// need no cross-pool synchronization beyond the registry map itself.
type Registry struct {
	mu       sync.RWMutex
	managers map[string]*Manager
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		managers: make(map[string]*Manager),
	}
}

// GetOrCreate returns the manager registered under name, building one
// from cfg and connector when none exists yet.
func (r *Registry) GetOrCreate(name string, cfg Config, connector Connector) (*Manager, error) {
	r.mu.RLock()
	mgr, exists := r.managers[name]
	r.mu.RUnlock()
	if exists {
		return mgr, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// Double-check after acquiring the write lock
	if mgr, exists = r.managers[name]; exists {
		return mgr, nil
	}

	mgr, err := NewManager(cfg, connector)
	if err != nil {
		return nil, fmt.Errorf("pool %q: %w", name, err)
	}
	r.managers[name] = mgr
	return mgr, nil
}

// Get returns the manager registered under name
func (r *Registry) Get(name string) (*Manager, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	mgr, exists := r.managers[name]
	if !exists {
		return nil, fmt.Errorf("%w: %q", sqlgateerrors.ErrPoolNotFound, name)
	}
	return mgr, nil
}

// Names returns the registered pool names
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.managers))
	for name := range r.managers {
		names = append(names, name)
	}
	return names
}

// Stats returns a snapshot for every registered pool
func (r *Registry) Stats() map[string]Stats {
	r.mu.RLock()
	defer r.mu.RUnlock()
	stats := make(map[string]Stats, len(r.managers))
	for name, mgr := range r.managers {
		stats[name] = mgr.Stats()
	}
	return stats
}

// CloseAll terminally closes every registered manager
func (r *Registry) CloseAll() {
	r.mu.Lock()
	managers := make([]*Manager, 0, len(r.managers))
	for _, mgr := range r.managers {
		managers = append(managers, mgr)
	}
	r.managers = make(map[string]*Manager)
	r.mu.Unlock()

	for _, mgr := range managers {
		mgr.Close()
	}
}
