package discovery

import (
	"fmt"
	"sort"
	"sync"

	"github.com/chr1sbest/routeauthz/internal/model"
)

// Registry maps fully-qualified resource names to their descriptors. It is
// the explicit replacement for loading types by name at runtime.
type Registry struct {
	mu        sync.RWMutex
	resources map[string]model.Described
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{resources: make(map[string]model.Described)}
}

// Register adds d under name. Registering the same name twice is an error.
func (r *Registry) Register(name string, d model.Described) error {
	if name == "" {
		return fmt.Errorf("resource name is required")
	}
	if d == nil {
		return fmt.Errorf("resource %s: descriptor is nil", name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.resources[name]; exists {
		return fmt.Errorf("resource %s already registered", name)
	}
	r.resources[name] = d
	return nil
}

// MustRegister is Register for package init functions; it panics on error.
func (r *Registry) MustRegister(name string, d model.Described) {
	if err := r.Register(name, d); err != nil {
		panic(err)
	}
}

// Lookup returns the descriptor registered under name.
func (r *Registry) Lookup(name string) (model.Described, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, ok := r.resources[name]
	return d, ok
}

// Names returns the registered names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.resources))
	for n := range r.resources {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
