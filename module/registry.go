package module

import (
	"sort"
	"sync"

	"github.com/kbukum/modkit/errors"
)

// Registry maps fqns to modules so manifests can name them.
type Registry struct {
	mu      sync.RWMutex
	modules map[string]Module
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{modules: make(map[string]Module)}
}

// Register adds modules under their fqns. Registering a different module
// under a taken fqn is an error; re-registering the same one is not.
func (r *Registry) Register(modules ...Module) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range modules {
		if existing, ok := r.modules[m.FQN()]; ok && existing != m {
			return errors.InvalidInput("fqn", "module "+m.FQN()+" already registered")
		}
		r.modules[m.FQN()] = m
	}
	return nil
}

// Get retrieves a module by fqn.
func (r *Registry) Get(fqn string) (Module, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.modules[fqn]
	return m, ok
}

// List returns the sorted fqns of all registered modules.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.modules))
	for name := range r.modules {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
