// registry/registry.go
package registry

import (
	"fmt"
	"sort"
	"sync"

	"tmp007-go/gpio"
)

// Registry binds GPIO controllers to the names drivers are configured with.
type Registry struct {
	mu   sync.RWMutex
	devs map[string]gpio.Controller
}

func New() *Registry {
	return &Registry{devs: map[string]gpio.Controller{}}
}

// Bind registers c under name. Binding the same name twice is a wiring bug.
func (r *Registry) Bind(name string, c gpio.Controller) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.devs[name]; exists {
		panic(fmt.Sprintf("device already bound to name %q", name))
	}
	r.devs[name] = c
}

// Resolve returns the controller bound to name.
func (r *Registry) Resolve(name string) (gpio.Controller, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.devs[name]
	return c, ok
}

func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.devs))
	for n := range r.devs {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}
