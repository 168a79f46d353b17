// Package registry holds the translation providers configured for a run.
package registry

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"rimloc/internal/domain"
	"rimloc/internal/ports"
)

// Registry holds named Provider implementations.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]ports.Provider
	def       string
}

func New() *Registry {
	return &Registry{providers: make(map[string]ports.Provider)}
}

// Register stores p under its own name, replacing any earlier provider.
func (r *Registry) Register(p ports.Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[p.Name()] = p
}

// Replace swaps the whole provider set, e.g. after the configuration changed.
func (r *Registry) Replace(ps ...ports.Provider) {
	next := make(map[string]ports.Provider, len(ps))
	for _, p := range ps {
		next[p.Name()] = p
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers = next
}

// SetDefault names the provider that an empty name resolves to.
func (r *Registry) SetDefault(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.def = name
}

func (r *Registry) Default() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.def
}

// Get returns the named provider; an empty name means the default.
func (r *Registry) Get(name string) (ports.Provider, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if name == "" {
		name = r.def
	}
	p, ok := r.providers[name]
	return p, ok
}

// Lookup is Get with a typed error for unknown names.
func (r *Registry) Lookup(name string) (ports.Provider, error) {
	if p, ok := r.Get(name); ok {
		return p, nil
	}
	if name == "" {
		return nil, fmt.Errorf("%w: no default provider %q", domain.ErrProviderUnavailable, r.Default())
	}
	return nil, fmt.Errorf("%w: %q", domain.ErrProviderUnavailable, name)
}

// Names returns the registered provider names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.providers))
	for name := range r.providers {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// HealthCheck tests all providers.
func (r *Registry) HealthCheck(ctx context.Context) map[string]error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]error, len(r.providers))
	for name, p := range r.providers {
		if p == nil {
			out[name] = errors.New("nil provider")
			continue
		}
		out[name] = p.Test(ctx)
	}
	return out
}
