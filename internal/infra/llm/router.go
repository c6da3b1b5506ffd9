// Package llm: provider router.
// Router selects a LLMProvider at request time. The configured default is
// used unless the caller names a registered provider explicitly.
package llm

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Router selects a LLMProvider for each request.
type Router struct {
	mu              sync.RWMutex
	providers       map[string]LLMProvider
	defaultProvider string
}

// NewRouter creates a Router with an initial set of providers and a default key.
func NewRouter(providers map[string]LLMProvider, defaultProvider string) *Router {
	ps := make(map[string]LLMProvider, len(providers))
	for k, v := range providers {
		ps[k] = v
	}
	return &Router{providers: ps, defaultProvider: defaultProvider}
}

// Register adds (or replaces) a provider under the given key.
func (r *Router) Register(key string, p LLMProvider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[key] = p
}

// Route returns the default provider.
func (r *Router) Route(ctx context.Context) (LLMProvider, error) {
	return r.RouteTo(ctx, "")
}

// RouteTo returns the provider registered under name, or the default when
// name is empty.
func (r *Router) RouteTo(_ context.Context, name string) (LLMProvider, error) {
	if name == "" {
		name = r.defaultProvider
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.providers[name]
	if !ok {
		return nil, fmt.Errorf("llm router: provider %q not registered (available: %v)", name, r.keys())
	}
	return p, nil
}

// Default returns the name of the default provider.
func (r *Router) Default() string { return r.defaultProvider }

// keys returns the registered provider names (for error messages).
func (r *Router) keys() []string {
	out := make([]string, 0, len(r.providers))
	for k := range r.providers {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
