// Package provider registers the supported backends by name.
//
// A Provider owns the native pools of its backend and hands out
// Connections drawing sessions from them. The core uses a provider only to
// open connections and to obtain the rendering table of its dialect.
package provider

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/symbolspace/Symbol-sub006/conn"
	"github.com/symbolspace/Symbol-sub006/dialect"
)

// Provider opens connections to one kind of backend.
type Provider interface {
	// Name returns the registration name, which is also the dialect name.
	Name() string
	// Renderer returns the rendering table of the dialect.
	Renderer() dialect.Renderer
	// Open returns an opened connection to the backend described by o.
	Open(ctx context.Context, o conn.Options, opts ...conn.Option) (*conn.Connection, error)
	// Close closes every pool the provider opened.
	Close() error
}

// Registry maps provider names to providers.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]Provider
}

// NewRegistry returns a registry holding the given providers.
func NewRegistry(ps ...Provider) (*Registry, error) {
	r := &Registry{providers: make(map[string]Provider)}
	for _, p := range ps {
		if err := r.Register(p); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register adds p. Registering a name twice is an error.
func (r *Registry) Register(p Provider) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.providers[p.Name()]; ok {
		return fmt.Errorf("provider: %q already registered", p.Name())
	}
	r.providers[p.Name()] = p
	return nil
}

// Lookup returns the provider registered under name.
func (r *Registry) Lookup(name string) (Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.providers[name]
	if !ok {
		return nil, fmt.Errorf("provider: unknown provider %q", name)
	}
	return p, nil
}

// Names returns the registered names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Close closes all registered providers concurrently.
func (r *Registry) Close() error {
	r.mu.RLock()
	var g errgroup.Group
	for _, p := range r.providers {
		g.Go(p.Close)
	}
	r.mu.RUnlock()
	return g.Wait()
}

// Default is the registry of the built-in providers.
var Default = func() *Registry {
	r, err := NewRegistry(Postgres(), MySQL(), SQLite(), SQLServer(), DuckDB())
	if err != nil {
		panic(err)
	}
	return r
}()

// Register adds p to the default registry.
func Register(p Provider) error { return Default.Register(p) }

// Lookup returns the provider registered under name in the default registry.
func Lookup(name string) (Provider, error) { return Default.Lookup(name) }

// Close closes the pools of all providers in the default registry.
func Close() error { return Default.Close() }
