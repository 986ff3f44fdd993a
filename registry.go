package auth

import (
	"fmt"
	"sync"
)

// Registry maps provider ids to Provider instances and tracks the default
// provider. It is built once at startup and passed to its consumers.
// Reads are safe to run concurrently with writes.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]Provider
	order     []string
	defaultID string
	logger    Logger
}

// RegistryOption customizes a Registry.
type RegistryOption func(*Registry)

// WithRegistryLogger sets the logger used for registration events.
func WithRegistryLogger(logger Logger) RegistryOption {
	return func(r *Registry) {
		r.logger = normalizeLogger(logger)
	}
}

// NewRegistry returns an empty registry.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		providers: make(map[string]Provider),
		logger:    defLogger{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

// Register inserts or replaces a provider by id. The first registered
// provider becomes the default; isDefault always takes the default slot.
func (r *Registry) Register(provider Provider, isDefault bool) error {
	if provider == nil || provider.ID() == "" {
		return ErrInvalidProvider
	}

	id := provider.ID()

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.providers[id]; !exists {
		r.order = append(r.order, id)
	}
	r.providers[id] = provider

	if isDefault || r.defaultID == "" {
		r.defaultID = id
	}

	r.logger.Debug("identity provider registered", "provider", id, "default", r.defaultID == id)
	return nil
}

// Unregister removes a provider. When it was the default, the earliest
// registered remaining provider takes over, or the default is unset.
func (r *Registry) Unregister(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.providers[id]; !exists {
		return false
	}

	delete(r.providers, id)
	for i, existing := range r.order {
		if existing == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}

	if r.defaultID == id {
		r.defaultID = ""
		if len(r.order) > 0 {
			r.defaultID = r.order[0]
		}
	}

	r.logger.Debug("identity provider unregistered", "provider", id, "default", r.defaultID)
	return true
}

// Get returns the provider registered under id.
func (r *Registry) Get(id string) (Provider, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.providers[id]
	return p, ok
}

// Default returns the default provider or ErrNoProviderRegistered.
func (r *Registry) Default() (Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.defaultID == "" {
		return nil, ErrNoProviderRegistered
	}
	return r.providers[r.defaultID], nil
}

// MustDefault is like Default but panics when nothing is registered. A
// missing provider at that point is a startup ordering bug.
func (r *Registry) MustDefault() Provider {
	p, err := r.Default()
	if err != nil {
		panic(fmt.Sprintf("go-auth-flows: %v: register a provider before resolving the default", err))
	}
	return p
}

// DefaultID returns the id of the default provider, or "" when unset.
func (r *Registry) DefaultID() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.defaultID
}

// SetDefault makes a registered provider the default.
func (r *Registry) SetDefault(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.providers[id]; !exists {
		return fmt.Errorf("%w: %s", ErrProviderNotRegistered, id)
	}
	r.defaultID = id
	return nil
}

// All returns the registered providers in registration order.
func (r *Registry) All() []Provider {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Provider, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.providers[id])
	}
	return out
}

// IsRegistered reports whether id is registered.
func (r *Registry) IsRegistered(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.providers[id]
	return ok
}

// Clear removes every provider. Intended for tests and resets.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.providers = make(map[string]Provider)
	r.order = nil
	r.defaultID = ""
}
