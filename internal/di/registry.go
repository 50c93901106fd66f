package di

import (
	"errors"
	"sync"
)

var (
	// ErrEmptyName is returned when a descriptor is registered without a name.
	ErrEmptyName = errors.New("di: descriptor name must not be empty")

	// ErrNilFactory is returned when a descriptor is registered without a factory.
	ErrNilFactory = errors.New("di: descriptor factory must not be nil")

	// ErrRegistryFrozen is returned when Register is called after a resolution
	// run has started on the registry. The registry is populated once at
	// startup and read-only afterward; factories cannot grow the graph
	// mid-resolution.
	ErrRegistryFrozen = errors.New("di: registry is frozen, no registration after resolution has started")
)

// Registry holds the set of named service descriptors for one composition.
// It is pure bookkeeping: registration, lookup, and iteration in registration
// order. Populate it at startup, hand it to a Resolver, and treat it as
// immutable from then on.
type Registry struct {
	mu          sync.RWMutex
	descriptors map[string]Descriptor
	order       []string
	frozen      bool
}

// NewRegistry creates an empty descriptor registry.
func NewRegistry() *Registry {
	return &Registry{
		descriptors: make(map[string]Descriptor),
	}
}

// Register adds a descriptor to the registry. Dependency names are deduped,
// keeping first occurrence. It fails with a DuplicateNameError if the name is
// already taken, and with ErrRegistryFrozen once a resolution has started.
func (r *Registry) Register(d Descriptor) error {
	if d.Name == "" {
		return ErrEmptyName
	}
	if d.Factory == nil {
		return ErrNilFactory
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.frozen {
		return ErrRegistryFrozen
	}
	if _, exists := r.descriptors[d.Name]; exists {
		return &DuplicateNameError{Name: d.Name}
	}

	d.Dependencies = d.dedupedDependencies()
	r.descriptors[d.Name] = d
	r.order = append(r.order, d.Name)
	return nil
}

// MustRegister is Register that panics on error. Intended for composition
// roots where a registration failure is a programming mistake.
func (r *Registry) MustRegister(d Descriptor) {
	if err := r.Register(d); err != nil {
		panic(err)
	}
}

// All returns the registered descriptors in registration order.
func (r *Registry) All() []Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Descriptor, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.descriptors[name])
	}
	return out
}

// Lookup returns the descriptor registered under name.
func (r *Registry) Lookup(name string) (Descriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, ok := r.descriptors[name]
	return d, ok
}

// Len returns the number of registered descriptors.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

// freeze marks the registry read-only. Called by the resolver before
// validation; a frozen registry stays frozen.
func (r *Registry) freeze() {
	r.mu.Lock()
	r.frozen = true
	r.mu.Unlock()
}
