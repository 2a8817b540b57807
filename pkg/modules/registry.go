package modules

import (
	"fmt"
	"sync"

	"github.com/verdantlabs/florasynth/pkg/errors"
)

// Factory builds a module instance. Factories run at load time, once per
// configuration load, so they may perform startup-cost work (client
// construction) but not network calls.
type Factory func() (Module, error)

// Registry maps stable module IDs to factories. Registration order is
// preserved and used as the resolver's tie-break, so runs are reproducible
// for a given registry configuration.
type Registry struct {
	mu        sync.RWMutex
	order     []string
	factories map[string]Factory
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register adds a module factory under a stable ID. Registering the same ID
// twice is a configuration error.
func (r *Registry) Register(id string, factory Factory) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if factory == nil {
		return errors.NewConfigError("registry", fmt.Sprintf("nil factory for module %s", id), nil)
	}
	if _, exists := r.factories[id]; exists {
		return errors.NewConfigError("registry", fmt.Sprintf("module %s registered twice", id), nil)
	}
	r.factories[id] = factory
	r.order = append(r.order, id)
	return nil
}

// MustRegister is Register for init-time registration tables, where a
// failure is a programming error.
func (r *Registry) MustRegister(id string, factory Factory) {
	if err := r.Register(id, factory); err != nil {
		panic(err)
	}
}

// Has reports whether an ID has a registered factory.
func (r *Registry) Has(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.factories[id]
	return ok
}

// IDs returns all registered module IDs in registration order.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, len(r.order))
	copy(ids, r.order)
	return ids
}

// Load instantiates and validates the enabled modules, in registration order.
// Passing nil enables every registered module. Loading is all-or-nothing: a
// missing module, a malformed descriptor, a duplicate columnId anywhere in
// the set, or a dependency on a module outside the set aborts the whole load.
func (r *Registry) Load(enabled []string) ([]Module, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if enabled == nil {
		enabled = r.order
	}

	// Instantiate in registration order, keeping only enabled IDs, so the
	// resolved order is stable regardless of how the enabled list is written.
	want := make(map[string]bool, len(enabled))
	for _, id := range enabled {
		if _, ok := r.factories[id]; !ok {
			return nil, errors.NewConfigError("registry", fmt.Sprintf("enabled module %s is not registered", id), nil)
		}
		want[id] = true
	}

	loaded := make([]Module, 0, len(want))
	descriptors := make(map[string]Descriptor, len(want))
	columnOwners := make(map[string]string)

	for _, id := range r.order {
		if !want[id] {
			continue
		}
		mod, err := r.factories[id]()
		if err != nil {
			return nil, errors.NewConfigError("registry", fmt.Sprintf("constructing module %s", id), err)
		}

		desc := mod.Descriptor()
		if desc.ID != id {
			return nil, errors.NewContractError(id, fmt.Sprintf("descriptor id %q does not match registration key", desc.ID))
		}
		if err := validateDescriptor(desc); err != nil {
			return nil, errors.NewContractError(id, err.Error())
		}
		for _, col := range desc.Columns {
			if owner, taken := columnOwners[col.ID]; taken {
				return nil, errors.NewContractError(id, fmt.Sprintf("columnId %s already declared by module %s", col.ID, owner))
			}
			columnOwners[col.ID] = id
		}

		descriptors[id] = desc
		loaded = append(loaded, mod)
	}

	// Dependencies must reference modules inside the loaded set.
	for _, desc := range descriptors {
		for _, dep := range desc.Dependencies {
			if _, ok := descriptors[dep]; !ok {
				return nil, errors.NewContractError(desc.ID, fmt.Sprintf("depends on unregistered module %s", dep))
			}
		}
	}

	return loaded, nil
}
