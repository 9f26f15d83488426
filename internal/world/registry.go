package world

import (
	"errors"
	"fmt"
	"sync"
)

var (
	// ErrDuplicateName is returned by Register when the name is taken.
	ErrDuplicateName = errors.New("world name already registered")
	// ErrUnknownWorld is returned for operations on unregistered names.
	ErrUnknownWorld = errors.New("unknown world")
)

// Registry owns every registered BuildWorld. Lookups are exact and
// case-sensitive; iteration follows registration order so paginated menus
// stay stable.
type Registry struct {
	mu     sync.RWMutex
	byName map[string]*BuildWorld
	order  []*BuildWorld
}

func NewRegistry() *Registry {
	return &Registry{
		byName: make(map[string]*BuildWorld),
		order:  make([]*BuildWorld, 0, 64),
	}
}

// Register adds w. The registry never holds two worlds with the same name.
func (r *Registry) Register(w *BuildWorld) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byName[w.Name()]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateName, w.Name())
	}
	r.byName[w.Name()] = w
	r.order = append(r.order, w)
	return nil
}

// Get returns the world with the given name, or nil.
func (r *Registry) Get(name string) *BuildWorld {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.byName[name]
}

// Contains reports whether name is registered.
func (r *Registry) Contains(name string) bool {
	return r.Get(name) != nil
}

// Remove detaches and returns the world, or nil if it was not registered.
func (r *Registry) Remove(name string) *BuildWorld {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.byName[name]
	if !ok {
		return nil
	}
	delete(r.byName, name)
	for i, o := range r.order {
		if o == w {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return w
}

// List returns a fresh slice of all worlds in registration order. Callers may
// keep it across concurrent mutations.
func (r *Registry) List() []*BuildWorld {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*BuildWorld, len(r.order))
	copy(out, r.order)
	return out
}

// Records snapshots every world in registration order.
func (r *Registry) Records() []Record {
	worlds := r.List()
	out := make([]Record, 0, len(worlds))
	for _, w := range worlds {
		out = append(out, w.Snapshot())
	}
	return out
}

// Len returns the number of registered worlds.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}
