// Package apiregistry maps canonical REST collection paths to resource
// descriptors.
package apiregistry

import (
	"errors"
	"fmt"
	"sync"
)

var (
	// ErrDuplicateDescriptor is returned when an APIBase is registered twice.
	ErrDuplicateDescriptor = errors.New("descriptor already registered")
	// ErrEmptyAPIBase is returned for descriptors without an APIBase.
	ErrEmptyAPIBase = errors.New("descriptor has empty api base")
	// ErrInvalidPath is returned by ParsePath.
	ErrInvalidPath = errors.New("invalid api path")
)

// Registry holds descriptors keyed by APIBase. It is safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	byBase  map[string]*Descriptor
	ordered []*Descriptor
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{byBase: make(map[string]*Descriptor)}
}

// Register adds d.
func (r *Registry) Register(d *Descriptor) error {
	if d == nil || d.APIBase == "" {
		return ErrEmptyAPIBase
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byBase[d.APIBase]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateDescriptor, d.APIBase)
	}
	r.byBase[d.APIBase] = d
	r.ordered = append(r.ordered, d)
	return nil
}

// Unregister removes d and reports whether it was present.
func (r *Registry) Unregister(d *Descriptor) bool {
	if d == nil {
		return false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.byBase[d.APIBase]
	if !ok {
		return false
	}
	delete(r.byBase, d.APIBase)
	for i, o := range r.ordered {
		if o == cur {
			r.ordered = append(r.ordered[:i:i], r.ordered[i+1:]...)
			break
		}
	}
	return true
}

// Resolve tries each candidate in order. A candidate is either an APIBase or
// a resource path that is first reduced to its APIBase.
func (r *Registry) Resolve(candidates ...string) *Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, c := range candidates {
		if d, ok := r.byBase[c]; ok {
			return d
		}
		p, err := ParsePath(c)
		if err != nil {
			continue
		}
		if d, ok := r.byBase[p.APIBase()]; ok {
			return d
		}
	}
	return nil
}

// ResolveFunc returns the first descriptor, in registration order, for which match is true.
func (r *Registry) ResolveFunc(match func(*Descriptor) bool) *Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, d := range r.ordered {
		if match(d) {
			return d
		}
	}
	return nil
}

// ResolveByKindAndVersion finds a descriptor from a kind/apiVersion pair,
// as found in owner references.
func (r *Registry) ResolveByKindAndVersion(kind, apiVersion string) *Descriptor {
	return r.ResolveFunc(func(d *Descriptor) bool {
		return d.Kind == kind && d.APIVersion == apiVersion
	})
}

// Descriptors returns a snapshot in registration order.
func (r *Registry) Descriptors() []*Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Descriptor, len(r.ordered))
	copy(out, r.ordered)
	return out
}
