// Package apimanager binds every registered descriptor to exactly one object
// store and resolves links between objects of different kinds.
package apimanager

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/tapcraft-io/kubesync/internal/apiregistry"
	"github.com/tapcraft-io/kubesync/internal/logging"
	"github.com/tapcraft-io/kubesync/internal/store"
)

var (
	// ErrDescriptorNotRegistered is returned when a store is registered for
	// a descriptor the registry does not know.
	ErrDescriptorNotRegistered = errors.New("descriptor not registered")
	// ErrDuplicateStore is returned when a descriptor already has a store.
	ErrDuplicateStore = errors.New("store already registered")
)

// StoreFactory creates the store for a descriptor on first lookup.
type StoreFactory func(d *apiregistry.Descriptor) *store.ObjectStore

// Options configure a Manager.
type Options struct {
	// Registry defaults to a fresh registry.
	Registry *apiregistry.Registry
	// Factory, when set, creates missing stores lazily.
	Factory StoreFactory
	Logger  *slog.Logger
}

// Manager is the directory of descriptors and their stores.
type Manager struct {
	registry *apiregistry.Registry
	factory  StoreFactory
	logger   *slog.Logger

	mu     sync.RWMutex
	stores map[string]*store.ObjectStore
}

// New creates a Manager.
func New(opts Options) *Manager {
	if opts.Registry == nil {
		opts.Registry = apiregistry.New()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Manager{
		registry: opts.Registry,
		factory:  opts.Factory,
		logger:   opts.Logger,
		stores:   make(map[string]*store.ObjectStore),
	}
}

// Registry returns the underlying descriptor registry.
func (m *Manager) Registry() *apiregistry.Registry {
	return m.registry
}

// RegisterDescriptor adds d to the registry.
func (m *Manager) RegisterDescriptor(d *apiregistry.Descriptor) error {
	return m.registry.Register(d)
}

// UnregisterDescriptor removes d and the store bound to it.
func (m *Manager) UnregisterDescriptor(d *apiregistry.Descriptor) bool {
	m.mu.Lock()
	delete(m.stores, d.APIBase)
	m.mu.Unlock()
	return m.registry.Unregister(d)
}

// RegisterStore binds s to its descriptor, which must already be registered.
func (m *Manager) RegisterStore(s *store.ObjectStore) error {
	d := s.Descriptor()
	if m.registry.Resolve(d.APIBase) == nil {
		return fmt.Errorf("%w: %s", ErrDescriptorNotRegistered, d.APIBase)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.stores[d.APIBase]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateStore, d.APIBase)
	}
	m.stores[d.APIBase] = s
	m.logger.Debug("store registered", slog.String(logging.KeyResource, d.APIBase))
	return nil
}

// Store returns the store of the first candidate path or base that
// resolves, or nil.
func (m *Manager) Store(paths ...string) *store.ObjectStore {
	d := m.registry.Resolve(paths...)
	if d == nil {
		return nil
	}
	return m.StoreFor(d)
}

// StoreFor returns the store bound to d, creating it through the factory
// when one is configured.
func (m *Manager) StoreFor(d *apiregistry.Descriptor) *store.ObjectStore {
	if d == nil {
		return nil
	}
	m.mu.RLock()
	s, ok := m.stores[d.APIBase]
	m.mu.RUnlock()
	if ok || m.factory == nil {
		return s
	}

	registered := m.registry.Resolve(d.APIBase)
	if registered == nil {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.stores[d.APIBase]; ok {
		return s
	}
	s = m.factory(registered)
	if s == nil {
		return nil
	}
	m.stores[d.APIBase] = s
	return s
}

// StoreByKind returns the store for kind and apiVersion.
func (m *Manager) StoreByKind(kind, apiVersion string) *store.ObjectStore {
	return m.StoreFor(m.registry.ResolveByKindAndVersion(kind, apiVersion))
}

// Stores returns the bound stores in descriptor registration order.
func (m *Manager) Stores() []*store.ObjectStore {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*store.ObjectStore
	for _, d := range m.registry.Descriptors() {
		if s, ok := m.stores[d.APIBase]; ok {
			out = append(out, s)
		}
	}
	return out
}
