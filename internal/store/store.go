// Package store implements the per-kind object caches that back every list
// and detail view. An ObjectStore is filled by LoadAll, kept live by
// Subscribe and mutated by confirmed CRUD calls; reads never do I/O.
package store

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/watch"

	"github.com/tapcraft-io/kubesync/internal/apiregistry"
	"github.com/tapcraft-io/kubesync/internal/logging"
)

var (
	// ErrWatchFailed wraps errors delivered as ERROR watch events.
	ErrWatchFailed = errors.New("watch failed")
	// ErrMalformedObject is logged for payloads that cannot be cached.
	ErrMalformedObject = errors.New("malformed object")
)

// API is the transport a store talks to. The k8s package provides the
// dynamic-client implementation.
type API interface {
	List(ctx context.Context, d *apiregistry.Descriptor, namespace string) (*unstructured.UnstructuredList, error)
	Watch(ctx context.Context, d *apiregistry.Descriptor, namespace, resourceVersion string) (watch.Interface, error)
	Get(ctx context.Context, d *apiregistry.Descriptor, namespace, name string) (*unstructured.Unstructured, error)
	Create(ctx context.Context, d *apiregistry.Descriptor, obj *unstructured.Unstructured) (*unstructured.Unstructured, error)
	Update(ctx context.Context, d *apiregistry.Descriptor, obj *unstructured.Unstructured) (*unstructured.Unstructured, error)
	Patch(ctx context.Context, d *apiregistry.Descriptor, namespace, name string, patch []byte) (*unstructured.Unstructured, error)
	Delete(ctx context.Context, d *apiregistry.Descriptor, namespace, name string) error
}

// Recorder receives store metrics. All methods must be cheap.
type Recorder interface {
	LoadFailed(resource string)
	WatchStarted(resource string)
	WatchStopped(resource string)
	EventApplied(resource, eventType string)
}

type noopRecorder struct{}

func (noopRecorder) LoadFailed(string)           {}
func (noopRecorder) WatchStarted(string)         {}
func (noopRecorder) WatchStopped(string)         {}
func (noopRecorder) EventApplied(string, string) {}

// FailureFunc receives transient load and watch failures.
type FailureFunc func(err error)

// Options configure a store.
type Options struct {
	// Less orders Items. Ties are always broken by name, then identity.
	Less LessFunc
	// ListConcurrency bounds concurrent per-namespace list calls. Defaults to 8.
	ListConcurrency int
	Logger          *slog.Logger
	Recorder        Recorder
}

// ObjectStore caches the objects of one resource kind.
type ObjectStore struct {
	desc     *apiregistry.Descriptor
	api      API
	less     LessFunc
	limit    int
	logger   *slog.Logger
	recorder Recorder

	mu         sync.RWMutex
	objects    map[string]*unstructured.Unstructured
	sorted     []*unstructured.Unstructured // nil when stale
	versions   map[string]string            // scope ("" = cluster-wide) -> high-water mark
	tombstones map[string]string            // deletions seen while a load is in flight
	loading    int
	loaded     bool
	failed     bool

	notifyMu sync.Mutex
	watchers map[int]chan struct{}
	nextID   int
}

// New creates an empty store for d.
func New(d *apiregistry.Descriptor, api API, opts Options) *ObjectStore {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Recorder == nil {
		opts.Recorder = noopRecorder{}
	}
	if opts.ListConcurrency <= 0 {
		opts.ListConcurrency = 8
	}
	return &ObjectStore{
		desc:       d,
		api:        api,
		less:       totalOrder(opts.Less),
		limit:      opts.ListConcurrency,
		logger:     logging.WithResource(opts.Logger, d.APIBase),
		recorder:   opts.Recorder,
		objects:    make(map[string]*unstructured.Unstructured),
		versions:   make(map[string]string),
		tombstones: make(map[string]string),
		watchers:   make(map[int]chan struct{}),
	}
}

// Descriptor returns the descriptor the store is bound to.
func (s *ObjectStore) Descriptor() *apiregistry.Descriptor {
	return s.desc
}

// Loading reports whether a LoadAll is in flight.
func (s *ObjectStore) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading > 0
}

// Loaded reports whether at least one LoadAll completed.
func (s *ObjectStore) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded
}

// FailedLoading reports whether the last LoadAll had failures.
func (s *ObjectStore) FailedLoading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.failed
}

// ResourceVersion returns the high-water mark for a scope. Use "" for the
// cluster-wide scope.
func (s *ObjectStore) ResourceVersion(scope string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.versions[scope]
}

// Reset drops all cached state.
func (s *ObjectStore) Reset() {
	s.mu.Lock()
	s.objects = make(map[string]*unstructured.Unstructured)
	s.sorted = nil
	s.versions = make(map[string]string)
	s.tombstones = make(map[string]string)
	s.loaded = false
	s.failed = false
	s.mu.Unlock()
	s.notify()
}

// Changes returns a channel that receives a value after every mutation.
// Notifications coalesce: a pending signal is not duplicated. Call cancel to
// release the channel.
func (s *ObjectStore) Changes() (ch <-chan struct{}, cancel func()) {
	c := make(chan struct{}, 1)
	s.notifyMu.Lock()
	id := s.nextID
	s.nextID++
	s.watchers[id] = c
	s.notifyMu.Unlock()

	var once sync.Once
	return c, func() {
		once.Do(func() {
			s.notifyMu.Lock()
			delete(s.watchers, id)
			s.notifyMu.Unlock()
		})
	}
}

func (s *ObjectStore) notify() {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()
	for _, c := range s.watchers {
		select {
		case c <- struct{}{}:
		default:
		}
	}
}

func (s *ObjectStore) reportFailure(onFailure FailureFunc, err error) {
	s.recorder.LoadFailed(s.desc.APIBase)
	if onFailure != nil {
		onFailure(err)
		return
	}
	s.logger.Warn("store operation failed", logging.Err(err))
}
