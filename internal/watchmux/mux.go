// Package watchmux shares live store watches between independent consumers.
//
// A consumer asks for a set of stores to be kept fresh and gets back a
// dispose function. Consumers that follow the globally selected namespaces
// are reference counted per store, so any number of them share one load and
// one watch. When the selection changes the watch is restarted; the previous
// watch has always fully stopped before the next one loads or applies
// anything.
package watchmux

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/tapcraft-io/kubesync/internal/apiregistry"
	"github.com/tapcraft-io/kubesync/internal/logging"
	"github.com/tapcraft-io/kubesync/internal/namespaces"
	"github.com/tapcraft-io/kubesync/internal/store"
)

// Store is the part of an object store the mux drives.
type Store interface {
	Descriptor() *apiregistry.Descriptor
	LoadAll(ctx context.Context, opts store.LoadOptions) error
	Subscribe(ctx context.Context, opts store.SubscribeOptions) error
}

// Recorder receives mux metrics.
type Recorder interface {
	SubscribersChanged(resource string, count int)
	WatchRestarted(resource string)
}

type noopRecorder struct{}

func (noopRecorder) SubscribersChanged(string, int) {}
func (noopRecorder) WatchRestarted(string)          {}

// Options for SubscribeStores.
type Options struct {
	// Namespaces, when set, requests a one-off subscription to exactly these
	// namespaces. It is not shared and does not follow the selection.
	Namespaces []string
	// OnLoadFailure receives load and watch failures of the subscribed
	// stores. Cancellation is never reported.
	OnLoadFailure store.FailureFunc
}

// Config configures a Mux.
type Config struct {
	Selector *namespaces.Selector
	Logger   *slog.Logger
	Recorder Recorder
}

// Mux coordinates store subscriptions. It is safe for concurrent use.
type Mux struct {
	selector *namespaces.Selector
	logger   *slog.Logger
	recorder Recorder

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	closed  bool
	handles map[Store]*handle
}

// handle is the shared state of the counted subscription to one store.
type handle struct {
	store  Store
	logger *slog.Logger

	refs         int
	gen          int
	stopReaction func()
	epoch        *epoch

	nextID    int
	callbacks map[int]store.FailureFunc
}

// epoch is one load-then-watch run for a fixed namespace selection.
type epoch struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// New creates a Mux. Close releases it.
func New(cfg Config) *Mux {
	if cfg.Selector == nil {
		cfg.Selector = namespaces.NewSelector()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Recorder == nil {
		cfg.Recorder = noopRecorder{}
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Mux{
		selector: cfg.Selector,
		logger:   cfg.Logger,
		recorder: cfg.Recorder,
		ctx:      ctx,
		cancel:   cancel,
		handles:  make(map[Store]*handle),
	}
}

// Selector returns the namespace selection the mux follows.
func (m *Mux) Selector() *namespaces.Selector {
	return m.selector
}

// SubscribeStores keeps stores loaded and watched until the returned function
// is called. The call does not wait for any load. Calling dispose more than
// once has no further effect.
func (m *Mux) SubscribeStores(stores []Store, opts Options) (dispose func()) {
	batchCtx, cancelBatch := context.WithCancel(m.ctx)

	teardowns := make([]func(), 0, len(stores))
	for _, s := range stores {
		if len(opts.Namespaces) > 0 {
			teardowns = append(teardowns, m.subscribeOnce(batchCtx, s, opts))
		} else {
			teardowns = append(teardowns, m.subscribeCounted(s, opts.OnLoadFailure))
		}
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			for _, td := range teardowns {
				td()
			}
			cancelBatch()
		})
	}
}

// RefCount returns the number of counted subscribers of s.
func (m *Mux) RefCount(s Store) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	if h, ok := m.handles[s]; ok {
		return h.refs
	}
	return 0
}

// Close cancels every subscription and waits for all watches to stop.
// Dispose functions remain safe to call afterwards.
func (m *Mux) Close() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	for _, h := range m.handles {
		if h.stopReaction != nil {
			h.stopReaction()
			h.stopReaction = nil
		}
	}
	m.mu.Unlock()

	m.cancel()
	m.wg.Wait()
}

// subscribeOnce starts an uncounted load-then-watch for explicit namespaces.
func (m *Mux) subscribeOnce(parent context.Context, s Store, opts Options) func() {
	ctx, cancel := context.WithCancel(parent)
	sel := namespaces.Selection{Namespaces: opts.Namespaces}
	report := opts.OnLoadFailure
	if report == nil {
		logger := logging.WithResource(m.logger, s.Descriptor().APIBase)
		report = func(err error) { logger.Warn("subscription failed", logging.Err(err)) }
	}

	m.mu.Lock()
	if !m.closed {
		m.wg.Add(1)
		go func() {
			defer m.wg.Done()
			m.loadThenWatch(ctx, s, sel, report)
		}()
	}
	m.mu.Unlock()
	return cancel
}

func (m *Mux) subscribeCounted(s Store, onFailure store.FailureFunc) func() {
	d := s.Descriptor()

	m.mu.Lock()
	defer m.mu.Unlock()

	h, ok := m.handles[s]
	if !ok {
		h = &handle{
			store:     s,
			logger:    logging.WithResource(m.logger, d.APIBase),
			callbacks: make(map[int]store.FailureFunc),
		}
		m.handles[s] = h
	}
	id := h.nextID
	h.nextID++
	h.callbacks[id] = onFailure
	h.refs++
	m.recorder.SubscribersChanged(d.APIBase, h.refs)
	h.logger.Debug("subscriber attached", logging.RefCount(h.refs))

	if h.refs == 1 && !m.closed {
		gen := h.gen
		if d.Namespaced {
			h.stopReaction = m.selector.OnChange(func(prev, next namespaces.Selection) {
				m.namespacesChanged(h, gen, prev, next)
			})
		}
		m.restartLocked(h, m.selector.Selected())
	}

	var once sync.Once
	return func() {
		once.Do(func() { m.release(h, id) })
	}
}

// release drops one counted subscriber. The last one stops the watch.
func (m *Mux) release(h *handle, id int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if h.refs <= 0 {
		panic(fmt.Sprintf("watchmux: subscriber count underflow for %s", h.store.Descriptor().APIBase))
	}
	h.refs--
	delete(h.callbacks, id)
	m.recorder.SubscribersChanged(h.store.Descriptor().APIBase, h.refs)
	h.logger.Debug("subscriber detached", logging.RefCount(h.refs))
	if h.refs > 0 {
		return
	}

	h.gen++
	if h.stopReaction != nil {
		h.stopReaction()
		h.stopReaction = nil
	}
	// The epoch stays recorded so a later 0->1 waits for it to finish.
	if h.epoch != nil {
		h.epoch.cancel()
	}
}

func (m *Mux) namespacesChanged(h *handle, gen int, prev, next namespaces.Selection) {
	// "All" stays "all" while namespaces come and go; the running watch
	// already covers them.
	if prev.AllSelected && next.AllSelected {
		return
	}
	if prev.Equal(next) {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed || h.refs == 0 || h.gen != gen {
		return
	}
	// A later change may already be in; restart with what is current.
	next = m.selector.Selected()
	h.logger.Debug("namespace selection changed, restarting watch",
		logging.Namespaces(next.AllSelected, next.Namespaces))
	m.recorder.WatchRestarted(h.store.Descriptor().APIBase)
	m.restartLocked(h, next)
}

// restartLocked cancels the current epoch of h and starts a new one that
// waits for the old one to stop. Callers hold m.mu.
func (m *Mux) restartLocked(h *handle, sel namespaces.Selection) {
	prev := h.epoch
	ctx, cancel := context.WithCancel(m.ctx)
	ep := &epoch{cancel: cancel, done: make(chan struct{})}
	h.epoch = ep
	if prev != nil {
		prev.cancel()
	}

	report := m.fanOut(h)
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		defer close(ep.done)
		defer cancel()
		if prev != nil {
			<-prev.done
		}
		m.loadThenWatch(ctx, h.store, sel, report)
	}()
}

// fanOut reports a failure to every subscriber still attached to h.
func (m *Mux) fanOut(h *handle) store.FailureFunc {
	return func(err error) {
		m.mu.Lock()
		ids := make([]int, 0, len(h.callbacks))
		for id, cb := range h.callbacks {
			if cb != nil {
				ids = append(ids, id)
			}
		}
		sort.Ints(ids)
		cbs := make([]store.FailureFunc, len(ids))
		for i, id := range ids {
			cbs[i] = h.callbacks[id]
		}
		m.mu.Unlock()

		if len(cbs) == 0 {
			h.logger.Warn("subscription failed", logging.Err(err))
			return
		}
		for _, cb := range cbs {
			cb(err)
		}
	}
}

// loadThenWatch lists the selection and then watches it until ctx is done.
func (m *Mux) loadThenWatch(ctx context.Context, s Store, sel namespaces.Selection, report store.FailureFunc) {
	if ctx.Err() != nil {
		return
	}
	all := sel.AllSelected
	if err := s.LoadAll(ctx, store.LoadOptions{
		Namespaces:    sel.Namespaces,
		AllNamespaces: all,
		OnLoadFailure: report,
	}); err != nil {
		return
	}
	if ctx.Err() != nil {
		return
	}
	_ = s.Subscribe(ctx, store.SubscribeOptions{
		Namespaces:    sel.Namespaces,
		AllNamespaces: all,
		OnLoadFailure: report,
	})
}
