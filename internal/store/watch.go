package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	apierrors "k8s.io/apimachinery/pkg/api/errors"
	"k8s.io/apimachinery/pkg/api/meta"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/util/wait"
	"k8s.io/apimachinery/pkg/watch"

	"github.com/tapcraft-io/kubesync/internal/logging"
)

// SubscribeOptions select what Subscribe watches.
type SubscribeOptions struct {
	Namespaces    []string
	AllNamespaces bool
	// OnLoadFailure receives watch failures. Cancellation is never reported.
	OnLoadFailure FailureFunc
}

// resumeBackoff paces re-opening a watch the server closed cleanly.
var resumeBackoff = wait.Backoff{
	Duration: 250 * time.Millisecond,
	Factor:   2,
	Jitter:   0.1,
	Steps:    6,
	Cap:      10 * time.Second,
}

// Subscribe keeps the cache live until ctx is cancelled. One watch is opened
// per scope, starting at that scope's high-water mark. A watch the server
// closes cleanly is resumed; a failed open or an ERROR event is reported to
// OnLoadFailure and ends that scope. Subscribe returns nil once every scope
// has stopped.
func (s *ObjectStore) Subscribe(ctx context.Context, opts SubscribeOptions) error {
	scopes := s.scopes(opts.AllNamespaces, opts.Namespaces)
	var wg sync.WaitGroup
	for _, scope := range scopes {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.watchScope(ctx, scope, opts.OnLoadFailure)
		}()
	}
	wg.Wait()
	return nil
}

func (s *ObjectStore) watchScope(ctx context.Context, scope string, onFailure FailureFunc) {
	logger := s.logger.With(logging.Namespace(scope))
	backoff := resumeBackoff

	for {
		if ctx.Err() != nil {
			return
		}
		rv := s.ResourceVersion(scope)
		w, err := s.api.Watch(ctx, s.desc, scope, rv)
		if err != nil {
			if ctx.Err() == nil {
				s.reportFailure(onFailure, fmt.Errorf("watch %s in %s: %w", s.desc.APIBase, scopeName(scope), err))
			}
			return
		}

		logger.Debug("watch opened", logging.ResourceVersion(rv))
		s.recorder.WatchStarted(s.desc.APIBase)
		received, err := s.consume(ctx, w, scope)
		w.Stop()
		s.recorder.WatchStopped(s.desc.APIBase)

		if ctx.Err() != nil {
			logger.Debug("watch cancelled")
			return
		}
		if err != nil {
			s.reportFailure(onFailure, err)
			return
		}

		if received {
			backoff = resumeBackoff
		}
		delay := backoff.Step()
		logger.Debug("watch closed by server, resuming", "delay", delay)
		select {
		case <-ctx.Done():
			return
		case <-time.After(delay):
		}
	}
}

// consume applies events in receive order until the channel closes, ctx is
// cancelled or an ERROR event arrives.
func (s *ObjectStore) consume(ctx context.Context, w watch.Interface, scope string) (bool, error) {
	received := false
	for {
		select {
		case <-ctx.Done():
			return received, nil
		case ev, ok := <-w.ResultChan():
			if !ok {
				return received, nil
			}
			// A cancelled watch must not apply anything further.
			if ctx.Err() != nil {
				return received, nil
			}
			received = true
			if err := s.apply(scope, ev); err != nil {
				return received, err
			}
		}
	}
}

func (s *ObjectStore) apply(scope string, ev watch.Event) error {
	switch ev.Type {
	case watch.Error:
		err := apierrors.FromObject(ev.Object)
		if apierrors.IsGone(err) || apierrors.IsResourceExpired(err) {
			s.mu.Lock()
			delete(s.versions, scope)
			s.mu.Unlock()
		}
		return fmt.Errorf("%w: %s in %s: %v", ErrWatchFailed, s.desc.APIBase, scopeName(scope), err)

	case watch.Bookmark:
		acc, err := meta.Accessor(ev.Object)
		if err != nil {
			s.logger.Warn("dropping malformed bookmark", logging.Err(err))
			return nil
		}
		s.mu.Lock()
		s.advanceLocked(scope, acc.GetResourceVersion())
		s.mu.Unlock()
		s.recorder.EventApplied(s.desc.APIBase, string(ev.Type))
		return nil

	case watch.Added, watch.Modified, watch.Deleted:
		obj, ok := ev.Object.(*unstructured.Unstructured)
		if !ok {
			s.logger.Warn("dropping malformed watch event", logging.EventType(string(ev.Type)),
				logging.Err(fmt.Errorf("%w: unexpected type %T", ErrMalformedObject, ev.Object)))
			return nil
		}
		if err := validate(obj); err != nil {
			s.logger.Warn("dropping malformed watch event", logging.EventType(string(ev.Type)), logging.Err(err))
			return nil
		}

		s.mu.Lock()
		var changed bool
		if ev.Type == watch.Deleted {
			changed = s.removeLocked(obj)
		} else {
			changed = s.upsertLocked(obj)
		}
		s.advanceLocked(scope, obj.GetResourceVersion())
		s.mu.Unlock()

		s.recorder.EventApplied(s.desc.APIBase, string(ev.Type))
		if changed {
			s.notify()
		}
		return nil

	default:
		s.logger.Warn("dropping unknown watch event", logging.EventType(string(ev.Type)))
		return nil
	}
}
