package store

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
)

// LoadOptions select what LoadAll lists.
type LoadOptions struct {
	// Namespaces to list. Ignored for cluster-scoped kinds and when
	// AllNamespaces is set.
	Namespaces []string
	// AllNamespaces lists the whole cluster with a single request.
	AllNamespaces bool
	// OnLoadFailure receives per-namespace failures. When nil, LoadAll
	// returns them joined instead.
	OnLoadFailure FailureFunc
}

// scopes returns the list/watch scopes for the options. "" is cluster-wide.
func (s *ObjectStore) scopes(all bool, namespaces []string) []string {
	if !s.desc.Namespaced || all {
		return []string{""}
	}
	seen := make(map[string]struct{}, len(namespaces))
	out := make([]string, 0, len(namespaces))
	for _, ns := range namespaces {
		if _, ok := seen[ns]; ok || ns == "" {
			continue
		}
		seen[ns] = struct{}{}
		out = append(out, ns)
	}
	return out
}

type listResult struct {
	scope string
	list  *unstructured.UnstructuredList
	err   error
}

// LoadAll lists the selected scopes and merges the result into the cache.
// Items of scopes that were not listed are kept. A cancelled load applies
// nothing and returns ctx.Err().
func (s *ObjectStore) LoadAll(ctx context.Context, opts LoadOptions) error {
	scopes := s.scopes(opts.AllNamespaces, opts.Namespaces)

	s.mu.Lock()
	s.loading++
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.loading--
		if s.loading == 0 {
			s.tombstones = make(map[string]string)
		}
		s.mu.Unlock()
	}()

	results := make([]listResult, len(scopes))
	g := new(errgroup.Group)
	g.SetLimit(s.limit)
	for i, scope := range scopes {
		g.Go(func() error {
			list, err := s.api.List(ctx, s.desc, scope)
			if list == nil && err == nil {
				list = &unstructured.UnstructuredList{}
			}
			results[i] = listResult{scope: scope, list: list, err: err}
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return err
	}

	var failures []error
	var ok []listResult
	for _, r := range results {
		if r.err != nil {
			failures = append(failures, fmt.Errorf("list %s in %s: %w", s.desc.APIBase, scopeName(r.scope), r.err))
			continue
		}
		ok = append(ok, r)
	}

	s.merge(ok, len(failures) > 0)

	for _, err := range failures {
		if opts.OnLoadFailure != nil {
			s.reportFailure(opts.OnLoadFailure, err)
		} else {
			s.recorder.LoadFailed(s.desc.APIBase)
		}
	}
	if opts.OnLoadFailure == nil && len(failures) > 0 {
		return errors.Join(failures...)
	}
	return nil
}

// merge replaces the contents of the listed scopes. Objects written by a watch
// while the list was in flight survive when they are newer than the list.
func (s *ObjectStore) merge(results []listResult, failed bool) {
	s.mu.Lock()

	listRV := make(map[string]string, len(results))
	for _, r := range results {
		listRV[r.scope] = r.list.GetResourceVersion()
	}
	inScope := func(obj *unstructured.Unstructured) (string, bool) {
		if rv, ok := listRV[""]; ok {
			return rv, true
		}
		rv, ok := listRV[obj.GetNamespace()]
		return rv, ok
	}

	next := make(map[string]*unstructured.Unstructured, len(s.objects))
	for key, obj := range s.objects {
		rv, ok := inScope(obj)
		// Outside the listed scopes, or written by a watch after the list
		// snapshot was taken.
		if !ok || strictlyNewer(obj.GetResourceVersion(), rv) {
			next[key] = obj
		}
	}

	dropped := 0
	for _, r := range results {
		for i := range r.list.Items {
			obj := &r.list.Items[i]
			if err := validate(obj); err != nil {
				dropped++
				continue
			}
			key := objectKey(obj)
			if cur, ok := next[key]; ok && !newerOrEqual(obj.GetResourceVersion(), cur.GetResourceVersion()) {
				continue
			}
			if tomb, ok := s.tombstones[key]; ok && (tomb == "" || newerOrEqual(tomb, obj.GetResourceVersion())) {
				continue
			}
			next[key] = obj
		}
		s.advanceLocked(r.scope, r.list.GetResourceVersion())
	}

	s.objects = next
	s.sorted = nil
	s.loaded = true
	s.failed = failed
	s.mu.Unlock()

	if dropped > 0 {
		s.logger.Warn("dropped malformed objects from list", "count", dropped)
	}
	s.logger.Debug("store loaded", "items", len(next), "scopes", len(results))
	s.notify()
}

func scopeName(scope string) string {
	if scope == "" {
		return "all namespaces"
	}
	return "namespace " + scope
}
