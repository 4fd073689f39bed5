package store

import (
	"context"
	"fmt"

	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
)

// Load fetches a single object and caches it.
func (s *ObjectStore) Load(ctx context.Context, namespace, name string) (*unstructured.Unstructured, error) {
	obj, err := s.api.Get(ctx, s.desc, namespace, name)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", s.desc.URL(namespace, name), err)
	}
	if err := validate(obj); err != nil {
		return nil, err
	}
	s.upsert(obj)
	return obj, nil
}

// Create submits obj. The cache is updated with the server's answer only.
func (s *ObjectStore) Create(ctx context.Context, obj *unstructured.Unstructured) (*unstructured.Unstructured, error) {
	res, err := s.api.Create(ctx, s.desc, obj)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", s.desc.URL(obj.GetNamespace(), obj.GetName()), err)
	}
	if err := validate(res); err == nil {
		s.upsert(res)
	}
	return res, nil
}

// Update replaces obj on the server, then in the cache.
func (s *ObjectStore) Update(ctx context.Context, obj *unstructured.Unstructured) (*unstructured.Unstructured, error) {
	res, err := s.api.Update(ctx, s.desc, obj)
	if err != nil {
		return nil, fmt.Errorf("update %s: %w", s.desc.URL(obj.GetNamespace(), obj.GetName()), err)
	}
	if err := validate(res); err == nil {
		s.upsert(res)
	}
	return res, nil
}

// Patch applies a JSON merge patch.
func (s *ObjectStore) Patch(ctx context.Context, namespace, name string, patch []byte) (*unstructured.Unstructured, error) {
	res, err := s.api.Patch(ctx, s.desc, namespace, name, patch)
	if err != nil {
		return nil, fmt.Errorf("patch %s: %w", s.desc.URL(namespace, name), err)
	}
	if err := validate(res); err == nil {
		s.upsert(res)
	}
	return res, nil
}

// Remove deletes obj on the server and drops it from the cache. A load in
// flight cannot bring the object back.
func (s *ObjectStore) Remove(ctx context.Context, obj *unstructured.Unstructured) error {
	if err := s.api.Delete(ctx, s.desc, obj.GetNamespace(), obj.GetName()); err != nil {
		return fmt.Errorf("delete %s: %w", s.desc.URL(obj.GetNamespace(), obj.GetName()), err)
	}
	s.mu.Lock()
	key := s.keyLocked(obj)
	_, ok := s.objects[key]
	if s.loading > 0 && key != "" {
		// A uid never returns once deleted, so the tombstone outranks any list.
		s.tombstones[key] = ""
	}
	delete(s.objects, key)
	s.sorted = nil
	s.mu.Unlock()
	if ok {
		s.notify()
	}
	return nil
}

// keyLocked returns the cache key of obj, looking it up by name when the
// caller built obj without a uid. Callers hold s.mu.
func (s *ObjectStore) keyLocked(obj *unstructured.Unstructured) string {
	if key := objectKey(obj); key != "" {
		return key
	}
	for key, cur := range s.objects {
		if cur.GetName() == obj.GetName() && (!s.desc.Namespaced || cur.GetNamespace() == obj.GetNamespace()) {
			return key
		}
	}
	return ""
}
