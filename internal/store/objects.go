package store

import (
	"fmt"
	"strconv"

	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
)

// objectKey is the cache identity.
func objectKey(obj *unstructured.Unstructured) string {
	return string(obj.GetUID())
}

func validate(obj *unstructured.Unstructured) error {
	if obj == nil || obj.Object == nil {
		return fmt.Errorf("%w: empty payload", ErrMalformedObject)
	}
	if obj.GetName() == "" {
		return fmt.Errorf("%w: missing metadata.name", ErrMalformedObject)
	}
	if obj.GetUID() == "" {
		return fmt.Errorf("%w: %s has no metadata.uid", ErrMalformedObject, obj.GetName())
	}
	return nil
}

// newerOrEqual reports whether resourceVersion a is not older than b.
// resourceVersions are opaque strings; when either does not parse as an
// integer the incoming value wins.
func newerOrEqual(a, b string) bool {
	if b == "" {
		return true
	}
	ai, errA := strconv.ParseUint(a, 10, 64)
	bi, errB := strconv.ParseUint(b, 10, 64)
	if errA != nil || errB != nil {
		return true
	}
	return ai >= bi
}

// strictlyNewer reports whether a is newer than b. Unparseable values are
// never considered newer.
func strictlyNewer(a, b string) bool {
	ai, errA := strconv.ParseUint(a, 10, 64)
	bi, errB := strconv.ParseUint(b, 10, 64)
	if errA != nil || errB != nil {
		return false
	}
	return ai > bi
}

// advanceLocked moves the high-water mark of scope forward. Callers hold s.mu.
func (s *ObjectStore) advanceLocked(scope, rv string) {
	if rv == "" {
		return
	}
	if cur := s.versions[scope]; cur == "" || newerOrEqual(rv, cur) {
		s.versions[scope] = rv
	}
}

// upsertLocked stores obj unless the cache already holds a newer version.
// Callers hold s.mu.
func (s *ObjectStore) upsertLocked(obj *unstructured.Unstructured) bool {
	key := objectKey(obj)
	if cur, ok := s.objects[key]; ok && !newerOrEqual(obj.GetResourceVersion(), cur.GetResourceVersion()) {
		return false
	}
	s.objects[key] = obj
	s.sorted = nil
	return true
}

// removeLocked drops the cached copy of obj unless the cache holds a newer
// version. Callers hold s.mu.
func (s *ObjectStore) removeLocked(obj *unstructured.Unstructured) bool {
	key := objectKey(obj)
	cur, ok := s.objects[key]
	if s.loading > 0 {
		s.tombstones[key] = obj.GetResourceVersion()
	}
	if !ok || strictlyNewer(cur.GetResourceVersion(), obj.GetResourceVersion()) {
		return false
	}
	delete(s.objects, key)
	s.sorted = nil
	return true
}

func (s *ObjectStore) upsert(obj *unstructured.Unstructured) {
	s.mu.Lock()
	changed := s.upsertLocked(obj)
	s.mu.Unlock()
	if changed {
		s.notify()
	}
}
