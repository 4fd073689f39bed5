package store

import (
	"slices"

	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/labels"
	"k8s.io/apimachinery/pkg/types"

	"github.com/tapcraft-io/kubesync/internal/apiregistry"
)

// Items returns the current snapshot in store order. The slice is a copy;
// the objects must not be modified.
func (s *ObjectStore) Items() []*unstructured.Unstructured {
	s.mu.RLock()
	if s.sorted != nil {
		out := slices.Clone(s.sorted)
		s.mu.RUnlock()
		return out
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.sortLocked())
}

// Len returns the number of cached objects.
func (s *ObjectStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}

// FilterFunc returns the objects for which keep is true, in store order.
func (s *ObjectStore) FilterFunc(keep func(*unstructured.Unstructured) bool) []*unstructured.Unstructured {
	var out []*unstructured.Unstructured
	for _, obj := range s.Items() {
		if keep(obj) {
			out = append(out, obj)
		}
	}
	return out
}

// Get returns the object with the given uid.
func (s *ObjectStore) Get(uid types.UID) *unstructured.Unstructured {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.objects[string(uid)]
}

// GetByName finds an object by name, and namespace for namespaced kinds.
func (s *ObjectStore) GetByName(name, namespace string) *unstructured.Unstructured {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, obj := range s.objects {
		if obj.GetName() != name {
			continue
		}
		if s.desc.Namespaced && obj.GetNamespace() != namespace {
			continue
		}
		return obj
	}
	return nil
}

// GetByPath finds the object a REST path such as
// /api/v1/namespaces/default/pods/web points to.
func (s *ObjectStore) GetByPath(path string) *unstructured.Unstructured {
	p, err := apiregistry.ParsePath(path)
	if err != nil || p.Name == "" || p.APIBase() != s.desc.APIBase {
		return nil
	}
	return s.GetByName(p.Name, p.Namespace)
}

// AllByNamespace returns the objects of the given namespaces. No namespaces
// means every object.
func (s *ObjectStore) AllByNamespace(namespaces ...string) []*unstructured.Unstructured {
	if len(namespaces) == 0 {
		return s.Items()
	}
	return s.FilterFunc(func(obj *unstructured.Unstructured) bool {
		return slices.Contains(namespaces, obj.GetNamespace())
	})
}

// GetByLabel returns the objects whose labels match selector.
func (s *ObjectStore) GetByLabel(selector labels.Selector) []*unstructured.Unstructured {
	return s.FilterFunc(func(obj *unstructured.Unstructured) bool {
		return selector.Matches(labels.Set(obj.GetLabels()))
	})
}

// GetByOwner returns the objects carrying an owner reference to uid.
func (s *ObjectStore) GetByOwner(uid types.UID) []*unstructured.Unstructured {
	return s.FilterFunc(func(obj *unstructured.Unstructured) bool {
		for _, ref := range obj.GetOwnerReferences() {
			if ref.UID == uid {
				return true
			}
		}
		return false
	})
}
