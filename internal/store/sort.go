package store

import (
	"slices"
	"strings"

	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
)

// LessFunc orders two objects of one kind.
type LessFunc func(a, b *unstructured.Unstructured) bool

// ByNamespaceAndName is the default order.
func ByNamespaceAndName(a, b *unstructured.Unstructured) bool {
	if a.GetNamespace() != b.GetNamespace() {
		return a.GetNamespace() < b.GetNamespace()
	}
	return a.GetName() < b.GetName()
}

// ByNewest orders by creation timestamp, newest first.
func ByNewest(a, b *unstructured.Unstructured) bool {
	ta, tb := a.GetCreationTimestamp(), b.GetCreationTimestamp()
	return tb.Before(&ta)
}

// ByLabel orders by the value of a label, objects without it last.
func ByLabel(key string) LessFunc {
	return func(a, b *unstructured.Unstructured) bool {
		av, aok := a.GetLabels()[key]
		bv, bok := b.GetLabels()[key]
		if aok != bok {
			return aok
		}
		return av < bv
	}
}

// totalOrder extends less so that any two distinct objects compare unequal:
// ties fall back to name, then cache identity.
func totalOrder(less LessFunc) LessFunc {
	if less == nil {
		less = ByNamespaceAndName
	}
	return func(a, b *unstructured.Unstructured) bool {
		if less(a, b) {
			return true
		}
		if less(b, a) {
			return false
		}
		if a.GetName() != b.GetName() {
			return a.GetName() < b.GetName()
		}
		return objectKey(a) < objectKey(b)
	}
}

func (s *ObjectStore) sortLocked() []*unstructured.Unstructured {
	if s.sorted != nil {
		return s.sorted
	}
	out := make([]*unstructured.Unstructured, 0, len(s.objects))
	for _, obj := range s.objects {
		out = append(out, obj)
	}
	slices.SortFunc(out, func(a, b *unstructured.Unstructured) int {
		switch {
		case s.less(a, b):
			return -1
		case s.less(b, a):
			return 1
		default:
			return strings.Compare(objectKey(a), objectKey(b))
		}
	})
	s.sorted = out
	return out
}
