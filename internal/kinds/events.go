package kinds

import (
	"time"

	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/types"

	"github.com/tapcraft-io/kubesync/internal/store"
)

// EventStore is a typed view of the events store.
type EventStore struct {
	*store.ObjectStore
}

// Events wraps s, which must hold core/v1 events.
func Events(s *store.ObjectStore) EventStore {
	return EventStore{ObjectStore: s}
}

// For returns the events about obj, most recent first.
func (e EventStore) For(obj *unstructured.Unstructured) []*corev1.Event {
	uid := obj.GetUID()
	kind, ns, name := obj.GetKind(), obj.GetNamespace(), obj.GetName()
	return all[corev1.Event](e.FilterFunc(func(ev *unstructured.Unstructured) bool {
		involved, _, _ := unstructured.NestedStringMap(ev.Object, "involvedObject")
		if uid != "" && types.UID(involved["uid"]) == uid {
			return true
		}
		return involved["kind"] == kind && involved["namespace"] == ns && involved["name"] == name
	}))
}

// Warnings returns every warning event, most recent first.
func (e EventStore) Warnings() []*corev1.Event {
	return all[corev1.Event](e.FilterFunc(func(ev *unstructured.Unstructured) bool {
		t, _, _ := unstructured.NestedString(ev.Object, "type")
		return t == corev1.EventTypeWarning
	}))
}

// lastSeen is the most specific timestamp an event carries.
func lastSeen(ev *unstructured.Unstructured) time.Time {
	for _, field := range []string{"lastTimestamp", "eventTime", "firstTimestamp"} {
		s, _, _ := unstructured.NestedString(ev.Object, field)
		if s == "" {
			continue
		}
		if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
			return t
		}
	}
	return ev.GetCreationTimestamp().Time
}

// ByLastSeen orders events most recent first.
func ByLastSeen(a, b *unstructured.Unstructured) bool {
	return lastSeen(a).After(lastSeen(b))
}
