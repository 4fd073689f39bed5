package kinds

import (
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"

	"github.com/tapcraft-io/kubesync/internal/store"
)

// NamespaceStore is a typed view of the namespaces store.
type NamespaceStore struct {
	*store.ObjectStore
}

// Namespaces wraps s, which must hold namespaces.
func Namespaces(s *store.ObjectStore) NamespaceStore {
	return NamespaceStore{ObjectStore: s}
}

// Names returns the namespace names in store order.
func (n NamespaceStore) Names() []string {
	items := n.Items()
	names := make([]string, len(items))
	for i, obj := range items {
		names[i] = obj.GetName()
	}
	return names
}

// ByName orders objects by name alone.
func ByName(a, b *unstructured.Unstructured) bool {
	return a.GetName() < b.GetName()
}
