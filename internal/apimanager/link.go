package apimanager

import (
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"

	"github.com/tapcraft-io/kubesync/internal/apiregistry"
	"github.com/tapcraft-io/kubesync/internal/store"
)

// Reference points at an object of any kind, as found in owner references
// and event involved-object fields.
type Reference struct {
	Kind       string
	APIVersion string
	Name       string
	Namespace  string
}

// FromOwnerReference converts an owner reference. Owner references carry no
// namespace; the owner lives next to the object.
func FromOwnerReference(ref metav1.OwnerReference) Reference {
	return Reference{Kind: ref.Kind, APIVersion: ref.APIVersion, Name: ref.Name}
}

// FromObjectReference converts an object reference such as an event's
// involved object.
func FromObjectReference(ref corev1.ObjectReference) Reference {
	return Reference{Kind: ref.Kind, APIVersion: ref.APIVersion, Name: ref.Name, Namespace: ref.Namespace}
}

// LookupLink turns ref into a resource path. The namespace defaults to the
// one of relativeTo, which may be nil. Candidates, first match wins:
//
//  1. a descriptor registered for kind and apiVersion
//  2. a conventional path under /apis or /api that resolves to a descriptor
//  3. a descriptor registered for kind under any version
//  4. a conventional /apis path, even though nothing is registered for it
func (m *Manager) LookupLink(ref Reference, relativeTo metav1.Object) string {
	apiVersion := ref.APIVersion
	if apiVersion == "" {
		apiVersion = "v1"
	}
	namespace := ref.Namespace
	if namespace == "" && relativeTo != nil {
		namespace = relativeTo.GetNamespace()
	}

	if d := m.registry.ResolveByKindAndVersion(ref.Kind, apiVersion); d != nil {
		return d.URL(namespace, ref.Name)
	}

	resource := apiregistry.Pluralize(ref.Kind)
	for _, prefix := range []string{"/apis", "/api"} {
		path := apiregistry.CreatePath(apiregistry.PathOptions{
			Prefix:     prefix,
			APIVersion: apiVersion,
			Namespace:  namespace,
			Resource:   resource,
			Name:       ref.Name,
		})
		if d := m.registry.Resolve(path); d != nil {
			return d.URL(namespace, ref.Name)
		}
	}

	if d := m.registry.ResolveFunc(func(d *apiregistry.Descriptor) bool { return d.Kind == ref.Kind }); d != nil {
		return d.URL(namespace, ref.Name)
	}

	return apiregistry.CreatePath(apiregistry.PathOptions{
		APIVersion: apiVersion,
		Namespace:  namespace,
		Resource:   resource,
		Name:       ref.Name,
	})
}

// StoreForReference returns the store ref's link resolves to, or nil.
func (m *Manager) StoreForReference(ref Reference, relativeTo metav1.Object) *store.ObjectStore {
	return m.Store(m.LookupLink(ref, relativeTo))
}

// LookupObject returns the cached object ref points at, or nil when no
// store is bound or the object is not cached.
func (m *Manager) LookupObject(ref Reference, relativeTo metav1.Object) *unstructured.Unstructured {
	link := m.LookupLink(ref, relativeTo)
	s := m.Store(link)
	if s == nil {
		return nil
	}
	return s.GetByPath(link)
}
