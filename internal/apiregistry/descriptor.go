package apiregistry

import (
	"strings"

	"k8s.io/apimachinery/pkg/runtime/schema"
)

// Descriptor describes one Kubernetes resource kind and where its REST
// collection lives. Descriptors are treated as immutable once registered.
type Descriptor struct {
	// APIBase is the canonical collection path, e.g. "/apis/apps/v1/deployments".
	APIBase string
	// Kind is the Kubernetes kind, e.g. "Deployment".
	Kind string
	// APIVersion is the group/version pair, e.g. "apps/v1" or "v1".
	APIVersion string
	// Namespaced is false for cluster-scoped kinds such as Node.
	Namespaced bool
}

// NewForGVR builds a descriptor for a group/version/resource triple.
func NewForGVR(gvr schema.GroupVersionResource, kind string, namespaced bool) *Descriptor {
	prefix := "/apis"
	if gvr.Group == "" {
		prefix = "/api"
	}
	gv := gvr.GroupVersion().String()
	return &Descriptor{
		APIBase:    CreatePath(PathOptions{Prefix: prefix, APIVersion: gv, Resource: gvr.Resource}),
		Kind:       kind,
		APIVersion: gv,
		Namespaced: namespaced,
	}
}

// GroupVersion parses APIVersion. Malformed versions yield an empty GroupVersion.
func (d *Descriptor) GroupVersion() schema.GroupVersion {
	gv, err := schema.ParseGroupVersion(d.APIVersion)
	if err != nil {
		return schema.GroupVersion{}
	}
	return gv
}

// Resource returns the plural resource segment of APIBase.
func (d *Descriptor) Resource() string {
	p, err := ParsePath(d.APIBase)
	if err != nil {
		return ""
	}
	return p.Resource
}

// APIPrefix returns "/api" or "/apis".
func (d *Descriptor) APIPrefix() string {
	p, err := ParsePath(d.APIBase)
	if err != nil {
		return ""
	}
	return p.Prefix
}

// GroupVersionResource is what the dynamic client needs to reach the collection.
func (d *Descriptor) GroupVersionResource() schema.GroupVersionResource {
	return d.GroupVersion().WithResource(d.Resource())
}

// URL builds the REST path for the collection, a namespaced collection or a
// single object. The namespace is ignored for cluster-scoped kinds.
func (d *Descriptor) URL(namespace, name string) string {
	if !d.Namespaced {
		namespace = ""
	}
	return CreatePath(PathOptions{
		Prefix:     d.APIPrefix(),
		APIVersion: d.APIVersion,
		Namespace:  namespace,
		Resource:   d.Resource(),
		Name:       name,
	})
}

func (d *Descriptor) String() string {
	return d.Kind + " (" + strings.TrimPrefix(d.APIBase, "/") + ")"
}
