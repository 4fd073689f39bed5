package k8s

import (
	"context"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/types"
	"k8s.io/apimachinery/pkg/watch"
	"k8s.io/client-go/dynamic"

	"github.com/tapcraft-io/kubesync/internal/apiregistry"
)

// DynamicAPI implements store.API over a dynamic client. Errors are returned
// as the client produced them so callers can classify them with apierrors.
type DynamicAPI struct {
	client dynamic.Interface
}

// NewDynamicAPI wraps client.
func NewDynamicAPI(client dynamic.Interface) *DynamicAPI {
	return &DynamicAPI{client: client}
}

func (a *DynamicAPI) resource(d *apiregistry.Descriptor, namespace string) dynamic.ResourceInterface {
	r := a.client.Resource(d.GroupVersionResource())
	if d.Namespaced && namespace != "" {
		return r.Namespace(namespace)
	}
	return r
}

// List lists d in namespace, or cluster-wide when namespace is empty.
func (a *DynamicAPI) List(ctx context.Context, d *apiregistry.Descriptor, namespace string) (*unstructured.UnstructuredList, error) {
	return a.resource(d, namespace).List(ctx, metav1.ListOptions{})
}

// Watch opens a watch from resourceVersion with bookmarks enabled.
func (a *DynamicAPI) Watch(ctx context.Context, d *apiregistry.Descriptor, namespace, resourceVersion string) (watch.Interface, error) {
	return a.resource(d, namespace).Watch(ctx, metav1.ListOptions{
		ResourceVersion:     resourceVersion,
		AllowWatchBookmarks: true,
	})
}

func (a *DynamicAPI) Get(ctx context.Context, d *apiregistry.Descriptor, namespace, name string) (*unstructured.Unstructured, error) {
	return a.resource(d, namespace).Get(ctx, name, metav1.GetOptions{})
}

func (a *DynamicAPI) Create(ctx context.Context, d *apiregistry.Descriptor, obj *unstructured.Unstructured) (*unstructured.Unstructured, error) {
	return a.resource(d, obj.GetNamespace()).Create(ctx, obj, metav1.CreateOptions{})
}

func (a *DynamicAPI) Update(ctx context.Context, d *apiregistry.Descriptor, obj *unstructured.Unstructured) (*unstructured.Unstructured, error) {
	return a.resource(d, obj.GetNamespace()).Update(ctx, obj, metav1.UpdateOptions{})
}

// Patch applies a JSON merge patch.
func (a *DynamicAPI) Patch(ctx context.Context, d *apiregistry.Descriptor, namespace, name string, patch []byte) (*unstructured.Unstructured, error) {
	return a.resource(d, namespace).Patch(ctx, name, types.MergePatchType, patch, metav1.PatchOptions{})
}

func (a *DynamicAPI) Delete(ctx context.Context, d *apiregistry.Descriptor, namespace, name string) error {
	return a.resource(d, namespace).Delete(ctx, name, metav1.DeleteOptions{})
}
