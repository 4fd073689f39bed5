package k8s

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/watch"
	dynamicfake "k8s.io/client-go/dynamic/fake"

	"github.com/tapcraft-io/kubesync/internal/apiregistry"
	"github.com/tapcraft-io/kubesync/internal/logging"
	"github.com/tapcraft-io/kubesync/internal/store"
)

func newPod(ns, name string) *unstructured.Unstructured {
	u := &unstructured.Unstructured{}
	u.SetAPIVersion("v1")
	u.SetKind("Pod")
	u.SetNamespace(ns)
	u.SetName(name)
	return u
}

func newFakeAPI(objs ...runtime.Object) *DynamicAPI {
	return NewDynamicAPI(dynamicfake.NewSimpleDynamicClientWithCustomListKinds(runtime.NewScheme(), ListKinds(), objs...))
}

func TestDynamicAPI_CRUD(t *testing.T) {
	ctx := context.Background()
	api := newFakeAPI(newPod("other", "elsewhere"))
	pods := apiregistry.Pods

	created, err := api.Create(ctx, pods, newPod("default", "web"))
	require.NoError(t, err)
	assert.Equal(t, "web", created.GetName())

	got, err := api.Get(ctx, pods, "default", "web")
	require.NoError(t, err)
	assert.Equal(t, "default", got.GetNamespace())

	list, err := api.List(ctx, pods, "default")
	require.NoError(t, err)
	assert.Len(t, list.Items, 1)

	all, err := api.List(ctx, pods, "")
	require.NoError(t, err)
	assert.Len(t, all.Items, 2)

	patched, err := api.Patch(ctx, pods, "default", "web", []byte(`{"metadata":{"labels":{"app":"web"}}}`))
	require.NoError(t, err)
	assert.Equal(t, "web", patched.GetLabels()["app"])

	patched.SetAnnotations(map[string]string{"note": "x"})
	updated, err := api.Update(ctx, pods, patched)
	require.NoError(t, err)
	assert.Equal(t, "x", updated.GetAnnotations()["note"])

	require.NoError(t, api.Delete(ctx, pods, "default", "web"))
	_, err = api.Get(ctx, pods, "default", "web")
	assert.True(t, apierrors.IsNotFound(err))
}

func TestDynamicAPI_Watch(t *testing.T) {
	ctx := context.Background()
	api := newFakeAPI()

	w, err := api.Watch(ctx, apiregistry.Pods, "default", "")
	require.NoError(t, err)
	defer w.Stop()

	_, err = api.Create(ctx, apiregistry.Pods, newPod("default", "web"))
	require.NoError(t, err)

	select {
	case ev := <-w.ResultChan():
		assert.Equal(t, watch.Added, ev.Type)
		obj, ok := ev.Object.(*unstructured.Unstructured)
		require.True(t, ok)
		assert.Equal(t, "web", obj.GetName())
	case <-time.After(2 * time.Second):
		t.Fatal("no watch event")
	}
}

func TestNewDemoClient(t *testing.T) {
	c, err := NewDemoClient()
	require.NoError(t, err)
	assert.Equal(t, DemoContext, c.Context)

	ctx := context.Background()
	api := c.API()

	namespaces, err := api.List(ctx, apiregistry.Namespaces, "")
	require.NoError(t, err)
	assert.Len(t, namespaces.Items, 6)

	podStore := store.New(apiregistry.Pods, api, store.Options{Logger: logging.Discard()})
	require.NoError(t, podStore.LoadAll(ctx, store.LoadOptions{Namespaces: []string{"default", "production"}}))
	assert.Equal(t, 10, podStore.Len())

	for _, pod := range podStore.Items() {
		assert.NotEmpty(t, pod.GetUID())
	}
	assert.Len(t, podStore.GetByOwner("demo-ReplicaSet-default-nginx-app-7d8f9c"), 2)
}

func TestSimulate(t *testing.T) {
	c, err := NewDemoClient()
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Simulate(ctx, c.Dynamic, 5*time.Millisecond) }()

	events := c.Dynamic.Resource(apiregistry.Events.GroupVersionResource())
	require.Eventually(t, func() bool {
		list, err := events.List(ctx, metav1.ListOptions{})
		return err == nil && len(list.Items) >= 2
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
}
