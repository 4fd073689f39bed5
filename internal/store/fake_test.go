package store

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/types"
	"k8s.io/apimachinery/pkg/watch"

	"github.com/tapcraft-io/kubesync/internal/apiregistry"
	"github.com/tapcraft-io/kubesync/internal/logging"
)

type watchCall struct {
	namespace       string
	resourceVersion string
	watcher         *watch.FakeWatcher
}

// fakeAPI is an in-memory API whose watches are driven by the test.
type fakeAPI struct {
	mu        sync.Mutex
	lists     map[string]*unstructured.UnstructuredList
	listErrs  map[string]error
	listGate  chan struct{}
	listCalls int
	watchErr  error
	opened    chan watchCall
	objects   map[string]*unstructured.Unstructured
	writeErr  error
	deleted   []string
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		lists:    make(map[string]*unstructured.UnstructuredList),
		listErrs: make(map[string]error),
		opened:   make(chan watchCall, 32),
		objects:  make(map[string]*unstructured.Unstructured),
	}
}

func (f *fakeAPI) setList(scope, rv string, objs ...*unstructured.Unstructured) {
	list := &unstructured.UnstructuredList{}
	list.SetResourceVersion(rv)
	for _, o := range objs {
		list.Items = append(list.Items, *o)
	}
	f.mu.Lock()
	f.lists[scope] = list
	f.mu.Unlock()
}

func (f *fakeAPI) List(ctx context.Context, _ *apiregistry.Descriptor, namespace string) (*unstructured.UnstructuredList, error) {
	f.mu.Lock()
	f.listCalls++
	gate := f.listGate
	f.mu.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.listErrs[namespace]; err != nil {
		return nil, err
	}
	if l, ok := f.lists[namespace]; ok {
		return l.DeepCopy(), nil
	}
	return &unstructured.UnstructuredList{}, nil
}

func (f *fakeAPI) Watch(_ context.Context, _ *apiregistry.Descriptor, namespace, rv string) (watch.Interface, error) {
	f.mu.Lock()
	err := f.watchErr
	f.mu.Unlock()
	if err != nil {
		return nil, err
	}
	w := watch.NewFakeWithChanSize(32, false)
	f.opened <- watchCall{namespace: namespace, resourceVersion: rv, watcher: w}
	return w, nil
}

func (f *fakeAPI) Get(_ context.Context, _ *apiregistry.Descriptor, namespace, name string) (*unstructured.Unstructured, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.writeErr != nil {
		return nil, f.writeErr
	}
	return f.objects[namespace+"/"+name], nil
}

func (f *fakeAPI) Create(_ context.Context, _ *apiregistry.Descriptor, obj *unstructured.Unstructured) (*unstructured.Unstructured, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.writeErr != nil {
		return nil, f.writeErr
	}
	res := obj.DeepCopy()
	res.SetUID(types.UID("uid-" + obj.GetName()))
	res.SetResourceVersion("100")
	f.objects[obj.GetNamespace()+"/"+obj.GetName()] = res
	return res, nil
}

func (f *fakeAPI) Update(_ context.Context, _ *apiregistry.Descriptor, obj *unstructured.Unstructured) (*unstructured.Unstructured, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.writeErr != nil {
		return nil, f.writeErr
	}
	res := obj.DeepCopy()
	res.SetResourceVersion("200")
	return res, nil
}

func (f *fakeAPI) Patch(_ context.Context, _ *apiregistry.Descriptor, namespace, name string, _ []byte) (*unstructured.Unstructured, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.writeErr != nil {
		return nil, f.writeErr
	}
	cur, ok := f.objects[namespace+"/"+name]
	if !ok {
		return nil, context.DeadlineExceeded
	}
	res := cur.DeepCopy()
	res.SetLabels(map[string]string{"patched": "true"})
	res.SetResourceVersion("300")
	return res, nil
}

func (f *fakeAPI) Delete(_ context.Context, _ *apiregistry.Descriptor, namespace, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.writeErr != nil {
		return f.writeErr
	}
	f.deleted = append(f.deleted, namespace+"/"+name)
	return nil
}

func newPod(ns, name, uid, rv string) *unstructured.Unstructured {
	u := &unstructured.Unstructured{}
	u.SetAPIVersion("v1")
	u.SetKind("Pod")
	u.SetNamespace(ns)
	u.SetName(name)
	u.SetUID(types.UID(uid))
	u.SetResourceVersion(rv)
	return u
}

func newTestStore(api API) *ObjectStore {
	d := *apiregistry.Pods
	return New(&d, api, Options{Logger: logging.Discard()})
}

func expectWatch(t *testing.T, api *fakeAPI) watchCall {
	t.Helper()
	select {
	case c := <-api.opened:
		return c
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a watch to open")
		return watchCall{}
	}
}

func bookmark(rv string) *unstructured.Unstructured {
	u := &unstructured.Unstructured{}
	u.SetAPIVersion("v1")
	u.SetKind("Pod")
	u.SetResourceVersion(rv)
	return u
}

func goneStatus() *metav1.Status {
	return &metav1.Status{
		Status: metav1.StatusFailure,
		Code:   410,
		Reason: metav1.StatusReasonGone,
	}
}

func names(objs []*unstructured.Unstructured) []string {
	out := make([]string, len(objs))
	for i, o := range objs {
		out[i] = o.GetName()
	}
	return out
}

func eventually(t *testing.T, cond func() bool) {
	t.Helper()
	require.Eventually(t, cond, 2*time.Second, 5*time.Millisecond)
}
