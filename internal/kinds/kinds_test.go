package kinds

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	appsv1 "k8s.io/api/apps/v1"
	batchv1 "k8s.io/api/batch/v1"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime"
	ktypes "k8s.io/apimachinery/pkg/types"
	dynamicfake "k8s.io/client-go/dynamic/fake"

	"github.com/tapcraft-io/kubesync/internal/apimanager"
	"github.com/tapcraft-io/kubesync/internal/apiregistry"
	"github.com/tapcraft-io/kubesync/internal/k8s"
	"github.com/tapcraft-io/kubesync/internal/logging"
	"github.com/tapcraft-io/kubesync/internal/store"
)

func toU(t *testing.T, obj runtime.Object) *unstructured.Unstructured {
	t.Helper()
	m, err := runtime.DefaultUnstructuredConverter.ToUnstructured(obj)
	require.NoError(t, err)
	return &unstructured.Unstructured{Object: m}
}

func loadedStore(t *testing.T, d *apiregistry.Descriptor, less store.LessFunc, objs ...runtime.Object) *store.ObjectStore {
	t.Helper()
	client := dynamicfake.NewSimpleDynamicClientWithCustomListKinds(runtime.NewScheme(), k8s.ListKinds(), objs...)
	s := store.New(d, k8s.NewDynamicAPI(client), store.Options{Less: less, Logger: logging.Discard()})
	require.NoError(t, s.LoadAll(context.Background(), store.LoadOptions{AllNamespaces: true}))
	return s
}

func pod(name, ns, ownerUID string, containers ...string) *corev1.Pod {
	p := &corev1.Pod{
		TypeMeta:   metav1.TypeMeta{APIVersion: "v1", Kind: "Pod"},
		ObjectMeta: metav1.ObjectMeta{Name: name, Namespace: ns, UID: ktypes.UID("uid-" + name)},
	}
	if ownerUID != "" {
		p.OwnerReferences = []metav1.OwnerReference{{APIVersion: "apps/v1", Kind: "ReplicaSet", Name: "rs", UID: ktypes.UID(ownerUID)}}
	}
	for _, c := range containers {
		p.Spec.Containers = append(p.Spec.Containers, corev1.Container{Name: c})
	}
	return p
}

func TestContainers(t *testing.T) {
	p := pod("web", "default", "")
	p.Spec.Containers = []corev1.Container{{Name: "app"}, {Name: "sidecar"}}
	p.Spec.InitContainers = []corev1.Container{{Name: "migrate"}, {Name: "app"}}
	assert.Equal(t, []string{"app", "sidecar", "migrate"}, Containers(toU(t, p)))

	dep := &appsv1.Deployment{
		TypeMeta:   metav1.TypeMeta{APIVersion: "apps/v1", Kind: "Deployment"},
		ObjectMeta: metav1.ObjectMeta{Name: "web", Namespace: "default"},
		Spec: appsv1.DeploymentSpec{Template: corev1.PodTemplateSpec{Spec: corev1.PodSpec{
			Containers: []corev1.Container{{Name: "nginx"}},
		}}},
	}
	assert.Equal(t, []string{"nginx"}, Containers(toU(t, dep)))

	cj := &batchv1.CronJob{
		TypeMeta:   metav1.TypeMeta{APIVersion: "batch/v1", Kind: "CronJob"},
		ObjectMeta: metav1.ObjectMeta{Name: "backup", Namespace: "default"},
		Spec: batchv1.CronJobSpec{JobTemplate: batchv1.JobTemplateSpec{Spec: batchv1.JobSpec{
			Template: corev1.PodTemplateSpec{Spec: corev1.PodSpec{Containers: []corev1.Container{{Name: "dump"}}}},
		}}},
	}
	assert.Equal(t, []string{"dump"}, Containers(toU(t, cj)))

	cm := &corev1.ConfigMap{TypeMeta: metav1.TypeMeta{APIVersion: "v1", Kind: "ConfigMap"}, ObjectMeta: metav1.ObjectMeta{Name: "c"}}
	assert.Nil(t, Containers(toU(t, cm)))
}

func TestPods(t *testing.T) {
	s := loadedStore(t, apiregistry.Pods, nil,
		toU(t, pod("a", "default", "rs-1", "app")),
		toU(t, pod("b", "default", "rs-1", "app")),
		toU(t, pod("c", "default", "rs-2", "other")),
	)
	pods := Pods(s)

	owned := pods.ForOwner("rs-1")
	require.Len(t, owned, 2)
	assert.Equal(t, "a", owned[0].Name)

	assert.Equal(t, []string{"other"}, pods.ContainersOf("default", "c"))
	assert.Nil(t, pods.ContainersOf("default", "missing"))
}

func event(name, ns string, involved corev1.ObjectReference, last time.Time, typ string) *corev1.Event {
	return &corev1.Event{
		TypeMeta:       metav1.TypeMeta{APIVersion: "v1", Kind: "Event"},
		ObjectMeta:     metav1.ObjectMeta{Name: name, Namespace: ns, UID: ktypes.UID("uid-" + name)},
		InvolvedObject: involved,
		LastTimestamp:  metav1.NewTime(last),
		Type:           typ,
	}
}

func TestEvents(t *testing.T) {
	now := time.Now().Truncate(time.Second)
	target := toU(t, pod("web", "default", ""))
	ref := corev1.ObjectReference{Kind: "Pod", Name: "web", Namespace: "default", UID: "uid-web"}

	s := loadedStore(t, apiregistry.Events, ByLastSeen,
		toU(t, event("old", "default", ref, now.Add(-time.Hour), corev1.EventTypeNormal)),
		toU(t, event("new", "default", ref, now, corev1.EventTypeWarning)),
		toU(t, event("byname", "default", corev1.ObjectReference{Kind: "Pod", Name: "web", Namespace: "default"}, now.Add(-time.Minute), corev1.EventTypeNormal)),
		toU(t, event("unrelated", "default", corev1.ObjectReference{Kind: "Pod", Name: "db", Namespace: "default"}, now, corev1.EventTypeWarning)),
	)
	events := Events(s)

	got := events.For(target)
	names := make([]string, len(got))
	for i, e := range got {
		names[i] = e.Name
	}
	assert.Equal(t, []string{"new", "byname", "old"}, names)
	assert.Len(t, events.Warnings(), 2)
}

func TestNamespaces(t *testing.T) {
	ns := func(name string) *unstructured.Unstructured {
		return toU(t, &corev1.Namespace{
			TypeMeta:   metav1.TypeMeta{APIVersion: "v1", Kind: "Namespace"},
			ObjectMeta: metav1.ObjectMeta{Name: name, UID: ktypes.UID("uid-" + name)},
		})
	}
	s := loadedStore(t, apiregistry.Namespaces, ByName, ns("kube-system"), ns("default"), ns("apps"))
	assert.Equal(t, []string{"apps", "default", "kube-system"}, Namespaces(s).Names())
}

func TestNewStores(t *testing.T) {
	m := apimanager.New(apimanager.Options{Logger: logging.Discard()})
	stores, err := NewStores(m, nil, store.Options{Logger: logging.Discard()})
	require.NoError(t, err)
	assert.Len(t, stores, len(apiregistry.Builtin()))
	assert.Same(t, stores[0], m.StoreByKind("Namespace", "v1"))
	assert.NotNil(t, m.Store("/apis/apps/v1/namespaces/default/deployments/web"))

	_, err = NewStores(m, nil, store.Options{})
	assert.Error(t, err, "registering twice must fail")
}

func TestListItem(t *testing.T) {
	replicas := int32(3)
	dep := &appsv1.Deployment{
		TypeMeta:   metav1.TypeMeta{APIVersion: "apps/v1", Kind: "Deployment"},
		ObjectMeta: metav1.ObjectMeta{Name: "web", Namespace: "shop", CreationTimestamp: metav1.NewTime(time.Now().Add(-time.Minute))},
		Spec:       appsv1.DeploymentSpec{Replicas: &replicas},
		Status:     appsv1.DeploymentStatus{ReadyReplicas: 2},
	}
	item := ListItem(toU(t, dep))
	assert.Equal(t, "web", item.Title)
	assert.Equal(t, "2/3", item.Metadata["ready"])
	assert.Contains(t, item.Description, "Ready: 2/3")
	assert.Contains(t, item.Description, "NS: shop")

	node := &corev1.Node{
		TypeMeta:   metav1.TypeMeta{APIVersion: "v1", Kind: "Node"},
		ObjectMeta: metav1.ObjectMeta{Name: "n1"},
		Status:     corev1.NodeStatus{Conditions: []corev1.NodeCondition{{Type: corev1.NodeReady, Status: corev1.ConditionFalse}}},
	}
	assert.Equal(t, "NotReady", ListItem(toU(t, node)).Metadata["status"])
	assert.Len(t, ListItems([]*unstructured.Unstructured{toU(t, node), toU(t, dep)}), 2)
}
