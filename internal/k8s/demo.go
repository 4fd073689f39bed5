package k8s

import (
	"context"
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	appsv1 "k8s.io/api/apps/v1"
	batchv1 "k8s.io/api/batch/v1"
	corev1 "k8s.io/api/core/v1"
	networkingv1 "k8s.io/api/networking/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"k8s.io/apimachinery/pkg/types"
	"k8s.io/client-go/dynamic"
	dynamicfake "k8s.io/client-go/dynamic/fake"
	kubefake "k8s.io/client-go/kubernetes/fake"
	"k8s.io/client-go/rest"

	"github.com/tapcraft-io/kubesync/internal/apiregistry"
)

// DemoContext is the context name reported by the demo client.
const DemoContext = "demo"

// demoRV hands out resourceVersions for the demo cluster.
var demoRV atomic.Int64

func nextDemoRV() string {
	return strconv.FormatInt(demoRV.Add(1), 10)
}

// ListKinds maps every builtin resource to its list kind, which the fake
// dynamic client needs to answer list calls.
func ListKinds() map[schema.GroupVersionResource]string {
	out := make(map[schema.GroupVersionResource]string)
	for _, d := range apiregistry.Builtin() {
		out[d.GroupVersionResource()] = d.Kind + "List"
	}
	return out
}

// NewDemoClient creates a client backed by an in-memory cluster with fake data
func NewDemoClient() (*Client, error) {
	objs, err := demoObjects()
	if err != nil {
		return nil, err
	}
	dyn := dynamicfake.NewSimpleDynamicClientWithCustomListKinds(runtime.NewScheme(), ListKinds(), objs...)
	return &Client{
		Dynamic:    dyn,
		Clientset:  kubefake.NewClientset(),
		RestConfig: &rest.Config{Host: "demo.invalid"},
		Context:    DemoContext,
	}, nil
}

// Simulate keeps the demo cluster moving until ctx is done: every interval
// one pod is touched and an event about it is recorded.
func Simulate(ctx context.Context, client dynamic.Interface, interval time.Duration) error {
	pods := client.Resource(apiregistry.Pods.GroupVersionResource())
	events := client.Resource(apiregistry.Events.GroupVersionResource())

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for tick := 0; ; tick++ {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}

		list, err := pods.List(ctx, metav1.ListOptions{})
		if err != nil {
			return fmt.Errorf("failed to list demo pods: %w", err)
		}
		if len(list.Items) == 0 {
			continue
		}
		pod := list.Items[tick%len(list.Items)].DeepCopy()

		annotations := pod.GetAnnotations()
		if annotations == nil {
			annotations = map[string]string{}
		}
		restarts, _ := strconv.Atoi(annotations["kubesync.io/demo-restarts"])
		annotations["kubesync.io/demo-restarts"] = strconv.Itoa(restarts + 1)
		pod.SetAnnotations(annotations)
		pod.SetResourceVersion(nextDemoRV())
		if _, err := pods.Namespace(pod.GetNamespace()).Update(ctx, pod, metav1.UpdateOptions{}); err != nil {
			return fmt.Errorf("failed to update demo pod: %w", err)
		}

		ev, err := toUnstructured(demoEvent(pod, restarts+1))
		if err != nil {
			return err
		}
		if _, err := events.Namespace(pod.GetNamespace()).Create(ctx, ev, metav1.CreateOptions{}); err != nil {
			return fmt.Errorf("failed to record demo event: %w", err)
		}
	}
}

func demoEvent(pod *unstructured.Unstructured, n int) *corev1.Event {
	now := metav1.Now()
	name := fmt.Sprintf("%s.%d", pod.GetName(), n)
	return &corev1.Event{
		TypeMeta: metav1.TypeMeta{APIVersion: "v1", Kind: "Event"},
		ObjectMeta: metav1.ObjectMeta{
			Name:              name,
			Namespace:         pod.GetNamespace(),
			UID:               types.UID("demo-event-" + name),
			CreationTimestamp: now,
		},
		InvolvedObject: corev1.ObjectReference{
			Kind:       "Pod",
			APIVersion: "v1",
			Name:       pod.GetName(),
			Namespace:  pod.GetNamespace(),
			UID:        pod.GetUID(),
		},
		Reason:        "Restarted",
		Message:       fmt.Sprintf("Container restarted (%d)", n),
		Type:          corev1.EventTypeNormal,
		LastTimestamp: now,
		Count:         1,
	}
}

func toUnstructured(obj runtime.Object) (*unstructured.Unstructured, error) {
	m, err := runtime.DefaultUnstructuredConverter.ToUnstructured(obj)
	if err != nil {
		return nil, fmt.Errorf("failed to convert %T: %w", obj, err)
	}
	u := &unstructured.Unstructured{Object: m}
	if u.GetResourceVersion() == "" {
		u.SetResourceVersion(nextDemoRV())
	}
	return u, nil
}

func meta(kind, namespace, name string, created metav1.Time) metav1.ObjectMeta {
	return metav1.ObjectMeta{
		Name:              name,
		Namespace:         namespace,
		UID:               types.UID(fmt.Sprintf("demo-%s-%s-%s", kind, namespace, name)),
		CreationTimestamp: created,
	}
}

func ownedBy(m metav1.ObjectMeta, apiVersion, kind, name, namespace string) metav1.ObjectMeta {
	m.OwnerReferences = []metav1.OwnerReference{{
		APIVersion: apiVersion,
		Kind:       kind,
		Name:       name,
		UID:        types.UID(fmt.Sprintf("demo-%s-%s-%s", kind, namespace, name)),
	}}
	return m
}

func containers(names ...string) []corev1.Container {
	out := make([]corev1.Container, len(names))
	for i, n := range names {
		out[i] = corev1.Container{Name: n, Image: n + ":latest"}
	}
	return out
}

// demoObjects builds the fake cluster's contents
func demoObjects() ([]runtime.Object, error) {
	now := metav1.Now()
	oneHourAgo := metav1.NewTime(time.Now().Add(-1 * time.Hour))
	oneDayAgo := metav1.NewTime(time.Now().Add(-24 * time.Hour))
	replicas := int32(2)
	completions := int32(1)

	tm := func(apiVersion, kind string) metav1.TypeMeta {
		return metav1.TypeMeta{APIVersion: apiVersion, Kind: kind}
	}

	var typed []runtime.Object

	for _, ns := range []string{"default", "kube-system", "kube-public", "production", "staging", "development"} {
		typed = append(typed, &corev1.Namespace{
			TypeMeta:   tm("v1", "Namespace"),
			ObjectMeta: meta("Namespace", "", ns, oneDayAgo),
			Status:     corev1.NamespaceStatus{Phase: corev1.NamespaceActive},
		})
	}

	for _, name := range []string{"node-1", "node-2", "node-3"} {
		typed = append(typed, &corev1.Node{
			TypeMeta:   tm("v1", "Node"),
			ObjectMeta: meta("Node", "", name, oneDayAgo),
			Status: corev1.NodeStatus{
				Conditions: []corev1.NodeCondition{{Type: corev1.NodeReady, Status: corev1.ConditionTrue}},
			},
		})
	}

	// Deployments own a ReplicaSet each, which owns the pods.
	workloads := []struct {
		ns, name, hash string
		created        metav1.Time
		images         []string
	}{
		{"default", "nginx-app", "7d8f9c", oneHourAgo, []string{"nginx"}},
		{"default", "backend-api", "6b5c4d", oneHourAgo, []string{"api", "envoy"}},
		{"default", "frontend-web", "8a7f2e", oneHourAgo, []string{"web"}},
		{"production", "my-app-prod", "1a2b3c", now, []string{"app"}},
	}
	for _, w := range workloads {
		template := corev1.PodTemplateSpec{Spec: corev1.PodSpec{Containers: containers(w.images...)}}
		rsName := w.name + "-" + w.hash
		typed = append(typed,
			&appsv1.Deployment{
				TypeMeta:   tm("apps/v1", "Deployment"),
				ObjectMeta: meta("Deployment", w.ns, w.name, w.created),
				Spec:       appsv1.DeploymentSpec{Replicas: &replicas, Template: template},
				Status:     appsv1.DeploymentStatus{ReadyReplicas: 2},
			},
			&appsv1.ReplicaSet{
				TypeMeta:   tm("apps/v1", "ReplicaSet"),
				ObjectMeta: ownedBy(meta("ReplicaSet", w.ns, rsName, w.created), "apps/v1", "Deployment", w.name, w.ns),
				Spec:       appsv1.ReplicaSetSpec{Replicas: &replicas, Template: template},
				Status:     appsv1.ReplicaSetStatus{ReadyReplicas: 2},
			},
		)
		for _, suffix := range []string{"abc12", "def34"} {
			typed = append(typed, &corev1.Pod{
				TypeMeta:   tm("v1", "Pod"),
				ObjectMeta: ownedBy(meta("Pod", w.ns, rsName+"-"+suffix, w.created), "apps/v1", "ReplicaSet", rsName, w.ns),
				Spec:       template.Spec,
				Status:     corev1.PodStatus{Phase: corev1.PodRunning},
			})
		}
	}

	typed = append(typed,
		&corev1.Pod{
			TypeMeta:   tm("v1", "Pod"),
			ObjectMeta: ownedBy(meta("Pod", "default", "redis-cluster-0", oneHourAgo), "apps/v1", "StatefulSet", "redis-cluster", "default"),
			Spec:       corev1.PodSpec{Containers: containers("redis")},
			Status:     corev1.PodStatus{Phase: corev1.PodRunning},
		},
		&corev1.Pod{
			TypeMeta:   tm("v1", "Pod"),
			ObjectMeta: meta("Pod", "production", "database-primary-4d5e6f", oneDayAgo),
			Spec:       corev1.PodSpec{Containers: containers("postgres"), InitContainers: containers("init-schema")},
			Status:     corev1.PodStatus{Phase: corev1.PodRunning},
		},
		&corev1.Service{
			TypeMeta:   tm("v1", "Service"),
			ObjectMeta: meta("Service", "default", "nginx-service", oneHourAgo),
			Spec:       corev1.ServiceSpec{Type: corev1.ServiceTypeClusterIP},
		},
		&corev1.Service{
			TypeMeta:   tm("v1", "Service"),
			ObjectMeta: meta("Service", "default", "backend-api-service", oneHourAgo),
			Spec:       corev1.ServiceSpec{Type: corev1.ServiceTypeClusterIP},
		},
		&corev1.Service{
			TypeMeta:   tm("v1", "Service"),
			ObjectMeta: meta("Service", "default", "frontend-web-service", oneHourAgo),
			Spec:       corev1.ServiceSpec{Type: corev1.ServiceTypeLoadBalancer},
		},
		&appsv1.StatefulSet{
			TypeMeta:   tm("apps/v1", "StatefulSet"),
			ObjectMeta: meta("StatefulSet", "default", "redis-cluster", oneHourAgo),
			Spec: appsv1.StatefulSetSpec{
				Replicas: &replicas,
				Template: corev1.PodTemplateSpec{Spec: corev1.PodSpec{Containers: containers("redis")}},
			},
			Status: appsv1.StatefulSetStatus{ReadyReplicas: 2},
		},
		&appsv1.DaemonSet{
			TypeMeta:   tm("apps/v1", "DaemonSet"),
			ObjectMeta: meta("DaemonSet", "kube-system", "kube-proxy", oneDayAgo),
			Spec:       appsv1.DaemonSetSpec{Template: corev1.PodTemplateSpec{Spec: corev1.PodSpec{Containers: containers("kube-proxy")}}},
			Status:     appsv1.DaemonSetStatus{NumberReady: 3, DesiredNumberScheduled: 3},
		},
		&appsv1.DaemonSet{
			TypeMeta:   tm("apps/v1", "DaemonSet"),
			ObjectMeta: meta("DaemonSet", "kube-system", "fluentd", oneDayAgo),
			Spec:       appsv1.DaemonSetSpec{Template: corev1.PodTemplateSpec{Spec: corev1.PodSpec{Containers: containers("fluentd")}}},
			Status:     appsv1.DaemonSetStatus{NumberReady: 3, DesiredNumberScheduled: 3},
		},
		&corev1.ConfigMap{
			TypeMeta:   tm("v1", "ConfigMap"),
			ObjectMeta: meta("ConfigMap", "default", "app-config", oneHourAgo),
			Data:       map[string]string{"key1": "value1", "key2": "value2"},
		},
		&corev1.ConfigMap{
			TypeMeta:   tm("v1", "ConfigMap"),
			ObjectMeta: meta("ConfigMap", "default", "nginx-config", oneHourAgo),
			Data:       map[string]string{"nginx.conf": "server {}"},
		},
		&corev1.Secret{
			TypeMeta:   tm("v1", "Secret"),
			ObjectMeta: meta("Secret", "default", "db-credentials", oneHourAgo),
			Type:       corev1.SecretTypeOpaque,
			Data:       map[string][]byte{"username": []byte("admin"), "password": []byte("secret")},
		},
		&batchv1.Job{
			TypeMeta:   tm("batch/v1", "Job"),
			ObjectMeta: meta("Job", "default", "data-migration-job", oneHourAgo),
			Spec:       batchv1.JobSpec{Completions: &completions},
			Status:     batchv1.JobStatus{Succeeded: 1},
		},
		&batchv1.CronJob{
			TypeMeta:   tm("batch/v1", "CronJob"),
			ObjectMeta: meta("CronJob", "default", "backup-cronjob", oneHourAgo),
			Spec:       batchv1.CronJobSpec{Schedule: "0 2 * * *"},
		},
		&networkingv1.Ingress{
			TypeMeta:   tm("networking.k8s.io/v1", "Ingress"),
			ObjectMeta: meta("Ingress", "default", "main-ingress", oneHourAgo),
			Spec: networkingv1.IngressSpec{
				Rules: []networkingv1.IngressRule{{Host: "example.com"}, {Host: "api.example.com"}},
			},
		},
	)

	objs := make([]runtime.Object, 0, len(typed))
	for _, t := range typed {
		u, err := toUnstructured(t)
		if err != nil {
			return nil, err
		}
		objs = append(objs, u)
	}
	return objs, nil
}
