package apiregistry

import "k8s.io/apimachinery/pkg/runtime/schema"

// Well-known descriptors. They are package values so that callers can refer
// to e.g. apiregistry.Pods without a lookup; Builtin returns fresh copies.
var (
	Namespaces   = NewForGVR(schema.GroupVersionResource{Version: "v1", Resource: "namespaces"}, "Namespace", false)
	Nodes        = NewForGVR(schema.GroupVersionResource{Version: "v1", Resource: "nodes"}, "Node", false)
	Pods         = NewForGVR(schema.GroupVersionResource{Version: "v1", Resource: "pods"}, "Pod", true)
	Services     = NewForGVR(schema.GroupVersionResource{Version: "v1", Resource: "services"}, "Service", true)
	ConfigMaps   = NewForGVR(schema.GroupVersionResource{Version: "v1", Resource: "configmaps"}, "ConfigMap", true)
	Secrets      = NewForGVR(schema.GroupVersionResource{Version: "v1", Resource: "secrets"}, "Secret", true)
	Events       = NewForGVR(schema.GroupVersionResource{Version: "v1", Resource: "events"}, "Event", true)
	PVCs         = NewForGVR(schema.GroupVersionResource{Version: "v1", Resource: "persistentvolumeclaims"}, "PersistentVolumeClaim", true)
	SAs          = NewForGVR(schema.GroupVersionResource{Version: "v1", Resource: "serviceaccounts"}, "ServiceAccount", true)
	Deployments  = NewForGVR(schema.GroupVersionResource{Group: "apps", Version: "v1", Resource: "deployments"}, "Deployment", true)
	ReplicaSets  = NewForGVR(schema.GroupVersionResource{Group: "apps", Version: "v1", Resource: "replicasets"}, "ReplicaSet", true)
	StatefulSets = NewForGVR(schema.GroupVersionResource{Group: "apps", Version: "v1", Resource: "statefulsets"}, "StatefulSet", true)
	DaemonSets   = NewForGVR(schema.GroupVersionResource{Group: "apps", Version: "v1", Resource: "daemonsets"}, "DaemonSet", true)
	Jobs         = NewForGVR(schema.GroupVersionResource{Group: "batch", Version: "v1", Resource: "jobs"}, "Job", true)
	CronJobs     = NewForGVR(schema.GroupVersionResource{Group: "batch", Version: "v1", Resource: "cronjobs"}, "CronJob", true)
	Ingresses    = NewForGVR(schema.GroupVersionResource{Group: "networking.k8s.io", Version: "v1", Resource: "ingresses"}, "Ingress", true)
	HPAs         = NewForGVR(schema.GroupVersionResource{Group: "autoscaling", Version: "v2", Resource: "horizontalpodautoscalers"}, "HorizontalPodAutoscaler", true)
	Roles        = NewForGVR(schema.GroupVersionResource{Group: "rbac.authorization.k8s.io", Version: "v1", Resource: "roles"}, "Role", true)
	RoleBindings = NewForGVR(schema.GroupVersionResource{Group: "rbac.authorization.k8s.io", Version: "v1", Resource: "rolebindings"}, "RoleBinding", true)
	ClusterRoles = NewForGVR(schema.GroupVersionResource{Group: "rbac.authorization.k8s.io", Version: "v1", Resource: "clusterroles"}, "ClusterRole", false)
)

// Builtin returns the descriptors the explorer ships with, in display order.
func Builtin() []*Descriptor {
	all := []*Descriptor{
		Namespaces, Nodes,
		Pods, Deployments, ReplicaSets, StatefulSets, DaemonSets, Jobs, CronJobs,
		Services, Ingresses, ConfigMaps, Secrets, PVCs,
		Events, HPAs,
		SAs, Roles, RoleBindings, ClusterRoles,
	}
	out := make([]*Descriptor, len(all))
	for i, d := range all {
		c := *d
		out[i] = &c
	}
	return out
}
