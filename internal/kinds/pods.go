package kinds

import (
	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/types"

	"github.com/tapcraft-io/kubesync/internal/store"
)

// PodStore is a typed view of the pods store.
type PodStore struct {
	*store.ObjectStore
}

// Pods wraps s, which must hold pods.
func Pods(s *store.ObjectStore) PodStore {
	return PodStore{ObjectStore: s}
}

// ForOwner returns the pods owned by the object with the given uid.
func (p PodStore) ForOwner(uid types.UID) []*corev1.Pod {
	return all[corev1.Pod](p.GetByOwner(uid))
}

// ContainersOf returns the container names of the named pod.
func (p PodStore) ContainersOf(namespace, name string) []string {
	obj := p.GetByName(name, namespace)
	if obj == nil {
		return nil
	}
	return Containers(obj)
}

// podSpecPaths locates the pod spec of every kind that carries one.
var podSpecPaths = map[string][]string{
	"Pod":         {"spec"},
	"Deployment":  {"spec", "template", "spec"},
	"ReplicaSet":  {"spec", "template", "spec"},
	"StatefulSet": {"spec", "template", "spec"},
	"DaemonSet":   {"spec", "template", "spec"},
	"Job":         {"spec", "template", "spec"},
	"CronJob":     {"spec", "jobTemplate", "spec", "template", "spec"},
}

// Containers returns the container names, init containers last, of a pod or
// of a workload's pod template. Names are unique and kept in spec order.
func Containers(obj *unstructured.Unstructured) []string {
	path, ok := podSpecPaths[obj.GetKind()]
	if !ok {
		return nil
	}
	spec, found, err := unstructured.NestedMap(obj.Object, path...)
	if err != nil || !found {
		return nil
	}

	var containers []string
	for _, field := range []string{"containers", "initContainers"} {
		list, _, _ := unstructured.NestedSlice(spec, field)
		for _, c := range list {
			m, ok := c.(map[string]interface{})
			if !ok {
				continue
			}
			if name, ok := m["name"].(string); ok && name != "" {
				containers = append(containers, name)
			}
		}
	}

	// Remove duplicates
	seen := make(map[string]bool)
	unique := make([]string, 0, len(containers))
	for _, c := range containers {
		if !seen[c] {
			seen[c] = true
			unique = append(unique, c)
		}
	}
	return unique
}
