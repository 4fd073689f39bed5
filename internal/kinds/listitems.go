package kinds

import (
	"fmt"
	"strings"
	"time"

	appsv1 "k8s.io/api/apps/v1"
	batchv1 "k8s.io/api/batch/v1"
	corev1 "k8s.io/api/core/v1"
	networkingv1 "k8s.io/api/networking/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"

	"github.com/tapcraft-io/kubesync/pkg/types"
)

// ListItem converts obj to a list row. The description depends on the kind;
// kinds without a dedicated summary show their namespace and age only.
func ListItem(obj *unstructured.Unstructured) types.ListItem {
	age := time.Since(obj.GetCreationTimestamp().Time).Round(time.Second).String()
	meta := map[string]string{
		"namespace": obj.GetNamespace(),
		"age":       age,
		"uid":       string(obj.GetUID()),
	}

	var parts []string
	for k, v := range summarize(obj) {
		meta[k] = v
	}
	for _, k := range []string{"status", "ready", "type", "schedule", "hosts", "completions", "reason"} {
		if v, ok := meta[k]; ok && v != "" {
			parts = append(parts, fmt.Sprintf("%s: %s", strings.ToUpper(k[:1])+k[1:], v))
		}
	}
	parts = append(parts, "Age: "+age)
	if ns := obj.GetNamespace(); ns != "" {
		parts = append(parts, "NS: "+ns)
	}

	return types.ListItem{
		Title:       obj.GetName(),
		Description: strings.Join(parts, " | "),
		Metadata:    meta,
	}
}

// ListItems converts objects in order.
func ListItems(objs []*unstructured.Unstructured) []types.ListItem {
	items := make([]types.ListItem, len(objs))
	for i, obj := range objs {
		items[i] = ListItem(obj)
	}
	return items
}

func summarize(obj *unstructured.Unstructured) map[string]string {
	switch obj.GetKind() {
	case "Pod":
		if pod, err := As[corev1.Pod](obj); err == nil {
			return map[string]string{"status": string(pod.Status.Phase)}
		}
	case "Deployment":
		if dep, err := As[appsv1.Deployment](obj); err == nil {
			return map[string]string{"ready": fmt.Sprintf("%d/%d", dep.Status.ReadyReplicas, replicas(dep.Spec.Replicas))}
		}
	case "StatefulSet":
		if sts, err := As[appsv1.StatefulSet](obj); err == nil {
			return map[string]string{"ready": fmt.Sprintf("%d/%d", sts.Status.ReadyReplicas, replicas(sts.Spec.Replicas))}
		}
	case "ReplicaSet":
		if rs, err := As[appsv1.ReplicaSet](obj); err == nil {
			return map[string]string{"ready": fmt.Sprintf("%d/%d", rs.Status.ReadyReplicas, replicas(rs.Spec.Replicas))}
		}
	case "DaemonSet":
		if ds, err := As[appsv1.DaemonSet](obj); err == nil {
			return map[string]string{"ready": fmt.Sprintf("%d/%d", ds.Status.NumberReady, ds.Status.DesiredNumberScheduled)}
		}
	case "Job":
		if job, err := As[batchv1.Job](obj); err == nil {
			return map[string]string{"completions": fmt.Sprintf("%d/%d", job.Status.Succeeded, replicas(job.Spec.Completions))}
		}
	case "CronJob":
		if cj, err := As[batchv1.CronJob](obj); err == nil {
			return map[string]string{"schedule": cj.Spec.Schedule}
		}
	case "Service":
		if svc, err := As[corev1.Service](obj); err == nil {
			return map[string]string{"type": string(svc.Spec.Type)}
		}
	case "Secret":
		if sec, err := As[corev1.Secret](obj); err == nil {
			return map[string]string{"type": string(sec.Type)}
		}
	case "Ingress":
		if ing, err := As[networkingv1.Ingress](obj); err == nil {
			hosts := make([]string, 0, len(ing.Spec.Rules))
			for _, r := range ing.Spec.Rules {
				if r.Host != "" {
					hosts = append(hosts, r.Host)
				}
			}
			return map[string]string{"hosts": strings.Join(hosts, ",")}
		}
	case "Namespace":
		if ns, err := As[corev1.Namespace](obj); err == nil {
			return map[string]string{"status": string(ns.Status.Phase)}
		}
	case "Node":
		if node, err := As[corev1.Node](obj); err == nil {
			status := "Ready"
			for _, cond := range node.Status.Conditions {
				if cond.Type == corev1.NodeReady && cond.Status != corev1.ConditionTrue {
					status = "NotReady"
					break
				}
			}
			return map[string]string{"status": status}
		}
	case "Event":
		if ev, err := As[corev1.Event](obj); err == nil {
			return map[string]string{"type": ev.Type, "reason": ev.Reason}
		}
	}
	return nil
}

func replicas(n *int32) int32 {
	if n == nil {
		return 1
	}
	return *n
}
