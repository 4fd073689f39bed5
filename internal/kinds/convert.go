package kinds

import (
	"fmt"

	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime"
)

// As converts obj into the typed API object T, e.g. As[corev1.Pod](obj).
func As[T any](obj *unstructured.Unstructured) (*T, error) {
	out := new(T)
	if err := runtime.DefaultUnstructuredConverter.FromUnstructured(obj.Object, out); err != nil {
		return nil, fmt.Errorf("convert %s/%s to %T: %w", obj.GetNamespace(), obj.GetName(), out, err)
	}
	return out, nil
}

// all converts every object, skipping the ones that do not convert.
func all[T any](objs []*unstructured.Unstructured) []*T {
	out := make([]*T, 0, len(objs))
	for _, obj := range objs {
		if t, err := As[T](obj); err == nil {
			out = append(out, t)
		}
	}
	return out
}
