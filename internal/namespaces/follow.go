package namespaces

import (
	"context"

	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
)

// Source is the namespace store Follow reads from.
type Source interface {
	Items() []*unstructured.Unstructured
	Changes() (<-chan struct{}, func())
}

// Follow keeps sel's available namespaces in step with src until ctx is
// done.
func Follow(ctx context.Context, src Source, sel *Selector) {
	changes, cancel := src.Changes()
	defer cancel()

	refresh := func() {
		items := src.Items()
		names := make([]string, 0, len(items))
		for _, obj := range items {
			names = append(names, obj.GetName())
		}
		sel.SetAvailable(names)
	}

	refresh()
	for {
		select {
		case <-ctx.Done():
			return
		case <-changes:
			refresh()
		}
	}
}
