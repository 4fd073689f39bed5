package kinds

import (
	"fmt"

	"github.com/tapcraft-io/kubesync/internal/apimanager"
	"github.com/tapcraft-io/kubesync/internal/apiregistry"
	"github.com/tapcraft-io/kubesync/internal/store"
)

// lessByKind holds the orderings that differ from the store default.
var lessByKind = map[string]store.LessFunc{
	"Namespace": ByName,
	"Node":      ByName,
	"Event":     ByLastSeen,
}

// Factory returns a StoreFactory that creates stores with the ordering of
// their kind.
func Factory(api store.API, opts store.Options) apimanager.StoreFactory {
	return func(d *apiregistry.Descriptor) *store.ObjectStore {
		o := opts
		if less, ok := lessByKind[d.Kind]; ok && o.Less == nil {
			o.Less = less
		}
		return store.New(d, api, o)
	}
}

// NewStores registers every builtin descriptor with m and binds a store to
// each. The stores are returned in display order.
func NewStores(m *apimanager.Manager, api store.API, opts store.Options) ([]*store.ObjectStore, error) {
	factory := Factory(api, opts)
	descs := apiregistry.Builtin()
	out := make([]*store.ObjectStore, 0, len(descs))
	for _, d := range descs {
		if err := m.RegisterDescriptor(d); err != nil {
			return nil, fmt.Errorf("register %s: %w", d.APIBase, err)
		}
		s := factory(d)
		if err := m.RegisterStore(s); err != nil {
			return nil, fmt.Errorf("register store %s: %w", d.APIBase, err)
		}
		out = append(out, s)
	}
	return out, nil
}
