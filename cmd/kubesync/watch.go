package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	ktypes "k8s.io/apimachinery/pkg/types"
	"k8s.io/apimachinery/pkg/watch"

	"github.com/tapcraft-io/kubesync/internal/config"
	"github.com/tapcraft-io/kubesync/internal/logging"
	"github.com/tapcraft-io/kubesync/internal/store"
	"github.com/tapcraft-io/kubesync/internal/watchmux"
)

func newWatchCmd(cfg *config.Config) *cobra.Command {
	var kindNames []string

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Print object changes without the terminal UI",
		Long: `Keeps the given kinds in sync with the cluster and prints one line per
added, modified or deleted object. Namespaces follow --namespace.`,
		Example: `  kubesync watch --kind pods,events -n default
  kubesync watch --demo --kind Deployment`,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := logging.New(cmd.ErrOrStderr(), cfg.LogLevel, cfg.LogFormat)
			if err != nil {
				return err
			}
			a, err := newApp(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer a.Close()

			stores, err := a.storesFor(kindNames)
			if err != nil {
				return err
			}
			return watchStores(cmd.Context(), a.mux, stores, cmd.OutOrStdout(), logger)
		},
	}

	cmd.Flags().StringSliceVarP(&kindNames, "kind", "k", []string{"Pod"}, "kinds to watch, by kind, resource or API base")
	return cmd
}

// watchStores subscribes stores through mux and prints their changes to out
// until ctx is done.
func watchStores(ctx context.Context, mux *watchmux.Mux, stores []*store.ObjectStore, out io.Writer, logger *slog.Logger) error {
	ws := make([]watchmux.Store, len(stores))
	for i, s := range stores {
		ws[i] = s
	}
	dispose := mux.SubscribeStores(ws, watchmux.Options{
		OnLoadFailure: func(err error) {
			logger.Warn("load failed", logging.Err(err))
		},
	})
	defer dispose()

	var mu sync.Mutex
	g, ctx := errgroup.WithContext(ctx)
	for _, s := range stores {
		g.Go(func() error {
			changes, cancel := s.Changes()
			defer cancel()

			seen := make(map[ktypes.UID]*unstructured.Unstructured)
			for {
				var lines []change
				lines, seen = diffSnapshot(seen, s.Items())
				mu.Lock()
				for _, c := range lines {
					fmt.Fprintln(out, c)
				}
				mu.Unlock()

				select {
				case <-ctx.Done():
					return nil
				case <-changes:
				}
			}
		})
	}
	return g.Wait()
}

// change is one line of watch output.
type change struct {
	Type watch.EventType
	Obj  *unstructured.Unstructured
}

func (c change) String() string {
	ref := c.Obj.GetName()
	if ns := c.Obj.GetNamespace(); ns != "" {
		ref = ns + "/" + ref
	}
	return fmt.Sprintf("%-8s %s %s rv=%s", c.Type, c.Obj.GetKind(), ref, c.Obj.GetResourceVersion())
}

// diffSnapshot compares the previous snapshot with items and returns the
// changes, deletions last, plus the new snapshot.
func diffSnapshot(prev map[ktypes.UID]*unstructured.Unstructured, items []*unstructured.Unstructured) ([]change, map[ktypes.UID]*unstructured.Unstructured) {
	next := make(map[ktypes.UID]*unstructured.Unstructured, len(items))
	var out []change
	for _, obj := range items {
		uid := obj.GetUID()
		next[uid] = obj
		old, ok := prev[uid]
		switch {
		case !ok:
			out = append(out, change{Type: watch.Added, Obj: obj})
		case old.GetResourceVersion() != obj.GetResourceVersion():
			out = append(out, change{Type: watch.Modified, Obj: obj})
		}
	}

	var deleted []change
	for uid, obj := range prev {
		if _, ok := next[uid]; !ok {
			deleted = append(deleted, change{Type: watch.Deleted, Obj: obj})
		}
	}
	sort.Slice(deleted, func(i, j int) bool {
		a, b := deleted[i].Obj, deleted[j].Obj
		if a.GetNamespace() != b.GetNamespace() {
			return a.GetNamespace() < b.GetNamespace()
		}
		return a.GetName() < b.GetName()
	})
	return append(out, deleted...), next
}
