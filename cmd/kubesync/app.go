package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tapcraft-io/kubesync/internal/apimanager"
	"github.com/tapcraft-io/kubesync/internal/apiregistry"
	"github.com/tapcraft-io/kubesync/internal/config"
	"github.com/tapcraft-io/kubesync/internal/k8s"
	"github.com/tapcraft-io/kubesync/internal/kinds"
	"github.com/tapcraft-io/kubesync/internal/logging"
	"github.com/tapcraft-io/kubesync/internal/metrics"
	"github.com/tapcraft-io/kubesync/internal/namespaces"
	"github.com/tapcraft-io/kubesync/internal/store"
	"github.com/tapcraft-io/kubesync/internal/watchmux"
)

// demoInterval is how often the demo cluster changes.
const demoInterval = 3 * time.Second

// app is the wired sync layer shared by the commands.
type app struct {
	logger  *slog.Logger
	client  *k8s.Client
	manager *apimanager.Manager
	stores  []*store.ObjectStore
	mux     *watchmux.Mux
	metrics *metrics.Recorder

	cancel      context.CancelFunc
	background  *errgroup.Group
	disposeNSes func()
}

// newApp connects to the cluster (or the demo cluster), binds a store to
// every builtin kind and starts following the namespace list.
func newApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*app, error) {
	client, err := connect(cfg)
	if err != nil {
		return nil, err
	}

	rec := metrics.NewRecorder()
	mgr := apimanager.New(apimanager.Options{Logger: logger})
	stores, err := kinds.NewStores(mgr, client.API(), store.Options{Logger: logger, Recorder: rec})
	if err != nil {
		return nil, err
	}

	sel := namespaces.NewSelector(cfg.Namespaces...)
	mux := watchmux.New(watchmux.Config{Selector: sel, Logger: logger, Recorder: rec})

	ctx, cancel := context.WithCancel(ctx)
	g, ctx := errgroup.WithContext(ctx)

	a := &app{
		logger:     logger,
		client:     client,
		manager:    mgr,
		stores:     stores,
		mux:        mux,
		metrics:    rec,
		cancel:     cancel,
		background: g,
	}

	nsStore := mgr.StoreFor(apiregistry.Namespaces)
	a.disposeNSes = mux.SubscribeStores([]watchmux.Store{nsStore}, watchmux.Options{
		OnLoadFailure: func(err error) {
			logger.Warn("namespace list unavailable", logging.Err(err))
		},
	})
	g.Go(func() error {
		namespaces.Follow(ctx, nsStore, sel)
		return nil
	})

	if cfg.Demo {
		g.Go(func() error {
			if err := k8s.Simulate(ctx, client.Dynamic, demoInterval); err != nil {
				logger.Warn("demo simulation stopped", logging.Err(err))
			}
			return nil
		})
	}

	if cfg.MetricsAddr != "" {
		g.Go(func() error {
			logger.Info("serving metrics", slog.String("addr", cfg.MetricsAddr))
			if err := rec.Serve(ctx, cfg.MetricsAddr); err != nil {
				logger.Error("metrics server failed", logging.Err(err))
			}
			return nil
		})
	}

	logger.Debug("sync layer ready",
		slog.String("context", client.Context),
		slog.Int("kinds", len(stores)),
		logging.Namespaces(len(cfg.Namespaces) == 0, cfg.Namespaces))
	return a, nil
}

// connect returns the demo cluster with --demo and the configured cluster
// otherwise.
func connect(cfg *config.Config) (*k8s.Client, error) {
	var (
		client *k8s.Client
		err    error
	)
	if cfg.Demo {
		client, err = k8s.NewDemoClient()
	} else {
		client, err = k8s.NewClient(cfg.KubeconfigPath, cfg.Context)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Kubernetes: %w", err)
	}
	return client, nil
}

// storesFor resolves kind names, plural resource names or API bases to
// stores.
func (a *app) storesFor(names []string) ([]*store.ObjectStore, error) {
	out := make([]*store.ObjectStore, 0, len(names))
	for _, name := range names {
		s := a.storeNamed(name)
		if s == nil {
			return nil, fmt.Errorf("unknown kind %q", name)
		}
		out = append(out, s)
	}
	return out, nil
}

func (a *app) storeNamed(name string) *store.ObjectStore {
	if s := a.manager.Store(name); s != nil {
		return s
	}
	for _, s := range a.stores {
		d := s.Descriptor()
		if strings.EqualFold(d.Kind, name) || strings.EqualFold(d.Resource(), name) {
			return s
		}
	}
	return nil
}

// Close stops the background work and every watch.
func (a *app) Close() {
	a.disposeNSes()
	a.cancel()
	_ = a.background.Wait()
	a.mux.Close()
}
