// Package metrics exports store and watch multiplexer activity to
// Prometheus. Recorder satisfies both store.Recorder and watchmux.Recorder.
package metrics

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "kubesync"

// Recorder holds the collectors. Create it with NewRecorder.
type Recorder struct {
	registry *prometheus.Registry

	activeWatches *prometheus.GaugeVec
	subscribers   *prometheus.GaugeVec
	loadFailures  *prometheus.CounterVec
	eventsApplied *prometheus.CounterVec
	watchRestarts *prometheus.CounterVec
}

// NewRecorder creates a Recorder registered with a private registry.
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		activeWatches: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_watches",
			Help:      "Number of open watch connections per resource.",
		}, []string{"resource"}),
		subscribers: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "subscribers",
			Help:      "Number of counted subscribers per resource.",
		}, []string{"resource"}),
		loadFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "load_failures_total",
			Help:      "Failed list and watch attempts per resource.",
		}, []string{"resource"}),
		eventsApplied: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "watch_events_total",
			Help:      "Watch events applied per resource and event type.",
		}, []string{"resource", "type"}),
		watchRestarts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "watch_restarts_total",
			Help:      "Watches restarted because the namespace selection changed.",
		}, []string{"resource"}),
	}
	r.registry.MustRegister(
		r.activeWatches,
		r.subscribers,
		r.loadFailures,
		r.eventsApplied,
		r.watchRestarts,
	)
	return r
}

// Registry returns the registry the collectors live in.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

func (r *Recorder) LoadFailed(resource string) {
	r.loadFailures.WithLabelValues(resource).Inc()
}

func (r *Recorder) WatchStarted(resource string) {
	r.activeWatches.WithLabelValues(resource).Inc()
}

func (r *Recorder) WatchStopped(resource string) {
	r.activeWatches.WithLabelValues(resource).Dec()
}

func (r *Recorder) EventApplied(resource, eventType string) {
	r.eventsApplied.WithLabelValues(resource, eventType).Inc()
}

func (r *Recorder) SubscribersChanged(resource string, count int) {
	r.subscribers.WithLabelValues(resource).Set(float64(count))
}

func (r *Recorder) WatchRestarted(resource string) {
	r.watchRestarts.WithLabelValues(resource).Inc()
}

// Handler serves the recorder's metrics.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

// Serve exposes /metrics on addr until ctx is done.
func (r *Recorder) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", r.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("metrics server: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
