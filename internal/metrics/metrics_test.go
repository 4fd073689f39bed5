package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tapcraft-io/kubesync/internal/store"
	"github.com/tapcraft-io/kubesync/internal/watchmux"
)

var (
	_ store.Recorder    = (*Recorder)(nil)
	_ watchmux.Recorder = (*Recorder)(nil)
)

func TestRecorder(t *testing.T) {
	r := NewRecorder()

	r.WatchStarted("/api/v1/pods")
	r.WatchStarted("/api/v1/pods")
	r.WatchStopped("/api/v1/pods")
	r.LoadFailed("/api/v1/pods")
	r.EventApplied("/api/v1/pods", "ADDED")
	r.EventApplied("/api/v1/pods", "ADDED")
	r.SubscribersChanged("/api/v1/pods", 3)
	r.WatchRestarted("/api/v1/pods")

	assert.Equal(t, 1.0, testutil.ToFloat64(r.activeWatches.WithLabelValues("/api/v1/pods")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.loadFailures.WithLabelValues("/api/v1/pods")))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.eventsApplied.WithLabelValues("/api/v1/pods", "ADDED")))
	assert.Equal(t, 3.0, testutil.ToFloat64(r.subscribers.WithLabelValues("/api/v1/pods")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.watchRestarts.WithLabelValues("/api/v1/pods")))
}

func TestHandler(t *testing.T) {
	r := NewRecorder()
	r.EventApplied("/api/v1/pods", "MODIFIED")

	srv := httptest.NewServer(r.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	n, err := testutil.GatherAndCount(r.Registry(), "kubesync_watch_events_total")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	err = testutil.GatherAndCompare(r.Registry(), strings.NewReader(`
# HELP kubesync_watch_events_total Watch events applied per resource and event type.
# TYPE kubesync_watch_events_total counter
kubesync_watch_events_total{resource="/api/v1/pods",type="MODIFIED"} 1
`), "kubesync_watch_events_total")
	assert.NoError(t, err)
}
