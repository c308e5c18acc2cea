package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/NotCoffee418/energy_monitor/pkg/types"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCycleMetrics(t *testing.T) {
	m := NewMetrics()

	m.CycleStarted()
	assert.Equal(t, 1.0, testutil.ToFloat64(m.loadInProgress))

	m.CycleFinished(types.ErrorNoHistoricData, 2*time.Second, 3)
	m.CycleFinished(types.ErrorNone, time.Second, 0)
	m.TriggerDropped()

	assert.Equal(t, 0.0, testutil.ToFloat64(m.loadInProgress))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.cyclesTotal.WithLabelValues("no_data")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.cyclesTotal.WithLabelValues("ok")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.devicesWithoutData))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.droppedTriggers))
}

func TestFetchAndCacheMetrics(t *testing.T) {
	m := NewMetrics()
	m.FetchFailed("sensor.a")
	m.CacheHit()
	m.CacheHit()
	m.CacheMiss()

	assert.Equal(t, 1.0, testutil.ToFloat64(m.fetchFailures))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.cacheHits))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.cacheMisses))
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.CycleStarted()
		m.CycleFinished("", time.Second, 0)
		m.TriggerDropped()
		m.FetchFailed("sensor.a")
		m.CacheHit()
		m.CacheMiss()
	})
}

func TestHandlerExposesMetrics(t *testing.T) {
	m := NewMetrics()
	wrapped := m.WrapHandler("test", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	wrapped.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpRequestsTotal.WithLabelValues("test", "418")))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body, _ := io.ReadAll(rec.Body)
	assert.Contains(t, string(body), "energy_monitor_http_requests_total")
	assert.Contains(t, string(body), "energy_monitor_load_in_progress")
}
