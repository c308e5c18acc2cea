// Package metrics exposes Prometheus metrics for load cycles, host fetches,
// the history cache and the HTTP API.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry *prometheus.Registry

	httpRequestsTotal  *prometheus.CounterVec
	httpDuration       *prometheus.HistogramVec
	cyclesTotal        *prometheus.CounterVec
	cycleDuration      prometheus.Histogram
	loadInProgress     prometheus.Gauge
	droppedTriggers    prometheus.Counter
	devicesWithoutData prometheus.Gauge
	fetchFailures      prometheus.Counter
	cacheHits          prometheus.Counter
	cacheMisses        prometheus.Counter
}

// NewMetrics registers every collector on a fresh registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		httpRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "energy_monitor_http_requests_total",
			Help: "Total count of HTTP requests processed by route and status.",
		}, []string{"route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "energy_monitor_http_request_duration_seconds",
			Help:    "Histogram of HTTP request durations by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
		cyclesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "energy_monitor_load_cycles_total",
			Help: "Completed load cycles by outcome.",
		}, []string{"outcome"}),
		cycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "energy_monitor_load_cycle_duration_seconds",
			Help:    "Histogram of load cycle durations.",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}),
		loadInProgress: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "energy_monitor_load_in_progress",
			Help: "1 while a load cycle is running.",
		}),
		droppedTriggers: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "energy_monitor_load_triggers_dropped_total",
			Help: "Load triggers ignored because a cycle was already running.",
		}),
		devicesWithoutData: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "energy_monitor_devices_without_data",
			Help: "Devices that returned no history in the last cycle.",
		}),
		fetchFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "energy_monitor_history_fetch_failures_total",
			Help: "History queries that failed and were treated as empty.",
		}),
		cacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "energy_monitor_history_cache_hits_total",
			Help: "Total history cache hits observed.",
		}),
		cacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "energy_monitor_history_cache_misses_total",
			Help: "Total history cache misses observed.",
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequestsTotal,
		m.httpDuration,
		m.cyclesTotal,
		m.cycleDuration,
		m.loadInProgress,
		m.droppedTriggers,
		m.devicesWithoutData,
		m.fetchFailures,
		m.cacheHits,
		m.cacheMisses,
	)

	return m
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(status int) {
	s.status = status
	s.ResponseWriter.WriteHeader(status)
}

// WrapHandler records request count and latency under the given route name.
func (m *Metrics) WrapHandler(route string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		next.ServeHTTP(recorder, r)

		duration := time.Since(start).Seconds()
		if m != nil {
			m.httpRequestsTotal.WithLabelValues(route, strconv.Itoa(recorder.status)).Inc()
			m.httpDuration.WithLabelValues(route).Observe(duration)
		}
	})
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) CycleStarted() {
	if m == nil {
		return
	}
	m.loadInProgress.Set(1)
}

// CycleFinished records the outcome of a cycle. An empty classification counts as "ok".
func (m *Metrics) CycleFinished(classification string, duration time.Duration, devicesWithoutData int) {
	if m == nil {
		return
	}
	m.loadInProgress.Set(0)
	m.cyclesTotal.WithLabelValues(outcome(classification)).Inc()
	m.cycleDuration.Observe(duration.Seconds())
	m.devicesWithoutData.Set(float64(devicesWithoutData))
}

func (m *Metrics) TriggerDropped() {
	if m == nil {
		return
	}
	m.droppedTriggers.Inc()
}

func (m *Metrics) FetchFailed(entityID string) {
	if m == nil {
		return
	}
	m.fetchFailures.Inc()
}

func (m *Metrics) CacheHit() {
	if m == nil {
		return
	}
	m.cacheHits.Inc()
}

func (m *Metrics) CacheMiss() {
	if m == nil {
		return
	}
	m.cacheMisses.Inc()
}
