// Package observability holds the Prometheus collectors ashaboardd exposes on
// /metrics.
package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns a private Prometheus registry. All methods are safe on a nil
// *Metrics, which lets tests and the CLI skip instrumentation.
type Metrics struct {
	registry *prometheus.Registry

	httpRequestsTotal *prometheus.CounterVec
	httpDuration      *prometheus.HistogramVec
	rankComputations  prometheus.Counter
	cacheHits         prometheus.Counter
	cacheMisses       prometheus.Counter
	registryVersion   prometheus.Gauge
	sensorMessages    *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		httpRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ashaboard_http_requests_total",
			Help: "Total count of HTTP requests processed by route and status.",
		}, []string{"route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "ashaboard_http_request_duration_seconds",
			Help:    "Histogram of HTTP request durations by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
		rankComputations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ashaboard_rank_computations_total",
			Help: "Total village rankings computed.",
		}),
		cacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ashaboard_leaderboard_cache_hits_total",
			Help: "Leaderboard requests served from the version cache.",
		}),
		cacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ashaboard_leaderboard_cache_misses_total",
			Help: "Leaderboard requests that required a new ranking.",
		}),
		registryVersion: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ashaboard_registry_version",
			Help: "Current version of the case and water source registry.",
		}),
		sensorMessages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ashaboard_sensor_messages_total",
			Help: "MQTT water readings received, by outcome.",
		}, []string{"outcome"}),
	}

	m.registry.MustRegister(
		m.httpRequestsTotal,
		m.httpDuration,
		m.rankComputations,
		m.cacheHits,
		m.cacheMisses,
		m.registryVersion,
		m.sensorMessages,
		collectors.NewGoCollector(),
	)

	return m
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(status int) {
	s.status = status
	s.ResponseWriter.WriteHeader(status)
}

// WrapHandler records request counts and latency under the given route label.
func (m *Metrics) WrapHandler(route string, next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		next.ServeHTTP(recorder, r)

		m.httpRequestsTotal.WithLabelValues(route, strconv.Itoa(recorder.status)).Inc()
		m.httpDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) RankComputed() {
	if m == nil {
		return
	}
	m.rankComputations.Inc()
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

func (m *Metrics) SetRegistryVersion(v uint64) {
	if m == nil {
		return
	}
	m.registryVersion.Set(float64(v))
}

// SensorMessage counts an MQTT reading by outcome: applied, rejected or
// unknown_source.
func (m *Metrics) SensorMessage(outcome string) {
	if m == nil {
		return
	}
	m.sensorMessages.WithLabelValues(outcome).Inc()
}
