package server

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Metrics holds the dashboard's Prometheus collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	requests         *prometheus.CounterVec
	requestDuration  *prometheus.HistogramVec
	pipelineDuration prometheus.Histogram
	cacheLookups     *prometheus.CounterVec
	segmentFailures  prometheus.Counter
}

// NewMetrics creates and registers every collector.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	m := &Metrics{
		registry: registry,
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bikedash_http_requests_total",
			Help: "Total HTTP requests by route and status code.",
		}, []string{"route", "code"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "bikedash_http_request_duration_seconds",
			Help:    "Duration of HTTP requests by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
		pipelineDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "bikedash_report_build_duration_seconds",
			Help:    "Duration of report pipeline runs.",
			Buckets: prometheus.DefBuckets,
		}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bikedash_dataset_cache_lookups_total",
			Help: "Dataset cache lookups by dataset kind and result.",
		}, []string{"kind", "result"}),
		segmentFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bikedash_segmentation_fallbacks_total",
			Help: "Report runs where segmentation fell back to a warning.",
		}),
	}
	registry.MustRegister(m.requests, m.requestDuration, m.pipelineDuration, m.cacheLookups, m.segmentFailures)
	return m
}

// Registry returns the registry served on /metrics.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// CacheLookup implements dataset.CacheObserver.
func (m *Metrics) CacheLookup(kind string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.WithLabelValues(kind, result).Inc()
}

func (m *Metrics) observeRequest(route string, code int, took time.Duration) {
	m.requests.WithLabelValues(route, strconv.Itoa(code)).Inc()
	m.requestDuration.WithLabelValues(route).Observe(took.Seconds())
}

func (m *Metrics) observeBuild(took time.Duration, segmentFailed bool) {
	m.pipelineDuration.Observe(took.Seconds())
	if segmentFailed {
		m.segmentFailures.Inc()
	}
}
