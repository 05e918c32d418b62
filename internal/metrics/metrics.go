// Package metrics holds the Prometheus collectors for cache, query and
// export activity.
//
// # Basic Usage
//
//	reg := prometheus.NewRegistry()
//	m := metrics.New(reg)
//
//	m.CacheHits.WithLabelValues(metrics.KindSession).Inc()
//	defer m.ObserveQuery("read_data", time.Now())
//
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Cache entry kinds used as the "kind" label.
const (
	KindSession  = "session"
	KindMetadata = "metadata"
)

// Metrics groups every collector of the process.
type Metrics struct {
	CacheHits      *prometheus.CounterVec
	CacheMisses    *prometheus.CounterVec
	CacheEvictions *prometheus.CounterVec
	SessionBuilds  prometheus.Counter
	QueryDuration  *prometheus.HistogramVec
	ExportRows     *prometheus.CounterVec
}

// New creates the collectors and registers them on reg. A nil reg creates
// unregistered collectors.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		CacheHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "parqsee_cache_hits_total",
				Help: "Cache lookups served from an existing entry",
			},
			[]string{"kind"},
		),
		CacheMisses: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "parqsee_cache_misses_total",
				Help: "Cache lookups that had to build a new entry",
			},
			[]string{"kind"},
		),
		CacheEvictions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "parqsee_cache_evictions_total",
				Help: "Cache entries removed by eviction",
			},
			[]string{"kind"},
		),
		SessionBuilds: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "parqsee_session_builds_total",
				Help: "Query sessions opened from a file",
			},
		),
		QueryDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "parqsee_query_duration_seconds",
				Help:    "Duration of service operations",
				Buckets: prometheus.ExponentialBuckets(0.001, 4, 8),
			},
			[]string{"op"},
		),
		ExportRows: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "parqsee_export_rows_total",
				Help: "Rows written by exports",
			},
			[]string{"format"},
		),
	}
}

// Hit counts a cache hit for kind.
func (m *Metrics) Hit(kind string) {
	if m != nil {
		m.CacheHits.WithLabelValues(kind).Inc()
	}
}

// Miss counts a cache miss for kind.
func (m *Metrics) Miss(kind string) {
	if m != nil {
		m.CacheMisses.WithLabelValues(kind).Inc()
	}
}

// Evicted counts an evicted entry of kind.
func (m *Metrics) Evicted(kind string) {
	if m != nil {
		m.CacheEvictions.WithLabelValues(kind).Inc()
	}
}

// Built counts a session opened from disk.
func (m *Metrics) Built() {
	if m != nil {
		m.SessionBuilds.Inc()
	}
}

// ObserveQuery records the time elapsed since start under op.
func (m *Metrics) ObserveQuery(op string, start time.Time) {
	if m != nil {
		m.QueryDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	}
}

// Exported adds n exported rows for format.
func (m *Metrics) Exported(format string, n int) {
	if m != nil {
		m.ExportRows.WithLabelValues(format).Add(float64(n))
	}
}
