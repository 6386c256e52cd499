// Package metrics exposes Prometheus collectors for palette evaluation
// passes and the reference cache.
//
// All methods are safe to call on a nil *Metrics, so components take an
// optional collector without guarding every call site.
package metrics

import (
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Namespace prefixes every metric name.
const Namespace = "quickjump"

// Abort reasons.
const (
	AbortPattern  = "pattern"
	AbortTokenize = "tokenize"
)

// Metrics holds the collectors for one palette instance.
type Metrics struct {
	passesTotal   *prometheus.CounterVec
	abortedTotal  *prometheus.CounterVec
	passDuration  *prometheus.HistogramVec
	resultsCount  prometheus.Histogram
	cacheLookups  *prometheus.CounterVec
	cacheBuilds   prometheus.Counter
	cacheEntries  prometheus.Gauge
	dispatchTotal *prometheus.CounterVec

	// Peak pass latency (all time), in nanoseconds.
	peakPass atomic.Int64

	enabled atomic.Bool
}

// New registers the collectors on reg. A nil reg uses a private registry,
// which keeps tests and repeated construction free of duplicate
// registration errors.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	factory := promauto.With(reg)

	m := &Metrics{
		passesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "palette",
			Name:      "passes_total",
			Help:      "Evaluation passes by palette mode and query kind",
		}, []string{"mode", "kind"}),

		abortedTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "palette",
			Name:      "aborted_passes_total",
			Help:      "Evaluation passes aborted before producing results",
		}, []string{"reason"}),

		passDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Subsystem: "palette",
			Name:      "pass_duration_seconds",
			Help:      "Duration of one evaluation pass",
			Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
		}, []string{"mode"}),

		resultsCount: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: Namespace,
			Subsystem: "palette",
			Name:      "results",
			Help:      "Number of candidates produced by a pass",
			Buckets:   prometheus.LinearBuckets(0, 1, 11),
		}),

		cacheLookups: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "refcache",
			Name:      "lookups_total",
			Help:      "Reference cache lookups by result",
		}, []string{"result"}),

		cacheBuilds: factory.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "refcache",
			Name:      "builds_total",
			Help:      "Reference cache entries built by tokenizing a document",
		}),

		cacheEntries: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Subsystem: "refcache",
			Name:      "entries",
			Help:      "Reference cache entries currently held",
		}),

		dispatchTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "palette",
			Name:      "dispatch_total",
			Help:      "Confirmed candidates by candidate type and status",
		}, []string{"candidate", "status"}),
	}
	m.enabled.Store(true)
	return m
}

// SetEnabled enables or disables collection.
func (m *Metrics) SetEnabled(enabled bool) {
	if m == nil {
		return
	}
	m.enabled.Store(enabled)
}

func (m *Metrics) on() bool {
	return m != nil && m.enabled.Load()
}

// RecordPass records a completed evaluation pass.
func (m *Metrics) RecordPass(mode, kind string, results int, d time.Duration) {
	if !m.on() {
		return
	}
	m.passesTotal.WithLabelValues(mode, kind).Inc()
	m.passDuration.WithLabelValues(mode).Observe(d.Seconds())
	m.resultsCount.Observe(float64(results))

	ns := d.Nanoseconds()
	for {
		current := m.peakPass.Load()
		if ns <= current || m.peakPass.CompareAndSwap(current, ns) {
			break
		}
	}
}

// RecordAbort records a pass aborted for reason.
func (m *Metrics) RecordAbort(reason string) {
	if !m.on() {
		return
	}
	m.abortedTotal.WithLabelValues(reason).Inc()
}

// RecordDispatch records a confirmed candidate.
func (m *Metrics) RecordDispatch(candidate string, err error) {
	if !m.on() {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.dispatchTotal.WithLabelValues(candidate, status).Inc()
}

// CacheHit records a reference cache hit.
func (m *Metrics) CacheHit() {
	if !m.on() {
		return
	}
	m.cacheLookups.WithLabelValues("hit").Inc()
}

// CacheMiss records a reference cache miss.
func (m *Metrics) CacheMiss() {
	if !m.on() {
		return
	}
	m.cacheLookups.WithLabelValues("miss").Inc()
}

// CacheBuilt records a built entry and the resulting cache size.
func (m *Metrics) CacheBuilt(entries int) {
	if !m.on() {
		return
	}
	m.cacheBuilds.Inc()
	m.cacheEntries.Set(float64(entries))
}

// CacheSize records the current number of cache entries.
func (m *Metrics) CacheSize(entries int) {
	if !m.on() {
		return
	}
	m.cacheEntries.Set(float64(entries))
}

// PeakPass returns the slowest pass recorded so far.
func (m *Metrics) PeakPass() time.Duration {
	if m == nil {
		return 0
	}
	return time.Duration(m.peakPass.Load())
}
