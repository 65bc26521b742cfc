// Package metrics holds the Prometheus collectors of the allocation and
// resolution engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	// OutcomeLabel is the label carrying the result of an operation.
	OutcomeLabel = "outcome"
	// KindLabel is the label distinguishing generated from custom codes.
	KindLabel = "kind"
)

const (
	OutcomeSuccess     = "success"
	OutcomeInvalidURL  = "invalid_url"
	OutcomeInvalidCode = "invalid_code"
	OutcomeCodeTaken   = "code_taken"
	OutcomeExhausted   = "exhausted"
	OutcomeStoreError  = "store_error"
	OutcomeNotFound    = "not_found"
	OutcomeCanceled    = "canceled"
)

const (
	KindGenerated = "generated"
	KindCustom    = "custom"
)

const (
	namespace           = "shortlink"
	allocationSubsystem = "allocation"
	resolveSubsystem    = "resolve"
	cacheSubsystem      = "cache"
)

// Metrics contains the Prometheus collectors of the allocation and resolution engine.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	Allocations *prometheus.CounterVec
	Collisions  prometheus.Counter
	Resolutions *prometheus.CounterVec
	CacheHits   prometheus.Counter
	CacheMisses prometheus.Counter
	CacheErrors prometheus.Counter
}

// New creates the collectors and registers them with reg.
// It panics if a collector is already registered, like prometheus.MustRegister.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Allocations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: allocationSubsystem,
			Name:      "total",
			Help:      "The number of allocation requests by code kind and outcome",
		}, []string{KindLabel, OutcomeLabel}),
		Collisions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: allocationSubsystem,
			Name:      "collisions_total",
			Help:      "The number of generated codes that were already taken",
		}),
		Resolutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: resolveSubsystem,
			Name:      "total",
			Help:      "The number of resolution requests by outcome",
		}, []string{OutcomeLabel}),
		CacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: cacheSubsystem,
			Name:      "hit_count",
			Help:      "The number of cache hits",
		}),
		CacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: cacheSubsystem,
			Name:      "miss_count",
			Help:      "The number of cache misses",
		}),
		CacheErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: cacheSubsystem,
			Name:      "error_count",
			Help:      "The number of failed cache operations",
		}),
	}

	reg.MustRegister(
		m.Allocations,
		m.Collisions,
		m.Resolutions,
		m.CacheHits,
		m.CacheMisses,
		m.CacheErrors,
	)

	return m
}

func (m *Metrics) ObserveAllocation(kind, outcome string) {
	if m == nil {
		return
	}
	m.Allocations.WithLabelValues(kind, outcome).Inc()
}

func (m *Metrics) ObserveCollision() {
	if m == nil {
		return
	}
	m.Collisions.Inc()
}

func (m *Metrics) ObserveResolution(outcome string) {
	if m == nil {
		return
	}
	m.Resolutions.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveCacheHit() {
	if m == nil {
		return
	}
	m.CacheHits.Inc()
}

func (m *Metrics) ObserveCacheMiss() {
	if m == nil {
		return
	}
	m.CacheMisses.Inc()
}

func (m *Metrics) ObserveCacheError() {
	if m == nil {
		return
	}
	m.CacheErrors.Inc()
}
