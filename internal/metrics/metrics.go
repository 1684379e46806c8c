// Package metrics defines the Prometheus instrumentation for the bot.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Lookup metrics
	LookupsTotal           *prometheus.CounterVec
	LookupDurationSeconds  *prometheus.HistogramVec
	SingleflightDedupTotal prometheus.Counter

	// Cache metrics
	CacheHitsTotal   *prometheus.CounterVec
	CacheMissesTotal *prometheus.CounterVec

	// Liveness metrics
	LivenessChecksTotal *prometheus.CounterVec

	// Chat event metrics
	EventsTotal          *prometheus.CounterVec
	EventDurationSeconds *prometheus.HistogramVec
	RepliesTotal         *prometheus.CounterVec
}

// New creates a new Metrics instance with all metrics registered
func New(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		LookupsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "oubot_lookups_total",
				Help: "Total number of catalog lookups by layer and status",
			},
			[]string{"layer", "status"}, // layer: seed, sparql, sparql_legacy, archive; status: hit, miss, error
		),

		LookupDurationSeconds: promauto.With(registry).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "oubot_lookup_duration_seconds",
				Help:    "Catalog lookup duration in seconds by layer",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
			[]string{"layer"},
		),

		SingleflightDedupTotal: promauto.With(registry).NewCounter(
			prometheus.CounterOpts{
				Name: "oubot_singleflight_dedup_total",
				Help: "Total number of lookups that waited on an in-flight resolution instead of executing",
			},
		),

		CacheHitsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "oubot_cache_hits_total",
				Help: "Total number of cache hits by cache",
			},
			[]string{"cache"}, // cache: seed, reply
		),

		CacheMissesTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "oubot_cache_misses_total",
				Help: "Total number of cache misses by cache",
			},
			[]string{"cache"},
		),

		LivenessChecksTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "oubot_liveness_checks_total",
				Help: "Total number of liveness probes by result",
			},
			[]string{"result"}, // result: active, inactive, skipped
		),

		EventsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "oubot_events_total",
				Help: "Total number of chat events by type and outcome",
			},
			[]string{"event_type", "outcome"}, // event_type: message_create, message_update; outcome: replied, silent, error
		),

		EventDurationSeconds: promauto.With(registry).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "oubot_event_duration_seconds",
				Help:    "Chat event processing duration in seconds by event type",
				Buckets: []float64{0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30},
			},
			[]string{"event_type"},
		),

		RepliesTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "oubot_replies_total",
				Help: "Total number of replies by action",
			},
			[]string{"action"}, // action: create, edit, error
		),
	}

	return m
}

// RecordLookup records a catalog lookup against one layer.
func (m *Metrics) RecordLookup(layer, status string, duration float64) {
	m.LookupsTotal.WithLabelValues(layer, status).Inc()
	m.LookupDurationSeconds.WithLabelValues(layer).Observe(duration)
}

// RecordSingleflightDedup records a deduplicated lookup.
func (m *Metrics) RecordSingleflightDedup() {
	m.SingleflightDedupTotal.Inc()
}

// RecordCacheHit records a cache hit.
func (m *Metrics) RecordCacheHit(cache string) {
	m.CacheHitsTotal.WithLabelValues(cache).Inc()
}

// RecordCacheMiss records a cache miss.
func (m *Metrics) RecordCacheMiss(cache string) {
	m.CacheMissesTotal.WithLabelValues(cache).Inc()
}

// RecordLivenessCheck records a liveness probe outcome.
func (m *Metrics) RecordLivenessCheck(result string) {
	m.LivenessChecksTotal.WithLabelValues(result).Inc()
}

// RecordEvent records a processed chat event.
func (m *Metrics) RecordEvent(eventType, outcome string, duration float64) {
	m.EventsTotal.WithLabelValues(eventType, outcome).Inc()
	m.EventDurationSeconds.WithLabelValues(eventType).Observe(duration)
}

// RecordReply records a sent or edited reply.
func (m *Metrics) RecordReply(action string) {
	m.RepliesTotal.WithLabelValues(action).Inc()
}
