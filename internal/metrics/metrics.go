// Package metrics exposes the Prometheus collectors the processor's
// components instrument themselves with, grouped by component: bus
// messaging, round processing, the rating engine, reconciliation, token
// caching, the relational store, and circuit breakers.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// MessagesReceivedTotal counts inbound bus messages by topic.
	MessagesReceivedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rating_processor_messages_received_total",
			Help: "Total number of bus messages received, by topic.",
		},
		[]string{"topic"},
	)

	// MessagesDroppedTotal counts messages dropped without processing,
	// tagged with the reason (malformed_envelope, unrecognized_topic,
	// unresolvable_challenge, missing_round_id).
	MessagesDroppedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rating_processor_messages_dropped_total",
			Help: "Total number of bus messages dropped, by reason.",
		},
		[]string{"reason"},
	)

	// RoundsProcessedTotal counts calculate() outcomes by result
	// (success, already_calculated).
	RoundsProcessedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rating_processor_rounds_processed_total",
			Help: "Total number of rounds processed, by outcome.",
		},
		[]string{"outcome"},
	)

	// RoundProcessingDuration observes wall-clock time for one
	// calculate()/calculate_by_round() invocation.
	RoundProcessingDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "rating_processor_round_duration_seconds",
			Help:    "Duration of a full round calculation, in seconds.",
			Buckets: prometheus.DefBuckets,
		},
	)

	// EngineParticipantsRated counts participants rated per engine pass.
	EngineParticipantsRated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rating_processor_engine_participants_rated_total",
			Help: "Total number of participants rated, by pass (provisional, non_provisional).",
		},
		[]string{"pass"},
	)

	// ReconcileFailuresTotal counts attendance-reconciliation failures that
	// were swallowed (round proceeds regardless).
	ReconcileFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "rating_processor_reconcile_failures_total",
			Help: "Total number of submission API reconciliation failures (non-fatal).",
		},
	)

	// TokenFetchesTotal counts M2M token cache lookups by result (hit, miss,
	// error).
	TokenFetchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rating_processor_token_fetches_total",
			Help: "Total number of M2M token cache lookups, by result.",
		},
		[]string{"result"},
	)

	// StoreQueryDuration observes relational store query latency.
	StoreQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "rating_processor_store_query_duration_seconds",
			Help:    "Duration of relational store queries, in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	// CircuitBreakerState reports 0 (closed), 1 (half-open), or 2 (open)
	// per named breaker.
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "rating_processor_circuit_breaker_state",
			Help: "Current circuit breaker state by name (0=closed, 1=half-open, 2=open).",
		},
		[]string{"name"},
	)
)
