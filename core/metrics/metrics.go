// Package metrics defines the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// OccurrencesGenerated counts dates materialized into instances, by frequency.
	OccurrencesGenerated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "planner_occurrences_generated_total",
			Help: "Occurrence dates materialized into instances",
		},
		[]string{"frequency"},
	)

	// ScopedMutations counts series mutations by operation, scope and outcome.
	ScopedMutations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "planner_scoped_mutations_total",
			Help: "Series mutations by operation, scope and outcome",
		},
		[]string{"op", "scope", "outcome"},
	)

	// InstancesAffected observes how many instance rows one mutation touched.
	InstancesAffected = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "planner_instances_affected",
			Help:    "Instance rows touched by a single mutation",
			Buckets: []float64{1, 2, 5, 10, 25, 52, 100, 250},
		},
		[]string{"op", "scope"},
	)

	// SyncPushes counts external calendar pushes by outcome.
	SyncPushes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "planner_sync_pushes_total",
			Help: "External calendar pushes by outcome",
		},
		[]string{"outcome"},
	)

	// BreakerState is the external calendar circuit breaker state (0 closed, 1 half-open, 2 open).
	BreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "planner_breaker_state",
			Help: "Circuit breaker state: 0 closed, 1 half-open, 2 open",
		},
		[]string{"name"},
	)

	// ClientRollbacks counts optimistic cache changes rolled back after a failed mutation.
	ClientRollbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "planner_client_rollbacks_total",
			Help: "Optimistic cache changes rolled back",
		},
		[]string{"op"},
	)
)
