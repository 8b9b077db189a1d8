// Affinigraph - Graph-Based Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/affinigraph

// Package metrics holds the Prometheus instruments for Affinigraph.
//
// All instruments are registered on the default registry through promauto and
// exposed by promhttp at /metrics. Callers use the Record* helpers rather than
// touching label values directly.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Interaction ingestion
	InteractionsAccepted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "affinigraph_interactions_accepted_total",
			Help: "Interaction records accepted into a snapshot",
		},
	)

	InteractionsRejected = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "affinigraph_interactions_rejected_total",
			Help: "Interaction records rejected for missing user or item id",
		},
	)

	// Snapshot shape
	SnapshotVersion = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "affinigraph_snapshot_version",
			Help: "Version of the latest built snapshot",
		},
	)

	GraphNodes = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "affinigraph_graph_nodes",
			Help: "Users in the latest affinity graph",
		},
	)

	GraphEdges = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "affinigraph_graph_edges",
			Help: "Edges in the latest affinity graph",
		},
	)

	// Recompute
	RecomputeDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "affinigraph_recompute_duration_seconds",
			Help:    "Time spent computing one algorithm's recommendations",
			Buckets: []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 5, 15, 60, 300},
		},
		[]string{"algorithm"},
	)

	RecomputeTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "affinigraph_recompute_total",
			Help: "Algorithm runs by outcome (ok, failed, cancelled, stale)",
		},
		[]string{"algorithm", "outcome"},
	)

	RecomputeJobs = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "affinigraph_recompute_jobs_total",
			Help: "Recompute jobs by outcome (completed, superseded)",
		},
		[]string{"outcome"},
	)

	// Queries
	RecommendationQueries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "affinigraph_recommendation_queries_total",
			Help: "Recommendation lookups by algorithm and outcome",
		},
		[]string{"algorithm", "outcome"},
	)

	// API
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "affinigraph_api_requests_total",
			Help: "HTTP requests by method, route and status",
		},
		[]string{"method", "route", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "affinigraph_api_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "affinigraph_api_active_requests",
			Help: "HTTP requests currently in flight",
		},
	)

	// Event bus
	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "affinigraph_events_published_total",
			Help: "Messages published by topic and outcome",
		},
		[]string{"topic", "outcome"},
	)

	EventsConsumed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "affinigraph_events_consumed_total",
			Help: "Messages consumed by topic and outcome (ack, nack)",
		},
		[]string{"topic", "outcome"},
	)

	// Redis sink
	SinkWrites = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "affinigraph_sink_writes_total",
			Help: "Recommendation map writes to the sink by outcome",
		},
		[]string{"algorithm", "outcome"},
	)

	SinkWriteDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "affinigraph_sink_write_duration_seconds",
			Help:    "Time spent writing one recommendation map to the sink",
			Buckets: prometheus.DefBuckets,
		},
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "affinigraph_circuit_breaker_state",
			Help: "Circuit breaker state (0 closed, 1 half-open, 2 open)",
		},
		[]string{"name"},
	)

	// Storage
	StoreOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "affinigraph_store_operations_total",
			Help: "Interaction log operations by kind and outcome",
		},
		[]string{"operation", "outcome"},
	)

	StoreBatches = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "affinigraph_store_batches",
			Help: "Number of batches in the interaction log",
		},
	)
)

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// RecordSubmit counts the records of one submitted batch.
func RecordSubmit(accepted, rejected int) {
	InteractionsAccepted.Add(float64(accepted))
	InteractionsRejected.Add(float64(rejected))
}

// RecordSnapshot records the shape of a newly published snapshot.
func RecordSnapshot(version uint64, nodes, edges int) {
	SnapshotVersion.Set(float64(version))
	GraphNodes.Set(float64(nodes))
	GraphEdges.Set(float64(edges))
}

// RecordAlgorithmRun records one algorithm run. result is ok, failed,
// cancelled or stale.
func RecordAlgorithmRun(algorithm, result string, duration time.Duration) {
	RecomputeTotal.WithLabelValues(algorithm, result).Inc()
	if result == "ok" || result == "failed" {
		RecomputeDuration.WithLabelValues(algorithm).Observe(duration.Seconds())
	}
}

// RecordRecomputeJob records the end of a recompute job.
func RecordRecomputeJob(superseded bool) {
	if superseded {
		RecomputeJobs.WithLabelValues("superseded").Inc()
		return
	}
	RecomputeJobs.WithLabelValues("completed").Inc()
}

// RecordQuery records a recommendation lookup.
func RecordQuery(algorithm, result string) {
	RecommendationQueries.WithLabelValues(algorithm, result).Inc()
}

// RecordAPIRequest records a completed HTTP request.
func RecordAPIRequest(method, route, status string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, route, status).Inc()
	APIRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// TrackActiveRequest adjusts the in-flight request gauge.
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordPublish records a bus publish.
func RecordPublish(topic string, err error) {
	EventsPublished.WithLabelValues(topic, outcome(err)).Inc()
}

// RecordConsume records a consumed bus message.
func RecordConsume(topic string, acked bool) {
	if acked {
		EventsConsumed.WithLabelValues(topic, "ack").Inc()
		return
	}
	EventsConsumed.WithLabelValues(topic, "nack").Inc()
}

// RecordSinkWrite records one sink write.
func RecordSinkWrite(algorithm string, duration time.Duration, err error) {
	SinkWrites.WithLabelValues(algorithm, outcome(err)).Inc()
	SinkWriteDuration.Observe(duration.Seconds())
}

// SetCircuitBreakerState publishes a breaker state (0 closed, 1 half-open, 2 open).
func SetCircuitBreakerState(name string, state int) {
	CircuitBreakerState.WithLabelValues(name).Set(float64(state))
}

// RecordStoreOperation records an interaction log operation.
func RecordStoreOperation(operation string, err error) {
	StoreOperations.WithLabelValues(operation, outcome(err)).Inc()
}

// SetStoreBatches publishes the interaction log batch count.
func SetStoreBatches(n int) {
	StoreBatches.Set(float64(n))
}
