// Areamap - Location Search and Map Snapshot Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/areamap

// Package metrics defines the Prometheus instrumentation of Areamap.
// Collectors are registered on the default registry at init.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Database Metrics
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "duckdb_query_duration_seconds",
			Help:    "Duration of DuckDB queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation", "table"},
	)

	DBQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "duckdb_query_errors_total",
			Help: "Total number of DuckDB query errors",
		},
		[]string{"operation", "table"},
	)

	// API Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "route", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request latency in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		},
		[]string{"method", "route"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Number of API requests currently being served",
		},
	)

	// Search Metrics
	SearchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "location_searches_total",
			Help: "Total number of location searches by owner kind and outcome",
		},
		[]string{"owner_kind", "outcome"}, // outcome: "new", "duplicate", "quota_exceeded", "expired", "provider_error", "error"
	)

	SearchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "location_search_duration_seconds",
			Help:    "End-to-end duration of location searches",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
		},
	)

	QuotaDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quota_decisions_total",
			Help: "Quota ledger decisions",
		},
		[]string{"decision"}, // "allow", "deny", "exempt"
	)

	// Provider Metrics
	ProviderRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "provider_request_duration_seconds",
			Help:    "Duration of external geo provider calls",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		},
		[]string{"provider"},
	)

	ProviderErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "provider_errors_total",
			Help: "Failed external geo provider calls",
		},
		[]string{"provider"},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker",
		},
		[]string{"name", "result"}, // result: "success", "failure", "rejected"
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// Geocode Cache Metrics
	GeocodeCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "geocode_cache_hits_total",
			Help: "Geocode lookups served from cache",
		},
	)

	GeocodeCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "geocode_cache_misses_total",
			Help: "Geocode lookups forwarded to the provider",
		},
	)

	// Snapshot Metrics
	SnapshotsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "snapshots_created_total",
			Help: "Snapshots created by template source",
		},
		[]string{"config_source"}, // "explicit", "own_template", "parent_template", "latest_snapshot", "default"
	)

	SnapshotFetches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "snapshot_fetches_total",
			Help: "Snapshot fetches by access path and outcome",
		},
		[]string{"path", "outcome"}, // path: "owner", "embed", "token"
	)

	SnapshotRedactions = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "snapshot_redactions_total",
			Help: "Snapshots served with the address redacted",
		},
	)

	// Authorization Metrics
	FeatureDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "plan_feature_decisions_total",
			Help: "Plan feature checks by feature and decision",
		},
		[]string{"feature", "decision"}, // decision: "allow", "deny", "exempt"
	)

	// Outbox Metrics
	OutboxPending = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "usage_outbox_pending_entries",
			Help: "Usage events waiting to be published",
		},
	)

	OutboxPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "usage_outbox_publish_total",
			Help: "Usage event publish attempts by result",
		},
		[]string{"result"}, // "success", "retry", "dropped"
	)
)

// RecordDBQuery records a database query metric.
func RecordDBQuery(operation, table string, duration time.Duration, err error) {
	DBQueryDuration.WithLabelValues(operation, table).Observe(duration.Seconds())
	if err != nil {
		DBQueryErrors.WithLabelValues(operation, table).Inc()
	}
}

// RecordAPIRequest records an API request metric.
func RecordAPIRequest(method, route, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, route, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// TrackActiveRequest tracks in-flight API requests.
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordSearch records the outcome of a location search.
func RecordSearch(ownerKind, outcome string, duration time.Duration) {
	SearchesTotal.WithLabelValues(ownerKind, outcome).Inc()
	SearchDuration.Observe(duration.Seconds())
}

// RecordQuotaDecision records a quota ledger decision.
func RecordQuotaDecision(decision string) {
	QuotaDecisions.WithLabelValues(decision).Inc()
}

// RecordProviderCall records the duration and result of a provider call.
func RecordProviderCall(provider string, duration time.Duration, err error) {
	ProviderRequestDuration.WithLabelValues(provider).Observe(duration.Seconds())
	if err != nil {
		ProviderErrors.WithLabelValues(provider).Inc()
	}
}

// RecordGeocodeCache records a geocode cache lookup.
func RecordGeocodeCache(hit bool) {
	if hit {
		GeocodeCacheHits.Inc()
	} else {
		GeocodeCacheMisses.Inc()
	}
}

// RecordSnapshotCreated records a created snapshot and where its
// configuration came from.
func RecordSnapshotCreated(configSource string) {
	SnapshotsCreated.WithLabelValues(configSource).Inc()
}

// RecordSnapshotFetch records a snapshot fetch.
func RecordSnapshotFetch(path, outcome string, redacted bool) {
	SnapshotFetches.WithLabelValues(path, outcome).Inc()
	if redacted {
		SnapshotRedactions.Inc()
	}
}

// RecordFeatureDecision records a plan feature check.
func RecordFeatureDecision(feature, decision string) {
	FeatureDecisions.WithLabelValues(feature, decision).Inc()
}

// RecordOutboxPublish records a usage event publish attempt.
func RecordOutboxPublish(result string) {
	OutboxPublished.WithLabelValues(result).Inc()
}
