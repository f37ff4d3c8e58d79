// Playwise - Mood-Aware Game Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/playwise

package metrics

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Store Metrics
	StoreOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "playwise_store_operation_duration_seconds",
			Help:    "Duration of persistence operations in seconds",
			Buckets: []float64{.0005, .001, .005, .01, .05, .1, .5, 1, 5},
		},
		[]string{"backend", "operation"},
	)

	StoreOperationErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "playwise_store_operation_errors_total",
			Help: "Total number of failed persistence operations",
		},
		[]string{"backend", "operation", "error_type"},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "playwise_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "playwise_circuit_breaker_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from", "to"},
	)

	// Normalizer Metrics
	NormalizedItems = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "playwise_normalizer_items_total",
			Help: "Library items seen by the signal normalizer",
		},
		[]string{"result"}, // "normalized", "skipped"
	)

	// Recommendation Metrics
	RecommendationRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "playwise_recommendation_requests_total",
			Help: "Total number of recommendation requests",
		},
		[]string{"cache"}, // "hit", "miss", "disabled"
	)

	RecommendationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "playwise_recommendation_duration_seconds",
			Help:    "End-to-end recommendation latency in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
	)

	RecommendationMatches = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "playwise_recommendation_matches",
			Help:    "Number of matches returned per request",
			Buckets: []float64{0, 1, 3, 5, 10, 20, 50},
		},
	)

	RecommendationFallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "playwise_recommendation_fallbacks_total",
			Help: "Recommendations served without a freshly loaded profile",
		},
		[]string{"source"}, // "last_known_good", "neutral"
	)

	// Learning Metrics
	LearningUpdates = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "playwise_learning_updates_total",
			Help: "Profile updates by event kind and result",
		},
		[]string{"event", "result"}, // result: "applied", "duplicate", "conflict", "error"
	)

	LearningRetries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "playwise_learning_cas_retries_total",
			Help: "Optimistic concurrency retries on profile writes",
		},
	)

	ProfileConfidence = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "playwise_profile_confidence",
			Help:    "Profile confidence after each applied update",
			Buckets: []float64{.1, .2, .3, .4, .5, .6, .7, .8, .9, 1},
		},
	)

	// Observability Metrics
	TrackedOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "playwise_tracked_operations_total",
			Help: "Operations recorded by the aggregator",
		},
		[]string{"operation", "status"}, // status: "success", "error"
	)

	TrackedOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "playwise_tracked_operation_duration_seconds",
			Help:    "Duration of tracked pipeline stages",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	SlowOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "playwise_slow_operations_total",
			Help: "Operations that exceeded the slow threshold",
		},
		[]string{"operation"},
	)

	HealthStatus = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "playwise_health_status",
			Help: "Last health snapshot status (0=healthy, 1=degraded, 2=unhealthy)",
		},
	)

	// Event Bus Metrics
	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "playwise_events_published_total",
			Help: "Domain events published",
		},
		[]string{"topic"},
	)

	EventsConsumed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "playwise_events_consumed_total",
			Help: "Domain events consumed",
		},
		[]string{"topic", "result"}, // "ok", "error"
	)

	// HTTP Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "playwise_http_requests_total",
			Help: "Total number of HTTP requests on the operational endpoints",
		},
		[]string{"method", "endpoint", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "playwise_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: []float64{.001, .005, .01, .05, .1, .5, 1},
		},
		[]string{"method", "endpoint"},
	)
)

// ErrorClassifier maps an error to a bounded label value. Packages register
// their sentinels through RegisterErrorClass.
type ErrorClassifier struct {
	sentinel error
	label    string
}

var errorClasses []ErrorClassifier

// RegisterErrorClass makes ErrorType report label for errors matching sentinel.
// It is meant to be called from package init functions.
func RegisterErrorClass(sentinel error, label string) {
	errorClasses = append(errorClasses, ErrorClassifier{sentinel: sentinel, label: label})
}

// ErrorType returns a low-cardinality label for err.
func ErrorType(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, context.Canceled):
		return "canceled"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	}
	for _, c := range errorClasses {
		if errors.Is(err, c.sentinel) {
			return c.label
		}
	}
	return "other"
}

// RecordStoreOperation records a persistence call.
func RecordStoreOperation(backend, operation string, duration time.Duration, err error) {
	StoreOperationDuration.WithLabelValues(backend, operation).Observe(duration.Seconds())
	if err != nil {
		StoreOperationErrors.WithLabelValues(backend, operation, ErrorType(err)).Inc()
	}
}

// RecordBreakerTransition records a circuit breaker state change.
// States use gobreaker's string form: "closed", "half-open", "open".
func RecordBreakerTransition(name, from, to string) {
	CircuitBreakerTransitions.WithLabelValues(name, from, to).Inc()
	CircuitBreakerState.WithLabelValues(name).Set(breakerStateValue(to))
}

func breakerStateValue(state string) float64 {
	switch state {
	case "half-open":
		return 1
	case "open":
		return 2
	default:
		return 0
	}
}

// RecordNormalization records one normalizer pass.
func RecordNormalization(normalized, skipped int) {
	NormalizedItems.WithLabelValues("normalized").Add(float64(normalized))
	NormalizedItems.WithLabelValues("skipped").Add(float64(skipped))
}

// RecordRecommendation records a served recommendation request.
func RecordRecommendation(cacheHit, cacheEnabled bool, matches int, duration time.Duration) {
	label := "miss"
	switch {
	case !cacheEnabled:
		label = "disabled"
	case cacheHit:
		label = "hit"
	}
	RecommendationRequests.WithLabelValues(label).Inc()
	RecommendationMatches.Observe(float64(matches))
	RecommendationDuration.Observe(duration.Seconds())
}

// RecordRecommendationFallback records a recommendation served from fallback state.
func RecordRecommendationFallback(source string) {
	RecommendationFallbacks.WithLabelValues(source).Inc()
}

// RecordLearningUpdate records the result of applying one event to a profile.
func RecordLearningUpdate(event, result string) {
	LearningUpdates.WithLabelValues(event, result).Inc()
}

// RecordLearningRetry records a CAS retry.
func RecordLearningRetry() {
	LearningRetries.Inc()
}

// RecordProfileConfidence records a profile's confidence after an update.
func RecordProfileConfidence(confidence float64) {
	ProfileConfidence.Observe(confidence)
}

// RecordTrackedOperation records one aggregator observation.
func RecordTrackedOperation(operation string, duration time.Duration, success, slow bool) {
	status := "success"
	if !success {
		status = "error"
	}
	TrackedOperations.WithLabelValues(operation, status).Inc()
	TrackedOperationDuration.WithLabelValues(operation).Observe(duration.Seconds())
	if slow {
		SlowOperations.WithLabelValues(operation).Inc()
	}
}

// SetHealthStatus publishes the latest health status.
func SetHealthStatus(status string) {
	switch status {
	case "healthy":
		HealthStatus.Set(0)
	case "degraded":
		HealthStatus.Set(1)
	default:
		HealthStatus.Set(2)
	}
}

// RecordEventPublished records a published domain event.
func RecordEventPublished(topic string) {
	EventsPublished.WithLabelValues(topic).Inc()
}

// RecordEventConsumed records a consumed domain event.
func RecordEventConsumed(topic string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	EventsConsumed.WithLabelValues(topic, result).Inc()
}

// RecordAPIRequest records an HTTP request on the operational endpoints.
func RecordAPIRequest(method, endpoint string, status int, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, strconv.Itoa(status)).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}
