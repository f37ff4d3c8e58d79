// Playwise - Mood-Aware Game Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/playwise

/*
Package metrics provides Prometheus metrics for the Playwise pipeline.

All collectors are registered on the default registry through promauto and are
exported at /metrics by internal/api. Callers use the Record* helpers rather
than touching the collectors directly.

# Available Metrics

Store:
  - playwise_store_operation_duration_seconds (backend, operation)
  - playwise_store_operation_errors_total (backend, operation, error_type)

Circuit Breaker:
  - playwise_circuit_breaker_state (name): 0=closed, 1=half-open, 2=open
  - playwise_circuit_breaker_transitions_total (name, from, to)

Pipeline:
  - playwise_normalizer_items_total (result)
  - playwise_recommendation_requests_total (cache)
  - playwise_recommendation_duration_seconds
  - playwise_recommendation_matches
  - playwise_recommendation_fallbacks_total (source)
  - playwise_learning_updates_total (event, result)
  - playwise_learning_cas_retries_total
  - playwise_profile_confidence

Observability:
  - playwise_tracked_operations_total (operation, status)
  - playwise_tracked_operation_duration_seconds (operation)
  - playwise_slow_operations_total (operation)
  - playwise_health_status: 0=healthy, 1=degraded, 2=unhealthy

Event Bus:
  - playwise_events_published_total (topic)
  - playwise_events_consumed_total (topic, result)

HTTP:
  - playwise_http_requests_total (method, endpoint, status)
  - playwise_http_request_duration_seconds (method, endpoint)

# Error Labels

error_type labels are kept low-cardinality. Packages that own sentinel errors
register them once:

	func init() {
	    metrics.RegisterErrorClass(ErrNotFound, "not_found")
	}

Unregistered errors are labelled "other".
*/
package metrics
