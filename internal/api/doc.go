// Playwise - Mood-Aware Game Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/playwise

/*
Package api exposes the engine over HTTP using the Chi router.

# Endpoints

Operations:

	GET    /health                                  pipeline health snapshot
	GET    /health/live                             liveness probe
	GET    /metrics                                 Prometheus metrics

	POST   /api/v1/users/{userID}/moods             submit a mood selection
	POST   /api/v1/users/{userID}/actions           submit a user action
	GET    /api/v1/users/{userID}/recommendations   ranked recommendations
	POST   /api/v1/users/{userID}/recommendations/{requestID}/outcome
	GET    /api/v1/users/{userID}/profile           persona profile
	POST   /api/v1/users/{userID}/profile/rebuild   replay the event log
	POST   /api/v1/users/{userID}/views/rebuild     recompute mood patterns
	POST   /api/v1/users/{userID}/predictions       predict the next mood
	POST   /api/v1/users/{userID}/predictions/{predictionID}/resolve
	DELETE /api/v1/users/{userID}                   erase the user
	GET    /api/v1/stats                            rolling performance statistics

Recommendation query parameters: mood, secondary_mood, session_length,
time_of_day, persona_weight, limit and request_id.

# Responses

Every API response uses the models.APIResponse envelope. Validation failures
return 400 with VALIDATION_ERROR and per-field details; an unreachable store
returns 503 with STORE_UNAVAILABLE. Recommendations never return 503: they fall
back to the last known good or a neutral ranking and set metadata.degraded.

# Middleware

Request IDs (X-Request-ID, reused as the correlation ID), real IP extraction,
panic recovery, a per-request timeout and Prometheus request metrics labelled
by route pattern.
*/
package api
