// Playwise - Mood-Aware Game Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/playwise

package recommend

import (
	"time"

	"github.com/tomtom215/playwise/internal/signal"
)

// Filters is the caller's explicit context for one request.
// Empty SessionLength or TimeOfDay means "any"; no Moods means mood is not a criterion.
type Filters struct {
	Moods         []signal.Mood        `json:"moods,omitempty"`
	SessionLength signal.SessionLength `json:"session_length,omitempty"`
	TimeOfDay     signal.TimeOfDay     `json:"time_of_day,omitempty"`

	// PersonaWeight in [0,1] controls how strongly the persona adds to the
	// explicit criteria. Nil uses Config.DefaultPersonaWeight.
	PersonaWeight *float64 `json:"persona_weight,omitempty"`
}

// ContextualMatch is the scored result of one item against one context.
type ContextualMatch struct {
	ItemID string `json:"item_id"`
	Title  string `json:"title"`

	MoodMatch    bool `json:"mood_match"`
	SessionMatch bool `json:"session_match"`
	TimeMatch    bool `json:"time_match"`

	// BaseScore is 25 per satisfied explicit criterion (0-75).
	BaseScore float64 `json:"base_score"`

	// PersonaScore is the unscaled persona sum.
	PersonaScore float64 `json:"persona_score"`

	// Score is BaseScore + PersonaScore*personaWeight.
	Score float64 `json:"score"`

	// Reasons are ordered human-readable justifications, at most MaxReasons.
	Reasons []string `json:"reasons"`

	Moods  []signal.Mood  `json:"moods,omitempty"`
	Genres []signal.Genre `json:"genres,omitempty"`
	Tags   []string       `json:"tags,omitempty"`
}

// Request represents a recommendation request.
type Request struct {
	// RequestID is a unique identifier for tracing.
	RequestID string `json:"request_id,omitempty"`

	// UserID is the user to rank for.
	UserID string `json:"user_id"`

	// Filters is the explicit context.
	Filters Filters `json:"filters"`

	// Limit is the number of matches to return.
	// Defaults to Config.Limits.DefaultLimit if zero, capped at MaxLimit.
	Limit int `json:"limit,omitempty"`

	// ProfileVersion keys the response cache so a learned update invalidates it.
	ProfileVersion int64 `json:"profile_version"`
}

// Response represents a ranked recommendation response.
type Response struct {
	// Matches is the ordered list, best first.
	Matches []ContextualMatch `json:"matches"`

	// TotalCandidates is the number of items considered.
	TotalCandidates int `json:"total_candidates"`

	// Skipped counts malformed items left out of scoring.
	Skipped int `json:"skipped"`

	// Metadata contains timing and diagnostic information.
	Metadata ResponseMetadata `json:"metadata"`
}

// ResponseMetadata contains timing and diagnostic information.
type ResponseMetadata struct {
	RequestID      string    `json:"request_id"`
	UserID         string    `json:"user_id"`
	PersonaWeight  float64   `json:"persona_weight"`
	NeutralContext bool      `json:"neutral_context"`
	LatencyMS      int64     `json:"latency_ms"`
	CacheHit       bool      `json:"cache_hit"`
	Timestamp      time.Time `json:"timestamp"`

	// Fallback is set when the ranking was not produced from fresh learner
	// state: "last_known_good" or "neutral".
	Fallback string `json:"fallback,omitempty"`
}

// Fallback sources.
const (
	FallbackLastKnownGood = "last_known_good"
	FallbackNeutral       = "neutral"
)

// Metrics contains scorer metrics for observability.
type Metrics struct {
	RequestCount int64 `json:"request_count"`
	CacheHits    int64 `json:"cache_hits"`
	CacheMisses  int64 `json:"cache_misses"`
	ErrorCount   int64 `json:"error_count"`
	SkippedItems int64 `json:"skipped_items"`
	ItemsScored  int64 `json:"items_scored"`
}
