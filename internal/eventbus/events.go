// Playwise - Mood-Aware Game Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/playwise

package eventbus

import (
	"time"

	"github.com/tomtom215/playwise/internal/signal"
)

// SchemaVersion is stamped on every message. Bump it on breaking payload changes.
const SchemaVersion = 1

// Topics.
const (
	TopicMoodSelected         = "mood.selected"
	TopicActionRecorded       = "action.recorded"
	TopicProfileUpdated       = "profile.updated"
	TopicRecommendationServed = "recommendation.served"
)

// Metadata keys.
const (
	MetaUserID        = "user_id"
	MetaSchemaVersion = "schema_version"
	MetaCorrelationID = "correlation_id"
)

// ProfileUpdated announces a new persona profile version.
type ProfileUpdated struct {
	UserID     string    `json:"user_id"`
	Version    int64     `json:"version"`
	Cause      string    `json:"cause"`
	EventID    string    `json:"event_id,omitempty"`
	Confidence float64   `json:"confidence"`
	SampleSize int       `json:"sample_size"`
	At         time.Time `json:"at"`
}

// RecommendationServed summarizes one recommendation response.
type RecommendationServed struct {
	RequestID string        `json:"request_id"`
	UserID    string        `json:"user_id"`
	ItemIDs   []string      `json:"item_ids"`
	Moods     []signal.Mood `json:"moods,omitempty"`
	CacheHit  bool          `json:"cache_hit"`
	Fallback  string        `json:"fallback,omitempty"`
	At        time.Time     `json:"at"`
}
