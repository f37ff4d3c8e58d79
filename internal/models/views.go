// Playwise - Mood-Aware Game Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/playwise

package models

import (
	"time"

	"github.com/tomtom215/playwise/internal/signal"
)

// MoodPattern aggregates selections of one mood in one time-of-day bucket.
// It is a view over MoodSelection and UserAction history.
type MoodPattern struct {
	UserID           string           `json:"user_id"`
	Mood             signal.Mood      `json:"mood"`
	TimeOfDay        signal.TimeOfDay `json:"time_of_day"`
	Frequency        int              `json:"frequency"`
	AverageIntensity float64          `json:"average_intensity"`
	// SuccessRate is launches / (launches + ignores) of actions taken in this mood.
	SuccessRate float64   `json:"success_rate"`
	LastSeen    time.Time `json:"last_seen"`
}

// LearningMetrics summarizes how well the learner is doing for one user.
type LearningMetrics struct {
	UserID               string    `json:"user_id"`
	TotalSelections      int       `json:"total_selections"`
	TotalActions         int       `json:"total_actions"`
	TotalRecommendations int       `json:"total_recommendations"`
	RecommendationHits   int       `json:"recommendation_hits"`
	SuccessRate          float64   `json:"success_rate"`
	LaunchRate           float64   `json:"launch_rate"`
	PredictionAccuracy   float64   `json:"prediction_accuracy"`
	ResolvedPredictions  int       `json:"resolved_predictions"`
	Confidence           float64   `json:"confidence"`
	// ConfidenceTrend is the confidence after each of the last selections, oldest first.
	ConfidenceTrend []float64 `json:"confidence_trend,omitempty"`
	ComputedAt      time.Time `json:"computed_at"`
}
