// Playwise - Mood-Aware Game Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/playwise

package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/playwise/internal/signal"
)

// Trigger is how a mood selection came about.
type Trigger string

const (
	TriggerManual    Trigger = "manual"
	TriggerSuggested Trigger = "suggested"
	TriggerAuto      Trigger = "auto"
)

// SelectionContext is the situation a mood was declared in.
type SelectionContext struct {
	TimeOfDay    signal.TimeOfDay `json:"time_of_day"`
	DayOfWeek    time.Weekday     `json:"day_of_week"`
	Trigger      Trigger          `json:"trigger"`
	PreviousMood signal.Mood      `json:"previous_mood,omitempty"`
}

// SelectionOutcomes counts what happened after the selection.
type SelectionOutcomes struct {
	Recommended int `json:"recommended"`
	Launched    int `json:"launched"`
	Ignored     int `json:"ignored"`
}

// MoodSelection is one user-declared emotional state. Immutable once stored.
type MoodSelection struct {
	ID            uuid.UUID         `json:"id"`
	UserID        string            `json:"user_id"`
	SessionID     string            `json:"session_id,omitempty"`
	PrimaryMood   signal.Mood       `json:"primary_mood"`
	SecondaryMood signal.Mood       `json:"secondary_mood,omitempty"`
	Intensity     float64           `json:"intensity"`
	Context       SelectionContext  `json:"context"`
	Outcomes      SelectionOutcomes `json:"outcomes"`
	CreatedAt     time.Time         `json:"created_at"`
}

// ActionType enumerates user actions.
type ActionType string

const (
	ActionLaunch          ActionType = "launch"
	ActionIgnore          ActionType = "ignore"
	ActionRate            ActionType = "rate"
	ActionSwitchMood      ActionType = "switch_mood"
	ActionSessionComplete ActionType = "session_complete"
)

// Valid reports whether t is a known action type.
func (t ActionType) Valid() bool {
	switch t {
	case ActionLaunch, ActionIgnore, ActionRate, ActionSwitchMood, ActionSessionComplete:
		return true
	}
	return false
}

// ActionMetadata is the free-form detail attached to an action.
type ActionMetadata struct {
	SessionMinutes float64     `json:"session_minutes,omitempty"`
	Rating         float64     `json:"rating,omitempty"` // 1-5
	Reason         string      `json:"reason,omitempty"`
	Platform       string      `json:"platform,omitempty"`
	NewMood        signal.Mood `json:"new_mood,omitempty"`
}

// UserAction is a discrete behavioral event. Append-only.
type UserAction struct {
	ID          uuid.UUID      `json:"id"`
	UserID      string         `json:"user_id"`
	SessionID   string         `json:"session_id,omitempty"`
	Type        ActionType     `json:"type"`
	ItemID      string         `json:"item_id,omitempty"`
	MoodContext signal.Mood    `json:"mood_context,omitempty"`
	Metadata    ActionMetadata `json:"metadata"`
	CreatedAt   time.Time      `json:"created_at"`
}

// RecommendationFilters is the explicit context a ranking was produced for.
type RecommendationFilters struct {
	Moods         []signal.Mood        `json:"moods,omitempty"`
	SessionLength signal.SessionLength `json:"session_length,omitempty"`
	TimeOfDay     signal.TimeOfDay     `json:"time_of_day,omitempty"`
	PersonaWeight *float64             `json:"persona_weight,omitempty"`
}

// RecommendedCandidate is one ranked entry of a RecommendationEvent.
type RecommendedCandidate struct {
	ItemID  string         `json:"item_id"`
	Score   float64        `json:"score"`
	Reasons []string       `json:"reasons,omitempty"`
	Moods   []signal.Mood  `json:"moods,omitempty"`
	Genres  []signal.Genre `json:"genres,omitempty"`
	Tags    []string       `json:"tags,omitempty"`
}

// RecommendationEvent is a logged scoring decision.
type RecommendationEvent struct {
	ID           uuid.UUID              `json:"id"`
	UserID       string                 `json:"user_id"`
	SessionID    string                 `json:"session_id,omitempty"`
	Context      RecommendationFilters  `json:"context"`
	Candidates   []RecommendedCandidate `json:"candidates"`
	ChosenItemID string                 `json:"chosen_item_id,omitempty"`
	Success      bool                   `json:"success"`
	CreatedAt    time.Time              `json:"created_at"`
}

// ChosenRank returns the index of the chosen candidate, or -1.
func (e *RecommendationEvent) ChosenRank() int {
	if e.ChosenItemID == "" {
		return -1
	}
	for i := range e.Candidates {
		if e.Candidates[i].ItemID == e.ChosenItemID {
			return i
		}
	}
	return -1
}

// MoodPrediction is a forecast of the next likely mood.
// Only Accepted changes after creation.
type MoodPrediction struct {
	ID            uuid.UUID          `json:"id"`
	UserID        string             `json:"user_id"`
	PredictedMood signal.Mood        `json:"predicted_mood"`
	Confidence    float64            `json:"confidence"`
	Reasoning     []string           `json:"reasoning"`
	Factors       map[string]float64 `json:"factors"`
	Accepted      *bool              `json:"accepted,omitempty"`
	CreatedAt     time.Time          `json:"created_at"`
	ResolvedAt    *time.Time         `json:"resolved_at,omitempty"`
}
