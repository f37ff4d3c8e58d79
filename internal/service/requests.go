// Playwise - Mood-Aware Game Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/playwise

package service

import (
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/playwise/internal/models"
	"github.com/tomtom215/playwise/internal/signal"
)

// MoodSelectionRequest declares the user's current mood.
type MoodSelectionRequest struct {
	// ID makes the submission idempotent. Zero generates one.
	ID            uuid.UUID                `json:"id,omitempty"`
	UserID        string                   `json:"user_id" validate:"user_id"`
	SessionID     string                   `json:"session_id,omitempty" validate:"omitempty,max=128"`
	PrimaryMood   signal.Mood              `json:"primary_mood" validate:"required,mood"`
	SecondaryMood signal.Mood              `json:"secondary_mood,omitempty" validate:"omitempty,mood,nefield=PrimaryMood"`
	Intensity     float64                  `json:"intensity" validate:"gte=0,lte=1"`
	Context       SelectionContextRequest  `json:"context"`
	Outcomes      models.SelectionOutcomes `json:"outcomes" validate:"-"`

	// At is when the mood was declared. Zero means now.
	At time.Time `json:"at,omitempty"`
}

// SelectionContextRequest is the optional situation of a mood selection.
// Empty fields are derived from the selection time.
type SelectionContextRequest struct {
	TimeOfDay    signal.TimeOfDay `json:"time_of_day,omitempty" validate:"omitempty,time_of_day"`
	Trigger      models.Trigger   `json:"trigger,omitempty" validate:"omitempty,trigger"`
	PreviousMood signal.Mood      `json:"previous_mood,omitempty" validate:"omitempty,mood"`
}

// UserActionRequest reports a behavioral event.
type UserActionRequest struct {
	ID          uuid.UUID             `json:"id,omitempty"`
	UserID      string                `json:"user_id" validate:"user_id"`
	SessionID   string                `json:"session_id,omitempty" validate:"omitempty,max=128"`
	Type        models.ActionType     `json:"type" validate:"required,action_type"`
	ItemID      string                `json:"item_id,omitempty" validate:"omitempty,max=256"`
	MoodContext signal.Mood           `json:"mood_context,omitempty" validate:"omitempty,mood"`
	Metadata    ActionMetadataRequest `json:"metadata"`
	At          time.Time             `json:"at,omitempty"`
}

// ActionMetadataRequest is the typed detail of an action.
type ActionMetadataRequest struct {
	SessionMinutes float64     `json:"session_minutes,omitempty" validate:"gte=0"`
	Rating         float64     `json:"rating,omitempty" validate:"omitempty,gte=1,lte=5"`
	Reason         string      `json:"reason,omitempty" validate:"omitempty,max=256"`
	Platform       string      `json:"platform,omitempty" validate:"omitempty,max=64"`
	NewMood        signal.Mood `json:"new_mood,omitempty" validate:"omitempty,mood"`
}

// RecommendationRequest asks for a ranked list.
type RecommendationRequest struct {
	// RequestID identifies the ranking for RecordRecommendationOutcome. Empty
	// generates one.
	RequestID     string               `json:"request_id,omitempty" validate:"omitempty,uuid"`
	UserID        string               `json:"user_id" validate:"user_id"`
	PrimaryMood   signal.Mood          `json:"primary_mood,omitempty" validate:"omitempty,mood"`
	SecondaryMood signal.Mood          `json:"secondary_mood,omitempty" validate:"omitempty,mood"`
	SessionLength signal.SessionLength `json:"session_length,omitempty" validate:"omitempty,session_length"`
	TimeOfDay     signal.TimeOfDay     `json:"time_of_day,omitempty" validate:"omitempty,time_of_day"`
	PersonaWeight *float64             `json:"persona_weight,omitempty" validate:"omitempty,gte=0,lte=1"`
	Limit         int                  `json:"limit,omitempty" validate:"gte=0,lte=50"`
}

func (r *RecommendationRequest) moods() []signal.Mood {
	var out []signal.Mood
	if r.PrimaryMood != "" {
		out = append(out, r.PrimaryMood)
	}
	if r.SecondaryMood != "" && r.SecondaryMood != r.PrimaryMood {
		out = append(out, r.SecondaryMood)
	}
	return out
}

// OutcomeRequest reports what the user did with a served ranking.
type OutcomeRequest struct {
	RequestID string `json:"request_id" validate:"required,uuid"`
	UserID    string `json:"user_id" validate:"user_id"`
	SessionID string `json:"session_id,omitempty" validate:"omitempty,max=128"`

	// ChosenItemID is empty when nothing was picked.
	ChosenItemID string `json:"chosen_item_id,omitempty" validate:"omitempty,max=256"`
}
