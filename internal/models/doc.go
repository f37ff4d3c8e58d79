// Playwise - Mood-Aware Game Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/playwise

/*
Package models defines the data structures shared by the Playwise engine.

Key Components:

  - PersonaProfile: the single converged learner state per user (versioned)
  - MoodSelection: one user-declared mood at a point in time (append-only)
  - UserAction: launch, ignore, rate, switch_mood, session_complete (append-only)
  - RecommendationEvent: a logged ranking decision and its outcome
  - MoodPrediction: a forecast of the next mood; only Accepted is ever updated
  - MoodPattern, LearningMetrics: materialized views recomputed from the event log
  - HealthSnapshot: a point-in-time health status of the pipeline

Model Categories:

1. Source of truth (append-only event log):
  - MoodSelection, UserAction, RecommendationEvent

2. Converged state:
  - PersonaProfile, rebuilt from the event log when needed

3. Views (caches, never authoritative):
  - MoodPattern, LearningMetrics, HealthSnapshot

Usage Example:

	profile := models.NewPersonaProfile("user-1", time.Now())
	if profile.HasApplied(selection.ID) {
	    return learning.ErrDuplicateEvent
	}

Thread Safety:

Models carry no locks. PersonaProfile is mutated only by the learning loop on a
private copy (Clone) and persisted with an optimistic Version check.

JSON Marshaling:

All models use snake_case JSON tags and are encoded with goccy/go-json by the
store backends.
*/
package models
