// Playwise - Mood-Aware Game Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/playwise

package learning

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/playwise/internal/models"
	"github.com/tomtom215/playwise/internal/signal"
	"github.com/tomtom215/playwise/internal/store"
)

// History is a user's full event log.
type History struct {
	Selections      []models.MoodSelection
	Actions         []models.UserAction
	Recommendations []models.RecommendationEvent
	Predictions     []models.MoodPrediction
}

// LoadHistory reads every event of userID.
func (l *Loop) LoadHistory(ctx context.Context, userID string) (*History, error) {
	var h History
	var err error
	if h.Selections, err = l.store.MoodSelections(ctx, userID, time.Time{}); err != nil {
		return nil, fmt.Errorf("load mood selections: %w", err)
	}
	if h.Actions, err = l.store.UserActions(ctx, userID, time.Time{}); err != nil {
		return nil, fmt.Errorf("load user actions: %w", err)
	}
	if h.Recommendations, err = l.store.RecommendationEvents(ctx, userID, time.Time{}); err != nil {
		return nil, fmt.Errorf("load recommendation events: %w", err)
	}
	if h.Predictions, err = l.store.Predictions(ctx, userID, time.Time{}); err != nil {
		return nil, fmt.Errorf("load predictions: %w", err)
	}
	return &h, nil
}

// replayStep is one event of a merged replay.
type replayStep struct {
	at    time.Time
	order int
	apply func(*models.PersonaProfile)
	id    uuid.UUID
}

// Replay folds history into a fresh profile in event time order. Ties are
// broken by event kind (selections, actions, outcomes) then log order. An
// event ID is applied at most once.
// items resolves action item IDs; nil skips item updates.
func Replay(userID string, h *History, cfg *Config, items func(itemID string) *signal.ContextualItem, now time.Time) *models.PersonaProfile {
	steps := make([]replayStep, 0, len(h.Selections)+len(h.Actions)+len(h.Recommendations))
	for i := range h.Selections {
		sel := &h.Selections[i]
		steps = append(steps, replayStep{at: sel.CreatedAt, order: 0, id: sel.ID, apply: func(p *models.PersonaProfile) {
			applySelection(p, sel, cfg)
		}})
	}
	for i := range h.Actions {
		a := &h.Actions[i]
		steps = append(steps, replayStep{at: a.CreatedAt, order: 1, id: a.ID, apply: func(p *models.PersonaProfile) {
			var item *signal.ContextualItem
			if items != nil && a.ItemID != "" {
				item = items(a.ItemID)
			}
			applyAction(p, a, item, cfg)
		}})
	}
	for i := range h.Recommendations {
		ev := &h.Recommendations[i]
		steps = append(steps, replayStep{at: ev.CreatedAt, order: 2, id: ev.ID, apply: func(p *models.PersonaProfile) {
			applyOutcome(p, ev, cfg)
		}})
	}
	sort.SliceStable(steps, func(i, j int) bool {
		if !steps[i].at.Equal(steps[j].at) {
			return steps[i].at.Before(steps[j].at)
		}
		return steps[i].order < steps[j].order
	})

	p := models.NewPersonaProfile(userID, now)
	if len(steps) > 0 {
		p.CreatedAt = steps[0].at
	}
	seen := make(map[uuid.UUID]struct{}, len(steps))
	for i := range steps {
		if _, dup := seen[steps[i].id]; dup {
			continue
		}
		seen[steps[i].id] = struct{}{}
		steps[i].apply(p)
		p.MarkApplied(steps[i].id, cfg.AppliedEventWindow)
	}
	p.UpdatedAt = now
	return p
}

// Rebuild recomputes userID's profile from the event log and replaces the
// stored one.
func (l *Loop) Rebuild(ctx context.Context, userID string) (*models.PersonaProfile, error) {
	unlock := l.lock(userID)
	defer unlock()

	h, err := l.LoadHistory(ctx, userID)
	if err != nil {
		return nil, err
	}
	rebuilt := Replay(userID, h, &l.cfg, func(itemID string) *signal.ContextualItem {
		return l.lookup(ctx, userID, itemID)
	}, l.now())

	for attempt := 0; attempt <= l.cfg.MaxRetries; attempt++ {
		expected := int64(0)
		current, err := l.store.GetProfile(ctx, userID)
		switch {
		case err == nil:
			expected = current.Version
			if len(h.Selections)+len(h.Actions)+len(h.Recommendations) == 0 {
				rebuilt.CreatedAt = current.CreatedAt
			}
		case !errors.Is(err, store.ErrNotFound):
			return nil, fmt.Errorf("load profile: %w", err)
		}

		candidate := rebuilt.Clone()
		err = l.store.PutProfile(ctx, candidate, expected)
		if err == nil {
			l.logger.Info().
				Str("user_id", userID).
				Int("selections", len(h.Selections)).
				Int("actions", len(h.Actions)).
				Int("recommendations", len(h.Recommendations)).
				Msg("profile rebuilt from event log")
			return candidate, nil
		}
		if !errors.Is(err, store.ErrVersionConflict) {
			return nil, fmt.Errorf("save rebuilt profile: %w", err)
		}
	}
	return nil, fmt.Errorf("%w: rebuild of user %s", ErrConflict, userID)
}

type patternKey struct {
	mood signal.Mood
	tod  signal.TimeOfDay
}

// ComputeMoodPatterns aggregates selections per (mood, time of day). The
// success rate counts launches against ignores among actions taken in the
// same mood and time bucket. Output is sorted by mood then time of day.
func ComputeMoodPatterns(userID string, selections []models.MoodSelection, actions []models.UserAction) []models.MoodPattern {
	type acc struct {
		freq      int
		intensity float64
		last      time.Time
	}
	groups := make(map[patternKey]*acc)
	for i := range selections {
		s := &selections[i]
		tod := s.Context.TimeOfDay
		if !tod.Valid() {
			tod = signal.TimeOfDayAt(s.CreatedAt)
		}
		k := patternKey{s.PrimaryMood, tod}
		a := groups[k]
		if a == nil {
			a = &acc{}
			groups[k] = a
		}
		a.freq++
		a.intensity += s.Intensity
		if s.CreatedAt.After(a.last) {
			a.last = s.CreatedAt
		}
	}

	type outcome struct{ launches, ignores int }
	outcomes := make(map[patternKey]*outcome)
	for i := range actions {
		a := &actions[i]
		if a.MoodContext == "" || (a.Type != models.ActionLaunch && a.Type != models.ActionIgnore) {
			continue
		}
		k := patternKey{a.MoodContext, signal.TimeOfDayAt(a.CreatedAt)}
		o := outcomes[k]
		if o == nil {
			o = &outcome{}
			outcomes[k] = o
		}
		if a.Type == models.ActionLaunch {
			o.launches++
		} else {
			o.ignores++
		}
	}

	out := make([]models.MoodPattern, 0, len(groups))
	for k, a := range groups {
		mp := models.MoodPattern{
			UserID:           userID,
			Mood:             k.mood,
			TimeOfDay:        k.tod,
			Frequency:        a.freq,
			AverageIntensity: a.intensity / float64(a.freq),
			LastSeen:         a.last,
		}
		if o := outcomes[k]; o != nil && o.launches+o.ignores > 0 {
			mp.SuccessRate = float64(o.launches) / float64(o.launches+o.ignores)
		}
		out = append(out, mp)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Mood != out[j].Mood {
			return out[i].Mood < out[j].Mood
		}
		return out[i].TimeOfDay < out[j].TimeOfDay
	})
	return out
}

// ComputeLearningMetrics summarizes the learner's track record for userID.
func ComputeLearningMetrics(userID string, h *History, cfg *Config, now time.Time) models.LearningMetrics {
	m := models.LearningMetrics{
		UserID:               userID,
		TotalSelections:      len(h.Selections),
		TotalActions:         len(h.Actions),
		TotalRecommendations: len(h.Recommendations),
		Confidence:           cfg.Confidence(len(h.Selections)),
		ComputedAt:           now,
	}

	for i := range h.Recommendations {
		if h.Recommendations[i].Success || h.Recommendations[i].ChosenItemID != "" {
			m.RecommendationHits++
		}
	}
	if m.TotalRecommendations > 0 {
		m.SuccessRate = float64(m.RecommendationHits) / float64(m.TotalRecommendations)
	}

	launches, ignores := 0, 0
	for i := range h.Actions {
		switch h.Actions[i].Type {
		case models.ActionLaunch:
			launches++
		case models.ActionIgnore:
			ignores++
		}
	}
	if launches+ignores > 0 {
		m.LaunchRate = float64(launches) / float64(launches+ignores)
	}

	accepted := 0
	for i := range h.Predictions {
		if a := h.Predictions[i].Accepted; a != nil {
			m.ResolvedPredictions++
			if *a {
				accepted++
			}
		}
	}
	if m.ResolvedPredictions > 0 {
		m.PredictionAccuracy = float64(accepted) / float64(m.ResolvedPredictions)
	}

	first := max(1, len(h.Selections)-cfg.TrendLength+1)
	for n := first; n <= len(h.Selections); n++ {
		m.ConfidenceTrend = append(m.ConfidenceTrend, cfg.Confidence(n))
	}
	return m
}

// Refresh recomputes and persists userID's mood patterns and learning metrics.
func (l *Loop) Refresh(ctx context.Context, userID string) ([]models.MoodPattern, *models.LearningMetrics, error) {
	h, err := l.LoadHistory(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	patterns := ComputeMoodPatterns(userID, h.Selections, h.Actions)
	lm := ComputeLearningMetrics(userID, h, &l.cfg, l.now())

	if err := l.store.PutMoodPatterns(ctx, userID, patterns); err != nil {
		return nil, nil, fmt.Errorf("save mood patterns: %w", err)
	}
	if err := l.store.PutLearningMetrics(ctx, &lm); err != nil {
		return nil, nil, fmt.Errorf("save learning metrics: %w", err)
	}
	return patterns, &lm, nil
}
