// Playwise - Mood-Aware Game Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/playwise

package learning

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/playwise/internal/models"
	"github.com/tomtom215/playwise/internal/signal"
	"github.com/tomtom215/playwise/internal/store"
)

// ErrAlreadyResolved is returned when a prediction's acceptance is changed
// after it was set.
var ErrAlreadyResolved = errors.New("learning: prediction already resolved")

// Blend of the prediction factors.
const (
	timeFactorWeight     = 0.5
	weekdayFactorWeight  = 0.2
	affinityFactorWeight = 0.3
)

// Factor names in MoodPrediction.Factors.
const (
	FactorTimeOfDay = "time_of_day"
	FactorWeekday   = "day_of_week"
	FactorAffinity  = "affinity"
)

// Predict forecasts the mood most likely to be picked at `at` from recent
// selections and the profile's affinities. It is pure; ties go to the
// alphabetically first mood.
func Predict(p *models.PersonaProfile, recent []models.MoodSelection, at time.Time) (signal.Mood, float64, map[string]float64, []string) {
	tod := signal.TimeOfDayAt(at)
	day := at.Weekday()

	todCount := make(map[signal.Mood]int)
	dayCount := make(map[signal.Mood]int)
	todTotal, dayTotal := 0, 0
	for i := range recent {
		s := &recent[i]
		st := s.Context.TimeOfDay
		if !st.Valid() {
			st = signal.TimeOfDayAt(s.CreatedAt)
		}
		if st == tod {
			todCount[s.PrimaryMood]++
			todTotal++
		}
		if s.Context.DayOfWeek == day {
			dayCount[s.PrimaryMood]++
			dayTotal++
		}
	}

	share := func(c, total int) float64 {
		if total == 0 {
			return 0
		}
		return float64(c) / float64(total)
	}

	best := signal.Mood("")
	bestScore := -1.0
	var bestFactors map[string]float64
	for _, m := range signal.AllMoods {
		f := map[string]float64{
			FactorTimeOfDay: share(todCount[m], todTotal),
			FactorWeekday:   share(dayCount[m], dayTotal),
			FactorAffinity:  p.Affinity(m),
		}
		score := timeFactorWeight*f[FactorTimeOfDay] + weekdayFactorWeight*f[FactorWeekday] + affinityFactorWeight*f[FactorAffinity]
		if score > bestScore {
			best, bestScore, bestFactors = m, score, f
		}
	}

	confidence := clamp01(bestScore * (0.5 + 0.5*p.Confidence))

	var reasons []string
	if bestFactors[FactorTimeOfDay] >= 0.5 {
		reasons = append(reasons, fmt.Sprintf("You usually pick %s in the %s", best, tod))
	}
	if bestFactors[FactorWeekday] >= 0.5 {
		reasons = append(reasons, fmt.Sprintf("You often pick %s on %ss", best, day))
	}
	if bestFactors[FactorAffinity] > models.NeutralWeight {
		reasons = append(reasons, fmt.Sprintf("%s is one of your strongest moods", best))
	}
	if len(reasons) == 0 {
		reasons = append(reasons, "Not enough history yet; this is a starting guess")
	}
	return best, confidence, bestFactors, reasons
}

// PredictMood forecasts userID's next mood and stores the prediction.
func (l *Loop) PredictMood(ctx context.Context, userID string) (*models.MoodPrediction, error) {
	now := l.now()
	p, err := l.Profile(ctx, userID)
	if err != nil {
		return nil, err
	}
	recent, err := l.store.MoodSelections(ctx, userID, now.Add(-l.cfg.PredictionLookback))
	if err != nil {
		return nil, fmt.Errorf("load mood selections: %w", err)
	}

	mood, confidence, factors, reasons := Predict(p, recent, now)
	pred := &models.MoodPrediction{
		ID:            uuid.New(),
		UserID:        userID,
		PredictedMood: mood,
		Confidence:    confidence,
		Reasoning:     reasons,
		Factors:       factors,
		CreatedAt:     now,
	}
	if err := l.store.PutPrediction(ctx, pred); err != nil {
		return nil, fmt.Errorf("save prediction: %w", err)
	}
	return pred, nil
}

// ResolvePrediction records whether the user accepted a prediction. Setting
// the same answer again is a no-op; changing it returns ErrAlreadyResolved.
func (l *Loop) ResolvePrediction(ctx context.Context, userID string, id uuid.UUID, accepted bool) (*models.MoodPrediction, error) {
	unlock := l.lock(userID)
	defer unlock()

	pred, err := l.store.GetPrediction(ctx, userID, id)
	if err != nil {
		return nil, fmt.Errorf("load prediction: %w", err)
	}
	if pred.Accepted != nil {
		if *pred.Accepted == accepted {
			return pred, nil
		}
		return pred, fmt.Errorf("%w: %s", ErrAlreadyResolved, id)
	}

	now := l.now()
	pred.Accepted = &accepted
	pred.ResolvedAt = &now
	if err := l.store.PutPrediction(ctx, pred); err != nil {
		return nil, fmt.Errorf("save prediction: %w", err)
	}
	return pred, nil
}

// EnsureProfile returns userID's profile, persisting a neutral one on first use.
func (l *Loop) EnsureProfile(ctx context.Context, userID string) (*models.PersonaProfile, error) {
	p, err := l.store.GetProfile(ctx, userID)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("load profile: %w", err)
	}

	p = models.NewPersonaProfile(userID, l.now())
	err = l.store.PutProfile(ctx, p, 0)
	if errors.Is(err, store.ErrVersionConflict) {
		// created concurrently
		return l.Profile(ctx, userID)
	}
	if err != nil {
		return nil, fmt.Errorf("create profile: %w", err)
	}
	return p, nil
}
