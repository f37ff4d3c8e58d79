// Playwise - Mood-Aware Game Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/playwise

package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/playwise/internal/models"
	"github.com/tomtom215/playwise/internal/signal"
)

var testNow = time.Date(2026, 5, 4, 20, 30, 0, 0, time.UTC)

type backendFactory struct {
	name string
	open func(t *testing.T) Store
}

func backends() []backendFactory {
	return []backendFactory{
		{BackendMemory, func(t *testing.T) Store { return NewMemoryStore() }},
		{BackendBadger, func(t *testing.T) Store {
			s, err := OpenBadger("")
			if err != nil {
				t.Fatalf("OpenBadger() error = %v", err)
			}
			return s
		}},
		{BackendSQLite, func(t *testing.T) Store {
			s, err := OpenSQL(BackendSQLite, "")
			if err != nil {
				t.Fatalf("OpenSQL(sqlite) error = %v", err)
			}
			return s
		}},
		{BackendDuckDB, func(t *testing.T) Store {
			s, err := OpenSQL(BackendDuckDB, "")
			if err != nil {
				t.Fatalf("OpenSQL(duckdb) error = %v", err)
			}
			return s
		}},
	}
}

// forEachBackend runs fn against a fresh store of every backend.
func forEachBackend(t *testing.T, fn func(t *testing.T, s Store)) {
	t.Helper()
	for _, b := range backends() {
		t.Run(b.name, func(t *testing.T) {
			s := b.open(t)
			t.Cleanup(func() { _ = s.Close() })
			fn(t, s)
		})
	}
}

func selection(userID string, mood signal.Mood, at time.Time) *models.MoodSelection {
	return &models.MoodSelection{
		ID:          uuid.New(),
		UserID:      userID,
		PrimaryMood: mood,
		Intensity:   0.8,
		Context:     models.SelectionContext{TimeOfDay: signal.TimeOfDayAt(at), DayOfWeek: at.Weekday(), Trigger: models.TriggerManual},
		CreatedAt:   at,
	}
}

func TestStore_ProfileCAS(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store) {
		ctx := context.Background()

		if _, err := s.GetProfile(ctx, "alice"); !errors.Is(err, ErrNotFound) {
			t.Fatalf("GetProfile(absent) error = %v, want ErrNotFound", err)
		}

		p := models.NewPersonaProfile("alice", testNow)
		p.MoodAffinity[signal.MoodZen] = 0.7
		if err := s.PutProfile(ctx, p, 0); err != nil {
			t.Fatalf("PutProfile(create) error = %v", err)
		}
		if p.Version != 1 {
			t.Errorf("Version after create = %d, want 1", p.Version)
		}

		stale := p.Clone()
		p.SampleSize = 3
		if err := s.PutProfile(ctx, p, 1); err != nil {
			t.Fatalf("PutProfile(update) error = %v", err)
		}
		if err := s.PutProfile(ctx, stale, 1); !errors.Is(err, ErrVersionConflict) {
			t.Errorf("stale PutProfile error = %v, want ErrVersionConflict", err)
		}
		if err := s.PutProfile(ctx, models.NewPersonaProfile("alice", testNow), 0); !errors.Is(err, ErrVersionConflict) {
			t.Errorf("second create error = %v, want ErrVersionConflict", err)
		}

		got, err := s.GetProfile(ctx, "alice")
		if err != nil {
			t.Fatalf("GetProfile() error = %v", err)
		}
		if got.Version != 2 || got.SampleSize != 3 || got.MoodAffinity[signal.MoodZen] != 0.7 {
			t.Errorf("stored profile = version %d, samples %d, zen %v", got.Version, got.SampleSize, got.MoodAffinity[signal.MoodZen])
		}
		if got.GenreWeights == nil || got.Observations.Genres == nil {
			t.Error("decoded profile maps should be initialized")
		}
	})
}

func TestStore_EventLog(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store) {
		ctx := context.Background()

		later := selection("bob", signal.MoodCozy, testNow.Add(time.Hour))
		earlier := selection("bob", signal.MoodZen, testNow)
		other := selection("carol", signal.MoodEnergetic, testNow)

		for _, sel := range []*models.MoodSelection{later, earlier, other, later} {
			if err := s.AppendMoodSelection(ctx, sel); err != nil {
				t.Fatalf("AppendMoodSelection() error = %v", err)
			}
		}

		got, err := s.MoodSelections(ctx, "bob", time.Time{})
		if err != nil {
			t.Fatalf("MoodSelections() error = %v", err)
		}
		if len(got) != 2 {
			t.Fatalf("len = %d, want 2 (duplicate append must be ignored)", len(got))
		}
		if got[0].ID != earlier.ID || got[1].ID != later.ID {
			t.Error("selections not in creation order")
		}

		recent, err := s.MoodSelections(ctx, "bob", testNow.Add(30*time.Minute))
		if err != nil {
			t.Fatalf("MoodSelections(since) error = %v", err)
		}
		if len(recent) != 1 || recent[0].ID != later.ID {
			t.Errorf("since filter returned %d selections", len(recent))
		}

		action := &models.UserAction{ID: uuid.New(), UserID: "bob", Type: models.ActionLaunch, ItemID: "g1", CreatedAt: testNow}
		if err := s.AppendUserAction(ctx, action); err != nil {
			t.Fatalf("AppendUserAction() error = %v", err)
		}
		actions, err := s.UserActions(ctx, "bob", time.Time{})
		if err != nil || len(actions) != 1 || actions[0].ItemID != "g1" {
			t.Errorf("UserActions() = %v, %v", actions, err)
		}

		event := &models.RecommendationEvent{
			ID:     uuid.New(),
			UserID: "bob",
			Candidates: []models.RecommendedCandidate{
				{ItemID: "g1", Score: 80, Reasons: []string{"Matches your zen mood"}},
			},
			CreatedAt: testNow,
		}
		if err := s.AppendRecommendationEvent(ctx, event); err != nil {
			t.Fatalf("AppendRecommendationEvent() error = %v", err)
		}
		events, err := s.RecommendationEvents(ctx, "bob", time.Time{})
		if err != nil || len(events) != 1 || events[0].Candidates[0].Reasons[0] != "Matches your zen mood" {
			t.Errorf("RecommendationEvents() = %+v, %v", events, err)
		}
	})
}

func TestStore_AppendIsIdempotentByID(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store) {
		ctx := context.Background()

		first := selection("u1", signal.MoodCozy, testNow)
		again := *first
		again.CreatedAt = testNow.Add(time.Minute)
		again.PrimaryMood = signal.MoodEnergetic
		for _, sel := range []*models.MoodSelection{first, &again} {
			if err := s.AppendMoodSelection(ctx, sel); err != nil {
				t.Fatalf("AppendMoodSelection() error = %v", err)
			}
		}

		act := &models.UserAction{ID: uuid.New(), UserID: "u1", Type: models.ActionLaunch, ItemID: "hades", CreatedAt: testNow}
		actAgain := *act
		actAgain.CreatedAt = testNow.Add(time.Hour)
		for _, a := range []*models.UserAction{act, &actAgain} {
			if err := s.AppendUserAction(ctx, a); err != nil {
				t.Fatalf("AppendUserAction() error = %v", err)
			}
		}

		sels, err := s.MoodSelections(ctx, "u1", time.Time{})
		if err != nil {
			t.Fatalf("MoodSelections() error = %v", err)
		}
		if len(sels) != 1 {
			t.Fatalf("len(selections) = %d, want 1", len(sels))
		}
		if sels[0].PrimaryMood != signal.MoodCozy || !sels[0].CreatedAt.Equal(testNow) {
			t.Errorf("stored selection = %+v, want the first write", sels[0])
		}

		acts, err := s.UserActions(ctx, "u1", time.Time{})
		if err != nil {
			t.Fatalf("UserActions() error = %v", err)
		}
		if len(acts) != 1 {
			t.Errorf("len(actions) = %d, want 1", len(acts))
		}
	})
}

func TestStore_Predictions(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		p := &models.MoodPrediction{
			ID:            uuid.New(),
			UserID:        "dana",
			PredictedMood: signal.MoodZen,
			Confidence:    0.6,
			Reasoning:     []string{"evening habit"},
			Factors:       map[string]float64{"time_of_day": 0.7},
			CreatedAt:     testNow,
		}
		if err := s.PutPrediction(ctx, p); err != nil {
			t.Fatalf("PutPrediction() error = %v", err)
		}

		accepted := true
		p.Accepted = &accepted
		if err := s.PutPrediction(ctx, p); err != nil {
			t.Fatalf("PutPrediction(update) error = %v", err)
		}

		got, err := s.GetPrediction(ctx, "dana", p.ID)
		if err != nil {
			t.Fatalf("GetPrediction() error = %v", err)
		}
		if got.Accepted == nil || !*got.Accepted {
			t.Error("acceptance not persisted")
		}
		if _, err := s.GetPrediction(ctx, "dana", uuid.New()); !errors.Is(err, ErrNotFound) {
			t.Errorf("GetPrediction(absent) error = %v, want ErrNotFound", err)
		}

		all, err := s.Predictions(ctx, "dana", time.Time{})
		if err != nil || len(all) != 1 {
			t.Errorf("Predictions() = %d, %v; want 1", len(all), err)
		}
	})
}

func TestStore_Views(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store) {
		ctx := context.Background()

		if _, err := s.MoodPatterns(ctx, "erin"); !errors.Is(err, ErrNotFound) {
			t.Errorf("MoodPatterns(absent) error = %v, want ErrNotFound", err)
		}

		patterns := []models.MoodPattern{
			{UserID: "erin", Mood: signal.MoodZen, TimeOfDay: signal.Evening, Frequency: 3},
			{UserID: "erin", Mood: signal.MoodCozy, TimeOfDay: signal.Morning, Frequency: 1},
		}
		if err := s.PutMoodPatterns(ctx, "erin", patterns); err != nil {
			t.Fatalf("PutMoodPatterns() error = %v", err)
		}
		if err := s.PutMoodPatterns(ctx, "erin", patterns[:1]); err != nil {
			t.Fatalf("PutMoodPatterns(replace) error = %v", err)
		}
		got, err := s.MoodPatterns(ctx, "erin")
		if err != nil || len(got) != 1 || got[0].Frequency != 3 {
			t.Errorf("MoodPatterns() = %+v, %v", got, err)
		}

		m := &models.LearningMetrics{UserID: "erin", TotalSelections: 4, SuccessRate: 0.5, ComputedAt: testNow}
		if err := s.PutLearningMetrics(ctx, m); err != nil {
			t.Fatalf("PutLearningMetrics() error = %v", err)
		}
		gotM, err := s.LearningMetrics(ctx, "erin")
		if err != nil || gotM.TotalSelections != 4 {
			t.Errorf("LearningMetrics() = %+v, %v", gotM, err)
		}

		if _, err := s.LatestHealthSnapshot(ctx); !errors.Is(err, ErrNotFound) {
			t.Errorf("LatestHealthSnapshot(empty) error = %v, want ErrNotFound", err)
		}
		for i, status := range []models.HealthStatus{models.StatusHealthy, models.StatusDegraded} {
			snap := &models.HealthSnapshot{ID: uuid.New(), Status: status, TakenAt: testNow.Add(time.Duration(i) * time.Minute)}
			if err := s.PutHealthSnapshot(ctx, snap); err != nil {
				t.Fatalf("PutHealthSnapshot() error = %v", err)
			}
		}
		latest, err := s.LatestHealthSnapshot(ctx)
		if err != nil || latest.Status != models.StatusDegraded {
			t.Errorf("LatestHealthSnapshot() = %+v, %v", latest, err)
		}
	})
}

func TestStore_DeleteUser(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store) {
		ctx := context.Background()

		for _, user := range []string{"frank", "gina"} {
			if err := s.PutProfile(ctx, models.NewPersonaProfile(user, testNow), 0); err != nil {
				t.Fatalf("PutProfile() error = %v", err)
			}
			if err := s.AppendMoodSelection(ctx, selection(user, signal.MoodZen, testNow)); err != nil {
				t.Fatalf("AppendMoodSelection() error = %v", err)
			}
			if err := s.PutLearningMetrics(ctx, &models.LearningMetrics{UserID: user}); err != nil {
				t.Fatalf("PutLearningMetrics() error = %v", err)
			}
		}

		if err := s.DeleteUser(ctx, "frank"); err != nil {
			t.Fatalf("DeleteUser() error = %v", err)
		}

		if _, err := s.GetProfile(ctx, "frank"); !errors.Is(err, ErrNotFound) {
			t.Errorf("profile survived erase: %v", err)
		}
		if sels, _ := s.MoodSelections(ctx, "frank", time.Time{}); len(sels) != 0 {
			t.Errorf("%d selections survived erase", len(sels))
		}
		if _, err := s.LearningMetrics(ctx, "frank"); !errors.Is(err, ErrNotFound) {
			t.Errorf("metrics survived erase: %v", err)
		}
		if _, err := s.GetProfile(ctx, "gina"); err != nil {
			t.Errorf("other user's profile erased: %v", err)
		}
		if sels, _ := s.MoodSelections(ctx, "gina", time.Time{}); len(sels) != 1 {
			t.Errorf("other user's selections = %d, want 1", len(sels))
		}
	})
}

func TestStore_InvalidKeyAndClose(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store) {
		ctx := context.Background()

		if _, err := s.GetProfile(ctx, "bad:id"); !errors.Is(err, ErrInvalidKey) {
			t.Errorf("GetProfile(bad:id) error = %v, want ErrInvalidKey", err)
		}
		if err := s.Ping(ctx); err != nil {
			t.Errorf("Ping() error = %v", err)
		}

		if err := s.Close(); err != nil {
			t.Fatalf("Close() error = %v", err)
		}
		if err := s.Close(); err != nil {
			t.Errorf("second Close() error = %v", err)
		}
		if _, err := s.GetProfile(ctx, "alice"); !errors.Is(err, ErrClosed) {
			t.Errorf("GetProfile after Close error = %v, want ErrClosed", err)
		}
	})
}

func TestOpen(t *testing.T) {
	tests := []struct {
		backend string
		wantErr bool
	}{
		{BackendMemory, false},
		{"", false},
		{BackendBadger, false},
		{BackendSQLite, false},
		{"postgres", true},
	}

	for _, tt := range tests {
		t.Run(tt.backend, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Backend = tt.backend
			s, err := Open(cfg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Open() error = %v, wantErr %v", err, tt.wantErr)
			}
			if s != nil {
				_ = s.Close()
			}
		})
	}
}
