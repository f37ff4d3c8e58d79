// Playwise - Mood-Aware Game Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/playwise

package recommend

import (
	"math"
	"testing"

	"github.com/tomtom215/playwise/internal/persona"
	"github.com/tomtom215/playwise/internal/signal"
)

func testItem(id string, moods []signal.Mood, sl signal.SessionLength, times ...signal.TimeOfDay) signal.ContextualItem {
	return signal.ContextualItem{
		ID:               id,
		Title:            "Game " + id,
		Moods:            moods,
		SessionLength:    sl,
		RecommendedTimes: times,
	}
}

func floatPtr(v float64) *float64 { return &v }

func defaultWeights() ScoreWeights { return DefaultConfig().Weights }

func TestMatch_ZenShortAnyTime(t *testing.T) {
	t.Parallel()

	item := testItem("z", []signal.Mood{signal.MoodZen}, signal.SessionShort, signal.Evening)
	neutral := persona.NeutralContext()
	f := Filters{Moods: []signal.Mood{signal.MoodZen}, SessionLength: signal.SessionShort}

	m := Match(&item, &neutral, f, defaultWeights(), 0.3)

	if !m.MoodMatch || !m.SessionMatch || !m.TimeMatch {
		t.Errorf("expected all criteria to match, got %+v", m)
	}
	if m.BaseScore != 75 {
		t.Errorf("BaseScore = %v, want 75", m.BaseScore)
	}
	if m.Score < 75 {
		t.Errorf("Score = %v, want >= 75", m.Score)
	}
}

func TestMatch_BaseCriteria(t *testing.T) {
	t.Parallel()

	zenShortEvening := testItem("a", []signal.Mood{signal.MoodZen}, signal.SessionShort, signal.Evening)
	noTimes := testItem("b", []signal.Mood{signal.MoodEnergetic}, signal.SessionLong)

	tests := []struct {
		name    string
		item    signal.ContextualItem
		filters Filters
		mood    bool
		session bool
		time    bool
		base    float64
	}{
		{"empty filters are vacuous", zenShortEvening, Filters{}, true, true, true, 75},
		{"mood mismatch", zenShortEvening, Filters{Moods: []signal.Mood{signal.MoodEnergetic}}, false, true, true, 50},
		{"any of several moods", zenShortEvening, Filters{Moods: []signal.Mood{signal.MoodEnergetic, signal.MoodZen}}, true, true, true, 75},
		{"session mismatch", zenShortEvening, Filters{SessionLength: signal.SessionLong}, true, false, true, 50},
		{"time mismatch", zenShortEvening, Filters{TimeOfDay: signal.Morning}, true, true, false, 50},
		{"item without times matches any time", noTimes, Filters{TimeOfDay: signal.Morning}, true, true, true, 75},
		{"nothing matches", zenShortEvening, Filters{
			Moods: []signal.Mood{signal.MoodCompetitive}, SessionLength: signal.SessionLong, TimeOfDay: signal.Morning,
		}, false, false, false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			m := Match(&tt.item, nil, tt.filters, defaultWeights(), 1)
			if m.MoodMatch != tt.mood || m.SessionMatch != tt.session || m.TimeMatch != tt.time {
				t.Errorf("matches = %v/%v/%v, want %v/%v/%v", m.MoodMatch, m.SessionMatch, m.TimeMatch, tt.mood, tt.session, tt.time)
			}
			if m.BaseScore != tt.base {
				t.Errorf("BaseScore = %v, want %v", m.BaseScore, tt.base)
			}
			if m.Score != tt.base {
				t.Errorf("Score = %v, want %v without persona", m.Score, tt.base)
			}
		})
	}
}

func TestMatch_PersonaContribution(t *testing.T) {
	t.Parallel()

	item := testItem("a", []signal.Mood{signal.MoodZen, signal.MoodCozy}, signal.SessionShort, signal.Evening, signal.LateNight)
	item.Completed = true
	item.Multiplayer = true

	pc := persona.PersonaContext{
		MoodAffinity: map[signal.Mood]float64{
			signal.MoodZen:       0.8,
			signal.MoodCozy:      0.4,
			signal.MoodEnergetic: 0.9,
		},
		DominantMoods:          []signal.Mood{signal.MoodEnergetic, signal.MoodZen},
		PreferredSessionLength: signal.SessionShort,
		PreferredTimes:         []signal.TimeOfDay{signal.LateNight},
		PlayPatterns:           []persona.PlayPattern{persona.PatternCompletionist, persona.PatternSocial, persona.PatternNightOwl},
	}

	m := Match(&item, &pc, Filters{}, defaultWeights(), 0.5)

	// zen only (cozy not dominant): 0.8*30 = 24; session 25; time 20;
	// completionist and social 30; night_owl has no rule of its own.
	wantPersona := 24.0 + 25 + 20 + 30
	if math.Abs(m.PersonaScore-wantPersona) > 1e-9 {
		t.Errorf("PersonaScore = %v, want %v", m.PersonaScore, wantPersona)
	}
	if want := 75 + wantPersona*0.5; math.Abs(m.Score-want) > 1e-9 {
		t.Errorf("Score = %v, want %v", m.Score, want)
	}
	if len(m.Reasons) != MaxReasons {
		t.Errorf("len(Reasons) = %d, want capped at %d: %v", len(m.Reasons), MaxReasons, m.Reasons)
	}
}

func TestMatch_NightOwlPatternAddsNothing(t *testing.T) {
	t.Parallel()

	item := testItem("n", []signal.Mood{signal.MoodZen}, signal.SessionShort, signal.LateNight)
	pc := persona.PersonaContext{
		MoodAffinity: map[signal.Mood]float64{},
		PlayPatterns: []persona.PlayPattern{persona.PatternNightOwl},
	}

	m := Match(&item, &pc, Filters{}, defaultWeights(), 1)
	if m.PersonaScore != 0 {
		t.Errorf("PersonaScore = %v, want 0", m.PersonaScore)
	}
	if len(m.Reasons) != 0 {
		t.Errorf("Reasons = %v, want none", m.Reasons)
	}
}

func TestMatch_WeightsScaleTerms(t *testing.T) {
	t.Parallel()

	item := testItem("a", []signal.Mood{signal.MoodZen}, signal.SessionMedium, signal.Evening)
	pc := persona.PersonaContext{
		MoodAffinity:           map[signal.Mood]float64{signal.MoodZen: 0.5},
		DominantMoods:          []signal.Mood{signal.MoodZen},
		PreferredSessionLength: signal.SessionMedium,
		PreferredTimes:         []signal.TimeOfDay{signal.Evening},
	}

	w := ScoreWeights{Mood: 10, SessionLength: 2, TimeOfDay: 0, PlayPattern: 1}
	m := Match(&item, &pc, Filters{}, w, 1)
	if want := 0.5*10 + 25*2 + 0.0; m.PersonaScore != want {
		t.Errorf("PersonaScore = %v, want %v", m.PersonaScore, want)
	}
}

func TestMatch_ZeroScoreMeansNothingMatched(t *testing.T) {
	t.Parallel()

	item := testItem("a", []signal.Mood{signal.MoodZen}, signal.SessionShort, signal.Morning)
	pc := persona.NeutralContext()
	f := Filters{Moods: []signal.Mood{signal.MoodCompetitive}, SessionLength: signal.SessionLong, TimeOfDay: signal.Evening}

	m := Match(&item, &pc, f, defaultWeights(), 1)
	if m.Score != 0 {
		t.Fatalf("Score = %v, want 0", m.Score)
	}
	if m.MoodMatch || m.SessionMatch || m.TimeMatch || m.PersonaScore != 0 {
		t.Errorf("zero score with a contributing term: %+v", m)
	}
}

func TestMatch_NeutralContextAddsNoPersonaScore(t *testing.T) {
	t.Parallel()

	// The neutral defaults (medium sessions, evening play) must not lift an
	// item that fails every requested criterion.
	item := testItem("doom", []signal.Mood{signal.MoodEnergetic}, signal.SessionMedium, signal.Evening)
	pc := persona.NeutralContext()
	f := Filters{Moods: []signal.Mood{signal.MoodCompetitive}, SessionLength: signal.SessionLong, TimeOfDay: signal.Morning}

	m := Match(&item, &pc, f, defaultWeights(), 1)
	if m.PersonaScore != 0 || m.Score != 0 {
		t.Errorf("PersonaScore = %v, Score = %v, want 0 and 0", m.PersonaScore, m.Score)
	}
	if len(m.Reasons) != 0 {
		t.Errorf("Reasons = %v, want none", m.Reasons)
	}
}

func TestResolvePersonaWeight(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   *float64
		want float64
	}{
		{"unset uses default", nil, 0.3},
		{"explicit", floatPtr(0.7), 0.7},
		{"zero disables persona", floatPtr(0), 0},
		{"clamped high", floatPtr(3), 1},
		{"clamped low", floatPtr(-1), 0},
		{"nan uses default", floatPtr(math.NaN()), 0.3},
	}
	for _, tt := range tests {
		if got := ResolvePersonaWeight(tt.in, 0.3); got != tt.want {
			t.Errorf("%s: ResolvePersonaWeight = %v, want %v", tt.name, got, tt.want)
		}
	}
}
