// Playwise - Mood-Aware Game Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/playwise

package persona

import (
	"math"
	"reflect"
	"testing"
	"time"

	"github.com/tomtom215/playwise/internal/models"
	"github.com/tomtom215/playwise/internal/signal"
)

var testNow = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

func at(hour int) *time.Time {
	t := time.Date(2026, 3, 10, hour, 15, 0, 0, time.UTC)
	return &t
}

func item(id string, moods ...signal.Mood) signal.ContextualItem {
	return signal.ContextualItem{
		ID:               id,
		Title:            "Game " + id,
		Moods:            moods,
		SessionLength:    signal.SessionMedium,
		RecommendedTimes: []signal.TimeOfDay{signal.Evening},
	}
}

func TestBuild_NeutralOnEmptyInput(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		items   []signal.ContextualItem
		profile *models.PersonaProfile
	}{
		{"nil everything", nil, nil},
		{"neutral profile", nil, models.NewPersonaProfile("u", testNow)},
		{"only malformed items", []signal.ContextualItem{{ID: "", Title: "x"}, {ID: "y"}}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := Build(tt.items, tt.profile, DefaultOptions())
			if !reflect.DeepEqual(got, NeutralContext()) {
				t.Errorf("Build() = %+v, want NeutralContext", got)
			}
		})
	}
}

func TestNeutralContext(t *testing.T) {
	t.Parallel()

	c := NeutralContext()
	if !c.Neutral || c.PreferredSessionLength != signal.SessionMedium {
		t.Errorf("unexpected neutral context %+v", c)
	}
	if !reflect.DeepEqual(c.PreferredTimes, []signal.TimeOfDay{signal.Evening}) {
		t.Errorf("PreferredTimes = %v, want [evening]", c.PreferredTimes)
	}
	if c.Confidence != models.DefaultConfidence {
		t.Errorf("Confidence = %v, want %v", c.Confidence, models.DefaultConfidence)
	}
}

func TestBuild_MoodAffinityBlend(t *testing.T) {
	t.Parallel()

	items := []signal.ContextualItem{
		item("1", signal.MoodZen),
		item("2", signal.MoodZen, signal.MoodCozy),
		item("3", signal.MoodEnergetic),
		item("4", signal.MoodZen),
	}
	profile := models.NewPersonaProfile("u", testNow)
	profile.SampleSize = 10
	profile.Confidence = 0.4
	profile.MoodAffinity[signal.MoodEnergetic] = 0.9

	got := Build(items, profile, DefaultOptions())

	want := map[signal.Mood]float64{
		signal.MoodZen:       0.4*models.NeutralWeight + 0.6*0.75,
		signal.MoodCozy:      0.4*models.NeutralWeight + 0.6*0.25,
		signal.MoodEnergetic: 0.4*0.9 + 0.6*0.25,
	}
	for m, w := range want {
		if math.Abs(got.MoodAffinity[m]-w) > 1e-9 {
			t.Errorf("affinity[%s] = %v, want %v", m, got.MoodAffinity[m], w)
		}
	}
	if len(got.MoodAffinity) != len(want) {
		t.Errorf("MoodAffinity has %d entries, want %d", len(got.MoodAffinity), len(want))
	}

	wantDominant := []signal.Mood{signal.MoodZen, signal.MoodEnergetic, signal.MoodCozy}
	if !reflect.DeepEqual(got.DominantMoods, wantDominant) {
		t.Errorf("DominantMoods = %v, want %v", got.DominantMoods, wantDominant)
	}
}

func TestBuild_DominantMoodsTopNAndTies(t *testing.T) {
	t.Parallel()

	var items []signal.ContextualItem
	for i, m := range signal.AllMoods {
		items = append(items, item(string(rune('a'+i)), m))
	}

	got := Build(items, nil, DefaultOptions())

	// All moods tie; the first five by name win.
	want := signal.AllMoods[:5]
	if !reflect.DeepEqual(got.DominantMoods, want) {
		t.Errorf("DominantMoods = %v, want %v", got.DominantMoods, want)
	}

	opts := DefaultOptions()
	opts.TopMoods = 2
	if got := Build(items, nil, opts); len(got.DominantMoods) != 2 {
		t.Errorf("TopMoods=2 gave %d moods", len(got.DominantMoods))
	}
}

func TestBuild_SessionLengthBoundaries(t *testing.T) {
	t.Parallel()

	tests := []struct {
		minutes float64
		want    signal.SessionLength
	}{
		{10, signal.SessionShort},
		{44.99, signal.SessionShort},
		{45, signal.SessionMedium},
		{60, signal.SessionMedium},
		{90, signal.SessionMedium},
		{90.01, signal.SessionLong},
		{240, signal.SessionLong},
	}

	for _, tt := range tests {
		i := item("1", signal.MoodZen)
		i.AverageSessionMinutes = tt.minutes
		got := Build([]signal.ContextualItem{i}, nil, DefaultOptions())
		if got.PreferredSessionLength != tt.want {
			t.Errorf("mean %v minutes: PreferredSessionLength = %q, want %q", tt.minutes, got.PreferredSessionLength, tt.want)
		}
	}
}

func TestBuild_SessionLengthFromMean(t *testing.T) {
	t.Parallel()

	a, b := item("a"), item("b")
	a.AverageSessionMinutes = 30
	b.AverageSessionMinutes = 60
	c := item("c") // no session data, excluded from the mean

	got := Build([]signal.ContextualItem{a, b, c}, nil, DefaultOptions())
	if got.Stats.MeanSessionMinutes != 45 {
		t.Errorf("MeanSessionMinutes = %v, want 45", got.Stats.MeanSessionMinutes)
	}
	if got.PreferredSessionLength != signal.SessionMedium {
		t.Errorf("PreferredSessionLength = %q, want medium", got.PreferredSessionLength)
	}
}

func TestBuild_SessionLengthFallsBackToProfile(t *testing.T) {
	t.Parallel()

	profile := models.NewPersonaProfile("u", testNow)
	profile.SampleSize = 3
	profile.SessionPatterns.Lengths[signal.SessionLong] = 4
	profile.SessionPatterns.Lengths[signal.SessionShort] = 1

	got := Build([]signal.ContextualItem{item("1", signal.MoodZen)}, profile, DefaultOptions())
	if got.PreferredSessionLength != signal.SessionLong {
		t.Errorf("PreferredSessionLength = %q, want long", got.PreferredSessionLength)
	}
}

func TestBuild_PatternsAndTimes(t *testing.T) {
	t.Parallel()

	night := item("1", signal.MoodCompetitive)
	night.LastPlayedAt = at(23)
	night.Completed = true
	night.Multiplayer = true

	night2 := item("2", signal.MoodCompetitive)
	night2.LastPlayedAt = at(1)
	night2.Completed = true
	night2.Multiplayer = true

	day := item("3", signal.MoodFocused)
	day.LastPlayedAt = at(10)
	day.Completed = true

	got := Build([]signal.ContextualItem{night, night2, day}, nil, DefaultOptions())

	wantPatterns := []PlayPattern{PatternCompletionist, PatternNightOwl, PatternSocial}
	if !reflect.DeepEqual(got.PlayPatterns, wantPatterns) {
		t.Errorf("PlayPatterns = %v, want %v", got.PlayPatterns, wantPatterns)
	}
	wantTimes := []signal.TimeOfDay{signal.Evening, signal.LateNight}
	if !reflect.DeepEqual(got.PreferredTimes, wantTimes) {
		t.Errorf("PreferredTimes = %v, want %v", got.PreferredTimes, wantTimes)
	}
}

func TestBuild_PatternThresholdsAreStrict(t *testing.T) {
	t.Parallel()

	// Completion rate exactly 0.7 and multiplayer ratio exactly 0.5 do not qualify.
	var items []signal.ContextualItem
	for i := 0; i < 10; i++ {
		it := item(string(rune('a'+i)), signal.MoodZen)
		it.TotalPlaytimeMinutes = 60
		it.Completed = i < 7
		it.Multiplayer = i < 5
		items = append(items, it)
	}

	got := Build(items, nil, DefaultOptions())
	if len(got.PlayPatterns) != 0 {
		t.Errorf("PlayPatterns = %v, want none at exact thresholds", got.PlayPatterns)
	}
	if !reflect.DeepEqual(got.PreferredTimes, []signal.TimeOfDay{signal.Evening}) {
		t.Errorf("PreferredTimes = %v, want default [evening]", got.PreferredTimes)
	}
}

func TestBuild_ProfileTimePreference(t *testing.T) {
	t.Parallel()

	profile := models.NewPersonaProfile("u", testNow)
	profile.SampleSize = 10
	profile.TimeOfDayPreference[signal.Morning] = 0.6
	profile.TimeOfDayPreference[signal.Afternoon] = 0.25
	profile.TimeOfDayPreference[signal.Evening] = 0.15

	got := Build([]signal.ContextualItem{item("1", signal.MoodFocused)}, profile, DefaultOptions())
	if !reflect.DeepEqual(got.PreferredTimes, []signal.TimeOfDay{signal.Morning}) {
		t.Errorf("PreferredTimes = %v, want [morning]", got.PreferredTimes)
	}
}

func TestBuild_CorruptProfileValues(t *testing.T) {
	t.Parallel()

	profile := models.NewPersonaProfile("u", testNow)
	profile.SampleSize = 2
	profile.Confidence = math.NaN()
	profile.MoodAffinity[signal.MoodZen] = math.Inf(1)
	profile.MoodAffinity["not-a-mood"] = 0.9
	profile.TimeOfDayPreference[signal.Morning] = math.NaN()

	got := Build([]signal.ContextualItem{item("1", signal.MoodZen)}, profile, DefaultOptions())

	if got.Confidence != models.DefaultConfidence {
		t.Errorf("Confidence = %v, want default for NaN", got.Confidence)
	}
	if _, ok := got.MoodAffinity["not-a-mood"]; ok {
		t.Error("unknown mood leaked into affinity map")
	}
	for m, w := range got.MoodAffinity {
		if math.IsNaN(w) || math.IsInf(w, 0) {
			t.Errorf("affinity[%s] is not finite", m)
		}
	}
}

func TestBuild_Deterministic(t *testing.T) {
	t.Parallel()

	items := []signal.ContextualItem{
		item("1", signal.MoodZen, signal.MoodCozy),
		item("2", signal.MoodEnergetic, signal.MoodSocial),
		item("3", signal.MoodFocused, signal.MoodCreative, signal.MoodNostalgic),
	}
	profile := models.NewPersonaProfile("u", testNow)
	profile.SampleSize = 4
	profile.Confidence = 0.3
	profile.MoodAffinity[signal.MoodMelancholy] = 0.7

	first := Build(items, profile, DefaultOptions())
	for i := 0; i < 50; i++ {
		if again := Build(items, profile, DefaultOptions()); !reflect.DeepEqual(first, again) {
			t.Fatalf("Build is not deterministic:\n%+v\n%+v", first, again)
		}
	}
}

func TestOptionsValidate(t *testing.T) {
	t.Parallel()

	if err := DefaultOptions().Validate(); err != nil {
		t.Errorf("defaults invalid: %v", err)
	}

	bad := DefaultOptions()
	bad.LongSessionAbove = 10
	if err := bad.Validate(); err == nil {
		t.Error("expected error when long < short")
	}

	bad = DefaultOptions()
	bad.SocialRatio = 2
	if err := bad.Validate(); err == nil {
		t.Error("expected error for ratio > 1")
	}
}
