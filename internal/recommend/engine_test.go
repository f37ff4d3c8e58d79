// Playwise - Mood-Aware Game Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/playwise

package recommend

import (
	"context"
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/rs/zerolog"

	"github.com/tomtom215/playwise/internal/persona"
	"github.com/tomtom215/playwise/internal/signal"
)

func newTestEngine(t *testing.T, mutate func(*Config)) *Engine {
	t.Helper()
	cfg := DefaultConfig()
	if mutate != nil {
		mutate(cfg)
	}
	e, err := NewEngine(cfg, zerolog.New(io.Discard))
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}
	return e
}

func sampleLibrary() []signal.ContextualItem {
	return []signal.ContextualItem{
		testItem("stardew", []signal.Mood{signal.MoodCozy, signal.MoodZen}, signal.SessionMedium, signal.Evening),
		testItem("tetris", []signal.Mood{signal.MoodFocused, signal.MoodZen}, signal.SessionShort, signal.Morning, signal.Afternoon),
		testItem("doom", []signal.Mood{signal.MoodEnergetic}, signal.SessionShort, signal.Evening, signal.LateNight),
		testItem("civ", []signal.Mood{signal.MoodFocused}, signal.SessionLong, signal.Evening),
		testItem("journey", []signal.Mood{signal.MoodZen, signal.MoodAdventurous}, signal.SessionShort),
	}
}

func TestNewEngine_InvalidConfig(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.Limits.Parallelism = 0
	if _, err := NewEngine(cfg, zerolog.New(io.Discard)); err == nil {
		t.Fatal("expected error for invalid config")
	}
}

func TestNewEngine_NilConfigUsesDefaults(t *testing.T) {
	t.Parallel()

	e, err := NewEngine(nil, zerolog.New(io.Discard))
	if err != nil {
		t.Fatalf("NewEngine(nil) error = %v", err)
	}
	if got := e.GetConfig().Limits.DefaultLimit; got != 10 {
		t.Errorf("DefaultLimit = %d, want 10", got)
	}
}

func TestEngine_Recommend_ZenShortScenario(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, nil)
	items := []signal.ContextualItem{
		testItem("journey", []signal.Mood{signal.MoodZen}, signal.SessionShort, signal.Evening),
	}
	req := Request{
		UserID:  "u1",
		Filters: Filters{Moods: []signal.Mood{signal.MoodZen}, SessionLength: signal.SessionShort},
	}

	resp, err := e.Recommend(context.Background(), req, items, nil)
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}
	if len(resp.Matches) != 1 {
		t.Fatalf("len(Matches) = %d, want 1", len(resp.Matches))
	}
	if resp.Matches[0].Score < 75 {
		t.Errorf("Score = %v, want >= 75", resp.Matches[0].Score)
	}
	if !resp.Metadata.NeutralContext {
		t.Error("nil persona context should be reported as neutral")
	}
	if resp.Metadata.PersonaWeight != 0.3 {
		t.Errorf("PersonaWeight = %v, want default 0.3", resp.Metadata.PersonaWeight)
	}
}

func TestEngine_Recommend_RankingInvariants(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, func(c *Config) { c.Cache.Enabled = false })
	req := Request{
		UserID:  "u1",
		Filters: Filters{Moods: []signal.Mood{signal.MoodZen}, TimeOfDay: signal.Evening},
		Limit:   50,
	}

	resp, err := e.Recommend(context.Background(), req, sampleLibrary(), nil)
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}

	for i, m := range resp.Matches {
		if m.Score <= 0 {
			t.Errorf("match %d (%s) has non-positive score %v", i, m.ItemID, m.Score)
		}
		if len(m.Reasons) > MaxReasons {
			t.Errorf("match %s has %d reasons", m.ItemID, len(m.Reasons))
		}
		if i > 0 && resp.Matches[i-1].Score < m.Score {
			t.Errorf("matches not sorted: %v before %v", resp.Matches[i-1].Score, m.Score)
		}
	}

	// stardew, journey: zen + evening (journey has no times) -> 75
	if resp.Matches[0].ItemID != "stardew" || resp.Matches[1].ItemID != "journey" {
		t.Errorf("top two = %s, %s; want stardew, journey in input order",
			resp.Matches[0].ItemID, resp.Matches[1].ItemID)
	}
}

func TestEngine_Recommend_StableTies(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, func(c *Config) {
		c.Cache.Enabled = false
		c.Limits.ChunkSize = 2
	})

	items := make([]signal.ContextualItem, 20)
	for i := range items {
		items[i] = testItem(fmt.Sprintf("g%02d", i), []signal.Mood{signal.MoodCozy}, signal.SessionMedium)
	}

	resp, err := e.Recommend(context.Background(), Request{UserID: "u1", Limit: 50}, items, nil)
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}
	if len(resp.Matches) != len(items) {
		t.Fatalf("len(Matches) = %d, want %d", len(resp.Matches), len(items))
	}
	for i, m := range resp.Matches {
		if m.ItemID != items[i].ID {
			t.Fatalf("position %d = %s, want %s", i, m.ItemID, items[i].ID)
		}
	}
}

func TestEngine_Recommend_Deterministic(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, func(c *Config) { c.Cache.Enabled = false })
	pc := persona.PersonaContext{
		MoodAffinity:           map[signal.Mood]float64{signal.MoodFocused: 0.9, signal.MoodZen: 0.6},
		DominantMoods:          []signal.Mood{signal.MoodFocused, signal.MoodZen},
		PreferredSessionLength: signal.SessionShort,
		PreferredTimes:         []signal.TimeOfDay{signal.Morning},
	}
	req := Request{UserID: "u1", Filters: Filters{TimeOfDay: signal.Morning}}

	first, err := e.Recommend(context.Background(), req, sampleLibrary(), &pc)
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}
	for run := 0; run < 5; run++ {
		again, err := e.Recommend(context.Background(), req, sampleLibrary(), &pc)
		if err != nil {
			t.Fatalf("Recommend() error = %v", err)
		}
		if len(again.Matches) != len(first.Matches) {
			t.Fatalf("run %d: %d matches, want %d", run, len(again.Matches), len(first.Matches))
		}
		for i := range first.Matches {
			if again.Matches[i].ItemID != first.Matches[i].ItemID || again.Matches[i].Score != first.Matches[i].Score {
				t.Fatalf("run %d: position %d differs", run, i)
			}
		}
	}
	if first.Matches[0].ItemID != "tetris" {
		t.Errorf("top match = %s, want tetris", first.Matches[0].ItemID)
	}
}

func TestEngine_Recommend_SkipsMalformed(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, nil)
	items := sampleLibrary()
	items = append(items,
		signal.ContextualItem{ID: "", Title: "no id", SessionLength: signal.SessionShort},
		signal.ContextualItem{ID: "bad-session", Title: "bad", SessionLength: "forever"},
	)

	resp, err := e.Recommend(context.Background(), Request{UserID: "u1", Limit: 50}, items, nil)
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}
	if resp.Skipped != 2 {
		t.Errorf("Skipped = %d, want 2", resp.Skipped)
	}
	if resp.TotalCandidates != len(items) {
		t.Errorf("TotalCandidates = %d, want %d", resp.TotalCandidates, len(items))
	}
	if len(resp.Matches) != len(sampleLibrary()) {
		t.Errorf("len(Matches) = %d, want %d", len(resp.Matches), len(sampleLibrary()))
	}
	if got := e.GetMetrics().SkippedItems; got != 2 {
		t.Errorf("SkippedItems metric = %d, want 2", got)
	}
}

func TestEngine_Recommend_ExcludesZeroScores(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, nil)
	pc := persona.NeutralContext()
	req := Request{
		UserID: "u1",
		Filters: Filters{
			Moods:         []signal.Mood{signal.MoodCompetitive},
			SessionLength: signal.SessionLong,
			TimeOfDay:     signal.Morning,
		},
	}
	items := []signal.ContextualItem{
		testItem("doom", []signal.Mood{signal.MoodEnergetic}, signal.SessionShort, signal.Evening),
	}

	resp, err := e.Recommend(context.Background(), req, items, &pc)
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}
	if len(resp.Matches) != 0 {
		t.Errorf("expected no matches, got %+v", resp.Matches)
	}
}

func TestEngine_Recommend_Limit(t *testing.T) {
	t.Parallel()

	items := make([]signal.ContextualItem, 80)
	for i := range items {
		items[i] = testItem(fmt.Sprintf("g%02d", i), []signal.Mood{signal.MoodZen}, signal.SessionShort)
	}

	tests := []struct {
		name  string
		limit int
		want  int
	}{
		{"default", 0, 10},
		{"explicit", 3, 3},
		{"clamped", 500, 50},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			e := newTestEngine(t, nil)
			resp, err := e.Recommend(context.Background(), Request{UserID: "u1", Limit: tt.limit}, items, nil)
			if err != nil {
				t.Fatalf("Recommend() error = %v", err)
			}
			if len(resp.Matches) != tt.want {
				t.Errorf("len(Matches) = %d, want %d", len(resp.Matches), tt.want)
			}
		})
	}
}

func TestEngine_Recommend_PersonaWeight(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, func(c *Config) { c.Cache.Enabled = false })
	items := []signal.ContextualItem{
		testItem("zen", []signal.Mood{signal.MoodZen}, signal.SessionShort),
		testItem("rush", []signal.Mood{signal.MoodEnergetic}, signal.SessionShort),
	}
	pc := persona.PersonaContext{
		MoodAffinity:  map[signal.Mood]float64{signal.MoodEnergetic: 1},
		DominantMoods: []signal.Mood{signal.MoodEnergetic},
	}

	off, err := e.Recommend(context.Background(), Request{
		UserID: "u1", Filters: Filters{PersonaWeight: floatPtr(0)},
	}, items, &pc)
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}
	if off.Matches[0].ItemID != "zen" || off.Matches[0].Score != off.Matches[1].Score {
		t.Errorf("with persona weight 0 scores should tie in input order: %+v", off.Matches)
	}

	on, err := e.Recommend(context.Background(), Request{
		UserID: "u1", Filters: Filters{PersonaWeight: floatPtr(1)},
	}, items, &pc)
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}
	if on.Matches[0].ItemID != "rush" {
		t.Errorf("with full persona weight top match = %s, want rush", on.Matches[0].ItemID)
	}
	if on.Matches[0].Score != 75+30 {
		t.Errorf("rush score = %v, want 105", on.Matches[0].Score)
	}
}

func TestEngine_Recommend_Cache(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, nil)
	req := Request{UserID: "u1", Filters: Filters{Moods: []signal.Mood{signal.MoodZen}}}

	first, err := e.Recommend(context.Background(), req, sampleLibrary(), nil)
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}
	if first.Metadata.CacheHit {
		t.Error("first call should not be a cache hit")
	}

	// mutate the returned response; the cached copy must stay intact
	first.Matches[0].Reasons[0] = "mutated"

	second, err := e.Recommend(context.Background(), req, sampleLibrary(), nil)
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}
	if !second.Metadata.CacheHit {
		t.Error("second call should be a cache hit")
	}
	if second.Matches[0].Reasons[0] == "mutated" {
		t.Error("cached response shares memory with a returned response")
	}

	req.ProfileVersion = 2
	third, err := e.Recommend(context.Background(), req, sampleLibrary(), nil)
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}
	if third.Metadata.CacheHit {
		t.Error("a new profile version must miss the cache")
	}

	m := e.GetMetrics()
	if m.CacheHits != 1 || m.CacheMisses != 2 || m.RequestCount != 3 {
		t.Errorf("metrics = %+v, want 1 hit, 2 misses, 3 requests", m)
	}

	e.ClearCache()
	fourth, err := e.Recommend(context.Background(), req, sampleLibrary(), nil)
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}
	if fourth.Metadata.CacheHit {
		t.Error("ClearCache should drop entries")
	}
}

func TestEngine_Recommend_CanceledContext(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, func(c *Config) { c.Cache.Enabled = false })
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := e.Recommend(ctx, Request{UserID: "u1"}, sampleLibrary(), nil)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Recommend() error = %v, want context.Canceled", err)
	}
	if e.GetMetrics().ErrorCount != 1 {
		t.Errorf("ErrorCount = %d, want 1", e.GetMetrics().ErrorCount)
	}
}

func TestEngine_UpdateConfig(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, nil)

	bad := DefaultConfig()
	bad.Limits.MaxLimit = 100
	if err := e.UpdateConfig(bad); err == nil {
		t.Error("expected error for invalid config")
	}

	good := DefaultConfig()
	good.DefaultPersonaWeight = 0.8
	if err := e.UpdateConfig(good); err != nil {
		t.Fatalf("UpdateConfig() error = %v", err)
	}
	if got := e.GetConfig().DefaultPersonaWeight; got != 0.8 {
		t.Errorf("DefaultPersonaWeight = %v, want 0.8", got)
	}
}

func TestEngine_Recommend_Concurrent(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, nil)
	errc := make(chan error, 16)
	for i := 0; i < 16; i++ {
		go func() {
			_, err := e.Recommend(context.Background(), Request{UserID: fmt.Sprintf("u%d", i%4)}, sampleLibrary(), nil)
			errc <- err
		}()
	}
	for i := 0; i < 16; i++ {
		if err := <-errc; err != nil {
			t.Errorf("Recommend() error = %v", err)
		}
	}
}
