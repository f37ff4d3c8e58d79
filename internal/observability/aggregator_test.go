// Playwise - Mood-Aware Game Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/playwise

package observability

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/playwise/internal/models"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 5, 4, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newTestAggregator(t *testing.T, clock *fakeClock, mutate func(*Config)) *Aggregator {
	t.Helper()
	cfg := DefaultConfig()
	if mutate != nil {
		mutate(&cfg)
	}
	a, err := New(cfg, zerolog.Nop(), WithClock(clock.Now))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return a
}

func TestTrack_RecordsDurationAndOutcome(t *testing.T) {
	t.Parallel()
	clock := newFakeClock()
	a := newTestAggregator(t, clock, nil)

	boom := errors.New("boom")
	err := a.Track(context.Background(), "score", func(context.Context) error {
		clock.Advance(40 * time.Millisecond)
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("Track() error = %v, want the stage error", err)
	}
	_ = a.Track(context.Background(), "score", func(context.Context) error {
		clock.Advance(20 * time.Millisecond)
		return nil
	})

	st := a.Stats("score", 0)
	if st.Count != 2 || st.Failures != 1 || st.SuccessRate != 0.5 {
		t.Errorf("Stats() = %+v", st)
	}
	if math.Abs(st.MeanMs-30) > 1e-9 || st.MaxMs != 40 {
		t.Errorf("MeanMs = %v MaxMs = %v, want 30 and 40", st.MeanMs, st.MaxMs)
	}
	if st.LastError != "boom" {
		t.Errorf("LastError = %q", st.LastError)
	}
	if st.WindowHours != 24 {
		t.Errorf("WindowHours = %v, want 24", st.WindowHours)
	}

	errs := a.RecentErrors(10)
	if len(errs) != 1 || errs[0].Operation != "score" {
		t.Errorf("RecentErrors() = %+v", errs)
	}
}

func TestStats_Window(t *testing.T) {
	t.Parallel()
	clock := newFakeClock()
	a := newTestAggregator(t, clock, nil)

	a.Record("recommend", 10*time.Millisecond, nil)
	clock.Advance(3 * time.Hour)
	a.Record("recommend", 30*time.Millisecond, nil)

	tests := []struct {
		name   string
		window time.Duration
		want   int
	}{
		{"last hour", time.Hour, 1},
		{"last four hours", 4 * time.Hour, 2},
		{"default window", 0, 2},
		{"beyond retention", 100 * time.Hour, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := a.Stats("recommend", tt.window).Count; got != tt.want {
				t.Errorf("Count = %d, want %d", got, tt.want)
			}
		})
	}

	if got := a.StatsHours("recommend", 1).Count; got != 1 {
		t.Errorf("StatsHours(1).Count = %d, want 1", got)
	}

	clock.Advance(22 * time.Hour)
	a.Record("recommend", 5*time.Millisecond, nil)
	if got := a.Stats("recommend", 0).Count; got != 2 {
		t.Errorf("after 25h Count = %d, want 2 (oldest pruned)", got)
	}
}

func TestStats_AllOperationsAndPercentiles(t *testing.T) {
	t.Parallel()
	clock := newFakeClock()
	a := newTestAggregator(t, clock, nil)

	for i := 1; i <= 100; i++ {
		a.Record("a", time.Duration(i)*time.Millisecond, nil)
	}
	a.Record("b", time.Millisecond, errors.New("x"))

	all := a.Stats("", 0)
	if all.Count != 101 || all.Failures != 1 {
		t.Errorf("Stats(all) = %+v", all)
	}

	st := a.Stats("a", 0)
	if st.P50Ms != 50 || st.P95Ms != 95 || st.P99Ms != 99 || st.MaxMs != 100 {
		t.Errorf("percentiles = %v/%v/%v max %v", st.P50Ms, st.P95Ms, st.P99Ms, st.MaxMs)
	}

	list := a.AllStats(0)
	if len(list) != 2 || list[0].Operation != "a" || list[1].Operation != "b" {
		t.Errorf("AllStats() = %+v", list)
	}

	if empty := a.Stats("missing", 0); empty.Count != 0 || empty.SuccessRate != 0 {
		t.Errorf("Stats(missing) = %+v", empty)
	}
}

func TestRecord_SlowDetection(t *testing.T) {
	t.Parallel()
	clock := newFakeClock()

	t.Run("fixed threshold", func(t *testing.T) {
		a := newTestAggregator(t, clock, func(c *Config) { c.SlowPercentile = 0 })
		a.Record("op", 500*time.Millisecond, nil)
		a.Record("op", 2*time.Second, nil)
		if got := a.Stats("op", 0).SlowCount; got != 1 {
			t.Errorf("SlowCount = %d, want 1", got)
		}
	})

	t.Run("percentile threshold", func(t *testing.T) {
		a := newTestAggregator(t, clock, func(c *Config) {
			c.SlowPercentile = 0.9
			c.PercentileMinSamples = 10
		})
		for i := 0; i < thresholdRefresh; i++ {
			a.Record("op", 10*time.Millisecond, nil)
		}
		a.Record("op", 200*time.Millisecond, nil)
		a.Record("op", 10*time.Millisecond, nil)
		if got := a.Stats("op", 0).SlowCount; got != 1 {
			t.Errorf("SlowCount = %d, want 1", got)
		}
	})
}

func TestRecord_CapsSamples(t *testing.T) {
	t.Parallel()
	clock := newFakeClock()
	a := newTestAggregator(t, clock, func(c *Config) {
		c.MaxSamplesPerOperation = 5
		c.RecentErrors = 2
	})

	for i := 0; i < 8; i++ {
		a.Record("op", time.Millisecond, errors.New("fail"))
	}
	if got := a.Stats("op", 0).Count; got != 5 {
		t.Errorf("Count = %d, want 5", got)
	}
	if got := len(a.RecentErrors(0)); got != 2 {
		t.Errorf("RecentErrors = %d, want 2", got)
	}
}

func TestTrend(t *testing.T) {
	t.Parallel()
	clock := newFakeClock()
	a := newTestAggregator(t, clock, nil)

	a.Record("op", 10*time.Millisecond, nil)
	a.Record("op", 30*time.Millisecond, errors.New("x"))
	clock.Advance(2 * time.Hour)
	a.Record("op", 50*time.Millisecond, nil)

	points := a.Trend("op", 3*time.Hour)
	if len(points) != 4 {
		t.Fatalf("len(Trend) = %d, want 4", len(points))
	}
	first := points[1]
	if first.Count != 2 || first.SuccessRate != 0.5 || first.MeanMs != 20 {
		t.Errorf("points[1] = %+v", first)
	}
	if points[2].Count != 0 {
		t.Errorf("points[2] = %+v, want empty", points[2])
	}
	if last := points[3]; last.Count != 1 || last.MeanMs != 50 {
		t.Errorf("points[3] = %+v", last)
	}
}

func TestActionCounts(t *testing.T) {
	t.Parallel()
	a := newTestAggregator(t, newFakeClock(), nil)

	a.RecordAction(models.ActionLaunch)
	a.RecordAction(models.ActionLaunch)
	a.RecordAction(models.ActionIgnore)

	got := a.ActionCounts()
	if got[models.ActionLaunch] != 2 || got[models.ActionIgnore] != 1 {
		t.Errorf("ActionCounts() = %v", got)
	}

	a.Reset()
	if len(a.ActionCounts()) != 0 || a.Stats("", 0).Count != 0 {
		t.Error("Reset() left data behind")
	}
}

func TestAggregator_Concurrent(t *testing.T) {
	t.Parallel()
	a := newTestAggregator(t, newFakeClock(), nil)

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				a.Record("op", time.Millisecond, nil)
				_ = a.Stats("op", 0)
			}
		}()
	}
	wg.Wait()

	if got := a.Stats("op", 0).Count; got != 800 {
		t.Errorf("Count = %d, want 800", got)
	}
}

func TestConfig_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"default", func(*Config) {}, false},
		{"zero window", func(c *Config) { c.Window = 0 }, true},
		{"percentile 1", func(c *Config) { c.SlowPercentile = 1 }, true},
		{"inverted success rates", func(c *Config) { c.Health.UnhealthySuccessRate = 0.99 }, true},
		{"inverted latency", func(c *Config) { c.Health.UnhealthyLatency = time.Millisecond }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			if err := cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
