// Playwise - Mood-Aware Game Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/playwise

package observability

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/stat"

	"github.com/tomtom215/playwise/internal/metrics"
	"github.com/tomtom215/playwise/internal/models"
)

// thresholdRefresh is how many samples an operation records between
// recomputations of its percentile threshold.
const thresholdRefresh = 32

// StagePrefix marks operations recorded for a stage inside a larger
// operation. Health aggregates leave them out.
const StagePrefix = "stage."

// Sample is one tracked call.
type Sample struct {
	Operation string
	Duration  time.Duration
	Success   bool
	Slow      bool
	Error     string
	At        time.Time
}

// OperationStats are the rolling statistics of one operation (or all of them
// when Operation is empty).
type OperationStats struct {
	Operation   string    `json:"operation"`
	WindowHours float64   `json:"window_hours"`
	Count       int       `json:"count"`
	Failures    int       `json:"failures"`
	SuccessRate float64   `json:"success_rate"`
	MeanMs      float64   `json:"mean_ms"`
	P50Ms       float64   `json:"p50_ms"`
	P95Ms       float64   `json:"p95_ms"`
	P99Ms       float64   `json:"p99_ms"`
	MaxMs       float64   `json:"max_ms"`
	SlowCount   int       `json:"slow_count"`
	LastError   string    `json:"last_error,omitempty"`
	LastSeen    time.Time `json:"last_seen,omitempty"`
}

// TrendPoint aggregates one bucket of a trend.
type TrendPoint struct {
	Start       time.Time `json:"start"`
	Count       int       `json:"count"`
	SuccessRate float64   `json:"success_rate"`
	MeanMs      float64   `json:"mean_ms"`
}

type opState struct {
	samples   []Sample
	threshold time.Duration
	pending   int
}

// Aggregator collects samples of pipeline stages.
// It is safe for concurrent use.
type Aggregator struct {
	cfg    Config
	logger zerolog.Logger
	now    func() time.Time

	mu      sync.RWMutex
	ops     map[string]*opState
	errs    []Sample
	actions map[models.ActionType]int64
}

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(a *Aggregator) { a.now = now }
}

// New creates an aggregator.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func New(cfg Config, logger zerolog.Logger, opts ...Option) (*Aggregator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid observability config: %w", err)
	}
	a := &Aggregator{
		cfg:     cfg,
		logger:  logger.With().Str("component", "observability").Logger(),
		now:     time.Now,
		ops:     make(map[string]*opState),
		actions: make(map[models.ActionType]int64),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// Config returns the aggregator configuration.
func (a *Aggregator) Config() Config { return a.cfg }

// Track runs fn and records its duration and outcome under op. fn's error is
// returned unchanged. A canceled caller is recorded as a failure too.
func (a *Aggregator) Track(ctx context.Context, op string, fn func(context.Context) error) error {
	start := a.now()
	err := fn(ctx)
	a.Record(op, a.now().Sub(start), err)
	return err
}

// Record adds one sample.
func (a *Aggregator) Record(op string, d time.Duration, err error) {
	now := a.now()
	s := Sample{Operation: op, Duration: d, Success: err == nil, At: now}
	if err != nil {
		s.Error = err.Error()
	}

	a.mu.Lock()
	st := a.ops[op]
	if st == nil {
		st = &opState{}
		a.ops[op] = st
	}
	a.pruneLocked(st, now)
	s.Slow = d > a.cfg.SlowThreshold || (st.threshold > 0 && d > st.threshold)
	st.samples = append(st.samples, s)
	if over := len(st.samples) - a.cfg.MaxSamplesPerOperation; over > 0 {
		st.samples = append(st.samples[:0:0], st.samples[over:]...)
	}
	st.pending++
	if st.pending >= thresholdRefresh {
		st.pending = 0
		st.threshold = a.percentileThreshold(st.samples)
	}
	if !s.Success && a.cfg.RecentErrors > 0 {
		a.errs = append(a.errs, s)
		if over := len(a.errs) - a.cfg.RecentErrors; over > 0 {
			a.errs = append(a.errs[:0:0], a.errs[over:]...)
		}
	}
	a.mu.Unlock()

	metrics.RecordTrackedOperation(op, d, s.Success, s.Slow)

	switch {
	case s.Slow:
		a.logger.Warn().
			Str("operation", op).
			Dur("duration", d).
			Bool("success", s.Success).
			Msg("slow operation detected")
	case err != nil && !errors.Is(err, context.Canceled):
		a.logger.Debug().Err(err).Str("operation", op).Dur("duration", d).Msg("operation failed")
	}
}

// percentileThreshold returns the configured percentile of samples' durations,
// or 0 while there are too few samples.
func (a *Aggregator) percentileThreshold(samples []Sample) time.Duration {
	if a.cfg.SlowPercentile <= 0 || len(samples) < a.cfg.PercentileMinSamples {
		return 0
	}
	ms := durationsMs(samples)
	sort.Float64s(ms)
	return time.Duration(stat.Quantile(a.cfg.SlowPercentile, stat.Empirical, ms, nil) * float64(time.Millisecond))
}

// pruneLocked drops samples older than the window. Samples are appended in
// time order.
func (a *Aggregator) pruneLocked(st *opState, now time.Time) {
	cutoff := now.Add(-a.cfg.Window)
	i := sort.Search(len(st.samples), func(i int) bool { return !st.samples[i].At.Before(cutoff) })
	if i > 0 {
		st.samples = append(st.samples[:0:0], st.samples[i:]...)
	}
}

// RecordAction counts a consumed user action.
func (a *Aggregator) RecordAction(t models.ActionType) {
	a.mu.Lock()
	a.actions[t]++
	a.mu.Unlock()
}

// ActionCounts returns the consumed user action counts.
func (a *Aggregator) ActionCounts() map[models.ActionType]int64 {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make(map[models.ActionType]int64, len(a.actions))
	for k, v := range a.actions {
		out[k] = v
	}
	return out
}

// window resolves a caller window: non-positive means the configured one, and
// nothing older than the configured window is retained anyway.
func (a *Aggregator) window(d time.Duration) time.Duration {
	if d <= 0 || d > a.cfg.Window {
		return a.cfg.Window
	}
	return d
}

// collect returns op's samples (all operations when op is empty) newer than
// the window.
func (a *Aggregator) collect(op string, window time.Duration) []Sample {
	if op == "" {
		return a.collectWhere(window, func(string) bool { return true })
	}
	return a.collectWhere(window, func(name string) bool { return name == op })
}

// collectWhere returns the samples newer than the window of every operation
// keep accepts.
func (a *Aggregator) collectWhere(window time.Duration, keep func(op string) bool) []Sample {
	cutoff := a.now().Add(-window)
	a.mu.RLock()
	defer a.mu.RUnlock()

	var out []Sample
	for name, st := range a.ops {
		if !keep(name) {
			continue
		}
		for i := range st.samples {
			if !st.samples[i].At.Before(cutoff) {
				out = append(out, st.samples[i])
			}
		}
	}
	return out
}

// PipelineStats aggregates every operation except the StagePrefix ones over
// the configured window. A stage runs inside an operation, so counting both
// would report one failure twice.
func (a *Aggregator) PipelineStats() OperationStats {
	window := a.window(0)
	return summarize("", window, a.collectWhere(window, func(op string) bool {
		return !strings.HasPrefix(op, StagePrefix)
	}))
}

// Stats returns op's statistics over the trailing window. An empty op
// aggregates every operation.
func (a *Aggregator) Stats(op string, window time.Duration) OperationStats {
	window = a.window(window)
	return summarize(op, window, a.collect(op, window))
}

// StatsHours is Stats with the window given in hours.
func (a *Aggregator) StatsHours(op string, windowHours float64) OperationStats {
	return a.Stats(op, time.Duration(windowHours*float64(time.Hour)))
}

// AllStats returns per-operation statistics sorted by descending count.
func (a *Aggregator) AllStats(window time.Duration) []OperationStats {
	a.mu.RLock()
	names := make([]string, 0, len(a.ops))
	for name := range a.ops {
		names = append(names, name)
	}
	a.mu.RUnlock()

	out := make([]OperationStats, 0, len(names))
	for _, name := range names {
		if s := a.Stats(name, window); s.Count > 0 {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Operation < out[j].Operation
	})
	return out
}

// Trend buckets op's samples by TrendBucket, oldest first. Empty buckets are
// included so the series is evenly spaced.
func (a *Aggregator) Trend(op string, window time.Duration) []TrendPoint {
	window = a.window(window)
	now := a.now()
	bucket := a.cfg.TrendBucket
	start := now.Add(-window).Truncate(bucket)
	n := int(now.Sub(start)/bucket) + 1

	type acc struct {
		count, ok int
		total     time.Duration
	}
	accs := make([]acc, n)
	for _, s := range a.collect(op, window) {
		i := int(s.At.Sub(start) / bucket)
		if i < 0 || i >= n {
			continue
		}
		accs[i].count++
		accs[i].total += s.Duration
		if s.Success {
			accs[i].ok++
		}
	}

	out := make([]TrendPoint, n)
	for i := range accs {
		out[i].Start = start.Add(time.Duration(i) * bucket)
		if c := accs[i].count; c > 0 {
			out[i].Count = c
			out[i].SuccessRate = float64(accs[i].ok) / float64(c)
			out[i].MeanMs = float64(accs[i].total) / float64(c) / float64(time.Millisecond)
		}
	}
	return out
}

// RecentErrors returns up to n recent failures, newest first.
func (a *Aggregator) RecentErrors(n int) []Sample {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if n <= 0 || n > len(a.errs) {
		n = len(a.errs)
	}
	out := make([]Sample, 0, n)
	for i := len(a.errs) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, a.errs[i])
	}
	return out
}

// Reset drops every sample and counter.
func (a *Aggregator) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.ops = make(map[string]*opState)
	a.errs = nil
	a.actions = make(map[models.ActionType]int64)
}

func summarize(op string, window time.Duration, samples []Sample) OperationStats {
	st := OperationStats{Operation: op, WindowHours: window.Hours(), Count: len(samples)}
	if len(samples) == 0 {
		return st
	}

	var lastErrAt time.Time
	for i := range samples {
		s := &samples[i]
		if !s.Success {
			st.Failures++
			if !s.At.Before(lastErrAt) {
				st.LastError, lastErrAt = s.Error, s.At
			}
		}
		if s.Slow {
			st.SlowCount++
		}
		if s.At.After(st.LastSeen) {
			st.LastSeen = s.At
		}
	}
	st.SuccessRate = float64(st.Count-st.Failures) / float64(st.Count)

	ms := durationsMs(samples)
	sort.Float64s(ms)
	st.MeanMs = stat.Mean(ms, nil)
	st.P50Ms = stat.Quantile(0.50, stat.Empirical, ms, nil)
	st.P95Ms = stat.Quantile(0.95, stat.Empirical, ms, nil)
	st.P99Ms = stat.Quantile(0.99, stat.Empirical, ms, nil)
	st.MaxMs = ms[len(ms)-1]
	return st
}

func durationsMs(samples []Sample) []float64 {
	ms := make([]float64, len(samples))
	for i := range samples {
		ms[i] = float64(samples[i].Duration) / float64(time.Millisecond)
	}
	return ms
}
