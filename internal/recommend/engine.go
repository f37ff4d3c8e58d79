// Playwise - Mood-Aware Game Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/playwise

package recommend

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/tomtom215/playwise/internal/persona"
	"github.com/tomtom215/playwise/internal/signal"
)

// Engine ranks normalized items against a PersonaContext and explicit filters.
// It holds no learner state; everything user-specific arrives with the call.
// It is safe for concurrent use.
type Engine struct {
	config   *Config
	configMu sync.RWMutex
	logger   zerolog.Logger

	// Metrics
	requestCount atomic.Int64
	cacheHits    atomic.Int64
	cacheMisses  atomic.Int64
	errorCount   atomic.Int64
	skippedItems atomic.Int64
	itemsScored  atomic.Int64

	// Cache (TTL map keyed by user, filters, profile version and library fingerprint)
	cache   map[string]cacheEntry
	cacheMu sync.RWMutex

	now func() time.Time
}

// cacheEntry holds a cached recommendation response.
type cacheEntry struct {
	response  *Response
	expiresAt time.Time
}

// NewEngine creates a new scoring engine.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewEngine(cfg *Config, logger zerolog.Logger) (*Engine, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Engine{
		config: cfg.Clone(),
		logger: logger.With().Str("component", "recommend").Logger(),
		cache:  make(map[string]cacheEntry),
		now:    time.Now,
	}, nil
}

// Recommend ranks items for req. Malformed items are skipped and counted; a
// nil or empty persona context is scored as NeutralContext.
//
//nolint:gocritic // hugeParam: req passed by value for immutability
func (e *Engine) Recommend(ctx context.Context, req Request, items []signal.ContextualItem, pc *persona.PersonaContext) (*Response, error) {
	start := e.now()
	e.requestCount.Add(1)
	cfg := e.GetConfig()

	req = e.prepareRequest(req, cfg)
	if pc == nil {
		neutral := persona.NeutralContext()
		pc = &neutral
	}
	if len(items) > cfg.Limits.MaxCandidates {
		items = items[:cfg.Limits.MaxCandidates]
	}

	logger := e.logger.With().
		Str("request_id", req.RequestID).
		Str("user_id", req.UserID).
		Logger()

	key := ""
	if cfg.Cache.Enabled {
		key = cacheKey(req, items, pc)
		if resp := e.checkCache(key, start); resp != nil {
			e.cacheHits.Add(1)
			resp.Metadata.RequestID = req.RequestID
			resp.Metadata.CacheHit = true
			resp.Metadata.LatencyMS = e.now().Sub(start).Milliseconds()
			logger.Debug().Msg("cache hit")
			return resp, nil
		}
		e.cacheMisses.Add(1)
	}

	personaWeight := ResolvePersonaWeight(req.Filters.PersonaWeight, cfg.DefaultPersonaWeight)
	matches, skipped, err := e.scoreAll(ctx, items, pc, req.Filters, cfg, personaWeight)
	if err != nil {
		e.errorCount.Add(1)
		return nil, fmt.Errorf("score candidates: %w", err)
	}

	ranked := rank(matches, req.Limit)

	resp := &Response{
		Matches:         ranked,
		TotalCandidates: len(items),
		Skipped:         skipped,
		Metadata: ResponseMetadata{
			RequestID:      req.RequestID,
			UserID:         req.UserID,
			PersonaWeight:  personaWeight,
			NeutralContext: pc.Neutral,
			LatencyMS:      e.now().Sub(start).Milliseconds(),
			Timestamp:      start,
		},
	}

	if cfg.Cache.Enabled {
		e.storeCache(key, resp, start, cfg.Cache)
	}

	logger.Debug().
		Int("candidates", len(items)).
		Int("skipped", skipped).
		Int("returned", len(ranked)).
		Int64("latency_ms", resp.Metadata.LatencyMS).
		Msg("recommendation complete")

	return copyResponse(resp), nil
}

// prepareRequest applies defaults and generates a request ID if needed.
//
//nolint:gocritic // hugeParam: req passed by value for immutability
func (e *Engine) prepareRequest(req Request, cfg *Config) Request {
	if req.RequestID == "" {
		req.RequestID = uuid.NewString()
	}
	if req.Limit <= 0 {
		req.Limit = cfg.Limits.DefaultLimit
	}
	if req.Limit > cfg.Limits.MaxLimit {
		req.Limit = cfg.Limits.MaxLimit
	}
	return req
}

// scoreAll scores items in parallel chunks. Results keep input order.
//
//nolint:gocritic // hugeParam: filters passed by value for immutability
func (e *Engine) scoreAll(ctx context.Context, items []signal.ContextualItem, pc *persona.PersonaContext, f Filters, cfg *Config, personaWeight float64) ([]ContextualMatch, int, error) {
	results := make([]ContextualMatch, len(items))
	valid := make([]bool, len(items))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Limits.Parallelism)

	for lo := 0; lo < len(items); lo += cfg.Limits.ChunkSize {
		hi := min(lo+cfg.Limits.ChunkSize, len(items))
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			for i := lo; i < hi; i++ {
				if !items[i].Valid() {
					continue
				}
				results[i] = Match(&items[i], pc, f, cfg.Weights, personaWeight)
				valid[i] = true
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, 0, err
	}

	out := make([]ContextualMatch, 0, len(items))
	skipped := 0
	for i := range results {
		if !valid[i] {
			skipped++
			continue
		}
		out = append(out, results[i])
	}

	e.skippedItems.Add(int64(skipped))
	e.itemsScored.Add(int64(len(out)))
	if skipped > 0 {
		e.logger.Warn().Int("skipped", skipped).Msg("malformed items skipped")
	}
	return out, skipped, nil
}

// rank keeps matches with a positive score, orders them by descending score with
// ties in input order, and truncates to limit.
func rank(matches []ContextualMatch, limit int) []ContextualMatch {
	out := make([]ContextualMatch, 0, len(matches))
	for i := range matches {
		if matches[i].Score > 0 {
			out = append(out, matches[i])
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// GetMetrics returns the current engine metrics.
func (e *Engine) GetMetrics() Metrics {
	return Metrics{
		RequestCount: e.requestCount.Load(),
		CacheHits:    e.cacheHits.Load(),
		CacheMisses:  e.cacheMisses.Load(),
		ErrorCount:   e.errorCount.Load(),
		SkippedItems: e.skippedItems.Load(),
		ItemsScored:  e.itemsScored.Load(),
	}
}

// GetConfig returns a copy of the current configuration.
func (e *Engine) GetConfig() *Config {
	e.configMu.RLock()
	defer e.configMu.RUnlock()
	return e.config.Clone()
}

// UpdateConfig replaces the configuration and clears the cache.
func (e *Engine) UpdateConfig(cfg *Config) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	e.configMu.Lock()
	e.config = cfg.Clone()
	e.configMu.Unlock()

	e.ClearCache()
	e.logger.Info().Msg("configuration updated")
	return nil
}

// cacheKey hashes everything a response depends on.
//
//nolint:gocritic // hugeParam: req passed by value for simplicity
func cacheKey(req Request, items []signal.ContextualItem, pc *persona.PersonaContext) string {
	h := xxhash.New()
	w := func(parts ...string) {
		for _, p := range parts {
			_, _ = h.WriteString(p)
			_, _ = h.WriteString("\x1f")
		}
	}

	for _, m := range req.Filters.Moods {
		w(string(m))
	}
	w("|", string(req.Filters.SessionLength), string(req.Filters.TimeOfDay))
	if req.Filters.PersonaWeight != nil {
		w(strconv.FormatFloat(*req.Filters.PersonaWeight, 'g', -1, 64))
	}

	for i := range items {
		it := &items[i]
		w(it.ID, it.Title, string(it.SessionLength), strconv.FormatBool(it.Completed), strconv.FormatBool(it.Multiplayer))
		for _, m := range it.Moods {
			w(string(m))
		}
		for _, t := range it.RecommendedTimes {
			w(string(t))
		}
	}

	w("|", strconv.FormatBool(pc.Neutral), string(pc.PreferredSessionLength))
	for _, m := range pc.DominantMoods {
		w(string(m), strconv.FormatFloat(pc.MoodAffinity[m], 'g', -1, 64))
	}
	for _, t := range pc.PreferredTimes {
		w(string(t))
	}
	for _, p := range pc.PlayPatterns {
		w(string(p))
	}

	var b strings.Builder
	b.WriteString("rec:")
	b.WriteString(req.UserID)
	b.WriteString(":")
	b.WriteString(strconv.FormatInt(req.ProfileVersion, 10))
	b.WriteString(":")
	b.WriteString(strconv.Itoa(req.Limit))
	b.WriteString(":")
	b.WriteString(strconv.FormatUint(h.Sum64(), 16))
	return b.String()
}

// checkCache returns a copy of a live cached response.
func (e *Engine) checkCache(key string, now time.Time) *Response {
	e.cacheMu.RLock()
	defer e.cacheMu.RUnlock()

	entry, ok := e.cache[key]
	if !ok || now.After(entry.expiresAt) {
		return nil
	}
	return copyResponse(entry.response)
}

// storeCache stores a response, evicting expired entries when at capacity.
func (e *Engine) storeCache(key string, resp *Response, now time.Time, cfg CacheConfig) {
	e.cacheMu.Lock()
	defer e.cacheMu.Unlock()

	if len(e.cache) >= cfg.MaxEntries {
		e.evictExpiredLocked(now)
	}
	if len(e.cache) >= cfg.MaxEntries {
		return
	}

	e.cache[key] = cacheEntry{
		response:  copyResponse(resp),
		expiresAt: now.Add(cfg.TTL),
	}
}

// ClearCache removes all cached entries.
func (e *Engine) ClearCache() {
	e.cacheMu.Lock()
	defer e.cacheMu.Unlock()

	e.cache = make(map[string]cacheEntry)
	e.logger.Debug().Msg("cache cleared")
}

// evictExpiredLocked removes expired cache entries.
// Must be called with cacheMu held.
func (e *Engine) evictExpiredLocked(now time.Time) {
	for key, entry := range e.cache {
		if now.After(entry.expiresAt) {
			delete(e.cache, key)
		}
	}
}

func copyResponse(resp *Response) *Response {
	matches := make([]ContextualMatch, len(resp.Matches))
	for i := range resp.Matches {
		matches[i] = resp.Matches[i]
		matches[i].Reasons = append([]string(nil), resp.Matches[i].Reasons...)
	}
	out := *resp
	out.Matches = matches
	return &out
}
