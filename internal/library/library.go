// Playwise - Mood-Aware Game Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/playwise

package library

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/tomtom215/playwise/internal/metrics"
	"github.com/tomtom215/playwise/internal/signal"
)

// Provider returns the normalized candidates available to a user.
type Provider interface {
	Items(ctx context.Context, userID string) ([]signal.ContextualItem, error)
	LookupItem(ctx context.Context, userID, itemID string) (signal.ContextualItem, bool)
}

// Config locates the library file.
type Config struct {
	// Path to a JSON or YAML library file. Empty starts with an empty catalog.
	Path string `koanf:"path"`
}

type catalog struct {
	items []signal.ContextualItem
	byID  map[string]int
}

func newCatalog(items []signal.ContextualItem) catalog {
	c := catalog{items: items, byID: make(map[string]int, len(items))}
	for i := range items {
		// first occurrence wins
		if _, ok := c.byID[items[i].ID]; !ok {
			c.byID[items[i].ID] = i
		}
	}
	return c
}

// Memory is an in-process Provider. A user with a personal library sees only
// that library; everyone else sees the shared catalog.
// It is safe for concurrent use.
type Memory struct {
	normalizer *signal.Normalizer
	logger     zerolog.Logger

	mu     sync.RWMutex
	shared catalog
	users  map[string]catalog
}

// NewMemory returns an empty provider normalizing with n.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewMemory(n *signal.Normalizer, logger zerolog.Logger) *Memory {
	if n == nil {
		n = signal.NewNormalizer(signal.DefaultOptions())
	}
	return &Memory{
		normalizer: n,
		logger:     logger.With().Str("component", "library").Logger(),
		shared:     newCatalog(nil),
		users:      make(map[string]catalog),
	}
}

// SetShared replaces the shared catalog.
func (m *Memory) SetShared(raw []signal.RawItem) signal.Report {
	items, report := m.normalize(raw)
	m.mu.Lock()
	m.shared = newCatalog(items)
	m.mu.Unlock()
	return report
}

// SetUser replaces userID's personal library. An empty raw slice removes it.
func (m *Memory) SetUser(userID string, raw []signal.RawItem) signal.Report {
	if len(raw) == 0 {
		m.mu.Lock()
		delete(m.users, userID)
		m.mu.Unlock()
		return signal.Report{}
	}
	items, report := m.normalize(raw)
	m.mu.Lock()
	m.users[userID] = newCatalog(items)
	m.mu.Unlock()
	return report
}

func (m *Memory) normalize(raw []signal.RawItem) ([]signal.ContextualItem, signal.Report) {
	items, report := m.normalizer.Normalize(raw)
	metrics.RecordNormalization(report.Normalized, report.Skipped)
	if report.Skipped > 0 {
		m.logger.Warn().
			Int("skipped", report.Skipped).
			Interface("reasons", report.SkipReasons).
			Msg("malformed library items skipped")
	}
	return items, report
}

func (m *Memory) catalogFor(userID string) catalog {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if c, ok := m.users[userID]; ok {
		return c
	}
	return m.shared
}

// Items returns a copy of the user's candidates.
func (m *Memory) Items(ctx context.Context, userID string) ([]signal.ContextualItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c := m.catalogFor(userID)
	out := make([]signal.ContextualItem, len(c.items))
	copy(out, c.items)
	return out, nil
}

// LookupItem finds itemID in the user's candidates.
func (m *Memory) LookupItem(_ context.Context, userID, itemID string) (signal.ContextualItem, bool) {
	c := m.catalogFor(userID)
	i, ok := c.byID[itemID]
	if !ok {
		return signal.ContextualItem{}, false
	}
	return c.items[i], true
}

// Len returns the size of the shared catalog and the number of personal libraries.
func (m *Memory) Len() (shared, users int) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.shared.items), len(m.users)
}
