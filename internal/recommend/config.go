// Playwise - Mood-Aware Game Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/playwise

package recommend

import (
	"fmt"
	"time"
)

// Fixed point values of the scoring rules. The configurable weights scale the
// persona terms; the base criteria are always worth BaseCriterionPoints each.
const (
	BaseCriterionPoints  = 25.0
	SessionPersonaPoints = 25.0
	TimePersonaPoints    = 20.0
	PatternPersonaPoints = 15.0

	// MaxReasons caps the human-readable justifications per match.
	MaxReasons = 4
)

// Config contains all configuration for the contextual scorer.
type Config struct {
	// Weights scale the persona contribution terms.
	Weights ScoreWeights `koanf:"weights"`

	// DefaultPersonaWeight is used when a request does not set one.
	// Default: 0.3.
	DefaultPersonaWeight float64 `koanf:"default_persona_weight"`

	// Limits contains operational limits.
	Limits LimitsConfig `koanf:"limits"`

	// Cache contains response caching parameters.
	Cache CacheConfig `koanf:"cache"`
}

// ScoreWeights are the tunable multipliers of the persona terms.
type ScoreWeights struct {
	// Mood multiplies a dominant mood's affinity (0-1).
	// Default: 30.
	Mood float64 `koanf:"mood"`

	// SessionLength multiplies the 25 point session preference bonus.
	// Default: 1.
	SessionLength float64 `koanf:"session_length"`

	// TimeOfDay multiplies the 20 point time preference bonus.
	// Default: 1.
	TimeOfDay float64 `koanf:"time_of_day"`

	// PlayPattern multiplies the 15 point bonus per matching pattern rule.
	// Default: 1.
	PlayPattern float64 `koanf:"play_pattern"`
}

// LimitsConfig contains operational limits.
type LimitsConfig struct {
	// DefaultLimit is the number of matches returned when the request sets none.
	// Default: 10.
	DefaultLimit int `koanf:"default_limit"`

	// MaxLimit is the largest allowed limit.
	// Default: 50.
	MaxLimit int `koanf:"max_limit"`

	// MaxCandidates caps how many library items one request scores.
	// Default: 5000.
	MaxCandidates int `koanf:"max_candidates"`

	// Parallelism is the number of scoring goroutines per request.
	// Default: 4.
	Parallelism int `koanf:"parallelism"`

	// ChunkSize is the number of items each scoring goroutine handles at a time.
	// Default: 64.
	ChunkSize int `koanf:"chunk_size"`
}

// CacheConfig contains response caching parameters.
type CacheConfig struct {
	// Enabled controls whether responses are cached.
	// Default: true.
	Enabled bool `koanf:"enabled"`

	// TTL is the cache entry time-to-live.
	// Default: 2m.
	TTL time.Duration `koanf:"ttl"`

	// MaxEntries is the maximum number of cached responses.
	// Default: 10000.
	MaxEntries int `koanf:"max_entries"`
}

// DefaultConfig returns a Config with production defaults.
func DefaultConfig() *Config {
	return &Config{
		Weights: ScoreWeights{
			Mood:          30,
			SessionLength: 1,
			TimeOfDay:     1,
			PlayPattern:   1,
		},
		DefaultPersonaWeight: 0.3,
		Limits: LimitsConfig{
			DefaultLimit:  10,
			MaxLimit:      50,
			MaxCandidates: 5000,
			Parallelism:   4,
			ChunkSize:     64,
		},
		Cache: CacheConfig{
			Enabled:    true,
			TTL:        2 * time.Minute,
			MaxEntries: 10000,
		},
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Weights.Mood < 0 || c.Weights.SessionLength < 0 || c.Weights.TimeOfDay < 0 || c.Weights.PlayPattern < 0 {
		return fmt.Errorf("weights must be non-negative, got %+v", c.Weights)
	}
	if c.DefaultPersonaWeight < 0 || c.DefaultPersonaWeight > 1 {
		return fmt.Errorf("default_persona_weight must be in [0, 1], got %f", c.DefaultPersonaWeight)
	}
	if c.Limits.DefaultLimit < 1 {
		return fmt.Errorf("limits.default_limit must be positive, got %d", c.Limits.DefaultLimit)
	}
	if c.Limits.MaxLimit < c.Limits.DefaultLimit {
		return fmt.Errorf("limits.max_limit must be >= limits.default_limit, got %d < %d", c.Limits.MaxLimit, c.Limits.DefaultLimit)
	}
	if c.Limits.MaxLimit > 50 {
		return fmt.Errorf("limits.max_limit must be at most 50, got %d", c.Limits.MaxLimit)
	}
	if c.Limits.MaxCandidates < 1 {
		return fmt.Errorf("limits.max_candidates must be positive, got %d", c.Limits.MaxCandidates)
	}
	if c.Limits.Parallelism < 1 {
		return fmt.Errorf("limits.parallelism must be positive, got %d", c.Limits.Parallelism)
	}
	if c.Limits.ChunkSize < 1 {
		return fmt.Errorf("limits.chunk_size must be positive, got %d", c.Limits.ChunkSize)
	}
	if c.Cache.Enabled && c.Cache.TTL <= 0 {
		return fmt.Errorf("cache.ttl must be positive when caching is enabled, got %v", c.Cache.TTL)
	}
	if c.Cache.Enabled && c.Cache.MaxEntries < 1 {
		return fmt.Errorf("cache.max_entries must be positive when caching is enabled, got %d", c.Cache.MaxEntries)
	}
	return nil
}

// Clone returns a copy of the configuration.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}
