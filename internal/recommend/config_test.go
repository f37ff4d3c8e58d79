// Playwise - Mood-Aware Game Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/playwise

package recommend

import (
	"testing"
	"time"
)

func TestDefaultConfig_Valid(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("DefaultConfig().Validate() = %v", err)
	}
	if cfg.DefaultPersonaWeight != 0.3 {
		t.Errorf("DefaultPersonaWeight = %v, want 0.3", cfg.DefaultPersonaWeight)
	}
	if cfg.Weights.Mood != 30 {
		t.Errorf("Weights.Mood = %v, want 30", cfg.Weights.Mood)
	}
}

func TestConfig_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"negative mood weight", func(c *Config) { c.Weights.Mood = -1 }, true},
		{"persona weight above one", func(c *Config) { c.DefaultPersonaWeight = 1.5 }, true},
		{"persona weight zero", func(c *Config) { c.DefaultPersonaWeight = 0 }, false},
		{"zero default limit", func(c *Config) { c.Limits.DefaultLimit = 0 }, true},
		{"max below default", func(c *Config) { c.Limits.MaxLimit = 5 }, true},
		{"max above fifty", func(c *Config) { c.Limits.MaxLimit = 51 }, true},
		{"zero parallelism", func(c *Config) { c.Limits.Parallelism = 0 }, true},
		{"zero chunk size", func(c *Config) { c.Limits.ChunkSize = 0 }, true},
		{"zero candidates", func(c *Config) { c.Limits.MaxCandidates = 0 }, true},
		{"zero ttl with cache", func(c *Config) { c.Cache.TTL = 0 }, true},
		{"zero ttl without cache", func(c *Config) { c.Cache.Enabled = false; c.Cache.TTL = 0 }, false},
		{"zero entries with cache", func(c *Config) { c.Cache.MaxEntries = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_Clone(t *testing.T) {
	t.Parallel()

	orig := DefaultConfig()
	clone := orig.Clone()
	clone.Weights.Mood = 1
	clone.Cache.TTL = time.Hour

	if orig.Weights.Mood != 30 || orig.Cache.TTL != 2*time.Minute {
		t.Error("modifying the clone changed the original")
	}
}
