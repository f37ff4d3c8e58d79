// Playwise - Mood-Aware Game Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/playwise

package observability

import (
	"fmt"
	"time"
)

// Config controls retention, slow detection and health thresholds.
type Config struct {
	// Window is the trailing period statistics are computed over. Default: 24h.
	Window time.Duration `koanf:"window" validate:"gt=0"`

	// MaxSamplesPerOperation caps retained samples per operation. Default: 10000.
	MaxSamplesPerOperation int `koanf:"max_samples_per_operation" validate:"min=1"`

	// SlowThreshold marks any sample above it as slow. Default: 1s.
	SlowThreshold time.Duration `koanf:"slow_threshold" validate:"gt=0"`

	// SlowPercentile additionally marks samples above this percentile of their
	// operation as slow. 0 disables it. Default: 0.99.
	SlowPercentile float64 `koanf:"slow_percentile" validate:"gte=0,lt=1"`

	// PercentileMinSamples is the sample count below which only the fixed
	// threshold applies. Default: 50.
	PercentileMinSamples int `koanf:"percentile_min_samples" validate:"min=1"`

	// TrendBucket is the width of one trend point. Default: 1h.
	TrendBucket time.Duration `koanf:"trend_bucket" validate:"gt=0"`

	// RecentErrors is the number of failures kept for inspection. Default: 100.
	RecentErrors int `koanf:"recent_errors" validate:"min=0"`

	// PingTimeout bounds the store check of a snapshot. Default: 2s.
	PingTimeout time.Duration `koanf:"ping_timeout" validate:"gt=0"`

	// SnapshotInterval is how often the health monitor captures a snapshot.
	// Default: 5m.
	SnapshotInterval time.Duration `koanf:"snapshot_interval" validate:"gt=0"`

	Health HealthThresholds `koanf:"health"`
}

// HealthThresholds map window statistics to a status.
type HealthThresholds struct {
	// MinOperations is the sample count below which rates are not judged. Default: 10.
	MinOperations int `koanf:"min_operations" validate:"min=0"`

	// DegradedSuccessRate and UnhealthySuccessRate. Defaults: 0.95 and 0.5.
	DegradedSuccessRate  float64 `koanf:"degraded_success_rate" validate:"gte=0,lte=1"`
	UnhealthySuccessRate float64 `koanf:"unhealthy_success_rate" validate:"gte=0,lte=1"`

	// DegradedLatency and UnhealthyLatency apply to the mean. Defaults: 500ms and 5s.
	DegradedLatency  time.Duration `koanf:"degraded_latency" validate:"gt=0"`
	UnhealthyLatency time.Duration `koanf:"unhealthy_latency" validate:"gt=0"`

	// SlowFraction is the share of slow samples that degrades health. Default: 0.1.
	SlowFraction float64 `koanf:"slow_fraction" validate:"gte=0,lte=1"`
}

// DefaultConfig returns production defaults.
func DefaultConfig() Config {
	return Config{
		Window:                 24 * time.Hour,
		MaxSamplesPerOperation: 10000,
		SlowThreshold:          time.Second,
		SlowPercentile:         0.99,
		PercentileMinSamples:   50,
		TrendBucket:            time.Hour,
		RecentErrors:           100,
		PingTimeout:            2 * time.Second,
		SnapshotInterval:       5 * time.Minute,
		Health: HealthThresholds{
			MinOperations:        10,
			DegradedSuccessRate:  0.95,
			UnhealthySuccessRate: 0.5,
			DegradedLatency:      500 * time.Millisecond,
			UnhealthyLatency:     5 * time.Second,
			SlowFraction:         0.1,
		},
	}
}

// Validate checks the cross-field constraints the struct tags cannot express.
func (c *Config) Validate() error {
	if c.Window <= 0 || c.TrendBucket <= 0 || c.SlowThreshold <= 0 || c.PingTimeout <= 0 {
		return fmt.Errorf("window, trend_bucket, slow_threshold and ping_timeout must be positive")
	}
	if c.MaxSamplesPerOperation < 1 {
		return fmt.Errorf("max_samples_per_operation must be positive, got %d", c.MaxSamplesPerOperation)
	}
	if c.SlowPercentile < 0 || c.SlowPercentile >= 1 {
		return fmt.Errorf("slow_percentile must be in [0, 1), got %v", c.SlowPercentile)
	}
	h := c.Health
	if h.UnhealthySuccessRate > h.DegradedSuccessRate {
		return fmt.Errorf("health.unhealthy_success_rate %v exceeds degraded_success_rate %v", h.UnhealthySuccessRate, h.DegradedSuccessRate)
	}
	if h.UnhealthyLatency < h.DegradedLatency {
		return fmt.Errorf("health.unhealthy_latency %v is below degraded_latency %v", h.UnhealthyLatency, h.DegradedLatency)
	}
	return nil
}
