// Playwise - Mood-Aware Game Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/playwise

package learning

import (
	"fmt"
	"math"
	"time"

	"github.com/tomtom215/playwise/internal/models"
)

// Config holds the tunable learning constants.
type Config struct {
	// PriorStrength is added to the sample count in the update denominator.
	// 0 reproduces the plain running mean. Default: 1.
	PriorStrength float64 `koanf:"prior_strength" validate:"gte=0"`

	// ConfidenceHalfLife is the k of the confidence curve: confidence is halfway
	// between the floor and 1 after k samples. Default: 10.
	ConfidenceHalfLife float64 `koanf:"confidence_half_life" validate:"gt=0"`

	// ConfidenceFloor is the confidence of an empty profile. Default: 0.1.
	ConfidenceFloor float64 `koanf:"confidence_floor" validate:"gte=0,lt=1"`

	// PrimaryScale and SecondaryScale map intensity to the observed mood signal:
	// s = 0.5 + scale * intensity. Defaults: 0.5 and 0.25.
	PrimaryScale   float64 `koanf:"primary_scale" validate:"gte=0,lte=0.5"`
	SecondaryScale float64 `koanf:"secondary_scale" validate:"gte=0,lte=0.5"`

	// SwitchMoodSignal is the observed signal for the target of a switch_mood
	// action. Default: 0.75.
	SwitchMoodSignal float64 `koanf:"switch_mood_signal" validate:"gte=0,lte=1"`

	// OutcomeRate scales recommendation outcome updates. Default: 0.25.
	OutcomeRate float64 `koanf:"outcome_rate" validate:"gt=0,lt=1"`

	// OutcomeSkipTop is how many top candidates count as skipped when nothing
	// was chosen. Default: 3.
	OutcomeSkipTop int `koanf:"outcome_skip_top" validate:"gte=0"`

	// AppliedEventWindow bounds the replay guard. Default: 512.
	AppliedEventWindow int `koanf:"applied_event_window" validate:"gte=1"`

	// MaxRetries is the number of retries after a lost version race. Default: 3.
	MaxRetries int `koanf:"max_retries" validate:"gte=0"`

	// LockStripes is the number of per-user mutex stripes. Default: 64.
	LockStripes int `koanf:"lock_stripes" validate:"gte=1"`

	// TrendLength is the number of points in LearningMetrics.ConfidenceTrend. Default: 20.
	TrendLength int `koanf:"trend_length" validate:"gte=1"`

	// PredictionLookback limits the selections PredictMood considers. Default: 30 days.
	PredictionLookback time.Duration `koanf:"prediction_lookback" validate:"gt=0"`
}

// DefaultConfig returns the default learning constants.
func DefaultConfig() Config {
	return Config{
		PriorStrength:      1,
		ConfidenceHalfLife: 10,
		ConfidenceFloor:    models.DefaultConfidence,
		PrimaryScale:       0.5,
		SecondaryScale:     0.25,
		SwitchMoodSignal:   0.75,
		OutcomeRate:        0.25,
		OutcomeSkipTop:     3,
		AppliedEventWindow: models.DefaultAppliedEventWindow,
		MaxRetries:         3,
		LockStripes:        64,
		TrendLength:        20,
		PredictionLookback: 30 * 24 * time.Hour,
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.PriorStrength < 0 || math.IsNaN(c.PriorStrength) {
		return fmt.Errorf("prior_strength must be non-negative, got %v", c.PriorStrength)
	}
	if c.ConfidenceHalfLife <= 0 {
		return fmt.Errorf("confidence_half_life must be positive, got %v", c.ConfidenceHalfLife)
	}
	if c.ConfidenceFloor < 0 || c.ConfidenceFloor >= 1 {
		return fmt.Errorf("confidence_floor must be in [0, 1), got %v", c.ConfidenceFloor)
	}
	if c.PrimaryScale < 0 || c.PrimaryScale > 0.5 || c.SecondaryScale < 0 || c.SecondaryScale > 0.5 {
		return fmt.Errorf("signal scales must be in [0, 0.5], got %v and %v", c.PrimaryScale, c.SecondaryScale)
	}
	if c.SwitchMoodSignal < 0 || c.SwitchMoodSignal > 1 {
		return fmt.Errorf("switch_mood_signal must be in [0, 1], got %v", c.SwitchMoodSignal)
	}
	if c.OutcomeRate <= 0 || c.OutcomeRate >= 1 {
		return fmt.Errorf("outcome_rate must be in (0, 1), got %v", c.OutcomeRate)
	}
	if c.OutcomeSkipTop < 0 {
		return fmt.Errorf("outcome_skip_top must be non-negative, got %d", c.OutcomeSkipTop)
	}
	if c.AppliedEventWindow < 1 {
		return fmt.Errorf("applied_event_window must be positive, got %d", c.AppliedEventWindow)
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("max_retries must be non-negative, got %d", c.MaxRetries)
	}
	if c.LockStripes < 1 {
		return fmt.Errorf("lock_stripes must be positive, got %d", c.LockStripes)
	}
	if c.TrendLength < 1 {
		return fmt.Errorf("trend_length must be positive, got %d", c.TrendLength)
	}
	if c.PredictionLookback <= 0 {
		return fmt.Errorf("prediction_lookback must be positive, got %v", c.PredictionLookback)
	}
	return nil
}

// Confidence returns the confidence of a profile with sampleSize observations.
func (c *Config) Confidence(sampleSize int) float64 {
	if sampleSize <= 0 {
		return c.ConfidenceFloor
	}
	n := float64(sampleSize)
	return c.ConfidenceFloor + (1-c.ConfidenceFloor)*(1-1/(1+n/c.ConfidenceHalfLife))
}
