// Playwise - Mood-Aware Game Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/playwise

package persona

import (
	"fmt"

	"github.com/tomtom215/playwise/internal/models"
	"github.com/tomtom215/playwise/internal/signal"
)

// PlayPattern is a categorical behavior label.
type PlayPattern string

const (
	PatternCompletionist PlayPattern = "completionist"
	PatternSocial        PlayPattern = "social"
	PatternNightOwl      PlayPattern = "night_owl"
)

// LibraryStats are the ratios the context was derived from.
type LibraryStats struct {
	Items              int     `json:"items"`
	PlayedItems        int     `json:"played_items"`
	MeanSessionMinutes float64 `json:"mean_session_minutes"`
	CompletionRate     float64 `json:"completion_rate"`
	MultiplayerRatio   float64 `json:"multiplayer_ratio"`
	LateNightRatio     float64 `json:"late_night_ratio"`
}

// PersonaContext is the read-only view of a user the scorer consumes.
type PersonaContext struct {
	MoodAffinity           map[signal.Mood]float64 `json:"mood_affinity"`
	DominantMoods          []signal.Mood           `json:"dominant_moods"`
	PreferredSessionLength signal.SessionLength    `json:"preferred_session_length"`
	PreferredTimes         []signal.TimeOfDay      `json:"preferred_times"`
	PlayPatterns           []PlayPattern           `json:"play_patterns"`
	Confidence             float64                 `json:"confidence"`
	Stats                  LibraryStats            `json:"stats"`
	Neutral                bool                    `json:"neutral"`
}

// NeutralContext is returned when there is nothing to learn from:
// no affinities, no dominant moods, medium sessions, evening play, no patterns,
// and the default confidence.
func NeutralContext() PersonaContext {
	return PersonaContext{
		MoodAffinity:           map[signal.Mood]float64{},
		DominantMoods:          []signal.Mood{},
		PreferredSessionLength: signal.SessionMedium,
		PreferredTimes:         []signal.TimeOfDay{signal.Evening},
		PlayPatterns:           []PlayPattern{},
		Confidence:             models.DefaultConfidence,
		Neutral:                true,
	}
}

// IsDominant reports whether m is among the dominant moods.
func (c *PersonaContext) IsDominant(m signal.Mood) bool {
	for _, d := range c.DominantMoods {
		if d == m {
			return true
		}
	}
	return false
}

// HasPattern reports whether p was detected.
func (c *PersonaContext) HasPattern(p PlayPattern) bool {
	for _, v := range c.PlayPatterns {
		if v == p {
			return true
		}
	}
	return false
}

// PrefersTime reports whether t is a preferred time.
func (c *PersonaContext) PrefersTime(t signal.TimeOfDay) bool {
	for _, v := range c.PreferredTimes {
		if v == t {
			return true
		}
	}
	return false
}

// Options tunes context building.
type Options struct {
	TopMoods                int     `koanf:"top_moods"`
	ShortSessionBelow       float64 `koanf:"short_session_below"`
	LongSessionAbove        float64 `koanf:"long_session_above"`
	CompletionistRate       float64 `koanf:"completionist_rate"`
	SocialRatio             float64 `koanf:"social_ratio"`
	NightOwlRatio           float64 `koanf:"night_owl_ratio"`
	TimePreferenceShare     float64 `koanf:"time_preference_share"`
	MultiplayerEveningRatio float64 `koanf:"multiplayer_evening_ratio"`
}

// DefaultOptions returns the documented thresholds.
func DefaultOptions() Options {
	return Options{
		TopMoods:                5,
		ShortSessionBelow:       45,
		LongSessionAbove:        90,
		CompletionistRate:       0.7,
		SocialRatio:             0.5,
		NightOwlRatio:           0.3,
		TimePreferenceShare:     0.3,
		MultiplayerEveningRatio: 0.5,
	}
}

// Validate checks the options.
func (o Options) Validate() error {
	if o.TopMoods < 1 {
		return fmt.Errorf("top_moods must be at least 1, got %d", o.TopMoods)
	}
	if o.ShortSessionBelow <= 0 || o.LongSessionAbove < o.ShortSessionBelow {
		return fmt.Errorf("session thresholds must satisfy 0 < short (%v) <= long (%v)",
			o.ShortSessionBelow, o.LongSessionAbove)
	}
	for name, v := range map[string]float64{
		"completionist_rate":        o.CompletionistRate,
		"social_ratio":              o.SocialRatio,
		"night_owl_ratio":           o.NightOwlRatio,
		"time_preference_share":     o.TimePreferenceShare,
		"multiplayer_evening_ratio": o.MultiplayerEveningRatio,
	} {
		if v < 0 || v > 1 {
			return fmt.Errorf("%s must be between 0 and 1, got %v", name, v)
		}
	}
	return nil
}
