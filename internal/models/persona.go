// Playwise - Mood-Aware Game Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/playwise

package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/playwise/internal/signal"
)

const (
	// NeutralWeight is the starting value of every learned weight.
	NeutralWeight = 0.5

	// DefaultConfidence is the confidence of a profile with no observations.
	DefaultConfidence = 0.1

	// DefaultAppliedEventWindow bounds the replay guard.
	DefaultAppliedEventWindow = 512
)

// SessionPatterns is the rhythm histogram of a user's mood selections and sessions.
type SessionPatterns struct {
	Hourly   [24]int                      `json:"hourly"`
	Weekly   [7]int                       `json:"weekly"`
	Triggers map[Trigger]int              `json:"triggers,omitempty"`
	Lengths  map[signal.SessionLength]int `json:"lengths,omitempty"`
}

// Observations counts how many signals each learned key has absorbed.
// The per-key count is the n of the incremental update for that key.
type Observations struct {
	Genres    map[signal.Genre]int     `json:"genres,omitempty"`
	Tags      map[string]int           `json:"tags,omitempty"`
	Platforms map[string]int           `json:"platforms,omitempty"`
	Hybrids   map[string]int           `json:"hybrids,omitempty"`
	Times     map[signal.TimeOfDay]int `json:"times,omitempty"`
}

// PersonaProfile is the durable learner state for one user.
//
// Invariants:
//   - Confidence is non-decreasing in SampleSize
//   - Version increases by one on every persisted update
//   - AppliedEvents holds the most recent event IDs, oldest first
type PersonaProfile struct {
	UserID              string                       `json:"user_id"`
	GenreWeights        map[signal.Genre]float64     `json:"genre_weights"`
	TagWeights          map[string]float64           `json:"tag_weights"`
	MoodAffinity        map[signal.Mood]float64      `json:"mood_affinity"`
	SessionPatterns     SessionPatterns              `json:"session_patterns"`
	HybridSuccess       map[string]float64           `json:"hybrid_success"`
	PlatformBias        map[string]float64           `json:"platform_bias"`
	TimeOfDayPreference map[signal.TimeOfDay]float64 `json:"time_of_day_preference"`
	Observations        Observations                 `json:"observations"`
	Confidence          float64                      `json:"confidence"`
	SampleSize          int                          `json:"sample_size"`
	Version             int64                        `json:"version"`
	AppliedEvents       []uuid.UUID                  `json:"applied_events,omitempty"`
	CreatedAt           time.Time                    `json:"created_at"`
	UpdatedAt           time.Time                    `json:"updated_at"`
}

// NewPersonaProfile returns the neutral default profile for userID.
// It has no learned weights, DefaultConfidence and Version 0 (never persisted).
func NewPersonaProfile(userID string, now time.Time) *PersonaProfile {
	p := &PersonaProfile{
		UserID:     userID,
		Confidence: DefaultConfidence,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	p.ensureMaps()
	return p
}

func (p *PersonaProfile) ensureMaps() {
	if p.GenreWeights == nil {
		p.GenreWeights = make(map[signal.Genre]float64)
	}
	if p.TagWeights == nil {
		p.TagWeights = make(map[string]float64)
	}
	if p.MoodAffinity == nil {
		p.MoodAffinity = make(map[signal.Mood]float64)
	}
	if p.HybridSuccess == nil {
		p.HybridSuccess = make(map[string]float64)
	}
	if p.PlatformBias == nil {
		p.PlatformBias = make(map[string]float64)
	}
	if p.TimeOfDayPreference == nil {
		p.TimeOfDayPreference = make(map[signal.TimeOfDay]float64)
	}
	if p.SessionPatterns.Triggers == nil {
		p.SessionPatterns.Triggers = make(map[Trigger]int)
	}
	if p.SessionPatterns.Lengths == nil {
		p.SessionPatterns.Lengths = make(map[signal.SessionLength]int)
	}
	o := &p.Observations
	if o.Genres == nil {
		o.Genres = make(map[signal.Genre]int)
	}
	if o.Tags == nil {
		o.Tags = make(map[string]int)
	}
	if o.Platforms == nil {
		o.Platforms = make(map[string]int)
	}
	if o.Hybrids == nil {
		o.Hybrids = make(map[string]int)
	}
	if o.Times == nil {
		o.Times = make(map[signal.TimeOfDay]int)
	}
}

// Normalize fills nil maps, typically after decoding a stored profile.
func (p *PersonaProfile) Normalize() {
	p.ensureMaps()
}

// Clone returns a deep copy.
func (p *PersonaProfile) Clone() *PersonaProfile {
	if p == nil {
		return nil
	}
	c := *p
	c.GenreWeights = cloneMap(p.GenreWeights)
	c.TagWeights = cloneMap(p.TagWeights)
	c.MoodAffinity = cloneMap(p.MoodAffinity)
	c.HybridSuccess = cloneMap(p.HybridSuccess)
	c.PlatformBias = cloneMap(p.PlatformBias)
	c.TimeOfDayPreference = cloneMap(p.TimeOfDayPreference)
	c.SessionPatterns.Triggers = cloneMap(p.SessionPatterns.Triggers)
	c.SessionPatterns.Lengths = cloneMap(p.SessionPatterns.Lengths)
	c.Observations = Observations{
		Genres:    cloneMap(p.Observations.Genres),
		Tags:      cloneMap(p.Observations.Tags),
		Platforms: cloneMap(p.Observations.Platforms),
		Hybrids:   cloneMap(p.Observations.Hybrids),
		Times:     cloneMap(p.Observations.Times),
	}
	if p.AppliedEvents != nil {
		c.AppliedEvents = append([]uuid.UUID(nil), p.AppliedEvents...)
	}
	c.ensureMaps()
	return &c
}

// HasApplied reports whether the event id is inside the replay window.
func (p *PersonaProfile) HasApplied(id uuid.UUID) bool {
	for _, v := range p.AppliedEvents {
		if v == id {
			return true
		}
	}
	return false
}

// MarkApplied records id, evicting the oldest entries beyond window.
func (p *PersonaProfile) MarkApplied(id uuid.UUID, window int) {
	if window <= 0 {
		window = DefaultAppliedEventWindow
	}
	p.AppliedEvents = append(p.AppliedEvents, id)
	if over := len(p.AppliedEvents) - window; over > 0 {
		p.AppliedEvents = append([]uuid.UUID(nil), p.AppliedEvents[over:]...)
	}
}

// Affinity returns the learned affinity for m, or NeutralWeight if unseen.
func (p *PersonaProfile) Affinity(m signal.Mood) float64 {
	if w, ok := p.MoodAffinity[m]; ok {
		return w
	}
	return NeutralWeight
}

// IsNeutral reports whether the profile has absorbed no observations.
func (p *PersonaProfile) IsNeutral() bool {
	return p.SampleSize == 0 && len(p.GenreWeights) == 0 && len(p.TagWeights) == 0
}

func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	if m == nil {
		return nil
	}
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
