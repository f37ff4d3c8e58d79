// Playwise - Mood-Aware Game Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/playwise

package learning

import (
	"math"
	"sort"
	"time"

	"github.com/tomtom215/playwise/internal/models"
	"github.com/tomtom215/playwise/internal/signal"
)

// step moves w toward s. n is the effective sample count.
func step(w, s, n, rate float64) float64 {
	return clamp01(w + rate*(s-w)/(n+1))
}

// updateKey applies one observation to a keyed weight map and, when count is
// true, bumps the key's observation count.
func updateKey[K comparable](weights map[K]float64, counts map[K]int, key K, s, prior, rate float64, count bool) {
	w, ok := weights[key]
	if !ok {
		w = models.NeutralWeight
	}
	weights[key] = step(w, s, float64(counts[key])+prior, rate)
	if count {
		counts[key]++
	}
}

// applySelection folds a mood selection into p.
func applySelection(p *models.PersonaProfile, sel *models.MoodSelection, cfg *Config) {
	n := float64(p.SampleSize) + cfg.PriorStrength
	intensity := clamp01(sel.Intensity)

	primary := 0.5 + cfg.PrimaryScale*intensity
	p.MoodAffinity[sel.PrimaryMood] = step(p.Affinity(sel.PrimaryMood), primary, n, 1)

	if sel.SecondaryMood != "" && sel.SecondaryMood != sel.PrimaryMood {
		secondary := 0.5 + cfg.SecondaryScale*intensity
		p.MoodAffinity[sel.SecondaryMood] = step(p.Affinity(sel.SecondaryMood), secondary, n, 1)
	}

	p.SampleSize++
	p.Confidence = math.Max(p.Confidence, cfg.Confidence(p.SampleSize))

	tod := sel.Context.TimeOfDay
	if !tod.Valid() {
		tod = signal.TimeOfDayAt(sel.CreatedAt)
	}
	p.Observations.Times[tod]++
	recomputeTimePreference(p)

	p.SessionPatterns.Hourly[sel.CreatedAt.Hour()]++
	p.SessionPatterns.Weekly[weekday(sel)]++
	if sel.Context.Trigger != "" {
		p.SessionPatterns.Triggers[sel.Context.Trigger]++
	}
}

// weekday is the selection's day of week, or the day it was created when the
// stored value is out of range.
func weekday(sel *models.MoodSelection) time.Weekday {
	if d := sel.Context.DayOfWeek; d >= time.Sunday && d <= time.Saturday {
		return d
	}
	return sel.CreatedAt.Weekday()
}

// actionSignal returns the observed signal of an item action and whether the
// action carries one.
func actionSignal(a *models.UserAction) (float64, bool) {
	switch a.Type {
	case models.ActionLaunch, models.ActionSessionComplete:
		return 1, true
	case models.ActionIgnore:
		return 0, true
	case models.ActionRate:
		return clamp01(a.Metadata.Rating / 5), true
	default:
		return 0, false
	}
}

// applyAction folds a user action into p. item is the looked-up library item,
// nil when unknown.
func applyAction(p *models.PersonaProfile, a *models.UserAction, item *signal.ContextualItem, cfg *Config) {
	if a.Type == models.ActionSwitchMood {
		if a.Metadata.NewMood.Valid() {
			n := float64(p.SampleSize) + cfg.PriorStrength
			p.MoodAffinity[a.Metadata.NewMood] = step(p.Affinity(a.Metadata.NewMood), cfg.SwitchMoodSignal, n, 1)
		}
		return
	}

	s, ok := actionSignal(a)
	if !ok {
		return
	}

	platform := a.Metadata.Platform
	if item != nil {
		applyItemSignal(p, item.Genres, item.Tags, s, cfg.PriorStrength, 1, true)
		if platform == "" {
			platform = item.Platform
		}
	}
	if platform != "" {
		updateKey(p.PlatformBias, p.Observations.Platforms, platform, s, cfg.PriorStrength, 1, true)
	}

	if a.Type == models.ActionLaunch {
		p.SessionPatterns.Hourly[a.CreatedAt.Hour()]++
		p.SessionPatterns.Weekly[a.CreatedAt.Weekday()]++
	}
	if a.Type == models.ActionSessionComplete && a.Metadata.SessionMinutes > 0 {
		p.SessionPatterns.Lengths[signal.SessionLengthForMinutes(a.Metadata.SessionMinutes)]++
	}
}

// applyOutcome feeds a recommendation outcome back as a weak signal: the chosen
// candidate earns 1, candidates ranked above it earn 0. Without a choice the
// top OutcomeSkipTop candidates earn 0. Outcome signals do not bump
// observation counts.
func applyOutcome(p *models.PersonaProfile, ev *models.RecommendationEvent, cfg *Config) {
	chosen := ev.ChosenRank()
	skipped := chosen
	if chosen < 0 {
		skipped = min(cfg.OutcomeSkipTop, len(ev.Candidates))
	}

	for i := 0; i < skipped; i++ {
		c := &ev.Candidates[i]
		applyItemSignal(p, c.Genres, c.Tags, 0, cfg.PriorStrength, cfg.OutcomeRate, false)
	}
	if chosen >= 0 {
		c := &ev.Candidates[chosen]
		applyItemSignal(p, c.Genres, c.Tags, 1, cfg.PriorStrength, cfg.OutcomeRate, false)
	}
}

func applyItemSignal(p *models.PersonaProfile, genres []signal.Genre, tags []string, s, prior, rate float64, count bool) {
	for _, g := range genres {
		updateKey(p.GenreWeights, p.Observations.Genres, g, s, prior, rate, count)
	}
	for _, t := range tags {
		updateKey(p.TagWeights, p.Observations.Tags, t, s, prior, rate, count)
	}
	for _, h := range hybridKeys(genres) {
		updateKey(p.HybridSuccess, p.Observations.Hybrids, h, s, prior, rate, count)
	}
}

// hybridKeys returns "a+b" for every unordered pair of distinct genres, with
// a < b.
func hybridKeys(genres []signal.Genre) []string {
	if len(genres) < 2 {
		return nil
	}
	gs := append([]signal.Genre(nil), genres...)
	signal.SortGenres(gs)
	var keys []string
	for i := 0; i < len(gs); i++ {
		for j := i + 1; j < len(gs); j++ {
			if gs[i] == gs[j] {
				continue
			}
			keys = append(keys, string(gs[i])+"+"+string(gs[j]))
		}
	}
	sort.Strings(keys)
	return keys
}

// recomputeTimePreference sets each bucket's share of observed selections.
func recomputeTimePreference(p *models.PersonaProfile) {
	total := 0
	for _, c := range p.Observations.Times {
		total += c
	}
	if total == 0 {
		return
	}
	for t, c := range p.Observations.Times {
		p.TimeOfDayPreference[t] = float64(c) / float64(total)
	}
}

func clamp01(v float64) float64 {
	switch {
	case math.IsNaN(v):
		return models.NeutralWeight
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
