// Playwise - Mood-Aware Game Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/playwise

package recommend

import (
	"fmt"

	"github.com/tomtom215/playwise/internal/persona"
	"github.com/tomtom215/playwise/internal/signal"
)

// Match scores one item against the persona and explicit filters.
// personaWeight must already be resolved to [0,1]. The item must be Valid.
//
//nolint:gocritic // hugeParam: filters passed by value for immutability
func Match(item *signal.ContextualItem, pc *persona.PersonaContext, f Filters, w ScoreWeights, personaWeight float64) ContextualMatch {
	m := ContextualMatch{
		ItemID: item.ID,
		Title:  item.Title,
		Moods:  item.Moods,
		Genres: item.Genres,
		Tags:   item.Tags,
	}
	reasons := make([]string, 0, 8)

	// Base criteria.
	var matchedMood signal.Mood
	if len(f.Moods) == 0 {
		m.MoodMatch = true
	} else {
		for _, sel := range f.Moods {
			if item.HasMood(sel) {
				m.MoodMatch = true
				matchedMood = sel
				break
			}
		}
	}
	if m.MoodMatch {
		m.BaseScore += BaseCriterionPoints
		if matchedMood != "" {
			reasons = append(reasons, fmt.Sprintf("Matches your %s mood", matchedMood))
		}
	}

	m.SessionMatch = f.SessionLength == "" || item.SessionLength == f.SessionLength
	if m.SessionMatch {
		m.BaseScore += BaseCriterionPoints
		if f.SessionLength != "" {
			reasons = append(reasons, fmt.Sprintf("Fits a %s session", f.SessionLength))
		}
	}

	m.TimeMatch = f.TimeOfDay == "" || len(item.RecommendedTimes) == 0 || containsTime(item.RecommendedTimes, f.TimeOfDay)
	if m.TimeMatch {
		m.BaseScore += BaseCriterionPoints
		if f.TimeOfDay != "" && len(item.RecommendedTimes) > 0 {
			reasons = append(reasons, fmt.Sprintf("Great for the %s", f.TimeOfDay))
		}
	}

	// Persona contribution. A neutral context has learned nothing to pull with.
	if pc != nil && !pc.Neutral {
		var topMood signal.Mood
		var topAffinity float64
		for _, mood := range item.Moods {
			if !pc.IsDominant(mood) {
				continue
			}
			a := pc.MoodAffinity[mood]
			m.PersonaScore += a * w.Mood
			if topMood == "" || a > topAffinity {
				topMood, topAffinity = mood, a
			}
		}
		if topMood != "" {
			reasons = append(reasons, fmt.Sprintf("You often enjoy %s games", topMood))
		}

		if item.SessionLength == pc.PreferredSessionLength {
			m.PersonaScore += SessionPersonaPoints * w.SessionLength
			reasons = append(reasons, fmt.Sprintf("Matches your usual %s sessions", item.SessionLength))
		}

		if intersectsTimes(item.RecommendedTimes, pc.PreferredTimes) {
			m.PersonaScore += TimePersonaPoints * w.TimeOfDay
			reasons = append(reasons, "Fits when you usually play")
		}

		if pc.HasPattern(persona.PatternCompletionist) && item.Completed {
			m.PersonaScore += PatternPersonaPoints * w.PlayPattern
			reasons = append(reasons, "A finished favorite worth revisiting")
		}
		if pc.HasPattern(persona.PatternSocial) && item.Multiplayer {
			m.PersonaScore += PatternPersonaPoints * w.PlayPattern
			reasons = append(reasons, "Great to play with friends")
		}
	}

	m.Score = m.BaseScore + m.PersonaScore*personaWeight
	if m.Score < 0 {
		m.Score = 0
	}
	if len(reasons) > MaxReasons {
		reasons = reasons[:MaxReasons]
	}
	m.Reasons = reasons
	return m
}

// ResolvePersonaWeight returns the request weight clamped to [0,1], or def when unset.
func ResolvePersonaWeight(requested *float64, def float64) float64 {
	if requested == nil {
		return def
	}
	v := *requested
	switch {
	case v != v:
		return def
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}

func containsTime(ts []signal.TimeOfDay, t signal.TimeOfDay) bool {
	for _, v := range ts {
		if v == t {
			return true
		}
	}
	return false
}

func intersectsTimes(a, b []signal.TimeOfDay) bool {
	for _, t := range a {
		if containsTime(b, t) {
			return true
		}
	}
	return false
}
