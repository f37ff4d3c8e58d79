// Playwise - Mood-Aware Game Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/playwise

package persona

import (
	"math"
	"sort"

	"github.com/tomtom215/playwise/internal/models"
	"github.com/tomtom215/playwise/internal/signal"
)

// Build derives a PersonaContext. Invalid items are ignored and non-finite
// profile values are treated as unseen. A nil profile counts as neutral.
func Build(items []signal.ContextualItem, profile *models.PersonaProfile, opts Options) PersonaContext {
	if opts.Validate() != nil {
		opts = DefaultOptions()
	}

	valid := make([]*signal.ContextualItem, 0, len(items))
	for i := range items {
		if items[i].Valid() {
			valid = append(valid, &items[i])
		}
	}

	if len(valid) == 0 && (profile == nil || profile.IsNeutral()) {
		return NeutralContext()
	}

	confidence := models.DefaultConfidence
	if profile != nil && finite(profile.Confidence) {
		confidence = clamp01(profile.Confidence)
	}

	stats := libraryStats(valid, profile)

	ctx := PersonaContext{
		Confidence: confidence,
		Stats:      stats,
	}
	ctx.MoodAffinity = moodAffinity(valid, profile, confidence)
	ctx.DominantMoods = dominantMoods(ctx.MoodAffinity, opts.TopMoods)
	ctx.PreferredSessionLength = sessionLength(stats, profile, opts)
	ctx.PreferredTimes = preferredTimes(stats, profile, opts)
	ctx.PlayPatterns = playPatterns(stats, opts)

	return ctx
}

func moodAffinity(items []*signal.ContextualItem, profile *models.PersonaProfile, confidence float64) map[signal.Mood]float64 {
	counts := make(map[signal.Mood]int)
	for _, item := range items {
		for _, m := range item.Moods {
			counts[m]++
		}
	}

	learned := make(map[signal.Mood]float64)
	if profile != nil {
		for m, w := range profile.MoodAffinity {
			if m.Valid() && finite(w) {
				learned[m] = clamp01(w)
			}
		}
	}

	out := make(map[signal.Mood]float64, len(counts)+len(learned))
	for _, m := range signal.AllMoods {
		count, inLibrary := counts[m]
		w, isLearned := learned[m]
		if !inLibrary && !isLearned {
			continue
		}
		if !isLearned {
			w = models.NeutralWeight
		}
		share := 0.0
		if len(items) > 0 {
			share = float64(count) / float64(len(items))
		}
		out[m] = confidence*w + (1-confidence)*share
	}
	return out
}

// dominantMoods ranks by affinity, ties broken by mood name.
func dominantMoods(affinity map[signal.Mood]float64, n int) []signal.Mood {
	moods := make([]signal.Mood, 0, len(affinity))
	for m, w := range affinity {
		if w > 0 {
			moods = append(moods, m)
		}
	}
	sort.Slice(moods, func(i, j int) bool {
		wi, wj := affinity[moods[i]], affinity[moods[j]]
		if wi != wj {
			return wi > wj
		}
		return moods[i] < moods[j]
	})
	if len(moods) > n {
		moods = moods[:n]
	}
	return moods
}

func libraryStats(items []*signal.ContextualItem, profile *models.PersonaProfile) LibraryStats {
	s := LibraryStats{Items: len(items)}

	var sessionSum float64
	var sessionCount, completed, multiplayer, timed, lateNight int
	for _, item := range items {
		if item.AverageSessionMinutes > 0 {
			sessionSum += item.AverageSessionMinutes
			sessionCount++
		}
		if item.Multiplayer {
			multiplayer++
		}
		if item.Played() {
			s.PlayedItems++
			if item.Completed {
				completed++
			}
		}
		if item.LastPlayedAt != nil {
			timed++
			if signal.TimeOfDayAt(*item.LastPlayedAt) == signal.LateNight {
				lateNight++
			}
		}
	}

	if sessionCount > 0 {
		s.MeanSessionMinutes = sessionSum / float64(sessionCount)
	}
	if s.PlayedItems > 0 {
		s.CompletionRate = float64(completed) / float64(s.PlayedItems)
	}
	if len(items) > 0 {
		s.MultiplayerRatio = float64(multiplayer) / float64(len(items))
	}

	switch {
	case timed > 0:
		s.LateNightRatio = float64(lateNight) / float64(timed)
	case profile != nil:
		s.LateNightRatio = hourlyLateNightRatio(profile.SessionPatterns.Hourly)
	}
	return s
}

func hourlyLateNightRatio(hourly [24]int) float64 {
	var total, late int
	for h, c := range hourly {
		if c <= 0 {
			continue
		}
		total += c
		if signal.TimeOfDayForHour(h) == signal.LateNight {
			late += c
		}
	}
	if total == 0 {
		return 0
	}
	return float64(late) / float64(total)
}

// sessionLength buckets the mean session: below ShortSessionBelow is short,
// above LongSessionAbove is long, the boundaries themselves are medium.
// Without session data the profile's most observed bucket is used.
func sessionLength(stats LibraryStats, profile *models.PersonaProfile, opts Options) signal.SessionLength {
	if stats.MeanSessionMinutes > 0 {
		return SessionLengthForMean(stats.MeanSessionMinutes, opts)
	}
	if profile != nil {
		best, bestCount := signal.SessionLength(""), 0
		for _, sl := range []signal.SessionLength{signal.SessionShort, signal.SessionMedium, signal.SessionLong} {
			if c := profile.SessionPatterns.Lengths[sl]; c > bestCount {
				best, bestCount = sl, c
			}
		}
		if best != "" {
			return best
		}
	}
	return signal.SessionMedium
}

// SessionLengthForMean applies the context-level session thresholds.
func SessionLengthForMean(minutes float64, opts Options) signal.SessionLength {
	switch {
	case minutes < opts.ShortSessionBelow:
		return signal.SessionShort
	case minutes > opts.LongSessionAbove:
		return signal.SessionLong
	default:
		return signal.SessionMedium
	}
}

func preferredTimes(stats LibraryStats, profile *models.PersonaProfile, opts Options) []signal.TimeOfDay {
	set := make(map[signal.TimeOfDay]bool)
	if stats.LateNightRatio > opts.NightOwlRatio {
		set[signal.LateNight] = true
	}
	if stats.MultiplayerRatio > opts.MultiplayerEveningRatio {
		set[signal.Evening] = true
	}
	if profile != nil {
		var total float64
		for _, t := range signal.AllTimesOfDay {
			if v := profile.TimeOfDayPreference[t]; finite(v) && v > 0 {
				total += v
			}
		}
		if total > 0 {
			for _, t := range signal.AllTimesOfDay {
				v := profile.TimeOfDayPreference[t]
				if finite(v) && v > 0 && v/total >= opts.TimePreferenceShare {
					set[t] = true
				}
			}
		}
	}

	out := make([]signal.TimeOfDay, 0, len(set))
	for _, t := range signal.AllTimesOfDay {
		if set[t] {
			out = append(out, t)
		}
	}
	if len(out) == 0 {
		out = append(out, signal.Evening)
	}
	return out
}

func playPatterns(stats LibraryStats, opts Options) []PlayPattern {
	out := []PlayPattern{}
	if stats.CompletionRate > opts.CompletionistRate {
		out = append(out, PatternCompletionist)
	}
	if stats.LateNightRatio > opts.NightOwlRatio {
		out = append(out, PatternNightOwl)
	}
	if stats.MultiplayerRatio > opts.SocialRatio {
		out = append(out, PatternSocial)
	}
	return out
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
