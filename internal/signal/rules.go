// Playwise - Mood-Aware Game Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/playwise

package signal

// TimeRule infers recommended times of day for an untagged item.
type TimeRule struct {
	Name     string
	Strength float64
	Times    []TimeOfDay
	Applies  func(*ContextualItem) bool
}

// MoodRule infers a mood for an item that carries no mood tags.
type MoodRule struct {
	Name     string
	Strength float64
	Mood     Mood
	Genres   []Genre
	// Multiplayer matches items tagged multiplayer/co-op regardless of genre.
	Multiplayer bool
}

func (r MoodRule) applies(item *ContextualItem) bool {
	if r.Multiplayer && item.Multiplayer {
		return true
	}
	for _, g := range r.Genres {
		if item.HasGenre(g) {
			return true
		}
	}
	return false
}

func anyMood(ms ...Mood) func(*ContextualItem) bool {
	return func(item *ContextualItem) bool {
		for _, m := range ms {
			if item.HasMood(m) {
				return true
			}
		}
		return false
	}
}

func anyGenre(gs ...Genre) func(*ContextualItem) bool {
	return func(item *ContextualItem) bool {
		for _, g := range gs {
			if item.HasGenre(g) {
				return true
			}
		}
		return false
	}
}

func sessionIs(sl SessionLength) func(*ContextualItem) bool {
	return func(item *ContextualItem) bool { return item.SessionLength == sl }
}

// DefaultTimeRules returns the built-in time heuristics, strongest first.
func DefaultTimeRules() []TimeRule {
	return []TimeRule{
		{Name: "calm_moods_wind_down", Strength: 0.9, Times: []TimeOfDay{Evening, LateNight}, Applies: anyMood(MoodZen, MoodCozy)},
		{Name: "horror_after_dark", Strength: 0.9, Times: []TimeOfDay{LateNight}, Applies: anyGenre(GenreHorror)},
		{Name: "high_energy_daytime", Strength: 0.8, Times: []TimeOfDay{Afternoon, Evening}, Applies: anyMood(MoodEnergetic, MoodCompetitive)},
		{Name: "multiplayer_prime_time", Strength: 0.75, Times: []TimeOfDay{Evening}, Applies: func(i *ContextualItem) bool { return i.Multiplayer }},
		{Name: "focus_early", Strength: 0.7, Times: []TimeOfDay{Morning, Afternoon}, Applies: anyMood(MoodFocused)},
		{Name: "light_morning", Strength: 0.6, Times: []TimeOfDay{Morning}, Applies: anyGenre(GenrePuzzle, GenreCasual)},
		{Name: "long_sessions_evening", Strength: 0.5, Times: []TimeOfDay{Evening}, Applies: sessionIs(SessionLong)},
		{Name: "melancholy_late", Strength: 0.45, Times: []TimeOfDay{LateNight}, Applies: anyMood(MoodMelancholy, MoodNostalgic)},
		{Name: "short_sessions_daytime", Strength: 0.4, Times: []TimeOfDay{Morning, Afternoon}, Applies: sessionIs(SessionShort)},
	}
}

// DefaultMoodRules returns the built-in genre-to-mood heuristics.
func DefaultMoodRules() []MoodRule {
	return []MoodRule{
		{Name: "fast_genres_energetic", Strength: 0.8, Mood: MoodEnergetic, Genres: []Genre{GenreAction, GenreShooter, GenreFighting, GenreRacing, GenreSports, GenrePlatformer}},
		{Name: "thinking_genres_focused", Strength: 0.8, Mood: MoodFocused, Genres: []Genre{GenrePuzzle, GenreStrategy}},
		{Name: "exploration_adventurous", Strength: 0.8, Mood: MoodAdventurous, Genres: []Genre{GenreAdventure, GenreRPG, GenreSurvival}},
		{Name: "multiplayer_social", Strength: 0.8, Mood: MoodSocial, Multiplayer: true},
		{Name: "sandbox_creative", Strength: 0.75, Mood: MoodCreative, Genres: []Genre{GenreSandbox}},
		{Name: "versus_competitive", Strength: 0.7, Mood: MoodCompetitive, Genres: []Genre{GenreShooter, GenreFighting, GenreSports}},
		{Name: "gentle_zen", Strength: 0.7, Mood: MoodZen, Genres: []Genre{GenreSimulation, GenreCasual}},
		{Name: "gentle_cozy", Strength: 0.5, Mood: MoodCozy, Genres: []Genre{GenreCasual, GenreSimulation}},
		{Name: "retro_nostalgic", Strength: 0.5, Mood: MoodNostalgic, Genres: []Genre{GenrePlatformer}},
		{Name: "roguelike_focused", Strength: 0.4, Mood: MoodFocused, Genres: []Genre{GenreRoguelike}},
		{Name: "horror_adventurous", Strength: 0.4, Mood: MoodAdventurous, Genres: []Genre{GenreHorror}},
	}
}
