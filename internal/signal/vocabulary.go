// Playwise - Mood-Aware Game Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/playwise

package signal

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Mood is a canonical mood identifier.
type Mood string

const (
	MoodEnergetic   Mood = "energetic"
	MoodZen         Mood = "zen"
	MoodFocused     Mood = "focused"
	MoodSocial      Mood = "social"
	MoodAdventurous Mood = "adventurous"
	MoodCompetitive Mood = "competitive"
	MoodCreative    Mood = "creative"
	MoodNostalgic   Mood = "nostalgic"
	MoodCozy        Mood = "cozy"
	MoodMelancholy  Mood = "melancholy"
)

// AllMoods lists every mood in canonical (alphabetical) order.
var AllMoods = []Mood{
	MoodAdventurous, MoodCompetitive, MoodCozy, MoodCreative, MoodEnergetic,
	MoodFocused, MoodMelancholy, MoodNostalgic, MoodSocial, MoodZen,
}

var moodSynonyms = map[string]Mood{
	"energetic":   MoodEnergetic,
	"energized":   MoodEnergetic,
	"hype":        MoodEnergetic,
	"hyped":       MoodEnergetic,
	"excited":     MoodEnergetic,
	"zen":         MoodZen,
	"chill":       MoodZen,
	"relaxed":     MoodZen,
	"relaxing":    MoodZen,
	"calm":        MoodZen,
	"peaceful":    MoodZen,
	"focused":     MoodFocused,
	"focus":       MoodFocused,
	"thoughtful":  MoodFocused,
	"strategic":   MoodFocused,
	"social":      MoodSocial,
	"friends":     MoodSocial,
	"party":       MoodSocial,
	"adventurous": MoodAdventurous,
	"adventure":   MoodAdventurous,
	"curious":     MoodAdventurous,
	"explorative": MoodAdventurous,
	"competitive": MoodCompetitive,
	"tryhard":     MoodCompetitive,
	"creative":    MoodCreative,
	"building":    MoodCreative,
	"nostalgic":   MoodNostalgic,
	"retro":       MoodNostalgic,
	"cozy":        MoodCozy,
	"comfy":       MoodCozy,
	"wholesome":   MoodCozy,
	"melancholy":  MoodMelancholy,
	"melancholic": MoodMelancholy,
	"sad":         MoodMelancholy,
	"reflective":  MoodMelancholy,
}

// ParseMood maps free text onto a canonical mood.
func ParseMood(s string) (Mood, error) {
	if m, ok := moodSynonyms[normalizeToken(s)]; ok {
		return m, nil
	}
	return "", fmt.Errorf("unknown mood %q", s)
}

// Valid reports whether m is a canonical mood.
func (m Mood) Valid() bool {
	c, ok := moodSynonyms[string(m)]
	return ok && c == m
}

func (m Mood) String() string { return string(m) }

// Genre is a canonical genre identifier.
type Genre string

const (
	GenreAction     Genre = "action"
	GenreAdventure  Genre = "adventure"
	GenreRPG        Genre = "rpg"
	GenreStrategy   Genre = "strategy"
	GenrePuzzle     Genre = "puzzle"
	GenreSimulation Genre = "simulation"
	GenreSports     Genre = "sports"
	GenreRacing     Genre = "racing"
	GenreShooter    Genre = "shooter"
	GenreHorror     Genre = "horror"
	GenrePlatformer Genre = "platformer"
	GenreFighting   Genre = "fighting"
	GenreCasual     Genre = "casual"
	GenreSandbox    Genre = "sandbox"
	GenreSurvival   Genre = "survival"
	GenreRoguelike  Genre = "roguelike"
)

var genreSynonyms = map[string]Genre{
	"action":          GenreAction,
	"adventure":       GenreAdventure,
	"rpg":             GenreRPG,
	"role-playing":    GenreRPG,
	"roleplaying":     GenreRPG,
	"jrpg":            GenreRPG,
	"strategy":        GenreStrategy,
	"rts":             GenreStrategy,
	"4x":              GenreStrategy,
	"tactics":         GenreStrategy,
	"puzzle":          GenrePuzzle,
	"simulation":      GenreSimulation,
	"sim":             GenreSimulation,
	"sports":          GenreSports,
	"sport":           GenreSports,
	"racing":          GenreRacing,
	"driving":         GenreRacing,
	"shooter":         GenreShooter,
	"fps":             GenreShooter,
	"tps":             GenreShooter,
	"horror":          GenreHorror,
	"survival-horror": GenreHorror,
	"platformer":      GenrePlatformer,
	"platform":        GenrePlatformer,
	"fighting":        GenreFighting,
	"casual":          GenreCasual,
	"sandbox":         GenreSandbox,
	"open-world":      GenreSandbox,
	"survival":        GenreSurvival,
	"roguelike":       GenreRoguelike,
	"roguelite":       GenreRoguelike,
}

// ParseGenre maps free text onto a canonical genre.
func ParseGenre(s string) (Genre, error) {
	if g, ok := genreSynonyms[normalizeToken(s)]; ok {
		return g, nil
	}
	return "", fmt.Errorf("unknown genre %q", s)
}

// Valid reports whether g is a canonical genre.
func (g Genre) Valid() bool {
	c, ok := genreSynonyms[string(g)]
	return ok && c == g
}

func (g Genre) String() string { return string(g) }

// SessionLength buckets the time a play session is expected to take.
type SessionLength string

const (
	SessionShort  SessionLength = "short"
	SessionMedium SessionLength = "medium"
	SessionLong   SessionLength = "long"
)

// ParseSessionLength accepts the bucket names plus "quick" and "marathon".
func ParseSessionLength(s string) (SessionLength, error) {
	switch normalizeToken(s) {
	case "short", "quick":
		return SessionShort, nil
	case "medium", "moderate":
		return SessionMedium, nil
	case "long", "marathon":
		return SessionLong, nil
	}
	return "", fmt.Errorf("unknown session length %q", s)
}

// Valid reports whether s is a canonical bucket.
func (s SessionLength) Valid() bool {
	return s == SessionShort || s == SessionMedium || s == SessionLong
}

// SessionLengthForMinutes buckets a play duration: <30 short, 30-120 medium, >120 long.
// Non-positive durations are unknown and bucket as medium.
func SessionLengthForMinutes(minutes float64) SessionLength {
	switch {
	case minutes <= 0:
		return SessionMedium
	case minutes < 30:
		return SessionShort
	case minutes > 120:
		return SessionLong
	default:
		return SessionMedium
	}
}

// TimeOfDay is one of four day-part buckets.
type TimeOfDay string

const (
	Morning   TimeOfDay = "morning"
	Afternoon TimeOfDay = "afternoon"
	Evening   TimeOfDay = "evening"
	LateNight TimeOfDay = "late-night"
)

// AllTimesOfDay lists the buckets in day order.
var AllTimesOfDay = []TimeOfDay{Morning, Afternoon, Evening, LateNight}

// ParseTimeOfDay accepts the bucket names plus "night" and "late_night".
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	switch normalizeToken(s) {
	case "morning":
		return Morning, nil
	case "afternoon":
		return Afternoon, nil
	case "evening":
		return Evening, nil
	case "late-night", "latenight", "night":
		return LateNight, nil
	}
	return "", fmt.Errorf("unknown time of day %q", s)
}

// Valid reports whether t is a canonical bucket.
func (t TimeOfDay) Valid() bool {
	return t == Morning || t == Afternoon || t == Evening || t == LateNight
}

// TimeOfDayForHour buckets an hour: 5-11 morning, 12-16 afternoon, 17-21 evening,
// otherwise late-night.
func TimeOfDayForHour(hour int) TimeOfDay {
	switch {
	case hour >= 5 && hour < 12:
		return Morning
	case hour >= 12 && hour < 17:
		return Afternoon
	case hour >= 17 && hour < 22:
		return Evening
	default:
		return LateNight
	}
}

// TimeOfDayAt buckets t in its own location.
func TimeOfDayAt(t time.Time) TimeOfDay {
	return TimeOfDayForHour(t.Hour())
}

func normalizeToken(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, "_", "-")
	return strings.ReplaceAll(s, " ", "-")
}

// SortMoods sorts in place by name.
func SortMoods(ms []Mood) {
	sort.Slice(ms, func(i, j int) bool { return ms[i] < ms[j] })
}

// SortGenres sorts in place by name.
func SortGenres(gs []Genre) {
	sort.Slice(gs, func(i, j int) bool { return gs[i] < gs[j] })
}

// SortTimes sorts in day order.
func SortTimes(ts []TimeOfDay) {
	rank := func(t TimeOfDay) int {
		for i, v := range AllTimesOfDay {
			if v == t {
				return i
			}
		}
		return len(AllTimesOfDay)
	}
	sort.Slice(ts, func(i, j int) bool { return rank(ts[i]) < rank(ts[j]) })
}
