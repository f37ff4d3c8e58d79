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

// RawItem is a library entry as delivered by a platform collaborator or fixture file.
type RawItem struct {
	ID                    string     `json:"id" yaml:"id"`
	Title                 string     `json:"title" yaml:"title"`
	Moods                 []string   `json:"moods,omitempty" yaml:"moods,omitempty"`
	Genres                []string   `json:"genres,omitempty" yaml:"genres,omitempty"`
	Tags                  []string   `json:"tags,omitempty" yaml:"tags,omitempty"`
	SessionLength         string     `json:"session_length,omitempty" yaml:"session_length,omitempty"`
	RecommendedTimes      []string   `json:"recommended_times,omitempty" yaml:"recommended_times,omitempty"`
	AverageSessionMinutes float64    `json:"average_session_minutes,omitempty" yaml:"average_session_minutes,omitempty"`
	TotalPlaytimeMinutes  float64    `json:"total_playtime_minutes,omitempty" yaml:"total_playtime_minutes,omitempty"`
	LastPlayedAt          *time.Time `json:"last_played_at,omitempty" yaml:"last_played_at,omitempty"`
	Completed             bool       `json:"completed,omitempty" yaml:"completed,omitempty"`
	Platform              string     `json:"platform,omitempty" yaml:"platform,omitempty"`
}

// ContextualItem is the canonical form every downstream component reads.
// Slices are deduplicated and sorted.
type ContextualItem struct {
	ID                    string          `json:"id"`
	Title                 string          `json:"title"`
	Moods                 []Mood          `json:"moods"`
	Genres                []Genre         `json:"genres"`
	Tags                  []string        `json:"tags"`
	SessionLength         SessionLength   `json:"session_length"`
	RecommendedTimes      []TimeOfDay     `json:"recommended_times"`
	AverageSessionMinutes float64         `json:"average_session_minutes,omitempty"`
	TotalPlaytimeMinutes  float64         `json:"total_playtime_minutes,omitempty"`
	LastPlayedAt          *time.Time      `json:"last_played_at,omitempty"`
	Completed             bool            `json:"completed,omitempty"`
	Platform              string          `json:"platform,omitempty"`
	Multiplayer           bool            `json:"multiplayer,omitempty"`
	Inferred              InferenceSource `json:"inferred"`
}

// InferenceSource records which fields were inferred rather than tagged.
type InferenceSource struct {
	Moods         bool `json:"moods,omitempty"`
	SessionLength bool `json:"session_length,omitempty"`
	Times         bool `json:"times,omitempty"`
}

// Valid reports whether the item has the identity fields and session bucket
// scoring requires.
func (c *ContextualItem) Valid() bool {
	return c != nil && strings.TrimSpace(c.ID) != "" && strings.TrimSpace(c.Title) != "" && c.SessionLength.Valid()
}

// HasMood reports whether the item carries m.
func (c *ContextualItem) HasMood(m Mood) bool {
	for _, v := range c.Moods {
		if v == m {
			return true
		}
	}
	return false
}

// HasGenre reports whether the item carries g.
func (c *ContextualItem) HasGenre(g Genre) bool {
	for _, v := range c.Genres {
		if v == g {
			return true
		}
	}
	return false
}

// Played reports whether the item has any recorded play.
func (c *ContextualItem) Played() bool {
	return c.LastPlayedAt != nil || c.TotalPlaytimeMinutes > 0
}

var multiplayerTags = map[string]bool{
	"multiplayer":       true,
	"co-op":             true,
	"coop":              true,
	"online-co-op":      true,
	"local-multiplayer": true,
	"online":            true,
	"mmo":               true,
	"pvp":               true,
	"party":             true,
}

// Options tunes inference.
type Options struct {
	// Aggressiveness in [0,1]. A heuristic fires when its strength >= 1-Aggressiveness.
	Aggressiveness float64

	// DefaultTimes is used when no time rule fires.
	DefaultTimes []TimeOfDay

	// InferMoods enables genre-to-mood inference for items without mood tags.
	InferMoods bool
}

// DefaultOptions returns aggressiveness 0.5, default time {evening}, mood inference on.
func DefaultOptions() Options {
	return Options{
		Aggressiveness: 0.5,
		DefaultTimes:   []TimeOfDay{Evening},
		InferMoods:     true,
	}
}

// Validate checks the options.
func (o Options) Validate() error {
	if o.Aggressiveness < 0 || o.Aggressiveness > 1 {
		return fmt.Errorf("aggressiveness must be between 0 and 1, got %f", o.Aggressiveness)
	}
	for _, t := range o.DefaultTimes {
		if !t.Valid() {
			return fmt.Errorf("invalid default time %q", t)
		}
	}
	return nil
}

// Report summarizes one Normalize call.
type Report struct {
	Total         int            `json:"total"`
	Normalized    int            `json:"normalized"`
	Skipped       int            `json:"skipped"`
	SkipReasons   map[string]int `json:"skip_reasons,omitempty"`
	UnknownTokens int            `json:"unknown_tokens"`
	RulesFired    map[string]int `json:"rules_fired,omitempty"`
}

func (r *Report) skip(reason string) {
	r.Skipped++
	if r.SkipReasons == nil {
		r.SkipReasons = make(map[string]int)
	}
	r.SkipReasons[reason]++
}

func (r *Report) fired(rule string) {
	if r.RulesFired == nil {
		r.RulesFired = make(map[string]int)
	}
	r.RulesFired[rule]++
}

// Normalizer converts RawItems into ContextualItems. It holds no mutable state.
type Normalizer struct {
	opts      Options
	timeRules []TimeRule
	moodRules []MoodRule
	threshold float64
}

// NewNormalizer creates a normalizer with the built-in rule tables.
// Out-of-range aggressiveness is clamped to [0,1].
func NewNormalizer(opts Options) *Normalizer {
	opts.Aggressiveness = clamp01(opts.Aggressiveness)
	if len(opts.DefaultTimes) == 0 {
		opts.DefaultTimes = []TimeOfDay{Evening}
	}
	return &Normalizer{
		opts:      opts,
		timeRules: DefaultTimeRules(),
		moodRules: DefaultMoodRules(),
		threshold: 1 - opts.Aggressiveness,
	}
}

// Options returns the effective options.
func (n *Normalizer) Options() Options {
	return n.opts
}

// Normalize converts raw items, skipping malformed ones. Output preserves input order.
func (n *Normalizer) Normalize(raw []RawItem) ([]ContextualItem, Report) {
	report := Report{Total: len(raw)}
	out := make([]ContextualItem, 0, len(raw))

	for i := range raw {
		item, err := n.normalizeOne(&raw[i], &report)
		if err != nil {
			report.skip(err.Error())
			continue
		}
		out = append(out, item)
		report.Normalized++
	}
	return out, report
}

// NormalizeOne converts a single item.
func (n *Normalizer) NormalizeOne(raw RawItem) (ContextualItem, error) {
	var report Report
	return n.normalizeOne(&raw, &report)
}

func (n *Normalizer) normalizeOne(raw *RawItem, report *Report) (ContextualItem, error) {
	id := strings.TrimSpace(raw.ID)
	title := strings.TrimSpace(raw.Title)
	if id == "" {
		return ContextualItem{}, errMissingID
	}
	if title == "" {
		return ContextualItem{}, errMissingTitle
	}

	item := ContextualItem{
		ID:                    id,
		Title:                 title,
		AverageSessionMinutes: nonNegative(raw.AverageSessionMinutes),
		TotalPlaytimeMinutes:  nonNegative(raw.TotalPlaytimeMinutes),
		LastPlayedAt:          raw.LastPlayedAt,
		Completed:             raw.Completed,
		Platform:              strings.ToLower(strings.TrimSpace(raw.Platform)),
	}

	tags := make(map[string]struct{})
	for _, t := range raw.Tags {
		if t = normalizeToken(t); t != "" {
			tags[t] = struct{}{}
		}
	}

	moods := make(map[Mood]struct{})
	for _, s := range raw.Moods {
		m, err := ParseMood(s)
		if err != nil {
			report.UnknownTokens++
			if t := normalizeToken(s); t != "" {
				tags[t] = struct{}{}
			}
			continue
		}
		moods[m] = struct{}{}
	}

	genres := make(map[Genre]struct{})
	for _, s := range raw.Genres {
		g, err := ParseGenre(s)
		if err != nil {
			report.UnknownTokens++
			if t := normalizeToken(s); t != "" {
				tags[t] = struct{}{}
			}
			continue
		}
		genres[g] = struct{}{}
	}

	item.Tags = sortedTags(tags)
	item.Genres = sortedGenres(genres)
	for _, t := range item.Tags {
		if multiplayerTags[t] {
			item.Multiplayer = true
			break
		}
	}

	if sl, err := ParseSessionLength(raw.SessionLength); err == nil {
		item.SessionLength = sl
	} else {
		item.SessionLength = SessionLengthForMinutes(item.AverageSessionMinutes)
		item.Inferred.SessionLength = true
	}

	if len(moods) == 0 && n.opts.InferMoods {
		for _, rule := range n.moodRules {
			if n.admits(rule.Strength) && rule.applies(&item) {
				moods[rule.Mood] = struct{}{}
				report.fired(rule.Name)
			}
		}
		item.Inferred.Moods = len(moods) > 0
	}
	item.Moods = sortedMoods(moods)

	times := make(map[TimeOfDay]struct{})
	for _, s := range raw.RecommendedTimes {
		t, err := ParseTimeOfDay(s)
		if err != nil {
			report.UnknownTokens++
			continue
		}
		times[t] = struct{}{}
	}
	if len(times) == 0 {
		item.Inferred.Times = true
		for _, rule := range n.timeRules {
			if n.admits(rule.Strength) && rule.Applies(&item) {
				for _, t := range rule.Times {
					times[t] = struct{}{}
				}
				report.fired(rule.Name)
			}
		}
		if len(times) == 0 {
			for _, t := range n.opts.DefaultTimes {
				times[t] = struct{}{}
			}
		}
	}
	item.RecommendedTimes = sortedTimes(times)

	return item, nil
}

// admits applies the aggressiveness gate with a tolerance for float rounding.
func (n *Normalizer) admits(strength float64) bool {
	return strength+1e-9 >= n.threshold
}

var (
	errMissingID    = fmt.Errorf("missing id")
	errMissingTitle = fmt.Errorf("missing title")
)

func sortedTags(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for t := range set {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

func sortedMoods(set map[Mood]struct{}) []Mood {
	out := make([]Mood, 0, len(set))
	for m := range set {
		out = append(out, m)
	}
	SortMoods(out)
	return out
}

func sortedGenres(set map[Genre]struct{}) []Genre {
	out := make([]Genre, 0, len(set))
	for g := range set {
		out = append(out, g)
	}
	SortGenres(out)
	return out
}

func sortedTimes(set map[TimeOfDay]struct{}) []TimeOfDay {
	out := make([]TimeOfDay, 0, len(set))
	for t := range set {
		out = append(out, t)
	}
	SortTimes(out)
	return out
}

func clamp01(v float64) float64 {
	switch {
	case v != v: // NaN
		return 0
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}

func nonNegative(v float64) float64 {
	if v != v || v < 0 {
		return 0
	}
	return v
}
