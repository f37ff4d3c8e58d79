// Playwise - Mood-Aware Game Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/playwise

// Package recommend implements the contextual matcher and scorer.
//
// # Scoring
//
// Each candidate earns 25 points per satisfied explicit criterion:
//
//   - mood: the item carries one of the selected moods (always satisfied when
//     no mood is selected)
//   - session: the item's session bucket equals the requested one (or any)
//   - time: the item is recommended for the requested time of day (or any, or
//     the item has no recommended times)
//
// A non-neutral persona adds, before scaling by the persona weight:
//
//   - affinity x Weights.Mood for each item mood among the dominant moods
//   - 25 x Weights.SessionLength when the bucket matches the preferred one
//   - 20 x Weights.TimeOfDay when recommended and preferred times intersect
//   - 15 x Weights.PlayPattern per matching pattern rule (completionist and a
//     completed item, social and a multiplayer item). night_owl only shapes
//     the preferred times.
//
// Final score = base + persona x personaWeight. A candidate is a match iff its
// score is positive. Ranking is by descending score with ties kept in input order.
//
// # Design Principles
//
//   - Deterministic: identical inputs produce identical rankings
//   - Pure: the engine never reads or writes learner state
//   - Parallel: candidates are scored in chunks on an errgroup
//   - Cached: responses are cached by user, filters, profile version and a
//     fingerprint of the library and persona context
//
// # Usage
//
//	engine, err := recommend.NewEngine(recommend.DefaultConfig(), logger)
//	resp, err := engine.Recommend(ctx, recommend.Request{
//	    UserID:  userID,
//	    Filters: recommend.Filters{Moods: []signal.Mood{signal.MoodZen}},
//	    Limit:   10,
//	}, items, &personaCtx)
//
// # Thread Safety
//
// The engine is safe for concurrent use. Configuration and cache are guarded by
// separate RWMutexes; counters are atomics.
package recommend
