// Playwise - Mood-Aware Game Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/playwise

/*
Package service is the operation boundary of the engine.

Every public operation validates its request, runs its stages under the
observability aggregator and publishes domain events. Transport layers (HTTP,
CLI, tests) call a *Service and never reach into the component packages.

# Operations

  - SubmitMoodSelection, SubmitUserAction: append the event and fold it into
    the persona profile
  - GetRecommendations: normalize, build the persona context, score
  - GetPersonaProfile: returns the profile, persisting a neutral one on first use
  - GetPerformanceStats, GetHealthSnapshot: aggregator views
  - RecordRecommendationOutcome, PredictMood, ResolvePrediction, RebuildViews,
    RebuildProfile, EraseUser

# Errors

Invalid input returns *validation.RequestValidationError before any state is
touched. An unreachable store surfaces as store.ErrUnavailable (see
IsDegraded), except in GetRecommendations, which answers from the user's last
known good ranking or, failing that, a neutral persona context. Conflicts that
survive the learning loop's retries return learning.ErrConflict.

# Concurrency

A Service is safe for concurrent use. Identical concurrent recommendation
requests share one computation.
*/
package service
