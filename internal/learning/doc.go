// Playwise - Mood-Aware Game Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/playwise

/*
Package learning folds observed events into a user's PersonaProfile.

# Update Rule

Every learned weight moves toward an observed signal s in [0, 1]:

	w <- w + rate * (s - w) / (n + 1)

For mood affinity n = SampleSize + PriorStrength; for genres, tags, platforms
and genre pairs n is that key's observation count plus PriorStrength. rate is 1
for explicit events (mood selections, user actions) and OutcomeRate for the
implicit reward of a recommendation outcome. Unseen keys start at 0.5.

Confidence is a saturating function of SampleSize:

	confidence = floor + (1 - floor) * (1 - 1/(1 + SampleSize/k))

It never decreases.

# Consistency

Each event is appended to the event log before it is folded into the profile.
The profile remembers the most recent applied event IDs; replaying one returns
ErrDuplicateEvent without changing anything. Updates for the same user are
serialized by a striped mutex in process and by the store's version check
across processes. After MaxRetries lost races the update fails with ErrConflict,
which callers may retry.

# Views

MoodPatterns and LearningMetrics are recomputed from the event log by pure
functions (ComputeMoodPatterns, ComputeLearningMetrics); Refresh persists them.
Rebuild replays the full log into a fresh profile.
*/
package learning
