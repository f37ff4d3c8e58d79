// Playwise - Mood-Aware Game Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/playwise

// Package persona derives a PersonaContext from a user's normalized library and
// learned PersonaProfile.
//
// Build is pure and deterministic. Empty or corrupt input never fails; it yields
// NeutralContext. Mood affinity blends the learned profile with the library by
// profile confidence:
//
//	affinity[m] = confidence*profile[m] + (1-confidence)*libraryShare[m]
package persona
