// Playwise - Mood-Aware Game Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/playwise

// Package cache provides a generic LRU cache with TTL expiry.
//
// The service keeps each user's last successful ranking in one so that a
// store outage can still be answered with something better than the neutral
// ranking.
package cache
