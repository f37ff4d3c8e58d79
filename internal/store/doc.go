// Playwise - Mood-Aware Game Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/playwise

/*
Package store persists profiles, event logs and derived views.

Three backends implement Store:

  - MemoryStore: maps guarded by a RWMutex, for tests and the CLI
  - BadgerStore: embedded key-value store (badger v4) with prefixed keys
  - SQLStore: database/sql over DuckDB or SQLite, one JSON body column per row

Resilient wraps any Store with a per-call timeout and a gobreaker circuit
breaker. Once the breaker opens, calls fail fast with ErrUnavailable.

# Semantics

Profiles are written with optimistic concurrency. PutProfile succeeds only when
the stored version equals the expected one (0 means absent) and then sets the
profile's Version to expected+1; otherwise it returns ErrVersionConflict.

Event appends are idempotent by ID. Listings are ordered by creation time,
then ID. DeleteUser erases the profile, every event row and every view of the
user.

User IDs must not contain the key separator ':'; such IDs fail with
ErrInvalidKey.
*/
package store
