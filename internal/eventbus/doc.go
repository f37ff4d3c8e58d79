// Playwise - Mood-Aware Game Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/playwise

// Package eventbus publishes learning and recommendation events on Watermill.
//
// The in-process gochannel backend is the default. Setting backend to "nats"
// uses core NATS through watermill-nats so several Playwise instances (or
// external consumers) see the same stream. With nats.embedded.enabled the
// process runs its own NATS server and connects to it. Backend "none"
// disables publishing.
//
// Topics:
//
//	mood.selected           models.MoodSelection
//	action.recorded         models.UserAction
//	profile.updated         ProfileUpdated
//	recommendation.served   RecommendationServed
//
// Payloads are JSON (goccy/go-json). Every message carries the user_id and
// schema_version metadata keys.
//
// Publishing is best effort from the caller's point of view: the learning loop
// has already persisted the event when it is published, so a failed publish
// is logged and counted but never undoes the write.
package eventbus
