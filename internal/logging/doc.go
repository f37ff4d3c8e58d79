// Playwise - Mood-Aware Game Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/playwise

// Package logging provides centralized zerolog-based structured logging for Playwise.
//
// Every component receives a zerolog.Logger (usually via WithComponent) and logs
// with structured fields. The package also carries request-scoped identifiers
// through context.Context so that one recommendation or learning update can be
// followed across the normalizer, context builder, scorer and learning loop.
//
// # Quick Start
//
//	logging.Init(logging.Config{
//	    Level:  "info",
//	    Format: "json",
//	})
//
//	logging.Info().Str("user_id", userID).Msg("profile loaded")
//
//	ctx = logging.ContextWithUserID(logging.ContextWithNewCorrelationID(ctx), userID)
//	logging.Ctx(ctx).Debug().Msg("scoring candidates")
//
// # Component Levels
//
// Config.Components raises or lowers verbosity for one component without
// touching the rest:
//
//	logging.Init(logging.Config{
//	    Level:      "warn",
//	    Components: map[string]string{"learning": "debug"},
//	})
//
// WithComponent applies the override to the logger it returns. LevelFor
// applies it to a logger built elsewhere.
//
// # Bridges
//
// Two adapters let third-party libraries write through zerolog:
//
//   - NewSlogLogger: slog.Logger for sutureslog (supervisor event hooks)
//   - NewWatermillLogger: watermill.LoggerAdapter for the event bus
//
// # Output Formats
//
// JSON (production):
//
//	{"level":"info","time":"2026-01-03T10:30:00Z","component":"learning","message":"mood selection applied"}
//
// Console (development):
//
//	10:30:00 INF mood selection applied component=learning
//
// # Thread Safety
//
// All exported functions are safe for concurrent use. The global logger is
// protected by a sync.RWMutex for reconfiguration.
package logging
