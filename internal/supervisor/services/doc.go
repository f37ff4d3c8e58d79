// Playwise - Mood-Aware Game Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/playwise

// Package services adapts engine components to suture.Service.
//
// Every service blocks in Serve until its context is canceled, returns
// ctx.Err() on shutdown and implements fmt.Stringer so supervisor events name
// it. Dependencies are small interfaces so services can be tested without the
// full engine.
package services
