// Playwise - Mood-Aware Game Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/playwise

// Package library supplies the candidate items recommendations are drawn from.
//
// Platform clients are external; inside the process a library is a set of raw
// items normalized once on load. A Memory provider holds a shared catalog plus
// optional per-user libraries, and can be filled from a JSON or YAML file:
//
//	items:
//	  - id: hades
//	    title: Hades
//	    moods: [energetic, competitive]
//	users:
//	  u1:
//	    - id: celeste
//	      title: Celeste
//
// A bare top-level list is accepted as the shared catalog.
package library
