// Playwise - Mood-Aware Game Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/playwise

// Package observability tracks the latency and outcome of every pipeline stage
// and turns them into rolling statistics and health snapshots.
//
// Track wraps a stage call:
//
//	err := agg.Track(ctx, "recommend", func(ctx context.Context) error {
//	    resp, err = engine.Recommend(ctx, req, items, &pc)
//	    return err
//	})
//
// Samples are kept per operation for a trailing window (24h by default) and
// capped per operation. A sample is slow when it exceeds the fixed threshold
// or, once enough samples exist, the configured percentile of its operation.
//
// Snapshot combines a store ping, the breaker state and the window's success
// rate and latency into healthy, degraded or unhealthy. It never returns an
// error; a failing store is reported as an issue.
package observability
