// Playwise - Mood-Aware Game Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/playwise

package observability

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/playwise/internal/metrics"
	"github.com/tomtom215/playwise/internal/models"
)

// Pinger checks store connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// BreakerReporter exposes a circuit breaker state ("closed", "half-open", "open").
type BreakerReporter interface {
	BreakerState() string
}

// Snapshot captures the current health. store and breaker may be nil. It
// never fails: an unreachable store makes the snapshot unhealthy.
func (a *Aggregator) Snapshot(ctx context.Context, store Pinger, breaker BreakerReporter) models.HealthSnapshot {
	st := a.PipelineStats()

	d := models.HealthDetails{
		StoreConnected: true,
		SuccessRate:    1,
		MeanLatencyMs:  st.MeanMs,
		P95LatencyMs:   st.P95Ms,
		Operations:     st.Count,
		SlowOperations: st.SlowCount,
		Issues:         []string{},
	}
	if st.Count > 0 {
		d.SuccessRate = st.SuccessRate
	}

	var pingErr error
	if store != nil {
		pctx, cancel := context.WithTimeout(ctx, a.cfg.PingTimeout)
		pingErr = safePing(pctx, store)
		cancel()
		d.StoreConnected = pingErr == nil
	}
	if breaker != nil {
		d.BreakerState = breaker.BreakerState()
	}

	status := Evaluate(&d, pingErr, a.cfg.Health)
	metrics.SetHealthStatus(string(status))
	if status != models.StatusHealthy {
		a.logger.Warn().Str("status", string(status)).Strs("issues", d.Issues).Msg("pipeline health check")
	}

	return models.HealthSnapshot{
		ID:      uuid.New(),
		Status:  status,
		Details: d,
		TakenAt: a.now(),
	}
}

func safePing(ctx context.Context, p Pinger) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("ping panicked: %v", r)
		}
	}()
	return p.Ping(ctx)
}

// Evaluate derives a status from d and appends the reasons to d.Issues. The
// worst finding wins.
func Evaluate(d *models.HealthDetails, pingErr error, th HealthThresholds) models.HealthStatus {
	status := models.StatusHealthy
	raise := func(s models.HealthStatus, issue string) {
		d.Issues = append(d.Issues, issue)
		if rank(s) > rank(status) {
			status = s
		}
	}

	if !d.StoreConnected {
		msg := "store unreachable"
		if pingErr != nil {
			msg += ": " + pingErr.Error()
		}
		raise(models.StatusUnhealthy, msg)
	}
	switch d.BreakerState {
	case "open":
		raise(models.StatusUnhealthy, "store circuit breaker open")
	case "half-open":
		raise(models.StatusDegraded, "store circuit breaker half-open")
	}

	if d.Operations >= th.MinOperations && d.Operations > 0 {
		switch {
		case d.SuccessRate < th.UnhealthySuccessRate:
			raise(models.StatusUnhealthy, fmt.Sprintf("success rate %.1f%% below %.1f%%", d.SuccessRate*100, th.UnhealthySuccessRate*100))
		case d.SuccessRate < th.DegradedSuccessRate:
			raise(models.StatusDegraded, fmt.Sprintf("success rate %.1f%% below %.1f%%", d.SuccessRate*100, th.DegradedSuccessRate*100))
		}

		mean := time.Duration(d.MeanLatencyMs * float64(time.Millisecond))
		switch {
		case mean > th.UnhealthyLatency:
			raise(models.StatusUnhealthy, fmt.Sprintf("mean latency %v above %v", mean.Round(time.Millisecond), th.UnhealthyLatency))
		case mean > th.DegradedLatency:
			raise(models.StatusDegraded, fmt.Sprintf("mean latency %v above %v", mean.Round(time.Millisecond), th.DegradedLatency))
		}

		if frac := float64(d.SlowOperations) / float64(d.Operations); th.SlowFraction > 0 && frac > th.SlowFraction {
			raise(models.StatusDegraded, fmt.Sprintf("%d of %d operations slow", d.SlowOperations, d.Operations))
		}
	}
	return status
}

func rank(s models.HealthStatus) int {
	switch s {
	case models.StatusUnhealthy:
		return 2
	case models.StatusDegraded:
		return 1
	default:
		return 0
	}
}
