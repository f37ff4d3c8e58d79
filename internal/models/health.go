// Playwise - Mood-Aware Game Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/playwise

package models

import (
	"time"

	"github.com/google/uuid"
)

// HealthStatus is the overall pipeline status.
type HealthStatus string

const (
	StatusHealthy   HealthStatus = "healthy"
	StatusDegraded  HealthStatus = "degraded"
	StatusUnhealthy HealthStatus = "unhealthy"
)

// HealthDetails are the inputs that produced a HealthStatus.
type HealthDetails struct {
	StoreConnected bool     `json:"store_connected"`
	SuccessRate    float64  `json:"success_rate"`
	MeanLatencyMs  float64  `json:"mean_latency_ms"`
	P95LatencyMs   float64  `json:"p95_latency_ms"`
	Operations     int      `json:"operations"`
	SlowOperations int      `json:"slow_operations"`
	BreakerState   string   `json:"breaker_state,omitempty"`
	Issues         []string `json:"issues"`
}

// HealthSnapshot is a point-in-time health record.
type HealthSnapshot struct {
	ID      uuid.UUID     `json:"id"`
	Status  HealthStatus  `json:"status"`
	Details HealthDetails `json:"details"`
	TakenAt time.Time     `json:"taken_at"`
}
