// Playwise - Mood-Aware Game Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/playwise

package services

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/playwise/internal/models"
)

// HealthChecker captures a health snapshot. *service.Service implements it.
type HealthChecker interface {
	GetHealthSnapshot(ctx context.Context) models.HealthSnapshot
}

// HealthMonitorService captures a snapshot on startup and then every
// interval, logging status transitions. Snapshots are persisted by the
// checker, which keeps the health history current without API traffic.
type HealthMonitorService struct {
	checker  HealthChecker
	interval time.Duration
	logger   zerolog.Logger

	mu   sync.Mutex
	last models.HealthStatus
}

// NewHealthMonitorService creates the monitor. Non-positive interval means 5m.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewHealthMonitorService(checker HealthChecker, interval time.Duration, logger zerolog.Logger) *HealthMonitorService {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &HealthMonitorService{
		checker:  checker,
		interval: interval,
		logger:   logger.With().Str("service", "health-monitor").Logger(),
	}
}

// Serve implements suture.Service.
func (s *HealthMonitorService) Serve(ctx context.Context) error {
	s.check(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.check(ctx)
		}
	}
}

func (s *HealthMonitorService) check(ctx context.Context) {
	snap := s.checker.GetHealthSnapshot(ctx)

	s.mu.Lock()
	prev := s.last
	s.last = snap.Status
	s.mu.Unlock()

	if snap.Status == prev {
		s.logger.Debug().Str("status", string(snap.Status)).Msg("health unchanged")
		return
	}

	event := s.logger.Info()
	if snap.Status != models.StatusHealthy {
		event = s.logger.Warn()
	}
	event.Str("from", string(prev)).
		Str("to", string(snap.Status)).
		Strs("issues", snap.Details.Issues).
		Msg("health status changed")
}

// LastStatus returns the status of the most recent check.
func (s *HealthMonitorService) LastStatus() models.HealthStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

func (s *HealthMonitorService) String() string { return "health-monitor" }
