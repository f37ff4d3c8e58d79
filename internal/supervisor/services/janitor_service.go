// Playwise - Mood-Aware Game Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/playwise

package services

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Pruner drops expired cache entries and reports how many were removed.
type Pruner interface {
	PruneCaches() int
}

// JanitorService calls Prune every interval.
type JanitorService struct {
	pruner   Pruner
	interval time.Duration
	logger   zerolog.Logger
}

// NewJanitorService creates the janitor. Non-positive interval means 10m.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewJanitorService(pruner Pruner, interval time.Duration, logger zerolog.Logger) *JanitorService {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	return &JanitorService{
		pruner:   pruner,
		interval: interval,
		logger:   logger.With().Str("service", "janitor").Logger(),
	}
}

// Serve implements suture.Service.
func (s *JanitorService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if n := s.pruner.PruneCaches(); n > 0 {
				s.logger.Debug().Int("removed", n).Msg("expired cache entries removed")
			}
		}
	}
}

func (s *JanitorService) String() string { return "janitor" }
