// Playwise - Mood-Aware Game Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/playwise

package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// HTTPServer is the lifecycle subset of *http.Server.
type HTTPServer interface {
	ListenAndServe() error
	Shutdown(ctx context.Context) error
}

var errServerClosed = errors.New("http server closed outside supervision")

// HTTPServerService runs the API listener as a supervised service. Canceling
// the Serve context drains in-flight requests for up to shutdownTimeout.
type HTTPServerService struct {
	server          HTTPServer
	shutdownTimeout time.Duration
	logger          zerolog.Logger
}

// NewHTTPServerService wraps server. Non-positive shutdownTimeout means 10s.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewHTTPServerService(server HTTPServer, shutdownTimeout time.Duration, logger zerolog.Logger) *HTTPServerService {
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}
	return &HTTPServerService{
		server:          server,
		shutdownTimeout: shutdownTimeout,
		logger:          logger.With().Str("service", "http-server").Logger(),
	}
}

// Serve implements suture.Service. It returns the listener error, or
// ctx.Err() after a clean drain.
func (h *HTTPServerService) Serve(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		err := h.server.ListenAndServe()
		switch {
		case errors.Is(err, http.ErrServerClosed) && ctx.Err() != nil:
			return nil
		case errors.Is(err, http.ErrServerClosed), err == nil:
			return errServerClosed
		default:
			return fmt.Errorf("http server failed: %w", err)
		}
	})

	g.Go(func() error {
		<-gctx.Done()
		// the serve context is done, so the drain needs its own deadline
		drainCtx, cancel := context.WithTimeout(context.Background(), h.shutdownTimeout)
		defer cancel()

		start := time.Now()
		if err := h.server.Shutdown(drainCtx); err != nil {
			return fmt.Errorf("http server shutdown failed: %w", err)
		}
		h.logger.Debug().Dur("drain", time.Since(start)).Msg("listener drained")
		return nil
	})

	if err := g.Wait(); err != nil {
		h.logger.Error().Err(err).Msg("listener stopped")
		return err
	}
	return ctx.Err()
}

func (h *HTTPServerService) String() string { return "http-server" }
