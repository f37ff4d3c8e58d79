// Playwise - Mood-Aware Game Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/playwise

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	ossignal "os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tomtom215/playwise/internal/api"
	"github.com/tomtom215/playwise/internal/config"
	"github.com/tomtom215/playwise/internal/logging"
	"github.com/tomtom215/playwise/internal/supervisor"
	"github.com/tomtom215/playwise/internal/supervisor/services"
)

func newServeCommand(opts *rootOptions) *cobra.Command {
	var watch bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the recommendation service under the supervisor tree",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := ossignal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, opts, watch, cmd)
		},
	}
	cmd.Flags().BoolVar(&watch, "watch", true, "reload log level and scoring weights when the config file changes")
	return cmd
}

func runServe(ctx context.Context, opts *rootOptions, watch bool, cmd *cobra.Command) (err error) {
	a, err := newApp(opts, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, a.Close())
	}()

	tree, err := buildTree(a)
	if err != nil {
		return err
	}

	if path := config.FilePath(opts.configPath); watch && path != "" {
		if werr := config.WatchConfigFile(path, func() { a.reload(path) }); werr != nil {
			a.logger.Warn().Err(werr).Str("path", path).Msg("config watch disabled")
		}
	}

	a.logger.Info().
		Str("version", version).
		Bool("http", a.cfg.Server.Enabled).
		Str("addr", a.cfg.Server.Addr()).
		Msg("starting playwise")

	errCh := tree.ServeBackground(ctx)
	for serr := range errCh {
		if serr != nil && !errors.Is(serr, context.Canceled) {
			logging.Error().Err(serr).Msg("supervisor tree error")
		}
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	for _, svc := range unstopped {
		a.logger.Warn().Str("service", svc.Name).Msg("service failed to stop")
	}
	a.logger.Info().Msg("playwise stopped")
	return nil
}

// buildTree registers every long-running service with the supervisor.
func buildTree(a *app) (*supervisor.SupervisorTree, error) {
	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), a.cfg.Supervisor)
	if err != nil {
		return nil, err
	}

	tree.AddMaintenanceService(services.NewHealthMonitorService(a.svc, a.cfg.Observability.SnapshotInterval, a.logger))
	tree.AddMaintenanceService(services.NewJanitorService(a.svc, a.cfg.Recommendations.CleanupInterval, a.logger))

	if a.bus.Enabled() {
		tree.AddMessagingService(services.NewActionConsumer(a.bus, a.aggregator))
	}

	if a.cfg.Server.Enabled {
		handler := api.NewRouter(a.svc, api.RouterConfig{
			RequestTimeout:     a.cfg.Server.WriteTimeout,
			RateLimitRequests:  a.cfg.Server.RateLimitRequests,
			RateLimitWindow:    a.cfg.Server.RateLimitWindow,
			CORSAllowedOrigins: a.cfg.Server.CORSAllowedOrigins,
		})
		srv := &http.Server{
			Addr:              a.cfg.Server.Addr(),
			Handler:           handler,
			ReadTimeout:       a.cfg.Server.ReadTimeout,
			ReadHeaderTimeout: a.cfg.Server.ReadTimeout,
			WriteTimeout:      a.cfg.Server.WriteTimeout,
			IdleTimeout:       a.cfg.Server.IdleTimeout,
		}
		tree.AddAPIService(services.NewHTTPServerService(srv, a.cfg.Server.ShutdownTimeout, a.logger))
	}
	return tree, nil
}
