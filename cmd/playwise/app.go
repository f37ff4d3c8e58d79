// Playwise - Mood-Aware Game Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/playwise

package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/tomtom215/playwise/internal/config"
	"github.com/tomtom215/playwise/internal/eventbus"
	"github.com/tomtom215/playwise/internal/learning"
	"github.com/tomtom215/playwise/internal/library"
	"github.com/tomtom215/playwise/internal/logging"
	"github.com/tomtom215/playwise/internal/observability"
	"github.com/tomtom215/playwise/internal/recommend"
	"github.com/tomtom215/playwise/internal/service"
	"github.com/tomtom215/playwise/internal/signal"
	"github.com/tomtom215/playwise/internal/store"
)

// app is the fully wired component graph behind every command.
type app struct {
	cfg    *config.Config
	logger zerolog.Logger

	store      *store.Resilient
	library    *library.Memory
	engine     *recommend.Engine
	loop       *learning.Loop
	aggregator *observability.Aggregator
	bus        *eventbus.Bus
	svc        *service.Service
}

// newApp loads configuration and builds the component graph. Logs go to
// logOut so command output on stdout stays machine readable.
func newApp(opts *rootOptions, logOut io.Writer) (*app, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, err
	}
	if opts.logLevel != "" {
		cfg.Logging.Level = opts.logLevel
	}

	logCfg := cfg.Logging.Logging()
	logCfg.Output = logOut
	logging.Init(logCfg)
	logger := logging.Logger()

	a := &app{cfg: cfg, logger: logger}
	if err := a.wire(); err != nil {
		return nil, errors.Join(err, a.Close())
	}
	return a, nil
}

//nolint:gocyclo // sequential wiring steps
func (a *app) wire() error {
	cfg := a.cfg

	inner, err := store.Open(cfg.Store)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	backend := cfg.Store.Backend
	if backend == "" {
		backend = store.BackendMemory
	}
	a.store = store.NewResilient(inner, backend, cfg.Store, logging.LevelFor(a.logger, "store"))

	normOpts, err := cfg.Normalizer.Options()
	if err != nil {
		return err
	}
	a.library, err = library.Open(cfg.Library, signal.NewNormalizer(normOpts), logging.LevelFor(a.logger, "library"))
	if err != nil {
		return fmt.Errorf("open library: %w", err)
	}

	a.engine, err = recommend.NewEngine(&cfg.Scoring, logging.LevelFor(a.logger, "recommend"))
	if err != nil {
		return fmt.Errorf("create engine: %w", err)
	}

	a.loop, err = learning.NewLoop(a.store, cfg.Learning, logging.LevelFor(a.logger, "learning"), learning.WithItemLookup(a.library))
	if err != nil {
		return fmt.Errorf("create learning loop: %w", err)
	}

	a.aggregator, err = observability.New(cfg.Observability, logging.LevelFor(a.logger, "observability"))
	if err != nil {
		return fmt.Errorf("create aggregator: %w", err)
	}

	a.bus, err = eventbus.New(cfg.EventBus, logging.LevelFor(a.logger, "eventbus"))
	if err != nil {
		return fmt.Errorf("create event bus: %w", err)
	}

	a.svc, err = service.New(service.Deps{
		Store:      a.store,
		Library:    a.library,
		Engine:     a.engine,
		Loop:       a.loop,
		Aggregator: a.aggregator,
		Breaker:    a.store,
		Bus:        a.bus,
	}, service.Config{
		Context:              cfg.Context,
		LastKnownGoodEntries: cfg.Recommendations.LastKnownGoodEntries,
		LastKnownGoodTTL:     cfg.Recommendations.LastKnownGoodTTL,
		ServedTTL:            cfg.Recommendations.OutcomeTTL,
	}, logging.LevelFor(a.logger, "service"))
	if err != nil {
		return fmt.Errorf("create service: %w", err)
	}

	a.logger.Info().
		Str("store", backend).
		Str("eventbus", a.bus.Backend()).
		Str("library", cfg.Library.Path).
		Msg("components initialized")
	return nil
}

// reload re-reads the config file and applies the settings that can change
// at runtime: the log level and the scoring configuration.
func (a *app) reload(path string) {
	cfg, err := config.Load(path)
	if err != nil {
		a.logger.Warn().Err(err).Str("path", path).Msg("config reload rejected")
		return
	}
	if err := logging.SetLevelString(cfg.Logging.Level); err != nil {
		a.logger.Warn().Err(err).Msg("log level reload rejected")
	}
	if err := a.engine.UpdateConfig(&cfg.Scoring); err != nil {
		a.logger.Warn().Err(err).Msg("scoring config reload rejected")
		return
	}
	a.logger.Info().Str("path", path).Msg("configuration reloaded")
}

// Close releases the event bus and the store.
func (a *app) Close() error {
	var errs []error
	if a.bus != nil {
		if err := a.bus.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close event bus: %w", err))
		}
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close store: %w", err))
		}
	}
	return errors.Join(errs...)
}

// writeJSON prints v as indented JSON.
func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
