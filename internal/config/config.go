// Playwise - Mood-Aware Game Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/playwise

package config

import (
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/tomtom215/playwise/internal/eventbus"
	"github.com/tomtom215/playwise/internal/learning"
	"github.com/tomtom215/playwise/internal/library"
	"github.com/tomtom215/playwise/internal/logging"
	"github.com/tomtom215/playwise/internal/observability"
	"github.com/tomtom215/playwise/internal/persona"
	"github.com/tomtom215/playwise/internal/recommend"
	"github.com/tomtom215/playwise/internal/signal"
	"github.com/tomtom215/playwise/internal/store"
	"github.com/tomtom215/playwise/internal/supervisor"
)

// Config is the complete application configuration.
type Config struct {
	Logging         LoggingConfig         `koanf:"logging"`
	Store           store.Config          `koanf:"store"`
	Normalizer      NormalizerConfig      `koanf:"normalizer"`
	Context         persona.Options       `koanf:"context"`
	Scoring         recommend.Config      `koanf:"scoring"`
	Learning        learning.Config       `koanf:"learning"`
	Observability   observability.Config  `koanf:"observability"`
	EventBus        eventbus.Config       `koanf:"eventbus"`
	Server          ServerConfig          `koanf:"server"`
	Library         library.Config        `koanf:"library"`
	Recommendations RecommendationsConfig `koanf:"recommendations"`
	Supervisor      supervisor.TreeConfig `koanf:"supervisor"`
}

// LoggingConfig holds logger settings.
type LoggingConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn error fatal panic disabled"`
	Format string `koanf:"format" validate:"oneof=json console"`
	Caller bool   `koanf:"caller"`

	// Components overrides the level per component: store, library,
	// recommend, learning, observability, eventbus, service.
	Components map[string]string `koanf:"components"`
}

// Logging converts to the logging package configuration.
func (c LoggingConfig) Logging() logging.Config {
	return logging.Config{
		Level:      c.Level,
		Format:     c.Format,
		Caller:     c.Caller,
		Timestamp:  true,
		Components: c.Components,
	}
}

// NormalizerConfig holds the signal normalizer options in their textual form.
type NormalizerConfig struct {
	Aggressiveness float64  `koanf:"aggressiveness" validate:"gte=0,lte=1"`
	DefaultTimes   []string `koanf:"default_times"`
	InferMoods     bool     `koanf:"infer_moods"`
}

// Options parses the configured times into signal.Options.
func (c NormalizerConfig) Options() (signal.Options, error) {
	opts := signal.Options{
		Aggressiveness: c.Aggressiveness,
		InferMoods:     c.InferMoods,
	}
	for _, s := range c.DefaultTimes {
		t, err := signal.ParseTimeOfDay(s)
		if err != nil {
			return signal.Options{}, fmt.Errorf("normalizer.default_times: %w", err)
		}
		opts.DefaultTimes = append(opts.DefaultTimes, t)
	}
	return opts, opts.Validate()
}

// ServerConfig configures the operational HTTP listener.
type ServerConfig struct {
	// Enabled starts the listener under serve. Default: true.
	Enabled bool `koanf:"enabled"`

	Host string `koanf:"host"`
	Port int    `koanf:"port" validate:"min=1,max=65535"`

	ReadTimeout     time.Duration `koanf:"read_timeout" validate:"gt=0"`
	WriteTimeout    time.Duration `koanf:"write_timeout" validate:"gt=0"`
	IdleTimeout     time.Duration `koanf:"idle_timeout" validate:"gt=0"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" validate:"gt=0"`

	// RateLimitRequests per RateLimitWindow per client IP on /api/v1.
	// 0 disables the limiter. Default: 300 per minute.
	RateLimitRequests int           `koanf:"rate_limit_requests" validate:"gte=0"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window" validate:"gt=0"`

	// CORSAllowedOrigins enables CORS for these origins. Default: none.
	CORSAllowedOrigins []string `koanf:"cors_allowed_origins"`
}

// Addr returns host:port.
func (c ServerConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// RecommendationsConfig tunes the service-level fallback path.
type RecommendationsConfig struct {
	// LastKnownGoodEntries bounds the per-user fallback LRU. Default: 1024.
	LastKnownGoodEntries int `koanf:"last_known_good_entries" validate:"min=1"`

	// LastKnownGoodTTL is how long a fallback ranking may be served. Default: 24h.
	LastKnownGoodTTL time.Duration `koanf:"last_known_good_ttl" validate:"gt=0"`

	// OutcomeTTL is how long a served ranking accepts an outcome. Default: 6h.
	OutcomeTTL time.Duration `koanf:"outcome_ttl" validate:"gt=0"`

	// CleanupInterval is how often expired rankings are dropped. Default: 10m.
	CleanupInterval time.Duration `koanf:"cleanup_interval" validate:"gt=0"`
}

// defaultConfig returns a Config with every section at its component default.
func defaultConfig() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Store: store.DefaultConfig(),
		Normalizer: NormalizerConfig{
			Aggressiveness: 0.5,
			DefaultTimes:   []string{string(signal.Evening)},
			InferMoods:     true,
		},
		Context:       persona.DefaultOptions(),
		Scoring:       *recommend.DefaultConfig(),
		Learning:      learning.DefaultConfig(),
		Observability: observability.DefaultConfig(),
		EventBus:      eventbus.DefaultConfig(),
		Server: ServerConfig{
			Enabled:           true,
			Host:              "0.0.0.0",
			Port:              3858,
			ReadTimeout:       10 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       120 * time.Second,
			ShutdownTimeout:   10 * time.Second,
			RateLimitRequests: 300,
			RateLimitWindow:   time.Minute,
		},
		Recommendations: RecommendationsConfig{
			LastKnownGoodEntries: 1024,
			LastKnownGoodTTL:     24 * time.Hour,
			OutcomeTTL:           6 * time.Hour,
			CleanupInterval:      10 * time.Minute,
		},
		Supervisor: supervisor.DefaultTreeConfig(),
	}
}

// Default returns the built-in configuration.
func Default() *Config {
	return defaultConfig()
}
