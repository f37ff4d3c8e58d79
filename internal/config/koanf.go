// Playwise - Mood-Aware Game Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/playwise

package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths searched for a config file, in order.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/playwise/config.yaml",
	"/etc/playwise/config.yml",
}

// ConfigPathEnvVar overrides the config file search.
const ConfigPathEnvVar = "CONFIG_PATH"

const envPrefix = "PLAYWISE_"

// Load builds the configuration from defaults, the YAML file at path (or the
// first one found when path is empty) and PLAYWISE_* environment variables.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path == "" {
		path = findConfigFile()
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// FilePath returns path, or the file Load would read when path is empty.
// The result is empty when no file exists.
func FilePath(path string) string {
	if path != "" {
		return path
	}
	return findConfigFile()
}

// findConfigFile returns CONFIG_PATH when it exists, else the first existing
// default path, else "".
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// sliceConfigPaths are split on commas when they arrive as a single string.
var sliceConfigPaths = []string{
	"normalizer.default_times",
	"server.cors_allowed_origins",
}

func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok {
			continue
		}
		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if err := k.Set(path, trimmed); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

// envMappings maps lower-cased variable names, without the PLAYWISE_ prefix,
// to koanf paths.
var envMappings = map[string]string{
	// Logging
	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",

	// Store
	"store_backend":                   "store.backend",
	"store_path":                      "store.path",
	"store_timeout":                   "store.timeout",
	"store_breaker_failure_threshold": "store.breaker.failure_threshold",
	"store_breaker_open_timeout":      "store.breaker.open_timeout",
	"store_breaker_half_open":         "store.breaker.half_open_requests",
	"store_breaker_interval":          "store.breaker.interval",

	// Normalizer
	"normalizer_aggressiveness": "normalizer.aggressiveness",
	"normalizer_default_times":  "normalizer.default_times",
	"normalizer_infer_moods":    "normalizer.infer_moods",

	// Persona context
	"context_top_moods":           "context.top_moods",
	"context_short_session_below": "context.short_session_below",
	"context_long_session_above":  "context.long_session_above",

	// Scoring
	"persona_weight":                "scoring.default_persona_weight",
	"scoring_weight_mood":           "scoring.weights.mood",
	"scoring_weight_session_length": "scoring.weights.session_length",
	"scoring_weight_time_of_day":    "scoring.weights.time_of_day",
	"scoring_weight_play_pattern":   "scoring.weights.play_pattern",
	"scoring_default_limit":         "scoring.limits.default_limit",
	"scoring_max_candidates":        "scoring.limits.max_candidates",
	"scoring_parallelism":           "scoring.limits.parallelism",
	"scoring_cache_enabled":         "scoring.cache.enabled",
	"scoring_cache_ttl":             "scoring.cache.ttl",
	"scoring_cache_max_entries":     "scoring.cache.max_entries",

	// Learning
	"learning_prior_strength":       "learning.prior_strength",
	"learning_confidence_half_life": "learning.confidence_half_life",
	"learning_outcome_rate":         "learning.outcome_rate",
	"learning_max_retries":          "learning.max_retries",
	"learning_prediction_lookback":  "learning.prediction_lookback",

	// Observability
	"observability_window":            "observability.window",
	"observability_slow_threshold":    "observability.slow_threshold",
	"observability_slow_percentile":   "observability.slow_percentile",
	"observability_snapshot_interval": "observability.snapshot_interval",

	// Event bus
	"eventbus_backend":     "eventbus.backend",
	"eventbus_buffer_size": "eventbus.buffer_size",
	"nats_url":             "eventbus.nats.url",
	"nats_queue_group":     "eventbus.nats.queue_group",
	"nats_subscribers":     "eventbus.nats.subscribers_count",
	"nats_embedded":        "eventbus.nats.embedded.enabled",
	"nats_embedded_port":   "eventbus.nats.embedded.port",

	// Server
	"http_enabled":          "server.enabled",
	"http_host":             "server.host",
	"http_port":             "server.port",
	"http_read_timeout":     "server.read_timeout",
	"http_write_timeout":    "server.write_timeout",
	"http_shutdown_timeout": "server.shutdown_timeout",
	"http_rate_limit":       "server.rate_limit_requests",
	"http_cors_origins":     "server.cors_allowed_origins",

	// Library
	"library_path": "library.path",

	// Recommendations fallback
	"lkg_entries": "recommendations.last_known_good_entries",
	"lkg_ttl":     "recommendations.last_known_good_ttl",
	"outcome_ttl": "recommendations.outcome_ttl",

	// Supervisor
	"supervisor_failure_threshold": "supervisor.failure_threshold",
	"supervisor_failure_backoff":   "supervisor.failure_backoff",
	"supervisor_shutdown_timeout":  "supervisor.shutdown_timeout",
}

// envTransformFunc maps PLAYWISE_HTTP_PORT to server.port and so on.
// Unmapped keys return "" and are skipped.
func envTransformFunc(key string) string {
	key = strings.TrimPrefix(strings.ToLower(key), strings.ToLower(envPrefix))
	return envMappings[key]
}

// WatchConfigFile calls callback whenever the file at path changes. The
// caller owns synchronization of whatever the callback swaps.
func WatchConfigFile(path string, callback func()) error {
	return file.Provider(path).Watch(func(_ interface{}, err error) {
		if err != nil {
			return
		}
		callback()
	})
}
