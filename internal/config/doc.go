// Playwise - Mood-Aware Game Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/playwise

/*
Package config loads Playwise configuration.

# Configuration Sources

Load layers three sources with koanf, later layers winning:

 1. Built-in defaults (each component's DefaultConfig)
 2. An optional YAML file: the explicit path, then CONFIG_PATH, then
    config.yaml, config.yml, /etc/playwise/config.yaml
 3. Environment variables listed in the mapping table below

Unlisted environment variables are ignored.

# Sections

  - logging: level, format, caller
  - store: backend (memory, badger, duckdb, sqlite), path, timeout, breaker
  - normalizer: aggressiveness, default_times, infer_moods
  - context: persona context thresholds
  - scoring: weights, default persona weight, limits, response cache
  - learning: learning-rate prior, confidence curve, retries
  - observability: rolling window, slow-op detection, health thresholds
  - eventbus: backend (none, gochannel, nats) and NATS settings
  - server: ops HTTP listener
  - library: library file path
  - recommendations: last-known-good fallback cache

# Environment Variables

A selection; see envMappings for the full table.

  - PLAYWISE_LOG_LEVEL, PLAYWISE_LOG_FORMAT
  - PLAYWISE_STORE_BACKEND, PLAYWISE_STORE_PATH, PLAYWISE_STORE_TIMEOUT
  - PLAYWISE_NORMALIZER_AGGRESSIVENESS, PLAYWISE_NORMALIZER_DEFAULT_TIMES (comma-separated)
  - PLAYWISE_PERSONA_WEIGHT, PLAYWISE_SCORING_CACHE_TTL
  - PLAYWISE_EVENTBUS_BACKEND, PLAYWISE_NATS_URL
  - PLAYWISE_HTTP_HOST, PLAYWISE_HTTP_PORT
  - PLAYWISE_LIBRARY_PATH

# Hot Reload

WatchConfigFile calls back on file changes; the serve command uses it to
apply new log levels and scoring weights without a restart.
*/
package config
