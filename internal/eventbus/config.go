// Playwise - Mood-Aware Game Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/playwise

package eventbus

import (
	"fmt"
	"time"
)

// Backends.
const (
	BackendNone      = "none"
	BackendGoChannel = "gochannel"
	BackendNATS      = "nats"
)

// Config selects and tunes the bus backend.
type Config struct {
	// Backend is none, gochannel or nats. Default: gochannel.
	Backend string `koanf:"backend" validate:"oneof=none gochannel nats"`

	// BufferSize is the gochannel per-subscriber output buffer. Default: 256.
	BufferSize int64 `koanf:"buffer_size" validate:"gte=0"`

	NATS NATSConfig `koanf:"nats"`
}

// NATSConfig configures the NATS backend.
type NATSConfig struct {
	// URL of the NATS server. Default: nats://127.0.0.1:4222.
	URL string `koanf:"url"`

	// QueueGroup load-balances subscribers across instances. Default: playwise.
	QueueGroup string `koanf:"queue_group"`

	// SubscribersCount is the number of parallel subscriptions per topic. Default: 1.
	SubscribersCount int `koanf:"subscribers_count" validate:"gte=1"`

	// MaxReconnects. Default: -1 (forever).
	MaxReconnects int `koanf:"max_reconnects"`

	// ReconnectWait. Default: 2s.
	ReconnectWait time.Duration `koanf:"reconnect_wait"`

	// AckWaitTimeout. Default: 30s.
	AckWaitTimeout time.Duration `koanf:"ack_wait_timeout"`

	// CloseTimeout. Default: 30s.
	CloseTimeout time.Duration `koanf:"close_timeout"`

	// Embedded runs a NATS server inside the process; URL is then ignored.
	Embedded EmbeddedConfig `koanf:"embedded"`
}

// EmbeddedConfig configures the in-process NATS server.
type EmbeddedConfig struct {
	Enabled bool   `koanf:"enabled"`
	Host    string `koanf:"host"`

	// Port to listen on. -1 picks a random free port. Default: 4222.
	Port int `koanf:"port" validate:"gte=-1,lte=65535"`
}

// DefaultConfig returns the in-process defaults.
func DefaultConfig() Config {
	return Config{
		Backend:    BackendGoChannel,
		BufferSize: 256,
		NATS: NATSConfig{
			URL:              "nats://127.0.0.1:4222",
			QueueGroup:       "playwise",
			SubscribersCount: 1,
			MaxReconnects:    -1,
			ReconnectWait:    2 * time.Second,
			AckWaitTimeout:   30 * time.Second,
			CloseTimeout:     30 * time.Second,
			Embedded: EmbeddedConfig{
				Host: "127.0.0.1",
				Port: 4222,
			},
		},
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendNone, BackendGoChannel:
	case BackendNATS:
		if c.NATS.URL == "" && !c.NATS.Embedded.Enabled {
			return fmt.Errorf("eventbus.nats.url is required for the nats backend")
		}
		if c.NATS.SubscribersCount < 1 {
			return fmt.Errorf("eventbus.nats.subscribers_count must be positive, got %d", c.NATS.SubscribersCount)
		}
	default:
		return fmt.Errorf("unknown eventbus backend %q", c.Backend)
	}
	if c.BufferSize < 0 {
		return fmt.Errorf("eventbus.buffer_size must be non-negative, got %d", c.BufferSize)
	}
	return nil
}
