// Playwise - Mood-Aware Game Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/playwise

package eventbus

import (
	"fmt"
	"time"

	"github.com/nats-io/nats-server/v2/server"
)

// embeddedReadyTimeout bounds how long New waits for the in-process server.
const embeddedReadyTimeout = 10 * time.Second

// embeddedServer is an in-process NATS server for single-node deployments
// that still want the nats backend.
type embeddedServer struct {
	ns *server.Server
}

func startEmbedded(cfg *EmbeddedConfig) (*embeddedServer, error) {
	opts := &server.Options{
		ServerName: "playwise-events",
		Host:       cfg.Host,
		Port:       cfg.Port,
		MaxPayload: 1 << 20,
		NoLog:      true,
		NoSigs:     true,
	}

	ns, err := server.NewServer(opts)
	if err != nil {
		return nil, fmt.Errorf("create embedded nats server: %w", err)
	}
	go ns.Start()

	if !ns.ReadyForConnections(embeddedReadyTimeout) {
		ns.Shutdown()
		return nil, fmt.Errorf("embedded nats server not ready within %s", embeddedReadyTimeout)
	}
	return &embeddedServer{ns: ns}, nil
}

func (s *embeddedServer) ClientURL() string { return s.ns.ClientURL() }

func (s *embeddedServer) Shutdown() {
	s.ns.Shutdown()
	s.ns.WaitForShutdown()
}
