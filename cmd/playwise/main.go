// Playwise - Mood-Aware Game Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/playwise

// Package main is the entry point for the playwise command.
//
// Playwise ranks a game library against the mood a player declares and the
// persona learned from their history. The same binary runs the long-lived
// service and a handful of offline tools:
//
//	playwise serve                      # supervisor tree: HTTP API, health monitor, consumers
//	playwise recommend --user u1 --mood cozy --session short
//	playwise replay --user u1 --events history.jsonl
//	playwise profile --user u1
//
// # Configuration
//
// Configuration is loaded via koanf v2 with layered sources (highest priority wins):
//   - Environment variables (PLAYWISE_*)
//   - Config file (--config, CONFIG_PATH, ./config.yaml, /etc/playwise/config.yaml)
//   - Built-in defaults
//
// # Signal Handling
//
// serve shuts down gracefully on SIGINT and SIGTERM: the supervisor stops the
// HTTP listener and consumers, then the event bus and store are closed.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// rootOptions are the persistent flags shared by every command.
type rootOptions struct {
	configPath string
	logLevel   string
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "playwise",
		Short: "Mood-aware game recommendations",
		Long: `playwise recommends games from a library based on the mood a player
declares right now and a persona learned from their past selections,
launches, ratings and recommendation outcomes.`,
		Version:       version + " (" + commit + ", " + date + ")",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "path to a YAML config file")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "override logging.level")

	root.AddCommand(
		newServeCommand(opts),
		newRecommendCommand(opts),
		newReplayCommand(opts),
		newProfileCommand(opts),
	)
	return root
}

func main() {
	root := newRootCommand()
	if err := root.Execute(); err != nil {
		root.PrintErrln("Error:", err)
		os.Exit(1)
	}
}
