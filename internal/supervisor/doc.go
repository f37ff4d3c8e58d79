// Playwise - Mood-Aware Game Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/playwise

/*
Package supervisor runs the long-lived parts of the engine under a suture v4
supervisor tree.

# Overview

	RootSupervisor ("playwise")
	├── MaintenanceSupervisor ("maintenance-layer")
	│   ├── HealthMonitorService   periodic health snapshots
	│   └── JanitorService         expired cache entry cleanup
	├── MessagingSupervisor ("messaging-layer")
	│   └── ConsumerService        action.recorded -> aggregator counts (bus enabled)
	└── APISupervisor ("api-layer")
	    └── HTTPServerService      ops and API endpoints (server enabled)

A crash in one layer restarts only that layer's services; the API keeps
serving while a consumer backs off.

# Logging

Supervisor events (start, failure, backoff, restart) go through sutureslog
into the zerolog stream via logging.NewSlogLogger.

# Usage

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	tree.AddMaintenanceService(services.NewHealthMonitorService(svc, 5*time.Minute, logger))
	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second, logger))
	err = tree.Serve(ctx)
*/
package supervisor
