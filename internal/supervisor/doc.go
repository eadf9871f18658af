// OreWatch - Anti X-Ray Mining Heuristics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/orewatch

/*
Package supervisor provides process supervision for OreWatch using suture v4.

# Overview

Services are grouped into three layers for failure isolation:

	RootSupervisor ("orewatch")
	├── CoreSupervisor ("core-layer")
	│   ├── decay-sweeper
	│   ├── feed-hub
	│   ├── weight-watcher (when a config file is in use)
	│   └── offender-gc
	├── MessagingSupervisor ("messaging-layer")
	│   └── ingest-router
	└── APISupervisor ("api-layer")
	    └── http-server

A NATS outage makes the ingest router fail and restart with backoff while
the core layer keeps decaying sessions and the API stays up.

# Logging

Supervisor events go through sutureslog into the zerolog-backed slog
handler from internal/logging:

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())

# Shutdown

Cancel the context passed to Serve. Each service gets ShutdownTimeout to
return; stragglers are listed by UnstoppedServiceReport.
*/
package supervisor
