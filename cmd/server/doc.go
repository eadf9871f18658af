// OreWatch - Anti X-Ray Mining Heuristics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/orewatch

/*
Package main is the entry point for the OreWatch server.

OreWatch consumes block-break events from game servers over NATS JetStream,
scores each player's mining against an ore-finding heuristic and signals
enforcement when a player's suspicion crosses the alert threshold.

# Application Architecture

The server runs under a Suture v4 supervisor tree:

	RootSupervisor ("orewatch")
	├── CoreSupervisor ("core-layer")
	│   ├── Decay sweeper
	│   ├── Feed hub (websocket)
	│   ├── Weight watcher (config file reloads)
	│   └── Offender store GC (cron)
	├── MessagingSupervisor ("messaging-layer")
	│   └── Ingest router (watermill over JetStream)
	└── APISupervisor ("api-layer")
	    └── HTTP server

Component initialization order:

 1. Configuration: Koanf v2 with defaults, config file and environment
 2. Logging: zerolog with the configured level and format
 3. Offender store: BadgerDB plus its GC schedule
 4. Feed hub and enforcement dispatcher with its notifiers
 5. Weight watcher, heuristics engine and decay sweeper
 6. Embedded NATS server (optional) and the block stream
 7. Ingest router with retry and poison queue middleware
 8. HTTP API with health, metrics and session management routes

# Configuration

Configuration is read from config.yaml (or CONFIG_PATH) and environment
variables. The most commonly changed settings:

	NATS_URL                NATS server URL (default nats://127.0.0.1:4222)
	NATS_EMBEDDED           Run an in-process JetStream server (default true)
	ALERT_THRESHOLD         Suspicion that triggers enforcement (default 100)
	SWEEP_INTERVAL          Decay sweep period (default 15s)
	OREWATCH_WEIGHT_DIAMOND Per-ore weight override
	WEBHOOK_URL             Optional enforcement webhook
	OFFENDER_STORE_PATH     Offender store directory (empty for memory)
	HTTP_LISTEN_ADDR        HTTP API address (default :8080)
	LOG_LEVEL               trace, debug, info, warn or error

Changes to the heuristics section of the config file are applied without a
restart. Other sections are read once at startup.

# Signal Handling

SIGINT and SIGTERM stop the supervisor tree, drain pending enforcement
deliveries, close the offender store and shut down the embedded NATS
server, in that order.
*/
package main
