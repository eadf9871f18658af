// OreWatch - Anti X-Ray Mining Heuristics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/orewatch

// Package ingest moves block-break events from NATS JetStream into the
// suspicion engine using Watermill.
//
// # Flow
//
//	┌──────────────┐    ┌─────────────────────┐    ┌──────────────┐
//	│ game server  │───▶│   NATS JetStream    │───▶│ ingest.Router│
//	│ (publisher)  │    │  OREWATCH_BLOCKS    │    │  + Handler   │
//	└──────────────┘    └─────────────────────┘    └──────┬───────┘
//	                                                      │
//	                                                      ▼
//	                                             heuristics.Engine.Classify
//
// Events are JSON documents on orewatch.blocks.<player>:
//
//	{"player":"Steve","material":"diamond_ore","x":10,"y":-58,"z":33,
//	 "biome":"plains","timestamp":"2026-01-02T15:04:05Z","bypass":false}
//
// # Delivery
//
// The router stacks Recoverer, PoisonQueue, Retry and Throttle middleware.
// Payloads that can never be classified are acked and counted by the
// Handler. Transient failures are retried, then diverted to the poison
// subject (orewatch.poison) when a poison publisher is configured.
//
// # Embedded Server
//
// For single-node deployments StartEmbeddedServer runs an in-process
// JetStream server and EnsureStream provisions the stream:
//
//	srv, err := ingest.StartEmbeddedServer(ingest.DefaultServerConfig("/data/nats"))
//	if err != nil {
//	    return err
//	}
//	defer srv.Shutdown(ctx)
package ingest
