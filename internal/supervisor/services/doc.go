// OreWatch - Anti X-Ray Mining Heuristics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/orewatch

/*
Package services provides suture.Service wrappers for OreWatch components.

Two wrappers cover every supervised component:

ContextService wraps anything with RunWithContext(ctx) error: the decay
sweeper, the feed hub, the weight watcher, the offender store GC schedule
and the ingest router. Each of those returns ctx.Err() on shutdown and can
be restarted.

HTTPServerService translates http.Server's ListenAndServe/Shutdown pair
into Serve, draining connections for a bounded time on shutdown.

	tree.AddCoreService(services.NewContextService("", sweeper))
	tree.AddMessagingService(services.NewContextService("", router))
	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))
*/
package services
