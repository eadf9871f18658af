// OreWatch - Anti X-Ray Mining Heuristics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/orewatch

/*
Package websocket serves the live enforcement feed.

Every enforcement signal the dispatcher delivers to the feed notifier is
broadcast to connected clients as:

	{"type":"enforcement","data":{"player":"Steve","suspicion":104.5,...}}

Clients may send {"type":"ping"} and receive {"type":"pong"}; anything else
they send is ignored.

Architecture:

	┌──────────────┐
	│     Hub      │ ← BroadcastSignal from enforcement.FeedNotifier
	└──────┬───────┘
	       │
	┌──────┴───┬─────────┬─────────┐
	│ Client1  │ Client2 │ Client3 │
	└──────────┴─────────┴─────────┘

Each client runs a readPump and a writePump goroutine. A client whose send
buffer fills is disconnected rather than slowing the hub.

The hub is supervised: RunWithContext returns when its context ends and
closes all clients.

	hub := websocket.NewHub()
	go hub.RunWithContext(ctx)
	r.Get("/api/v1/feed", hub.ServeWS)
*/
package websocket
