// OreWatch - Anti X-Ray Mining Heuristics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/orewatch

// Package enforcement delivers suspicion signals raised by the heuristics
// engine.
//
// The Dispatcher implements heuristics.Enforcer. Enforce returns at once
// and hands one task per enabled Notifier to a bounded pond pool; when the
// queue is full the delivery is dropped and counted rather than blocking
// classification. Delivery is at most once and unordered.
//
// Notifiers:
//   - LogNotifier: structured warn log per signal
//   - WebhookNotifier: JSON POST behind x/time/rate and a gobreaker breaker
//   - OffenderSink: folds signals into the badger-backed OffenderStore
//   - FeedNotifier: forwards to a Broadcaster (the websocket feed hub)
//
// OffenderStore keeps one record per player (offense count, first and
// last offense, last suspicion). GCScheduler runs badger value-log GC on a
// robfig/cron schedule.
//
// Example:
//
//	store, _ := enforcement.OpenOffenderStore("/data/offenders")
//	d := enforcement.NewDispatcher(enforcement.DefaultDispatcherConfig(),
//	    enforcement.NewLogNotifier(),
//	    enforcement.NewOffenderSink(store),
//	)
//	defer d.Stop()
//	engine := heuristics.NewEngine(registry, weights, d)
package enforcement
