// OreWatch - Anti X-Ray Mining Heuristics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/orewatch

// Package logging provides centralized zerolog-based logging for OreWatch.
//
// A single global logger is configured once with Init and accessed through
// the level helpers:
//
//	logging.Init(logging.Config{Level: "info", Format: "json"})
//	logging.Info().Str("player", p).Msg("Session opened")
//	logging.Error().Err(err).Msg("Webhook delivery failed")
//
// Ctx adds correlation and request IDs stored in a context. NewSlogLogger
// bridges log/slog users such as sutureslog, and NewWatermillLogger adapts
// the logger to watermill.LoggerAdapter, so every library writes through
// the same zerolog output.
//
// Always terminate log chains with .Msg() or .Send(); an unterminated
// event is never written.
package logging
