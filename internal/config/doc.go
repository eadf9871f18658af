// OreWatch - Anti X-Ray Mining Heuristics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/orewatch

// Package config loads OreWatch configuration with koanf v2.
//
// Sources are layered defaults, then an optional YAML file, then
// environment variables. The file is found through CONFIG_PATH or
// DefaultConfigPaths.
//
// Example config.yaml:
//
//	heuristics:
//	  alert_threshold: 100
//	  minimum_blocks_to_next_vein: 4
//	  weights:
//	    diamond: 24
//	    ancient_debris: 40
//	  filler_materials: [dirt, gravel, sand]
//	nats:
//	  url: nats://127.0.0.1:4222
//	  embedded_server: true
//	enforcement:
//	  webhook:
//	    url: https://hooks.example.com/orewatch
//
// Environment overrides use flat names (LOG_LEVEL, NATS_URL, WEBHOOK_URL,
// ALERT_THRESHOLD, ...). Individual ore weights are set with
// OREWATCH_WEIGHT_<KEY>, for example OREWATCH_WEIGHT_DIAMOND=30.
//
// Heuristics are lenient: a bad weight disables that ore and a bad
// threshold falls back to its default, both with a warning. Every other
// section is validated strictly and Load fails on errors.
//
// WeightWatcher hot-reloads the heuristics section when the file changes.
package config
