// OreWatch - Anti X-Ray Mining Heuristics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/orewatch

/*
Package heuristics implements the suspicion-scoring engine that separates
legitimate tunneling from map-assisted ore targeting ("x-raying").

# Overview

Every block a player breaks is classified against a material catalog:

  - Base materials (stone family, netherrack, basalt...) open and extend a
    mining session: they grow the non-ore streak and feed the trail.
  - Ore materials are scored when they begin a new vein after enough
    non-ore digging. The score is the ore weight amplified by how straight
    the recent tunnel points at the ore.
  - Filler materials (dirt, gravel...) extend the streak like bases but
    never open a session.

A background Sweeper decays every session on a fixed period and evicts
sessions that have sat at zero suspicion for EvictionStreak cycles, so the
registry is bounded by the number of players actively mining.

# Concurrency

Sessions live in a Registry backed by xsync.Map. Each session carries its
own mutex; both Engine.Classify and Sweeper.Sweep mutate a session only
while holding it. Enforcement signals leave the engine through the
Enforcer interface and must not block.

# Usage

	registry := heuristics.NewRegistry()
	engine := heuristics.NewEngine(registry, weights, dispatcher)
	sweeper := heuristics.NewSweeper(registry, weights)

	outcome, err := engine.Classify(ctx, heuristics.BlockBreak{
	    Player:    "Steve",
	    Material:  heuristics.Material("stone"),
	    Location:  heuristics.Coordinate{X: 1, Y: 12, Z: 4},
	    Timestamp: time.Now(),
	})
*/
package heuristics
