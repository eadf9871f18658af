// OreWatch - Anti X-Ray Mining Heuristics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/orewatch

package config

import (
	"fmt"
	"math"

	"github.com/tomtom215/orewatch/internal/heuristics"
)

// ThresholdError reports a scalar threshold that was replaced by its default.
type ThresholdError struct {
	Field    string
	Value    any
	Fallback any
}

func (e *ThresholdError) Error() string {
	return fmt.Sprintf("heuristics.%s: invalid value %v, using default %v", e.Field, e.Value, e.Fallback)
}

// Thresholds converts the section into engine thresholds. Invalid values
// fall back to the shipped defaults and are reported.
func (h HeuristicsConfig) Thresholds() (heuristics.Thresholds, []error) {
	def := heuristics.DefaultThresholds()
	th := heuristics.Thresholds{
		MinimumBlocksToNextVein: h.MinimumBlocksToNextVein,
		AdjacencyRadius:         h.AdjacencyRadius,
		AlertThreshold:          h.AlertThreshold,
		SweepInterval:           h.SweepInterval,
		EvictionStreak:          h.EvictionStreak,
		GoldBiomeDivisor:        h.GoldBiomeDivisor,
		EmeraldBiomeDivisor:     h.EmeraldBiomeDivisor,
	}

	var errs []error
	if th.MinimumBlocksToNextVein < 0 {
		errs = append(errs, &ThresholdError{"minimum_blocks_to_next_vein", th.MinimumBlocksToNextVein, def.MinimumBlocksToNextVein})
		th.MinimumBlocksToNextVein = def.MinimumBlocksToNextVein
	}
	if th.AdjacencyRadius < 0 || math.IsNaN(th.AdjacencyRadius) || math.IsInf(th.AdjacencyRadius, 0) {
		errs = append(errs, &ThresholdError{"adjacency_radius", th.AdjacencyRadius, def.AdjacencyRadius})
		th.AdjacencyRadius = def.AdjacencyRadius
	}
	if th.AlertThreshold <= 0 || math.IsNaN(th.AlertThreshold) || math.IsInf(th.AlertThreshold, 0) {
		errs = append(errs, &ThresholdError{"alert_threshold", th.AlertThreshold, def.AlertThreshold})
		th.AlertThreshold = def.AlertThreshold
	}
	if th.SweepInterval <= 0 {
		errs = append(errs, &ThresholdError{"sweep_interval", th.SweepInterval, def.SweepInterval})
		th.SweepInterval = def.SweepInterval
	}
	if th.EvictionStreak < 1 {
		errs = append(errs, &ThresholdError{"eviction_streak", th.EvictionStreak, def.EvictionStreak})
		th.EvictionStreak = def.EvictionStreak
	}
	// Non-positive divisors are a documented way to disable the reduction.
	// Infinite ones would zero the weight, so they disable it too.
	if math.IsNaN(th.GoldBiomeDivisor) {
		th.GoldBiomeDivisor = 0
	}
	if math.IsInf(th.GoldBiomeDivisor, 0) {
		errs = append(errs, &ThresholdError{"gold_biome_divisor", th.GoldBiomeDivisor, 0.0})
		th.GoldBiomeDivisor = 0
	}
	if math.IsNaN(th.EmeraldBiomeDivisor) {
		th.EmeraldBiomeDivisor = 0
	}
	if math.IsInf(th.EmeraldBiomeDivisor, 0) {
		errs = append(errs, &ThresholdError{"emerald_biome_divisor", th.EmeraldBiomeDivisor, 0.0})
		th.EmeraldBiomeDivisor = 0
	}
	return th, errs
}

// Filler returns the normalized filler material list.
func (h HeuristicsConfig) Filler() []heuristics.Material {
	out := make([]heuristics.Material, 0, len(h.FillerMaterials))
	for _, m := range h.FillerMaterials {
		if n := heuristics.NormalizeMaterial(m); n != "" {
			out = append(out, n)
		}
	}
	return out
}

// Table builds the engine weight table. The returned errors are
// informational: every problem has already been resolved by disabling the
// ore or falling back to a default threshold.
func (h HeuristicsConfig) Table() (*heuristics.WeightTable, []error) {
	th, errs := h.Thresholds()
	weights, werrs := heuristics.ParseWeights(h.Weights)
	errs = append(errs, werrs...)
	return heuristics.NewWeightTable(th, weights, h.Filler()), errs
}
