// OreWatch - Anti X-Ray Mining Heuristics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/orewatch

package heuristics

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Fixed heuristics that are not operator tunable.
const (
	// MaxSuspicionDecreaseProportion is the decay applied per sweep to the
	// fastest miners.
	MaxSuspicionDecreaseProportion = -10.0

	// MinSuspicionDecreaseProportion is the decay applied per sweep to the
	// slowest miners before the absolute floor.
	MinSuspicionDecreaseProportion = -0.1

	// AbsoluteMinimumSuspicionDecrease bounds decay magnitude from below so
	// slow miners still converge to zero.
	AbsoluteMinimumSuspicionDecrease = -3.0

	// MinAccountableWindow and MaxAccountableWindow bound the projected
	// time to mine 30 blocks.
	MinAccountableWindow = 0 * time.Millisecond
	MaxAccountableWindow = 20000 * time.Millisecond

	// accountableBlocks is the block count the accountable window covers.
	accountableBlocks = 30

	// rareOreAmplifier multiplies rare ore weights found too early.
	rareOreAmplifier = 1.5
)

// Thresholds are the scalar tuning knobs of the engine and sweeper.
type Thresholds struct {
	// MinimumBlocksToNextVein is the non-ore streak an ore must follow to
	// be scored.
	MinimumBlocksToNextVein int `json:"minimum_blocks_to_next_vein"`

	// AdjacencyRadius merges same-type ore within this distance into one vein.
	AdjacencyRadius float64 `json:"adjacency_radius"`

	// AlertThreshold is the suspicion level above which enforcement fires.
	AlertThreshold float64 `json:"alert_threshold"`

	// SweepInterval is the decay period.
	SweepInterval time.Duration `json:"sweep_interval"`

	// EvictionStreak is the number of consecutive zero-suspicion sweeps
	// after which a session is evicted.
	EvictionStreak int `json:"eviction_streak"`

	// GoldBiomeDivisor and EmeraldBiomeDivisor reduce scored weight in
	// biomes where those ores are common. Values <= 0 disable the reduction.
	GoldBiomeDivisor    float64 `json:"gold_biome_divisor"`
	EmeraldBiomeDivisor float64 `json:"emerald_biome_divisor"`
}

// DefaultThresholds returns the thresholds shipped with OreWatch.
func DefaultThresholds() Thresholds {
	return Thresholds{
		MinimumBlocksToNextVein: 4,
		AdjacencyRadius:         3,
		AlertThreshold:          100,
		SweepInterval:           15 * time.Second,
		EvictionStreak:          20,
		GoldBiomeDivisor:        3,
		EmeraldBiomeDivisor:     3,
	}
}

// UsualEncounterThreshold is the streak below which rare ores are
// considered found "too soon".
func (t Thresholds) UsualEncounterThreshold() int {
	return t.MinimumBlocksToNextVein * 4
}

// StreakDecay is the (negative) change applied to every non-ore streak
// per sweep.
func (t Thresholds) StreakDecay() int {
	return -int(math.Ceil(float64(t.MinimumBlocksToNextVein) / 4))
}

// DefaultWeights returns the ore weights shipped with OreWatch.
func DefaultWeights() map[WeightKey]float64 {
	return map[WeightKey]float64{
		WeightCoal:          2,
		WeightRedstone:      4,
		WeightIron:          4,
		WeightGold:          12,
		WeightLapis:         12,
		WeightDiamond:       24,
		WeightEmerald:       24,
		WeightCopper:        1,
		WeightQuartz:        2,
		WeightNetherGold:    2,
		WeightAncientDebris: 40,
	}
}

// WeightTable is an immutable snapshot of weights and thresholds.
type WeightTable struct {
	Thresholds
	weights map[WeightKey]float64
	filler  map[Material]struct{}
}

// NewWeightTable builds a table. Missing ore keys are disabled.
func NewWeightTable(th Thresholds, weights map[WeightKey]float64, filler []Material) *WeightTable {
	t := &WeightTable{
		Thresholds: th,
		weights:    make(map[WeightKey]float64, len(weights)),
		filler:     make(map[Material]struct{}, len(filler)),
	}
	for k, w := range weights {
		if w > 0 && !math.IsInf(w, 0) {
			t.weights[k] = w
		}
	}
	for _, m := range filler {
		if IsBase(m) {
			continue
		}
		if _, ore := OreKey(m); ore {
			continue
		}
		t.filler[m] = struct{}{}
	}
	return t
}

// DefaultWeightTable returns a table of the shipped defaults.
func DefaultWeightTable() *WeightTable {
	return NewWeightTable(DefaultThresholds(), DefaultWeights(), DefaultFillerMaterials)
}

// Weight returns the weight for k, 0 when disabled.
func (t *WeightTable) Weight(k WeightKey) float64 {
	return t.weights[k]
}

// Categorize resolves the scoring role of m. Ores with a zero weight are
// irrelevant.
func (t *WeightTable) Categorize(m Material) (Category, WeightKey) {
	if IsBase(m) {
		return CategoryBase, ""
	}
	if k, ok := OreKey(m); ok {
		if t.Weight(k) == 0 {
			return CategoryIrrelevant, k
		}
		return CategoryOre, k
	}
	if _, ok := t.filler[m]; ok {
		return CategoryFiller, ""
	}
	return CategoryIrrelevant, ""
}

// biomeDivisor returns the divisor for ore k in biome b, or 1.
func (t *WeightTable) biomeDivisor(k WeightKey, b Biome) float64 {
	if !favoredBiome(k, b) {
		return 1
	}
	var d float64
	switch k {
	case WeightGold:
		d = t.GoldBiomeDivisor
	case WeightEmerald:
		d = t.EmeraldBiomeDivisor
	}
	if d <= 0 {
		return 1
	}
	return d
}

// WeightProvider supplies the current weight table. Implementations must
// be safe for concurrent use and return a non-nil table.
type WeightProvider interface {
	Table() *WeightTable
}

// StaticWeights is a WeightProvider that never changes.
type StaticWeights struct {
	table *WeightTable
}

// NewStaticWeights wraps t. A nil table falls back to the defaults.
func NewStaticWeights(t *WeightTable) *StaticWeights {
	if t == nil {
		t = DefaultWeightTable()
	}
	return &StaticWeights{table: t}
}

// Table returns the wrapped table.
func (s *StaticWeights) Table() *WeightTable {
	return s.table
}

// WeightError reports one weight that could not be used.
type WeightError struct {
	Key    string
	Reason string
}

func (e *WeightError) Error() string {
	return fmt.Sprintf("weight %q disabled: %s", e.Key, e.Reason)
}

// ParseWeights converts raw configuration values into ore weights.
// Invalid entries are dropped and reported; they never abort parsing, so
// a bad value disables only its own ore. Keys are matched case
// insensitively and may use the legacy "DiamondWeight" spelling.
func ParseWeights(raw map[string]any) (map[WeightKey]float64, []error) {
	known := make(map[string]WeightKey, len(AllWeightKeys))
	for _, k := range AllWeightKeys {
		known[string(k)] = k
		known[strings.ReplaceAll(string(k), "_", "")+"weight"] = k
	}

	weights := make(map[WeightKey]float64, len(raw))
	var errs []error
	for name, v := range raw {
		key, ok := known[strings.ToLower(name)]
		if !ok {
			errs = append(errs, &WeightError{Key: name, Reason: "unknown ore"})
			continue
		}
		w, err := toWeight(v)
		if err != nil {
			errs = append(errs, &WeightError{Key: name, Reason: err.Error()})
			continue
		}
		weights[key] = w
	}

	for _, k := range AllWeightKeys {
		if _, ok := weights[k]; !ok && !hasRawKey(raw, k) {
			errs = append(errs, &WeightError{Key: string(k), Reason: "missing"})
		}
	}
	return weights, errs
}

func hasRawKey(raw map[string]any, k WeightKey) bool {
	legacy := strings.ReplaceAll(string(k), "_", "") + "weight"
	for name := range raw {
		n := strings.ToLower(name)
		if n == string(k) || n == legacy {
			return true
		}
	}
	return false
}

func toWeight(v any) (float64, error) {
	var w float64
	switch x := v.(type) {
	case float64:
		w = x
	case float32:
		w = float64(x)
	case int:
		w = float64(x)
	case int64:
		w = float64(x)
	case int32:
		w = float64(x)
	case uint64:
		w = float64(x)
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return 0, fmt.Errorf("not a number: %q", x)
		}
		w = f
	case nil:
		return 0, fmt.Errorf("empty value")
	default:
		return 0, fmt.Errorf("unsupported type %T", v)
	}
	if math.IsNaN(w) || math.IsInf(w, 0) {
		return 0, fmt.Errorf("not finite")
	}
	if w < 0 {
		return 0, fmt.Errorf("negative weight %v", w)
	}
	return w, nil
}
