// OreWatch - Anti X-Ray Mining Heuristics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/orewatch

package heuristics

import "strings"

// Material is a lower-case block material tag such as "stone" or
// "deepslate_diamond_ore".
type Material string

// Biome is a lower-case biome tag such as "badlands".
type Biome string

// Category is the scoring role a material plays in a mining session.
type Category string

// Material categories
const (
	CategoryIrrelevant Category = "irrelevant"
	CategoryBase       Category = "base"
	CategoryOre        Category = "ore"
	CategoryFiller     Category = "filler"
)

// WeightKey names the configured weight shared by one ore family.
type WeightKey string

// Ore weight keys
const (
	WeightCoal          WeightKey = "coal"
	WeightRedstone      WeightKey = "redstone"
	WeightIron          WeightKey = "iron"
	WeightGold          WeightKey = "gold"
	WeightLapis         WeightKey = "lapis"
	WeightDiamond       WeightKey = "diamond"
	WeightEmerald       WeightKey = "emerald"
	WeightCopper        WeightKey = "copper"
	WeightQuartz        WeightKey = "quartz"
	WeightNetherGold    WeightKey = "nether_gold"
	WeightAncientDebris WeightKey = "ancient_debris"
)

// AllWeightKeys lists every ore weight key in catalog order.
var AllWeightKeys = []WeightKey{
	WeightCoal, WeightRedstone, WeightIron, WeightGold, WeightLapis,
	WeightDiamond, WeightEmerald, WeightCopper, WeightQuartz,
	WeightNetherGold, WeightAncientDebris,
}

// NormalizeMaterial lower-cases a material name and strips a namespace
// prefix such as "minecraft:".
func NormalizeMaterial(s string) Material {
	return Material(normalizeTag(s))
}

// NormalizeBiome lower-cases a biome name and strips a namespace prefix.
func NormalizeBiome(s string) Biome {
	return Biome(normalizeTag(s))
}

func normalizeTag(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if i := strings.LastIndexByte(s, ':'); i >= 0 {
		s = s[i+1:]
	}
	return s
}

var baseMaterials = map[Material]struct{}{
	"stone":      {},
	"deepslate":  {},
	"granite":    {},
	"diorite":    {},
	"andesite":   {},
	"tuff":       {},
	"netherrack": {},
	"basalt":     {},
	"blackstone": {},
}

var oreMaterials = map[Material]WeightKey{
	"coal_ore":               WeightCoal,
	"deepslate_coal_ore":     WeightCoal,
	"redstone_ore":           WeightRedstone,
	"deepslate_redstone_ore": WeightRedstone,
	"iron_ore":               WeightIron,
	"deepslate_iron_ore":     WeightIron,
	"gold_ore":               WeightGold,
	"deepslate_gold_ore":     WeightGold,
	"lapis_ore":              WeightLapis,
	"deepslate_lapis_ore":    WeightLapis,
	"diamond_ore":            WeightDiamond,
	"deepslate_diamond_ore":  WeightDiamond,
	"emerald_ore":            WeightEmerald,
	"deepslate_emerald_ore":  WeightEmerald,
	"copper_ore":             WeightCopper,
	"deepslate_copper_ore":   WeightCopper,
	"nether_quartz_ore":      WeightQuartz,
	"nether_gold_ore":        WeightNetherGold,
	"ancient_debris":         WeightAncientDebris,
}

// Rare ores are amplified when found sooner than the usual encounter
// threshold.
var rareOres = map[WeightKey]struct{}{
	WeightDiamond:       {},
	WeightEmerald:       {},
	WeightAncientDebris: {},
}

var goldBiomes = map[Biome]struct{}{
	"badlands":        {},
	"eroded_badlands": {},
}

var emeraldBiomes = map[Biome]struct{}{
	"windswept_hills":          {},
	"windswept_gravelly_hills": {},
	"windswept_forest":         {},
	"stony_peaks":              {},
	"frozen_peaks":             {},
	"grove":                    {},
	"snowy_slopes":             {},
	"jagged_peaks":             {},
}

// DefaultFillerMaterials are counted as digging but never open a session.
var DefaultFillerMaterials = []Material{
	"dirt", "coarse_dirt", "gravel", "sand", "clay", "soul_sand", "soul_soil",
}

// IsBase reports whether m opens and extends a mining session.
func IsBase(m Material) bool {
	_, ok := baseMaterials[m]
	return ok
}

// OreKey returns the weight key of an ore material.
func OreKey(m Material) (WeightKey, bool) {
	k, ok := oreMaterials[m]
	return k, ok
}

// IsRare reports whether ores of key k are amplified when found early.
func IsRare(k WeightKey) bool {
	_, ok := rareOres[k]
	return ok
}

// favoredBiome reports whether biome b naturally raises the frequency of
// ores weighted by k.
func favoredBiome(k WeightKey, b Biome) bool {
	switch k {
	case WeightGold:
		_, ok := goldBiomes[b]
		return ok
	case WeightEmerald:
		_, ok := emeraldBiomes[b]
		return ok
	default:
		return false
	}
}
