// OreWatch - Anti X-Ray Mining Heuristics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/orewatch

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/tomtom215/orewatch/internal/heuristics"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()

	if cfg.Heuristics.AlertThreshold != 100 {
		t.Errorf("AlertThreshold = %v, want 100", cfg.Heuristics.AlertThreshold)
	}
	if cfg.Heuristics.SweepInterval != 15*time.Second {
		t.Errorf("SweepInterval = %v, want 15s", cfg.Heuristics.SweepInterval)
	}
	if cfg.Heuristics.EvictionStreak != 20 {
		t.Errorf("EvictionStreak = %d, want 20", cfg.Heuristics.EvictionStreak)
	}
	if len(cfg.Heuristics.Weights) != len(heuristics.AllWeightKeys) {
		t.Errorf("default weights = %d entries, want %d", len(cfg.Heuristics.Weights), len(heuristics.AllWeightKeys))
	}
	if cfg.NATS.Subject != "orewatch.blocks.>" {
		t.Errorf("NATS.Subject = %q", cfg.NATS.Subject)
	}
	if cfg.NATS.RouterPoisonQueueTopic != "orewatch.poison" {
		t.Errorf("poison topic = %q", cfg.NATS.RouterPoisonQueueTopic)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestLoadFile_Defaults(t *testing.T) {
	cfg, err := LoadFile("")
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.Server.ListenAddr != ":8080" {
		t.Errorf("ListenAddr = %q, want :8080", cfg.Server.ListenAddr)
	}
	table, problems := cfg.Heuristics.Table()
	if len(problems) != 0 {
		t.Errorf("default heuristics problems: %v", problems)
	}
	if got := table.Weight(heuristics.WeightDiamond); got != 24 {
		t.Errorf("diamond weight = %v, want 24", got)
	}
}

func TestLoadFile_YAMLOverrides(t *testing.T) {
	path := writeConfig(t, `
logging:
  level: debug
heuristics:
  alert_threshold: 150
  sweep_interval: 5s
  weights:
    diamond: 30
    coal: 0
  filler_materials: [dirt, minecraft:gravel]
server:
  listen_addr: "127.0.0.1:9090"
`)

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want debug", cfg.Logging.Level)
	}
	if cfg.Server.ListenAddr != "127.0.0.1:9090" {
		t.Errorf("ListenAddr = %q", cfg.Server.ListenAddr)
	}

	table, _ := cfg.Heuristics.Table()
	if table.AlertThreshold != 150 {
		t.Errorf("AlertThreshold = %v, want 150", table.AlertThreshold)
	}
	if table.SweepInterval != 5*time.Second {
		t.Errorf("SweepInterval = %v, want 5s", table.SweepInterval)
	}
	if got := table.Weight(heuristics.WeightDiamond); got != 30 {
		t.Errorf("diamond = %v, want 30", got)
	}
	if got := table.Weight(heuristics.WeightGold); got != 12 {
		t.Errorf("gold should keep its default, got %v", got)
	}
	if cat, _ := table.Categorize("coal_ore"); cat != heuristics.CategoryIrrelevant {
		t.Errorf("coal with weight 0 should be irrelevant, got %v", cat)
	}
	if cat, _ := table.Categorize("gravel"); cat != heuristics.CategoryFiller {
		t.Errorf("gravel should be filler, got %v", cat)
	}
	if cat, _ := table.Categorize("sand"); cat != heuristics.CategoryIrrelevant {
		t.Errorf("sand was not listed and should be irrelevant, got %v", cat)
	}
}

func TestLoadFile_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "heuristics:\n  alert_threshold: 150\n")
	t.Setenv("ALERT_THRESHOLD", "175")
	t.Setenv("OREWATCH_WEIGHT_EMERALD", "33")
	t.Setenv("FILLER_MATERIALS", "dirt, clay")

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	table, _ := cfg.Heuristics.Table()
	if table.AlertThreshold != 175 {
		t.Errorf("AlertThreshold = %v, want 175", table.AlertThreshold)
	}
	if got := table.Weight(heuristics.WeightEmerald); got != 33 {
		t.Errorf("emerald = %v, want 33", got)
	}
	if cat, _ := table.Categorize("clay"); cat != heuristics.CategoryFiller {
		t.Errorf("clay should be filler, got %v", cat)
	}
	if cat, _ := table.Categorize("gravel"); cat != heuristics.CategoryIrrelevant {
		t.Errorf("gravel should not be filler, got %v", cat)
	}
}

func TestLoadFile_StrictSectionsRejected(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"bad log level", "logging:\n  level: loud\n"},
		{"bad nats url", "nats:\n  url: http://localhost:4222\n"},
		{"zero workers", "enforcement:\n  workers: 0\n"},
		{"bad webhook url", "enforcement:\n  webhook:\n    url: not-a-url\n"},
		{"bad gc schedule", "enforcement:\n  store_gc_schedule: every tuesday\n"},
		{"bad listen addr", "server:\n  listen_addr: nowhere\n"},
		{"embedded without store", "nats:\n  embedded_server: true\n  store_dir: \"\"\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := LoadFile(writeConfig(t, tt.yaml)); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestLoadFile_LenientHeuristics(t *testing.T) {
	path := writeConfig(t, `
heuristics:
  alert_threshold: -5
  eviction_streak: 0
  gold_biome_divisor: 0
  weights:
    diamond: lots
    emerald: -1
`)
	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("heuristic problems must not fail loading: %v", err)
	}

	table, problems := cfg.Heuristics.Table()
	if len(problems) != 4 {
		t.Errorf("got %d problems, want 4: %v", len(problems), problems)
	}
	if table.AlertThreshold != 100 {
		t.Errorf("AlertThreshold fallback = %v, want 100", table.AlertThreshold)
	}
	if table.EvictionStreak != 20 {
		t.Errorf("EvictionStreak fallback = %d, want 20", table.EvictionStreak)
	}
	if table.GoldBiomeDivisor != 0 {
		t.Errorf("GoldBiomeDivisor = %v, want 0 (disabled, not an error)", table.GoldBiomeDivisor)
	}
	if table.Weight(heuristics.WeightDiamond) != 0 || table.Weight(heuristics.WeightEmerald) != 0 {
		t.Error("invalid weights should disable their ores")
	}
}

func TestEnvTransformFunc(t *testing.T) {
	tests := []struct {
		key  string
		want string
	}{
		{"LOG_LEVEL", "logging.level"},
		{"NATS_URL", "nats.url"},
		{"WEBHOOK_URL", "enforcement.webhook.url"},
		{"OREWATCH_WEIGHT_ANCIENT_DEBRIS", "heuristics.weights.ancient_debris"},
		{"OREWATCH_WEIGHT_", ""},
		{"HOME", ""},
	}
	for _, tt := range tests {
		if got := envTransformFunc(tt.key); got != tt.want {
			t.Errorf("envTransformFunc(%q) = %q, want %q", tt.key, got, tt.want)
		}
	}
}

func TestFindConfigFile_EnvPath(t *testing.T) {
	path := writeConfig(t, "logging:\n  level: warn\n")
	t.Setenv(ConfigPathEnvVar, path)
	if got := ConfigFile(); got != path {
		t.Errorf("ConfigFile() = %q, want %q", got, path)
	}
}
