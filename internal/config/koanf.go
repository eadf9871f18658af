// OreWatch - Anti X-Ray Mining Heuristics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/orewatch

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/tomtom215/orewatch/internal/heuristics"
)

// DefaultConfigPaths lists the config file locations searched in order.
// The first file found is used.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/orewatch/config.yaml",
	"/etc/orewatch/config.yml",
}

// ConfigPathEnvVar overrides the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// weightEnvPrefix maps OREWATCH_WEIGHT_<KEY> onto heuristics.weights.<key>.
const weightEnvPrefix = "orewatch_weight_"

// defaultConfig returns the built-in defaults. They are loaded first and
// overridden by the config file and environment.
func defaultConfig() *Config {
	th := heuristics.DefaultThresholds()

	weights := make(map[string]any, len(heuristics.AllWeightKeys))
	for k, w := range heuristics.DefaultWeights() {
		weights[string(k)] = w
	}
	filler := make([]string, 0, len(heuristics.DefaultFillerMaterials))
	for _, m := range heuristics.DefaultFillerMaterials {
		filler = append(filler, string(m))
	}

	return &Config{
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
		Heuristics: HeuristicsConfig{
			Enabled:                 true,
			MinimumBlocksToNextVein: th.MinimumBlocksToNextVein,
			AdjacencyRadius:         th.AdjacencyRadius,
			AlertThreshold:          th.AlertThreshold,
			SweepInterval:           th.SweepInterval,
			EvictionStreak:          th.EvictionStreak,
			GoldBiomeDivisor:        th.GoldBiomeDivisor,
			EmeraldBiomeDivisor:     th.EmeraldBiomeDivisor,
			Weights:                 weights,
			FillerMaterials:         filler,
		},
		NATS: NATSConfig{
			URL:                        "nats://127.0.0.1:4222",
			EmbeddedServer:             true,
			StoreDir:                   "/data/nats",
			MaxMemory:                  256 << 20,
			MaxStore:                   1 << 30,
			StreamName:                 "OREWATCH_BLOCKS",
			Subject:                    "orewatch.blocks.>",
			StreamRetention:            24 * time.Hour,
			DurableName:                "orewatch-engine",
			QueueGroup:                 "orewatch",
			SubscribersCount:           4,
			AckWait:                    30 * time.Second,
			MaxDeliver:                 5,
			ReconnectWait:              2 * time.Second,
			MaxReconnects:              -1,
			RouterRetryCount:           3,
			RouterRetryInitialInterval: 100 * time.Millisecond,
			RouterThrottlePerSecond:    0,
			RouterPoisonQueueEnabled:   true,
			RouterPoisonQueueTopic:     "orewatch.poison",
			RouterCloseTimeout:         30 * time.Second,
		},
		Enforcement: EnforcementConfig{
			Workers:    4,
			QueueSize:  1024,
			LogSignals: true,
			Webhook: WebhookConfig{
				Timeout:       10 * time.Second,
				RatePerSecond: 5,
				Burst:         10,
			},
			StorePath:           "/data/offenders",
			StoreGCSchedule:     "0 */10 * * * *",
			StoreGCDiscardRatio: 0.5,
		},
		Server: ServerConfig{
			ListenAddr:        ":8080",
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      15 * time.Second,
			RateLimitRequests: 120,
			RateLimitWindow:   time.Minute,
			FeedEnabled:       true,
		},
		Supervisor: SupervisorConfig{
			FailureThreshold: 5,
			FailureDecay:     30,
			FailureBackoff:   15 * time.Second,
			ShutdownTimeout:  10 * time.Second,
		},
	}
}

// LoadWithKoanf loads defaults, the discovered config file and the
// environment, then validates the result.
func LoadWithKoanf() (*Config, error) {
	return loadFrom(findConfigFile())
}

// LoadFile is LoadWithKoanf with an explicit config file path. An empty
// path skips the file layer.
func LoadFile(path string) (*Config, error) {
	return loadFrom(path)
}

func loadFrom(configPath string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile returns CONFIG_PATH if it exists, else the first
// existing entry of DefaultConfigPaths, else "".
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// ConfigFile reports the config file LoadWithKoanf would read.
func ConfigFile() string {
	return findConfigFile()
}

// sliceConfigPaths accept comma-separated strings from the environment.
var sliceConfigPaths = []string{
	"heuristics.filler_materials",
}

func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok || strVal == "" {
			continue
		}
		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if err := k.Set(path, trimmed); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

// envTransformFunc maps environment variable names onto koanf paths.
// Unmapped variables return "" and are skipped.
func envTransformFunc(key string) string {
	key = strings.ToLower(key)

	if strings.HasPrefix(key, weightEnvPrefix) {
		if weight := strings.TrimPrefix(key, weightEnvPrefix); weight != "" {
			return "heuristics.weights." + weight
		}
		return ""
	}

	envMappings := map[string]string{
		"log_level":  "logging.level",
		"log_format": "logging.format",
		"log_caller": "logging.caller",

		"heuristics_enabled":      "heuristics.enabled",
		"min_blocks_to_next_vein": "heuristics.minimum_blocks_to_next_vein",
		"adjacency_radius":        "heuristics.adjacency_radius",
		"alert_threshold":         "heuristics.alert_threshold",
		"sweep_interval":          "heuristics.sweep_interval",
		"eviction_streak":         "heuristics.eviction_streak",
		"gold_biome_divisor":      "heuristics.gold_biome_divisor",
		"emerald_biome_divisor":   "heuristics.emerald_biome_divisor",
		"filler_materials":        "heuristics.filler_materials",

		"nats_url":                   "nats.url",
		"nats_embedded":              "nats.embedded_server",
		"nats_store_dir":             "nats.store_dir",
		"nats_max_memory":            "nats.max_memory",
		"nats_max_store":             "nats.max_store",
		"nats_stream":                "nats.stream_name",
		"nats_subject":               "nats.subject",
		"nats_retention":             "nats.stream_retention",
		"nats_durable_name":          "nats.durable_name",
		"nats_queue_group":           "nats.queue_group",
		"nats_subscribers":           "nats.subscribers_count",
		"nats_ack_wait":              "nats.ack_wait",
		"nats_max_deliver":           "nats.max_deliver",
		"nats_router_retry_count":    "nats.router_retry_count",
		"nats_router_retry_interval": "nats.router_retry_initial_interval",
		"nats_router_throttle":       "nats.router_throttle_per_second",
		"nats_router_poison_enabled": "nats.router_poison_queue_enabled",
		"nats_router_poison_topic":   "nats.router_poison_queue_topic",
		"nats_router_close_timeout":  "nats.router_close_timeout",

		"enforcement_workers":    "enforcement.workers",
		"enforcement_queue_size": "enforcement.queue_size",
		"enforcement_log":        "enforcement.log_signals",
		"webhook_url":            "enforcement.webhook.url",
		"webhook_timeout":        "enforcement.webhook.timeout",
		"webhook_rate":           "enforcement.webhook.rate_per_second",
		"webhook_burst":          "enforcement.webhook.burst",
		"offender_store_path":    "enforcement.store_path",
		"offender_gc_schedule":   "enforcement.store_gc_schedule",

		"http_listen_addr":    "server.listen_addr",
		"http_read_timeout":   "server.read_timeout",
		"http_write_timeout":  "server.write_timeout",
		"rate_limit_requests": "server.rate_limit_requests",
		"rate_limit_window":   "server.rate_limit_window",
		"feed_enabled":        "server.feed_enabled",

		"supervisor_failure_threshold": "supervisor.failure_threshold",
		"supervisor_failure_decay":     "supervisor.failure_decay",
		"supervisor_failure_backoff":   "supervisor.failure_backoff",
		"supervisor_shutdown_timeout":  "supervisor.shutdown_timeout",
	}

	if mapped, ok := envMappings[key]; ok {
		return mapped
	}
	return ""
}
