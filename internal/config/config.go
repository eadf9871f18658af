// OreWatch - Anti X-Ray Mining Heuristics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/orewatch

package config

import (
	"time"
)

// Config holds all OreWatch configuration.
//
// Loading order (koanf v2), later sources override earlier ones:
//  1. Defaults from defaultConfig()
//  2. Optional YAML file (CONFIG_PATH or one of DefaultConfigPaths)
//  3. Environment variables (see envTransformFunc)
//
// Example:
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal("failed to load config:", err)
//	}
//	table, problems := cfg.Heuristics.Table()
type Config struct {
	Logging     LoggingConfig     `koanf:"logging"`
	Heuristics  HeuristicsConfig  `koanf:"heuristics"`
	NATS        NATSConfig        `koanf:"nats"`
	Enforcement EnforcementConfig `koanf:"enforcement"`
	Server      ServerConfig      `koanf:"server"`
	Supervisor  SupervisorConfig  `koanf:"supervisor"`
}

// LoggingConfig holds zerolog settings.
type LoggingConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn error fatal panic disabled"`
	Format string `koanf:"format" validate:"oneof=json console"`
	Caller bool   `koanf:"caller"`
}

// HeuristicsConfig is the scoring section. It is also what WeightWatcher
// re-reads on file changes.
type HeuristicsConfig struct {
	// Enabled turns classification on. A disabled engine no-ops every event.
	Enabled bool `koanf:"enabled"`

	MinimumBlocksToNextVein int           `koanf:"minimum_blocks_to_next_vein"`
	AdjacencyRadius         float64       `koanf:"adjacency_radius"`
	AlertThreshold          float64       `koanf:"alert_threshold"`
	SweepInterval           time.Duration `koanf:"sweep_interval"`
	EvictionStreak          int           `koanf:"eviction_streak"`
	GoldBiomeDivisor        float64       `koanf:"gold_biome_divisor"`
	EmeraldBiomeDivisor     float64       `koanf:"emerald_biome_divisor"`

	// Weights maps weight keys (coal, diamond, ...) to raw values. Values
	// are parsed leniently: invalid entries disable their ore.
	Weights map[string]any `koanf:"weights"`

	// FillerMaterials are the non-base blocks that still count toward the
	// non-ore streak.
	FillerMaterials []string `koanf:"filler_materials"`
}

// NATSConfig configures the block-break transport.
type NATSConfig struct {
	URL            string `koanf:"url" validate:"required,natsurl"`
	EmbeddedServer bool   `koanf:"embedded_server"`
	StoreDir       string `koanf:"store_dir"`
	MaxMemory      int64  `koanf:"max_memory" validate:"gte=0"`
	MaxStore       int64  `koanf:"max_store" validate:"gte=0"`

	StreamName       string        `koanf:"stream_name" validate:"required"`
	Subject          string        `koanf:"subject" validate:"required"`
	StreamRetention  time.Duration `koanf:"stream_retention"`
	DurableName      string        `koanf:"durable_name" validate:"required"`
	QueueGroup       string        `koanf:"queue_group"`
	SubscribersCount int           `koanf:"subscribers_count" validate:"gte=1,lte=64"`
	AckWait          time.Duration `koanf:"ack_wait"`
	MaxDeliver       int           `koanf:"max_deliver" validate:"gte=1"`
	ReconnectWait    time.Duration `koanf:"reconnect_wait"`
	MaxReconnects    int           `koanf:"max_reconnects"`

	RouterRetryCount           int           `koanf:"router_retry_count" validate:"gte=0"`
	RouterRetryInitialInterval time.Duration `koanf:"router_retry_initial_interval"`
	RouterThrottlePerSecond    int           `koanf:"router_throttle_per_second" validate:"gte=0"`
	RouterPoisonQueueEnabled   bool          `koanf:"router_poison_queue_enabled"`
	RouterPoisonQueueTopic     string        `koanf:"router_poison_queue_topic"`
	RouterCloseTimeout         time.Duration `koanf:"router_close_timeout"`
}

// EnforcementConfig configures signal delivery and offender records.
type EnforcementConfig struct {
	Workers    int  `koanf:"workers" validate:"gte=1,lte=256"`
	QueueSize  int  `koanf:"queue_size" validate:"gte=0"`
	LogSignals bool `koanf:"log_signals"`

	Webhook WebhookConfig `koanf:"webhook"`

	// StorePath is the badger directory for offender records. Empty keeps
	// records in memory only.
	StorePath           string  `koanf:"store_path"`
	StoreGCSchedule     string  `koanf:"store_gc_schedule"`
	StoreGCDiscardRatio float64 `koanf:"store_gc_discard_ratio" validate:"gt=0,lt=1"`
}

// WebhookConfig configures the optional HTTP enforcement sink.
type WebhookConfig struct {
	URL           string            `koanf:"url" validate:"omitempty,url"`
	Headers       map[string]string `koanf:"headers"`
	Timeout       time.Duration     `koanf:"timeout"`
	RatePerSecond float64           `koanf:"rate_per_second" validate:"gte=0"`
	Burst         int               `koanf:"burst" validate:"gte=0"`
}

// ServerConfig configures the operational HTTP API.
type ServerConfig struct {
	ListenAddr        string        `koanf:"listen_addr" validate:"required,hostname_port"`
	ReadTimeout       time.Duration `koanf:"read_timeout"`
	WriteTimeout      time.Duration `koanf:"write_timeout"`
	RateLimitRequests int           `koanf:"rate_limit_requests" validate:"gte=0"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	FeedEnabled       bool          `koanf:"feed_enabled"`
}

// SupervisorConfig mirrors suture's tuning knobs.
type SupervisorConfig struct {
	FailureThreshold float64       `koanf:"failure_threshold" validate:"gt=0"`
	FailureDecay     float64       `koanf:"failure_decay" validate:"gt=0"`
	FailureBackoff   time.Duration `koanf:"failure_backoff"`
	ShutdownTimeout  time.Duration `koanf:"shutdown_timeout"`
}

// Load reads configuration from defaults, the optional config file and
// the environment.
func Load() (*Config, error) {
	return LoadWithKoanf()
}
