// OreWatch - Anti X-Ray Mining Heuristics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/orewatch

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/tomtom215/orewatch/internal/validation"
)

// gcScheduleParser matches cron.WithSeconds, which the store GC job uses.
var gcScheduleParser = cron.NewParser(
	cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// Validate checks the loaded configuration. Struct tags are checked first,
// then the cross-field rules. Heuristic thresholds are never rejected here:
// HeuristicsConfig.Table falls back to defaults for invalid values.
func (c *Config) Validate() error {
	if verr := validation.ValidateStruct(c); verr != nil {
		return fmt.Errorf("invalid configuration: %w", verr)
	}

	if err := c.validateNATS(); err != nil {
		return err
	}

	if err := c.validateEnforcement(); err != nil {
		return err
	}

	if err := c.validateServer(); err != nil {
		return err
	}

	return c.validateSupervisor()
}

func (c *Config) validateNATS() error {
	if c.NATS.EmbeddedServer && c.NATS.StoreDir == "" {
		return fmt.Errorf("NATS_STORE_DIR is required when NATS_EMBEDDED=true")
	}
	if c.NATS.RouterPoisonQueueEnabled && c.NATS.RouterPoisonQueueTopic == "" {
		return fmt.Errorf("NATS_ROUTER_POISON_TOPIC is required when the poison queue is enabled")
	}
	if c.NATS.RouterRetryCount > 0 && c.NATS.RouterRetryInitialInterval <= 0 {
		return fmt.Errorf("NATS_ROUTER_RETRY_INTERVAL must be positive when retries are enabled")
	}
	if c.NATS.AckWait < time.Second {
		return fmt.Errorf("NATS_ACK_WAIT must be at least 1s, got %v", c.NATS.AckWait)
	}
	return nil
}

func (c *Config) validateEnforcement() error {
	if c.Enforcement.Webhook.URL != "" && c.Enforcement.Webhook.Timeout <= 0 {
		return fmt.Errorf("WEBHOOK_TIMEOUT must be positive when WEBHOOK_URL is set")
	}
	if c.Enforcement.StorePath != "" {
		if err := validateDirParent(c.Enforcement.StorePath); err != nil {
			return fmt.Errorf("OFFENDER_STORE_PATH is invalid: %w", err)
		}
		if _, err := gcScheduleParser.Parse(c.Enforcement.StoreGCSchedule); err != nil {
			return fmt.Errorf("OFFENDER_GC_SCHEDULE is invalid: %w", err)
		}
	}
	return nil
}

func (c *Config) validateServer() error {
	if c.Server.RateLimitRequests > 0 && c.Server.RateLimitWindow <= 0 {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be positive when RATE_LIMIT_REQUESTS is set")
	}
	return nil
}

func (c *Config) validateSupervisor() error {
	if c.Supervisor.ShutdownTimeout <= 0 {
		return fmt.Errorf("SUPERVISOR_SHUTDOWN_TIMEOUT must be positive, got %v", c.Supervisor.ShutdownTimeout)
	}
	return nil
}

// validateDirParent rejects paths whose parent exists but is not a
// directory. A missing parent is fine; badger creates it.
func validateDirParent(path string) error {
	parent := filepath.Dir(filepath.Clean(path))
	info, err := os.Stat(parent)
	if err != nil {
		return nil
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", parent)
	}
	return nil
}
