// OreWatch - Anti X-Ray Mining Heuristics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/orewatch

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tomtom215/orewatch/internal/api"
	"github.com/tomtom215/orewatch/internal/config"
	"github.com/tomtom215/orewatch/internal/enforcement"
	"github.com/tomtom215/orewatch/internal/heuristics"
	"github.com/tomtom215/orewatch/internal/logging"
	"github.com/tomtom215/orewatch/internal/supervisor"
	"github.com/tomtom215/orewatch/internal/supervisor/services"
	ws "github.com/tomtom215/orewatch/internal/websocket"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Caller:    cfg.Logging.Caller,
		Timestamp: true,
		Output:    os.Stderr,
	})

	logging.Info().Msg("Starting OreWatch...")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		FailureThreshold: cfg.Supervisor.FailureThreshold,
		FailureDecay:     cfg.Supervisor.FailureDecay,
		FailureBackoff:   cfg.Supervisor.FailureBackoff,
		ShutdownTimeout:  cfg.Supervisor.ShutdownTimeout,
	})
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create supervisor tree")
	}

	// === ENFORCEMENT ===

	offenders, err := enforcement.OpenOffenderStore(cfg.Enforcement.StorePath)
	if err != nil {
		logging.Fatal().Err(err).Str("path", cfg.Enforcement.StorePath).Msg("Failed to open offender store")
	}
	defer func() {
		if err := offenders.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing offender store")
		}
	}()
	if cfg.Enforcement.StorePath == "" {
		logging.Warn().Msg("Offender store is in memory, records will not survive a restart")
	}

	gc, err := enforcement.NewGCScheduler(offenders, cfg.Enforcement.StoreGCSchedule, cfg.Enforcement.StoreGCDiscardRatio)
	if err != nil {
		logging.Fatal().Err(err).Str("schedule", cfg.Enforcement.StoreGCSchedule).Msg("Invalid offender store GC schedule")
	}

	hub := ws.NewHub()
	dispatcher := initDispatcher(cfg, offenders, hub)

	// === HEURISTICS ===

	configPath := config.ConfigFile()
	watcher := config.NewWeightWatcher(configPath, cfg.Heuristics)

	engine := heuristics.NewEngine(heuristics.NewRegistry(), watcher, dispatcher)
	engine.SetEnabled(cfg.Heuristics.Enabled)
	watcher.OnReload(func(h config.HeuristicsConfig) {
		engine.SetEnabled(h.Enabled)
	})
	if !cfg.Heuristics.Enabled {
		logging.Warn().Msg("Heuristics disabled, block-break events will be ignored")
	}

	sweeper := heuristics.NewSweeper(engine.Registry(), watcher)

	// === MESSAGING ===

	messaging, err := initNATS(ctx, cfg, engine)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize NATS")
	}

	// === HTTP API ===

	var feed api.Feed
	if cfg.Server.FeedEnabled {
		feed = hub
	}
	handler := api.NewHandler(engine, offenders, feed)
	handler.AddReadinessCheck("ingest", func(context.Context) error {
		if !messaging.router.IsRunning() {
			return errors.New("ingest router not running")
		}
		return nil
	})
	handler.AddReadinessCheck("nats", messaging.Ready)

	router := api.NewRouter(handler, api.MiddlewareConfig{
		RateLimitRequests: cfg.Server.RateLimitRequests,
		RateLimitWindow:   cfg.Server.RateLimitWindow,
		RateLimitDisabled: cfg.Server.RateLimitRequests == 0,
	})

	server := &http.Server{
		Addr:              cfg.Server.ListenAddr,
		Handler:           router.SetupChi(),
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       60 * time.Second,
	}

	// === ADD SERVICES TO SUPERVISOR TREE ===

	tree.AddCoreService(services.NewContextService("", sweeper))
	tree.AddCoreService(services.NewContextService("", watcher))
	tree.AddCoreService(services.NewContextService("", gc))
	if cfg.Server.FeedEnabled {
		tree.AddCoreService(services.NewContextService("", hub))
	}
	logging.Info().
		Dur("sweep_interval", cfg.Heuristics.SweepInterval).
		Str("config_file", configPath).
		Msg("Core services added to supervisor tree")

	tree.AddMessagingService(services.NewContextService("", messaging.router))
	logging.Info().Str("subject", cfg.NATS.Subject).Msg("Ingest router added to supervisor tree")

	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Supervisor.ShutdownTimeout))
	logging.Info().Str("addr", server.Addr).Msg("HTTP server service added")

	// === START SUPERVISOR TREE ===

	logging.Info().Msg("Starting supervisor tree...")
	errCh := tree.ServeBackground(ctx)

	// The channel receives exactly one value and is never closed.
	var treeErr error
	select {
	case <-ctx.Done():
		logging.Info().Msg("Shutdown signal received, waiting for supervisor to finish...")
		treeErr = <-errCh
	case treeErr = <-errCh:
		stop()
	}
	if treeErr != nil && !errors.Is(treeErr, context.Canceled) {
		logging.Error().Err(treeErr).Msg("Supervisor tree error")
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	if len(unstopped) > 0 {
		logging.Warn().Int("count", len(unstopped)).Msg("Services failed to stop within timeout")
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("Service failed to stop")
		}
	}

	// Pending deliveries still reach the offender store, so the store
	// closes (deferred) after the dispatcher drains.
	dispatcher.Stop()
	stats := dispatcher.Stats()
	logging.Info().
		Int64("delivered", stats.Delivered).
		Int64("failed", stats.Failed).
		Int64("dropped", stats.Dropped).
		Msg("Enforcement dispatcher stopped")

	messaging.Close(cfg.Supervisor.ShutdownTimeout)

	logging.Info().Msg("OreWatch stopped gracefully")
}

// initDispatcher builds the enforcement dispatcher and its notifiers.
func initDispatcher(cfg *config.Config, offenders *enforcement.OffenderStore, hub *ws.Hub) *enforcement.Dispatcher {
	dcfg := enforcement.DefaultDispatcherConfig()
	dcfg.Workers = cfg.Enforcement.Workers
	dcfg.QueueSize = cfg.Enforcement.QueueSize

	dispatcher := enforcement.NewDispatcher(dcfg, enforcement.NewOffenderSink(offenders))

	if cfg.Enforcement.LogSignals {
		dispatcher.AddNotifier(enforcement.NewLogNotifier())
	}

	if cfg.Enforcement.Webhook.URL != "" {
		dispatcher.AddNotifier(enforcement.NewWebhookNotifier(enforcement.WebhookConfig{
			URL:           cfg.Enforcement.Webhook.URL,
			Headers:       cfg.Enforcement.Webhook.Headers,
			Timeout:       cfg.Enforcement.Webhook.Timeout,
			RatePerSecond: cfg.Enforcement.Webhook.RatePerSecond,
			Burst:         cfg.Enforcement.Webhook.Burst,
		}))
		logging.Info().Str("url", cfg.Enforcement.Webhook.URL).Msg("Webhook notifier registered")
	}

	if cfg.Server.FeedEnabled {
		dispatcher.AddNotifier(enforcement.NewFeedNotifier(hub))
	}

	logging.Info().
		Int("workers", dcfg.Workers).
		Strs("notifiers", dispatcher.Notifiers()).
		Msg("Enforcement dispatcher initialized")
	return dispatcher
}
