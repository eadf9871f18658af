// OreWatch - Anti X-Ray Mining Heuristics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/orewatch

package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	natsgo "github.com/nats-io/nats.go"

	"github.com/tomtom215/orewatch/internal/config"
	"github.com/tomtom215/orewatch/internal/heuristics"
	"github.com/tomtom215/orewatch/internal/ingest"
	"github.com/tomtom215/orewatch/internal/logging"
)

// natsComponents holds the messaging side of the process. The router is
// owned by the supervisor tree; everything else is closed by Close.
type natsComponents struct {
	server *ingest.EmbeddedServer
	conn   *natsgo.Conn
	poison message.Publisher
	router *ingest.Router
}

// initNATS starts the embedded server (if configured), makes sure the
// block stream exists and builds the ingest router around engine.
func initNATS(ctx context.Context, cfg *config.Config, engine *heuristics.Engine) (*natsComponents, error) {
	nc := &natsComponents{}
	url := cfg.NATS.URL

	if cfg.NATS.EmbeddedServer {
		scfg := ingest.DefaultServerConfig(cfg.NATS.StoreDir)
		scfg.JetStreamMaxMem = cfg.NATS.MaxMemory
		scfg.JetStreamMaxStore = cfg.NATS.MaxStore
		srv, err := ingest.StartEmbeddedServer(scfg)
		if err != nil {
			return nil, fmt.Errorf("start embedded NATS server: %w", err)
		}
		nc.server = srv
		url = srv.ClientURL()
		logging.Info().Str("url", url).Str("store_dir", scfg.StoreDir).Msg("Embedded NATS server started")
	}

	conn, err := natsgo.Connect(url,
		natsgo.Name("orewatch-admin"),
		natsgo.MaxReconnects(cfg.NATS.MaxReconnects),
		natsgo.ReconnectWait(cfg.NATS.ReconnectWait),
	)
	if err != nil {
		nc.Close(5 * time.Second)
		return nil, fmt.Errorf("connect to NATS at %s: %w", url, err)
	}
	nc.conn = conn

	streamCfg := ingest.DefaultStreamConfig()
	streamCfg.Name = cfg.NATS.StreamName
	streamCfg.Subjects = []string{cfg.NATS.Subject}
	if cfg.NATS.RouterPoisonQueueEnabled && cfg.NATS.RouterPoisonQueueTopic != "" {
		streamCfg.Subjects = append(streamCfg.Subjects, cfg.NATS.RouterPoisonQueueTopic)
	}
	if cfg.NATS.StreamRetention > 0 {
		streamCfg.MaxAge = cfg.NATS.StreamRetention
	}

	streamCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	info, err := ingest.EnsureStream(streamCtx, conn, streamCfg)
	if err != nil {
		nc.Close(5 * time.Second)
		return nil, err
	}
	logging.Info().
		Str("stream", info.Config.Name).
		Strs("subjects", info.Config.Subjects).
		Uint64("messages", info.State.Msgs).
		Msg("Block stream ready")

	wmLogger := logging.NewWatermillLogger()

	if cfg.NATS.RouterPoisonQueueEnabled {
		poison, err := ingest.NewNATSPublisher(url, wmLogger)
		if err != nil {
			nc.Close(5 * time.Second)
			return nil, err
		}
		nc.poison = poison
	}

	subCfg := ingest.DefaultSubscriberConfig(url)
	subCfg.StreamName = cfg.NATS.StreamName
	subCfg.DurableName = cfg.NATS.DurableName
	subCfg.QueueGroup = cfg.NATS.QueueGroup
	subCfg.SubscribersCount = cfg.NATS.SubscribersCount
	subCfg.AckWaitTimeout = cfg.NATS.AckWait
	subCfg.MaxDeliver = cfg.NATS.MaxDeliver
	subCfg.MaxReconnects = cfg.NATS.MaxReconnects
	subCfg.ReconnectWait = cfg.NATS.ReconnectWait
	subCfg.CloseTimeout = cfg.NATS.RouterCloseTimeout

	routerCfg := ingest.DefaultRouterConfig()
	routerCfg.CloseTimeout = cfg.NATS.RouterCloseTimeout
	routerCfg.RetryMaxRetries = cfg.NATS.RouterRetryCount
	routerCfg.RetryInitialInterval = cfg.NATS.RouterRetryInitialInterval
	routerCfg.ThrottlePerSecond = int64(cfg.NATS.RouterThrottlePerSecond)
	routerCfg.PoisonQueueTopic = cfg.NATS.RouterPoisonQueueTopic

	router, err := ingest.NewRouter(routerCfg, ingest.NewSubscriberFactory(subCfg, wmLogger), nc.poison, wmLogger)
	if err != nil {
		nc.Close(5 * time.Second)
		return nil, err
	}
	router.AddConsumerHandler("block-breaks", cfg.NATS.Subject, ingest.NewHandler(engine).Handle)
	nc.router = router

	return nc, nil
}

// Ready reports whether the admin connection is up.
func (n *natsComponents) Ready(context.Context) error {
	if n.conn == nil || !n.conn.IsConnected() {
		return errors.New("NATS not connected")
	}
	return nil
}

// Close releases the publisher, connection and embedded server. Call it
// after the router has stopped.
func (n *natsComponents) Close(timeout time.Duration) {
	if n.poison != nil {
		if err := n.poison.Close(); err != nil {
			logging.Warn().Err(err).Msg("Error closing poison queue publisher")
		}
	}
	if n.conn != nil {
		n.conn.Close()
	}
	if n.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if err := n.server.Shutdown(ctx); err != nil {
			logging.Warn().Err(err).Msg("Embedded NATS server shutdown incomplete")
		}
		logging.Info().Msg("Embedded NATS server stopped")
	}
}
