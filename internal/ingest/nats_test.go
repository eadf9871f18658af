// OreWatch - Anti X-Ray Mining Heuristics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/orewatch

package ingest

import (
	"context"
	"testing"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/tomtom215/orewatch/internal/heuristics"
)

func startTestServer(t *testing.T) *EmbeddedServer {
	t.Helper()

	cfg := DefaultServerConfig(t.TempDir())
	cfg.Port = -1
	srv, err := StartEmbeddedServer(cfg)
	if err != nil {
		t.Fatalf("StartEmbeddedServer() error = %v", err)
	}
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	})
	return srv
}

func TestEnsureStream_CreatesThenUpdates(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping embedded NATS test in short mode")
	}

	srv := startTestServer(t)
	if !srv.IsRunning() {
		t.Fatal("IsRunning() = false")
	}

	nc, err := nats.Connect(srv.ClientURL())
	if err != nil {
		t.Fatalf("nats.Connect() error = %v", err)
	}
	defer nc.Close()

	ctx := context.Background()
	cfg := DefaultStreamConfig()

	info, err := EnsureStream(ctx, nc, cfg)
	if err != nil {
		t.Fatalf("EnsureStream() create error = %v", err)
	}
	if info.Config.Name != "OREWATCH_BLOCKS" {
		t.Errorf("stream name = %q", info.Config.Name)
	}

	cfg.MaxAge = time.Hour
	info, err = EnsureStream(ctx, nc, cfg)
	if err != nil {
		t.Fatalf("EnsureStream() update error = %v", err)
	}
	if info.Config.MaxAge != time.Hour {
		t.Errorf("MaxAge = %v, want 1h", info.Config.MaxAge)
	}
}

func TestJetStream_EndToEnd(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping embedded NATS test in short mode")
	}

	srv := startTestServer(t)

	nc, err := nats.Connect(srv.ClientURL())
	if err != nil {
		t.Fatalf("nats.Connect() error = %v", err)
	}
	defer nc.Close()
	if _, err := EnsureStream(context.Background(), nc, DefaultStreamConfig()); err != nil {
		t.Fatalf("EnsureStream() error = %v", err)
	}

	subCfg := DefaultSubscriberConfig(srv.ClientURL())
	subCfg.SubscribersCount = 1
	subCfg.CloseTimeout = 5 * time.Second

	engine := heuristics.NewEngine(heuristics.NewRegistry(), heuristics.NewStaticWeights(nil), nil)
	handler := NewHandler(engine)

	r, err := NewRouter(DefaultRouterConfig(), NewSubscriberFactory(subCfg, nil), nil, nil)
	if err != nil {
		t.Fatalf("NewRouter() error = %v", err)
	}
	r.AddConsumerHandler("blocks", "orewatch.blocks.>", handler.Handle)

	stop := startRouter(t, r)
	defer stop()

	wmPub, err := NewNATSPublisher(srv.ClientURL(), nil)
	if err != nil {
		t.Fatalf("NewNATSPublisher() error = %v", err)
	}
	pub := NewPublisher(wmPub, "orewatch.blocks.>")
	defer func() { _ = pub.Close() }()

	for _, player := range []string{"Steve", "Alex"} {
		ev := heuristics.BlockBreak{
			Player:    player,
			Material:  "deepslate",
			Location:  heuristics.Coordinate{X: 5, Y: -30, Z: 5},
			Timestamp: time.Now(),
		}
		if err := pub.PublishBlockBreak(context.Background(), ev); err != nil {
			t.Fatalf("PublishBlockBreak(%s) error = %v", player, err)
		}
	}

	waitFor(t, 10*time.Second, func() bool {
		return engine.Registry().Len() == 2
	})
}

func TestPublisher_Closed(t *testing.T) {
	t.Parallel()

	pub := NewPublisher(newTestPubSub(t), "blocks")
	if err := pub.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := pub.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
	err := pub.PublishBlockBreak(context.Background(), heuristics.BlockBreak{Player: "Steve", Material: "stone"})
	if err == nil {
		t.Error("PublishBlockBreak() after Close error = nil")
	}
}
