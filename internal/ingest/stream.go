// OreWatch - Anti X-Ray Mining Heuristics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/orewatch

package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// StreamConfig defines the block-break stream.
type StreamConfig struct {
	Name            string
	Subjects        []string
	MaxAge          time.Duration
	MaxBytes        int64
	DuplicateWindow time.Duration
	Replicas        int
}

// DefaultStreamConfig returns the stream OreWatch consumes. The poison
// subject lives in the same stream so dead letters are retained.
func DefaultStreamConfig() StreamConfig {
	return StreamConfig{
		Name:            "OREWATCH_BLOCKS",
		Subjects:        []string{"orewatch.blocks.>", "orewatch.poison"},
		MaxAge:          24 * time.Hour,
		MaxBytes:        -1,
		DuplicateWindow: 2 * time.Minute,
		Replicas:        1,
	}
}

// EnsureStream creates the stream or updates it to cfg.
func EnsureStream(ctx context.Context, nc *nats.Conn, cfg StreamConfig) (*jetstream.StreamInfo, error) {
	js, err := jetstream.New(nc)
	if err != nil {
		return nil, fmt.Errorf("create JetStream context: %w", err)
	}

	streamCfg := jetstream.StreamConfig{
		Name:       cfg.Name,
		Subjects:   cfg.Subjects,
		Retention:  jetstream.LimitsPolicy,
		MaxAge:     cfg.MaxAge,
		MaxBytes:   cfg.MaxBytes,
		MaxMsgs:    -1,
		Duplicates: cfg.DuplicateWindow,
		Replicas:   cfg.Replicas,
		Storage:    jetstream.FileStorage,
		Discard:    jetstream.DiscardOld,
	}

	var stream jetstream.Stream
	_, err = js.Stream(ctx, cfg.Name)
	switch {
	case err == nil:
		stream, err = js.UpdateStream(ctx, streamCfg)
		if err != nil {
			return nil, fmt.Errorf("update stream: %w", err)
		}
	case errors.Is(err, jetstream.ErrStreamNotFound):
		stream, err = js.CreateStream(ctx, streamCfg)
		if err != nil {
			return nil, fmt.Errorf("create stream: %w", err)
		}
	default:
		return nil, fmt.Errorf("lookup stream: %w", err)
	}

	return stream.Info(ctx)
}
