// OreWatch - Anti X-Ray Mining Heuristics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/orewatch

package ingest

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/tomtom215/orewatch/internal/heuristics"
	"github.com/tomtom215/orewatch/internal/logging"
	"github.com/tomtom215/orewatch/internal/metrics"
)

// Classifier is the engine operation the handler drives.
type Classifier interface {
	Classify(ctx context.Context, ev heuristics.BlockBreak) (heuristics.Outcome, error)
}

// HandlerStats counts handled messages.
type HandlerStats struct {
	Received   int64 `json:"received"`
	Classified int64 `json:"classified"`
	NoOps      int64 `json:"noops"`
	Invalid    int64 `json:"invalid"`
	Failed     int64 `json:"failed"`
}

// Handler turns block-break messages into Classify calls.
type Handler struct {
	classifier Classifier
	now        func() time.Time

	received   atomic.Int64
	classified atomic.Int64
	noops      atomic.Int64
	invalid    atomic.Int64
	failed     atomic.Int64
}

// NewHandler creates a handler feeding classifier.
func NewHandler(classifier Classifier) *Handler {
	return &Handler{classifier: classifier, now: time.Now}
}

// Handle is a watermill NoPublishHandlerFunc. Invalid events return nil
// so they are acked; only transient failures are returned for retry.
func (h *Handler) Handle(msg *message.Message) error {
	start := time.Now()
	h.received.Add(1)

	ctx := logging.ContextWithCorrelationID(msg.Context(), msg.UUID)

	ev, err := decodeBlockBreak(msg.Payload, h.now())
	if err != nil {
		h.reject(ctx, msg, err, start)
		return nil
	}

	outcome, err := h.classifier.Classify(ctx, ev)
	switch {
	case errors.Is(err, heuristics.ErrEmptyPlayer), errors.Is(err, heuristics.ErrEmptyMaterial):
		h.reject(ctx, msg, err, start)
		return nil
	case err != nil:
		h.failed.Add(1)
		metrics.RecordIngestMessage("error", time.Since(start))
		return fmt.Errorf("classify %s: %w", msg.UUID, err)
	}

	if outcome == heuristics.OutcomeNoOp {
		h.noops.Add(1)
	} else {
		h.classified.Add(1)
	}
	metrics.RecordIngestMessage(outcome.String(), time.Since(start))
	return nil
}

func (h *Handler) reject(ctx context.Context, msg *message.Message, err error, start time.Time) {
	h.invalid.Add(1)
	metrics.RecordIngestMessage("invalid", time.Since(start))
	logging.Ctx(ctx).Warn().Err(err).
		Str("message_uuid", msg.UUID).
		Int("payload_bytes", len(msg.Payload)).
		Msg("dropping invalid block break")
}

// Stats returns the handler counters.
func (h *Handler) Stats() HandlerStats {
	return HandlerStats{
		Received:   h.received.Load(),
		Classified: h.classified.Load(),
		NoOps:      h.noops.Load(),
		Invalid:    h.invalid.Load(),
		Failed:     h.failed.Load(),
	}
}
