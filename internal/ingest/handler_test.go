// OreWatch - Anti X-Ray Mining Heuristics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/orewatch

package ingest

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"

	"github.com/tomtom215/orewatch/internal/heuristics"
)

// mockClassifier records classified events and returns canned results.
type mockClassifier struct {
	mu      sync.Mutex
	events  []heuristics.BlockBreak
	outcome heuristics.Outcome
	err     error
}

func (m *mockClassifier) Classify(_ context.Context, ev heuristics.BlockBreak) (heuristics.Outcome, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, ev)
	return m.outcome, m.err
}

func (m *mockClassifier) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.events)
}

const stoneEvent = `{"player":"Steve","material":"stone","x":1,"y":12,"z":3}`

func newTestMessage(payload string) *message.Message {
	return message.NewMessage(uuid.NewString(), []byte(payload))
}

func TestHandler_Classifies(t *testing.T) {
	t.Parallel()

	classifier := &mockClassifier{outcome: heuristics.OutcomeCreated}
	h := NewHandler(classifier)

	if err := h.Handle(newTestMessage(stoneEvent)); err != nil {
		t.Fatalf("Handle() error = %v", err)
	}

	if classifier.count() != 1 {
		t.Fatalf("classified %d events, want 1", classifier.count())
	}
	if classifier.events[0].Material != "stone" {
		t.Errorf("Material = %q, want stone", classifier.events[0].Material)
	}

	stats := h.Stats()
	if stats.Received != 1 || stats.Classified != 1 || stats.NoOps != 0 {
		t.Errorf("Stats() = %+v", stats)
	}
}

func TestHandler_CountsNoOps(t *testing.T) {
	t.Parallel()

	h := NewHandler(&mockClassifier{outcome: heuristics.OutcomeNoOp})
	for i := 0; i < 3; i++ {
		if err := h.Handle(newTestMessage(stoneEvent)); err != nil {
			t.Fatalf("Handle() error = %v", err)
		}
	}
	if got := h.Stats().NoOps; got != 3 {
		t.Errorf("NoOps = %d, want 3", got)
	}
}

func TestHandler_AcksInvalidPayload(t *testing.T) {
	t.Parallel()

	classifier := &mockClassifier{}
	h := NewHandler(classifier)

	if err := h.Handle(newTestMessage(`not json`)); err != nil {
		t.Errorf("Handle() error = %v, want nil so the message is acked", err)
	}
	if classifier.count() != 0 {
		t.Error("invalid payload reached the classifier")
	}
	if got := h.Stats().Invalid; got != 1 {
		t.Errorf("Invalid = %d, want 1", got)
	}
}

func TestHandler_AcksMalformedInputErrors(t *testing.T) {
	t.Parallel()

	for _, sentinel := range []error{heuristics.ErrEmptyPlayer, heuristics.ErrEmptyMaterial} {
		h := NewHandler(&mockClassifier{err: sentinel})
		if err := h.Handle(newTestMessage(stoneEvent)); err != nil {
			t.Errorf("Handle() with %v error = %v, want nil", sentinel, err)
		}
		if got := h.Stats().Invalid; got != 1 {
			t.Errorf("Invalid = %d, want 1", got)
		}
	}
}

func TestHandler_ReturnsTransientErrors(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	h := NewHandler(&mockClassifier{err: boom})

	err := h.Handle(newTestMessage(stoneEvent))
	if !errors.Is(err, boom) {
		t.Fatalf("Handle() error = %v, want wrapped boom", err)
	}
	if got := h.Stats().Failed; got != 1 {
		t.Errorf("Failed = %d, want 1", got)
	}
}
