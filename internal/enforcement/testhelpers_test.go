// OreWatch - Anti X-Ray Mining Heuristics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/orewatch

package enforcement

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/tomtom215/orewatch/internal/heuristics"
)

// mockNotifier records signals and optionally blocks or fails.
type mockNotifier struct {
	mu      sync.Mutex
	name    string
	enabled bool
	fail    bool
	block   chan struct{}
	signals []heuristics.Signal
}

func newMockNotifier(name string) *mockNotifier {
	return &mockNotifier{name: name, enabled: true}
}

func (m *mockNotifier) Name() string { return m.name }

func (m *mockNotifier) Enabled() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.enabled
}

func (m *mockNotifier) Send(ctx context.Context, sig heuristics.Signal) error {
	if m.block != nil {
		select {
		case <-m.block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return errors.New("sink unavailable")
	}
	m.signals = append(m.signals, sig)
	return nil
}

func (m *mockNotifier) received() []heuristics.Signal {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]heuristics.Signal(nil), m.signals...)
}

func testSignal(player string) heuristics.Signal {
	loc := heuristics.Coordinate{X: 10, Y: -58, Z: 33}
	return heuristics.Signal{
		Player:    player,
		Suspicion: 112.5,
		Threshold: 100,
		Material:  "diamond_ore",
		Location:  &loc,
		Timestamp: time.Date(2026, 1, 2, 15, 4, 5, 0, time.UTC),
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met before deadline")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func openTestStore(t *testing.T) *OffenderStore {
	t.Helper()
	store, err := OpenOffenderStore("")
	if err != nil {
		t.Fatalf("OpenOffenderStore: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}
