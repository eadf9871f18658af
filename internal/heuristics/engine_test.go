// OreWatch - Anti X-Ray Mining Heuristics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/orewatch

package heuristics

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"testing"
	"time"
)

// mockEnforcer records signals.
type mockEnforcer struct {
	mu      sync.Mutex
	signals []Signal
}

func (m *mockEnforcer) Enforce(sig Signal) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.signals = append(m.signals, sig)
}

func (m *mockEnforcer) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.signals)
}

func (m *mockEnforcer) last() Signal {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.signals[len(m.signals)-1]
}

var testEpoch = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func testTable() *WeightTable {
	weights := map[WeightKey]float64{
		WeightCoal:    10,
		WeightIron:    10,
		WeightGold:    12,
		WeightDiamond: 20,
		WeightEmerald: 20,
	}
	return NewWeightTable(DefaultThresholds(), weights, DefaultFillerMaterials)
}

func newTestEngine(t *testing.T, table *WeightTable) (*Engine, *mockEnforcer) {
	t.Helper()
	enforcer := &mockEnforcer{}
	engine := NewEngine(NewRegistry(), NewStaticWeights(table), enforcer)
	engine.now = func() time.Time { return testEpoch }
	return engine, enforcer
}

// mine breaks one block, advancing the clock by one second per call.
type miner struct {
	t      *testing.T
	engine *Engine
	player string
	clock  time.Time
}

func newMiner(t *testing.T, engine *Engine, player string) *miner {
	return &miner{t: t, engine: engine, player: player, clock: testEpoch}
}

func (m *miner) mine(material Material, at Coordinate) Outcome {
	m.t.Helper()
	m.clock = m.clock.Add(time.Second)
	outcome, err := m.engine.Classify(context.Background(), BlockBreak{
		Player:    m.player,
		Material:  material,
		Location:  at,
		Timestamp: m.clock,
	})
	if err != nil {
		m.t.Fatalf("Classify(%s) error: %v", material, err)
	}
	return outcome
}

// tunnel mines n stone blocks along X starting at from.
func (m *miner) tunnel(from Coordinate, n int) {
	m.t.Helper()
	for i := 0; i < n; i++ {
		m.mine("stone", Coordinate{X: from.X + i, Y: from.Y, Z: from.Z})
	}
}

func (m *miner) snapshot() SessionSnapshot {
	m.t.Helper()
	snap, ok := m.engine.Registry().Snapshot(m.player)
	if !ok {
		m.t.Fatalf("no session for %s", m.player)
	}
	return snap
}

func TestEngine_CreatesSessionOnBaseBlock(t *testing.T) {
	engine, _ := newTestEngine(t, testTable())
	m := newMiner(t, engine, "alice")

	if got := m.mine("stone", Coordinate{}); got != OutcomeCreated {
		t.Fatalf("first stone outcome = %s, want created", got)
	}

	snap := m.snapshot()
	if snap.SuspicionLevel != 0 || snap.NonOreStreak != 0 || len(snap.Trail) != 0 {
		t.Errorf("fresh session not zeroed: %+v", snap)
	}

	if got := m.mine("stone", Coordinate{X: 1}); got != OutcomeUpdated {
		t.Errorf("second stone outcome = %s, want updated", got)
	}
	if got := m.snapshot().NonOreStreak; got != 1 {
		t.Errorf("streak after second stone = %d, want 1", got)
	}
}

func TestEngine_NoOpConditions(t *testing.T) {
	engine, enforcer := newTestEngine(t, testTable())
	ctx := context.Background()

	tests := []struct {
		name string
		ev   BlockBreak
	}{
		{"ore without session", BlockBreak{Player: "bob", Material: "diamond_ore"}},
		{"filler without session", BlockBreak{Player: "bob", Material: "dirt"}},
		{"unknown material", BlockBreak{Player: "bob", Material: "oak_log"}},
		{"disabled ore", BlockBreak{Player: "bob", Material: "copper_ore"}},
		{"bypass", BlockBreak{Player: "bob", Material: "stone", Bypass: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := engine.Classify(ctx, tt.ev)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != OutcomeNoOp {
				t.Errorf("outcome = %s, want noop", got)
			}
		})
	}

	if engine.Registry().Len() != 0 {
		t.Errorf("no-op events created %d sessions", engine.Registry().Len())
	}
	if enforcer.count() != 0 {
		t.Errorf("no-op events emitted %d signals", enforcer.count())
	}
}

func TestEngine_InvalidEvents(t *testing.T) {
	engine, _ := newTestEngine(t, testTable())
	ctx := context.Background()

	if _, err := engine.Classify(ctx, BlockBreak{Material: "stone"}); !errors.Is(err, ErrEmptyPlayer) {
		t.Errorf("expected ErrEmptyPlayer, got %v", err)
	}
	if _, err := engine.Classify(ctx, BlockBreak{Player: "p"}); !errors.Is(err, ErrEmptyMaterial) {
		t.Errorf("expected ErrEmptyMaterial, got %v", err)
	}
}

func TestEngine_DisabledEngineIgnoresEvents(t *testing.T) {
	engine, _ := newTestEngine(t, testTable())
	engine.SetEnabled(false)
	if engine.Enabled() {
		t.Fatal("expected engine disabled")
	}

	got, err := engine.Classify(context.Background(), BlockBreak{Player: "p", Material: "stone"})
	if err != nil || got != OutcomeNoOp {
		t.Errorf("Classify() = (%s, %v), want (noop, nil)", got, err)
	}
}

func TestEngine_FillerExtendsStreakButNotTiming(t *testing.T) {
	engine, _ := newTestEngine(t, testTable())
	m := newMiner(t, engine, "carol")
	m.mine("stone", Coordinate{})
	m.mine("stone", Coordinate{X: 1})
	before := m.snapshot().LastBreak

	m.mine("gravel", Coordinate{X: 2})
	m.mine("dirt", Coordinate{X: 3})

	snap := m.snapshot()
	if snap.NonOreStreak != 3 {
		t.Errorf("streak = %d, want 3", snap.NonOreStreak)
	}
	if !snap.LastBreak.Equal(before) {
		t.Errorf("filler changed timing: %v -> %v", before, snap.LastBreak)
	}
}

func TestEngine_OreBelowStreakGateNotScored(t *testing.T) {
	engine, _ := newTestEngine(t, testTable())
	m := newMiner(t, engine, "dave")
	m.tunnel(Coordinate{}, 5) // streak 4, gate requires > 4

	m.mine("coal_ore", Coordinate{X: 5})

	snap := m.snapshot()
	if snap.SuspicionLevel != 0 {
		t.Errorf("suspicion = %v, want 0", snap.SuspicionLevel)
	}
	if snap.NonOreStreak != 4 {
		t.Errorf("streak = %d, want 4 (not reset)", snap.NonOreStreak)
	}
	if snap.LastOre != "coal_ore" {
		t.Errorf("last ore = %q, want coal_ore even when unscored", snap.LastOre)
	}
}

func TestEngine_AdjacentVeinNotRescored(t *testing.T) {
	engine, _ := newTestEngine(t, testTable())
	m := newMiner(t, engine, "erin")
	m.tunnel(Coordinate{}, 11)

	m.mine("iron_ore", Coordinate{X: 20})
	first := m.snapshot()
	if first.SuspicionLevel == 0 || first.NonOreStreak != 0 {
		t.Fatalf("first iron not scored: %+v", first)
	}

	m.tunnel(Coordinate{X: 30}, 10)
	m.mine("iron_ore", Coordinate{X: 21, Y: 1})

	second := m.snapshot()
	if second.SuspicionLevel != first.SuspicionLevel {
		t.Errorf("adjacent iron changed suspicion: %v -> %v", first.SuspicionLevel, second.SuspicionLevel)
	}
	if second.NonOreStreak != 10 {
		t.Errorf("adjacent iron reset streak: got %d, want 10", second.NonOreStreak)
	}
}

func TestEngine_DistantVeinScoredIndependently(t *testing.T) {
	engine, _ := newTestEngine(t, testTable())
	m := newMiner(t, engine, "frank")
	m.tunnel(Coordinate{}, 11)

	m.mine("iron_ore", Coordinate{X: 20})
	first := m.snapshot().SuspicionLevel

	m.tunnel(Coordinate{X: 30}, 10)
	m.mine("iron_ore", Coordinate{X: 40})

	second := m.snapshot()
	if second.SuspicionLevel <= first {
		t.Errorf("distant iron not scored: %v -> %v", first, second.SuspicionLevel)
	}
	if second.NonOreStreak != 0 {
		t.Errorf("streak = %d, want 0", second.NonOreStreak)
	}
}

func TestEngine_DifferentOreTypeIsNewVein(t *testing.T) {
	engine, _ := newTestEngine(t, testTable())
	m := newMiner(t, engine, "gina")
	m.tunnel(Coordinate{}, 11)
	m.mine("iron_ore", Coordinate{X: 20})
	first := m.snapshot().SuspicionLevel

	m.tunnel(Coordinate{X: 30}, 10)
	m.mine("coal_ore", Coordinate{X: 21})

	if got := m.snapshot().SuspicionLevel; got <= first {
		t.Errorf("adjacent coal after iron not scored: %v -> %v", first, got)
	}
}

func TestEngine_RareOreAmplifiedWhenFoundEarly(t *testing.T) {
	th := DefaultThresholds()
	th.MinimumBlocksToNextVein = 20
	table := NewWeightTable(th, map[WeightKey]float64{WeightDiamond: 20}, nil)

	if got := table.UsualEncounterThreshold(); got != 80 {
		t.Fatalf("usual encounter threshold = %d, want 80", got)
	}
	if got := oreBaseWeight(table, WeightDiamond, 50); got != 30 {
		t.Errorf("weight at streak 50 = %v, want 30", got)
	}
	if got := oreBaseWeight(table, WeightDiamond, 81); got != 20 {
		t.Errorf("weight at streak 81 = %v, want 20", got)
	}
	if got := oreBaseWeight(table, WeightDiamond, 80); got != 30 {
		t.Errorf("weight at streak 80 = %v, want 30", got)
	}

	engine, _ := newTestEngine(t, table)
	m := newMiner(t, engine, "hana")
	m.mine("stone", Coordinate{})
	s := engine.Registry().load("hana")
	s.mu.Lock()
	s.streak = 50
	s.mu.Unlock()

	m.mine("diamond_ore", Coordinate{X: 5})

	// Empty trail: reducer clamps to 1, so the analyzer doubles its input.
	if got := m.snapshot().SuspicionLevel; !almostEqual(got, 60) {
		t.Errorf("suspicion = %v, want 60 (amplified 30 doubled)", got)
	}
}

func TestEngine_NonRareOreNotAmplified(t *testing.T) {
	table := testTable()
	if got := oreBaseWeight(table, WeightIron, 5); got != 10 {
		t.Errorf("iron weight = %v, want 10", got)
	}
}

func TestEngine_BiomeReducesFavoredOre(t *testing.T) {
	th := DefaultThresholds()
	th.GoldBiomeDivisor = 4
	table := NewWeightTable(th, map[WeightKey]float64{WeightGold: 12}, nil)

	score := func(biome Biome) float64 {
		engine, _ := newTestEngine(t, table)
		m := newMiner(t, engine, "ivan")
		m.tunnel(Coordinate{}, 6)
		m.clock = m.clock.Add(time.Second)
		if _, err := engine.Classify(context.Background(), BlockBreak{
			Player: "ivan", Material: "gold_ore", Location: Coordinate{X: 30}, Biome: biome, Timestamp: m.clock,
		}); err != nil {
			t.Fatal(err)
		}
		return m.snapshot().SuspicionLevel
	}

	plains := score("plains")
	badlands := score("badlands")
	if plains == 0 {
		t.Fatal("gold in plains not scored")
	}
	if !almostEqual(badlands*4, plains) {
		t.Errorf("badlands gold = %v, want plains/4 = %v", badlands, plains/4)
	}
}

func TestEngine_ThresholdCrossingSignalsOnce(t *testing.T) {
	engine, enforcer := newTestEngine(t, testTable())
	m := newMiner(t, engine, "jack")
	m.mine("stone", Coordinate{})

	s := engine.Registry().load("jack")
	s.mu.Lock()
	s.suspicion = 95
	s.streak = 5
	s.mu.Unlock()

	m.mine("coal_ore", Coordinate{X: 50})

	if got := enforcer.count(); got != 1 {
		t.Fatalf("signals after crossing = %d, want 1", got)
	}
	sig := enforcer.last()
	if sig.Player != "jack" || sig.Suspicion <= 100 || sig.Manual {
		t.Errorf("unexpected signal: %+v", sig)
	}
	if sig.Location == nil || sig.Location.X != 50 {
		t.Errorf("signal location = %v, want X=50", sig.Location)
	}

	// Still above threshold: each further relevant break signals again.
	m.mine("stone", Coordinate{X: 51})
	if got := enforcer.count(); got != 2 {
		t.Errorf("signals after next break = %d, want 2", got)
	}
}

func TestEngine_NoSignalAtThreshold(t *testing.T) {
	engine, enforcer := newTestEngine(t, testTable())
	m := newMiner(t, engine, "kim")
	m.mine("stone", Coordinate{})

	s := engine.Registry().load("kim")
	s.mu.Lock()
	s.suspicion = 100
	s.mu.Unlock()

	m.mine("stone", Coordinate{X: 1})
	if enforcer.count() != 0 {
		t.Errorf("signal emitted at exactly the threshold")
	}
}

func TestEngine_Flag(t *testing.T) {
	engine, enforcer := newTestEngine(t, testTable())

	if err := engine.Flag(context.Background(), "", "x"); !errors.Is(err, ErrEmptyPlayer) {
		t.Errorf("expected ErrEmptyPlayer, got %v", err)
	}
	if err := engine.Flag(context.Background(), "lou", "caught on camera"); err != nil {
		t.Fatal(err)
	}

	if enforcer.count() != 1 {
		t.Fatalf("signals = %d, want 1", enforcer.count())
	}
	sig := enforcer.last()
	if !sig.Manual || sig.Reason != "caught on camera" || sig.Player != "lou" {
		t.Errorf("unexpected manual signal: %+v", sig)
	}
}

func TestEngine_Purge(t *testing.T) {
	engine, _ := newTestEngine(t, testTable())
	for _, p := range []string{"a", "b", "c"} {
		newMiner(t, engine, p).mine("stone", Coordinate{})
	}

	if !engine.Purge("a") {
		t.Error("Purge(a) = false, want true")
	}
	if engine.Purge("a") {
		t.Error("second Purge(a) = true, want false")
	}
	if got := engine.PurgeAll(); got != 2 {
		t.Errorf("PurgeAll() = %d, want 2", got)
	}
	if engine.Registry().Len() != 0 {
		t.Errorf("registry not empty after purge")
	}

	// An ore break after purge is a no-op until a base block reopens.
	m := newMiner(t, engine, "b")
	if got := m.mine("iron_ore", Coordinate{}); got != OutcomeNoOp {
		t.Errorf("ore after purge = %s, want noop", got)
	}
}

func TestEngine_Metrics(t *testing.T) {
	engine, _ := newTestEngine(t, testTable())
	m := newMiner(t, engine, "mo")
	m.mine("stone", Coordinate{})
	m.mine("oak_log", Coordinate{})
	m.mine("stone", Coordinate{X: 1})

	got := engine.Metrics()
	if got.EventsProcessed != 3 || got.SessionsCreated != 1 || got.NoOps != 1 {
		t.Errorf("unexpected metrics: %+v", got)
	}
}

func TestEngine_InvariantsHoldUnderRandomMining(t *testing.T) {
	engine, _ := newTestEngine(t, testTable())
	sweeper := NewSweeper(engine.Registry(), NewStaticWeights(testTable()))
	rng := rand.New(rand.NewSource(42))
	materials := []Material{"stone", "deepslate", "dirt", "coal_ore", "iron_ore", "diamond_ore", "gold_ore", "emerald_ore"}

	m := newMiner(t, engine, "rand")
	for i := 0; i < 5000; i++ {
		material := materials[rng.Intn(len(materials))]
		m.mine(material, Coordinate{X: rng.Intn(40), Y: rng.Intn(10), Z: rng.Intn(40)})
		if i%37 == 0 {
			sweeper.Sweep()
		}

		snap, ok := engine.Registry().Snapshot("rand")
		if !ok {
			continue
		}
		if snap.SuspicionLevel < 0 || snap.NonOreStreak < 0 {
			t.Fatalf("invariant broken after %d events: %+v", i, snap)
		}
	}
}

func TestEngine_ConcurrentClassifyAndSweep(t *testing.T) {
	engine, _ := newTestEngine(t, testTable())
	weights := NewStaticWeights(testTable())
	sweeper := NewSweeper(engine.Registry(), weights)

	var wg sync.WaitGroup
	for p := 0; p < 8; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			player := fmt.Sprintf("player-%d", p)
			ts := testEpoch
			for i := 0; i < 500; i++ {
				ts = ts.Add(50 * time.Millisecond)
				material := Material("stone")
				if i%13 == 0 {
					material = "iron_ore"
				}
				_, err := engine.Classify(context.Background(), BlockBreak{
					Player: player, Material: material, Location: Coordinate{X: i, Z: p * 100}, Timestamp: ts,
				})
				if err != nil {
					t.Error(err)
					return
				}
			}
		}(p)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		for ctx.Err() == nil {
			sweeper.Sweep()
		}
	}()

	wg.Wait()
	cancel()
	<-done

	for _, player := range engine.Registry().Players() {
		snap, ok := engine.Registry().Snapshot(player)
		if ok && (snap.SuspicionLevel < 0 || snap.NonOreStreak < 0) {
			t.Errorf("invariant broken for %s: %+v", player, snap)
		}
	}
}
