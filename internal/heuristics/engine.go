// OreWatch - Anti X-Ray Mining Heuristics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/orewatch

package heuristics

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/tomtom215/orewatch/internal/logging"
	"github.com/tomtom215/orewatch/internal/metrics"
)

var (
	// ErrEmptyPlayer is returned for events without a player id.
	ErrEmptyPlayer = errors.New("block break has no player")

	// ErrEmptyMaterial is returned for events without a material.
	ErrEmptyMaterial = errors.New("block break has no material")
)

// BlockBreak is one block destroyed by a player.
type BlockBreak struct {
	Player    string     `json:"player"`
	Material  Material   `json:"material"`
	Location  Coordinate `json:"location"`
	Biome     Biome      `json:"biome"`
	Timestamp time.Time  `json:"timestamp"`

	// Bypass is set when the player holds the bypass permission.
	Bypass bool `json:"bypass"`
}

// Outcome is the effect a block break had on session state.
type Outcome int

// Classification outcomes
const (
	OutcomeNoOp Outcome = iota
	OutcomeCreated
	OutcomeUpdated
)

func (o Outcome) String() string {
	switch o {
	case OutcomeCreated:
		return "created"
	case OutcomeUpdated:
		return "updated"
	default:
		return "noop"
	}
}

// Signal asks the enforcement collaborator to act on a player.
type Signal struct {
	Player    string      `json:"player"`
	Suspicion float64     `json:"suspicion"`
	Threshold float64     `json:"threshold"`
	Material  Material    `json:"material,omitempty"`
	Location  *Coordinate `json:"location,omitempty"`
	Biome     Biome       `json:"biome,omitempty"`
	Manual    bool        `json:"manual"`
	Reason    string      `json:"reason,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// Enforcer receives enforcement signals. Enforce must not block the
// caller; delivery is at most once.
type Enforcer interface {
	Enforce(sig Signal)
}

// EnforcerFunc adapts a function to Enforcer.
type EnforcerFunc func(sig Signal)

// Enforce calls f(sig).
func (f EnforcerFunc) Enforce(sig Signal) { f(sig) }

// EngineMetrics tracks engine activity.
type EngineMetrics struct {
	EventsProcessed int64
	SessionsCreated int64
	OresScored      int64
	SignalsEmitted  int64
	NoOps           int64
	LastProcessedAt time.Time
}

// Engine classifies block breaks into session updates and emits
// enforcement signals when a session crosses the alert threshold.
type Engine struct {
	registry *Registry
	weights  WeightProvider
	enforcer Enforcer
	now      func() time.Time

	mu      sync.RWMutex
	enabled bool

	metricsMu sync.RWMutex
	counters  EngineMetrics
}

// NewEngine creates an enabled engine. A nil enforcer drops signals.
func NewEngine(registry *Registry, weights WeightProvider, enforcer Enforcer) *Engine {
	if enforcer == nil {
		enforcer = EnforcerFunc(func(Signal) {})
	}
	return &Engine{
		registry: registry,
		weights:  weights,
		enforcer: enforcer,
		now:      time.Now,
		enabled:  true,
	}
}

// Registry returns the session registry the engine writes to.
func (e *Engine) Registry() *Registry {
	return e.registry
}

// SetEnabled enables or disables classification.
func (e *Engine) SetEnabled(enabled bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.enabled = enabled
}

// Enabled reports whether the engine classifies events.
func (e *Engine) Enabled() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.enabled
}

// Classify applies one block break to the player's session.
//
// Events are ignored when the player bypasses checks, the material is not
// relevant, or no session exists and the block is not a base material.
// A session is opened by a base break; that break itself is not counted.
func (e *Engine) Classify(ctx context.Context, ev BlockBreak) (Outcome, error) {
	if ev.Player == "" {
		return OutcomeNoOp, ErrEmptyPlayer
	}
	if ev.Material == "" {
		return OutcomeNoOp, ErrEmptyMaterial
	}

	if !e.Enabled() || ev.Bypass {
		return e.finish(CategoryIrrelevant, OutcomeNoOp), nil
	}

	table := e.weights.Table()
	category, key := table.Categorize(ev.Material)
	if category == CategoryIrrelevant {
		return e.finish(category, OutcomeNoOp), nil
	}
	if ev.Timestamp.IsZero() {
		ev.Timestamp = e.now()
	}

	// A session evicted between lookup and lock is retried once.
	for attempt := 0; attempt < 2; attempt++ {
		var s *MiningSession
		if category == CategoryBase {
			var created bool
			s, created = e.registry.getOrCreate(ev.Player, ev.Timestamp)
			if created {
				e.metricsMu.Lock()
				e.counters.SessionsCreated++
				e.metricsMu.Unlock()
				metrics.SetActiveSessions(e.registry.Len())
				logging.Ctx(ctx).Debug().Str("player", ev.Player).Msg("mining session opened")
				return e.finish(category, OutcomeCreated), nil
			}
		} else {
			s = e.registry.load(ev.Player)
		}
		if s == nil {
			return e.finish(category, OutcomeNoOp), nil
		}

		s.mu.Lock()
		if s.evicted {
			s.mu.Unlock()
			continue
		}
		added := e.apply(s, table, category, key, ev)
		var sig *Signal
		if s.suspicion > table.AlertThreshold {
			loc := ev.Location
			sig = &Signal{
				Player:    ev.Player,
				Suspicion: s.suspicion,
				Threshold: table.AlertThreshold,
				Material:  ev.Material,
				Location:  &loc,
				Biome:     ev.Biome,
				Timestamp: ev.Timestamp,
			}
		}
		s.mu.Unlock()

		if added > 0 {
			e.metricsMu.Lock()
			e.counters.OresScored++
			e.metricsMu.Unlock()
			metrics.RecordSuspicionAdded(added)
		}
		if sig != nil {
			logging.Ctx(ctx).Warn().
				Str("player", sig.Player).
				Float64("suspicion", sig.Suspicion).
				Str("material", string(sig.Material)).
				Msg("suspicion threshold exceeded")
			e.emit(*sig)
		}
		return e.finish(category, OutcomeUpdated), nil
	}

	return e.finish(category, OutcomeNoOp), nil
}

// apply mutates s for one relevant break and returns the suspicion added.
// The caller must hold s.mu.
func (e *Engine) apply(s *MiningSession, table *WeightTable, category Category, key WeightKey, ev BlockBreak) float64 {
	var added float64
	switch category {
	case CategoryBase:
		s.updateTiming(ev.Timestamp)
		s.recordDigging(ev.Location)
	case CategoryFiller:
		s.recordDigging(ev.Location)
	case CategoryOre:
		s.updateTiming(ev.Timestamp)
		added = scoreOre(s, table, key, ev)
	}
	s.clamp()
	return added
}

// scoreOre handles an ore break. The caller must hold s.mu.
func scoreOre(s *MiningSession, table *WeightTable, key WeightKey, ev BlockBreak) float64 {
	newVein := !s.hasLastOre ||
		s.lastOre != ev.Material ||
		s.lastOreLocation.Distance(ev.Location) > table.AdjacencyRadius

	var added float64
	if newVein && s.streak > table.MinimumBlocksToNextVein {
		w := oreBaseWeight(table, key, s.streak)
		w = AnalyzeTrail(&s.trail, ev.Location, w)
		w /= table.biomeDivisor(key, ev.Biome)
		s.suspicion += w
		s.streak = 0
		added = w
	}

	s.lastOre = ev.Material
	s.lastOreLocation = ev.Location
	s.hasLastOre = true
	return added
}

// oreBaseWeight is the weight fed to the trail analyzer. Rare ores found
// within the usual encounter threshold are amplified.
func oreBaseWeight(table *WeightTable, key WeightKey, streak int) float64 {
	w := table.Weight(key)
	if IsRare(key) && streak <= table.UsualEncounterThreshold() {
		w *= rareOreAmplifier
	}
	return w
}

// Flag emits a manual enforcement signal for player, whether or not the
// player has a session.
func (e *Engine) Flag(ctx context.Context, player, reason string) error {
	if player == "" {
		return ErrEmptyPlayer
	}
	sig := Signal{
		Player:    player,
		Threshold: e.weights.Table().AlertThreshold,
		Manual:    true,
		Reason:    reason,
		Timestamp: e.now(),
	}
	if snap, ok := e.registry.Snapshot(player); ok {
		sig.Suspicion = snap.SuspicionLevel
	}
	logging.Ctx(ctx).Info().Str("player", player).Str("reason", reason).Msg("player flagged manually")
	e.emit(sig)
	return nil
}

// Purge drops the player's session.
func (e *Engine) Purge(player string) bool {
	removed := e.registry.Remove(player)
	if removed {
		metrics.RecordSessionsEvicted("purge", 1)
		metrics.SetActiveSessions(e.registry.Len())
		logging.Info().Str("player", player).Msg("mining session purged")
	}
	return removed
}

// PurgeAll drops every session and returns how many were removed.
func (e *Engine) PurgeAll() int {
	n := e.registry.Clear()
	metrics.RecordSessionsEvicted("purge", n)
	metrics.SetActiveSessions(e.registry.Len())
	logging.Info().Int("sessions", n).Msg("all mining sessions purged")
	return n
}

// Metrics returns a copy of the engine counters.
func (e *Engine) Metrics() EngineMetrics {
	e.metricsMu.RLock()
	defer e.metricsMu.RUnlock()
	return e.counters
}

func (e *Engine) emit(sig Signal) {
	e.metricsMu.Lock()
	e.counters.SignalsEmitted++
	e.metricsMu.Unlock()
	metrics.RecordEnforcementSignal(sig.Manual)
	e.enforcer.Enforce(sig)
}

func (e *Engine) finish(category Category, outcome Outcome) Outcome {
	e.metricsMu.Lock()
	e.counters.EventsProcessed++
	if outcome == OutcomeNoOp {
		e.counters.NoOps++
	}
	e.counters.LastProcessedAt = e.now()
	e.metricsMu.Unlock()
	metrics.RecordClassification(string(category), outcome.String())
	return outcome
}
