// OreWatch - Anti X-Ray Mining Heuristics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/orewatch

package heuristics

import (
	"context"
	"time"

	"github.com/tomtom215/orewatch/internal/logging"
	"github.com/tomtom215/orewatch/internal/metrics"
)

// SweepResult summarizes one decay pass.
type SweepResult struct {
	Sessions int
	Evicted  int
	Duration time.Duration
}

// Sweeper periodically decays every session and evicts idle ones.
type Sweeper struct {
	registry *Registry
	weights  WeightProvider
}

// NewSweeper creates a sweeper over registry.
func NewSweeper(registry *Registry, weights WeightProvider) *Sweeper {
	return &Sweeper{registry: registry, weights: weights}
}

// Sweep runs one decay pass.
//
// Each session loses its own decrease amount of suspicion and a fixed
// share of its non-ore streak, both clamped at zero. Sessions that stay
// at zero suspicion for EvictionStreak consecutive passes are removed.
func (w *Sweeper) Sweep() SweepResult {
	start := time.Now()
	table := w.weights.Table()
	streakDecay := table.StreakDecay()

	var result SweepResult
	w.registry.forEach(func(s *MiningSession) bool {
		result.Sessions++
		decay(s, streakDecay)
		if s.zeroStreak >= table.EvictionStreak && w.registry.evictLocked(s) {
			result.Evicted++
		}
		return true
	})
	result.Duration = time.Since(start)

	metrics.RecordSweep(result.Duration, result.Sessions)
	if result.Evicted > 0 {
		metrics.RecordSessionsEvicted("idle", result.Evicted)
	}
	metrics.SetActiveSessions(w.registry.Len())
	return result
}

// decay applies one sweep to s. The caller must hold s.mu.
func decay(s *MiningSession, streakDecay int) {
	s.suspicion += s.decreaseAmount
	s.streak += streakDecay
	s.clamp()

	if s.suspicion == 0 {
		s.zeroStreak++
	} else {
		s.zeroStreak = 0
	}
}

// RunWithContext sweeps every SweepInterval until ctx is done.
// It is designed to run under a suture supervisor and returns ctx.Err().
func (w *Sweeper) RunWithContext(ctx context.Context) error {
	interval := w.weights.Table().SweepInterval
	if interval <= 0 {
		interval = DefaultThresholds().SweepInterval
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	logging.Info().Dur("interval", interval).Msg("decay sweeper started")

	for {
		select {
		case <-ctx.Done():
			logging.Info().Msg("decay sweeper stopped")
			return ctx.Err()
		case <-ticker.C:
			result := w.Sweep()
			if result.Evicted > 0 {
				logging.Debug().
					Int("sessions", result.Sessions).
					Int("evicted", result.Evicted).
					Dur("duration", result.Duration).
					Msg("decay sweep evicted idle sessions")
			}
			if next := w.weights.Table().SweepInterval; next > 0 && next != interval {
				interval = next
				ticker.Reset(interval)
			}
		}
	}
}

// String implements fmt.Stringer for supervisor logs.
func (w *Sweeper) String() string {
	return "decay-sweeper"
}
