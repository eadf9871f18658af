// OreWatch - Anti X-Ray Mining Heuristics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/orewatch

package heuristics

import (
	"sync"
	"time"
)

// MiningSession is the accumulated state of one actively mining player.
// All fields are guarded by mu; sessions are only reachable through the
// Registry.
type MiningSession struct {
	mu sync.Mutex

	player    string
	createdAt time.Time

	suspicion  float64
	streak     int
	zeroStreak int

	lastOre         Material
	lastOreLocation Coordinate
	hasLastOre      bool

	trail TrailBuffer

	lastBreak      time.Time
	decreaseAmount float64

	// evicted is set under mu when the registry drops the session so a
	// classifier that raced the removal can retry with a fresh session.
	evicted bool
}

func newMiningSession(player string, now time.Time) *MiningSession {
	return &MiningSession{
		player:         player,
		createdAt:      now,
		decreaseAmount: AbsoluteMinimumSuspicionDecrease,
	}
}

// SessionSnapshot is a point-in-time copy of a session.
type SessionSnapshot struct {
	Player                  string       `json:"player"`
	CreatedAt               time.Time    `json:"created_at"`
	SuspicionLevel          float64      `json:"suspicion_level"`
	NonOreStreak            int          `json:"non_ore_streak"`
	ZeroSuspicionStreak     int          `json:"zero_suspicion_streak"`
	LastOre                 Material     `json:"last_ore,omitempty"`
	LastOreLocation         *Coordinate  `json:"last_ore_location,omitempty"`
	Trail                   []Coordinate `json:"trail"`
	LastBreak               time.Time    `json:"last_break"`
	SuspicionDecreaseAmount float64      `json:"suspicion_decrease_amount"`
}

// snapshot must be called with mu held.
func (s *MiningSession) snapshot() SessionSnapshot {
	snap := SessionSnapshot{
		Player:                  s.player,
		CreatedAt:               s.createdAt,
		SuspicionLevel:          s.suspicion,
		NonOreStreak:            s.streak,
		ZeroSuspicionStreak:     s.zeroStreak,
		Trail:                   s.trail.Points(),
		LastBreak:               s.lastBreak,
		SuspicionDecreaseAmount: s.decreaseAmount,
	}
	if s.hasLastOre {
		loc := s.lastOreLocation
		snap.LastOre = s.lastOre
		snap.LastOreLocation = &loc
	}
	return snap
}

// recordDigging extends the non-ore streak and samples the trail.
func (s *MiningSession) recordDigging(at Coordinate) {
	s.streak++
	s.trail.Record(at)
}

// updateTiming derives the per-sweep decay from the time since the
// previous scored break. The elapsed time is projected over 30 blocks and
// interpolated between the accountable window bounds: fast miners decay
// toward MaxSuspicionDecreaseProportion, slow miners toward
// MinSuspicionDecreaseProportion, and the result is never weaker than
// AbsoluteMinimumSuspicionDecrease.
func (s *MiningSession) updateTiming(ts time.Time) {
	switch {
	case s.lastBreak.IsZero():
		s.lastBreak = ts
	case ts.Before(s.lastBreak):
		// Out-of-order delivery; keep the newer timestamp.
	default:
		s.decreaseAmount = DecreaseForElapsed(ts.Sub(s.lastBreak))
		s.lastBreak = ts
	}
}

// DecreaseForElapsed maps the time between two scored breaks to the
// per-sweep suspicion decrease.
func DecreaseForElapsed(elapsed time.Duration) float64 {
	window := MaxAccountableWindow
	if elapsed < MaxAccountableWindow {
		window = elapsed * accountableBlocks
	}
	if window < MinAccountableWindow {
		window = MinAccountableWindow
	}
	if window > MaxAccountableWindow {
		window = MaxAccountableWindow
	}

	t := float64(window-MinAccountableWindow) / float64(MaxAccountableWindow-MinAccountableWindow)
	p := MaxSuspicionDecreaseProportion + t*(MinSuspicionDecreaseProportion-MaxSuspicionDecreaseProportion)

	if p > AbsoluteMinimumSuspicionDecrease {
		p = AbsoluteMinimumSuspicionDecrease
	}
	return p
}

// clamp enforces the non-negative invariants.
func (s *MiningSession) clamp() {
	if s.suspicion < 0 {
		s.suspicion = 0
	}
	if s.streak < 0 {
		s.streak = 0
	}
}
