// OreWatch - Anti X-Ray Mining Heuristics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/orewatch

package heuristics

import (
	"time"

	"github.com/puzpuzpuz/xsync/v4"
)

// Registry owns every MiningSession, keyed by player id.
//
// Lock order is session mutex first, map second. Callbacks passed to the
// underlying map never take a session mutex.
type Registry struct {
	sessions *xsync.Map[string, *MiningSession]
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		sessions: xsync.NewMap[string, *MiningSession](),
	}
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	return r.sessions.Size()
}

// Snapshot returns a copy of the player's session.
func (r *Registry) Snapshot(player string) (SessionSnapshot, bool) {
	s, ok := r.sessions.Load(player)
	if !ok {
		return SessionSnapshot{}, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.evicted {
		return SessionSnapshot{}, false
	}
	return s.snapshot(), true
}

// Players returns the ids of all live sessions in no particular order.
func (r *Registry) Players() []string {
	players := make([]string, 0, r.sessions.Size())
	r.sessions.Range(func(player string, _ *MiningSession) bool {
		players = append(players, player)
		return true
	})
	return players
}

// Remove evicts the player's session. It reports whether one existed.
func (r *Registry) Remove(player string) bool {
	s, ok := r.sessions.Load(player)
	if !ok {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return r.evictLocked(s)
}

// Clear evicts every session and returns how many were removed.
func (r *Registry) Clear() int {
	removed := 0
	for _, player := range r.Players() {
		if r.Remove(player) {
			removed++
		}
	}
	return removed
}

// getOrCreate returns the player's session, creating it atomically when
// none exists. The second result reports creation.
func (r *Registry) getOrCreate(player string, now time.Time) (*MiningSession, bool) {
	created := false
	s, _ := r.sessions.Compute(player, func(old *MiningSession, loaded bool) (*MiningSession, xsync.ComputeOp) {
		if loaded {
			return old, xsync.UpdateOp
		}
		created = true
		return newMiningSession(player, now), xsync.UpdateOp
	})
	return s, created
}

// load returns the player's session or nil.
func (r *Registry) load(player string) *MiningSession {
	s, _ := r.sessions.Load(player)
	return s
}

// forEach calls fn for every live session with its mutex held. Returning
// false from fn stops the iteration.
func (r *Registry) forEach(fn func(s *MiningSession) bool) {
	r.sessions.Range(func(_ string, s *MiningSession) bool {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.evicted {
			return true
		}
		return fn(s)
	})
}

// evictLocked removes s if it is still the registered session for its
// player. The caller must hold s.mu.
func (r *Registry) evictLocked(s *MiningSession) bool {
	if s.evicted {
		return false
	}
	removed := false
	r.sessions.Compute(s.player, func(old *MiningSession, loaded bool) (*MiningSession, xsync.ComputeOp) {
		if loaded && old == s {
			removed = true
			return nil, xsync.DeleteOp
		}
		return old, xsync.CancelOp
	})
	if removed {
		s.evicted = true
	}
	return removed
}
