// OreWatch - Anti X-Ray Mining Heuristics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/orewatch

package heuristics

const (
	// TrailCapacity is the number of coordinates a trail retains.
	TrailCapacity = 10

	// trailSampleEvery stores one coordinate per this many recorded blocks.
	trailSampleEvery = 4
)

// TrailBuffer is a fixed ring of sampled non-ore block coordinates.
// Only every fourth recorded block is stored; both cursors advance on
// every Record so the buffer tracks the broad path rather than each step.
type TrailBuffer struct {
	slots   [TrailCapacity]Coordinate
	filled  [TrailCapacity]bool
	counter int // [0, trailSampleEvery)
	pos     int // [0, TrailCapacity)
}

// Record samples c into the trail.
func (t *TrailBuffer) Record(c Coordinate) {
	if t.counter == trailSampleEvery-1 {
		t.slots[t.pos] = c
		t.filled[t.pos] = true
	}
	t.counter = (t.counter + 1) % trailSampleEvery
	t.pos = (t.pos + 1) % TrailCapacity
}

// Reset empties every slot. Cursors keep their positions.
func (t *TrailBuffer) Reset() {
	t.slots = [TrailCapacity]Coordinate{}
	t.filled = [TrailCapacity]bool{}
}

// Len returns the number of non-empty slots.
func (t *TrailBuffer) Len() int {
	n := 0
	for _, ok := range t.filled {
		if ok {
			n++
		}
	}
	return n
}

// Points returns the non-empty slots in slot order.
func (t *TrailBuffer) Points() []Coordinate {
	points := make([]Coordinate, 0, TrailCapacity)
	for i, ok := range t.filled {
		if ok {
			points = append(points, t.slots[i])
		}
	}
	return points
}
