// OreWatch - Anti X-Ray Mining Heuristics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/orewatch

package heuristics

import (
	"math"
	"testing"
)

// fillTrail places points directly into slots, bypassing sampling.
func fillTrail(points ...Coordinate) *TrailBuffer {
	var trail TrailBuffer
	for i, p := range points {
		trail.slots[i] = p
		trail.filled[i] = true
	}
	return &trail
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestAnalyzeTrail_FullyAligned(t *testing.T) {
	ore := Coordinate{X: 100, Y: 12, Z: 50}
	points := make([]Coordinate, TrailCapacity)
	for i := range points {
		// Same Y band, along the X corridor (Z within 2).
		points[i] = Coordinate{X: 100 - 4*(i+1), Y: 12 + i%3 - 1, Z: 51}
	}

	got := AnalyzeTrail(fillTrail(points...), ore, 10)
	if !almostEqual(got, 11) {
		t.Errorf("AnalyzeTrail() = %v, want 11", got)
	}
}

func TestAnalyzeTrail_MostlyUnaligned(t *testing.T) {
	ore := Coordinate{X: 0, Y: 0, Z: 0}
	points := make([]Coordinate, TrailCapacity)
	for i := range points {
		if i < 6 {
			// Off the Y band and off both horizontal corridors.
			points[i] = Coordinate{X: 10 + i, Y: 20, Z: 10 + i}
		} else {
			points[i] = Coordinate{X: -4 * i, Y: 0, Z: 0}
		}
	}

	got := AnalyzeTrail(fillTrail(points...), ore, 10)

	// unaligned = 12, iterated = 10: reducer = (10 - 6) / 3
	want := 10 + 10/(4.0/3.0)
	if !almostEqual(got, want) {
		t.Errorf("AnalyzeTrail() = %v, want %v", got, want)
	}
	if got <= 11 {
		t.Errorf("unaligned trail bonus %v should exceed aligned bonus 11", got)
	}
}

func TestAnalyzeTrail_ZOffButXAligned(t *testing.T) {
	ore := Coordinate{X: 0, Y: 0, Z: 0}
	// Off the Z corridor but on the X corridor: still aligned.
	trail := fillTrail(Coordinate{X: 1, Y: 0, Z: 30}, Coordinate{X: -2, Y: 1, Z: -30})

	got := AnalyzeTrail(trail, ore, 8)
	if !almostEqual(got, 8+8/2.0) {
		t.Errorf("AnalyzeTrail() = %v, want %v", got, 8+8/2.0)
	}
}

func TestAnalyzeTrail_EmptyTrailClampsReducer(t *testing.T) {
	got := AnalyzeTrail(&TrailBuffer{}, Coordinate{}, 7)
	if !almostEqual(got, 14) {
		t.Errorf("AnalyzeTrail() on empty trail = %v, want 14", got)
	}
}

func TestAnalyzeTrail_IntegerDivisionOfUnaligned(t *testing.T) {
	ore := Coordinate{}
	// One point off Y only: unaligned = 1, 1/2 == 0, reducer stays 3.
	trail := fillTrail(
		Coordinate{X: 0, Y: 9, Z: 0},
		Coordinate{X: 0, Y: 0, Z: -5},
		Coordinate{X: 5, Y: 0, Z: 0},
	)

	got := AnalyzeTrail(trail, ore, 9)
	if !almostEqual(got, 12) {
		t.Errorf("AnalyzeTrail() = %v, want 12", got)
	}
}

func TestAnalyzeTrail_ResetsTrail(t *testing.T) {
	trail := fillTrail(Coordinate{X: 1}, Coordinate{X: 2})
	AnalyzeTrail(trail, Coordinate{}, 1)
	if trail.Len() != 0 {
		t.Errorf("expected trail reset after analysis, %d points remain", trail.Len())
	}
}

func TestAnalyzeTrail_NeverBelowBase(t *testing.T) {
	ore := Coordinate{X: 3, Y: -40, Z: 9}
	for n := 0; n <= TrailCapacity; n++ {
		points := make([]Coordinate, n)
		for i := range points {
			points[i] = Coordinate{X: i * 7, Y: -40 + i*3, Z: i * 11}
		}
		if got := AnalyzeTrail(fillTrail(points...), ore, 5); got < 5 || got > 10 {
			t.Errorf("n=%d: AnalyzeTrail() = %v, want within [5, 10]", n, got)
		}
	}
}
