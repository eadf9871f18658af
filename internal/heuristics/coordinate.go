// OreWatch - Anti X-Ray Mining Heuristics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/orewatch

package heuristics

import (
	"fmt"
	"math"
)

// Coordinate is an integer block position in the world.
type Coordinate struct {
	X int `json:"x"`
	Y int `json:"y"`
	Z int `json:"z"`
}

// Distance returns the Euclidean distance between c and o.
func (c Coordinate) Distance(o Coordinate) float64 {
	dx := float64(c.X - o.X)
	dy := float64(c.Y - o.Y)
	dz := float64(c.Z - o.Z)
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

// String formats the coordinate as "x,y,z".
func (c Coordinate) String() string {
	return fmt.Sprintf("%d,%d,%d", c.X, c.Y, c.Z)
}
