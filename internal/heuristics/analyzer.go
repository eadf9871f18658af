// OreWatch - Anti X-Ray Mining Heuristics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/orewatch

package heuristics

// corridorHalfWidth is the half width of the 5-block corridors around an
// ore that count as "aligned" on each axis.
const corridorHalfWidth = 2

// AnalyzeTrail scores how directly the sampled trail leads to ore and
// returns base plus a bonus in (0, base]. A trail that stays within the
// ore's Y band and on either its X or Z corridor yields a small bonus;
// a trail that approaches from off-axis yields a large one. The trail is
// reset afterwards.
func AnalyzeTrail(trail *TrailBuffer, ore Coordinate, base float64) float64 {
	unaligned := 0
	iterated := 0

	for i, ok := range trail.filled {
		if !ok {
			continue
		}
		p := trail.slots[i]

		if outside(p.Y, ore.Y) {
			unaligned++
		}
		// Off the Z corridor only counts when also off the X corridor.
		if outside(p.Z, ore.Z) && outside(p.X, ore.X) {
			unaligned++
		}
		iterated++
	}

	reducer := float64(iterated - unaligned/2)
	if unaligned/2 > iterated/2 {
		reducer /= 3
	}
	if reducer < 1 {
		reducer = 1
	}

	trail.Reset()

	return base + base/reducer
}

func outside(v, center int) bool {
	return v < center-corridorHalfWidth || v > center+corridorHalfWidth
}
