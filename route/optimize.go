// Copyright 2025 The Rota Fácil Authors
// SPDX-License-Identifier: Apache-2.0

package route

import (
	"github.com/clenio77/rota-facil/spatial"
)

// Optimize orders stops by the nearest-neighbour heuristic from start and
// returns them with the straight-line length of the path, in meters. Equal
// distances are broken by the lowest manifest sequence. Without a start the
// route begins at the stop holding the first item of the manifest.
func Optimize(start *spatial.Point, stops []*Stop) ([]*Stop, float64) {
	if len(stops) == 0 {
		return nil, 0
	}

	remaining := make([]*Stop, len(stops))
	copy(remaining, stops)

	var (
		ordered = make([]*Stop, 0, len(stops))
		total   float64
		here    spatial.Point
	)

	if start == nil {
		first := 0
		for i, s := range remaining {
			if s.Sequence() < remaining[first].Sequence() {
				first = i
			}
		}

		here = remaining[first].Point
		ordered = append(ordered, remaining[first])
		remaining = append(remaining[:first], remaining[first+1:]...)
	} else {
		here = *start
	}

	for len(remaining) > 0 {
		next, nextDistance := -1, 0.0

		for i, s := range remaining {
			d := here.HaversineDistance(s.Point)
			if next < 0 || d < nextDistance || (d == nextDistance && s.Sequence() < remaining[next].Sequence()) {
				next, nextDistance = i, d
			}
		}

		total += nextDistance
		here = remaining[next].Point
		ordered = append(ordered, remaining[next])
		remaining = append(remaining[:next], remaining[next+1:]...)
	}

	return ordered, total
}
