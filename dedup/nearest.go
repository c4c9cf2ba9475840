// Copyright 2026 The GeoDedup Authors
// SPDX-License-Identifier: Apache-2.0

package dedup

import (
	"fmt"
	"math"

	"github.com/jcodagnone/geodedup/spatial"
)

// Neighbor pairs a point with the closest other point.
type Neighbor struct {
	Point         spatial.Point  `json:"point"`
	NeighborPoint *spatial.Point `json:"neighbor_point"`
	Index         int            `json:"index"`
	NeighborIndex int            `json:"neighbor_index"`
	Distance      float64        `json:"distance"`
}

// Nearest returns, for every point, the closest *other* point according to
// m. The diagonal is never considered; ties go to the lowest index. With a
// single point the record has NeighborIndex -1 and no neighbor.
func Nearest(points []spatial.Point, m *DistanceMatrix) ([]Neighbor, error) {
	if m.Len() != len(points) {
		return nil, &InputError{
			Type:    ErrorTypeLengthMismatch,
			Index:   -1,
			Message: fmt.Sprintf("distance matrix is %d×%d but there are %d points", m.Len(), m.Len(), len(points)),
		}
	}

	neighbors := make([]Neighbor, len(points))

	for i, p := range points {
		best, bestDist := -1, math.Inf(1)

		for j := range points {
			if j == i {
				continue
			}

			if d := m.At(i, j); d < bestDist {
				best, bestDist = j, d
			}
		}

		neighbors[i] = Neighbor{Point: p, Index: i, NeighborIndex: best}
		if best >= 0 {
			np := points[best]
			neighbors[i].NeighborPoint = &np
			neighbors[i].Distance = bestDist
		}
	}

	return neighbors, nil
}
