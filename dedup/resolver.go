// Copyright 2026 The GeoDedup Authors
// SPDX-License-Identifier: Apache-2.0

// Package dedup finds points that are redundant observations of the same
// place and decides which ones to drop.
//
// Two points are candidate duplicates when their spherical distance is
// strictly positive and strictly below a threshold in meters. Candidates form
// a proximity graph; in every connected component the point with the lowest
// criterion value is dropped. The graph is then rebuilt from the remaining
// points until no pair within the threshold is left.
package dedup

import (
	"context"
	"log"
	"slices"

	"github.com/jcodagnone/geodedup/spatial"
)

// ResolveOptions configures Resolve. The zero value is valid.
type ResolveOptions struct {
	// Workers bounds the goroutines used for each distance matrix.
	Workers int
	// Logger, when set, receives one line per pass.
	Logger *log.Logger
}

// Resolution is the outcome of Resolve.
type Resolution struct {
	// Drop holds the sorted, distinct indices to discard.
	Drop []int `json:"drop"`
	// Iterations counts the passes that found at least one candidate pair.
	Iterations int `json:"iterations"`
}

// Resolve returns the indices of the points to drop so that no two
// surviving points are closer than threshold meters (zero distances aside).
//
// Inside a connected component the point with the lowest criterion value is
// dropped; equal values go to the lowest original index. Each pass removes at
// least one point, so Resolve finishes within len(points) passes. ctx is
// checked between passes and while computing distances.
func Resolve(
	ctx context.Context,
	points []spatial.Point,
	criteria []float64,
	threshold float64,
	opts ResolveOptions,
) (Resolution, error) {
	if err := validateThreshold(threshold); err != nil {
		return Resolution{}, err
	}

	if err := validateCriteria(len(points), criteria); err != nil {
		return Resolution{}, err
	}

	if err := validatePoints(points); err != nil {
		return Resolution{}, err
	}

	res := Resolution{Drop: []int{}}

	surviving := make([]int, len(points))
	for i := range surviving {
		surviving[i] = i
	}

	for len(surviving) > 0 {
		if err := ctx.Err(); err != nil {
			return Resolution{}, err
		}

		g, edges, err := proximity(ctx, points, surviving, threshold, opts.Workers)
		if err != nil {
			return Resolution{}, err
		}

		if edges == 0 {
			break
		}

		res.Iterations++

		components := g.components()
		for _, component := range components {
			loser := weakest(component, criteria)
			res.Drop = append(res.Drop, loser)
			g.removeNode(loser)
		}

		g.pruneIsolated()

		if opts.Logger != nil {
			opts.Logger.Printf(
				"pass %d - %d points, %d pairs within %.2fm, %d components, %d points left to re-check",
				res.Iterations, len(surviving), edges, threshold, len(components), g.len(),
			)
		}

		surviving = g.nodes()
	}

	slices.Sort(res.Drop)
	res.Drop = slices.Compact(res.Drop)

	return res, nil
}

// proximity builds the graph of surviving points closer than threshold.
func proximity(
	ctx context.Context,
	points []spatial.Point,
	surviving []int,
	threshold float64,
	workers int,
) (*proximityGraph, int, error) {
	subset := make([]spatial.Point, len(surviving))
	for i, idx := range surviving {
		subset[i] = points[idx]
	}

	m, err := computeMatrix(ctx, subset, MatrixOptions{
		Method:  MethodResolver,
		Unit:    spatial.Meters,
		Workers: workers,
	})
	if err != nil {
		return nil, 0, err
	}

	g := newProximityGraph()
	edges := 0

	for a := range subset {
		for b := a + 1; b < len(subset); b++ {
			if d := m.At(a, b); d > 0 && d < threshold {
				g.addEdge(surviving[a], surviving[b])
				edges++
			}
		}
	}

	return g, edges, nil
}

// weakest returns the member with the lowest criterion. members is sorted
// ascending, so the strict comparison keeps the lowest index on ties.
func weakest(members []int, criteria []float64) int {
	best := members[0]
	for _, idx := range members[1:] {
		if criteria[idx] < criteria[best] {
			best = idx
		}
	}

	return best
}

// Keep returns the indices in [0, n) that are not in drop, in order.
func Keep(n int, drop []int) []int {
	dropped := make(map[int]bool, len(drop))
	for _, idx := range drop {
		dropped[idx] = true
	}

	keep := make([]int, 0, max(n-len(dropped), 0))

	for i := range n {
		if !dropped[i] {
			keep = append(keep, i)
		}
	}

	return keep
}
