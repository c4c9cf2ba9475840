// Copyright 2026 The GeoDedup Authors
// SPDX-License-Identifier: Apache-2.0

package dedup

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
)

func TestProximityGraphComponents(t *testing.T) {
	g := newProximityGraph()
	g.addEdge(9, 4)
	g.addEdge(4, 7)
	g.addEdge(2, 12)
	g.addEdge(30, 31)
	g.addEdge(31, 30)
	g.addEdge(5, 5) // ignored

	want := [][]int{{2, 12}, {4, 7, 9}, {30, 31}}
	if diff := cmp.Diff(want, g.components()); diff != "" {
		t.Errorf("components() mismatch (-want +got):\n%s", diff)
	}

	assert.Equal(t, []int{2, 4, 7, 9, 12, 30, 31}, g.nodes())
}

func TestProximityGraphRemoveAndPrune(t *testing.T) {
	g := newProximityGraph()
	g.addEdge(0, 1)
	g.addEdge(1, 2)
	g.addEdge(3, 4)

	g.removeNode(1)
	g.removeNode(3)
	g.pruneIsolated()

	assert.Zero(t, g.len())
	assert.Empty(t, g.components())

	g.addEdge(0, 1)
	g.addEdge(0, 2)
	g.removeNode(1)
	g.pruneIsolated()

	assert.Equal(t, []int{0, 2}, g.nodes())
}

func TestUnionFind(t *testing.T) {
	uf := newUnionFind(6)
	uf.union(0, 1)
	uf.union(2, 3)
	uf.union(1, 3)

	assert.Equal(t, uf.find(0), uf.find(2))
	assert.NotEqual(t, uf.find(0), uf.find(4))
	assert.NotEqual(t, uf.find(4), uf.find(5))
	assert.Equal(t, 4, uf.size[uf.find(3)])
}

func TestWeakest(t *testing.T) {
	criteria := []float64{5, 1, 9, 1, -3}

	tests := []struct {
		name    string
		members []int
		want    int
	}{
		{"single member", []int{2}, 2},
		{"lowest value", []int{0, 1, 2}, 1},
		{"tie goes to lowest index", []int{0, 1, 3}, 1},
		{"negative values", []int{0, 3, 4}, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, weakest(tt.members, criteria))
		})
	}
}
