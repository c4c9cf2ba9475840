// Copyright 2026 The GeoDedup Authors
// SPDX-License-Identifier: Apache-2.0

package dedup

import (
	"slices"
)

// proximityGraph is an undirected graph keyed by original point index. Only
// nodes that took part in an edge exist.
type proximityGraph struct {
	adj map[int]map[int]struct{}
}

func newProximityGraph() *proximityGraph {
	return &proximityGraph{adj: make(map[int]map[int]struct{})}
}

func (g *proximityGraph) addEdge(a, b int) {
	if a == b {
		return
	}

	g.link(a, b)
	g.link(b, a)
}

func (g *proximityGraph) link(from, to int) {
	set, ok := g.adj[from]
	if !ok {
		set = make(map[int]struct{})
		g.adj[from] = set
	}

	set[to] = struct{}{}
}

func (g *proximityGraph) removeNode(n int) {
	for other := range g.adj[n] {
		delete(g.adj[other], n)
	}

	delete(g.adj, n)
}

// pruneIsolated removes every node without edges.
func (g *proximityGraph) pruneIsolated() {
	for n, set := range g.adj {
		if len(set) == 0 {
			delete(g.adj, n)
		}
	}
}

func (g *proximityGraph) len() int {
	return len(g.adj)
}

// nodes returns the node indices in ascending order.
func (g *proximityGraph) nodes() []int {
	nodes := make([]int, 0, len(g.adj))
	for n := range g.adj {
		nodes = append(nodes, n)
	}

	slices.Sort(nodes)

	return nodes
}

// components returns the connected components, each sorted ascending and
// ordered by their smallest member.
func (g *proximityGraph) components() [][]int {
	nodes := g.nodes()

	pos := make(map[int]int, len(nodes))
	for i, n := range nodes {
		pos[n] = i
	}

	uf := newUnionFind(len(nodes))

	for _, n := range nodes {
		for other := range g.adj[n] {
			uf.union(pos[n], pos[other])
		}
	}

	byRoot := make(map[int]int)

	var components [][]int

	for i, n := range nodes {
		root := uf.find(i)

		idx, ok := byRoot[root]
		if !ok {
			idx = len(components)
			byRoot[root] = idx
			components = append(components, nil)
		}

		components[idx] = append(components[idx], n)
	}

	return components
}

// unionFind is a disjoint-set forest with path compression and union by size.
type unionFind struct {
	parent []int
	size   []int
}

func newUnionFind(n int) *unionFind {
	uf := &unionFind{parent: make([]int, n), size: make([]int, n)}
	for i := range uf.parent {
		uf.parent[i] = i
		uf.size[i] = 1
	}

	return uf
}

func (uf *unionFind) find(x int) int {
	for uf.parent[x] != x {
		uf.parent[x] = uf.parent[uf.parent[x]]
		x = uf.parent[x]
	}

	return x
}

func (uf *unionFind) union(a, b int) {
	ra, rb := uf.find(a), uf.find(b)
	if ra == rb {
		return
	}

	if uf.size[ra] < uf.size[rb] {
		ra, rb = rb, ra
	}

	uf.parent[rb] = ra
	uf.size[ra] += uf.size[rb]
}
