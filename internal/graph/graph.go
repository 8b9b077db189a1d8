// Affinigraph - Graph-Based Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/affinigraph

// Package graph builds the user-affinity graph from interaction records.
//
// Users are projected out of the user-item bipartite graph: two users share an
// edge iff they interacted with at least one common item, and the edge weight
// is the number of shared items. Nodes are the distinct user ids in ascending
// lexicographic order; a node's index is its position in that order and is the
// total order every algorithm uses to break ties.
//
// An AffinityGraph is immutable once built and safe for concurrent readers.
package graph

import (
	"sort"
	"sync"

	gonumgraph "gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
)

// Edge is an undirected edge with U < V in node order.
type Edge struct {
	U, V   int
	Weight int
}

// AffinityGraph is an undirected user-user graph without self-loops.
type AffinityGraph struct {
	users   []string
	index   map[string]int
	adj     [][]int // ascending neighbour indices
	weights [][]int // weights[u][k] is the weight of edge (u, adj[u][k])
	edges   int

	viewOnce   sync.Once
	unweighted *simple.UndirectedGraph
	weighted   *simple.WeightedUndirectedGraph
}

// NumNodes returns the number of users.
func (g *AffinityGraph) NumNodes() int {
	return len(g.users)
}

// NumEdges returns the number of undirected edges.
func (g *AffinityGraph) NumEdges() int {
	return g.edges
}

// User returns the id of node i.
func (g *AffinityGraph) User(i int) string {
	return g.users[i]
}

// Users returns a copy of the user ids in node order.
func (g *AffinityGraph) Users() []string {
	out := make([]string, len(g.users))
	copy(out, g.users)
	return out
}

// Index returns the node index of userID.
func (g *AffinityGraph) Index(userID string) (int, bool) {
	i, ok := g.index[userID]
	return i, ok
}

// Neighbors returns the ascending neighbour indices of node u. The slice is
// shared and must not be modified.
func (g *AffinityGraph) Neighbors(u int) []int {
	return g.adj[u]
}

// Degree returns the number of neighbours of node u.
func (g *AffinityGraph) Degree(u int) int {
	return len(g.adj[u])
}

// Weight returns the number of items u and v share, 0 if they are not adjacent.
func (g *AffinityGraph) Weight(u, v int) int {
	k := sort.SearchInts(g.adj[u], v)
	if k < len(g.adj[u]) && g.adj[u][k] == v {
		return g.weights[u][k]
	}
	return 0
}

// HasEdge reports whether u and v are adjacent.
func (g *AffinityGraph) HasEdge(u, v int) bool {
	return g.Weight(u, v) > 0
}

// Edges returns every edge once, ordered by (U, V).
func (g *AffinityGraph) Edges() []Edge {
	out := make([]Edge, 0, g.edges)
	for u, nbrs := range g.adj {
		for k, v := range nbrs {
			if u < v {
				out = append(out, Edge{U: u, V: v, Weight: g.weights[u][k]})
			}
		}
	}
	return out
}

func (g *AffinityGraph) buildViews() {
	g.viewOnce.Do(func() {
		g.unweighted = simple.NewUndirectedGraph()
		g.weighted = simple.NewWeightedUndirectedGraph(0, 0)
		for i := range g.users {
			g.unweighted.AddNode(simple.Node(int64(i)))
			g.weighted.AddNode(simple.Node(int64(i)))
		}
		for _, e := range g.Edges() {
			from, to := simple.Node(int64(e.U)), simple.Node(int64(e.V))
			g.unweighted.SetEdge(simple.Edge{F: from, T: to})
			g.weighted.SetWeightedEdge(simple.WeightedEdge{F: from, T: to, W: float64(e.Weight)})
		}
	})
}

// Unweighted returns a gonum view of the graph with unit edge weights. Node
// ids are node indices.
func (g *AffinityGraph) Unweighted() gonumgraph.Undirected {
	g.buildViews()
	return g.unweighted
}

// Weighted returns a gonum view weighted by shared-item counts.
func (g *AffinityGraph) Weighted() gonumgraph.WeightedUndirected {
	g.buildViews()
	return g.weighted
}

// newAffinityGraph assembles a graph from sorted users and a weighted
// adjacency map keyed by neighbour index.
func newAffinityGraph(users []string, nbrWeights []map[int]int) *AffinityGraph {
	g := &AffinityGraph{
		users:   users,
		index:   make(map[string]int, len(users)),
		adj:     make([][]int, len(users)),
		weights: make([][]int, len(users)),
	}
	for i, u := range users {
		g.index[u] = i
	}

	halfEdges := 0
	for u, m := range nbrWeights {
		nbrs := make([]int, 0, len(m))
		for v := range m {
			nbrs = append(nbrs, v)
		}
		sort.Ints(nbrs)
		ws := make([]int, len(nbrs))
		for k, v := range nbrs {
			ws[k] = m[v]
		}
		g.adj[u] = nbrs
		g.weights[u] = ws
		halfEdges += len(nbrs)
	}
	g.edges = halfEdges / 2
	return g
}

// FromEdges builds a graph over users (any order; sorted and deduplicated
// here) with the given weighted edges between user ids. Unknown endpoints
// are added as nodes; self-loops and non-positive weights are ignored.
func FromEdges(users []string, edges map[[2]string]int) *AffinityGraph {
	set := make(map[string]struct{}, len(users))
	for _, u := range users {
		set[u] = struct{}{}
	}
	for pair := range edges {
		set[pair[0]] = struct{}{}
		set[pair[1]] = struct{}{}
	}
	sorted := make([]string, 0, len(set))
	for u := range set {
		sorted = append(sorted, u)
	}
	sort.Strings(sorted)

	index := make(map[string]int, len(sorted))
	for i, u := range sorted {
		index[u] = i
	}
	nbr := make([]map[int]int, len(sorted))
	for i := range nbr {
		nbr[i] = make(map[int]int)
	}
	for pair, w := range edges {
		a, b := index[pair[0]], index[pair[1]]
		if a == b || w <= 0 {
			continue
		}
		nbr[a][b] = w
		nbr[b][a] = w
	}
	return newAffinityGraph(sorted, nbr)
}
