// Affinigraph - Graph-Based Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/affinigraph

package graph

import (
	"math"

	gonumgraph "gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/community"
	"gonum.org/v1/gonum/graph/simple"
)

// Partition assigns a community id to every node index. Canonical partitions
// use dense ids 0..k-1 numbered by each community's lowest node index.
type Partition []int

// Singletons returns the partition with every node in its own community.
func Singletons(n int) Partition {
	p := make(Partition, n)
	for i := range p {
		p[i] = i
	}
	return p
}

// Canonical renumbers p densely in order of first appearance by node index.
func (p Partition) Canonical() Partition {
	out := make(Partition, len(p))
	remap := make(map[int]int)
	for i, c := range p {
		id, ok := remap[c]
		if !ok {
			id = len(remap)
			remap[c] = id
		}
		out[i] = id
	}
	return out
}

// NumCommunities returns the number of distinct community ids.
func (p Partition) NumCommunities() int {
	seen := make(map[int]struct{})
	for _, c := range p {
		seen[c] = struct{}{}
	}
	return len(seen)
}

// Communities groups node indices by community. For a canonical partition
// the outer index is the community id and members are ascending.
func (p Partition) Communities() [][]int {
	canon := p.Canonical()
	out := make([][]int, canon.NumCommunities())
	for node, c := range canon {
		out[c] = append(out[c], node)
	}
	return out
}

// Equal reports whether p and q group nodes identically, regardless of ids.
func (p Partition) Equal(q Partition) bool {
	if len(p) != len(q) {
		return false
	}
	a, b := p.Canonical(), q.Canonical()
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Modularity scores p on the unweighted graph:
//
//	Q = sum_c [ e_c/m - (d_c/2m)^2 ]
//
// An edgeless graph has no defined modularity and scores -Inf.
func (g *AffinityGraph) Modularity(p Partition) float64 {
	if g.edges == 0 {
		return math.Inf(-1)
	}
	return community.Q(g.Unweighted(), nodeGroups(p), 1)
}

// WeightedModularity scores p with shared-item counts as edge weights.
func (g *AffinityGraph) WeightedModularity(p Partition) float64 {
	if g.edges == 0 {
		return math.Inf(-1)
	}
	return community.Q(g.Weighted(), nodeGroups(p), 1)
}

func nodeGroups(p Partition) [][]gonumgraph.Node {
	groups := p.Communities()
	out := make([][]gonumgraph.Node, len(groups))
	for c, members := range groups {
		nodes := make([]gonumgraph.Node, len(members))
		for k, m := range members {
			nodes[k] = simple.Node(int64(m))
		}
		out[c] = nodes
	}
	return out
}
