// Affinigraph - Graph-Based Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/affinigraph

package community

import (
	"context"
	"math"
	"sort"

	gonumgraph "gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/network"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"

	"github.com/tomtom215/affinigraph/internal/graph"
)

// GirvanNewman runs divisive edge-betweenness partitioning.
//
// Candidates are the component partition of the untouched graph and the
// component partition after every edge removal. Removals that split nothing
// repeat their predecessor and are not recorded. Every candidate is scored on
// the original graph; the highest modularity wins and ties go to the candidate
// with fewest removals. An edgeless graph yields singletons with -Inf
// modularity.
func GirvanNewman(ctx context.Context, g *graph.AffinityGraph) (*Result, error) {
	n := g.NumNodes()
	if g.NumEdges() == 0 {
		p := graph.Singletons(n)
		q := math.Inf(-1)
		return &Result{
			Partition:  p,
			Modularity: q,
			Dendrogram: []Level{{Removals: 0, Partition: p, Modularity: q}},
		}, nil
	}

	w := newWorkingGraph(g)
	current := w.components()
	levels := []Level{{Removals: 0, Partition: current, Modularity: g.Modularity(current)}}

	for removals := 1; w.edges > 0; removals++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		u, v := w.maxBetweennessEdge()
		w.remove(u, v)

		next := w.components()
		if next.NumCommunities() == current.NumCommunities() {
			continue
		}
		current = next
		levels = append(levels, Level{Removals: removals, Partition: current, Modularity: g.Modularity(current)})
	}

	best := 0
	for i := 1; i < len(levels); i++ {
		if levels[i].Modularity > levels[best].Modularity+modularityEpsilon {
			best = i
		}
	}

	return &Result{
		Partition:  levels[best].Partition,
		Modularity: levels[best].Modularity,
		Dendrogram: levels,
	}, nil
}

// workingGraph is a mutable unweighted copy used while edges are removed.
type workingGraph struct {
	g     *simple.UndirectedGraph
	n     int
	edges int
}

func newWorkingGraph(g *graph.AffinityGraph) *workingGraph {
	wg := simple.NewUndirectedGraph()
	gonumgraph.Copy(wg, g.Unweighted())
	return &workingGraph{g: wg, n: g.NumNodes(), edges: g.NumEdges()}
}

func (w *workingGraph) remove(u, v int) {
	w.g.RemoveEdge(int64(u), int64(v))
	w.edges--
}

// components returns the connected components as a canonical partition.
func (w *workingGraph) components() graph.Partition {
	p := make(graph.Partition, w.n)
	for label, cc := range topo.ConnectedComponents(w.g) {
		for _, node := range cc {
			p[node.ID()] = label
		}
	}
	return p.Canonical()
}

// maxBetweennessEdge returns the edge of highest betweenness; ties within
// betweennessEpsilon go to the lowest (u, v) in node order.
func (w *workingGraph) maxBetweennessEdge() (int, int) {
	bet := w.edgeBetweenness()

	keys := make([][2]int64, 0, len(bet))
	for k := range bet {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i][0] != keys[j][0] {
			return keys[i][0] < keys[j][0]
		}
		return keys[i][1] < keys[j][1]
	})

	bestU, bestV := -1, -1
	best := math.Inf(-1)
	for _, k := range keys {
		if b := bet[k]; b > best+betweennessEpsilon {
			best, bestU, bestV = b, int(k[0]), int(k[1])
		}
	}
	return bestU, bestV
}

// edgeBetweenness returns unweighted shortest-path edge betweenness keyed by
// (u, v) with u < v. network.EdgeBetweenness counts every ordered pair of
// endpoints; the scores are halved so each unordered pair counts once.
func (w *workingGraph) edgeBetweenness() map[[2]int64]float64 {
	bet := network.EdgeBetweenness(w.g)
	for k := range bet {
		bet[k] /= 2
	}
	return bet
}
