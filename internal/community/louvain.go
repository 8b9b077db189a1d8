// Affinigraph - Graph-Based Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/affinigraph

package community

import (
	"context"
	"math"
	"sort"

	"github.com/tomtom215/affinigraph/internal/graph"
)

// LouvainDetector runs greedy modularity optimisation.
type LouvainDetector struct {
	// Weighted uses shared-item counts as edge weights; otherwise every edge
	// weighs 1.
	Weighted bool
}

// Louvain runs the detector with the given weighting.
func Louvain(ctx context.Context, g *graph.AffinityGraph, weighted bool) (*Result, error) {
	return (&LouvainDetector{Weighted: weighted}).Detect(ctx, g)
}

// Detect partitions g. Each level sweeps nodes in ascending index, moving a
// node to the neighbouring community with the largest modularity gain over
// staying (ties to the lowest community id), until a sweep moves nothing.
// Communities are then collapsed into super-nodes and the next level runs on
// the coarser graph. The run ends at the first level without a move.
func (d *LouvainDetector) Detect(ctx context.Context, g *graph.AffinityGraph) (*Result, error) {
	n := g.NumNodes()
	if g.NumEdges() == 0 {
		return &Result{Partition: graph.Singletons(n), Modularity: math.Inf(-1)}, nil
	}

	score := g.Modularity
	if d.Weighted {
		score = g.WeightedModularity
	}

	level := newLevelGraph(g, d.Weighted)
	membership := graph.Singletons(n) // original node -> current super-node
	res := &Result{Partition: membership, Modularity: score(membership)}

	for {
		comm, moved, err := level.localMoves(ctx)
		if err != nil {
			return nil, err
		}
		if !moved {
			break
		}

		dense := graph.Partition(comm).Canonical()
		for i, super := range membership {
			membership[i] = dense[super]
		}

		q := score(membership)
		res.PassModularity = append(res.PassModularity, q)
		res.Modularity = q

		level = level.aggregate(dense)
	}

	res.Partition = membership.Canonical()
	return res, nil
}

// levelGraph is the (super-)node graph of one Louvain level. Internal weight
// of a collapsed community is kept as a self-loop.
type levelGraph struct {
	adj  []map[int]float64
	loop []float64
	k    []float64 // weighted degree, self-loops counted twice
	m2   float64   // sum of k
}

func newLevelGraph(g *graph.AffinityGraph, weighted bool) *levelGraph {
	n := g.NumNodes()
	lg := &levelGraph{adj: make([]map[int]float64, n), loop: make([]float64, n)}
	for u := 0; u < n; u++ {
		lg.adj[u] = make(map[int]float64, g.Degree(u))
		for _, v := range g.Neighbors(u) {
			w := 1.0
			if weighted {
				w = float64(g.Weight(u, v))
			}
			lg.adj[u][v] = w
		}
	}
	lg.computeDegrees()
	return lg
}

func (lg *levelGraph) computeDegrees() {
	lg.k = make([]float64, len(lg.adj))
	lg.m2 = 0
	for i, nbrs := range lg.adj {
		ki := 2 * lg.loop[i]
		for _, w := range nbrs {
			ki += w
		}
		lg.k[i] = ki
		lg.m2 += ki
	}
}

// localMoves runs sweeps until one makes no move. It returns the community of
// every node and whether any node moved.
func (lg *levelGraph) localMoves(ctx context.Context) ([]int, bool, error) {
	n := len(lg.adj)
	comm := make([]int, n)
	tot := make([]float64, n)
	for i := range comm {
		comm[i] = i
		tot[i] = lg.k[i]
	}

	anyMove := false
	kin := make(map[int]float64)
	candidates := make([]int, 0)

	for {
		if err := ctx.Err(); err != nil {
			return nil, false, err
		}

		moved := false
		for i := 0; i < n; i++ {
			ci := comm[i]
			ki := lg.k[i]

			clear(kin)
			for j, w := range lg.adj[i] {
				kin[comm[j]] += w
			}

			tot[ci] -= ki
			best := ci
			bestGain := kin[ci] - tot[ci]*ki/lg.m2

			candidates = candidates[:0]
			for c := range kin {
				if c != ci {
					candidates = append(candidates, c)
				}
			}
			sort.Ints(candidates)
			for _, c := range candidates {
				if gain := kin[c] - tot[c]*ki/lg.m2; gain > bestGain+modularityEpsilon {
					best, bestGain = c, gain
				}
			}

			tot[best] += ki
			if best != ci {
				comm[i] = best
				moved = true
				anyMove = true
			}
		}
		if !moved {
			return comm, anyMove, nil
		}
	}
}

// aggregate collapses each community of dense into one super-node.
func (lg *levelGraph) aggregate(dense graph.Partition) *levelGraph {
	size := dense.NumCommunities()
	next := &levelGraph{adj: make([]map[int]float64, size), loop: make([]float64, size)}
	for c := range next.adj {
		next.adj[c] = make(map[int]float64)
	}

	for i, nbrs := range lg.adj {
		ci := dense[i]
		next.loop[ci] += lg.loop[i]
		for j, w := range nbrs {
			cj := dense[j]
			if ci == cj {
				// Each internal edge is seen from both ends.
				next.loop[ci] += w / 2
				continue
			}
			next.adj[ci][cj] += w
		}
	}
	next.computeDegrees()
	return next
}
