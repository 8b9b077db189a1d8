// Affinigraph - Graph-Based Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/affinigraph

// Package community partitions the affinity graph into communities.
//
// Two strategies are provided:
//
//   - GirvanNewman: divisive. Repeatedly removes the edge of highest
//     betweenness and keeps the component partition of highest modularity.
//   - Louvain: agglomerative. Greedily moves nodes between neighbouring
//     communities while modularity improves, then collapses communities into
//     super-nodes and repeats.
//
// Both are deterministic for a given graph: nodes are always visited in
// ascending node index and every tie has a fixed rule.
package community

import (
	"context"

	"github.com/tomtom215/affinigraph/internal/graph"
)

const (
	// betweennessEpsilon separates betweenness ties from real differences.
	betweennessEpsilon = 1e-9

	// modularityEpsilon separates modularity ties from real differences.
	modularityEpsilon = 1e-12
)

// Level is one candidate partition of the Girvan-Newman dendrogram.
type Level struct {
	Removals   int
	Partition  graph.Partition
	Modularity float64
}

// Result is the outcome of a community detection run.
type Result struct {
	// Partition is canonical: dense ids ordered by lowest member node.
	Partition  graph.Partition
	Modularity float64

	// Dendrogram lists every distinct Girvan-Newman candidate in removal order.
	Dendrogram []Level

	// PassModularity is the Louvain modularity after each aggregation level.
	PassModularity []float64
}

// Communities returns the number of communities in the selected partition.
func (r *Result) Communities() int {
	return r.Partition.NumCommunities()
}

// Detector is implemented by both strategies.
type Detector interface {
	Detect(ctx context.Context, g *graph.AffinityGraph) (*Result, error)
}

// DetectorFunc adapts a function to Detector.
type DetectorFunc func(ctx context.Context, g *graph.AffinityGraph) (*Result, error)

// Detect calls f.
func (f DetectorFunc) Detect(ctx context.Context, g *graph.AffinityGraph) (*Result, error) {
	return f(ctx, g)
}

var (
	_ Detector = DetectorFunc(GirvanNewman)
	_ Detector = (*LouvainDetector)(nil)
)
