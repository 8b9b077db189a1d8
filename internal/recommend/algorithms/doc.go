// Affinigraph - Graph-Based Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/affinigraph

// Package algorithms adapts the graph analyses to recommend.Algorithm.
//
// Each adapter runs one analysis over a snapshot and hands its structural
// output to the matching aggregator of package recommend:
//
//   - GirvanNewman, Louvain: community partition -> FromPartition
//   - LinkPrediction: predicted links -> FromLinks
//   - Diffusion: infected users -> FromInfected
//   - Frequency: global item frequency -> FromFrequency
//
// # Thread Safety
//
// Adapters are stateless. Everything they read comes from the immutable
// snapshot and config passed to Compute, so the engine runs them
// concurrently.
package algorithms

import "github.com/tomtom215/affinigraph/internal/recommend"

// base provides the algorithm id.
type base struct {
	id string
}

// ID returns the algorithm identifier.
func (b base) ID() string {
	return b.id
}

// All returns one adapter for every known algorithm, in KnownAlgorithms order.
func All() []recommend.Algorithm {
	return []recommend.Algorithm{
		NewGirvanNewman(),
		NewLouvain(),
		NewLinkPrediction(),
		NewDiffusion(),
		NewFrequency(),
	}
}

// RegisterAll registers every adapter with e.
func RegisterAll(e *recommend.Engine) error {
	for _, alg := range All() {
		if err := e.Register(alg); err != nil {
			return err
		}
	}
	return nil
}

var (
	_ recommend.Algorithm = (*Community)(nil)
	_ recommend.Algorithm = (*LinkPrediction)(nil)
	_ recommend.Algorithm = (*Diffusion)(nil)
	_ recommend.Algorithm = (*Frequency)(nil)
)
