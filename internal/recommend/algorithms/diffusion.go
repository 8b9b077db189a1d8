// Affinigraph - Graph-Based Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/affinigraph

package algorithms

import (
	"context"
	"errors"
	"fmt"

	"github.com/tomtom215/affinigraph/internal/diffusion"
	"github.com/tomtom215/affinigraph/internal/recommend"
)

// Diffusion recommends items pooled across an Independent Cascade.
type Diffusion struct {
	base
}

// NewDiffusion returns the Independent Cascade adapter.
func NewDiffusion() *Diffusion {
	return &Diffusion{base: base{id: recommend.AlgorithmDiffusion}}
}

// Compute runs one cascade with a random source seeded from
// Config.RandomSeed. Fewer nodes than seeds is not a failure: every node is
// seeded instead and the shortfall is reported in Summary.Warnings.
func (d *Diffusion) Compute(ctx context.Context, snap *recommend.Snapshot, cfg *recommend.Config) (recommend.RecommendationMap, *recommend.Summary, error) {
	rng := diffusion.NewRand(cfg.RandomSeed)
	cascade, err := diffusion.Simulate(ctx, snap.Graph, cfg.Diffusion, rng)
	if err != nil && !errors.Is(err, diffusion.ErrInsufficientNodes) {
		return nil, nil, fmt.Errorf("simulate cascade: %w", err)
	}

	infected := cascade.Infected()
	summary := &recommend.Summary{
		InfectedUsers: len(infected),
		Rounds:        len(cascade.Rounds),
	}
	if err != nil {
		summary.Warnings = append(summary.Warnings, fmt.Sprintf("%v: %d seeds requested, %d users", err, cfg.Diffusion.Seeds, snap.Graph.NumNodes()))
	}
	return recommend.FromInfected(snap.Graph, snap.History, infected, cfg.TopN), summary, nil
}
