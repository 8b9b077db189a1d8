// Affinigraph - Graph-Based Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/affinigraph

package algorithms

import (
	"context"

	"github.com/tomtom215/affinigraph/internal/recommend"
)

// Frequency is the non-graph baseline: the most popular unseen items.
type Frequency struct {
	base
}

// NewFrequency returns the frequency baseline.
func NewFrequency() *Frequency {
	return &Frequency{base: base{id: recommend.AlgorithmFrequency}}
}

// Compute ranks items by the number of users who interacted with them.
func (f *Frequency) Compute(ctx context.Context, snap *recommend.Snapshot, cfg *recommend.Config) (recommend.RecommendationMap, *recommend.Summary, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	return recommend.FromFrequency(snap.Graph, snap.History, snap.ItemFrequency(), cfg.TopN), &recommend.Summary{}, nil
}
