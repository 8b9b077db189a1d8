// Affinigraph - Graph-Based Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/affinigraph

package algorithms

import (
	"context"
	"fmt"

	"github.com/tomtom215/affinigraph/internal/linkpred"
	"github.com/tomtom215/affinigraph/internal/recommend"
)

// LinkPrediction recommends items across predicted user-user links.
type LinkPrediction struct {
	base
}

// NewLinkPrediction returns the link prediction adapter.
func NewLinkPrediction() *LinkPrediction {
	return &LinkPrediction{base: base{id: recommend.AlgorithmPredictLinks}}
}

// Compute predicts links with the configured thresholds and aggregates the
// items they offer.
func (l *LinkPrediction) Compute(ctx context.Context, snap *recommend.Snapshot, cfg *recommend.Config) (recommend.RecommendationMap, *recommend.Summary, error) {
	links, err := linkpred.Predict(ctx, snap.Graph, cfg.Thresholds)
	if err != nil {
		return nil, nil, fmt.Errorf("predict links: %w", err)
	}
	summary := &recommend.Summary{PredictedLinks: len(links)}
	return recommend.FromLinks(snap.Graph, snap.History, links, cfg.TopN), summary, nil
}
