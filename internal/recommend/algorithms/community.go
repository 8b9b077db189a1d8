// Affinigraph - Graph-Based Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/affinigraph

package algorithms

import (
	"context"
	"fmt"
	"math"

	"github.com/tomtom215/affinigraph/internal/community"
	"github.com/tomtom215/affinigraph/internal/recommend"
)

// Community recommends each community's most frequent items.
type Community struct {
	base
	detector func(cfg *recommend.Config) community.Detector
}

// NewGirvanNewman returns the divisive edge-betweenness adapter.
func NewGirvanNewman() *Community {
	return &Community{
		base: base{id: recommend.AlgorithmGirvanNewman},
		detector: func(*recommend.Config) community.Detector {
			return community.DetectorFunc(community.GirvanNewman)
		},
	}
}

// NewLouvain returns the greedy modularity adapter. Edge weighting follows
// Config.LouvainWeighted.
func NewLouvain() *Community {
	return &Community{
		base: base{id: recommend.AlgorithmLouvain},
		detector: func(cfg *recommend.Config) community.Detector {
			return &community.LouvainDetector{Weighted: cfg.LouvainWeighted}
		},
	}
}

// Compute partitions the snapshot graph and aggregates per community.
func (c *Community) Compute(ctx context.Context, snap *recommend.Snapshot, cfg *recommend.Config) (recommend.RecommendationMap, *recommend.Summary, error) {
	res, err := c.detector(cfg).Detect(ctx, snap.Graph)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", c.id, err)
	}

	summary := &recommend.Summary{
		Communities:   res.Communities(),
		Modularity:    res.Modularity,
		HasModularity: !math.IsInf(res.Modularity, 0) && !math.IsNaN(res.Modularity),
		Levels:        len(res.Dendrogram) + len(res.PassModularity),
	}
	return recommend.FromPartition(snap.Graph, snap.History, res.Partition, cfg.TopN), summary, nil
}
