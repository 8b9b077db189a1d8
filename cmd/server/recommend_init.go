// Affinigraph - Graph-Based Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/affinigraph

package main

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/tomtom215/affinigraph/internal/config"
	"github.com/tomtom215/affinigraph/internal/diffusion"
	"github.com/tomtom215/affinigraph/internal/linkpred"
	"github.com/tomtom215/affinigraph/internal/recommend"
	"github.com/tomtom215/affinigraph/internal/recommend/algorithms"
	"github.com/tomtom215/affinigraph/internal/store"
)

// buildEngineConfig maps the recommend section onto the engine configuration.
func buildEngineConfig(cfg *config.Config) *recommend.Config {
	r := cfg.Recommend
	return &recommend.Config{
		TopN: r.TopN,
		Diffusion: diffusion.Config{
			Seeds:       r.SeedCount,
			Probability: r.DiffusionProbability,
		},
		Thresholds: linkpred.Thresholds{
			CommonNeighbours:       r.Thresholds.CommonNeighbours,
			Jaccard:                r.Thresholds.Jaccard,
			AdamicAdar:             r.Thresholds.AdamicAdar,
			PreferentialAttachment: r.Thresholds.PreferentialAttachment,
		},
		RandomSeed:       r.RandomSeed,
		LouvainWeighted:  r.LouvainWeighted,
		Algorithms:       append([]string(nil), r.Algorithms...),
		RecomputeTimeout: r.RecomputeTimeout,
	}
}

// initEngine creates the engine, registers every algorithm and, when st is
// non-nil, replays the stored interaction log into a first snapshot.
//
//nolint:gocritic // hugeParam: logger passed by value for zerolog chaining
func initEngine(ctx context.Context, cfg *config.Config, st *store.BadgerStore, logger zerolog.Logger) (*recommend.Engine, error) {
	engine, err := recommend.NewEngine(buildEngineConfig(cfg), logger)
	if err != nil {
		return nil, fmt.Errorf("create engine: %w", err)
	}
	if err := algorithms.RegisterAll(engine); err != nil {
		return nil, fmt.Errorf("register algorithms: %w", err)
	}
	logger.Info().
		Strs("algorithms", engine.Algorithms()).
		Int("top_n", cfg.Recommend.TopN).
		Int64("random_seed", cfg.Recommend.RandomSeed).
		Msg("recommendation engine initialized")

	if st == nil {
		return engine, nil
	}
	engine.SetStore(st)

	snap, err := engine.Restore(ctx)
	if err != nil {
		return nil, fmt.Errorf("restore snapshot: %w", err)
	}
	if snap != nil {
		logger.Info().
			Uint64("snapshot_version", snap.Version).
			Int("users", len(snap.Graph.Users())).
			Msg("snapshot restored from interaction log")
	}
	return engine, nil
}
