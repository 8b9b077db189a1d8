// Affinigraph - Graph-Based Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/affinigraph

package main

import (
	"context"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/affinigraph/internal/config"
	"github.com/tomtom215/affinigraph/internal/graph"
	"github.com/tomtom215/affinigraph/internal/recommend"
)

func testConfig() *config.Config {
	return &config.Config{
		Recommend: config.RecommendConfig{
			TopN:                 7,
			SeedCount:            3,
			DiffusionProbability: 0.2,
			Thresholds: config.ThresholdsConfig{
				CommonNeighbours:       2,
				Jaccard:                0.3,
				AdamicAdar:             0.4,
				PreferentialAttachment: 5,
			},
			RandomSeed:       99,
			LouvainWeighted:  true,
			Algorithms:       []string{recommend.AlgorithmLouvain, recommend.AlgorithmFrequency},
			RecomputeTimeout: time.Minute,
		},
	}
}

func TestBuildEngineConfig(t *testing.T) {
	cfg := testConfig()
	got := buildEngineConfig(cfg)

	if got.TopN != 7 || got.Diffusion.Seeds != 3 || got.Diffusion.Probability != 0.2 {
		t.Errorf("engine config = %+v", got)
	}
	if got.Thresholds.CommonNeighbours != 2 || got.Thresholds.PreferentialAttachment != 5 {
		t.Errorf("thresholds = %+v", got.Thresholds)
	}
	if got.RandomSeed != 99 || !got.LouvainWeighted || got.RecomputeTimeout != time.Minute {
		t.Errorf("engine config = %+v", got)
	}
	if err := got.Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}

	// The engine must not alias the config slice.
	got.Algorithms[0] = "mutated"
	if cfg.Recommend.Algorithms[0] != recommend.AlgorithmLouvain {
		t.Error("buildEngineConfig aliases the algorithms slice")
	}
}

func TestInitEngine_RestoresFromStore(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig()
	cfg.Storage = config.StorageConfig{Enabled: true, Path: filepath.Join(t.TempDir(), "log")}

	st, err := initStore(ctx, cfg, zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	defer st.Close()

	first, err := initEngine(ctx, cfg, st, zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	if first.Snapshot() != nil {
		t.Fatal("empty store produced a snapshot")
	}
	if !reflect.DeepEqual(first.Algorithms(), []string{recommend.AlgorithmLouvain, recommend.AlgorithmFrequency}) {
		t.Errorf("algorithms = %v", first.Algorithms())
	}
	if _, err := first.Submit(ctx, []graph.Interaction{
		{UserID: "a", ItemID: 1}, {UserID: "b", ItemID: 1},
	}); err != nil {
		t.Fatal(err)
	}

	second, err := initEngine(ctx, cfg, st, zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	snap := second.Snapshot()
	if snap == nil || !snap.HasUser("a") || !snap.HasUser("b") {
		t.Errorf("restored snapshot = %+v", snap)
	}
}

func TestInitDisabledComponents(t *testing.T) {
	cfg := testConfig()

	st, err := initStore(context.Background(), cfg, zerolog.Nop())
	if st != nil || err != nil {
		t.Errorf("initStore with storage disabled = %v, %v", st, err)
	}
	s, w, err := initSink(context.Background(), cfg, zerolog.Nop())
	if s != nil || w != nil || err != nil {
		t.Errorf("initSink with sink disabled = %v, %v, %v", s, w, err)
	}
}

func TestConfigAlgorithmsMatchEngine(t *testing.T) {
	if !reflect.DeepEqual(config.KnownAlgorithms, recommend.KnownAlgorithms) {
		t.Errorf("config.KnownAlgorithms = %v, recommend.KnownAlgorithms = %v",
			config.KnownAlgorithms, recommend.KnownAlgorithms)
	}
}
