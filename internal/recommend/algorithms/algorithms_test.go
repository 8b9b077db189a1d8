// Affinigraph - Graph-Based Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/affinigraph

package algorithms

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"reflect"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/tomtom215/affinigraph/internal/diffusion"
	"github.com/tomtom215/affinigraph/internal/graph"
	"github.com/tomtom215/affinigraph/internal/recommend"
)

func snapshotOf(records []graph.Interaction) *recommend.Snapshot {
	return recommend.NewSnapshot(1, graph.Build(records))
}

func twoPairRecords() []graph.Interaction {
	return []graph.Interaction{
		{UserID: "A", ItemID: 1}, {UserID: "A", ItemID: 3},
		{UserID: "B", ItemID: 1}, {UserID: "B", ItemID: 4},
		{UserID: "C", ItemID: 2}, {UserID: "C", ItemID: 5},
		{UserID: "D", ItemID: 2}, {UserID: "D", ItemID: 6},
	}
}

// randomRecords builds a reproducible dataset with overlapping tastes.
func randomRecords(users, items int, seed int64) []graph.Interaction {
	rng := rand.New(rand.NewSource(seed))
	var out []graph.Interaction
	for u := 0; u < users; u++ {
		n := 3 + rng.Intn(6)
		for i := 0; i < n; i++ {
			out = append(out, graph.Interaction{
				UserID:    fmt.Sprintf("user-%02d", u),
				ItemID:    int64(1 + rng.Intn(items)),
				Rating:    float64(1 + rng.Intn(5)),
				Timestamp: int64(u*100 + i),
			})
		}
	}
	return out
}

func newEngine(t *testing.T, cfg *recommend.Config) *recommend.Engine {
	t.Helper()
	e, err := recommend.NewEngine(cfg, zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	if err := RegisterAll(e); err != nil {
		t.Fatal(err)
	}
	return e
}

func TestCommunity_TwoPairs(t *testing.T) {
	snap := snapshotOf(twoPairRecords())
	want := recommend.RecommendationMap{
		"A": {4},
		"B": {3},
		"C": {6},
		"D": {5},
	}
	for _, alg := range []*Community{NewGirvanNewman(), NewLouvain()} {
		t.Run(alg.ID(), func(t *testing.T) {
			recs, summary, err := alg.Compute(context.Background(), snap, recommend.DefaultConfig())
			if err != nil {
				t.Fatal(err)
			}
			if !reflect.DeepEqual(recs, want) {
				t.Errorf("recs = %v, want %v", recs, want)
			}
			if summary.Communities != 2 {
				t.Errorf("communities = %d, want 2", summary.Communities)
			}
			if !summary.HasModularity || math.Abs(summary.Modularity-0.5) > 1e-12 {
				t.Errorf("modularity = %v (has %v), want 0.5", summary.Modularity, summary.HasModularity)
			}
		})
	}
}

func TestCommunity_EdgelessHasNoModularity(t *testing.T) {
	snap := snapshotOf([]graph.Interaction{{UserID: "solo", ItemID: 1}, {UserID: "other", ItemID: 2}})
	_, summary, err := NewLouvain().Compute(context.Background(), snap, recommend.DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	if summary.HasModularity {
		t.Errorf("edgeless graph reported modularity %v", summary.Modularity)
	}
}

func TestDiffusion_FullSpread(t *testing.T) {
	// A chain: u0-u1 share item 1, u1-u2 share item 2, and so on.
	var records []graph.Interaction
	for u := 0; u < 6; u++ {
		records = append(records,
			graph.Interaction{UserID: fmt.Sprintf("u%d", u), ItemID: int64(u)},
			graph.Interaction{UserID: fmt.Sprintf("u%d", u), ItemID: int64(u + 1)},
		)
	}
	snap := snapshotOf(records)

	cfg := recommend.DefaultConfig()
	cfg.Diffusion.Seeds = 1
	cfg.Diffusion.Probability = 1.0
	cfg.RandomSeed = 7

	recs, summary, err := NewDiffusion().Compute(context.Background(), snap, cfg)
	if err != nil {
		t.Fatal(err)
	}
	if summary.InfectedUsers != 6 {
		t.Errorf("infected = %d, want all 6", summary.InfectedUsers)
	}
	if len(summary.Warnings) != 0 {
		t.Errorf("warnings = %v, want none", summary.Warnings)
	}
	// u0 holds items 0 and 1; items 2..6 are held by the others.
	if got := recs["u0"]; len(got) != 5 {
		t.Errorf("u0 = %v, want the five unseen items", got)
	}
}

func TestDiffusion_InsufficientNodesIsNotFailure(t *testing.T) {
	snap := snapshotOf([]graph.Interaction{{UserID: "a", ItemID: 1}, {UserID: "b", ItemID: 2}})
	recs, summary, err := NewDiffusion().Compute(context.Background(), snap, recommend.DefaultConfig())
	if err != nil {
		t.Fatalf("err = %v", err)
	}
	if summary.InfectedUsers != 2 {
		t.Errorf("infected = %d, want both users seeded", summary.InfectedUsers)
	}
	if len(summary.Warnings) != 1 || !strings.Contains(summary.Warnings[0], diffusion.ErrInsufficientNodes.Error()) {
		t.Errorf("warnings = %v, want the seed shortfall", summary.Warnings)
	}
	if !reflect.DeepEqual(recs["a"], []int64{2}) {
		t.Errorf("a = %v, want [2]", recs["a"])
	}
}

func TestEngine_DiffusionShortfallLoggedAtWarn(t *testing.T) {
	var buf bytes.Buffer
	e, err := recommend.NewEngine(recommend.DefaultConfig(), zerolog.New(&buf).Level(zerolog.WarnLevel))
	if err != nil {
		t.Fatal(err)
	}
	if err := e.Register(NewDiffusion()); err != nil {
		t.Fatal(err)
	}
	res, err := e.Submit(context.Background(), twoPairRecords())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := e.Recompute(context.Background(), res.Snapshot); err != nil {
		t.Fatal(err)
	}

	out := buf.String()
	if !strings.Contains(out, `"level":"warn"`) || !strings.Contains(out, diffusion.ErrInsufficientNodes.Error()) {
		t.Errorf("log output = %q, want a warn entry for the seed shortfall", out)
	}
	st := e.Status()
	if len(st) != 1 || st[0].Status != "ok" || len(st[0].Summary.Warnings) != 1 {
		t.Errorf("status = %+v, want ok with one warning", st)
	}
}

func TestLinkPrediction(t *testing.T) {
	// a-b share 1, b-c share 2: a and c are non-adjacent with a common neighbour.
	snap := snapshotOf([]graph.Interaction{
		{UserID: "a", ItemID: 1}, {UserID: "a", ItemID: 10},
		{UserID: "b", ItemID: 1}, {UserID: "b", ItemID: 2},
		{UserID: "c", ItemID: 2}, {UserID: "c", ItemID: 20},
	})
	recs, summary, err := NewLinkPrediction().Compute(context.Background(), snap, recommend.DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	if summary.PredictedLinks != 4 {
		t.Errorf("predicted links = %d, want 4", summary.PredictedLinks)
	}
	want := recommend.RecommendationMap{
		"a": {2, 20},
		"b": {},
		"c": {1, 10},
	}
	if !reflect.DeepEqual(recs, want) {
		t.Errorf("recs = %v, want %v", recs, want)
	}
}

func TestEmptyHistoryAcrossAlgorithms(t *testing.T) {
	g := graph.FromEdges([]string{"ghost"}, map[[2]string]int{{"a", "b"}: 1})
	b := &graph.BuildResult{
		Graph: g,
		History: graph.History{
			"a": {1: {}, 2: {}},
			"b": {1: {}, 3: {}},
		},
		Interactions: []graph.Interaction{
			{UserID: "a", ItemID: 1}, {UserID: "a", ItemID: 2},
			{UserID: "b", ItemID: 1}, {UserID: "b", ItemID: 3},
		},
	}
	snap := recommend.NewSnapshot(1, b)

	cfg := recommend.DefaultConfig()
	cfg.Diffusion.Probability = 1
	cfg.RandomSeed = 3
	for _, alg := range All() {
		t.Run(alg.ID(), func(t *testing.T) {
			recs, _, err := alg.Compute(context.Background(), snap, cfg)
			if err != nil {
				t.Fatal(err)
			}
			if got, ok := recs["ghost"]; !ok || len(got) != 0 {
				t.Errorf("ghost = %v (present %v), want empty list", got, ok)
			}
		})
	}
}

func TestEngine_NoRecommendationInHistory(t *testing.T) {
	cfg := recommend.DefaultConfig()
	cfg.RandomSeed = 11
	cfg.Diffusion.Probability = 0.3
	cfg.TopN = 5
	e := newEngine(t, cfg)

	res, err := e.Submit(context.Background(), randomRecords(30, 40, 5))
	if err != nil {
		t.Fatal(err)
	}
	published, err := e.Recompute(context.Background(), res.Snapshot)
	if err != nil {
		t.Fatal(err)
	}
	if len(published) != len(recommend.KnownAlgorithms) {
		t.Fatalf("published %d results, want %d", len(published), len(recommend.KnownAlgorithms))
	}

	for _, r := range published {
		if !r.OK() {
			t.Errorf("%s failed: %s", r.Algorithm, r.Reason)
			continue
		}
		for _, user := range e.Users() {
			items, err := e.Recommendations(user, r.Algorithm)
			if err != nil {
				t.Fatalf("%s/%s: %v", r.Algorithm, user, err)
			}
			if len(items) > cfg.TopN {
				t.Errorf("%s/%s: %d items exceeds top_n", r.Algorithm, user, len(items))
			}
			own := res.Snapshot.History.Items(user)
			seen := map[int64]bool{}
			for _, item := range items {
				if own.Has(item) {
					t.Errorf("%s/%s: item %d is in history", r.Algorithm, user, item)
				}
				if seen[item] {
					t.Errorf("%s/%s: duplicate item %d", r.Algorithm, user, item)
				}
				seen[item] = true
			}
		}
	}
}

func TestEngine_RecomputeIdempotent(t *testing.T) {
	cfg := recommend.DefaultConfig()
	cfg.RandomSeed = 42
	cfg.Diffusion.Probability = 0.4
	e := newEngine(t, cfg)
	res, err := e.Submit(context.Background(), randomRecords(20, 25, 9))
	if err != nil {
		t.Fatal(err)
	}

	first, err := e.Recompute(context.Background(), res.Snapshot)
	if err != nil {
		t.Fatal(err)
	}
	second, err := e.Recompute(context.Background(), res.Snapshot)
	if err != nil {
		t.Fatal(err)
	}
	for i := range first {
		if !reflect.DeepEqual(first[i].Map, second[i].Map) {
			t.Errorf("%s differs between runs", first[i].Algorithm)
		}
	}
}

func TestEngine_UnknownUser(t *testing.T) {
	e := newEngine(t, recommend.DefaultConfig())
	res, err := e.Submit(context.Background(), twoPairRecords())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := e.Recompute(context.Background(), res.Snapshot); err != nil {
		t.Fatal(err)
	}
	if _, err := e.Recommendations("nonexistent_user", recommend.AlgorithmLouvain); !errors.Is(err, recommend.ErrUnknownUser) {
		t.Errorf("err = %v, want ErrUnknownUser", err)
	}
}

func TestEngine_RegisteredUserGetsEmptyLists(t *testing.T) {
	tests := []struct {
		name    string
		records []graph.Interaction
	}{
		{"only registered users", nil},
		{"registered beside rated users", twoPairRecords()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := recommend.DefaultConfig()
			cfg.RandomSeed = 5
			cfg.Diffusion.Probability = 1
			e := newEngine(t, cfg)

			if tt.records != nil {
				if _, err := e.Submit(context.Background(), tt.records); err != nil {
					t.Fatal(err)
				}
			}
			snap, err := e.RegisterUser(context.Background(), "new_user")
			if err != nil {
				t.Fatal(err)
			}
			idx, ok := snap.Graph.Index("new_user")
			if !ok || snap.Graph.Degree(idx) != 0 {
				t.Fatalf("new_user must be an isolated node (index %d, present %v)", idx, ok)
			}

			published, err := e.Recompute(context.Background(), nil)
			if err != nil {
				t.Fatal(err)
			}
			if len(published) != len(recommend.KnownAlgorithms) {
				t.Fatalf("published %d results, want %d", len(published), len(recommend.KnownAlgorithms))
			}
			for _, id := range recommend.KnownAlgorithms {
				items, err := e.Recommendations("new_user", id)
				if err != nil {
					t.Errorf("%s: %v", id, err)
					continue
				}
				if items == nil || len(items) != 0 {
					t.Errorf("%s: items = %#v, want empty list", id, items)
				}
			}
			if _, err := e.RegisterUser(context.Background(), "new_user"); !errors.Is(err, recommend.ErrUserExists) {
				t.Errorf("second registration: err = %v, want ErrUserExists", err)
			}
		})
	}
}
