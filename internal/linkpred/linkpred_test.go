// Affinigraph - Graph-Based Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/affinigraph

package linkpred

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/tomtom215/affinigraph/internal/graph"
)

func pathWithIsolated() *graph.AffinityGraph {
	return graph.FromEdges([]string{"d"}, map[[2]string]int{{"a", "b"}: 1, {"b", "c"}: 3})
}

func TestScore(t *testing.T) {
	// a-b, a-c, b-d, c-d, d-e: a and d share b and c.
	g := graph.FromEdges(nil, map[[2]string]int{
		{"a", "b"}: 1, {"a", "c"}: 1, {"b", "d"}: 1, {"c", "d"}: 1, {"d", "e"}: 1,
	})
	a, _ := g.Index("a")
	d, _ := g.Index("d")

	s := Score(g, a, d)
	if s.CommonNeighbours != 2 {
		t.Errorf("CommonNeighbours = %v, want 2", s.CommonNeighbours)
	}
	// N(a)={b,c}, N(d)={b,c,e}: union 3.
	if math.Abs(s.Jaccard-2.0/3.0) > 1e-12 {
		t.Errorf("Jaccard = %v, want 2/3", s.Jaccard)
	}
	wantAA := 2 / math.Log(2)
	if math.Abs(s.AdamicAdar-wantAA) > 1e-12 {
		t.Errorf("AdamicAdar = %v, want %v", s.AdamicAdar, wantAA)
	}
	if s.PreferentialAttachment != 6 {
		t.Errorf("PreferentialAttachment = %v, want 6", s.PreferentialAttachment)
	}
}

func TestPredict_Path(t *testing.T) {
	links, err := Predict(context.Background(), pathWithIsolated(), DefaultThresholds())
	if err != nil {
		t.Fatal(err)
	}
	if len(links) != 4 {
		t.Fatalf("got %d links, want 4 (every heuristic for a-c): %v", len(links), links)
	}
	for i, l := range links {
		if l.UserA != "a" || l.UserB != "c" {
			t.Errorf("link %d = %s-%s, want a-c", i, l.UserA, l.UserB)
		}
		if l.Heuristic != Heuristics[i] {
			t.Errorf("link %d heuristic = %s, want %s", i, l.Heuristic, Heuristics[i])
		}
	}
}

func TestPredict_Invariants(t *testing.T) {
	g := graph.FromEdges([]string{"iso"}, map[[2]string]int{
		{"u1", "u2"}: 1, {"u2", "u3"}: 1, {"u3", "u4"}: 2, {"u4", "u5"}: 1,
		{"u5", "u1"}: 1, {"u2", "u5"}: 1, {"u6", "u3"}: 1,
	})
	th := DefaultThresholds()
	links, err := Predict(context.Background(), g, th)
	if err != nil {
		t.Fatal(err)
	}
	if len(links) == 0 {
		t.Fatal("expected some predicted links")
	}

	min := map[Heuristic]float64{
		CommonNeighbours:       th.CommonNeighbours,
		Jaccard:                th.Jaccard,
		AdamicAdar:             th.AdamicAdar,
		PreferentialAttachment: th.PreferentialAttachment,
	}
	for _, l := range links {
		if l.UserA >= l.UserB {
			t.Errorf("link %s-%s not ordered", l.UserA, l.UserB)
		}
		a, _ := g.Index(l.UserA)
		b, _ := g.Index(l.UserB)
		if g.HasEdge(a, b) {
			t.Errorf("link %s-%s is already an edge", l.UserA, l.UserB)
		}
		if l.Score < min[l.Heuristic] {
			t.Errorf("link %+v below threshold %v", l, min[l.Heuristic])
		}
		if l.UserA == "iso" || l.UserB == "iso" {
			t.Errorf("isolated user cannot reach any threshold: %+v", l)
		}
	}
}

func TestPredict_HighThresholds(t *testing.T) {
	th := Thresholds{CommonNeighbours: 10, Jaccard: 1.1, AdamicAdar: 100, PreferentialAttachment: 1000}
	links, err := Predict(context.Background(), pathWithIsolated(), th)
	if err != nil {
		t.Fatal(err)
	}
	if len(links) != 0 {
		t.Errorf("got %v, want none", links)
	}
}

func TestPredict_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Predict(ctx, pathWithIsolated(), DefaultThresholds()); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}
