// Affinigraph - Graph-Based Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/affinigraph

// Package linkpred predicts missing user-user edges from graph structure.
//
// Every distinct non-adjacent pair is scored with four neighbourhood
// heuristics. Each heuristic whose score reaches its threshold emits its own
// Link, so one pair may be predicted up to four times.
package linkpred

import (
	"context"
	"math"

	"github.com/tomtom215/affinigraph/internal/graph"
)

// Heuristic names a link scoring function.
type Heuristic string

// Heuristics in emission order.
const (
	CommonNeighbours       Heuristic = "common_neighbours"
	Jaccard                Heuristic = "jaccard"
	AdamicAdar             Heuristic = "adamic_adar"
	PreferentialAttachment Heuristic = "preferential_attachment"
)

// Heuristics lists every heuristic in emission order.
var Heuristics = []Heuristic{CommonNeighbours, Jaccard, AdamicAdar, PreferentialAttachment}

// Thresholds holds the minimum score for each heuristic.
type Thresholds struct {
	CommonNeighbours       float64 `json:"cn"`
	Jaccard                float64 `json:"jaccard"`
	AdamicAdar             float64 `json:"adamic_adar"`
	PreferentialAttachment float64 `json:"preferential_attachment"`
}

// DefaultThresholds returns CN 1, Jaccard 0.1, Adamic-Adar 0.5, PA 1.0.
func DefaultThresholds() Thresholds {
	return Thresholds{
		CommonNeighbours:       1,
		Jaccard:                0.1,
		AdamicAdar:             0.5,
		PreferentialAttachment: 1.0,
	}
}

// Link is a predicted edge. UserA sorts before UserB and the pair is not
// already adjacent.
type Link struct {
	UserA     string    `json:"user_a"`
	UserB     string    `json:"user_b"`
	Heuristic Heuristic `json:"heuristic"`
	Score     float64   `json:"score"`
}

// Scores holds all four heuristic values for one pair.
type Scores struct {
	CommonNeighbours       float64
	Jaccard                float64
	AdamicAdar             float64
	PreferentialAttachment float64
}

// Score computes the four heuristics for nodes u and v.
func Score(g *graph.AffinityGraph, u, v int) Scores {
	nu, nv := g.Neighbors(u), g.Neighbors(v)

	var common int
	var aa float64
	for i, j := 0, 0; i < len(nu) && j < len(nv); {
		switch {
		case nu[i] < nv[j]:
			i++
		case nu[i] > nv[j]:
			j++
		default:
			// A common neighbour has degree >= 2, so the log is positive.
			aa += 1 / math.Log(float64(g.Degree(nu[i])))
			common++
			i++
			j++
		}
	}

	s := Scores{
		CommonNeighbours:       float64(common),
		AdamicAdar:             aa,
		PreferentialAttachment: float64(len(nu) * len(nv)),
	}
	if union := len(nu) + len(nv) - common; union > 0 {
		s.Jaccard = float64(common) / float64(union)
	}
	return s
}

// Predict scores every non-adjacent pair and returns the links that meet a
// threshold, ordered by pair (node order) then heuristic.
func Predict(ctx context.Context, g *graph.AffinityGraph, th Thresholds) ([]Link, error) {
	n := g.NumNodes()
	var links []Link

	for u := 0; u < n; u++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for v := u + 1; v < n; v++ {
			if g.HasEdge(u, v) {
				continue
			}
			s := Score(g, u, v)
			emit := func(h Heuristic, score, threshold float64) {
				if score >= threshold {
					links = append(links, Link{UserA: g.User(u), UserB: g.User(v), Heuristic: h, Score: score})
				}
			}
			emit(CommonNeighbours, s.CommonNeighbours, th.CommonNeighbours)
			emit(Jaccard, s.Jaccard, th.Jaccard)
			emit(AdamicAdar, s.AdamicAdar, th.AdamicAdar)
			emit(PreferentialAttachment, s.PreferentialAttachment, th.PreferentialAttachment)
		}
	}
	return links, nil
}
