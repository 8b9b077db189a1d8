// Affinigraph - Graph-Based Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/affinigraph

package recommend

import (
	"sort"

	"github.com/tomtom215/affinigraph/internal/graph"
	"github.com/tomtom215/affinigraph/internal/linkpred"
)

// Every aggregator returns an entry for every user of the graph. A user with
// an empty history always gets an empty list.

// sortCounts orders by count descending, then item id ascending.
func sortCounts(c []ItemCount) {
	sort.Slice(c, func(i, j int) bool {
		if c[i].Count != c[j].Count {
			return c[i].Count > c[j].Count
		}
		return c[i].ItemID < c[j].ItemID
	})
}

func rankCounts(counts map[int64]int) []ItemCount {
	ranked := make([]ItemCount, 0, len(counts))
	for id, n := range counts {
		ranked = append(ranked, ItemCount{ItemID: id, Count: n})
	}
	sortCounts(ranked)
	return ranked
}

// unseen walks ranked in order, skipping items in own, and stops after limit
// items. A negative limit means no limit.
func unseen(ranked []ItemCount, own graph.ItemSet, limit int) []int64 {
	out := make([]int64, 0)
	for _, ic := range ranked {
		if limit >= 0 && len(out) == limit {
			break
		}
		if own.Has(ic.ItemID) {
			continue
		}
		out = append(out, ic.ItemID)
	}
	return out
}

// FromPartition ranks the top-N items of each community by member frequency
// and gives every user that list minus their own history, order preserved.
func FromPartition(g *graph.AffinityGraph, history graph.History, p graph.Partition, topN int) RecommendationMap {
	recs := make(RecommendationMap, g.NumNodes())

	ranked := make([][]ItemCount, p.NumCommunities())
	for c, members := range p.Communities() {
		counts := make(map[int64]int)
		for _, node := range members {
			for item := range history.Items(g.User(node)) {
				counts[item]++
			}
		}
		top := rankCounts(counts)
		if len(top) > topN {
			top = top[:topN]
		}
		ranked[c] = top
	}

	for node, c := range p {
		user := g.User(node)
		own := history.Items(user)
		if len(own) == 0 || c < 0 || c >= len(ranked) {
			recs[user] = []int64{}
			continue
		}
		recs[user] = unseen(ranked[c], own, -1)
	}
	return recs
}

// FromLinks offers each endpoint of every predicted link the other
// endpoint's items it has not seen. A pair predicted by several heuristics
// offers once per heuristic. Each user's items are ranked by offer count.
func FromLinks(g *graph.AffinityGraph, history graph.History, links []linkpred.Link, topN int) RecommendationMap {
	offers := make(map[string]map[int64]int)
	offer := func(to, from string) {
		own := history.Items(to)
		if len(own) == 0 {
			return
		}
		for item := range history.Items(from) {
			if own.Has(item) {
				continue
			}
			m := offers[to]
			if m == nil {
				m = make(map[int64]int)
				offers[to] = m
			}
			m[item]++
		}
	}
	for _, l := range links {
		offer(l.UserA, l.UserB)
		offer(l.UserB, l.UserA)
	}

	recs := make(RecommendationMap, g.NumNodes())
	for _, user := range g.Users() {
		recs[user] = unseen(rankCounts(offers[user]), nil, topN)
	}
	return recs
}

// FromInfected pools the items of all infected users. Each infected user
// gets the items held by the other infected users, ranked by how many of
// them hold it, minus their own history. Users outside the infected set get
// an empty list.
func FromInfected(g *graph.AffinityGraph, history graph.History, infected []string, topN int) RecommendationMap {
	counts := make(map[int64]int)
	for _, user := range infected {
		for item := range history.Items(user) {
			counts[item]++
		}
	}
	// Items in a user's own history are excluded, so the pool of the other
	// infected users ranks the same as the pool of all of them.
	ranked := rankCounts(counts)

	recs := make(RecommendationMap, g.NumNodes())
	for _, user := range g.Users() {
		recs[user] = []int64{}
	}
	for _, user := range infected {
		own := history.Items(user)
		if len(own) == 0 {
			continue
		}
		recs[user] = unseen(ranked, own, topN)
	}
	return recs
}

// FromFrequency gives every user the globally most frequent items they have
// not seen.
func FromFrequency(g *graph.AffinityGraph, history graph.History, ranked []ItemCount, topN int) RecommendationMap {
	recs := make(RecommendationMap, g.NumNodes())
	for _, user := range g.Users() {
		own := history.Items(user)
		if len(own) == 0 {
			recs[user] = []int64{}
			continue
		}
		recs[user] = unseen(ranked, own, topN)
	}
	return recs
}
