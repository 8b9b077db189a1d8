// Affinigraph - Graph-Based Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/affinigraph

package graph

import (
	"sort"
	"strings"
)

// BuildResult is the output of Build.
type BuildResult struct {
	Graph   *AffinityGraph
	History History

	// Interactions holds the accepted records after deduplication, one per
	// (user, item) pair, ordered by user then item.
	Interactions []Interaction

	// Rejected holds one error per dropped record, in input order.
	Rejected []*InvalidInteractionError
}

type userItem struct {
	user string
	item int64
}

// Build projects records onto the user-affinity graph. Records without a user
// or item id are rejected and the rest of the batch proceeds. When the same
// (user, item) pair occurs more than once the record with the latest
// timestamp is kept; equal timestamps keep the later record.
//
// Every id in users becomes a node even without interactions; such a user
// has an empty history and degree zero. Blank ids are ignored.
func Build(records []Interaction, users ...string) *BuildResult {
	res := &BuildResult{History: make(History)}

	latest := make(map[userItem]Interaction, len(records))
	for i := range records {
		rec := records[i]
		if ierr := rec.check(); ierr != nil {
			ierr.Index = i
			res.Rejected = append(res.Rejected, ierr)
			continue
		}
		key := userItem{rec.UserID, rec.ItemID}
		if prev, ok := latest[key]; ok && prev.Timestamp > rec.Timestamp {
			continue
		}
		latest[key] = rec
	}

	for _, u := range users {
		if strings.TrimSpace(u) != "" && res.History[u] == nil {
			res.History[u] = make(ItemSet)
		}
	}

	itemUsers := make(map[int64][]string)
	for key, rec := range latest {
		items := res.History[key.user]
		if items == nil {
			items = make(ItemSet)
			res.History[key.user] = items
		}
		items[key.item] = struct{}{}
		itemUsers[key.item] = append(itemUsers[key.item], key.user)
		res.Interactions = append(res.Interactions, rec)
	}
	sort.Slice(res.Interactions, func(i, j int) bool {
		a, b := res.Interactions[i], res.Interactions[j]
		if a.UserID != b.UserID {
			return a.UserID < b.UserID
		}
		return a.ItemID < b.ItemID
	})

	nodes := make([]string, 0, len(res.History))
	for u := range res.History {
		nodes = append(nodes, u)
	}
	sort.Strings(nodes)
	index := make(map[string]int, len(nodes))
	for i, u := range nodes {
		index[u] = i
	}

	nbr := make([]map[int]int, len(nodes))
	for i := range nbr {
		nbr[i] = make(map[int]int)
	}
	for _, members := range itemUsers {
		for a := 0; a < len(members); a++ {
			ua := index[members[a]]
			for b := a + 1; b < len(members); b++ {
				ub := index[members[b]]
				nbr[ua][ub]++
				nbr[ub][ua]++
			}
		}
	}

	res.Graph = newAffinityGraph(nodes, nbr)
	return res
}
