// Affinigraph - Graph-Based Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/affinigraph

package recommend

import (
	"fmt"
	"sort"
	"time"

	"github.com/tomtom215/affinigraph/internal/graph"
)

// UserInfo describes one user of the current snapshot.
type UserInfo struct {
	UserID string
	Items  []int64
	Degree int
}

// Users returns every user of the current snapshot in node order.
func (e *Engine) Users() []string {
	snap := e.snapshot.Load()
	if snap == nil {
		return []string{}
	}
	out := make([]string, len(snap.userIDs))
	copy(out, snap.userIDs)
	return out
}

// User returns the history and degree of userID.
func (e *Engine) User(userID string) (*UserInfo, error) {
	snap := e.snapshot.Load()
	if snap == nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownUser, userID)
	}
	idx, ok := snap.Graph.Index(userID)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownUser, userID)
	}
	return &UserInfo{
		UserID: userID,
		Items:  snap.History.Items(userID).Sorted(),
		Degree: snap.Graph.Degree(idx),
	}, nil
}

// Items returns every item id that is rated in the current snapshot or
// registered in the catalog, ascending.
func (e *Engine) Items() []int64 {
	var (
		rated []int64
		stats map[int64]*ItemStats
	)
	if snap := e.snapshot.Load(); snap != nil {
		rated, stats = snap.itemIDs, snap.items
	}

	e.catalogMu.RLock()
	out := make([]int64, 0, len(rated)+len(e.catalog))
	out = append(out, rated...)
	for id := range e.catalog {
		if _, ok := stats[id]; !ok {
			out = append(out, id)
		}
	}
	e.catalogMu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (e *Engine) ratedItem(itemID int64) (*ItemStats, bool) {
	snap := e.snapshot.Load()
	if snap == nil {
		return nil, false
	}
	st, ok := snap.items[itemID]
	return st, ok
}

// Item returns the statistics and catalog metadata of itemID. A registered
// item nobody rated has zero users.
func (e *Engine) Item(itemID int64) (*ItemStats, error) {
	out := ItemStats{ItemID: itemID}
	st, rated := e.ratedItem(itemID)
	if rated {
		out = *st
	}

	e.catalogMu.RLock()
	meta, registered := e.catalog[itemID]
	e.catalogMu.RUnlock()

	if !rated && !registered {
		return nil, fmt.Errorf("%w: %d", ErrUnknownItem, itemID)
	}
	if registered {
		out.Metadata = &meta
	}
	return &out, nil
}

// Catalog returns the metadata of every registered item ordered by id.
func (e *Engine) Catalog() []graph.Item {
	e.catalogMu.RLock()
	out := make([]graph.Item, 0, len(e.catalog))
	for _, it := range e.catalog {
		out = append(out, it)
	}
	e.catalogMu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ItemID < out[j].ItemID })
	return out
}

// AlgorithmState is the status of one active algorithm.
type AlgorithmState struct {
	Algorithm string

	// Status is "pending" until the first result is stored.
	Status          string
	Reason          string
	SnapshotVersion uint64
	ComputedAt      time.Time
	Duration        time.Duration
	Summary         *Summary
	Users           int
}

// Status returns the state of every active algorithm in KnownAlgorithms order.
func (e *Engine) Status() []AlgorithmState {
	algs := e.Algorithms()
	out := make([]AlgorithmState, 0, len(algs))
	for _, id := range algs {
		st := AlgorithmState{Algorithm: id, Status: "pending"}
		if r := e.results[id].Load(); r != nil {
			st.Status = string(r.Status)
			st.Reason = r.Reason
			st.SnapshotVersion = r.Snapshot.Version
			st.ComputedAt = r.ComputedAt
			st.Duration = r.Duration
			st.Summary = r.Summary
			st.Users = len(r.Map)
		}
		out = append(out, st)
	}
	return out
}
