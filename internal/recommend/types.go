// Affinigraph - Graph-Based Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/affinigraph

package recommend

import (
	"context"
	"sort"
	"time"

	"github.com/tomtom215/affinigraph/internal/graph"
)

// Algorithm identifiers. The set is closed: Register rejects any other id.
const (
	AlgorithmGirvanNewman = "girvan_newman"
	AlgorithmLouvain      = "louvain"
	AlgorithmPredictLinks = "predict_links"
	AlgorithmDiffusion    = "information_diffusion_ic"
	AlgorithmFrequency    = "frequency"
)

// KnownAlgorithms lists every algorithm id in display order.
var KnownAlgorithms = []string{
	AlgorithmGirvanNewman,
	AlgorithmLouvain,
	AlgorithmPredictLinks,
	AlgorithmDiffusion,
	AlgorithmFrequency,
}

// IsKnownAlgorithm reports whether id is in KnownAlgorithms.
func IsKnownAlgorithm(id string) bool {
	for _, k := range KnownAlgorithms {
		if k == id {
			return true
		}
	}
	return false
}

// RecommendationMap maps a user id to its ranked item list. Lists never
// contain duplicates or items from the user's own history.
type RecommendationMap map[string][]int64

// Algorithm computes a RecommendationMap from a snapshot. Implementations
// must not mutate the snapshot and must be safe to run concurrently with the
// other registered algorithms.
type Algorithm interface {
	// ID returns one of the KnownAlgorithms ids.
	ID() string

	// Compute returns recommendations for every user of snap.
	Compute(ctx context.Context, snap *Snapshot, cfg *Config) (RecommendationMap, *Summary, error)
}

// Summary describes the structure an algorithm found. Fields that do not
// apply to an algorithm stay zero.
type Summary struct {
	Communities    int
	Modularity     float64
	HasModularity  bool
	Levels         int
	PredictedLinks int
	InfectedUsers  int
	Rounds         int

	// Warnings lists degenerate conditions the algorithm recovered from.
	// The engine logs each one at warn level.
	Warnings []string
}

// ResultStatus is the outcome of one algorithm run.
type ResultStatus string

// Result statuses.
const (
	StatusOK     ResultStatus = "ok"
	StatusFailed ResultStatus = "failed"
)

// Result is the immutable outcome of one algorithm over one snapshot.
type Result struct {
	Algorithm  string
	Snapshot   *Snapshot
	Status     ResultStatus
	Map        RecommendationMap
	Summary    *Summary
	Reason     string
	Duration   time.Duration
	ComputedAt time.Time
}

// OK reports whether the result can be served.
func (r *Result) OK() bool {
	return r.Status == StatusOK
}

// Snapshot is an immutable view of all accepted interactions at one version.
type Snapshot struct {
	Version   uint64
	CreatedAt time.Time

	Graph   *graph.AffinityGraph
	History graph.History

	// Interactions is deduplicated, one per (user, item), ordered by user
	// then item.
	Interactions []graph.Interaction

	items    map[int64]*ItemStats
	itemIDs  []int64
	userIDs  []string
	itemFreq []ItemCount
}

// ItemStats summarises one item of a snapshot.
type ItemStats struct {
	ItemID     int64
	Users      int
	MeanRating float64

	// Metadata is set when the item was registered in the catalog.
	Metadata *graph.Item
}

// ItemCount is an item with the number of users who interacted with it.
type ItemCount struct {
	ItemID int64
	Count  int
}

// NewSnapshot wraps a build result.
func NewSnapshot(version uint64, b *graph.BuildResult) *Snapshot {
	s := &Snapshot{
		Version:      version,
		CreatedAt:    time.Now(),
		Graph:        b.Graph,
		History:      b.History,
		Interactions: b.Interactions,
		items:        make(map[int64]*ItemStats),
	}

	sums := make(map[int64]float64)
	for _, in := range b.Interactions {
		st := s.items[in.ItemID]
		if st == nil {
			st = &ItemStats{ItemID: in.ItemID}
			s.items[in.ItemID] = st
			s.itemIDs = append(s.itemIDs, in.ItemID)
		}
		st.Users++
		sums[in.ItemID] += in.Rating
	}
	for id, st := range s.items {
		st.MeanRating = sums[id] / float64(st.Users)
	}
	sort.Slice(s.itemIDs, func(i, j int) bool { return s.itemIDs[i] < s.itemIDs[j] })

	s.userIDs = b.Graph.Users()

	s.itemFreq = make([]ItemCount, 0, len(s.itemIDs))
	for _, id := range s.itemIDs {
		s.itemFreq = append(s.itemFreq, ItemCount{ItemID: id, Count: s.items[id].Users})
	}
	sortCounts(s.itemFreq)
	return s
}

// HasUser reports whether userID is a node of the snapshot graph.
func (s *Snapshot) HasUser(userID string) bool {
	_, ok := s.Graph.Index(userID)
	return ok
}

// ItemFrequency returns every item ranked by user count desc, then id asc.
func (s *Snapshot) ItemFrequency() []ItemCount {
	return s.itemFreq
}

// SubmitResult reports the outcome of Engine.Submit.
type SubmitResult struct {
	Snapshot *Snapshot
	Accepted int
	Rejected []*graph.InvalidInteractionError
}
