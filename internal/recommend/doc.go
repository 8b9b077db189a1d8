// Affinigraph - Graph-Based Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/affinigraph

// Package recommend turns graph-structural analysis into per-user item lists.
//
// # Architecture
//
// Every submitted interaction batch produces a new immutable Snapshot: the
// user-affinity graph, the history index and the deduplicated interaction
// log. Registered algorithms compute a RecommendationMap from a snapshot:
//
//   - girvan_newman: divisive community detection, community top items
//   - louvain: greedy modularity communities, community top items
//   - predict_links: items offered across predicted user-user links
//   - information_diffusion_ic: items pooled across an Independent Cascade
//   - frequency: global item frequency baseline
//
// # Consistency
//
// The latest snapshot and each algorithm's latest Result are held in atomic
// pointers. Readers never block on a recompute; they see the last completed
// result of every algorithm. A result computed for an older snapshot never
// replaces one computed for a newer snapshot, and a cancelled recompute
// publishes nothing.
//
// # Failure Isolation
//
// Each algorithm's outcome is stored as a Result with StatusOK or
// StatusFailed. A failing (or panicking) algorithm marks only its own result
// failed; queries for it return ErrAlgorithmUnavailable while the others keep
// serving.
//
// # Usage
//
//	engine, err := recommend.NewEngine(cfg, logger)
//	engine.Register(algorithms.NewLouvain())
//
//	snap, err := engine.Submit(ctx, interactions)
//	engine.Recompute(ctx, snap.Snapshot)
//
//	items, err := engine.Recommendations("alice", recommend.AlgorithmLouvain)
package recommend
