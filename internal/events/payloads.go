// Affinigraph - Graph-Based Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/affinigraph

package events

import (
	"time"

	"github.com/tomtom215/affinigraph/internal/graph"
)

// InteractionBatch is published on the interactions topic. The ingest
// service submits it to the engine.
type InteractionBatch struct {
	BatchID      string              `json:"batch_id"`
	Interactions []graph.Interaction `json:"interactions"`
	ReceivedAt   time.Time           `json:"received_at"`
}

// RecommendationsComputed is published on the recommendations topic after an
// algorithm result is stored. It carries no recommendation lists; consumers
// read them from the engine for the announced snapshot version.
type RecommendationsComputed struct {
	Algorithm       string        `json:"algorithm"`
	SnapshotVersion uint64        `json:"snapshot_version"`
	Status          string        `json:"status"`
	Reason          string        `json:"reason,omitempty"`
	Users           int           `json:"users"`
	Duration        time.Duration `json:"duration_ns"`
	ComputedAt      time.Time     `json:"computed_at"`
}
