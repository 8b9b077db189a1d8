// Affinigraph - Graph-Based Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/affinigraph

package models

import "time"

// InteractionInput is one rating event as submitted over HTTP or the bus.
// Records with a missing user or item id are accepted here and rejected
// individually by the graph builder, so one bad record never fails a batch.
type InteractionInput struct {
	UserID    string  `json:"user_id"`
	ItemID    int64   `json:"item_id"`
	Rating    float64 `json:"rating"`
	Timestamp int64   `json:"timestamp"`
}

// SubmitInteractionsRequest is the body of POST /api/v1/interactions.
type SubmitInteractionsRequest struct {
	Interactions []InteractionInput `json:"interactions" validate:"required,min=1,max=10000"`
}

// RejectedInteraction reports a record that was dropped from a batch.
type RejectedInteraction struct {
	Index  int              `json:"index"`
	Reason string           `json:"reason"`
	Record InteractionInput `json:"record"`
}

// SubmitResponse answers a synchronous submit.
type SubmitResponse struct {
	SnapshotVersion uint64                `json:"snapshot_version"`
	Accepted        int                   `json:"accepted"`
	Rejected        []RejectedInteraction `json:"rejected"`
}

// AsyncSubmitResponse answers a submit that was queued on the bus.
type AsyncSubmitResponse struct {
	MessageID string `json:"message_id"`
	Topic     string `json:"topic"`
	Queued    int    `json:"queued"`
}

// RecommendationsResponse is one user's list from one algorithm.
type RecommendationsResponse struct {
	Algorithm       string    `json:"algorithm"`
	UserID          string    `json:"user_id"`
	Items           []int64   `json:"items"`
	SnapshotVersion uint64    `json:"snapshot_version"`
	ComputedAt      time.Time `json:"computed_at"`
}

// AlgorithmSummary describes the structure an algorithm found. Fields that do
// not apply to an algorithm are omitted. Modularity is nil for an edgeless graph.
type AlgorithmSummary struct {
	Communities    int      `json:"communities,omitempty"`
	Modularity     *float64 `json:"modularity,omitempty"`
	Levels         int      `json:"levels,omitempty"`
	PredictedLinks int      `json:"predicted_links,omitempty"`
	InfectedUsers  int      `json:"infected_users,omitempty"`
	Rounds         int      `json:"rounds,omitempty"`
	Warnings       []string `json:"warnings,omitempty"`
	Users          int      `json:"users"`
}

// AlgorithmStatus reports the latest result of one algorithm.
type AlgorithmStatus struct {
	Algorithm       string            `json:"algorithm"`
	Status          string            `json:"status"`
	Reason          string            `json:"reason,omitempty"`
	SnapshotVersion uint64            `json:"snapshot_version"`
	ComputedAt      *time.Time        `json:"computed_at,omitempty"`
	DurationMS      int64             `json:"duration_ms"`
	Summary         *AlgorithmSummary `json:"summary,omitempty"`
}

// StatusResponse lists every enabled algorithm.
type StatusResponse struct {
	SnapshotVersion uint64            `json:"snapshot_version"`
	Algorithms      []AlgorithmStatus `json:"algorithms"`
}

// AlgorithmsResponse lists algorithm ids.
type AlgorithmsResponse struct {
	Known   []string `json:"known"`
	Enabled []string `json:"enabled"`
}

// UsersResponse lists user ids in node order.
type UsersResponse struct {
	Total int      `json:"total"`
	Users []string `json:"users"`
}

// UserResponse describes one user.
type UserResponse struct {
	UserID string  `json:"user_id"`
	Items  []int64 `json:"items"`
	Degree int     `json:"degree"`
}

// ItemsResponse lists item ids ascending.
type ItemsResponse struct {
	Total int     `json:"total"`
	Items []int64 `json:"items"`
}

// ItemResponse describes one item. Users counts distinct users and MeanRating
// averages their latest ratings. The metadata fields are set for registered
// items only.
type ItemResponse struct {
	ItemID        int64   `json:"item_id"`
	Users         int     `json:"users"`
	MeanRating    float64 `json:"mean_rating"`
	Title         string  `json:"title,omitempty"`
	Poster        string  `json:"poster,omitempty"`
	DatePublished string  `json:"date_published,omitempty"`
	Homepage      string  `json:"homepage,omitempty"`
}

// RegisterUserRequest is the body of POST /api/v1/users.
type RegisterUserRequest struct {
	UserID string `json:"user_id" validate:"required,identifier"`
}

// RegisterItemRequest is the body of POST /api/v1/items.
type RegisterItemRequest struct {
	ItemID        int64  `json:"item_id" validate:"required"`
	Title         string `json:"title" validate:"required,max=512"`
	Poster        string `json:"poster" validate:"omitempty,url"`
	DatePublished string `json:"date_published" validate:"omitempty,datetime=2006-01-02"`
	Homepage      string `json:"homepage" validate:"omitempty,url"`
}
