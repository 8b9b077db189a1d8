// Affinigraph - Graph-Based Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/affinigraph

// Package models defines the JSON shapes of the Affinigraph HTTP API and of
// the payloads carried on the event bus.
package models

import (
	"time"
)

// APIResponse is the envelope of every HTTP response.
//
//	{
//	  "status": "success",
//	  "data": {"user_id": "alice", "items": [7, 3]},
//	  "metadata": {"timestamp": "2026-10-19T12:00:00Z", "snapshot_version": 4}
//	}
//
// Status is "success" or "error". On error, Data is null and Error is set.
type APIResponse struct {
	Status   string      `json:"status"`
	Data     interface{} `json:"data"`
	Metadata Metadata    `json:"metadata"`
	Error    *APIError   `json:"error,omitempty"`
}

// Metadata accompanies every response.
type Metadata struct {
	Timestamp       time.Time `json:"timestamp"`
	SnapshotVersion uint64    `json:"snapshot_version,omitempty"`
	QueryTimeMS     int64     `json:"query_time_ms,omitempty"`
}

// APIError is a machine-readable error.
//
// Codes in use: VALIDATION_ERROR, INVALID_REQUEST, NOT_FOUND,
// UNKNOWN_ALGORITHM, UNKNOWN_USER, UNKNOWN_ITEM, ALGORITHM_UNAVAILABLE,
// NOT_READY, PUBLISH_FAILED, INTERNAL_ERROR, RATE_LIMIT_EXCEEDED.
type APIError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// HealthResponse is returned by the health endpoints.
type HealthResponse struct {
	Status          string `json:"status"`
	SnapshotVersion uint64 `json:"snapshot_version"`
}
