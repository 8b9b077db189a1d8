// Affinigraph - Graph-Based Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/affinigraph

package recommend

import "errors"

// Query errors surfaced to callers.
var (
	// ErrUnknownAlgorithm is returned for an algorithm id outside the registry.
	ErrUnknownAlgorithm = errors.New("unknown algorithm")

	// ErrUnknownUser is returned when the user is absent from the snapshot.
	ErrUnknownUser = errors.New("unknown user")

	// ErrUnknownItem is returned when the item is neither rated in the snapshot
	// nor registered in the catalog.
	ErrUnknownItem = errors.New("unknown item")

	// ErrAlgorithmUnavailable is returned when the algorithm has no result yet
	// or its last computation failed.
	ErrAlgorithmUnavailable = errors.New("algorithm unavailable")
)

// Engine errors.
var (
	// ErrNoSnapshot is returned by operations that need a snapshot before any
	// interactions have been submitted.
	ErrNoSnapshot = errors.New("no snapshot")

	// ErrDuplicateAlgorithm is returned when an id is registered twice.
	ErrDuplicateAlgorithm = errors.New("algorithm already registered")

	// ErrNoValidInteractions is returned when every record of a batch was rejected.
	ErrNoValidInteractions = errors.New("batch contains no valid interactions")

	// ErrUserExists is returned when registering a user already in the snapshot.
	ErrUserExists = errors.New("user already exists")

	// ErrItemExists is returned when registering metadata for an item twice.
	ErrItemExists = errors.New("item already exists")
)
