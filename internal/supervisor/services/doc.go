// Affinigraph - Graph-Based Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/affinigraph

// Package services wraps Affinigraph components as suture.Service values.
//
//   - RecomputeService: debounced, throttled recompute on every new snapshot
//   - IngestService: interactions.batch consumer feeding Engine.Submit
//   - SinkService: recommendations.computed consumer writing to Redis
//   - HTTPServerService: the API server
//
// Every service returns ctx.Err() when its context is cancelled and names
// itself through String for suture's event log.
package services
