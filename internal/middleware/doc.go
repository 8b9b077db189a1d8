// Affinigraph - Graph-Based Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/affinigraph

// Package middleware provides the HTTP middleware used by the API router.
//
//   - RequestID: request and correlation ids on the context and response
//   - PrometheusMetrics: request counts and latency labelled by chi route
//   - AccessLog: one zerolog line per request
//
// All middleware have the chi signature func(http.Handler) http.Handler.
package middleware
