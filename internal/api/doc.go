// Affinigraph - Graph-Based Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/affinigraph

/*
Package api serves the Affinigraph HTTP API with the chi router.

Endpoints:

	GET  /api/v1/health/live
	GET  /api/v1/health/ready
	POST /api/v1/interactions                 (?async=true queues on the bus)
	GET  /api/v1/algorithms
	GET  /api/v1/recommendations/status
	GET  /api/v1/recommendations/{algorithm}/users/{userID}   (?limit=N)
	GET  /api/v1/users
	POST /api/v1/users                        (registers a user with no history)
	GET  /api/v1/users/{userID}
	GET  /api/v1/items
	POST /api/v1/items                        (registers item metadata)
	GET  /api/v1/items/{itemID}
	GET  /metrics

Every JSON response uses the models.APIResponse envelope. Engine errors map
to status codes in respondEngineError:

	recommend.ErrUnknownAlgorithm      404 UNKNOWN_ALGORITHM
	recommend.ErrUnknownUser           404 UNKNOWN_USER
	recommend.ErrUnknownItem           404 UNKNOWN_ITEM
	recommend.ErrAlgorithmUnavailable  503 ALGORITHM_UNAVAILABLE
	recommend.ErrUserExists            409 ALREADY_EXISTS
	recommend.ErrItemExists            409 ALREADY_EXISTS

Global middleware: request/correlation ids, chi RealIP and Recoverer, CORS
(go-chi/cors), access log. API routes add IP rate limiting (go-chi/httprate)
and Prometheus request metrics.
*/
package api
