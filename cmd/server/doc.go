// Affinigraph - Graph-Based Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/affinigraph

/*
Package main is the entry point for the Affinigraph server.

Affinigraph builds a user affinity graph from rating interactions (two users
are linked when they interacted with a common item) and derives per-user
item recommendations from five algorithms: Girvan-Newman and Louvain
community detection, link prediction, Independent Cascade diffusion and a
frequency baseline.

# Application Architecture

	RootSupervisor ("affinigraph")
	├── IngestSupervisor ("ingest-layer")
	│   └── IngestService (interactions topic -> Engine.Submit)
	├── ComputeSupervisor ("compute-layer")
	│   ├── RecomputeService (snapshot -> all algorithms)
	│   └── SinkService (optional, results -> Redis)
	└── APISupervisor ("api-layer")
	    └── HTTP Server

Initialization order:

 1. Configuration: koanf v2 with defaults, YAML file and environment
 2. Logging: zerolog, bridged to slog for suture and to watermill
 3. Interaction store: BadgerDB log, compacted and replayed into the engine
 4. Engine: algorithms registered, snapshot restored
 5. Event bus: watermill gochannel, or NATS with -tags nats
 6. Redis sink (optional)
 7. Supervisor tree and HTTP server

# Configuration

Common environment variables:

	HTTP_PORT=8080
	LOG_LEVEL=info
	LOG_FORMAT=json
	RECOMMEND_TOP_N=20
	RECOMMEND_SEED_COUNT=10
	RECOMMEND_DIFFUSION_PROBABILITY=0.05
	RECOMMEND_RANDOM_SEED=0
	STORAGE_ENABLED=true
	STORAGE_PATH=/data/interactions
	EVENTS_TRANSPORT=memory       # memory or nats
	NATS_URL=nats://localhost:4222
	REDIS_SINK_ENABLED=false
	REDIS_ADDR=localhost:6379

# Build Tags

	go build ./cmd/server              # in-process event bus only
	go build -tags nats ./cmd/server   # adds the NATS transport

# Signal Handling

SIGINT and SIGTERM cancel the root context. The HTTP server drains, the
recompute job in flight is cancelled, and the store, bus and Redis client
are closed in that order.
*/
package main
