// Affinigraph - Graph-Based Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/affinigraph

/*
Package supervisor runs Affinigraph's long-lived services under a suture v4
supervisor tree.

	RootSupervisor ("affinigraph")
	├── IngestSupervisor ("ingest-layer")
	│   └── IngestService (interactions.batch consumer)
	├── ComputeSupervisor ("compute-layer")
	│   ├── RecomputeService
	│   └── SinkService (if sink.enabled)
	└── APISupervisor ("api-layer")
	    └── HTTPServerService

Crashed services restart with suture's backoff. Supervisor events are logged
through sutureslog into the zerolog logger (see logging.NewSlogHandler).

Usage:

	tree, err := supervisor.NewSupervisorTree(slogger, supervisor.DefaultTreeConfig())
	if err != nil {
	    return err
	}
	tree.AddIngestService(services.NewIngestService(engine, bus, topic, logger))
	tree.AddComputeService(services.NewRecomputeService(engine, bus, cfg, logger))
	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second, logger))
	return tree.Serve(ctx)
*/
package supervisor
