// Areamap - Location Search and Map Snapshot Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/areamap

/*
Package supervisor runs the long-lived services of areamap under a suture v4
supervisor tree.

	RootSupervisor ("areamap")
	├── DataSupervisor ("data-layer")
	│   └── usage-outbox-relay (wal.Relay)
	├── MessagingSupervisor ("messaging-layer")
	│   └── embedded-nats (if NATS_EMBEDDED_SERVER)
	└── APISupervisor ("api-layer")
	    └── http-server

A failing relay is restarted with backoff without affecting the HTTP layer;
usage events keep accumulating in the outbox until publishing recovers.
Supervisor events are logged through sutureslog into the zerolog pipeline:

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	tree.AddDataService(relay)
	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))
	err = tree.Serve(ctx)
*/
package supervisor
