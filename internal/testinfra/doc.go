// Areamap - Location Search and Map Snapshot Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/areamap

// Package testinfra provides container infrastructure for integration tests.
//
// Everything in this package is built with the integration tag and uses
// testcontainers-go, so Docker must be available:
//
//	go test -tags integration ./...
//
// # NATS Container
//
//	func TestPublish(t *testing.T) {
//	    testinfra.SkipIfNoDocker(t)
//	    ctx := context.Background()
//	    nc, err := testinfra.NewNATSContainer(ctx)
//	    if err != nil {
//	        t.Fatal(err)
//	    }
//	    defer testinfra.CleanupContainer(t, ctx, nc)
//
//	    // Use nc.URL as the NATS server URL
//	}
package testinfra
