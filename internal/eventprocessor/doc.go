// Areamap - Location Search and Map Snapshot Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/areamap

/*
Package eventprocessor publishes usage events to NATS JetStream.

Components:

  - Publisher: Watermill NATS publisher guarded by a gobreaker circuit
    breaker. PublishUsage implements wal.Publisher.
  - EmbeddedServer: in-process NATS server with JetStream for single
    instance deployments.
  - StreamInitializer: creates or updates the usage event stream.
  - ZerologAdapter: Watermill logger backed by the application logger.

Each message carries the event ID as Nats-Msg-Id so that replays from the
outbox are deduplicated inside the stream's duplicate window.
*/
package eventprocessor
