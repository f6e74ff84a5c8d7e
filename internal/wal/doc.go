// Areamap - Location Search and Map Snapshot Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/areamap

/*
Package wal provides the durable outbox for usage events.

Integration owners are billed by their partner platform. Every first search
of a location emits a models.UsageEvent which must reach the partner billing
pipeline even when NATS is unavailable or the process restarts.

Architecture:

	search.Orchestrator
	        │ RecordUsage
	        ▼
	┌──────────────────┐       ┌──────────────┐
	│ Outbox (Badger)  │──────▶│ Relay        │──▶ Publisher (NATS)
	│ pending:<seq>:id │ scan  │ backoff loop │
	└──────────────────┘       └──────────────┘

RecordUsage persists the event in a single Badger transaction and returns.
The Relay periodically scans pending entries in insertion order, publishes
them and deletes the entry once the publisher acknowledged it. Failed
entries are retried with exponential backoff until MaxRetries or EntryTTL
is reached, after which they are dropped and counted.

The event ID doubles as the NATS message ID, so a crash between publish and
delete produces a duplicate that JetStream deduplicates.

Testing:

Use config.OutboxConfig{InMemory: true} for an ephemeral Badger instance.
*/
package wal
