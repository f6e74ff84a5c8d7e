// Areamap - Location Search and Map Snapshot Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/areamap

//go:build integration

package eventprocessor

import (
	"context"
	"testing"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/tomtom215/areamap/internal/config"
	"github.com/tomtom215/areamap/internal/testinfra"
	"github.com/tomtom215/areamap/internal/wal"
)

// TestIntegration_OutboxToNATS drains the usage outbox into a NATS
// container through the relay.
func TestIntegration_OutboxToNATS(t *testing.T) {
	testinfra.SkipIfNoDocker(t)
	ctx := context.Background()

	container, err := testinfra.NewNATSContainer(ctx)
	if err != nil {
		t.Fatalf("NewNATSContainer: %v", err)
	}
	defer testinfra.CleanupContainer(t, ctx, container)

	if err := ProvisionStream(ctx, container.URL, DefaultStreamConfig(testSubject)); err != nil {
		t.Fatalf("ProvisionStream: %v", err)
	}

	nc, err := nats.Connect(container.URL)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer nc.Close()
	sub, err := nc.SubscribeSync(testSubject)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	pub, err := NewPublisher(DefaultPublisherConfig(container.URL, testSubject), nil)
	if err != nil {
		t.Fatalf("NewPublisher: %v", err)
	}
	defer pub.Close()

	cfg := config.OutboxConfig{InMemory: true, RetryInterval: time.Second, MaxRetries: 3}
	outbox, err := wal.Open(cfg)
	if err != nil {
		t.Fatalf("wal.Open: %v", err)
	}
	defer outbox.Close()

	for _, id := range []string{"int-1", "int-2"} {
		if err := outbox.RecordUsage(ctx, testEvent(id)); err != nil {
			t.Fatalf("RecordUsage: %v", err)
		}
	}

	stats := wal.NewRelay(outbox, pub, cfg).Flush(ctx)
	if stats.Published != 2 {
		t.Fatalf("relay stats = %+v, want 2 published", stats)
	}
	for i := 0; i < 2; i++ {
		if _, err := sub.NextMsg(5 * time.Second); err != nil {
			t.Fatalf("message %d: %v", i, err)
		}
	}
}
