// Areamap - Location Search and Map Snapshot Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/areamap

package wal

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/tomtom215/areamap/internal/config"
	"github.com/tomtom215/areamap/internal/models"
)

func openTestOutbox(t *testing.T, clock *time.Time) *Outbox {
	t.Helper()
	o, err := Open(config.OutboxConfig{InMemory: true, EntryTTL: 24 * time.Hour})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = o.Close() })
	return o.WithClock(func() time.Time { return *clock })
}

func usageEvent(id string) models.UsageEvent {
	return models.UsageEvent{
		EventID:           id,
		Kind:              models.UsageLocationSearch,
		IntegrationUserID: "agent",
		IntegrationType:   "onoffice",
		Coordinates:       models.Coordinates{Lat: 52.52, Lng: 13.405},
	}
}

type fakePublisher struct {
	mu        sync.Mutex
	published []string
	fail      error
}

func (p *fakePublisher) PublishUsage(_ context.Context, event models.UsageEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fail != nil {
		return p.fail
	}
	p.published = append(p.published, event.EventID)
	return nil
}

func TestRecordUsagePendingInOrder(t *testing.T) {
	clock := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	o := openTestOutbox(t, &clock)
	ctx := context.Background()

	for _, id := range []string{"c", "a", "b"} {
		if err := o.RecordUsage(ctx, usageEvent(id)); err != nil {
			t.Fatalf("RecordUsage(%s): %v", id, err)
		}
		clock = clock.Add(time.Second)
	}

	entries, err := o.Pending(ctx, 0)
	if err != nil {
		t.Fatalf("Pending: %v", err)
	}
	var got []string
	for _, e := range entries {
		got = append(got, e.Event.EventID)
	}
	if len(got) != 3 || got[0] != "c" || got[1] != "a" || got[2] != "b" {
		t.Errorf("pending order = %v, want [c a b]", got)
	}

	limited, err := o.Pending(ctx, 2)
	if err != nil || len(limited) != 2 {
		t.Errorf("Pending(2) = %d entries, err %v", len(limited), err)
	}

	if err := o.RecordUsage(ctx, models.UsageEvent{}); err == nil {
		t.Error("expected an error for an event without id")
	}
}

func TestConfirmAndMarkAttempt(t *testing.T) {
	clock := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	o := openTestOutbox(t, &clock)
	ctx := context.Background()

	if err := o.RecordUsage(ctx, usageEvent("e1")); err != nil {
		t.Fatalf("RecordUsage: %v", err)
	}
	entries, _ := o.Pending(ctx, 0)
	key := entries[0].Key

	if err := o.MarkAttempt(ctx, key, errors.New("nats down")); err != nil {
		t.Fatalf("MarkAttempt: %v", err)
	}
	entries, _ = o.Pending(ctx, 0)
	if entries[0].Attempts != 1 || entries[0].LastError != "nats down" || !entries[0].LastAttemptAt.Equal(clock) {
		t.Errorf("entry = %+v", entries[0])
	}

	if err := o.Confirm(ctx, key); err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	if n, _ := o.Count(); n != 0 {
		t.Errorf("Count = %d after confirm", n)
	}
	if err := o.Confirm(ctx, key); !errors.Is(err, ErrEntryNotFound) {
		t.Errorf("second Confirm err = %v, want ErrEntryNotFound", err)
	}
	if err := o.MarkAttempt(ctx, key, nil); !errors.Is(err, ErrEntryNotFound) {
		t.Errorf("MarkAttempt err = %v, want ErrEntryNotFound", err)
	}
}

func TestClosedOutbox(t *testing.T) {
	o, err := Open(config.OutboxConfig{InMemory: true})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := o.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := o.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
	if err := o.RecordUsage(context.Background(), usageEvent("x")); !errors.Is(err, ErrClosed) {
		t.Errorf("RecordUsage err = %v, want ErrClosed", err)
	}
	if _, err := o.Pending(context.Background(), 0); !errors.Is(err, ErrClosed) {
		t.Errorf("Pending err = %v, want ErrClosed", err)
	}
}

func TestOutboxSurvivesReopen(t *testing.T) {
	cfg := config.OutboxConfig{Path: filepath.Join(t.TempDir(), "outbox")}
	o, err := Open(cfg)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := o.RecordUsage(context.Background(), usageEvent("durable")); err != nil {
		t.Fatalf("RecordUsage: %v", err)
	}
	if err := o.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened, err := Open(cfg)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	entries, err := reopened.Pending(context.Background(), 0)
	if err != nil || len(entries) != 1 || entries[0].Event.EventID != "durable" {
		t.Errorf("entries after reopen = %v, err %v", entries, err)
	}
}
