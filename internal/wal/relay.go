// Areamap - Location Search and Map Snapshot Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/areamap

package wal

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/tomtom215/areamap/internal/config"
	"github.com/tomtom215/areamap/internal/logging"
	"github.com/tomtom215/areamap/internal/metrics"
	"github.com/tomtom215/areamap/internal/models"
)

const maxBackoff = 5 * time.Minute

// Publisher delivers usage events downstream.
type Publisher interface {
	PublishUsage(ctx context.Context, event models.UsageEvent) error
}

// FlushStats summarizes one relay pass.
type FlushStats struct {
	Published int
	Failed    int
	Dropped   int
	Skipped   int
}

// Relay publishes pending outbox entries in the background.
type Relay struct {
	outbox    *Outbox
	publisher Publisher
	cfg       config.OutboxConfig
	now       func() time.Time
}

// NewRelay creates a relay draining outbox into publisher.
func NewRelay(outbox *Outbox, publisher Publisher, cfg config.OutboxConfig) *Relay {
	if cfg.RetryInterval <= 0 {
		cfg.RetryInterval = 30 * time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	return &Relay{outbox: outbox, publisher: publisher, cfg: cfg, now: time.Now}
}

// WithClock replaces the time source.
func (r *Relay) WithClock(now func() time.Time) *Relay {
	r.now = now
	return r
}

// Serve runs the relay until ctx is canceled. It implements suture.Service.
func (r *Relay) Serve(ctx context.Context) error {
	if n, err := r.outbox.Count(); err == nil && n > 0 {
		logging.Info().Int("pending", n).Msg("Recovering pending usage events")
	}
	r.Flush(ctx)

	ticker := time.NewTicker(r.cfg.RetryInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			r.Flush(ctx)
		}
	}
}

// String names the service in supervisor logs.
func (r *Relay) String() string {
	return "usage-outbox-relay"
}

// Flush makes one pass over the pending entries.
func (r *Relay) Flush(ctx context.Context) FlushStats {
	var stats FlushStats

	entries, err := r.outbox.Pending(ctx, r.cfg.BatchSize)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Outbox relay failed to load pending entries")
		}
		return stats
	}

	for _, entry := range entries {
		if ctx.Err() != nil {
			break
		}
		switch {
		case r.expired(entry):
			r.drop(ctx, entry, "expired")
			stats.Dropped++
		case r.cfg.MaxRetries > 0 && entry.Attempts >= r.cfg.MaxRetries:
			r.drop(ctx, entry, "max retries exceeded")
			stats.Dropped++
		case !r.ready(entry):
			stats.Skipped++
		case r.publish(ctx, entry):
			stats.Published++
		default:
			stats.Failed++
		}
	}

	if stats.Published > 0 || stats.Failed > 0 || stats.Dropped > 0 {
		logging.Info().
			Int("published", stats.Published).
			Int("failed", stats.Failed).
			Int("dropped", stats.Dropped).
			Msg("Outbox relay pass complete")
	}
	return stats
}

func (r *Relay) publish(ctx context.Context, entry *Entry) bool {
	pubCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	err := r.publisher.PublishUsage(pubCtx, entry.Event)
	cancel()

	if err != nil {
		logging.Warn().
			Err(err).
			Str("event_id", entry.Event.EventID).
			Int("attempt", entry.Attempts+1).
			Msg("Usage event publish failed")
		if markErr := r.outbox.MarkAttempt(ctx, entry.Key, err); markErr != nil {
			logging.Error().Err(markErr).Str("event_id", entry.Event.EventID).Msg("Failed to record publish attempt")
		}
		metrics.RecordOutboxPublish("retry")
		return false
	}

	if err := r.outbox.Confirm(ctx, entry.Key); err != nil {
		logging.Error().Err(err).Str("event_id", entry.Event.EventID).Msg("Failed to confirm usage event")
		return false
	}
	metrics.RecordOutboxPublish("success")
	return true
}

func (r *Relay) drop(ctx context.Context, entry *Entry, reason string) {
	logging.Warn().
		Str("event_id", entry.Event.EventID).
		Int("attempts", entry.Attempts).
		Str("last_error", entry.LastError).
		Str("reason", reason).
		Msg("Dropping usage event")
	if err := r.outbox.Drop(ctx, entry.Key); err != nil && !errors.Is(err, ErrEntryNotFound) {
		logging.Error().Err(err).Str("event_id", entry.Event.EventID).Msg("Failed to drop usage event")
	}
	metrics.RecordOutboxPublish("dropped")
}

func (r *Relay) expired(entry *Entry) bool {
	return r.cfg.EntryTTL > 0 && r.now().Sub(entry.CreatedAt) > r.cfg.EntryTTL
}

func (r *Relay) ready(entry *Entry) bool {
	if entry.LastAttemptAt.IsZero() {
		return true
	}
	return r.now().Sub(entry.LastAttemptAt) >= backoff(r.cfg.RetryInterval, entry.Attempts)
}

// backoff returns base * 2^(attempts-1), capped at five minutes.
func backoff(base time.Duration, attempts int) time.Duration {
	if attempts <= 0 {
		return 0
	}
	if attempts > 30 {
		return maxBackoff
	}
	d := time.Duration(float64(base) * math.Pow(2, float64(attempts-1)))
	if d <= 0 || d > maxBackoff {
		return maxBackoff
	}
	return d
}
