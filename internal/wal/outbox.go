// Areamap - Location Search and Map Snapshot Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/areamap

package wal

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
	"github.com/goccy/go-json"

	"github.com/tomtom215/areamap/internal/config"
	"github.com/tomtom215/areamap/internal/logging"
	"github.com/tomtom215/areamap/internal/metrics"
	"github.com/tomtom215/areamap/internal/models"
)

var (
	// ErrClosed is returned by operations on a closed outbox.
	ErrClosed = errors.New("outbox is closed")

	// ErrEntryNotFound is returned when an entry no longer exists.
	ErrEntryNotFound = errors.New("outbox entry not found")
)

const prefixPending = "pending:"

// Entry is a usage event waiting to be published.
type Entry struct {
	Key           string            `json:"key"`
	Event         models.UsageEvent `json:"event"`
	CreatedAt     time.Time         `json:"created_at"`
	Attempts      int               `json:"attempts"`
	LastAttemptAt time.Time         `json:"last_attempt_at,omitempty"`
	LastError     string            `json:"last_error,omitempty"`
}

// Outbox persists usage events in BadgerDB until they are published.
type Outbox struct {
	db  *badger.DB
	cfg config.OutboxConfig
	now func() time.Time

	mu     sync.RWMutex
	closed bool
}

// Open opens (or creates) the outbox described by cfg.
func Open(cfg config.OutboxConfig) (*Outbox, error) {
	opts := badger.DefaultOptions(cfg.Path)
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		opts.SyncWrites = true
		opts.Compression = options.Snappy
	}
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open BadgerDB: %w", err)
	}

	logging.Info().
		Str("path", cfg.Path).
		Bool("in_memory", cfg.InMemory).
		Msg("Usage outbox opened")
	return &Outbox{db: db, cfg: cfg, now: time.Now}, nil
}

// WithClock replaces the time source.
func (o *Outbox) WithClock(now func() time.Time) *Outbox {
	o.now = now
	return o
}

func (o *Outbox) checkOpen() error {
	o.mu.RLock()
	defer o.mu.RUnlock()
	if o.closed {
		return ErrClosed
	}
	return nil
}

// RecordUsage durably enqueues event for publishing.
func (o *Outbox) RecordUsage(ctx context.Context, event models.UsageEvent) error {
	if err := o.checkOpen(); err != nil {
		return err
	}
	if event.EventID == "" {
		return errors.New("usage event requires an event id")
	}

	now := o.now().UTC()
	// Keys sort by creation time so the relay publishes in order.
	entry := Entry{
		Key:       fmt.Sprintf("%s%020d:%s", prefixPending, now.UnixNano(), event.EventID),
		Event:     event,
		CreatedAt: now,
	}
	data, err := json.Marshal(&entry)
	if err != nil {
		return fmt.Errorf("marshal entry: %w", err)
	}

	err = o.db.Update(func(txn *badger.Txn) error {
		e := badger.NewEntry([]byte(entry.Key), data)
		if o.cfg.EntryTTL > 0 {
			e = e.WithTTL(o.cfg.EntryTTL)
		}
		return txn.SetEntry(e)
	})
	if err != nil {
		return fmt.Errorf("write to BadgerDB: %w", err)
	}

	metrics.OutboxPending.Inc()
	logging.Ctx(ctx).Debug().
		Str("event_id", event.EventID).
		Str("integration_type", event.IntegrationType).
		Msg("Usage event enqueued")
	return nil
}

// Pending returns up to limit pending entries, oldest first. A limit <= 0
// returns every entry.
func (o *Outbox) Pending(ctx context.Context, limit int) ([]*Entry, error) {
	if err := o.checkOpen(); err != nil {
		return nil, err
	}

	var entries []*Entry
	err := o.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte(prefixPending)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			var entry Entry
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &entry)
			})
			if err != nil {
				logging.Warn().Err(err).Str("key", string(it.Item().Key())).Msg("Outbox skipped malformed entry")
				continue
			}
			entries = append(entries, &entry)
			if limit > 0 && len(entries) >= limit {
				return nil
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("iterate pending entries: %w", err)
	}
	return entries, nil
}

// Confirm removes a published entry.
func (o *Outbox) Confirm(_ context.Context, key string) error {
	if err := o.checkOpen(); err != nil {
		return err
	}
	if err := o.delete(key); err != nil {
		return err
	}
	metrics.OutboxPending.Dec()
	return nil
}

// Drop removes an entry that will never be published.
func (o *Outbox) Drop(_ context.Context, key string) error {
	if err := o.checkOpen(); err != nil {
		return err
	}
	if err := o.delete(key); err != nil {
		return err
	}
	metrics.OutboxPending.Dec()
	return nil
}

func (o *Outbox) delete(key string) error {
	return o.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get([]byte(key)); errors.Is(err, badger.ErrKeyNotFound) {
			return ErrEntryNotFound
		} else if err != nil {
			return fmt.Errorf("get entry: %w", err)
		}
		return txn.Delete([]byte(key))
	})
}

// MarkAttempt records a failed publish attempt.
func (o *Outbox) MarkAttempt(_ context.Context, key string, cause error) error {
	if err := o.checkOpen(); err != nil {
		return err
	}

	return o.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrEntryNotFound
		}
		if err != nil {
			return fmt.Errorf("get entry: %w", err)
		}

		var entry Entry
		if err := item.Value(func(val []byte) error {
			return json.Unmarshal(val, &entry)
		}); err != nil {
			return fmt.Errorf("unmarshal entry: %w", err)
		}

		entry.Attempts++
		entry.LastAttemptAt = o.now().UTC()
		if cause != nil {
			entry.LastError = cause.Error()
		}

		data, err := json.Marshal(&entry)
		if err != nil {
			return fmt.Errorf("marshal entry: %w", err)
		}
		e := badger.NewEntry([]byte(key), data)
		if exp := item.ExpiresAt(); exp > 0 {
			e = e.WithTTL(time.Until(time.Unix(int64(exp), 0)))
		}
		return txn.SetEntry(e)
	})
}

// Count returns the number of pending entries and refreshes the pending gauge.
func (o *Outbox) Count() (int, error) {
	if err := o.checkOpen(); err != nil {
		return 0, err
	}

	var n int
	err := o.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(prefixPending)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			n++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	metrics.OutboxPending.Set(float64(n))
	return n, nil
}

// Close closes the underlying database.
func (o *Outbox) Close() error {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return nil
	}
	o.closed = true
	o.mu.Unlock()

	if err := o.db.Close(); err != nil {
		return fmt.Errorf("close BadgerDB: %w", err)
	}
	logging.Info().Msg("Usage outbox closed")
	return nil
}
