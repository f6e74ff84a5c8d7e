// Areamap - Location Search and Map Snapshot Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/areamap

// Package quota decides whether an owner may run another location search
// and which address lifetime the search gets.
//
// The check and the later counter increment are two separate steps. Two
// concurrent first-time searches of one owner may both be admitted.
package quota

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/tomtom215/areamap/internal/logging"
	"github.com/tomtom215/areamap/internal/metrics"
	"github.com/tomtom215/areamap/internal/models"
)

// Store is the persistence the ledger needs.
type Store interface {
	ActiveSubscription(ctx context.Context, ownerID string, at time.Time) (*models.Subscription, error)
	// Contingents returns the entries of ownerID whose validity started at
	// or before at, lapsed ones included.
	Contingents(ctx context.Context, ownerID string, at time.Time) ([]models.ContingentEntry, error)
	// ExecutedRequests returns the charge times of holderID at or after
	// since, oldest first.
	ExecutedRequests(ctx context.Context, holderID string, since time.Time) ([]time.Time, error)
	IncrementRequestsExecuted(ctx context.Context, holderID string, at time.Time) (int, error)
}

// Ledger enforces request contingents of subscription owners.
type Ledger struct {
	store Store
	now   func() time.Time
}

// NewLedger creates a ledger backed by store.
func NewLedger(store Store) *Ledger {
	return &Ledger{store: store, now: time.Now}
}

// WithClock replaces the time source.
func (l *Ledger) WithClock(now func() time.Time) *Ledger {
	l.now = now
	return l
}

// CheckAndReserve returns nil when owner may search. A denial is a
// *models.ReasonError of kind models.ErrQuotaExceeded. Duplicate searches of
// an already paid-for coordinate and product-billed owners always pass.
func (l *Ledger) CheckAndReserve(ctx context.Context, owner models.Owner, isDuplicate bool) error {
	billing := owner.Billing()
	if !billing.Subscription() {
		metrics.RecordQuotaDecision("exempt")
		return nil
	}
	if isDuplicate {
		metrics.RecordQuotaDecision("allow")
		return nil
	}

	now := l.now()
	entries, err := l.store.Contingents(ctx, billing.HolderID, now)
	if err != nil {
		return fmt.Errorf("failed to load contingents: %w", err)
	}

	executed, total := 0, 0
	if since, ok := windowStart(entries, now); ok {
		charges, err := l.store.ExecutedRequests(ctx, billing.HolderID, since)
		if err != nil {
			return fmt.Errorf("failed to load executed requests: %w", err)
		}
		executed, total = periodUsage(entries, charges, now)
	}

	if executed+1 > total {
		metrics.RecordQuotaDecision("deny")
		logging.Ctx(ctx).Info().
			Str("holder_id", billing.HolderID).
			Int("executed", executed).
			Int("total", total).
			Msg("Search quota exhausted")
		return models.NewReasonError(models.ErrQuotaExceeded,
			fmt.Sprintf("All %d location searches of the current period have been used. "+
				"Please upgrade your plan or buy additional searches.", total))
	}

	metrics.RecordQuotaDecision("allow")
	return nil
}

// RecordExecuted charges one search to owner's quota holder and returns the
// holder's lifetime counter.
func (l *Ledger) RecordExecuted(ctx context.Context, owner models.Owner) (int, error) {
	return l.store.IncrementRequestsExecuted(ctx, owner.Billing().HolderID, l.now())
}

// windowStart returns the earliest charge time that can still affect the
// entries valid at now. Every entry reaching past the returned time also
// starts at or after it, so older charges never touched a relevant entry.
// It reports false when no entry is valid at now.
func windowStart(entries []models.ContingentEntry, now time.Time) (time.Time, bool) {
	var since time.Time
	found := false
	for _, e := range entries {
		if e.ValidAt(now) && (!found || e.ValidFrom.Before(since)) {
			since, found = e.ValidFrom, true
		}
	}
	if !found {
		return since, false
	}
	for moved := true; moved; {
		moved = false
		for _, e := range entries {
			if e.ValidUntil.After(since) && e.ValidFrom.Before(since) {
				since, moved = e.ValidFrom, true
			}
		}
	}
	return since, true
}

// periodUsage charges each search to the entry that was valid at its time
// and expires first, then sums amount and charges over the entries valid at
// now. Charges no entry could absorb count against nothing.
func periodUsage(entries []models.ContingentEntry, charges []time.Time, now time.Time) (used, total int) {
	sorted := make([]models.ContingentEntry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].ValidUntil.Before(sorted[j].ValidUntil)
	})
	times := make([]time.Time, len(charges))
	copy(times, charges)
	sort.Slice(times, func(i, j int) bool { return times[i].Before(times[j]) })

	consumed := make([]int, len(sorted))
	for _, t := range times {
		for i, e := range sorted {
			if e.ValidAt(t) && consumed[i] < e.Amount {
				consumed[i]++
				break
			}
		}
	}

	for i, e := range sorted {
		if e.ValidAt(now) {
			total += e.Amount
			used += consumed[i]
		}
	}
	return used, total
}

// Subscription returns the active subscription governing owner, or nil for
// product-billed owners and holders without a subscription.
func (l *Ledger) Subscription(ctx context.Context, owner models.Owner) (*models.Subscription, error) {
	billing := owner.Billing()
	if !billing.Subscription() {
		return nil, nil
	}
	sub, err := l.store.ActiveSubscription(ctx, billing.HolderID, l.now())
	if err != nil {
		return nil, fmt.Errorf("failed to load subscription: %w", err)
	}
	return sub, nil
}

// Lifetime is the address lifetime assigned to a search record.
type Lifetime struct {
	ExpiresAt *time.Time
	IsTrial   bool
}

// AddressLifetime computes the lifetime of a new search record. A duplicate
// keeps the expiration of the existing record: the lifetime is pinned to the
// first search of a coordinate.
func (l *Ledger) AddressLifetime(ctx context.Context, owner models.Owner, existing *models.LocationSearchRecord) (Lifetime, error) {
	if existing != nil {
		return Lifetime{ExpiresAt: existing.ExpiresAt, IsTrial: existing.IsTrial}, nil
	}
	sub, err := l.Subscription(ctx, owner)
	if err != nil {
		return Lifetime{}, err
	}
	return Lifetime{ExpiresAt: sub.AddressExpiration(l.now()), IsTrial: sub.IsTrial()}, nil
}
