// Areamap - Location Search and Map Snapshot Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/areamap

package database

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/areamap/internal/models"
)

// CreateSubscription inserts a subscription.
func (db *DB) CreateSubscription(ctx context.Context, s *models.Subscription) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	if s.ID == "" {
		s.ID = uuid.New().String()
	}

	start := time.Now()
	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO subscriptions (id, owner_id, plan, address_lifetime_seconds, starts_at, ends_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		s.ID, s.OwnerID, string(s.Plan), int64(s.AddressLifetime/time.Second),
		s.StartsAt.UTC(), s.EndsAt.UTC(),
	)
	observe("INSERT", "subscriptions", start, err)
	if err != nil {
		return fmt.Errorf("failed to insert subscription: %w", err)
	}
	return nil
}

// ActiveSubscription returns the subscription of ownerID valid at `at`, the
// most recently started one when several overlap. Returns nil, nil when the
// owner has none.
func (db *DB) ActiveSubscription(ctx context.Context, ownerID string, at time.Time) (*models.Subscription, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	var (
		s        models.Subscription
		plan     string
		lifetime int64
	)
	start := time.Now()
	err := db.conn.QueryRowContext(ctx, `
		SELECT id, owner_id, plan, address_lifetime_seconds, starts_at, ends_at
		FROM subscriptions
		WHERE owner_id = ? AND starts_at <= ? AND ends_at > ?
		ORDER BY starts_at DESC
		LIMIT 1`, ownerID, at.UTC(), at.UTC(),
	).Scan(&s.ID, &s.OwnerID, &plan, &lifetime, &s.StartsAt, &s.EndsAt)
	observe("SELECT", "subscriptions", start, err)
	if isNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query subscription: %w", err)
	}

	s.Plan = models.PlanType(plan)
	s.AddressLifetime = time.Duration(lifetime) * time.Second
	return &s, nil
}

// AddContingent inserts a request contingent entry.
func (db *DB) AddContingent(ctx context.Context, c *models.ContingentEntry) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	if c.ID == "" {
		c.ID = uuid.New().String()
	}

	start := time.Now()
	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO contingents (id, owner_id, kind, amount, valid_from, valid_until)
		VALUES (?, ?, ?, ?, ?, ?)`,
		c.ID, c.OwnerID, string(c.Kind), c.Amount, c.ValidFrom.UTC(), c.ValidUntil.UTC(),
	)
	observe("INSERT", "contingents", start, err)
	if err != nil {
		return fmt.Errorf("failed to insert contingent: %w", err)
	}
	return nil
}

// Contingents returns the contingent entries of ownerID whose validity
// started at or before `at`, lapsed ones included.
func (db *DB) Contingents(ctx context.Context, ownerID string, at time.Time) ([]models.ContingentEntry, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	start := time.Now()
	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, owner_id, kind, amount, valid_from, valid_until
		FROM contingents
		WHERE owner_id = ? AND valid_from <= ?
		ORDER BY valid_from`, ownerID, at.UTC())
	observe("SELECT", "contingents", start, err)
	if err != nil {
		return nil, fmt.Errorf("failed to query contingents: %w", err)
	}
	defer rows.Close()

	entries := []models.ContingentEntry{}
	for rows.Next() {
		var (
			c    models.ContingentEntry
			kind string
		)
		if err := rows.Scan(&c.ID, &c.OwnerID, &kind, &c.Amount, &c.ValidFrom, &c.ValidUntil); err != nil {
			return nil, fmt.Errorf("failed to scan contingent: %w", err)
		}
		c.Kind = models.ContingentKind(kind)
		entries = append(entries, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating contingents: %w", err)
	}
	return entries, nil
}
