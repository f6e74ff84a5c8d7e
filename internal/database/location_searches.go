// Areamap - Location Search and Map Snapshot Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/areamap

package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/tomtom215/areamap/internal/models"
)

const locationSearchColumns = `
	id, user_id, integration_user_id, integration_type,
	lat, lng, search_title, means, is_trial, created_at, expires_at`

// CreateLocationSearch persists one search call.
func (db *DB) CreateLocationSearch(ctx context.Context, r *models.LocationSearchRecord) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	means, err := json.Marshal(r.Means)
	if err != nil {
		return fmt.Errorf("failed to marshal means: %w", err)
	}

	start := time.Now()
	_, err = db.conn.ExecContext(ctx, `
		INSERT INTO location_searches (`+locationSearchColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.Owner.UserID, r.Owner.IntegrationUserID, r.Owner.IntegrationType,
		r.Coordinates.Lat, r.Coordinates.Lng, nullString(r.SearchTitle), string(means),
		r.IsTrial, r.CreatedAt.UTC(), nullTime(r.ExpiresAt),
	)
	observe("INSERT", "location_searches", start, err)
	if err != nil {
		return fmt.Errorf("failed to insert location search: %w", err)
	}
	return nil
}

// LatestLocationSearch returns the most recent record of owner at exactly
// coords, or nil, nil when the owner never searched there.
func (db *DB) LatestLocationSearch(ctx context.Context, owner models.OwnerRef, coords models.Coordinates) (*models.LocationSearchRecord, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	where, args := ownerClause(owner)
	args = append(args, coords.Lat, coords.Lng)

	start := time.Now()
	row := db.conn.QueryRowContext(ctx, `
		SELECT `+locationSearchColumns+`
		FROM location_searches
		WHERE `+where+` AND lat = ? AND lng = ?
		ORDER BY created_at DESC, rowid DESC
		LIMIT 1`, args...)
	record, err := scanLocationSearch(row)
	observe("SELECT", "location_searches", start, err)
	if isNoRows(err) {
		return nil, nil
	}
	return record, err
}

// ListLocationSearches returns the latest distinct searched locations of
// owner, newest first.
func (db *DB) ListLocationSearches(ctx context.Context, owner models.OwnerRef, limit int) ([]models.LocationSearchRecord, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	where, args := ownerClause(owner)
	args = append(args, limit)

	start := time.Now()
	rows, err := db.conn.QueryContext(ctx, `
		SELECT `+locationSearchColumns+`
		FROM (
			SELECT *, row_number() OVER (
				PARTITION BY lat, lng ORDER BY created_at DESC, rowid DESC
			) AS rn
			FROM location_searches
			WHERE `+where+`
		)
		WHERE rn = 1
		ORDER BY created_at DESC
		LIMIT ?`, args...)
	observe("SELECT", "location_searches", start, err)
	if err != nil {
		return nil, fmt.Errorf("failed to query location searches: %w", err)
	}
	defer rows.Close()

	records := []models.LocationSearchRecord{}
	for rows.Next() {
		r, err := scanLocationSearch(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating location searches: %w", err)
	}
	return records, nil
}

// ExtendLocationSearchExpiration sets the expiration of every record of
// owner at coords. Returns models.ErrNotFound when there is none.
func (db *DB) ExtendLocationSearchExpiration(ctx context.Context, owner models.OwnerRef, coords models.Coordinates, until time.Time) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	where, args := ownerClause(owner)
	args = append([]any{until.UTC()}, args...)
	args = append(args, coords.Lat, coords.Lng)

	start := time.Now()
	result, err := db.conn.ExecContext(ctx, `
		UPDATE location_searches SET expires_at = ?
		WHERE `+where+` AND lat = ? AND lng = ?`, args...)
	observe("UPDATE", "location_searches", start, err)
	if err != nil {
		return fmt.Errorf("failed to extend location search expiration: %w", err)
	}
	return checkRowsAffected(result, "location search")
}

// DeleteTrialLocationSearches removes every trial record of owner and
// returns how many were deleted.
func (db *DB) DeleteTrialLocationSearches(ctx context.Context, owner models.OwnerRef) (int64, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	where, args := ownerClause(owner)
	start := time.Now()
	result, err := db.conn.ExecContext(ctx,
		`DELETE FROM location_searches WHERE `+where+` AND is_trial`, args...)
	observe("DELETE", "location_searches", start, err)
	if err != nil {
		return 0, fmt.Errorf("failed to delete trial location searches: %w", err)
	}
	return result.RowsAffected()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLocationSearch(row rowScanner) (*models.LocationSearchRecord, error) {
	var (
		r         models.LocationSearchRecord
		title     sql.NullString
		means     string
		expiresAt sql.NullTime
	)
	err := row.Scan(&r.ID, &r.Owner.UserID, &r.Owner.IntegrationUserID, &r.Owner.IntegrationType,
		&r.Coordinates.Lat, &r.Coordinates.Lng, &title, &means, &r.IsTrial, &r.CreatedAt, &expiresAt)
	if err != nil {
		if isNoRows(err) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan location search: %w", err)
	}

	r.SearchTitle = title.String
	r.CreatedAt = r.CreatedAt.UTC()
	r.ExpiresAt = timePtr(expiresAt)
	if err := json.Unmarshal([]byte(means), &r.Means); err != nil {
		return nil, fmt.Errorf("failed to unmarshal means: %w", err)
	}
	return &r, nil
}
