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

const snapshotColumns = `
	id, user_id, integration_user_id, integration_type, integration_id,
	token, address_token, unaddress_token,
	config, search_result, description, subject_listing, listings,
	is_trial, visit_amount,
	created_at, updated_at, last_access, expires_at, iframe_expires_at`

// CreateSnapshot persists a new snapshot.
func (db *DB) CreateSnapshot(ctx context.Context, s *models.Snapshot) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	if err := checkToken(s.Token); err != nil {
		return err
	}
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now().UTC()
	}

	cols, err := encodeSnapshotPayload(s)
	if err != nil {
		return err
	}
	single, _ := s.Token.Single()
	addressToken, unaddressToken, _ := s.Token.Split()

	var integrationID sql.NullString
	if s.Integration != nil {
		integrationID = nullString(s.Integration.IntegrationID)
	}

	start := time.Now()
	_, err = db.conn.ExecContext(ctx, `
		INSERT INTO snapshots (`+snapshotColumns+`, lat, lng)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.ID, s.Owner.UserID, s.Owner.IntegrationUserID, s.Owner.IntegrationType, integrationID,
		nullString(single), nullString(addressToken), nullString(unaddressToken),
		cols.config, cols.searchResult, nullString(s.Description), cols.subject, cols.listings,
		s.IsTrial, s.VisitAmount,
		s.CreatedAt.UTC(), nullTime(s.UpdatedAt), nullTime(s.LastAccess),
		nullTime(s.ExpiresAt), nullTime(s.IframeExpiresAt),
		s.SearchResult.Location.Lat, s.SearchResult.Location.Lng,
	)
	observe("INSERT", "snapshots", start, err)
	if err != nil {
		return fmt.Errorf("failed to insert snapshot: %w", err)
	}
	return nil
}

// GetSnapshot loads a snapshot by id without any ownership filter. Returns
// nil, nil when it does not exist.
func (db *DB) GetSnapshot(ctx context.Context, id string) (*models.Snapshot, error) {
	return db.querySnapshot(ctx, `WHERE id = ?`, id)
}

// GetSnapshotByToken loads the snapshot carrying token in any of its token
// columns. Returns nil, nil when no snapshot matches.
func (db *DB) GetSnapshotByToken(ctx context.Context, token string) (*models.Snapshot, error) {
	if token == "" {
		return nil, nil
	}
	return db.querySnapshot(ctx,
		`WHERE token = ? OR address_token = ? OR unaddress_token = ? LIMIT 1`,
		token, token, token)
}

// LatestSnapshot returns the most recently updated snapshot of owner.
func (db *DB) LatestSnapshot(ctx context.Context, owner models.OwnerRef) (*models.Snapshot, error) {
	where, args := ownerClause(owner)
	return db.querySnapshot(ctx, `
		WHERE `+where+`
		ORDER BY coalesce(updated_at, created_at) DESC, rowid DESC
		LIMIT 1`, args...)
}

// LatestSnapshotForIntegration returns the most recent snapshot of owner for
// the external real-estate reference integrationID.
func (db *DB) LatestSnapshotForIntegration(ctx context.Context, owner models.OwnerRef, integrationID string) (*models.Snapshot, error) {
	if integrationID == "" {
		return nil, nil
	}
	where, args := ownerClause(owner)
	args = append(args, integrationID)
	return db.querySnapshot(ctx, `
		WHERE `+where+` AND integration_id = ?
		ORDER BY created_at DESC, rowid DESC
		LIMIT 1`, args...)
}

// ListSnapshots returns a page of the owner's snapshots, newest first, and
// the total count.
func (db *DB) ListSnapshots(ctx context.Context, owner models.OwnerRef, limit, offset int) ([]models.Snapshot, int, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	where, args := ownerClause(owner)

	var total int
	start := time.Now()
	err := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM snapshots WHERE `+where, args...).Scan(&total)
	observe("COUNT", "snapshots", start, err)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count snapshots: %w", err)
	}

	start = time.Now()
	rows, err := db.conn.QueryContext(ctx, `
		SELECT `+snapshotColumns+`
		FROM snapshots
		WHERE `+where+`
		ORDER BY created_at DESC, rowid DESC
		LIMIT ? OFFSET ?`, append(args, limit, offset)...)
	observe("SELECT", "snapshots", start, err)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query snapshots: %w", err)
	}
	defer rows.Close()

	snapshots := []models.Snapshot{}
	for rows.Next() {
		s, err := scanSnapshot(rows)
		if err != nil {
			return nil, 0, err
		}
		snapshots = append(snapshots, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating snapshots: %w", err)
	}
	return snapshots, total, nil
}

// UpdateSnapshot writes description and config of s and stamps updated_at.
func (db *DB) UpdateSnapshot(ctx context.Context, s *models.Snapshot) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	config, err := json.Marshal(s.Config)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot config: %w", err)
	}
	now := time.Now().UTC()

	start := time.Now()
	result, err := db.conn.ExecContext(ctx, `
		UPDATE snapshots SET description = ?, config = ?, updated_at = ?
		WHERE id = ?`,
		nullString(s.Description), string(config), now, s.ID)
	observe("UPDATE", "snapshots", start, err)
	if err != nil {
		return fmt.Errorf("failed to update snapshot: %w", err)
	}
	if err := checkRowsAffected(result, "snapshot "+s.ID); err != nil {
		return err
	}
	s.UpdatedAt = &now
	return nil
}

// UpdateSnapshotToken replaces the access token of snapshot id.
func (db *DB) UpdateSnapshotToken(ctx context.Context, id string, token models.AccessToken) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	if err := checkToken(token); err != nil {
		return err
	}
	single, _ := token.Single()
	addressToken, unaddressToken, _ := token.Split()

	start := time.Now()
	result, err := db.conn.ExecContext(ctx, `
		UPDATE snapshots SET token = ?, address_token = ?, unaddress_token = ?, updated_at = ?
		WHERE id = ?`,
		nullString(single), nullString(addressToken), nullString(unaddressToken),
		time.Now().UTC(), id)
	observe("UPDATE", "snapshots", start, err)
	if err != nil {
		return fmt.Errorf("failed to update snapshot token: %w", err)
	}
	return checkRowsAffected(result, "snapshot "+id)
}

// SetIframeExpiration sets or clears the embed window of snapshot id.
func (db *DB) SetIframeExpiration(ctx context.Context, id string, until *time.Time) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	start := time.Now()
	result, err := db.conn.ExecContext(ctx,
		`UPDATE snapshots SET iframe_expires_at = ? WHERE id = ?`, nullTime(until), id)
	observe("UPDATE", "snapshots", start, err)
	if err != nil {
		return fmt.Errorf("failed to set iframe expiration: %w", err)
	}
	return checkRowsAffected(result, "snapshot "+id)
}

// TouchSnapshot records an access: last_access = at, visit_amount + 1.
// Returns the new visit count.
func (db *DB) TouchSnapshot(ctx context.Context, id string, at time.Time) (int, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	var visits int
	err := withConflictRetry(ctx, func() error {
		start := time.Now()
		err := db.conn.QueryRowContext(ctx, `
			UPDATE snapshots SET last_access = ?, visit_amount = visit_amount + 1
			WHERE id = ?
			RETURNING visit_amount`, at.UTC(), id,
		).Scan(&visits)
		observe("UPDATE", "snapshots", start, err)
		return err
	})
	if isNoRows(err) {
		return 0, fmt.Errorf("snapshot %s: %w", id, models.ErrNotFound)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to touch snapshot: %w", err)
	}
	return visits, nil
}

// DeleteSnapshot removes snapshot id when it belongs to owner.
func (db *DB) DeleteSnapshot(ctx context.Context, owner models.OwnerRef, id string) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	where, args := ownerClause(owner)
	start := time.Now()
	result, err := db.conn.ExecContext(ctx,
		`DELETE FROM snapshots WHERE id = ? AND `+where, append([]any{id}, args...)...)
	observe("DELETE", "snapshots", start, err)
	if err != nil {
		return fmt.Errorf("failed to delete snapshot: %w", err)
	}
	return checkRowsAffected(result, "snapshot "+id)
}

// ExtendSnapshotExpiration sets expires_at of every snapshot of owner
// centered on coords and returns how many were updated.
func (db *DB) ExtendSnapshotExpiration(ctx context.Context, owner models.OwnerRef, coords models.Coordinates, until time.Time) (int64, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	where, args := ownerClause(owner)
	args = append([]any{until.UTC()}, args...)
	args = append(args, coords.Lat, coords.Lng)

	start := time.Now()
	result, err := db.conn.ExecContext(ctx, `
		UPDATE snapshots SET expires_at = ?
		WHERE `+where+` AND lat = ? AND lng = ?`, args...)
	observe("UPDATE", "snapshots", start, err)
	if err != nil {
		return 0, fmt.Errorf("failed to extend snapshot expiration: %w", err)
	}
	return result.RowsAffected()
}

// DeleteTrialSnapshots removes every trial snapshot of owner.
func (db *DB) DeleteTrialSnapshots(ctx context.Context, owner models.OwnerRef) (int64, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	where, args := ownerClause(owner)
	start := time.Now()
	result, err := db.conn.ExecContext(ctx,
		`DELETE FROM snapshots WHERE `+where+` AND is_trial`, args...)
	observe("DELETE", "snapshots", start, err)
	if err != nil {
		return 0, fmt.Errorf("failed to delete trial snapshots: %w", err)
	}
	return result.RowsAffected()
}

func (db *DB) querySnapshot(ctx context.Context, tail string, args ...any) (*models.Snapshot, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	start := time.Now()
	row := db.conn.QueryRowContext(ctx, `SELECT `+snapshotColumns+` FROM snapshots `+tail, args...)
	s, err := scanSnapshot(row)
	observe("SELECT", "snapshots", start, err)
	if isNoRows(err) {
		return nil, nil
	}
	return s, err
}

type snapshotPayload struct {
	config       string
	searchResult string
	subject      sql.NullString
	listings     sql.NullString
}

func encodeSnapshotPayload(s *models.Snapshot) (snapshotPayload, error) {
	var p snapshotPayload

	config, err := json.Marshal(s.Config)
	if err != nil {
		return p, fmt.Errorf("failed to marshal snapshot config: %w", err)
	}
	result, err := json.Marshal(s.SearchResult)
	if err != nil {
		return p, fmt.Errorf("failed to marshal search result: %w", err)
	}
	p.config, p.searchResult = string(config), string(result)

	if s.SubjectListing != nil {
		data, err := json.Marshal(s.SubjectListing)
		if err != nil {
			return p, fmt.Errorf("failed to marshal subject listing: %w", err)
		}
		p.subject = sql.NullString{String: string(data), Valid: true}
	}
	if len(s.Listings) > 0 {
		data, err := json.Marshal(s.Listings)
		if err != nil {
			return p, fmt.Errorf("failed to marshal listings: %w", err)
		}
		p.listings = sql.NullString{String: string(data), Valid: true}
	}
	return p, nil
}

func scanSnapshot(row rowScanner) (*models.Snapshot, error) {
	var (
		s                                              models.Snapshot
		integrationID                                  sql.NullString
		token, addressToken, unaddressToken            sql.NullString
		config, result                                 string
		description, subject, listings                 sql.NullString
		updatedAt, lastAccess, expiresAt, iframeExpiry sql.NullTime
	)
	err := row.Scan(
		&s.ID, &s.Owner.UserID, &s.Owner.IntegrationUserID, &s.Owner.IntegrationType, &integrationID,
		&token, &addressToken, &unaddressToken,
		&config, &result, &description, &subject, &listings,
		&s.IsTrial, &s.VisitAmount,
		&s.CreatedAt, &updatedAt, &lastAccess, &expiresAt, &iframeExpiry,
	)
	if err != nil {
		if isNoRows(err) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan snapshot: %w", err)
	}

	if token.Valid {
		s.Token = models.NewSingleToken(token.String)
	} else if addressToken.Valid {
		s.Token = models.NewSplitToken(addressToken.String, unaddressToken.String)
	}
	if s.Owner.IntegrationUserID != "" {
		s.Integration = &models.SnapshotIntegration{
			IntegrationID:     integrationID.String,
			IntegrationUserID: s.Owner.IntegrationUserID,
			IntegrationType:   s.Owner.IntegrationType,
		}
	}

	if err := json.Unmarshal([]byte(config), &s.Config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal snapshot config: %w", err)
	}
	if err := json.Unmarshal([]byte(result), &s.SearchResult); err != nil {
		return nil, fmt.Errorf("failed to unmarshal search result: %w", err)
	}
	if subject.Valid {
		s.SubjectListing = &models.RealEstateListing{}
		if err := json.Unmarshal([]byte(subject.String), s.SubjectListing); err != nil {
			return nil, fmt.Errorf("failed to unmarshal subject listing: %w", err)
		}
	}
	if listings.Valid {
		if err := json.Unmarshal([]byte(listings.String), &s.Listings); err != nil {
			return nil, fmt.Errorf("failed to unmarshal listings: %w", err)
		}
	}

	s.Description = description.String
	s.CreatedAt = s.CreatedAt.UTC()
	s.UpdatedAt = timePtr(updatedAt)
	s.LastAccess = timePtr(lastAccess)
	s.ExpiresAt = timePtr(expiresAt)
	s.IframeExpiresAt = timePtr(iframeExpiry)
	return &s, nil
}

// checkToken rejects tokens that would leave a snapshot unreachable: every
// row carries either the single token or both halves of a split pair.
func checkToken(t models.AccessToken) error {
	if _, ok := t.Single(); ok {
		return nil
	}
	if a, u, ok := t.Split(); ok && a != "" && u != "" {
		return nil
	}
	return models.NewReasonError(models.ErrInvalidInput, "snapshot has no access token")
}
