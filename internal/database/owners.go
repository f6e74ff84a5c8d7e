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

	"github.com/tomtom215/areamap/internal/models"
)

// CreateUser inserts a standalone user. ParentUser is stored by id only.
func (db *DB) CreateUser(ctx context.Context, u *models.StandaloneUser) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	countries, err := marshalCountries(u.Countries)
	if err != nil {
		return err
	}
	var parentID string
	if u.ParentUser != nil {
		parentID = u.ParentUser.UserID
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}

	start := time.Now()
	_, err = db.conn.ExecContext(ctx, `
		INSERT INTO users (
			id, email, parent_id, template_snapshot_id,
			primary_color, map_icon, allowed_countries,
			requests_executed, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		u.UserID, u.Email, nullString(parentID), nullString(u.TemplateID),
		nullString(u.Branding.PrimaryColor), nullString(u.Branding.MapIcon), countries,
		u.RequestsExecuted, u.CreatedAt.UTC(),
	)
	observe("INSERT", "users", start, err)
	if err != nil {
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

// GetUser loads a standalone user and its parent. Returns nil, nil when
// the user does not exist.
func (db *DB) GetUser(ctx context.Context, id string) (*models.StandaloneUser, error) {
	u, parentID, err := db.getUserRow(ctx, id)
	if err != nil || u == nil {
		return u, err
	}
	if parentID != "" && parentID != id {
		parent, _, err := db.getUserRow(ctx, parentID)
		if err != nil {
			return nil, fmt.Errorf("failed to load parent user: %w", err)
		}
		u.ParentUser = parent
	}
	return u, nil
}

func (db *DB) getUserRow(ctx context.Context, id string) (*models.StandaloneUser, string, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	var (
		u                                     models.StandaloneUser
		parentID, templateID, color, icon, cc sql.NullString
	)
	start := time.Now()
	err := db.conn.QueryRowContext(ctx, `
		SELECT id, email, parent_id, template_snapshot_id,
			primary_color, map_icon, allowed_countries,
			requests_executed, created_at
		FROM users WHERE id = ?`, id,
	).Scan(&u.UserID, &u.Email, &parentID, &templateID, &color, &icon, &cc,
		&u.RequestsExecuted, &u.CreatedAt)
	observe("SELECT", "users", start, err)
	if isNoRows(err) {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", fmt.Errorf("failed to query user: %w", err)
	}

	u.TemplateID = templateID.String
	u.Branding = models.Appearance{PrimaryColor: color.String, MapIcon: icon.String}
	if u.Countries, err = unmarshalCountries(cc); err != nil {
		return nil, "", err
	}
	return &u, parentID.String, nil
}

// IncrementRequestsExecuted charges one search executed at `at` to the quota
// holder and returns the holder's lifetime counter.
func (db *DB) IncrementRequestsExecuted(ctx context.Context, holderID string, at time.Time) (int, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	var total int
	err := withConflictRetry(ctx, func() error {
		tx, err := db.conn.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback() }()

		start := time.Now()
		err = tx.QueryRowContext(ctx, `
			UPDATE users SET requests_executed = requests_executed + 1
			WHERE id = ?
			RETURNING requests_executed`, holderID,
		).Scan(&total)
		observe("UPDATE", "users", start, err)
		if err != nil {
			return err
		}

		start = time.Now()
		_, err = tx.ExecContext(ctx,
			`INSERT INTO executed_requests (holder_id, executed_at) VALUES (?, ?)`, holderID, at.UTC())
		observe("INSERT", "executed_requests", start, err)
		if err != nil {
			return err
		}
		return tx.Commit()
	})
	if isNoRows(err) {
		return 0, fmt.Errorf("user %s: %w", holderID, models.ErrNotFound)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to increment executed requests: %w", err)
	}
	return total, nil
}

// RequestsExecuted returns the lifetime search counter of the quota holder.
func (db *DB) RequestsExecuted(ctx context.Context, holderID string) (int, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	var total int
	start := time.Now()
	err := db.conn.QueryRowContext(ctx,
		`SELECT requests_executed FROM users WHERE id = ?`, holderID).Scan(&total)
	observe("SELECT", "users", start, err)
	if isNoRows(err) {
		return 0, fmt.Errorf("user %s: %w", holderID, models.ErrNotFound)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to query executed requests: %w", err)
	}
	return total, nil
}

// ExecutedRequests returns the charge times of holderID at or after since,
// oldest first.
func (db *DB) ExecutedRequests(ctx context.Context, holderID string, since time.Time) ([]time.Time, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	start := time.Now()
	rows, err := db.conn.QueryContext(ctx, `
		SELECT executed_at FROM executed_requests
		WHERE holder_id = ? AND executed_at >= ?
		ORDER BY executed_at`, holderID, since.UTC())
	observe("SELECT", "executed_requests", start, err)
	if err != nil {
		return nil, fmt.Errorf("failed to query executed requests: %w", err)
	}
	defer rows.Close()

	var charges []time.Time
	for rows.Next() {
		var t time.Time
		if err := rows.Scan(&t); err != nil {
			return nil, fmt.Errorf("failed to scan executed request: %w", err)
		}
		charges = append(charges, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating executed requests: %w", err)
	}
	return charges, nil
}

// SetUserTemplate sets or clears the template snapshot of a standalone user.
func (db *DB) SetUserTemplate(ctx context.Context, userID, snapshotID string) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	result, err := db.conn.ExecContext(ctx,
		`UPDATE users SET template_snapshot_id = ? WHERE id = ?`, nullString(snapshotID), userID)
	if err != nil {
		return fmt.Errorf("failed to set user template: %w", err)
	}
	return checkRowsAffected(result, "user "+userID)
}

// CreateIntegrationUser inserts an integration user.
func (db *DB) CreateIntegrationUser(ctx context.Context, u *models.IntegrationUser) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	countries, err := marshalCountries(u.Countries)
	if err != nil {
		return err
	}
	var parentID string
	if u.ParentUser != nil {
		parentID = u.ParentUser.InternalID
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}

	start := time.Now()
	_, err = db.conn.ExecContext(ctx, `
		INSERT INTO integration_users (
			id, integration_user_id, integration_type, parent_id,
			template_snapshot_id, primary_color, map_icon,
			allowed_countries, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		u.InternalID, u.IntegrationUserID, u.IntegrationType, nullString(parentID),
		nullString(u.TemplateID), nullString(u.Branding.PrimaryColor), nullString(u.Branding.MapIcon),
		countries, u.CreatedAt.UTC(),
	)
	observe("INSERT", "integration_users", start, err)
	if err != nil {
		return fmt.Errorf("failed to insert integration user: %w", err)
	}
	return nil
}

// GetIntegrationUser loads an integration user by its external identity.
// Returns nil, nil when no such user exists.
func (db *DB) GetIntegrationUser(ctx context.Context, integrationUserID, integrationType string) (*models.IntegrationUser, error) {
	u, parentID, err := db.getIntegrationUserRow(ctx,
		"integration_user_id = ? AND integration_type = ?", integrationUserID, integrationType)
	if err != nil || u == nil {
		return u, err
	}
	if parentID != "" && parentID != u.InternalID {
		parent, _, err := db.getIntegrationUserRow(ctx, "id = ?", parentID)
		if err != nil {
			return nil, fmt.Errorf("failed to load parent integration user: %w", err)
		}
		u.ParentUser = parent
	}
	return u, nil
}

func (db *DB) getIntegrationUserRow(ctx context.Context, where string, args ...any) (*models.IntegrationUser, string, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	var (
		u                                     models.IntegrationUser
		parentID, templateID, color, icon, cc sql.NullString
	)
	start := time.Now()
	err := db.conn.QueryRowContext(ctx, `
		SELECT id, integration_user_id, integration_type, parent_id,
			template_snapshot_id, primary_color, map_icon,
			allowed_countries, created_at
		FROM integration_users WHERE `+where, args...,
	).Scan(&u.InternalID, &u.IntegrationUserID, &u.IntegrationType, &parentID,
		&templateID, &color, &icon, &cc, &u.CreatedAt)
	observe("SELECT", "integration_users", start, err)
	if isNoRows(err) {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", fmt.Errorf("failed to query integration user: %w", err)
	}

	u.TemplateID = templateID.String
	u.Branding = models.Appearance{PrimaryColor: color.String, MapIcon: icon.String}
	if u.Countries, err = unmarshalCountries(cc); err != nil {
		return nil, "", err
	}
	return &u, parentID.String, nil
}

func marshalCountries(countries []string) (sql.NullString, error) {
	if len(countries) == 0 {
		return sql.NullString{}, nil
	}
	data, err := json.Marshal(countries)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("failed to marshal allowed countries: %w", err)
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

func unmarshalCountries(ns sql.NullString) ([]string, error) {
	if !ns.Valid || ns.String == "" {
		return nil, nil
	}
	var countries []string
	if err := json.Unmarshal([]byte(ns.String), &countries); err != nil {
		return nil, fmt.Errorf("failed to unmarshal allowed countries: %w", err)
	}
	return countries, nil
}

// GetOwner loads the owner ref points to. Returns nil, nil when it does not
// exist.
func (db *DB) GetOwner(ctx context.Context, ref models.OwnerRef) (models.Owner, error) {
	switch {
	case ref.UserID != "":
		u, err := db.GetUser(ctx, ref.UserID)
		if err != nil || u == nil {
			return nil, err
		}
		return u, nil
	case ref.IntegrationUserID != "":
		u, err := db.GetIntegrationUser(ctx, ref.IntegrationUserID, ref.IntegrationType)
		if err != nil || u == nil {
			return nil, err
		}
		return u, nil
	}
	return nil, nil
}
