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

	"github.com/google/uuid"

	"github.com/tomtom215/areamap/internal/models"
)

// CreateListing inserts a real-estate listing.
func (db *DB) CreateListing(ctx context.Context, l *models.RealEstateListing) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	if l.ID == "" {
		l.ID = uuid.New().String()
	}
	if l.CreatedAt.IsZero() {
		l.CreatedAt = time.Now().UTC()
	}

	start := time.Now()
	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO real_estate_listings (
			id, user_id, integration_user_id, integration_type, external_id,
			name, address, lat, lng, property_type, price, living_area,
			show_in_snapshot, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		l.ID, l.Owner.UserID, l.Owner.IntegrationUserID, l.Owner.IntegrationType, nullString(l.ExternalID),
		l.Name, l.Address, l.Coordinates.Lat, l.Coordinates.Lng, nullString(l.PropertyType),
		l.Price, l.LivingArea, l.ShowInSnapshot, l.CreatedAt.UTC(),
	)
	observe("INSERT", "real_estate_listings", start, err)
	if err != nil {
		return fmt.Errorf("failed to insert listing: %w", err)
	}
	return nil
}

// ListListings returns all listings of owner, oldest first.
func (db *DB) ListListings(ctx context.Context, owner models.OwnerRef) ([]models.RealEstateListing, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	where, args := ownerClause(owner)

	start := time.Now()
	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, user_id, integration_user_id, integration_type, external_id,
			name, address, lat, lng, property_type, price, living_area,
			show_in_snapshot, created_at
		FROM real_estate_listings
		WHERE `+where+`
		ORDER BY created_at, rowid`, args...)
	observe("SELECT", "real_estate_listings", start, err)
	if err != nil {
		return nil, fmt.Errorf("failed to query listings: %w", err)
	}
	defer rows.Close()

	listings := []models.RealEstateListing{}
	for rows.Next() {
		var (
			l                        models.RealEstateListing
			externalID, propertyType sql.NullString
			price, livingArea        sql.NullFloat64
		)
		if err := rows.Scan(&l.ID, &l.Owner.UserID, &l.Owner.IntegrationUserID, &l.Owner.IntegrationType,
			&externalID, &l.Name, &l.Address, &l.Coordinates.Lat, &l.Coordinates.Lng,
			&propertyType, &price, &livingArea, &l.ShowInSnapshot, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan listing: %w", err)
		}
		l.ExternalID = externalID.String
		l.PropertyType = propertyType.String
		l.Price = price.Float64
		l.LivingArea = livingArea.Float64
		l.CreatedAt = l.CreatedAt.UTC()
		listings = append(listings, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating listings: %w", err)
	}
	return listings, nil
}
