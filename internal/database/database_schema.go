// Areamap - Location Search and Map Snapshot Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/areamap

package database

import (
	"context"
	"fmt"
)

// Owner columns use '' instead of NULL so that ownership filters can compare
// with plain equality.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id                   VARCHAR PRIMARY KEY,
		email                VARCHAR NOT NULL,
		parent_id            VARCHAR,
		template_snapshot_id VARCHAR,
		primary_color        VARCHAR,
		map_icon             VARCHAR,
		allowed_countries    VARCHAR,
		requests_executed    INTEGER NOT NULL DEFAULT 0,
		created_at           TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS integration_users (
		id                   VARCHAR PRIMARY KEY,
		integration_user_id  VARCHAR NOT NULL,
		integration_type     VARCHAR NOT NULL,
		parent_id            VARCHAR,
		template_snapshot_id VARCHAR,
		primary_color        VARCHAR,
		map_icon             VARCHAR,
		allowed_countries    VARCHAR,
		created_at           TIMESTAMP NOT NULL,
		UNIQUE (integration_user_id, integration_type)
	)`,
	`CREATE TABLE IF NOT EXISTS subscriptions (
		id                       VARCHAR PRIMARY KEY,
		owner_id                 VARCHAR NOT NULL,
		plan                     VARCHAR NOT NULL,
		address_lifetime_seconds BIGINT NOT NULL DEFAULT 0,
		starts_at                TIMESTAMP NOT NULL,
		ends_at                  TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS contingents (
		id          VARCHAR PRIMARY KEY,
		owner_id    VARCHAR NOT NULL,
		kind        VARCHAR NOT NULL,
		amount      INTEGER NOT NULL,
		valid_from  TIMESTAMP NOT NULL,
		valid_until TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS executed_requests (
		holder_id   VARCHAR NOT NULL,
		executed_at TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS location_searches (
		id                  VARCHAR PRIMARY KEY,
		user_id             VARCHAR NOT NULL DEFAULT '',
		integration_user_id VARCHAR NOT NULL DEFAULT '',
		integration_type    VARCHAR NOT NULL DEFAULT '',
		lat                 DOUBLE NOT NULL,
		lng                 DOUBLE NOT NULL,
		search_title        VARCHAR,
		means               VARCHAR NOT NULL,
		is_trial            BOOLEAN NOT NULL DEFAULT FALSE,
		created_at          TIMESTAMP NOT NULL,
		expires_at          TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS snapshots (
		id                  VARCHAR PRIMARY KEY,
		user_id             VARCHAR NOT NULL DEFAULT '',
		integration_user_id VARCHAR NOT NULL DEFAULT '',
		integration_type    VARCHAR NOT NULL DEFAULT '',
		integration_id      VARCHAR,
		token               VARCHAR,
		address_token       VARCHAR,
		unaddress_token     VARCHAR,
		lat                 DOUBLE NOT NULL,
		lng                 DOUBLE NOT NULL,
		config              VARCHAR NOT NULL,
		search_result       VARCHAR NOT NULL,
		description         VARCHAR,
		subject_listing     VARCHAR,
		listings            VARCHAR,
		is_trial            BOOLEAN NOT NULL DEFAULT FALSE,
		visit_amount        INTEGER NOT NULL DEFAULT 0,
		created_at          TIMESTAMP NOT NULL,
		updated_at          TIMESTAMP,
		last_access         TIMESTAMP,
		expires_at          TIMESTAMP,
		iframe_expires_at   TIMESTAMP,
		CHECK ((token IS NOT NULL) <> (address_token IS NOT NULL AND unaddress_token IS NOT NULL))
	)`,
	`CREATE TABLE IF NOT EXISTS real_estate_listings (
		id                  VARCHAR PRIMARY KEY,
		user_id             VARCHAR NOT NULL DEFAULT '',
		integration_user_id VARCHAR NOT NULL DEFAULT '',
		integration_type    VARCHAR NOT NULL DEFAULT '',
		external_id         VARCHAR,
		name                VARCHAR NOT NULL,
		address             VARCHAR NOT NULL,
		lat                 DOUBLE NOT NULL,
		lng                 DOUBLE NOT NULL,
		property_type       VARCHAR,
		price               DOUBLE,
		living_area         DOUBLE,
		show_in_snapshot    BOOLEAN NOT NULL DEFAULT TRUE,
		created_at          TIMESTAMP NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_location_searches_owner_coords
		ON location_searches (user_id, integration_user_id, lat, lng)`,
	`CREATE INDEX IF NOT EXISTS idx_snapshots_token ON snapshots (token)`,
	`CREATE INDEX IF NOT EXISTS idx_snapshots_owner ON snapshots (user_id, integration_user_id)`,
	`CREATE INDEX IF NOT EXISTS idx_contingents_owner ON contingents (owner_id)`,
	`CREATE INDEX IF NOT EXISTS idx_executed_requests_holder ON executed_requests (holder_id, executed_at)`,
	`CREATE INDEX IF NOT EXISTS idx_subscriptions_owner ON subscriptions (owner_id)`,
}

func (db *DB) createSchema(ctx context.Context) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	for _, stmt := range schemaStatements {
		if _, err := db.conn.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to execute schema statement: %w", err)
		}
	}
	return nil
}
