// Areamap - Location Search and Map Snapshot Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/areamap

package models

import "time"

// Usage event kinds.
const (
	UsageLocationSearch = "location_search"
)

// UsageEvent reports a billable action of an integration owner to the
// partner billing pipeline.
type UsageEvent struct {
	EventID           string      `json:"event_id"`
	Kind              string      `json:"kind"`
	IntegrationUserID string      `json:"integration_user_id"`
	IntegrationType   string      `json:"integration_type"`
	ParentID          string      `json:"parent_id,omitempty"`
	Coordinates       Coordinates `json:"coordinates"`
	OccurredAt        time.Time   `json:"occurred_at"`
}
