// Areamap - Location Search and Map Snapshot Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/areamap

package models

import "time"

// RealEstateListing is a property managed by an owner.
type RealEstateListing struct {
	ID           string      `json:"id"`
	Owner        OwnerRef    `json:"-"`
	ExternalID   string      `json:"externalId,omitempty"`
	Name         string      `json:"name"`
	Address      string      `json:"address"`
	Coordinates  Coordinates `json:"coordinates"`
	PropertyType string      `json:"propertyType,omitempty"`
	Price        float64     `json:"price,omitempty"`
	LivingArea   float64     `json:"livingArea,omitempty"`
	CreatedAt    time.Time   `json:"createdAt"`

	// ShowInSnapshot false keeps the listing off every new snapshot.
	ShowInSnapshot bool `json:"showInSnapshot"`
}
