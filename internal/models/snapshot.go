// Areamap - Location Search and Map Snapshot Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/areamap

package models

import (
	"slices"
	"time"
)

// LayerVisibility toggles the data layers of a map.
type LayerVisibility struct {
	POI        bool `json:"poi"`
	Isochrones bool `json:"isochrones"`
	RealEstate bool `json:"realEstate"`
	Transit    bool `json:"transit"`
}

// Entity types used in visibility entries.
const (
	EntityRealEstateListing = "real_estate_listing"
	EntityPOI               = "poi"
)

// EntityVisibility hides or shows one entity on the map.
type EntityVisibility struct {
	ID         string `json:"id"`
	EntityType string `json:"entityType"`
	Excluded   bool   `json:"excluded"`
}

// Configuration is the visual configuration of a snapshot.
type Configuration struct {
	// ShowAddress controls whether public views disclose the address.
	ShowAddress        bool                    `json:"showAddress"`
	DefaultActiveMeans []MeansOfTransportation `json:"defaultActiveMeans" validate:"max=3,dive,means"`
	PrimaryColor       string                  `json:"primaryColor,omitempty" validate:"hexcolor6"`
	MapIcon            string                  `json:"mapIcon,omitempty"`
	Theme              string                  `json:"theme,omitempty" validate:"max=64"`
	Layers             LayerVisibility         `json:"layers"`
	EntityVisibility   []EntityVisibility      `json:"entityVisibility,omitempty"`
	ActiveGroups       []string                `json:"defaultActiveGroups,omitempty"`
}

// DefaultConfiguration is the configuration used when no template applies.
func DefaultConfiguration() Configuration {
	return Configuration{
		ShowAddress:        true,
		DefaultActiveMeans: AllMeans(),
		Theme:              "default",
		Layers: LayerVisibility{
			POI:        true,
			Isochrones: true,
			RealEstate: true,
			Transit:    true,
		},
	}
}

// Clone returns a deep copy of c.
func (c Configuration) Clone() Configuration {
	c.DefaultActiveMeans = slices.Clone(c.DefaultActiveMeans)
	c.EntityVisibility = slices.Clone(c.EntityVisibility)
	c.ActiveGroups = slices.Clone(c.ActiveGroups)
	return c
}

// References reports whether the visibility list already mentions id.
func (c *Configuration) References(id string) bool {
	return slices.ContainsFunc(c.EntityVisibility, func(e EntityVisibility) bool {
		return e.ID == id
	})
}

// SnapshotIntegration carries the integration identity of a snapshot.
type SnapshotIntegration struct {
	// IntegrationID is the external real-estate reference in the partner CRM.
	IntegrationID     string `json:"integrationId"`
	IntegrationUserID string `json:"integrationUserId"`
	IntegrationType   string `json:"integrationType"`
}

// Snapshot is a persisted, shareable map.
type Snapshot struct {
	ID             string               `json:"id"`
	Owner          OwnerRef             `json:"owner"`
	Token          AccessToken          `json:"access"`
	Config         Configuration        `json:"config"`
	SearchResult   SearchResult         `json:"snapshot"`
	Description    string               `json:"description,omitempty"`
	SubjectListing *RealEstateListing   `json:"realEstateListing,omitempty"`
	Listings       []RealEstateListing  `json:"realEstateListings,omitempty"`
	Integration    *SnapshotIntegration `json:"integrationParams,omitempty"`
	IsTrial        bool                 `json:"isTrial"`
	VisitAmount    int                  `json:"visitAmount"`

	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       *time.Time `json:"updatedAt,omitempty"`
	LastAccess      *time.Time `json:"lastAccess,omitempty"`
	ExpiresAt       *time.Time `json:"endsAt,omitempty"`
	IframeExpiresAt *time.Time `json:"iframeEndsAt,omitempty"`
}

// Expired reports whether the snapshot's address lifetime lapsed before now.
func (s *Snapshot) Expired(now time.Time) bool {
	return s.ExpiresAt != nil && s.ExpiresAt.Before(now)
}

// IframeExpired reports whether the embed window lapsed before now.
func (s *Snapshot) IframeExpired(now time.Time) bool {
	return s.IframeExpiresAt != nil && s.IframeExpiresAt.Before(now)
}

// SnapshotUpdate is a partial update of a snapshot. Nil fields are kept.
type SnapshotUpdate struct {
	Description *string        `json:"description,omitempty" validate:"omitempty,max=2000"`
	Config      *Configuration `json:"config,omitempty"`
}
