// Areamap - Location Search and Map Snapshot Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/areamap

package models

import "time"

// OwnerKind distinguishes the two owner variants.
type OwnerKind string

// Owner kinds.
const (
	OwnerStandalone  OwnerKind = "standalone"
	OwnerIntegration OwnerKind = "integration"
)

// BillingMode decides how searches of an owner are charged.
type BillingMode int

const (
	// BillingSubscription owners consume request contingents, are gated by
	// plan features and may have a limited address lifetime.
	BillingSubscription BillingMode = iota
	// BillingProduct owners are charged per external product contingent.
	// Their searches are reported as usage events instead.
	BillingProduct
)

// BillingScope names whose subscription and contingents apply to an owner.
type BillingScope struct {
	HolderID string
	Mode     BillingMode
}

// Subscription reports whether the owner is subscription governed.
func (b BillingScope) Subscription() bool {
	return b.Mode == BillingSubscription
}

// OwnerRef is the persisted reference to an owner. It doubles as the
// ownership filter: standalone owners match on UserID, integration owners
// on the (IntegrationUserID, IntegrationType) pair.
type OwnerRef struct {
	UserID            string `json:"userId,omitempty"`
	IntegrationUserID string `json:"integrationUserId,omitempty"`
	IntegrationType   string `json:"integrationType,omitempty"`
}

// Matches reports whether other refers to the same owner as r.
func (r OwnerRef) Matches(other OwnerRef) bool {
	if r.UserID != "" {
		return r.UserID == other.UserID
	}
	return r.IntegrationUserID != "" &&
		r.IntegrationUserID == other.IntegrationUserID &&
		r.IntegrationType == other.IntegrationType
}

// Appearance is the branding inherited by snapshot configurations.
type Appearance struct {
	PrimaryColor string `json:"primaryColor,omitempty"`
	MapIcon      string `json:"mapIcon,omitempty"`
}

// Owner is the account a search or snapshot belongs to.
type Owner interface {
	// ID is the internal id of the owner.
	ID() string
	Kind() OwnerKind
	// Ref is the ownership filter for records and snapshots.
	Ref() OwnerRef
	Billing() BillingScope
	// Parent returns the linked parent owner or nil.
	Parent() Owner
	// TemplateSnapshotID is the owner's configured template snapshot or "".
	TemplateSnapshotID() string
	Appearance() Appearance
	// AllowedCountries restricts geocoding results. Empty means unrestricted.
	AllowedCountries() []string
}

// StandaloneUser is a direct customer of the product.
type StandaloneUser struct {
	UserID           string          `json:"id"`
	Email            string          `json:"email"`
	ParentUser       *StandaloneUser `json:"parent,omitempty"`
	TemplateID       string          `json:"templateSnapshotId,omitempty"`
	Branding         Appearance      `json:"appearance"`
	Countries        []string        `json:"allowedCountries,omitempty"`
	RequestsExecuted int             `json:"requestsExecuted"`
	CreatedAt        time.Time       `json:"createdAt"`
}

var _ Owner = (*StandaloneUser)(nil)

// ID implements Owner.
func (u *StandaloneUser) ID() string { return u.UserID }

// Kind implements Owner.
func (u *StandaloneUser) Kind() OwnerKind { return OwnerStandalone }

// Ref implements Owner.
func (u *StandaloneUser) Ref() OwnerRef { return OwnerRef{UserID: u.UserID} }

// Billing implements Owner. A linked child consumes its parent's
// subscription and contingents.
func (u *StandaloneUser) Billing() BillingScope {
	holder := u.UserID
	if u.ParentUser != nil {
		holder = u.ParentUser.UserID
	}
	return BillingScope{HolderID: holder, Mode: BillingSubscription}
}

// Parent implements Owner.
func (u *StandaloneUser) Parent() Owner {
	if u.ParentUser == nil {
		return nil
	}
	return u.ParentUser
}

// TemplateSnapshotID implements Owner.
func (u *StandaloneUser) TemplateSnapshotID() string { return u.TemplateID }

// Appearance implements Owner.
func (u *StandaloneUser) Appearance() Appearance { return u.Branding }

// AllowedCountries implements Owner.
func (u *StandaloneUser) AllowedCountries() []string { return u.Countries }

// IntegrationUser is a user of a partner CRM calling through an integration.
type IntegrationUser struct {
	InternalID        string           `json:"id"`
	IntegrationUserID string           `json:"integrationUserId"`
	IntegrationType   string           `json:"integrationType"`
	ParentUser        *IntegrationUser `json:"parent,omitempty"`
	TemplateID        string           `json:"templateSnapshotId,omitempty"`
	Branding          Appearance       `json:"appearance"`
	Countries         []string         `json:"allowedCountries,omitempty"`
	CreatedAt         time.Time        `json:"createdAt"`
}

var _ Owner = (*IntegrationUser)(nil)

// ID implements Owner.
func (u *IntegrationUser) ID() string { return u.InternalID }

// Kind implements Owner.
func (u *IntegrationUser) Kind() OwnerKind { return OwnerIntegration }

// Ref implements Owner.
func (u *IntegrationUser) Ref() OwnerRef {
	return OwnerRef{IntegrationUserID: u.IntegrationUserID, IntegrationType: u.IntegrationType}
}

// Billing implements Owner.
func (u *IntegrationUser) Billing() BillingScope {
	return BillingScope{HolderID: u.InternalID, Mode: BillingProduct}
}

// Parent implements Owner.
func (u *IntegrationUser) Parent() Owner {
	if u.ParentUser == nil {
		return nil
	}
	return u.ParentUser
}

// TemplateSnapshotID implements Owner.
func (u *IntegrationUser) TemplateSnapshotID() string { return u.TemplateID }

// Appearance implements Owner.
func (u *IntegrationUser) Appearance() Appearance { return u.Branding }

// AllowedCountries implements Owner.
func (u *IntegrationUser) AllowedCountries() []string { return u.Countries }
