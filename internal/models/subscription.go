// Areamap - Location Search and Map Snapshot Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/areamap

package models

import "time"

// PlanType identifies a subscription plan.
type PlanType string

// Known plans. Feature entitlements per plan live in the authz policy.
const (
	PlanTrial        PlanType = "TRIAL"
	PlanPayPerUse    PlanType = "PAY_PER_USE"
	PlanBusinessPlus PlanType = "BUSINESS_PLUS"
	PlanEnterprise   PlanType = "ENTERPRISE"
)

// Feature is a plan entitlement.
type Feature string

// Plan features.
const (
	FeatureHTMLSnippet     Feature = "html_snippet"
	FeatureCustomTemplates Feature = "custom_templates"
	FeatureSplitTokens     Feature = "split_tokens"
	// FeatureAddressExtension allows extending the lifetime of a searched
	// address.
	FeatureAddressExtension Feature = "address_extension"
)

// Subscription is the active plan of a quota holder.
type Subscription struct {
	ID      string   `json:"id"`
	OwnerID string   `json:"ownerId"`
	Plan    PlanType `json:"plan"`
	// AddressLifetime bounds how long a searched address stays usable.
	// Zero means unlimited.
	AddressLifetime time.Duration `json:"addressLifetime"`
	StartsAt        time.Time     `json:"startsAt"`
	EndsAt          time.Time     `json:"endsAt"`
}

// IsTrial reports whether the plan is a trial.
func (s *Subscription) IsTrial() bool {
	return s != nil && s.Plan == PlanTrial
}

// AddressExpiration returns the expiration for an address first searched
// at now, or nil when the plan does not limit address lifetime.
func (s *Subscription) AddressExpiration(now time.Time) *time.Time {
	if s == nil || s.AddressLifetime <= 0 {
		return nil
	}
	exp := now.Add(s.AddressLifetime)
	return &exp
}

// ContingentKind distinguishes recurring from one-off request contingents.
type ContingentKind string

// Contingent kinds.
const (
	ContingentMonthly  ContingentKind = "MONTHLY"
	ContingentIncrease ContingentKind = "INCREASE"
)

// ContingentEntry grants Amount searches within its validity window.
type ContingentEntry struct {
	ID         string         `json:"id"`
	OwnerID    string         `json:"ownerId"`
	Kind       ContingentKind `json:"kind"`
	Amount     int            `json:"amount"`
	ValidFrom  time.Time      `json:"validFrom"`
	ValidUntil time.Time      `json:"validUntil"`
}

// ValidAt reports whether the entry counts at t. ValidUntil is exclusive.
func (c ContingentEntry) ValidAt(t time.Time) bool {
	return !t.Before(c.ValidFrom) && t.Before(c.ValidUntil)
}
