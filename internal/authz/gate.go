// Areamap - Location Search and Map Snapshot Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/areamap

package authz

import (
	"context"
	"fmt"

	"github.com/tomtom215/areamap/internal/logging"
	"github.com/tomtom215/areamap/internal/metrics"
	"github.com/tomtom215/areamap/internal/models"
)

// SubscriptionSource returns the subscription governing an owner, or nil.
type SubscriptionSource interface {
	Subscription(ctx context.Context, owner models.Owner) (*models.Subscription, error)
}

// Gate checks plan features of owners.
type Gate struct {
	enforcer      *Enforcer
	subscriptions SubscriptionSource
}

// NewGate creates a feature gate.
func NewGate(enforcer *Enforcer, subscriptions SubscriptionSource) *Gate {
	return &Gate{enforcer: enforcer, subscriptions: subscriptions}
}

// Require returns nil when owner may use feature, and a
// *models.ReasonError of kind models.ErrFeatureUnavailable otherwise.
// Product-billed owners are not plan governed and always pass.
func (g *Gate) Require(ctx context.Context, owner models.Owner, feature models.Feature) error {
	if !owner.Billing().Subscription() {
		metrics.RecordFeatureDecision(string(feature), "exempt")
		return nil
	}

	sub, err := g.subscriptions.Subscription(ctx, owner)
	if err != nil {
		return err
	}
	var plan models.PlanType
	if sub != nil {
		plan = sub.Plan
	}

	allowed, err := g.enforcer.HasFeature(plan, feature)
	if err != nil {
		return err
	}
	if !allowed {
		metrics.RecordFeatureDecision(string(feature), "deny")
		logging.Ctx(ctx).Debug().
			Str("owner_id", owner.ID()).
			Str("plan", string(plan)).
			Str("feature", string(feature)).
			Msg("Plan feature denied")
		return models.NewReasonError(models.ErrFeatureUnavailable,
			fmt.Sprintf("Your current plan does not include the %q feature. Please upgrade your plan.", feature))
	}

	metrics.RecordFeatureDecision(string(feature), "allow")
	return nil
}
