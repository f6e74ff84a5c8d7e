// Areamap - Location Search and Map Snapshot Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/areamap

package snapshot

import (
	"context"
	"errors"
	"time"

	"github.com/tomtom215/areamap/internal/logging"
	"github.com/tomtom215/areamap/internal/metrics"
	"github.com/tomtom215/areamap/internal/models"
)

// Mode is the context a snapshot is served in.
type Mode string

// Access modes.
const (
	// ModeOwner serves the authenticated owner's own view.
	ModeOwner Mode = "owner"
	// ModeEmbed serves an owner-authenticated embedded display.
	ModeEmbed Mode = "embed"
	// ModeToken serves the public token path.
	ModeToken Mode = "token"
)

// GatewayStore is the persistence used by the Gateway.
type GatewayStore interface {
	GetSnapshot(ctx context.Context, id string) (*models.Snapshot, error)
	GetSnapshotByToken(ctx context.Context, token string) (*models.Snapshot, error)
	TouchSnapshot(ctx context.Context, id string, at time.Time) (int, error)
	GetOwner(ctx context.Context, ref models.OwnerRef) (models.Owner, error)
}

// FeatureGate checks plan features.
type FeatureGate interface {
	Require(ctx context.Context, owner models.Owner, feature models.Feature) error
}

// Gateway serves snapshots.
type Gateway struct {
	store    GatewayStore
	gate     FeatureGate
	redactor *Redactor
	now      func() time.Time
}

// NewGateway creates a gateway.
func NewGateway(store GatewayStore, gate FeatureGate, redactor *Redactor) *Gateway {
	return &Gateway{store: store, gate: gate, redactor: redactor, now: time.Now}
}

// WithClock replaces the time source.
func (g *Gateway) WithClock(now func() time.Time) *Gateway {
	g.now = now
	return g
}

// errSnapshotNotFound hides unknown and foreign snapshots alike.
var errSnapshotNotFound = models.NewReasonError(models.ErrNotFound, "Snapshot not found")

// FetchByID returns snapshot id of owner. Snapshots of other owners are
// reported as not found.
func (g *Gateway) FetchByID(ctx context.Context, owner models.Owner, id string, mode Mode) (*models.Snapshot, error) {
	s, err := g.store.GetSnapshot(ctx, id)
	if err != nil {
		return nil, err
	}
	if s == nil || !owner.Ref().Matches(s.Owner) {
		metrics.RecordSnapshotFetch(string(mode), "not_found", false)
		return nil, errSnapshotNotFound
	}
	return g.serve(ctx, owner, s, mode, models.TokenNone)
}

// FetchByToken returns the snapshot carrying token. No ownership applies;
// expiration, plan features and redaction do.
func (g *Gateway) FetchByToken(ctx context.Context, token string) (*models.Snapshot, error) {
	s, err := g.store.GetSnapshotByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	kind := models.TokenNone
	if s != nil {
		kind = s.Token.Match(token)
	}
	if kind == models.TokenNone {
		metrics.RecordSnapshotFetch(string(ModeToken), "not_found", false)
		return nil, errSnapshotNotFound
	}

	owner, err := g.store.GetOwner(ctx, s.Owner)
	if err != nil {
		return nil, err
	}
	if owner == nil {
		metrics.RecordSnapshotFetch(string(ModeToken), "not_found", false)
		return nil, errSnapshotNotFound
	}
	return g.serve(ctx, owner, s, ModeToken, kind)
}

func (g *Gateway) serve(ctx context.Context, owner models.Owner, s *models.Snapshot, mode Mode, kind models.TokenKind) (*models.Snapshot, error) {
	now := g.now()
	public := mode != ModeOwner

	if err := g.check(ctx, owner, s, public, now); err != nil {
		metrics.RecordSnapshotFetch(string(mode), outcomeOf(err), false)
		return nil, err
	}

	if _, err := g.store.TouchSnapshot(ctx, s.ID, now); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("snapshot_id", s.ID).Msg("Failed to record snapshot access")
	}

	redact := public && (kind == models.TokenUnaddress || (kind != models.TokenAddress && !s.Config.ShowAddress))
	out := s
	if redact {
		out = g.redactor.Redact(s)
	}
	if public {
		// Public consumers never see the tokens; the unaddress holder
		// must not learn the address token.
		if out == s {
			cp := *s
			out = &cp
		}
		out.Token = models.AccessToken{}
	}

	metrics.RecordSnapshotFetch(string(mode), "ok", redact)
	return out, nil
}

// check applies the plan feature gate, the address lifetime and the iframe
// window. An expired address is terminal even for the owner; the iframe
// window only binds public contexts.
func (g *Gateway) check(ctx context.Context, owner models.Owner, s *models.Snapshot, public bool, now time.Time) error {
	subscription := owner.Billing().Subscription()
	if public && subscription {
		if err := g.gate.Require(ctx, owner, models.FeatureHTMLSnippet); err != nil {
			return err
		}
	}
	if subscription && s.Expired(now) {
		return models.NewReasonError(models.ErrLocationExpired,
			"The address lifetime of this map has expired. Extend it to publish the map again.")
	}
	if public && s.IframeExpired(now) {
		return models.NewReasonError(models.ErrIframeExpired, "The embedding period of this map has expired.")
	}
	return nil
}

func outcomeOf(err error) string {
	switch {
	case errors.Is(err, models.ErrFeatureUnavailable):
		return "feature_unavailable"
	case errors.Is(err, models.ErrLocationExpired):
		return "expired"
	case errors.Is(err, models.ErrIframeExpired):
		return "iframe_expired"
	}
	return "error"
}
