// Areamap - Location Search and Map Snapshot Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/areamap

// Package snapshot builds, serves and manages shareable map snapshots.
//
// The Builder turns a search result into a persisted snapshot. Its
// configuration comes from an explicit template or the TemplateResolver
// cascade and is always post-processed for the new search. The Gateway
// serves snapshots to owners, embeds and public tokens, enforcing
// ownership, plan features, expiration and address redaction.
package snapshot

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/areamap/internal/logging"
	"github.com/tomtom215/areamap/internal/metrics"
	"github.com/tomtom215/areamap/internal/models"
	"github.com/tomtom215/areamap/internal/quota"
)

// BuilderStore is the persistence used while building snapshots.
type BuilderStore interface {
	TemplateStore
	CreateSnapshot(ctx context.Context, s *models.Snapshot) error
	LatestSnapshotForIntegration(ctx context.Context, owner models.OwnerRef, integrationID string) (*models.Snapshot, error)
	LatestLocationSearch(ctx context.Context, owner models.OwnerRef, coords models.Coordinates) (*models.LocationSearchRecord, error)
	ListListings(ctx context.Context, owner models.OwnerRef) ([]models.RealEstateListing, error)
}

// LifetimeSource computes address lifetimes.
type LifetimeSource interface {
	AddressLifetime(ctx context.Context, owner models.Owner, existing *models.LocationSearchRecord) (quota.Lifetime, error)
}

// BuildRequest describes a snapshot to build.
type BuildRequest struct {
	Result *models.SearchResult
	// Config skips the template cascade when set.
	Config      *models.Configuration
	Description string
	// IntegrationID is the external real-estate reference of integration
	// owners. Iframe windows are scoped to it.
	IntegrationID string
}

// Builder creates snapshots.
type Builder struct {
	store     BuilderStore
	templates *TemplateResolver
	lifetimes LifetimeSource
	now       func() time.Time
}

// NewBuilder creates a snapshot builder.
func NewBuilder(store BuilderStore, lifetimes LifetimeSource) *Builder {
	return &Builder{
		store:     store,
		templates: NewTemplateResolver(store),
		lifetimes: lifetimes,
		now:       time.Now,
	}
}

// WithClock replaces the time source.
func (b *Builder) WithClock(now func() time.Time) *Builder {
	b.now = now
	return b
}

// Build creates and persists a snapshot of req.Result for owner.
func (b *Builder) Build(ctx context.Context, owner models.Owner, req BuildRequest) (*models.Snapshot, error) {
	if req.Result == nil {
		return nil, errors.New("snapshot requires a search result")
	}
	result := req.Result.Clone()
	ref := owner.Ref()

	allListings, err := b.store.ListListings(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("failed to load listings: %w", err)
	}
	subject, listings := partitionListings(allListings, result.Location)

	var (
		cfg    models.Configuration
		source ConfigSource
	)
	if req.Config != nil {
		cfg, source = req.Config.Clone(), SourceExplicit
	} else {
		cfg, source = b.templates.Resolve(ctx, owner)
	}
	cfg = PostProcess(cfg, owner, resultMeans(result), listings)

	token, err := NewSingleToken()
	if err != nil {
		return nil, err
	}

	// The snapshot's lifetime is the lifetime of the searched address.
	record, err := b.store.LatestLocationSearch(ctx, ref, result.Location)
	if err != nil {
		return nil, fmt.Errorf("failed to load location search: %w", err)
	}
	lifetime, err := b.lifetimes.AddressLifetime(ctx, owner, record)
	if err != nil {
		return nil, err
	}

	s := &models.Snapshot{
		ID:             uuid.New().String(),
		Owner:          ref,
		Token:          token,
		Config:         cfg,
		SearchResult:   *result,
		Description:    req.Description,
		SubjectListing: subject,
		Listings:       listings,
		IsTrial:        lifetime.IsTrial,
		ExpiresAt:      lifetime.ExpiresAt,
		CreatedAt:      b.now().UTC(),
	}

	if owner.Kind() == models.OwnerIntegration {
		s.Integration = &models.SnapshotIntegration{
			IntegrationID:     req.IntegrationID,
			IntegrationUserID: ref.IntegrationUserID,
			IntegrationType:   ref.IntegrationType,
		}
		prior, err := b.store.LatestSnapshotForIntegration(ctx, ref, req.IntegrationID)
		if err != nil {
			return nil, fmt.Errorf("failed to load previous integration snapshot: %w", err)
		}
		if prior != nil {
			s.IframeExpiresAt = prior.IframeExpiresAt
		}
	}

	if err := b.store.CreateSnapshot(ctx, s); err != nil {
		return nil, err
	}

	metrics.RecordSnapshotCreated(string(source))
	logging.Ctx(ctx).Info().
		Str("snapshot_id", s.ID).
		Str("owner_id", owner.ID()).
		Str("config_source", string(source)).
		Int("listings", len(listings)).
		Bool("subject_listing", subject != nil).
		Msg("Snapshot created")
	return s, nil
}

// partitionListings drops listings not shown in snapshots and extracts the
// listing located exactly at center as the subject property.
func partitionListings(all []models.RealEstateListing, center models.Coordinates) (*models.RealEstateListing, []models.RealEstateListing) {
	var subject *models.RealEstateListing
	listings := make([]models.RealEstateListing, 0, len(all))
	for _, l := range all {
		if !l.ShowInSnapshot {
			continue
		}
		if subject == nil && l.Coordinates.Equal(center) {
			subject = &l
			continue
		}
		listings = append(listings, l)
	}
	return subject, listings
}
