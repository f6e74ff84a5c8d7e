// Areamap - Location Search and Map Snapshot Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/areamap

// Package search runs location searches: it resolves addresses, enforces
// quota and address lifetime, fans out to the POI and isochrone providers
// and records every search.
package search

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/tomtom215/areamap/internal/config"
	"github.com/tomtom215/areamap/internal/logging"
	"github.com/tomtom215/areamap/internal/metrics"
	"github.com/tomtom215/areamap/internal/models"
	"github.com/tomtom215/areamap/internal/provider"
	"github.com/tomtom215/areamap/internal/quota"
)

// CenterOfInterestID is the id of the synthetic POI for the searched address.
const CenterOfInterestID = "center-of-interest"

// Store persists location search records.
type Store interface {
	LatestLocationSearch(ctx context.Context, owner models.OwnerRef, coords models.Coordinates) (*models.LocationSearchRecord, error)
	CreateLocationSearch(ctx context.Context, r *models.LocationSearchRecord) error
	ListLocationSearches(ctx context.Context, owner models.OwnerRef, limit int) ([]models.LocationSearchRecord, error)
}

// Ledger is the quota ledger consulted before a search.
type Ledger interface {
	CheckAndReserve(ctx context.Context, owner models.Owner, isDuplicate bool) error
	RecordExecuted(ctx context.Context, owner models.Owner) (int, error)
	AddressLifetime(ctx context.Context, owner models.Owner, existing *models.LocationSearchRecord) (quota.Lifetime, error)
}

// UsageRecorder accepts usage events of product-billed owners.
type UsageRecorder interface {
	RecordUsage(ctx context.Context, event models.UsageEvent) error
}

// Orchestrator runs location searches.
type Orchestrator struct {
	store      Store
	ledger     Ledger
	pois       provider.POIProvider
	isochrones provider.IsochroneProvider
	usage      UsageRecorder
	speeds     SpeedModel
	cfg        config.SearchConfig
	now        func() time.Time
}

// NewOrchestrator wires an orchestrator.
func NewOrchestrator(store Store, ledger Ledger, pois provider.POIProvider, isochrones provider.IsochroneProvider,
	usage UsageRecorder, cfg config.SearchConfig) *Orchestrator {
	return &Orchestrator{
		store:      store,
		ledger:     ledger,
		pois:       pois,
		isochrones: isochrones,
		usage:      usage,
		speeds:     NewSpeedModel(cfg),
		cfg:        cfg,
		now:        time.Now,
	}
}

// WithClock replaces the time source.
func (o *Orchestrator) WithClock(now func() time.Time) *Orchestrator {
	o.now = now
	return o
}

type profileRequest struct {
	means  models.MeansOfTransportation
	meters float64
}

// Search runs query for owner. It fails with models.ErrLocationExpired,
// models.ErrQuotaExceeded or models.ErrProvider; any provider failure fails
// the whole search.
func (o *Orchestrator) Search(ctx context.Context, owner models.Owner, query *models.SearchQuery) (*models.SearchResult, error) {
	start := time.Now()
	kind := string(owner.Kind())
	log := logging.Ctx(ctx).With().
		Str("owner_id", owner.ID()).
		Str("coordinates", query.Coordinates.String()).
		Int("profiles", len(query.Transportation)).
		Logger()

	result, duplicate, err := o.search(ctx, owner, query)
	if err != nil {
		outcome := "error"
		switch {
		case errors.Is(err, models.ErrQuotaExceeded):
			outcome = "quota_exceeded"
		case errors.Is(err, models.ErrLocationExpired):
			outcome = "expired"
		case errors.Is(err, models.ErrProvider):
			outcome = "provider_error"
		}
		metrics.RecordSearch(kind, outcome, time.Since(start))
		log.Info().Err(err).Str("outcome", outcome).Msg("Location search failed")
		return nil, err
	}

	outcome := "new"
	if duplicate {
		outcome = "duplicate"
	}
	metrics.RecordSearch(kind, outcome, time.Since(start))
	log.Info().Str("outcome", outcome).Dur("duration", time.Since(start)).Msg("Location search completed")
	return result, nil
}

// History returns the latest search of each distinct location of owner,
// most recent first.
func (o *Orchestrator) History(ctx context.Context, owner models.Owner, limit int) ([]models.LocationSearchRecord, error) {
	return o.store.ListLocationSearches(ctx, owner.Ref(), limit)
}

func (o *Orchestrator) search(ctx context.Context, owner models.Owner, query *models.SearchQuery) (*models.SearchResult, bool, error) {
	profiles := make([]profileRequest, 0, len(query.Transportation))
	for _, p := range query.Transportation {
		meters, err := o.speeds.Meters(p)
		if err != nil {
			return nil, false, err
		}
		profiles = append(profiles, profileRequest{means: p.Type, meters: meters})
	}

	coords := query.Coordinates
	existing, err := o.store.LatestLocationSearch(ctx, owner.Ref(), coords)
	if err != nil {
		return nil, false, fmt.Errorf("failed to look up previous searches: %w", err)
	}
	duplicate := existing != nil
	now := o.now()

	if duplicate && owner.Billing().Subscription() && existing.Expired(now) {
		return nil, true, models.NewReasonError(models.ErrLocationExpired,
			"The address lifetime of this location has expired. Extend it to search this location again.")
	}
	if err := o.ledger.CheckAndReserve(ctx, owner, duplicate); err != nil {
		return nil, duplicate, err
	}

	lifetime, err := o.ledger.AddressLifetime(ctx, owner, existing)
	if err != nil {
		return nil, duplicate, err
	}

	routing, err := o.fetchProfiles(ctx, coords, profiles, o.categories(query), o.withIsochrone(query))
	if err != nil {
		return nil, duplicate, err
	}

	record := &models.LocationSearchRecord{
		Owner:       owner.Ref(),
		Coordinates: coords,
		SearchTitle: query.SearchTitle,
		Means:       query.Profiles(),
		CreatedAt:   now,
		ExpiresAt:   lifetime.ExpiresAt,
		IsTrial:     lifetime.IsTrial,
	}
	if err := o.store.CreateLocationSearch(ctx, record); err != nil {
		return nil, duplicate, fmt.Errorf("failed to record location search: %w", err)
	}

	if !duplicate {
		o.chargeFirstSearch(ctx, owner, coords, now)
	}

	return &models.SearchResult{
		Location:         coords,
		PlacesLocation:   query.Place,
		CenterOfInterest: centerOfInterest(query),
		RoutingProfiles:  routing,
	}, duplicate, nil
}

// chargeFirstSearch bills the first search of a coordinate. Failures are
// logged: the search itself already happened and was recorded.
func (o *Orchestrator) chargeFirstSearch(ctx context.Context, owner models.Owner, coords models.Coordinates, now time.Time) {
	if owner.Billing().Subscription() {
		if _, err := o.ledger.RecordExecuted(ctx, owner); err != nil {
			logging.Ctx(ctx).Error().Err(err).Str("owner_id", owner.ID()).Msg("Failed to increment executed searches")
		}
		return
	}

	ref := owner.Ref()
	event := models.UsageEvent{
		EventID:           uuid.New().String(),
		Kind:              models.UsageLocationSearch,
		IntegrationUserID: ref.IntegrationUserID,
		IntegrationType:   ref.IntegrationType,
		Coordinates:       coords,
		OccurredAt:        now,
	}
	if parent := owner.Parent(); parent != nil {
		event.ParentID = parent.ID()
	}
	if err := o.usage.RecordUsage(ctx, event); err != nil {
		logging.Ctx(ctx).Error().Err(err).Str("owner_id", owner.ID()).Msg("Failed to record usage event")
	}
}

// fetchProfiles fetches POIs and isochrones of every profile concurrently.
// The first failure cancels the rest.
func (o *Orchestrator) fetchProfiles(ctx context.Context, center models.Coordinates, profiles []profileRequest,
	categories []string, withIsochrone bool) (map[models.MeansOfTransportation]models.RoutingProfile, error) {
	routing := make(map[models.MeansOfTransportation]models.RoutingProfile, len(profiles))
	if len(profiles) == 0 {
		return routing, nil
	}

	pois := make([][]models.PointOfInterest, len(profiles))
	isochrones := make([]*models.Isochrone, len(profiles))

	g, gctx := errgroup.WithContext(ctx)
	for i, p := range profiles {
		g.Go(func() error {
			found, err := o.pois.FetchPOIs(gctx, center, p.meters, categories)
			if err != nil {
				return models.ProviderFailure("The points of interest provider", err)
			}
			pois[i] = found
			return nil
		})
		if withIsochrone {
			g.Go(func() error {
				iso, err := o.isochrones.FetchIsochrone(gctx, center, p.means, p.meters)
				if err != nil {
					return models.ProviderFailure("The isochrone provider", err)
				}
				isochrones[i] = iso
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for i, p := range profiles {
		locations := pois[i]
		if locations == nil {
			locations = []models.PointOfInterest{}
		}
		routing[p.means] = models.RoutingProfile{
			Means:          p.means,
			DistanceMeters: p.meters,
			Locations:      locations,
			Isochrone:      isochrones[i],
		}
	}
	return routing, nil
}

func (o *Orchestrator) categories(query *models.SearchQuery) []string {
	if len(query.Categories) > 0 {
		return query.Categories
	}
	return o.cfg.DefaultCategories
}

func (o *Orchestrator) withIsochrone(query *models.SearchQuery) bool {
	if query.WithIsochrone != nil {
		return *query.WithIsochrone
	}
	return o.cfg.IsochroneByDefault
}

func centerOfInterest(query *models.SearchQuery) models.PointOfInterest {
	poi := models.PointOfInterest{
		ID:          CenterOfInterestID,
		Name:        query.SearchTitle,
		Category:    models.CenterOfInterestCategory,
		Coordinates: query.Coordinates,
	}
	if query.Place != nil {
		poi.Address = query.Place.DisplayName
		if poi.Name == "" {
			poi.Name = query.Place.DisplayName
		}
	}
	return poi
}
