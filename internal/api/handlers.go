// Areamap - Location Search and Map Snapshot Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/areamap

package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/tomtom215/areamap/internal/auth"
	"github.com/tomtom215/areamap/internal/config"
	"github.com/tomtom215/areamap/internal/models"
	"github.com/tomtom215/areamap/internal/search"
	"github.com/tomtom215/areamap/internal/snapshot"
	"github.com/tomtom215/areamap/internal/validation"
)

// LocationResolver turns an address or coordinate pair into a place.
type LocationResolver interface {
	Resolve(ctx context.Context, in search.LocationInput, allowedCountries []string) (*models.Place, error)
}

// Searcher runs location searches.
type Searcher interface {
	Search(ctx context.Context, owner models.Owner, query *models.SearchQuery) (*models.SearchResult, error)
	History(ctx context.Context, owner models.Owner, limit int) ([]models.LocationSearchRecord, error)
}

// SnapshotBuilder creates snapshots from search results.
type SnapshotBuilder interface {
	Build(ctx context.Context, owner models.Owner, req snapshot.BuildRequest) (*models.Snapshot, error)
}

// SnapshotReader serves snapshots with access checks applied.
type SnapshotReader interface {
	FetchByID(ctx context.Context, owner models.Owner, id string, mode snapshot.Mode) (*models.Snapshot, error)
	FetchByToken(ctx context.Context, token string) (*models.Snapshot, error)
}

// SnapshotManager mutates snapshots and address lifetimes.
type SnapshotManager interface {
	List(ctx context.Context, owner models.Owner, limit, offset int) ([]models.Snapshot, int, error)
	Update(ctx context.Context, owner models.Owner, id string, upd models.SnapshotUpdate) (*models.Snapshot, error)
	Delete(ctx context.Context, owner models.Owner, id string) error
	MintSplitTokens(ctx context.Context, owner models.Owner, id string) (*models.Snapshot, error)
	SetIframeExpiration(ctx context.Context, owner models.Owner, id string, until *time.Time) (*models.Snapshot, error)
	TemplateConfig(ctx context.Context, owner models.Owner, id string) (*models.Configuration, error)
	ExtendAddressExpiration(ctx context.Context, owner models.Owner, coords models.Coordinates, until time.Time) (int64, error)
	PurgeTrialData(ctx context.Context, owner models.Owner) (snapshot.PurgeResult, error)
}

// ReadinessCheck is one dependency probed by /health/ready.
type ReadinessCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

// Services are the engine components behind the HTTP handlers.
type Services struct {
	Resolver  LocationResolver
	Searcher  Searcher
	Builder   SnapshotBuilder
	Snapshots SnapshotReader
	Manager   SnapshotManager
	Readiness []ReadinessCheck
}

// Handler implements the HTTP endpoints.
type Handler struct {
	svc       Services
	api       config.APIConfig
	startTime time.Time
}

// NewHandler creates the API handler.
func NewHandler(svc Services, apiCfg config.APIConfig) *Handler {
	if apiCfg.DefaultPageSize <= 0 {
		apiCfg.DefaultPageSize = 20
	}
	if apiCfg.MaxPageSize <= 0 {
		apiCfg.MaxPageSize = 100
	}
	return &Handler{svc: svc, api: apiCfg, startTime: time.Now()}
}

// owner returns the authenticated owner, writing 401 when absent.
func (h *Handler) owner(w http.ResponseWriter, r *http.Request) (models.Owner, bool) {
	owner, ok := auth.OwnerFromContext(r.Context())
	if !ok {
		NewResponseWriter(w, r).Unauthorized("Authentication required")
	}
	return owner, ok
}

func (h *Handler) page(w http.ResponseWriter, r *http.Request) (PageRequest, bool) {
	page, err := parsePage(r, h.api.DefaultPageSize, h.api.MaxPageSize)
	if err == nil {
		return page, true
	}
	var verr *validation.RequestValidationError
	if errors.As(err, &verr) {
		writeServiceError(w, r, verr)
	} else {
		NewResponseWriter(w, r).BadRequest(err.Error())
	}
	return page, false
}

// resolveAndSearch resolves the request location and runs the search.
func (h *Handler) resolveAndSearch(ctx context.Context, owner models.Owner, req *LocationSearchRequest) (*models.SearchResult, error) {
	place, err := h.svc.Resolver.Resolve(ctx, req.LocationInput, owner.AllowedCountries())
	if err != nil {
		return nil, err
	}
	if place == nil {
		return nil, models.NewReasonError(models.ErrNotFound, "The address could not be found")
	}
	return h.svc.Searcher.Search(ctx, owner, req.query(place))
}
