// Areamap - Location Search and Map Snapshot Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/areamap

package api

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/areamap/internal/auth"
	"github.com/tomtom215/areamap/internal/config"
	"github.com/tomtom215/areamap/internal/models"
	"github.com/tomtom215/areamap/internal/search"
	"github.com/tomtom215/areamap/internal/snapshot"
)

// fakeEngine implements every service interface of the handler.
type fakeEngine struct {
	place      *models.Place
	resolveErr error
	countries  []string

	searchErr error
	query     *models.SearchQuery
	history   []models.LocationSearchRecord

	buildReq   *snapshot.BuildRequest
	templates  map[string]*models.Configuration
	snapshots  map[string]*models.Snapshot
	tokens     map[string]*models.Snapshot
	fetchErr   error
	fetchMode  snapshot.Mode
	total      int
	iframe     *time.Time
	extended   time.Time
	deleted    string
	purge      snapshot.PurgeResult
	managerErr error
}

func newFakeEngine() *fakeEngine {
	return &fakeEngine{
		place: &models.Place{
			PlaceID:     "p1",
			DisplayName: "Marienplatz 1, München",
			Coordinates: models.Coordinates{Lat: 48.137, Lng: 11.575},
			CountryCode: "DE",
		},
		templates: map[string]*models.Configuration{},
		snapshots: map[string]*models.Snapshot{},
		tokens:    map[string]*models.Snapshot{},
	}
}

func (f *fakeEngine) Resolve(_ context.Context, _ search.LocationInput, allowed []string) (*models.Place, error) {
	f.countries = allowed
	return f.place, f.resolveErr
}

func (f *fakeEngine) Search(_ context.Context, _ models.Owner, q *models.SearchQuery) (*models.SearchResult, error) {
	f.query = q
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	return &models.SearchResult{Location: q.Coordinates, PlacesLocation: q.Place}, nil
}

func (f *fakeEngine) History(_ context.Context, _ models.Owner, limit int) ([]models.LocationSearchRecord, error) {
	if limit < len(f.history) {
		return f.history[:limit], nil
	}
	return f.history, nil
}

func (f *fakeEngine) Build(_ context.Context, owner models.Owner, req snapshot.BuildRequest) (*models.Snapshot, error) {
	f.buildReq = &req
	s := &models.Snapshot{ID: "s-new", Owner: owner.Ref(), SearchResult: *req.Result, Description: req.Description}
	if req.Config != nil {
		s.Config = *req.Config
	}
	return s, nil
}

func (f *fakeEngine) FetchByID(_ context.Context, _ models.Owner, id string, mode snapshot.Mode) (*models.Snapshot, error) {
	f.fetchMode = mode
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	s, ok := f.snapshots[id]
	if !ok {
		return nil, models.NewReasonError(models.ErrNotFound, "Snapshot not found")
	}
	return s, nil
}

func (f *fakeEngine) FetchByToken(_ context.Context, token string) (*models.Snapshot, error) {
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	s, ok := f.tokens[token]
	if !ok {
		return nil, models.NewReasonError(models.ErrNotFound, "Snapshot not found")
	}
	return s, nil
}

func (f *fakeEngine) List(_ context.Context, _ models.Owner, limit, offset int) ([]models.Snapshot, int, error) {
	var out []models.Snapshot
	for i := offset; i < f.total && len(out) < limit; i++ {
		out = append(out, models.Snapshot{ID: "s" + string(rune('a'+i))})
	}
	return out, f.total, nil
}

func (f *fakeEngine) Update(_ context.Context, _ models.Owner, id string, upd models.SnapshotUpdate) (*models.Snapshot, error) {
	s, ok := f.snapshots[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	if upd.Description != nil {
		s.Description = *upd.Description
	}
	return s, nil
}

func (f *fakeEngine) Delete(_ context.Context, _ models.Owner, id string) error {
	if _, ok := f.snapshots[id]; !ok {
		return models.NewReasonError(models.ErrNotFound, "Snapshot not found")
	}
	f.deleted = id
	return nil
}

func (f *fakeEngine) MintSplitTokens(_ context.Context, _ models.Owner, id string) (*models.Snapshot, error) {
	if f.managerErr != nil {
		return nil, f.managerErr
	}
	s := f.snapshots[id]
	s.Token = models.NewSplitToken("addr", "unaddr")
	return s, nil
}

func (f *fakeEngine) SetIframeExpiration(_ context.Context, _ models.Owner, id string, until *time.Time) (*models.Snapshot, error) {
	f.iframe = until
	s := f.snapshots[id]
	s.IframeExpiresAt = until
	return s, nil
}

func (f *fakeEngine) TemplateConfig(_ context.Context, _ models.Owner, id string) (*models.Configuration, error) {
	cfg, ok := f.templates[id]
	if !ok {
		return nil, models.NewReasonError(models.ErrNotFound, "Template snapshot not found")
	}
	return cfg, nil
}

func (f *fakeEngine) ExtendAddressExpiration(_ context.Context, _ models.Owner, _ models.Coordinates, until time.Time) (int64, error) {
	if f.managerErr != nil {
		return 0, f.managerErr
	}
	f.extended = until
	return 2, nil
}

func (f *fakeEngine) PurgeTrialData(context.Context, models.Owner) (snapshot.PurgeResult, error) {
	return f.purge, f.managerErr
}

// ownerInjector authenticates every request as owner; a nil owner rejects.
type ownerInjector struct {
	owner models.Owner
}

func (o ownerInjector) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if o.owner == nil {
			NewResponseWriter(w, r).Unauthorized("missing token")
			return
		}
		next.ServeHTTP(w, r.WithContext(auth.WithOwner(r.Context(), o.owner)))
	})
}

var testOwner = &models.StandaloneUser{UserID: "u1", Countries: []string{"DE", "AT"}}

type testServer struct {
	engine  *fakeEngine
	handler http.Handler
}

func newTestServer(t *testing.T, owner models.Owner, checks ...ReadinessCheck) *testServer {
	t.Helper()
	engine := newFakeEngine()
	h := NewHandler(Services{
		Resolver:  engine,
		Searcher:  engine,
		Builder:   engine,
		Snapshots: engine,
		Manager:   engine,
		Readiness: checks,
	}, config.APIConfig{DefaultPageSize: 2, MaxPageSize: 3})
	mw := NewChiMiddleware(&ChiMiddlewareConfig{RateLimitDisabled: true})
	return &testServer{
		engine:  engine,
		handler: NewRouter(h, ownerInjector{owner: owner}, mw).SetupChi(),
	}
}

// envelope mirrors APIResponse with the payload left raw.
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *APIError       `json:"error"`
	Meta    *APIMeta        `json:"meta"`
}

func (s *testServer) do(t *testing.T, method, path, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)

	var env envelope
	if rec.Code != http.StatusNoContent && strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
			t.Fatalf("decode response %q: %v", rec.Body.String(), err)
		}
	}
	return rec, env
}

func decodeData(t *testing.T, env envelope, dst any) {
	t.Helper()
	if err := json.Unmarshal(env.Data, dst); err != nil {
		t.Fatalf("decode data %s: %v", env.Data, err)
	}
}
