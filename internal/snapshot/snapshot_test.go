// Areamap - Location Search and Map Snapshot Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/areamap

package snapshot

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/tomtom215/areamap/internal/models"
	"github.com/tomtom215/areamap/internal/quota"
)

var (
	now    = time.Date(2026, 5, 10, 9, 0, 0, 0, time.UTC)
	berlin = models.Coordinates{Lat: 52.520008, Lng: 13.404954}
)

// memStore implements BuilderStore, GatewayStore and ManagerStore.
type memStore struct {
	mu        sync.Mutex
	snapshots []*models.Snapshot
	records   []models.LocationSearchRecord
	listings  []models.RealEstateListing
	owners    []models.Owner
	touches   map[string]int
	getErr    map[string]error
}

func newMemStore() *memStore {
	return &memStore{touches: map[string]int{}, getErr: map[string]error{}}
}

func (m *memStore) add(s *models.Snapshot) *models.Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snapshots = append(m.snapshots, s)
	return s
}

func (m *memStore) find(id string) *models.Snapshot {
	for _, s := range m.snapshots {
		if s.ID == id {
			return s
		}
	}
	return nil
}

func copyOf(s *models.Snapshot) *models.Snapshot {
	if s == nil {
		return nil
	}
	cp := *s
	cp.Config = s.Config.Clone()
	return &cp
}

func (m *memStore) GetSnapshot(_ context.Context, id string) (*models.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.getErr[id]; err != nil {
		return nil, err
	}
	return copyOf(m.find(id)), nil
}

func (m *memStore) GetSnapshotByToken(_ context.Context, token string) (*models.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.snapshots {
		if s.Token.Match(token) != models.TokenNone {
			return copyOf(s), nil
		}
	}
	return nil, nil
}

func (m *memStore) LatestSnapshot(_ context.Context, owner models.OwnerRef) (*models.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var latest *models.Snapshot
	for _, s := range m.snapshots {
		if owner.Matches(s.Owner) {
			latest = s
		}
	}
	return copyOf(latest), nil
}

func (m *memStore) LatestSnapshotForIntegration(_ context.Context, owner models.OwnerRef, integrationID string) (*models.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var latest *models.Snapshot
	for _, s := range m.snapshots {
		if owner.Matches(s.Owner) && s.Integration != nil && s.Integration.IntegrationID == integrationID {
			latest = s
		}
	}
	return copyOf(latest), nil
}

func (m *memStore) CreateSnapshot(_ context.Context, s *models.Snapshot) error {
	m.add(copyOf(s))
	return nil
}

func (m *memStore) ListSnapshots(_ context.Context, owner models.OwnerRef, limit, offset int) ([]models.Snapshot, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Snapshot
	for i := len(m.snapshots) - 1; i >= 0; i-- {
		if owner.Matches(m.snapshots[i].Owner) {
			out = append(out, *m.snapshots[i])
		}
	}
	total := len(out)
	if offset > len(out) {
		offset = len(out)
	}
	out = out[offset:]
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, total, nil
}

func (m *memStore) UpdateSnapshot(_ context.Context, s *models.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := m.find(s.ID)
	if stored == nil {
		return models.ErrNotFound
	}
	at := now
	stored.Description, stored.Config, stored.UpdatedAt = s.Description, s.Config.Clone(), &at
	s.UpdatedAt = &at
	return nil
}

func (m *memStore) UpdateSnapshotToken(_ context.Context, id string, token models.AccessToken) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := m.find(id)
	if stored == nil {
		return models.ErrNotFound
	}
	stored.Token = token
	return nil
}

func (m *memStore) SetIframeExpiration(_ context.Context, id string, until *time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := m.find(id)
	if stored == nil {
		return models.ErrNotFound
	}
	stored.IframeExpiresAt = until
	return nil
}

func (m *memStore) TouchSnapshot(_ context.Context, id string, at time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := m.find(id)
	if stored == nil {
		return 0, models.ErrNotFound
	}
	stored.VisitAmount++
	stored.LastAccess = &at
	m.touches[id]++
	return stored.VisitAmount, nil
}

func (m *memStore) DeleteSnapshot(_ context.Context, owner models.OwnerRef, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, s := range m.snapshots {
		if s.ID == id && owner.Matches(s.Owner) {
			m.snapshots = append(m.snapshots[:i], m.snapshots[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("snapshot %s: %w", id, models.ErrNotFound)
}

func (m *memStore) ExtendSnapshotExpiration(_ context.Context, owner models.OwnerRef, coords models.Coordinates, until time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, s := range m.snapshots {
		if owner.Matches(s.Owner) && s.SearchResult.Location.Equal(coords) {
			u := until
			s.ExpiresAt = &u
			n++
		}
	}
	return n, nil
}

func (m *memStore) DeleteTrialSnapshots(_ context.Context, owner models.OwnerRef) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.snapshots[:0]
	var n int64
	for _, s := range m.snapshots {
		if owner.Matches(s.Owner) && s.IsTrial {
			n++
			continue
		}
		kept = append(kept, s)
	}
	m.snapshots = kept
	return n, nil
}

func (m *memStore) LatestLocationSearch(_ context.Context, owner models.OwnerRef, coords models.Coordinates) (*models.LocationSearchRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.records) - 1; i >= 0; i-- {
		if owner.Matches(m.records[i].Owner) && m.records[i].Coordinates.Equal(coords) {
			r := m.records[i]
			return &r, nil
		}
	}
	return nil, nil
}

func (m *memStore) ExtendLocationSearchExpiration(_ context.Context, owner models.OwnerRef, coords models.Coordinates, until time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	found := false
	for i := range m.records {
		if owner.Matches(m.records[i].Owner) && m.records[i].Coordinates.Equal(coords) {
			u := until
			m.records[i].ExpiresAt = &u
			found = true
		}
	}
	if !found {
		return fmt.Errorf("location search: %w", models.ErrNotFound)
	}
	return nil
}

func (m *memStore) DeleteTrialLocationSearches(_ context.Context, owner models.OwnerRef) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.records[:0]
	var n int64
	for _, r := range m.records {
		if owner.Matches(r.Owner) && r.IsTrial {
			n++
			continue
		}
		kept = append(kept, r)
	}
	m.records = kept
	return n, nil
}

func (m *memStore) ListListings(_ context.Context, owner models.OwnerRef) ([]models.RealEstateListing, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.RealEstateListing
	for _, l := range m.listings {
		if owner.Matches(l.Owner) {
			out = append(out, l)
		}
	}
	return out, nil
}

func (m *memStore) GetOwner(_ context.Context, ref models.OwnerRef) (models.Owner, error) {
	for _, o := range m.owners {
		if o.Ref().Matches(ref) {
			return o, nil
		}
	}
	return nil, nil
}

// recordLifetimes mirrors the ledger rule: an existing record's lifetime
// is reused, otherwise the configured lifetime applies.
type recordLifetimes struct {
	lifetime quota.Lifetime
}

func (r recordLifetimes) AddressLifetime(_ context.Context, _ models.Owner, existing *models.LocationSearchRecord) (quota.Lifetime, error) {
	if existing != nil {
		return quota.Lifetime{ExpiresAt: existing.ExpiresAt, IsTrial: existing.IsTrial}, nil
	}
	return r.lifetime, nil
}

// featureGate grants the listed features per owner id.
type featureGate map[string][]models.Feature

func (f featureGate) Require(_ context.Context, owner models.Owner, feature models.Feature) error {
	if !owner.Billing().Subscription() {
		return nil
	}
	for _, granted := range f[owner.Billing().HolderID] {
		if granted == feature {
			return nil
		}
	}
	return models.NewReasonError(models.ErrFeatureUnavailable, "not in plan")
}

var errStore = errors.New("store unavailable")

func walkResult(coords models.Coordinates) *models.SearchResult {
	return &models.SearchResult{
		Location:       coords,
		PlacesLocation: &models.Place{DisplayName: "Alexanderplatz 1, 10178 Berlin", Coordinates: coords},
		CenterOfInterest: models.PointOfInterest{
			ID: "center-of-interest", Name: "Home", Category: models.CenterOfInterestCategory,
			Coordinates: coords, Address: "Alexanderplatz 1, 10178 Berlin",
		},
		RoutingProfiles: map[models.MeansOfTransportation]models.RoutingProfile{
			models.MeansWalk: {
				Means: models.MeansWalk, DistanceMeters: 1000,
				Locations: []models.PointOfInterest{
					{ID: "node/1", Name: "School", Category: "school", Coordinates: models.Coordinates{Lat: 52.521, Lng: 13.405}, DistanceMeters: 110},
				},
			},
		},
	}
}
