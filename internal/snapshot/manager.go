// Areamap - Location Search and Map Snapshot Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/areamap

package snapshot

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tomtom215/areamap/internal/logging"
	"github.com/tomtom215/areamap/internal/models"
)

// ManagerStore is the persistence used by the Manager.
type ManagerStore interface {
	GetSnapshot(ctx context.Context, id string) (*models.Snapshot, error)
	ListSnapshots(ctx context.Context, owner models.OwnerRef, limit, offset int) ([]models.Snapshot, int, error)
	UpdateSnapshot(ctx context.Context, s *models.Snapshot) error
	UpdateSnapshotToken(ctx context.Context, id string, token models.AccessToken) error
	SetIframeExpiration(ctx context.Context, id string, until *time.Time) error
	DeleteSnapshot(ctx context.Context, owner models.OwnerRef, id string) error
	ExtendSnapshotExpiration(ctx context.Context, owner models.OwnerRef, coords models.Coordinates, until time.Time) (int64, error)
	DeleteTrialSnapshots(ctx context.Context, owner models.OwnerRef) (int64, error)
	LatestLocationSearch(ctx context.Context, owner models.OwnerRef, coords models.Coordinates) (*models.LocationSearchRecord, error)
	ExtendLocationSearchExpiration(ctx context.Context, owner models.OwnerRef, coords models.Coordinates, until time.Time) error
	DeleteTrialLocationSearches(ctx context.Context, owner models.OwnerRef) (int64, error)
}

// Manager implements the owner's management operations on snapshots and
// the address lifetime of searched locations.
type Manager struct {
	store ManagerStore
	gate  FeatureGate
}

// NewManager creates a manager.
func NewManager(store ManagerStore, gate FeatureGate) *Manager {
	return &Manager{store: store, gate: gate}
}

// List returns a page of owner's snapshots, newest first, and the total.
func (m *Manager) List(ctx context.Context, owner models.Owner, limit, offset int) ([]models.Snapshot, int, error) {
	return m.store.ListSnapshots(ctx, owner.Ref(), limit, offset)
}

// Update applies upd to snapshot id of owner.
func (m *Manager) Update(ctx context.Context, owner models.Owner, id string, upd models.SnapshotUpdate) (*models.Snapshot, error) {
	s, err := m.owned(ctx, owner, id)
	if err != nil {
		return nil, err
	}
	if upd.Description != nil {
		s.Description = *upd.Description
	}
	if upd.Config != nil {
		s.Config = upd.Config.Clone()
	}
	if err := m.store.UpdateSnapshot(ctx, s); err != nil {
		return nil, err
	}
	return s, nil
}

// Delete removes snapshot id of owner.
func (m *Manager) Delete(ctx context.Context, owner models.Owner, id string) error {
	err := m.store.DeleteSnapshot(ctx, owner.Ref(), id)
	if errors.Is(err, models.ErrNotFound) {
		return errSnapshotNotFound
	}
	return err
}

// MintSplitTokens replaces the single token of snapshot id with an
// address/unaddress pair. A snapshot that already has a pair is returned
// unchanged. Integration snapshots always keep their single token.
func (m *Manager) MintSplitTokens(ctx context.Context, owner models.Owner, id string) (*models.Snapshot, error) {
	if owner.Kind() == models.OwnerIntegration {
		return nil, models.NewReasonError(models.ErrFeatureUnavailable,
			"Integration maps are shared with a single access token.")
	}
	s, err := m.owned(ctx, owner, id)
	if err != nil {
		return nil, err
	}
	if err := m.gate.Require(ctx, owner, models.FeatureSplitTokens); err != nil {
		return nil, err
	}
	if s.Token.IsSplit() {
		return s, nil
	}

	token, err := NewSplitToken()
	if err != nil {
		return nil, err
	}
	if err := m.store.UpdateSnapshotToken(ctx, s.ID, token); err != nil {
		return nil, err
	}
	s.Token = token
	logging.Ctx(ctx).Info().Str("snapshot_id", s.ID).Msg("Split access tokens minted")
	return s, nil
}

// SetIframeExpiration sets or clears the embed window of an integration
// owner's snapshot. Later snapshots of the same external property inherit it.
func (m *Manager) SetIframeExpiration(ctx context.Context, owner models.Owner, id string, until *time.Time) (*models.Snapshot, error) {
	if owner.Kind() != models.OwnerIntegration {
		return nil, models.NewReasonError(models.ErrFeatureUnavailable,
			"Embedding periods are only available for integration maps.")
	}
	s, err := m.owned(ctx, owner, id)
	if err != nil {
		return nil, err
	}
	if until != nil {
		u := until.UTC()
		until = &u
	}
	if err := m.store.SetIframeExpiration(ctx, s.ID, until); err != nil {
		return nil, err
	}
	s.IframeExpiresAt = until
	return s, nil
}

// TemplateConfig returns the configuration of template snapshot id for use
// as the explicit configuration of a new snapshot. The template must belong
// to owner or to owner's parent.
func (m *Manager) TemplateConfig(ctx context.Context, owner models.Owner, id string) (*models.Configuration, error) {
	if err := m.gate.Require(ctx, owner, models.FeatureCustomTemplates); err != nil {
		return nil, err
	}
	s, err := m.store.GetSnapshot(ctx, id)
	if err != nil {
		return nil, err
	}
	if s == nil || !templateOwnedBy(s, owner) {
		return nil, models.NewReasonError(models.ErrNotFound, "Template snapshot not found")
	}
	cfg := s.Config.Clone()
	return &cfg, nil
}

func templateOwnedBy(s *models.Snapshot, owner models.Owner) bool {
	if owner.Ref().Matches(s.Owner) {
		return true
	}
	parent := owner.Parent()
	return parent != nil && parent.Ref().Matches(s.Owner)
}

// ExtendAddressExpiration extends the address lifetime of coords for owner
// to until. It requires FeatureAddressExtension and only moves an existing
// expiration later. Every search record at coords and every snapshot
// centered on them is updated. Returns the number of snapshots updated.
func (m *Manager) ExtendAddressExpiration(ctx context.Context, owner models.Owner, coords models.Coordinates, until time.Time) (int64, error) {
	if err := m.gate.Require(ctx, owner, models.FeatureAddressExtension); err != nil {
		return 0, err
	}
	ref := owner.Ref()
	latest, err := m.store.LatestLocationSearch(ctx, ref, coords)
	if err != nil {
		return 0, fmt.Errorf("failed to load location search: %w", err)
	}
	if latest == nil {
		return 0, models.NewReasonError(models.ErrNotFound, "This location has not been searched yet")
	}
	if latest.ExpiresAt == nil {
		return 0, models.NewReasonError(models.ErrInvalidInput, "This address does not expire")
	}
	if !until.After(*latest.ExpiresAt) {
		return 0, models.NewReasonError(models.ErrInvalidInput,
			"The new expiration must be later than the current one")
	}

	if err := m.store.ExtendLocationSearchExpiration(ctx, ref, coords, until); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return 0, models.NewReasonError(models.ErrNotFound, "This location has not been searched yet")
		}
		return 0, err
	}
	n, err := m.store.ExtendSnapshotExpiration(ctx, ref, coords, until)
	if err != nil {
		return 0, err
	}
	logging.Ctx(ctx).Info().
		Str("owner_id", owner.ID()).
		Str("coordinates", coords.String()).
		Time("until", until).
		Int64("snapshots", n).
		Msg("Address lifetime extended")
	return n, nil
}

// PurgeResult counts the records removed by PurgeTrialData.
type PurgeResult struct {
	LocationSearches int64 `json:"locationSearches"`
	Snapshots        int64 `json:"snapshots"`
}

// PurgeTrialData deletes the trial search records and trial snapshots of
// owner.
func (m *Manager) PurgeTrialData(ctx context.Context, owner models.Owner) (PurgeResult, error) {
	ref := owner.Ref()
	var res PurgeResult
	var err error
	if res.Snapshots, err = m.store.DeleteTrialSnapshots(ctx, ref); err != nil {
		return res, err
	}
	if res.LocationSearches, err = m.store.DeleteTrialLocationSearches(ctx, ref); err != nil {
		return res, err
	}
	logging.Ctx(ctx).Info().
		Str("owner_id", owner.ID()).
		Int64("location_searches", res.LocationSearches).
		Int64("snapshots", res.Snapshots).
		Msg("Trial data purged")
	return res, nil
}

func (m *Manager) owned(ctx context.Context, owner models.Owner, id string) (*models.Snapshot, error) {
	s, err := m.store.GetSnapshot(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshot: %w", err)
	}
	if s == nil || !owner.Ref().Matches(s.Owner) {
		return nil, errSnapshotNotFound
	}
	return s, nil
}
