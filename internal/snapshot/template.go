// Areamap - Location Search and Map Snapshot Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/areamap

package snapshot

import (
	"context"
	"slices"

	"github.com/tomtom215/areamap/internal/logging"
	"github.com/tomtom215/areamap/internal/models"
)

// ConfigSource names where a snapshot configuration came from.
type ConfigSource string

// Configuration sources, in cascade order after SourceExplicit.
const (
	SourceExplicit       ConfigSource = "explicit"
	SourceOwnTemplate    ConfigSource = "own_template"
	SourceParentTemplate ConfigSource = "parent_template"
	SourceLatestSnapshot ConfigSource = "latest_snapshot"
	SourceDefault        ConfigSource = "default"
)

// TemplateStore loads the snapshots a configuration can be taken from.
type TemplateStore interface {
	GetSnapshot(ctx context.Context, id string) (*models.Snapshot, error)
	LatestSnapshot(ctx context.Context, owner models.OwnerRef) (*models.Snapshot, error)
}

// TemplateResolver picks the configuration a new snapshot starts from.
type TemplateResolver struct {
	store TemplateStore
}

// NewTemplateResolver creates a resolver.
func NewTemplateResolver(store TemplateStore) *TemplateResolver {
	return &TemplateResolver{store: store}
}

type cascadeStep struct {
	source ConfigSource
	load   func(ctx context.Context) (*models.Snapshot, error)
}

// Resolve returns the first configuration found in the cascade: the owner's
// template snapshot, the parent's template snapshot, the owner's most
// recently updated snapshot, and finally DefaultConfiguration. It never
// fails; a lookup error skips to the next step.
func (r *TemplateResolver) Resolve(ctx context.Context, owner models.Owner) (models.Configuration, ConfigSource) {
	steps := []cascadeStep{
		{SourceOwnTemplate, func(ctx context.Context) (*models.Snapshot, error) {
			return r.template(ctx, owner.TemplateSnapshotID())
		}},
		{SourceParentTemplate, func(ctx context.Context) (*models.Snapshot, error) {
			if parent := owner.Parent(); parent != nil {
				return r.template(ctx, parent.TemplateSnapshotID())
			}
			return nil, nil
		}},
		{SourceLatestSnapshot, func(ctx context.Context) (*models.Snapshot, error) {
			return r.store.LatestSnapshot(ctx, owner.Ref())
		}},
	}

	for _, step := range steps {
		s, err := step.load(ctx)
		if err != nil {
			logging.Ctx(ctx).Warn().Err(err).
				Str("owner_id", owner.ID()).
				Str("source", string(step.source)).
				Msg("Failed to load template configuration, continuing cascade")
			continue
		}
		if s != nil {
			return s.Config.Clone(), step.source
		}
	}
	return models.DefaultConfiguration(), SourceDefault
}

func (r *TemplateResolver) template(ctx context.Context, id string) (*models.Snapshot, error) {
	if id == "" {
		return nil, nil
	}
	return r.store.GetSnapshot(ctx, id)
}

// PostProcess adapts a selected configuration to a new snapshot. The active
// means are replaced by the profiles of the search, an unset color or icon
// is inherited from the owner, and every listing the configuration does not
// reference yet is excluded.
func PostProcess(cfg models.Configuration, owner models.Owner, means []models.MeansOfTransportation,
	listings []models.RealEstateListing) models.Configuration {
	out := cfg.Clone()
	out.DefaultActiveMeans = slices.Clone(means)
	if out.DefaultActiveMeans == nil {
		out.DefaultActiveMeans = []models.MeansOfTransportation{}
	}

	appearance := owner.Appearance()
	if out.PrimaryColor == "" {
		out.PrimaryColor = appearance.PrimaryColor
	}
	if out.MapIcon == "" {
		out.MapIcon = appearance.MapIcon
	}

	for _, l := range listings {
		if out.References(l.ID) || slices.Contains(out.ActiveGroups, l.ID) {
			continue
		}
		out.EntityVisibility = append(out.EntityVisibility, models.EntityVisibility{
			ID:         l.ID,
			EntityType: models.EntityRealEstateListing,
			Excluded:   true,
		})
	}
	return out
}

// resultMeans returns the profiles present in result in display order.
func resultMeans(result *models.SearchResult) []models.MeansOfTransportation {
	means := make([]models.MeansOfTransportation, 0, len(result.RoutingProfiles))
	for _, m := range models.AllMeans() {
		if _, ok := result.RoutingProfiles[m]; ok {
			means = append(means, m)
		}
	}
	return means
}
