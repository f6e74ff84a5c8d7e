// Areamap - Location Search and Map Snapshot Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/areamap

package main

import (
	"fmt"

	"github.com/tomtom215/areamap/internal/api"
	"github.com/tomtom215/areamap/internal/authz"
	"github.com/tomtom215/areamap/internal/config"
	"github.com/tomtom215/areamap/internal/database"
	"github.com/tomtom215/areamap/internal/provider"
	"github.com/tomtom215/areamap/internal/quota"
	"github.com/tomtom215/areamap/internal/search"
	"github.com/tomtom215/areamap/internal/snapshot"
	"github.com/tomtom215/areamap/internal/wal"
)

// newServices wires the search and snapshot engine on top of db. Usage
// events of integration owners go to outbox.
func newServices(cfg *config.Config, db *database.DB, outbox *wal.Outbox) (api.Services, error) {
	geocoder := provider.NewNominatimGeocoder(&cfg.Providers, cfg.GeocodeCache)
	pois := provider.NewOverpassPOI(&cfg.Providers, cfg.Search.MaxPOIsPerProfile)
	isochrones := provider.NewGraphHopperIsochrone(&cfg.Providers)

	ledger := quota.NewLedger(db)
	orchestrator := search.NewOrchestrator(db, ledger, pois, isochrones, outbox, cfg.Search)

	enforcer, err := authz.NewEnforcer(authz.EnforcerConfig{
		ModelPath:  cfg.Features.ModelPath,
		PolicyPath: cfg.Features.PolicyPath,
	})
	if err != nil {
		return api.Services{}, fmt.Errorf("initialize plan features: %w", err)
	}
	gate := authz.NewGate(enforcer, ledger)

	key, err := cfg.RedactionKey()
	if err != nil {
		return api.Services{}, fmt.Errorf("derive redaction key: %w", err)
	}

	return api.Services{
		Resolver:  search.NewResolver(geocoder),
		Searcher:  orchestrator,
		Builder:   snapshot.NewBuilder(db, ledger),
		Snapshots: snapshot.NewGateway(db, gate, snapshot.NewRedactor(key, cfg.Redaction)),
		Manager:   snapshot.NewManager(db, gate),
		Readiness: []api.ReadinessCheck{{Name: "database", Check: db.Ping}},
	}, nil
}
