// Areamap - Location Search and Map Snapshot Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/areamap

/*
Package main is the entry point of the areamap server.

Initialization order:

 1. Configuration: Koanf v2 (defaults, optional config.yaml, environment)
 2. Logging: zerolog
 3. Storage: DuckDB and the Badger usage outbox
 4. Engine: providers, quota ledger, search orchestrator, plan features,
    snapshot builder, gateway and manager
 5. Usage pipeline (NATS_ENABLED): embedded NATS server (optional), JetStream
    stream provisioning, Watermill publisher
 6. HTTP: Chi router behind JWT authentication
 7. Supervisor tree: outbox relay, embedded NATS, HTTP server

SIGINT and SIGTERM cancel the tree; the HTTP server drains for up to 10s.

Minimal development setup:

	export JWT_SECRET=$(openssl rand -base64 32)
	export DATABASE_PATH=./areamap.duckdb
	export OUTBOX_PATH=./outbox
	./areamap
*/
package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/tomtom215/areamap/internal/api"
	"github.com/tomtom215/areamap/internal/auth"
	"github.com/tomtom215/areamap/internal/config"
	"github.com/tomtom215/areamap/internal/database"
	"github.com/tomtom215/areamap/internal/logging"
	"github.com/tomtom215/areamap/internal/supervisor"
	"github.com/tomtom215/areamap/internal/supervisor/services"
	"github.com/tomtom215/areamap/internal/wal"
)

func main() {
	cfg, err := config.LoadWithKoanf()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Caller:    cfg.Logging.Caller,
		Timestamp: true,
		Output:    os.Stderr,
	})

	if err := run(cfg); err != nil {
		logging.Fatal().Err(err).Msg("Server stopped with error")
	}
	logging.Info().Msg("Server stopped")
}

func run(cfg *config.Config) error {
	logging.Info().
		Str("environment", cfg.Server.Environment).
		Str("db_path", cfg.Database.Path).
		Bool("nats_enabled", cfg.NATS.Enabled).
		Msg("Starting areamap")

	db, err := database.New(&cfg.Database)
	if err != nil {
		return fmt.Errorf("initialize database: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing database")
		}
	}()

	outbox, err := wal.Open(cfg.Outbox)
	if err != nil {
		return fmt.Errorf("open usage outbox: %w", err)
	}
	defer func() {
		if err := outbox.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing usage outbox")
		}
	}()

	svc, err := newServices(cfg, db, outbox)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	if err != nil {
		return fmt.Errorf("create supervisor tree: %w", err)
	}

	pipeline, err := initUsagePipeline(ctx, &cfg.NATS)
	if err != nil {
		return err
	}
	if pipeline != nil {
		defer pipeline.Close()
		tree.AddDataService(wal.NewRelay(outbox, pipeline.publisher, cfg.Outbox))
		if pipeline.server != nil {
			tree.AddMessagingService(services.NewEmbeddedNATSService(pipeline.server))
		}
		svc.Readiness = append(svc.Readiness, pipeline.readiness())
	} else {
		logging.Warn().Msg("NATS disabled: usage events stay in the outbox until their TTL")
	}

	jwtManager, err := auth.NewJWTManager(&cfg.Security)
	if err != nil {
		return fmt.Errorf("initialize JWT manager: %w", err)
	}
	if cfg.Security.RateLimitDisabled {
		logging.Warn().Msg("Rate limiting is DISABLED")
	}

	router := api.NewRouter(
		api.NewHandler(svc, cfg.API),
		auth.NewMiddleware(jwtManager, db),
		api.NewChiMiddleware(api.ChiMiddlewareConfigFromSecurity(&cfg.Security)),
	)
	server := &http.Server{
		Addr:              net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port)),
		Handler:           router.SetupChi(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.Timeout,
		WriteTimeout:      cfg.Server.Timeout,
		IdleTimeout:       2 * time.Minute,
	}
	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))

	logging.Info().Str("addr", server.Addr).Msg("Serving HTTP")
	err = tree.Serve(ctx)

	if report, reportErr := tree.UnstoppedServiceReport(); reportErr == nil && len(report) > 0 {
		for _, u := range report {
			logging.Warn().Str("service", u.Name).Msg("Service did not stop within the shutdown timeout")
		}
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("supervisor tree: %w", err)
	}
	return nil
}
