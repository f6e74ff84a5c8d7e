// Areamap - Location Search and Map Snapshot Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/areamap

package main

import (
	"context"
	"fmt"
	"time"

	"github.com/tomtom215/areamap/internal/api"
	"github.com/tomtom215/areamap/internal/config"
	"github.com/tomtom215/areamap/internal/eventprocessor"
	"github.com/tomtom215/areamap/internal/logging"
)

// usagePipeline holds the NATS side of usage event delivery.
type usagePipeline struct {
	server    *eventprocessor.EmbeddedServer
	publisher *eventprocessor.Publisher
}

// initUsagePipeline starts the embedded server when configured, provisions
// the usage stream and connects the publisher. It returns nil when NATS is
// disabled.
func initUsagePipeline(ctx context.Context, cfg *config.NATSConfig) (*usagePipeline, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	p := &usagePipeline{}
	url := cfg.URL

	if cfg.EmbeddedServer {
		srv, err := eventprocessor.NewEmbeddedServer(eventprocessor.DefaultServerConfig(cfg.StoreDir))
		if err != nil {
			return nil, fmt.Errorf("start embedded NATS: %w", err)
		}
		p.server = srv
		url = srv.ClientURL()
		logging.Info().Str("url", url).Msg("Embedded NATS server started")
	}

	provisionCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := eventprocessor.ProvisionStream(provisionCtx, url, eventprocessor.DefaultStreamConfig(cfg.Subject)); err != nil {
		p.Close()
		return nil, fmt.Errorf("provision usage stream: %w", err)
	}

	pubCfg := eventprocessor.DefaultPublisherConfig(url, cfg.Subject)
	if cfg.MaxReconnects != 0 {
		pubCfg.MaxReconnects = cfg.MaxReconnects
	}
	publisher, err := eventprocessor.NewPublisher(pubCfg, eventprocessor.NewZerologAdapter())
	if err != nil {
		p.Close()
		return nil, fmt.Errorf("create usage publisher: %w", err)
	}
	p.publisher = publisher

	logging.Info().Str("subject", cfg.Subject).Msg("Usage event publishing enabled")
	return p, nil
}

// readiness reports the publisher unready while its breaker is open.
func (p *usagePipeline) readiness() api.ReadinessCheck {
	return api.ReadinessCheck{
		Name: "usage_publisher",
		Check: func(context.Context) error {
			if state := p.publisher.BreakerState(); state == "open" {
				return fmt.Errorf("circuit breaker %s", state)
			}
			return nil
		},
	}
}

// Close releases the publisher and stops the embedded server if the
// supervisor has not done so already.
func (p *usagePipeline) Close() {
	if p.publisher != nil {
		if err := p.publisher.Close(); err != nil {
			logging.Warn().Err(err).Msg("Error closing usage publisher")
		}
	}
	if p.server != nil && p.server.IsRunning() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := p.server.Shutdown(ctx); err != nil {
			logging.Warn().Err(err).Msg("Error stopping embedded NATS")
		}
	}
}
