// Areamap - Location Search and Map Snapshot Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/areamap

package services

import (
	"context"
	"errors"
	"time"
)

// ErrServerStopped is returned when the embedded server stops on its own.
var ErrServerStopped = errors.New("embedded NATS server stopped unexpectedly")

// EmbeddedServer is the lifecycle subset of eventprocessor.EmbeddedServer.
type EmbeddedServer interface {
	IsRunning() bool
	Shutdown(ctx context.Context) error
}

// EmbeddedNATSService owns the embedded NATS server: it watches the server
// while the tree runs and shuts it down when the tree stops. The server is
// started before the tree because the publisher connects during wiring.
type EmbeddedNATSService struct {
	server          EmbeddedServer
	checkInterval   time.Duration
	shutdownTimeout time.Duration
}

// NewEmbeddedNATSService wraps server.
func NewEmbeddedNATSService(server EmbeddedServer) *EmbeddedNATSService {
	return &EmbeddedNATSService{
		server:          server,
		checkInterval:   5 * time.Second,
		shutdownTimeout: 10 * time.Second,
	}
}

// Serve implements suture.Service.
func (s *EmbeddedNATSService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(s.checkInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
			defer cancel()
			if err := s.server.Shutdown(shutdownCtx); err != nil {
				return err
			}
			return ctx.Err()
		case <-ticker.C:
			if !s.server.IsRunning() {
				return ErrServerStopped
			}
		}
	}
}

func (s *EmbeddedNATSService) String() string {
	return "embedded-nats"
}
