// Areamap - Location Search and Map Snapshot Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/areamap

package eventprocessor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// StreamConfig defines the usage event stream.
type StreamConfig struct {
	Name            string
	Subjects        []string
	MaxAge          time.Duration
	DuplicateWindow time.Duration
	Replicas        int
}

// DefaultStreamConfig returns the usage stream configuration for subject.
func DefaultStreamConfig(subject string) StreamConfig {
	return StreamConfig{
		Name:            "USAGE_EVENTS",
		Subjects:        []string{subject},
		MaxAge:          30 * 24 * time.Hour,
		DuplicateWindow: 10 * time.Minute,
		Replicas:        1,
	}
}

// StreamInitializer creates the usage stream before publishing starts.
type StreamInitializer struct {
	js     jetstream.JetStream
	config StreamConfig
}

// NewStreamInitializer creates an initializer on an open connection.
func NewStreamInitializer(nc *nats.Conn, cfg StreamConfig) (*StreamInitializer, error) {
	js, err := jetstream.New(nc)
	if err != nil {
		return nil, fmt.Errorf("create JetStream context: %w", err)
	}
	return &StreamInitializer{js: js, config: cfg}, nil
}

// EnsureStream creates the stream or updates an existing one. It is
// idempotent.
func (s *StreamInitializer) EnsureStream(ctx context.Context) (jetstream.Stream, error) {
	cfg := jetstream.StreamConfig{
		Name:       s.config.Name,
		Subjects:   s.config.Subjects,
		Retention:  jetstream.LimitsPolicy,
		MaxAge:     s.config.MaxAge,
		Duplicates: s.config.DuplicateWindow,
		Replicas:   s.config.Replicas,
		Storage:    jetstream.FileStorage,
		Discard:    jetstream.DiscardOld,
	}

	_, err := s.js.Stream(ctx, s.config.Name)
	switch {
	case err == nil:
		stream, err := s.js.UpdateStream(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("update stream %s: %w", s.config.Name, err)
		}
		return stream, nil
	case errors.Is(err, jetstream.ErrStreamNotFound):
		stream, err := s.js.CreateStream(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("create stream %s: %w", s.config.Name, err)
		}
		return stream, nil
	default:
		return nil, fmt.Errorf("check stream %s: %w", s.config.Name, err)
	}
}

// ProvisionStream connects to url, ensures the stream exists and
// disconnects.
func ProvisionStream(ctx context.Context, url string, cfg StreamConfig) error {
	nc, err := nats.Connect(url, nats.Name("areamap-stream-init"))
	if err != nil {
		return fmt.Errorf("connect to NATS: %w", err)
	}
	defer nc.Close()

	si, err := NewStreamInitializer(nc, cfg)
	if err != nil {
		return err
	}
	_, err = si.EnsureStream(ctx)
	return err
}
