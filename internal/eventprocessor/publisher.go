// Areamap - Location Search and Map Snapshot Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/areamap

package eventprocessor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	wmNats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/goccy/go-json"
	natsgo "github.com/nats-io/nats.go"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/areamap/internal/models"
)

// ErrPublisherClosed is returned after Close.
var ErrPublisherClosed = errors.New("publisher is closed")

// PublisherConfig holds publisher configuration.
type PublisherConfig struct {
	URL             string
	Subject         string
	MaxReconnects   int
	ReconnectWait   time.Duration
	ReconnectBuffer int
}

// DefaultPublisherConfig returns production defaults for publisher.
func DefaultPublisherConfig(url, subject string) PublisherConfig {
	return PublisherConfig{
		URL:             url,
		Subject:         subject,
		MaxReconnects:   -1,
		ReconnectWait:   2 * time.Second,
		ReconnectBuffer: 8 * 1024 * 1024,
	}
}

// Publisher sends usage events to JetStream through Watermill.
type Publisher struct {
	publisher message.Publisher
	breaker   *gobreaker.CircuitBreaker[struct{}]
	subject   string

	mu     sync.RWMutex
	closed bool
}

// NewPublisher creates a resilient Watermill NATS publisher. The stream
// covering cfg.Subject must exist; see StreamInitializer.
func NewPublisher(cfg PublisherConfig, logger watermill.LoggerAdapter) (*Publisher, error) {
	if cfg.Subject == "" {
		return nil, errors.New("publisher subject is required")
	}
	if logger == nil {
		logger = NewZerologAdapter()
	}

	natsOpts := []natsgo.Option{
		natsgo.Name("areamap-usage-publisher"),
		natsgo.RetryOnFailedConnect(true),
		natsgo.MaxReconnects(cfg.MaxReconnects),
		natsgo.ReconnectWait(cfg.ReconnectWait),
		natsgo.ReconnectBufSize(cfg.ReconnectBuffer),
		natsgo.DisconnectErrHandler(func(_ *natsgo.Conn, err error) {
			if err != nil {
				logger.Error("NATS disconnected", err, nil)
			}
		}),
		natsgo.ReconnectHandler(func(nc *natsgo.Conn) {
			logger.Info("NATS reconnected", watermill.LogFields{"url": nc.ConnectedUrl()})
		}),
	}

	pub, err := wmNats.NewPublisher(wmNats.PublisherConfig{
		URL:         cfg.URL,
		NatsOptions: natsOpts,
		Marshaler:   &wmNats.NATSMarshaler{},
		JetStream: wmNats.JetStreamConfig{
			AutoProvision: false,
			TrackMsgId:    true,
			PublishOptions: []natsgo.PubOpt{
				natsgo.RetryAttempts(3),
				natsgo.RetryWait(100 * time.Millisecond),
			},
		},
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("create watermill publisher: %w", err)
	}

	return &Publisher{
		publisher: pub,
		breaker:   NewCircuitBreaker(DefaultCircuitBreakerConfig("nats-usage-publisher")),
		subject:   cfg.Subject,
	}, nil
}

// PublishUsage serializes and publishes a usage event.
func (p *Publisher) PublishUsage(ctx context.Context, event models.UsageEvent) error {
	msg, err := newUsageMessage(event)
	if err != nil {
		return err
	}
	msg.SetContext(ctx)
	return p.Publish(p.subject, msg)
}

// Publish sends msg to topic with circuit breaker protection.
func (p *Publisher) Publish(topic string, msg *message.Message) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrPublisherClosed
	}

	_, err := p.breaker.Execute(func() (struct{}, error) {
		return struct{}{}, p.publisher.Publish(topic, msg)
	})
	return err
}

// BreakerState reports the circuit breaker state for health checks.
func (p *Publisher) BreakerState() string {
	return p.breaker.State().String()
}

// Close shuts down the publisher.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	return p.publisher.Close()
}

// newUsageMessage encodes event as a Watermill message whose UUID is the
// event ID.
func newUsageMessage(event models.UsageEvent) (*message.Message, error) {
	if event.EventID == "" {
		return nil, errors.New("usage event requires an event id")
	}
	data, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("serialize usage event: %w", err)
	}

	msg := message.NewMessage(event.EventID, data)
	msg.Metadata.Set(natsgo.MsgIdHdr, event.EventID)
	msg.Metadata.Set("kind", event.Kind)
	msg.Metadata.Set("integration_type", event.IntegrationType)
	return msg, nil
}
