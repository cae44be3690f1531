// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package events

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	wmNats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	natsgo "github.com/nats-io/nats.go"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/cartographus/internal/config"
	"github.com/tomtom215/cartographus/internal/logging"
	"github.com/tomtom215/cartographus/internal/metrics"
)

// Bus schedules background jobs by publishing to a Watermill pub/sub,
// mirroring the teacher's resilient NATS Publisher (circuit breaker,
// reconnection handling) when a broker URL is configured, and falling back
// to an in-process gochannel bus otherwise — useful for development and for
// tests that want deterministic, unbuffered delivery without standing up a
// broker.
type Bus struct {
	pub     message.Publisher
	sub     message.Subscriber
	logger  watermill.LoggerAdapter
	breaker *gobreaker.CircuitBreaker[interface{}]

	mu     sync.RWMutex
	closed bool
}

// New builds a Bus from cfg. When cfg.Enabled is false (no broker
// configured), New returns a Bus backed by an in-process gochannel pub/sub;
// this is the development/test default and keeps Bus usable with no
// external dependency. ScreenshotIngestedEvent/CreatorRenamedEvent are
// still the wire format either way, so swapping brokers never touches
// calling code.
func New(cfg config.NATSConfig) (*Bus, error) {
	logger := watermill.NewStdLogger(false, false)

	if !cfg.Enabled {
		gc := gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 256}, logger)
		return &Bus{pub: gc, sub: gc, logger: logger}, nil
	}

	natsOpts := []natsgo.Option{
		natsgo.RetryOnFailedConnect(true),
		natsgo.MaxReconnects(-1),
		natsgo.ReconnectWait(2 * time.Second),
		natsgo.DisconnectErrHandler(func(_ *natsgo.Conn, err error) {
			if err != nil {
				logging.Warn().Err(err).Msg("events bus disconnected from NATS")
			}
		}),
		natsgo.ReconnectHandler(func(nc *natsgo.Conn) {
			logging.Info().Str("url", nc.ConnectedUrl()).Msg("events bus reconnected to NATS")
		}),
	}

	pub, err := wmNats.NewPublisher(wmNats.PublisherConfig{
		URL:         cfg.URL,
		NatsOptions: natsOpts,
		Marshaler:   &wmNats.NATSMarshaler{},
		JetStream: wmNats.JetStreamConfig{
			Disabled:      false,
			AutoProvision: true,
			TrackMsgId:    true,
		},
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("create events publisher: %w", err)
	}

	sub, err := wmNats.NewSubscriber(wmNats.SubscriberConfig{
		URL:              cfg.URL,
		QueueGroupPrefix: "cartographus-events",
		SubscribersCount: 1,
		AckWaitTimeout:   30 * time.Second,
		CloseTimeout:     30 * time.Second,
		NatsOptions:      natsOpts,
		Unmarshaler:      &wmNats.NATSMarshaler{},
		JetStream: wmNats.JetStreamConfig{
			Disabled:      false,
			AutoProvision: true,
			AckAsync:      false,
			DurablePrefix: "cartographus-events",
		},
	}, logger)
	if err != nil {
		_ = pub.Close()
		return nil, fmt.Errorf("create events subscriber: %w", err)
	}

	return &Bus{
		pub:     pub,
		sub:     sub,
		logger:  logger,
		breaker: gobreaker.NewCircuitBreaker[interface{}](gobreaker.Settings{Name: "events-bus"}),
	}, nil
}

// Subscriber exposes the underlying message.Subscriber for Consumer.
func (b *Bus) Subscriber() message.Subscriber { return b.sub }

func (b *Bus) publish(topic string, payload any) error {
	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		return fmt.Errorf("events bus is closed")
	}
	b.mu.RUnlock()

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	msg := message.NewMessage(uuid.NewString(), data)

	if b.breaker != nil {
		_, err = b.breaker.Execute(func() (interface{}, error) {
			return nil, b.pub.Publish(topic, msg)
		})
	} else {
		err = b.pub.Publish(topic, msg)
	}
	if err == nil {
		metrics.RecordEventPublished(topic)
	}
	return err
}

// ScheduleCityNameTranslation implements screenshots.JobScheduler.
func (b *Bus) ScheduleCityNameTranslation(_ context.Context, screenshotID, cityName string) error {
	return b.publish(TopicScreenshotIngested, ScreenshotIngestedEvent{
		Kind:         KindCityNameTranslation,
		ScreenshotID: screenshotID,
		CityName:     cityName,
	})
}

// ScheduleEmbeddingInference implements screenshots.JobScheduler.
func (b *Bus) ScheduleEmbeddingInference(_ context.Context, screenshotID, blobKeyFHD string) error {
	return b.publish(TopicScreenshotIngested, ScreenshotIngestedEvent{
		Kind:         KindEmbeddingInference,
		ScreenshotID: screenshotID,
		BlobKeyFHD:   blobKeyFHD,
	})
}

// ScheduleNameTranslation implements creators.TranslationScheduler.
func (b *Bus) ScheduleNameTranslation(_ context.Context, creatorID string) error {
	return b.publish(TopicCreatorRenamed, CreatorRenamedEvent{CreatorID: creatorID})
}

// Close shuts down both sides of the bus.
func (b *Bus) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	b.mu.Unlock()

	// The gochannel fallback uses one object for both pub and sub; close it
	// exactly once.
	if gc, ok := b.pub.(*gochannel.GoChannel); ok {
		return gc.Close()
	}

	pubErr := b.pub.Close()
	if subErr := b.sub.Close(); subErr != nil {
		return subErr
	}
	return pubErr
}
