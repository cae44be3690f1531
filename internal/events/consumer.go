// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package events

import (
	"context"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/goccy/go-json"

	"github.com/tomtom215/cartographus/internal/metrics"
	"github.com/tomtom215/cartographus/internal/similarity"
)

// Translator is the AI translation service's contract (spec.md §1 names it
// an excluded external collaborator spoken to only through the interfaces
// defined here). Consumer calls it from a background handler; a production
// binary wires an OpenAI-backed implementation in, tests wire a fake.
type Translator interface {
	TranslateCityName(ctx context.Context, screenshotID, cityName string) error
	TranslateCreatorName(ctx context.Context, creatorID string) error
}

// Embedder is the slice of similarity.Engine the embedding-inference
// handler needs.
type Embedder interface {
	BatchUpdateEmbeddings(ctx context.Context, batchName string, targets []similarity.EmbeddingTarget) error
}

// Consumer wires the two background-job handlers onto a message.Router,
// reusing the teacher's Recoverer+Retry middleware stack (see
// internal/eventprocessor/router.go) without its NATS-specific poison-queue
// and dedup middleware, which this bus's two idempotent jobs don't need.
type Consumer struct {
	router *message.Router
}

// NewConsumer builds a Consumer subscribed via sub (typically bus.Subscriber()).
func NewConsumer(sub message.Subscriber, translator Translator, embedder Embedder) (*Consumer, error) {
	logger := watermill.NewStdLogger(false, false)

	router, err := message.NewRouter(message.RouterConfig{CloseTimeout: 30 * time.Second}, logger)
	if err != nil {
		return nil, fmt.Errorf("create events router: %w", err)
	}

	router.AddMiddleware(middleware.Recoverer)
	retry := middleware.Retry{
		MaxRetries:      3,
		InitialInterval: time.Second,
		MaxInterval:     30 * time.Second,
		Multiplier:      2,
		Logger:          logger,
	}
	router.AddMiddleware(retry.Middleware)

	c := &Consumer{router: router}

	// AddConsumerHandler (not the deprecated AddNoPublisherHandler — see
	// internal/eventprocessor/router.go's AddConsumerHandler comment) for a
	// handler that only consumes, producing no output messages.
	router.AddConsumerHandler("screenshot_ingested", TopicScreenshotIngested, sub,
		func(msg *message.Message) error {
			start := time.Now()
			err := handleScreenshotIngested(msg, translator, embedder)
			metrics.RecordEventConsumed(TopicScreenshotIngested, time.Since(start), err)
			return err
		})
	router.AddConsumerHandler("creator_renamed", TopicCreatorRenamed, sub,
		func(msg *message.Message) error {
			start := time.Now()
			err := handleCreatorRenamed(msg, translator)
			metrics.RecordEventConsumed(TopicCreatorRenamed, time.Since(start), err)
			return err
		})

	return c, nil
}

func handleScreenshotIngested(msg *message.Message, translator Translator, embedder Embedder) error {
	var evt ScreenshotIngestedEvent
	if err := json.Unmarshal(msg.Payload, &evt); err != nil {
		return fmt.Errorf("unmarshal screenshot ingested event: %w", err)
	}

	switch evt.Kind {
	case KindCityNameTranslation:
		return translator.TranslateCityName(msg.Context(), evt.ScreenshotID, evt.CityName)
	case KindEmbeddingInference:
		return embedder.BatchUpdateEmbeddings(msg.Context(), evt.ScreenshotID, []similarity.EmbeddingTarget{
			{ScreenshotID: evt.ScreenshotID, BlobKey: evt.BlobKeyFHD},
		})
	default:
		return nil
	}
}

func handleCreatorRenamed(msg *message.Message, translator Translator) error {
	var evt CreatorRenamedEvent
	if err := json.Unmarshal(msg.Payload, &evt); err != nil {
		return fmt.Errorf("unmarshal creator renamed event: %w", err)
	}
	return translator.TranslateCreatorName(msg.Context(), evt.CreatorID)
}

// Run starts the router and blocks until ctx is canceled or Close() is called.
func (c *Consumer) Run(ctx context.Context) error {
	return c.router.Run(ctx)
}

// Running returns a channel that closes once the router is accepting messages.
func (c *Consumer) Running() <-chan struct{} {
	return c.router.Running()
}

// Close stops the router, waiting for in-flight handlers up to its close timeout.
func (c *Consumer) Close() error {
	return c.router.Close()
}
