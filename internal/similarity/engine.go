// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package similarity

import (
	"context"
	"fmt"

	"github.com/tomtom215/cartographus/internal/blobstore"
	"github.com/tomtom215/cartographus/internal/database"
	"github.com/tomtom215/cartographus/internal/logging"
)

// EmbeddingTarget identifies one screenshot to (re)compute an embedding
// for. Exactly one of BlobKey or InlineData should be set; InlineData lets
// the ingest path (C10) request an embedding before the blob upload has
// necessarily settled.
type EmbeddingTarget struct {
	ScreenshotID string
	BlobKey      string
	InlineData   []byte
}

// inferer is the subset of *WorkerClient Engine depends on, broken out so
// tests can substitute a fake worker without spawning a real subprocess.
type inferer interface {
	Infer(ctx context.Context, imagesData [][]byte) ([][]float32, error)
}

// Engine is the Similarity Engine (C9)'s main-process side.
type Engine struct {
	db     *database.DB
	blobs  *blobstore.Store
	worker inferer
	index  *Index
}

// NewEngine builds an Engine. blobs may be nil in tests that only exercise
// inline-buffer targets.
func NewEngine(db *database.DB, blobs *blobstore.Store, worker *WorkerClient) *Engine {
	return &Engine{db: db, blobs: blobs, worker: worker, index: NewIndex()}
}

// SetWorker swaps the inferer Engine dispatches to, letting the process
// supervisor hand Engine a freshly spawned WorkerClient after the sidecar
// restarts.
func (e *Engine) SetWorker(worker *WorkerClient) {
	e.worker = worker
}

// WarmUp materialises the in-memory index from every stored embedding
// (spec.md §9: production warms the index at boot).
func (e *Engine) WarmUp(ctx context.Context) error {
	rows, err := e.db.ListFeatureEmbeddings(ctx)
	if err != nil {
		return fmt.Errorf("failed to list feature embeddings for warmup: %w", err)
	}
	vectors := make(map[string][]float32, len(rows))
	for _, r := range rows {
		vectors[r.ScreenshotID] = r.Vector
	}
	e.index.Build(vectors)
	logging.Info().Int("count", len(vectors)).Msg("similarity index warmed up")
	return nil
}

// BatchUpdateEmbeddings computes and upserts an embedding for each target,
// downloading its blob (or using the inline buffer), invoking the worker,
// and updating the in-memory index in place if it has already been
// materialised (spec.md §4.9).
func (e *Engine) BatchUpdateEmbeddings(ctx context.Context, batchName string, targets []EmbeddingTarget) error {
	if len(targets) == 0 {
		return nil
	}

	imagesData := make([][]byte, len(targets))
	for i, t := range targets {
		data, err := e.loadImageData(ctx, t)
		if err != nil {
			return fmt.Errorf("batch %s: failed to load image for %s: %w", batchName, t.ScreenshotID, err)
		}
		imagesData[i] = data
	}

	vectors, err := e.worker.Infer(ctx, imagesData)
	if err != nil {
		return fmt.Errorf("batch %s: inference failed: %w", batchName, err)
	}
	if len(vectors) != len(targets) {
		return fmt.Errorf("batch %s: worker returned %d vectors for %d targets", batchName, len(vectors), len(targets))
	}

	for i, t := range targets {
		if err := e.db.UpsertFeatureEmbedding(ctx, t.ScreenshotID, vectors[i]); err != nil {
			return fmt.Errorf("batch %s: failed to upsert embedding for %s: %w", batchName, t.ScreenshotID, err)
		}
		e.index.Add(t.ScreenshotID, vectors[i])
	}

	logging.Info().Str("batch", batchName).Int("count", len(targets)).Msg("updated feature embeddings")
	return nil
}

func (e *Engine) loadImageData(ctx context.Context, t EmbeddingTarget) ([]byte, error) {
	if len(t.InlineData) > 0 {
		return t.InlineData, nil
	}
	if e.blobs == nil {
		return nil, fmt.Errorf("no blob store configured and no inline data provided")
	}
	return e.blobs.DownloadToBuffer(ctx, t.BlobKey)
}

// DeleteEmbedding removes screenshotID's stored vector and evicts it from
// the index if materialised.
func (e *Engine) DeleteEmbedding(ctx context.Context, screenshotID string) error {
	if err := e.db.DeleteFeatureEmbedding(ctx, screenshotID); err != nil {
		return err
	}
	e.index.Remove(screenshotID)
	return nil
}

// FindSimilarScreenshots returns up to 20 nearest neighbours of
// screenshotID's embedding under cosine distance, excluding itself and any
// neighbour beyond maxDistance (spec.md §4.9).
func (e *Engine) FindSimilarScreenshots(ctx context.Context, screenshotID string, maxDistance float64) ([]Neighbor, error) {
	if !e.index.Built() {
		if err := e.WarmUp(ctx); err != nil {
			return nil, err
		}
	}

	embedding, err := e.db.GetFeatureEmbedding(ctx, screenshotID)
	if err != nil {
		return nil, err
	}
	if embedding == nil {
		return nil, nil
	}

	return e.index.Search(embedding.Vector, screenshotID, maxDistance), nil
}
