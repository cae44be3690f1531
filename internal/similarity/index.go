// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package similarity

import (
	"math"
	"sort"
	"sync"
)

// Neighbor is one result of Index.Search.
type Neighbor struct {
	ScreenshotID string
	Distance     float64
}

// Index is a flat in-memory cosine-distance index over embedding vectors,
// built lazily and kept current by Add/Remove (spec.md §4.9: "only if the
// in-memory vector index has already been materialised").
type Index struct {
	mu      sync.RWMutex
	built   bool
	vectors map[string][]float32
}

// NewIndex returns an empty, unbuilt Index.
func NewIndex() *Index {
	return &Index{vectors: make(map[string][]float32)}
}

// Built reports whether the index has been materialised at least once.
func (idx *Index) Built() bool {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.built
}

// Build replaces the index contents wholesale and marks it as built.
func (idx *Index) Build(vectors map[string][]float32) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.vectors = vectors
	idx.built = true
}

// Add inserts or replaces one screenshot's vector. A no-op if the index
// has not been materialised yet.
func (idx *Index) Add(screenshotID string, vector []float32) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	if !idx.built {
		return
	}
	idx.vectors[screenshotID] = vector
}

// Remove evicts one screenshot's vector. A no-op if the index has not been
// materialised yet.
func (idx *Index) Remove(screenshotID string) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	if !idx.built {
		return
	}
	delete(idx.vectors, screenshotID)
}

// Search returns up to 20 nearest neighbours of query by cosine distance,
// skipping excludeID (the query itself) and any whose distance exceeds
// maxDistance (spec.md §4.9).
func (idx *Index) Search(query []float32, excludeID string, maxDistance float64) []Neighbor {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	const maxResults = 20

	neighbors := make([]Neighbor, 0, len(idx.vectors))
	for id, vec := range idx.vectors {
		if id == excludeID {
			continue
		}
		d := cosineDistance(query, vec)
		if d > maxDistance {
			continue
		}
		neighbors = append(neighbors, Neighbor{ScreenshotID: id, Distance: d})
	}

	sort.Slice(neighbors, func(i, j int) bool { return neighbors[i].Distance < neighbors[j].Distance })
	if len(neighbors) > maxResults {
		neighbors = neighbors[:maxResults]
	}
	return neighbors
}

func cosineDistance(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return math.MaxFloat64
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return math.MaxFloat64
	}
	cosineSimilarity := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	return 1 - cosineSimilarity
}
