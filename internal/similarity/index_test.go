// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package similarity

import (
	"math"
	"testing"
)

func TestIndexAddNoOpBeforeBuild(t *testing.T) {
	idx := NewIndex()
	idx.Add("a", []float32{1, 0})
	if idx.Built() {
		t.Fatal("expected index to remain unbuilt")
	}
	if got := idx.Search([]float32{1, 0}, "", 1); len(got) != 0 {
		t.Fatalf("expected no results before Build, got %v", got)
	}
}

func TestIndexSearchExcludesSelfAndOrdersByDistance(t *testing.T) {
	idx := NewIndex()
	idx.Build(map[string][]float32{
		"query": {1, 0},
		"close": {0.99, 0.01},
		"far":   {0, 1},
		"mid":   {0.7, 0.3},
	})

	got := idx.Search([]float32{1, 0}, "query", 1)
	if len(got) != 3 {
		t.Fatalf("expected 3 neighbors, got %d: %v", len(got), got)
	}
	if got[0].ScreenshotID != "close" {
		t.Fatalf("expected closest neighbor first, got %s", got[0].ScreenshotID)
	}
	for i := 1; i < len(got); i++ {
		if got[i].Distance < got[i-1].Distance {
			t.Fatalf("expected ascending distance order, got %v", got)
		}
	}
}

func TestIndexSearchRespectsMaxDistance(t *testing.T) {
	idx := NewIndex()
	idx.Build(map[string][]float32{
		"close": {0.99, 0.01},
		"far":   {0, 1},
	})

	got := idx.Search([]float32{1, 0}, "", 0.01)
	if len(got) != 1 || got[0].ScreenshotID != "close" {
		t.Fatalf("expected only 'close' within maxDistance, got %v", got)
	}
}

func TestIndexRemove(t *testing.T) {
	idx := NewIndex()
	idx.Build(map[string][]float32{"a": {1, 0}, "b": {0, 1}})
	idx.Remove("a")

	got := idx.Search([]float32{1, 0}, "", 2)
	for _, n := range got {
		if n.ScreenshotID == "a" {
			t.Fatal("expected 'a' to be removed from the index")
		}
	}
}

func TestCosineDistanceMismatchedLengthsMaxed(t *testing.T) {
	d := cosineDistance([]float32{1, 0}, []float32{1, 0, 0})
	if d != math.MaxFloat64 {
		t.Fatalf("expected max distance for mismatched lengths, got %v", d)
	}
}

func TestCosineDistanceIdenticalVectorsIsZero(t *testing.T) {
	d := cosineDistance([]float32{1, 2, 3}, []float32{1, 2, 3})
	if d > 1e-6 {
		t.Fatalf("expected ~0 distance for identical vectors, got %v", d)
	}
}
