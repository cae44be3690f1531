// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package screenshots

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestSelectDispatchesToExactlyOneWeightedAlgorithm(t *testing.T) {
	db := newTestDB(t)
	creator := insertTestCreator(t, db, "creator-select", false)
	blobs := newFakeBlobs()
	e := newTestEngine(t, db, blobs, &fakeJobs{}, nil, nil)

	s, err := e.Ingest(context.Background(), IngestInput{Creator: creator, CityName: "Onlyone", FileBytes: testJPEG(t), CreatedAt: time.Now().UTC()})
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}

	res, err := e.Select(context.Background(), SelectionRequest{Weights: Weights{AlgoRandom: 1}})
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if res == nil || res.Screenshot.ID != s.ID {
		t.Fatalf("expected the only screenshot to be returned, got %+v", res)
	}
	if res.Algorithm != AlgoRandom {
		t.Fatalf("expected algorithm %q, got %q", AlgoRandom, res.Algorithm)
	}
}

func TestSelectFallsBackToRandomDefaultWhenEveryWeightExhausted(t *testing.T) {
	db := newTestDB(t)
	creator := insertTestCreator(t, db, "creator-fallback", false)
	blobs := newFakeBlobs()
	e := newTestEngine(t, db, blobs, &fakeJobs{}, nil, nil)

	s, err := e.Ingest(context.Background(), IngestInput{Creator: creator, CityName: "Fallback", FileBytes: testJPEG(t), CreatedAt: time.Now().UTC()})
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}

	// trending requires favoritingPercentage > 1, which no screenshot has
	// here, so it always returns nil and the loop must fall through to the
	// random-default fallback rather than erroring.
	res, err := e.Select(context.Background(), SelectionRequest{Weights: Weights{AlgoTrending: 5}})
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if res == nil || res.Screenshot.ID != s.ID {
		t.Fatalf("expected the fallback to still find the only screenshot, got %+v", res)
	}
	if res.Algorithm != AlgoRandomDefault {
		t.Fatalf("expected algorithm %q, got %q", AlgoRandomDefault, res.Algorithm)
	}
}

func TestSelectReturnsNilWhenDatabaseHasNoScreenshotsAtAll(t *testing.T) {
	db := newTestDB(t)
	blobs := newFakeBlobs()
	e := newTestEngine(t, db, blobs, &fakeJobs{}, nil, nil)

	res, err := e.Select(context.Background(), SelectionRequest{Weights: Weights{AlgoRandom: 1}})
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if res != nil {
		t.Fatalf("expected no candidates, got %+v", res)
	}
}

func TestSelectRandomFallbackIgnoresExcludedIDs(t *testing.T) {
	db := newTestDB(t)
	creator := insertTestCreator(t, db, "creator-ignore-excl", false)
	blobs := newFakeBlobs()

	s, err := newTestEngine(t, db, blobs, &fakeJobs{}, nil, nil).Ingest(context.Background(), IngestInput{
		Creator: creator, CityName: "IgnoreExcl", FileBytes: testJPEG(t), CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}

	// Every weight starts at zero so Select goes straight to the fallback,
	// which spec.md §4.10.4 says ignores the excluded-ids set.
	views := &fakeViews{ids: []string{s.ID}}
	e := newTestEngine(t, db, blobs, &fakeJobs{}, nil, views)

	res, err := e.Select(context.Background(), SelectionRequest{Weights: Weights{AlgoRandom: 0}, CreatorID: creator.ID})
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if res == nil || res.Screenshot.ID != s.ID {
		t.Fatalf("expected the fallback to ignore excluded ids and return %s, got %+v", s.ID, res)
	}
	if res.Algorithm != AlgoRandomDefault {
		t.Fatalf("expected algorithm %q, got %q", AlgoRandomDefault, res.Algorithm)
	}
}

func TestSelectPropagatesViewTrackerError(t *testing.T) {
	db := newTestDB(t)
	blobs := newFakeBlobs()
	views := &fakeViews{err: errors.New("views store unavailable")}
	e := newTestEngine(t, db, blobs, &fakeJobs{}, nil, views)

	_, err := e.Select(context.Background(), SelectionRequest{Weights: Weights{AlgoRandom: 1}, CreatorID: "someone"})
	if err == nil {
		t.Fatalf("expected the view tracker error to propagate")
	}
}

func TestSupporterAlgorithmSamplesOnlySupporterCreators(t *testing.T) {
	db := newTestDB(t)
	supporter := insertTestCreator(t, db, "creator-supporter", true)
	nonSupporter := insertTestCreator(t, db, "creator-plain", false)
	blobs := newFakeBlobs()
	e := newTestEngine(t, db, blobs, &fakeJobs{}, nil, nil)

	if _, err := e.Ingest(context.Background(), IngestInput{Creator: nonSupporter, CityName: "Plain", FileBytes: testJPEG(t), CreatedAt: time.Now().UTC()}); err != nil {
		t.Fatalf("Ingest plain: %v", err)
	}
	want, err := e.Ingest(context.Background(), IngestInput{Creator: supporter, CityName: "Supporter", FileBytes: testJPEG(t), CreatedAt: time.Now().UTC()})
	if err != nil {
		t.Fatalf("Ingest supporter: %v", err)
	}

	res, err := e.Select(context.Background(), SelectionRequest{Weights: Weights{AlgoSupporter: 1}})
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if res == nil || res.Screenshot.ID != want.ID {
		t.Fatalf("expected the supporter's own screenshot, got %+v", res)
	}
	if res.Algorithm != AlgoSupporter {
		t.Fatalf("expected algorithm %q, got %q", AlgoSupporter, res.Algorithm)
	}
}

func TestUniformSampleReturnsNilForEmptyInput(t *testing.T) {
	if got := uniformSample(nil); got != nil {
		t.Fatalf("expected nil, got %+v", got)
	}
}

func TestRecentAndArcheologistPartitionOnCreatedAtThreshold(t *testing.T) {
	db := newTestDB(t)
	creator := insertTestCreator(t, db, "creator-recency", false)
	blobs := newFakeBlobs()
	e := newTestEngine(t, db, blobs, &fakeJobs{}, nil, nil)

	recentShot, err := e.Ingest(context.Background(), IngestInput{
		Creator: creator, CityName: "Fresh", FileBytes: testJPEG(t), CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("Ingest recent: %v", err)
	}
	oldShot, err := e.Ingest(context.Background(), IngestInput{
		Creator: creator, CityName: "Ancient", FileBytes: testJPEG(t), CreatedAt: time.Now().UTC().AddDate(0, 0, -100),
	})
	if err != nil {
		t.Fatalf("Ingest old: %v", err)
	}

	recentRes, err := e.Select(context.Background(), SelectionRequest{Weights: Weights{AlgoRecent: 1}, RecencyThresholdDays: 30})
	if err != nil {
		t.Fatalf("Select recent: %v", err)
	}
	if recentRes == nil || recentRes.Screenshot.ID != recentShot.ID {
		t.Fatalf("expected the fresh screenshot from recent, got %+v", recentRes)
	}

	archRes, err := e.Select(context.Background(), SelectionRequest{Weights: Weights{AlgoArcheologist: 1}, RecencyThresholdDays: 30})
	if err != nil {
		t.Fatalf("Select archeologist: %v", err)
	}
	if archRes == nil || archRes.Screenshot.ID != oldShot.ID {
		t.Fatalf("expected the ancient screenshot from archeologist, got %+v", archRes)
	}
}
