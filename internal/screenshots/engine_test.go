// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package screenshots

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"sync"
	"testing"
	"time"

	"github.com/tomtom215/cartographus/internal/apperr"
	"github.com/tomtom215/cartographus/internal/config"
	"github.com/tomtom215/cartographus/internal/database"
	"github.com/tomtom215/cartographus/internal/imaging"
)

func newTestDB(t *testing.T) *database.DB {
	t.Helper()
	db, err := database.New(&config.DatabaseConfig{Path: t.TempDir() + "/test.duckdb", Threads: 1})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func insertTestCreator(t *testing.T, db *database.DB, creatorID string, isSupporter bool) *database.Creator {
	t.Helper()
	c := &database.Creator{
		CreatorID:         creatorID,
		CreatorIDProvider: "paradox",
		IPs:               []string{"10.0.0.1"},
		HWIDs:             []string{"HW-" + creatorID},
		IsSupporter:       isSupporter,
	}
	if err := db.InsertCreator(context.Background(), c); err != nil {
		t.Fatalf("InsertCreator: %v", err)
	}
	return c
}

// testJPEG returns a tiny solid-color JPEG; the processor's resize step
// works on any input size so this is enough to exercise Process without
// shipping a real screenshot fixture.
func testJPEG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			img.Set(x, y, color.RGBA{R: 10, G: 20, B: 30, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, nil); err != nil {
		t.Fatalf("failed to encode test jpeg: %v", err)
	}
	return buf.Bytes()
}

// fakeBlobs is an in-memory blobStore double; internal/blobstore.Store
// requires a real S3 endpoint so engine tests substitute this instead.
type fakeBlobs struct {
	mu      sync.Mutex
	objects map[string][]byte
	putErr  error
	delErr  error
}

func newFakeBlobs() *fakeBlobs {
	return &fakeBlobs{objects: make(map[string][]byte)}
}

func (f *fakeBlobs) PutObject(ctx context.Context, key string, data []byte, contentType, creatorID, screenshotID string) error {
	if f.putErr != nil {
		return f.putErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[key] = data
	return nil
}

func (f *fakeBlobs) DeleteObject(ctx context.Context, key string) error {
	if f.delErr != nil {
		return f.delErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, key)
	return nil
}

func (f *fakeBlobs) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.objects)
}

// fakeJobs records scheduled jobs instead of publishing to a real bus.
type fakeJobs struct {
	mu             sync.Mutex
	translations   []string
	embeddings     []string
	translationErr error
	embeddingErr   error
}

func (f *fakeJobs) ScheduleCityNameTranslation(ctx context.Context, screenshotID, cityName string) error {
	if f.translationErr != nil {
		return f.translationErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.translations = append(f.translations, screenshotID)
	return nil
}

func (f *fakeJobs) ScheduleEmbeddingInference(ctx context.Context, screenshotID, blobKeyFHD string) error {
	if f.embeddingErr != nil {
		return f.embeddingErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.embeddings = append(f.embeddings, screenshotID)
	return nil
}

// fakeStats records ReconcileNow invocations.
type fakeStats struct {
	mu  sync.Mutex
	ids [][]string
}

func (f *fakeStats) ReconcileNow(ctx context.Context, ids []string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ids = append(f.ids, ids)
}

// fakeViews reports a fixed excluded-ids set, standing in for
// internal/views.Tracker.
type fakeViews struct {
	ids []string
	err error
}

func (f *fakeViews) GetViewedScreenshotIDs(ctx context.Context, creatorID string, maxAgeDays int) ([]string, error) {
	return f.ids, f.err
}

// fakeAudit records calls, standing in for internal/audit.Logger.
type fakeAudit struct {
	mu        sync.Mutex
	targetID  string
	sourceIDs []string
	calls     int
}

func (f *fakeAudit) LogScreenshotMerged(ctx context.Context, targetID string, sourceIDs []string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.targetID = targetID
	f.sourceIDs = sourceIDs
	f.calls++
}

func newTestEngine(t *testing.T, db *database.DB, blobs *fakeBlobs, jobs JobScheduler, stats StatsReconciler, views ViewTracker) *Engine {
	t.Helper()
	return newTestEngineWithAudit(t, db, blobs, jobs, stats, views, nil)
}

func newTestEngineWithAudit(t *testing.T, db *database.DB, blobs *fakeBlobs, jobs JobScheduler, stats StatsReconciler, views ViewTracker, audit MergeAuditor) *Engine {
	t.Helper()
	cfg := &config.ScreenshotsConfig{
		JPEGQuality:   85,
		LimitPer24h:   3,
		IngestTimeout: 5 * time.Second,
	}
	processor := imaging.NewProcessor(cfg)
	return &Engine{db: db, blobs: blobs, processor: processor, views: views, jobs: jobs, stats: stats, audit: audit, cfg: cfg}
}

func TestIngestUploadsBlobsAndSchedulesJobs(t *testing.T) {
	db := newTestDB(t)
	creator := insertTestCreator(t, db, "creator-1", false)
	blobs := newFakeBlobs()
	jobs := &fakeJobs{}
	e := newTestEngine(t, db, blobs, jobs, nil, nil)

	s, err := e.Ingest(context.Background(), IngestInput{
		Creator:   creator,
		CityName:  "Testville",
		FileBytes: testJPEG(t),
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if s.BlobThumbnail == "" || s.BlobFHD == "" || s.Blob4K == "" {
		t.Fatalf("expected all three blob keys to be set, got %+v", s)
	}
	if blobs.count() != 3 {
		t.Fatalf("expected 3 blobs stored, got %d", blobs.count())
	}
	if len(jobs.translations) != 1 || jobs.translations[0] != s.ID {
		t.Fatalf("expected a translation job scheduled for %s, got %v", s.ID, jobs.translations)
	}
	if len(jobs.embeddings) != 1 || jobs.embeddings[0] != s.ID {
		t.Fatalf("expected an embedding job scheduled for %s, got %v", s.ID, jobs.embeddings)
	}

	got, err := db.GetScreenshotByID(context.Background(), s.ID)
	if err != nil {
		t.Fatalf("GetScreenshotByID: %v", err)
	}
	if got.BlobFHD != s.BlobFHD {
		t.Fatalf("stored blob_fhd = %q, want %q", got.BlobFHD, s.BlobFHD)
	}
}

func TestIngestHealthcheckCleansUpRowAndBlobs(t *testing.T) {
	db := newTestDB(t)
	creator := insertTestCreator(t, db, "creator-hc", false)
	blobs := newFakeBlobs()
	jobs := &fakeJobs{}
	e := newTestEngine(t, db, blobs, jobs, nil, nil)

	s, err := e.Ingest(context.Background(), IngestInput{
		Creator:       creator,
		CityName:      "Healthcheck City",
		FileBytes:     testJPEG(t),
		CreatedAt:     time.Now().UTC(),
		IsHealthcheck: true,
	})
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if blobs.count() != 0 {
		t.Fatalf("expected healthcheck blobs to be cleaned up, got %d remaining", blobs.count())
	}
	if len(jobs.translations) != 0 || len(jobs.embeddings) != 0 {
		t.Fatalf("expected no jobs scheduled for a healthcheck upload")
	}
	if _, err := db.GetScreenshotByID(context.Background(), s.ID); err == nil {
		t.Fatalf("expected healthcheck screenshot row to be deleted")
	}
}

func TestIngestEnforcesUploadQuota(t *testing.T) {
	db := newTestDB(t)
	creator := insertTestCreator(t, db, "creator-quota", false)
	blobs := newFakeBlobs()
	e := newTestEngine(t, db, blobs, &fakeJobs{}, nil, nil)
	e.cfg.LimitPer24h = 1

	ctx := context.Background()
	if _, err := e.Ingest(ctx, IngestInput{Creator: creator, CityName: "First", FileBytes: testJPEG(t), CreatedAt: time.Now().UTC()}); err != nil {
		t.Fatalf("first Ingest: %v", err)
	}

	_, err := e.Ingest(ctx, IngestInput{Creator: creator, CityName: "Second", FileBytes: testJPEG(t), CreatedAt: time.Now().UTC()})
	if err == nil {
		t.Fatalf("expected the second upload to be rate limited")
	}
	var appErr *apperr.Error
	if !errors.As(err, &appErr) {
		t.Fatalf("expected *apperr.Error, got %T (%v)", err, err)
	}
	if appErr.Kind != apperr.RateLimitExceeded {
		t.Fatalf("expected RateLimitExceeded, got %s", appErr.Kind)
	}
	if appErr.NotBefore == nil {
		t.Fatalf("expected NotBefore to be set")
	}
}

func TestDeleteRemovesRowAndBlobs(t *testing.T) {
	db := newTestDB(t)
	creator := insertTestCreator(t, db, "creator-del", false)
	blobs := newFakeBlobs()
	e := newTestEngine(t, db, blobs, &fakeJobs{}, nil, nil)

	s, err := e.Ingest(context.Background(), IngestInput{Creator: creator, CityName: "Doomed", FileBytes: testJPEG(t), CreatedAt: time.Now().UTC()})
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if err := e.Delete(context.Background(), s.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if blobs.count() != 0 {
		t.Fatalf("expected all blobs deleted, got %d remaining", blobs.count())
	}
	if _, err := db.GetScreenshotByID(context.Background(), s.ID); err == nil {
		t.Fatalf("expected screenshot row to be gone")
	}
}

func TestDeletePropagatesBlobDeletionFailure(t *testing.T) {
	db := newTestDB(t)
	creator := insertTestCreator(t, db, "creator-delfail", false)
	blobs := newFakeBlobs()
	e := newTestEngine(t, db, blobs, &fakeJobs{}, nil, nil)

	s, err := e.Ingest(context.Background(), IngestInput{Creator: creator, CityName: "Flaky", FileBytes: testJPEG(t), CreatedAt: time.Now().UTC()})
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	blobs.delErr = errors.New("s3 unavailable")

	if err := e.Delete(context.Background(), s.ID); err == nil {
		t.Fatalf("expected Delete to propagate the blob deletion failure")
	}
}

func TestMarkAndUnmarkReported(t *testing.T) {
	db := newTestDB(t)
	creator := insertTestCreator(t, db, "creator-report", false)
	reporter := insertTestCreator(t, db, "creator-reporter", false)
	blobs := newFakeBlobs()
	e := newTestEngine(t, db, blobs, &fakeJobs{}, nil, nil)

	s, err := e.Ingest(context.Background(), IngestInput{Creator: creator, CityName: "Reportville", FileBytes: testJPEG(t), CreatedAt: time.Now().UTC()})
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}

	if err := e.MarkReported(context.Background(), s.ID, reporter.ID); err != nil {
		t.Fatalf("MarkReported: %v", err)
	}
	got, err := db.GetScreenshotByID(context.Background(), s.ID)
	if err != nil {
		t.Fatalf("GetScreenshotByID: %v", err)
	}
	if !got.IsReported || got.ReportedByID == nil || *got.ReportedByID != reporter.ID {
		t.Fatalf("expected screenshot to be reported by %s, got %+v", reporter.ID, got)
	}

	if err := e.UnmarkReported(context.Background(), s.ID); err != nil {
		t.Fatalf("UnmarkReported: %v", err)
	}
	got, err = db.GetScreenshotByID(context.Background(), s.ID)
	if err != nil {
		t.Fatalf("GetScreenshotByID: %v", err)
	}
	if got.IsReported {
		t.Fatalf("expected isReported to be cleared")
	}
}

func TestMergeDedupesFavoritesAndViewsAndReconcilesStats(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	creator := insertTestCreator(t, db, "creator-merge", false)
	voter := insertTestCreator(t, db, "creator-voter", false)
	blobs := newFakeBlobs()
	stats := &fakeStats{}
	e := newTestEngine(t, db, blobs, &fakeJobs{}, stats, nil)

	target, err := e.Ingest(ctx, IngestInput{Creator: creator, CityName: "Target", FileBytes: testJPEG(t), CreatedAt: time.Now().UTC()})
	if err != nil {
		t.Fatalf("Ingest target: %v", err)
	}
	source, err := e.Ingest(ctx, IngestInput{Creator: creator, CityName: "Source", FileBytes: testJPEG(t), CreatedAt: time.Now().UTC()})
	if err != nil {
		t.Fatalf("Ingest source: %v", err)
	}

	earlier := time.Now().UTC().Add(-time.Hour)
	later := time.Now().UTC()
	mustFavorite(t, db, target.ID, voter.ID, later)
	mustFavorite(t, db, source.ID, voter.ID, earlier)

	if err := e.Merge(ctx, target.ID, []string{source.ID}); err != nil {
		t.Fatalf("Merge: %v", err)
	}

	favs := listFavorites(t, db, target.ID)
	if len(favs) != 1 {
		t.Fatalf("expected the two same-voter favorites to collapse to one, got %d", len(favs))
	}
	if !favs[0].Equal(earlier) {
		t.Fatalf("expected the earlier favoritedAt to survive the merge, got %v", favs[0])
	}

	if blobs.count() != 3 {
		t.Fatalf("expected only the target's 3 blobs left, got %d", blobs.count())
	}
	if _, err := db.GetScreenshotByID(ctx, source.ID); err == nil {
		t.Fatalf("expected source screenshot to be deleted")
	}
	if len(stats.ids) != 1 || len(stats.ids[0]) != 1 || stats.ids[0][0] != target.ID {
		t.Fatalf("expected ReconcileNow([target]) to be called once, got %v", stats.ids)
	}
}

func TestMergeLogsAuditEvent(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	creator := insertTestCreator(t, db, "creator-merge-audit", false)
	blobs := newFakeBlobs()
	audit := &fakeAudit{}
	e := newTestEngineWithAudit(t, db, blobs, &fakeJobs{}, nil, nil, audit)

	target, err := e.Ingest(ctx, IngestInput{Creator: creator, CityName: "Target", FileBytes: testJPEG(t), CreatedAt: time.Now().UTC()})
	if err != nil {
		t.Fatalf("Ingest target: %v", err)
	}
	source, err := e.Ingest(ctx, IngestInput{Creator: creator, CityName: "Source", FileBytes: testJPEG(t), CreatedAt: time.Now().UTC()})
	if err != nil {
		t.Fatalf("Ingest source: %v", err)
	}

	if err := e.Merge(ctx, target.ID, []string{source.ID}); err != nil {
		t.Fatalf("Merge: %v", err)
	}

	if audit.calls != 1 {
		t.Fatalf("expected LogScreenshotMerged to be called once, got %d", audit.calls)
	}
	if audit.targetID != target.ID {
		t.Fatalf("expected audit targetID %s, got %s", target.ID, audit.targetID)
	}
	if len(audit.sourceIDs) != 1 || audit.sourceIDs[0] != source.ID {
		t.Fatalf("expected audit sourceIDs [%s], got %v", source.ID, audit.sourceIDs)
	}
}

// mustFavorite inserts a favorites row directly (bypassing AddFavoriteTx,
// which always stamps favoritedAt with time.Now()) so merge-ordering tests
// can control which of two duplicate favorites is "earlier".
func mustFavorite(t *testing.T, db *database.DB, screenshotID, creatorID string, at time.Time) {
	t.Helper()
	id, err := database.NewObjectID()
	if err != nil {
		t.Fatalf("NewObjectID: %v", err)
	}
	_, err = db.Conn().ExecContext(context.Background(), `
		INSERT INTO favorites (id, screenshot_id, creator_id, ip, hwid, favorited_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		id, screenshotID, creatorID, "10.0.0.1", nil, at)
	if err != nil {
		t.Fatalf("failed to insert test favorite: %v", err)
	}
}

func listFavorites(t *testing.T, db *database.DB, screenshotID string) []time.Time {
	t.Helper()
	rows, err := db.Conn().QueryContext(context.Background(), `SELECT favorited_at FROM favorites WHERE screenshot_id = ?`, screenshotID)
	if err != nil {
		t.Fatalf("failed to query favorites: %v", err)
	}
	defer rows.Close()

	var out []time.Time
	for rows.Next() {
		var ts time.Time
		if err := rows.Scan(&ts); err != nil {
			t.Fatalf("failed to scan favorited_at: %v", err)
		}
		out = append(out, ts)
	}
	if err := rows.Err(); err != nil {
		t.Fatalf("rows.Err: %v", err)
	}
	return out
}
