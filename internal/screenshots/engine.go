// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package screenshots

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/tomtom215/cartographus/internal/apperr"
	"github.com/tomtom215/cartographus/internal/blobstore"
	"github.com/tomtom215/cartographus/internal/config"
	"github.com/tomtom215/cartographus/internal/database"
	"github.com/tomtom215/cartographus/internal/imaging"
	"github.com/tomtom215/cartographus/internal/logging"
	"github.com/tomtom215/cartographus/internal/metrics"
)

// JobScheduler is implemented by internal/events; kept as an interface here
// so this package does not import the event bus directly (spec.md §4.10.1
// step 4: "schedule two independent background jobs").
type JobScheduler interface {
	ScheduleCityNameTranslation(ctx context.Context, screenshotID, cityName string) error
	ScheduleEmbeddingInference(ctx context.Context, screenshotID, blobKeyFHD string) error
}

// StatsReconciler is the narrow slice of internal/stats.Reconciler the
// merge path needs.
type StatsReconciler interface {
	ReconcileNow(ctx context.Context, screenshotIDs []string)
}

// MergeAuditor is the narrow slice of internal/audit.Logger the merge path
// needs, to record a creator.merged event (spec.md §4.10.5).
type MergeAuditor interface {
	LogScreenshotMerged(ctx context.Context, targetID string, sourceIDs []string)
}

// ViewTracker is the narrow slice of internal/views.Tracker the selection
// path needs, to build the excluded-ids set (spec.md §4.10.4).
type ViewTracker interface {
	GetViewedScreenshotIDs(ctx context.Context, creatorID string, maxAgeDays int) ([]string, error)
}

// IngestInput is everything the caller supplies for one upload (spec.md
// §4.10.1).
type IngestInput struct {
	Creator        *database.Creator
	CityName       string
	CityMilestone  int
	CityPopulation int64
	ParadoxModIDs  []int64
	RenderSettings map[string]float64
	Metadata       map[string]any
	CreatedAt      time.Time
	FileBytes      []byte
	IsHealthcheck  bool
}

// blobStore is the slice of blobstore.Store this package needs. Defined
// here, not in internal/blobstore, so tests can substitute an in-memory
// fake instead of a real S3-backed Store (mirrors internal/similarity's
// inferer seam).
type blobStore interface {
	PutObject(ctx context.Context, key string, data []byte, contentType, creatorID, screenshotID string) error
	DeleteObject(ctx context.Context, key string) error
}

// Engine is the Screenshot Engine (C10).
type Engine struct {
	db        *database.DB
	blobs     blobStore
	processor *imaging.Processor
	views     ViewTracker
	jobs      JobScheduler
	stats     StatsReconciler
	audit     MergeAuditor
	cfg       *config.ScreenshotsConfig
}

// New builds an Engine. jobs/stats/audit may be nil in tests that don't
// exercise those side effects.
func New(db *database.DB, blobs *blobstore.Store, processor *imaging.Processor, views ViewTracker, jobs JobScheduler, stats StatsReconciler, audit MergeAuditor, cfg *config.ScreenshotsConfig) *Engine {
	return &Engine{db: db, blobs: blobs, processor: processor, views: views, jobs: jobs, stats: stats, audit: audit, cfg: cfg}
}

// Ingest runs the full upload pipeline: quota check, image processing,
// transactional insert+upload+blob-name-fill, and (for non-healthcheck
// uploads) scheduling the translation and embedding background jobs
// (spec.md §4.10.1).
func (e *Engine) Ingest(ctx context.Context, in IngestInput) (*database.Screenshot, error) {
	start := time.Now()
	result := "rejected"
	defer func() { metrics.RecordIngest(result, time.Since(start), len(in.FileBytes)) }()

	if err := e.enforceUploadQuota(ctx, in.Creator); err != nil {
		return nil, err
	}

	ip := in.Creator.IPs[0]
	var hwid *string
	if len(in.Creator.HWIDs) > 0 {
		h := in.Creator.HWIDs[0]
		hwid = &h
	}

	createdAt := in.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	creatorName := ""
	if in.Creator.CreatorName != nil {
		creatorName = *in.Creator.CreatorName
	}
	out, err := e.processor.Process(in.FileBytes, in.CityName, creatorName, createdAt)
	if err != nil {
		return nil, err
	}

	s := &database.Screenshot{
		CreatorID:      in.Creator.ID,
		CityName:       in.CityName,
		CityMilestone:  in.CityMilestone,
		CityPopulation: in.CityPopulation,
		HWID:           hwid,
		IP:             ip,
		ModIDs:         in.ParadoxModIDs,
		RenderSettings: in.RenderSettings,
		Metadata:       in.Metadata,
		IsReported:     in.IsHealthcheck,
		CreatedAt:      createdAt,
	}

	var thumbKey, fhdKey, fourKKey string

	_, err = database.RunTx(ctx, e.db, e.cfg.IngestTimeout, func(ctx context.Context, tx *sql.Tx) (struct{}, error) {
		if err := database.InsertScreenshotTx(ctx, tx, s); err != nil {
			return struct{}{}, err
		}

		// Blob keys are namespaced by creatorId/screenshotId (spec.md §6
		// "Blob naming"), so the timestamp-and-slug suffix only needs to be
		// collision-free within one screenshot, not globally.
		thumbKey = blobKey(s.CreatorID, s.ID, out.Slug, createdAt, "thumbnail")
		fhdKey = blobKey(s.CreatorID, s.ID, out.Slug, createdAt, "fhd")
		fourKKey = blobKey(s.CreatorID, s.ID, out.Slug, createdAt, "4k")

		if err := e.blobs.PutObject(ctx, thumbKey, out.Thumbnail, "image/jpeg", s.CreatorID, s.ID); err != nil {
			return struct{}{}, fmt.Errorf("failed to upload thumbnail: %w", err)
		}
		if err := e.blobs.PutObject(ctx, fhdKey, out.FHD, "image/jpeg", s.CreatorID, s.ID); err != nil {
			return struct{}{}, fmt.Errorf("failed to upload fhd: %w", err)
		}
		if err := e.blobs.PutObject(ctx, fourKKey, out.FourK, "image/jpeg", s.CreatorID, s.ID); err != nil {
			return struct{}{}, fmt.Errorf("failed to upload 4k: %w", err)
		}

		if err := database.SetScreenshotBlobNamesTx(ctx, tx, s.ID, thumbKey, fhdKey, fourKKey); err != nil {
			return struct{}{}, err
		}

		if in.IsHealthcheck {
			if err := database.DeleteScreenshotTx(ctx, tx, s.ID); err != nil {
				return struct{}{}, err
			}
		}
		return struct{}{}, nil
	})
	if err != nil {
		return nil, err
	}

	s.BlobThumbnail, s.BlobFHD, s.Blob4K = thumbKey, fhdKey, fourKKey

	if in.IsHealthcheck {
		for _, key := range []string{thumbKey, fhdKey, fourKKey} {
			if err := e.blobs.DeleteObject(ctx, key); err != nil {
				return nil, fmt.Errorf("failed to delete healthcheck blob %s: %w", key, err)
			}
		}
		result = "healthcheck"
		return s, nil
	}

	e.scheduleBackgroundJobs(ctx, s, fhdKey)
	result = "accepted"
	return s, nil
}

// scheduleBackgroundJobs fires the translation and embedding jobs.
// Failures are logged, not propagated (spec.md §4.10.1 step 4).
func (e *Engine) scheduleBackgroundJobs(ctx context.Context, s *database.Screenshot, fhdKey string) {
	if e.jobs == nil {
		return
	}
	if err := e.jobs.ScheduleCityNameTranslation(ctx, s.ID, s.CityName); err != nil {
		logging.Warn().Err(err).Str("screenshot_id", s.ID).Msg("failed to schedule city name translation")
	}
	if err := e.jobs.ScheduleEmbeddingInference(ctx, s.ID, fhdKey); err != nil {
		logging.Warn().Err(err).Str("screenshot_id", s.ID).Msg("failed to schedule embedding inference")
	}
}

// enforceUploadQuota raises rate-limit-exceeded once the creator's last-24h
// upload count reaches the configured limit (spec.md §4.10.1 step 1).
func (e *Engine) enforceUploadQuota(ctx context.Context, c *database.Creator) error {
	since := time.Now().UTC().Add(-24 * time.Hour)
	count, oldest, err := e.db.CountRecentUploads(ctx, c.ID, c.IPs, c.HWIDs, since)
	if err != nil {
		return err
	}
	if count < int64(e.cfg.LimitPer24h) {
		return nil
	}
	nextAllowed := oldest.Add(24 * time.Hour).Unix()
	return &apperr.Error{
		Kind:      apperr.RateLimitExceeded,
		Message:   "upload quota exceeded for the last 24 hours",
		NotBefore: &nextAllowed,
	}
}

// Delete removes the embedding, the screenshot row, and its three blobs
// (spec.md §4.10.2). Blob deletion failure is fatal to the caller even
// though the row is already gone.
func (e *Engine) Delete(ctx context.Context, id string) error {
	s, err := e.db.GetScreenshotByID(ctx, id)
	if err != nil {
		return err
	}

	_, err = database.RunTx(ctx, e.db, 0, func(ctx context.Context, tx *sql.Tx) (struct{}, error) {
		return struct{}{}, database.DeleteScreenshotTx(ctx, tx, id)
	})
	if err != nil {
		return err
	}

	for _, key := range []string{s.BlobThumbnail, s.BlobFHD, s.Blob4K} {
		if key == "" {
			continue
		}
		if err := e.blobs.DeleteObject(ctx, key); err != nil {
			return fmt.Errorf("failed to delete blob %s: %w", key, err)
		}
	}
	return nil
}

// MarkReported flags id as reported by reporterCreatorID (spec.md §4.10.3).
func (e *Engine) MarkReported(ctx context.Context, id, reporterCreatorID string) error {
	_, err := database.RunTx(ctx, e.db, 0, func(ctx context.Context, tx *sql.Tx) (struct{}, error) {
		return struct{}{}, database.MarkReportedTx(ctx, tx, id, reporterCreatorID)
	})
	return err
}

// UnmarkReported approves id, clearing its reported state (spec.md
// §4.10.3).
func (e *Engine) UnmarkReported(ctx context.Context, id string) error {
	_, err := database.RunTx(ctx, e.db, 0, func(ctx context.Context, tx *sql.Tx) (struct{}, error) {
		return struct{}{}, database.UnmarkReportedTx(ctx, tx, id)
	})
	return err
}

// Merge folds sourceIDs into targetID: favorites and views are
// deduplicated by identity and re-parented, the sources are deleted via the
// same path as Delete (row, embedding, and blobs), and the target's
// counters are reconciled (spec.md §4.10.5).
func (e *Engine) Merge(ctx context.Context, targetID string, sourceIDs []string) error {
	blobKeys, err := database.RunTx(ctx, e.db, 0, func(ctx context.Context, tx *sql.Tx) ([][3]string, error) {
		if err := database.MergeFavoritesTx(ctx, tx, targetID, sourceIDs); err != nil {
			return nil, fmt.Errorf("failed to merge favorites: %w", err)
		}
		if err := database.MergeViewsTx(ctx, tx, targetID, sourceIDs); err != nil {
			return nil, fmt.Errorf("failed to merge views: %w", err)
		}

		keys := make([][3]string, 0, len(sourceIDs))
		for _, id := range sourceIDs {
			s, err := database.GetScreenshotByIDTx(ctx, tx, id)
			if err != nil {
				return nil, fmt.Errorf("failed to look up merge source %s: %w", id, err)
			}
			keys = append(keys, [3]string{s.BlobThumbnail, s.BlobFHD, s.Blob4K})

			if err := database.DeleteScreenshotTx(ctx, tx, id); err != nil {
				return nil, fmt.Errorf("failed to delete merged source %s: %w", id, err)
			}
		}
		return keys, nil
	})
	if err != nil {
		return err
	}

	for _, trio := range blobKeys {
		for _, key := range trio {
			if key == "" {
				continue
			}
			if err := e.blobs.DeleteObject(ctx, key); err != nil {
				return fmt.Errorf("failed to delete blob %s: %w", key, err)
			}
		}
	}

	if e.stats != nil {
		e.stats.ReconcileNow(ctx, []string{targetID})
	}
	if e.audit != nil {
		e.audit.LogScreenshotMerged(ctx, targetID, sourceIDs)
	}
	return nil
}

// blobKey builds "{creatorId}/{screenshotId}/{contextSlug}-{yyyy-MM-dd-HH-mm-ss}-{variant}.jpg"
// (spec.md §6 "Blob naming").
func blobKey(creatorID, screenshotID, slug string, at time.Time, variant string) string {
	return fmt.Sprintf("%s/%s/%s-%s-%s.jpg", creatorID, screenshotID, slug, at.UTC().Format("2006-01-02-15-04-05"), variant)
}
