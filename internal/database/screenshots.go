// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	json "github.com/goccy/go-json"

	"github.com/tomtom215/cartographus/internal/apperr"
)

const screenshotColumns = `
	id, creator_id, city_name, city_milestone, city_population,
	blob_thumbnail, blob_fhd, blob_4k, hwid, ip, mod_ids,
	render_settings, metadata, is_approved, is_reported, reported_by_id,
	favorites_count, views_count, unique_views_count, favoriting_percentage,
	views_per_day, favorites_per_day, created_at`

// InsertScreenshotTx inserts the Screenshot row inside tx with blob names
// empty, per the ingest transaction steps of spec.md §4.8 step 3(a).
func InsertScreenshotTx(ctx context.Context, tx *sql.Tx, s *Screenshot) error {
	id, err := NewObjectID()
	if err != nil {
		return err
	}
	s.ID = id
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now().UTC()
	}

	modIDsJSON, err := json.Marshal(s.ModIDs)
	if err != nil {
		return fmt.Errorf("failed to marshal mod ids: %w", err)
	}
	renderSettingsJSON, err := json.Marshal(s.RenderSettings)
	if err != nil {
		return fmt.Errorf("failed to marshal render settings: %w", err)
	}
	metadataJSON, err := json.Marshal(s.Metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO screenshots (
			id, creator_id, city_name, city_milestone, city_population,
			blob_thumbnail, blob_fhd, blob_4k, hwid, ip, mod_ids,
			render_settings, metadata, is_approved, is_reported, reported_by_id,
			created_at
		) VALUES (?, ?, ?, ?, ?, '', '', '', ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.ID, s.CreatorID, s.CityName, s.CityMilestone, s.CityPopulation,
		s.HWID, s.IP, string(modIDsJSON),
		string(renderSettingsJSON), string(metadataJSON),
		s.IsApproved, s.IsReported, s.ReportedByID, s.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert screenshot: %w", err)
	}
	return nil
}

// SetScreenshotBlobNamesTx fills the three blob names after C2 upload
// succeeds (spec.md §4.8 step 3(c)).
func SetScreenshotBlobNamesTx(ctx context.Context, tx *sql.Tx, id, thumbnail, fhd, fourK string) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE screenshots SET blob_thumbnail = ?, blob_fhd = ?, blob_4k = ?
		WHERE id = ?`, thumbnail, fhd, fourK, id)
	if err != nil {
		return fmt.Errorf("failed to set screenshot blob names: %w", err)
	}
	return nil
}

// GetScreenshotByID fetches a single screenshot.
func (db *DB) GetScreenshotByID(ctx context.Context, id string) (*Screenshot, error) {
	row := db.conn.QueryRowContext(ctx, `SELECT `+screenshotColumns+` FROM screenshots WHERE id = ?`, id)
	return scanScreenshot(row)
}

// GetScreenshotByIDTx is the transaction-scoped variant, used by the
// merge/delete paths that must read-then-write inside one transaction.
func GetScreenshotByIDTx(ctx context.Context, tx *sql.Tx, id string) (*Screenshot, error) {
	row := tx.QueryRowContext(ctx, `SELECT `+screenshotColumns+` FROM screenshots WHERE id = ?`, id)
	return scanScreenshot(row)
}

// CountRecentUploads counts screenshots created within the last 24h whose
// creatorId, hwid, or ip matches one of the creator's known identifiers
// (spec.md §4.8 step 1). Matches the source's literal behavior of checking
// ip against the creator's hwid list too (documented as "[sic]" in
// spec.md).
func (db *DB) CountRecentUploads(ctx context.Context, creatorID string, ips, hwids []string, since time.Time) (int64, time.Time, error) {
	query := `SELECT count(*), min(created_at) FROM screenshots WHERE created_at >= ? AND (creator_id = ?`
	args := []any{since, creatorID}

	// Matches the source's literal "ip IN creator's hwid list" check
	// documented as "[sic]" in spec.md §4.8 step 1; not a typo to fix.
	if len(hwids) > 0 {
		placeholders, hargs := inClausePlaceholders(hwids)
		query += ` OR hwid IN (` + placeholders + `)`
		args = append(args, hargs...)
		query += ` OR ip IN (` + placeholders + `)`
		args = append(args, hargs...)
	}
	query += `)`

	row := db.conn.QueryRowContext(ctx, query, args...)
	var count int64
	var oldest sql.NullTime
	if err := row.Scan(&count, &oldest); err != nil {
		return 0, time.Time{}, fmt.Errorf("failed to count recent uploads: %w", err)
	}
	_ = ips
	return count, oldest.Time, nil
}

func inClausePlaceholders(vals []string) (string, []any) {
	placeholders := ""
	args := make([]any, len(vals))
	for i, v := range vals {
		if i > 0 {
			placeholders += ", "
		}
		placeholders += "?"
		args[i] = v
	}
	return placeholders, args
}

// MarkReportedTx sets isReported=true and records the reporter, refusing
// if the screenshot is already approved (spec.md §4.9).
func MarkReportedTx(ctx context.Context, tx *sql.Tx, id, reporterCreatorID string) error {
	s, err := GetScreenshotByIDTx(ctx, tx, id)
	if err != nil {
		return err
	}
	if s.IsApproved {
		return apperr.New(apperr.ScreenshotApproved, "screenshot is already approved")
	}
	_, err = tx.ExecContext(ctx, `UPDATE screenshots SET is_reported = true, reported_by_id = ? WHERE id = ?`,
		reporterCreatorID, id)
	if err != nil {
		return fmt.Errorf("failed to mark screenshot reported: %w", err)
	}
	return nil
}

// UnmarkReportedTx sets isApproved=true and clears isReported/reportedById
// (spec.md §4.9).
func UnmarkReportedTx(ctx context.Context, tx *sql.Tx, id string) error {
	res, err := tx.ExecContext(ctx, `UPDATE screenshots SET is_approved = true, is_reported = false, reported_by_id = NULL WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to unmark screenshot reported: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n == 0 {
		return apperr.New(apperr.NotFoundByID, "screenshot not found")
	}
	return nil
}

// DeleteScreenshotTx removes the screenshot row, its favorites, views, and
// embedding. Blob deletion (C2) happens outside this transaction since blob
// storage is not transactional with DuckDB.
func DeleteScreenshotTx(ctx context.Context, tx *sql.Tx, id string) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM favorites WHERE screenshot_id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete favorites for screenshot: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM views WHERE screenshot_id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete views for screenshot: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM feature_embeddings WHERE screenshot_id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete embedding for screenshot: %w", err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM screenshots WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete screenshot: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n == 0 {
		return apperr.New(apperr.NotFoundByID, "screenshot not found")
	}
	return nil
}

// ScreenshotFilter narrows ListScreenshots. CreatedAfter/CreatedBefore are
// applied before OrderBy/Limit, matching spec.md §4.10.4's "restrict...
// sort... take top 100" ordering for the recent/archeologist algorithms —
// filtering after a top-100 cut would silently drop qualifying rows that
// didn't make the unfiltered cut.
type ScreenshotFilter struct {
	CreatorID     *string
	ExcludeIDs    []string
	OnlyApproved  bool
	FavoritingGT  *int64
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
	Limit         int
	OrderBy       string // "favoriting_percentage", "created_at", "views_count_created_at"
}

// ListScreenshots returns not-reported screenshots matching filter, used by
// C10's per-algorithm candidate queries (spec.md §4.11).
func (db *DB) ListScreenshots(ctx context.Context, f ScreenshotFilter) ([]*Screenshot, error) {
	query := `SELECT ` + screenshotColumns + ` FROM screenshots WHERE is_reported = false`
	var args []any

	if f.CreatorID != nil {
		query += ` AND creator_id = ?`
		args = append(args, *f.CreatorID)
	}
	if f.FavoritingGT != nil {
		query += ` AND favoriting_percentage > ?`
		args = append(args, *f.FavoritingGT)
	}
	if f.CreatedAfter != nil {
		query += ` AND created_at >= ?`
		args = append(args, *f.CreatedAfter)
	}
	if f.CreatedBefore != nil {
		query += ` AND created_at < ?`
		args = append(args, *f.CreatedBefore)
	}
	if len(f.ExcludeIDs) > 0 {
		placeholders, eargs := inClausePlaceholders(f.ExcludeIDs)
		query += ` AND id NOT IN (` + placeholders + `)`
		args = append(args, eargs...)
	}
	switch f.OrderBy {
	case "favoriting_percentage":
		query += ` ORDER BY favoriting_percentage DESC`
	case "created_at":
		query += ` ORDER BY created_at DESC`
	case "views_count_created_at":
		query += ` ORDER BY views_count ASC, created_at ASC`
	}
	if f.Limit > 0 {
		query += fmt.Sprintf(` LIMIT %d`, f.Limit)
	}

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list screenshots: %w", err)
	}
	defer rows.Close()

	var out []*Screenshot
	for rows.Next() {
		s, err := scanScreenshotRows(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func scanScreenshot(row *sql.Row) (*Screenshot, error) {
	var s Screenshot
	var modIDsJSON, renderSettingsJSON, metadataJSON string
	err := row.Scan(
		&s.ID, &s.CreatorID, &s.CityName, &s.CityMilestone, &s.CityPopulation,
		&s.BlobThumbnail, &s.BlobFHD, &s.Blob4K, &s.HWID, &s.IP, &modIDsJSON,
		&renderSettingsJSON, &metadataJSON, &s.IsApproved, &s.IsReported, &s.ReportedByID,
		&s.FavoritesCount, &s.ViewsCount, &s.UniqueViewsCount, &s.FavoritingPercentage,
		&s.ViewsPerDay, &s.FavoritesPerDay, &s.CreatedAt,
	)
	if err != nil {
		return nil, translateErr(err, apperr.NotFoundByID, "screenshot not found")
	}
	if err := unmarshalScreenshotJSON(&s, modIDsJSON, renderSettingsJSON, metadataJSON); err != nil {
		return nil, err
	}
	return &s, nil
}

func scanScreenshotRows(rows *sql.Rows) (*Screenshot, error) {
	var s Screenshot
	var modIDsJSON, renderSettingsJSON, metadataJSON string
	err := rows.Scan(
		&s.ID, &s.CreatorID, &s.CityName, &s.CityMilestone, &s.CityPopulation,
		&s.BlobThumbnail, &s.BlobFHD, &s.Blob4K, &s.HWID, &s.IP, &modIDsJSON,
		&renderSettingsJSON, &metadataJSON, &s.IsApproved, &s.IsReported, &s.ReportedByID,
		&s.FavoritesCount, &s.ViewsCount, &s.UniqueViewsCount, &s.FavoritingPercentage,
		&s.ViewsPerDay, &s.FavoritesPerDay, &s.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan screenshot row: %w", err)
	}
	if err := unmarshalScreenshotJSON(&s, modIDsJSON, renderSettingsJSON, metadataJSON); err != nil {
		return nil, err
	}
	return &s, nil
}

func unmarshalScreenshotJSON(s *Screenshot, modIDsJSON, renderSettingsJSON, metadataJSON string) error {
	if err := json.Unmarshal([]byte(modIDsJSON), &s.ModIDs); err != nil {
		return fmt.Errorf("failed to unmarshal mod ids: %w", err)
	}
	if err := json.Unmarshal([]byte(renderSettingsJSON), &s.RenderSettings); err != nil {
		return fmt.Errorf("failed to unmarshal render settings: %w", err)
	}
	if err := json.Unmarshal([]byte(metadataJSON), &s.Metadata); err != nil {
		return fmt.Errorf("failed to unmarshal metadata: %w", err)
	}
	return nil
}
