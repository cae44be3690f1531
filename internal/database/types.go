// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package database

import "time"

// Creator mirrors the creators table (spec.md §3, "Creator").
type Creator struct {
	ID                  string
	CreatorID           string
	CreatorIDProvider   string
	CreatorName         *string
	CreatorNameSlug     *string
	IPs                 []string
	HWIDs               []string
	IsSupporter         bool
	AllowCreatorIDReset bool
	NameLocale          *string
	NameLatinized       *string
	NameTranslated      *string
	NeedsTranslation    bool
	Socials             []Social
	CreatedAt           time.Time
}

// Social is one entry in a Creator's socials list.
type Social struct {
	Platform string `json:"platform"`
	Link     string `json:"link"`
	Clicks   int64  `json:"clicks"`
}

// Screenshot mirrors the screenshots table (spec.md §3, "Screenshot").
type Screenshot struct {
	ID                   string
	CreatorID            string
	CityName             string
	CityMilestone        int
	CityPopulation       int64
	BlobThumbnail        string
	BlobFHD              string
	Blob4K               string
	HWID                 *string
	IP                   string
	ModIDs               []int64
	RenderSettings       map[string]float64
	Metadata             map[string]any
	IsApproved           bool
	IsReported           bool
	ReportedByID         *string
	FavoritesCount       int64
	ViewsCount           int64
	UniqueViewsCount     int64
	FavoritingPercentage int64
	ViewsPerDay          float64
	FavoritesPerDay      float64
	CreatedAt            time.Time
}

// Favorite mirrors the favorites table (spec.md §3, "Favorite").
type Favorite struct {
	ID          string
	ScreenshotID string
	CreatorID   string
	IP          string
	HWID        *string
	FavoritedAt time.Time
}

// View mirrors the views table (spec.md §3, "View").
type View struct {
	ID           string
	ScreenshotID string
	CreatorID    string
	ViewedAt     time.Time
}

// Ban mirrors the bans table (spec.md §3, "Ban"). Exactly one of
// CreatorID, IP, HWID is expected to be non-nil per row, though the type
// does not enforce that; callers (internal/bans) do.
type Ban struct {
	ID        string
	CreatorID *string
	IP        *string
	HWID      *string
	Reason    string
	BannedAt  time.Time
}

// FeatureEmbedding mirrors the feature_embeddings table, storing the
// Similarity Engine's per-screenshot vector.
type FeatureEmbedding struct {
	ID           string
	ScreenshotID string
	Vector       []float32
}
