// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package config

import "time"

// Config holds all application configuration loaded from environment
// variables and config files (spec.md §6 "Environment configuration").
type Config struct {
	HTTP        HTTPConfig        `koanf:"http"`
	Blob        BlobConfig        `koanf:"blob"`
	Screenshots ScreenshotsConfig `koanf:"screenshots"`
	Database    DatabaseConfig    `koanf:"database"`
	Similarity  SimilarityConfig  `koanf:"similarity"`
	NATS        NATSConfig        `koanf:"nats"`
	Stats       StatsConfig       `koanf:"stats"`
	Logging     LoggingConfig     `koanf:"logging"`

	// SupportContact is surfaced to clients in error responses that need a
	// human escalation path (e.g. repeated upload failures).
	SupportContact string `koanf:"support_contact"`

	// SystemPassword gates admin-only operations (merges, bulk bans) at the
	// excluded HTTP/CLI boundary; the core only stores it for comparison by
	// that boundary.
	SystemPassword string `koanf:"system_password"`

	OpenAI OpenAIConfig `koanf:"open_ai"`

	// Env is "development" or "production". Production warms the
	// similarity worker and vector index at boot; development builds them
	// lazily on first use (spec.md §9 "Design Notes").
	Env string `koanf:"env"`

	Verbose bool `koanf:"verbose"`
}

// HTTPConfig holds the externally-facing server settings. The HTTP router
// itself is an excluded external collaborator (spec.md §1); this config
// only carries the values that collaborator would need.
type HTTPConfig struct {
	Port    int    `koanf:"port"`
	Address string `koanf:"address"`
	BaseURL string `koanf:"base_url"`
}

// BlobConfig configures the Blob Store Gateway (C2).
type BlobConfig struct {
	ConnectionURL string `koanf:"connection_url"`
	CDN           string `koanf:"cdn"`
	Container     string `koanf:"container"`
	Region        string `koanf:"region"`
}

// ScreenshotsConfig configures the Screenshot Engine (C10) and Image
// Processor (C3).
type ScreenshotsConfig struct {
	JPEGQuality         int           `koanf:"jpeg_quality"`
	MaxFileSizeBytes    int64         `koanf:"max_file_size_bytes"`
	LimitPer24h         int           `koanf:"limit_per_24h"`
	RecencyThresholdDays int          `koanf:"recency_threshold_days"`
	DefaultViewMaxAgeDays int         `koanf:"default_view_max_age_days"`
	IngestTimeout       time.Duration `koanf:"ingest_timeout"`
}

// DatabaseConfig holds DuckDB settings (C1 Persistence Gateway).
type DatabaseConfig struct {
	Path      string `koanf:"path"`
	MaxMemory string `koanf:"max_memory"`
	Threads   int    `koanf:"threads"`
}

// SimilarityConfig configures the Similarity Engine (C9) and its sidecar
// worker process.
type SimilarityConfig struct {
	WorkerBinaryPath string        `koanf:"worker_binary_path"`
	ModelPath        string        `koanf:"model_path"`
	RequestTimeout   time.Duration `koanf:"request_timeout"`
	MaxDistance      float64       `koanf:"max_distance"`
	WarmupAtBoot     bool          `koanf:"warmup_at_boot"`
}

// NATSConfig configures the optional event bus used to fan ingest events
// out to the translation and embedding background jobs (spec.md §4.10.1
// step 4).
type NATSConfig struct {
	Enabled bool   `koanf:"enabled"`
	URL     string `koanf:"url"`
}

// StatsConfig configures the Stats Reconciler (C8)'s durable dirty-id
// ledger and its reconciliation crons.
type StatsConfig struct {
	LedgerPath string `koanf:"ledger_path"`
	NiceMode   bool   `koanf:"nice_mode"`
}

// LoggingConfig mirrors internal/logging.Config for koanf unmarshaling.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// OpenAIConfig configures the external translation service credential.
// The translation service itself is an excluded external collaborator
// (spec.md §1); this config only carries the API key it needs.
type OpenAIConfig struct {
	APIKey string `koanf:"api_key"`
}
