// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package config

import "time"

// defaultConfig returns a Config struct with all sensible default values.
// These defaults are applied first, then overridden by config file and env
// vars (see LoadWithKoanf).
func defaultConfig() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Port:    8080,
			Address: "0.0.0.0",
			BaseURL: "http://localhost:8080",
		},
		Blob: BlobConfig{
			CDN:       "https://cdn.example.com",
			Container: "screenshots",
			Region:    "us-east-1",
		},
		Screenshots: ScreenshotsConfig{
			JPEGQuality:           85,
			MaxFileSizeBytes:      20 * 1024 * 1024,
			LimitPer24h:           10,
			RecencyThresholdDays:  30,
			DefaultViewMaxAgeDays: 60,
			IngestTimeout:         60 * time.Second,
		},
		Database: DatabaseConfig{
			Path:      "./data/hof.duckdb",
			MaxMemory: "2GB",
			Threads:   0,
		},
		Similarity: SimilarityConfig{
			WorkerBinaryPath: "./bin/embedworker",
			RequestTimeout:   60 * time.Second,
			MaxDistance:      0.25,
			WarmupAtBoot:     false,
		},
		NATS: NATSConfig{
			Enabled: false,
			URL:     "nats://localhost:4222",
		},
		Stats: StatsConfig{
			LedgerPath: "./data/stats-ledger",
			NiceMode:   false,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
		Env:     "development",
		Verbose: false,
	}
}
