// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

/*
Package config provides centralized configuration management for the
Hall of Fame screenshot lifecycle engine.

# Configuration Sources

Configuration loads via Koanf v2 with layered precedence (highest wins):

  1. Built-in defaults
  2. Optional YAML config file (config.yaml, or $CONFIG_PATH)
  3. Environment variables

# Configuration Structure

  - HTTPConfig: listen address/port and the externally-visible base URL
  - BlobConfig: object-storage connection, CDN base, and container name
  - ScreenshotsConfig: JPEG quality, upload size/rate limits, recency window
  - DatabaseConfig: embedded DuckDB connection tuning
  - SimilarityConfig: sidecar worker binary path and model settings
  - NATSConfig: optional event-bus settings for background job dispatch

Config is immutable after Load() and safe for concurrent read access.
*/
package config
