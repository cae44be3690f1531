// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package config

import "fmt"

// Validate checks that required configuration is present and internally
// consistent.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if c.Blob.Container == "" {
		return fmt.Errorf("blob.container is required")
	}
	if c.Screenshots.JPEGQuality < 1 || c.Screenshots.JPEGQuality > 100 {
		return fmt.Errorf("screenshots.jpeg_quality must be between 1 and 100, got %d", c.Screenshots.JPEGQuality)
	}
	if c.Screenshots.MaxFileSizeBytes <= 0 {
		return fmt.Errorf("screenshots.max_file_size_bytes must be positive")
	}
	if c.Screenshots.LimitPer24h <= 0 {
		return fmt.Errorf("screenshots.limit_per_24h must be positive")
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}
	switch c.Env {
	case "development", "production":
	default:
		return fmt.Errorf("env must be \"development\" or \"production\", got %q", c.Env)
	}
	return nil
}
