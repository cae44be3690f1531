// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in
// order of priority. The first file found is used.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/hall-of-fame/config.yaml",
}

// ConfigPathEnvVar overrides the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// Load loads configuration with precedence defaults < file < environment,
// validates it, and returns it. This is the preferred entry point.
func Load() (*Config, error) {
	k := koanf.New(".")

	defaults := defaultConfig()
	if err := k.Load(structs.Provider(defaults, "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	envProvider := env.Provider("", ".", envTransformFunc)
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// envTransformFunc maps HOF_-prefixed, underscore-separated environment
// variable names to koanf dot paths, e.g. HOF_HTTP_PORT -> http.port,
// HOF_SCREENSHOTS_JPEG_QUALITY -> screenshots.jpeg_quality.
func envTransformFunc(key string) string {
	key = strings.ToLower(key)
	key = strings.TrimPrefix(key, "hof_")

	mappings := map[string]string{
		"http_port":                        "http.port",
		"http_address":                     "http.address",
		"http_base_url":                    "http.base_url",
		"blob_connection_url":              "blob.connection_url",
		"blob_cdn":                         "blob.cdn",
		"blob_container":                  "blob.container",
		"blob_region":                     "blob.region",
		"screenshots_jpeg_quality":         "screenshots.jpeg_quality",
		"screenshots_max_file_size_bytes":  "screenshots.max_file_size_bytes",
		"screenshots_limit_per_24h":        "screenshots.limit_per_24h",
		"screenshots_recency_threshold_days": "screenshots.recency_threshold_days",
		"support_contact":                  "support_contact",
		"system_password":                 "system_password",
		"open_ai_api_key":                 "open_ai.api_key",
		"env":                             "env",
		"verbose":                         "verbose",
	}
	if mapped, ok := mappings[key]; ok {
		return mapped
	}
	return strings.ReplaceAll(key, "_", ".")
}
