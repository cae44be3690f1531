// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

//go:build integration

package testinfra

import (
	"context"
	"fmt"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/tomtom215/cartographus/internal/config"
)

const (
	// DefaultMinIOImage backs the Blob Store Gateway (C2) integration
	// tests: MinIO is one of the S3-compatible backends the store's
	// ConnectionURL format (spec.md §"New") is written for.
	DefaultMinIOImage = "minio/minio:latest"

	// DefaultMinIOAccessKey and DefaultMinIOSecretKey are the root
	// credentials the container is started with.
	DefaultMinIOAccessKey = "testaccesskey"
	DefaultMinIOSecretKey = "testsecretkey123"

	minioAPIPort = "9000"
)

// MinIOContainer represents a running MinIO container standing in for the
// Blob Store Gateway's S3-compatible backend.
type MinIOContainer struct {
	testcontainers.Container
	Endpoint  string
	AccessKey string
	SecretKey string
}

// NewMinIOContainer starts a MinIO container and waits for its API to
// accept connections.
func NewMinIOContainer(ctx context.Context) (*MinIOContainer, error) {
	req := testcontainers.ContainerRequest{
		Image:        DefaultMinIOImage,
		ExposedPorts: []string{minioAPIPort + "/tcp"},
		Env: map[string]string{
			"MINIO_ROOT_USER":     DefaultMinIOAccessKey,
			"MINIO_ROOT_PASSWORD": DefaultMinIOSecretKey,
		},
		Cmd:        []string{"server", "/data"},
		WaitingFor: wait.ForHTTP("/minio/health/live").WithPort(minioAPIPort + "/tcp").WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio container: %w", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		container.Terminate(ctx) //nolint:errcheck
		return nil, fmt.Errorf("get container host: %w", err)
	}
	port, err := container.MappedPort(ctx, minioAPIPort)
	if err != nil {
		container.Terminate(ctx) //nolint:errcheck
		return nil, fmt.Errorf("get mapped port: %w", err)
	}

	return &MinIOContainer{
		Container: container,
		Endpoint:  fmt.Sprintf("http://%s:%s", host, port.Port()),
		AccessKey: DefaultMinIOAccessKey,
		SecretKey: DefaultMinIOSecretKey,
	}, nil
}

// BlobConfig builds a config.BlobConfig pointing at the container, in the
// "http(s)://accessKey:secretKey@host" shape internal/blobstore.New parses
// credentials out of.
func (c *MinIOContainer) BlobConfig(container string) *config.BlobConfig {
	endpoint := fmt.Sprintf("http://%s:%s@%s", c.AccessKey, c.SecretKey, c.Endpoint[len("http://"):])
	return &config.BlobConfig{
		ConnectionURL: endpoint,
		Container:     container,
		Region:        "us-east-1",
	}
}

// Terminate stops and removes the MinIO container.
func (c *MinIOContainer) Terminate(ctx context.Context) error {
	return c.Container.Terminate(ctx)
}
