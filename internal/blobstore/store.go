// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package blobstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"

	"github.com/tomtom215/cartographus/internal/config"
)

// Store is the S3-compatible blob gateway. It implements the narrow
// ObjectStore shape (PutObject/DeleteObject) plus the download and URL
// helpers the Similarity Engine and admin tooling need.
type Store struct {
	client    *s3.Client
	container string
	cdnBase   string
}

// New builds a Store from configuration. When cfg.ConnectionURL carries
// explicit credentials (the "http(s)://accessKey:secretKey@host" shape
// MinIO/R2 deployments commonly use), they are parsed out and handed to the
// static credentials provider; otherwise the default AWS credential chain
// applies.
func New(ctx context.Context, cfg *config.BlobConfig) (*Store, error) {
	if cfg.Container == "" {
		return nil, errors.New("blob container name is required")
	}

	endpoint, accessKey, secretKey, err := parseConnectionURL(cfg.ConnectionURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse blob connection url: %w", err)
	}

	var optFns []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		optFns = append(optFns, awsconfig.WithRegion(cfg.Region))
	}
	if accessKey != "" {
		optFns = append(optFns, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(accessKey, secretKey, "")))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, optFns...)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = &endpoint
		}
		o.UsePathStyle = true
	})

	return &Store{
		client:    client,
		container: cfg.Container,
		cdnBase:   cfg.CDN,
	}, nil
}

// PutObject uploads data under key with the given content type, tagged
// with creatorId and screenshotId (spec.md §4.2: "blobs are tagged with
// creatorId and screenshotId").
func (s *Store) PutObject(ctx context.Context, key string, data []byte, contentType, creatorID, screenshotID string) error {
	tagging := fmt.Sprintf("creatorId=%s&screenshotId=%s", creatorID, screenshotID)
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      &s.container,
		Key:         &key,
		Body:        bytes.NewReader(data),
		ContentType: &contentType,
		Tagging:     &tagging,
	})
	if err != nil {
		return fmt.Errorf("failed to upload object %s: %w", key, err)
	}
	return nil
}

// DeleteObject removes key, tolerating an already-missing object (spec.md
// §4.2: "deleteImages ... tolerates already-missing blobs").
func (s *Store) DeleteObject(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: &s.container,
		Key:    &key,
	})
	if err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) && apiErr.ErrorCode() == "NoSuchKey" {
			return nil
		}
		return fmt.Errorf("failed to delete object %s: %w", key, err)
	}
	return nil
}

// DownloadToBuffer fetches key's content into memory, used by the
// Similarity Engine to hand raw bytes to the embedding worker.
func (s *Store) DownloadToBuffer(ctx context.Context, key string) ([]byte, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: &s.container,
		Key:    &key,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to download object %s: %w", key, err)
	}
	defer out.Body.Close()

	buf, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read object body %s: %w", key, err)
	}
	return buf, nil
}

// DownloadToFile streams key's content to a local file path, used by admin
// tooling that needs a filesystem handle (e.g. re-running EXIF extraction).
func (s *Store) DownloadToFile(ctx context.Context, key, destPath string) error {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: &s.container,
		Key:    &key,
	})
	if err != nil {
		return fmt.Errorf("failed to download object %s: %w", key, err)
	}
	defer out.Body.Close()

	f, err := os.Create(destPath)
	if err != nil {
		return fmt.Errorf("failed to create destination file %s: %w", destPath, err)
	}
	defer f.Close()

	if _, err := io.Copy(f, out.Body); err != nil {
		return fmt.Errorf("failed to write object %s to %s: %w", key, destPath, err)
	}
	return nil
}

// PublicURL returns the CDN-fronted URL for a blob name (spec.md §4.2:
// "publicUrl(name) returns {cdnBase}/{container}/{name}").
func (s *Store) PublicURL(name string) string {
	return fmt.Sprintf("%s/%s/%s", s.cdnBase, s.container, name)
}
