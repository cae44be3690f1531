// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

// Package testinfra provides shared test infrastructure: a real-DuckDB-file
// helper usable in any package's ordinary unit tests, plus container-backed
// integration tests for the one external dependency this module cannot
// fake convincingly, the S3-compatible Blob Store Gateway (C2).
//
// # Real DuckDB files
//
// NewTestDB opens a DuckDB file under t.TempDir(), the same convention
// every domain package's own tests already follow, so package-level tests
// exercise the real pragma/extension behavior rather than a stub:
//
//	func TestSomething(t *testing.T) {
//	    db := testinfra.NewTestDB(t)
//	    // ... use db ...
//	}
//
// # MinIO container (build tag "integration")
//
// NewMinIOContainer starts a MinIO container and returns a config.BlobConfig
// builder for internal/blobstore.Store, which is S3-compatible and doesn't
// distinguish MinIO from AWS S3 or Cloudflare R2 behind its ConnectionURL:
//
//	func TestStore_PutDownloadDelete(t *testing.T) {
//	    testinfra.SkipIfNoDocker(t)
//	    minio, err := testinfra.NewMinIOContainer(ctx)
//	    ...
//	    store, err := blobstore.New(ctx, minio.BlobConfig("my-bucket"))
//	}
//
// The container-backed helpers (containers.go, minio.go) are gated behind
// the "integration" build tag and require Docker; SkipIfNoDocker lets those
// tests skip gracefully instead of failing in environments without it.
package testinfra
