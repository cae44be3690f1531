// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

// Package blobstore implements the Blob Store Gateway (C2): an
// S3-compatible object store holding the three JPEG variants of every
// screenshot, fronted by a CDN. The store interface is deliberately narrow
// (PutObject/DeleteObject/DownloadToBuffer/DownloadToFile/PublicURL) so any
// S3-compatible backend -- AWS S3, MinIO, R2 -- can stand behind it.
package blobstore
