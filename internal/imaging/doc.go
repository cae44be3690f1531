// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

// Package imaging implements the Image Processor (C3): given raw upload
// bytes it produces the three served JPEG variants (thumbnail, FHD, 4K),
// each resized with golang.org/x/image/draw's bilinear scaler and tagged
// with EXIF IFD0 metadata via dsoprea/go-exif.
package imaging
