// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"time"

	"github.com/tomtom215/cartographus/internal/config"
)

// errInvalidImageFormat is wrapped by decode/parse failures so callers
// (internal/screenshots) can map them to apperr.InvalidImageFormat without
// this package depending on apperr (spec.md §4.3: "Failures in decoding
// surface as invalid-format").
var errInvalidImageFormat = errors.New("invalid image format")

// ErrInvalidImageFormat is the sentinel callers check with errors.Is.
var ErrInvalidImageFormat = errInvalidImageFormat

// Output holds the three re-encoded JPEG variants plus the filename slug
// used to build blob names.
type Output struct {
	Thumbnail []byte
	FHD       []byte
	FourK     []byte
	Slug      string
}

// Processor re-encodes raw upload bytes into the three served variants.
type Processor struct {
	quality int
}

// NewProcessor builds a Processor from the configured JPEG quality
// (spec.md §4.3, default 85).
func NewProcessor(cfg *config.ScreenshotsConfig) *Processor {
	q := cfg.JPEGQuality
	if q <= 0 || q > 100 {
		q = 85
	}
	return &Processor{quality: q}
}

// Process decodes raw, resizes to the three variant dimensions, re-encodes
// as JPEG, and embeds the IFD0 EXIF tags (spec.md §4.3).
func (p *Processor) Process(raw []byte, cityName, creatorName string, now time.Time) (*Output, error) {
	src, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errInvalidImageFormat, err)
	}

	out := &Output{Slug: ContextSlug(cityName, creatorName)}

	variants := Variants()
	for name, dims := range variants {
		resized := resizeTo(src, dims)

		var buf bytes.Buffer
		if err := jpeg.Encode(&buf, resized, &jpeg.Options{Quality: p.quality}); err != nil {
			return nil, fmt.Errorf("failed to encode %s variant: %w", name, err)
		}

		withEXIF, err := embedEXIF(buf.Bytes(), creatorName, cityName, now)
		if err != nil {
			return nil, fmt.Errorf("failed to embed exif in %s variant: %w", name, err)
		}

		switch name {
		case VariantThumbnail:
			out.Thumbnail = withEXIF
		case VariantFHD:
			out.FHD = withEXIF
		case Variant4K:
			out.FourK = withEXIF
		}
	}

	return out, nil
}
