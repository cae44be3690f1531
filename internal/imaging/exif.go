// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package imaging

import (
	"bytes"
	"fmt"
	"time"

	"github.com/dsoprea/go-exif/v3"
	exifcommon "github.com/dsoprea/go-exif/v3/common"
	jis "github.com/dsoprea/go-jpeg-image-structure/v2"
)

// embedEXIF sets the IFD0 tags spec.md §4.3 requires and returns jpegBytes
// with the EXIF segment injected.
func embedEXIF(jpegBytes []byte, creatorName, cityName string, now time.Time) ([]byte, error) {
	artist := creatorName
	if artist == "" {
		artist = "Anonymous"
	}

	im, err := exifcommon.NewIfdMappingWithStandard()
	if err != nil {
		return nil, fmt.Errorf("failed to build ifd mapping: %w", err)
	}
	ti := exif.NewTagIndex()

	rootIb := exif.NewIfdBuilder(im, ti, exifcommon.IfdStandardIfdIdentity, exifcommon.EncodeDefaultByteOrder)

	if err := rootIb.AddStandardWithName("Software", "Cities: Skylines II, Hall of Fame Mod"); err != nil {
		return nil, fmt.Errorf("failed to set Software tag: %w", err)
	}
	if err := rootIb.AddStandardWithName("Artist", artist); err != nil {
		return nil, fmt.Errorf("failed to set Artist tag: %w", err)
	}
	if err := rootIb.AddStandardWithName("ImageDescription", cityName); err != nil {
		return nil, fmt.Errorf("failed to set ImageDescription tag: %w", err)
	}
	if err := rootIb.AddStandardWithName("DateTime", now.Format("2006:01:02 15:04:05")); err != nil {
		return nil, fmt.Errorf("failed to set DateTime tag: %w", err)
	}

	jmp := jis.NewJpegMediaParser()
	sl, err := jmp.ParseBytes(jpegBytes)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse jpeg structure: %v", errInvalidImageFormat, err)
	}

	segmentList, ok := sl.(*jis.SegmentList)
	if !ok {
		return nil, fmt.Errorf("%w: unexpected jpeg segment list type", errInvalidImageFormat)
	}

	if err := segmentList.SetExif(rootIb); err != nil {
		return nil, fmt.Errorf("failed to set exif segment: %w", err)
	}

	var buf bytes.Buffer
	if err := segmentList.Write(&buf); err != nil {
		return nil, fmt.Errorf("failed to write jpeg with exif: %w", err)
	}
	return buf.Bytes(), nil
}
