// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package imaging

import (
	"image"
	"image/draw"

	xdraw "golang.org/x/image/draw"
)

// Dimensions is a minimum width/height target. A Variant's dimensions are
// the minimums spec.md §4.3 names; aspect ratio is preserved and the
// source is never enlarged beyond its own dimensions.
type Dimensions struct {
	MinWidth  int
	MinHeight int
}

// Variant names map to the three blob suffixes (spec.md §4.2).
const (
	VariantThumbnail = "thumbnail"
	VariantFHD       = "fhd"
	Variant4K        = "4k"
)

// Variants returns the three target dimensions in blob-suffix order.
func Variants() map[string]Dimensions {
	return map[string]Dimensions{
		VariantThumbnail: {MinWidth: 256, MinHeight: 144},
		VariantFHD:       {MinWidth: 1920, MinHeight: 1080},
		Variant4K:        {MinWidth: 3840, MinHeight: 2160},
	}
}

// resizeTo scales src so it covers at least target's minimum dimensions,
// preserving aspect ratio with overflow on the larger axis, and never
// enlarges beyond the source's own dimensions (spec.md §4.3).
func resizeTo(src image.Image, target Dimensions) image.Image {
	srcW := src.Bounds().Dx()
	srcH := src.Bounds().Dy()

	scale := maxFloat(
		float64(target.MinWidth)/float64(srcW),
		float64(target.MinHeight)/float64(srcH),
	)
	if scale > 1 {
		scale = 1
	}

	dstW := int(float64(srcW) * scale)
	dstH := int(float64(srcH) * scale)
	if dstW < 1 {
		dstW = 1
	}
	if dstH < 1 {
		dstH = 1
	}

	if dstW == srcW && dstH == srcH {
		return src
	}

	dst := image.NewRGBA(image.Rect(0, 0, dstW, dstH))
	xdraw.BiLinear.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Over, nil)
	return dst
}

func maxFloat(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
