// Package bitmap prepares images for raster printing: scaling to the paper
// width, rasterising drawables, dithering and composing pages.
package bitmap

import (
	"image"
	"image/color"
	"math"

	"golang.org/x/image/draw"
)

const (
	// DefaultThreshold is the default threshold for dark pixels.
	DefaultThreshold = 128
	// DefaultGamma is a special value that instructs to use the default gamma
	// for the diffuse algorithm.
	DefaultGamma = 0.0
)

// PixelBit reports whether the pixel at (x, y) should be printed, i.e. is
// darker than threshold.  Points outside of the image bounds are paper.
func PixelBit(img image.Image, x, y int, threshold uint8) bool {
	if threshold == 0 {
		threshold = DefaultThreshold
	}
	if !image.Pt(x, y).In(img.Bounds()) {
		return false // padding
	}
	return ColorToGray(img.At(x, y)) < threshold
}

// ColorToGray returns the luma of c.  Transparent pixels are treated as they
// would look on paper, so c should be opaque, see [Flatten].
func ColorToGray(c color.Color) uint8 {
	if gray, ok := c.(color.Gray); ok {
		return gray.Y
	}
	r, g, b, _ := c.RGBA()
	gray := (299*r + 587*g + 114*b) / 1000
	return uint8(gray >> 8)
}

// IsOpaque reports whether img is known to have no transparent pixels.
func IsOpaque(img image.Image) bool {
	if o, ok := img.(interface{ Opaque() bool }); ok {
		return o.Opaque()
	}
	return false
}

// Flatten composites img over white paper.  Opaque images are returned as
// is.
func Flatten(img image.Image) image.Image {
	if img == nil || IsOpaque(img) {
		return img
	}
	b := img.Bounds()
	dst := image.NewRGBA(b)
	draw.Draw(dst, b, image.White, image.Point{}, draw.Src)
	draw.Draw(dst, b, img, b.Min, draw.Over)
	return dst
}

// IsDocument reports whether the image looks like a scanned document or a
// line art, i.e. most of its pixels are either very dark or very light.
// Such images print better without dithering.  Zero thresholds select the
// defaults of 50 and 200.
func IsDocument(img image.Image, darkThreshold, lightThreshold uint8) bool {
	if img == nil {
		return false
	}
	if darkThreshold == 0 {
		darkThreshold = 50
	}
	if lightThreshold == 0 {
		lightThreshold = 200
	}
	bounds := img.Bounds()
	dst := image.NewGray(bounds)
	draw.Draw(dst, bounds, Flatten(img), bounds.Min, draw.Src)

	histogram := make([]int, math.MaxUint8+1)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			histogram[dst.GrayAt(x, y).Y]++
		}
	}
	var dark, light, total float64
	for i, count := range histogram {
		total += float64(count)
		if i < int(darkThreshold) {
			dark += float64(count)
		} else if i >= int(lightThreshold) {
			light += float64(count)
		}
	}
	if total == 0 {
		return false
	}
	return (dark+light)/total > 0.85
}
