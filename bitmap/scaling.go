package bitmap

import (
	"errors"
	"fmt"
	"image"
	"math"

	"github.com/disintegration/imaging"
	"github.com/nfnt/resize"
	"golang.org/x/image/draw"
)

// DefaultMaxPixels is the pixel budget of a zero [Pipeline].
const DefaultMaxPixels = 16 << 20

var (
	// ErrUnavailable means the image is missing, cannot be decoded, or has
	// zero dimension.
	ErrUnavailable = errors.New("image unavailable")
	// ErrExhausted means a bitmap allocation would exceed the pixel budget.
	ErrExhausted = errors.New("image exceeds pixel budget")
)

// Pipeline turns image sources into bitmaps no wider than the printable
// width.  The zero value is ready to use.
type Pipeline struct {
	// MaxPixels is the largest bitmap the pipeline is allowed to allocate.
	// Zero means DefaultMaxPixels.
	MaxPixels int
	// Filter is the resampling filter of the precise stage.  The zero value
	// selects imaging.Linear.
	Filter imaging.ResampleFilter
	// Strict makes FromBitmap fit the width like the other adapters.
	Strict bool
}

func (p *Pipeline) filter() imaging.ResampleFilter {
	if p.Filter.Support == 0 && p.Filter.Kernel == nil {
		return imaging.Linear
	}
	return p.Filter
}

// reserve checks that a w x h bitmap fits the pixel budget.
func (p *Pipeline) reserve(w, h int) error {
	limit := int64(p.MaxPixels)
	if limit <= 0 {
		limit = DefaultMaxPixels
	}
	if int64(w)*int64(h) > limit {
		return fmt.Errorf("%w: %dx%d, limit %d pixels", ErrExhausted, w, h, limit)
	}
	return nil
}

// ScaleBy scales img uniformly, the result is round(w*scale) x
// round(h*scale).  A scale that produces an empty image returns
// ErrUnavailable.
func (p *Pipeline) ScaleBy(img image.Image, scale float64) (image.Image, error) {
	b := img.Bounds()
	w := int(math.Round(float64(b.Dx()) * scale))
	h := int(math.Round(float64(b.Dy()) * scale))
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("%w: scale %g gives %dx%d", ErrUnavailable, scale, w, h)
	}
	if w == b.Dx() && h == b.Dy() {
		return img, nil
	}
	if err := p.reserve(w, h); err != nil {
		return nil, err
	}
	return imaging.Resize(img, w, h, p.filter()), nil
}

// FitWidth is the precise stage: images wider than maxWidth are scaled down
// to exactly maxWidth, everything else passes through.  Non-positive
// maxWidth means no limit.
func (p *Pipeline) FitWidth(img image.Image, maxWidth int) (image.Image, error) {
	w := img.Bounds().Dx()
	if maxWidth <= 0 || w <= maxWidth {
		return img, nil
	}
	return p.ScaleBy(img, float64(maxWidth)/float64(w))
}

// SubsampleFactor returns the integer reduction applied by the coarse stage
// to a source w pixels wide.  It returns 1 when no reduction is needed.
func SubsampleFactor(w, maxWidth int) int {
	if maxWidth <= 0 || w <= maxWidth {
		return 1
	}
	if n := w / maxWidth; n >= 2 {
		return n
	}
	return 1
}

// Subsample reduces img by the integer factor n using nearest neighbour
// sampling, the result is ceil(w/n) x ceil(h/n).
func Subsample(img image.Image, n int) image.Image {
	if n < 2 {
		return img
	}
	b := img.Bounds()
	w := (b.Dx() + n - 1) / n
	h := (b.Dy() + n - 1) / n
	return resize.Resize(uint(w), uint(h), img, resize.NearestNeighbor)
}

// ResizeCanvasY grows the destination image to the new height, filling the
// new area with white.  If the new height is not larger than the current
// one, it returns the original image.
func ResizeCanvasY(dst *image.RGBA, newHeight int) *image.RGBA {
	if newHeight <= dst.Bounds().Dy() {
		return dst
	}
	newRect := image.Rect(0, 0, dst.Bounds().Dx(), newHeight)
	newImg := image.NewRGBA(newRect)
	draw.Draw(newImg, newRect, image.White, image.Point{}, draw.Src)
	draw.Draw(newImg, dst.Bounds(), dst, image.Point{}, draw.Src)
	return newImg
}
