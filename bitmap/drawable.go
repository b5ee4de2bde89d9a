package bitmap

import (
	"image"

	"golang.org/x/image/draw"
)

// Drawable is a vector or raster source that can render itself at its
// intrinsic size.
type Drawable interface {
	// Size returns the intrinsic size in dots.
	Size() image.Point
	// Opaque reports whether Draw covers every pixel with an opaque colour.
	Opaque() bool
	// Draw renders onto dst, whose bounds are (0,0)-Size().
	Draw(dst draw.Image)
}

// newCanvas returns a bitmap for rendering a drawable.  Opaque drawables get
// a single channel grayscale bitmap.
func newCanvas(r image.Rectangle, opaque bool) draw.Image {
	if opaque {
		return image.NewGray(r)
	}
	return image.NewNRGBA(r)
}

// ImageDrawable adapts an image.Image to a Drawable.
type ImageDrawable struct {
	Image image.Image
}

// NewImageDrawable wraps img.
func NewImageDrawable(img image.Image) ImageDrawable {
	return ImageDrawable{Image: img}
}

func (d ImageDrawable) Size() image.Point {
	if d.Image == nil {
		return image.Point{}
	}
	return d.Image.Bounds().Size()
}

func (d ImageDrawable) Opaque() bool {
	return d.Image != nil && IsOpaque(d.Image)
}

func (d ImageDrawable) Draw(dst draw.Image) {
	if d.Image == nil {
		return
	}
	draw.Draw(dst, dst.Bounds(), d.Image, d.Image.Bounds().Min, draw.Src)
}

// Func is a Drawable backed by a plain image constructor, such as the test
// patterns.
type Func struct {
	Width, Height int
	Render        func(dst draw.Image)
}

func (f Func) Size() image.Point { return image.Pt(f.Width, f.Height) }
func (f Func) Opaque() bool      { return true }
func (f Func) Draw(dst draw.Image) {
	draw.Draw(dst, dst.Bounds(), image.White, image.Point{}, draw.Src)
	if f.Render != nil {
		f.Render(dst)
	}
}
