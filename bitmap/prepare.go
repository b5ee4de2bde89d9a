package bitmap

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io/fs"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

// FromResource decodes the named image from fsys and fits it into
// maxWidth.  The header is probed first, so that the pixel budget and the
// sub-sampling factor are known before any pixels are decoded.  Sources
// that are at least twice as wide as maxWidth are reduced by an integer
// factor first, then scaled precisely.
func (p *Pipeline) FromResource(fsys fs.FS, name string, maxWidth int) (image.Image, error) {
	if fsys == nil {
		return nil, fmt.Errorf("%w: no filesystem", ErrUnavailable)
	}
	cfg, err := probe(fsys, name)
	if err != nil {
		return nil, err
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("%w: %s: empty image", ErrUnavailable, name)
	}
	// the standard decoders allocate the full frame, there is no decode time
	// sub-sampling.
	if err := p.reserve(cfg.Width, cfg.Height); err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	img, err := decode(fsys, name)
	if err != nil {
		return nil, err
	}
	if n := SubsampleFactor(cfg.Width, maxWidth); n > 1 {
		img = Subsample(img, n)
	}
	return p.FitWidth(img, maxWidth)
}

func probe(fsys fs.FS, name string) (image.Config, error) {
	f, err := fsys.Open(name)
	if err != nil {
		return image.Config{}, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer f.Close()
	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return image.Config{}, fmt.Errorf("%w: %s: %w", ErrUnavailable, name, err)
	}
	return cfg, nil
}

func decode(fsys fs.FS, name string) (image.Image, error) {
	f, err := fsys.Open(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrUnavailable, name, err)
	}
	return img, nil
}

// FromDrawable rasterises d at its intrinsic size and fits it into
// maxWidth.  Opaque drawables are rendered to a grayscale bitmap, others to
// a bitmap with an alpha channel.
func (p *Pipeline) FromDrawable(d Drawable, maxWidth int) (image.Image, error) {
	if d == nil {
		return nil, fmt.Errorf("%w: no drawable", ErrUnavailable)
	}
	sz := d.Size()
	if sz.X <= 0 || sz.Y <= 0 {
		return nil, fmt.Errorf("%w: drawable size %v", ErrUnavailable, sz)
	}
	if err := p.reserve(sz.X, sz.Y); err != nil {
		return nil, err
	}
	img := newCanvas(image.Rectangle{Max: sz}, d.Opaque())
	d.Draw(img)
	return p.FitWidth(img, maxWidth)
}

// FromBitmap scales an in-memory image.  Unless the pipeline is Strict, the
// image is scaled by maxWidth/w when it is NOT wider than maxWidth (which
// enlarges narrow images to the full width) and left unscaled otherwise.
func (p *Pipeline) FromBitmap(img image.Image, maxWidth int) (image.Image, error) {
	if img == nil {
		return nil, fmt.Errorf("%w: no bitmap", ErrUnavailable)
	}
	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, fmt.Errorf("%w: bitmap size %v", ErrUnavailable, b.Size())
	}
	if p.Strict {
		return p.FitWidth(img, maxWidth)
	}
	scale := 1.0
	if maxWidth <= 0 || b.Dx() <= maxWidth {
		scale = float64(maxWidth) / float64(b.Dx())
	}
	return p.ScaleBy(img, scale)
}
