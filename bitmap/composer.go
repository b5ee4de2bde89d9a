package bitmap

import (
	"image"

	"golang.org/x/image/draw"
)

// Composer stacks images vertically on a white canvas of fixed width.
type Composer struct {
	dst *image.RGBA // canvas
	sp  image.Point // position of the next image

	pipeline *Pipeline
	crop     bool
}

type ComposerOption func(*Composer)

// WithComposerCrop makes the Composer crop wide images instead of scaling
// them down.
func WithComposerCrop(crop bool) ComposerOption {
	return func(c *Composer) {
		c.crop = crop
	}
}

// WithComposerPipeline sets the pipeline used to scale wide images.
func WithComposerPipeline(p *Pipeline) ComposerOption {
	return func(c *Composer) {
		if p != nil {
			c.pipeline = p
		}
	}
}

func NewComposer(width int, opt ...ComposerOption) *Composer {
	c := &Composer{
		dst:      image.NewRGBA(image.Rect(0, 0, width, 0)),
		pipeline: new(Pipeline),
	}
	for _, o := range opt {
		o(c)
	}
	return c
}

// Append draws img below the previous one.  Images wider than the canvas
// are scaled down, unless the composer crops.
func (c *Composer) Append(img image.Image) error {
	if img == nil {
		return nil
	}
	if c.dst.Bounds().Dx() < img.Bounds().Dx() && !c.crop {
		var err error
		if img, err = c.pipeline.FitWidth(img, c.dst.Bounds().Dx()); err != nil {
			return err
		}
	}
	if h := c.sp.Y + img.Bounds().Dy(); h > c.dst.Bounds().Dy() {
		c.dst = ResizeCanvasY(c.dst, h)
	}
	r := image.Rectangle{Min: c.sp, Max: c.sp.Add(img.Bounds().Size())}
	draw.Draw(c.dst, r, img, img.Bounds().Min, draw.Over)
	c.sp.Y += img.Bounds().Dy()
	return nil
}

// Image returns the composed image.
func (c *Composer) Image() image.Image {
	return c.dst
}

// Bounds returns the canvas rectangle.
func (c *Composer) Bounds() image.Rectangle {
	return c.dst.Bounds()
}
