package bitmap

import (
	"image"
	"strings"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
)

var replacer = strings.NewReplacer("\t", strings.Repeat(" ", 8))

// TextDrawable renders text with a font face, black on white, one line per
// "\n".  It is used to print text that the printer's character generator
// cannot, such as large banners or scripts missing from its code page.
type TextDrawable struct {
	Text string
	Face font.Face
	// Width is the bitmap width, zero means the width of the longest line.
	Width int
}

func (t TextDrawable) lines() []string {
	return strings.Split(replacer.Replace(t.Text), "\n")
}

func (t TextDrawable) Size() image.Point {
	if t.Face == nil || t.Text == "" {
		return image.Point{}
	}
	lines := t.lines()
	height := len(lines) * t.Face.Metrics().Height.Ceil()
	width := t.Width
	if width <= 0 {
		for _, line := range lines {
			width = max(width, font.MeasureString(t.Face, line).Ceil())
		}
	}
	return image.Pt(width, height)
}

func (t TextDrawable) Opaque() bool { return true }

func (t TextDrawable) Draw(dst draw.Image) {
	draw.Draw(dst, dst.Bounds(), image.White, image.Point{}, draw.Src)
	if t.Face == nil {
		return
	}
	m := t.Face.Metrics()
	d := font.Drawer{
		Dst:  dst,
		Src:  image.Black,
		Face: t.Face,
		Dot:  fixed.P(0, m.Ascent.Ceil()),
	}
	for _, line := range t.lines() {
		d.DrawString(line)
		d.Dot.X = 0
		d.Dot.Y += m.Height
	}
}
