package bitmap

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/font/basicfont"
)

func hasInk(img image.Image) bool {
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if PixelBit(img, x, y, DefaultThreshold) {
				return true
			}
		}
	}
	return false
}

func TestImageDrawable(t *testing.T) {
	t.Run("nil image", func(t *testing.T) {
		var d ImageDrawable
		assert.Equal(t, image.Point{}, d.Size())
		assert.False(t, d.Opaque())
	})
	t.Run("opaque", func(t *testing.T) {
		d := NewImageDrawable(testColorImage(image.Rect(0, 0, 3, 2), color.Black))
		assert.Equal(t, image.Pt(3, 2), d.Size())
		assert.True(t, d.Opaque())
	})
	t.Run("offset source is drawn at the origin", func(t *testing.T) {
		src := image.NewGray(image.Rect(5, 5, 7, 7))
		d := NewImageDrawable(src)
		dst := image.NewGray(image.Rectangle{Max: d.Size()})
		for i := range dst.Pix {
			dst.Pix[i] = 0xff
		}
		d.Draw(dst)
		assert.Equal(t, []uint8{0, 0, 0, 0}, dst.Pix)
	})
}

func TestTextDrawable(t *testing.T) {
	face := basicfont.Face7x13
	tests := []struct {
		name string
		d    TextDrawable
		want image.Point
	}{
		{"single line", TextDrawable{Text: "ab", Face: face}, image.Pt(14, 13)},
		{"longest line wins", TextDrawable{Text: "ab\nabcd", Face: face}, image.Pt(28, 26)},
		{"fixed width", TextDrawable{Text: "ab", Face: face, Width: 384}, image.Pt(384, 13)},
		{"tab expands", TextDrawable{Text: "\tx", Face: face}, image.Pt(63, 13)},
		{"no face", TextDrawable{Text: "ab"}, image.Point{}},
		{"no text", TextDrawable{Face: face}, image.Point{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.d.Size())
		})
	}
}

func TestTextDrawable_rendersInk(t *testing.T) {
	var p Pipeline
	img, err := p.FromDrawable(TextDrawable{Text: "Hello", Face: basicfont.Face7x13}, 384)
	require.NoError(t, err)
	assert.IsType(t, &image.Gray{}, img)
	assert.True(t, hasInk(img))
}

func TestPattern(t *testing.T) {
	for _, name := range AllPatterns() {
		t.Run(name, func(t *testing.T) {
			d, ok := Pattern(name, 384)
			require.True(t, ok)
			assert.Equal(t, 384, d.Size().X)
			assert.True(t, d.Opaque())
			var p Pipeline
			img, err := p.FromDrawable(d, 384)
			require.NoError(t, err)
			assert.True(t, hasInk(img))
		})
	}
	_, ok := Pattern("nonexistent", 384)
	assert.False(t, ok)
	_, ok = Pattern("stairs", 0)
	assert.False(t, ok)
}
