package bitmap

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gradient(w, h int) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetGray(x, y, color.Gray{Y: uint8(x * 255 / (w - 1))})
		}
	}
	return img
}

func assertBilevel(t *testing.T, img image.Image) {
	t.Helper()
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			g := ColorToGray(img.At(x, y))
			if g != 0 && g != 255 {
				t.Fatalf("pixel (%d,%d) = %d, want black or white", x, y, g)
			}
		}
	}
}

func TestDitherFunctions(t *testing.T) {
	src := gradient(64, 16)
	for _, name := range AllDitherFunctions() {
		t.Run(name, func(t *testing.T) {
			fn, ok := DitherFunction(name)
			require.True(t, ok)
			got := fn(src, DefaultGamma)
			assert.Equal(t, src.Bounds().Size(), got.Bounds().Size())
			assertBilevel(t, got)

			black := fn(testColorImage(image.Rect(0, 0, 16, 16), color.Black), DefaultGamma)
			white := fn(testColorImage(image.Rect(0, 0, 16, 16), color.White), DefaultGamma)
			for y := 0; y < 16; y++ {
				for x := 0; x < 16; x++ {
					assert.True(t, PixelBit(black, x, y, DefaultThreshold), "black (%d,%d)", x, y)
					assert.False(t, PixelBit(white, x, y, DefaultThreshold), "white (%d,%d)", x, y)
				}
			}
		})
	}
}

func TestDitherFunction(t *testing.T) {
	fn, ok := DitherFunction("")
	assert.True(t, ok)
	assert.NotNil(t, fn)

	_, ok = DitherFunction("no-such-thing")
	assert.False(t, ok)
}

func TestAllDitherFunctions(t *testing.T) {
	assert.Equal(t, []string{"atkinson", "bayer", "floyd-steinberg", "halfgone", "no-dither", "stucki"}, AllDitherFunctions())
}

func TestRegisterDitherFunction(t *testing.T) {
	assert.Panics(t, func() { RegisterDitherFunction("", DitherDefault) })
	assert.Panics(t, func() { RegisterDitherFunction("test-nil", nil) })
	assert.Panics(t, func() { RegisterDitherFunction("atkinson", DitherDefault) })

	RegisterDitherFunction("test-invert", func(img image.Image, _ float64) image.Image { return img })
	t.Cleanup(func() { delete(ditherFunctions, "test-invert") })
	_, ok := DitherFunction("test-invert")
	assert.True(t, ok)
}

func TestDitherThresholdFn(t *testing.T) {
	t.Run("transparent is paper", func(t *testing.T) {
		src := image.NewNRGBA(image.Rect(0, 0, 4, 4))
		got := DitherThresholdFn(DefaultThreshold)(src, DefaultGamma)
		for y := 0; y < 4; y++ {
			for x := 0; x < 4; x++ {
				assert.False(t, PixelBit(got, x, y, DefaultThreshold))
			}
		}
	})
	t.Run("threshold splits", func(t *testing.T) {
		src := gradient(256, 1)
		got := DitherThresholdFn(100)(src, DefaultGamma)
		assert.True(t, PixelBit(got, 99, 0, DefaultThreshold))
		assert.False(t, PixelBit(got, 100, 0, DefaultThreshold))
	})
	t.Run("keeps offset bounds", func(t *testing.T) {
		src := image.NewGray(image.Rect(10, 10, 14, 12))
		got := DitherThresholdFn(0)(src, DefaultGamma)
		assert.Equal(t, src.Bounds(), got.Bounds())
		assert.True(t, PixelBit(got, 10, 10, 0))
	})
}
