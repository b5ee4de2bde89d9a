package escpos

import (
	"image"
	"math"

	"github.com/rusq/escprint/bitmap"
)

// rasterHeaderSz is the size of "GS v 0 m xL xH yL yH".
const rasterHeaderSz = 8

// DecodeBitmap encodes img as the raster bit image command GS v 0 in normal
// mode.  Rows are packed MSB first, a set bit is a printed dot.  It returns
// nil if there is nothing to print, or if the image is too large to be
// described by the command.
func (e Encoder) DecodeBitmap(img image.Image) []byte {
	if img == nil {
		return nil
	}
	b := img.Bounds()
	width, height := b.Dx(), b.Dy()
	if width <= 0 || height <= 0 {
		return nil
	}
	widthBytes := (width + 7) / 8
	if widthBytes > math.MaxUint16 || height > math.MaxUint16 {
		return nil
	}
	band := e.BandHeight
	if band <= 0 || band > height {
		band = height
	}
	numBands := (height + band - 1) / band

	bw := e.Bilevel(img)
	out := make([]byte, 0, numBands*rasterHeaderSz+widthBytes*height)
	for y0 := 0; y0 < height; y0 += band {
		h := min(band, height-y0)
		out = append(out, GS, 'v', '0', 0,
			byte(widthBytes), byte(widthBytes>>8),
			byte(h), byte(h>>8),
		)
		for y := y0; y < y0+h; y++ {
			out = packRow(out, bw, y, widthBytes)
		}
	}
	return out
}

// packRow appends row y of img (relative to its bounds) as widthBytes bytes.
func packRow(dst []byte, img image.Image, y int, widthBytes int) []byte {
	b := img.Bounds()
	start := len(dst)
	dst = append(dst, make([]byte, widthBytes)...)
	row := dst[start:]
	for x := 0; x < b.Dx(); x++ {
		if bitmap.PixelBit(img, b.Min.X+x, b.Min.Y+y, bitmap.DefaultThreshold) {
			row[x/8] |= 1 << (7 - x%8)
		}
	}
	return dst
}
