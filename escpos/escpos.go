// Package escpos encodes printer operations as ESC/POS byte sequences.
package escpos

import (
	"image"

	"github.com/rusq/escprint/bitmap"
)

// Control bytes.
const (
	ESC byte = 0x1b
	GS  byte = 0x1d
	LF  byte = 0x0a
)

// Alignment modes of ESC a.
const (
	AlignLeft byte = iota
	AlignCenter
	AlignRight
)

// maxFontLevel is the largest magnification accepted by FontSizeSetBig.
const maxFontLevel = 7

// Encoder produces ESC/POS command sequences.  The zero value is ready to
// use and converts images to black and white with the default threshold.
type Encoder struct {
	// Threshold is the luma below which a pixel is printed.  Zero means
	// bitmap.DefaultThreshold.
	Threshold uint8
	// Dither is applied before thresholding, nil means none.
	Dither bitmap.DitherFunc
	// Gamma is passed to Dither.
	Gamma float64
	// AutoDither skips Dither for document-like images.
	AutoDither bool
	// BandHeight splits raster images into several GS v 0 commands of at
	// most BandHeight rows, for printers with a small receive buffer.  Zero
	// sends the image as one command.
	BandHeight int
}

func (Encoder) InitPrinter() []byte { return []byte{ESC, '@'} }

func (Encoder) AlignLeft() []byte   { return []byte{ESC, 'a', AlignLeft} }
func (Encoder) AlignCenter() []byte { return []byte{ESC, 'a', AlignCenter} }
func (Encoder) AlignRight() []byte  { return []byte{ESC, 'a', AlignRight} }

func (Encoder) EmphasizedOn() []byte  { return []byte{ESC, 'E', 1} }
func (Encoder) EmphasizedOff() []byte { return []byte{ESC, 'E', 0} }

// FontSizeSetBig sets equal width and height magnification of level+1.
// Levels outside of 0..7 select the normal size.
func (Encoder) FontSizeSetBig(level int) []byte {
	var n byte
	if 0 <= level && level <= maxFontLevel {
		n = byte(level) * 0x11
	}
	return []byte{GS, '!', n}
}

// PrintLineHeight sets the line spacing to height motion units.
func (Encoder) PrintLineHeight(height byte) []byte { return []byte{ESC, '3', height} }

func (Encoder) PrintLineFeed() []byte { return []byte{LF} }

// FeedPaperCut feeds the paper to the cutter and makes a full cut.
func (Encoder) FeedPaperCut() []byte { return []byte{GS, 'V', 'A', 0} }

// FeedPaperCutPartial feeds the paper to the cutter and makes a partial cut.
func (Encoder) FeedPaperCutPartial() []byte { return []byte{GS, 'V', 'B', 0} }

// Bilevel converts img to black and white paper, as it is going to be
// printed.
func (e Encoder) Bilevel(img image.Image) image.Image {
	threshold := bitmap.DitherThresholdFn(e.Threshold)
	if e.Dither == nil || (e.AutoDither && bitmap.IsDocument(img, 0, 0)) {
		return threshold(img, e.Gamma)
	}
	return threshold(e.Dither(img, e.Gamma), e.Gamma)
}
