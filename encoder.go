package escprint

import "image"

// Encoder translates printer operations to the device command language.
// Every method returns a fresh byte sequence that the [Writer] appends to
// its buffer in call order.
type Encoder interface {
	InitPrinter() []byte
	AlignLeft() []byte
	AlignCenter() []byte
	AlignRight() []byte
	EmphasizedOn() []byte
	EmphasizedOff() []byte
	FontSizeSetBig(level int) []byte
	PrintLineHeight(height byte) []byte
	PrintLineFeed() []byte
	FeedPaperCut() []byte
	FeedPaperCutPartial() []byte
	// DecodeBitmap returns the raster command for a prepared image, or nil
	// if the image cannot be encoded.
	DecodeBitmap(img image.Image) []byte
}
