package escprint

import "unicode"

// doubleWidth lists the blocks that occupy two character cells on the
// printer.  This is a fixed block table, not the East Asian Width property:
// it must not change when the Unicode tables of the toolchain do.
var doubleWidth = &unicode.RangeTable{
	R16: []unicode.Range16{
		{Lo: 0x2000, Hi: 0x206f, Stride: 1}, // General Punctuation
		{Lo: 0x3000, Hi: 0x303f, Stride: 1}, // CJK Symbols and Punctuation
		{Lo: 0x3400, Hi: 0x4dbf, Stride: 1}, // CJK Unified Ideographs Extension A
		{Lo: 0x4e00, Hi: 0x9fff, Stride: 1}, // CJK Unified Ideographs
		{Lo: 0xf900, Hi: 0xfaff, Stride: 1}, // CJK Compatibility Ideographs
		{Lo: 0xff00, Hi: 0xffef, Stride: 1}, // Halfwidth and Fullwidth Forms
	},
	R32: []unicode.Range32{
		{Lo: 0x20000, Hi: 0x2a6df, Stride: 1}, // CJK Unified Ideographs Extension B
	},
}

// IsDoubleWidth reports whether r takes two character cells.
func IsDoubleWidth(r rune) bool {
	return unicode.Is(doubleWidth, r)
}

// DisplayWidth returns the number of character cells text occupies on the
// printer line.  Each code point counts as 1, or 2 if [IsDoubleWidth].
func DisplayWidth(text string) int {
	var width int
	for _, r := range text {
		if IsDoubleWidth(r) {
			width += 2
		} else {
			width++
		}
	}
	return width
}
