package bitmap

import (
	"image"
	"image/color"
	"math"
	"sort"

	"golang.org/x/image/draw"
)

// patterns maps a test pattern name to a constructor taking the printable
// width in dots.
var patterns = map[string]func(width int) Drawable{
	"stairs":   stairs,
	"ruler":    ruler,
	"sine":     sine,
	"checkers": checkers,
}

// Pattern returns the named test pattern, sized for the printable width.
func Pattern(name string, width int) (Drawable, bool) {
	fn, ok := patterns[name]
	if !ok || width <= 0 {
		return nil, false
	}
	return fn(width), true
}

// AllPatterns returns sorted test pattern names.
func AllPatterns() []string {
	names := make([]string, 0, len(patterns))
	for k := range patterns {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// stairs prints 8 lines, each 2 dots high, with every other dot set and
// shifted by one dot per line, so that the whole print head fires:
//
//	| | | |
//	 | | | |
//	  | | | |
func stairs(width int) Drawable {
	return Func{Width: width, Height: 16, Render: func(dst draw.Image) {
		for y := 0; y < 8; y++ {
			for x := 0; x < width; x++ {
				if (x+y)%2 == 0 {
					dst.Set(x, y*2, color.Black)
					dst.Set(x, y*2+1, color.Black)
				}
			}
		}
	}}
}

// ruler draws 8 dot dashes every 40 dots, each row shifted by 8 dots, a
// running pattern that shows the horizontal resolution.
func ruler(width int) Drawable {
	return Func{Width: width, Height: 48, Render: func(dst draw.Image) {
		for y := 0; y < 48; y++ {
			for x := (y * 8) % 40; x < width; x += 40 {
				for x1 := x; x1 < x+8 && x1 < width; x1++ {
					dst.Set(x1, y, color.Black)
				}
			}
		}
	}}
}

// sine draws a one dot sine wave with a period of 100 dots.
func sine(width int) Drawable {
	return Func{Width: width, Height: 64, Render: func(dst draw.Image) {
		for x := 0; x < width; x++ {
			y := int(32 + 30*math.Sin(float64(x)*2*math.Pi/100))
			dst.Set(x, y, color.Black)
		}
	}}
}

// checkers draws 8x8 dot squares, aligned to the raster bytes.
func checkers(width int) Drawable {
	const sq = 8
	return Func{Width: width, Height: 4 * sq, Render: func(dst draw.Image) {
		for y := 0; y < 4*sq; y += sq {
			for x := 0; x < width; x += sq {
				if (x/sq+y/sq)%2 == 0 {
					draw.Draw(dst, image.Rect(x, y, x+sq, y+sq), image.Black, image.Point{}, draw.Src)
				}
			}
		}
	}}
}
