package bitmap

import (
	"image"
	"image/color"
	"sort"

	"github.com/MaxHalford/halfgone"
	"github.com/disintegration/imaging"
	"github.com/makeworld-the-better-one/dither/v2"
	"golang.org/x/image/draw"
)

// DitherFunc converts img to black and white.  gamma is applied before
// dithering, [DefaultGamma] selects the function's own default.
type DitherFunc func(img image.Image, gamma float64) image.Image

var bwPalette = color.Palette{color.Black, color.White}

var ditherFunctions = map[string]DitherFunc{
	"floyd-steinberg": DFloydSteinberg,
	"atkinson":        DAtkinson,
	"stucki":          DStucki,
	"bayer":           DBayer,
	"halfgone":        DHalfgone,
	"no-dither":       DitherThresholdFn(DefaultThreshold),
}

// DitherFunction returns a registered dither function by name.  Empty name
// returns [DitherDefault].
func DitherFunction(name string) (DitherFunc, bool) {
	if name == "" {
		return DitherDefault, true
	}
	fn, ok := ditherFunctions[name]
	return fn, ok
}

// RegisterDitherFunction allows to register a new dither function by name.
// It panics if the name is empty or taken, or fn is nil.
func RegisterDitherFunction(name string, fn DitherFunc) {
	if name == "" {
		panic("dither function name cannot be empty")
	}
	if fn == nil {
		panic("dither function cannot be nil")
	}
	if _, exists := ditherFunctions[name]; exists {
		panic("dither function already registered: " + name)
	}
	ditherFunctions[name] = fn
}

// AllDitherFunctions returns a sorted list of all available dither function
// names.
func AllDitherFunctions() []string {
	keys := make([]string, 0, len(ditherFunctions))
	for k := range ditherFunctions {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// DitherDefault is the default dither function.
func DitherDefault(img image.Image, gamma float64) image.Image {
	return DFloydSteinberg(img, gamma)
}

// adjust flattens img onto paper and applies gamma.  The result always
// starts at the origin.
func adjust(img image.Image, gamma float64) *image.NRGBA {
	return imaging.AdjustGamma(Flatten(img), gamma)
}

// diffusionDither returns a dither function that applies error diffusion
// with the matrix, using defaultGamma when called with [DefaultGamma].
func diffusionDither(matrix dither.ErrorDiffusionMatrix, defaultGamma float64) DitherFunc {
	return func(img image.Image, gamma float64) image.Image {
		if gamma == DefaultGamma {
			gamma = defaultGamma
		}
		src := adjust(img, gamma)
		dithered := image.NewRGBA(src.Bounds())
		d := dither.NewDitherer(bwPalette)
		d.Matrix = matrix
		d.Draw(dithered, dithered.Bounds(), src, image.Point{})
		return dithered
	}
}

// patternDither returns an ordered dither function using the pixel mapper.
func patternDither(mapper dither.PixelMapper, defaultGamma float64) DitherFunc {
	return func(img image.Image, gamma float64) image.Image {
		if gamma == DefaultGamma {
			gamma = defaultGamma
		}
		src := adjust(img, gamma)
		dithered := image.NewRGBA(src.Bounds())
		d := dither.NewDitherer(bwPalette)
		d.Mapper = mapper
		d.Draw(dithered, dithered.Bounds(), src, image.Point{})
		return dithered
	}
}

var (
	// DAtkinson applies Atkinson error diffusion dithering with a gamma value of 3.0.
	DAtkinson = diffusionDither(dither.Atkinson, 3.0)
	// DStucki applies Stucki error diffusion dithering with a gamma value of 3.5.
	DStucki = diffusionDither(dither.Stucki, 3.5)
	// DBayer applies Bayer ordered dithering with a gamma value of 3.5.
	DBayer = patternDither(dither.Bayer(8, 8, 1.0), 3.5)
)

// DFloydSteinberg applies Floyd-Steinberg dithering from x/image/draw with
// the default gamma of 1.5.
func DFloydSteinberg(img image.Image, gamma float64) image.Image {
	if gamma == DefaultGamma {
		gamma = 1.5
	}
	src := adjust(img, gamma)
	dithered := image.NewPaletted(src.Bounds(), bwPalette)
	draw.FloydSteinberg.Draw(dithered, dithered.Bounds(), src, image.Point{})
	return dithered
}

// DHalfgone converts the image to grayscale and applies the halfgone
// Floyd-Steinberg ditherer.  The gamma default is 1.0 (unchanged).
func DHalfgone(img image.Image, gamma float64) image.Image {
	if gamma == DefaultGamma {
		gamma = 1.0
	}
	gray := halfgone.ImageToGray(adjust(img, gamma))
	return halfgone.FloydSteinbergDitherer{}.Apply(gray)
}

// DitherThresholdFn returns a function that makes every pixel darker than
// threshold black, and every other pixel white.
func DitherThresholdFn(threshold uint8) DitherFunc {
	if threshold == 0 {
		threshold = DefaultThreshold
	}
	return func(img image.Image, _ float64) image.Image {
		src := Flatten(img)
		b := src.Bounds()
		trg := image.NewPaletted(b, bwPalette)
		for y := b.Min.Y; y < b.Max.Y; y++ {
			for x := b.Min.X; x < b.Max.X; x++ {
				if PixelBit(src, x, y, threshold) {
					trg.SetColorIndex(x, y, 0)
				} else {
					trg.SetColorIndex(x, y, 1)
				}
			}
		}
		return trg
	}
}
