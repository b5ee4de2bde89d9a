// Command mkimage writes PNG previews of the test patterns, as the printer
// would print them.
package main

import (
	"flag"
	"fmt"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/rusq/escprint/bitmap"
	"github.com/rusq/escprint/escpos"
)

var (
	outdir = flag.String("d", filepath.Join("..", "..", "media"), "Output `directory` for the images")
	width  = flag.Int("w", 384, "Printable width in `dots`")
	dither = flag.String("dither", "", "Dithering `algorithm`")
)

func main() {
	flag.Parse()

	if err := run(*outdir, *width, *dither); err != nil {
		slog.Error("mkimage", "err", err)
		os.Exit(1)
	}
}

func run(dir string, width int, ditherName string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	var enc escpos.Encoder
	if ditherName != "" {
		fn, ok := bitmap.DitherFunction(ditherName)
		if !ok {
			return fmt.Errorf("unknown dither function %q, available: %v", ditherName, bitmap.AllDitherFunctions())
		}
		enc.Dither = fn
		enc.Gamma = bitmap.DefaultGamma
	}
	var pl bitmap.Pipeline
	for _, name := range bitmap.AllPatterns() {
		filename := filepath.Join(dir, name+".png")
		if err := mkimage(filename, &pl, enc, name, width); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		slog.Info("image created", "filename", filename)
	}
	return nil
}

func mkimage(filename string, pl *bitmap.Pipeline, enc escpos.Encoder, name string, width int) error {
	dr, ok := bitmap.Pattern(name, width)
	if !ok {
		return fmt.Errorf("unknown pattern")
	}
	img, err := pl.FromDrawable(dr, width)
	if err != nil {
		return err
	}
	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	if err := png.Encode(f, enc.Bilevel(img)); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
