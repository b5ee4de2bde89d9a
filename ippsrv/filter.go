package ippsrv

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"log/slog"
	"os/exec"
	"strconv"
)

// Filter converts documents the image decoders don't understand into page
// rasters.  Unlike CUPS filters, the output is always a list of images.
type Filter interface {
	// ToRaster converts the document data, returning one image per page.
	ToRaster(ctx context.Context, dpi int, data []byte) ([]image.Image, error)
	// Formats returns the MIME types the filter accepts.
	Formats() []string
	// Type returns the type of the filter, e.g. "ImageMagick".
	Type() string
}

// magickBinary is the ImageMagick executable.
var magickBinary = "magick"

type imageMagickFilter struct{}

// ImageMagick returns a filter that runs the ImageMagick "magick" binary.
// PDF and PostScript conversion requires Ghostscript as well.
func ImageMagick() Filter {
	return imageMagickFilter{}
}

func (imageMagickFilter) ToRaster(ctx context.Context, dpi int, data []byte) ([]image.Image, error) {
	cmd := exec.CommandContext(ctx, magickBinary, "-density", strconv.Itoa(dpi), "-", "-background", "white", "-alpha", "remove", "png:-")
	cmd.Stdin = bytes.NewReader(data)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %s", magickBinary, err, bytes.TrimSpace(stderr.Bytes()))
	}
	return decodePNGStream(out)
}

func (imageMagickFilter) Formats() []string {
	return []string{"application/pdf", "application/postscript"}
}

func (imageMagickFilter) Type() string {
	return "ImageMagick"
}

// decodePNGStream decodes concatenated PNG images.
func decodePNGStream(out []byte) ([]image.Image, error) {
	var (
		r      = bytes.NewReader(out)
		images []image.Image
	)
	for r.Len() > 0 {
		img, err := png.Decode(r)
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				break
			}
			return images, fmt.Errorf("failed to decode page %d: %w", len(images)+1, err)
		}
		images = append(images, img)
	}
	slog.Debug("filter output decoded", "pages", len(images), "bytes", len(out))
	return images, nil
}
