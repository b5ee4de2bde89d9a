package escprint

import (
	"image"
	"io/fs"

	"github.com/rusq/escprint/bitmap"
)

// PrintResource appends the named image from fsys, scaled down to the
// printable width.  It reports whether the image was appended.  Images that
// are missing, undecodable or too large are skipped and logged.
func (w *Writer) PrintResource(fsys fs.FS, name string) bool {
	img, err := w.opts.pipeline.FromResource(fsys, name, w.caps.ImageMaxWidth())
	return w.appendImage(img, err, "resource", name)
}

// PrintDrawable rasterises d and appends it, scaled down to the printable
// width.  It reports whether the image was appended.
func (w *Writer) PrintDrawable(d bitmap.Drawable) bool {
	img, err := w.opts.pipeline.FromDrawable(d, w.caps.ImageMaxWidth())
	return w.appendImage(img, err, "source", "drawable")
}

// PrintBitmap appends an in-memory image.  Unless the writer was created
// WithStrictBitmapScaling, images narrower than the printable width are
// enlarged to it, and wider ones are sent unscaled.  It reports whether the
// image was appended.
func (w *Writer) PrintBitmap(img image.Image) bool {
	prepared, err := w.opts.pipeline.FromBitmap(img, w.caps.ImageMaxWidth())
	return w.appendImage(prepared, err, "source", "bitmap")
}

func (w *Writer) appendImage(img image.Image, err error, attrs ...any) bool {
	lg := w.log().With(attrs...)
	if err != nil {
		lg.Debug("image skipped", "error", err)
		return false
	}
	cmd := w.opts.enc.DecodeBitmap(img)
	if len(cmd) == 0 {
		lg.Debug("image skipped", "error", "not encodable", "size", img.Bounds().Size())
		return false
	}
	w.write(cmd)
	lg.Debug("image appended", "size", img.Bounds().Size(), "bytes", len(cmd))
	return true
}
