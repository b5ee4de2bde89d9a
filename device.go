package escprint

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"log/slog"
	"strings"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/text/encoding"

	"github.com/rusq/escprint/bitmap"
	"github.com/rusq/escprint/escpos"
)

// DefaultDPI is the resolution of most 58 and 80 mm receipt printers.
const DefaultDPI = 203

// ErrNothingToPrint is returned when the job content was dropped, i.e. the
// image could not be prepared.
var ErrNothingToPrint = errors.New("nothing to print")

// CutMode selects how a job ends.
type CutMode int

const (
	CutFull CutMode = iota
	CutPartial
	CutNone
)

// Device renders complete print jobs for a printer and writes them to the
// printer connection.  It is safe for concurrent use, jobs are written one
// at a time.
type Device struct {
	mu  sync.Mutex
	out io.Writer

	caps     Capabilities
	enc      escpos.Encoder
	pipeline bitmap.Pipeline
	opts     deviceOptions
}

type deviceOptions struct {
	dither     string
	gamma      float64
	autoDither bool
	threshold  uint8
	bandHeight int
	charset    encoding.Encoding
	dryRun     bool
	cut        CutMode
	dpi        float64
	maxPixels  int
}

type DeviceOption func(*deviceOptions)

// WithDither sets the dither function by name, see
// bitmap.AllDitherFunctions.  Empty name selects the default one.
func WithDither(name string) DeviceOption {
	return func(o *deviceOptions) {
		o.dither = name
	}
}

// WithGamma sets the gamma applied before dithering.
func WithGamma(gamma float64) DeviceOption {
	return func(o *deviceOptions) {
		o.gamma = gamma
	}
}

// WithAutoDither disables dithering for images that look like documents.
func WithAutoDither(b bool) DeviceOption {
	return func(o *deviceOptions) {
		o.autoDither = b
	}
}

// WithThreshold sets the luma threshold for dark pixels.
func WithThreshold(t uint8) DeviceOption {
	return func(o *deviceOptions) {
		o.threshold = t
	}
}

// WithBandHeight splits raster images into bands of n rows.
func WithBandHeight(n int) DeviceOption {
	return func(o *deviceOptions) {
		o.bandHeight = n
	}
}

// WithDeviceCharset sets the printer character set.
func WithDeviceCharset(cs encoding.Encoding) DeviceOption {
	return func(o *deviceOptions) {
		o.charset = cs
	}
}

// WithDryRun makes the device write a preview instead of the command stream:
// a PNG with the dots that would be printed for image jobs, and the plain
// text for text jobs.
func WithDryRun(b bool) DeviceOption {
	return func(o *deviceOptions) {
		o.dryRun = b
	}
}

// WithCut sets how jobs end.
func WithCut(m CutMode) DeviceOption {
	return func(o *deviceOptions) {
		o.cut = m
	}
}

// WithDPI sets the reported resolution.
func WithDPI(dpi float64) DeviceOption {
	return func(o *deviceOptions) {
		if dpi > 0 {
			o.dpi = dpi
		}
	}
}

// WithMaxPixels sets the pixel budget of the image pipeline.
func WithMaxPixels(n int) DeviceOption {
	return func(o *deviceOptions) {
		o.maxPixels = n
	}
}

// NewDevice returns a Device writing jobs to out.
func NewDevice(out io.Writer, caps Capabilities, opt ...DeviceOption) (*Device, error) {
	if out == nil {
		return nil, errors.New("no output")
	}
	if caps == nil {
		return nil, errors.New("no printer capabilities")
	}
	opts := deviceOptions{
		dpi: DefaultDPI,
	}
	for _, o := range opt {
		o(&opts)
	}
	dfn, ok := bitmap.DitherFunction(opts.dither)
	if !ok {
		return nil, fmt.Errorf("unknown dither function %q, available: %s", opts.dither, strings.Join(bitmap.AllDitherFunctions(), ", "))
	}
	return &Device{
		out:  out,
		caps: caps,
		enc: escpos.Encoder{
			Threshold:  opts.threshold,
			Dither:     dfn,
			Gamma:      opts.gamma,
			AutoDither: opts.autoDither,
			BandHeight: opts.bandHeight,
		},
		pipeline: bitmap.Pipeline{MaxPixels: opts.maxPixels},
		opts:     opts,
	}, nil
}

// DPI returns the printer resolution.
func (d *Device) DPI() float64 { return d.opts.dpi }

// Width returns the printable width in dots.
func (d *Device) Width() int { return d.caps.ImageMaxWidth() }

// NewWriter returns a Writer configured for the device.
func (d *Device) NewWriter() *Writer {
	return New(d.caps,
		WithEncoder(d.enc),
		WithCharset(d.opts.charset),
		WithPipeline(&d.pipeline),
	)
}

// Finish ends the job in w with the configured cut and drains the writer.
func (d *Device) Finish(w *Writer) []byte {
	switch d.opts.cut {
	case CutFull:
		w.FeedPaperCut()
	case CutPartial:
		w.FeedPaperCutPartial()
	}
	return w.Bytes()
}

// Render returns the complete command stream for an image job.
func (d *Device) Render(ctx context.Context, img image.Image) ([]byte, error) {
	return d.RenderDrawable(ctx, bitmap.NewImageDrawable(img))
}

// RenderDrawable returns the complete command stream for a drawable.
func (d *Device) RenderDrawable(ctx context.Context, dr bitmap.Drawable) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	w := d.NewWriter()
	if !w.PrintDrawable(dr) {
		return nil, fmt.Errorf("%w: image could not be prepared", ErrNothingToPrint)
	}
	return d.Finish(w), nil
}

// RenderText returns the complete command stream for a text job.  Each line
// of text is followed by a line feed.
func (d *Device) RenderText(ctx context.Context, text string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	w := d.NewWriter()
	for i, line := range strings.Split(strings.TrimSuffix(text, "\n"), "\n") {
		if err := w.Print(line); err != nil {
			return nil, fmt.Errorf("line %d: %w", i+1, err)
		}
		w.PrintLineFeed()
	}
	return d.Finish(w), nil
}

// Write sends a rendered stream to the printer.
func (d *Device) Write(ctx context.Context, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	n, err := d.out.Write(data)
	if err != nil {
		return fmt.Errorf("write to printer: %w", err)
	}
	slog.DebugContext(ctx, "job sent", "bytes", n)
	return nil
}

// PrintImage prints an image scaled down to the printable width.
func (d *Device) PrintImage(ctx context.Context, img image.Image) error {
	return d.printDrawable(ctx, bitmap.NewImageDrawable(img))
}

// PrintTextImage renders text with the font face and prints it as an image.
func (d *Device) PrintTextImage(ctx context.Context, text string, face font.Face) error {
	return d.printDrawable(ctx, bitmap.TextDrawable{Text: text, Face: face})
}

// PrintPattern prints the named test pattern.
func (d *Device) PrintPattern(ctx context.Context, name string) error {
	dr, ok := bitmap.Pattern(name, d.Width())
	if !ok {
		return fmt.Errorf("unknown pattern %q, available: %s", name, strings.Join(bitmap.AllPatterns(), ", "))
	}
	return d.printDrawable(ctx, dr)
}

func (d *Device) printDrawable(ctx context.Context, dr bitmap.Drawable) error {
	if d.opts.dryRun {
		return d.preview(ctx, dr)
	}
	data, err := d.RenderDrawable(ctx, dr)
	if err != nil {
		return err
	}
	return d.Write(ctx, data)
}

// PrintText prints text with the printer's character generator.
func (d *Device) PrintText(ctx context.Context, text string) error {
	data, err := d.RenderText(ctx, text)
	if err != nil {
		return err
	}
	if d.opts.dryRun {
		return d.Write(ctx, []byte(text))
	}
	return d.Write(ctx, data)
}

// preview writes the dots that would be printed as a PNG.
func (d *Device) preview(ctx context.Context, dr bitmap.Drawable) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	img, err := d.pipeline.FromDrawable(dr, d.Width())
	if err != nil {
		return fmt.Errorf("%w: %w", ErrNothingToPrint, err)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := png.Encode(d.out, d.enc.Bilevel(img)); err != nil {
		return fmt.Errorf("write preview: %w", err)
	}
	slog.DebugContext(ctx, "preview written", "size", img.Bounds().Size())
	return nil
}
