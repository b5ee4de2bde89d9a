package ippsrv

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"slices"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/rusq/escprint/bitmap"
)

// Driver renders page images into printer commands and sends them to the
// printer.  *escprint.Device implements it.
type Driver interface {
	// Render returns the complete command stream for the image.  The driver
	// scales and dithers the image.
	Render(ctx context.Context, img image.Image) ([]byte, error)
	// Write sends a rendered stream to the printer.
	Write(ctx context.Context, data []byte) error
	// DPI returns the printer resolution, used to rasterise documents.
	DPI() float64
	// Width returns the printable width in dots.
	Width() int
}

// PrinterState is the printer-state attribute value.
// https://datatracker.ietf.org/doc/html/rfc8011#section-5.4.11
type PrinterState int32

const (
	PSIdle PrinterState = iota + 3 // 3 is the value for idle in RFC 8011
	PSProcessing
	PSStopped
)

func (s PrinterState) String() string {
	switch s {
	case PSIdle:
		return "idle"
	case PSProcessing:
		return "processing"
	case PSStopped:
		return "stopped"
	default:
		return fmt.Sprintf("PrinterState(%d)", int32(s))
	}
}

// imageFormats are decoded without a filter.
var imageFormats = []string{
	ippOctetStream,
	"image/png",
	"image/jpeg",
	"image/gif",
	"image/bmp",
	"image/webp",
}

var (
	// ErrEmptyData is returned when the document is empty.
	ErrEmptyData = errors.New("document is empty")
	// ErrUnsupportedFormat is returned when the document is not an image and
	// there is no filter for it.
	ErrUnsupportedFormat = errors.New("unsupported document format")
)

// Printer is a print queue backed by a Driver.
type Printer struct {
	id       string
	fullname string
	info     string
	media    string
	uuid     uuid.UUID
	started  time.Time
	state    atomic.Int32

	drv      Driver
	filter   Filter
	pipeline *bitmap.Pipeline
}

type PrinterOption func(*Printer)

// WithInfo sets the printer-info description.
func WithInfo(info string) PrinterOption {
	return func(p *Printer) {
		p.info = info
	}
}

// WithMedia sets the loaded media name, i.e. "roll_58mm".
func WithMedia(media string) PrinterOption {
	return func(p *Printer) {
		if media != "" {
			p.media = media
		}
	}
}

// WithFilter sets the filter for documents that are not images.  nil
// disables conversion.
func WithFilter(f Filter) PrinterOption {
	return func(p *Printer) {
		p.filter = f
	}
}

// WithPagePipeline sets the pipeline that scales pages to the printable
// width.
func WithPagePipeline(pl *bitmap.Pipeline) PrinterOption {
	return func(p *Printer) {
		if pl != nil {
			p.pipeline = pl
		}
	}
}

// WrapDriver returns a printer named id, the id is used in the printer URI.
func WrapDriver(drv Driver, id, fullname string, opt ...PrinterOption) (*Printer, error) {
	if drv == nil {
		return nil, errors.New("driver cannot be nil")
	}
	if fullname == "" {
		return nil, errors.New("printer fullname cannot be empty")
	}
	if id == "" {
		return nil, errors.New("printer ID cannot be empty")
	}
	p := &Printer{
		id:       id,
		fullname: fullname,
		info:     fullname,
		media:    "roll_58mm",
		uuid:     uuid.NewSHA1(uuid.NameSpaceURL, []byte("ipp:"+id+":"+fullname)),
		started:  time.Now(),
		drv:      drv,
		filter:   ImageMagick(),
		pipeline: new(bitmap.Pipeline),
	}
	for _, o := range opt {
		o(p)
	}
	p.SetState(PSIdle)
	return p, nil
}

// Name returns the url-safe printer name (printer-name attribute).
func (p *Printer) Name() string { return p.id }

// MakeAndModel returns the printer-make-and-model attribute.
func (p *Printer) MakeAndModel() string { return p.fullname }

func (p *Printer) Info() string { return p.info }

func (p *Printer) State() PrinterState { return PrinterState(p.state.Load()) }

func (p *Printer) SetState(s PrinterState) { p.state.Store(int32(s)) }

// Ready reports whether the printer accepts jobs.
func (p *Printer) Ready() bool { return p.State() != PSStopped }

// UpTime returns the printer-up-time, seconds since start, at least 1.
// https://datatracker.ietf.org/doc/html/rfc8011#section-5.4.29
func (p *Printer) UpTime() int { return p.upTimeAt(time.Now()) }

func (p *Printer) upTimeAt(t time.Time) int {
	return max(1, int(t.Sub(p.started).Seconds()))
}

func (p *Printer) Media() string { return p.media }

// UUID returns the printer-uuid URN.
func (p *Printer) UUID() string { return p.uuid.URN() }

func (p *Printer) Driver() Driver { return p.drv }

// Formats returns the supported document formats.
func (p *Printer) Formats() []string {
	ff := slices.Clone(imageFormats)
	if p.filter != nil {
		ff = append(ff, p.filter.Formats()...)
	}
	return ff
}

// Supports reports whether documents of the MIME type can be printed.
func (p *Printer) Supports(format string) bool {
	return slices.Contains(p.Formats(), format)
}

// Render converts the document into the printer command stream.  Images are
// decoded directly, other formats go through the filter.  Pages are stacked
// into one long image.
func (p *Printer) Render(ctx context.Context, data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, ErrEmptyData
	}
	pages, err := p.pages(ctx, data)
	if err != nil {
		return nil, err
	}
	if len(pages) == 0 {
		return nil, errors.New("no pages were converted from the document")
	}
	c := bitmap.NewComposer(p.drv.Width(), bitmap.WithComposerPipeline(p.pipeline))
	for i, page := range pages {
		if err := c.Append(page); err != nil {
			return nil, fmt.Errorf("page %d: %w", i+1, err)
		}
	}
	slog.DebugContext(ctx, "document composed", "printer", p.id, "pages", len(pages), "size", c.Bounds().Size())
	return p.drv.Render(ctx, c.Image())
}

func (p *Printer) pages(ctx context.Context, data []byte) ([]image.Image, error) {
	// fast path for images
	if img, _, err := image.Decode(bytes.NewReader(data)); err == nil {
		return []image.Image{img}, nil
	}
	if p.filter == nil {
		return nil, ErrUnsupportedFormat
	}
	pages, err := p.filter.ToRaster(ctx, int(p.drv.DPI()), data)
	if err != nil {
		return nil, fmt.Errorf("%s filter: %w", p.filter.Type(), err)
	}
	return pages, nil
}
