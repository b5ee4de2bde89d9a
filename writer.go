// Package escprint builds ESC/POS command streams for receipt printers.
//
// A [Writer] accumulates commands for one print job: text in the printer's
// character set, formatting, paper feed and cut, and images prepared by the
// bitmap pipeline.  [Writer.Bytes] hands the stream over, after that the
// writer starts a new job on the next append.
package escprint

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/looplab/fsm"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/simplifiedchinese"

	"github.com/rusq/escprint/bitmap"
	"github.com/rusq/escprint/escpos"
)

// ErrCharset is returned when the text cannot be represented in the
// printer's character set.
var ErrCharset = errors.New("text not representable in the printer charset")

// ruleGlyph is the box drawing character PrintLine repeats.
const ruleGlyph = "─"

// Writer accumulates a command stream.  It is not safe for concurrent use.
// The zero value is not usable, create writers with [New].
type Writer struct {
	buf  *bytes.Buffer
	sm   *fsm.FSM
	caps Capabilities
	opts writerOptions
}

type writerOptions struct {
	enc      Encoder
	charset  encoding.Encoding
	pipeline bitmap.Pipeline
	strict   bool
	lg       *slog.Logger
}

type WriterOption func(*writerOptions)

// WithEncoder sets the protocol encoder, the default is ESC/POS.
func WithEncoder(enc Encoder) WriterOption {
	return func(o *writerOptions) {
		if enc != nil {
			o.enc = enc
		}
	}
}

// WithCharset sets the printer character set, the default is GBK, which is
// a superset of GB2312.
func WithCharset(cs encoding.Encoding) WriterOption {
	return func(o *writerOptions) {
		if cs != nil {
			o.charset = cs
		}
	}
}

// WithPipeline sets the image preparation pipeline.
func WithPipeline(p *bitmap.Pipeline) WriterOption {
	return func(o *writerOptions) {
		if p != nil {
			o.pipeline = *p
		}
	}
}

// WithStrictBitmapScaling makes PrintBitmap scale images down to the
// printable width instead of enlarging narrow ones.
func WithStrictBitmapScaling(strict bool) WriterOption {
	return func(o *writerOptions) {
		o.strict = strict
	}
}

// WithLogger sets the logger, the default is slog.Default().
func WithLogger(lg *slog.Logger) WriterOption {
	return func(o *writerOptions) {
		o.lg = lg
	}
}

// New creates an initialised Writer for the printer described by caps.
func New(caps Capabilities, opts ...WriterOption) *Writer {
	o := writerOptions{
		enc:     escpos.Encoder{},
		charset: simplifiedchinese.GBK,
	}
	for _, opt := range opts {
		opt(&o)
	}
	o.pipeline.Strict = o.pipeline.Strict || o.strict
	w := &Writer{
		caps: caps,
		opts: o,
	}
	w.sm = newBufferFSM(w.log)
	w.Reset()
	return w
}

// Capabilities returns the printer capabilities the writer was created with.
func (w *Writer) Capabilities() Capabilities {
	return w.caps
}

func (w *Writer) log() *slog.Logger {
	if w.opts.lg != nil {
		return w.opts.lg
	}
	return slog.Default()
}

// Reset discards the accumulated commands and starts over with the printer
// initialisation sequence.
func (w *Writer) Reset() {
	w.buf = bytes.NewBuffer(w.opts.enc.InitPrinter())
	w.transition(evInit)
}

// write appends data, starting a new buffer if the previous one was handed
// over.
func (w *Writer) write(data []byte) {
	if !w.sm.Is(stReady) {
		w.Reset()
	}
	w.buf.Write(data)
}

// Bytes returns the accumulated stream and releases the buffer.  The next
// append starts a new stream.  Calling Bytes again before appending returns
// nil.
func (w *Writer) Bytes() []byte {
	if !w.sm.Is(stReady) {
		return nil
	}
	data := w.buf.Bytes()
	w.buf = nil
	w.transition(evDrain)
	return data
}

func (w *Writer) SetAlignLeft()   { w.write(w.opts.enc.AlignLeft()) }
func (w *Writer) SetAlignCenter() { w.write(w.opts.enc.AlignCenter()) }
func (w *Writer) SetAlignRight()  { w.write(w.opts.enc.AlignRight()) }

func (w *Writer) SetEmphasizedOn()  { w.write(w.opts.enc.EmphasizedOn()) }
func (w *Writer) SetEmphasizedOff() { w.write(w.opts.enc.EmphasizedOff()) }

// SetFontSize sets the character magnification level.
func (w *Writer) SetFontSize(size int) { w.write(w.opts.enc.FontSizeSetBig(size)) }

// SetLineHeight sets the line spacing.  Heights outside of [0, 255] are
// ignored.
func (w *Writer) SetLineHeight(height int) {
	if height < 0 || 255 < height {
		return
	}
	w.write(w.opts.enc.PrintLineHeight(byte(height)))
}

func (w *Writer) PrintLineFeed()       { w.write(w.opts.enc.PrintLineFeed()) }
func (w *Writer) FeedPaperCut()        { w.write(w.opts.enc.FeedPaperCut()) }
func (w *Writer) FeedPaperCutPartial() { w.write(w.opts.enc.FeedPaperCutPartial()) }

// Print appends text in the printer character set.  Empty text is ignored.
// If any character is not representable, nothing is appended and the error
// wraps ErrCharset.
func (w *Writer) Print(text string) error {
	if text == "" {
		return nil
	}
	data, err := w.opts.charset.NewEncoder().Bytes([]byte(text))
	if err != nil {
		return fmt.Errorf("%w: %q: %w", ErrCharset, text, err)
	}
	w.write(data)
	return nil
}

// PrintLine prints a horizontal rule across the paper.  It does not end the
// line.
func (w *Writer) PrintLine() error {
	n := w.caps.LineWidth()
	if n <= 0 {
		return nil
	}
	return w.Print(strings.Repeat(ruleGlyph, n))
}

// PrintInOneLine prints left and right justified to the edges of the line
// at the font size, filling the gap with spaces.  Text wider than the line
// wraps, and the padding is computed modulo the line width, so that right
// still ends at the edge.  When the combined width is an exact multiple of
// the line width, no spaces are inserted.
func (w *Writer) PrintInOneLine(left, right string, fontSize int) error {
	n := w.caps.LineCharWidth(fontSize)
	if n <= 0 {
		return nil
	}
	pad := (n - (DisplayWidth(left)+DisplayWidth(right))%n) % n
	return w.Print(left + strings.Repeat(" ", pad) + right)
}
