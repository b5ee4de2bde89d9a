// Package receipt interprets receipt scripts: plain text lines mixed with
// dot commands that control the formatting.
//
//	.align c
//	.bold on
//	.size 1
//	COFFEE HOUSE
//	.size 0
//	.bold off
//	.align l
//	.line
//	.pair Latte | 4.50
//	.pair Croissant | 3.20
//	.line
//	.pair TOTAL | 7.70
//	.cut
//
// A line starting with ".." prints the rest of the line starting with one
// dot.  An empty line feeds one line.
package receipt

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/image/font"

	"github.com/rusq/escprint"
	"github.com/rusq/escprint/bitmap"
	"github.com/rusq/escprint/fontmgr"
)

const (
	ccAlign    = ".align"
	ccAlignS   = ".al"
	ccBold     = ".bold"
	ccBoldS    = ".b"
	ccSize     = ".size"
	ccHeight   = ".height"
	ccLine     = ".line"
	ccPair     = ".pair"
	ccFeed     = ".feed"
	ccCut      = ".cut"
	ccCutP     = ".cutp"
	ccImage    = ".image"
	ccImageS   = ".im"
	ccFont     = ".font"
	ccFontS    = ".ft"
	ccBanner   = ".banner"
	ccPattern  = ".pattern"
	ccReset    = ".reset"
	escapedDot = ".."
)

type cmdFunc func(d *Document, args string) error

var commands = map[string]cmdFunc{
	ccAlign:   (*Document).cmdAlign,
	ccAlignS:  (*Document).cmdAlign,
	ccBold:    (*Document).cmdBold,
	ccBoldS:   (*Document).cmdBold,
	ccSize:    (*Document).cmdSize,
	ccHeight:  (*Document).cmdHeight,
	ccLine:    (*Document).cmdLine,
	ccPair:    (*Document).cmdPair,
	ccFeed:    (*Document).cmdFeed,
	ccCut:     (*Document).cmdCut,
	ccCutP:    (*Document).cmdCutPartial,
	ccImage:   (*Document).cmdImage, // embed image
	ccImageS:  (*Document).cmdImage,
	ccFont:    (*Document).cmdFont, // banner font
	ccFontS:   (*Document).cmdFont,
	ccBanner:  (*Document).cmdBanner,
	ccPattern: (*Document).cmdPattern,
	ccReset:   (*Document).cmdReset,
}

// Document feeds a receipt script into a Writer.
type Document struct {
	w     *escprint.Writer
	files fs.FS // images
	fonts fs.FS // font catalogue
	dpi   float64
	size  int       // current font size
	face  font.Face // banner font
}

type Option func(*Document)

// WithFiles sets the filesystem images are loaded from.
func WithFiles(fsys fs.FS) Option {
	return func(d *Document) {
		d.files = fsys
	}
}

// WithFonts sets the font directory with the font catalogue.
func WithFonts(fsys fs.FS) Option {
	return func(d *Document) {
		d.fonts = fsys
	}
}

// WithDPI sets the resolution used to scale TrueType fonts.
func WithDPI(dpi float64) Option {
	return func(d *Document) {
		if dpi > 0 {
			d.dpi = dpi
		}
	}
}

func NewDocument(w *escprint.Writer, opt ...Option) *Document {
	d := &Document{
		w:    w,
		dpi:  escprint.DefaultDPI,
		face: fontmgr.DefaultFont,
	}
	for _, o := range opt {
		o(d)
	}
	return d
}

// Parse executes the script.  Errors are reported with the line number,
// the commands executed before the error stay in the writer.
func (d *Document) Parse(r io.Reader) error {
	s := bufio.NewScanner(r)
	for n := 1; s.Scan(); n++ {
		if err := d.execLine(strings.TrimRight(s.Text(), "\r")); err != nil {
			return fmt.Errorf("line %d: %w", n, err)
		}
	}
	return s.Err()
}

func (d *Document) execLine(line string) error {
	trimmed := strings.TrimSpace(line)
	switch {
	case strings.HasPrefix(trimmed, escapedDot):
		return d.println(strings.TrimPrefix(trimmed, "."))
	case strings.HasPrefix(trimmed, "."):
		return d.parseCommand(trimmed)
	default:
		return d.println(line)
	}
}

func (d *Document) println(text string) error {
	if err := d.w.Print(text); err != nil {
		return err
	}
	d.w.PrintLineFeed()
	return nil
}

func (d *Document) parseCommand(text string) error {
	name, args, _ := strings.Cut(text, " ")
	fn, ok := commands[name]
	if !ok {
		return fmt.Errorf("unknown command %q", name)
	}
	return fn(d, strings.TrimSpace(args))
}

func (d *Document) cmdAlign(args string) error {
	switch args {
	case "left", "l":
		d.w.SetAlignLeft()
	case "center", "c":
		d.w.SetAlignCenter()
	case "right", "r":
		d.w.SetAlignRight()
	case "":
		return errors.New("no alignment instruction")
	default:
		return fmt.Errorf("unknown alignment %q", args)
	}
	return nil
}

func (d *Document) cmdBold(args string) error {
	switch args {
	case "on", "":
		d.w.SetEmphasizedOn()
	case "off":
		d.w.SetEmphasizedOff()
	default:
		return fmt.Errorf("expected on or off, got %q", args)
	}
	return nil
}

func atoi(s string, lo, hi int) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q", s)
	}
	if n < lo || hi < n {
		return 0, fmt.Errorf("%d is out of range [%d, %d]", n, lo, hi)
	}
	return n, nil
}

func (d *Document) cmdSize(args string) error {
	n, err := atoi(args, 0, 7)
	if err != nil {
		return err
	}
	d.size = n
	d.w.SetFontSize(n)
	return nil
}

func (d *Document) cmdHeight(args string) error {
	n, err := atoi(args, 0, 255)
	if err != nil {
		return err
	}
	d.w.SetLineHeight(n)
	return nil
}

func (d *Document) cmdLine(string) error {
	if err := d.w.PrintLine(); err != nil {
		return err
	}
	d.w.PrintLineFeed()
	return nil
}

func (d *Document) cmdPair(args string) error {
	left, right, ok := strings.Cut(args, "|")
	if !ok {
		return errors.New("expected LEFT | RIGHT")
	}
	if err := d.w.PrintInOneLine(strings.TrimSpace(left), strings.TrimSpace(right), d.size); err != nil {
		return err
	}
	d.w.PrintLineFeed()
	return nil
}

func (d *Document) cmdFeed(args string) error {
	n := 1
	if args != "" {
		var err error
		if n, err = atoi(args, 1, 255); err != nil {
			return err
		}
	}
	for range n {
		d.w.PrintLineFeed()
	}
	return nil
}

func (d *Document) cmdCut(string) error {
	d.w.FeedPaperCut()
	return nil
}

func (d *Document) cmdCutPartial(string) error {
	d.w.FeedPaperCutPartial()
	return nil
}

// cmdImage prints an image.  A missing file is an error, an image that
// can't be prepared is skipped.
func (d *Document) cmdImage(args string) error {
	if args == "" {
		return errors.New("no image file")
	}
	if d.files == nil {
		return errors.New("images are disabled")
	}
	name := filepath.ToSlash(args)
	if _, err := fs.Stat(d.files, name); err != nil {
		return err
	}
	if !d.w.PrintResource(d.files, name) {
		slog.Warn("image skipped", "file", name)
	}
	return nil
}

func (d *Document) cmdFont(args string) error {
	fields := strings.Fields(args)
	if argc := len(fields); argc < 1 || 2 < argc {
		return fmt.Errorf("invalid argument count, expected 1 or 2, provided: %d", argc)
	}
	var (
		fontOrFile = fields[0]
		size       = 12.0 // points
	)
	if len(fields) > 1 {
		s, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return err
		}
		if s <= 0.0 {
			return fmt.Errorf("font size must be positive: %f", s)
		}
		size = s
	}
	// names without extension are built-in or catalogue fonts.
	var (
		face font.Face
		err  error
	)
	if filepath.Ext(fontOrFile) == "" {
		face, err = fontmgr.LoadByName(d.fonts, fontOrFile)
	} else {
		face, err = fontmgr.LoadFromFile(fontOrFile, size, d.dpi)
	}
	if err != nil {
		return err
	}
	d.face = face
	return nil
}

func (d *Document) cmdBanner(args string) error {
	if args == "" {
		return errors.New("no banner text")
	}
	if !d.w.PrintDrawable(bitmap.TextDrawable{Text: args, Face: d.face}) {
		slog.Warn("banner skipped", "text", args)
	}
	return nil
}

func (d *Document) cmdPattern(args string) error {
	p, ok := bitmap.Pattern(args, d.w.Capabilities().ImageMaxWidth())
	if !ok {
		return fmt.Errorf("unknown pattern %q", args)
	}
	if !d.w.PrintDrawable(p) {
		slog.Warn("pattern skipped", "name", args)
	}
	return nil
}

func (d *Document) cmdReset(string) error {
	d.w.Reset()
	d.size = 0
	d.face = fontmgr.DefaultFont
	return nil
}
