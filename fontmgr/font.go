// Package fontmgr loads font faces for rendering text as images: the
// bitmap faces compiled into the binary, raw .fnt files, TrueType and
// OpenType fonts, and font directories described by a fonts.csv catalogue.
package fontmgr

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/rusq/fontpic"
	"golang.org/x/image/font"
	"golang.org/x/image/font/opentype"
)

// CatalogueFile is the name of the catalogue in a font directory.  It is a
// CSV file with the columns name, file, dimx and dimy.
const CatalogueFile = "fonts.csv"

type BitmapFont struct {
	Name       string
	Width      uint8
	Height     uint8
	Filename   string
	IsEmbedded bool // true if the font is compiled in
}

var embeddedFonts = map[string]font.Face{
	"keyrus16":  fontpic.Face8x16,
	"keyrus14":  fontpic.Face8x14,
	"keyrus8":   fontpic.Face8x8,
	"4x4":       fontpic.Face4x4,
	"4x4bold":   fontpic.Face4x4Bold,
	"4x4italic": fontpic.Face4x4Italic,
	"4x5":       fontpic.Face4x5,
	"6x5":       fontpic.Face6x5,
	"6x5bold":   fontpic.Face6x5Bold,
	"6x5italic": fontpic.Face6x5Italic,
	"robotron":  fontpic.FaceRobotron,
}

var (
	errStop       = errors.New("stop")
	errDimInvalid = errors.New("dimensions invalid")
	// ErrSkip may be returned by a catalogue callback to skip an invalid
	// entry.
	ErrSkip     = errors.New("skip")
	ErrNotFound = errors.New("not found")
)

// ListAllFonts calls cb for every embedded font, then for every font in the
// catalogue of fsys, if fsys is not nil.
func ListAllFonts(fsys fs.FS, cb func(BitmapFont, error) error) error {
	if err := ListEmbedded(cb); err != nil {
		return fmt.Errorf("error listing embedded fonts: %w", err)
	}
	if fsys == nil {
		return nil
	}
	if err := LoadFontCatalogue(fsys, cb); err != nil {
		return fmt.Errorf("error loading font catalogue: %w", err)
	}
	return nil
}

// ListEmbedded calls cb for every compiled in font, sorted by name.
func ListEmbedded(cb func(BitmapFont, error) error) error {
	var sorted []BitmapFont
	for name, face := range embeddedFonts {
		if face == nil {
			continue
		}
		sorted = append(sorted, BitmapFont{
			Name:       name,
			Height:     uint8(face.Metrics().Height.Ceil()),
			Width:      uint8(font.MeasureString(face, "W").Ceil()),
			IsEmbedded: true,
		})
	}
	slices.SortFunc(sorted, func(a, b BitmapFont) int {
		return strings.Compare(a.Name, b.Name)
	})
	for _, fnt := range sorted {
		if err := cb(fnt, nil); err != nil {
			if errors.Is(err, errStop) {
				return nil
			}
			return err
		}
	}
	return nil
}

// LoadFontCatalogue reads the catalogue of a font directory and calls cb
// for every entry.  Invalid entries are reported to cb with a non-nil
// error; cb returns ErrSkip to continue.
func LoadFontCatalogue(fsys fs.FS, cb func(BitmapFont, error) error) error {
	f, err := fsys.Open(CatalogueFile)
	if err != nil {
		return fmt.Errorf("unable to find font catalogue: %w", err)
	}
	defer f.Close()
	cr := csv.NewReader(f)

	header, err := cr.Read()
	if err != nil {
		return err
	}

	for {
		row, err := cr.Read()
		if err != nil {
			if err == io.EOF {
				break
			}
			return err
		}

		rec := make(map[string]string, len(header))
		for i, key := range header {
			rec[key] = row[i]
		}
		fnt := BitmapFont{
			Name:     rec["name"],
			Filename: rec["file"],
		}

		width, err := atoiv[uint8](rec["dimx"], 0, 255)
		if err == nil {
			fnt.Width = width
			var height uint8
			height, err = atoiv[uint8](rec["dimy"], 0, 255)
			fnt.Height = height
		}
		if err != nil {
			if err2 := cb(fnt, err); errors.Is(err2, ErrSkip) {
				continue
			} else if err2 != nil {
				return err2
			}
			continue
		}

		if err := cb(fnt, nil); err != nil {
			if errors.Is(err, errStop) {
				return nil
			}
			return err
		}
	}
	return nil
}

// atoiv parses s as a number in (lo, hi].
func atoiv[T ~uint8](s string, lo, hi int) (T, error) {
	var v T
	y, err := strconv.Atoi(s)
	if err != nil {
		return v, err
	} else if y <= lo || hi < y {
		return v, fmt.Errorf("%w: %d", errDimInvalid, y)
	}
	return T(y), nil
}

const defaultFont = "keyrus16"

// DefaultFont is the face used when none is selected.
var DefaultFont font.Face

func init() {
	fnt, err := LoadEmbedded(defaultFont)
	if err != nil {
		panic(fmt.Errorf("failed to load default font %q: %w", defaultFont, err))
	}
	DefaultFont = fnt
}

// LoadFromFile loads a font file, the loader is chosen by the extension.
// size and dpi are used by scalable fonts only.
func LoadFromFile(filename string, size float64, dpi float64) (font.Face, error) {
	ext := filepath.Ext(strings.ToLower(filename))
	loader, ok := loadFuncs[ext]
	if !ok {
		return nil, fmt.Errorf("unsupported font type: %q", ext)
	}
	data, err := readLimited(os.DirFS(filepath.Dir(filename)), filepath.Base(filename))
	if err != nil {
		return nil, err
	}
	slog.Debug("font loaded", "file", filename, "size", size, "dpi", dpi)
	return loader(data, size, dpi)
}

type fontLoadFunc func(data []byte, size float64, dpi float64) (font.Face, error)

// loadFuncs maps file extension to appropriate font loader
var loadFuncs = map[string]fontLoadFunc{
	".bin": loadFnt,
	".fnt": loadFnt,
	".ttf": loadTTF,
	".otf": loadTTF,
}

const maxFontSize = 10 * 1048576 // 10 MB

func readLimited(fsys fs.FS, name string) ([]byte, error) {
	fi, err := fs.Stat(fsys, name)
	if err != nil {
		return nil, err
	}
	if maxFontSize < fi.Size() {
		return nil, fmt.Errorf("font file %s is too large", name)
	}
	return fs.ReadFile(fsys, name)
}

// loadFnt loads a raw 8 dot wide font with 256 glyphs, the height is
// derived from the data size.
func loadFnt(data []byte, _ float64, _ float64) (font.Face, error) {
	const (
		width                = 8
		numGlyphs            = 256
		minHeight, maxHeight = 2, 32 // (minHeight, maxHeight]
	)
	if len(data)%numGlyphs != 0 {
		return nil, errors.New("unsupported font file format")
	}
	height := len(data) / numGlyphs
	if height <= minHeight || maxHeight < height {
		return nil, fmt.Errorf("%w: 8x%d", errDimInvalid, height)
	}
	return fontpic.FntToFace(data, width, height), nil
}

// loadTTF parses a TrueType or OpenType font and returns a face with size
// points.
func loadTTF(data []byte, size float64, dpi float64) (font.Face, error) {
	fnt, err := opentype.Parse(data)
	if err != nil {
		return nil, err
	}
	return opentype.NewFace(fnt, &opentype.FaceOptions{
		Size:    size,
		DPI:     dpi,
		Hinting: font.HintingFull,
	})
}

// LoadEmbedded returns a compiled in font.
func LoadEmbedded(name string) (font.Face, error) {
	face, ok := embeddedFonts[name]
	if !ok {
		return nil, fmt.Errorf("font %q: %w", name, ErrNotFound)
	}
	return face, nil
}

// LoadByName returns a compiled in font, or a font from the catalogue of
// fsys.  fsys may be nil.
func LoadByName(fsys fs.FS, name string) (font.Face, error) {
	face, err := LoadEmbedded(name)
	if err == nil {
		return face, nil
	}
	if !errors.Is(err, ErrNotFound) || fsys == nil {
		return nil, err
	}
	return loadFromFS(fsys, name)
}

func loadFromFS(fsys fs.FS, name string) (font.Face, error) {
	var fnt *BitmapFont
	if err := LoadFontCatalogue(fsys, func(bif BitmapFont, err error) error {
		if err != nil {
			return ErrSkip
		}
		if bif.Name == name {
			fnt = &bif
			return errStop
		}
		return nil
	}); err != nil {
		return nil, err
	}
	if fnt == nil {
		return nil, fmt.Errorf("font %q: %w", name, ErrNotFound)
	}
	data, err := readLimited(fsys, path.Clean(fnt.Filename))
	if err != nil {
		return nil, fmt.Errorf("error reading font file %s: %w", fnt.Filename, err)
	}
	if len(data) < int(fnt.Height)*256 {
		return nil, fmt.Errorf("font file %s: %w: %d bytes for 8x%d", fnt.Filename, errDimInvalid, len(data), fnt.Height)
	}
	return fontpic.FntToFace(data, int(fnt.Width), int(fnt.Height)), nil
}
