package receipt

import (
	"bytes"
	"image"
	"image/png"
	"strconv"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/simplifiedchinese"

	"github.com/rusq/escprint"
)

type tagEncoder struct{}

func (tagEncoder) InitPrinter() []byte           { return []byte("[init]") }
func (tagEncoder) AlignLeft() []byte             { return []byte("[left]") }
func (tagEncoder) AlignCenter() []byte           { return []byte("[center]") }
func (tagEncoder) AlignRight() []byte            { return []byte("[right]") }
func (tagEncoder) EmphasizedOn() []byte          { return []byte("[b]") }
func (tagEncoder) EmphasizedOff() []byte         { return []byte("[/b]") }
func (tagEncoder) FontSizeSetBig(n int) []byte   { return []byte("[size " + strconv.Itoa(n) + "]") }
func (tagEncoder) PrintLineHeight(h byte) []byte { return []byte("[lh " + strconv.Itoa(int(h)) + "]") }
func (tagEncoder) PrintLineFeed() []byte         { return []byte("\n") }
func (tagEncoder) FeedPaperCut() []byte          { return []byte("[cut]") }
func (tagEncoder) FeedPaperCutPartial() []byte   { return []byte("[cutp]") }
func (tagEncoder) DecodeBitmap(img image.Image) []byte {
	return []byte("[img " + img.Bounds().Size().String() + "]")
}

var profile = escprint.Profile{Rule: 4, Chars: []int{20, 10}, ImageWidth: 100}

func run(t *testing.T, script string, opt ...Option) (string, error) {
	t.Helper()
	w := escprint.New(profile, escprint.WithEncoder(tagEncoder{}))
	err := NewDocument(w, opt...).Parse(strings.NewReader(script))
	out, derr := simplifiedchinese.GBK.NewDecoder().Bytes(w.Bytes())
	require.NoError(t, derr)
	return string(out), err
}

func pngFile(t *testing.T, w, h int) *fstest.MapFile {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewGray(image.Rect(0, 0, w, h))))
	return &fstest.MapFile{Data: buf.Bytes()}
}

func TestDocument_Parse(t *testing.T) {
	files := fstest.MapFS{
		"logo.png": pngFile(t, 200, 50),
		"junk.png": &fstest.MapFile{Data: []byte("junk")},
	}
	tests := []struct {
		name   string
		script string
		want   string
	}{
		{"plain text", "Hello\nWorld", "[init]Hello\nWorld\n"},
		{"blank line feeds", "a\n\nb", "[init]a\n\nb\n"},
		{"crlf", "a\r\nb\r\n", "[init]a\nb\n"},
		{"leading spaces kept", "  indented", "[init]  indented\n"},
		{"escaped dot", "..hidden", "[init].hidden\n"},
		{"align", ".align c\n.al r\n.align left", "[init][center][right][left]"},
		{"bold", ".bold on\nX\n.b off", "[init][b]X\n[/b]"},
		{"size", ".size 1\n.size 0", "[init][size 1][size 0]"},
		{"height", ".height 48", "[init][lh 48]"},
		{"line", ".line", "[init]────\n"},
		{"pair", ".pair Tea | 2.50", "[init]Tea" + strings.Repeat(" ", 13) + "2.50\n"},
		{"pair uses font size", ".size 1\n.pair A | B", "[init][size 1]A" + strings.Repeat(" ", 8) + "B\n"},
		{"pair with empty side", ".pair | 9", "[init]" + strings.Repeat(" ", 19) + "9\n"},
		{"chinese pair", ".pair 合计 | 10元", "[init]合计" + strings.Repeat(" ", 12) + "10元\n"},
		{"feed", ".feed\n.feed 3", "[init]\n\n\n\n"},
		{"cut", ".cut", "[init][cut]"},
		{"partial cut", ".cutp", "[init][cutp]"},
		{"image", ".image logo.png", "[init][img (100,25)]"},
		{"undecodable image is skipped", ".im junk.png\nafter", "[init]after\n"},
		{"pattern", ".pattern checkers", "[init][img (100,32)]"},
		{"reset", "x\n.size 1\n.reset\n.pair a | b", "[init]a" + strings.Repeat(" ", 18) + "b\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := run(t, tt.script, WithFiles(files))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDocument_Parse_errors(t *testing.T) {
	tests := []struct {
		name    string
		script  string
		opts    []Option
		wantErr string
	}{
		{"unknown command", "ok\n.frobnicate", nil, "line 2: unknown command \".frobnicate\""},
		{"no alignment", ".align", nil, "line 1: no alignment"},
		{"bad alignment", ".align justify", nil, "unknown alignment"},
		{"bad bold", ".bold maybe", nil, "expected on or off"},
		{"size out of range", ".size 8", nil, "out of range"},
		{"size not a number", ".size big", nil, "invalid number"},
		{"height out of range", ".height 256", nil, "out of range"},
		{"feed zero", ".feed 0", nil, "out of range"},
		{"pair without separator", ".pair a b", nil, "expected LEFT | RIGHT"},
		{"image without fs", ".image a.png", nil, "images are disabled"},
		{"missing image", ".image a.png", []Option{WithFiles(fstest.MapFS{})}, "line 1:"},
		{"image without name", ".image", []Option{WithFiles(fstest.MapFS{})}, "no image file"},
		{"unknown font", ".font comic", nil, "not found"},
		{"font args", ".font a b c", nil, "invalid argument count"},
		{"font size", ".font x.ttf -1", nil, "must be positive"},
		{"unknown pattern", ".pattern plaid", nil, "unknown pattern"},
		{"empty banner", ".banner", nil, "no banner text"},
		{"unrepresentable text", "😀", nil, "charset"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, tt.script, tt.opts...)
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestDocument_Parse_partialOutput(t *testing.T) {
	got, err := run(t, "first\n.bogus\nsecond")
	assert.Error(t, err)
	assert.Equal(t, "[init]first\n", got)
}

func TestDocument_fontCatalogue(t *testing.T) {
	fonts := fstest.MapFS{
		"fonts.csv": {Data: []byte("name,file,dimx,dimy\nthin,thin.fnt,8,4\n")},
		"thin.fnt":  {Data: make([]byte, 256*4)},
	}
	got, err := run(t, ".font thin\n.banner Hi", WithFonts(fonts))
	require.NoError(t, err)
	assert.Regexp(t, bannerRe, got)
}

var bannerRe = `^\[init\]\[img \(\d+,\d+\)\]$`

func TestDocument_banner(t *testing.T) {
	tests := []struct {
		name   string
		script string
	}{
		{"default font", ".banner Hi"},
		{"embedded font", ".font keyrus8\n.banner Hi"},
		{"short alias", ".ft 6x5\n.banner Hi"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := run(t, tt.script)
			require.NoError(t, err)
			assert.Regexp(t, bannerRe, got)
		})
	}
}
