// Package cfg contains common configuration variables.
package cfg

import (
	"flag"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"sort"
	"strings"

	"github.com/rusq/osenv/v2"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/korean"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/encoding/traditionalchinese"

	"github.com/rusq/escprint"
	"github.com/rusq/escprint/bitmap"
)

var (
	TraceFile   string = osenv.Value("TRACE_FILE", "")
	LogFile     string = osenv.Value("LOG_FILE", "")
	JSONHandler bool   = osenv.Value("JSON_LOG", false)
	Verbose     bool   = osenv.Value("DEBUG", false)

	Output      string = osenv.Value("TP_OUTPUT", "-")
	ProfileName string = osenv.Value("TP_PROFILE", escprint.DefaultProfile.Name)
	Charset     string = osenv.Value("TP_CHARSET", "gbk")
	FontDir     string = osenv.Value("TP_FONTS", "")
	DryRun      bool   = osenv.Value("DRY_RUN", false)
	Cut         string = "full"

	Gamma      float64
	Dither     string
	AutoDither bool
	Threshold  uint

	Log *slog.Logger = slog.Default()
)

type FlagMask uint16

const (
	DefaultFlags    FlagMask = 0
	OmitOutputFlags FlagMask = 1 << (iota - 1)
	OmitCommonImageFlags

	OmitAll = OmitOutputFlags | OmitCommonImageFlags
)

// SetBaseFlags sets base flags.
func SetBaseFlags(fs *flag.FlagSet, mask FlagMask) {
	fs.StringVar(&TraceFile, "trace", TraceFile, "trace `filename`")
	fs.StringVar(&LogFile, "log", LogFile, "log `file`, if not specified, messages are printed to STDERR")
	fs.BoolVar(&JSONHandler, "log-json", JSONHandler, "log in JSON format")
	fs.BoolVar(&Verbose, "v", Verbose, "verbose messages")
	fs.StringVar(&ProfileName, "profile", ProfileName, "printer `profile`, see 'tp profiles'")
	fs.StringVar(&FontDir, "fonts", FontDir, "font `directory` with the fonts.csv catalogue")

	if mask&OmitOutputFlags == 0 {
		fs.StringVar(&Output, "o", Output, "output `file` or printer device, - for STDOUT")
		fs.StringVar(&Charset, "charset", Charset, fmt.Sprintf("printer character set, one of: %s", strings.Join(Charsets(), ", ")))
		fs.StringVar(&Cut, "cut", Cut, "paper cut at the end of the job: full, partial or none")
		fs.BoolVar(&DryRun, "dry", DryRun, "dry run, write a PNG preview for images and plain text for text")
	}

	if mask&OmitCommonImageFlags == 0 {
		fs.Float64Var(&Gamma, "gamma", bitmap.DefaultGamma, "Gamma correction for dithering")
		fs.StringVar(&Dither, "dither", "", fmt.Sprintf("Dithering algorithm to use, one of: %v", bitmap.AllDitherFunctions()))
		fs.BoolVar(&AutoDither, "auto-dither", false, "automatically disables dithering if a document is detected")
		fs.UintVar(&Threshold, "threshold", bitmap.DefaultThreshold, "luma `threshold` (0-255) for dark dots")
	}
}

// SetDebugLevel enables debug messages of the default logger.
func SetDebugLevel() {
	slog.SetLogLoggerLevel(slog.LevelDebug)
}

var charsets = map[string]encoding.Encoding{
	"gbk":     simplifiedchinese.GBK,
	"gb18030": simplifiedchinese.GB18030,
	"big5":    traditionalchinese.Big5,
	"sjis":    japanese.ShiftJIS,
	"euc-kr":  korean.EUCKR,
	"cp437":   charmap.CodePage437,
	"cp850":   charmap.CodePage850,
	"cp866":   charmap.CodePage866,
	"cp1251":  charmap.Windows1251,
	"cp1252":  charmap.Windows1252,
	"latin1":  charmap.ISO8859_1,
}

// Charsets returns sorted character set names.
func Charsets() []string {
	names := make([]string, 0, len(charsets))
	for name := range charsets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// CharsetByName returns the character set encoding.
func CharsetByName(name string) (encoding.Encoding, error) {
	cs, ok := charsets[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("unknown charset %q, available: %s", name, strings.Join(Charsets(), ", "))
	}
	return cs, nil
}

// CutMode parses the Cut flag.
func CutMode() (escprint.CutMode, error) {
	switch Cut {
	case "full", "":
		return escprint.CutFull, nil
	case "partial":
		return escprint.CutPartial, nil
	case "none":
		return escprint.CutNone, nil
	default:
		return 0, fmt.Errorf("invalid cut mode %q, expected full, partial or none", Cut)
	}
}

// Profile returns the selected printer profile.
func Profile() (escprint.Profile, error) {
	return escprint.ProfileByName(ProfileName)
}

// Fonts returns the font directory, or nil if it's not set.
func Fonts() fs.FS {
	if FontDir == "" {
		return nil
	}
	return os.DirFS(FontDir)
}
