// Package cmdtext provides a text printing subcommand.
package cmdtext

import (
	"context"
	"errors"
	"fmt"
	"io"

	"golang.org/x/image/font"

	"github.com/rusq/escprint"
	"github.com/rusq/escprint/cmd/tp/internal/bootstrap"
	"github.com/rusq/escprint/cmd/tp/internal/cfg"
	"github.com/rusq/escprint/cmd/tp/internal/golang/base"
	"github.com/rusq/escprint/fontmgr"
)

var CmdText = &base.Command{
	Run:        runText,
	UsageLine:  "tp text [flags] <filename or - for stdin>",
	Short:      "prints text",
	PrintFlags: true,
	Long: `
Prints the text from the specified file or from stdin if '-' is used.

By default, the text is printed with the printer's own font in the
character set selected with -charset.  With -image, the text is rendered
with a font as an image, which works for any script.
`,
}

var (
	AsImage     bool
	FontFile    string
	FontName    string
	TTFFontSize float64
	TTFDPI      float64
)

func init() {
	CmdText.Flag.BoolVar(&AsImage, "image", false, "render the text as an image")
	CmdText.Flag.StringVar(&FontFile, "font-file", "", "font `filename` (overrides -font), implies -image")
	CmdText.Flag.StringVar(&FontName, "font", "", "built-in or catalogue font `name`, implies -image, see 'tp fonts'")
	CmdText.Flag.Float64Var(&TTFFontSize, "font-size", 12.0, "font size in `pt` for true-type fonts")
	CmdText.Flag.Float64Var(&TTFDPI, "dpi", escprint.DefaultDPI, "DPI for TrueType fonts")
}

func runText(ctx context.Context, cmd *base.Command, args []string) error {
	if len(args) != 1 {
		base.SetExitStatus(base.SInvalidParameters)
		return errors.New("expected exactly one argument")
	}

	f, err := bootstrap.Open(args[0])
	if err != nil {
		return err
	}
	data, err := io.ReadAll(f)
	f.Close()
	if err != nil {
		return fmt.Errorf("failed to read text: %w", err)
	}
	text := string(data)

	var face font.Face
	if AsImage || FontFile != "" || FontName != "" {
		if face, err = loadFace(); err != nil {
			base.SetExitStatus(base.SInvalidParameters)
			return err
		}
	}

	dev, err := bootstrap.Device(ctx)
	if err != nil {
		return err
	}
	if face != nil {
		err = dev.PrintTextImage(ctx, text, face)
	} else {
		err = dev.PrintText(ctx, text)
	}
	if err != nil {
		base.SetExitStatus(base.SApplicationError)
		return err
	}
	return nil
}

func loadFace() (font.Face, error) {
	switch {
	case FontFile != "":
		return fontmgr.LoadFromFile(FontFile, TTFFontSize, TTFDPI)
	case FontName != "":
		return fontmgr.LoadByName(cfg.Fonts(), FontName)
	default:
		return fontmgr.DefaultFont, nil
	}
}
