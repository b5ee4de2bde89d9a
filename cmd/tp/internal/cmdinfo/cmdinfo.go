// Package cmdinfo provides the subcommands that list printer profiles and
// fonts.
package cmdinfo

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/pterm/pterm"

	"github.com/rusq/escprint"
	"github.com/rusq/escprint/cmd/tp/internal/cfg"
	"github.com/rusq/escprint/cmd/tp/internal/golang/base"
	"github.com/rusq/escprint/fontmgr"
)

var CmdProfiles = &base.Command{
	Run:        runProfiles,
	UsageLine:  "tp profiles",
	Short:      "lists printer profiles",
	FlagMask:   cfg.OmitAll,
	PrintFlags: true,
	Long: `
Lists the printer profiles that can be selected with -profile.  A profile
describes the paper: the rule width, the number of characters per line for
each character size and the printable image width in dots.
`,
}

var CmdFonts = &base.Command{
	Run:        runFonts,
	UsageLine:  "tp fonts",
	Short:      "lists fonts",
	FlagMask:   cfg.OmitAll,
	PrintFlags: true,
	Long: `
Lists the built-in bitmap fonts and the fonts in the font directory given
with -fonts.  The font directory must contain a fonts.csv catalogue with
the columns name, file, dimx and dimy.
`,
}

func runProfiles(ctx context.Context, cmd *base.Command, args []string) error {
	pp, err := escprint.AllProfiles()
	if err != nil {
		base.SetExitStatus(base.SApplicationError)
		return err
	}
	return printProfiles(os.Stdout, pp)
}

func printProfiles(w io.Writer, pp []escprint.Profile) error {
	data := pterm.TableData{{"Name", "Description", "Rule", "Chars", "Image width"}}
	for _, p := range pp {
		chars := make([]string, len(p.Chars))
		for i, n := range p.Chars {
			chars[i] = strconv.Itoa(n)
		}
		name := p.Name
		if p.Name == escprint.DefaultProfile.Name {
			name += " *"
		}
		data = append(data, []string{
			name,
			p.Description,
			strconv.Itoa(p.Rule),
			strings.Join(chars, "/"),
			strconv.Itoa(p.ImageWidth),
		})
	}
	return pterm.DefaultTable.WithHasHeader().WithData(data).WithWriter(w).Render()
}

func runFonts(ctx context.Context, cmd *base.Command, args []string) error {
	ff, err := collectFonts(ctx, cfg.Fonts())
	if err != nil {
		base.SetExitStatus(base.SApplicationError)
		return err
	}
	return printFonts(os.Stdout, ff)
}

// collectFonts returns all fonts, invalid catalogue entries are logged and
// skipped.
func collectFonts(ctx context.Context, fsys fs.FS) ([]fontmgr.BitmapFont, error) {
	var ff []fontmgr.BitmapFont
	err := fontmgr.ListAllFonts(fsys, func(bf fontmgr.BitmapFont, err error) error {
		if err != nil {
			slog.WarnContext(ctx, "skipping font", "name", bf.Name, "error", err)
			return fontmgr.ErrSkip
		}
		ff = append(ff, bf)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ff, nil
}

func printFonts(w io.Writer, ff []fontmgr.BitmapFont) error {
	data := pterm.TableData{{"Name", "Size", "Source"}}
	for _, f := range ff {
		src := f.Filename
		if f.IsEmbedded {
			src = "built-in"
		}
		data = append(data, []string{f.Name, fmt.Sprintf("%dx%d", f.Width, f.Height), src})
	}
	return pterm.DefaultTable.WithHasHeader().WithData(data).WithWriter(w).Render()
}
