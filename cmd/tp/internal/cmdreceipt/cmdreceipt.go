// Package cmdreceipt provides the receipt script printing subcommand.
package cmdreceipt

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rusq/escprint/cmd/tp/internal/bootstrap"
	"github.com/rusq/escprint/cmd/tp/internal/cfg"
	"github.com/rusq/escprint/cmd/tp/internal/golang/base"
	"github.com/rusq/escprint/receipt"
)

var CmdReceipt = &base.Command{
	Run:        runReceipt,
	UsageLine:  "tp receipt [flags] <filename or ->",
	Short:      "prints a receipt script",
	PrintFlags: true,
	Long: `
Prints a receipt described by a script.  Plain lines are printed as they
are, lines starting with a dot are commands:

	.align l|c|r         alignment (.al)
	.bold on|off         emphasis (.b)
	.size N              character size, 0-7
	.height N            line spacing in dots, 0-255
	.line                horizontal rule
	.pair LEFT | RIGHT   two columns justified to the edges
	.feed [N]            feed N lines
	.cut, .cutp          full and partial cut
	.image FILE          image, relative to the script directory (.im)
	.font NAME [SIZE]    font for banners, name or font file (.ft)
	.banner TEXT         text rendered as an image
	.pattern NAME        test pattern
	.reset               start over

A line starting with ".." prints the line with one dot.  The receipt ends
with the cut selected by -cut, use -cut=none if the script cuts the paper
itself.

Example:

	.align c
	.size 1
	COFFEE HOUSE
	.size 0
	.align l
	.line
	.pair Latte | 4.50
	.pair TOTAL | 4.50
`,
}

func runReceipt(ctx context.Context, cmd *base.Command, args []string) error {
	if len(args) != 1 {
		base.SetExitStatus(base.SInvalidParameters)
		return errors.New("expected exactly one argument: filename or '-' for stdin")
	}
	filename := args[0]

	f, err := bootstrap.Open(filename)
	if err != nil {
		return fmt.Errorf("unable to open file %q: %w", filename, err)
	}
	defer f.Close()

	dir := "."
	if filename != "-" {
		dir = filepath.Dir(filename)
	}

	dev, err := bootstrap.Device(ctx)
	if err != nil {
		return err
	}
	w := dev.NewWriter()
	doc := receipt.NewDocument(w,
		receipt.WithFiles(os.DirFS(dir)),
		receipt.WithFonts(cfg.Fonts()),
		receipt.WithDPI(dev.DPI()),
	)
	if err := doc.Parse(f); err != nil {
		base.SetExitStatus(base.SUserError)
		return err
	}
	if err := dev.Write(ctx, dev.Finish(w)); err != nil {
		base.SetExitStatus(base.SApplicationError)
		return err
	}
	return nil
}
