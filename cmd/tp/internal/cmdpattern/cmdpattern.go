// Package cmdpattern provides pattern printing subcommand.
package cmdpattern

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/rusq/escprint/bitmap"
	"github.com/rusq/escprint/cmd/tp/internal/bootstrap"
	"github.com/rusq/escprint/cmd/tp/internal/golang/base"
)

var CmdPattern = &base.Command{
	Run:        runPattern,
	UsageLine:  "tp pattern [flags] <pattern name>",
	Short:      "prints a test pattern",
	PrintFlags: true,
	Long: `
Prints a test pattern across the printable width, to check the print head
and the image width of the profile.
`,
}

var ListPatterns bool

func init() {
	CmdPattern.Flag.BoolVar(&ListPatterns, "list", false, "list patterns")
}

func runPattern(ctx context.Context, cmd *base.Command, args []string) error {
	if ListPatterns {
		return listPatterns(os.Stdout)
	}
	if len(args) != 1 {
		base.SetExitStatus(base.SInvalidParameters)
		listPatterns(os.Stderr)
		return errors.New("expected pattern name")
	}

	dev, err := bootstrap.Device(ctx)
	if err != nil {
		return err
	}
	if err := dev.PrintPattern(ctx, args[0]); err != nil {
		base.SetExitStatus(base.SInvalidParameters)
		return err
	}
	return nil
}

func listPatterns(w io.Writer) error {
	_, err := fmt.Fprintf(w, "Available test patterns: %v\n", bitmap.AllPatterns())
	return err
}
