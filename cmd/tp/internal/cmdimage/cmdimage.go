// Package cmdimage provides image printing subcommand.
package cmdimage

import (
	"context"
	"errors"
	"fmt"
	"image"

	"github.com/rusq/escprint/cmd/tp/internal/bootstrap"
	"github.com/rusq/escprint/cmd/tp/internal/golang/base"
)

var CmdImage = &base.Command{
	Run:        runImage,
	UsageLine:  "tp image [flags] <image file or ->",
	Short:      "prints an image file",
	PrintFlags: true,
	Long: `
Prints an image, scaled down to the printable width of the profile.
Supported formats are PNG, JPEG, GIF, BMP and WebP.
`,
}

func runImage(ctx context.Context, cmd *base.Command, args []string) error {
	if len(args) != 1 {
		base.SetExitStatus(base.SInvalidParameters)
		return errors.New("expected only one image")
	}

	f, err := bootstrap.Open(args[0])
	if err != nil {
		return err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		base.SetExitStatus(base.SUserError)
		return fmt.Errorf("failed to decode %s: %w", args[0], err)
	}

	dev, err := bootstrap.Device(ctx)
	if err != nil {
		return err
	}
	if err := dev.PrintImage(ctx, img); err != nil {
		base.SetExitStatus(base.SApplicationError)
		return err
	}
	return nil
}
