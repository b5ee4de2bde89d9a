// Package bootstrap creates the objects the commands share.
package bootstrap

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/rusq/escprint"
	"github.com/rusq/escprint/cmd/tp/internal/cfg"
	"github.com/rusq/escprint/cmd/tp/internal/golang/base"
)

// Device returns the device configured by the common flags.  The output is
// closed on exit.
func Device(ctx context.Context) (*escprint.Device, error) {
	prof, err := cfg.Profile()
	if err != nil {
		base.SetExitStatus(base.SInvalidParameters)
		return nil, err
	}
	cs, err := cfg.CharsetByName(cfg.Charset)
	if err != nil {
		base.SetExitStatus(base.SInvalidParameters)
		return nil, err
	}
	cut, err := cfg.CutMode()
	if err != nil {
		base.SetExitStatus(base.SInvalidParameters)
		return nil, err
	}
	if cfg.Threshold > 255 {
		base.SetExitStatus(base.SInvalidParameters)
		return nil, fmt.Errorf("threshold %d is out of range [0, 255]", cfg.Threshold)
	}
	out, err := openOutput(cfg.Output)
	if err != nil {
		base.SetExitStatus(base.SApplicationError)
		return nil, err
	}
	base.AtExit(func() {
		if err := out.Close(); err != nil {
			slog.ErrorContext(ctx, "error closing the output", "error", err)
		}
	})
	dev, err := escprint.NewDevice(out, prof,
		escprint.WithDither(cfg.Dither),
		escprint.WithGamma(cfg.Gamma),
		escprint.WithAutoDither(cfg.AutoDither),
		escprint.WithThreshold(uint8(cfg.Threshold)),
		escprint.WithDeviceCharset(cs),
		escprint.WithDryRun(cfg.DryRun),
		escprint.WithCut(cut),
	)
	if err != nil {
		base.SetExitStatus(base.SInvalidParameters)
		return nil, fmt.Errorf("failed to create device: %w", err)
	}
	slog.DebugContext(ctx, "device ready", "profile", prof.Name, "output", cfg.Output, "dry_run", cfg.DryRun)
	return dev, nil
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

// openOutput opens the output file or printer device, "-" is STDOUT.
// Regular files are truncated, device nodes are not.
func openOutput(name string) (io.WriteCloser, error) {
	if name == "" || name == "-" {
		return nopCloser{os.Stdout}, nil
	}
	flag := os.O_CREATE | os.O_WRONLY | os.O_TRUNC
	if fi, err := os.Stat(name); err == nil && !fi.Mode().IsRegular() {
		flag = os.O_WRONLY
	}
	f, err := os.OpenFile(name, flag, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open output: %w", err)
	}
	return f, nil
}

// Open opens the input file, "-" is STDIN.
func Open(name string) (io.ReadCloser, error) {
	if name == "-" {
		return io.NopCloser(os.Stdin), nil
	}
	f, err := os.Open(name)
	if err != nil {
		base.SetExitStatus(base.SInvalidParameters)
		return nil, err
	}
	return f, nil
}
