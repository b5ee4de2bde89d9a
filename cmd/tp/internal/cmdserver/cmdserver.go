// Package cmdserver provides the IPP print server subcommand.
package cmdserver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/rusq/escprint/cmd/tp/internal/bootstrap"
	"github.com/rusq/escprint/cmd/tp/internal/cfg"
	"github.com/rusq/escprint/cmd/tp/internal/golang/base"
	"github.com/rusq/escprint/ippsrv"
)

var CmdServer = &base.Command{
	Run:        runServer,
	UsageLine:  "tp server [flags]",
	Short:      "starts the IPP print server",
	PrintFlags: true,
	Long: `
Starts an IPP Everywhere print server for the printer.  Clients can print
images, and PDF or PostScript documents if ImageMagick is installed.

The printer is available at ipp://<addr>/ipp/print and is announced over
mDNS unless -mdns=false is given.  The spooled jobs are kept for a day.
`,
}

var (
	addr      string
	spoolDir  string
	mdns      bool
	name      string
	debugAddr string
)

func init() {
	CmdServer.Flag.StringVar(&addr, "addr", "localhost:6310", "listen `address`")
	CmdServer.Flag.StringVar(&spoolDir, "spool", "", "spool `directory`, temporary if empty")
	CmdServer.Flag.BoolVar(&mdns, "mdns", true, "announce the printer over mDNS")
	CmdServer.Flag.StringVar(&name, "name", "Thermal Printer", "printer `name` shown to clients")
	CmdServer.Flag.StringVar(&debugAddr, "debug-addr", "", "raw debug listener `address`, dumps requests to STDERR")
}

func runServer(ctx context.Context, cmd *base.Command, args []string) error {
	if len(args) > 0 {
		base.SetExitStatus(base.SInvalidParameters)
		return fmt.Errorf("unexpected arguments: %v", args)
	}
	prof, err := cfg.Profile()
	if err != nil {
		base.SetExitStatus(base.SInvalidParameters)
		return err
	}
	dev, err := bootstrap.Device(ctx)
	if err != nil {
		return err
	}
	prn, err := ippsrv.WrapDriver(dev, "default", name,
		ippsrv.WithInfo(prof.Description),
		ippsrv.WithMedia("roll_"+prof.Name),
	)
	if err != nil {
		base.SetExitStatus(base.SApplicationError)
		return fmt.Errorf("failed to wrap printer: %w", err)
	}
	s, err := ippsrv.New([]*ippsrv.Printer{prn},
		ippsrv.WithSpoolDir(spoolDir),
		ippsrv.WithMDNS(mdns),
	)
	if err != nil {
		base.SetExitStatus(base.SApplicationError)
		return err
	}
	cfg.RegisterSigInfoReporter(s.Info)

	if debugAddr != "" {
		go func() {
			slog.Info("starting debug listener", "addr", debugAddr)
			if err := ippsrv.DebugServer(ctx, debugAddr, os.Stderr); err != nil && !errors.Is(err, context.Canceled) {
				slog.Error("debug listener", "err", err)
			}
		}()
	}

	go func() {
		<-ctx.Done()
		if err := s.Shutdown(context.Background()); err != nil {
			slog.Error("error shutting down server", "err", err)
		} else {
			slog.Info("server shut down successfully")
		}
	}()

	slog.Info("starting server", "addr", addr, "profile", prof.Name)
	if err := s.ListenAndServe(addr); err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		base.SetExitStatus(base.SApplicationError)
		return err
	}
	return nil
}
