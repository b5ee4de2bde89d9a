package ippsrv

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"time"

	"github.com/OpenPrinting/goipp"
	"github.com/rusq/osenv/v2"
)

// DumpDir is the directory IPP messages are dumped to, in text and JSON
// form.  Empty disables dumping.
var DumpDir = osenv.Value("IPP_DUMP_DIR", "")

// DebugServer copies everything received on addr to w, a raw listener to
// see what a client sends.
func DebugServer(ctx context.Context, addr string, w io.Writer) error {
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	go func() {
		<-ctx.Done()
		l.Close()
	}()
	for {
		conn, err := l.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return ctx.Err()
			}
			return err
		}
		go func() {
			defer conn.Close()
			if _, err := io.Copy(w, conn); err != nil {
				slog.Error("debug server", "err", err)
			}
		}()
	}
}

func dumpRequest(msg *goipp.Message) {
	dumpMessage("request", msg, (*goipp.Formatter).FmtRequest)
}

func dumpResponse(msg *goipp.Message) {
	dumpMessage("response", msg, (*goipp.Formatter).FmtResponse)
}

func dumpMessage(kind string, msg *goipp.Message, fmtFn func(*goipp.Formatter, *goipp.Message)) {
	if DumpDir == "" || msg == nil {
		return
	}
	base := filepath.Join(DumpDir, fmt.Sprintf("%s_%d_%d_%04x", kind, time.Now().UnixNano(), msg.RequestID, uint16(msg.Code)))
	if err := dumpfile(base+".ipp", func(w io.Writer) error {
		fm := goipp.NewFormatter()
		fmtFn(fm, msg)
		_, err := fm.WriteTo(w)
		return err
	}); err != nil {
		slog.Error("dump", "err", err, "kind", kind)
	}
	if err := dumpfile(base+".json", func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(msg)
	}); err != nil {
		slog.Error("dump", "err", err, "kind", kind)
	}
}

func dumpfile(filename string, fn func(io.Writer) error) error {
	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer f.Close()
	return fn(f)
}
