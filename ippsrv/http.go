package ippsrv

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/OpenPrinting/goipp"
)

// MaxDocumentSize is the largest document accepted by Print-Job.
var MaxDocumentSize int64 = 100 << 20

const printersPath = "/printers/"

const (
	hdrContentType = "Content-Type"
	ippMIMEType    = "application/ipp"
)

type Server struct {
	pp   []*Printer
	srv  *http.Server
	mux  *http.ServeMux
	is   *basicIPPServer
	mdns *mdnsSvc
	opts options
}

type options struct {
	spoolDir string
	mdns     bool
	host     string
}

// Option is the server option.
type Option func(*options)

// WithSpoolDir sets the spool directory.  By default, a temporary directory
// is used, and removed on shutdown.
func WithSpoolDir(dir string) Option {
	return func(o *options) {
		o.spoolDir = dir
	}
}

// WithMDNS enables the DNS-SD advertisement of the first printer.
func WithMDNS(enabled bool) Option {
	return func(o *options) {
		o.mdns = enabled
	}
}

// WithHost sets the host name used in advertised URLs.
func WithHost(host string) Option {
	return func(o *options) {
		if host != "" {
			o.host = host
		}
	}
}

// New returns a new IPP server for the printers.  The first printer is the
// default one.
func New(pp []*Printer, opt ...Option) (*Server, error) {
	if len(pp) == 0 {
		return nil, errors.New("at least one printer must be provided")
	}
	opts := options{host: "localhost"}
	for _, o := range opt {
		o(&opts)
	}
	is, err := newBasicIPPServer(printersPath, opts.spoolDir, pp...)
	if err != nil {
		return nil, err
	}
	var s = &Server{
		pp:   pp,
		is:   is,
		opts: opts,
	}

	m := http.NewServeMux()
	m.HandleFunc("GET /{$}", s.handleAdmin)
	m.HandleFunc("POST /{$}", s.handleIPP)
	m.HandleFunc("POST "+ippPrintPath, s.handleIPP)
	m.HandleFunc("POST "+printersPath+"{name}", s.handleIPP)
	m.HandleFunc("GET "+printersPath+"{name}/{job}", s.handleJobOutput)
	s.mux = m
	s.srv = &http.Server{
		Handler:           m,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return s, nil
}

// ServeHTTP serves IPP over HTTP.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func httpError(w http.ResponseWriter, code int) {
	http.Error(w, fmt.Sprintf("%d %s", code, http.StatusText(code)), code)
}

func (s *Server) handleIPP(w http.ResponseWriter, r *http.Request) {
	if ct := r.Header.Get(hdrContentType); ct != ippMIMEType {
		slog.WarnContext(r.Context(), "unexpected content type", "content_type", ct)
		httpError(w, http.StatusUnsupportedMediaType)
		return
	}
	defer r.Body.Close()

	// parse the IPP message, the document follows it.
	var msg goipp.Message
	if err := msg.Decode(r.Body); err != nil {
		slog.WarnContext(r.Context(), "failed to decode the IPP message", "error", err)
		httpError(w, http.StatusBadRequest)
		return
	}
	payload, err := io.ReadAll(io.LimitReader(r.Body, MaxDocumentSize+1))
	if err != nil {
		slog.WarnContext(r.Context(), "failed to read the payload", "error", err)
		httpError(w, http.StatusBadRequest)
		return
	}
	dumpRequest(&msg)

	var resp *goipp.Message
	if int64(len(payload)) > MaxDocumentSize {
		resp = errorResponse(&msg, errorf(goipp.StatusErrorRequestEntity, "document exceeds %d bytes", MaxDocumentSize))
	} else if resp, err = s.is.ServeIPP(r.Context(), &msg, payload); err != nil {
		slog.ErrorContext(r.Context(), "failed to handle the request", "error", err)
		resp = errorResponse(&msg, err)
	}
	dumpResponse(resp)

	w.Header().Set(hdrContentType, ippMIMEType)
	if err := resp.Encode(w); err != nil {
		slog.ErrorContext(r.Context(), "failed to encode response", "error", err)
	}
}

// handleJobOutput returns the command stream rendered for the job.
func (s *Server) handleJobOutput(w http.ResponseWriter, r *http.Request) {
	jobID, err := strconv.Atoi(r.PathValue("job"))
	if err != nil || jobID < 1 {
		httpError(w, http.StatusBadRequest)
		return
	}
	job, err := s.is.spool.GetJob(JobID(jobID))
	if err != nil || job.Printer.Name() != r.PathValue("name") {
		http.NotFound(w, r)
		return
	}
	data, err := s.is.spool.Output(job.ID)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	w.Header().Set(hdrContentType, "application/octet-stream")
	w.Write(data)
}

// handleAdmin prints the printer and job states.
func (s *Server) handleAdmin(w http.ResponseWriter, r *http.Request) {
	slog.DebugContext(r.Context(), "admin requested", "method", r.Method)
	w.Header().Set(hdrContentType, "text/plain; charset=utf-8")
	s.Info(w)
}

// Info writes the printer and job states to w.
func (s *Server) Info(w io.Writer) {
	for _, p := range s.pp {
		fmt.Fprintf(w, "%s (%s): %s, %d active job(s)\n", p.Name(), p.MakeAndModel(), p.State(), s.is.spool.GetJobCount(p.Name()))
		for _, j := range s.is.spool.GetJobs(p.Name()) {
			fmt.Fprintf(w, "  %5d %-12s %-16s %s\n", j.ID, j.State(), j.Username, j.Name)
		}
	}
}

func (s *Server) ListenAndServe(addr string) error {
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(l)
}

// Serve accepts connections on l, and advertises the default printer if
// mDNS is enabled.
func (s *Server) Serve(l net.Listener) error {
	if s.opts.mdns {
		port := l.Addr().(*net.TCPAddr).Port
		mdns, err := newMDNS(s.pp[0], s.opts.host, port)
		if err != nil {
			l.Close()
			return fmt.Errorf("mdns: %w", err)
		}
		s.mdns = mdns
	}
	return s.srv.Serve(l)
}

func (s *Server) Shutdown(ctx context.Context) error {
	sctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if s.mdns != nil {
		s.mdns.Shutdown()
	}
	var errs error
	for _, fn := range []func(ctx context.Context) error{
		s.srv.Shutdown,
		s.is.Shutdown,
	} {
		if err := fn(sctx); err != nil {
			errs = errors.Join(errs, err)
		}
	}
	return errs
}
