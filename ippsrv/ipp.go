// Package ippsrv implements a basic IPP server that turns submitted
// documents into receipt printer jobs.
//
// References:
//   - https://datatracker.ietf.org/doc/html/rfc8011
//   - https://datatracker.ietf.org/doc/html/rfc3510
package ippsrv

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"slices"
	"strconv"
	"strings"

	"github.com/OpenPrinting/goipp"
)

// ippPrintPath is the resource path IPP Everywhere clients try first, it
// maps to the default printer.
const ippPrintPath = "/ipp/print"

type basicIPPServer struct {
	basePath string
	printers map[string]*Printer
	def      *Printer // default printer
	spool    *spool
}

type IPPHandler interface {
	ServeIPP(ctx context.Context, req *goipp.Message, body []byte) (resp *goipp.Message, err error)
}

type IPPHandlerFunc func(ctx context.Context, req *goipp.Message, body []byte) (resp *goipp.Message, err error)

func (f IPPHandlerFunc) ServeIPP(ctx context.Context, req *goipp.Message, body []byte) (resp *goipp.Message, err error) {
	return f(ctx, req, body)
}

func newBasicIPPServer(basePath string, spoolDir string, pp ...*Printer) (*basicIPPServer, error) {
	if len(pp) == 0 {
		return nil, errors.New("at least one printer must be provided")
	}
	var printers = make(map[string]*Printer, len(pp))
	for _, p := range pp {
		if p == nil {
			return nil, errors.New("printer cannot be nil")
		}
		if p.Name() == "" {
			return nil, errors.New("printer IPP name cannot be empty")
		}
		if _, exists := printers[p.Name()]; exists {
			return nil, errors.New("printer with IPP name " + strconv.Quote(p.Name()) + " already exists")
		}
		printers[p.Name()] = p
	}
	spool, err := newSpool(spoolDir)
	if err != nil {
		return nil, err
	}
	return &basicIPPServer{
		basePath: basePath,
		printers: printers,
		def:      pp[0],
		spool:    spool,
	}, nil
}

func (ih *basicIPPServer) Shutdown(ctx context.Context) error {
	slog.Info("shutting down IPP server")
	if err := ih.spool.Close(); err != nil {
		return err
	}
	slog.Info("IPP server shut down successfully")
	return nil
}

// ServeIPP dispatches the request.  Errors are turned into IPP error
// responses, the returned error is never nil only if the response is nil.
func (ih *basicIPPServer) ServeIPP(ctx context.Context, req *goipp.Message, body []byte) (*goipp.Message, error) {
	lg := slog.With("op", goipp.Op(req.Code), "request_id", req.RequestID)
	lg.Info("ipp request received")
	var handlers = map[goipp.Op]IPPHandlerFunc{
		goipp.OpPrintJob:             ih.handlePrintJob,
		goipp.OpValidateJob:          ih.handleValidateJob,
		goipp.OpCancelJob:            ih.handleCancelJob,
		goipp.OpGetJobAttributes:     ih.handleGetJobAttributes,
		goipp.OpGetJobs:              ih.handleGetJobs,
		goipp.OpGetPrinterAttributes: ih.handleGetPrinterAttributes,
	}
	next, ok := handlers[goipp.Op(req.Code)]
	if !ok {
		lg.Warn("unsupported operation")
		return errorResponse(req, errorf(goipp.StatusErrorOperationNotSupported, "operation %s is not supported", goipp.Op(req.Code))), nil
	}
	resp, err := next(ctx, req, body)
	if err != nil {
		lg.Warn("ipp request failed", "error", err)
		return errorResponse(req, err), nil
	}
	return resp, nil
}

func errorResponse(req *goipp.Message, err error) *goipp.Message {
	status := goipp.StatusErrorInternal
	msg := err.Error()
	var ie *ippError
	if errors.As(err, &ie) {
		status, msg = ie.status, ie.msg
	}
	resp := newResponse(req, status)
	adder(&resp.Operation)("status-message", goipp.TagText, goipp.String(msg))
	return resp
}

func (ih *basicIPPServer) printerAttributes(p *Printer, printerURI string) goipp.Attributes {
	var attrs goipp.Attributes
	a := adder(&attrs)
	a("printer-uri-supported", goipp.TagURI, goipp.String(printerURI))
	a("uri-authentication-supported", goipp.TagKeyword, ippNone)
	a("uri-security-supported", goipp.TagKeyword, ippNone)
	a("printer-name", goipp.TagName, goipp.String(p.Name()))
	a("printer-info", goipp.TagText, goipp.String(p.Info()))
	a("printer-make-and-model", goipp.TagText, goipp.String(p.MakeAndModel()))
	a("printer-state", goipp.TagEnum, goipp.Integer(p.State()))
	a("printer-state-reasons", goipp.TagKeyword, ippNone)
	a("ipp-versions-supported", goipp.TagKeyword, goipp.String("1.1"), goipp.String("2.0"))
	a("operations-supported", goipp.TagEnum,
		goipp.Integer(goipp.OpPrintJob),
		goipp.Integer(goipp.OpValidateJob),
		goipp.Integer(goipp.OpCancelJob),
		goipp.Integer(goipp.OpGetJobAttributes),
		goipp.Integer(goipp.OpGetJobs),
		goipp.Integer(goipp.OpGetPrinterAttributes),
	)
	a("multiple-document-jobs-supported", goipp.TagBoolean, goipp.Boolean(false))
	a("charset-configured", goipp.TagCharset, ippUTF8)
	a("charset-supported", goipp.TagCharset, ippUTF8)
	a("natural-language-configured", goipp.TagLanguage, ippENUS)
	a("generated-natural-language-supported", goipp.TagLanguage, ippENUS)
	a("document-format-default", goipp.TagMimeType, goipp.String(ippOctetStream))
	a("document-format-supported", goipp.TagMimeType, stringsToValues(p.Formats())...)
	a("printer-is-accepting-jobs", goipp.TagBoolean, goipp.Boolean(p.Ready()))
	a("queued-job-count", goipp.TagInteger, goipp.Integer(ih.spool.GetJobCount(p.Name())))
	a("pdl-override-supported", goipp.TagKeyword, goipp.String("not-attempted"))
	a("printer-up-time", goipp.TagInteger, goipp.Integer(p.UpTime()))
	a("compression-supported", goipp.TagKeyword, ippNone)
	a("media-supported", goipp.TagKeyword, goipp.String(p.Media()))
	a("media-default", goipp.TagKeyword, goipp.String(p.Media()))
	a("media-ready", goipp.TagKeyword, goipp.String(p.Media()))
	a("printer-resolution-default", goipp.TagResolution, resolution(p))
	a("printer-resolution-supported", goipp.TagResolution, resolution(p))
	a("color-supported", goipp.TagBoolean, goipp.Boolean(false))
	a("printer-uuid", goipp.TagURI, goipp.String(p.UUID()))
	return attrs
}

func resolution(p *Printer) goipp.Value {
	dpi := int(p.Driver().DPI())
	return goipp.Resolution{Xres: dpi, Yres: dpi, Units: goipp.UnitsDpi}
}

func (ih *basicIPPServer) handleGetPrinterAttributes(ctx context.Context, req *goipp.Message, _ []byte) (*goipp.Message, error) {
	p, uri, err := ih.printerFromRequest(req)
	if err != nil {
		return nil, err
	}
	kw := requested(req.Operation)
	slog.DebugContext(ctx, "requested attributes", "printer", p.Name(), "attrs", kw)

	resp := newResponse(req, goipp.StatusOk)
	setGroups(resp, goipp.TagPrinterGroup, filterAttrs(ih.printerAttributes(p, uri), kw))
	return resp, nil
}

// printerFromRequest resolves the printer-uri operation attribute.
func (ih *basicIPPServer) printerFromRequest(req *goipp.Message) (*Printer, string, error) {
	printerURI := stringAttr(req.Operation, "printer-uri", "")
	if printerURI == "" {
		return nil, "", errorf(goipp.StatusErrorBadRequest, "printer-uri is missing")
	}
	uri, err := url.Parse(printerURI)
	if err != nil {
		return nil, "", errorf(goipp.StatusErrorBadRequest, "failed to parse printer-uri %q: %s", printerURI, err)
	}
	if uri.Scheme != "ipp" && uri.Scheme != "ipps" && uri.Scheme != "http" {
		return nil, "", errorf(goipp.StatusErrorBadRequest, "printer-uri %q has unsupported scheme %q", printerURI, uri.Scheme)
	}
	p, err := ih.printerByPath(uri.Path)
	if err != nil {
		return nil, "", err
	}
	return p, printerURI, nil
}

func (ih *basicIPPServer) printerByPath(path string) (*Printer, error) {
	if path == "" || path == "/" || path == ippPrintPath {
		return ih.def, nil
	}
	name := strings.Trim(strings.TrimPrefix(path, ih.basePath), "/")
	if p, ok := ih.printers[name]; ok {
		return p, nil
	}
	return nil, errorf(goipp.StatusErrorNotFound, "printer %q not found", path)
}

// checkFormat validates the document-format attribute.
func checkFormat(p *Printer, req *goipp.Message) (string, error) {
	format := stringAttr(req.Operation, "document-format", ippOctetStream)
	if !p.Supports(format) {
		return "", errorf(goipp.StatusErrorDocumentFormatNotSupported, "document format %q is not supported", format)
	}
	return format, nil
}

func (ih *basicIPPServer) handleValidateJob(ctx context.Context, req *goipp.Message, _ []byte) (*goipp.Message, error) {
	p, _, err := ih.printerFromRequest(req)
	if err != nil {
		return nil, err
	}
	if _, err := checkFormat(p, req); err != nil {
		return nil, err
	}
	return newResponse(req, goipp.StatusOk), nil
}

// ref: https://datatracker.ietf.org/doc/html/rfc8011#section-4.2.1
func (ih *basicIPPServer) handlePrintJob(ctx context.Context, req *goipp.Message, body []byte) (*goipp.Message, error) {
	p, _, err := ih.printerFromRequest(req)
	if err != nil {
		return nil, err
	}
	if !p.Ready() {
		return nil, errorf(goipp.StatusErrorNotAcceptingJobs, "printer %s is not accepting jobs", p.Name())
	}
	if _, err := checkFormat(p, req); err != nil {
		return nil, err
	}
	if len(body) == 0 {
		return nil, errorf(goipp.StatusErrorBadRequest, "no document data")
	}
	j, err := createJobFromRequest(p, ih.spool.NextID(), req, len(body))
	if err != nil {
		return nil, errorf(goipp.StatusErrorBadRequest, "%s", err)
	}
	if err := ih.spool.AddJob(j, body); err != nil {
		if errors.Is(err, errSpoolFull) {
			return nil, errorf(goipp.StatusErrorBusy, "%s", err)
		}
		return nil, err
	}
	resp := newResponse(req, goipp.StatusOk)
	setGroups(resp, goipp.TagJobGroup, j.statusAttributes())
	return resp, nil
}

// jobFromRequest finds the job by job-id, or by job-uri.
func (ih *basicIPPServer) jobFromRequest(req *goipp.Message) (*Job, error) {
	var id JobID
	if v, err := extractValue[goipp.Integer](req.Operation, "job-id"); err == nil {
		id = JobID(v)
	} else if uri := stringAttr(req.Operation, "job-uri", ""); uri != "" {
		n, err := strconv.Atoi(uri[strings.LastIndex(uri, "/")+1:])
		if err != nil {
			return nil, errorf(goipp.StatusErrorBadRequest, "invalid job-uri %q", uri)
		}
		id = JobID(n)
	}
	if id <= 0 {
		return nil, errorf(goipp.StatusErrorBadRequest, "job-id not provided in request")
	}
	job, err := ih.spool.GetJob(id)
	if err != nil {
		return nil, errorf(goipp.StatusErrorNotFound, "job %d: %s", id, err)
	}
	return job, nil
}

func (ih *basicIPPServer) handleGetJobAttributes(ctx context.Context, req *goipp.Message, _ []byte) (*goipp.Message, error) {
	job, err := ih.jobFromRequest(req)
	if err != nil {
		return nil, err
	}
	resp := newResponse(req, goipp.StatusOk)
	setGroups(resp, goipp.TagJobGroup, filterAttrs(job.attributes(), requested(req.Operation)))
	return resp, nil
}

func (ih *basicIPPServer) handleCancelJob(ctx context.Context, req *goipp.Message, _ []byte) (*goipp.Message, error) {
	job, err := ih.jobFromRequest(req)
	if err != nil {
		return nil, err
	}
	if err := ih.spool.CancelJob(ctx, job.ID); err != nil {
		if errors.Is(err, errJobFinished) {
			return nil, errorf(goipp.StatusErrorNotPossible, "job %d is %s", job.ID, job.State())
		}
		return nil, err
	}
	return newResponse(req, goipp.StatusOk), nil
}

// ref: https://datatracker.ietf.org/doc/html/rfc8011#section-4.2.6
func (ih *basicIPPServer) handleGetJobs(ctx context.Context, req *goipp.Message, _ []byte) (*goipp.Message, error) {
	p, _, err := ih.printerFromRequest(req)
	if err != nil {
		return nil, err
	}
	var (
		which    = stringAttr(req.Operation, "which-jobs", "not-completed")
		username = stringAttr(req.Operation, "requesting-user-name", "")
		limit    = 0
		myJobs   bool
	)
	if v, err := extractValue[goipp.Integer](req.Operation, "limit"); err == nil {
		limit = int(v)
	}
	if v, err := extractValue[goipp.Boolean](req.Operation, "my-jobs"); err == nil {
		myJobs = bool(v)
	}
	if !slices.Contains([]string{"completed", "not-completed", "all"}, which) {
		return nil, errorf(goipp.StatusErrorAttributesOrValues, "which-jobs %q is not supported", which)
	}
	slog.DebugContext(ctx, "get jobs", "printer", p.Name(), "which", which, "username", username, "limit", limit)

	kw := requested(req.Operation)
	if len(kw) == 0 {
		// RFC 8011 4.2.6.1: job-id and job-uri by default.
		kw = []string{"job-id", "job-uri"}
	}
	var sets []goipp.Attributes
	for _, job := range ih.spool.GetJobs(p.Name()) {
		if myJobs && job.Username != username {
			continue
		}
		done := job.IsCompleted()
		if (which == "completed" && !done) || (which == "not-completed" && done) {
			continue
		}
		sets = append(sets, filterAttrs(job.attributes(), kw))
		if limit > 0 && len(sets) == limit {
			break
		}
	}
	resp := newResponse(req, goipp.StatusOk)
	setGroups(resp, goipp.TagJobGroup, sets...)
	return resp, nil
}
