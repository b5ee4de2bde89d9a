package cfg

import (
	"io"
	"sync"
)

// InfoReportFunc writes a status report of a running component to w.
type InfoReportFunc func(w io.Writer)

var (
	sigMu        sync.Mutex
	sigReporters []InfoReportFunc
)

// RegisterSigInfoReporter adds fn to the reporters called on the status
// signal.
func RegisterSigInfoReporter(fn InfoReportFunc) {
	if fn == nil {
		return
	}
	sigMu.Lock()
	sigReporters = append(sigReporters, fn)
	sigMu.Unlock()
}

// SigInfo calls all registered reporters.
func SigInfo(w io.Writer) {
	if w == nil {
		return
	}
	sigMu.Lock()
	defer sigMu.Unlock()
	for _, fn := range sigReporters {
		fn(w)
	}
}
