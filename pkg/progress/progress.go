// Package progress defines the synchronous progress sink used by the warp
// fitter and the resampler, plus a few ready-made sinks.
package progress

import (
	"context"
	"sync/atomic"
)

// Severity classifies a progress report.
type Severity int

const (
	Normal Severity = iota
	Warning
	Error
)

// String returns the lower-case name of the severity.
func (s Severity) String() string {
	switch s {
	case Normal:
		return "normal"
	case Warning:
		return "warning"
	case Error:
		return "error"
	default:
		return "unknown"
	}
}

// Sink receives progress reports. Report is called synchronously from the
// computing goroutine and must not block for long. Aborted is polled at safe
// points (between output rows when resampling); once it returns true the
// operation stops and returns an aborted error.
type Sink interface {
	Report(message string, percent int, severity Severity)
	Aborted() bool
}

// Report forwards to s when it is non-nil.
func Report(s Sink, message string, percent int, severity Severity) {
	if s != nil {
		s.Report(message, percent, severity)
	}
}

// Aborted reports whether s is non-nil and has requested cancellation.
func Aborted(s Sink) bool {
	return s != nil && s.Aborted()
}

// Discard is a sink that ignores every report and never aborts.
var Discard Sink = discard{}

type discard struct{}

func (discard) Report(string, int, Severity) {}
func (discard) Aborted() bool                { return false }

// Func adapts a plain function to a Sink that never aborts.
type Func func(message string, percent int, severity Severity)

func (f Func) Report(message string, percent int, severity Severity) {
	f(message, percent, severity)
}

func (f Func) Aborted() bool { return false }

// Abortable wraps a sink with a cancellation flag that can be raised from any
// goroutine.
type Abortable struct {
	inner   Sink
	aborted atomic.Bool
}

// NewAbortable wraps inner. A nil inner discards reports.
func NewAbortable(inner Sink) *Abortable {
	if inner == nil {
		inner = Discard
	}
	return &Abortable{inner: inner}
}

// Abort requests cancellation.
func (a *Abortable) Abort() {
	a.aborted.Store(true)
}

func (a *Abortable) Report(message string, percent int, severity Severity) {
	a.inner.Report(message, percent, severity)
}

func (a *Abortable) Aborted() bool {
	return a.aborted.Load() || a.inner.Aborted()
}

// WithContext returns a sink that reports to inner and aborts once ctx is done.
func WithContext(ctx context.Context, inner Sink) Sink {
	if inner == nil {
		inner = Discard
	}
	return &contextSink{ctx: ctx, inner: inner}
}

type contextSink struct {
	ctx   context.Context
	inner Sink
}

func (c *contextSink) Report(message string, percent int, severity Severity) {
	c.inner.Report(message, percent, severity)
}

func (c *contextSink) Aborted() bool {
	return c.ctx.Err() != nil || c.inner.Aborted()
}
