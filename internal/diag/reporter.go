// Package diag collects diagnostics produced while checking and building a
// wrapper design.
package diag

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
)

// Severity classifies a diagnostic.
type Severity int

const (
	Warning Severity = iota
	Error
)

func (s Severity) String() string {
	if s == Error {
		return "error"
	}
	return "warning"
}

// Diagnostic is a single reported issue.
type Diagnostic struct {
	Severity Severity
	Message  string
}

// Reporter writes diagnostics to an output stream in text or JSON form and
// remembers them for later inspection. A nil *Reporter discards everything.
type Reporter struct {
	mu      sync.Mutex
	logger  *slog.Logger
	diags   []Diagnostic
	nErrors int
}

// NewReporter creates a reporter writing to w. format is "text" or "json";
// anything else falls back to text.
func NewReporter(w io.Writer, format string) *Reporter {
	if w == nil {
		w = io.Discard
	}
	opts := &slog.HandlerOptions{
		Level: slog.LevelWarn,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if len(groups) == 0 && a.Key == slog.TimeKey {
				return slog.Attr{}
			}
			return a
		},
	}
	var handler slog.Handler
	if format == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return &Reporter{logger: slog.New(handler)}
}

// Errorf records an error diagnostic.
func (r *Reporter) Errorf(format string, args ...any) {
	r.report(Error, fmt.Sprintf(format, args...))
}

// Warnf records a warning diagnostic.
func (r *Reporter) Warnf(format string, args ...any) {
	r.report(Warning, fmt.Sprintf(format, args...))
}

func (r *Reporter) report(sev Severity, msg string) {
	if r == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.diags = append(r.diags, Diagnostic{Severity: sev, Message: msg})
	level := slog.LevelWarn
	if sev == Error {
		level = slog.LevelError
		r.nErrors++
	}
	r.logger.Log(context.Background(), level, msg)
}

// HasErrors reports whether any error diagnostic was recorded.
func (r *Reporter) HasErrors() bool {
	return r.ErrorCount() > 0
}

// ErrorCount returns the number of error diagnostics.
func (r *Reporter) ErrorCount() int {
	if r == nil {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.nErrors
}

// Diagnostics returns a copy of everything reported so far.
func (r *Reporter) Diagnostics() []Diagnostic {
	if r == nil {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Diagnostic(nil), r.diags...)
}
