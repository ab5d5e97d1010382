// Package diag carries the diagnostics a resolution pass reports as it
// runs, and renders a scope tree to an ASCII drawing for post-mortem
// inspection.
package diag

import (
	"context"
	"log/slog"
	"sync"

	"github.com/sdcforms/scoperesolve"
	"github.com/sdcforms/scoperesolve/pkg/passid"
)

// Entry is one recorded diagnostic.
type Entry struct {
	Severity string
	Code     string
	Message  string
	LinkID   string
	NodeID   int
	PassID   passid.PassID
}

// Report is an ordered, structured diagnostic carrier, implementing
// scoperesolve.DiagnosticSink, so a caller can inspect why a pass failed
// without parsing log lines.
type Report struct {
	mu      sync.Mutex
	Entries []Entry
}

// NewReport returns an empty Report.
func NewReport() *Report { return &Report{} }

// Observe implements scoperesolve.DiagnosticSink.
func (r *Report) Observe(d scoperesolve.Diagnostic) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Entries = append(r.Entries, Entry{
		Severity: d.Severity,
		Code:     d.Code,
		Message:  d.Message,
		LinkID:   d.LinkID,
		NodeID:   d.NodeID,
		PassID:   d.PassID,
	})
}

// Errors returns only the error-severity entries.
func (r *Report) Errors() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Entry
	for _, e := range r.Entries {
		if e.Severity == "error" {
			out = append(out, e)
		}
	}
	return out
}

// SlogSink adapts scoperesolve.DiagnosticSink onto a slog.Logger, using
// structured attrs rather than formatted strings.
type SlogSink struct {
	logger *slog.Logger
}

// NewSlogSink builds a SlogSink over handler. Use SilentHandler in tests.
func NewSlogSink(handler slog.Handler) *SlogSink {
	return &SlogSink{logger: slog.New(handler)}
}

// Observe implements scoperesolve.DiagnosticSink.
func (s *SlogSink) Observe(d scoperesolve.Diagnostic) {
	level := slog.LevelWarn
	if d.Severity == "error" {
		level = slog.LevelError
	}
	s.logger.Log(context.Background(), level, d.Message,
		"code", d.Code,
		"link_id", d.LinkID,
		"node_id", d.NodeID,
		"pass_id", d.PassID.String(),
	)
}

// SilentHandler discards all log output. Useful for tests that don't want
// log noise but still need a slog.Handler to inject.
type SilentHandler struct{}

func (SilentHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (SilentHandler) Handle(context.Context, slog.Record) error { return nil }
func (h SilentHandler) WithAttrs([]slog.Attr) slog.Handler      { return h }
func (h SilentHandler) WithGroup(string) slog.Handler           { return h }
