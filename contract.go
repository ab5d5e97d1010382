package scoperesolve

import (
	"context"

	"github.com/sdcforms/scoperesolve/pkg/passid"
	"github.com/sdcforms/scoperesolve/pkg/resource"
)

// ResolvingContext selects which expression kinds a pass is allowed to
// resolve: a population pass feeds initial answers into a form, an
// extraction pass reads answers back out into resources.
type ResolvingContext string

const (
	ResolvingPopulation ResolvingContext = "population"
	ResolvingExtraction ResolvingContext = "extraction"
)

// EvalResult is the path evaluator's return shape: a list of base values
// and an optional resource the values were sourced from. A nil *EvalResult
// is distinguishable from one with an empty Values slice.
type EvalResult struct {
	Values         []any
	SourceResource resource.Resource
}

// PathEvaluator is the external collaborator that evaluates path-language
// expressions against a scope's variable bindings. The core never
// interprets expression text itself; it only tokenizes it to find variable
// references (graphbuilder.go) and delegates full evaluation here.
type PathEvaluator interface {
	Eval(ctx context.Context, text string, scope *Scope) (*EvalResult, error)
}

// Diagnostic is one non-fatal observation recorded during parsing or
// resolution. PassID correlates every diagnostic emitted by the same
// ParseAsync call; ParseAsync stamps it in before the diagnostic reaches
// the caller's sink, so individual Observe calls need not set it.
type Diagnostic struct {
	Severity string // "warning" or "error"
	Code     string
	Message  string
	LinkID   string
	NodeID   int
	PassID   passid.PassID
}

// DiagnosticSink receives diagnostics as a pass runs. Implementations must
// not block or fail the pass; a sink that panics aborts it.
type DiagnosticSink interface {
	Observe(d Diagnostic)
}

// NopSink discards every diagnostic.
type NopSink struct{}

func (NopSink) Observe(Diagnostic) {}

// stampingSink wraps a caller's sink, filling in PassID on every
// diagnostic that doesn't already carry one before forwarding it.
type stampingSink struct {
	id    passid.PassID
	inner DiagnosticSink
}

func (s stampingSink) Observe(d Diagnostic) {
	if d.PassID == "" {
		d.PassID = s.id
	}
	s.inner.Observe(d)
}

// responseDependentVars holds the variables that refer to the
// response-assembly collaborator's own context rather than a named symbol
// resolved by scope lookup.
var responseDependentVars = map[string]bool{
	"resource": true,
	"context":  true,
}
