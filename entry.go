package scoperesolve

import (
	"context"

	"github.com/sdcforms/scoperesolve/pkg/formmodel"
	"github.com/sdcforms/scoperesolve/pkg/passid"
	"github.com/sdcforms/scoperesolve/pkg/resource"
)

// Options configures one ParseAsync call beyond its required collaborators.
// PassID correlates this call's diagnostics and log lines; a zero value is
// replaced with a freshly generated one.
type Options struct {
	Sink   DiagnosticSink
	Hooks  []ResolverHook
	PassID passid.PassID
}

// ParseAsync parses a form tree into a scope tree, builds the dependency
// graph, checks for cycles, and runs the resolver loop to a fixpoint. On any
// fatal condition it returns a nil scope and a non-nil error; diagnostics
// for non-fatal conditions are reported through opts.Sink as the pass runs,
// every one of them stamped with this call's PassID.
func ParseAsync(
	ctx context.Context,
	form *formmodel.Form,
	response *formmodel.Response,
	launchContexts map[string]resource.Resource,
	loader resource.Loader,
	evaluator PathEvaluator,
	rc ResolvingContext,
	opts Options,
) (*Scope, error) {
	ids := NewIdentifierProvider()
	sink := opts.Sink
	if sink == nil {
		sink = NopSink{}
	}
	pass := opts.PassID
	if pass == "" {
		pass = passid.New()
	}
	sink = stampingSink{id: pass, inner: sink}

	parser := NewParser(ids, sink, rc)
	root := parser.Parse(form, response, launchContexts)

	builder := NewGraphBuilder(ids, sink, evaluator)
	builder.Build(ctx, root)

	if cycleErr := DetectCycle(root); cycleErr != nil {
		sink.Observe(Diagnostic{Severity: "error", Code: "cycle", Message: cycleErr.Error()})
		return nil, cycleErr
	}

	resolver := NewResolver(ids, sink, evaluator, loader, rc, opts.Hooks...)
	if err := resolver.Resolve(ctx, root); err != nil {
		return nil, err
	}
	return root, nil
}
