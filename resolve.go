package scoperesolve

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/sdcforms/scoperesolve/pkg/formmodel"
	"github.com/sdcforms/scoperesolve/pkg/resource"
)

const maxRounds = 5

// Resolver runs the fixpoint loop: resolve all ready path expressions,
// batch-fetch all ready query expressions, explode on fan-out, repeat up
// to a bounded number of rounds.
type Resolver struct {
	ids       *IdentifierProvider
	sink      DiagnosticSink
	evaluator PathEvaluator
	loader    *LoaderFacade
	rc        ResolvingContext
	hooks     []ResolverHook
}

// NewResolver constructs a Resolver. A nil sink is replaced with NopSink.
func NewResolver(ids *IdentifierProvider, sink DiagnosticSink, evaluator PathEvaluator, loader resource.Loader, rc ResolvingContext, hooks ...ResolverHook) *Resolver {
	if sink == nil {
		sink = NopSink{}
	}
	return &Resolver{
		ids:       ids,
		sink:      sink,
		evaluator: evaluator,
		loader:    NewLoaderFacade(loader),
		rc:        rc,
		hooks:     sortHooks(hooks),
	}
}

// Resolve runs the bounded fixpoint over root, mutating the scope tree in
// place. It returns an error on cancellation, an evaluation/load failure,
// or if permitted nodes remain unresolved once the loop ends.
func (r *Resolver) Resolve(ctx context.Context, root *Scope) error {
	round := 0
	for ; round < maxRounds; round++ {
		for _, h := range r.hooks {
			h.RoundStarted(round+1, root)
		}
		progress, err := r.runRound(ctx, root)
		if err != nil {
			r.notifyError(err)
			return err
		}
		for _, h := range r.hooks {
			h.RoundFinished(round+1, progress)
		}
		if !progress {
			break
		}
	}
	if unresolved := r.unresolvedPermitted(root); len(unresolved) > 0 {
		ids := make([]int, len(unresolved))
		for i, n := range unresolved {
			ids[i] = n.id
		}
		rounds := round
		if rounds < maxRounds {
			rounds++ // the loop broke early, after running round+1 rounds
		}
		err := &IncompleteError{Rounds: rounds, UnresolvedIDs: ids}
		r.notifyError(err)
		return err
	}
	return nil
}

func (r *Resolver) notifyError(err error) {
	for _, h := range r.hooks {
		h.Error(err)
	}
}

// runRound resolves ready path expressions then ready query expressions,
// restarting itself immediately whenever a fan-out occurs — at most one
// fan-out takes effect before the round's candidate set is recomputed.
func (r *Resolver) runRound(ctx context.Context, root *Scope) (bool, error) {
	progressed := false
	for {
		select {
		case <-ctx.Done():
			return false, ctx.Err()
		default:
		}
		pathProgress, exploded, err := r.resolvePaths(ctx, root)
		if err != nil {
			return false, err
		}
		progressed = progressed || pathProgress
		if exploded {
			continue
		}
		queryProgress, exploded, err := r.resolveQueries(ctx, root)
		if err != nil {
			return false, err
		}
		progressed = progressed || queryProgress
		if exploded {
			continue
		}
		return progressed, nil
	}
}

// resolvePaths resolves every ready path-language candidate node in id
// order, returning early (exploded=true) the moment one triggers fan-out.
func (r *Resolver) resolvePaths(ctx context.Context, root *Scope) (bool, bool, error) {
	progressed := false
	for _, n := range r.permittedCandidates(root) {
		if n.language != LanguagePath || !n.ready() {
			continue
		}
		res, err := r.evaluator.Eval(ctx, n.text, n.scope)
		if err != nil {
			return progressed, false, &ResolveError{NodeID: n.id, Stage: "evaluate", Err: err}
		}
		explodeValues, needsExplode := r.applyPathResult(n, res)
		if needsExplode {
			if n.scope.parent == nil {
				r.sink.Observe(Diagnostic{Severity: "error", Code: "fanout-at-root", Message: "fan-out forbidden at the root scope", NodeID: n.id})
				continue
			}
			clones := explodePopulation(r.ids, n.scope, n, explodeValues)
			for _, h := range r.hooks {
				h.Exploded(n.scope, clones)
			}
			return true, true, nil
		}
		progressed = true
		for _, h := range r.hooks {
			h.NodeResolved(n)
		}
	}
	return progressed, false, nil
}

// applyPathResult applies the per-node outcome rules for a resolved path
// expression, including the embedded-expression substitution edge cases.
// It mutates n in place and reports whether the result instead calls for
// fan-out, returning the values to fan out over.
func (r *Resolver) applyPathResult(n *ExpressionNode, res *EvalResult) (explodeValues []any, needsExplode bool) {
	var values []any
	var source resource.Resource
	if res != nil {
		values = res.Values
		source = res.SourceResource
	}

	if n.kind == KindEmbedded {
		n.resolved = true
		n.value = values
		n.sourceResource = source
		switch len(values) {
		case 1:
			rendered := fmt.Sprintf("%v", values[0])
			for _, dep := range n.dependants {
				if dep.language == LanguageQuery && n.rawMatch != "" {
					dep.text = strings.Replace(dep.text, n.rawMatch, rendered, 1)
				}
			}
		case 0:
			// no substitution; the dependant query keeps its literal
			// "{{...}}" text and will not resolve to a usable URL
		default:
			r.sink.Observe(Diagnostic{Severity: "warning", Code: "embedded-multi-result", Message: "embedded expression produced more than one result", NodeID: n.id})
		}
		return nil, false
	}

	if len(values) == 0 {
		n.resolved = true
		n.value = []any{}
		n.sourceResource = source
		return nil, false
	}

	if len(values) == 1 {
		if ri, ok := values[0].(*formmodel.ResponseItem); ok {
			values = ri.AnswerValues()
		}
	}

	if len(values) > 1 && isNonPrimitive(values[0]) {
		return values, true
	}

	n.resolved = true
	n.value = values
	n.sourceResource = source
	return nil, false
}

// resolveQueries resolves ready query-language candidates, batching all
// their distinct URLs into a single loader call.
func (r *Resolver) resolveQueries(ctx context.Context, root *Scope) (bool, bool, error) {
	groups := make(map[string][]*ExpressionNode)
	var urls []string
	seen := make(map[string]bool)
	for _, n := range r.permittedCandidates(root) {
		if n.language != LanguageQuery || !n.ready() {
			continue
		}
		groups[n.text] = append(groups[n.text], n)
		if !seen[n.text] {
			seen[n.text] = true
			urls = append(urls, n.text)
		}
	}
	if len(urls) == 0 {
		return false, false, nil
	}
	sort.Strings(urls)

	results, err := r.loader.Fetch(ctx, urls)
	if err != nil {
		return false, false, &ResolveError{Stage: "load", Err: err}
	}

	progressed := false
	for _, url := range urls {
		nodes := groups[url]
		resources := results[url]

		if len(resources) > 1 && len(nodes) > 1 {
			if idScope, idNode := commonExtractionContextIDScope(nodes); idScope != nil {
				if explodeExtractionContextID(ctx, r.evaluator, idScope, idNode, resources) {
					for _, h := range r.hooks {
						h.Exploded(idScope, idScope.Children())
					}
					return true, true, nil
				}
			}
		}
		if len(resources) > 1 && len(nodes) == 1 {
			node := nodes[0]
			if node.scope.parent == nil {
				r.sink.Observe(Diagnostic{Severity: "error", Code: "fanout-at-root", Message: "fan-out forbidden at the root scope", NodeID: node.id})
			} else {
				values := make([]any, len(resources))
				for i, res := range resources {
					values[i] = res
				}
				clones := explodePopulation(r.ids, node.scope, node, values)
				for _, h := range r.hooks {
					h.Exploded(node.scope, clones)
				}
				return true, true, nil
			}
		}

		values := make([]any, len(resources))
		for i, res := range resources {
			values[i] = res
		}
		for _, n := range nodes {
			n.resolved = true
			n.value = values
			progressed = true
			for _, h := range r.hooks {
				h.NodeResolved(n)
			}
		}
	}
	return progressed, false, nil
}

// commonExtractionContextIDScope finds the nearest shared ancestor scope
// that carries an ExtractionContextId context for every node in nodes, if
// one exists.
func commonExtractionContextIDScope(nodes []*ExpressionNode) (*Scope, *ExpressionNode) {
	if len(nodes) == 0 {
		return nil, nil
	}
	scope, idNode := nodes[0].scope.ancestorWithExtractionContextID()
	if scope == nil {
		return nil, nil
	}
	for _, n := range nodes[1:] {
		s, _ := n.scope.ancestorWithExtractionContextID()
		if s != scope {
			return nil, nil
		}
	}
	return scope, idNode
}

// permittedCandidates returns every unresolved node whose own kind, and
// every kind transitively reachable via its dependencies, is permitted in
// the current resolving context, ordered by id for deterministic
// processing.
func (r *Resolver) permittedCandidates(root *Scope) []*ExpressionNode {
	forbidden := forbiddenKinds(r.rc)
	memo := make(map[int]bool)
	var permitted func(n *ExpressionNode) bool
	permitted = func(n *ExpressionNode) bool {
		if v, ok := memo[n.id]; ok {
			return v
		}
		memo[n.id] = true // break cycles optimistically; graph is checked acyclic before resolution starts
		if forbidden[n.kind] {
			memo[n.id] = false
			return false
		}
		ok := true
		for _, d := range n.dependencies {
			if !permitted(d) {
				ok = false
				break
			}
		}
		memo[n.id] = ok
		return ok
	}

	var out []*ExpressionNode
	for _, n := range root.Nodes() {
		if n.resolved {
			continue
		}
		if permitted(n) {
			out = append(out, n)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].id < out[j].id })
	return out
}

// unresolvedPermitted returns every permitted node still unresolved once
// the round loop ends — a non-empty result means the pass failed to reach
// a fixpoint.
func (r *Resolver) unresolvedPermitted(root *Scope) []*ExpressionNode {
	return r.permittedCandidates(root)
}

func forbiddenKinds(rc ResolvingContext) map[Kind]bool {
	if rc == ResolvingPopulation {
		return map[Kind]bool{KindExtractionContext: true, KindExtractionContextID: true}
	}
	return map[Kind]bool{KindPopulationContext: true, KindInitialExpression: true}
}

func isNonPrimitive(v any) bool {
	switch v.(type) {
	case nil, string, bool, int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64, float32, float64:
		return false
	default:
		return true
	}
}
