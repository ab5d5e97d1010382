package scoperesolve

import (
	"context"
	"regexp"
	"strings"
)

var embeddedPattern = regexp.MustCompile(`\{\{([^{}]*)\}\}`)
var varTokenPattern = regexp.MustCompile(`^%([A-Za-z_][A-Za-z0-9_]*)`)

// GraphBuilder parses expression text lightly to discover variable
// references and embedded expressions, wiring dependency edges. It needs
// a path evaluator because response-dependent path expressions require
// one immediate evaluation at build time to locate their synthesized
// InitialExpression dependency.
type GraphBuilder struct {
	ids       *IdentifierProvider
	sink      DiagnosticSink
	evaluator PathEvaluator
}

// NewGraphBuilder constructs a GraphBuilder. A nil sink is replaced with
// NopSink.
func NewGraphBuilder(ids *IdentifierProvider, sink DiagnosticSink, evaluator PathEvaluator) *GraphBuilder {
	if sink == nil {
		sink = NopSink{}
	}
	return &GraphBuilder{ids: ids, sink: sink, evaluator: evaluator}
}

// Build wires dependency edges across the whole scope tree rooted at
// root. It must run once, after parsing, before the cycle check.
func (g *GraphBuilder) Build(ctx context.Context, root *Scope) {
	// Query-language nodes are scanned first: each embedded match becomes
	// a brand new path-language node appended to the same scope, which
	// then needs its own variable scan below.
	for _, node := range root.Nodes() {
		if node.language == LanguageQuery {
			g.extractEmbedded(node)
		}
	}
	for _, node := range root.Nodes() {
		if node.language == LanguagePath {
			g.wirePathVariables(ctx, root, node)
		}
	}
}

// extractEmbedded scans text for {{...}} substrings, and for each one
// creates a fresh Embedded node in the same scope with a dependency edge
// from the query node to it.
func (g *GraphBuilder) extractEmbedded(node *ExpressionNode) {
	matches := embeddedPattern.FindAllStringSubmatch(node.text, -1)
	for _, m := range matches {
		full, inner := m[0], strings.TrimSpace(m[1])
		embedded := &ExpressionNode{
			id:       g.ids.NextID(),
			text:     inner,
			rawMatch: full,
			language: LanguagePath,
			kind:     KindEmbedded,
			scope:    node.scope,
		}
		node.scope.addContext(embedded)
		addDependency(node, embedded)
	}
}

// wirePathVariables tokenizes on top-level dots, collects %-prefixed
// tokens, and either flags response-dependence or wires a scope-lookup
// dependency edge.
func (g *GraphBuilder) wirePathVariables(ctx context.Context, root *Scope, node *ExpressionNode) {
	linkID := ""
	if node.item != nil {
		linkID = node.item.LinkID
	}
	responseDependentSeen := false
	for _, tok := range tokenizePath(node.text) {
		name, ok := varToken(tok)
		if !ok {
			continue
		}
		if responseDependentVars[name] {
			responseDependentSeen = true
			continue
		}
		ctxFound, ok := node.scope.Lookup(name)
		if !ok {
			g.sink.Observe(Diagnostic{Severity: "warning", Code: "unknown-variable", Message: "unknown variable %" + name, LinkID: linkID, NodeID: node.id})
			continue
		}
		if dep, ok := ctxFound.(*ExpressionNode); ok {
			addDependency(node, dep)
		}
	}
	if responseDependentSeen {
		node.responseDependant = true
		g.synthesizeResponseDependency(ctx, root, node)
	}
}

// synthesizeResponseDependency performs an additional lookup for
// response-dependent nodes: rewrite %resource/%context to
// %questionnaire/%qitem, evaluate immediately to find a target link id,
// locate that item's scope, and depend on its InitialExpression if any.
func (g *GraphBuilder) synthesizeResponseDependency(ctx context.Context, root *Scope, node *ExpressionNode) {
	if g.evaluator == nil {
		return
	}
	rewritten := strings.NewReplacer("%resource", "%questionnaire", "%context", "%qitem").Replace(node.text)
	result, err := g.evaluator.Eval(ctx, rewritten, node.scope)
	if err != nil || result == nil || len(result.Values) == 0 {
		return
	}
	targetLinkID, ok := result.Values[0].(string)
	if !ok || targetLinkID == "" {
		return
	}
	var targetScope *Scope
	root.Walk(func(s *Scope) {
		if targetScope != nil {
			return
		}
		if s.item != nil && s.item.LinkID == targetLinkID {
			targetScope = s
		}
	})
	if targetScope == nil {
		return
	}
	for _, c := range targetScope.contexts {
		if initExpr, ok := c.(*ExpressionNode); ok && initExpr.kind == KindInitialExpression {
			addDependency(node, initExpr)
			return
		}
	}
}

// tokenizePath splits text on top-level '.' characters, treating anything
// inside balanced '(' '[' groups as opaque.
func tokenizePath(text string) []string {
	var tokens []string
	depth := 0
	start := 0
	for i, r := range text {
		switch r {
		case '(', '[':
			depth++
		case ')', ']':
			if depth > 0 {
				depth--
			}
		case '.':
			if depth == 0 {
				tokens = append(tokens, text[start:i])
				start = i + 1
			}
		}
	}
	tokens = append(tokens, text[start:])
	return tokens
}

// varToken extracts the leading %identifier from a token, if any.
func varToken(tok string) (string, bool) {
	m := varTokenPattern.FindStringSubmatch(tok)
	if m == nil {
		return "", false
	}
	return m[1], true
}
