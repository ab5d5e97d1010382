package scoperesolve

import (
	"github.com/sdcforms/scoperesolve/pkg/formmodel"
	"github.com/sdcforms/scoperesolve/pkg/resource"
)

// Language is the small language an expression's text is written in.
type Language string

const (
	LanguagePath  Language = "path"
	LanguageQuery Language = "query"
)

// Kind discriminates the context/expression-node variant: a single record
// with a kind field rather than a subclass hierarchy.
type Kind string

const (
	KindPopulationContext   Kind = "population-context"
	KindExtractionContext   Kind = "extraction-context"
	KindInitialExpression   Kind = "initial-expression"
	KindVariableExpression  Kind = "variable-expression"
	KindCalculatedExpression Kind = "calculated-expression"
	KindExtractionContextID Kind = "extraction-context-id"
	KindEmbedded            Kind = "embedded"
)

// Context is the variant union a scope holds: a LaunchContext or an
// ExpressionNode. Both carry a unique id and a back reference to their
// owning scope.
type Context interface {
	ContextID() int
	OwnerScope() *Scope
	contextName() (string, bool)
}

// LaunchContext is an externally supplied, always-resolved context seeded
// at the root scope.
type LaunchContext struct {
	id       int
	name     string
	resource resource.Resource
	scope    *Scope
}

func newLaunchContext(id int, name string, res resource.Resource, scope *Scope) *LaunchContext {
	return &LaunchContext{id: id, name: name, resource: res, scope: scope}
}

func (c *LaunchContext) ContextID() int            { return c.id }
func (c *LaunchContext) OwnerScope() *Scope        { return c.scope }
func (c *LaunchContext) Name() string              { return c.name }
func (c *LaunchContext) Resource() resource.Resource { return c.resource }
func (c *LaunchContext) contextName() (string, bool) {
	if c.name == "" {
		return "", false
	}
	return c.name, true
}

// ExpressionNode represents one expression occurrence.
type ExpressionNode struct {
	id       int
	name     string
	text     string
	rawMatch string // for Embedded nodes: the literal "{{...}}" substring to splice back into the query text
	language Language
	kind     Kind
	scope    *Scope

	item         *formmodel.Item
	responseItem *formmodel.ResponseItem

	dependencies []*ExpressionNode
	dependants   []*ExpressionNode

	resolved       bool
	value          []any
	sourceResource resource.Resource

	responseDependant bool
	clonedFrom        *ExpressionNode
}

func (n *ExpressionNode) ContextID() int     { return n.id }
func (n *ExpressionNode) OwnerScope() *Scope { return n.scope }
func (n *ExpressionNode) contextName() (string, bool) {
	if n.name == "" {
		return "", false
	}
	return n.name, true
}

// Name returns the node's symbol name, if any.
func (n *ExpressionNode) Name() string { return n.name }

// Text returns the expression source, possibly rewritten after embedded
// substitution.
func (n *ExpressionNode) Text() string { return n.text }

// Language returns the small language the expression is written in.
func (n *ExpressionNode) Language() Language { return n.language }

// Kind returns the node's variant discriminator.
func (n *ExpressionNode) Kind() Kind { return n.kind }

// Item returns the form item at the node's creation site, or nil for
// root-scope contexts.
func (n *ExpressionNode) Item() *formmodel.Item { return n.item }

// ResponseItem returns the matching response item at the node's creation
// site, or nil for root-scope contexts.
func (n *ExpressionNode) ResponseItem() *formmodel.ResponseItem { return n.responseItem }

// Resolved reports whether the node's value slot has been assigned,
// including assignment to the empty list.
func (n *ExpressionNode) Resolved() bool { return n.resolved }

// Value returns the resolved base values, or nil if unresolved.
func (n *ExpressionNode) Value() []any { return n.value }

// SourceResource returns the optional resource a path expression's result
// was sourced from.
func (n *ExpressionNode) SourceResource() resource.Resource { return n.sourceResource }

// ResponseDependant reports whether this node references response-relative
// symbols (%resource, %context) and therefore carries a synthesized
// dependency instead of an ordinary variable edge.
func (n *ExpressionNode) ResponseDependant() bool { return n.responseDependant }

// ClonedFrom returns the node this one was cloned from during fan-out, or
// nil if it was never cloned.
func (n *ExpressionNode) ClonedFrom() *ExpressionNode { return n.clonedFrom }

// Dependencies returns the set of contexts this node reads.
func (n *ExpressionNode) Dependencies() []*ExpressionNode {
	out := make([]*ExpressionNode, len(n.dependencies))
	copy(out, n.dependencies)
	return out
}

// Dependants returns the reverse set, maintained symmetrically with
// Dependencies.
func (n *ExpressionNode) Dependants() []*ExpressionNode {
	out := make([]*ExpressionNode, len(n.dependants))
	copy(out, n.dependants)
	return out
}

// ready reports whether the node is unresolved and every dependency is
// resolved (LaunchContexts are always resolved; ExpressionNode deps check
// their own resolved flag).
func (n *ExpressionNode) ready() bool {
	if n.resolved {
		return false
	}
	for _, dep := range n.dependencies {
		if !dep.resolved {
			return false
		}
	}
	return true
}

func addDependency(from, to *ExpressionNode) {
	for _, d := range from.dependencies {
		if d == to {
			return
		}
	}
	from.dependencies = append(from.dependencies, to)
	to.dependants = append(to.dependants, from)
}
