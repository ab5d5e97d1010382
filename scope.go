package scoperesolve

import (
	"github.com/sdcforms/scoperesolve/pkg/formmodel"
)

// Scope is one node of the scope tree, mirroring the form-item tree. Each
// scope owns the contexts created at its own item and keeps an ordered
// list of child scopes.
type Scope struct {
	id       int
	parent   *Scope
	children []*Scope

	item         *formmodel.Item
	responseItem *formmodel.ResponseItem

	// repeatIndex is the position of this scope among its siblings cloned
	// from the same source item during fan-out, or -1 if never cloned.
	repeatIndex int

	contexts []Context
}

func newRootScope(id int) *Scope {
	return &Scope{id: id, repeatIndex: -1}
}

func newChildScope(id int, parent *Scope, item *formmodel.Item, responseItem *formmodel.ResponseItem) *Scope {
	s := &Scope{id: id, parent: parent, item: item, responseItem: responseItem, repeatIndex: -1}
	parent.children = append(parent.children, s)
	return s
}

// ID returns the scope's unique id within its resolution pass.
func (s *Scope) ID() int { return s.id }

// Parent returns the enclosing scope, or nil at the root.
func (s *Scope) Parent() *Scope { return s.parent }

// Children returns the scope's ordered child scopes.
func (s *Scope) Children() []*Scope {
	out := make([]*Scope, len(s.children))
	copy(out, s.children)
	return out
}

// Item returns the form item this scope was created for, or nil at the
// root scope.
func (s *Scope) Item() *formmodel.Item { return s.item }

// ResponseItem returns the response item paired with this scope, or nil.
func (s *Scope) ResponseItem() *formmodel.ResponseItem { return s.responseItem }

// RepeatIndex returns the scope's position among siblings produced by a
// single fan-out, or -1 if the scope was never cloned.
func (s *Scope) RepeatIndex() int { return s.repeatIndex }

// Contexts returns every context (launch context or expression node) owned
// directly by this scope, in creation order.
func (s *Scope) Contexts() []Context {
	out := make([]Context, len(s.contexts))
	copy(out, s.contexts)
	return out
}

func (s *Scope) addContext(c Context) {
	s.contexts = append(s.contexts, c)
}

// Lookup walks from this scope toward the root looking for a context
// registered under name, returning the nearest one found — lexical
// scoping, innermost wins.
func (s *Scope) Lookup(name string) (Context, bool) {
	for cur := s; cur != nil; cur = cur.parent {
		for i := len(cur.contexts) - 1; i >= 0; i-- {
			if n, ok := cur.contexts[i].contextName(); ok && n == name {
				return cur.contexts[i], true
			}
		}
	}
	return nil, false
}

// LookupKind walks from this scope toward the root looking for a context
// of the given kind, returning the nearest one (used to find the enclosing
// PopulationContext/ExtractionContext/ExtractionContextID for a node).
func (s *Scope) LookupKind(kind Kind) (*ExpressionNode, bool) {
	for cur := s; cur != nil; cur = cur.parent {
		for i := len(cur.contexts) - 1; i >= 0; i-- {
			if n, ok := cur.contexts[i].(*ExpressionNode); ok && n.kind == kind {
				return n, true
			}
		}
	}
	return nil, false
}

// Walk visits this scope and every descendant, depth first, parent before
// children, in child order.
func (s *Scope) Walk(visit func(*Scope)) {
	visit(s)
	for _, c := range s.children {
		c.Walk(visit)
	}
}

// Nodes returns every ExpressionNode owned anywhere in the subtree rooted
// at s, in scope-walk then creation order.
func (s *Scope) Nodes() []*ExpressionNode {
	var out []*ExpressionNode
	s.Walk(func(sc *Scope) {
		for _, c := range sc.contexts {
			if n, ok := c.(*ExpressionNode); ok {
				out = append(out, n)
			}
		}
	})
	return out
}

// root returns the scope tree's root.
func (s *Scope) root() *Scope {
	cur := s
	for cur.parent != nil {
		cur = cur.parent
	}
	return cur
}

// ancestorWithExtractionContextID returns the nearest scope at or above s
// whose own contexts include an ExtractionContextID node, if any.
func (s *Scope) ancestorWithExtractionContextID() (*Scope, *ExpressionNode) {
	for cur := s; cur != nil; cur = cur.parent {
		for _, c := range cur.contexts {
			if n, ok := c.(*ExpressionNode); ok && n.kind == KindExtractionContextID {
				return cur, n
			}
		}
	}
	return nil, nil
}
