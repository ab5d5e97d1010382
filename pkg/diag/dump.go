package diag

import (
	"fmt"

	"github.com/m1gwings/treedrawer/tree"

	"github.com/sdcforms/scoperesolve"
)

// DumpScope renders the scope tree rooted at root as an ASCII drawing,
// adapted from the horizontal dependency-graph rendering used to debug
// executor graphs: here the tree being drawn is the scope tree itself,
// with each scope's own contexts shown as leaves before its child scopes.
func DumpScope(root *scoperesolve.Scope) string {
	t := buildScopeTree(root)
	if t == nil {
		return ""
	}
	return t.String()
}

func buildScopeTree(s *scoperesolve.Scope) *tree.Tree {
	t := tree.NewTree(tree.NodeString(scopeLabel(s)))
	for _, c := range s.Contexts() {
		switch v := c.(type) {
		case *scoperesolve.ExpressionNode:
			t.AddChild(tree.NodeString(nodeLabel(v)))
		case *scoperesolve.LaunchContext:
			t.AddChild(tree.NodeString("launch:" + v.Name()))
		}
	}
	for _, child := range s.Children() {
		addTreeAsChild(t, buildScopeTree(child))
	}
	return t
}

func addTreeAsChild(parent *tree.Tree, child *tree.Tree) {
	newChild := parent.AddChild(child.Val())
	for _, grandchild := range child.Children() {
		addTreeAsChild(newChild, grandchild)
	}
}

func scopeLabel(s *scoperesolve.Scope) string {
	item := s.Item()
	if item == nil {
		return "root"
	}
	if s.RepeatIndex() >= 0 {
		return fmt.Sprintf("%s[%d]", item.LinkID, s.RepeatIndex())
	}
	return item.LinkID
}

func nodeLabel(n *scoperesolve.ExpressionNode) string {
	status := "pending"
	if n.Resolved() {
		status = "resolved"
	}
	name := n.Name()
	if name == "" {
		name = "-"
	}
	return fmt.Sprintf("%s(%s) %s", n.Kind(), name, status)
}
