package scoperesolve

import "testing"

func TestDetectCycleNone(t *testing.T) {
	ids := NewIdentifierProvider()
	root := newRootScope(ids.NextID())
	a := &ExpressionNode{id: ids.NextID(), kind: KindVariableExpression, scope: root}
	b := &ExpressionNode{id: ids.NextID(), kind: KindVariableExpression, scope: root}
	root.addContext(a)
	root.addContext(b)
	addDependency(a, b)

	if err := DetectCycle(root); err != nil {
		t.Fatalf("unexpected cycle: %v", err)
	}
}

func TestDetectCycleDirect(t *testing.T) {
	ids := NewIdentifierProvider()
	root := newRootScope(ids.NextID())
	a := &ExpressionNode{id: ids.NextID(), name: "a", kind: KindVariableExpression, scope: root}
	b := &ExpressionNode{id: ids.NextID(), name: "b", kind: KindVariableExpression, scope: root}
	root.addContext(a)
	root.addContext(b)
	addDependency(a, b)
	addDependency(b, a)

	err := DetectCycle(root)
	if err == nil {
		t.Fatal("expected a cycle error")
	}
}

func TestDetectCycleDiamondIsFine(t *testing.T) {
	ids := NewIdentifierProvider()
	root := newRootScope(ids.NextID())
	a := &ExpressionNode{id: ids.NextID(), scope: root}
	b := &ExpressionNode{id: ids.NextID(), scope: root}
	c := &ExpressionNode{id: ids.NextID(), scope: root}
	d := &ExpressionNode{id: ids.NextID(), scope: root}
	for _, n := range []*ExpressionNode{a, b, c, d} {
		root.addContext(n)
	}
	addDependency(a, b)
	addDependency(a, c)
	addDependency(b, d)
	addDependency(c, d)

	if err := DetectCycle(root); err != nil {
		t.Fatalf("unexpected cycle in a diamond graph: %v", err)
	}
}
