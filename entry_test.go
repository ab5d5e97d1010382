package scoperesolve_test

import (
	"context"
	"errors"
	"testing"

	"github.com/sdcforms/scoperesolve"
	"github.com/sdcforms/scoperesolve/pkg/diag"
	"github.com/sdcforms/scoperesolve/pkg/formmodel"
	"github.com/sdcforms/scoperesolve/pkg/loader"
	"github.com/sdcforms/scoperesolve/pkg/patheval/basic"
	"github.com/sdcforms/scoperesolve/pkg/resource"
)

type fakeEvaluator struct {
	fn func(text string, scope *scoperesolve.Scope) (*scoperesolve.EvalResult, error)
}

func (f fakeEvaluator) Eval(_ context.Context, text string, scope *scoperesolve.Scope) (*scoperesolve.EvalResult, error) {
	return f.fn(text, scope)
}

func TestLaunchOnly(t *testing.T) {
	patient := &resource.Generic{Type: "Patient", IDVal: "P1"}
	root, err := scoperesolve.ParseAsync(
		context.Background(),
		&formmodel.Form{},
		nil,
		map[string]resource.Resource{"patient": patient},
		loader.NewStatic(nil),
		basic.New(),
		scoperesolve.ResolvingPopulation,
		scoperesolve.Options{},
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(root.Children()) != 0 {
		t.Fatalf("expected no child scopes, got %d", len(root.Children()))
	}
	ctxs := root.Contexts()
	if len(ctxs) != 1 {
		t.Fatalf("expected exactly one launch context, got %d", len(ctxs))
	}
	lc, ok := ctxs[0].(*scoperesolve.LaunchContext)
	if !ok || lc.Name() != "patient" {
		t.Fatalf("expected a launch context named patient, got %#v", ctxs[0])
	}
}

func TestSinglePathInitial(t *testing.T) {
	patient := &resource.Generic{Type: "Patient", IDVal: "P1", Fields: map[string]any{"name": "Alice"}}
	form := &formmodel.Form{
		Items: []*formmodel.Item{
			{
				LinkID: "q1",
				Type:   formmodel.ItemTypeString,
				Extensions: []formmodel.Extension{
					{URL: formmodel.URLInitialExpression, Value: &formmodel.Expression{Language: "path", Expression: "%patient.name"}},
				},
			},
		},
	}

	root, err := scoperesolve.ParseAsync(
		context.Background(),
		form,
		nil,
		map[string]resource.Resource{"patient": patient},
		loader.NewStatic(nil),
		basic.New(),
		scoperesolve.ResolvingPopulation,
		scoperesolve.Options{},
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(root.Children()) != 1 {
		t.Fatalf("expected one child scope, got %d", len(root.Children()))
	}
	q1 := root.Children()[0]
	nodes := q1.Nodes()
	if len(nodes) != 1 {
		t.Fatalf("expected one expression node, got %d", len(nodes))
	}
	if !nodes[0].Resolved() {
		t.Fatal("expected the initial expression to be resolved")
	}
	got := nodes[0].Value()
	if len(got) != 1 || got[0] != "Alice" {
		t.Fatalf("value = %v, want [Alice]", got)
	}
}

func TestEmbeddedQuery(t *testing.T) {
	patient := &resource.Generic{Type: "Patient", IDVal: "P1"}
	form := &formmodel.Form{
		Items: []*formmodel.Item{
			{
				LinkID: "obs",
				Type:   formmodel.ItemTypeGroup,
				Extensions: []formmodel.Extension{
					{URL: formmodel.URLPopulationContext, Value: &formmodel.Expression{Language: "query", Expression: "Observation?subject={{%patient.id}}"}},
				},
			},
		},
	}
	observation := &resource.Generic{Type: "Observation", IDVal: "O1"}
	backend := loader.NewStatic(map[string][]resource.Resource{
		"Observation?subject=P1": {observation},
	})

	root, err := scoperesolve.ParseAsync(
		context.Background(),
		form,
		nil,
		map[string]resource.Resource{"patient": patient},
		backend,
		basic.New(),
		scoperesolve.ResolvingPopulation,
		scoperesolve.Options{},
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	obsScope := root.Children()[0]
	var embedded, queryNode *scoperesolve.ExpressionNode
	for _, n := range obsScope.Nodes() {
		switch n.Kind() {
		case scoperesolve.KindEmbedded:
			embedded = n
		case scoperesolve.KindPopulationContext:
			queryNode = n
		}
	}
	if embedded == nil {
		t.Fatal("expected an embedded node")
	}
	if v := embedded.Value(); len(v) != 1 || v[0] != "P1" {
		t.Fatalf("embedded value = %v, want [P1]", v)
	}
	if queryNode.Text() != "Observation?subject=P1" {
		t.Fatalf("query text = %q, want substituted URL", queryNode.Text())
	}
	if len(queryNode.Value()) != 1 {
		t.Fatalf("expected the query node to resolve to one resource")
	}
}

func TestCycleIsFatal(t *testing.T) {
	form := &formmodel.Form{
		Extensions: []formmodel.Extension{
			{URL: formmodel.URLVariableExpression, Value: &formmodel.Expression{Language: "path", Expression: "%b", Name: "a"}},
			{URL: formmodel.URLVariableExpression, Value: &formmodel.Expression{Language: "path", Expression: "%a", Name: "b"}},
		},
	}
	report := diag.NewReport()
	_, err := scoperesolve.ParseAsync(
		context.Background(),
		form,
		nil,
		nil,
		loader.NewStatic(nil),
		basic.New(),
		scoperesolve.ResolvingPopulation,
		scoperesolve.Options{Sink: report},
	)
	if err == nil {
		t.Fatal("expected a cycle error")
	}
	var cycleErr *scoperesolve.CycleError
	if !errors.As(err, &cycleErr) {
		t.Fatalf("expected a *scoperesolve.CycleError, got %T: %v", err, err)
	}
}

func TestFanOutInPopulation(t *testing.T) {
	form := &formmodel.Form{
		Items: []*formmodel.Item{
			{
				LinkID: "group1",
				Type:   formmodel.ItemTypeGroup,
				Extensions: []formmodel.Extension{
					{URL: formmodel.URLPopulationContext, Value: &formmodel.Expression{Language: "path", Expression: "%source", Name: "ctx"}},
				},
				Children: []*formmodel.Item{
					{
						LinkID: "initial1",
						Type:   formmodel.ItemTypeString,
						Extensions: []formmodel.Extension{
							{URL: formmodel.URLInitialExpression, Value: &formmodel.Expression{Language: "path", Expression: "%ctx.field"}},
						},
					},
				},
			},
		},
	}

	things := []*resource.Generic{
		{Type: "Thing", IDVal: "1", Fields: map[string]any{"field": "A"}},
		{Type: "Thing", IDVal: "2", Fields: map[string]any{"field": "B"}},
		{Type: "Thing", IDVal: "3", Fields: map[string]any{"field": "C"}},
	}

	evaluator := fakeEvaluator{fn: func(text string, scope *scoperesolve.Scope) (*scoperesolve.EvalResult, error) {
		switch text {
		case "%source":
			values := make([]any, len(things))
			for i, thing := range things {
				values[i] = thing
			}
			return &scoperesolve.EvalResult{Values: values}, nil
		case "%ctx.field":
			ctxFound, ok := scope.Lookup("ctx")
			if !ok {
				return &scoperesolve.EvalResult{}, nil
			}
			ctxNode := ctxFound.(*scoperesolve.ExpressionNode)
			vals := ctxNode.Value()
			if len(vals) == 0 {
				return &scoperesolve.EvalResult{}, nil
			}
			thing := vals[0].(*resource.Generic)
			return &scoperesolve.EvalResult{Values: []any{thing.Fields["field"]}}, nil
		default:
			return &scoperesolve.EvalResult{}, nil
		}
	}}

	root, err := scoperesolve.ParseAsync(
		context.Background(),
		form,
		nil,
		nil,
		loader.NewStatic(nil),
		evaluator,
		scoperesolve.ResolvingPopulation,
		scoperesolve.Options{},
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	clones := root.Children()
	if len(clones) != 3 {
		t.Fatalf("expected 3 clones after fan-out, got %d", len(clones))
	}
	seen := map[string]bool{}
	for _, clone := range clones {
		if clone.Item().LinkID != "group1" {
			t.Fatalf("clone item link id = %q, want group1", clone.Item().LinkID)
		}
		var ctxNode *scoperesolve.ExpressionNode
		for _, n := range clone.Contexts() {
			if en, ok := n.(*scoperesolve.ExpressionNode); ok && en.Kind() == scoperesolve.KindPopulationContext {
				ctxNode = en
			}
		}
		if ctxNode == nil || len(ctxNode.Value()) != 1 {
			t.Fatalf("expected clone's population context to carry one value")
		}
		thing := ctxNode.Value()[0].(*resource.Generic)
		wantField := thing.Fields["field"].(string)

		if len(clone.Children()) != 1 {
			t.Fatalf("expected one nested child scope per clone, got %d", len(clone.Children()))
		}
		initScope := clone.Children()[0]
		var initNode *scoperesolve.ExpressionNode
		for _, n := range initScope.Nodes() {
			if n.Kind() == scoperesolve.KindInitialExpression {
				initNode = n
			}
		}
		if initNode == nil || !initNode.Resolved() {
			t.Fatal("expected the clone's initial expression to be resolved")
		}
		got := initNode.Value()
		if len(got) != 1 || got[0] != wantField {
			t.Fatalf("initial expression value = %v, want [%s]", got, wantField)
		}
		seen[wantField] = true
	}
	if len(seen) != 3 {
		t.Fatalf("expected 3 distinct field values across clones, got %v", seen)
	}
}
