package scoperesolve

import (
	"reflect"
	"testing"
)

func TestTokenizePath(t *testing.T) {
	cases := []struct {
		text string
		want []string
	}{
		{"%patient.name", []string{"%patient", "name"}},
		{"%patient.name.first()", []string{"%patient", "name", "first()"}},
		{"foo(bar.baz).qux", []string{"foo(bar.baz)", "qux"}},
		{"", []string{""}},
	}
	for _, c := range cases {
		got := tokenizePath(c.text)
		if !reflect.DeepEqual(got, c.want) {
			t.Errorf("tokenizePath(%q) = %v, want %v", c.text, got, c.want)
		}
	}
}

func TestVarToken(t *testing.T) {
	cases := []struct {
		tok     string
		want    string
		wantOK  bool
	}{
		{"%patient", "patient", true},
		{"%patient(0)", "patient", true},
		{"name", "", false},
		{"%", "", false},
	}
	for _, c := range cases {
		got, ok := varToken(c.tok)
		if ok != c.wantOK || got != c.want {
			t.Errorf("varToken(%q) = (%q, %v), want (%q, %v)", c.tok, got, ok, c.want, c.wantOK)
		}
	}
}

func TestExtractEmbedded(t *testing.T) {
	ids := NewIdentifierProvider()
	gb := NewGraphBuilder(ids, nil, nil)
	root := newRootScope(ids.NextID())
	query := &ExpressionNode{
		id:       ids.NextID(),
		text:     "Observation?subject={{%patient.id}}",
		language: LanguageQuery,
		kind:     KindPopulationContext,
		scope:    root,
	}
	root.addContext(query)

	gb.extractEmbedded(query)

	nodes := root.Nodes()
	var embedded *ExpressionNode
	for _, n := range nodes {
		if n.kind == KindEmbedded {
			embedded = n
		}
	}
	if embedded == nil {
		t.Fatal("expected an Embedded node to be created")
	}
	if embedded.text != "%patient.id" {
		t.Errorf("embedded.text = %q, want %q", embedded.text, "%patient.id")
	}
	if embedded.rawMatch != "{{%patient.id}}" {
		t.Errorf("embedded.rawMatch = %q", embedded.rawMatch)
	}
	found := false
	for _, d := range query.dependencies {
		if d == embedded {
			found = true
		}
	}
	if !found {
		t.Error("expected query node to depend on the embedded node")
	}
}
