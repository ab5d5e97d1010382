// Package basic provides a minimal reference implementation of
// scoperesolve.PathEvaluator: dotted navigation plus %variable lookup,
// enough to exercise every resolver code path in tests without being a
// complete path-language implementation (that remains a caller concern).
package basic

import (
	"context"
	"reflect"
	"strconv"
	"strings"

	"github.com/sdcforms/scoperesolve"
	"github.com/sdcforms/scoperesolve/pkg/resource"
)

// Evaluator is a stateless PathEvaluator.
type Evaluator struct{}

// New returns a ready-to-use Evaluator.
func New() *Evaluator { return &Evaluator{} }

// Eval implements scoperesolve.PathEvaluator.
func (e *Evaluator) Eval(_ context.Context, text string, scope *scoperesolve.Scope) (*scoperesolve.EvalResult, error) {
	tokens := tokenize(text)
	if len(tokens) == 0 {
		return &scoperesolve.EvalResult{}, nil
	}

	var current any
	var source resource.Resource

	first := tokens[0]
	if strings.HasPrefix(first, "%") {
		name := strings.TrimPrefix(first, "%")
		ctxFound, ok := scope.Lookup(name)
		if !ok {
			return &scoperesolve.EvalResult{}, nil
		}
		switch c := ctxFound.(type) {
		case *scoperesolve.LaunchContext:
			current = c.Resource()
			source = c.Resource()
		case *scoperesolve.ExpressionNode:
			if vals := c.Value(); len(vals) > 0 {
				current = vals[0]
			}
			source = c.SourceResource()
		}
	} else {
		current = first
	}

	for _, tok := range tokens[1:] {
		current = navigate(current, tok)
	}

	if current == nil {
		return &scoperesolve.EvalResult{SourceResource: source}, nil
	}
	if list, ok := current.([]any); ok {
		return &scoperesolve.EvalResult{Values: list, SourceResource: source}, nil
	}
	return &scoperesolve.EvalResult{Values: []any{current}, SourceResource: source}, nil
}

// navigate steps one dotted token into current: an integer token indexes a
// slice; otherwise a field lookup is attempted against the shapes this
// reference evaluator understands.
func navigate(current any, token string) any {
	if current == nil {
		return nil
	}
	if idx, err := strconv.Atoi(token); err == nil {
		rv := reflect.ValueOf(current)
		if rv.Kind() == reflect.Slice && idx >= 0 && idx < rv.Len() {
			return rv.Index(idx).Interface()
		}
		return nil
	}
	switch v := current.(type) {
	case *resource.Generic:
		val, ok := v.Fields[token]
		if ok {
			return val
		}
		switch token {
		case "id":
			return v.ID()
		case "resourceType":
			return v.ResourceType()
		default:
			return nil
		}
	case map[string]any:
		return v[token]
	case resource.Resource:
		switch token {
		case "id":
			return v.ID()
		case "resourceType":
			return v.ResourceType()
		default:
			return nil
		}
	default:
		return nil
	}
}

// tokenize splits text on top-level '.' characters, treating anything
// inside balanced '(' '[' groups as opaque — the same shape as the
// resolver core's own tokenizer, duplicated here because this package
// deliberately has no dependency on the core's internals.
func tokenize(text string) []string {
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
