package scoperesolve

import (
	"context"
	"strings"

	"github.com/sdcforms/scoperesolve/pkg/resource"
)

// explodePopulation deep-clones the exploding scope once per element of
// values, assigns the triggering node's clone the singleton value, rewires
// internal dependency edges through the clone mapping, and replaces the
// source scope in its parent's children. Fan-out is forbidden at the
// root; callers must check for that first.
func explodePopulation(ids *IdentifierProvider, scope *Scope, trigger *ExpressionNode, values []any) []*Scope {
	clones := make([]*Scope, len(values))
	for i, val := range values {
		mapping := make(map[*ExpressionNode]*ExpressionNode)
		clone := cloneScopeTree(ids, scope, scope.parent, mapping)
		clone.repeatIndex = i
		rewireClonedDependencies(mapping)
		if clonedTrigger, ok := mapping[trigger]; ok {
			clonedTrigger.resolved = true
			clonedTrigger.value = []any{val}
		}
		clones[i] = clone
	}
	replaceChildScope(scope.parent, scope, clones)
	return clones
}

// cloneScopeTree recursively clones scope and its descendants under
// parent, appending the clone as parent's last child, and records an
// old-node -> new-node mapping for every expression node encountered.
func cloneScopeTree(ids *IdentifierProvider, src *Scope, parent *Scope, mapping map[*ExpressionNode]*ExpressionNode) *Scope {
	dst := newChildScope(ids.NextID(), parent, src.item, src.responseItem)
	for _, c := range src.contexts {
		switch v := c.(type) {
		case *ExpressionNode:
			clone := &ExpressionNode{
				id:                ids.NextID(),
				name:              v.name,
				text:              v.text,
				rawMatch:          v.rawMatch,
				language:          v.language,
				kind:              v.kind,
				scope:             dst,
				item:              v.item,
				responseItem:      v.responseItem,
				resolved:          v.resolved,
				value:             append([]any(nil), v.value...),
				sourceResource:    v.sourceResource,
				responseDependant: v.responseDependant,
				clonedFrom:        v,
			}
			dst.addContext(clone)
			mapping[v] = clone
		case *LaunchContext:
			dst.addContext(v)
		}
	}
	for _, child := range src.children {
		cloneScopeTree(ids, child, dst, mapping)
	}
	return dst
}

// rewireClonedDependencies rebuilds each clone's dependency edges from its
// original's edges: an edge to a node that was itself cloned into this
// subtree is redirected at the clone; an edge to a node outside the
// subtree is left pointing at the original.
func rewireClonedDependencies(mapping map[*ExpressionNode]*ExpressionNode) {
	for orig, clone := range mapping {
		for _, dep := range orig.dependencies {
			if depClone, ok := mapping[dep]; ok {
				addDependency(clone, depClone)
			} else {
				addDependency(clone, dep)
			}
		}
	}
}

func replaceChildScope(parent *Scope, old *Scope, replacements []*Scope) {
	if parent == nil {
		return
	}
	idx := -1
	for i, c := range parent.children {
		if c == old {
			idx = i
			break
		}
	}
	if idx < 0 {
		return
	}
	// Replacements built with newChildScope were already appended to
	// parent.children; drop those entries so each one appears once, at
	// old's position.
	isReplacement := make(map[*Scope]bool, len(replacements))
	for _, r := range replacements {
		isReplacement[r] = true
	}
	updated := make([]*Scope, 0, len(parent.children)+len(replacements))
	for i, c := range parent.children {
		if i == idx {
			updated = append(updated, replacements...)
		} else if !isReplacement[c] {
			updated = append(updated, c)
		}
	}
	parent.children = updated
}

// explodeExtractionContextID rehydrates existing sibling scopes instead of
// cloning: for each child scope of idScope that holds an unresolved
// ExtractionContext node (children are not filtered by form item), it
// evaluates the child's own ExtractionContextId expression, or idNode's
// when the child has none, looks up the matching resource by id,
// manufactures an empty one if none exists, and attaches it as the
// child's ExtractionContext value.
func explodeExtractionContextID(ctx context.Context, evaluator PathEvaluator, idScope *Scope, idNode *ExpressionNode, resources []resource.Resource) bool {
	progressed := false
	for _, child := range idScope.children {
		keyNode := idNode
		var extCtxNode *ExpressionNode
		for _, c := range child.contexts {
			n, ok := c.(*ExpressionNode)
			if !ok {
				continue
			}
			switch n.kind {
			case KindExtractionContextID:
				keyNode = n
			case KindExtractionContext:
				extCtxNode = n
			}
		}
		if extCtxNode == nil || extCtxNode.resolved {
			continue
		}
		res, err := evaluator.Eval(ctx, keyNode.text, child)
		if err != nil || res == nil || len(res.Values) == 0 {
			continue
		}
		key, _ := res.Values[0].(string)
		var found resource.Resource
		for _, r := range resources {
			if r.ID() == key {
				found = r
				break
			}
		}
		if found == nil {
			found = resource.NewEmpty(resourceTypePrefix(extCtxNode.text))
		}
		extCtxNode.resolved = true
		extCtxNode.value = []any{found}
		extCtxNode.sourceResource = found
		progressed = true
	}
	return progressed
}

// resourceTypePrefix extracts the resource-type portion of a query
// expression's URL, the segment before the first '?'.
func resourceTypePrefix(text string) string {
	if idx := strings.IndexByte(text, '?'); idx >= 0 {
		return text[:idx]
	}
	return text
}
