// Package resource defines the external resource contract the resolver
// core fetches against: a Resource identity and a Loader that
// batch-resolves URLs to resource lists.
package resource

import "context"

// Resource is the minimal identity a fetched resource must expose so the
// resolver can key extraction-context-id lookups and manufacture empty
// instances when a lookup misses.
type Resource interface {
	ResourceType() string
	ID() string
}

// Generic is a resource whose shape isn't known at compile time: an
// untyped field bag keyed by resource type and id. It is enough for the
// resolver core, which never inspects resource internals beyond ID and
// ResourceType; richer typed resources are a caller concern.
type Generic struct {
	Type   string
	IDVal  string
	Fields map[string]any
}

// NewEmpty manufactures an empty resource of the given type with no id,
// used by extraction-context-id fan-out when no matching resource exists.
func NewEmpty(resourceType string) *Generic {
	return &Generic{Type: resourceType, Fields: map[string]any{}}
}

func (g *Generic) ResourceType() string { return g.Type }
func (g *Generic) ID() string           { return g.IDVal }

// Loader is the external resource-loader collaborator. A single batched
// call resolves a set of URLs to their resource lists; a URL missing from
// the result map is treated as an empty list by the resolver. Results for
// the same URL issued by the same pass must be stable.
type Loader interface {
	Fetch(ctx context.Context, urls []string) (map[string][]Resource, error)
}
