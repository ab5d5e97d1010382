// Package loader provides reference resource.Loader implementations: an
// in-memory fixture-backed loader for tests, and (in the httpfetch
// subpackage) a concurrent HTTP-backed loader for real use.
package loader

import (
	"context"

	"github.com/sdcforms/scoperesolve/pkg/resource"
)

// Static is a resource.Loader backed by a fixed URL-to-resources map,
// useful for tests and fixtures that don't need real network access.
type Static struct {
	data map[string][]resource.Resource
}

// NewStatic wraps data as a Loader. A URL absent from data resolves to an
// empty list, matching the Loader contract.
func NewStatic(data map[string][]resource.Resource) *Static {
	return &Static{data: data}
}

// Fetch implements resource.Loader.
func (s *Static) Fetch(_ context.Context, urls []string) (map[string][]resource.Resource, error) {
	out := make(map[string][]resource.Resource, len(urls))
	for _, u := range urls {
		out[u] = s.data[u]
	}
	return out, nil
}
