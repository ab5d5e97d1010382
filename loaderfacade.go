package scoperesolve

import (
	"context"
	"sync"

	"github.com/sdcforms/scoperesolve/pkg/resource"
)

// LoaderFacade deduplicates URLs across expressions and caches per-URL
// results for the lifetime of one resolution pass. NewResolver creates one
// facade per Resolver, and ParseAsync creates one Resolver per pass.
type LoaderFacade struct {
	backend resource.Loader
	cache   sync.Map // url string -> []resource.Resource
}

// NewLoaderFacade wraps a resource.Loader with a per-pass cache.
func NewLoaderFacade(backend resource.Loader) *LoaderFacade {
	return &LoaderFacade{backend: backend}
}

// Fetch resolves urls to resources, reusing cached results and issuing a
// single batched call to the backend loader for whatever is missing.
func (f *LoaderFacade) Fetch(ctx context.Context, urls []string) (map[string][]resource.Resource, error) {
	out := make(map[string][]resource.Resource, len(urls))
	seen := make(map[string]bool, len(urls))
	var missing []string
	for _, u := range urls {
		if seen[u] {
			continue
		}
		seen[u] = true
		if v, ok := f.cache.Load(u); ok {
			out[u] = v.([]resource.Resource)
			continue
		}
		missing = append(missing, u)
	}
	if len(missing) == 0 {
		return out, nil
	}
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}
	fetched, err := f.backend.Fetch(ctx, missing)
	if err != nil {
		return nil, err
	}
	for _, u := range missing {
		res := fetched[u] // a missing key is an empty list, per the loader contract
		f.cache.Store(u, res)
		out[u] = res
	}
	return out, nil
}
