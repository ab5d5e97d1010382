package scoperesolve

import (
	"context"
	"testing"

	"github.com/sdcforms/scoperesolve/pkg/resource"
)

type countingLoader struct {
	calls int
	data  map[string][]resource.Resource
}

func (c *countingLoader) Fetch(_ context.Context, urls []string) (map[string][]resource.Resource, error) {
	c.calls++
	out := make(map[string][]resource.Resource, len(urls))
	for _, u := range urls {
		out[u] = c.data[u]
	}
	return out, nil
}

func TestLoaderFacadeCachesAcrossCalls(t *testing.T) {
	backend := &countingLoader{data: map[string][]resource.Resource{
		"Patient/1": {&resource.Generic{Type: "Patient", IDVal: "1"}},
	}}
	facade := NewLoaderFacade(backend)

	first, err := facade.Fetch(context.Background(), []string{"Patient/1", "Patient/1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(first["Patient/1"]) != 1 {
		t.Fatalf("expected one resource, got %d", len(first["Patient/1"]))
	}
	if backend.calls != 1 {
		t.Fatalf("expected the facade to dedupe the repeated url in one call, backend called %d times", backend.calls)
	}

	_, err = facade.Fetch(context.Background(), []string{"Patient/1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if backend.calls != 1 {
		t.Fatalf("expected the second Fetch to hit the cache, backend called %d times", backend.calls)
	}
}

func TestLoaderFacadeMissingURLIsEmpty(t *testing.T) {
	facade := NewLoaderFacade(&countingLoader{data: map[string][]resource.Resource{}})
	out, err := facade.Fetch(context.Background(), []string{"Patient/missing"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out["Patient/missing"]) != 0 {
		t.Fatalf("expected a missing url to resolve to an empty list, got %v", out["Patient/missing"])
	}
}
