// Package httpfetch is a resource.Loader backend that resolves a batch of
// URLs concurrently over HTTP, one request per distinct URL in the batch.
package httpfetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/sdcforms/scoperesolve/pkg/resource"
)

// Decoder turns a response body into the resource list it represents.
type Decoder func(body []byte) ([]resource.Resource, error)

// Loader fetches each URL in a batch as baseURL+url, decoding the response
// body with decode. All requests in one Fetch call run concurrently; the
// first request error aborts the whole batch.
type Loader struct {
	client  *http.Client
	baseURL string
	decode  Decoder
}

// New constructs a Loader. A nil client uses http.DefaultClient.
func New(client *http.Client, baseURL string, decode Decoder) *Loader {
	if client == nil {
		client = http.DefaultClient
	}
	return &Loader{client: client, baseURL: baseURL, decode: decode}
}

// Fetch implements resource.Loader.
func (l *Loader) Fetch(ctx context.Context, urls []string) (map[string][]resource.Resource, error) {
	out := make(map[string][]resource.Resource, len(urls))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	for _, u := range urls {
		u := u
		g.Go(func() error {
			resources, err := l.fetchOne(gctx, u)
			if err != nil {
				return fmt.Errorf("httpfetch: %s: %w", u, err)
			}
			mu.Lock()
			out[u] = resources
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (l *Loader) fetchOne(ctx context.Context, url string) ([]resource.Resource, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.baseURL+url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := l.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return l.decode(body)
}
