package catalog

import (
	"context"
	"sync"

	"github.com/mfeldt/stencil/internal/domain/template"
)

// Cached wraps a catalog and caches the index for the process lifetime.
// The cache has an explicit, injected lifetime: construct one per process
// and Reset it deterministically in tests. Failed fetches are not cached.
type Cached struct {
	inner template.Catalog

	mu     sync.Mutex
	index  []template.Summary
	primed bool
}

// NewCached creates a caching wrapper around inner.
func NewCached(inner template.Catalog) *Cached {
	return &Cached{inner: inner}
}

// FetchIndex returns the cached index, fetching it on first use.
func (c *Cached) FetchIndex(ctx context.Context) ([]template.Summary, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.primed {
		return c.index, nil
	}

	index, err := c.inner.FetchIndex(ctx)
	if err != nil {
		return nil, err
	}
	c.index = index
	c.primed = true
	return index, nil
}

// FetchVersionDocument delegates to the inner catalog. Version documents
// are immutable once published, so no invalidation concern exists here.
func (c *Cached) FetchVersionDocument(ctx context.Context, templateID, file string) (*template.Document, error) {
	return c.inner.FetchVersionDocument(ctx, templateID, file)
}

// Reset drops the cached index. The next FetchIndex refetches.
func (c *Cached) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.index = nil
	c.primed = false
}
