package assets

import (
	"context"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"

	"asset-exporter/core/provision"
)

// CachingSource keeps the most recently loaded packages of another source.
// Concurrent loads of the same path share a single underlying load.
type CachingSource struct {
	inner Source
	group singleflight.Group
	// cache is nil when caching is disabled.
	cache *lru.Cache[string, *Package]

	hits      atomic.Int64
	misses    atomic.Int64
	evictions atomic.Int64
}

// NewCachingSource wraps inner with an LRU of size packages. A size below 1
// disables caching but keeps load de-duplication.
func NewCachingSource(inner Source, size int) *CachingSource {
	c := &CachingSource{inner: inner}
	if size >= 1 {
		// lru only rejects non-positive sizes.
		c.cache, _ = lru.NewWithEvict[string, *Package](size, func(string, *Package) {
			c.evictions.Add(1)
		})
	}
	return c
}

func (c *CachingSource) Files() []string { return c.inner.Files() }

func (c *CachingSource) Has(path string) bool { return c.inner.Has(path) }

// Mount forwards the bundle when the wrapped source accepts keys.
func (c *CachingSource) Mount(b *provision.Bundle) error {
	if m, ok := c.inner.(interface{ Mount(*provision.Bundle) error }); ok {
		return m.Mount(b)
	}
	return nil
}

func (c *CachingSource) Load(ctx context.Context, path string) (*Package, error) {
	key := NormalizePath(path)

	if c.cache != nil {
		if pkg, ok := c.cache.Get(key); ok {
			c.hits.Add(1)
			return pkg, nil
		}
	}
	c.misses.Add(1)

	v, err, _ := c.group.Do(key, func() (any, error) {
		pkg, err := c.inner.Load(ctx, path)
		if err != nil {
			return nil, err
		}
		if c.cache != nil {
			c.cache.Add(key, pkg)
		}
		return pkg, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Package), nil
}

// Stats returns a snapshot of the cache counters.
func (c *CachingSource) Stats() Stats {
	s := Stats{
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		Evictions: c.evictions.Load(),
	}
	if c.cache != nil {
		s.Entries = c.cache.Len()
	}
	return s
}
