package resolver

import (
	"context"
	"fmt"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/prometheus/client_golang/prometheus"
)

// Resolver is the resolution contract shared by every implementation.
type Resolver interface {
	Resolve(ctx context.Context, docID string) (string, error)
}

// Cached keeps recent successful resolutions in an expiring LRU.
// Misses and errors are never cached.
type Cached struct {
	inner      Resolver
	cache      *expirable.LRU[string, string]
	cacheTotal *prometheus.CounterVec
}

// NewCached creates a caching decorator.
// cacheTotal is a counter vec with label "result" ("hit"/"miss"), may be nil.
func NewCached(inner Resolver, size int, ttl time.Duration, cacheTotal *prometheus.CounterVec) *Cached {
	if size <= 0 {
		size = 1024
	}
	return &Cached{
		inner:      inner,
		cache:      expirable.NewLRU[string, string](size, nil, ttl),
		cacheTotal: cacheTotal,
	}
}

// Resolve returns a cached path or calls the inner resolver.
func (c *Cached) Resolve(ctx context.Context, docID string) (string, error) {
	if p, ok := c.cache.Get(docID); ok {
		c.inc("hit")
		return p, nil
	}
	c.inc("miss")

	p, err := c.inner.Resolve(ctx, docID)
	if err != nil {
		return "", fmt.Errorf("resolve: %w", err)
	}
	c.cache.Add(docID, p)
	return p, nil
}

// Forget drops a cached resolution, e.g. after the file mapping changed.
func (c *Cached) Forget(docID string) {
	c.cache.Remove(docID)
}

func (c *Cached) inc(result string) {
	if c.cacheTotal != nil {
		c.cacheTotal.WithLabelValues(result).Inc()
	}
}
