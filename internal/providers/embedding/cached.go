package embedding

import (
	"context"
	"crypto/sha256"
	"encoding/hex"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Cached wraps a Provider with an in-process, content-addressed LRU cache.
// Embeddings are deterministic for identical input, so entries never go
// stale; capacity is the only bound.
type Cached struct {
	inner Provider
	cache *lru.Cache[string, []float32]
}

func NewCached(inner Provider, capacity int) (*Cached, error) {
	c, err := lru.New[string, []float32](capacity)
	if err != nil {
		return nil, err
	}
	return &Cached{inner: inner, cache: c}, nil
}

func (c *Cached) Embed(ctx context.Context, text string) ([]float32, error) {
	key := cacheKey(text)
	if v, ok := c.cache.Get(key); ok {
		return v, nil
	}

	v, err := c.inner.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	c.cache.Add(key, v)
	return v, nil
}

func (c *Cached) Close() error { return c.inner.Close() }

func cacheKey(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}
