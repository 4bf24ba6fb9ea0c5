package index

import (
	"context"
	"strconv"
	"time"

	"github.com/ppiankov/claimtrust/internal/cache"
)

// CachedEmbedder memoizes another embedder's vectors by model and text
type CachedEmbedder struct {
	next  Embedder
	cache cache.Cache
	ttl   time.Duration
}

// NewCachedEmbedder wraps next; a nil cache disables memoization
func NewCachedEmbedder(next Embedder, c cache.Cache, ttl time.Duration) *CachedEmbedder {
	if c == nil {
		c = cache.Nop{}
	}
	return &CachedEmbedder{next: next, cache: c, ttl: ttl}
}

func (c *CachedEmbedder) Name() string    { return c.next.Name() }
func (c *CachedEmbedder) Dimensions() int { return c.next.Dimensions() }

func (c *CachedEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	key := cache.Key(cache.NamespaceEmbedding, c.next.Name(), strconv.Itoa(c.next.Dimensions()), text)

	var vec []float32
	if cache.GetJSON(c.cache, key, &vec) && len(vec) > 0 {
		return vec, nil
	}

	vec, err := c.next.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	_ = cache.SetJSON(c.cache, key, vec, c.ttl)
	return vec, nil
}
