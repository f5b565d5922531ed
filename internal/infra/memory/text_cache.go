package memory

import (
	"context"
	"time"
)

// TextCache is an in-process app.TextCache for generated explanations.
type TextCache struct {
	cache *ttlCache[string]
}

func NewTextCache(ttl time.Duration) *TextCache {
	return &TextCache{cache: newTTLCache[string](ttl)}
}

func (c *TextCache) GetOrLoad(ctx context.Context, key string, load func(context.Context) (string, error)) (string, error) {
	return c.cache.getOrLoad(ctx, key, load)
}
