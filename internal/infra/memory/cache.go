package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// ttlCache memoizes values by key with a jittered TTL. Concurrent misses for
// the same key share one load.
type ttlCache[V any] struct {
	ttl   time.Duration
	clock func() time.Time
	sf    singleflight.Group

	mu      sync.RWMutex
	rnd     *rand.Rand
	entries map[string]cachedEntry[V]
}

type cachedEntry[V any] struct {
	value     V
	expiresAt time.Time
}

func newTTLCache[V any](ttl time.Duration) *ttlCache[V] {
	return &ttlCache[V]{
		ttl:     ttl,
		clock:   time.Now,
		rnd:     rand.New(rand.NewSource(time.Now().UnixNano())),
		entries: make(map[string]cachedEntry[V]),
	}
}

func (c *ttlCache[V]) getOrLoad(ctx context.Context, key string, load func(context.Context) (V, error)) (V, error) {
	if v, ok := c.lookup(key); ok {
		return v, nil
	}

	result, err, _ := c.sf.Do(key, func() (interface{}, error) {
		if v, ok := c.lookup(key); ok {
			return v, nil
		}
		v, err := load(ctx)
		if err != nil {
			return v, err
		}
		c.mu.Lock()
		c.entries[key] = cachedEntry[V]{value: v, expiresAt: c.clock().Add(c.ttlWithJitterLocked())}
		c.mu.Unlock()
		return v, nil
	})
	if err != nil {
		var zero V
		return zero, err
	}
	return result.(V), nil
}

func (c *ttlCache[V]) lookup(key string) (V, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.entries[key]
	if !ok || !entry.expiresAt.After(c.clock()) {
		var zero V
		return zero, false
	}
	return entry.value, true
}

func (c *ttlCache[V]) ttlWithJitterLocked() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
