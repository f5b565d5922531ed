package redis

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// TextCache is an app.TextCache storing generated text as plain Redis strings.
type TextCache struct {
	client *redis.Client
	ttl    time.Duration
	sf     singleflight.Group

	mu  sync.Mutex
	rnd *rand.Rand
}

func NewTextCache(client *redis.Client, ttl time.Duration) *TextCache {
	return &TextCache{
		client: client,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *TextCache) GetOrLoad(ctx context.Context, key string, load func(context.Context) (string, error)) (string, error) {
	key = "text:" + key
	if v, err := c.client.Get(ctx, key).Result(); err == nil {
		return v, nil
	}

	result, err, _ := c.sf.Do(key, func() (interface{}, error) {
		// a Redis error other than a miss is treated as a miss
		if v, err := c.client.Get(ctx, key).Result(); err == nil {
			return v, nil
		}
		v, err := load(ctx)
		if err != nil {
			return "", err
		}
		c.mu.Lock()
		ttl := jitter(c.rnd, c.ttl)
		c.mu.Unlock()
		_ = c.client.Set(ctx, key, v, ttl).Err()
		return v, nil
	})
	if err != nil {
		return "", err
	}
	return result.(string), nil
}

// jitter adds up to 10% to ttl to spread expirations.
func jitter(rnd *rand.Rand, ttl time.Duration) time.Duration {
	if ttl <= 0 {
		return 0
	}
	jitterMax := int64(ttl) / 10
	return ttl + time.Duration(rnd.Int63n(jitterMax+1))
}
