package redis

import (
	"context"
	"encoding/json"
	"math/rand"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"setquiz/internal/app"
	"setquiz/internal/domain"
)

// QuestionCache caches stored questions in Redis (hash per question) and falls
// back to the underlying store on a miss.
// Questions are stored as: HSET question:{id} prompt .. choices .. answer .. difficulty ..
type QuestionCache struct {
	client *redis.Client
	store  app.QuestionStore
	ttl    time.Duration
	sf     singleflight.Group

	mu  sync.Mutex
	rnd *rand.Rand
}

func NewQuestionCache(client *redis.Client, store app.QuestionStore, ttl time.Duration) *QuestionCache {
	return &QuestionCache{
		client: client,
		store:  store,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// RandomByDifficulty is never cached; every quiz gets a fresh draw.
func (c *QuestionCache) RandomByDifficulty(ctx context.Context, difficulty, limit int) ([]domain.BankQuestion, error) {
	return c.store.RandomByDifficulty(ctx, difficulty, limit)
}

func (c *QuestionCache) ByID(ctx context.Context, id int) (domain.BankQuestion, error) {
	key := c.key(id)
	if q, ok := c.cached(ctx, id, key); ok {
		return q, nil
	}

	result, err, _ := c.sf.Do(key, func() (interface{}, error) {
		if q, ok := c.cached(ctx, id, key); ok {
			return q, nil
		}
		q, err := c.store.ByID(ctx, id)
		if err != nil {
			return domain.BankQuestion{}, err
		}
		c.put(ctx, q)
		return q, nil
	})
	if err != nil {
		return domain.BankQuestion{}, err
	}
	return result.(domain.BankQuestion), nil
}

func (c *QuestionCache) Insert(ctx context.Context, batch []domain.NewQuestion) ([]domain.BankQuestion, error) {
	stored, err := c.store.Insert(ctx, batch)
	if err != nil {
		return nil, err
	}
	for _, q := range stored {
		c.put(ctx, q)
	}
	return stored, nil
}

func (c *QuestionCache) cached(ctx context.Context, id int, key string) (domain.BankQuestion, bool) {
	fields, err := c.client.HGetAll(ctx, key).Result()
	if err != nil || len(fields) == 0 {
		return domain.BankQuestion{}, false
	}
	return buildQuestionFromCache(id, fields)
}

func (c *QuestionCache) put(ctx context.Context, q domain.BankQuestion) {
	choices, err := json.Marshal(q.Choices)
	if err != nil {
		return
	}
	key := c.key(q.ID)
	pipe := c.client.Pipeline()
	pipe.HSet(ctx, key,
		"prompt", q.Prompt,
		"choices", string(choices),
		"answer", q.Answer,
		"difficulty", q.Difficulty,
	)
	if ttl := c.ttlWithJitter(); ttl > 0 {
		pipe.Expire(ctx, key, ttl)
	}
	_, _ = pipe.Exec(ctx)
}

func (c *QuestionCache) key(id int) string {
	return "question:" + strconv.Itoa(id)
}

func buildQuestionFromCache(id int, fields map[string]string) (domain.BankQuestion, bool) {
	var choices []string
	if err := json.Unmarshal([]byte(fields["choices"]), &choices); err != nil {
		return domain.BankQuestion{}, false
	}
	difficulty, err := strconv.Atoi(fields["difficulty"])
	if err != nil {
		return domain.BankQuestion{}, false
	}
	return domain.BankQuestion{
		Question: domain.Question{
			ID:      id,
			Prompt:  fields["prompt"],
			Choices: choices,
		},
		Answer:     fields["answer"],
		Difficulty: difficulty,
	}, true
}

func (c *QuestionCache) ttlWithJitter() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return jitter(c.rnd, c.ttl)
}
