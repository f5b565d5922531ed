package memory

import (
	"context"
	"strconv"
	"time"

	"setquiz/internal/app"
	"setquiz/internal/domain"
)

// QuestionCache keeps questions fetched by id so the legacy by-id sessions do
// not hit the question service repeatedly. Batch fetches are random and are
// passed through.
type QuestionCache struct {
	source app.QuestionSource
	cache  *ttlCache[domain.Question]
}

func NewQuestionCache(source app.QuestionSource, ttl time.Duration) *QuestionCache {
	return &QuestionCache{source: source, cache: newTTLCache[domain.Question](ttl)}
}

func (c *QuestionCache) FetchQuestions(ctx context.Context, difficulty, count int) ([]domain.Question, error) {
	return c.source.FetchQuestions(ctx, difficulty, count)
}

func (c *QuestionCache) FetchQuestion(ctx context.Context, id int) (domain.Question, error) {
	return c.cache.getOrLoad(ctx, strconv.Itoa(id), func(ctx context.Context) (domain.Question, error) {
		return c.source.FetchQuestion(ctx, id)
	})
}
