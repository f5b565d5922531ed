package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"setquiz/internal/domain"
)

func TestQuestionCacheCachesByID(t *testing.T) {
	source := &countingSource{questions: map[int]domain.Question{1: {ID: 1, Prompt: "A ∪ B?"}}}
	cache := NewQuestionCache(source, time.Minute)

	if _, err := cache.FetchQuestion(context.Background(), 1); err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if _, err := cache.FetchQuestion(context.Background(), 1); err != nil {
		t.Fatalf("fetch 2: %v", err)
	}
	if source.byID != 1 {
		t.Fatalf("expected cache hit, source calls %d", source.byID)
	}

	if _, err := cache.FetchQuestion(context.Background(), 2); !errors.Is(err, domain.ErrQuestionNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, err := cache.FetchQuestions(context.Background(), 1, 5); err != nil {
		t.Fatalf("batch: %v", err)
	}
	if _, err := cache.FetchQuestions(context.Background(), 1, 5); err != nil {
		t.Fatalf("batch 2: %v", err)
	}
	if source.batches != 2 {
		t.Fatalf("expected batches to pass through, got %d", source.batches)
	}
}

func TestTextCacheExpires(t *testing.T) {
	cache := NewTextCache(time.Minute)
	now := time.Now()
	cache.cache.clock = func() time.Time { return now }

	loads := 0
	load := func(context.Context) (string, error) {
		loads++
		return "explanation", nil
	}
	for i := 0; i < 2; i++ {
		if v, err := cache.GetOrLoad(context.Background(), "explanation:1", load); err != nil || v != "explanation" {
			t.Fatalf("get: %q %v", v, err)
		}
	}
	if loads != 1 {
		t.Fatalf("expected one load, got %d", loads)
	}

	now = now.Add(2 * time.Minute)
	if _, err := cache.GetOrLoad(context.Background(), "explanation:1", load); err != nil {
		t.Fatalf("get after expiry: %v", err)
	}
	if loads != 2 {
		t.Fatalf("expected reload after expiry, got %d", loads)
	}
}

func TestTextCacheDoesNotStoreErrors(t *testing.T) {
	cache := NewTextCache(time.Minute)
	boom := errors.New("boom")
	if _, err := cache.GetOrLoad(context.Background(), "k", func(context.Context) (string, error) { return "", boom }); !errors.Is(err, boom) {
		t.Fatalf("expected load error, got %v", err)
	}
	v, err := cache.GetOrLoad(context.Background(), "k", func(context.Context) (string, error) { return "ok", nil })
	if err != nil || v != "ok" {
		t.Fatalf("expected retry to load, got %q %v", v, err)
	}
}

type countingSource struct {
	questions map[int]domain.Question
	byID      int
	batches   int
}

func (s *countingSource) FetchQuestions(context.Context, int, int) ([]domain.Question, error) {
	s.batches++
	return []domain.Question{{ID: 1}}, nil
}

func (s *countingSource) FetchQuestion(_ context.Context, id int) (domain.Question, error) {
	s.byID++
	q, ok := s.questions[id]
	if !ok {
		return domain.Question{}, domain.ErrQuestionNotFound
	}
	return q, nil
}
