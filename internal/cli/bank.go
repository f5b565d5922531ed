package cli

import (
	"context"
	"log"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"

	"setquiz/internal/app"
	"setquiz/internal/config"
	"setquiz/internal/domain"
	"setquiz/internal/infra/memory"
	"setquiz/internal/infra/postgres"
	infraredis "setquiz/internal/infra/redis"
	"setquiz/internal/infra/sqlite"
	"setquiz/internal/infra/tutor"
)

// buildBank assembles the question bank from whatever storage is configured:
// Postgres, then SQLite, then the built-in sample questions. The caller must
// run cleanup even when an error is returned.
func buildBank(ctx context.Context, cfg config.Config, redisClient *redis.Client) (*app.QuestionBank, func(), error) {
	closers := make([]func(), 0)
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	var store app.QuestionStore
	switch {
	case cfg.Postgres.URL != "":
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return nil, cleanup, err
		}
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return nil, cleanup, err
		}
		closers = append(closers, pool.Close)
		store = postgres.NewQuestionStore(pool)
		log.Printf("question bank: postgres")
	case cfg.SQLite.Path != "":
		sq, err := sqlite.Open(cfg.SQLite.Path)
		if err != nil {
			return nil, cleanup, err
		}
		closers = append(closers, func() { _ = sq.Close() })
		if n, err := sq.Count(ctx); err == nil && n == 0 {
			if _, err := sq.Insert(ctx, sampleBatch()); err != nil {
				return nil, cleanup, err
			}
		}
		store = sq
		log.Printf("question bank: sqlite %s", cfg.SQLite.Path)
	default:
		store = memory.NewQuestionStore(memory.SampleQuestions())
		log.Printf("question bank: built-in sample questions")
	}

	cacheTTL := config.TTLDuration(cfg.Cache.TTL, time.Hour)
	var cache app.TextCache = memory.NewTextCache(cacheTTL)
	if redisClient != nil {
		store = infraredis.NewQuestionCache(redisClient, store, cacheTTL)
		cache = infraredis.NewTextCache(redisClient, cacheTTL)
	}

	var t app.Tutor
	if cfg.OpenAI.APIKey != "" {
		t = tutor.New(cfg.OpenAI.APIKey, cfg.OpenAI.Model, cfg.OpenAI.BaseURL)
	} else {
		log.Printf("openai api key not configured; hints and explanations disabled")
	}
	return app.NewQuestionBank(store, t, cache), cleanup, nil
}

func sampleBatch() []domain.NewQuestion {
	samples := memory.SampleQuestions()
	out := make([]domain.NewQuestion, len(samples))
	for i, q := range samples {
		out[i] = domain.NewQuestion{Prompt: q.Prompt, Choices: q.Choices, Answer: q.Answer, Difficulty: q.Difficulty}
	}
	return out
}

func newRedisClient(cfg config.Config) *redis.Client {
	if cfg.Redis.Addr == "" {
		return nil
	}
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
}
