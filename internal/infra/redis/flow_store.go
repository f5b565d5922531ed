package redis

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"setquiz/internal/app"
	"setquiz/internal/domain"
)

// FlowStore is a Redis-aware implementation of app.FlowRepository.
// Notes:
//   - Flows hold timers and in-flight calls, so they live in a local map.
//   - Redis marks which clients have a live flow on some instance, so an
//     operator can count active students across replicas.
type FlowStore struct {
	client *redis.Client
	ttl    time.Duration
	mu     sync.RWMutex
	flows  map[string]*app.Flow
}

func NewFlowStore(client *redis.Client, ttl time.Duration) *FlowStore {
	return &FlowStore{
		client: client,
		ttl:    ttl,
		flows:  make(map[string]*app.Flow),
	}
}

// Attach returns the client's flow, creating it on first use, and subscribes
// to it before the store lock is released.
func (s *FlowStore) Attach(clientID string, create func() *app.Flow) (*app.Flow, <-chan domain.FlowView, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	flow, ok := s.flows[clientID]
	if ok {
		// refresh liveness
		_ = s.client.Expire(context.Background(), s.key(clientID), s.ttl).Err()
	} else {
		flow = create()
		s.flows[clientID] = flow
		// best-effort liveness marker
		_ = s.client.Set(context.Background(), s.key(clientID), "1", s.ttl).Err()
	}
	updates, cancel := flow.Subscribe()
	return flow, updates, cancel
}

func (s *FlowStore) Get(clientID string) (*app.Flow, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	flow, ok := s.flows[clientID]
	return flow, ok
}

func (s *FlowStore) ReleaseIfIdle(clientID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	flow, ok := s.flows[clientID]
	if !ok {
		return
	}
	if flow.IsIdle() {
		flow.Close()
		delete(s.flows, clientID)
		_ = s.client.Del(context.Background(), s.key(clientID)).Err()
	}
}

// Live counts clients with a flow on any instance.
func (s *FlowStore) Live(ctx context.Context) (int, error) {
	var (
		cursor uint64
		total  int
	)
	for {
		keys, next, err := s.client.Scan(ctx, cursor, "quiz:flow:*", 100).Result()
		if err != nil {
			return 0, err
		}
		total += len(keys)
		if next == 0 {
			return total, nil
		}
		cursor = next
	}
}

func (s *FlowStore) key(clientID string) string {
	return "quiz:flow:" + clientID
}
