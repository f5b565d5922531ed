package memory

import (
	"sync"

	"setquiz/internal/app"
	"setquiz/internal/domain"
)

// FlowStore is an in-memory implementation of app.FlowRepository.
type FlowStore struct {
	mu    sync.RWMutex
	flows map[string]*app.Flow
}

func NewFlowStore() *FlowStore {
	return &FlowStore{
		flows: make(map[string]*app.Flow),
	}
}

// Attach returns the client's flow, creating it on first use, and subscribes
// to it before the store lock is released.
func (s *FlowStore) Attach(clientID string, create func() *app.Flow) (*app.Flow, <-chan domain.FlowView, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	flow, ok := s.flows[clientID]
	if !ok {
		flow = create()
		s.flows[clientID] = flow
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
	}
}
