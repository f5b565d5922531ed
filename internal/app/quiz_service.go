package app

import (
	"setquiz/internal/domain"
)

// FlowRepository abstracts where per-client flows live (in-memory, Redis, etc).
// Attach subscribes under the same lock ReleaseIfIdle takes, so a flow handed
// out by Attach is never one that a concurrent release has already closed.
type FlowRepository interface {
	Attach(clientID string, create func() *Flow) (*Flow, <-chan domain.FlowView, func())
	Get(clientID string) (*Flow, bool)
	ReleaseIfIdle(clientID string)
}

// QuizService hands out the flow of each connected client.
type QuizService struct {
	flows    FlowRepository
	services Services
	options  []ControllerOption
}

func NewQuizService(flows FlowRepository, services Services, opts ...ControllerOption) *QuizService {
	return &QuizService{flows: flows, services: services, options: opts}
}

// Attach returns the client's flow, creating it on first use, together with a
// subscription to its views. The caller must invoke cancel and then Detach.
func (s *QuizService) Attach(clientID string) (*Flow, <-chan domain.FlowView, func()) {
	return s.flows.Attach(clientID, func() *Flow {
		return NewFlow(clientID, s.services, s.options...)
	})
}

// Flow looks up an existing flow.
func (s *QuizService) Flow(clientID string) (*Flow, bool) {
	return s.flows.Get(clientID)
}

// Detach drops the client's flow once nobody watches it. Dropping a flow is
// the same as navigating away: timers are canceled and state is discarded.
func (s *QuizService) Detach(clientID string) {
	s.flows.ReleaseIfIdle(clientID)
}
