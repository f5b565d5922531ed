package app

import (
	"context"
	"log"
	"strings"
	"sync"

	"setquiz/internal/domain"
)

// HintService answers a free-text question about a quiz question.
type HintService interface {
	Hint(ctx context.Context, questionID int, text string) (string, error)
}

// HintUnavailable is the assistant reply used when the hint service fails.
const HintUnavailable = "Sorry, I'm having trouble connecting right now. Please try again later."

// HintSession is the conversation buffer for the hint panel of one question.
// It shares nothing with the Controller except the question id it is bound to.
type HintSession struct {
	hints    HintService
	observer func()

	mu         sync.Mutex
	open       bool
	questionID int
	exchange   []domain.HintEntry
	pending    bool
	generation uint64
}

func NewHintSession(hints HintService, observer func()) *HintSession {
	return &HintSession{hints: hints, observer: observer}
}

// Open shows the panel for questionID. Opening on another question discards
// the previous exchange.
func (h *HintSession) Open(questionID int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.open && h.questionID == questionID {
		return
	}
	h.resetLocked()
	h.open = true
	h.questionID = questionID
}

// Follow rebinds an open panel to questionID, discarding the exchange when the
// question changed. A closed panel stays closed.
func (h *HintSession) Follow(questionID int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.open || h.questionID == questionID {
		return
	}
	h.resetLocked()
	h.questionID = questionID
}

// Close hides the panel and discards the exchange.
func (h *HintSession) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.resetLocked()
	h.open = false
}

func (h *HintSession) resetLocked() {
	h.generation++
	h.exchange = nil
	h.pending = false
}

// Send appends text as a user entry and asks the hint service for a reply.
// Only one request may be outstanding; a second Send while one is pending
// returns ErrHintPending. Service failures produce HintUnavailable.
func (h *HintSession) Send(ctx context.Context, text string) (domain.HintEntry, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return domain.HintEntry{}, domain.ErrEmptyMessage
	}

	h.mu.Lock()
	if !h.open {
		h.mu.Unlock()
		return domain.HintEntry{}, domain.ErrHintClosed
	}
	if h.pending {
		h.mu.Unlock()
		return domain.HintEntry{}, domain.ErrHintPending
	}
	h.exchange = append(h.exchange, domain.HintEntry{Speaker: domain.SpeakerUser, Text: text})
	h.pending = true
	generation := h.generation
	questionID := h.questionID
	h.mu.Unlock()
	h.notify()

	reply, err := h.hints.Hint(ctx, questionID, text)
	if err != nil {
		log.Printf("hint for question %d unavailable: %v", questionID, err)
		reply = HintUnavailable
	}
	entry := domain.HintEntry{Speaker: domain.SpeakerAssistant, Text: reply}

	h.mu.Lock()
	if h.generation != generation {
		h.mu.Unlock()
		return entry, nil
	}
	h.exchange = append(h.exchange, entry)
	h.pending = false
	h.mu.Unlock()
	h.notify()
	return entry, nil
}

// Snapshot copies the observable state.
func (h *HintSession) Snapshot() domain.HintSnapshot {
	h.mu.Lock()
	defer h.mu.Unlock()
	return domain.HintSnapshot{
		Open:       h.open,
		QuestionID: h.questionID,
		Pending:    h.pending,
		Exchange:   append([]domain.HintEntry{}, h.exchange...),
	}
}

func (h *HintSession) notify() {
	if h.observer != nil {
		h.observer()
	}
}
