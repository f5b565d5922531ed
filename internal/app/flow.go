package app

import (
	"context"
	"sync"

	"setquiz/internal/domain"
)

// Difficulty levels and question counts offered to students.
var (
	Difficulties   = []int{1, 2, 3}
	QuestionCounts = []int{5, 10, 15}
)

// NoReviewNeeded is shown on the home stage after a quiz without mistakes.
const NoReviewNeeded = "No mistakes to review. Well done!"

// Stage is one step of the per-client quiz flow. Each stage carries only the
// data it needs.
type Stage interface {
	Kind() domain.StageKind
}

type HomeStage struct {
	Notice string
}

type DifficultyStage struct{}

type QuantityStage struct {
	Difficulty int
}

type ActiveStage struct {
	Session *Controller
	Hint    *HintSession
}

type FinishedStage struct {
	Session *Controller
}

type ReviewStage struct {
	Review *ReviewCoordinator
}

func (HomeStage) Kind() domain.StageKind       { return domain.StageHome }
func (DifficultyStage) Kind() domain.StageKind { return domain.StageDifficulty }
func (QuantityStage) Kind() domain.StageKind   { return domain.StageQuantity }
func (ActiveStage) Kind() domain.StageKind     { return domain.StageActive }
func (FinishedStage) Kind() domain.StageKind   { return domain.StageFinished }
func (ReviewStage) Kind() domain.StageKind     { return domain.StageReview }

// Services bundles the remote collaborators a Flow talks to.
type Services struct {
	Questions    QuestionSource
	Verifier     Verifier
	Hints        HintService
	Explanations ExplanationService
}

// Flow is the stage machine of one client:
// home -> difficulty -> quantity -> active -> finished -> review -> home.
type Flow struct {
	id       string
	services Services
	options  []ControllerOption

	mu          sync.Mutex
	stage       Stage
	subscribers map[chan domain.FlowView]struct{}
	closed      bool
}

func NewFlow(id string, services Services, opts ...ControllerOption) *Flow {
	return &Flow{
		id:          id,
		services:    services,
		options:     opts,
		stage:       HomeStage{},
		subscribers: make(map[chan domain.FlowView]struct{}),
	}
}

// ID returns the client identifier the flow belongs to.
func (f *Flow) ID() string {
	return f.id
}

// Stage returns the current stage.
func (f *Flow) Stage() Stage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.currentLocked()
}

// Begin leaves the home stage to pick a difficulty.
func (f *Flow) Begin() error {
	if err := f.lockOpen(); err != nil {
		return err
	}
	if _, ok := f.currentLocked().(HomeStage); !ok {
		f.mu.Unlock()
		return domain.ErrInvalidStage
	}
	f.stage = DifficultyStage{}
	f.mu.Unlock()
	f.broadcast()
	return nil
}

// ChooseDifficulty records the difficulty and moves on to the quantity choice.
func (f *Flow) ChooseDifficulty(level int) error {
	if !contains(Difficulties, level) {
		return domain.ErrInvalidDifficulty
	}
	if err := f.lockOpen(); err != nil {
		return err
	}
	if _, ok := f.currentLocked().(DifficultyStage); !ok {
		f.mu.Unlock()
		return domain.ErrInvalidStage
	}
	f.stage = QuantityStage{Difficulty: level}
	f.mu.Unlock()
	f.broadcast()
	return nil
}

// ChooseQuantity starts a quiz session with count questions. On a fetch
// failure the flow stays on the active stage showing the error; the only way
// forward is Home and a fresh start.
func (f *Flow) ChooseQuantity(ctx context.Context, count int) error {
	if !contains(QuestionCounts, count) {
		return domain.ErrInvalidCount
	}
	if err := f.lockOpen(); err != nil {
		return err
	}
	quantity, ok := f.currentLocked().(QuantityStage)
	if !ok {
		f.mu.Unlock()
		return domain.ErrInvalidStage
	}
	opts := append(append([]ControllerOption(nil), f.options...), WithObserver(f.broadcast))
	session := NewController(f.services.Questions, f.services.Verifier, opts...)
	f.stage = ActiveStage{
		Session: session,
		Hint:    NewHintSession(f.services.Hints, f.broadcast),
	}
	f.mu.Unlock()

	return session.Start(ctx, count, quantity.Difficulty)
}

// Submit answers the current question.
func (f *Flow) Submit(ctx context.Context, choice string) (domain.Attempt, error) {
	active, err := f.active()
	if err != nil {
		return domain.Attempt{}, err
	}
	return active.Session.SubmitAnswer(ctx, choice)
}

// OpenHint opens the hint panel on the current question.
func (f *Flow) OpenHint() error {
	active, err := f.active()
	if err != nil {
		return err
	}
	question, ok := active.Session.CurrentQuestion()
	if !ok {
		return domain.ErrNotActive
	}
	active.Hint.Open(question.ID)
	f.broadcast()
	return nil
}

// SendHint sends a message on the hint panel of the current question.
func (f *Flow) SendHint(ctx context.Context, text string) (domain.HintEntry, error) {
	active, err := f.active()
	if err != nil {
		return domain.HintEntry{}, err
	}
	if question, ok := active.Session.CurrentQuestion(); ok {
		active.Hint.Follow(question.ID)
	}
	return active.Hint.Send(ctx, text)
}

// CloseHint closes the hint panel, discarding its exchange.
func (f *Flow) CloseHint() error {
	active, err := f.active()
	if err != nil {
		return err
	}
	active.Hint.Close()
	f.broadcast()
	return nil
}

// StartReview begins the review pass after a finished quiz. With no incorrect
// answers it returns to home, reports false, and makes no remote call.
func (f *Flow) StartReview(ctx context.Context) (bool, error) {
	if err := f.lockOpen(); err != nil {
		return false, err
	}
	finished, ok := f.currentLocked().(FinishedStage)
	if !ok {
		f.mu.Unlock()
		return false, domain.ErrInvalidStage
	}
	review := NewReviewCoordinator(f.services.Explanations, finished.Session.ReviewSet(), f.broadcast)
	finished.Session.Close()
	if !review.NeedsReview() {
		f.stage = HomeStage{Notice: NoReviewNeeded}
		f.mu.Unlock()
		f.broadcast()
		return false, nil
	}
	f.stage = ReviewStage{Review: review}
	f.mu.Unlock()
	f.broadcast()

	_, err := review.LoadExplanation(ctx)
	return true, err
}

// NextReview advances the review; when it is exhausted the flow returns home.
func (f *Flow) NextReview(ctx context.Context) (bool, error) {
	if err := f.lockOpen(); err != nil {
		return false, err
	}
	stage, ok := f.currentLocked().(ReviewStage)
	f.mu.Unlock()
	if !ok {
		return false, domain.ErrInvalidStage
	}

	if stage.Review.Advance(ctx) {
		return true, nil
	}
	f.mu.Lock()
	if current, ok := f.stage.(ReviewStage); ok && current.Review == stage.Review {
		f.stage = HomeStage{}
	}
	f.mu.Unlock()
	f.broadcast()
	return false, nil
}

// Home abandons whatever is in progress. Pending timers are canceled and
// in-flight results are discarded. A closed flow stays closed.
func (f *Flow) Home() {
	if f.lockOpen() != nil {
		return
	}
	f.teardownLocked()
	f.stage = HomeStage{}
	f.mu.Unlock()
	f.broadcast()
}

// View renders the current stage.
func (f *Flow) View() domain.FlowView {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.viewLocked()
}

// Subscribe returns a channel that receives a view after every change,
// starting with the current one. The caller must invoke cancel.
func (f *Flow) Subscribe() (<-chan domain.FlowView, func()) {
	ch := make(chan domain.FlowView, 8)

	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	f.subscribers[ch] = struct{}{}
	ch <- f.viewLocked()
	f.mu.Unlock()

	cancel := func() {
		f.mu.Lock()
		if _, ok := f.subscribers[ch]; ok {
			delete(f.subscribers, ch)
			close(ch)
		}
		f.mu.Unlock()
	}
	return ch, cancel
}

// IsIdle reports whether nobody is watching the flow.
func (f *Flow) IsIdle() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subscribers) == 0
}

// Close tears the flow down and closes all subscriptions.
func (f *Flow) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return
	}
	f.closed = true
	f.teardownLocked()
	f.stage = HomeStage{}
	for ch := range f.subscribers {
		delete(f.subscribers, ch)
		close(ch)
	}
}

func (f *Flow) active() (ActiveStage, error) {
	if err := f.lockOpen(); err != nil {
		return ActiveStage{}, err
	}
	defer f.mu.Unlock()
	active, ok := f.currentLocked().(ActiveStage)
	if !ok {
		return ActiveStage{}, domain.ErrInvalidStage
	}
	return active, nil
}

// lockOpen takes the flow lock unless the flow has been closed.
func (f *Flow) lockOpen() error {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return domain.ErrSessionClosed
	}
	return nil
}

// currentLocked promotes an active stage whose session has finished.
func (f *Flow) currentLocked() Stage {
	if active, ok := f.stage.(ActiveStage); ok && active.Session.Status() == domain.StatusFinished {
		active.Hint.Close()
		f.stage = FinishedStage{Session: active.Session}
	}
	return f.stage
}

func (f *Flow) teardownLocked() {
	switch s := f.stage.(type) {
	case ActiveStage:
		s.Session.Close()
		s.Hint.Close()
	case FinishedStage:
		s.Session.Close()
	}
}

func (f *Flow) viewLocked() domain.FlowView {
	stage := f.currentLocked()
	view := domain.FlowView{Stage: stage.Kind()}
	switch s := stage.(type) {
	case HomeStage:
		view.Notice = s.Notice
	case QuantityStage:
		view.Difficulty = s.Difficulty
	case ActiveStage:
		snap := s.Session.Snapshot()
		if snap.Question != nil {
			s.Hint.Follow(snap.Question.ID)
		}
		hint := s.Hint.Snapshot()
		view.Difficulty = snap.Difficulty
		view.Session = &snap
		view.Hint = &hint
	case FinishedStage:
		snap := s.Session.Snapshot()
		view.Difficulty = snap.Difficulty
		view.Session = &snap
	case ReviewStage:
		review := s.Review.Snapshot()
		view.Review = &review
	}
	return view
}

func (f *Flow) broadcast() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed || len(f.subscribers) == 0 {
		return
	}
	view := f.viewLocked()
	for ch := range f.subscribers {
		select {
		case ch <- view:
		default:
			// drop the oldest view so a slow client never blocks the session
			select {
			case <-ch:
			default:
			}
			ch <- view
		}
	}
}

func contains(values []int, v int) bool {
	for _, x := range values {
		if x == v {
			return true
		}
	}
	return false
}
