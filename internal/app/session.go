package app

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"setquiz/internal/domain"
)

// QuestionSource loads questions from the remote question service.
type QuestionSource interface {
	FetchQuestions(ctx context.Context, difficulty, count int) ([]domain.Question, error)
	FetchQuestion(ctx context.Context, id int) (domain.Question, error)
}

// Verifier checks a submitted answer against the verification service.
type Verifier interface {
	Verify(ctx context.Context, questionID int, answer string) (bool, error)
}

// DefaultAdvanceDelay is how long feedback stays visible before the next question.
const DefaultAdvanceDelay = 2 * time.Second

// ControllerOption customizes a Controller.
type ControllerOption func(*Controller)

// WithScheduler replaces the timer used for delayed advancement.
func WithScheduler(s Scheduler) ControllerOption {
	return func(c *Controller) { c.scheduler = s }
}

// WithAdvanceDelay overrides DefaultAdvanceDelay.
func WithAdvanceDelay(d time.Duration) ControllerOption {
	return func(c *Controller) { c.delay = d }
}

// WithAnswerFormat selects how answers are validated before verification.
func WithAnswerFormat(f AnswerFormat) ControllerOption {
	return func(c *Controller) { c.format = f }
}

// WithObserver registers a callback run after every state change.
// It is never called while the controller lock is held.
func WithObserver(fn func()) ControllerOption {
	return func(c *Controller) { c.observer = fn }
}

// Controller drives one quiz session: fetch, present, verify, feedback, advance.
//
// Remote calls are made without holding the lock. Every continuation that
// resumes after a call or a timer re-checks the epoch, which changes on
// restart and teardown, so work belonging to a discarded session is dropped.
type Controller struct {
	source    QuestionSource
	verifier  Verifier
	scheduler Scheduler
	delay     time.Duration
	format    AnswerFormat
	observer  func()

	lifetime context.Context
	stop     context.CancelFunc

	mu         sync.Mutex
	status     domain.Status
	difficulty int
	requested  int
	questions  []domain.Question
	position   int
	attempts   []domain.Attempt
	feedback   *bool
	pending    bool
	errMsg     string
	reviewSet  []domain.Question
	advance    Task
	epoch      uint64
	closed     bool
}

func NewController(source QuestionSource, verifier Verifier, opts ...ControllerOption) *Controller {
	lifetime, stop := context.WithCancel(context.Background())
	c := &Controller{
		source:    source,
		verifier:  verifier,
		scheduler: TimerScheduler{},
		delay:     DefaultAdvanceDelay,
		format:    FormatChoice,
		lifetime:  lifetime,
		stop:      stop,
		status:    domain.StatusIdle,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Start fetches count questions of the given difficulty and activates the session.
// A source returning fewer questions than requested shortens the session.
func (c *Controller) Start(ctx context.Context, count, difficulty int) error {
	if count <= 0 {
		return domain.ErrInvalidCount
	}
	epoch, err := c.beginLoading(count, difficulty)
	if err != nil {
		return err
	}

	fetchCtx, cancel := c.bind(ctx)
	defer cancel()
	questions, err := c.source.FetchQuestions(fetchCtx, difficulty, count)
	if err == nil && len(questions) > count {
		questions = questions[:count]
	}
	return c.finishLoading(epoch, questions, err)
}

// StartWithIDs builds the session from individually fetched questions.
func (c *Controller) StartWithIDs(ctx context.Context, difficulty int, ids []int) error {
	if len(ids) == 0 {
		return domain.ErrInvalidCount
	}
	epoch, err := c.beginLoading(len(ids), difficulty)
	if err != nil {
		return err
	}

	fetchCtx, cancel := c.bind(ctx)
	defer cancel()
	questions := make([]domain.Question, 0, len(ids))
	for _, id := range ids {
		q, err := c.source.FetchQuestion(fetchCtx, id)
		if err != nil {
			return c.finishLoading(epoch, nil, fmt.Errorf("question %d: %w", id, err))
		}
		questions = append(questions, q)
	}
	return c.finishLoading(epoch, questions, nil)
}

func (c *Controller) beginLoading(count, difficulty int) (uint64, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return 0, domain.ErrSessionClosed
	}
	if c.status != domain.StatusIdle && c.status != domain.StatusFailed {
		c.mu.Unlock()
		return 0, domain.ErrSessionStarted
	}
	c.epoch++
	c.status = domain.StatusLoading
	c.requested = count
	c.difficulty = difficulty
	c.questions = nil
	c.position = 0
	c.attempts = nil
	c.feedback = nil
	c.pending = false
	c.errMsg = ""
	c.reviewSet = nil
	epoch := c.epoch
	c.mu.Unlock()

	c.notify()
	return epoch, nil
}

func (c *Controller) finishLoading(epoch uint64, questions []domain.Question, fetchErr error) error {
	if fetchErr == nil && len(questions) == 0 {
		fetchErr = domain.ErrNoQuestions
	}

	c.mu.Lock()
	if c.closed || c.epoch != epoch {
		c.mu.Unlock()
		return domain.ErrSessionClosed
	}
	if fetchErr != nil {
		err := fmt.Errorf("%w: %w", domain.ErrQuestionFetch, fetchErr)
		c.status = domain.StatusFailed
		c.errMsg = err.Error()
		c.mu.Unlock()

		log.Printf("quiz start failed: %v", fetchErr)
		c.notify()
		return err
	}
	c.questions = questions
	c.status = domain.StatusActive
	c.mu.Unlock()

	c.notify()
	return nil
}

// SubmitAnswer verifies choice for the current question and records the Attempt.
// At most one verification is in flight per question; a verification failure
// is recorded as an incorrect answer so the session always moves on.
func (c *Controller) SubmitAnswer(ctx context.Context, choice string) (domain.Attempt, error) {
	c.mu.Lock()
	if err := c.submittableLocked(); err != nil {
		c.mu.Unlock()
		return domain.Attempt{}, err
	}
	answer, err := NormalizeAnswer(c.format, choice)
	if err != nil {
		c.mu.Unlock()
		return domain.Attempt{}, err
	}
	question := c.questions[c.position]
	epoch := c.epoch
	c.pending = true
	c.mu.Unlock()
	c.notify()

	verifyCtx, cancel := c.bind(ctx)
	correct, err := c.verifier.Verify(verifyCtx, question.ID, answer)
	cancel()
	if err != nil {
		log.Printf("verify question %d failed, recording as incorrect: %v", question.ID, err)
		correct = false
	}

	c.mu.Lock()
	if c.closed || c.epoch != epoch {
		c.mu.Unlock()
		return domain.Attempt{}, domain.ErrSessionClosed
	}
	attempt := domain.Attempt{Question: question, Answer: answer, Correct: correct}
	c.attempts = append(c.attempts, attempt)
	c.pending = false
	c.feedback = &correct
	c.scheduleAdvanceLocked()
	c.mu.Unlock()

	c.notify()
	return attempt, nil
}

func (c *Controller) submittableLocked() error {
	switch {
	case c.closed:
		return domain.ErrSessionClosed
	case c.status != domain.StatusActive:
		return domain.ErrNotActive
	case c.pending:
		return domain.ErrVerificationPending
	case c.feedback != nil:
		return domain.ErrAlreadyAnswered
	}
	return nil
}

func (c *Controller) scheduleAdvanceLocked() {
	epoch, position := c.epoch, c.position
	c.advance = c.scheduler.AfterFunc(c.delay, func() {
		c.advanceFrom(epoch, position)
	})
}

// advanceFrom moves past the question at position once its feedback delay expires.
func (c *Controller) advanceFrom(epoch uint64, position int) {
	c.mu.Lock()
	if c.closed || c.epoch != epoch || c.position != position ||
		c.status != domain.StatusActive || c.feedback == nil {
		c.mu.Unlock()
		return
	}
	c.advance = nil
	c.feedback = nil
	c.position++
	if c.position >= len(c.questions) {
		c.status = domain.StatusFinished
		c.reviewSet = incorrectQuestions(c.attempts)
	}
	c.mu.Unlock()

	c.notify()
}

// Close tears the controller down. A pending advancement is canceled and any
// in-flight call result is discarded. Close does not notify the observer.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.epoch++
	if c.advance != nil {
		c.advance.Cancel()
		c.advance = nil
	}
	c.mu.Unlock()
	c.stop()
}

// Status returns the session status.
func (c *Controller) Status() domain.Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// CurrentQuestion returns the question being presented, if any.
func (c *Controller) CurrentQuestion() (domain.Question, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.status != domain.StatusActive {
		return domain.Question{}, false
	}
	return c.questions[c.position], true
}

// Attempts returns a copy of the recorded attempts in submission order.
func (c *Controller) Attempts() []domain.Attempt {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]domain.Attempt(nil), c.attempts...)
}

// Results partitions the attempts into correct and incorrect ones.
func (c *Controller) Results() (correct, incorrect []domain.Attempt) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, a := range c.attempts {
		if a.Correct {
			correct = append(correct, a)
		} else {
			incorrect = append(incorrect, a)
		}
	}
	return correct, incorrect
}

// ReviewSet returns the questions answered incorrectly, in order.
// It is empty until the session has finished.
func (c *Controller) ReviewSet() []domain.Question {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]domain.Question{}, c.reviewSet...)
}

// Snapshot copies the observable state.
func (c *Controller) Snapshot() domain.SessionSnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	snap := domain.SessionSnapshot{
		Status:     c.status,
		Difficulty: c.difficulty,
		Requested:  c.requested,
		Position:   c.position,
		Total:      len(c.questions),
		Pending:    c.pending,
		Attempts:   append([]domain.Attempt{}, c.attempts...),
		Error:      c.errMsg,
	}
	if c.status == domain.StatusActive {
		q := c.questions[c.position]
		snap.Question = &q
	}
	if c.feedback != nil {
		verdict := *c.feedback
		snap.Feedback = &verdict
	}
	for _, a := range c.attempts {
		if a.Correct {
			snap.Correct++
		} else {
			snap.Incorrect++
		}
	}
	return snap
}

func (c *Controller) notify() {
	if c.observer != nil {
		c.observer()
	}
}

// bind derives a context that is also canceled when the controller closes.
func (c *Controller) bind(ctx context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(c.lifetime, cancel)
	return ctx, func() {
		stop()
		cancel()
	}
}

func incorrectQuestions(attempts []domain.Attempt) []domain.Question {
	out := make([]domain.Question, 0)
	for _, a := range attempts {
		if !a.Correct {
			out = append(out, a.Question)
		}
	}
	return out
}
