package app_test

import (
	"context"
	"errors"
	"sync"
	"time"

	"setquiz/internal/app"
	"setquiz/internal/domain"
)

var errUnavailable = errors.New("service unavailable")

// manualScheduler only runs callbacks when the test says so.
type manualScheduler struct {
	mu    sync.Mutex
	tasks []*manualTask
}

type manualTask struct {
	mu       sync.Mutex
	f        func()
	canceled bool
	ran      bool
}

func (t *manualTask) Cancel() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.ran {
		return false
	}
	t.canceled = true
	return true
}

func (s *manualScheduler) AfterFunc(_ time.Duration, f func()) app.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	task := &manualTask{f: f}
	s.tasks = append(s.tasks, task)
	return task
}

// Fire runs every task that has not been canceled.
func (s *manualScheduler) Fire() int {
	return s.run(false)
}

// FireAll also runs canceled tasks, simulating a timer that fired while
// being stopped.
func (s *manualScheduler) FireAll() int {
	return s.run(true)
}

func (s *manualScheduler) run(includeCanceled bool) int {
	s.mu.Lock()
	tasks := s.tasks
	s.tasks = nil
	s.mu.Unlock()

	ran := 0
	for _, t := range tasks {
		t.mu.Lock()
		skip := t.ran || (t.canceled && !includeCanceled)
		t.ran = true
		t.mu.Unlock()
		if skip {
			continue
		}
		t.f()
		ran++
	}
	return ran
}

func (s *manualScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, t := range s.tasks {
		t.mu.Lock()
		if !t.canceled && !t.ran {
			n++
		}
		t.mu.Unlock()
	}
	return n
}

type fakeSource struct {
	mu        sync.Mutex
	questions []domain.Question
	byID      map[int]domain.Question
	err       error
	calls     int
}

func (s *fakeSource) FetchQuestions(_ context.Context, _, count int) ([]domain.Question, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	if count < len(s.questions) {
		return append([]domain.Question(nil), s.questions[:count]...), nil
	}
	return append([]domain.Question(nil), s.questions...), nil
}

func (s *fakeSource) FetchQuestion(_ context.Context, id int) (domain.Question, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	q, ok := s.byID[id]
	if !ok {
		return domain.Question{}, domain.ErrQuestionNotFound
	}
	return q, nil
}

// fakeVerifier accepts answers equal to key[questionID]. Questions listed in
// failing return an error. When gate is set every call waits on it.
type fakeVerifier struct {
	mu       sync.Mutex
	key      map[int]string
	failing  map[int]bool
	gate     chan struct{}
	started  chan int
	calls    int
	received []string
}

func (v *fakeVerifier) Verify(ctx context.Context, questionID int, answer string) (bool, error) {
	v.mu.Lock()
	v.calls++
	v.received = append(v.received, answer)
	gate, started := v.gate, v.started
	fail := v.failing[questionID]
	expected := v.key[questionID]
	v.mu.Unlock()

	if started != nil {
		started <- questionID
	}
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return false, ctx.Err()
		}
	}
	if fail {
		return false, errUnavailable
	}
	return answer == expected, nil
}

func (v *fakeVerifier) Calls() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.calls
}

type fakeHints struct {
	mu      sync.Mutex
	err     error
	gate    chan struct{}
	started chan int
	asked   []int
}

func (h *fakeHints) Hint(_ context.Context, questionID int, text string) (string, error) {
	h.mu.Lock()
	h.asked = append(h.asked, questionID)
	gate, started, err := h.gate, h.started, h.err
	h.mu.Unlock()

	if started != nil {
		started <- questionID
	}
	if gate != nil {
		<-gate
	}
	if err != nil {
		return "", err
	}
	return "think about " + text, nil
}

func (h *fakeHints) Asked() []int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]int(nil), h.asked...)
}

type fakeExplainer struct {
	mu      sync.Mutex
	err     error
	gates   map[int]chan struct{}
	started chan int
	calls   []int
}

func (e *fakeExplainer) Explain(_ context.Context, questionID int) (string, error) {
	e.mu.Lock()
	e.calls = append(e.calls, questionID)
	gate, started, err := e.gates[questionID], e.started, e.err
	e.mu.Unlock()

	if started != nil {
		started <- questionID
	}
	if gate != nil {
		<-gate
	}
	if err != nil {
		return "", err
	}
	return explanationFor(questionID), nil
}

func (e *fakeExplainer) Calls() []int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]int(nil), e.calls...)
}

func explanationFor(id int) string {
	return "explanation " + string(rune('A'+id))
}

func sampleQuestions(n int) []domain.Question {
	out := make([]domain.Question, n)
	for i := range out {
		out[i] = domain.Question{
			ID:      i + 1,
			Prompt:  "A = {1, 2}, B = {2, 3}. What is A ∪ B?",
			Choices: []string{"{1, 2, 3}", "{2}", "{1}", "{}"},
		}
	}
	return out
}

// answerKey marks the first choice of every question as correct.
func answerKey(questions []domain.Question) map[int]string {
	key := make(map[int]string, len(questions))
	for _, q := range questions {
		key[q.ID] = q.Choices[0]
	}
	return key
}

func waitFor(t interface {
	Helper()
	Fatalf(string, ...any)
}, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}
