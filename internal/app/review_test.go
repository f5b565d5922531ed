package app_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"setquiz/internal/app"
	"setquiz/internal/domain"
)

func TestReviewWalksIncorrectQuestions(t *testing.T) {
	ctx := context.Background()
	set := sampleQuestions(2)
	explainer := &fakeExplainer{}
	review := app.NewReviewCoordinator(explainer, set, nil)

	q, ok := review.Current()
	if !ok || q.ID != 1 {
		t.Fatalf("expected first question, got %+v ok=%v", q, ok)
	}
	text, err := review.LoadExplanation(ctx)
	if err != nil || text != explanationFor(1) {
		t.Fatalf("unexpected explanation %q err=%v", text, err)
	}

	if !review.Advance(ctx) {
		t.Fatalf("expected a second question")
	}
	snap := review.Snapshot()
	if snap.Index != 1 || snap.Question.ID != 2 || snap.Explanation != explanationFor(2) || snap.Loading {
		t.Fatalf("unexpected snapshot after advance: %+v", snap)
	}

	if review.Advance(ctx) {
		t.Fatalf("expected review to be exhausted")
	}
	if !review.Done() {
		t.Fatalf("expected done")
	}
	if _, err := review.LoadExplanation(ctx); !errors.Is(err, domain.ErrReviewComplete) {
		t.Fatalf("expected review complete, got %v", err)
	}
	if calls := explainer.Calls(); len(calls) != 2 {
		t.Fatalf("expected two explanation calls, got %v", calls)
	}
}

func TestReviewIsolatedFromCallerSlice(t *testing.T) {
	set := sampleQuestions(1)
	review := app.NewReviewCoordinator(&fakeExplainer{}, set, nil)
	set[0].ID = 42
	if q, _ := review.Current(); q.ID != 1 {
		t.Fatalf("expected review to keep its own copy, got %d", q.ID)
	}
}

func TestReviewExplanationFailureUsesPlaceholder(t *testing.T) {
	review := app.NewReviewCoordinator(&fakeExplainer{err: errUnavailable}, sampleQuestions(2), nil)
	text, err := review.LoadExplanation(context.Background())
	if err != nil {
		t.Fatalf("failure must not escalate, got %v", err)
	}
	if text != app.ExplanationUnavailable {
		t.Fatalf("expected placeholder, got %q", text)
	}
	if !review.Advance(context.Background()) {
		t.Fatalf("review must continue after a failed explanation")
	}
}

func TestReviewDiscardsSupersededExplanation(t *testing.T) {
	ctx := context.Background()
	explainer := &fakeExplainer{
		gates:   map[int]chan struct{}{1: make(chan struct{})},
		started: make(chan int, 4),
	}
	review := app.NewReviewCoordinator(explainer, sampleQuestions(2), nil)

	done := make(chan string, 1)
	go func() {
		text, _ := review.LoadExplanation(ctx)
		done <- text
	}()
	if id := <-explainer.started; id != 1 {
		t.Fatalf("expected fetch for question 1, got %d", id)
	}
	if !review.Snapshot().Loading {
		t.Fatalf("expected loading while the fetch is pending")
	}

	if !review.Advance(ctx) {
		t.Fatalf("expected to advance")
	}
	<-explainer.started

	close(explainer.gates[1])
	<-done

	snap := review.Snapshot()
	if snap.Question.ID != 2 || snap.Explanation != explanationFor(2) {
		t.Fatalf("stale explanation leaked into state: %+v", snap)
	}
}

func TestReviewClearsExplanationBeforeFetch(t *testing.T) {
	ctx := context.Background()
	explainer := &fakeExplainer{gates: map[int]chan struct{}{}, started: make(chan int, 4)}
	review := app.NewReviewCoordinator(explainer, sampleQuestions(2), nil)
	if _, err := review.LoadExplanation(ctx); err != nil {
		t.Fatalf("load: %v", err)
	}
	<-explainer.started

	explainer.mu.Lock()
	explainer.gates[2] = make(chan struct{})
	explainer.mu.Unlock()

	done := make(chan bool, 1)
	go func() { done <- review.Advance(ctx) }()
	<-explainer.started

	if snap := review.Snapshot(); snap.Explanation != "" || !snap.Loading {
		t.Fatalf("expected cleared explanation while loading, got %+v", snap)
	}
	close(explainer.gates[2])
	if !<-done {
		t.Fatalf("expected advance to report a next question")
	}
}

func TestReviewNeverShowsAnotherQuestionsExplanation(t *testing.T) {
	ctx := context.Background()
	for i := 0; i < 200; i++ {
		explainer := &fakeExplainer{
			gates:   map[int]chan struct{}{1: make(chan struct{})},
			started: make(chan int, 4),
		}
		var (
			review *app.ReviewCoordinator
			stale  atomic.Bool
		)
		review = app.NewReviewCoordinator(explainer, sampleQuestions(2), func() {
			snap := review.Snapshot()
			if snap.Question != nil && snap.Explanation != "" && snap.Explanation != explanationFor(snap.Question.ID) {
				stale.Store(true)
			}
		})

		done := make(chan struct{})
		go func() {
			defer close(done)
			_, _ = review.LoadExplanation(ctx)
		}()
		<-explainer.started

		advanced := make(chan bool, 1)
		go func() { advanced <- review.Advance(ctx) }()
		close(explainer.gates[1])
		<-done
		if !<-advanced {
			t.Fatalf("iteration %d: expected to advance", i)
		}
		if stale.Load() {
			t.Fatalf("iteration %d: explanation of question 1 shown with question 2", i)
		}
	}
}
