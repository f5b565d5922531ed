package app

import (
	"context"
	"log"
	"sync"

	"setquiz/internal/domain"
)

// ExplanationService produces a worked explanation for a question.
type ExplanationService interface {
	Explain(ctx context.Context, questionID int) (string, error)
}

// ExplanationUnavailable replaces an explanation the service failed to produce.
const ExplanationUnavailable = "Could not load the explanation for this question."

// ReviewCoordinator walks the incorrectly answered questions, fetching an
// explanation for each. A response that arrives after the cursor moved on is
// dropped.
type ReviewCoordinator struct {
	explainer ExplanationService
	observer  func()

	mu          sync.Mutex
	questions   []domain.Question
	cursor      int
	explanation string
	loading     bool
	done        bool
	generation  uint64
}

// NewReviewCoordinator copies set; later changes to the caller's slice are not seen.
func NewReviewCoordinator(explainer ExplanationService, set []domain.Question, observer func()) *ReviewCoordinator {
	return &ReviewCoordinator{
		explainer: explainer,
		observer:  observer,
		questions: append([]domain.Question(nil), set...),
		done:      len(set) == 0,
	}
}

// NeedsReview reports whether there is anything to review.
func (r *ReviewCoordinator) NeedsReview() bool {
	return len(r.questions) > 0
}

// Current returns the question at the cursor.
func (r *ReviewCoordinator) Current() (domain.Question, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.done {
		return domain.Question{}, false
	}
	return r.questions[r.cursor], true
}

// LoadExplanation fetches the explanation for the current question. The
// previous text is cleared before the call starts. Service failures yield
// ExplanationUnavailable.
func (r *ReviewCoordinator) LoadExplanation(ctx context.Context) (string, error) {
	r.mu.Lock()
	if r.done {
		r.mu.Unlock()
		return "", domain.ErrReviewComplete
	}
	generation, question := r.beginLoadLocked()
	r.mu.Unlock()
	r.notify()

	return r.fetch(ctx, generation, question), nil
}

// Advance moves to the next question and loads its explanation. When the
// cursor is on the last question (or the set is empty) the review is marked
// complete and false is returned without any fetch.
func (r *ReviewCoordinator) Advance(ctx context.Context) bool {
	r.mu.Lock()
	if r.done || r.cursor+1 >= len(r.questions) {
		r.done = true
		r.generation++
		r.loading = false
		r.explanation = ""
		r.mu.Unlock()
		r.notify()
		return false
	}
	r.cursor++
	generation, question := r.beginLoadLocked()
	r.mu.Unlock()
	r.notify()

	r.fetch(ctx, generation, question)
	return true
}

// beginLoadLocked invalidates any fetch in flight and clears the shown text.
func (r *ReviewCoordinator) beginLoadLocked() (uint64, domain.Question) {
	r.generation++
	r.explanation = ""
	r.loading = true
	return r.generation, r.questions[r.cursor]
}

func (r *ReviewCoordinator) fetch(ctx context.Context, generation uint64, question domain.Question) string {
	text, err := r.explainer.Explain(ctx, question.ID)
	if err != nil {
		log.Printf("explanation for question %d unavailable: %v", question.ID, err)
		text = ExplanationUnavailable
	}

	r.mu.Lock()
	if r.generation != generation {
		// superseded by a newer fetch or by advancing
		r.mu.Unlock()
		return text
	}
	r.explanation = text
	r.loading = false
	r.mu.Unlock()
	r.notify()
	return text
}

// Done reports whether the review has been exhausted.
func (r *ReviewCoordinator) Done() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.done
}

// Snapshot copies the observable state.
func (r *ReviewCoordinator) Snapshot() domain.ReviewSnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	snap := domain.ReviewSnapshot{
		Index:       r.cursor,
		Total:       len(r.questions),
		Explanation: r.explanation,
		Loading:     r.loading,
		Done:        r.done,
	}
	if !r.done {
		q := r.questions[r.cursor]
		snap.Question = &q
	}
	return snap
}

func (r *ReviewCoordinator) notify() {
	if r.observer != nil {
		r.observer()
	}
}
