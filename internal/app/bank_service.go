package app

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"setquiz/internal/domain"
)

// QuestionStore persists the question bank.
type QuestionStore interface {
	RandomByDifficulty(ctx context.Context, difficulty, limit int) ([]domain.BankQuestion, error)
	ByID(ctx context.Context, id int) (domain.BankQuestion, error)
	Insert(ctx context.Context, batch []domain.NewQuestion) ([]domain.BankQuestion, error)
}

// Tutor writes hints and explanations for a stored question.
type Tutor interface {
	Hint(ctx context.Context, q domain.BankQuestion, text string) (string, error)
	Explain(ctx context.Context, q domain.BankQuestion) (string, error)
}

// TextCache memoizes generated text by key.
type TextCache interface {
	GetOrLoad(ctx context.Context, key string, load func(context.Context) (string, error)) (string, error)
}

// MaxQuestionsPerRequest caps a single batch fetch.
const MaxQuestionsPerRequest = 50

// QuestionBank serves the question, verification, hint and explanation calls
// the quiz session consumes.
type QuestionBank struct {
	store QuestionStore
	tutor Tutor
	cache TextCache
}

// NewQuestionBank wires a bank; tutor and cache may be nil. Without a tutor
// hints and explanations report ErrTutorUnavailable.
func NewQuestionBank(store QuestionStore, tutor Tutor, cache TextCache) *QuestionBank {
	return &QuestionBank{store: store, tutor: tutor, cache: cache}
}

// Questions returns up to limit random questions of the given difficulty.
func (b *QuestionBank) Questions(ctx context.Context, difficulty, limit int) ([]domain.Question, error) {
	if limit <= 0 {
		return nil, domain.ErrInvalidCount
	}
	if limit > MaxQuestionsPerRequest {
		limit = MaxQuestionsPerRequest
	}
	stored, err := b.store.RandomByDifficulty(ctx, difficulty, limit)
	if err != nil {
		return nil, err
	}
	if len(stored) == 0 {
		return nil, domain.ErrNoQuestions
	}
	out := make([]domain.Question, len(stored))
	for i, q := range stored {
		out[i] = q.Question
	}
	return out, nil
}

// FetchQuestions lets a bank in the same process act as a session's QuestionSource.
func (b *QuestionBank) FetchQuestions(ctx context.Context, difficulty, count int) ([]domain.Question, error) {
	return b.Questions(ctx, difficulty, count)
}

func (b *QuestionBank) FetchQuestion(ctx context.Context, id int) (domain.Question, error) {
	return b.Question(ctx, id)
}

// Question returns a single question without its answer key.
func (b *QuestionBank) Question(ctx context.Context, id int) (domain.Question, error) {
	q, err := b.store.ByID(ctx, id)
	if err != nil {
		return domain.Question{}, err
	}
	return q.Question, nil
}

// Verify compares answer with the stored key.
func (b *QuestionBank) Verify(ctx context.Context, id int, answer string) (bool, error) {
	q, err := b.store.ByID(ctx, id)
	if err != nil {
		return false, err
	}
	return SameAnswer(q.Answer, answer), nil
}

// Hint asks the tutor for guidance on question id without revealing the answer.
func (b *QuestionBank) Hint(ctx context.Context, id int, text string) (string, error) {
	q, err := b.store.ByID(ctx, id)
	if err != nil {
		return "", err
	}
	if b.tutor == nil {
		return "", domain.ErrTutorUnavailable
	}
	reply, err := b.tutor.Hint(ctx, q, text)
	if err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrTutorUnavailable, err)
	}
	return reply, nil
}

// Explain returns a worked explanation for question id, cached per question.
func (b *QuestionBank) Explain(ctx context.Context, id int) (string, error) {
	q, err := b.store.ByID(ctx, id)
	if err != nil {
		return "", err
	}
	if b.tutor == nil {
		return "", domain.ErrTutorUnavailable
	}
	load := func(ctx context.Context) (string, error) {
		text, err := b.tutor.Explain(ctx, q)
		if err != nil {
			return "", fmt.Errorf("%w: %w", domain.ErrTutorUnavailable, err)
		}
		return text, nil
	}
	if b.cache == nil {
		return load(ctx)
	}
	return b.cache.GetOrLoad(ctx, "explanation:"+strconv.Itoa(id), load)
}

// AddQuestions validates and stores a batch. The whole batch is rejected when
// any question is invalid.
func (b *QuestionBank) AddQuestions(ctx context.Context, batch []domain.NewQuestion) ([]domain.Question, error) {
	if len(batch) == 0 {
		return nil, fmt.Errorf("%w: empty batch", domain.ErrInvalidQuestion)
	}
	for i, q := range batch {
		if err := validateNewQuestion(q); err != nil {
			return nil, fmt.Errorf("question %d: %w", i, err)
		}
	}
	stored, err := b.store.Insert(ctx, batch)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Question, len(stored))
	for i, q := range stored {
		out[i] = q.Question
	}
	return out, nil
}

func validateNewQuestion(q domain.NewQuestion) error {
	if strings.TrimSpace(q.Prompt) == "" {
		return fmt.Errorf("%w: empty prompt", domain.ErrInvalidQuestion)
	}
	if len(q.Choices) < 2 {
		return fmt.Errorf("%w: needs at least two choices", domain.ErrInvalidQuestion)
	}
	if !contains(Difficulties, q.Difficulty) {
		return fmt.Errorf("%w: difficulty %d", domain.ErrInvalidQuestion, q.Difficulty)
	}
	for _, c := range q.Choices {
		if SameAnswer(q.Answer, c) {
			return nil
		}
	}
	return fmt.Errorf("%w: answer %q is not one of the choices", domain.ErrInvalidQuestion, q.Answer)
}
