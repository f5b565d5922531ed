package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"setquiz/internal/domain"
)

// QuestionStore is an app.QuestionStore backed by a slice (useful for tests/demos).
type QuestionStore struct {
	mu        sync.RWMutex
	rnd       *rand.Rand
	questions []domain.BankQuestion
	nextID    int
}

func NewQuestionStore(seed []domain.BankQuestion) *QuestionStore {
	s := &QuestionStore{
		rnd:       rand.New(rand.NewSource(time.Now().UnixNano())),
		questions: append([]domain.BankQuestion(nil), seed...),
		nextID:    1,
	}
	for _, q := range seed {
		if q.ID >= s.nextID {
			s.nextID = q.ID + 1
		}
	}
	return s
}

func (s *QuestionStore) RandomByDifficulty(_ context.Context, difficulty, limit int) ([]domain.BankQuestion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	matches := make([]domain.BankQuestion, 0)
	for _, q := range s.questions {
		if q.Difficulty == difficulty {
			matches = append(matches, q)
		}
	}
	s.rnd.Shuffle(len(matches), func(i, j int) { matches[i], matches[j] = matches[j], matches[i] })
	if len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

func (s *QuestionStore) ByID(_ context.Context, id int) (domain.BankQuestion, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, q := range s.questions {
		if q.ID == id {
			return q, nil
		}
	}
	return domain.BankQuestion{}, domain.ErrQuestionNotFound
}

func (s *QuestionStore) Insert(_ context.Context, batch []domain.NewQuestion) ([]domain.BankQuestion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.BankQuestion, 0, len(batch))
	for _, nq := range batch {
		q := domain.BankQuestion{
			Question: domain.Question{
				ID:      s.nextID,
				Prompt:  nq.Prompt,
				Choices: append([]string(nil), nq.Choices...),
			},
			Answer:     nq.Answer,
			Difficulty: nq.Difficulty,
		}
		s.nextID++
		s.questions = append(s.questions, q)
		out = append(out, q)
	}
	return out, nil
}

// SampleQuestions is a small set-theory bank used when no database is configured.
func SampleQuestions() []domain.BankQuestion {
	return []domain.BankQuestion{
		sample(1, 1, "A = {1, 2, 3} and B = {3, 4, 5}. What is A ∪ B?",
			"{1, 2, 3, 4, 5}", "{3}", "{1, 2, 4, 5}", "{1, 2, 3, 4, 5}"),
		sample(2, 1, "A = {1, 2, 3} and B = {3, 4, 5}. What is A ∩ B?",
			"{3}", "{3}", "{}", "{1, 2, 3, 4, 5}"),
		sample(3, 1, "A = {2, 4, 6} and B = {4}. What is A − B?",
			"{2, 6}", "{4}", "{2, 6}", "{2, 4, 6}"),
		sample(4, 1, "How many elements does {a, b, c} have?",
			"3", "2", "3", "8"),
		sample(5, 1, "Which set is empty?",
			"{x ∈ ℕ | x < 0}", "{0}", "{x ∈ ℕ | x < 0}", "{∅}"),
		sample(6, 2, "A = {1, 2, 3, 4} and B = {2, 4, 6}. What is (A − B) ∪ (B − A)?",
			"{1, 3, 6}", "{2, 4}", "{1, 3, 6}", "{1, 2, 3, 4, 6}"),
		sample(7, 2, "How many subsets does {1, 2, 3} have?",
			"8", "6", "8", "9"),
		sample(8, 2, "A = {1, 2} and B = {2, 3}. What is A ∩ (A ∪ B)?",
			"{1, 2}", "{2}", "{1, 2}", "{1, 2, 3}"),
		sample(9, 2, "If A ⊆ B, what is A ∪ B?",
			"B", "A", "B", "A ∩ B"),
		sample(10, 2, "U = {1, ..., 6} and A = {1, 3, 5}. What is the complement of A?",
			"{2, 4, 6}", "{1, 3, 5}", "{2, 4, 6}", "{}"),
		sample(11, 3, "n(A) = 10, n(B) = 7 and n(A ∩ B) = 3. What is n(A ∪ B)?",
			"14", "17", "14", "20"),
		sample(12, 3, "How many elements does the power set of a 5-element set have?",
			"32", "25", "10", "32"),
		sample(13, 3, "A = {1, 2} and B = {x, y}. How many elements does A × B have?",
			"4", "2", "4", "8"),
		sample(14, 3, "In a class of 40, 25 study French and 20 study Spanish; 10 study both. How many study neither?",
			"5", "5", "15", "0"),
		sample(15, 3, "Which identity is De Morgan's law?",
			"(A ∪ B)ᶜ = Aᶜ ∩ Bᶜ", "(A ∪ B)ᶜ = Aᶜ ∪ Bᶜ", "(A ∪ B)ᶜ = Aᶜ ∩ Bᶜ", "A ∩ Aᶜ = U"),
	}
}

func sample(id, difficulty int, prompt, answer string, choices ...string) domain.BankQuestion {
	return domain.BankQuestion{
		Question:   domain.Question{ID: id, Prompt: prompt, Choices: choices},
		Answer:     answer,
		Difficulty: difficulty,
	}
}
