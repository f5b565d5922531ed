package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"setquiz/internal/domain"
)

// QuestionStore keeps the question bank in Postgres; choices are JSONB.
type QuestionStore struct {
	pool *pgxpool.Pool
}

func NewQuestionStore(pool *pgxpool.Pool) *QuestionStore {
	return &QuestionStore{pool: pool}
}

func (s *QuestionStore) RandomByDifficulty(ctx context.Context, difficulty, limit int) ([]domain.BankQuestion, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, prompt, choices, answer, difficulty FROM questions WHERE difficulty=$1 ORDER BY random() LIMIT $2`,
		difficulty, limit)
	if err != nil {
		return nil, fmt.Errorf("query questions: %w", err)
	}
	defer rows.Close()

	out := make([]domain.BankQuestion, 0, limit)
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query questions: %w", err)
	}
	return out, nil
}

func (s *QuestionStore) ByID(ctx context.Context, id int) (domain.BankQuestion, error) {
	row := s.pool.QueryRow(ctx, `SELECT id, prompt, choices, answer, difficulty FROM questions WHERE id=$1`, id)
	q, err := scanQuestion(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.BankQuestion{}, domain.ErrQuestionNotFound
	}
	return q, err
}

// Insert stores the batch in one transaction.
func (s *QuestionStore) Insert(ctx context.Context, batch []domain.NewQuestion) ([]domain.BankQuestion, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	out := make([]domain.BankQuestion, 0, len(batch))
	for _, nq := range batch {
		choices, err := json.Marshal(nq.Choices)
		if err != nil {
			return nil, fmt.Errorf("marshal choices: %w", err)
		}
		var id int
		err = tx.QueryRow(ctx,
			`INSERT INTO questions (prompt, choices, answer, difficulty) VALUES ($1, $2, $3, $4) RETURNING id`,
			nq.Prompt, string(choices), nq.Answer, nq.Difficulty).Scan(&id)
		if err != nil {
			return nil, fmt.Errorf("insert question: %w", err)
		}
		out = append(out, domain.BankQuestion{
			Question:   domain.Question{ID: id, Prompt: nq.Prompt, Choices: nq.Choices},
			Answer:     nq.Answer,
			Difficulty: nq.Difficulty,
		})
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return out, nil
}

func scanQuestion(row pgx.Row) (domain.BankQuestion, error) {
	var (
		q   domain.BankQuestion
		raw []byte
	)
	if err := row.Scan(&q.ID, &q.Prompt, &raw, &q.Answer, &q.Difficulty); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return q, err
		}
		return q, fmt.Errorf("scan question: %w", err)
	}
	if err := json.Unmarshal(raw, &q.Choices); err != nil {
		return q, fmt.Errorf("unmarshal choices: %w", err)
	}
	return q, nil
}
