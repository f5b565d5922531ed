package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"setquiz/internal/domain"
)

// QuestionStore keeps the question bank in a local SQLite file; choices are a
// JSON array in a TEXT column.
type QuestionStore struct {
	db *sql.DB
}

// Open opens (or creates) the database at path and ensures the schema.
func Open(path string) (*QuestionStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	// sqlite allows one writer; a single connection also keeps ":memory:" shared
	db.SetMaxOpenConns(1)

	if err := initSchema(db); err != nil {
		db.Close()
		return nil, err
	}
	return &QuestionStore{db: db}, nil
}

func (s *QuestionStore) Close() error {
	return s.db.Close()
}

func initSchema(db *sql.DB) error {
	query := `
	CREATE TABLE IF NOT EXISTS questions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		prompt TEXT NOT NULL,
		choices TEXT NOT NULL,
		answer TEXT NOT NULL,
		difficulty INTEGER NOT NULL CHECK (difficulty BETWEEN 1 AND 3)
	);
	CREATE INDEX IF NOT EXISTS questions_difficulty_idx ON questions (difficulty);
	`
	if _, err := db.Exec(query); err != nil {
		return fmt.Errorf("init schema: %w", err)
	}
	return nil
}

// Count returns the number of stored questions.
func (s *QuestionStore) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM questions`).Scan(&n)
	return n, err
}

func (s *QuestionStore) RandomByDifficulty(ctx context.Context, difficulty, limit int) ([]domain.BankQuestion, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, prompt, choices, answer, difficulty FROM questions WHERE difficulty = ? ORDER BY RANDOM() LIMIT ?`,
		difficulty, limit)
	if err != nil {
		return nil, fmt.Errorf("query questions: %w", err)
	}
	defer rows.Close()

	var out []domain.BankQuestion
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

func (s *QuestionStore) ByID(ctx context.Context, id int) (domain.BankQuestion, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, prompt, choices, answer, difficulty FROM questions WHERE id = ?`, id)
	q, err := scanQuestion(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.BankQuestion{}, domain.ErrQuestionNotFound
	}
	return q, err
}

func (s *QuestionStore) Insert(ctx context.Context, batch []domain.NewQuestion) ([]domain.BankQuestion, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	out := make([]domain.BankQuestion, 0, len(batch))
	for _, nq := range batch {
		choices, err := json.Marshal(nq.Choices)
		if err != nil {
			return nil, err
		}
		res, err := tx.ExecContext(ctx,
			`INSERT INTO questions (prompt, choices, answer, difficulty) VALUES (?, ?, ?, ?)`,
			nq.Prompt, string(choices), nq.Answer, nq.Difficulty)
		if err != nil {
			return nil, fmt.Errorf("insert question: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return nil, err
		}
		out = append(out, domain.BankQuestion{
			Question:   domain.Question{ID: int(id), Prompt: nq.Prompt, Choices: nq.Choices},
			Answer:     nq.Answer,
			Difficulty: nq.Difficulty,
		})
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanQuestion(row scanner) (domain.BankQuestion, error) {
	var (
		q   domain.BankQuestion
		raw string
	)
	if err := row.Scan(&q.ID, &q.Prompt, &raw, &q.Answer, &q.Difficulty); err != nil {
		return q, err
	}
	if err := json.Unmarshal([]byte(raw), &q.Choices); err != nil {
		return q, fmt.Errorf("unmarshal choices: %w", err)
	}
	return q, nil
}
