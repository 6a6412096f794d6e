package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"pollquiz-service/internal/domain"
)

// QuizLoader reads quiz content straight from Postgres for the content
// caches. Counters are not loaded.
type QuizLoader struct {
	pool *pgxpool.Pool
}

func NewQuizLoader(pool *pgxpool.Pool) *QuizLoader {
	return &QuizLoader{pool: pool}
}

func (l *QuizLoader) LoadQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	var (
		quiz      domain.Quiz
		status    string
		settings  []byte
		questions []byte
	)
	err := l.pool.QueryRow(ctx,
		`SELECT id, host_id, title, description, status, start_at, end_at, settings, questions, created_at
		 FROM quizzes WHERE id = $1`, quizID,
	).Scan(&quiz.ID, &quiz.HostID, &quiz.Title, &quiz.Description, &status,
		&quiz.StartAt, &quiz.EndAt, &settings, &questions, &quiz.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("load quiz: %w", err)
	}
	quiz.Status = domain.Status(status)
	if err := json.Unmarshal(settings, &quiz.Settings); err != nil {
		return domain.Quiz{}, fmt.Errorf("unmarshal quiz settings: %w", err)
	}
	if err := json.Unmarshal(questions, &quiz.Questions); err != nil {
		return domain.Quiz{}, fmt.Errorf("unmarshal quiz questions: %w", err)
	}
	return quiz, nil
}
