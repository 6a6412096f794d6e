package postgres

import (
	"time"

	"github.com/uptrace/bun"
	"pollquiz-service/internal/domain"
)

type pollRow struct {
	bun.BaseModel `bun:"table:polls"`

	ID          string              `bun:"id,pk"`
	HostID      string              `bun:"host_id"`
	Title       string              `bun:"title"`
	Description string              `bun:"description"`
	Status      string              `bun:"status"`
	StartAt     *time.Time          `bun:"start_at"`
	EndAt       *time.Time          `bun:"end_at"`
	Settings    domain.PollSettings `bun:"settings,type:jsonb"`
	CreatedAt   time.Time           `bun:"created_at"`
}

type pollOptionRow struct {
	bun.BaseModel `bun:"table:poll_options"`

	PollID   string `bun:"poll_id,pk"`
	ID       string `bun:"id,pk"`
	Position int    `bun:"position"`
	Text     string `bun:"text"`
	Votes    int    `bun:"votes"`
}

type quizRow struct {
	bun.BaseModel `bun:"table:quizzes"`

	ID          string              `bun:"id,pk"`
	HostID      string              `bun:"host_id"`
	Title       string              `bun:"title"`
	Description string              `bun:"description"`
	Status      string              `bun:"status"`
	StartAt     *time.Time          `bun:"start_at"`
	EndAt       *time.Time          `bun:"end_at"`
	Settings    domain.QuizSettings `bun:"settings,type:jsonb"`
	Questions   []domain.Question   `bun:"questions,type:jsonb"`
	CreatedAt   time.Time           `bun:"created_at"`
}

type counterRow struct {
	bun.BaseModel `bun:"table:event_counters"`

	Kind         string `bun:"kind,pk"`
	EventID      string `bun:"event_id,pk"`
	Participants int    `bun:"participants"`
}

type pollResponseRow struct {
	bun.BaseModel `bun:"table:poll_responses"`

	ID                string    `bun:"id,pk"`
	PollID            string    `bun:"poll_id"`
	UserID            string    `bun:"user_id,nullzero"`
	SelectedOptionIDs []string  `bun:"selected_option_ids,array"`
	ResponseNumber    int       `bun:"response_number"`
	CreatedAt         time.Time `bun:"created_at"`
}

type quizResultRow struct {
	bun.BaseModel `bun:"table:quiz_results"`

	ID            string          `bun:"id,pk"`
	QuizID        string          `bun:"quiz_id"`
	UserID        string          `bun:"user_id,nullzero"`
	Answers       []domain.Answer `bun:"answers,type:jsonb"`
	Score         int             `bun:"score"`
	MaxScore      int             `bun:"max_score"`
	Passed        *bool           `bun:"passed"`
	AttemptNumber int             `bun:"attempt_number"`
	CreatedAt     time.Time       `bun:"created_at"`
}

type userRow struct {
	bun.BaseModel `bun:"table:users"`

	ID           string    `bun:"id,pk"`
	FullName     string    `bun:"full_name"`
	Email        string    `bun:"email"`
	PasswordHash string    `bun:"password_hash"`
	Role         string    `bun:"role"`
	CreatedAt    time.Time `bun:"created_at"`
}

func (r pollRow) toDomain(options []pollOptionRow, participants int) domain.Poll {
	p := domain.Poll{
		ID:           r.ID,
		HostID:       r.HostID,
		Title:        r.Title,
		Description:  r.Description,
		Status:       domain.Status(r.Status),
		StartAt:      r.StartAt,
		EndAt:        r.EndAt,
		Settings:     r.Settings,
		Options:      make([]domain.Option, len(options)),
		Participants: participants,
		CreatedAt:    r.CreatedAt,
	}
	for i, o := range options {
		p.Options[i] = domain.Option{ID: o.ID, Text: o.Text, Votes: o.Votes}
	}
	return p
}

func (r quizRow) toDomain(participants int) domain.Quiz {
	return domain.Quiz{
		ID:           r.ID,
		HostID:       r.HostID,
		Title:        r.Title,
		Description:  r.Description,
		Status:       domain.Status(r.Status),
		StartAt:      r.StartAt,
		EndAt:        r.EndAt,
		Settings:     r.Settings,
		Questions:    r.Questions,
		Participants: participants,
		CreatedAt:    r.CreatedAt,
	}
}

func (r pollResponseRow) toDomain() domain.PollResponse {
	return domain.PollResponse{
		ID:                r.ID,
		PollID:            r.PollID,
		UserID:            r.UserID,
		SelectedOptionIDs: r.SelectedOptionIDs,
		ResponseNumber:    r.ResponseNumber,
		CreatedAt:         r.CreatedAt,
	}
}

func (r quizResultRow) toDomain() domain.QuizResult {
	return domain.QuizResult{
		ID:            r.ID,
		QuizID:        r.QuizID,
		UserID:        r.UserID,
		Answers:       r.Answers,
		Score:         r.Score,
		MaxScore:      r.MaxScore,
		Passed:        r.Passed,
		AttemptNumber: r.AttemptNumber,
		CreatedAt:     r.CreatedAt,
	}
}
