package app

import (
	"context"

	"pollquiz-service/internal/domain"
)

// Tx is the set of reads and writes the admission path performs atomically.
// Events loaded through a Tx stay locked against status changes until the
// transaction ends; concurrent submissions to the same event still proceed.
type Tx interface {
	LoadPoll(ctx context.Context, pollID string) (domain.Poll, error)
	LoadQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
	CountPollResponses(ctx context.Context, pollID, userID string) (int, error)
	CountQuizResults(ctx context.Context, quizID, userID string) (int, error)
	// InsertPollResponse and InsertQuizResult return domain.ErrDuplicateResponse
	// when the (event, identity, sequence) slot is already taken.
	InsertPollResponse(ctx context.Context, resp *domain.PollResponse) error
	InsertQuizResult(ctx context.Context, result *domain.QuizResult) error
	// IncrementVotes adds one vote to each option in place.
	IncrementVotes(ctx context.Context, pollID string, optionIDs []string) error
	IncrementParticipants(ctx context.Context, kind domain.EventKind, eventID string) error
}

// Store abstracts the entity store (in-memory, Postgres).
type Store interface {
	// WithinTx runs fn in a single transaction. Any error returned by fn
	// discards every write fn made.
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error

	CreatePoll(ctx context.Context, poll *domain.Poll) error
	CreateQuiz(ctx context.Context, quiz *domain.Quiz) error
	GetPoll(ctx context.Context, pollID string) (domain.Poll, error)
	GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
	// UpdateStatus moves an event from one status to another and reports
	// false when the event was no longer in the expected status.
	UpdateStatus(ctx context.Context, kind domain.EventKind, eventID string, from, to domain.Status) (bool, error)
	ListEventsByHost(ctx context.Context, hostID string) ([]domain.EventSummary, error)

	GetQuizResult(ctx context.Context, resultID string) (domain.QuizResult, error)
	ListQuizResults(ctx context.Context, quizID string) ([]domain.QuizResult, error)
	ListQuizResultsByUser(ctx context.Context, userID string) ([]domain.QuizResult, error)
	ListPollResponses(ctx context.Context, pollID string) ([]domain.PollResponse, error)
	ListPollResponsesByUser(ctx context.Context, userID string) ([]domain.PollResponse, error)
}

// QuizContentRepository loads quiz content from a cache or backing store.
// Cached copies are only trusted for content that never changes after
// creation (title, questions, answer key), never for status or counters.
type QuizContentRepository interface {
	GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
}
