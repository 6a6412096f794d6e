package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/driver/pgdriver"
	"pollquiz-service/internal/app"
	"pollquiz-service/internal/domain"
)

const (
	sqlStateUniqueViolation      = "23505"
	sqlStateSerializationFailure = "40001"
	sqlStateDeadlockDetected     = "40P01"
)

// Store persists events, responses and users in Postgres through bun.
type Store struct {
	db         *bun.DB
	maxRetries int
}

func NewStore(db *bun.DB, maxRetries int) *Store {
	if maxRetries < 0 {
		maxRetries = 0
	}
	return &Store{db: db, maxRetries: maxRetries}
}

var _ app.Store = (*Store)(nil)

func sqlState(err error) string {
	var pgErr pgdriver.Error
	if errors.As(err, &pgErr) {
		return pgErr.Field('C')
	}
	return ""
}

func retryable(err error) bool {
	switch sqlState(err) {
	case sqlStateSerializationFailure, sqlStateDeadlockDetected:
		return true
	}
	return false
}

// WithinTx runs fn in a READ COMMITTED transaction, rerunning the whole unit
// when Postgres aborts it with a serialization failure or deadlock.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, tx app.Tx) error) error {
	var err error
	for attempt := 0; attempt <= s.maxRetries; attempt++ {
		err = s.db.RunInTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted}, func(ctx context.Context, tx bun.Tx) error {
			return fn(ctx, &txStore{tx: tx})
		})
		if !retryable(err) {
			return err
		}
	}
	return fmt.Errorf("transaction gave up after %d attempts: %w", s.maxRetries+1, err)
}

type txStore struct {
	tx bun.Tx
}

// LoadPoll takes a share lock on the poll row. Status updates need an
// exclusive lock and therefore wait for in-flight submissions, while
// submissions do not block each other.
func (t *txStore) LoadPoll(ctx context.Context, pollID string) (domain.Poll, error) {
	row := new(pollRow)
	err := t.tx.NewSelect().Model(row).Where("id = ?", pollID).For("SHARE").Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Poll{}, domain.ErrPollNotFound
	}
	if err != nil {
		return domain.Poll{}, fmt.Errorf("load poll: %w", err)
	}
	options, err := loadOptions(ctx, t.tx, pollID)
	if err != nil {
		return domain.Poll{}, err
	}
	participants, err := loadParticipants(ctx, t.tx, domain.KindPoll, pollID)
	if err != nil {
		return domain.Poll{}, err
	}
	return row.toDomain(options, participants), nil
}

func (t *txStore) LoadQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	row := new(quizRow)
	err := t.tx.NewSelect().Model(row).Where("id = ?", quizID).For("SHARE").Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("load quiz: %w", err)
	}
	participants, err := loadParticipants(ctx, t.tx, domain.KindQuiz, quizID)
	if err != nil {
		return domain.Quiz{}, err
	}
	return row.toDomain(participants), nil
}

func (t *txStore) CountPollResponses(ctx context.Context, pollID, userID string) (int, error) {
	n, err := t.tx.NewSelect().Model((*pollResponseRow)(nil)).
		Where("poll_id = ?", pollID).
		Where("user_id = ?", userID).
		Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("count poll responses: %w", err)
	}
	return n, nil
}

func (t *txStore) CountQuizResults(ctx context.Context, quizID, userID string) (int, error) {
	n, err := t.tx.NewSelect().Model((*quizResultRow)(nil)).
		Where("quiz_id = ?", quizID).
		Where("user_id = ?", userID).
		Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("count quiz results: %w", err)
	}
	return n, nil
}

func (t *txStore) InsertPollResponse(ctx context.Context, resp *domain.PollResponse) error {
	row := &pollResponseRow{
		ID:                resp.ID,
		PollID:            resp.PollID,
		UserID:            resp.UserID,
		SelectedOptionIDs: resp.SelectedOptionIDs,
		ResponseNumber:    resp.ResponseNumber,
		CreatedAt:         resp.CreatedAt,
	}
	if _, err := t.tx.NewInsert().Model(row).Exec(ctx); err != nil {
		if sqlState(err) == sqlStateUniqueViolation {
			return domain.ErrDuplicateResponse
		}
		return fmt.Errorf("insert poll response: %w", err)
	}
	return nil
}

func (t *txStore) InsertQuizResult(ctx context.Context, result *domain.QuizResult) error {
	row := &quizResultRow{
		ID:            result.ID,
		QuizID:        result.QuizID,
		UserID:        result.UserID,
		Answers:       result.Answers,
		Score:         result.Score,
		MaxScore:      result.MaxScore,
		Passed:        result.Passed,
		AttemptNumber: result.AttemptNumber,
		CreatedAt:     result.CreatedAt,
	}
	if _, err := t.tx.NewInsert().Model(row).Exec(ctx); err != nil {
		if sqlState(err) == sqlStateUniqueViolation {
			return domain.ErrDuplicateResponse
		}
		return fmt.Errorf("insert quiz result: %w", err)
	}
	return nil
}

// IncrementVotes updates options in id order so concurrent multi-select
// responses always lock rows in the same sequence.
func (t *txStore) IncrementVotes(ctx context.Context, pollID string, optionIDs []string) error {
	ids := append([]string(nil), optionIDs...)
	sort.Strings(ids)
	for _, id := range ids {
		res, err := t.tx.NewUpdate().Model((*pollOptionRow)(nil)).
			Set("votes = votes + 1").
			Where("poll_id = ?", pollID).
			Where("id = ?", id).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("increment votes: %w", err)
		}
		if n, _ := res.RowsAffected(); n != 1 {
			return domain.ErrInvalidOption.With("option %q does not belong to poll", id)
		}
	}
	return nil
}

func (t *txStore) IncrementParticipants(ctx context.Context, kind domain.EventKind, eventID string) error {
	res, err := t.tx.NewUpdate().Model((*counterRow)(nil)).
		Set("participants = participants + 1").
		Where("kind = ?", string(kind)).
		Where("event_id = ?", eventID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("increment participants: %w", err)
	}
	if n, _ := res.RowsAffected(); n != 1 {
		return fmt.Errorf("no participant counter for %s %s", kind, eventID)
	}
	return nil
}

func loadOptions(ctx context.Context, db bun.IDB, pollID string) ([]pollOptionRow, error) {
	var options []pollOptionRow
	err := db.NewSelect().Model(&options).Where("poll_id = ?", pollID).Order("position ASC").Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("load poll options: %w", err)
	}
	return options, nil
}

func loadParticipants(ctx context.Context, db bun.IDB, kind domain.EventKind, eventID string) (int, error) {
	row := new(counterRow)
	err := db.NewSelect().Model(row).
		Where("kind = ?", string(kind)).
		Where("event_id = ?", eventID).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("load participants: %w", err)
	}
	return row.Participants, nil
}

func (s *Store) CreatePoll(ctx context.Context, poll *domain.Poll) error {
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		row := &pollRow{
			ID:          poll.ID,
			HostID:      poll.HostID,
			Title:       poll.Title,
			Description: poll.Description,
			Status:      string(poll.Status),
			StartAt:     poll.StartAt,
			EndAt:       poll.EndAt,
			Settings:    poll.Settings,
			CreatedAt:   poll.CreatedAt,
		}
		if _, err := tx.NewInsert().Model(row).Exec(ctx); err != nil {
			return fmt.Errorf("insert poll: %w", err)
		}
		options := make([]pollOptionRow, len(poll.Options))
		for i, o := range poll.Options {
			options[i] = pollOptionRow{PollID: poll.ID, ID: o.ID, Position: i, Text: o.Text}
		}
		if _, err := tx.NewInsert().Model(&options).Exec(ctx); err != nil {
			return fmt.Errorf("insert poll options: %w", err)
		}
		counter := &counterRow{Kind: string(domain.KindPoll), EventID: poll.ID}
		if _, err := tx.NewInsert().Model(counter).Exec(ctx); err != nil {
			return fmt.Errorf("insert poll counter: %w", err)
		}
		return nil
	})
}

func (s *Store) CreateQuiz(ctx context.Context, quiz *domain.Quiz) error {
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		row := &quizRow{
			ID:          quiz.ID,
			HostID:      quiz.HostID,
			Title:       quiz.Title,
			Description: quiz.Description,
			Status:      string(quiz.Status),
			StartAt:     quiz.StartAt,
			EndAt:       quiz.EndAt,
			Settings:    quiz.Settings,
			Questions:   quiz.Questions,
			CreatedAt:   quiz.CreatedAt,
		}
		if _, err := tx.NewInsert().Model(row).Exec(ctx); err != nil {
			return fmt.Errorf("insert quiz: %w", err)
		}
		counter := &counterRow{Kind: string(domain.KindQuiz), EventID: quiz.ID}
		if _, err := tx.NewInsert().Model(counter).Exec(ctx); err != nil {
			return fmt.Errorf("insert quiz counter: %w", err)
		}
		return nil
	})
}

func (s *Store) GetPoll(ctx context.Context, pollID string) (domain.Poll, error) {
	row := new(pollRow)
	err := s.db.NewSelect().Model(row).Where("id = ?", pollID).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Poll{}, domain.ErrPollNotFound
	}
	if err != nil {
		return domain.Poll{}, fmt.Errorf("get poll: %w", err)
	}
	options, err := loadOptions(ctx, s.db, pollID)
	if err != nil {
		return domain.Poll{}, err
	}
	participants, err := loadParticipants(ctx, s.db, domain.KindPoll, pollID)
	if err != nil {
		return domain.Poll{}, err
	}
	return row.toDomain(options, participants), nil
}

func (s *Store) GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	row := new(quizRow)
	err := s.db.NewSelect().Model(row).Where("id = ?", quizID).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("get quiz: %w", err)
	}
	participants, err := loadParticipants(ctx, s.db, domain.KindQuiz, quizID)
	if err != nil {
		return domain.Quiz{}, err
	}
	return row.toDomain(participants), nil
}

func (s *Store) UpdateStatus(ctx context.Context, kind domain.EventKind, eventID string, from, to domain.Status) (bool, error) {
	var model interface{}
	switch kind {
	case domain.KindPoll:
		model = (*pollRow)(nil)
	case domain.KindQuiz:
		model = (*quizRow)(nil)
	default:
		return false, fmt.Errorf("unknown event kind %q", kind)
	}
	res, err := s.db.NewUpdate().Model(model).
		Set("status = ?", string(to)).
		Where("id = ?", eventID).
		Where("status = ?", string(from)).
		Exec(ctx)
	if err != nil {
		return false, fmt.Errorf("update %s status: %w", kind, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("update %s status: %w", kind, err)
	}
	if n == 1 {
		return true, nil
	}
	exists, err := s.db.NewSelect().Model(model).Where("id = ?", eventID).Exists(ctx)
	if err != nil {
		return false, fmt.Errorf("check %s: %w", kind, err)
	}
	if !exists {
		return false, domain.ErrNotFound.With("%s not found", kind)
	}
	return false, nil
}

func (s *Store) ListEventsByHost(ctx context.Context, hostID string) ([]domain.EventSummary, error) {
	var events []domain.EventSummary
	err := s.db.NewRaw(`
		SELECT p.id, 'poll' AS kind, p.title, p.status, c.participants, p.created_at
		FROM polls AS p
		JOIN event_counters AS c ON c.kind = 'poll' AND c.event_id = p.id
		WHERE p.host_id = ?
		UNION ALL
		SELECT q.id, 'quiz' AS kind, q.title, q.status, c.participants, q.created_at
		FROM quizzes AS q
		JOIN event_counters AS c ON c.kind = 'quiz' AND c.event_id = q.id
		WHERE q.host_id = ?
		ORDER BY created_at DESC, id`, hostID, hostID).Scan(ctx, &events)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	if events == nil {
		events = []domain.EventSummary{}
	}
	return events, nil
}

func (s *Store) GetQuizResult(ctx context.Context, resultID string) (domain.QuizResult, error) {
	row := new(quizResultRow)
	err := s.db.NewSelect().Model(row).Where("id = ?", resultID).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.QuizResult{}, domain.ErrResultNotFound
	}
	if err != nil {
		return domain.QuizResult{}, fmt.Errorf("get quiz result: %w", err)
	}
	return row.toDomain(), nil
}

func (s *Store) listResults(ctx context.Context, column, value string) ([]domain.QuizResult, error) {
	var rows []quizResultRow
	err := s.db.NewSelect().Model(&rows).
		Where("? = ?", bun.Ident(column), value).
		Order("created_at ASC", "id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list quiz results: %w", err)
	}
	out := make([]domain.QuizResult, len(rows))
	for i, r := range rows {
		out[i] = r.toDomain()
	}
	return out, nil
}

func (s *Store) ListQuizResults(ctx context.Context, quizID string) ([]domain.QuizResult, error) {
	return s.listResults(ctx, "quiz_id", quizID)
}

func (s *Store) ListQuizResultsByUser(ctx context.Context, userID string) ([]domain.QuizResult, error) {
	return s.listResults(ctx, "user_id", userID)
}

func (s *Store) ListPollResponses(ctx context.Context, pollID string) ([]domain.PollResponse, error) {
	var rows []pollResponseRow
	err := s.db.NewSelect().Model(&rows).
		Where("poll_id = ?", pollID).
		Order("created_at ASC", "id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list poll responses: %w", err)
	}
	out := make([]domain.PollResponse, len(rows))
	for i, r := range rows {
		out[i] = r.toDomain()
	}
	return out, nil
}

// ListPollResponsesByUser returns every response userID recorded, newest first.
func (s *Store) ListPollResponsesByUser(ctx context.Context, userID string) ([]domain.PollResponse, error) {
	var rows []pollResponseRow
	err := s.db.NewSelect().Model(&rows).
		Where("user_id = ?", userID).
		Order("created_at DESC", "id DESC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list poll responses by user: %w", err)
	}
	out := make([]domain.PollResponse, len(rows))
	for i, r := range rows {
		out[i] = r.toDomain()
	}
	return out, nil
}

// CreateUser stores a user, mapping a duplicate email to domain.ErrEmailTaken.
func (s *Store) CreateUser(ctx context.Context, user *domain.User) error {
	row := &userRow{
		ID:           user.ID,
		FullName:     user.FullName,
		Email:        user.Email,
		PasswordHash: user.PasswordHash,
		Role:         string(user.Role),
		CreatedAt:    user.CreatedAt,
	}
	if _, err := s.db.NewInsert().Model(row).Exec(ctx); err != nil {
		if sqlState(err) == sqlStateUniqueViolation {
			return domain.ErrEmailTaken
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	return s.getUser(ctx, "email", email)
}

func (s *Store) GetUserByID(ctx context.Context, userID string) (domain.User, error) {
	return s.getUser(ctx, "id", userID)
}

func (s *Store) getUser(ctx context.Context, column, value string) (domain.User, error) {
	row := new(userRow)
	err := s.db.NewSelect().Model(row).Where("? = ?", bun.Ident(column), value).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.User{}, domain.ErrUserNotFound
	}
	if err != nil {
		return domain.User{}, fmt.Errorf("get user: %w", err)
	}
	return domain.User{
		ID:           row.ID,
		FullName:     row.FullName,
		Email:        row.Email,
		PasswordHash: row.PasswordHash,
		Role:         domain.Role(row.Role),
		CreatedAt:    row.CreatedAt,
	}, nil
}
