package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"pollquiz-service/internal/app"
	"pollquiz-service/internal/domain"
)

// Store is an in-memory entity store. Transactions are serialized by a
// single mutex and their writes are journaled, then applied only when the
// transaction function succeeds.
type Store struct {
	mu sync.Mutex

	polls     map[string]*domain.Poll
	quizzes   map[string]*domain.Quiz
	responses map[string][]domain.PollResponse
	results   map[string]domain.QuizResult
	order     []string
	slots     map[string]struct{}

	users  map[string]domain.User
	emails map[string]string
}

func NewStore() *Store {
	return &Store{
		polls:     make(map[string]*domain.Poll),
		quizzes:   make(map[string]*domain.Quiz),
		responses: make(map[string][]domain.PollResponse),
		results:   make(map[string]domain.QuizResult),
		slots:     make(map[string]struct{}),
		users:     make(map[string]domain.User),
		emails:    make(map[string]string),
	}
}

var _ app.Store = (*Store)(nil)

func slotKey(kind domain.EventKind, eventID, userID string, seq int) string {
	return fmt.Sprintf("%s|%s|%s|%d", kind, eventID, userID, seq)
}

func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, tx app.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &memTx{store: s, pending: make(map[string]struct{})}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	for _, apply := range tx.journal {
		apply()
	}
	return nil
}

type memTx struct {
	store   *Store
	journal []func()
	pending map[string]struct{}
}

func (t *memTx) LoadPoll(_ context.Context, pollID string) (domain.Poll, error) {
	p, ok := t.store.polls[pollID]
	if !ok {
		return domain.Poll{}, domain.ErrPollNotFound
	}
	return clonePoll(*p), nil
}

func (t *memTx) LoadQuiz(_ context.Context, quizID string) (domain.Quiz, error) {
	q, ok := t.store.quizzes[quizID]
	if !ok {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	return cloneQuiz(*q), nil
}

func (t *memTx) CountPollResponses(_ context.Context, pollID, userID string) (int, error) {
	n := 0
	for _, r := range t.store.responses[pollID] {
		if r.UserID == userID {
			n++
		}
	}
	return n, nil
}

func (t *memTx) CountQuizResults(_ context.Context, quizID, userID string) (int, error) {
	n := 0
	for _, r := range t.store.results {
		if r.QuizID == quizID && r.UserID == userID {
			n++
		}
	}
	return n, nil
}

func (t *memTx) claim(key string) error {
	if _, taken := t.store.slots[key]; taken {
		return domain.ErrDuplicateResponse
	}
	if _, taken := t.pending[key]; taken {
		return domain.ErrDuplicateResponse
	}
	t.pending[key] = struct{}{}
	return nil
}

func (t *memTx) InsertPollResponse(_ context.Context, resp *domain.PollResponse) error {
	if _, ok := t.store.polls[resp.PollID]; !ok {
		return domain.ErrPollNotFound
	}
	var key string
	if resp.UserID != "" {
		key = slotKey(domain.KindPoll, resp.PollID, resp.UserID, resp.ResponseNumber)
		if err := t.claim(key); err != nil {
			return err
		}
	}
	stored := *resp
	stored.SelectedOptionIDs = append([]string(nil), resp.SelectedOptionIDs...)
	t.journal = append(t.journal, func() {
		if key != "" {
			t.store.slots[key] = struct{}{}
		}
		t.store.responses[stored.PollID] = append(t.store.responses[stored.PollID], stored)
	})
	return nil
}

func (t *memTx) InsertQuizResult(_ context.Context, result *domain.QuizResult) error {
	if _, ok := t.store.quizzes[result.QuizID]; !ok {
		return domain.ErrQuizNotFound
	}
	var key string
	if result.UserID != "" {
		key = slotKey(domain.KindQuiz, result.QuizID, result.UserID, result.AttemptNumber)
		if err := t.claim(key); err != nil {
			return err
		}
	}
	stored := *result
	stored.Answers = append([]domain.Answer(nil), result.Answers...)
	t.journal = append(t.journal, func() {
		if key != "" {
			t.store.slots[key] = struct{}{}
		}
		t.store.results[stored.ID] = stored
		t.store.order = append(t.store.order, stored.ID)
	})
	return nil
}

func (t *memTx) IncrementVotes(_ context.Context, pollID string, optionIDs []string) error {
	p, ok := t.store.polls[pollID]
	if !ok {
		return domain.ErrPollNotFound
	}
	idx := make([]int, 0, len(optionIDs))
	for _, id := range optionIDs {
		found := -1
		for i, o := range p.Options {
			if o.ID == id {
				found = i
				break
			}
		}
		if found < 0 {
			return domain.ErrInvalidOption.With("option %q does not belong to poll", id)
		}
		idx = append(idx, found)
	}
	t.journal = append(t.journal, func() {
		for _, i := range idx {
			p.Options[i].Votes++
		}
	})
	return nil
}

func (t *memTx) IncrementParticipants(_ context.Context, kind domain.EventKind, eventID string) error {
	switch kind {
	case domain.KindPoll:
		p, ok := t.store.polls[eventID]
		if !ok {
			return domain.ErrPollNotFound
		}
		t.journal = append(t.journal, func() { p.Participants++ })
	case domain.KindQuiz:
		q, ok := t.store.quizzes[eventID]
		if !ok {
			return domain.ErrQuizNotFound
		}
		t.journal = append(t.journal, func() { q.Participants++ })
	default:
		return fmt.Errorf("unknown event kind %q", kind)
	}
	return nil
}

func (s *Store) CreatePoll(_ context.Context, poll *domain.Poll) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.polls[poll.ID]; exists {
		return fmt.Errorf("poll %s already exists", poll.ID)
	}
	p := clonePoll(*poll)
	s.polls[p.ID] = &p
	return nil
}

func (s *Store) CreateQuiz(_ context.Context, quiz *domain.Quiz) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.quizzes[quiz.ID]; exists {
		return fmt.Errorf("quiz %s already exists", quiz.ID)
	}
	q := cloneQuiz(*quiz)
	s.quizzes[q.ID] = &q
	return nil
}

func (s *Store) GetPoll(_ context.Context, pollID string) (domain.Poll, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.polls[pollID]
	if !ok {
		return domain.Poll{}, domain.ErrPollNotFound
	}
	return clonePoll(*p), nil
}

func (s *Store) GetQuiz(_ context.Context, quizID string) (domain.Quiz, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	q, ok := s.quizzes[quizID]
	if !ok {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	return cloneQuiz(*q), nil
}

// LoadQuiz lets the store back a quiz content cache.
func (s *Store) LoadQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	return s.GetQuiz(ctx, quizID)
}

func (s *Store) UpdateStatus(_ context.Context, kind domain.EventKind, eventID string, from, to domain.Status) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch kind {
	case domain.KindPoll:
		p, ok := s.polls[eventID]
		if !ok {
			return false, domain.ErrPollNotFound
		}
		if p.Status != from {
			return false, nil
		}
		p.Status = to
	case domain.KindQuiz:
		q, ok := s.quizzes[eventID]
		if !ok {
			return false, domain.ErrQuizNotFound
		}
		if q.Status != from {
			return false, nil
		}
		q.Status = to
	default:
		return false, fmt.Errorf("unknown event kind %q", kind)
	}
	return true, nil
}

func (s *Store) ListEventsByHost(_ context.Context, hostID string) ([]domain.EventSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.EventSummary, 0)
	for _, p := range s.polls {
		if p.HostID == hostID {
			out = append(out, domain.EventSummary{ID: p.ID, Kind: domain.KindPoll, Title: p.Title, Status: p.Status, Participants: p.Participants, CreatedAt: p.CreatedAt})
		}
	}
	for _, q := range s.quizzes {
		if q.HostID == hostID {
			out = append(out, domain.EventSummary{ID: q.ID, Kind: domain.KindQuiz, Title: q.Title, Status: q.Status, Participants: q.Participants, CreatedAt: q.CreatedAt})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *Store) GetQuizResult(_ context.Context, resultID string) (domain.QuizResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.results[resultID]
	if !ok {
		return domain.QuizResult{}, domain.ErrResultNotFound
	}
	return r, nil
}

func (s *Store) ListQuizResults(_ context.Context, quizID string) ([]domain.QuizResult, error) {
	return s.filterResults(func(r domain.QuizResult) bool { return r.QuizID == quizID }), nil
}

func (s *Store) ListQuizResultsByUser(_ context.Context, userID string) ([]domain.QuizResult, error) {
	return s.filterResults(func(r domain.QuizResult) bool { return r.UserID == userID }), nil
}

func (s *Store) filterResults(keep func(domain.QuizResult) bool) []domain.QuizResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.QuizResult, 0)
	for _, id := range s.order {
		if r := s.results[id]; keep(r) {
			out = append(out, r)
		}
	}
	return out
}

func (s *Store) ListPollResponses(_ context.Context, pollID string) ([]domain.PollResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.PollResponse(nil), s.responses[pollID]...), nil
}

// ListPollResponsesByUser returns every response userID recorded, newest first.
func (s *Store) ListPollResponsesByUser(_ context.Context, userID string) ([]domain.PollResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.PollResponse
	for _, responses := range s.responses {
		for _, r := range responses {
			if r.UserID == userID {
				out = append(out, r)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

// CreateUser stores a user, rejecting an email that is already registered.
func (s *Store) CreateUser(_ context.Context, user *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	email := strings.ToLower(user.Email)
	if _, taken := s.emails[email]; taken {
		return domain.ErrEmailTaken
	}
	s.emails[email] = user.ID
	s.users[user.ID] = *user
	return nil
}

func (s *Store) GetUserByEmail(_ context.Context, email string) (domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.emails[strings.ToLower(email)]
	if !ok {
		return domain.User{}, domain.ErrUserNotFound
	}
	return s.users[id], nil
}

func (s *Store) GetUserByID(_ context.Context, userID string) (domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[userID]
	if !ok {
		return domain.User{}, domain.ErrUserNotFound
	}
	return user, nil
}

func clonePoll(p domain.Poll) domain.Poll {
	p.Options = append([]domain.Option(nil), p.Options...)
	return p
}

func cloneQuiz(q domain.Quiz) domain.Quiz {
	questions := make([]domain.Question, len(q.Questions))
	for i, question := range q.Questions {
		question.Choices = append([]domain.Choice(nil), question.Choices...)
		questions[i] = question
	}
	q.Questions = questions
	return q
}
