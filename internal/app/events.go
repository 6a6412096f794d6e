package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"pollquiz-service/internal/domain"
)

// EventService covers the host side of polls and quizzes.
type EventService struct {
	store  Store
	logger *slog.Logger
	now    func() time.Time
	newID  func() string
}

func NewEventService(store Store, logger *slog.Logger) *EventService {
	if logger == nil {
		logger = slog.Default()
	}
	return &EventService{store: store, logger: logger, now: time.Now, newID: uuid.NewString}
}

func requireHost(who *domain.Identity) error {
	if who == nil {
		return domain.ErrAuthenticationRequired
	}
	if who.Role != domain.RoleHost {
		return domain.ErrForbidden.With("only hosts can manage events")
	}
	return nil
}

func initialStatus(s domain.Status) (domain.Status, error) {
	switch s {
	case "":
		return domain.StatusDraft, nil
	case domain.StatusDraft, domain.StatusActive:
		return s, nil
	}
	return "", domain.ErrInvalidTransition.With("events cannot be created as %s", s)
}

// CreatePoll stores a new poll owned by who.
func (s *EventService) CreatePoll(ctx context.Context, who *domain.Identity, draft domain.Poll) (domain.Poll, error) {
	if err := requireHost(who); err != nil {
		return domain.Poll{}, err
	}
	if err := domain.ValidateNewPoll(draft); err != nil {
		return domain.Poll{}, err
	}
	status, err := initialStatus(draft.Status)
	if err != nil {
		return domain.Poll{}, err
	}

	poll := draft
	poll.ID = s.newID()
	poll.HostID = who.UserID
	poll.Status = status
	poll.Participants = 0
	poll.CreatedAt = s.now()
	poll.Options = make([]domain.Option, len(draft.Options))
	for i, o := range draft.Options {
		poll.Options[i] = domain.Option{ID: s.newID(), Text: o.Text}
	}
	if err := s.store.CreatePoll(ctx, &poll); err != nil {
		return domain.Poll{}, err
	}
	s.logger.Info("poll created", "poll_id", poll.ID, "host_id", poll.HostID, "options", len(poll.Options))
	return poll, nil
}

// CreateQuiz stores a new quiz owned by who.
func (s *EventService) CreateQuiz(ctx context.Context, who *domain.Identity, draft domain.Quiz) (domain.Quiz, error) {
	if err := requireHost(who); err != nil {
		return domain.Quiz{}, err
	}
	if err := domain.ValidateNewQuiz(draft); err != nil {
		return domain.Quiz{}, err
	}
	status, err := initialStatus(draft.Status)
	if err != nil {
		return domain.Quiz{}, err
	}

	quiz := draft
	quiz.ID = s.newID()
	quiz.HostID = who.UserID
	quiz.Status = status
	quiz.Participants = 0
	quiz.CreatedAt = s.now()
	quiz.Questions = make([]domain.Question, len(draft.Questions))
	for i, q := range draft.Questions {
		q.ID = s.newID()
		q.Choices = make([]domain.Choice, len(draft.Questions[i].Choices))
		for j, c := range draft.Questions[i].Choices {
			q.Choices[j] = domain.Choice{ID: s.newID(), Text: c.Text}
		}
		quiz.Questions[i] = q
	}
	if err := s.store.CreateQuiz(ctx, &quiz); err != nil {
		return domain.Quiz{}, err
	}
	s.logger.Info("quiz created", "quiz_id", quiz.ID, "host_id", quiz.HostID, "questions", len(quiz.Questions))
	return quiz, nil
}

func (s *EventService) GetPoll(ctx context.Context, pollID string) (domain.Poll, error) {
	return s.store.GetPoll(ctx, pollID)
}

func (s *EventService) GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	return s.store.GetQuiz(ctx, quizID)
}

// SetPollStatus moves a poll forward in its lifecycle. Requesting the
// current status is a no-op.
func (s *EventService) SetPollStatus(ctx context.Context, who *domain.Identity, pollID string, to domain.Status) (domain.Poll, error) {
	if err := requireHost(who); err != nil {
		return domain.Poll{}, err
	}
	poll, err := s.store.GetPoll(ctx, pollID)
	if err != nil {
		return domain.Poll{}, err
	}
	if poll.HostID != who.UserID {
		return domain.Poll{}, domain.ErrForbidden.With("poll belongs to another host")
	}
	if err := s.transition(ctx, domain.KindPoll, pollID, poll.Status, to); err != nil {
		return domain.Poll{}, err
	}
	poll.Status = to
	return poll, nil
}

// SetQuizStatus moves a quiz forward in its lifecycle. Requesting the
// current status is a no-op.
func (s *EventService) SetQuizStatus(ctx context.Context, who *domain.Identity, quizID string, to domain.Status) (domain.Quiz, error) {
	if err := requireHost(who); err != nil {
		return domain.Quiz{}, err
	}
	quiz, err := s.store.GetQuiz(ctx, quizID)
	if err != nil {
		return domain.Quiz{}, err
	}
	if quiz.HostID != who.UserID {
		return domain.Quiz{}, domain.ErrForbidden.With("quiz belongs to another host")
	}
	if err := s.transition(ctx, domain.KindQuiz, quizID, quiz.Status, to); err != nil {
		return domain.Quiz{}, err
	}
	quiz.Status = to
	return quiz, nil
}

func (s *EventService) transition(ctx context.Context, kind domain.EventKind, id string, from, to domain.Status) error {
	if from == to {
		return nil
	}
	if !from.CanTransition(to) {
		return domain.ErrInvalidTransition.With("cannot move %s from %s to %s", kind, from, to)
	}
	ok, err := s.store.UpdateStatus(ctx, kind, id, from, to)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrInvalidTransition.With("%s status changed concurrently", kind)
	}
	s.logger.Info("event status changed", "kind", kind, "event_id", id, "from", from, "to", to)
	return nil
}

// ListHostedEvents returns every poll and quiz owned by who, newest first.
func (s *EventService) ListHostedEvents(ctx context.Context, who *domain.Identity) ([]domain.EventSummary, error) {
	if err := requireHost(who); err != nil {
		return nil, err
	}
	return s.store.ListEventsByHost(ctx, who.UserID)
}
