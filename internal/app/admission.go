package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"pollquiz-service/internal/domain"
)

// AdmissionService validates and records poll responses and quiz attempts.
// It is the only writer of vote and participant counters.
type AdmissionService struct {
	store  Store
	logger *slog.Logger
	now    func() time.Time
	newID  func() string
}

func NewAdmissionService(store Store, logger *slog.Logger) *AdmissionService {
	return NewAdmissionServiceWithClock(store, logger, time.Now)
}

// NewAdmissionServiceWithClock is used by tests that need a fixed clock.
func NewAdmissionServiceWithClock(store Store, logger *slog.Logger, now func() time.Time) *AdmissionService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AdmissionService{store: store, logger: logger, now: now, newID: uuid.NewString}
}

// SubmitPollResponse admits one poll response for who (nil when anonymous).
// Either the response, its vote increments and the participant increment are
// all stored, or nothing is.
func (s *AdmissionService) SubmitPollResponse(ctx context.Context, pollID string, who *domain.Identity, selected []string) (domain.PollResponse, error) {
	var resp domain.PollResponse
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx Tx) error {
		poll, err := tx.LoadPoll(ctx, pollID)
		if err != nil {
			return err
		}
		now := s.now()
		if err := domain.CheckAdmissible(poll.Lifecycle(), now); err != nil {
			return err
		}

		seq := 1
		if who != nil {
			prior, err := tx.CountPollResponses(ctx, pollID, who.UserID)
			if err != nil {
				return err
			}
			if prior >= poll.Settings.ResponseLimit() {
				return domain.ErrDuplicateResponse
			}
			seq = prior + 1
		} else if !poll.Settings.AllowAnonymous {
			return domain.ErrAuthenticationRequired
		}

		if err := domain.ValidateSelection(poll, selected); err != nil {
			return err
		}

		resp = domain.PollResponse{
			ID:                s.newID(),
			PollID:            pollID,
			UserID:            userIDOf(who),
			SelectedOptionIDs: append([]string(nil), selected...),
			ResponseNumber:    seq,
			CreatedAt:         now,
		}
		if err := tx.InsertPollResponse(ctx, &resp); err != nil {
			return err
		}
		if err := tx.IncrementVotes(ctx, pollID, resp.SelectedOptionIDs); err != nil {
			return err
		}
		// Anonymous responses always carry sequence 1 and always count.
		if seq == 1 {
			return tx.IncrementParticipants(ctx, domain.KindPoll, pollID)
		}
		return nil
	})
	if err != nil {
		s.logRejection("poll response rejected", pollID, who, err)
		return domain.PollResponse{}, err
	}
	s.logger.Info("poll response admitted",
		"poll_id", pollID,
		"response_id", resp.ID,
		"response_number", resp.ResponseNumber,
		"anonymous", who == nil,
	)
	return resp, nil
}

// SubmitQuizAttempt scores and records one quiz attempt for who (nil when
// anonymous). The score always comes from the stored answer key.
func (s *AdmissionService) SubmitQuizAttempt(ctx context.Context, quizID string, who *domain.Identity, answers []domain.Answer) (domain.QuizResult, error) {
	var result domain.QuizResult
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx Tx) error {
		quiz, err := tx.LoadQuiz(ctx, quizID)
		if err != nil {
			return err
		}
		now := s.now()
		if err := domain.CheckAdmissible(quiz.Lifecycle(), now); err != nil {
			return err
		}

		attempt := 1
		if who != nil {
			prior, err := tx.CountQuizResults(ctx, quizID, who.UserID)
			if err != nil {
				return err
			}
			if limit := quiz.Settings.AttemptLimit(); prior >= limit {
				if limit == 1 {
					return domain.ErrDuplicateResponse
				}
				return domain.ErrAttemptLimitReached.With("all %d attempts used", limit)
			}
			attempt = prior + 1
		} else if !quiz.Settings.AllowAnonymous {
			return domain.ErrAuthenticationRequired
		}

		if err := domain.ValidateAnswers(quiz, answers); err != nil {
			return err
		}
		outcome := domain.Score(quiz, answers)

		result = domain.QuizResult{
			ID:            s.newID(),
			QuizID:        quizID,
			UserID:        userIDOf(who),
			Answers:       append([]domain.Answer(nil), answers...),
			Score:         outcome.Score,
			MaxScore:      outcome.MaxScore,
			Passed:        outcome.Passed,
			AttemptNumber: attempt,
			CreatedAt:     now,
		}
		if err := tx.InsertQuizResult(ctx, &result); err != nil {
			return err
		}
		if attempt == 1 {
			return tx.IncrementParticipants(ctx, domain.KindQuiz, quizID)
		}
		return nil
	})
	if err != nil {
		s.logRejection("quiz attempt rejected", quizID, who, err)
		return domain.QuizResult{}, err
	}
	s.logger.Info("quiz attempt admitted",
		"quiz_id", quizID,
		"result_id", result.ID,
		"attempt", result.AttemptNumber,
		"score", result.Score,
		"max_score", result.MaxScore,
	)
	return result, nil
}

func (s *AdmissionService) logRejection(msg, eventID string, who *domain.Identity, err error) {
	reason, ok := domain.ReasonOf(err)
	if !ok {
		s.logger.Error(msg, "event_id", eventID, "err", err)
		return
	}
	s.logger.Debug(msg, "event_id", eventID, "user_id", userIDOf(who), "reason", reason)
}

func userIDOf(who *domain.Identity) string {
	if who == nil {
		return ""
	}
	return who.UserID
}
