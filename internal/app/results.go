package app

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
	"pollquiz-service/internal/domain"
)

// ResultsService serves aggregate and per-respondent results.
type ResultsService struct {
	store   Store
	quizzes QuizContentRepository
	logger  *slog.Logger
}

func NewResultsService(store Store, quizzes QuizContentRepository, logger *slog.Logger) *ResultsService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ResultsService{store: store, quizzes: quizzes, logger: logger}
}

// Aggregates are visible to the event's host at any time and to everyone
// else once the event is closed.
func canSeeAggregates(viewer *domain.Identity, hostID string, status domain.Status) error {
	if viewer != nil && viewer.UserID == hostID {
		return nil
	}
	if status == domain.StatusClosed {
		return nil
	}
	return domain.ErrResultsNotYetAvailable
}

func (s *ResultsService) PollResults(ctx context.Context, pollID string, viewer *domain.Identity) (domain.PollResults, error) {
	poll, err := s.store.GetPoll(ctx, pollID)
	if err != nil {
		return domain.PollResults{}, err
	}
	if err := canSeeAggregates(viewer, poll.HostID, poll.Status); err != nil {
		return domain.PollResults{}, err
	}
	return domain.ProjectPoll(poll), nil
}

func (s *ResultsService) QuizResults(ctx context.Context, quizID string, viewer *domain.Identity) (domain.QuizResults, error) {
	quiz, err := s.store.GetQuiz(ctx, quizID)
	if err != nil {
		return domain.QuizResults{}, err
	}
	if err := canSeeAggregates(viewer, quiz.HostID, quiz.Status); err != nil {
		return domain.QuizResults{}, err
	}
	results, err := s.store.ListQuizResults(ctx, quizID)
	if err != nil {
		return domain.QuizResults{}, err
	}
	return domain.ProjectQuiz(quiz, results), nil
}

// OwnResult returns a single attempt to the identity that submitted it.
func (s *ResultsService) OwnResult(ctx context.Context, resultID string, viewer *domain.Identity) (domain.ResultReview, error) {
	if viewer == nil {
		return domain.ResultReview{}, domain.ErrAuthenticationRequired
	}
	result, err := s.store.GetQuizResult(ctx, resultID)
	if err != nil {
		return domain.ResultReview{}, err
	}
	if result.UserID == "" || result.UserID != viewer.UserID {
		return domain.ResultReview{}, domain.ErrForbidden.With("result belongs to another respondent")
	}
	quiz, err := s.quizzes.GetQuiz(ctx, result.QuizID)
	if err != nil {
		return domain.ResultReview{}, err
	}
	return domain.ReviewResult(quiz, result), nil
}

// OwnResultSummary is one row of a participant's attempt history.
type OwnResultSummary struct {
	ResultID      string    `json:"resultId"`
	QuizID        string    `json:"quizId"`
	QuizTitle     string    `json:"quizTitle"`
	Score         int       `json:"score"`
	MaxScore      int       `json:"maxScore"`
	Passed        *bool     `json:"passed,omitempty"`
	AttemptNumber int       `json:"attemptNumber"`
	CompletedAt   time.Time `json:"completedAt"`
}

// ListOwnResults returns every quiz attempt recorded for viewer. Quiz titles
// are resolved concurrently through the content cache.
func (s *ResultsService) ListOwnResults(ctx context.Context, viewer *domain.Identity) ([]OwnResultSummary, error) {
	if viewer == nil {
		return nil, domain.ErrAuthenticationRequired
	}
	results, err := s.store.ListQuizResultsByUser(ctx, viewer.UserID)
	if err != nil {
		return nil, err
	}

	titles := make(map[string]string)
	for _, r := range results {
		titles[r.QuizID] = ""
	}
	ids := make([]string, 0, len(titles))
	for id := range titles {
		ids = append(ids, id)
	}
	resolved := make([]string, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for i, id := range ids {
		g.Go(func() error {
			quiz, err := s.quizzes.GetQuiz(gctx, id)
			if err != nil {
				return err
			}
			resolved[i] = quiz.Title
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	for i, id := range ids {
		titles[id] = resolved[i]
	}

	out := make([]OwnResultSummary, 0, len(results))
	for _, r := range results {
		out = append(out, OwnResultSummary{
			ResultID:      r.ID,
			QuizID:        r.QuizID,
			QuizTitle:     titles[r.QuizID],
			Score:         r.Score,
			MaxScore:      r.MaxScore,
			Passed:        r.Passed,
			AttemptNumber: r.AttemptNumber,
			CompletedAt:   r.CreatedAt,
		})
	}
	return out, nil
}

// OwnPollResponse is one poll response in a participant's history, with the
// poll's current title and status.
type OwnPollResponse struct {
	ResponseID        string        `json:"responseId"`
	PollID            string        `json:"pollId"`
	PollTitle         string        `json:"pollTitle"`
	PollStatus        domain.Status `json:"pollStatus"`
	SelectedOptionIDs []string      `json:"selectedOptionIds"`
	SelectedOptions   []string      `json:"selectedOptions"`
	ResponseNumber    int           `json:"responseNumber"`
	RespondedAt       time.Time     `json:"respondedAt"`
}

// ListOwnPollResponses returns viewer's poll responses, newest first. Polls
// are read from the store rather than a cache since their status changes.
func (s *ResultsService) ListOwnPollResponses(ctx context.Context, viewer *domain.Identity) ([]OwnPollResponse, error) {
	if viewer == nil {
		return nil, domain.ErrAuthenticationRequired
	}
	responses, err := s.store.ListPollResponsesByUser(ctx, viewer.UserID)
	if err != nil {
		return nil, err
	}

	var ids []string
	seen := make(map[string]struct{})
	for _, r := range responses {
		if _, ok := seen[r.PollID]; !ok {
			seen[r.PollID] = struct{}{}
			ids = append(ids, r.PollID)
		}
	}
	loaded := make([]domain.Poll, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for i, id := range ids {
		g.Go(func() error {
			poll, err := s.store.GetPoll(gctx, id)
			if err != nil {
				return err
			}
			loaded[i] = poll
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	polls := make(map[string]domain.Poll, len(loaded))
	for _, p := range loaded {
		polls[p.ID] = p
	}

	out := make([]OwnPollResponse, 0, len(responses))
	for _, r := range responses {
		poll := polls[r.PollID]
		texts := make(map[string]string, len(poll.Options))
		for _, o := range poll.Options {
			texts[o.ID] = o.Text
		}
		selected := make([]string, len(r.SelectedOptionIDs))
		for i, id := range r.SelectedOptionIDs {
			selected[i] = texts[id]
		}
		out = append(out, OwnPollResponse{
			ResponseID:        r.ID,
			PollID:            r.PollID,
			PollTitle:         poll.Title,
			PollStatus:        poll.Status,
			SelectedOptionIDs: r.SelectedOptionIDs,
			SelectedOptions:   selected,
			ResponseNumber:    r.ResponseNumber,
			RespondedAt:       r.CreatedAt,
		})
	}
	return out, nil
}

// OptionDrift is an option whose stored counter disagrees with its responses.
type OptionDrift struct {
	OptionID string `json:"optionId"`
	Counter  int    `json:"counter"`
	Recorded int    `json:"recorded"`
}

// PollAudit compares a poll's counters against its response records.
type PollAudit struct {
	PollID               string        `json:"pollId"`
	Responses            int           `json:"responses"`
	Drift                []OptionDrift `json:"drift,omitempty"`
	ParticipantsCounter  int           `json:"participantsCounter"`
	ParticipantsRecorded int           `json:"participantsRecorded"`
}

func (a PollAudit) Consistent() bool {
	return len(a.Drift) == 0 && a.ParticipantsCounter == a.ParticipantsRecorded
}

// AuditPoll recomputes vote and participant totals from the stored responses.
func (s *ResultsService) AuditPoll(ctx context.Context, pollID string) (PollAudit, error) {
	poll, err := s.store.GetPoll(ctx, pollID)
	if err != nil {
		return PollAudit{}, err
	}
	responses, err := s.store.ListPollResponses(ctx, pollID)
	if err != nil {
		return PollAudit{}, err
	}

	votes := make(map[string]int, len(poll.Options))
	participants := 0
	for _, r := range responses {
		for _, id := range r.SelectedOptionIDs {
			votes[id]++
		}
		if r.ResponseNumber == 1 {
			participants++
		}
	}

	audit := PollAudit{
		PollID:               pollID,
		Responses:            len(responses),
		ParticipantsCounter:  poll.Participants,
		ParticipantsRecorded: participants,
	}
	for _, o := range poll.Options {
		if o.Votes != votes[o.ID] {
			audit.Drift = append(audit.Drift, OptionDrift{OptionID: o.ID, Counter: o.Votes, Recorded: votes[o.ID]})
		}
	}
	if !audit.Consistent() {
		s.logger.Warn("poll counters drifted", "poll_id", pollID, "options", len(audit.Drift),
			"participants_counter", audit.ParticipantsCounter, "participants_recorded", audit.ParticipantsRecorded)
	}
	return audit, nil
}
