package domain

import (
	"strings"
	"time"
)

// Status is the host-controlled lifecycle state of a poll or quiz.
type Status string

const (
	StatusDraft  Status = "draft"
	StatusActive Status = "active"
	StatusClosed Status = "closed"
)

// ParseStatus accepts the lowercase wire form of a status.
func ParseStatus(raw string) (Status, error) {
	switch s := Status(strings.ToLower(strings.TrimSpace(raw))); s {
	case StatusDraft, StatusActive, StatusClosed:
		return s, nil
	}
	return "", ErrInvalidPayload.With("unknown status %q", raw)
}

// CanTransition reports whether s may move to next. The only path is
// draft -> active -> closed; closed is terminal.
func (s Status) CanTransition(next Status) bool {
	switch s {
	case StatusDraft:
		return next == StatusActive
	case StatusActive:
		return next == StatusClosed
	}
	return false
}

// EventKind distinguishes the two event families sharing counters and lifecycle.
type EventKind string

const (
	KindPoll EventKind = "poll"
	KindQuiz EventKind = "quiz"
)

type Role string

const (
	RoleHost        Role = "host"
	RoleParticipant Role = "participant"
)

// Identity is an authenticated caller. A nil *Identity means anonymous.
type Identity struct {
	UserID string
	Role   Role
}

func (i *Identity) IsHost() bool {
	return i != nil && i.Role == RoleHost
}

type User struct {
	ID           string    `json:"id"`
	FullName     string    `json:"fullName"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
}

type Option struct {
	ID    string `json:"id"`
	Text  string `json:"text"`
	Votes int    `json:"votes"`
}

type Poll struct {
	ID           string       `json:"id"`
	HostID       string       `json:"hostId"`
	Title        string       `json:"title"`
	Description  string       `json:"description,omitempty"`
	Status       Status       `json:"status"`
	StartAt      *time.Time   `json:"startAt,omitempty"`
	EndAt        *time.Time   `json:"endAt,omitempty"`
	Settings     PollSettings `json:"settings"`
	Options      []Option     `json:"options"`
	Participants int          `json:"participants"`
	CreatedAt    time.Time    `json:"createdAt"`
}

func (p Poll) Lifecycle() Lifecycle {
	return Lifecycle{Status: p.Status, StartAt: p.StartAt, EndAt: p.EndAt}
}

func (p Poll) TotalVotes() int {
	total := 0
	for _, o := range p.Options {
		total += o.Votes
	}
	return total
}

type Choice struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

type Question struct {
	ID                 string   `json:"id"`
	Text               string   `json:"text"`
	Choices            []Choice `json:"choices"`
	CorrectChoiceIndex int      `json:"correctChoiceIndex"`
	Points             int      `json:"points,omitempty"`
}

// EffectivePoints treats an unset weight as 1.
func (q Question) EffectivePoints() int {
	if q.Points <= 0 {
		return 1
	}
	return q.Points
}

type Quiz struct {
	ID           string       `json:"id"`
	HostID       string       `json:"hostId"`
	Title        string       `json:"title"`
	Description  string       `json:"description,omitempty"`
	Status       Status       `json:"status"`
	StartAt      *time.Time   `json:"startAt,omitempty"`
	EndAt        *time.Time   `json:"endAt,omitempty"`
	Settings     QuizSettings `json:"settings"`
	Questions    []Question   `json:"questions"`
	Participants int          `json:"participants"`
	CreatedAt    time.Time    `json:"createdAt"`
}

func (q Quiz) Lifecycle() Lifecycle {
	return Lifecycle{Status: q.Status, StartAt: q.StartAt, EndAt: q.EndAt}
}

// MaxScore is the score of a fully correct attempt.
func (q Quiz) MaxScore() int {
	total := 0
	for _, question := range q.Questions {
		total += question.EffectivePoints()
	}
	return total
}

// PollResponse is an append-only record of one admitted poll submission.
// An empty UserID marks an anonymous response.
type PollResponse struct {
	ID                string    `json:"id"`
	PollID            string    `json:"pollId"`
	UserID            string    `json:"userId,omitempty"`
	SelectedOptionIDs []string  `json:"selectedOptionIds"`
	ResponseNumber    int       `json:"responseNumber"`
	CreatedAt         time.Time `json:"createdAt"`
}

type Answer struct {
	QuestionID    string `json:"questionId"`
	SelectedIndex int    `json:"selectedIndex"`
}

// QuizResult is an append-only, server-scored quiz attempt.
type QuizResult struct {
	ID            string    `json:"id"`
	QuizID        string    `json:"quizId"`
	UserID        string    `json:"userId,omitempty"`
	Answers       []Answer  `json:"answers"`
	Score         int       `json:"score"`
	MaxScore      int       `json:"maxScore"`
	Passed        *bool     `json:"passed,omitempty"`
	AttemptNumber int       `json:"attemptNumber"`
	CreatedAt     time.Time `json:"createdAt"`
}

// EventSummary is the owner-facing list row for either kind of event.
type EventSummary struct {
	ID           string    `json:"id"`
	Kind         EventKind `json:"kind"`
	Title        string    `json:"title"`
	Status       Status    `json:"status"`
	Participants int       `json:"participants"`
	CreatedAt    time.Time `json:"createdAt"`
}
