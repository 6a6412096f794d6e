package app_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pollquiz-service/internal/app"
	"pollquiz-service/internal/domain"
	"pollquiz-service/internal/infra/memory"
)

func host(id string) *domain.Identity {
	return &domain.Identity{UserID: id, Role: domain.RoleHost}
}

func newEvents(store app.Store) *app.EventService {
	return app.NewEventService(store, quietLogger())
}

func TestCreatePollAssignsIdentifiers(t *testing.T) {
	store := memory.NewStore()
	svc := newEvents(store)

	poll, err := svc.CreatePoll(context.Background(), host("h1"), domain.Poll{
		Title:   "Lunch",
		Options: []domain.Option{{Text: "Pizza", Votes: 9}, {Text: "Sushi"}},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, poll.ID)
	assert.Equal(t, "h1", poll.HostID)
	assert.Equal(t, domain.StatusDraft, poll.Status)
	require.Len(t, poll.Options, 2)
	assert.NotEqual(t, poll.Options[0].ID, poll.Options[1].ID)
	assert.Zero(t, poll.Options[0].Votes, "client supplied counters are ignored")

	stored, err := store.GetPoll(context.Background(), poll.ID)
	require.NoError(t, err)
	assert.Equal(t, poll.Options, stored.Options)
}

func TestCreateRequiresHostRole(t *testing.T) {
	svc := newEvents(memory.NewStore())
	draft := domain.Poll{Title: "Lunch", Options: []domain.Option{{Text: "a"}, {Text: "b"}}}

	_, err := svc.CreatePoll(context.Background(), nil, draft)
	require.ErrorIs(t, err, domain.ErrAuthenticationRequired)
	_, err = svc.CreatePoll(context.Background(), participant("p1"), draft)
	require.ErrorIs(t, err, domain.ErrForbidden)

	draft.Status = domain.StatusClosed
	_, err = svc.CreatePoll(context.Background(), host("h1"), draft)
	require.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestCreateQuizValidates(t *testing.T) {
	svc := newEvents(memory.NewStore())
	_, err := svc.CreateQuiz(context.Background(), host("h1"), domain.Quiz{Title: "Empty"})
	require.ErrorIs(t, err, domain.ErrInvalidPayload)

	quiz, err := svc.CreateQuiz(context.Background(), host("h1"), domain.Quiz{
		Title:  "Capitals",
		Status: domain.StatusActive,
		Questions: []domain.Question{
			{Text: "France", Choices: []domain.Choice{{Text: "Paris"}, {Text: "Lyon"}}, CorrectChoiceIndex: 0, Points: 2},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusActive, quiz.Status)
	assert.NotEmpty(t, quiz.Questions[0].ID)
	assert.Equal(t, 2, quiz.MaxScore())
}

func TestStatusTransitionsAreForwardOnly(t *testing.T) {
	store := memory.NewStore()
	svc := newEvents(store)
	ctx := context.Background()

	poll, err := svc.CreatePoll(ctx, host("h1"), domain.Poll{Title: "Lunch", Options: []domain.Option{{Text: "a"}, {Text: "b"}}})
	require.NoError(t, err)

	_, err = svc.SetPollStatus(ctx, host("h2"), poll.ID, domain.StatusActive)
	require.ErrorIs(t, err, domain.ErrForbidden)

	_, err = svc.SetPollStatus(ctx, host("h1"), poll.ID, domain.StatusClosed)
	require.ErrorIs(t, err, domain.ErrInvalidTransition, "a draft must be opened before it can close")

	updated, err := svc.SetPollStatus(ctx, host("h1"), poll.ID, domain.StatusActive)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusActive, updated.Status)

	_, err = svc.SetPollStatus(ctx, host("h1"), poll.ID, domain.StatusActive)
	require.NoError(t, err, "same status is a no-op")

	_, err = svc.SetPollStatus(ctx, host("h1"), poll.ID, domain.StatusClosed)
	require.NoError(t, err)
	_, err = svc.SetPollStatus(ctx, host("h1"), poll.ID, domain.StatusActive)
	require.ErrorIs(t, err, domain.ErrInvalidTransition)

	stored, err := store.GetPoll(ctx, poll.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusClosed, stored.Status)
}

func TestListHostedEvents(t *testing.T) {
	store := memory.NewStore()
	svc := newEvents(store)
	ctx := context.Background()

	_, err := svc.CreatePoll(ctx, host("h1"), domain.Poll{Title: "Lunch", Options: []domain.Option{{Text: "a"}, {Text: "b"}}})
	require.NoError(t, err)
	_, err = svc.CreateQuiz(ctx, host("h1"), domain.Quiz{
		Title:     "Capitals",
		Questions: []domain.Question{{Text: "France", Choices: []domain.Choice{{Text: "Paris"}, {Text: "Lyon"}}}},
	})
	require.NoError(t, err)

	events, err := svc.ListHostedEvents(ctx, host("h1"))
	require.NoError(t, err)
	assert.Len(t, events, 2)

	events, err = svc.ListHostedEvents(ctx, host("h2"))
	require.NoError(t, err)
	assert.Empty(t, events)
}
