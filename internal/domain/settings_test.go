package domain_test

import (
	"errors"
	"testing"

	"pollquiz-service/internal/domain"
)

func TestParsePollSettingsDefaults(t *testing.T) {
	s, err := domain.ParsePollSettings(nil)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if s.AllowAnonymous || s.ResponseLimit() != 1 || s.SelectionLimit() != 1 {
		t.Fatalf("unexpected defaults: %+v", s)
	}
}

func TestParsePollSettingsRejectsUnknownKeys(t *testing.T) {
	_, err := domain.ParsePollSettings([]byte(`{"allowAnonymous":true,"allowAnonymus":true}`))
	if !errors.Is(err, domain.ErrInvalidSettings) {
		t.Fatalf("expected invalid settings, got %v", err)
	}
}

func TestParseQuizSettings(t *testing.T) {
	s, err := domain.ParseQuizSettings([]byte(`{"attemptsAllowed":3,"passScore":5}`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if s.AttemptLimit() != 3 || *s.PassScore != 5 {
		t.Fatalf("unexpected settings: %+v", s)
	}

	for _, raw := range []string{
		`{"attemptsAllowed":0}`,
		`{"passScore":-1}`,
		`{"timeLimit":30}`,
		`{"attemptsAllowed":1} {}`,
	} {
		if _, err := domain.ParseQuizSettings([]byte(raw)); !errors.Is(err, domain.ErrInvalidSettings) {
			t.Fatalf("%s: expected invalid settings, got %v", raw, err)
		}
	}
}

func TestValidateNewQuiz(t *testing.T) {
	quiz := weightedQuiz()
	quiz.Title = "Arithmetic"
	if err := domain.ValidateNewQuiz(quiz); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	quiz.Questions[0].Choices = quiz.Questions[0].Choices[:1]
	if err := domain.ValidateNewQuiz(quiz); !errors.Is(err, domain.ErrInvalidQuestion) {
		t.Fatalf("expected invalid question, got %v", err)
	}
}

func TestValidateNewPoll(t *testing.T) {
	poll := domain.Poll{Title: "Lunch", Options: []domain.Option{{Text: "Pizza"}}}
	if err := domain.ValidateNewPoll(poll); !errors.Is(err, domain.ErrInvalidPayload) {
		t.Fatalf("expected invalid payload for single option, got %v", err)
	}
	poll.Options = append(poll.Options, domain.Option{Text: "Sushi"})
	poll.Settings.MaxSelections = 3
	if err := domain.ValidateNewPoll(poll); !errors.Is(err, domain.ErrInvalidSettings) {
		t.Fatalf("expected invalid settings, got %v", err)
	}
}
