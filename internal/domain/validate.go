package domain

import (
	"strings"
	"time"
)

func validateWindow(startAt, endAt *time.Time) error {
	if startAt != nil && endAt != nil && endAt.Before(*startAt) {
		return ErrInvalidPayload.With("endAt must not precede startAt")
	}
	return nil
}

// ValidateNewPoll checks a poll as submitted by its host.
func ValidateNewPoll(p Poll) error {
	if strings.TrimSpace(p.Title) == "" {
		return ErrInvalidPayload.With("title is required")
	}
	if len(p.Options) < 2 {
		return ErrInvalidPayload.With("a poll needs at least two options")
	}
	for i, o := range p.Options {
		if strings.TrimSpace(o.Text) == "" {
			return ErrInvalidPayload.With("option %d has no text", i)
		}
	}
	if limit := p.Settings.SelectionLimit(); limit > len(p.Options) {
		return ErrInvalidSettings.With("maxSelections exceeds the number of options")
	}
	if err := p.Settings.Validate(); err != nil {
		return err
	}
	return validateWindow(p.StartAt, p.EndAt)
}

// ValidateNewQuiz checks a quiz as submitted by its host.
func ValidateNewQuiz(q Quiz) error {
	if strings.TrimSpace(q.Title) == "" {
		return ErrInvalidPayload.With("title is required")
	}
	if len(q.Questions) == 0 {
		return ErrInvalidPayload.With("a quiz needs at least one question")
	}
	for i, question := range q.Questions {
		if strings.TrimSpace(question.Text) == "" {
			return ErrInvalidQuestion.With("question %d has no text", i)
		}
		if len(question.Choices) < 2 {
			return ErrInvalidQuestion.With("question %d needs at least two choices", i)
		}
		if question.CorrectChoiceIndex < 0 || question.CorrectChoiceIndex >= len(question.Choices) {
			return ErrInvalidQuestion.With("question %d has no valid correct choice", i)
		}
		if question.Points < 0 {
			return ErrInvalidQuestion.With("question %d has negative points", i)
		}
	}
	if err := q.Settings.Validate(); err != nil {
		return err
	}
	return validateWindow(q.StartAt, q.EndAt)
}
