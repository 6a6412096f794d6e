package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
)

// PollSettings governs who may respond to a poll and how often.
type PollSettings struct {
	AllowAnonymous          bool `json:"allowAnonymous"`
	MaxResponsesPerIdentity int  `json:"maxResponsesPerIdentity,omitempty"`
	MaxSelections           int  `json:"maxSelections,omitempty"`
}

// ResponseLimit is the number of responses one identity may record; zero means 1.
func (s PollSettings) ResponseLimit() int {
	if s.MaxResponsesPerIdentity <= 0 {
		return 1
	}
	return s.MaxResponsesPerIdentity
}

// SelectionLimit is the number of options a response may select; zero means 1.
func (s PollSettings) SelectionLimit() int {
	if s.MaxSelections <= 0 {
		return 1
	}
	return s.MaxSelections
}

func (s PollSettings) Validate() error {
	if s.MaxResponsesPerIdentity < 0 {
		return ErrInvalidSettings.With("maxResponsesPerIdentity must be positive")
	}
	if s.MaxSelections < 0 {
		return ErrInvalidSettings.With("maxSelections must be positive")
	}
	return nil
}

// QuizSettings governs quiz attempts and grading.
type QuizSettings struct {
	AllowAnonymous  bool `json:"allowAnonymous"`
	AttemptsAllowed *int `json:"attemptsAllowed,omitempty"`
	PassScore       *int `json:"passScore,omitempty"`
}

// AttemptLimit is the number of attempts one identity may record; unset means 1.
func (s QuizSettings) AttemptLimit() int {
	if s.AttemptsAllowed == nil {
		return 1
	}
	return *s.AttemptsAllowed
}

func (s QuizSettings) Validate() error {
	if s.AttemptsAllowed != nil && *s.AttemptsAllowed < 1 {
		return ErrInvalidSettings.With("attemptsAllowed must be at least 1")
	}
	if s.PassScore != nil && *s.PassScore < 0 {
		return ErrInvalidSettings.With("passScore must not be negative")
	}
	return nil
}

// ParsePollSettings decodes raw JSON settings, rejecting unknown keys.
// Empty input yields the defaults.
func ParsePollSettings(raw []byte) (PollSettings, error) {
	var s PollSettings
	if err := decodeStrict(raw, &s); err != nil {
		return PollSettings{}, err
	}
	return s, s.Validate()
}

// ParseQuizSettings decodes raw JSON settings, rejecting unknown keys.
// Empty input yields the defaults.
func ParseQuizSettings(raw []byte) (QuizSettings, error) {
	var s QuizSettings
	if err := decodeStrict(raw, &s); err != nil {
		return QuizSettings{}, err
	}
	return s, s.Validate()
}

func decodeStrict(raw []byte, dst any) error {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return ErrInvalidSettings.With("invalid settings: %v", err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return ErrInvalidSettings.With("invalid settings: trailing data")
	}
	return nil
}
