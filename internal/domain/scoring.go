package domain

// Outcome is the graded result of one quiz attempt.
type Outcome struct {
	Score    int
	MaxScore int
	Passed   *bool
}

// Score grades answers against the quiz's own answer key. Only the first
// answer for each question counts, answers to unknown questions or with an
// out-of-range index earn nothing, and MaxScore covers every question whether
// answered or not. Passed is set only when the quiz defines a pass score.
func Score(quiz Quiz, answers []Answer) Outcome {
	byID := make(map[string]Question, len(quiz.Questions))
	for _, q := range quiz.Questions {
		byID[q.ID] = q
	}

	out := Outcome{MaxScore: quiz.MaxScore()}
	seen := make(map[string]struct{}, len(answers))
	for _, a := range answers {
		if _, dup := seen[a.QuestionID]; dup {
			continue
		}
		seen[a.QuestionID] = struct{}{}

		q, ok := byID[a.QuestionID]
		if !ok {
			continue
		}
		if a.SelectedIndex == q.CorrectChoiceIndex {
			out.Score += q.EffectivePoints()
		}
	}

	if quiz.Settings.PassScore != nil {
		passed := out.Score >= *quiz.Settings.PassScore
		out.Passed = &passed
	}
	return out
}

// ValidateAnswers rejects answer sets the admission path must refuse
// outright: unknown questions, a question answered twice, or a choice index
// outside the question's choices.
func ValidateAnswers(quiz Quiz, answers []Answer) error {
	byID := make(map[string]Question, len(quiz.Questions))
	for _, q := range quiz.Questions {
		byID[q.ID] = q
	}
	seen := make(map[string]struct{}, len(answers))
	for _, a := range answers {
		q, ok := byID[a.QuestionID]
		if !ok {
			return ErrInvalidQuestion.With("unknown question %q", a.QuestionID)
		}
		if _, dup := seen[a.QuestionID]; dup {
			return ErrInvalidPayload.With("question %q answered more than once", a.QuestionID)
		}
		seen[a.QuestionID] = struct{}{}
		if a.SelectedIndex < 0 || a.SelectedIndex >= len(q.Choices) {
			return ErrInvalidOption.With("choice %d out of range for question %q", a.SelectedIndex, a.QuestionID)
		}
	}
	return nil
}

// ValidateSelection checks a poll response's selected option ids.
func ValidateSelection(poll Poll, selected []string) error {
	if len(selected) == 0 {
		return ErrInvalidPayload.With("at least one option must be selected")
	}
	if limit := poll.Settings.SelectionLimit(); len(selected) > limit {
		return ErrInvalidPayload.With("at most %d option(s) may be selected", limit)
	}
	known := make(map[string]struct{}, len(poll.Options))
	for _, o := range poll.Options {
		known[o.ID] = struct{}{}
	}
	seen := make(map[string]struct{}, len(selected))
	for _, id := range selected {
		if _, ok := known[id]; !ok {
			return ErrInvalidOption.With("option %q does not belong to poll", id)
		}
		if _, dup := seen[id]; dup {
			return ErrInvalidPayload.With("option %q selected more than once", id)
		}
		seen[id] = struct{}{}
	}
	return nil
}
