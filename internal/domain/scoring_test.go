package domain_test

import (
	"errors"
	"testing"

	"pollquiz-service/internal/domain"
)

func intPtr(v int) *int { return &v }

func weightedQuiz() domain.Quiz {
	return domain.Quiz{
		ID: "quiz-1",
		Questions: []domain.Question{
			{ID: "q1", Text: "2 + 2", Choices: []domain.Choice{{Text: "3"}, {Text: "4"}}, CorrectChoiceIndex: 1, Points: 2},
			{ID: "q2", Text: "capital of France", Choices: []domain.Choice{{Text: "Paris"}, {Text: "Rome"}, {Text: "Oslo"}}, CorrectChoiceIndex: 0},
			{ID: "q3", Text: "3 * 3", Choices: []domain.Choice{{Text: "6"}, {Text: "9"}}, CorrectChoiceIndex: 1, Points: 3},
		},
		Settings: domain.QuizSettings{PassScore: intPtr(4)},
	}
}

func TestScoreWeightedAttemptWithUnanswered(t *testing.T) {
	quiz := weightedQuiz()
	out := domain.Score(quiz, []domain.Answer{
		{QuestionID: "q1", SelectedIndex: 1},
		{QuestionID: "q2", SelectedIndex: 0},
	})
	if out.Score != 3 || out.MaxScore != 6 {
		t.Fatalf("expected 3/6, got %d/%d", out.Score, out.MaxScore)
	}
	if out.Passed == nil || *out.Passed {
		t.Fatalf("expected failed attempt, got %v", out.Passed)
	}
}

func TestScoreBounds(t *testing.T) {
	quiz := weightedQuiz()
	cases := [][]domain.Answer{
		nil,
		{{QuestionID: "q1", SelectedIndex: 0}},
		{{QuestionID: "q1", SelectedIndex: 1}, {QuestionID: "q2", SelectedIndex: 0}, {QuestionID: "q3", SelectedIndex: 1}},
		{{QuestionID: "missing", SelectedIndex: 0}},
	}
	for i, answers := range cases {
		out := domain.Score(quiz, answers)
		if out.Score < 0 || out.Score > out.MaxScore {
			t.Fatalf("case %d: score %d outside [0, %d]", i, out.Score, out.MaxScore)
		}
		if out.MaxScore != 6 {
			t.Fatalf("case %d: max score depends on answers: %d", i, out.MaxScore)
		}
	}
}

func TestScoreIsDeterministic(t *testing.T) {
	quiz := weightedQuiz()
	answers := []domain.Answer{{QuestionID: "q3", SelectedIndex: 1}, {QuestionID: "q1", SelectedIndex: 1}}
	first := domain.Score(quiz, answers)
	for i := 0; i < 5; i++ {
		again := domain.Score(quiz, answers)
		if again.Score != first.Score || again.MaxScore != first.MaxScore || *again.Passed != *first.Passed {
			t.Fatalf("score changed between runs: %+v vs %+v", first, again)
		}
	}
	if first.Score != 5 || !*first.Passed {
		t.Fatalf("expected passing 5, got %+v", first)
	}
}

func TestScoreCountsFirstAnswerPerQuestion(t *testing.T) {
	out := domain.Score(weightedQuiz(), []domain.Answer{
		{QuestionID: "q1", SelectedIndex: 0},
		{QuestionID: "q1", SelectedIndex: 1},
	})
	if out.Score != 0 {
		t.Fatalf("expected later duplicate ignored, got %d", out.Score)
	}
}

func TestScoreWithoutPassScore(t *testing.T) {
	quiz := weightedQuiz()
	quiz.Settings.PassScore = nil
	if out := domain.Score(quiz, nil); out.Passed != nil {
		t.Fatalf("expected nil passed, got %v", *out.Passed)
	}
}

func TestValidateAnswers(t *testing.T) {
	quiz := weightedQuiz()
	cases := []struct {
		name    string
		answers []domain.Answer
		want    error
	}{
		{"ok", []domain.Answer{{QuestionID: "q2", SelectedIndex: 2}}, nil},
		{"unknown question", []domain.Answer{{QuestionID: "q9", SelectedIndex: 0}}, domain.ErrInvalidQuestion},
		{"index out of range", []domain.Answer{{QuestionID: "q1", SelectedIndex: 2}}, domain.ErrInvalidOption},
		{"negative index", []domain.Answer{{QuestionID: "q1", SelectedIndex: -1}}, domain.ErrInvalidOption},
		{"answered twice", []domain.Answer{{QuestionID: "q1", SelectedIndex: 0}, {QuestionID: "q1", SelectedIndex: 1}}, domain.ErrInvalidPayload},
	}
	for _, tc := range cases {
		err := domain.ValidateAnswers(quiz, tc.answers)
		if tc.want == nil && err != nil {
			t.Fatalf("%s: unexpected error %v", tc.name, err)
		}
		if tc.want != nil && !errors.Is(err, tc.want) {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, err)
		}
	}
}

func TestValidateSelection(t *testing.T) {
	poll := domain.Poll{
		Options:  []domain.Option{{ID: "a"}, {ID: "b"}, {ID: "c"}},
		Settings: domain.PollSettings{MaxSelections: 2},
	}
	if err := domain.ValidateSelection(poll, []string{"a", "c"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := domain.ValidateSelection(poll, nil); !errors.Is(err, domain.ErrInvalidPayload) {
		t.Fatalf("expected invalid payload for empty selection, got %v", err)
	}
	if err := domain.ValidateSelection(poll, []string{"a", "b", "c"}); !errors.Is(err, domain.ErrInvalidPayload) {
		t.Fatalf("expected invalid payload above limit, got %v", err)
	}
	if err := domain.ValidateSelection(poll, []string{"a", "a"}); !errors.Is(err, domain.ErrInvalidPayload) {
		t.Fatalf("expected invalid payload for repeat, got %v", err)
	}
	if err := domain.ValidateSelection(poll, []string{"z"}); !errors.Is(err, domain.ErrInvalidOption) {
		t.Fatalf("expected invalid option, got %v", err)
	}
}
