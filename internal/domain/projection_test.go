package domain_test

import (
	"testing"
	"time"

	"pollquiz-service/internal/domain"
)

func TestProjectPollPercentages(t *testing.T) {
	poll := domain.Poll{
		ID:      "poll-1",
		Options: []domain.Option{{ID: "a", Votes: 3}, {ID: "b", Votes: 1}, {ID: "c"}},
	}
	res := domain.ProjectPoll(poll)
	if res.TotalVotes != 4 {
		t.Fatalf("expected 4 votes, got %d", res.TotalVotes)
	}
	sum := 0.0
	for _, o := range res.Options {
		sum += o.Percentage
	}
	if sum < 99.999 || sum > 100.001 {
		t.Fatalf("percentages should sum to 100, got %f", sum)
	}
	if res.Options[0].Percentage != 75 {
		t.Fatalf("expected 75%%, got %f", res.Options[0].Percentage)
	}
}

func TestProjectPollWithoutVotes(t *testing.T) {
	res := domain.ProjectPoll(domain.Poll{Options: []domain.Option{{ID: "a"}, {ID: "b"}}})
	for _, o := range res.Options {
		if o.Percentage != 0 {
			t.Fatalf("expected 0%% with no votes, got %f", o.Percentage)
		}
	}
}

func TestProjectQuizLeaderboard(t *testing.T) {
	quiz := weightedQuiz()
	base := time.Date(2025, 10, 19, 9, 0, 0, 0, time.UTC)
	results := []domain.QuizResult{
		{UserID: "bob", Score: 3, AttemptNumber: 1, CreatedAt: base, Answers: []domain.Answer{{QuestionID: "q1", SelectedIndex: 1}, {QuestionID: "q2", SelectedIndex: 0}}},
		{UserID: "alice", Score: 5, AttemptNumber: 1, CreatedAt: base.Add(time.Minute), Answers: []domain.Answer{{QuestionID: "q1", SelectedIndex: 1}, {QuestionID: "q3", SelectedIndex: 1}}},
		{UserID: "bob", Score: 5, AttemptNumber: 2, CreatedAt: base.Add(2 * time.Minute), Answers: []domain.Answer{{QuestionID: "q1", SelectedIndex: 1}, {QuestionID: "q3", SelectedIndex: 1}}},
		{Score: 6, AttemptNumber: 1, CreatedAt: base, Answers: []domain.Answer{{QuestionID: "q1", SelectedIndex: 0}}},
	}
	res := domain.ProjectQuiz(quiz, results)

	if res.Attempts != 4 {
		t.Fatalf("expected 4 attempts, got %d", res.Attempts)
	}
	if len(res.Leaderboard) != 2 {
		t.Fatalf("anonymous attempts must not appear on the leaderboard: %+v", res.Leaderboard)
	}
	if res.Leaderboard[0].UserID != "alice" || res.Leaderboard[1].AttemptNumber != 2 {
		t.Fatalf("expected alice ahead of bob's best attempt, got %+v", res.Leaderboard)
	}
	q1 := res.Questions[0]
	if q1.Answered != 4 || q1.CorrectCount != 3 || q1.Choices[0].Count != 1 {
		t.Fatalf("unexpected q1 stats: %+v", q1)
	}
}

func TestReviewResult(t *testing.T) {
	quiz := weightedQuiz()
	review := domain.ReviewResult(quiz, domain.QuizResult{
		Answers: []domain.Answer{{QuestionID: "q3", SelectedIndex: 0}, {QuestionID: "q1", SelectedIndex: 1}},
	})
	if len(review.Answers) != 2 {
		t.Fatalf("expected two reviewed answers, got %d", len(review.Answers))
	}
	if review.Answers[0].Correct || review.Answers[0].CorrectIndex != 1 {
		t.Fatalf("unexpected review of q3: %+v", review.Answers[0])
	}
	if !review.Answers[1].Correct || review.Answers[1].Points != 2 {
		t.Fatalf("unexpected review of q1: %+v", review.Answers[1])
	}
}
