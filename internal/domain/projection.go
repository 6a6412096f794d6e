package domain

import (
	"sort"
	"time"
)

type OptionTally struct {
	OptionID   string  `json:"optionId"`
	Text       string  `json:"text"`
	Votes      int     `json:"votes"`
	Percentage float64 `json:"percentage"`
}

// PollResults is the aggregate view of a poll.
type PollResults struct {
	PollID       string        `json:"pollId"`
	Title        string        `json:"title"`
	Status       Status        `json:"status"`
	Options      []OptionTally `json:"options"`
	TotalVotes   int           `json:"totalVotes"`
	Participants int           `json:"participants"`
}

// ProjectPoll builds the aggregate view from the poll's counters. Percentages
// are votes over total votes on a 0..100 scale, and 0 when nothing was cast.
func ProjectPoll(p Poll) PollResults {
	total := p.TotalVotes()
	out := PollResults{
		PollID:       p.ID,
		Title:        p.Title,
		Status:       p.Status,
		Options:      make([]OptionTally, 0, len(p.Options)),
		TotalVotes:   total,
		Participants: p.Participants,
	}
	for _, o := range p.Options {
		pct := 0.0
		if total > 0 {
			pct = float64(o.Votes) / float64(total) * 100
		}
		out.Options = append(out.Options, OptionTally{OptionID: o.ID, Text: o.Text, Votes: o.Votes, Percentage: pct})
	}
	return out
}

type ChoiceTally struct {
	Index   int    `json:"index"`
	Text    string `json:"text"`
	Count   int    `json:"count"`
	Correct bool   `json:"correct"`
}

type QuestionStats struct {
	QuestionID   string        `json:"questionId"`
	Text         string        `json:"text"`
	Points       int           `json:"points"`
	Choices      []ChoiceTally `json:"choices"`
	Answered     int           `json:"answered"`
	CorrectCount int           `json:"correctCount"`
}

type LeaderboardEntry struct {
	UserID        string    `json:"userId"`
	Score         int       `json:"score"`
	MaxScore      int       `json:"maxScore"`
	AttemptNumber int       `json:"attemptNumber"`
	CompletedAt   time.Time `json:"completedAt"`
}

// QuizResults is the aggregate view of a quiz and its attempts.
type QuizResults struct {
	QuizID       string             `json:"quizId"`
	Title        string             `json:"title"`
	Status       Status             `json:"status"`
	Participants int                `json:"participants"`
	Attempts     int                `json:"attempts"`
	MaxScore     int                `json:"maxScore"`
	AverageScore float64            `json:"averageScore"`
	Questions    []QuestionStats    `json:"questions"`
	Leaderboard  []LeaderboardEntry `json:"leaderboard"`
}

// ProjectQuiz folds every stored attempt into per-question statistics and a
// leaderboard of each identified user's best attempt.
func ProjectQuiz(q Quiz, results []QuizResult) QuizResults {
	out := QuizResults{
		QuizID:       q.ID,
		Title:        q.Title,
		Status:       q.Status,
		Participants: q.Participants,
		Attempts:     len(results),
		MaxScore:     q.MaxScore(),
		Questions:    make([]QuestionStats, len(q.Questions)),
	}

	index := make(map[string]int, len(q.Questions))
	for i, question := range q.Questions {
		index[question.ID] = i
		stats := QuestionStats{
			QuestionID: question.ID,
			Text:       question.Text,
			Points:     question.EffectivePoints(),
			Choices:    make([]ChoiceTally, len(question.Choices)),
		}
		for j, c := range question.Choices {
			stats.Choices[j] = ChoiceTally{Index: j, Text: c.Text, Correct: j == question.CorrectChoiceIndex}
		}
		out.Questions[i] = stats
	}

	best := make(map[string]LeaderboardEntry)
	scoreSum := 0
	for _, r := range results {
		scoreSum += r.Score
		seen := make(map[string]struct{}, len(r.Answers))
		for _, a := range r.Answers {
			i, ok := index[a.QuestionID]
			if !ok {
				continue
			}
			if _, dup := seen[a.QuestionID]; dup {
				continue
			}
			seen[a.QuestionID] = struct{}{}
			stats := &out.Questions[i]
			stats.Answered++
			if a.SelectedIndex >= 0 && a.SelectedIndex < len(stats.Choices) {
				stats.Choices[a.SelectedIndex].Count++
			}
			if a.SelectedIndex == q.Questions[i].CorrectChoiceIndex {
				stats.CorrectCount++
			}
		}

		if r.UserID == "" {
			continue
		}
		entry := LeaderboardEntry{
			UserID:        r.UserID,
			Score:         r.Score,
			MaxScore:      r.MaxScore,
			AttemptNumber: r.AttemptNumber,
			CompletedAt:   r.CreatedAt,
		}
		if prev, ok := best[r.UserID]; !ok || betterEntry(entry, prev) {
			best[r.UserID] = entry
		}
	}
	if len(results) > 0 {
		out.AverageScore = float64(scoreSum) / float64(len(results))
	}

	out.Leaderboard = make([]LeaderboardEntry, 0, len(best))
	for _, e := range best {
		out.Leaderboard = append(out.Leaderboard, e)
	}
	// Higher score first, then whoever reached it earlier, then user id.
	sort.Slice(out.Leaderboard, func(i, j int) bool {
		return betterEntry(out.Leaderboard[i], out.Leaderboard[j])
	})
	return out
}

func betterEntry(a, b LeaderboardEntry) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	if !a.CompletedAt.Equal(b.CompletedAt) {
		return a.CompletedAt.Before(b.CompletedAt)
	}
	return a.UserID < b.UserID
}

type AnswerReview struct {
	QuestionID    string   `json:"questionId"`
	QuestionText  string   `json:"questionText"`
	Choices       []string `json:"choices"`
	SelectedIndex int      `json:"selectedIndex"`
	CorrectIndex  int      `json:"correctIndex"`
	Correct       bool     `json:"correct"`
	Points        int      `json:"points"`
}

// ResultReview is a respondent's own attempt with the answer key resolved.
type ResultReview struct {
	Result    QuizResult     `json:"result"`
	QuizTitle string         `json:"quizTitle"`
	Answers   []AnswerReview `json:"answers"`
}

// ReviewResult pairs each stored answer with its question. Answers whose
// question no longer resolves are omitted.
func ReviewResult(q Quiz, r QuizResult) ResultReview {
	byID := make(map[string]Question, len(q.Questions))
	for _, question := range q.Questions {
		byID[question.ID] = question
	}
	out := ResultReview{Result: r, QuizTitle: q.Title, Answers: make([]AnswerReview, 0, len(r.Answers))}
	for _, a := range r.Answers {
		question, ok := byID[a.QuestionID]
		if !ok {
			continue
		}
		choices := make([]string, len(question.Choices))
		for i, c := range question.Choices {
			choices[i] = c.Text
		}
		correct := a.SelectedIndex == question.CorrectChoiceIndex
		points := 0
		if correct {
			points = question.EffectivePoints()
		}
		out.Answers = append(out.Answers, AnswerReview{
			QuestionID:    question.ID,
			QuestionText:  question.Text,
			Choices:       choices,
			SelectedIndex: a.SelectedIndex,
			CorrectIndex:  question.CorrectChoiceIndex,
			Correct:       correct,
			Points:        points,
		})
	}
	return out
}
