package redis

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"pollquiz-service/internal/domain"
	"pollquiz-service/internal/infra/memory"
)

func TestQuizContentCacheCachesInRedis(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	loader := newCountingLoader(t)
	cache := NewQuizContentCache(newClient(mr), loader, time.Minute, quietLogger())

	quiz, err := cache.GetQuiz(context.Background(), "quiz-1")
	if err != nil {
		t.Fatalf("get quiz: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected loader called once, got %d", loader.calls)
	}
	if quiz.Title != "Arithmetic" {
		t.Fatalf("unexpected quiz: %+v", quiz)
	}

	// Second call should hit the hash, loader not incremented.
	cached, err := cache.GetQuiz(context.Background(), "quiz-1")
	if err != nil {
		t.Fatalf("get quiz 2: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected cache hit, loader calls=%d", loader.calls)
	}
	if len(cached.Questions) != 1 || cached.Questions[0].CorrectChoiceIndex != 1 || cached.Questions[0].Choices[1].Text != "4" {
		t.Fatalf("answer key lost in cache: %+v", cached.Questions)
	}
	if cached.Settings.PassScore == nil || *cached.Settings.PassScore != 1 {
		t.Fatalf("settings lost in cache: %+v", cached.Settings)
	}
	if !mr.Exists("quiz:quiz-1:content") {
		t.Fatalf("expected content hash in redis")
	}
	if ttl := mr.TTL("quiz:quiz-1:content"); ttl < time.Minute || ttl > time.Minute+6*time.Second {
		t.Fatalf("expected ttl with at most 10%% jitter, got %v", ttl)
	}
}

func TestQuizContentCacheReloadsAfterExpiry(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	loader := newCountingLoader(t)
	cache := NewQuizContentCache(newClient(mr), loader, time.Minute, quietLogger())

	if _, err := cache.GetQuiz(context.Background(), "quiz-1"); err != nil {
		t.Fatalf("get quiz: %v", err)
	}
	mr.FastForward(2 * time.Minute)
	if _, err := cache.GetQuiz(context.Background(), "quiz-1"); err != nil {
		t.Fatalf("get quiz after expiry: %v", err)
	}
	if loader.calls != 2 {
		t.Fatalf("expected reload after expiry, loader calls=%d", loader.calls)
	}
}

func TestQuizContentCacheFallsBackWhenRedisDown(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	client := newClient(mr)
	mr.Close()

	loader := newCountingLoader(t)
	cache := NewQuizContentCache(client, loader, time.Minute, quietLogger())
	if _, err := cache.GetQuiz(context.Background(), "quiz-1"); err != nil {
		t.Fatalf("expected loader fallback, got %v", err)
	}
	if _, err := cache.GetQuiz(context.Background(), "missing"); err == nil {
		t.Fatalf("expected not found for unknown quiz")
	}
}

type countingLoader struct {
	memory.QuizLoader
	calls int
}

func (l *countingLoader) LoadQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	l.calls++
	return l.QuizLoader.LoadQuiz(ctx, quizID)
}

func newCountingLoader(t *testing.T) *countingLoader {
	t.Helper()
	store := memory.NewStore()
	quiz := sampleQuiz()
	if err := store.CreateQuiz(context.Background(), &quiz); err != nil {
		t.Fatalf("seed quiz: %v", err)
	}
	return &countingLoader{QuizLoader: store}
}

func sampleQuiz() domain.Quiz {
	pass := 1
	return domain.Quiz{
		ID:     "quiz-1",
		HostID: "host-1",
		Title:  "Arithmetic",
		Status: domain.StatusActive,
		Questions: []domain.Question{
			{
				ID:                 "q1",
				Text:               "What is 2 + 2?",
				Choices:            []domain.Choice{{ID: "c1", Text: "3"}, {ID: "c2", Text: "4"}},
				CorrectChoiceIndex: 1,
				Points:             1,
			},
		},
		Settings: domain.QuizSettings{PassScore: &pass},
	}
}

func newClient(mr *miniredis.Miniredis) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
