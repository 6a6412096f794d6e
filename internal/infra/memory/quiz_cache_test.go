package memory

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"pollquiz-service/internal/domain"
)

func TestQuizContentCacheCaches(t *testing.T) {
	loader := &countingLoader{quizzes: map[string]domain.Quiz{"quiz-1": sampleQuiz()}}
	cache := NewQuizContentCache(loader, time.Minute)

	if _, err := cache.GetQuiz(context.Background(), "quiz-1"); err != nil {
		t.Fatalf("get quiz: %v", err)
	}
	if loader.calls.Load() != 1 {
		t.Fatalf("expected loader once, got %d", loader.calls.Load())
	}

	if _, err := cache.GetQuiz(context.Background(), "quiz-1"); err != nil {
		t.Fatalf("get quiz 2: %v", err)
	}
	if loader.calls.Load() != 1 {
		t.Fatalf("expected cache hit, loader calls %d", loader.calls.Load())
	}
}

func TestQuizContentCacheExpires(t *testing.T) {
	loader := &countingLoader{quizzes: map[string]domain.Quiz{"quiz-1": sampleQuiz()}}
	cache := NewQuizContentCache(loader, time.Minute)
	now := time.Date(2025, 10, 19, 10, 0, 0, 0, time.UTC)
	cache.clock = func() time.Time { return now }

	if _, err := cache.GetQuiz(context.Background(), "quiz-1"); err != nil {
		t.Fatalf("get quiz: %v", err)
	}
	now = now.Add(2 * time.Minute)
	if _, err := cache.GetQuiz(context.Background(), "quiz-1"); err != nil {
		t.Fatalf("get quiz after expiry: %v", err)
	}
	if loader.calls.Load() != 2 {
		t.Fatalf("expected reload after ttl, loader calls %d", loader.calls.Load())
	}
}

func TestQuizContentCacheMissReturnsWithPositiveTTL(t *testing.T) {
	second := sampleQuiz()
	second.ID = "quiz-2"
	loader := &countingLoader{quizzes: map[string]domain.Quiz{"quiz-1": sampleQuiz(), "quiz-2": second}}
	cache := NewQuizContentCache(loader, 10*time.Minute)

	done := make(chan error, 1)
	go func() {
		for _, id := range []string{"quiz-1", "quiz-2", "quiz-1"} {
			if _, err := cache.GetQuiz(context.Background(), id); err != nil {
				done <- err
				return
			}
		}
		done <- nil
	}()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("get quiz: %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatalf("GetQuiz with a 10m ttl did not return within 3s")
	}
	if loader.calls.Load() != 2 {
		t.Fatalf("expected one load per quiz, got %d", loader.calls.Load())
	}
}

func TestQuizContentCacheSharesConcurrentMisses(t *testing.T) {
	release := make(chan struct{})
	loader := &countingLoader{quizzes: map[string]domain.Quiz{"quiz-1": sampleQuiz()}, gate: release}
	cache := NewQuizContentCache(loader, time.Minute)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := cache.GetQuiz(context.Background(), "quiz-1"); err != nil {
				t.Errorf("get quiz: %v", err)
			}
		}()
	}
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	if loader.calls.Load() > 2 {
		t.Fatalf("expected concurrent misses to share loads, got %d calls", loader.calls.Load())
	}
}

func TestQuizContentCacheDoesNotCacheMisses(t *testing.T) {
	loader := &countingLoader{quizzes: map[string]domain.Quiz{}}
	cache := NewQuizContentCache(loader, time.Minute)

	for i := 0; i < 2; i++ {
		if _, err := cache.GetQuiz(context.Background(), "nope"); !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("expected not found, got %v", err)
		}
	}
	if loader.calls.Load() != 2 {
		t.Fatalf("expected every miss to reach the loader, got %d", loader.calls.Load())
	}
}

type countingLoader struct {
	quizzes map[string]domain.Quiz
	gate    chan struct{}
	calls   atomic.Int32
}

func (l *countingLoader) LoadQuiz(_ context.Context, quizID string) (domain.Quiz, error) {
	l.calls.Add(1)
	if l.gate != nil {
		<-l.gate
	}
	quiz, ok := l.quizzes[quizID]
	if !ok {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	return quiz, nil
}

func sampleQuiz() domain.Quiz {
	return domain.Quiz{
		ID:     "quiz-1",
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
	}
}
