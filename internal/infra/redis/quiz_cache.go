package redis

import (
	"context"
	"encoding/json"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
	"pollquiz-service/internal/domain"
)

// QuizLoader fetches quiz content from the backing store.
type QuizLoader interface {
	LoadQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
}

// QuizContentCache keeps the immutable part of a quiz in a Redis hash and
// falls back to the loader on a miss:
//
//	HSET quiz:{quizID}:content title {title} host_id {hostID} questions {json} settings {json}
//
// Status and counters are never cached. Redis failures degrade to loader
// reads rather than failing the request.
type QuizContentCache struct {
	client *redis.Client
	loader QuizLoader
	ttl    time.Duration
	logger *slog.Logger
	sf     singleflight.Group

	mu  sync.Mutex
	rnd *rand.Rand
}

func NewQuizContentCache(client *redis.Client, loader QuizLoader, ttl time.Duration, logger *slog.Logger) *QuizContentCache {
	if logger == nil {
		logger = slog.Default()
	}
	return &QuizContentCache{
		client: client,
		loader: loader,
		ttl:    ttl,
		logger: logger,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func contentKey(quizID string) string {
	return "quiz:" + quizID + ":content"
}

func (c *QuizContentCache) GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	if quiz, ok := c.lookup(ctx, quizID); ok {
		return quiz, nil
	}

	v, err, _ := c.sf.Do(quizID, func() (interface{}, error) {
		// Another caller may have filled the cache while we waited.
		if quiz, ok := c.lookup(ctx, quizID); ok {
			return quiz, nil
		}
		quiz, err := c.loader.LoadQuiz(ctx, quizID)
		if err != nil {
			return domain.Quiz{}, err
		}
		c.store(ctx, quiz)
		return quiz, nil
	})
	if err != nil {
		return domain.Quiz{}, err
	}
	return v.(domain.Quiz), nil
}

func (c *QuizContentCache) lookup(ctx context.Context, quizID string) (domain.Quiz, bool) {
	fields, err := c.client.HGetAll(ctx, contentKey(quizID)).Result()
	if err != nil {
		c.logger.Warn("quiz cache read failed", "quiz_id", quizID, "err", err)
		return domain.Quiz{}, false
	}
	if len(fields) == 0 {
		return domain.Quiz{}, false
	}
	quiz, err := quizFromHash(quizID, fields)
	if err != nil {
		c.logger.Warn("quiz cache entry unreadable", "quiz_id", quizID, "err", err)
		return domain.Quiz{}, false
	}
	return quiz, true
}

func (c *QuizContentCache) store(ctx context.Context, quiz domain.Quiz) {
	questions, err := json.Marshal(quiz.Questions)
	if err != nil {
		return
	}
	settings, err := json.Marshal(quiz.Settings)
	if err != nil {
		return
	}
	key := contentKey(quiz.ID)
	pipe := c.client.TxPipeline()
	pipe.HSet(ctx, key,
		"title", quiz.Title,
		"description", quiz.Description,
		"host_id", quiz.HostID,
		"questions", questions,
		"settings", settings,
	)
	if ttl := c.ttlWithJitter(); ttl > 0 {
		pipe.Expire(ctx, key, ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		c.logger.Warn("quiz cache write failed", "quiz_id", quiz.ID, "err", err)
	}
}

func quizFromHash(quizID string, fields map[string]string) (domain.Quiz, error) {
	quiz := domain.Quiz{
		ID:          quizID,
		Title:       fields["title"],
		Description: fields["description"],
		HostID:      fields["host_id"],
	}
	if err := json.Unmarshal([]byte(fields["questions"]), &quiz.Questions); err != nil {
		return domain.Quiz{}, err
	}
	if raw := fields["settings"]; raw != "" {
		if err := json.Unmarshal([]byte(raw), &quiz.Settings); err != nil {
			return domain.Quiz{}, err
		}
	}
	return quiz, nil
}

func (c *QuizContentCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ttl + time.Duration(c.rnd.Int63n(int64(c.ttl)/10+1))
}
