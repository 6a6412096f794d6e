package cli

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"pollquiz-service/internal/app"
	"pollquiz-service/internal/auth"
	"pollquiz-service/internal/config"
	"pollquiz-service/internal/infra/memory"
	"pollquiz-service/internal/infra/postgres"
	rediscache "pollquiz-service/internal/infra/redis"
)

// backend holds the wired services and the resources to release on exit.
type backend struct {
	admission *app.AdmissionService
	events    *app.EventService
	results   *app.ResultsService
	accounts  *auth.Service
	closers   []func() error
}

func (b *backend) Close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		_ = b.closers[i]()
	}
}

type userAndEventStore interface {
	app.Store
	auth.UserStore
}

// newBackend chooses Postgres or the in-memory store depending on whether a
// database URL is configured, and Redis or an in-process cache for quiz
// content depending on whether a Redis address is configured.
func newBackend(ctx context.Context, cfg config.Config, logger *slog.Logger) (*backend, error) {
	b := &backend{}
	quizTTL := config.TTLDuration(cfg.Quiz.TTL, 10*time.Minute)

	var (
		store  userAndEventStore
		loader rediscache.QuizLoader
	)
	if cfg.Postgres.URL != "" {
		db := postgres.Open(cfg.Postgres.URL)
		b.closers = append(b.closers, db.Close)
		if _, err := postgres.Migrate(ctx, db); err != nil {
			b.Close()
			return nil, err
		}
		store = postgres.NewStore(db, cfg.Admission.MaxRetries)

		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			b.Close()
			return nil, fmt.Errorf("connect quiz loader pool: %w", err)
		}
		b.closers = append(b.closers, func() error { pool.Close(); return nil })
		loader = postgres.NewQuizLoader(pool)
	} else {
		logger.Warn("postgres url not configured, using in-memory store")
		mem := memory.NewStore()
		store = mem
		loader = mem
	}

	var quizzes app.QuizContentRepository
	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		b.closers = append(b.closers, client.Close)
		quizzes = rediscache.NewQuizContentCache(client, loader, quizTTL, logger)
	} else {
		quizzes = memory.NewQuizContentCache(loader, quizTTL)
	}

	secret := cfg.Auth.JWTSecret
	if secret == "" {
		logger.Warn("jwt secret not configured, using an insecure development secret")
		secret = "dev-secret"
	}

	b.admission = app.NewAdmissionService(store, logger)
	b.events = app.NewEventService(store, logger)
	b.results = app.NewResultsService(store, quizzes, logger)
	b.accounts = auth.NewService(store, secret, config.TTLDuration(cfg.Auth.TokenTTL, 24*time.Hour))
	return b, nil
}
