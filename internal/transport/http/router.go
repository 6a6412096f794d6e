package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
	"pollquiz-service/internal/app"
	"pollquiz-service/internal/auth"
	"pollquiz-service/internal/domain"
)

// Admission submits responses and attempts.
type Admission interface {
	SubmitPollResponse(ctx context.Context, pollID string, who *domain.Identity, selected []string) (domain.PollResponse, error)
	SubmitQuizAttempt(ctx context.Context, quizID string, who *domain.Identity, answers []domain.Answer) (domain.QuizResult, error)
}

// Events manages polls and quizzes on behalf of their hosts.
type Events interface {
	CreatePoll(ctx context.Context, who *domain.Identity, draft domain.Poll) (domain.Poll, error)
	CreateQuiz(ctx context.Context, who *domain.Identity, draft domain.Quiz) (domain.Quiz, error)
	GetPoll(ctx context.Context, pollID string) (domain.Poll, error)
	GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
	SetPollStatus(ctx context.Context, who *domain.Identity, pollID string, to domain.Status) (domain.Poll, error)
	SetQuizStatus(ctx context.Context, who *domain.Identity, quizID string, to domain.Status) (domain.Quiz, error)
	ListHostedEvents(ctx context.Context, who *domain.Identity) ([]domain.EventSummary, error)
}

// Results serves aggregate and personal results.
type Results interface {
	PollResults(ctx context.Context, pollID string, viewer *domain.Identity) (domain.PollResults, error)
	QuizResults(ctx context.Context, quizID string, viewer *domain.Identity) (domain.QuizResults, error)
	OwnResult(ctx context.Context, resultID string, viewer *domain.Identity) (domain.ResultReview, error)
	ListOwnResults(ctx context.Context, viewer *domain.Identity) ([]app.OwnResultSummary, error)
	ListOwnPollResponses(ctx context.Context, viewer *domain.Identity) ([]app.OwnPollResponse, error)
}

// Accounts registers and logs in users.
type Accounts interface {
	TokenVerifier
	Register(ctx context.Context, reg auth.Registration) (domain.User, error)
	Login(ctx context.Context, email, password string) (string, domain.User, error)
	Me(ctx context.Context, who *domain.Identity) (domain.User, error)
}

type Deps struct {
	Accounts       Accounts
	Admission      Admission
	Events         Events
	Results        Results
	Logger         *slog.Logger
	AllowedOrigins []string
}

func NewRouter(d Deps) http.Handler {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}
	accounts := &AuthHandler{accounts: d.Accounts, logger: logger}
	polls := &PollHandler{events: d.Events, admission: d.Admission, results: d.Results, logger: logger}
	quizzes := &QuizHandler{events: d.Events, admission: d.Admission, results: d.Results, logger: logger}
	me := &MeHandler{accounts: d.Accounts, events: d.Events, results: d.Results, logger: logger}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(logger))
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})

	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", accounts.Register)
		r.Post("/login", accounts.Login)
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(identify(d.Accounts, logger))

		r.Route("/polls", func(r chi.Router) {
			r.Post("/", polls.Create)
			r.Get("/{id}", polls.Get)
			r.Patch("/{id}/status", polls.SetStatus)
			r.Post("/{id}/responses", polls.Respond)
			r.Get("/{id}/results", polls.Results)
		})
		r.Route("/quizzes", func(r chi.Router) {
			r.Post("/", quizzes.Create)
			r.Get("/{id}", quizzes.Get)
			r.Patch("/{id}/status", quizzes.SetStatus)
			r.Post("/{id}/attempts", quizzes.Attempt)
			r.Get("/{id}/results", quizzes.Results)
		})
		r.Get("/results/{id}", me.Result)
		r.Get("/me", me.Profile)
		r.Get("/me/events", me.Events)
		r.Get("/me/results", me.Results)
		r.Get("/me/poll-responses", me.PollResponses)
	})

	origins := d.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization", "X-Request-Id"},
		ExposedHeaders: []string{"X-Request-Id"},
		MaxAge:         300,
	}).Handler(r)
}
