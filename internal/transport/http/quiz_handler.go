package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"pollquiz-service/internal/domain"
)

type QuizHandler struct {
	events    Events
	admission Admission
	results   Results
	logger    *slog.Logger
}

type questionRequest struct {
	Text               string   `json:"text"`
	Choices            []string `json:"choices"`
	CorrectChoiceIndex int      `json:"correctChoiceIndex"`
	Points             int      `json:"points"`
}

type createQuizRequest struct {
	Title       string            `json:"title"`
	Description string            `json:"description"`
	Status      domain.Status     `json:"status"`
	StartAt     *time.Time        `json:"startAt"`
	EndAt       *time.Time        `json:"endAt"`
	Settings    json.RawMessage   `json:"settings"`
	Questions   []questionRequest `json:"questions"`
}

type attemptRequest struct {
	Answers []domain.Answer `json:"answers"`
}

type questionView struct {
	ID                 string          `json:"id"`
	Text               string          `json:"text"`
	Choices            []domain.Choice `json:"choices"`
	Points             int             `json:"points"`
	CorrectChoiceIndex *int            `json:"correctChoiceIndex,omitempty"`
}

// quizView carries the answer key only for the owning host.
type quizView struct {
	ID           string              `json:"id"`
	HostID       string              `json:"hostId"`
	Title        string              `json:"title"`
	Description  string              `json:"description,omitempty"`
	Status       domain.Status       `json:"status"`
	StartAt      *time.Time          `json:"startAt,omitempty"`
	EndAt        *time.Time          `json:"endAt,omitempty"`
	Settings     domain.QuizSettings `json:"settings"`
	Questions    []questionView      `json:"questions"`
	MaxScore     int                 `json:"maxScore"`
	Participants *int                `json:"participants,omitempty"`
	CreatedAt    time.Time           `json:"createdAt"`
}

func newQuizView(q domain.Quiz, viewer *domain.Identity) quizView {
	owner := viewer != nil && viewer.UserID == q.HostID
	v := quizView{
		ID:          q.ID,
		HostID:      q.HostID,
		Title:       q.Title,
		Description: q.Description,
		Status:      q.Status,
		StartAt:     q.StartAt,
		EndAt:       q.EndAt,
		Settings:    q.Settings,
		Questions:   make([]questionView, len(q.Questions)),
		MaxScore:    q.MaxScore(),
		CreatedAt:   q.CreatedAt,
	}
	for i, question := range q.Questions {
		v.Questions[i] = questionView{
			ID:      question.ID,
			Text:    question.Text,
			Choices: question.Choices,
			Points:  question.EffectivePoints(),
		}
		if owner {
			correct := question.CorrectChoiceIndex
			v.Questions[i].CorrectChoiceIndex = &correct
		}
	}
	if owner {
		participants := q.Participants
		v.Participants = &participants
	}
	return v
}

func (h *QuizHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createQuizRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	settings, err := domain.ParseQuizSettings(req.Settings)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	draft := domain.Quiz{
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
		StartAt:     req.StartAt,
		EndAt:       req.EndAt,
		Settings:    settings,
		Questions:   make([]domain.Question, len(req.Questions)),
	}
	for i, q := range req.Questions {
		choices := make([]domain.Choice, len(q.Choices))
		for j, text := range q.Choices {
			choices[j] = domain.Choice{Text: text}
		}
		draft.Questions[i] = domain.Question{
			Text:               q.Text,
			Choices:            choices,
			CorrectChoiceIndex: q.CorrectChoiceIndex,
			Points:             q.Points,
		}
	}
	who := identityFrom(r)
	quiz, err := h.events.CreateQuiz(r.Context(), who, draft)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, newQuizView(quiz, who))
}

func (h *QuizHandler) Get(w http.ResponseWriter, r *http.Request) {
	quiz, err := h.events.GetQuiz(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, newQuizView(quiz, identityFrom(r)))
}

func (h *QuizHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	to, err := domain.ParseStatus(req.Status)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	who := identityFrom(r)
	quiz, err := h.events.SetQuizStatus(r.Context(), who, chi.URLParam(r, "id"), to)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, newQuizView(quiz, who))
}

// Attempt scores the submitted answers server side. Clients never send a
// score or correctness flag; unknown fields are rejected by decodeJSON.
func (h *QuizHandler) Attempt(w http.ResponseWriter, r *http.Request) {
	var req attemptRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	result, err := h.admission.SubmitQuizAttempt(r.Context(), chi.URLParam(r, "id"), identityFrom(r), req.Answers)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

func (h *QuizHandler) Results(w http.ResponseWriter, r *http.Request) {
	results, err := h.results.QuizResults(r.Context(), chi.URLParam(r, "id"), identityFrom(r))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, results)
}
