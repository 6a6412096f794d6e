package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"pollquiz-service/internal/domain"
)

type PollHandler struct {
	events    Events
	admission Admission
	results   Results
	logger    *slog.Logger
}

type createPollRequest struct {
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Status      domain.Status   `json:"status"`
	StartAt     *time.Time      `json:"startAt"`
	EndAt       *time.Time      `json:"endAt"`
	Settings    json.RawMessage `json:"settings"`
	Options     []string        `json:"options"`
}

type statusRequest struct {
	Status string `json:"status"`
}

type pollResponseRequest struct {
	SelectedOptionIDs []string `json:"selectedOptionIds"`
}

type pollOptionView struct {
	ID    string `json:"id"`
	Text  string `json:"text"`
	Votes *int   `json:"votes,omitempty"`
}

// pollView hides live tallies from everyone but the owning host.
type pollView struct {
	ID           string              `json:"id"`
	HostID       string              `json:"hostId"`
	Title        string              `json:"title"`
	Description  string              `json:"description,omitempty"`
	Status       domain.Status       `json:"status"`
	StartAt      *time.Time          `json:"startAt,omitempty"`
	EndAt        *time.Time          `json:"endAt,omitempty"`
	Settings     domain.PollSettings `json:"settings"`
	Options      []pollOptionView    `json:"options"`
	Participants *int                `json:"participants,omitempty"`
	CreatedAt    time.Time           `json:"createdAt"`
}

func newPollView(p domain.Poll, viewer *domain.Identity) pollView {
	owner := viewer != nil && viewer.UserID == p.HostID
	v := pollView{
		ID:          p.ID,
		HostID:      p.HostID,
		Title:       p.Title,
		Description: p.Description,
		Status:      p.Status,
		StartAt:     p.StartAt,
		EndAt:       p.EndAt,
		Settings:    p.Settings,
		Options:     make([]pollOptionView, len(p.Options)),
		CreatedAt:   p.CreatedAt,
	}
	for i, o := range p.Options {
		v.Options[i] = pollOptionView{ID: o.ID, Text: o.Text}
		if owner {
			votes := o.Votes
			v.Options[i].Votes = &votes
		}
	}
	if owner {
		participants := p.Participants
		v.Participants = &participants
	}
	return v
}

func (h *PollHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createPollRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	settings, err := domain.ParsePollSettings(req.Settings)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	draft := domain.Poll{
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
		StartAt:     req.StartAt,
		EndAt:       req.EndAt,
		Settings:    settings,
		Options:     make([]domain.Option, len(req.Options)),
	}
	for i, text := range req.Options {
		draft.Options[i] = domain.Option{Text: text}
	}
	who := identityFrom(r)
	poll, err := h.events.CreatePoll(r.Context(), who, draft)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, newPollView(poll, who))
}

func (h *PollHandler) Get(w http.ResponseWriter, r *http.Request) {
	poll, err := h.events.GetPoll(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, newPollView(poll, identityFrom(r)))
}

func (h *PollHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
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
	poll, err := h.events.SetPollStatus(r.Context(), who, chi.URLParam(r, "id"), to)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, newPollView(poll, who))
}

func (h *PollHandler) Respond(w http.ResponseWriter, r *http.Request) {
	var req pollResponseRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	resp, err := h.admission.SubmitPollResponse(r.Context(), chi.URLParam(r, "id"), identityFrom(r), req.SelectedOptionIDs)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (h *PollHandler) Results(w http.ResponseWriter, r *http.Request) {
	results, err := h.results.PollResults(r.Context(), chi.URLParam(r, "id"), identityFrom(r))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, results)
}
