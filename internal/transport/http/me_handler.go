package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// MeHandler serves caller-scoped listings and result reviews.
type MeHandler struct {
	accounts Accounts
	events   Events
	results  Results
	logger   *slog.Logger
}

func (h *MeHandler) Profile(w http.ResponseWriter, r *http.Request) {
	user, err := h.accounts.Me(r.Context(), identityFrom(r))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *MeHandler) Result(w http.ResponseWriter, r *http.Request) {
	review, err := h.results.OwnResult(r.Context(), chi.URLParam(r, "id"), identityFrom(r))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, review)
}

func (h *MeHandler) Events(w http.ResponseWriter, r *http.Request) {
	events, err := h.events.ListHostedEvents(r.Context(), identityFrom(r))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, events)
}

func (h *MeHandler) Results(w http.ResponseWriter, r *http.Request) {
	results, err := h.results.ListOwnResults(r.Context(), identityFrom(r))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, results)
}

func (h *MeHandler) PollResponses(w http.ResponseWriter, r *http.Request) {
	responses, err := h.results.ListOwnPollResponses(r.Context(), identityFrom(r))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, responses)
}
