package http

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"pollquiz-service/internal/domain"
)

const maxBodyBytes = 1 << 20

type errorBody struct {
	Error     string        `json:"error"`
	Reason    domain.Reason `json:"reason,omitempty"`
	Retryable bool          `json:"retryable"`
}

func statusFor(reason domain.Reason) int {
	switch reason {
	case domain.ReasonNotFound:
		return http.StatusNotFound
	case domain.ReasonAuthenticationRequired, domain.ReasonInvalidCredentials:
		return http.StatusUnauthorized
	case domain.ReasonForbidden, domain.ReasonResultsNotYetAvailable:
		return http.StatusForbidden
	case domain.ReasonNotActive, domain.ReasonNotStarted, domain.ReasonEnded,
		domain.ReasonDuplicateResponse, domain.ReasonAttemptLimitReached,
		domain.ReasonInvalidTransition, domain.ReasonEmailTaken:
		return http.StatusConflict
	default:
		return http.StatusBadRequest
	}
}

// writeError renders rejections with their reason code. Anything else is an
// internal fault: it is logged and the detail is not sent to the client.
func writeError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	var rej *domain.Rejection
	if errors.As(err, &rej) {
		writeJSON(w, statusFor(rej.Reason), errorBody{Error: rej.Error(), Reason: rej.Reason, Retryable: rej.Temporary})
		return
	}
	logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "err", err)
	writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal error", Retryable: true})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// decodeJSON reads a single JSON object, rejecting unknown fields so clients
// cannot smuggle in values the server computes itself.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return domain.ErrInvalidPayload.With("invalid request body: %v", err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return domain.ErrInvalidPayload.With("invalid request body: unexpected trailing data")
	}
	return nil
}
