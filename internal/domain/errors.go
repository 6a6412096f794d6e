package domain

import (
	"errors"
	"fmt"
)

// Reason is the machine-readable code attached to every rejected request.
type Reason string

const (
	ReasonNotFound               Reason = "NotFound"
	ReasonNotActive              Reason = "NotActive"
	ReasonNotStarted             Reason = "NotStarted"
	ReasonEnded                  Reason = "Ended"
	ReasonDuplicateResponse      Reason = "DuplicateResponse"
	ReasonAuthenticationRequired Reason = "AuthenticationRequired"
	ReasonInvalidOption          Reason = "InvalidOption"
	ReasonInvalidQuestion        Reason = "InvalidQuestion"
	ReasonInvalidPayload         Reason = "InvalidPayload"
	ReasonInvalidSettings        Reason = "InvalidSettings"
	ReasonInvalidTransition      Reason = "InvalidTransition"
	ReasonAttemptLimitReached    Reason = "AttemptLimitReached"
	ReasonResultsNotYetAvailable Reason = "ResultsNotYetAvailable"
	ReasonForbidden              Reason = "Forbidden"
	ReasonInvalidCredentials     Reason = "InvalidCredentials"
	ReasonEmailTaken             Reason = "EmailTaken"
)

// Rejection is a domain-level refusal. Two rejections match under errors.Is
// when they share a Reason, so detailed variants still compare equal to the
// sentinels below.
type Rejection struct {
	Reason Reason
	// Temporary reports whether the same request may succeed later
	// without any change on the caller's side.
	Temporary bool
	msg       string
}

func (r *Rejection) Error() string {
	return r.msg
}

func (r *Rejection) Is(target error) bool {
	t, ok := target.(*Rejection)
	return ok && t.Reason == r.Reason
}

// With returns a copy of r carrying a more specific message.
func (r *Rejection) With(format string, args ...any) *Rejection {
	return &Rejection{Reason: r.Reason, Temporary: r.Temporary, msg: fmt.Sprintf(format, args...)}
}

func reject(reason Reason, temporary bool, msg string) *Rejection {
	return &Rejection{Reason: reason, Temporary: temporary, msg: msg}
}

var (
	ErrNotFound               = reject(ReasonNotFound, false, "not found")
	ErrNotActive              = reject(ReasonNotActive, true, "event is not active")
	ErrEventClosed            = reject(ReasonNotActive, false, "event is closed")
	ErrNotStarted             = reject(ReasonNotStarted, true, "event has not started yet")
	ErrEnded                  = reject(ReasonEnded, false, "event has ended")
	ErrDuplicateResponse      = reject(ReasonDuplicateResponse, false, "response already recorded")
	ErrAuthenticationRequired = reject(ReasonAuthenticationRequired, false, "authentication required")
	ErrInvalidOption          = reject(ReasonInvalidOption, false, "invalid option")
	ErrInvalidQuestion        = reject(ReasonInvalidQuestion, false, "invalid question")
	ErrInvalidPayload         = reject(ReasonInvalidPayload, false, "invalid payload")
	ErrInvalidSettings        = reject(ReasonInvalidSettings, false, "invalid settings")
	ErrInvalidTransition      = reject(ReasonInvalidTransition, false, "invalid status transition")
	ErrAttemptLimitReached    = reject(ReasonAttemptLimitReached, false, "attempt limit reached")
	ErrResultsNotYetAvailable = reject(ReasonResultsNotYetAvailable, true, "results are not available yet")
	ErrForbidden              = reject(ReasonForbidden, false, "forbidden")
	ErrInvalidCredentials     = reject(ReasonInvalidCredentials, false, "invalid credentials")
	ErrEmailTaken             = reject(ReasonEmailTaken, false, "email already registered")

	ErrPollNotFound   = ErrNotFound.With("poll not found")
	ErrQuizNotFound   = ErrNotFound.With("quiz not found")
	ErrResultNotFound = ErrNotFound.With("result not found")
	ErrUserNotFound   = ErrNotFound.With("user not found")
)

// ReasonOf extracts the rejection reason from err, if any.
func ReasonOf(err error) (Reason, bool) {
	var r *Rejection
	if errors.As(err, &r) {
		return r.Reason, true
	}
	return "", false
}

// IsTemporary reports whether err is a rejection that may clear on its own.
func IsTemporary(err error) bool {
	var r *Rejection
	return errors.As(err, &r) && r.Temporary
}
