package domain

import "time"

// Lifecycle is the part of an event that decides whether it admits responses.
type Lifecycle struct {
	Status  Status
	StartAt *time.Time
	EndAt   *time.Time
}

// CheckAdmissible returns nil when an event in state l accepts a response at
// now. Status is checked before the schedule window, so a closed event whose
// window has also passed reports NotActive rather than Ended.
func CheckAdmissible(l Lifecycle, now time.Time) error {
	switch l.Status {
	case StatusActive:
	case StatusClosed:
		return ErrEventClosed
	default:
		return ErrNotActive
	}
	if l.StartAt != nil && now.Before(*l.StartAt) {
		return ErrNotStarted
	}
	if l.EndAt != nil && now.After(*l.EndAt) {
		return ErrEnded
	}
	return nil
}
