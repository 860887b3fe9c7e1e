package transaction

import "github.com/pkg/errors"

// Status is the lifecycle state of a persisted transaction.
type Status string

const (
	StatusDraft      Status = "draft"
	StatusScheduled  Status = "scheduled"
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// ErrInvalidTransition is returned when an update requests a status change
// outside the allowed forward-only set.
var ErrInvalidTransition = errors.New("invalid status transition")

// transitions is the forward-only transition table. A failed transaction may
// return to pending only through an explicit user retry carrying a freshly
// signed permit.
var transitions = map[Status][]Status{
	StatusDraft:      {StatusPending, StatusScheduled},
	StatusScheduled:  {StatusPending, StatusProcessing, StatusCompleted, StatusFailed},
	StatusPending:    {StatusProcessing, StatusCompleted, StatusFailed},
	StatusProcessing: {StatusCompleted, StatusFailed},
	StatusCompleted:  {},
	StatusFailed:     {StatusPending},
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	_, ok := transitions[s]
	return ok
}

// Terminal reports whether no further transition leaves s.
func (s Status) Terminal() bool {
	return len(transitions[s]) == 0
}

// CanTransition reports whether a record may move from one status to another.
// A no-op transition (same status) is always allowed so that field edits do
// not require status changes.
func CanTransition(from, to Status) bool {
	if from == to {
		return true
	}

	for _, allowed := range transitions[from] {
		if allowed == to {
			return true
		}
	}

	return false
}

// GuardTransition returns ErrInvalidTransition when the move is not allowed.
func GuardTransition(from, to Status) error {
	if !CanTransition(from, to) {
		return errors.Wrapf(ErrInvalidTransition, "%s -> %s", from, to)
	}

	return nil
}
