package entities

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound is returned when a referenced record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidState is returned when a transition is attempted on a
	// terminal booking or payment, or on an inconsistent seat hold. It
	// indicates a protocol violation (duplicate event, stale retry) and
	// must not be retried.
	ErrInvalidState = errors.New("invalid state")

	// ErrPaymentDeclined is returned when the payment capability rejected
	// the charge.
	ErrPaymentDeclined = errors.New("payment declined")

	// ErrPaymentTransient is returned when the payment capability was
	// unreachable or timed out. It compensates the same way as a decline
	// but is logged distinctly for alerting.
	ErrPaymentTransient = errors.New("payment capability unavailable")

	// ErrValidation is returned for malformed booking requests.
	ErrValidation = errors.New("invalid request")

	// ErrAlreadyExists is returned when a unique record (idempotency key,
	// per-booking payment) has already been created.
	ErrAlreadyExists = errors.New("already exists")
)

// SeatsConflictError names the seats that were already taken when a
// reservation was attempted. The whole reservation fails, no partial
// holds are kept.
type SeatsConflictError struct {
	Seats []string
}

func (e SeatsConflictError) Error() string {
	return fmt.Sprintf("seats not available: %s", strings.Join(e.Seats, ", "))
}
