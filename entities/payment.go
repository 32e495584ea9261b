package entities

import (
	"time"

	"github.com/google/uuid"
)

type PaymentStatus string

const (
	PaymentStatusPending    PaymentStatus = "PENDING"
	PaymentStatusProcessing PaymentStatus = "PROCESSING"
	PaymentStatusCompleted  PaymentStatus = "COMPLETED"
	PaymentStatusFailed     PaymentStatus = "FAILED"
	PaymentStatusRefunded   PaymentStatus = "REFUNDED"
)

// IsTerminal reports whether the payment reached a final outcome.
// REFUNDED is reachable only from COMPLETED.
func (s PaymentStatus) IsTerminal() bool {
	return s == PaymentStatusCompleted || s == PaymentStatusFailed || s == PaymentStatusRefunded
}

type Payment struct {
	PaymentID     uuid.UUID     `json:"payment_id" db:"payment_id"`
	BookingID     uuid.UUID     `json:"booking_id" db:"booking_id"`
	UserID        uuid.UUID     `json:"user_id" db:"user_id"`
	Amount        Money         `json:"amount" db:"amount"`
	Status        PaymentStatus `json:"status" db:"status"`
	PaymentMethod string        `json:"payment_method" db:"payment_method"`
	TransactionID *string       `json:"transaction_id,omitempty" db:"transaction_id"`
	CreatedAt     time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at" db:"updated_at"`
	Version       int64         `json:"-" db:"version"`
}
