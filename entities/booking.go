package entities

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

type BookingStatus string

const (
	BookingStatusPending       BookingStatus = "PENDING"
	BookingStatusConfirmed     BookingStatus = "CONFIRMED"
	BookingStatusCancelled     BookingStatus = "CANCELLED"
	BookingStatusPaymentFailed BookingStatus = "PAYMENT_FAILED"
)

// IsTerminal reports whether no further transition is allowed from s.
// Only PENDING bookings may transition.
func (s BookingStatus) IsTerminal() bool {
	return s != BookingStatusPending
}

type Booking struct {
	BookingID uuid.UUID `json:"booking_id" db:"booking_id"`
	ShowID    uuid.UUID `json:"show_id" db:"show_id"`
	TheatreID uuid.UUID `json:"theatre_id" db:"theatre_id"`
	MovieID   uuid.UUID `json:"movie_id" db:"movie_id"`
	UserID    uuid.UUID `json:"user_id" db:"user_id"`

	// Seats is immutable once the booking is created.
	Seats pq.StringArray `json:"seats" db:"seats"`

	TotalAmount Money         `json:"total_amount" db:"total"`
	Status      BookingStatus `json:"status" db:"status"`
	PaymentID   *uuid.UUID    `json:"payment_id,omitempty" db:"payment_id"`

	IdempotencyKey string    `json:"-" db:"idempotency_key"`
	BookedAt       time.Time `json:"booked_at" db:"booked_at"`
	Version        int64     `json:"-" db:"version"`
}

type BookingCreateResponse struct {
	BookingID uuid.UUID     `json:"booking_id"`
	Status    BookingStatus `json:"status"`
	PaymentID *uuid.UUID    `json:"payment_id,omitempty"`
}
