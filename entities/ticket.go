package entities

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Ticket is keyed by booking id: issuing a ticket twice for the same
// booking is a no-op.
type Ticket struct {
	TicketID      uuid.UUID      `json:"ticket_id" db:"ticket_id"`
	BookingID     uuid.UUID      `json:"booking_id" db:"booking_id"`
	UserID        uuid.UUID      `json:"user_id" db:"user_id"`
	ShowID        uuid.UUID      `json:"show_id" db:"show_id"`
	TheatreID     uuid.UUID      `json:"theatre_id" db:"theatre_id"`
	MovieID       uuid.UUID      `json:"movie_id" db:"movie_id"`
	Seats         pq.StringArray `json:"seats" db:"seats"`
	Amount        Money          `json:"amount" db:"amount"`
	PaymentID     uuid.UUID      `json:"payment_id" db:"payment_id"`
	ShowStartTime time.Time      `json:"show_start_time" db:"show_start_time"`
	IssuedAt      time.Time      `json:"issued_at" db:"issued_at"`
}
