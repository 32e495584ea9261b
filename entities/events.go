package entities

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// IEvent is implemented by every event published on the bus. Internal
// events stay on service-private topics, external events go to the shared
// "events" topic that downstream services consume.
type IEvent interface {
	IsInternal() bool
}

type EventHeader struct {
	ID             string    `json:"id"`
	PublishedAt    time.Time `json:"published_at"`
	IdempotencyKey string    `json:"idempotency_key"`
}

func NewEventHeader() EventHeader {
	return EventHeader{
		ID:             uuid.NewString(),
		PublishedAt:    time.Now().UTC(),
		IdempotencyKey: uuid.NewString(),
	}
}

func NewEventHeaderWithIdempotencyKey(idempotencyKey string) EventHeader {
	return EventHeader{
		ID:             uuid.NewString(),
		PublishedAt:    time.Now().UTC(),
		IdempotencyKey: idempotencyKey,
	}
}

// BookingConfirmed_v1 is the immutable fact produced once per confirmed
// booking. Consumers must be idempotent under redelivery, keying their side
// effect on BookingID.
type BookingConfirmed_v1 struct {
	Header EventHeader `json:"header"`

	BookingID uuid.UUID `json:"booking_id"`
	UserID    uuid.UUID `json:"user_id"`
	ShowID    uuid.UUID `json:"show_id"`
	TheatreID uuid.UUID `json:"theatre_id"`
	MovieID   uuid.UUID `json:"movie_id"`

	Seats       []string  `json:"seats"`
	TotalAmount Money     `json:"total_amount"`
	PaymentID   uuid.UUID `json:"payment_id"`

	ShowStartTime time.Time `json:"show_start_time"`
	ConfirmedAt   time.Time `json:"confirmed_at"`
}

func (b BookingConfirmed_v1) IsInternal() bool {
	return false
}

type BookingFailed_v1 struct {
	Header EventHeader `json:"header"`

	BookingID uuid.UUID `json:"booking_id"`
	UserID    uuid.UUID `json:"user_id"`
	ShowID    uuid.UUID `json:"show_id"`
	Seats     []string  `json:"seats"`
	Reason    string    `json:"reason"`
}

func (b BookingFailed_v1) IsInternal() bool {
	return true
}

type BookingCancelled_v1 struct {
	Header EventHeader `json:"header"`

	BookingID uuid.UUID `json:"booking_id"`
	UserID    uuid.UUID `json:"user_id"`
	ShowID    uuid.UUID `json:"show_id"`
	Seats     []string  `json:"seats"`
}

func (b BookingCancelled_v1) IsInternal() bool {
	return true
}

// Event is a data lake row: every published event is appended here as-is
// for audit and read model rebuilds.
type Event struct {
	EventID     string          `json:"event_id" db:"event_id"`
	PublishedAt time.Time       `json:"published_at" db:"published_at"`
	EventName   string          `json:"event_name" db:"event_name"`
	Payload     json.RawMessage `json:"event_payload" db:"event_payload"`
}
