package entities

import (
	"time"

	"github.com/google/uuid"
)

type SeatState string

const (
	SeatStateFree SeatState = "FREE"
	SeatStateHeld SeatState = "HELD"
	SeatStateSold SeatState = "SOLD"
)

// SeatReservation is the per-(show, seat) occupancy record owned by the
// seat ledger. At most one booking holds a non-FREE seat at any time.
type SeatReservation struct {
	ShowID        uuid.UUID  `json:"show_id" db:"show_id"`
	SeatLabel     string     `json:"seat_label" db:"seat_label"`
	State         SeatState  `json:"state" db:"state"`
	BookingID     *uuid.UUID `json:"booking_id,omitempty" db:"booking_id"`
	HoldExpiresAt *time.Time `json:"hold_expires_at,omitempty" db:"hold_expires_at"`
}
