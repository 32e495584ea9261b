package entities

import "github.com/google/uuid"

// CancelBooking is accepted only while the booking is still PENDING.
type CancelBooking struct {
	Header EventHeader `json:"header"`

	BookingID uuid.UUID `json:"booking_id"`
}

// RefundPayment moves a COMPLETED payment to REFUNDED and refunds the
// charge with the payment capability.
type RefundPayment struct {
	Header EventHeader `json:"header"`

	PaymentID uuid.UUID `json:"payment_id"`
}
