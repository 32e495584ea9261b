package command

import (
	"context"

	"github.com/google/uuid"
)

type BookingCanceller interface {
	CancelBooking(ctx context.Context, bookingID uuid.UUID) error
}

type PaymentRefunder interface {
	Refund(ctx context.Context, paymentID uuid.UUID) error
}

type Handler struct {
	bookingCanceller BookingCanceller
	paymentRefunder  PaymentRefunder
}

func NewHandler(bookingCanceller BookingCanceller, paymentRefunder PaymentRefunder) Handler {
	if bookingCanceller == nil {
		panic("bookingCanceller is required")
	}
	if paymentRefunder == nil {
		panic("paymentRefunder is required")
	}

	return Handler{
		bookingCanceller: bookingCanceller,
		paymentRefunder:  paymentRefunder,
	}
}
