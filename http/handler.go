package http

import (
	"context"
	"errors"
	"net/http"

	"moviebooking/entities"
	"moviebooking/message/sagas"

	"github.com/ThreeDotsLabs/watermill/components/cqrs"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

type BookingService interface {
	CreateBooking(ctx context.Context, req sagas.BookingRequest) (entities.BookingCreateResponse, error)
}

type BookingRepository interface {
	GetByID(ctx context.Context, bookingID uuid.UUID) (entities.Booking, error)
	GetByUserID(ctx context.Context, userID uuid.UUID) ([]entities.Booking, error)
}

type ShowRepository interface {
	Create(ctx context.Context, show entities.Show) (entities.ShowCreateResponse, error)
	ShowByID(ctx context.Context, showID uuid.UUID) (entities.Show, error)
}

type SeatLedger interface {
	SeatsForShow(ctx context.Context, showID uuid.UUID) ([]entities.SeatReservation, error)
}

type TicketRepository interface {
	Get(ctx context.Context) ([]entities.Ticket, error)
	GetByBookingID(ctx context.Context, bookingID uuid.UUID) (entities.Ticket, error)
}

type PaymentRepository interface {
	GetByID(ctx context.Context, paymentID uuid.UUID) (entities.Payment, error)
	GetByBookingID(ctx context.Context, bookingID uuid.UUID) (entities.Payment, error)
}

type Handler struct {
	commandBus *cqrs.CommandBus

	bookingService BookingService
	bookingRepo    BookingRepository
	showRepo       ShowRepository
	seatLedger     SeatLedger
	ticketRepo     TicketRepository
	paymentRepo    PaymentRepository
}

// httpError translates domain errors into status codes. Conflicts carry the
// contested seats so the client can re-pick without another round trip.
func httpError(err error) error {
	var conflict entities.SeatsConflictError
	if errors.As(err, &conflict) {
		return echo.NewHTTPError(http.StatusConflict, map[string]any{
			"message":        "seats not available",
			"unavailable":    conflict.Seats,
			"retry_possible": true,
		})
	}

	switch {
	case errors.Is(err, entities.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, entities.ErrPaymentDeclined), errors.Is(err, entities.ErrPaymentTransient):
		return echo.NewHTTPError(http.StatusPaymentRequired, err.Error())
	case errors.Is(err, entities.ErrInvalidState):
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, entities.ErrValidation):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	return err
}
