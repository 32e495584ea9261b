package http

import (
	"fmt"
	"net/http"

	"moviebooking/entities"
	"moviebooking/message/sagas"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

type bookSeatsRequest struct {
	ShowID        uuid.UUID `json:"show_id" validate:"required"`
	UserID        uuid.UUID `json:"user_id" validate:"required"`
	Seats         []string  `json:"seats" validate:"required,min=1,unique,dive,required"`
	PaymentMethod string    `json:"payment_method" validate:"required"`
}

func (h Handler) PostBookSeats(c echo.Context) error {
	var request bookSeatsRequest

	if err := c.Bind(&request); err != nil {
		return err
	}
	if err := c.Validate(&request); err != nil {
		return err
	}

	idempotencyKey := c.Request().Header.Get("Idempotency-Key")
	if idempotencyKey == "" {
		idempotencyKey = uuid.NewString()
	}

	resp, err := h.bookingService.CreateBooking(c.Request().Context(), sagas.BookingRequest{
		ShowID:         request.ShowID,
		UserID:         request.UserID,
		Seats:          request.Seats,
		PaymentMethod:  request.PaymentMethod,
		IdempotencyKey: idempotencyKey,
	})
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusCreated, resp)
}

func (h Handler) GetBookingByID(c echo.Context) error {
	bookingID, err := uuid.Parse(c.Param("booking_id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid booking id")
	}

	booking, err := h.bookingRepo.GetByID(c.Request().Context(), bookingID)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, booking)
}

func (h Handler) GetBookings(c echo.Context) error {
	userID, err := uuid.Parse(c.QueryParam("user_id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "user_id query parameter is required")
	}

	bookings, err := h.bookingRepo.GetByUserID(c.Request().Context(), userID)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, bookings)
}

// PutCancelBooking only enqueues the cancellation; the command handler does
// the state transition, so a cancel racing a confirmation is decided by the
// booking row, not by the HTTP layer.
func (h Handler) PutCancelBooking(c echo.Context) error {
	bookingID, err := uuid.Parse(c.Param("booking_id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid booking id")
	}

	cmd := entities.CancelBooking{
		Header:    entities.NewEventHeaderWithIdempotencyKey("cancel-" + bookingID.String()),
		BookingID: bookingID,
	}

	if err := h.commandBus.Send(c.Request().Context(), cmd); err != nil {
		return fmt.Errorf("failed to send cancel booking command: %w", err)
	}

	return c.NoContent(http.StatusAccepted)
}
