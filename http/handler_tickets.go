package http

import (
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

func (h Handler) GetTickets(c echo.Context) error {
	tickets, err := h.ticketRepo.Get(c.Request().Context())
	if err != nil {
		return fmt.Errorf("failed getting tickets: %w", err)
	}

	return c.JSON(http.StatusOK, tickets)
}

func (h Handler) GetTicketByBookingID(c echo.Context) error {
	bookingID, err := uuid.Parse(c.Param("booking_id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid booking id")
	}

	ticket, err := h.ticketRepo.GetByBookingID(c.Request().Context(), bookingID)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, ticket)
}
