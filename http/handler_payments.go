package http

import (
	"fmt"
	"net/http"

	"moviebooking/entities"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

func (h Handler) GetPaymentByID(c echo.Context) error {
	paymentID, err := uuid.Parse(c.Param("payment_id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payment id")
	}

	payment, err := h.paymentRepo.GetByID(c.Request().Context(), paymentID)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, payment)
}

func (h Handler) PutRefundPayment(c echo.Context) error {
	paymentID, err := uuid.Parse(c.Param("payment_id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payment id")
	}

	cmd := entities.RefundPayment{
		Header:    entities.NewEventHeaderWithIdempotencyKey("refund-" + paymentID.String()),
		PaymentID: paymentID,
	}

	if err := h.commandBus.Send(c.Request().Context(), cmd); err != nil {
		return fmt.Errorf("failed to send refund payment command: %w", err)
	}

	return c.NoContent(http.StatusAccepted)
}
