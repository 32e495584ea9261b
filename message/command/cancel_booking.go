package command

import (
	"context"
	"errors"
	"fmt"

	"moviebooking/entities"

	"github.com/ThreeDotsLabs/go-event-driven/common/log"
)

// CancelBooking releases a still-pending booking. Bookings that already
// reached a terminal state are left alone so redelivered commands ack
// cleanly.
func (h Handler) CancelBooking(ctx context.Context, command *entities.CancelBooking) error {
	logger := log.FromContext(ctx).WithField("booking_id", command.BookingID)

	err := h.bookingCanceller.CancelBooking(ctx, command.BookingID)
	if errors.Is(err, entities.ErrInvalidState) {
		logger.Info("Booking no longer pending, nothing to cancel")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to cancel booking: %w", err)
	}

	logger.Info("Booking cancelled")

	return nil
}
