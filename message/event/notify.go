package event

import (
	"context"
	"fmt"
	"strings"

	"moviebooking/api"
	"moviebooking/entities"

	"github.com/ThreeDotsLabs/go-event-driven/common/log"
)

func (h Handler) NotifyBookingConfirmed(ctx context.Context, event *entities.BookingConfirmed_v1) error {
	log.FromContext(ctx).WithField("booking_id", event.BookingID).Info("Sending booking confirmation")

	return h.notificationsService.Send(ctx, api.Notification{
		IdempotencyKey: "booking-confirmed-" + event.BookingID.String(),
		UserID:         event.UserID,
		Title:          "Booking confirmed",
		Body: fmt.Sprintf(
			"Your booking for seats %s is confirmed. Total charged: %s %s.",
			strings.Join(event.Seats, ", "),
			event.TotalAmount.Amount,
			event.TotalAmount.Currency,
		),
	})
}

func (h Handler) NotifyBookingFailed(ctx context.Context, event *entities.BookingFailed_v1) error {
	log.FromContext(ctx).WithField("booking_id", event.BookingID).Info("Sending booking failure notice")

	return h.notificationsService.Send(ctx, api.Notification{
		IdempotencyKey: "booking-failed-" + event.BookingID.String(),
		UserID:         event.UserID,
		Title:          "Booking failed",
		Body: fmt.Sprintf(
			"We could not complete your booking for seats %s: %s. Your seats were released and no charge was kept.",
			strings.Join(event.Seats, ", "),
			event.Reason,
		),
	})
}
