package event

import (
	"context"
	"fmt"
	"time"

	"moviebooking/entities"

	"github.com/ThreeDotsLabs/go-event-driven/common/log"
	"github.com/google/uuid"
)

// IssueTicket materializes a ticket for a confirmed booking. Redelivered
// events find the existing ticket and do nothing.
func (h Handler) IssueTicket(ctx context.Context, event *entities.BookingConfirmed_v1) error {
	logger := log.FromContext(ctx).WithField("booking_id", event.BookingID)

	exists, err := h.ticketRepo.ExistsForBooking(ctx, event.BookingID)
	if err != nil {
		return fmt.Errorf("failed to check for existing ticket: %w", err)
	}
	if exists {
		logger.Info("Ticket already issued for booking")
		return nil
	}

	logger.Info("Issuing ticket")

	return h.ticketRepo.Create(ctx, entities.Ticket{
		TicketID:      uuid.New(),
		BookingID:     event.BookingID,
		UserID:        event.UserID,
		ShowID:        event.ShowID,
		TheatreID:     event.TheatreID,
		MovieID:       event.MovieID,
		Seats:         event.Seats,
		Amount:        event.TotalAmount,
		PaymentID:     event.PaymentID,
		ShowStartTime: event.ShowStartTime,
		IssuedAt:      time.Now().UTC(),
	})
}
