package event

import (
	"context"

	"moviebooking/api"
	"moviebooking/entities"

	"github.com/google/uuid"
)

type TicketRepository interface {
	Create(ctx context.Context, ticket entities.Ticket) error
	ExistsForBooking(ctx context.Context, bookingID uuid.UUID) (bool, error)
}

type NotificationsService interface {
	Send(ctx context.Context, notification api.Notification) error
}

// Handler hosts the event consumers. Every consumer keys its side effect
// on the booking id and tolerates redelivery.
type Handler struct {
	ticketRepo           TicketRepository
	notificationsService NotificationsService
}

func NewHandler(
	ticketRepo TicketRepository,
	notificationsService NotificationsService,
) Handler {
	if ticketRepo == nil {
		panic("missing ticketRepo")
	}
	if notificationsService == nil {
		panic("missing notificationsService")
	}

	return Handler{
		ticketRepo:           ticketRepo,
		notificationsService: notificationsService,
	}
}
