package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"moviebooking/entities"

	"github.com/google/uuid"
)

const ticketColumns = `
	ticket_id, booking_id, user_id, show_id, theatre_id, movie_id, seats,
	amount AS "amount.amount",
	currency AS "amount.currency",
	payment_id, show_start_time, issued_at
`

type TicketRepository struct {
	db *DB
}

func NewTicketRepository(db *DB) TicketRepository {
	if db == nil {
		panic("db is nil")
	}
	return TicketRepository{
		db: db,
	}
}

// Create is idempotent per booking: redelivered confirmation events insert
// nothing thanks to the unique booking_id.
func (tr TicketRepository) Create(ctx context.Context, ticket entities.Ticket) error {
	_, err := tr.db.Conn.NamedExecContext(ctx, `
		INSERT INTO
		    tickets (ticket_id, booking_id, user_id, show_id, theatre_id, movie_id,
		             seats, amount, currency, payment_id, show_start_time, issued_at)
		VALUES (:ticket_id, :booking_id, :user_id, :show_id, :theatre_id, :movie_id,
		        :seats, :amount.amount, :amount.currency, :payment_id, :show_start_time, :issued_at)
		ON CONFLICT (booking_id) DO NOTHING
	`, ticket)
	if err != nil {
		return fmt.Errorf("could not save ticket: %w", err)
	}

	return nil
}

func (tr TicketRepository) ExistsForBooking(ctx context.Context, bookingID uuid.UUID) (bool, error) {
	var exists bool
	err := tr.db.Conn.GetContext(ctx, &exists,
		`SELECT EXISTS (SELECT 1 FROM tickets WHERE booking_id = $1)`, bookingID)
	if err != nil {
		return false, fmt.Errorf("could not check if ticket exists: %w", err)
	}

	return exists, nil
}

func (tr TicketRepository) GetByBookingID(ctx context.Context, bookingID uuid.UUID) (entities.Ticket, error) {
	var ticket entities.Ticket
	err := tr.db.Conn.GetContext(ctx, &ticket,
		`SELECT `+ticketColumns+` FROM tickets WHERE booking_id = $1`, bookingID)
	if errors.Is(err, sql.ErrNoRows) {
		return entities.Ticket{}, fmt.Errorf("ticket for booking %s: %w", bookingID, entities.ErrNotFound)
	}
	if err != nil {
		return entities.Ticket{}, fmt.Errorf("could not get ticket: %w", err)
	}

	return ticket, nil
}

func (tr TicketRepository) Get(ctx context.Context) ([]entities.Ticket, error) {
	var tickets []entities.Ticket
	err := tr.db.Conn.SelectContext(ctx, &tickets,
		`SELECT `+ticketColumns+` FROM tickets ORDER BY issued_at`)
	if err != nil {
		return nil, fmt.Errorf("could not get tickets: %w", err)
	}

	return tickets, nil
}
