package db

import (
	"context"
	"fmt"

	"moviebooking/entities"

	"github.com/google/uuid"
)

// SeatsSoldReadModel materializes which seats were sold per show, fed by
// BookingConfirmed events. The upsert keyed by (show, seat) makes
// redelivered events a no-op.
type SeatsSoldReadModel struct {
	db *DB
}

func NewSeatsSoldReadModel(db *DB) SeatsSoldReadModel {
	if db == nil {
		panic("db is nil")
	}
	return SeatsSoldReadModel{
		db: db,
	}
}

func (r SeatsSoldReadModel) OnBookingConfirmed(ctx context.Context, event *entities.BookingConfirmed_v1) error {
	for _, seat := range event.Seats {
		_, err := r.db.Conn.ExecContext(ctx, `
			INSERT INTO
			    read_model_seats_sold (show_id, seat_label, booking_id, sold_at)
			VALUES
			    ($1, $2, $3, $4)
			ON CONFLICT (show_id, seat_label) DO NOTHING
		`, event.ShowID, seat, event.BookingID, event.ConfirmedAt)
		if err != nil {
			return fmt.Errorf("could not mark seat %s sold: %w", seat, err)
		}
	}

	return nil
}

func (r SeatsSoldReadModel) SoldSeats(ctx context.Context, showID uuid.UUID) ([]string, error) {
	var seats []string
	err := r.db.Conn.SelectContext(ctx, &seats, `
		SELECT seat_label FROM read_model_seats_sold WHERE show_id = $1 ORDER BY seat_label
	`, showID)
	if err != nil {
		return nil, fmt.Errorf("could not get sold seats: %w", err)
	}

	return seats, nil
}
