package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	"moviebooking/entities"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// SeatLedgerRepository owns the per-(show, seat) occupancy state. Every
// operation that touches a show's seat set takes a row lock on the show,
// so reservations for the same show serialize while different shows never
// block each other.
type SeatLedgerRepository struct {
	db *DB
}

func NewSeatLedgerRepository(db *DB) SeatLedgerRepository {
	if db == nil {
		panic("db is nil")
	}
	return SeatLedgerRepository{
		db: db,
	}
}

// Reserve holds every requested seat for bookingID, or none of them.
// Seats that are SOLD, or HELD by another booking with an unexpired hold,
// are reported via entities.SeatsConflictError. A seat whose hold has
// expired is reservable again without waiting for the sweeper.
func (r SeatLedgerRepository) Reserve(
	ctx context.Context,
	showID uuid.UUID,
	seats []string,
	bookingID uuid.UUID,
	holdTTL time.Duration,
) error {
	now := time.Now().UTC()
	expiresAt := now.Add(holdTTL)

	return updateInTx(ctx, r.db.Conn, sql.LevelReadCommitted, func(ctx context.Context, tx *sqlx.Tx) error {
		if err := r.lockShow(ctx, tx, showID); err != nil {
			return err
		}

		var existing []entities.SeatReservation
		err := tx.SelectContext(ctx, &existing, `
			SELECT
			    show_id, seat_label, state, booking_id, hold_expires_at
			FROM
			    seat_reservations
			WHERE
			    show_id = $1 AND seat_label = ANY($2)
		`, showID, pq.Array(seats))
		if err != nil {
			return fmt.Errorf("could not get seat reservations: %w", err)
		}

		var conflicts []string
		for _, seat := range existing {
			if seatTaken(seat, bookingID, now) {
				conflicts = append(conflicts, seat.SeatLabel)
			}
		}
		if len(conflicts) > 0 {
			sort.Strings(conflicts)
			return entities.SeatsConflictError{Seats: conflicts}
		}

		for _, label := range seats {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO
				    seat_reservations (show_id, seat_label, state, booking_id, hold_expires_at)
				VALUES
				    ($1, $2, 'HELD', $3, $4)
				ON CONFLICT (show_id, seat_label) DO UPDATE
				    SET state = 'HELD', booking_id = $3, hold_expires_at = $4
			`, showID, label, bookingID, expiresAt)
			if err != nil {
				return fmt.Errorf("could not hold seat %s: %w", label, err)
			}
		}

		return nil
	})
}

// Confirm moves seats HELD by bookingID to SOLD. It fails with
// ErrInvalidState when any seat is not currently held by this booking
// (double-confirm or stale caller).
func (r SeatLedgerRepository) Confirm(
	ctx context.Context,
	showID uuid.UUID,
	seats []string,
	bookingID uuid.UUID,
) error {
	return updateInTx(ctx, r.db.Conn, sql.LevelReadCommitted, func(ctx context.Context, tx *sqlx.Tx) error {
		if err := r.lockShow(ctx, tx, showID); err != nil {
			return err
		}

		held := 0
		err := tx.GetContext(ctx, &held, `
			SELECT
			    count(*)
			FROM
			    seat_reservations
			WHERE
			    show_id = $1 AND seat_label = ANY($2) AND state = 'HELD' AND booking_id = $3
		`, showID, pq.Array(seats), bookingID)
		if err != nil {
			return fmt.Errorf("could not check seat holds: %w", err)
		}
		if held != len(seats) {
			return fmt.Errorf("%d of %d seats not held by booking %s: %w", len(seats)-held, len(seats), bookingID, entities.ErrInvalidState)
		}

		_, err = tx.ExecContext(ctx, `
			UPDATE seat_reservations
			SET state = 'SOLD', hold_expires_at = NULL
			WHERE show_id = $1 AND seat_label = ANY($2) AND booking_id = $3
		`, showID, pq.Array(seats), bookingID)
		if err != nil {
			return fmt.Errorf("could not confirm seats: %w", err)
		}

		return nil
	})
}

// Release frees seats HELD by bookingID. Seats that are already FREE (or
// re-held by another booking after expiry) are skipped, so retried
// compensations are no-op successes. Releasing a seat this booking already
// bought is a protocol violation.
func (r SeatLedgerRepository) Release(
	ctx context.Context,
	showID uuid.UUID,
	seats []string,
	bookingID uuid.UUID,
) error {
	return updateInTx(ctx, r.db.Conn, sql.LevelReadCommitted, func(ctx context.Context, tx *sqlx.Tx) error {
		if err := r.lockShow(ctx, tx, showID); err != nil {
			return err
		}

		sold := 0
		err := tx.GetContext(ctx, &sold, `
			SELECT
			    count(*)
			FROM
			    seat_reservations
			WHERE
			    show_id = $1 AND seat_label = ANY($2) AND state = 'SOLD' AND booking_id = $3
		`, showID, pq.Array(seats), bookingID)
		if err != nil {
			return fmt.Errorf("could not check sold seats: %w", err)
		}
		if sold > 0 {
			return fmt.Errorf("releasing %d sold seats of booking %s: %w", sold, bookingID, entities.ErrInvalidState)
		}

		_, err = tx.ExecContext(ctx, `
			UPDATE seat_reservations
			SET state = 'FREE', booking_id = NULL, hold_expires_at = NULL
			WHERE show_id = $1 AND seat_label = ANY($2) AND state = 'HELD' AND booking_id = $3
		`, showID, pq.Array(seats), bookingID)
		if err != nil {
			return fmt.Errorf("could not release seats: %w", err)
		}

		return nil
	})
}

// ExpireHolds frees every hold whose expiry has passed and returns how
// many seats it released. Running it twice with no new activity in between
// releases nothing the second time.
func (r SeatLedgerRepository) ExpireHolds(ctx context.Context, now time.Time) (int, error) {
	res, err := r.db.Conn.ExecContext(ctx, `
		UPDATE seat_reservations
		SET state = 'FREE', booking_id = NULL, hold_expires_at = NULL
		WHERE state = 'HELD' AND hold_expires_at <= $1
	`, now.UTC())
	if err != nil {
		return 0, fmt.Errorf("could not expire holds: %w", err)
	}

	expired, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("could not count expired holds: %w", err)
	}

	return int(expired), nil
}

func (r SeatLedgerRepository) SeatsForShow(ctx context.Context, showID uuid.UUID) ([]entities.SeatReservation, error) {
	var seats []entities.SeatReservation
	err := r.db.Conn.SelectContext(ctx, &seats, `
		SELECT
		    show_id, seat_label, state, booking_id, hold_expires_at
		FROM
		    seat_reservations
		WHERE
		    show_id = $1
		ORDER BY seat_label
	`, showID)
	if err != nil {
		return nil, fmt.Errorf("could not get seats for show: %w", err)
	}

	return seats, nil
}

func (r SeatLedgerRepository) lockShow(ctx context.Context, tx *sqlx.Tx, showID uuid.UUID) error {
	var one int
	err := tx.GetContext(ctx, &one, `SELECT 1 FROM shows WHERE show_id = $1 FOR UPDATE`, showID)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("show %s: %w", showID, entities.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("could not lock show: %w", err)
	}
	return nil
}

func seatTaken(seat entities.SeatReservation, bookingID uuid.UUID, now time.Time) bool {
	switch seat.State {
	case entities.SeatStateSold:
		return true
	case entities.SeatStateHeld:
		if seat.BookingID != nil && *seat.BookingID == bookingID {
			return false
		}
		return seat.HoldExpiresAt == nil || seat.HoldExpiresAt.After(now)
	default:
		return false
	}
}
