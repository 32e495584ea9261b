package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"moviebooking/entities"
	"moviebooking/message/event"
	"moviebooking/message/outbox"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const bookingColumns = `
	booking_id, show_id, theatre_id, movie_id, user_id, seats,
	total_amount AS "total.amount",
	total_currency AS "total.currency",
	status, payment_id, idempotency_key, booked_at, version
`

type BookingRepository struct {
	db *DB
}

func NewBookingRepository(db *DB) BookingRepository {
	if db == nil {
		panic("db is nil")
	}
	return BookingRepository{
		db: db,
	}
}

// Create persists a new PENDING booking. A second booking bearing the same
// idempotency key fails with ErrAlreadyExists; the caller resolves to the
// existing booking instead.
func (br BookingRepository) Create(ctx context.Context, booking entities.Booking) error {
	_, err := br.db.Conn.NamedExecContext(ctx, `
		INSERT INTO
		    bookings (booking_id, show_id, theatre_id, movie_id, user_id, seats,
		              total_amount, total_currency, status, payment_id,
		              idempotency_key, booked_at, version)
		VALUES (:booking_id, :show_id, :theatre_id, :movie_id, :user_id, :seats,
		        :total.amount, :total.currency, :status, :payment_id,
		        :idempotency_key, :booked_at, :version)
	`, booking)
	if isErrorUniqueViolation(err) {
		return fmt.Errorf("booking with idempotency key %s: %w", booking.IdempotencyKey, entities.ErrAlreadyExists)
	}
	if err != nil {
		return fmt.Errorf("could not add booking: %w", err)
	}

	return nil
}

func (br BookingRepository) GetByID(ctx context.Context, bookingID uuid.UUID) (entities.Booking, error) {
	var booking entities.Booking
	err := br.db.Conn.GetContext(ctx, &booking,
		`SELECT `+bookingColumns+` FROM bookings WHERE booking_id = $1`, bookingID)
	if errors.Is(err, sql.ErrNoRows) {
		return entities.Booking{}, fmt.Errorf("booking %s: %w", bookingID, entities.ErrNotFound)
	}
	if err != nil {
		return entities.Booking{}, fmt.Errorf("could not get booking: %w", err)
	}

	return booking, nil
}

func (br BookingRepository) GetByIdempotencyKey(ctx context.Context, key string) (entities.Booking, error) {
	var booking entities.Booking
	err := br.db.Conn.GetContext(ctx, &booking,
		`SELECT `+bookingColumns+` FROM bookings WHERE idempotency_key = $1`, key)
	if errors.Is(err, sql.ErrNoRows) {
		return entities.Booking{}, fmt.Errorf("booking for idempotency key: %w", entities.ErrNotFound)
	}
	if err != nil {
		return entities.Booking{}, fmt.Errorf("could not get booking: %w", err)
	}

	return booking, nil
}

func (br BookingRepository) GetByUserID(ctx context.Context, userID uuid.UUID) ([]entities.Booking, error) {
	var bookings []entities.Booking
	err := br.db.Conn.SelectContext(ctx, &bookings,
		`SELECT `+bookingColumns+` FROM bookings WHERE user_id = $1 ORDER BY booked_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("could not get bookings for user: %w", err)
	}

	return bookings, nil
}

// MarkConfirmed moves a PENDING booking to CONFIRMED and publishes the
// confirmation fact through the outbox in the same transaction, so the
// status change and the event either both happen or neither does.
func (br BookingRepository) MarkConfirmed(
	ctx context.Context,
	bookingID uuid.UUID,
	paymentID uuid.UUID,
	confirmed entities.BookingConfirmed_v1,
) error {
	return updateInTx(ctx, br.db.Conn, sql.LevelRepeatableRead, func(ctx context.Context, tx *sqlx.Tx) error {
		if err := br.transition(ctx, tx, bookingID, entities.BookingStatusConfirmed, &paymentID); err != nil {
			return err
		}

		return br.publishInTx(ctx, tx, confirmed)
	})
}

// MarkFailed moves a PENDING booking to PAYMENT_FAILED after compensation.
func (br BookingRepository) MarkFailed(
	ctx context.Context,
	bookingID uuid.UUID,
	paymentID *uuid.UUID,
	failed entities.BookingFailed_v1,
) error {
	return updateInTx(ctx, br.db.Conn, sql.LevelRepeatableRead, func(ctx context.Context, tx *sqlx.Tx) error {
		if err := br.transition(ctx, tx, bookingID, entities.BookingStatusPaymentFailed, paymentID); err != nil {
			return err
		}

		return br.publishInTx(ctx, tx, failed)
	})
}

// MarkCancelled moves a PENDING booking to CANCELLED.
func (br BookingRepository) MarkCancelled(
	ctx context.Context,
	bookingID uuid.UUID,
	cancelled entities.BookingCancelled_v1,
) error {
	return updateInTx(ctx, br.db.Conn, sql.LevelRepeatableRead, func(ctx context.Context, tx *sqlx.Tx) error {
		if err := br.transition(ctx, tx, bookingID, entities.BookingStatusCancelled, nil); err != nil {
			return err
		}

		return br.publishInTx(ctx, tx, cancelled)
	})
}

// FindStalePending returns PENDING bookings created before the deadline,
// candidates for the sweeper's compensation pass.
func (br BookingRepository) FindStalePending(ctx context.Context, olderThan time.Time) ([]entities.Booking, error) {
	var bookings []entities.Booking
	err := br.db.Conn.SelectContext(ctx, &bookings,
		`SELECT `+bookingColumns+` FROM bookings WHERE status = $1 AND booked_at <= $2`,
		entities.BookingStatusPending, olderThan.UTC())
	if err != nil {
		return nil, fmt.Errorf("could not find stale pending bookings: %w", err)
	}

	return bookings, nil
}

// transition is the single write path for booking status. The WHERE clause
// doubles as the optimistic check: only a PENDING row matches, so stale
// retries and duplicate events fail with ErrInvalidState instead of
// overwriting a terminal state.
func (br BookingRepository) transition(
	ctx context.Context,
	tx *sqlx.Tx,
	bookingID uuid.UUID,
	to entities.BookingStatus,
	paymentID *uuid.UUID,
) error {
	res, err := tx.ExecContext(ctx, `
		UPDATE bookings
		SET status = $2, payment_id = COALESCE($3, payment_id), version = version + 1
		WHERE booking_id = $1 AND status = $4
	`, bookingID, to, paymentID, entities.BookingStatusPending)
	if err != nil {
		return fmt.Errorf("could not update booking: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("could not check booking update: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("booking %s is not PENDING: %w", bookingID, entities.ErrInvalidState)
	}

	return nil
}

func (br BookingRepository) publishInTx(ctx context.Context, tx *sqlx.Tx, e entities.IEvent) error {
	outboxPublisher, err := outbox.NewPublisherForDb(ctx, tx)
	if err != nil {
		return fmt.Errorf("could not create outbox publisher: %w", err)
	}

	if err := event.NewBus(outboxPublisher).Publish(ctx, e); err != nil {
		return fmt.Errorf("could not publish event: %w", err)
	}

	return nil
}
