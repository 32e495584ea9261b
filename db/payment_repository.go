package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"moviebooking/entities"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const paymentColumns = `
	payment_id, booking_id, user_id,
	amount AS "amount.amount",
	currency AS "amount.currency",
	status, payment_method, transaction_id, created_at, updated_at, version
`

type PaymentRepository struct {
	db *DB
}

func NewPaymentRepository(db *DB) PaymentRepository {
	if db == nil {
		panic("db is nil")
	}
	return PaymentRepository{
		db: db,
	}
}

// Create persists a new payment. The one-to-one booking relation is
// enforced by the unique constraint on booking_id.
func (pr PaymentRepository) Create(ctx context.Context, payment entities.Payment) error {
	_, err := pr.db.Conn.NamedExecContext(ctx, `
		INSERT INTO
		    payments (payment_id, booking_id, user_id, amount, currency, status,
		              payment_method, transaction_id, created_at, updated_at, version)
		VALUES (:payment_id, :booking_id, :user_id, :amount.amount, :amount.currency, :status,
		        :payment_method, :transaction_id, :created_at, :updated_at, :version)
	`, payment)
	if isErrorUniqueViolation(err) {
		return fmt.Errorf("payment for booking %s: %w", payment.BookingID, entities.ErrAlreadyExists)
	}
	if err != nil {
		return fmt.Errorf("could not add payment: %w", err)
	}

	return nil
}

func (pr PaymentRepository) GetByID(ctx context.Context, paymentID uuid.UUID) (entities.Payment, error) {
	var payment entities.Payment
	err := pr.db.Conn.GetContext(ctx, &payment,
		`SELECT `+paymentColumns+` FROM payments WHERE payment_id = $1`, paymentID)
	if errors.Is(err, sql.ErrNoRows) {
		return entities.Payment{}, fmt.Errorf("payment %s: %w", paymentID, entities.ErrNotFound)
	}
	if err != nil {
		return entities.Payment{}, fmt.Errorf("could not get payment: %w", err)
	}

	return payment, nil
}

func (pr PaymentRepository) GetByBookingID(ctx context.Context, bookingID uuid.UUID) (entities.Payment, error) {
	var payment entities.Payment
	err := pr.db.Conn.GetContext(ctx, &payment,
		`SELECT `+paymentColumns+` FROM payments WHERE booking_id = $1`, bookingID)
	if errors.Is(err, sql.ErrNoRows) {
		return entities.Payment{}, fmt.Errorf("payment for booking %s: %w", bookingID, entities.ErrNotFound)
	}
	if err != nil {
		return entities.Payment{}, fmt.Errorf("could not get payment: %w", err)
	}

	return payment, nil
}

// UpdateByID is a read-modify-write with an optimistic version check: the
// UPDATE only matches the version that was read, so a concurrent writer
// makes the loser fail with ErrInvalidState instead of silently
// overwriting a terminal status.
func (pr PaymentRepository) UpdateByID(
	ctx context.Context,
	paymentID uuid.UUID,
	updateFn func(payment entities.Payment) (entities.Payment, error),
) (entities.Payment, error) {
	var updated entities.Payment

	err := updateInTx(ctx, pr.db.Conn, sql.LevelReadCommitted, func(ctx context.Context, tx *sqlx.Tx) error {
		var payment entities.Payment
		err := tx.GetContext(ctx, &payment,
			`SELECT `+paymentColumns+` FROM payments WHERE payment_id = $1`, paymentID)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("payment %s: %w", paymentID, entities.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("could not get payment: %w", err)
		}

		updated, err = updateFn(payment)
		if err != nil {
			return err
		}

		res, err := tx.ExecContext(ctx, `
			UPDATE payments
			SET status = $2, transaction_id = $3, updated_at = now(), version = version + 1
			WHERE payment_id = $1 AND version = $4
		`, paymentID, updated.Status, updated.TransactionID, payment.Version)
		if err != nil {
			return fmt.Errorf("could not update payment: %w", err)
		}

		rows, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("could not check payment update: %w", err)
		}
		if rows == 0 {
			return fmt.Errorf("payment %s was updated concurrently: %w", paymentID, entities.ErrInvalidState)
		}

		updated.Version = payment.Version + 1
		return nil
	})
	if err != nil {
		return entities.Payment{}, err
	}

	return updated, nil
}
