package db_test

import (
	"context"
	"testing"
	"time"

	"moviebooking/db"
	"moviebooking/entities"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPayment() entities.Payment {
	now := time.Now().UTC()
	return entities.Payment{
		PaymentID:     uuid.New(),
		BookingID:     uuid.New(),
		UserID:        uuid.New(),
		Amount:        entities.Money{Amount: "20.00", Currency: "USD"},
		Status:        entities.PaymentStatusPending,
		PaymentMethod: "card",
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

func TestPaymentRepository_OnePaymentPerBooking(t *testing.T) {
	conn := getTestDB(t)
	repo := db.NewPaymentRepository(&conn)
	ctx := context.Background()

	payment := newPayment()
	require.NoError(t, repo.Create(ctx, payment))

	second := newPayment()
	second.BookingID = payment.BookingID
	err := repo.Create(ctx, second)
	require.ErrorIs(t, err, entities.ErrAlreadyExists)
}

func TestPaymentRepository_UpdateByID(t *testing.T) {
	conn := getTestDB(t)
	repo := db.NewPaymentRepository(&conn)
	ctx := context.Background()

	payment := newPayment()
	require.NoError(t, repo.Create(ctx, payment))

	txID := uuid.NewString()
	updated, err := repo.UpdateByID(ctx, payment.PaymentID, func(p entities.Payment) (entities.Payment, error) {
		p.Status = entities.PaymentStatusCompleted
		p.TransactionID = &txID
		return p, nil
	})
	require.NoError(t, err)
	assert.Equal(t, entities.PaymentStatusCompleted, updated.Status)
	assert.Equal(t, payment.Version+1, updated.Version)

	stored, err := repo.GetByBookingID(ctx, payment.BookingID)
	require.NoError(t, err)
	assert.Equal(t, entities.PaymentStatusCompleted, stored.Status)
	require.NotNil(t, stored.TransactionID)
	assert.Equal(t, txID, *stored.TransactionID)
}

func TestPaymentRepository_UpdateNotFound(t *testing.T) {
	conn := getTestDB(t)
	repo := db.NewPaymentRepository(&conn)

	_, err := repo.UpdateByID(context.Background(), uuid.New(), func(p entities.Payment) (entities.Payment, error) {
		return p, nil
	})
	require.ErrorIs(t, err, entities.ErrNotFound)
}
