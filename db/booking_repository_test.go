package db_test

import (
	"context"
	"testing"
	"time"

	"moviebooking/db"
	"moviebooking/entities"
	"moviebooking/message/outbox"

	"github.com/ThreeDotsLabs/go-event-driven/common/log"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func initOutbox(t *testing.T, conn db.DB) {
	t.Helper()

	// the outbox table is normally created by the service's subscriber
	outbox.SubscribeForPGMessages(conn.Conn, log.NewWatermill(log.FromContext(context.Background())))
}

func pendingBooking(showID uuid.UUID) entities.Booking {
	return entities.Booking{
		BookingID:      uuid.New(),
		ShowID:         showID,
		TheatreID:      uuid.New(),
		MovieID:        uuid.New(),
		UserID:         uuid.New(),
		Seats:          []string{"A1"},
		TotalAmount:    entities.Money{Amount: "10.00", Currency: "USD"},
		Status:         entities.BookingStatusPending,
		IdempotencyKey: uuid.NewString(),
		BookedAt:       time.Now().UTC(),
	}
}

func TestBookingRepository_IdempotencyKeyUnique(t *testing.T) {
	conn := getTestDB(t)
	repo := db.NewBookingRepository(&conn)
	showID := createTestShow(t, conn)
	ctx := context.Background()

	booking := pendingBooking(showID)
	require.NoError(t, repo.Create(ctx, booking))

	duplicate := pendingBooking(showID)
	duplicate.IdempotencyKey = booking.IdempotencyKey
	err := repo.Create(ctx, duplicate)
	require.ErrorIs(t, err, entities.ErrAlreadyExists)

	found, err := repo.GetByIdempotencyKey(ctx, booking.IdempotencyKey)
	require.NoError(t, err)
	assert.Equal(t, booking.BookingID, found.BookingID)
}

func TestBookingRepository_TransitionIsFinal(t *testing.T) {
	conn := getTestDB(t)
	initOutbox(t, conn)
	repo := db.NewBookingRepository(&conn)
	showID := createTestShow(t, conn)
	ctx := context.Background()

	booking := pendingBooking(showID)
	require.NoError(t, repo.Create(ctx, booking))

	paymentID := uuid.New()
	confirmed := entities.BookingConfirmed_v1{
		Header:      entities.NewEventHeader(),
		BookingID:   booking.BookingID,
		UserID:      booking.UserID,
		ShowID:      booking.ShowID,
		Seats:       booking.Seats,
		TotalAmount: booking.TotalAmount,
		PaymentID:   paymentID,
	}

	require.NoError(t, repo.MarkConfirmed(ctx, booking.BookingID, paymentID, confirmed))

	stored, err := repo.GetByID(ctx, booking.BookingID)
	require.NoError(t, err)
	assert.Equal(t, entities.BookingStatusConfirmed, stored.Status)
	require.NotNil(t, stored.PaymentID)
	assert.Equal(t, paymentID, *stored.PaymentID)
	assert.Equal(t, booking.Version+1, stored.Version)

	// a terminal booking rejects every further transition
	err = repo.MarkCancelled(ctx, booking.BookingID, entities.BookingCancelled_v1{
		Header:    entities.NewEventHeader(),
		BookingID: booking.BookingID,
	})
	require.ErrorIs(t, err, entities.ErrInvalidState)

	err = repo.MarkConfirmed(ctx, booking.BookingID, paymentID, confirmed)
	require.ErrorIs(t, err, entities.ErrInvalidState)
}

func TestBookingRepository_FindStalePending(t *testing.T) {
	conn := getTestDB(t)
	repo := db.NewBookingRepository(&conn)
	showID := createTestShow(t, conn)
	ctx := context.Background()

	stale := pendingBooking(showID)
	stale.BookedAt = time.Now().UTC().Add(-10 * time.Minute)
	require.NoError(t, repo.Create(ctx, stale))

	fresh := pendingBooking(showID)
	require.NoError(t, repo.Create(ctx, fresh))

	found, err := repo.FindStalePending(ctx, time.Now().UTC().Add(-5*time.Minute))
	require.NoError(t, err)

	ids := make(map[uuid.UUID]bool)
	for _, b := range found {
		ids[b.BookingID] = true
	}
	assert.True(t, ids[stale.BookingID])
	assert.False(t, ids[fresh.BookingID])
}
