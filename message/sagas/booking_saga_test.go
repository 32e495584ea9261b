package sagas_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"moviebooking/api"
	"moviebooking/entities"
	"moviebooking/message/sagas"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sagaFixture struct {
	ledger   *fakeSeatLedger
	bookings *fakeBookingRepo
	shows    *fakeShowRepo
	payments *fakePaymentRepo
	gateway  *api.PaymentsGatewayMock

	saga *sagas.BookingSaga
	show entities.Show
}

func newSagaFixture(t *testing.T, holdTTL time.Duration) *sagaFixture {
	t.Helper()

	show := entities.Show{
		ShowID:    uuid.New(),
		TheatreID: uuid.New(),
		MovieID:   uuid.New(),
		Title:     "Blade Runner",
		Venue:     "Screen 1",
		StartTime: time.Now().Add(24 * time.Hour),
		PricePerSeat: entities.Money{
			Amount:   "12.50",
			Currency: "USD",
		},
	}

	f := &sagaFixture{
		ledger:   newFakeSeatLedger(),
		bookings: newFakeBookingRepo(),
		shows:    newFakeShowRepo(show),
		payments: newFakePaymentRepo(),
		gateway:  &api.PaymentsGatewayMock{},
		show:     show,
	}

	orchestrator := sagas.NewPaymentOrchestrator(f.payments, f.gateway, time.Minute)
	f.saga = sagas.NewBookingSaga(f.ledger, f.bookings, f.shows, orchestrator, holdTTL)

	return f
}

func (f *sagaFixture) book(t *testing.T, seats []string, key string) (entities.BookingCreateResponse, error) {
	t.Helper()

	return f.saga.CreateBooking(context.Background(), sagas.BookingRequest{
		ShowID:         f.show.ShowID,
		UserID:         uuid.New(),
		Seats:          seats,
		PaymentMethod:  "card",
		IdempotencyKey: key,
	})
}

func TestCreateBooking_Confirms(t *testing.T) {
	f := newSagaFixture(t, 5*time.Minute)

	resp, err := f.book(t, []string{"A1", "A2"}, uuid.NewString())
	require.NoError(t, err)
	assert.Equal(t, entities.BookingStatusConfirmed, resp.Status)
	require.NotNil(t, resp.PaymentID)

	booking, err := f.bookings.GetByID(context.Background(), resp.BookingID)
	require.NoError(t, err)
	assert.Equal(t, entities.BookingStatusConfirmed, booking.Status)
	assert.Equal(t, "25.00", booking.TotalAmount.Amount)

	assert.Equal(t, entities.SeatStateSold, f.ledger.stateOf(f.show.ShowID, "A1"))
	assert.Equal(t, entities.SeatStateSold, f.ledger.stateOf(f.show.ShowID, "A2"))

	payment, err := f.payments.GetByID(context.Background(), *resp.PaymentID)
	require.NoError(t, err)
	assert.Equal(t, entities.PaymentStatusCompleted, payment.Status)
	assert.Equal(t, 1, f.gateway.ChargeCount(resp.BookingID))

	events := f.bookings.publishedEvents()
	require.Len(t, events, 1)
	confirmed, ok := events[0].(entities.BookingConfirmed_v1)
	require.True(t, ok)
	assert.Equal(t, resp.BookingID, confirmed.BookingID)
	assert.Equal(t, []string{"A1", "A2"}, confirmed.Seats)
}

func TestCreateBooking_PaymentDeclined(t *testing.T) {
	f := newSagaFixture(t, 5*time.Minute)
	f.gateway.NextOutcome = api.OutcomeDeclined

	resp, err := f.book(t, []string{"B1"}, uuid.NewString())
	require.ErrorIs(t, err, entities.ErrPaymentDeclined)
	assert.Empty(t, resp.BookingID)

	// seats freed, no confirmation published
	assert.Equal(t, entities.SeatStateFree, f.ledger.stateOf(f.show.ShowID, "B1"))

	events := f.bookings.publishedEvents()
	require.Len(t, events, 1)
	failed, ok := events[0].(entities.BookingFailed_v1)
	require.True(t, ok)
	assert.Equal(t, []string{"B1"}, failed.Seats)

	// the seat is immediately bookable again
	resp, err = f.book(t, []string{"B1"}, uuid.NewString())
	require.NoError(t, err)
	assert.Equal(t, entities.BookingStatusConfirmed, resp.Status)
}

func TestCreateBooking_GatewayUnavailable(t *testing.T) {
	f := newSagaFixture(t, 5*time.Minute)
	f.gateway.NextErr = entities.ErrPaymentTransient

	_, err := f.book(t, []string{"C1"}, uuid.NewString())
	require.ErrorIs(t, err, entities.ErrPaymentTransient)

	assert.Equal(t, entities.SeatStateFree, f.ledger.stateOf(f.show.ShowID, "C1"))

	// the booking row exists and is terminal
	events := f.bookings.publishedEvents()
	require.Len(t, events, 1)
	failed, ok := events[0].(entities.BookingFailed_v1)
	require.True(t, ok)

	stored, err := f.bookings.GetByID(context.Background(), failed.BookingID)
	require.NoError(t, err)
	assert.Equal(t, entities.BookingStatusPaymentFailed, stored.Status)
}

func TestCreateBooking_SeatConflict(t *testing.T) {
	f := newSagaFixture(t, 5*time.Minute)

	_, err := f.book(t, []string{"D1", "D2"}, uuid.NewString())
	require.NoError(t, err)

	_, err = f.book(t, []string{"D2", "D3"}, uuid.NewString())

	var conflict entities.SeatsConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, []string{"D2"}, conflict.Seats)

	// all-or-nothing: the free seat of the failed request was not kept
	assert.Equal(t, entities.SeatStateFree, f.ledger.stateOf(f.show.ShowID, "D3"))

	// the losing request never reached the gateway
	assert.Len(t, f.gateway.Charges, 1)
}

func TestCreateBooking_DuplicateIdempotencyKey(t *testing.T) {
	f := newSagaFixture(t, 5*time.Minute)
	key := uuid.NewString()

	first, err := f.book(t, []string{"E1"}, key)
	require.NoError(t, err)

	second, err := f.book(t, []string{"E1"}, key)
	require.NoError(t, err)

	assert.Equal(t, first.BookingID, second.BookingID)
	assert.Equal(t, entities.BookingStatusConfirmed, second.Status)

	// exactly one charge, one confirmation
	assert.Equal(t, 1, f.gateway.ChargeCount(first.BookingID))
	assert.Len(t, f.bookings.publishedEvents(), 1)
	assert.Equal(t, entities.SeatStateSold, f.ledger.stateOf(f.show.ShowID, "E1"))
}

func TestCreateBooking_ExpiredHoldIsReservable(t *testing.T) {
	f := newSagaFixture(t, 5*time.Minute)

	// plant an already expired hold from another booking
	staleBooking := uuid.New()
	require.NoError(t, f.ledger.Reserve(context.Background(), f.show.ShowID, []string{"F1"}, staleBooking, -time.Minute))

	resp, err := f.book(t, []string{"F1"}, uuid.NewString())
	require.NoError(t, err)
	assert.Equal(t, entities.BookingStatusConfirmed, resp.Status)
}

func TestCreateBooking_Validation(t *testing.T) {
	f := newSagaFixture(t, 5*time.Minute)

	_, err := f.book(t, nil, uuid.NewString())
	require.ErrorIs(t, err, entities.ErrValidation)

	_, err = f.book(t, []string{"A1", "A1"}, uuid.NewString())
	require.ErrorIs(t, err, entities.ErrValidation)

	// nothing reached the ledger or the gateway
	assert.Equal(t, entities.SeatStateFree, f.ledger.stateOf(f.show.ShowID, "A1"))
	assert.Equal(t, 0, f.gateway.TotalCharges())
}

func TestCreateBooking_PricingFailureReleasesHolds(t *testing.T) {
	f := newSagaFixture(t, 5*time.Minute)

	pricingErr := errors.New("shows table unavailable")
	orchestrator := sagas.NewPaymentOrchestrator(f.payments, f.gateway, time.Minute)
	saga := sagas.NewBookingSaga(f.ledger, f.bookings, pricingFailsShowRepo{f.shows, pricingErr}, orchestrator, 5*time.Minute)

	_, err := saga.CreateBooking(context.Background(), sagas.BookingRequest{
		ShowID:         f.show.ShowID,
		UserID:         uuid.New(),
		Seats:          []string{"L1"},
		PaymentMethod:  "card",
		IdempotencyKey: uuid.NewString(),
	})
	require.ErrorIs(t, err, pricingErr)

	// the hold does not outlive the failed request
	assert.Equal(t, entities.SeatStateFree, f.ledger.stateOf(f.show.ShowID, "L1"))
	assert.Equal(t, 0, f.gateway.TotalCharges())
}

func TestCreateBooking_PersistFailureReleasesHolds(t *testing.T) {
	f := newSagaFixture(t, 5*time.Minute)

	storeErr := errors.New("bookings table unavailable")
	orchestrator := sagas.NewPaymentOrchestrator(f.payments, f.gateway, time.Minute)
	saga := sagas.NewBookingSaga(f.ledger, createFailsBookingRepo{f.bookings, storeErr}, f.shows, orchestrator, 5*time.Minute)

	_, err := saga.CreateBooking(context.Background(), sagas.BookingRequest{
		ShowID:         f.show.ShowID,
		UserID:         uuid.New(),
		Seats:          []string{"M1", "M2"},
		PaymentMethod:  "card",
		IdempotencyKey: uuid.NewString(),
	})
	require.ErrorIs(t, err, storeErr)

	assert.Equal(t, entities.SeatStateFree, f.ledger.stateOf(f.show.ShowID, "M1"))
	assert.Equal(t, entities.SeatStateFree, f.ledger.stateOf(f.show.ShowID, "M2"))
	assert.Equal(t, 0, f.gateway.TotalCharges())
}

func TestCreateBooking_UnknownShow(t *testing.T) {
	f := newSagaFixture(t, 5*time.Minute)

	_, err := f.saga.CreateBooking(context.Background(), sagas.BookingRequest{
		ShowID:         uuid.New(),
		UserID:         uuid.New(),
		Seats:          []string{"A1"},
		PaymentMethod:  "card",
		IdempotencyKey: uuid.NewString(),
	})
	require.ErrorIs(t, err, entities.ErrNotFound)
}

func TestCancelBooking(t *testing.T) {
	f := newSagaFixture(t, 5*time.Minute)

	// a pending booking holding a seat, payment never attempted
	bookingID := uuid.New()
	require.NoError(t, f.ledger.Reserve(context.Background(), f.show.ShowID, []string{"G1"}, bookingID, 5*time.Minute))
	require.NoError(t, f.bookings.Create(context.Background(), entities.Booking{
		BookingID:      bookingID,
		ShowID:         f.show.ShowID,
		UserID:         uuid.New(),
		Seats:          []string{"G1"},
		Status:         entities.BookingStatusPending,
		IdempotencyKey: uuid.NewString(),
		BookedAt:       time.Now().UTC(),
	}))

	require.NoError(t, f.saga.CancelBooking(context.Background(), bookingID))

	booking, err := f.bookings.GetByID(context.Background(), bookingID)
	require.NoError(t, err)
	assert.Equal(t, entities.BookingStatusCancelled, booking.Status)
	assert.Equal(t, entities.SeatStateFree, f.ledger.stateOf(f.show.ShowID, "G1"))

	// second cancel is a state violation, the command handler acks it
	err = f.saga.CancelBooking(context.Background(), bookingID)
	require.ErrorIs(t, err, entities.ErrInvalidState)
}

func TestCancelBooking_Confirmed(t *testing.T) {
	f := newSagaFixture(t, 5*time.Minute)

	resp, err := f.book(t, []string{"H1"}, uuid.NewString())
	require.NoError(t, err)

	err = f.saga.CancelBooking(context.Background(), resp.BookingID)
	require.ErrorIs(t, err, entities.ErrInvalidState)

	// the sale stands
	assert.Equal(t, entities.SeatStateSold, f.ledger.stateOf(f.show.ShowID, "H1"))
}

func TestCancelBooking_NotFound(t *testing.T) {
	f := newSagaFixture(t, 5*time.Minute)

	err := f.saga.CancelBooking(context.Background(), uuid.New())
	require.ErrorIs(t, err, entities.ErrNotFound)
}

func TestSweeper(t *testing.T) {
	f := newSagaFixture(t, 5*time.Minute)
	sweeper := sagas.NewSweeper(f.ledger, f.bookings, f.saga, 2*time.Minute)

	// a booking stuck in PENDING past the payment deadline
	bookingID := uuid.New()
	require.NoError(t, f.ledger.Reserve(context.Background(), f.show.ShowID, []string{"J1"}, bookingID, 5*time.Minute))
	require.NoError(t, f.bookings.Create(context.Background(), entities.Booking{
		BookingID:      bookingID,
		ShowID:         f.show.ShowID,
		UserID:         uuid.New(),
		Seats:          []string{"J1"},
		Status:         entities.BookingStatusPending,
		IdempotencyKey: uuid.NewString(),
		BookedAt:       time.Now().UTC().Add(-10 * time.Minute),
	}))

	// and a healthy pending one inside the deadline
	freshID := uuid.New()
	require.NoError(t, f.ledger.Reserve(context.Background(), f.show.ShowID, []string{"J2"}, freshID, 5*time.Minute))
	require.NoError(t, f.bookings.Create(context.Background(), entities.Booking{
		BookingID:      freshID,
		ShowID:         f.show.ShowID,
		UserID:         uuid.New(),
		Seats:          []string{"J2"},
		Status:         entities.BookingStatusPending,
		IdempotencyKey: uuid.NewString(),
		BookedAt:       time.Now().UTC(),
	}))

	require.NoError(t, sweeper.Sweep(context.Background(), time.Now().UTC()))

	stale, err := f.bookings.GetByID(context.Background(), bookingID)
	require.NoError(t, err)
	assert.Equal(t, entities.BookingStatusPaymentFailed, stale.Status)
	assert.Equal(t, entities.SeatStateFree, f.ledger.stateOf(f.show.ShowID, "J1"))

	fresh, err := f.bookings.GetByID(context.Background(), freshID)
	require.NoError(t, err)
	assert.Equal(t, entities.BookingStatusPending, fresh.Status)
	assert.Equal(t, entities.SeatStateHeld, f.ledger.stateOf(f.show.ShowID, "J2"))

	// a second pass finds nothing left to do
	require.NoError(t, sweeper.Sweep(context.Background(), time.Now().UTC()))
	assert.Len(t, f.bookings.publishedEvents(), 1)
}

func TestSweeper_ExpiresHolds(t *testing.T) {
	f := newSagaFixture(t, 5*time.Minute)
	sweeper := sagas.NewSweeper(f.ledger, f.bookings, f.saga, 2*time.Minute)

	bookingID := uuid.New()
	require.NoError(t, f.ledger.Reserve(context.Background(), f.show.ShowID, []string{"K1"}, bookingID, -time.Minute))

	require.NoError(t, sweeper.Sweep(context.Background(), time.Now().UTC()))
	assert.Equal(t, entities.SeatStateFree, f.ledger.stateOf(f.show.ShowID, "K1"))
}
