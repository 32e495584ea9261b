package sagas_test

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"moviebooking/entities"

	"github.com/google/uuid"
)

type fakeSeatLedger struct {
	mu    sync.Mutex
	seats map[string]entities.SeatReservation
}

func newFakeSeatLedger() *fakeSeatLedger {
	return &fakeSeatLedger{seats: map[string]entities.SeatReservation{}}
}

func seatKey(showID uuid.UUID, label string) string {
	return showID.String() + "/" + label
}

func (l *fakeSeatLedger) Reserve(ctx context.Context, showID uuid.UUID, seats []string, bookingID uuid.UUID, holdTTL time.Duration) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now().UTC()

	var conflicts []string
	for _, label := range seats {
		seat, ok := l.seats[seatKey(showID, label)]
		if !ok {
			continue
		}
		switch seat.State {
		case entities.SeatStateSold:
			conflicts = append(conflicts, label)
		case entities.SeatStateHeld:
			if seat.BookingID != nil && *seat.BookingID == bookingID {
				continue
			}
			if seat.HoldExpiresAt == nil || seat.HoldExpiresAt.After(now) {
				conflicts = append(conflicts, label)
			}
		}
	}
	if len(conflicts) > 0 {
		return entities.SeatsConflictError{Seats: conflicts}
	}

	expiresAt := now.Add(holdTTL)
	for _, label := range seats {
		id := bookingID
		exp := expiresAt
		l.seats[seatKey(showID, label)] = entities.SeatReservation{
			ShowID:        showID,
			SeatLabel:     label,
			State:         entities.SeatStateHeld,
			BookingID:     &id,
			HoldExpiresAt: &exp,
		}
	}

	return nil
}

func (l *fakeSeatLedger) Confirm(ctx context.Context, showID uuid.UUID, seats []string, bookingID uuid.UUID) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, label := range seats {
		seat := l.seats[seatKey(showID, label)]
		if seat.State != entities.SeatStateHeld || seat.BookingID == nil || *seat.BookingID != bookingID {
			return fmt.Errorf("seat %s not held by booking %s: %w", label, bookingID, entities.ErrInvalidState)
		}
	}

	for _, label := range seats {
		seat := l.seats[seatKey(showID, label)]
		seat.State = entities.SeatStateSold
		seat.HoldExpiresAt = nil
		l.seats[seatKey(showID, label)] = seat
	}

	return nil
}

func (l *fakeSeatLedger) Release(ctx context.Context, showID uuid.UUID, seats []string, bookingID uuid.UUID) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, label := range seats {
		seat := l.seats[seatKey(showID, label)]
		if seat.State == entities.SeatStateSold && seat.BookingID != nil && *seat.BookingID == bookingID {
			return fmt.Errorf("seat %s already sold: %w", label, entities.ErrInvalidState)
		}
	}

	for _, label := range seats {
		seat := l.seats[seatKey(showID, label)]
		if seat.State == entities.SeatStateHeld && seat.BookingID != nil && *seat.BookingID == bookingID {
			l.seats[seatKey(showID, label)] = entities.SeatReservation{
				ShowID:    showID,
				SeatLabel: label,
				State:     entities.SeatStateFree,
			}
		}
	}

	return nil
}

func (l *fakeSeatLedger) ExpireHolds(ctx context.Context, now time.Time) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	expired := 0
	for key, seat := range l.seats {
		if seat.State == entities.SeatStateHeld && seat.HoldExpiresAt != nil && !seat.HoldExpiresAt.After(now) {
			l.seats[key] = entities.SeatReservation{
				ShowID:    seat.ShowID,
				SeatLabel: seat.SeatLabel,
				State:     entities.SeatStateFree,
			}
			expired++
		}
	}

	return expired, nil
}

func (l *fakeSeatLedger) stateOf(showID uuid.UUID, label string) entities.SeatState {
	l.mu.Lock()
	defer l.mu.Unlock()

	seat, ok := l.seats[seatKey(showID, label)]
	if !ok {
		return entities.SeatStateFree
	}
	return seat.State
}

type fakeBookingRepo struct {
	mu       sync.Mutex
	bookings map[uuid.UUID]entities.Booking
	byKey    map[string]uuid.UUID

	published []entities.IEvent
}

func newFakeBookingRepo() *fakeBookingRepo {
	return &fakeBookingRepo{
		bookings: map[uuid.UUID]entities.Booking{},
		byKey:    map[string]uuid.UUID{},
	}
}

func (r *fakeBookingRepo) Create(ctx context.Context, booking entities.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byKey[booking.IdempotencyKey]; ok {
		return fmt.Errorf("idempotency key taken: %w", entities.ErrAlreadyExists)
	}

	r.bookings[booking.BookingID] = booking
	r.byKey[booking.IdempotencyKey] = booking.BookingID
	return nil
}

func (r *fakeBookingRepo) GetByID(ctx context.Context, bookingID uuid.UUID) (entities.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	booking, ok := r.bookings[bookingID]
	if !ok {
		return entities.Booking{}, fmt.Errorf("booking %s: %w", bookingID, entities.ErrNotFound)
	}
	return booking, nil
}

func (r *fakeBookingRepo) GetByIdempotencyKey(ctx context.Context, key string) (entities.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id, ok := r.byKey[key]
	if !ok {
		return entities.Booking{}, entities.ErrNotFound
	}
	return r.bookings[id], nil
}

func (r *fakeBookingRepo) MarkConfirmed(ctx context.Context, bookingID uuid.UUID, paymentID uuid.UUID, confirmed entities.BookingConfirmed_v1) error {
	return r.transition(bookingID, entities.BookingStatusConfirmed, &paymentID, confirmed)
}

func (r *fakeBookingRepo) MarkFailed(ctx context.Context, bookingID uuid.UUID, paymentID *uuid.UUID, failed entities.BookingFailed_v1) error {
	return r.transition(bookingID, entities.BookingStatusPaymentFailed, paymentID, failed)
}

func (r *fakeBookingRepo) MarkCancelled(ctx context.Context, bookingID uuid.UUID, cancelled entities.BookingCancelled_v1) error {
	return r.transition(bookingID, entities.BookingStatusCancelled, nil, cancelled)
}

func (r *fakeBookingRepo) FindStalePending(ctx context.Context, olderThan time.Time) ([]entities.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var stale []entities.Booking
	for _, booking := range r.bookings {
		if booking.Status == entities.BookingStatusPending && !booking.BookedAt.After(olderThan) {
			stale = append(stale, booking)
		}
	}
	return stale, nil
}

func (r *fakeBookingRepo) transition(bookingID uuid.UUID, to entities.BookingStatus, paymentID *uuid.UUID, event entities.IEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	booking, ok := r.bookings[bookingID]
	if !ok {
		return fmt.Errorf("booking %s: %w", bookingID, entities.ErrNotFound)
	}
	if booking.Status != entities.BookingStatusPending {
		return fmt.Errorf("booking %s is %s: %w", bookingID, booking.Status, entities.ErrInvalidState)
	}

	booking.Status = to
	if paymentID != nil {
		booking.PaymentID = paymentID
	}
	booking.Version++
	r.bookings[bookingID] = booking

	r.published = append(r.published, event)
	return nil
}

func (r *fakeBookingRepo) publishedEvents() []entities.IEvent {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]entities.IEvent(nil), r.published...)
}

type fakeShowRepo struct {
	shows map[uuid.UUID]entities.Show
}

func newFakeShowRepo(shows ...entities.Show) *fakeShowRepo {
	repo := &fakeShowRepo{shows: map[uuid.UUID]entities.Show{}}
	for _, show := range shows {
		repo.shows[show.ShowID] = show
	}
	return repo
}

func (r *fakeShowRepo) ShowByID(ctx context.Context, showID uuid.UUID) (entities.Show, error) {
	show, ok := r.shows[showID]
	if !ok {
		return entities.Show{}, fmt.Errorf("show %s: %w", showID, entities.ErrNotFound)
	}
	return show, nil
}

func (r *fakeShowRepo) TotalFor(ctx context.Context, showID uuid.UUID, seatCount int) (entities.Money, error) {
	show, ok := r.shows[showID]
	if !ok {
		return entities.Money{}, fmt.Errorf("show %s: %w", showID, entities.ErrNotFound)
	}

	price, err := strconv.ParseFloat(show.PricePerSeat.Amount, 64)
	if err != nil {
		return entities.Money{}, err
	}

	return entities.Money{
		Amount:   strconv.FormatFloat(price*float64(seatCount), 'f', 2, 64),
		Currency: show.PricePerSeat.Currency,
	}, nil
}

type pricingFailsShowRepo struct {
	*fakeShowRepo
	err error
}

func (r pricingFailsShowRepo) TotalFor(ctx context.Context, showID uuid.UUID, seatCount int) (entities.Money, error) {
	return entities.Money{}, r.err
}

type createFailsBookingRepo struct {
	*fakeBookingRepo
	err error
}

func (r createFailsBookingRepo) Create(ctx context.Context, booking entities.Booking) error {
	return r.err
}

type fakePaymentRepo struct {
	mu        sync.Mutex
	payments  map[uuid.UUID]entities.Payment
	byBooking map[uuid.UUID]uuid.UUID
}

func newFakePaymentRepo() *fakePaymentRepo {
	return &fakePaymentRepo{
		payments:  map[uuid.UUID]entities.Payment{},
		byBooking: map[uuid.UUID]uuid.UUID{},
	}
}

func (r *fakePaymentRepo) Create(ctx context.Context, payment entities.Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byBooking[payment.BookingID]; ok {
		return fmt.Errorf("payment for booking %s: %w", payment.BookingID, entities.ErrAlreadyExists)
	}

	r.payments[payment.PaymentID] = payment
	r.byBooking[payment.BookingID] = payment.PaymentID
	return nil
}

func (r *fakePaymentRepo) GetByID(ctx context.Context, paymentID uuid.UUID) (entities.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	payment, ok := r.payments[paymentID]
	if !ok {
		return entities.Payment{}, fmt.Errorf("payment %s: %w", paymentID, entities.ErrNotFound)
	}
	return payment, nil
}

func (r *fakePaymentRepo) GetByBookingID(ctx context.Context, bookingID uuid.UUID) (entities.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id, ok := r.byBooking[bookingID]
	if !ok {
		return entities.Payment{}, fmt.Errorf("payment for booking %s: %w", bookingID, entities.ErrNotFound)
	}
	return r.payments[id], nil
}

func (r *fakePaymentRepo) UpdateByID(ctx context.Context, paymentID uuid.UUID, updateFn func(entities.Payment) (entities.Payment, error)) (entities.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	payment, ok := r.payments[paymentID]
	if !ok {
		return entities.Payment{}, fmt.Errorf("payment %s: %w", paymentID, entities.ErrNotFound)
	}

	updated, err := updateFn(payment)
	if err != nil {
		return entities.Payment{}, err
	}

	updated.Version = payment.Version + 1
	r.payments[paymentID] = updated
	return updated, nil
}
