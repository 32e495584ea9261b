package sagas

import (
	"context"
	"errors"
	"time"

	"moviebooking/entities"

	"github.com/ThreeDotsLabs/go-event-driven/common/log"
	"github.com/sirupsen/logrus"
)

// Sweeper is the periodic safety net: it frees expired seat holds and
// fails PENDING bookings whose payment deadline has passed. Expiry is also
// honored lazily by the seat ledger, so the sweeper only reclaims, it never
// gates correctness.
type Sweeper struct {
	seatLedger  SeatLedger
	bookingRepo BookingRepository
	saga        *BookingSaga

	paymentDeadline time.Duration
}

func NewSweeper(
	seatLedger SeatLedger,
	bookingRepo BookingRepository,
	saga *BookingSaga,
	paymentDeadline time.Duration,
) *Sweeper {
	if seatLedger == nil {
		panic("seatLedger is required")
	}
	if bookingRepo == nil {
		panic("bookingRepo is required")
	}
	if saga == nil {
		panic("saga is required")
	}
	if paymentDeadline <= 0 {
		panic("paymentDeadline must be positive")
	}

	return &Sweeper{
		seatLedger:      seatLedger,
		bookingRepo:     bookingRepo,
		saga:            saga,
		paymentDeadline: paymentDeadline,
	}
}

// Sweep runs one pass. Failures on individual bookings are logged and do
// not stop the pass; the next run retries them.
func (s *Sweeper) Sweep(ctx context.Context, now time.Time) error {
	logger := log.FromContext(ctx)

	expired, err := s.seatLedger.ExpireHolds(ctx, now)
	if err != nil {
		return err
	}
	if expired > 0 {
		logger.WithField("expired_holds", expired).Info("Released expired seat holds")
	}

	stale, err := s.bookingRepo.FindStalePending(ctx, now.Add(-s.paymentDeadline))
	if err != nil {
		return err
	}

	for _, booking := range stale {
		err := s.saga.FailBooking(ctx, booking, "payment deadline exceeded")
		if errors.Is(err, entities.ErrInvalidState) {
			// Reached a terminal state between the query and the fail.
			continue
		}
		if err != nil {
			logger.WithError(err).WithFields(logrus.Fields{
				"booking_id": booking.BookingID,
			}).Error("Failed to expire stale booking")
		}
	}

	return nil
}
