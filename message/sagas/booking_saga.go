package sagas

import (
	"context"
	"errors"
	"fmt"
	"time"

	"moviebooking/entities"

	"github.com/ThreeDotsLabs/go-event-driven/common/log"
	"github.com/google/uuid"
)

type SeatLedger interface {
	Reserve(ctx context.Context, showID uuid.UUID, seats []string, bookingID uuid.UUID, holdTTL time.Duration) error
	Confirm(ctx context.Context, showID uuid.UUID, seats []string, bookingID uuid.UUID) error
	Release(ctx context.Context, showID uuid.UUID, seats []string, bookingID uuid.UUID) error
	ExpireHolds(ctx context.Context, now time.Time) (int, error)
}

type BookingRepository interface {
	Create(ctx context.Context, booking entities.Booking) error
	GetByID(ctx context.Context, bookingID uuid.UUID) (entities.Booking, error)
	GetByIdempotencyKey(ctx context.Context, key string) (entities.Booking, error)
	MarkConfirmed(ctx context.Context, bookingID uuid.UUID, paymentID uuid.UUID, confirmed entities.BookingConfirmed_v1) error
	MarkFailed(ctx context.Context, bookingID uuid.UUID, paymentID *uuid.UUID, failed entities.BookingFailed_v1) error
	MarkCancelled(ctx context.Context, bookingID uuid.UUID, cancelled entities.BookingCancelled_v1) error
	FindStalePending(ctx context.Context, olderThan time.Time) ([]entities.Booking, error)
}

type ShowRepository interface {
	ShowByID(ctx context.Context, showID uuid.UUID) (entities.Show, error)
	TotalFor(ctx context.Context, showID uuid.UUID, seatCount int) (entities.Money, error)
}

type PaymentService interface {
	Authorize(ctx context.Context, booking entities.Booking, method string) (entities.Payment, error)
	Refund(ctx context.Context, paymentID uuid.UUID) error
}

type BookingRequest struct {
	ShowID         uuid.UUID
	UserID         uuid.UUID
	Seats          []string
	PaymentMethod  string
	IdempotencyKey string
}

// BookingSaga drives a booking from seat hold to confirmation. The booking
// row's status CAS is the single arbiter between confirmation, cancellation
// and the sweeper: whoever transitions the row out of PENDING first wins,
// and the losers compensate.
type BookingSaga struct {
	seatLedger  SeatLedger
	bookingRepo BookingRepository
	showRepo    ShowRepository
	payments    PaymentService

	holdTTL time.Duration
}

func NewBookingSaga(
	seatLedger SeatLedger,
	bookingRepo BookingRepository,
	showRepo ShowRepository,
	payments PaymentService,
	holdTTL time.Duration,
) *BookingSaga {
	if seatLedger == nil {
		panic("seatLedger is required")
	}
	if bookingRepo == nil {
		panic("bookingRepo is required")
	}
	if showRepo == nil {
		panic("showRepo is required")
	}
	if payments == nil {
		panic("payments is required")
	}
	if holdTTL <= 0 {
		panic("holdTTL must be positive")
	}

	return &BookingSaga{
		seatLedger:  seatLedger,
		bookingRepo: bookingRepo,
		showRepo:    showRepo,
		payments:    payments,
		holdTTL:     holdTTL,
	}
}

// CreateBooking runs the whole saga synchronously: hold the seats, charge
// the payment, confirm or compensate. Once the seats are held the saga must
// reach a terminal state, so it detaches from the request's cancellation.
func (s *BookingSaga) CreateBooking(ctx context.Context, req BookingRequest) (entities.BookingCreateResponse, error) {
	ctx = context.WithoutCancel(ctx)

	if err := validateRequest(req); err != nil {
		return entities.BookingCreateResponse{}, err
	}

	// a replayed request never reserves a second time
	if existing, err := s.bookingRepo.GetByIdempotencyKey(ctx, req.IdempotencyKey); err == nil {
		return entities.BookingCreateResponse{
			BookingID: existing.BookingID,
			Status:    existing.Status,
			PaymentID: existing.PaymentID,
		}, nil
	} else if !errors.Is(err, entities.ErrNotFound) {
		return entities.BookingCreateResponse{}, err
	}

	show, err := s.showRepo.ShowByID(ctx, req.ShowID)
	if err != nil {
		return entities.BookingCreateResponse{}, err
	}

	bookingID := uuid.New()

	if err := s.seatLedger.Reserve(ctx, req.ShowID, req.Seats, bookingID, s.holdTTL); err != nil {
		return entities.BookingCreateResponse{}, err
	}

	total, err := s.showRepo.TotalFor(ctx, req.ShowID, len(req.Seats))
	if err != nil {
		s.releaseHolds(ctx, req.ShowID, req.Seats, bookingID)
		return entities.BookingCreateResponse{}, err
	}

	booking := entities.Booking{
		BookingID:      bookingID,
		ShowID:         show.ShowID,
		TheatreID:      show.TheatreID,
		MovieID:        show.MovieID,
		UserID:         req.UserID,
		Seats:          req.Seats,
		TotalAmount:    total,
		Status:         entities.BookingStatusPending,
		IdempotencyKey: req.IdempotencyKey,
		BookedAt:       time.Now().UTC(),
	}

	err = s.bookingRepo.Create(ctx, booking)
	if errors.Is(err, entities.ErrAlreadyExists) {
		// A previous request with the same idempotency key owns this
		// booking. Drop the holds we just took and report its outcome.
		s.releaseHolds(ctx, req.ShowID, req.Seats, bookingID)

		existing, getErr := s.bookingRepo.GetByIdempotencyKey(ctx, req.IdempotencyKey)
		if getErr != nil {
			return entities.BookingCreateResponse{}, getErr
		}

		return entities.BookingCreateResponse{
			BookingID: existing.BookingID,
			Status:    existing.Status,
			PaymentID: existing.PaymentID,
		}, nil
	}
	if err != nil {
		s.releaseHolds(ctx, req.ShowID, req.Seats, bookingID)
		return entities.BookingCreateResponse{}, err
	}

	payment, err := s.payments.Authorize(ctx, booking, req.PaymentMethod)
	if err != nil {
		var paymentID *uuid.UUID
		if payment.PaymentID != uuid.Nil {
			paymentID = &payment.PaymentID
		}

		if failErr := s.failBooking(ctx, booking, paymentID, err.Error()); failErr != nil {
			log.FromContext(ctx).WithError(failErr).Error("Failed to compensate booking after payment failure")
		}

		return entities.BookingCreateResponse{}, fmt.Errorf("payment for booking %s failed: %w", bookingID, err)
	}

	err = s.bookingRepo.MarkConfirmed(ctx, bookingID, payment.PaymentID, entities.BookingConfirmed_v1{
		Header:        entities.NewEventHeaderWithIdempotencyKey(bookingID.String()),
		BookingID:     bookingID,
		UserID:        req.UserID,
		ShowID:        show.ShowID,
		TheatreID:     show.TheatreID,
		MovieID:       show.MovieID,
		Seats:         req.Seats,
		TotalAmount:   total,
		PaymentID:     payment.PaymentID,
		ShowStartTime: show.StartTime,
		ConfirmedAt:   time.Now().UTC(),
	})
	if errors.Is(err, entities.ErrInvalidState) {
		// Lost the CAS to a concurrent cancellation. The charge went
		// through, so refund it and let the holds go.
		if refundErr := s.payments.Refund(ctx, payment.PaymentID); refundErr != nil {
			log.FromContext(ctx).WithError(refundErr).Error("Failed to refund payment of cancelled booking")
		}
		s.releaseHolds(ctx, req.ShowID, req.Seats, bookingID)

		return entities.BookingCreateResponse{}, fmt.Errorf("booking %s was cancelled during payment: %w", bookingID, entities.ErrInvalidState)
	}
	if err != nil {
		return entities.BookingCreateResponse{}, err
	}

	if err := s.seatLedger.Confirm(ctx, req.ShowID, req.Seats, bookingID); err != nil {
		// The booking is confirmed and paid; a seat inconsistency here means
		// the hold TTL elapsed mid-saga, which the payment deadline is sized
		// to prevent.
		log.FromContext(ctx).WithError(err).WithField("booking_id", bookingID).
			Error("Booking confirmed but seats could not be marked sold")
		return entities.BookingCreateResponse{}, err
	}

	return entities.BookingCreateResponse{
		BookingID: bookingID,
		Status:    entities.BookingStatusConfirmed,
		PaymentID: &payment.PaymentID,
	}, nil
}

// CancelBooking voids a still-pending booking and frees its holds. A
// booking in any terminal state fails with ErrInvalidState.
func (s *BookingSaga) CancelBooking(ctx context.Context, bookingID uuid.UUID) error {
	booking, err := s.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		return err
	}

	err = s.bookingRepo.MarkCancelled(ctx, bookingID, entities.BookingCancelled_v1{
		Header:    entities.NewEventHeaderWithIdempotencyKey("cancel-" + bookingID.String()),
		BookingID: bookingID,
		UserID:    booking.UserID,
		ShowID:    booking.ShowID,
		Seats:     booking.Seats,
	})
	if err != nil {
		return err
	}

	if err := s.seatLedger.Release(ctx, booking.ShowID, booking.Seats, bookingID); err != nil {
		return fmt.Errorf("cancelled booking %s but could not release seats: %w", bookingID, err)
	}

	return nil
}

// FailBooking compensates a pending booking: PAYMENT_FAILED status, holds
// released, failure event published. Used by the payment path and the
// sweeper.
func (s *BookingSaga) FailBooking(ctx context.Context, booking entities.Booking, reason string) error {
	return s.failBooking(ctx, booking, booking.PaymentID, reason)
}

// releaseHolds is best-effort compensation for a failed saga stage. When the
// release itself fails the holds stay until the TTL reclaims them, so the
// error is logged rather than surfaced.
func (s *BookingSaga) releaseHolds(ctx context.Context, showID uuid.UUID, seats []string, bookingID uuid.UUID) {
	if err := s.seatLedger.Release(ctx, showID, seats, bookingID); err != nil {
		log.FromContext(ctx).WithError(err).WithField("booking_id", bookingID).
			Error("Failed to release seat holds")
	}
}

func validateRequest(req BookingRequest) error {
	if len(req.Seats) == 0 {
		return fmt.Errorf("no seats requested: %w", entities.ErrValidation)
	}
	if req.IdempotencyKey == "" {
		return fmt.Errorf("idempotency key is required: %w", entities.ErrValidation)
	}

	seen := make(map[string]bool, len(req.Seats))
	for _, seat := range req.Seats {
		if seat == "" {
			return fmt.Errorf("empty seat label: %w", entities.ErrValidation)
		}
		if seen[seat] {
			return fmt.Errorf("seat %s requested twice: %w", seat, entities.ErrValidation)
		}
		seen[seat] = true
	}

	return nil
}

func (s *BookingSaga) failBooking(ctx context.Context, booking entities.Booking, paymentID *uuid.UUID, reason string) error {
	err := s.bookingRepo.MarkFailed(ctx, booking.BookingID, paymentID, entities.BookingFailed_v1{
		Header:    entities.NewEventHeaderWithIdempotencyKey("fail-" + booking.BookingID.String()),
		BookingID: booking.BookingID,
		UserID:    booking.UserID,
		ShowID:    booking.ShowID,
		Seats:     booking.Seats,
		Reason:    reason,
	})
	if err != nil {
		return err
	}

	if err := s.seatLedger.Release(ctx, booking.ShowID, booking.Seats, booking.BookingID); err != nil {
		return fmt.Errorf("failed booking %s but could not release seats: %w", booking.BookingID, err)
	}

	return nil
}
