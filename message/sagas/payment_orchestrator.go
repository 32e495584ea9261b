package sagas

import (
	"context"
	"errors"
	"fmt"
	"time"

	"moviebooking/api"
	"moviebooking/entities"

	"github.com/ThreeDotsLabs/go-event-driven/common/log"
	"github.com/google/uuid"
)

type PaymentRepository interface {
	Create(ctx context.Context, payment entities.Payment) error
	GetByID(ctx context.Context, paymentID uuid.UUID) (entities.Payment, error)
	GetByBookingID(ctx context.Context, bookingID uuid.UUID) (entities.Payment, error)
	UpdateByID(ctx context.Context, paymentID uuid.UUID, updateFn func(entities.Payment) (entities.Payment, error)) (entities.Payment, error)
}

type PaymentsGateway interface {
	Charge(ctx context.Context, req api.ChargeRequest) (api.ChargeResult, error)
	Refund(ctx context.Context, req api.RefundRequest) error
}

// PaymentOrchestrator owns the payment lifecycle. Charges carry the booking
// id as idempotency key, so a retried authorization can never charge the
// customer twice.
type PaymentOrchestrator struct {
	paymentRepo PaymentRepository
	gateway     PaymentsGateway

	chargeTimeout time.Duration
}

func NewPaymentOrchestrator(
	paymentRepo PaymentRepository,
	gateway PaymentsGateway,
	chargeTimeout time.Duration,
) *PaymentOrchestrator {
	if paymentRepo == nil {
		panic("paymentRepo is required")
	}
	if gateway == nil {
		panic("gateway is required")
	}
	if chargeTimeout <= 0 {
		panic("chargeTimeout must be positive")
	}

	return &PaymentOrchestrator{
		paymentRepo:   paymentRepo,
		gateway:       gateway,
		chargeTimeout: chargeTimeout,
	}
}

// Authorize creates the payment for a booking and runs the charge to a
// terminal status. The returned payment carries the id even on failure, so
// the caller can link it to the failed booking.
func (o *PaymentOrchestrator) Authorize(
	ctx context.Context,
	booking entities.Booking,
	method string,
) (entities.Payment, error) {
	now := time.Now().UTC()

	payment := entities.Payment{
		PaymentID:     uuid.New(),
		BookingID:     booking.BookingID,
		UserID:        booking.UserID,
		Amount:        booking.TotalAmount,
		Status:        entities.PaymentStatusPending,
		PaymentMethod: method,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	err := o.paymentRepo.Create(ctx, payment)
	if errors.Is(err, entities.ErrAlreadyExists) {
		existing, getErr := o.paymentRepo.GetByBookingID(ctx, booking.BookingID)
		if getErr != nil {
			return entities.Payment{}, getErr
		}

		switch existing.Status {
		case entities.PaymentStatusCompleted:
			return existing, nil
		case entities.PaymentStatusFailed, entities.PaymentStatusRefunded:
			return existing, fmt.Errorf("payment for booking %s already failed: %w", booking.BookingID, entities.ErrPaymentDeclined)
		}

		// PENDING or PROCESSING: a previous attempt died mid-flight, retry
		// the charge under the same idempotency key.
		payment = existing
	} else if err != nil {
		return entities.Payment{}, err
	}

	if _, err := o.transition(ctx, payment.PaymentID, entities.PaymentStatusProcessing, nil); err != nil {
		return payment, err
	}

	chargeCtx, cancel := context.WithTimeout(ctx, o.chargeTimeout)
	defer cancel()

	result, err := o.gateway.Charge(chargeCtx, api.ChargeRequest{
		IdempotencyKey: booking.BookingID.String(),
		Amount:         booking.TotalAmount,
		Method:         method,
	})
	if err != nil {
		log.FromContext(ctx).WithError(err).WithField("booking_id", booking.BookingID).
			Error("Charge did not complete")

		if _, failErr := o.transition(ctx, payment.PaymentID, entities.PaymentStatusFailed, nil); failErr != nil {
			return payment, failErr
		}

		return payment, err
	}

	if result.Outcome != api.OutcomeApproved {
		if _, failErr := o.transition(ctx, payment.PaymentID, entities.PaymentStatusFailed, &result.TransactionID); failErr != nil {
			return payment, failErr
		}

		return payment, fmt.Errorf("charge for booking %s: %w", booking.BookingID, entities.ErrPaymentDeclined)
	}

	completed, err := o.transition(ctx, payment.PaymentID, entities.PaymentStatusCompleted, &result.TransactionID)
	if err != nil {
		return payment, err
	}

	return completed, nil
}

// Refund reverses a completed payment. Refunding an already refunded
// payment is a no-op; any other status fails with ErrInvalidState.
func (o *PaymentOrchestrator) Refund(ctx context.Context, paymentID uuid.UUID) error {
	payment, err := o.paymentRepo.GetByID(ctx, paymentID)
	if err != nil {
		return err
	}

	if payment.Status == entities.PaymentStatusRefunded {
		return nil
	}
	if payment.Status != entities.PaymentStatusCompleted {
		return fmt.Errorf("payment %s is %s, not COMPLETED: %w", paymentID, payment.Status, entities.ErrInvalidState)
	}

	var reference string
	if payment.TransactionID != nil {
		reference = *payment.TransactionID
	}

	err = o.gateway.Refund(ctx, api.RefundRequest{
		PaymentReference: reference,
		IdempotencyKey:   "refund-" + paymentID.String(),
		Reason:           "booking refund",
	})
	if err != nil {
		return fmt.Errorf("could not refund payment %s: %w", paymentID, err)
	}

	_, err = o.paymentRepo.UpdateByID(ctx, paymentID, func(p entities.Payment) (entities.Payment, error) {
		if p.Status != entities.PaymentStatusCompleted {
			return p, fmt.Errorf("payment %s is %s, not COMPLETED: %w", paymentID, p.Status, entities.ErrInvalidState)
		}
		p.Status = entities.PaymentStatusRefunded
		return p, nil
	})

	return err
}

// transition moves the payment to the given status, tolerating the status
// already being set by an earlier attempt of the same saga.
func (o *PaymentOrchestrator) transition(
	ctx context.Context,
	paymentID uuid.UUID,
	to entities.PaymentStatus,
	transactionID *string,
) (entities.Payment, error) {
	return o.paymentRepo.UpdateByID(ctx, paymentID, func(p entities.Payment) (entities.Payment, error) {
		if p.Status == to {
			return p, nil
		}
		if p.Status.IsTerminal() {
			return p, fmt.Errorf("payment %s is already %s: %w", paymentID, p.Status, entities.ErrInvalidState)
		}

		p.Status = to
		if transactionID != nil && *transactionID != "" {
			p.TransactionID = transactionID
		}
		return p, nil
	})
}
