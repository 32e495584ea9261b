package command

import (
	"context"
	"errors"
	"fmt"

	"moviebooking/entities"

	"github.com/ThreeDotsLabs/go-event-driven/common/log"
)

func (h Handler) RefundPayment(ctx context.Context, command *entities.RefundPayment) error {
	logger := log.FromContext(ctx).WithField("payment_id", command.PaymentID)

	err := h.paymentRefunder.Refund(ctx, command.PaymentID)
	if errors.Is(err, entities.ErrInvalidState) {
		logger.Info("Payment not refundable, skipping")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to refund payment: %w", err)
	}

	logger.Info("Payment refunded")

	return nil
}
