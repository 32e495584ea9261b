package api

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// PaymentsGatewayMock mimics the gateway's server-side deduplication: a
// repeated charge with the same idempotency key returns the stored result
// without counting as a new charge.
type PaymentsGatewayMock struct {
	lock sync.Mutex

	// NextOutcome scripts the outcome of the next fresh charge. Empty
	// means approved.
	NextOutcome string
	// NextErr makes the next fresh charge fail at the transport level.
	NextErr error

	Charges []ChargeRequest
	Refunds []RefundRequest

	results map[string]ChargeResult
}

func (m *PaymentsGatewayMock) Charge(ctx context.Context, req ChargeRequest) (ChargeResult, error) {
	m.lock.Lock()
	defer m.lock.Unlock()

	if m.results == nil {
		m.results = map[string]ChargeResult{}
	}
	if result, ok := m.results[req.IdempotencyKey]; ok {
		return result, nil
	}

	if m.NextErr != nil {
		err := m.NextErr
		m.NextErr = nil
		return ChargeResult{}, err
	}

	outcome := m.NextOutcome
	if outcome == "" {
		outcome = OutcomeApproved
	}
	m.NextOutcome = ""

	result := ChargeResult{
		TransactionID: uuid.NewString(),
		Outcome:       outcome,
	}
	m.results[req.IdempotencyKey] = result
	m.Charges = append(m.Charges, req)

	return result, nil
}

func (m *PaymentsGatewayMock) Refund(ctx context.Context, req RefundRequest) error {
	m.lock.Lock()
	defer m.lock.Unlock()

	m.Refunds = append(m.Refunds, req)
	return nil
}

func (m *PaymentsGatewayMock) TotalCharges() int {
	m.lock.Lock()
	defer m.lock.Unlock()

	return len(m.Charges)
}

func (m *PaymentsGatewayMock) TotalRefunds() int {
	m.lock.Lock()
	defer m.lock.Unlock()

	return len(m.Refunds)
}

func (m *PaymentsGatewayMock) ChargeCount(bookingID uuid.UUID) int {
	m.lock.Lock()
	defer m.lock.Unlock()

	count := 0
	for _, charge := range m.Charges {
		if charge.IdempotencyKey == bookingID.String() {
			count++
		}
	}
	return count
}
