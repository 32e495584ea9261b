package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"moviebooking/entities"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	OutcomeApproved = "approved"
	OutcomeDeclined = "declined"
)

type ChargeRequest struct {
	// IdempotencyKey is the booking id: the gateway deduplicates repeated
	// charge attempts for the same booking server-side.
	IdempotencyKey string         `json:"idempotency_key"`
	Amount         entities.Money `json:"amount"`
	Method         string         `json:"method"`
}

type ChargeResult struct {
	TransactionID string `json:"transaction_id"`
	Outcome       string `json:"outcome"`
}

type RefundRequest struct {
	PaymentReference string `json:"payment_reference"`
	IdempotencyKey   string `json:"idempotency_key"`
	Reason           string `json:"reason"`
}

// PaymentsGatewayClient talks to the external payment capability. Transport
// errors and non-2xx responses surface as ErrPaymentTransient; a decline is
// a successful call with outcome "declined".
type PaymentsGatewayClient struct {
	httpClient *http.Client
	baseURL    string
}

func NewPaymentsGatewayClient(baseURL string) *PaymentsGatewayClient {
	if baseURL == "" {
		panic("payments gateway base URL is required")
	}

	return &PaymentsGatewayClient{
		httpClient: &http.Client{
			Timeout:   30 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		baseURL: baseURL,
	}
}

func (c *PaymentsGatewayClient) Charge(ctx context.Context, req ChargeRequest) (ChargeResult, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return ChargeResult{}, fmt.Errorf("could not marshal charge request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		c.baseURL+"/payments-api/charges",
		bytes.NewReader(body),
	)
	if err != nil {
		return ChargeResult{}, fmt.Errorf("could not create charge request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Idempotency-Key", req.IdempotencyKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return ChargeResult{}, fmt.Errorf("charge request failed: %w: %w", entities.ErrPaymentTransient, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return ChargeResult{}, fmt.Errorf("unexpected status code for POST /payments-api/charges: %d: %w",
			resp.StatusCode, entities.ErrPaymentTransient)
	}

	var result ChargeResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return ChargeResult{}, fmt.Errorf("could not decode charge response: %w: %w", entities.ErrPaymentTransient, err)
	}

	return result, nil
}

func (c *PaymentsGatewayClient) Refund(ctx context.Context, req RefundRequest) error {
	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("could not marshal refund request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(
		ctx,
		http.MethodPut,
		c.baseURL+"/payments-api/refunds",
		bytes.NewReader(body),
	)
	if err != nil {
		return fmt.Errorf("could not create refund request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Idempotency-Key", req.IdempotencyKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("refund request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status code for PUT /payments-api/refunds: %d", resp.StatusCode)
	}

	return nil
}
