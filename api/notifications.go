package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

type Notification struct {
	IdempotencyKey string    `json:"idempotency_key"`
	UserID         uuid.UUID `json:"user_id"`
	Title          string    `json:"title"`
	Body           string    `json:"body"`
}

// NotificationsClient delivers booking notifications through the external
// notification service. Content templating and transport are the service's
// concern; this client only carries the facts and the idempotency key.
type NotificationsClient struct {
	httpClient *http.Client
	baseURL    string
}

func NewNotificationsClient(baseURL string) *NotificationsClient {
	if baseURL == "" {
		panic("notifications base URL is required")
	}

	return &NotificationsClient{
		httpClient: &http.Client{
			Timeout:   10 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		baseURL: baseURL,
	}
}

func (c *NotificationsClient) Send(ctx context.Context, notification Notification) error {
	body, err := json.Marshal(notification)
	if err != nil {
		return fmt.Errorf("could not marshal notification: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		c.baseURL+"/notifications-api/notifications",
		bytes.NewReader(body),
	)
	if err != nil {
		return fmt.Errorf("could not create notification request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("notification request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("unexpected status code for POST /notifications-api/notifications: %d", resp.StatusCode)
	}

	return nil
}
