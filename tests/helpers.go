package tests

import (
	"bytes"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"github.com/lithammer/shortuuid/v3"
	"github.com/stretchr/testify/require"
)

const baseURL = "http://localhost:8080"

type Money struct {
	Amount   string `json:"amount"`
	Currency string `json:"currency"`
}

type CreateShowRequest struct {
	TheatreID    uuid.UUID `json:"theatre_id"`
	MovieID      uuid.UUID `json:"movie_id"`
	Title        string    `json:"title"`
	Venue        string    `json:"venue"`
	StartTime    time.Time `json:"start_time"`
	PricePerSeat Money     `json:"price_per_seat"`
}

type CreateShowResponse struct {
	ShowID uuid.UUID `json:"show_id"`
}

type BookSeatsRequest struct {
	ShowID        uuid.UUID `json:"show_id"`
	UserID        uuid.UUID `json:"user_id"`
	Seats         []string  `json:"seats"`
	PaymentMethod string    `json:"payment_method"`
}

type BookSeatsResponse struct {
	BookingID uuid.UUID  `json:"booking_id"`
	Status    string     `json:"status"`
	PaymentID *uuid.UUID `json:"payment_id"`
}

func waitForHttpServer(t *testing.T) {
	t.Helper()

	require.Eventually(t, func() bool {
		resp, err := http.Get(baseURL + "/health")
		if err != nil {
			return false
		}
		defer resp.Body.Close()

		return resp.StatusCode == http.StatusOK
	}, 10*time.Second, 100*time.Millisecond)
}

func doJSON(t *testing.T, method, path string, body any, out any) *http.Response {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	httpReq, err := http.NewRequest(method, baseURL+path, &buf)
	require.NoError(t, err)

	httpReq.Header.Set("Correlation-ID", shortuuid.New())
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Idempotency-Key", uuid.NewString())

	resp, err := http.DefaultClient.Do(httpReq)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })

	if out != nil && resp.StatusCode < 300 {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}

	return resp
}

func createShow(t *testing.T) uuid.UUID {
	t.Helper()

	var showResp CreateShowResponse
	resp := doJSON(t, http.MethodPost, "/shows", CreateShowRequest{
		TheatreID: uuid.New(),
		MovieID:   uuid.New(),
		Title:     "Component Test Show",
		Venue:     "Screen 7",
		StartTime: time.Now().Add(24 * time.Hour),
		PricePerSeat: Money{
			Amount:   "15.00",
			Currency: "USD",
		},
	}, &showResp)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	return showResp.ShowID
}
