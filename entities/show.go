package entities

import (
	"time"

	"github.com/google/uuid"
)

type Show struct {
	ShowID       uuid.UUID `json:"show_id" db:"show_id"`
	TheatreID    uuid.UUID `json:"theatre_id" db:"theatre_id"`
	MovieID      uuid.UUID `json:"movie_id" db:"movie_id"`
	Title        string    `json:"title" db:"title"`
	Venue        string    `json:"venue" db:"venue"`
	StartTime    time.Time `json:"start_time" db:"start_time"`
	PricePerSeat Money     `json:"price_per_seat" db:"price"`
}

type ShowCreateResponse struct {
	ShowID uuid.UUID `json:"show_id"`
}
