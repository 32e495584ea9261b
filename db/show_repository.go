package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"moviebooking/entities"

	"github.com/google/uuid"
)

type ShowRepository struct {
	db *DB
}

func NewShowRepository(db *DB) ShowRepository {
	if db == nil {
		panic("db is nil")
	}
	return ShowRepository{
		db: db,
	}
}

func (sr ShowRepository) Create(ctx context.Context, show entities.Show) (entities.ShowCreateResponse, error) {
	var showID uuid.UUID

	err := sr.db.Conn.QueryRowContext(
		ctx,
		`
		INSERT INTO shows (theatre_id, movie_id, title, venue, start_time, price_amount, price_currency)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING show_id`,
		show.TheatreID, show.MovieID, show.Title, show.Venue, show.StartTime,
		show.PricePerSeat.Amount, show.PricePerSeat.Currency,
	).Scan(&showID)
	if err != nil {
		return entities.ShowCreateResponse{}, fmt.Errorf("could not save show: %w", err)
	}

	return entities.ShowCreateResponse{ShowID: showID}, nil
}

func (sr ShowRepository) ShowByID(ctx context.Context, showID uuid.UUID) (entities.Show, error) {
	var show entities.Show
	err := sr.db.Conn.GetContext(ctx, &show, `
		SELECT
		    show_id, theatre_id, movie_id, title, venue, start_time,
		    price_amount AS "price.amount",
		    price_currency AS "price.currency"
		FROM
		    shows
		WHERE
		    show_id = $1
	`, showID)
	if errors.Is(err, sql.ErrNoRows) {
		return entities.Show{}, fmt.Errorf("show %s: %w", showID, entities.ErrNotFound)
	}
	if err != nil {
		return entities.Show{}, fmt.Errorf("could not get show: %w", err)
	}

	return show, nil
}

// TotalFor prices a booking of seatCount seats. The multiplication is done
// in the database so the currency-precise NUMERIC never round-trips
// through a float.
func (sr ShowRepository) TotalFor(ctx context.Context, showID uuid.UUID, seatCount int) (entities.Money, error) {
	var total entities.Money
	err := sr.db.Conn.GetContext(ctx, &total, `
		SELECT
		    (price_amount * $2)::NUMERIC(10, 2)::TEXT AS amount,
		    price_currency AS currency
		FROM
		    shows
		WHERE
		    show_id = $1
	`, showID, seatCount)
	if errors.Is(err, sql.ErrNoRows) {
		return entities.Money{}, fmt.Errorf("show %s: %w", showID, entities.ErrNotFound)
	}
	if err != nil {
		return entities.Money{}, fmt.Errorf("could not price booking: %w", err)
	}

	return total, nil
}
