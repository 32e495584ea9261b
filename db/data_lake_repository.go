package db

import (
	"context"
	"fmt"

	"moviebooking/entities"
)

type IEventRepository interface {
	Create(ctx context.Context, event entities.Event) error
	GetAll(ctx context.Context) ([]entities.Event, error)
}

// EventRepository is the data lake: every published event lands here
// append-only, keyed by event id so redeliveries do not duplicate rows.
type EventRepository struct {
	db *DB
}

func NewEventRepository(db *DB) EventRepository {
	if db == nil {
		panic("db is nil")
	}
	return EventRepository{
		db: db,
	}
}

func (e EventRepository) Create(ctx context.Context, event entities.Event) error {
	_, err := e.db.Conn.ExecContext(ctx, `
		INSERT INTO
		    events (event_id, published_at, event_name, event_payload)
		VALUES
		    ($1, $2, $3, $4)
		ON CONFLICT (event_id) DO NOTHING
	`, event.EventID, event.PublishedAt, event.EventName, event.Payload)
	if err != nil {
		return fmt.Errorf("could not store event in data lake: %w", err)
	}

	return nil
}

func (e EventRepository) GetAll(ctx context.Context) ([]entities.Event, error) {
	var events []entities.Event
	err := e.db.Conn.SelectContext(ctx, &events, `
		SELECT event_id, published_at, event_name, event_payload
		FROM events
		ORDER BY published_at
	`)
	if err != nil {
		return nil, fmt.Errorf("could not get events from data lake: %w", err)
	}

	return events, nil
}
