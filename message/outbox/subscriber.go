package outbox

import (
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-sql/v2/pkg/sql"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/jmoiron/sqlx"
)

// SubscribeForPGMessages builds the Postgres-side subscriber the forwarder
// drains the booking outbox through. SubscribeInitialize creates the outbox
// table, so this runs before any booking transaction publishes.
func SubscribeForPGMessages(db *sqlx.DB, logger watermill.LoggerAdapter) message.Subscriber {
	sub, err := sql.NewSubscriber(db, sql.SubscriberConfig{
		SchemaAdapter:  sql.DefaultPostgreSQLSchema{},
		OffsetsAdapter: sql.DefaultPostgreSQLOffsetsAdapter{},
	}, logger)
	if err != nil {
		panic(fmt.Errorf("creating outbox subscriber: %w", err))
	}

	if err := sub.SubscribeInitialize(topic); err != nil {
		panic(fmt.Errorf("initializing outbox table: %w", err))
	}

	return sub
}
