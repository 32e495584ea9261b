package migrations

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"moviebooking/db"
	"moviebooking/entities"

	"github.com/ThreeDotsLabs/go-event-driven/common/log"
	"github.com/sirupsen/logrus"
)

// RebuildSeatsSoldReadModel replays the data lake into the seats-sold read
// model. The projection is an upsert keyed by (show, seat), so replaying on
// top of live traffic is safe.
func RebuildSeatsSoldReadModel(ctx context.Context, dl db.IEventRepository, rm db.SeatsSoldReadModel) error {
	logger := log.FromContext(ctx)
	logger.Info("Rebuilding seats-sold read model")

	events, err := dl.GetAll(ctx)
	if err != nil {
		return fmt.Errorf("could not get events from data lake: %w", err)
	}

	logger.WithField("events_count", len(events)).Info("Has events to replay")

	for _, event := range events {
		if event.EventName != "BookingConfirmed_v1" {
			continue
		}

		start := time.Now()

		confirmed, err := unmarshalDataLakeEvent[entities.BookingConfirmed_v1](event)
		if err != nil {
			return fmt.Errorf("could not replay event %s: %w", event.EventID, err)
		}

		if err := rm.OnBookingConfirmed(ctx, confirmed); err != nil {
			return fmt.Errorf("could not apply event %s: %w", event.EventID, err)
		}

		logger.WithFields(logrus.Fields{
			"event_id": event.EventID,
			"duration": time.Since(start),
		}).Info("Event replayed")
	}

	return nil
}

func unmarshalDataLakeEvent[T any](event entities.Event) (*T, error) {
	var payload T
	if err := json.Unmarshal(event.Payload, &payload); err != nil {
		return nil, fmt.Errorf("could not unmarshal %s event: %w", event.EventName, err)
	}

	return &payload, nil
}
