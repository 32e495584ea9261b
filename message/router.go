package message

import (
	"encoding/json"
	"time"

	"moviebooking/db"
	"moviebooking/entities"
	"moviebooking/message/command"
	"moviebooking/message/event"
	"moviebooking/message/outbox"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/components/cqrs"
	"github.com/ThreeDotsLabs/watermill/components/metrics"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
)

func NewWatermillRouter(
	pgSubscriber message.Subscriber,
	publisher message.Publisher,
	redisClient *redis.Client,
	eventProcessorConfig cqrs.EventProcessorConfig,
	commandProcessorConfig cqrs.CommandProcessorConfig,
	eventHandler event.Handler,
	commandHandler command.Handler,
	seatsSoldReadModel db.SeatsSoldReadModel,
	eventsRepo db.IEventRepository,
	metricsRegistry prometheus.Registerer,
	watermillLogger watermill.LoggerAdapter,
) *message.Router {
	router, err := message.NewRouter(message.RouterConfig{}, watermillLogger)
	if err != nil {
		panic(err)
	}

	useMiddlewares(router, watermillLogger)

	if metricsRegistry != nil {
		metricsBuilder := metrics.NewPrometheusMetricsBuilder(metricsRegistry, "", "")
		metricsBuilder.AddPrometheusRouterMetrics(router)
	}

	_, err = outbox.NewForwarder(pgSubscriber, publisher, watermillLogger, router)
	if err != nil {
		panic(err)
	}

	eventProcessor, err := cqrs.NewEventProcessorWithConfig(router, eventProcessorConfig)
	if err != nil {
		panic(err)
	}

	commandProcessor, err := cqrs.NewCommandProcessorWithConfig(router, commandProcessorConfig)
	if err != nil {
		panic(err)
	}

	err = commandProcessor.AddHandlers(
		cqrs.NewCommandHandler(
			"CancelBooking",
			commandHandler.CancelBooking,
		),
		cqrs.NewCommandHandler(
			"RefundPayment",
			commandHandler.RefundPayment,
		),
	)
	if err != nil {
		panic(err)
	}

	err = eventProcessor.AddHandlers(
		cqrs.NewEventHandler(
			"IssueTicket",
			eventHandler.IssueTicket,
		),
		cqrs.NewEventHandler(
			"NotifyBookingConfirmed",
			eventHandler.NotifyBookingConfirmed,
		),
		cqrs.NewEventHandler(
			"NotifyBookingFailed",
			eventHandler.NotifyBookingFailed,
		),
		cqrs.NewEventHandler(
			"UpdateSeatsSoldReadModel",
			seatsSoldReadModel.OnBookingConfirmed,
		),
	)
	if err != nil {
		panic(err)
	}

	// Data lake archiver: every external event is appended raw, keyed by the
	// message UUID so redeliveries are no-ops.
	router.AddNoPublisherHandler(
		"StoreEventInDataLake",
		"events",
		NewRedisSubscriber(redisClient, "svc-bookings.events.data-lake", watermillLogger),
		func(msg *message.Message) error {
			return eventsRepo.Create(msg.Context(), entities.Event{
				EventID:     msg.UUID,
				PublishedAt: time.Now().UTC(),
				EventName:   msg.Metadata.Get("name"),
				Payload:     json.RawMessage(msg.Payload),
			})
		},
	)

	return router
}
