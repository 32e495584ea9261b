package service

import (
	"context"
	"time"

	"moviebooking/db"
	bookingHttp "moviebooking/http"
	"moviebooking/message"
	"moviebooking/message/command"
	"moviebooking/message/event"
	"moviebooking/message/outbox"
	"moviebooking/message/sagas"

	"github.com/ThreeDotsLabs/go-event-driven/common/log"
	watermillMessage "github.com/ThreeDotsLabs/watermill/message"
	"github.com/go-co-op/gocron/v2"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

func init() {
	log.Init(logrus.InfoLevel)
}

type Config struct {
	HTTPAddr string

	HoldTTL         time.Duration
	PaymentDeadline time.Duration
	SweepInterval   time.Duration
}

type Service struct {
	watermillRouter *watermillMessage.Router
	echoRouter      *echo.Echo
	sweeper         *sagas.Sweeper

	cfg Config
}

func New(
	redisClient *redis.Client,
	paymentsGateway sagas.PaymentsGateway,
	notificationsService event.NotificationsService,
	conn db.DB,
	cfg Config,
) Service {
	watermillLogger := log.NewWatermill(log.FromContext(context.Background()))

	redisPublisher := message.NewRedisPublisher(redisClient, watermillLogger)

	commandBus := command.NewBus(redisPublisher)

	seatLedger := db.NewSeatLedgerRepository(&conn)
	bookingRepo := db.NewBookingRepository(&conn)
	showRepo := db.NewShowRepository(&conn)
	paymentRepo := db.NewPaymentRepository(&conn)
	ticketRepo := db.NewTicketRepository(&conn)
	seatsSoldReadModel := db.NewSeatsSoldReadModel(&conn)
	dataLakeRepo := db.NewEventRepository(&conn)

	paymentOrchestrator := sagas.NewPaymentOrchestrator(paymentRepo, paymentsGateway, cfg.PaymentDeadline)
	bookingSaga := sagas.NewBookingSaga(seatLedger, bookingRepo, showRepo, paymentOrchestrator, cfg.HoldTTL)
	sweeper := sagas.NewSweeper(seatLedger, bookingRepo, bookingSaga, cfg.PaymentDeadline)

	eventsHandler := event.NewHandler(ticketRepo, notificationsService)
	commandsHandler := command.NewHandler(bookingSaga, paymentOrchestrator)

	eventProcessorConfig := event.NewProcessorConfig(redisClient, watermillLogger)
	commandProcessorConfig := command.NewProcessorConfig(redisClient, watermillLogger)

	metricsRegistry := prometheus.NewRegistry()
	metricsRegistry.MustRegister(collectors.NewGoCollector())
	metricsRegistry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	pgSubscriber := outbox.SubscribeForPGMessages(conn.Conn, watermillLogger)
	watermillRouter := message.NewWatermillRouter(
		pgSubscriber,
		redisPublisher,
		redisClient,
		eventProcessorConfig,
		commandProcessorConfig,
		eventsHandler,
		commandsHandler,
		seatsSoldReadModel,
		dataLakeRepo,
		metricsRegistry,
		watermillLogger,
	)

	echoRouter := bookingHttp.NewHttpRouter(
		commandBus,
		bookingSaga,
		bookingRepo,
		showRepo,
		seatLedger,
		ticketRepo,
		paymentRepo,
		metricsRegistry,
	)

	return Service{
		watermillRouter: watermillRouter,
		echoRouter:      echoRouter,
		sweeper:         sweeper,
		cfg:             cfg,
	}
}

func (s Service) Run(ctx context.Context) error {
	errgrp, ctx := errgroup.WithContext(ctx)

	errgrp.Go(func() error {
		return s.watermillRouter.Run(ctx)
	})

	errgrp.Go(func() error {
		// don't start HTTP before the router, the service shouldn't look
		// healthy while handlers aren't consuming yet
		<-s.watermillRouter.Running()

		err := s.echoRouter.Start(s.cfg.HTTPAddr)
		if err != nil {
			return err
		}

		return nil
	})

	errgrp.Go(func() error {
		return s.runSweeper(ctx)
	})

	errgrp.Go(func() error {
		<-ctx.Done()
		return s.echoRouter.Shutdown(context.Background())
	})

	return errgrp.Wait()
}

func (s Service) runSweeper(ctx context.Context) error {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return err
	}

	_, err = scheduler.NewJob(
		gocron.DurationJob(s.cfg.SweepInterval),
		gocron.NewTask(func() {
			if err := s.sweeper.Sweep(ctx, time.Now().UTC()); err != nil {
				log.FromContext(ctx).WithError(err).Error("Sweep failed")
			}
		}),
	)
	if err != nil {
		return err
	}

	scheduler.Start()

	<-ctx.Done()
	return scheduler.Shutdown()
}
