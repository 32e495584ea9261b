package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"moviebooking/api"
	"moviebooking/db"
	"moviebooking/service"
	observability "moviebooking/trace"

	"github.com/ThreeDotsLabs/go-event-driven/common/log"
	"github.com/redis/go-redis/v9"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	logger := log.FromContext(ctx)

	tp := observability.ConfigureTraceProvider()
	defer func() {
		if err := tp.Shutdown(context.Background()); err != nil {
			logger.WithError(err).Error("Failed to shut down trace provider")
		}
	}()

	conn, err := db.NewDBConn(os.Getenv("POSTGRES_URL"))
	if err != nil {
		logger.WithError(err).Fatal("Failed to connect to Postgres")
	}
	defer conn.Close()

	conn.MigrateSchema()

	redisClient := redis.NewClient(&redis.Options{
		Addr: os.Getenv("REDIS_ADDR"),
	})
	defer redisClient.Close()

	gatewayAddr := os.Getenv("GATEWAY_ADDR")
	paymentsGateway := api.NewPaymentsGatewayClient(gatewayAddr)
	notificationsService := api.NewNotificationsClient(gatewayAddr)

	cfg := service.Config{
		HTTPAddr:        envOr("HTTP_ADDR", ":8080"),
		HoldTTL:         envDurationOr("HOLD_TTL", 5*time.Minute),
		PaymentDeadline: envDurationOr("PAYMENT_DEADLINE", 2*time.Minute),
		SweepInterval:   envDurationOr("SWEEP_INTERVAL", 30*time.Second),
	}
	if cfg.PaymentDeadline >= cfg.HoldTTL {
		logger.Fatal("PAYMENT_DEADLINE must be shorter than HOLD_TTL")
	}

	svc := service.New(
		redisClient,
		paymentsGateway,
		notificationsService,
		conn,
		cfg,
	)

	err = svc.Run(ctx)
	if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, http.ErrServerClosed) {
		logger.WithError(err).Fatal("Service failed")
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}

	d, err := time.ParseDuration(v)
	if err != nil {
		log.FromContext(context.Background()).
			WithField("key", key).WithError(err).
			Fatal("Invalid duration in environment")
	}

	return d
}
