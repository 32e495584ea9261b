package http

import (
	"net/http"

	libHttp "github.com/ThreeDotsLabs/go-event-driven/common/http"
	"github.com/ThreeDotsLabs/watermill/components/cqrs"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
)

type requestValidator struct {
	validate *validator.Validate
}

func (v *requestValidator) Validate(i interface{}) error {
	if err := v.validate.Struct(i); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return nil
}

func NewHttpRouter(
	commandBus *cqrs.CommandBus,
	bookingService BookingService,
	bookingRepo BookingRepository,
	showRepo ShowRepository,
	seatLedger SeatLedger,
	ticketRepo TicketRepository,
	paymentRepo PaymentRepository,
	metricsRegistry *prometheus.Registry,
) *echo.Echo {
	e := libHttp.NewEcho()

	e.Validator = &requestValidator{validate: validator.New()}
	e.Use(otelecho.Middleware("moviebooking"))

	e.GET("/health", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	if metricsRegistry != nil {
		e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(metricsRegistry, promhttp.HandlerOpts{})))
	}

	handler := Handler{
		commandBus:     commandBus,
		bookingService: bookingService,
		bookingRepo:    bookingRepo,
		showRepo:       showRepo,
		seatLedger:     seatLedger,
		ticketRepo:     ticketRepo,
		paymentRepo:    paymentRepo,
	}

	e.POST("/book-seats", handler.PostBookSeats)
	e.GET("/bookings/:booking_id", handler.GetBookingByID)
	e.GET("/bookings", handler.GetBookings)
	e.PUT("/bookings/:booking_id/cancel", handler.PutCancelBooking)

	e.POST("/shows", handler.PostShows)
	e.GET("/shows/:show_id", handler.GetShowByID)
	e.GET("/shows/:show_id/seats", handler.GetShowSeats)

	e.GET("/tickets", handler.GetTickets)
	e.GET("/tickets/:booking_id", handler.GetTicketByBookingID)

	e.GET("/payments/:payment_id", handler.GetPaymentByID)
	e.PUT("/payments/:payment_id/refund", handler.PutRefundPayment)

	return e
}
