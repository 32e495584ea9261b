package http

import (
	"net/http"
	"time"

	"moviebooking/entities"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

type postShowRequest struct {
	TheatreID    uuid.UUID      `json:"theatre_id" validate:"required"`
	MovieID      uuid.UUID      `json:"movie_id" validate:"required"`
	Title        string         `json:"title" validate:"required"`
	Venue        string         `json:"venue" validate:"required"`
	StartTime    time.Time      `json:"start_time" validate:"required"`
	PricePerSeat entities.Money `json:"price_per_seat" validate:"required"`
}

func (h Handler) PostShows(c echo.Context) error {
	var request postShowRequest

	if err := c.Bind(&request); err != nil {
		return err
	}
	if err := c.Validate(&request); err != nil {
		return err
	}

	showResponse, err := h.showRepo.Create(c.Request().Context(), entities.Show{
		TheatreID:    request.TheatreID,
		MovieID:      request.MovieID,
		Title:        request.Title,
		Venue:        request.Venue,
		StartTime:    request.StartTime,
		PricePerSeat: request.PricePerSeat,
	})
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusCreated, showResponse)
}

func (h Handler) GetShowByID(c echo.Context) error {
	showID, err := uuid.Parse(c.Param("show_id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid show id")
	}

	show, err := h.showRepo.ShowByID(c.Request().Context(), showID)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, show)
}

func (h Handler) GetShowSeats(c echo.Context) error {
	showID, err := uuid.Parse(c.Param("show_id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid show id")
	}

	seats, err := h.seatLedger.SeatsForShow(c.Request().Context(), showID)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, seats)
}
