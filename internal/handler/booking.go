package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/cinetix/movie-booking-api/internal/model"
	"github.com/cinetix/movie-booking-api/internal/repository"
	"github.com/cinetix/movie-booking-api/internal/service"
)

// BookingHandler serves the customer booking flow: seat maps, locks,
// booking creation, listing and cancellation. All seat state changes go
// through the reservation coordinator; the handler only translates
// between HTTP and the coordinator's API.
type BookingHandler struct {
	Reservations *service.Reservation
	Bookings     *repository.BookingRepo
}

func NewBookingHandler(res *service.Reservation, bookings *repository.BookingRepo) *BookingHandler {
	if res == nil || bookings == nil {
		panic("nil dependency passed to NewBookingHandler")
	}
	return &BookingHandler{Reservations: res, Bookings: bookings}
}

// Seats handles GET /v1/showtimes/:id/seats. Expired locks are released
// before the map is returned, so clients always see current state.
func (h *BookingHandler) Seats(c echo.Context) error {
	showtimeID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid showtime id"})
	}
	st, err := h.Reservations.SeatMap(c.Request().Context(), showtimeID)
	if err != nil {
		return serviceError(c, err)
	}

	available := 0
	for _, s := range st.Seats {
		if s.Status == model.SeatAvailable {
			available++
		}
	}
	return c.JSON(http.StatusOK, echo.Map{
		"showtime_id":     st.ID,
		"date":            st.Date,
		"start_time":      st.StartTime,
		"theater":         st.Theater,
		"price_cents":     st.PriceCents,
		"total_seats":     st.TotalSeats,
		"available_seats": available,
		"seats":           seatViews(st.Seats),
	})
}

type lockReq struct {
	Seats []string `json:"seats"`
}

// LockSeats handles POST /v1/showtimes/:id/lock. Seats that are free
// get a temporary hold for the caller; seats already taken are skipped
// and reported back rather than failing the request.
func (h *BookingHandler) LockSeats(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	showtimeID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid showtime id"})
	}
	var req lockReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	res, err := h.Reservations.LockSeats(c.Request().Context(), showtimeID, userID, req.Seats)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"locked":       res.Locked,
		"locked_until": res.LockedUntil.Format(time.RFC3339),
	})
}

type createBookingReq struct {
	ShowtimeID uint64   `json:"showtime_id"`
	Seats      []string `json:"seats"`
}

// CreateBooking handles POST /v1/bookings. Booking is all-or-nothing:
// every requested seat must be free or held by the caller.
func (h *BookingHandler) CreateBooking(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req createBookingReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.ShowtimeID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "showtime_id is required"})
	}

	b, err := h.Reservations.CreateBooking(c.Request().Context(), req.ShowtimeID, userID, req.Seats)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusCreated, newBookingView(b))
}

// MyBookings handles GET /v1/my-bookings and returns the caller's
// bookings, newest first, with movie and showtime details joined in.
func (h *BookingHandler) MyBookings(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	list, err := h.Bookings.ListByUser(c.Request().Context(), userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"bookings": list})
}

// GetBooking handles GET /v1/bookings/:id. Customers only see their own
// bookings; admins can fetch any.
func (h *BookingHandler) GetBooking(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	bookingID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
	}
	b, err := h.Reservations.GetBooking(c.Request().Context(), bookingID, userID, isAdmin(c))
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, newBookingView(b))
}

// CancelBooking handles POST /v1/bookings/:id/cancel. The booking's
// seats go back on sale; any completed payment stays untouched until an
// admin issues a refund.
func (h *BookingHandler) CancelBooking(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	bookingID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
	}
	b, err := h.Reservations.CancelBooking(c.Request().Context(), bookingID, userID, isAdmin(c))
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, newBookingView(b))
}
