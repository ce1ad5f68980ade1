package handler // handler defines http handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/cinetix/movie-booking-api/internal/model"
	"github.com/cinetix/movie-booking-api/internal/repository"
	"github.com/cinetix/movie-booking-api/internal/service"
)

// getUserID extracts the user_id from echo.Context and converts it to uint64.
func getUserID(c echo.Context) (uint64, error) {
	v := c.Get("user_id")
	switch t := v.(type) {
	case uint64:
		return t, nil
	case int:
		return uint64(t), nil
	case int64:
		return uint64(t), nil
	case float64:
		return uint64(t), nil
	case string:
		if n, err := strconv.ParseUint(t, 10, 64); err == nil {
			return n, nil
		}
	}
	return 0, errors.New("invalid user_id in context")
}

// isAdmin reports whether the authenticated caller carries the ADMIN role.
func isAdmin(c echo.Context) bool {
	role, _ := c.Get("role").(string)
	return role == "ADMIN"
}

// pathID parses a numeric :id style path parameter.
func pathID(c echo.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return id, true
}

// serviceError maps coordinator and repository errors onto HTTP responses.
// Unknown errors become a generic 500 so internals never leak to clients.
func serviceError(c echo.Context, err error) error {
	var unavailable *service.SeatUnavailableError
	switch {
	case errors.Is(err, repository.ErrMovieNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "movie not found"})
	case errors.Is(err, repository.ErrShowtimeNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "showtime not found"})
	case errors.Is(err, repository.ErrBookingNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
	case errors.Is(err, repository.ErrUserNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
	case errors.Is(err, repository.ErrAlreadyAdmin):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "user is already an admin"})
	case errors.Is(err, repository.ErrAlreadyBanned):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "user is already banned"})
	case errors.Is(err, repository.ErrNotBanned):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "user is already active"})
	case errors.Is(err, repository.ErrForbidden):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	case errors.Is(err, repository.ErrConflict):
		return c.JSON(http.StatusConflict, echo.Map{"error": "conflicting resources exist"})
	case errors.Is(err, repository.ErrVersionConflict):
		return c.JSON(http.StatusConflict, echo.Map{"error": "seats changed concurrently, retry"})
	case errors.Is(err, service.ErrNoSeats):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "seats are required"})
	case errors.Is(err, service.ErrAlreadyCancelled):
		return c.JSON(http.StatusConflict, echo.Map{"error": "booking already cancelled"})
	case errors.Is(err, service.ErrAlreadyPaid):
		return c.JSON(http.StatusConflict, echo.Map{"error": "booking already paid"})
	case errors.Is(err, service.ErrAlreadyRefunded):
		return c.JSON(http.StatusConflict, echo.Map{"error": "booking already refunded"})
	case errors.Is(err, service.ErrRefundNotPaid):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "payment is not completed"})
	case errors.Is(err, service.ErrPaymentNotCompleted):
		return c.JSON(http.StatusConflict, echo.Map{"error": "payment not completed"})
	case errors.Is(err, service.ErrPaymentVerification):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "payment verification failed"})
	case errors.As(err, &unavailable):
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "some seats are unavailable",
			"seats": unavailable.Seats,
		})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
}

// seatView is the wire shape of one seat in seat map responses. Lock
// details are only exposed while the seat is locked.
type seatView struct {
	SeatNumber  string     `json:"seat_number"`
	Row         string     `json:"row"`
	Status      string     `json:"status"`
	LockedUntil *time.Time `json:"locked_until,omitempty"`
}

func seatViews(seats []model.Seat) []seatView {
	out := make([]seatView, 0, len(seats))
	for _, s := range seats {
		v := seatView{SeatNumber: s.SeatNumber, Row: s.Row, Status: string(s.Status)}
		if s.Status == model.SeatLocked {
			v.LockedUntil = s.LockedUntil
		}
		out = append(out, v)
	}
	return out
}

// bookingView is the wire shape of a booking across booking and payment
// endpoints.
type bookingView struct {
	ID              uint64    `json:"id"`
	BookingCode     string    `json:"booking_code"`
	UserID          uint64    `json:"user_id"`
	ShowtimeID      uint64    `json:"showtime_id"`
	MovieID         uint64    `json:"movie_id"`
	Seats           []string  `json:"seats"`
	TotalPriceCents uint32    `json:"total_price_cents"`
	PaymentStatus   string    `json:"payment_status"`
	PaymentID       *string   `json:"payment_id,omitempty"`
	BookingStatus   string    `json:"booking_status"`
	CreatedAt       time.Time `json:"created_at"`
	ExpiresAt       time.Time `json:"expires_at"`
}

func newBookingView(b *model.Booking) bookingView {
	v := bookingView{
		ID:              b.ID,
		BookingCode:     b.BookingCode,
		UserID:          b.UserID,
		ShowtimeID:      b.ShowtimeID,
		MovieID:         b.MovieID,
		Seats:           make([]string, 0, len(b.Seats)),
		TotalPriceCents: b.TotalPriceCents,
		PaymentStatus:   string(b.PaymentStatus),
		PaymentID:       b.PaymentID,
		BookingStatus:   string(b.BookingStatus),
		CreatedAt:       b.CreatedAt,
		ExpiresAt:       b.ExpiresAt,
	}
	for _, s := range b.Seats {
		v.Seats = append(v.Seats, s.SeatNumber)
	}
	return v
}
