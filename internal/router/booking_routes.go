package router

import (
	"github.com/labstack/echo/v4"

	"github.com/cinetix/movie-booking-api/internal/handler"
	"github.com/cinetix/movie-booking-api/internal/middleware"
)

// RegisterBooking registers customer booking endpoints under /v1.  All
// routes require a valid JWT; admins are allowed too so they can manage
// bookings through the same surface.
func RegisterBooking(e *echo.Echo, h *handler.BookingHandler, pay *handler.PaymentHandler, jwtSecret string) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole("USER", "ADMIN"),
	)
	g.POST("/showtimes/:id/lock", h.LockSeats)
	g.POST("/bookings", h.CreateBooking)
	g.GET("/my-bookings", h.MyBookings)
	g.GET("/bookings/:id", h.GetBooking)
	g.POST("/bookings/:id/cancel", h.CancelBooking)

	g.POST("/payments/order", pay.CreateOrder)
	g.POST("/payments/verify", pay.Verify)
}
