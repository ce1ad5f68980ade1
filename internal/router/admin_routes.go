package router

import (
	"github.com/labstack/echo/v4"

	"github.com/cinetix/movie-booking-api/internal/handler"
	"github.com/cinetix/movie-booking-api/internal/middleware"
)

// RegisterAdmin registers management endpoints under /v1/admin.  Every
// route requires a valid JWT carrying the ADMIN role.
func RegisterAdmin(e *echo.Echo, h *handler.AdminHandler, jwtSecret string) {
	g := e.Group(
		"/v1/admin",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole("ADMIN"),
	)

	g.POST("/movies", h.CreateMovie)
	g.GET("/movies", h.ListMovies)
	g.PUT("/movies/:id", h.UpdateMovie)
	g.DELETE("/movies/:id", h.DeleteMovie)

	g.POST("/showtimes", h.CreateShowtime)
	g.GET("/showtimes", h.ListShowtimes)
	g.PUT("/showtimes/:id", h.UpdateShowtime)
	g.DELETE("/showtimes/:id", h.DeleteShowtime)

	g.GET("/bookings", h.ListBookings)
	g.PUT("/bookings/:id", h.UpdateBookingStatus)
	g.POST("/bookings/:id/refund", h.RefundBooking)

	g.GET("/users", h.ListUsers)
	g.POST("/users/:id/promote", h.PromoteUser)
	g.POST("/users/:id/ban", h.BanUser)
	g.POST("/users/:id/unban", h.UnbanUser)

	g.GET("/stats", h.Stats)
}
