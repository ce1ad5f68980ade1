package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing

	"github.com/cinetix/movie-booking-api/internal/handler"
	"github.com/cinetix/movie-booking-api/internal/middleware"
)

// RegisterRoutes registers routes that do not require authentication on
// the provided Echo instance.  Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
	// Used by load balancers and monitoring to verify the service is up.
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers all authentication-related routes and applies
// the necessary middleware.  Unauthenticated operations live under
// /v1/auth, while protected endpoints live under /v1.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	// /refresh rotates the refresh token; /refresh-access only issues a
	// new access token.
	g.POST("/refresh", a.Refresh)
	g.POST("/refresh-access", a.RefreshAccess)
	// Logout does not require JWT authentication: a refresh token in the
	// body is enough to terminate a single session.
	g.POST("/logout", a.Logout)

	auth := e.Group("/v1")
	auth.Use(middleware.JWTAuth(jwtSecret))
	auth.Use(middleware.RequireRole("USER", "ADMIN"))
	auth.GET("/me", a.Me)

	// Also reachable outside the auth group so a refresh token alone can
	// close a session.
	e.POST("/v1/logout", a.Logout)
}

// RegisterPublic registers unauthenticated browse endpoints.  Guests
// can list movies, inspect showtimes and preview seat availability
// before registering.
func RegisterPublic(e *echo.Echo, p *handler.PublicHandler, b *handler.BookingHandler) {
	e.GET("/v1/movies", p.ListMovies)
	e.GET("/v1/movies/:id", p.GetMovie)
	e.GET("/v1/movies/:id/showtimes", p.MovieShowtimes)
	e.GET("/v1/showtimes/:id", p.GetShowtime)
	// Seat availability is public so guests can preview a showtime
	// before selecting seats.  Expired locks are swept on every read.
	e.GET("/v1/showtimes/:id/seats", b.Seats)
}
