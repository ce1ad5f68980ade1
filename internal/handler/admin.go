package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/cinetix/movie-booking-api/internal/inventory"
	"github.com/cinetix/movie-booking-api/internal/model"
	"github.com/cinetix/movie-booking-api/internal/repository"
	"github.com/cinetix/movie-booking-api/internal/service"
)

// AdminHandler serves the admin surface: movie and showtime management,
// booking oversight, refunds and the dashboard. All routes are mounted
// behind JWT auth plus the ADMIN role check.
type AdminHandler struct {
	Movies       *repository.MovieRepo
	Showtimes    *repository.ShowtimeRepo
	Bookings     *repository.BookingRepo
	Users        *repository.UserRepo
	Reservations *service.Reservation
}

func NewAdminHandler(movies *repository.MovieRepo, showtimes *repository.ShowtimeRepo, bookings *repository.BookingRepo, users *repository.UserRepo, res *service.Reservation) *AdminHandler {
	if movies == nil || showtimes == nil || bookings == nil || users == nil || res == nil {
		panic("nil dependency passed to NewAdminHandler")
	}
	return &AdminHandler{Movies: movies, Showtimes: showtimes, Bookings: bookings, Users: users, Reservations: res}
}

// ----- movies -----

type movieReq struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Genres      []string `json:"genres"`
	Language    string   `json:"language"`
	DurationMin uint32   `json:"duration_min"`
	ReleaseDate string   `json:"release_date"` // YYYY-MM-DD
	PosterURL   string   `json:"poster_url"`
	Rating      float64  `json:"rating"`
	Status      string   `json:"status"`
}

func (r *movieReq) toModel() (*model.Movie, string) {
	title := strings.TrimSpace(r.Title)
	if title == "" {
		return nil, "title is required"
	}
	if r.DurationMin == 0 {
		return nil, "duration_min is required"
	}
	release, err := time.Parse("2006-01-02", r.ReleaseDate)
	if err != nil {
		return nil, "release_date must be YYYY-MM-DD"
	}
	status := model.MovieStatus(strings.ToLower(strings.TrimSpace(r.Status)))
	switch status {
	case model.MovieComing, model.MovieActive, model.MovieEnded:
	case "":
		status = model.MovieComing
	default:
		return nil, "invalid status"
	}
	genres := make([]string, 0, len(r.Genres))
	for _, g := range r.Genres {
		if g = strings.TrimSpace(g); g != "" {
			genres = append(genres, g)
		}
	}
	return &model.Movie{
		Title:       title,
		Description: r.Description,
		Genres:      genres,
		Language:    strings.TrimSpace(r.Language),
		DurationMin: r.DurationMin,
		ReleaseDate: release,
		PosterURL:   strings.TrimSpace(r.PosterURL),
		Rating:      r.Rating,
		Status:      status,
	}, ""
}

// CreateMovie handles POST /v1/admin/movies.
func (h *AdminHandler) CreateMovie(c echo.Context) error {
	var req movieReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	m, msg := req.toModel()
	if msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}
	if err := h.Movies.Create(c.Request().Context(), m); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create movie failed"})
	}
	return c.JSON(http.StatusCreated, newMovieView(m))
}

// ListMovies handles GET /v1/admin/movies and, unlike the public list,
// includes ended movies.
func (h *AdminHandler) ListMovies(c echo.Context) error {
	movies, err := h.Movies.ListAll(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"movies": movieViews(movies)})
}

// UpdateMovie handles PUT /v1/admin/movies/:id.
func (h *AdminHandler) UpdateMovie(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid movie id"})
	}
	var req movieReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	m, msg := req.toModel()
	if msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}
	m.ID = id
	if err := h.Movies.Update(c.Request().Context(), m); err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, newMovieView(m))
}

// DeleteMovie handles DELETE /v1/admin/movies/:id. A movie with
// remaining showtimes cannot be deleted.
func (h *AdminHandler) DeleteMovie(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid movie id"})
	}
	if err := h.Movies.Delete(c.Request().Context(), id); err != nil {
		return serviceError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// ----- showtimes -----

type showtimeReq struct {
	MovieID    uint64 `json:"movie_id"`
	Date       string `json:"date"` // YYYY-MM-DD
	StartTime  string `json:"start_time"`
	EndTime    string `json:"end_time"`
	Theater    string `json:"theater"`
	TotalSeats uint32 `json:"total_seats"`
	PriceCents uint32 `json:"price_cents"`
}

func (r *showtimeReq) validate() string {
	if _, err := time.Parse("2006-01-02", r.Date); err != nil {
		return "date must be YYYY-MM-DD"
	}
	if _, err := time.Parse("15:04", r.StartTime); err != nil {
		return "start_time must be HH:MM"
	}
	if _, err := time.Parse("15:04", r.EndTime); err != nil {
		return "end_time must be HH:MM"
	}
	if strings.TrimSpace(r.Theater) == "" {
		return "theater is required"
	}
	if r.PriceCents == 0 {
		return "price_cents is required"
	}
	return ""
}

// CreateShowtime handles POST /v1/admin/showtimes. The seat layout is
// generated row-major from total_seats and every seat starts available.
func (h *AdminHandler) CreateShowtime(c echo.Context) error {
	var req showtimeReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.MovieID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "movie_id is required"})
	}
	if req.TotalSeats == 0 || req.TotalSeats > 100 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "total_seats must be between 1 and 100"})
	}
	if msg := req.validate(); msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}

	ctx := c.Request().Context()
	if _, err := h.Movies.GetByID(ctx, req.MovieID); err != nil {
		return serviceError(c, err)
	}

	st := &model.Showtime{
		MovieID:    req.MovieID,
		Date:       req.Date,
		StartTime:  req.StartTime,
		EndTime:    req.EndTime,
		Theater:    strings.TrimSpace(req.Theater),
		TotalSeats: req.TotalSeats,
		PriceCents: req.PriceCents,
		Seats:      inventory.GenerateLayout(req.TotalSeats),
	}
	if err := h.Showtimes.Create(ctx, st); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create showtime failed"})
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"id":          st.ID,
		"movie_id":    st.MovieID,
		"date":        st.Date,
		"start_time":  st.StartTime,
		"end_time":    st.EndTime,
		"theater":     st.Theater,
		"total_seats": st.TotalSeats,
		"price_cents": st.PriceCents,
	})
}

// ListShowtimes handles GET /v1/admin/showtimes.
func (h *AdminHandler) ListShowtimes(c echo.Context) error {
	list, err := h.Showtimes.ListAll(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"showtimes": list})
}

// UpdateShowtime handles PUT /v1/admin/showtimes/:id. Schedule and
// price can change; the seat layout is fixed at creation.
func (h *AdminHandler) UpdateShowtime(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid showtime id"})
	}
	var req showtimeReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if msg := req.validate(); msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}

	st := &model.Showtime{
		ID:         id,
		Date:       req.Date,
		StartTime:  req.StartTime,
		EndTime:    req.EndTime,
		Theater:    strings.TrimSpace(req.Theater),
		PriceCents: req.PriceCents,
	}
	if err := h.Showtimes.UpdateMeta(c.Request().Context(), st); err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"updated": true})
}

// DeleteShowtime handles DELETE /v1/admin/showtimes/:id. Deletion is
// refused while non-cancelled bookings reference the showtime.
func (h *AdminHandler) DeleteShowtime(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid showtime id"})
	}
	if err := h.Showtimes.Delete(c.Request().Context(), id); err != nil {
		return serviceError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// ----- bookings -----

// ListBookings handles GET /v1/admin/bookings. ?limit= caps the result,
// newest first.
func (h *AdminHandler) ListBookings(c echo.Context) error {
	limit := 100
	if raw := c.QueryParam("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 500 {
			limit = n
		}
	}
	list, err := h.Bookings.ListAll(c.Request().Context(), limit)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"bookings": list})
}

// RefundBooking handles POST /v1/admin/bookings/:id/refund. The payment
// moves to refunded, the booking is cancelled and its seats go back on
// sale unless they were already released.
func (h *AdminHandler) RefundBooking(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
	}
	b, err := h.Reservations.RefundBooking(c.Request().Context(), id)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, newBookingView(b))
}

// adminUserView is the user shape on the admin surface. Unlike the auth
// responses it exposes the account's active flag.
type adminUserView struct {
	ID     uint64 `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	Active bool   `json:"active"`
}

// ListUsers handles GET /v1/admin/users and returns all customer
// accounts without credential material.
func (h *AdminHandler) ListUsers(c echo.Context) error {
	users, err := h.Users.ListCustomers(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	out := make([]adminUserView, 0, len(users))
	for _, u := range users {
		out = append(out, adminUserView{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role, Active: u.IsActive})
	}
	return c.JSON(http.StatusOK, echo.Map{"users": out})
}

// PromoteUser handles POST /v1/admin/users/:id/promote.
func (h *AdminHandler) PromoteUser(c echo.Context) error {
	return h.moderateUser(c, h.Users.Promote)
}

// BanUser handles POST /v1/admin/users/:id/ban. A banned account can no
// longer log in or refresh tokens; its bookings are untouched.
func (h *AdminHandler) BanUser(c echo.Context) error {
	return h.moderateUser(c, h.Users.Ban)
}

// UnbanUser handles POST /v1/admin/users/:id/unban.
func (h *AdminHandler) UnbanUser(c echo.Context) error {
	return h.moderateUser(c, h.Users.Unban)
}

func (h *AdminHandler) moderateUser(c echo.Context, op func(context.Context, uint64) error) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user id"})
	}
	ctx := c.Request().Context()
	if err := op(ctx, id); err != nil {
		return serviceError(c, err)
	}
	u, err := h.Users.GetByID(ctx, id)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"user": adminUserView{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role, Active: u.IsActive},
	})
}

// UpdateBookingStatus handles PUT /v1/admin/bookings/:id. "completed"
// closes a paid booking after the show; "cancelled" routes through the
// coordinator so the seats are released.
func (h *AdminHandler) UpdateBookingStatus(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
	}
	var req struct {
		BookingStatus string `json:"booking_status"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx := c.Request().Context()
	switch model.BookingStatus(req.BookingStatus) {
	case model.BookingCompleted:
		b, err := h.Reservations.CompleteBooking(ctx, id)
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(http.StatusOK, newBookingView(b))
	case model.BookingCancelled:
		b, err := h.Reservations.CancelBooking(ctx, id, 0, true)
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(http.StatusOK, newBookingView(b))
	default:
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking status"})
	}
}

// Stats handles GET /v1/admin/stats and returns the dashboard
// aggregates: counts, completed revenue and the most recent bookings.
func (h *AdminHandler) Stats(c echo.Context) error {
	stats, err := h.Bookings.Stats(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, stats)
}
