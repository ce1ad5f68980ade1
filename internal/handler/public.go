package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/cinetix/movie-booking-api/internal/model"
	"github.com/cinetix/movie-booking-api/internal/repository"
)

// PublicHandler serves the unauthenticated browse surface: movie
// listings, movie details and showtime schedules.
type PublicHandler struct {
	Movies    *repository.MovieRepo
	Showtimes *repository.ShowtimeRepo
}

func NewPublicHandler(movies *repository.MovieRepo, showtimes *repository.ShowtimeRepo) *PublicHandler {
	if movies == nil || showtimes == nil {
		panic("nil repository passed to NewPublicHandler")
	}
	return &PublicHandler{Movies: movies, Showtimes: showtimes}
}

// movieView is the wire shape of a movie in public and admin responses.
type movieView struct {
	ID          uint64   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Genres      []string `json:"genres"`
	Language    string   `json:"language"`
	DurationMin uint32   `json:"duration_min"`
	ReleaseDate string   `json:"release_date"`
	PosterURL   string   `json:"poster_url"`
	Rating      float64  `json:"rating"`
	Status      string   `json:"status"`
}

func newMovieView(m *model.Movie) movieView {
	return movieView{
		ID:          m.ID,
		Title:       m.Title,
		Description: m.Description,
		Genres:      m.Genres,
		Language:    m.Language,
		DurationMin: m.DurationMin,
		ReleaseDate: m.ReleaseDate.Format("2006-01-02"),
		PosterURL:   m.PosterURL,
		Rating:      m.Rating,
		Status:      string(m.Status),
	}
}

func movieViews(movies []model.Movie) []movieView {
	out := make([]movieView, 0, len(movies))
	for i := range movies {
		out = append(out, newMovieView(&movies[i]))
	}
	return out
}

// ListMovies handles GET /v1/movies. Only coming and active movies are
// listed; ?genre= and ?language= narrow the result.
func (h *PublicHandler) ListMovies(c echo.Context) error {
	movies, err := h.Movies.ListVisible(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	genre := strings.TrimSpace(c.QueryParam("genre"))
	language := strings.TrimSpace(c.QueryParam("language"))
	if genre != "" || language != "" {
		filtered := movies[:0]
		for _, m := range movies {
			if language != "" && !strings.EqualFold(m.Language, language) {
				continue
			}
			if genre != "" && !hasGenre(m.Genres, genre) {
				continue
			}
			filtered = append(filtered, m)
		}
		movies = filtered
	}

	return c.JSON(http.StatusOK, echo.Map{"movies": movieViews(movies)})
}

func hasGenre(genres []string, want string) bool {
	for _, g := range genres {
		if strings.EqualFold(g, want) {
			return true
		}
	}
	return false
}

// GetMovie handles GET /v1/movies/:id.
func (h *PublicHandler) GetMovie(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid movie id"})
	}
	m, err := h.Movies.GetByID(c.Request().Context(), id)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, newMovieView(m))
}

// MovieShowtimes handles GET /v1/movies/:id/showtimes. Past dates are
// filtered out so the schedule only shows bookable screenings.
func (h *PublicHandler) MovieShowtimes(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid movie id"})
	}
	ctx := c.Request().Context()
	if _, err := h.Movies.GetByID(ctx, id); err != nil {
		return serviceError(c, err)
	}
	list, err := h.Showtimes.ListByMovie(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	today := time.Now().UTC().Format("2006-01-02")
	upcoming := list[:0]
	for _, st := range list {
		if st.Date >= today {
			upcoming = append(upcoming, st)
		}
	}
	return c.JSON(http.StatusOK, echo.Map{"showtimes": upcoming})
}

// GetShowtime handles GET /v1/showtimes/:id and returns showtime
// metadata without the seat map; clients fetch seats separately.
func (h *PublicHandler) GetShowtime(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid showtime id"})
	}
	st, err := h.Showtimes.GetByID(c.Request().Context(), id)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
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
