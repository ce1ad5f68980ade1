package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/cinetix/movie-booking-api/internal/model"
)

// MovieRepo manages persistence for movies. Genres are stored as a
// comma separated list in a single column and split on read.
type MovieRepo struct {
	db *sql.DB
}

// NewMovieRepo constructs a MovieRepo with the given DB handle.
func NewMovieRepo(db *sql.DB) *MovieRepo {
	return &MovieRepo{db: db}
}

const movieColumns = `id, title, description, genres, language, duration_min, release_date, poster_url, rating, status, created_at, updated_at`

func scanMovie(row interface{ Scan(...interface{}) error }) (*model.Movie, error) {
	var m model.Movie
	var genres, status string
	err := row.Scan(
		&m.ID, &m.Title, &m.Description, &genres, &m.Language, &m.DurationMin,
		&m.ReleaseDate, &m.PosterURL, &m.Rating, &status, &m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	m.Status = model.MovieStatus(status)
	if genres != "" {
		m.Genres = strings.Split(genres, ",")
	} else {
		m.Genres = []string{}
	}
	return &m, nil
}

// Create inserts a new movie and assigns the generated ID back to the
// struct, along with DB-default timestamps.
func (r *MovieRepo) Create(ctx context.Context, m *model.Movie) error {
	const q = `INSERT INTO movies (title, description, genres, language, duration_min, release_date, poster_url, rating, status)
			   VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q,
		m.Title, m.Description, strings.Join(m.Genres, ","), m.Language, m.DurationMin,
		m.ReleaseDate.UTC().Format("2006-01-02"), m.PosterURL, m.Rating, string(m.Status),
	)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	m.ID = uint64(id)
	const sel = `SELECT created_at, updated_at FROM movies WHERE id = ?`
	return r.db.QueryRowContext(ctx, sel, m.ID).Scan(&m.CreatedAt, &m.UpdatedAt)
}

// GetByID retrieves a movie by its ID. It returns ErrMovieNotFound when
// there is no matching row.
func (r *MovieRepo) GetByID(ctx context.Context, id uint64) (*model.Movie, error) {
	const q = `SELECT ` + movieColumns + ` FROM movies WHERE id = ?`
	m, err := scanMovie(r.db.QueryRowContext(ctx, q, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMovieNotFound
		}
		return nil, err
	}
	return m, nil
}

// ListVisible returns movies in the coming or active state, the set a
// guest browsing the catalogue should see. Results are ordered by
// release date descending.
func (r *MovieRepo) ListVisible(ctx context.Context) ([]model.Movie, error) {
	const q = `SELECT ` + movieColumns + ` FROM movies
			   WHERE status IN (?, ?)
			   ORDER BY release_date DESC`
	return r.list(ctx, q, string(model.MovieActive), string(model.MovieComing))
}

// ListAll returns every movie regardless of status, for admin use.
func (r *MovieRepo) ListAll(ctx context.Context) ([]model.Movie, error) {
	const q = `SELECT ` + movieColumns + ` FROM movies ORDER BY release_date DESC`
	return r.list(ctx, q)
}

func (r *MovieRepo) list(ctx context.Context, query string, args ...interface{}) ([]model.Movie, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	movies := make([]model.Movie, 0)
	for rows.Next() {
		m, err := scanMovie(rows)
		if err != nil {
			return nil, err
		}
		movies = append(movies, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return movies, nil
}

// Update rewrites a movie's mutable attributes. Returns
// ErrMovieNotFound when the row does not exist.
func (r *MovieRepo) Update(ctx context.Context, m *model.Movie) error {
	const q = `UPDATE movies
			   SET title = ?, description = ?, genres = ?, language = ?, duration_min = ?,
				   release_date = ?, poster_url = ?, rating = ?, status = ?, updated_at = CURRENT_TIMESTAMP
			   WHERE id = ?`
	res, err := r.db.ExecContext(ctx, q,
		m.Title, m.Description, strings.Join(m.Genres, ","), m.Language, m.DurationMin,
		m.ReleaseDate.UTC().Format("2006-01-02"), m.PosterURL, m.Rating, string(m.Status), m.ID,
	)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		var one int
		if err := r.db.QueryRowContext(ctx, `SELECT 1 FROM movies WHERE id = ? LIMIT 1`, m.ID).Scan(&one); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrMovieNotFound
			}
			return err
		}
	}
	return nil
}

// Delete removes a movie. Deletion is refused with ErrConflict while
// any showtime still references the movie; showtimes must be removed
// first so bookings referencing them stay resolvable.
func (r *MovieRepo) Delete(ctx context.Context, id uint64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	var one int
	if err := tx.QueryRowContext(ctx, `SELECT 1 FROM movies WHERE id = ? LIMIT 1`, id).Scan(&one); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrMovieNotFound
		}
		return err
	}
	var count int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM showtimes WHERE movie_id = ?`, id).Scan(&count); err != nil {
		return err
	}
	if count > 0 {
		return ErrConflict
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM movies WHERE id = ?`, id); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}
