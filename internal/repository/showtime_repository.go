// Package repository contains data access logic for the booking domain.
// This file covers showtimes and their embedded seat rows. A showtime's
// seat state is only ever rewritten through a compare-and-swap on
// showtimes.seat_version so that concurrent lock/book operations cannot
// clobber each other's writes.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/cinetix/movie-booking-api/internal/model"
)

// ShowtimeRepo manages persistence for showtimes and their seats.
type ShowtimeRepo struct {
	db *sql.DB
}

// NewShowtimeRepo constructs a ShowtimeRepo with the given DB handle.
func NewShowtimeRepo(db *sql.DB) *ShowtimeRepo {
	return &ShowtimeRepo{db: db}
}

// DB exposes the underlying sql.DB. It allows callers to begin
// transactions spanning multiple repositories.
func (r *ShowtimeRepo) DB() *sql.DB {
	return r.db
}

// Create inserts a showtime together with its generated seat layout in
// one transaction. On success the generated ID and timestamps are
// populated on the given Showtime.
func (r *ShowtimeRepo) Create(ctx context.Context, st *model.Showtime) error {
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
	const q = `INSERT INTO showtimes (movie_id, show_date, start_time, end_time, theater, total_seats, price_cents)
			   VALUES (?, ?, ?, ?, ?, ?, ?)`
	res, err := tx.ExecContext(ctx, q, st.MovieID, st.Date, st.StartTime, st.EndTime, st.Theater, st.TotalSeats, st.PriceCents)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	st.ID = uint64(id)
	if err := insertSeatsTx(ctx, tx, st.ID, st.Seats); err != nil {
		return err
	}
	// Query back DB defaults (version, timestamps).
	const sel = `SELECT seat_version, created_at, updated_at FROM showtimes WHERE id = ?`
	if err := tx.QueryRowContext(ctx, sel, st.ID).Scan(&st.SeatVersion, &st.CreatedAt, &st.UpdatedAt); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// insertSeatsTx bulk inserts seat rows for a freshly created showtime.
// All seats are expected to be in their initial available state.
func insertSeatsTx(ctx context.Context, tx *sql.Tx, showtimeID uint64, seats []model.Seat) error {
	if len(seats) == 0 {
		return nil
	}
	query := `INSERT INTO showtime_seats (showtime_id, seat_number, row_label, status) VALUES `
	args := make([]interface{}, 0, len(seats)*4)
	for i, s := range seats {
		if i > 0 {
			query += ","
		}
		query += "(?, ?, ?, ?)"
		args = append(args, showtimeID, s.SeatNumber, s.Row, string(s.Status))
	}
	_, err := tx.ExecContext(ctx, query, args...)
	return err
}

// GetByID retrieves a showtime with its full seat array. Seats are
// ordered by row and seat index so the layout is deterministic. It
// returns ErrShowtimeNotFound when no matching row exists.
func (r *ShowtimeRepo) GetByID(ctx context.Context, id uint64) (*model.Showtime, error) {
	const q = `SELECT id, movie_id, show_date, start_time, end_time, theater, total_seats, price_cents, seat_version, created_at, updated_at
			   FROM showtimes WHERE id = ?`
	var st model.Showtime
	var showDate time.Time
	err := r.db.QueryRowContext(ctx, q, id).Scan(
		&st.ID, &st.MovieID, &showDate, &st.StartTime, &st.EndTime, &st.Theater,
		&st.TotalSeats, &st.PriceCents, &st.SeatVersion, &st.CreatedAt, &st.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrShowtimeNotFound
		}
		return nil, err
	}
	st.Date = showDate.UTC().Format("2006-01-02")
	seats, err := r.loadSeats(ctx, st.ID)
	if err != nil {
		return nil, err
	}
	st.Seats = seats
	return &st, nil
}

func (r *ShowtimeRepo) loadSeats(ctx context.Context, showtimeID uint64) ([]model.Seat, error) {
	const q = `SELECT seat_number, row_label, status, locked_by, locked_until, booked_by
			   FROM showtime_seats
			   WHERE showtime_id = ?
			   ORDER BY row_label, LENGTH(seat_number), seat_number`
	rows, err := r.db.QueryContext(ctx, q, showtimeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	seats := make([]model.Seat, 0, 64)
	for rows.Next() {
		var s model.Seat
		var status string
		var lockedBy, bookedBy sql.NullInt64
		var lockedUntil sql.NullTime
		if err := rows.Scan(&s.SeatNumber, &s.Row, &status, &lockedBy, &lockedUntil, &bookedBy); err != nil {
			return nil, err
		}
		s.Status = model.SeatStatus(status)
		if lockedBy.Valid {
			v := uint64(lockedBy.Int64)
			s.LockedBy = &v
		}
		if lockedUntil.Valid {
			t := lockedUntil.Time.UTC()
			s.LockedUntil = &t
		}
		if bookedBy.Valid {
			v := uint64(bookedBy.Int64)
			s.BookedBy = &v
		}
		seats = append(seats, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return seats, nil
}

// casSeatVersionTx bumps a showtime's seat_version if and only if it
// still has the expected value. It returns ErrVersionConflict when a
// concurrent writer got there first, and ErrShowtimeNotFound when the
// showtime no longer exists.
func casSeatVersionTx(ctx context.Context, tx *sql.Tx, showtimeID, expected uint64) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE showtimes SET seat_version = seat_version + 1 WHERE id = ? AND seat_version = ?`,
		showtimeID, expected,
	)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return nil
	}
	var one int
	err = tx.QueryRowContext(ctx, `SELECT 1 FROM showtimes WHERE id = ? LIMIT 1`, showtimeID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrShowtimeNotFound
	}
	if err != nil {
		return err
	}
	return ErrVersionConflict
}

// upsertSeatsTx rewrites the seat rows for a showtime from the given
// in-memory seat array. Rows are matched on (showtime_id, seat_number).
func upsertSeatsTx(ctx context.Context, tx *sql.Tx, showtimeID uint64, seats []model.Seat) error {
	if len(seats) == 0 {
		return nil
	}
	query := `INSERT INTO showtime_seats (showtime_id, seat_number, row_label, status, locked_by, locked_until, booked_by) VALUES `
	args := make([]interface{}, 0, len(seats)*7)
	for i, s := range seats {
		if i > 0 {
			query += ","
		}
		query += "(?, ?, ?, ?, ?, ?, ?)"
		var lockedBy, bookedBy interface{}
		var lockedUntil interface{}
		if s.LockedBy != nil {
			lockedBy = *s.LockedBy
		}
		if s.LockedUntil != nil {
			lockedUntil = s.LockedUntil.UTC().Format("2006-01-02 15:04:05")
		}
		if s.BookedBy != nil {
			bookedBy = *s.BookedBy
		}
		args = append(args, showtimeID, s.SeatNumber, s.Row, string(s.Status), lockedBy, lockedUntil, bookedBy)
	}
	query += ` ON DUPLICATE KEY UPDATE
			   status = VALUES(status),
			   locked_by = VALUES(locked_by),
			   locked_until = VALUES(locked_until),
			   booked_by = VALUES(booked_by)`
	_, err := tx.ExecContext(ctx, query, args...)
	return err
}

// UpdateMeta updates a showtime's schedule and pricing attributes. Seat
// state is untouched; only the reservation coordinator mutates seats.
// Returns ErrShowtimeNotFound when the row does not exist.
func (r *ShowtimeRepo) UpdateMeta(ctx context.Context, st *model.Showtime) error {
	const q = `UPDATE showtimes
			   SET show_date = ?, start_time = ?, end_time = ?, theater = ?, price_cents = ?, updated_at = CURRENT_TIMESTAMP
			   WHERE id = ?`
	res, err := r.db.ExecContext(ctx, q, st.Date, st.StartTime, st.EndTime, st.Theater, st.PriceCents, st.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		var one int
		if err := r.db.QueryRowContext(ctx, `SELECT 1 FROM showtimes WHERE id = ? LIMIT 1`, st.ID).Scan(&one); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrShowtimeNotFound
			}
			return err
		}
	}
	return nil
}

// Delete removes a showtime and its seat rows. The deletion is refused
// with ErrConflict while any non-cancelled booking references the
// showtime, so seat history behind live bookings can never vanish.
func (r *ShowtimeRepo) Delete(ctx context.Context, id uint64) error {
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
	if err := tx.QueryRowContext(ctx, `SELECT 1 FROM showtimes WHERE id = ? LIMIT 1`, id).Scan(&one); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrShowtimeNotFound
		}
		return err
	}
	var active int
	err = tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM bookings WHERE showtime_id = ? AND booking_status <> ?`,
		id, string(model.BookingCancelled),
	).Scan(&active)
	if err != nil {
		return err
	}
	if active > 0 {
		return ErrConflict
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM showtime_seats WHERE showtime_id = ?`, id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM showtimes WHERE id = ?`, id); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// ShowtimeSummary is a showtime row without its seat array, joined with
// the movie title for listings.
type ShowtimeSummary struct {
	ID         uint64 `json:"id"`
	MovieID    uint64 `json:"movie_id"`
	MovieTitle string `json:"movie_title"`
	Date       string `json:"date"`
	StartTime  string `json:"start_time"`
	EndTime    string `json:"end_time"`
	Theater    string `json:"theater"`
	TotalSeats uint32 `json:"total_seats"`
	PriceCents uint32 `json:"price_cents"`
}

// ListByMovie returns all showtimes for a movie ordered by date and
// start time. Seat arrays are not loaded; callers needing seats use
// GetByID.
func (r *ShowtimeRepo) ListByMovie(ctx context.Context, movieID uint64) ([]ShowtimeSummary, error) {
	const q = `SELECT s.id, s.movie_id, m.title, s.show_date, s.start_time, s.end_time, s.theater, s.total_seats, s.price_cents
			   FROM showtimes s
			   JOIN movies m ON m.id = s.movie_id
			   WHERE s.movie_id = ?
			   ORDER BY s.show_date ASC, s.start_time ASC`
	return r.listSummaries(ctx, q, movieID)
}

// ListAll returns every showtime with its movie title, ordered by date.
// Used by the admin listing endpoint.
func (r *ShowtimeRepo) ListAll(ctx context.Context) ([]ShowtimeSummary, error) {
	const q = `SELECT s.id, s.movie_id, m.title, s.show_date, s.start_time, s.end_time, s.theater, s.total_seats, s.price_cents
			   FROM showtimes s
			   JOIN movies m ON m.id = s.movie_id
			   ORDER BY s.show_date ASC, s.start_time ASC`
	return r.listSummaries(ctx, q)
}

func (r *ShowtimeRepo) listSummaries(ctx context.Context, query string, args ...interface{}) ([]ShowtimeSummary, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	result := make([]ShowtimeSummary, 0)
	for rows.Next() {
		var s ShowtimeSummary
		var showDate time.Time
		if err := rows.Scan(
			&s.ID, &s.MovieID, &s.MovieTitle, &showDate, &s.StartTime, &s.EndTime,
			&s.Theater, &s.TotalSeats, &s.PriceCents,
		); err != nil {
			return nil, err
		}
		s.Date = showDate.UTC().Format("2006-01-02")
		result = append(result, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
