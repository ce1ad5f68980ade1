package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/cinetix/movie-booking-api/internal/model"
)

// BookingRepo provides persistence for bookings and their seat
// snapshots. Bookings are append-mostly: rows are inserted once and
// afterwards only their status columns change. Nothing here deletes a
// booking.
type BookingRepo struct {
	db *sql.DB
}

// NewBookingRepo returns a new BookingRepo bound to the given database.
func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

// CreateTx inserts a booking and its seat snapshots within the scope of
// an existing transaction. It populates the generated ID and DB-default
// timestamps on the provided record. The caller must commit or roll
// back the transaction.
func (r *BookingRepo) CreateTx(ctx context.Context, tx *sql.Tx, b *model.Booking) error {
	const q = `INSERT INTO bookings (booking_code, user_id, showtime_id, movie_id, total_price_cents, payment_status, booking_status, expires_at)
			   VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := tx.ExecContext(ctx, q,
		b.BookingCode, b.UserID, b.ShowtimeID, b.MovieID, b.TotalPriceCents,
		string(b.PaymentStatus), string(b.BookingStatus),
		b.ExpiresAt.UTC().Format("2006-01-02 15:04:05"),
	)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	b.ID = uint64(id)
	if len(b.Seats) > 0 {
		query := `INSERT INTO booking_seats (booking_id, seat_number, row_label) VALUES `
		args := make([]interface{}, 0, len(b.Seats)*3)
		for i, s := range b.Seats {
			if i > 0 {
				query += ","
			}
			query += "(?, ?, ?)"
			args = append(args, b.ID, s.SeatNumber, s.Row)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return err
		}
	}
	const sel = `SELECT created_at, expires_at FROM bookings WHERE id = ?`
	return tx.QueryRowContext(ctx, sel, b.ID).Scan(&b.CreatedAt, &b.ExpiresAt)
}

// GetByID returns a booking with its seat snapshots. It returns
// ErrBookingNotFound when no matching row exists.
func (r *BookingRepo) GetByID(ctx context.Context, id uint64) (*model.Booking, error) {
	const q = `SELECT id, booking_code, user_id, showtime_id, movie_id, total_price_cents,
					  payment_status, payment_id, booking_status, created_at, expires_at
			   FROM bookings WHERE id = ?`
	var b model.Booking
	var payStatus, bookStatus string
	var paymentID sql.NullString
	err := r.db.QueryRowContext(ctx, q, id).Scan(
		&b.ID, &b.BookingCode, &b.UserID, &b.ShowtimeID, &b.MovieID, &b.TotalPriceCents,
		&payStatus, &paymentID, &bookStatus, &b.CreatedAt, &b.ExpiresAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}
	b.PaymentStatus = model.PaymentStatus(payStatus)
	b.BookingStatus = model.BookingStatus(bookStatus)
	if paymentID.Valid {
		pid := paymentID.String
		b.PaymentID = &pid
	}
	const seatQ = `SELECT seat_number, row_label FROM booking_seats WHERE booking_id = ? ORDER BY row_label, LENGTH(seat_number), seat_number`
	rows, err := r.db.QueryContext(ctx, seatQ, b.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var s model.BookingSeat
		if err := rows.Scan(&s.SeatNumber, &s.Row); err != nil {
			return nil, err
		}
		b.Seats = append(b.Seats, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &b, nil
}

// UpdatePayment persists a booking's payment status and payment
// reference after the gateway verdict.
func (r *BookingRepo) UpdatePayment(ctx context.Context, b *model.Booking) error {
	var paymentID interface{}
	if b.PaymentID != nil {
		paymentID = *b.PaymentID
	}
	_, err := r.db.ExecContext(ctx,
		`UPDATE bookings SET payment_status = ?, payment_id = ? WHERE id = ?`,
		string(b.PaymentStatus), paymentID, b.ID,
	)
	return err
}

// UpdateStatusTx persists both lifecycle columns of a booking within a
// transaction, used by cancellation and refunds alongside seat writes.
func (r *BookingRepo) UpdateStatusTx(ctx context.Context, tx *sql.Tx, b *model.Booking) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE bookings SET payment_status = ?, booking_status = ? WHERE id = ?`,
		string(b.PaymentStatus), string(b.BookingStatus), b.ID,
	)
	return err
}

// UpdateStatus persists both lifecycle columns outside a transaction.
// Used for transitions that do not touch seat state, such as marking a
// booking completed after the show.
func (r *BookingRepo) UpdateStatus(ctx context.Context, b *model.Booking) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE bookings SET payment_status = ?, booking_status = ? WHERE id = ?`,
		string(b.PaymentStatus), string(b.BookingStatus), b.ID,
	)
	return err
}

// BookingDetail is a booking joined with movie and showtime information
// for listings. Seats hold the snapshot captured at creation time.
type BookingDetail struct {
	ID              uint64              `json:"id"`
	BookingCode     string              `json:"booking_code"`
	UserID          uint64              `json:"user_id"`
	UserEmail       string              `json:"user_email,omitempty"`
	MovieID         uint64              `json:"movie_id"`
	MovieTitle      string              `json:"movie_title"`
	ShowtimeID      uint64              `json:"showtime_id"`
	Date            string              `json:"date"`
	StartTime       string              `json:"start_time"`
	Theater         string              `json:"theater"`
	Seats           []model.BookingSeat `json:"seats"`
	TotalPriceCents uint32              `json:"total_price_cents"`
	PaymentStatus   string              `json:"payment_status"`
	BookingStatus   string              `json:"booking_status"`
	CreatedAt       time.Time           `json:"created_at"`
}

const bookingDetailSelect = `SELECT b.id, b.booking_code, b.user_id, u.email, b.movie_id, m.title,
									b.showtime_id, s.show_date, s.start_time, s.theater,
									b.total_price_cents, b.payment_status, b.booking_status, b.created_at
							 FROM bookings b
							 JOIN users u ON u.id = b.user_id
							 JOIN movies m ON m.id = b.movie_id
							 JOIN showtimes s ON s.id = b.showtime_id`

// ListByUser returns all bookings for the given user, newest first,
// with movie and showtime details and seat snapshots populated.
func (r *BookingRepo) ListByUser(ctx context.Context, userID uint64) ([]BookingDetail, error) {
	const q = bookingDetailSelect + ` WHERE b.user_id = ? ORDER BY b.created_at DESC`
	return r.listDetails(ctx, q, userID)
}

// ListAll returns every booking, newest first. Used by the admin
// listing endpoint.
func (r *BookingRepo) ListAll(ctx context.Context, limit int) ([]BookingDetail, error) {
	q := bookingDetailSelect + ` ORDER BY b.created_at DESC`
	if limit > 0 {
		q += ` LIMIT ?`
		return r.listDetails(ctx, q, limit)
	}
	return r.listDetails(ctx, q)
}

func (r *BookingRepo) listDetails(ctx context.Context, query string, args ...interface{}) ([]BookingDetail, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	details := make([]BookingDetail, 0)
	index := make(map[uint64]int)
	for rows.Next() {
		var d BookingDetail
		var showDate time.Time
		if err := rows.Scan(
			&d.ID, &d.BookingCode, &d.UserID, &d.UserEmail, &d.MovieID, &d.MovieTitle,
			&d.ShowtimeID, &showDate, &d.StartTime, &d.Theater,
			&d.TotalPriceCents, &d.PaymentStatus, &d.BookingStatus, &d.CreatedAt,
		); err != nil {
			return nil, err
		}
		d.Date = showDate.UTC().Format("2006-01-02")
		d.Seats = []model.BookingSeat{}
		index[d.ID] = len(details)
		details = append(details, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(details) == 0 {
		return details, nil
	}
	// Populate seat snapshots for all bookings in a single query.
	ids := make([]interface{}, 0, len(details))
	placeholders := make([]string, 0, len(details))
	for _, d := range details {
		ids = append(ids, d.ID)
		placeholders = append(placeholders, "?")
	}
	seatQuery := `SELECT booking_id, seat_number, row_label
				  FROM booking_seats
				  WHERE booking_id IN (` + strings.Join(placeholders, ",") + `)
				  ORDER BY booking_id, row_label, LENGTH(seat_number), seat_number`
	srows, err := r.db.QueryContext(ctx, seatQuery, ids...)
	if err != nil {
		return nil, err
	}
	defer srows.Close()
	for srows.Next() {
		var bid uint64
		var s model.BookingSeat
		if err := srows.Scan(&bid, &s.SeatNumber, &s.Row); err != nil {
			return nil, err
		}
		if idx, ok := index[bid]; ok {
			details[idx].Seats = append(details[idx].Seats, s)
		}
	}
	if err := srows.Err(); err != nil {
		return nil, err
	}
	return details, nil
}

// DashboardStats aggregates counters for the admin dashboard. Revenue
// counts completed payments only.
type DashboardStats struct {
	TotalMovies       int             `json:"total_movies"`
	TotalUsers        int             `json:"total_users"`
	TotalBookings     int             `json:"total_bookings"`
	TotalRevenueCents uint64          `json:"total_revenue_cents"`
	RecentBookings    []BookingDetail `json:"recent_bookings"`
}

// Stats computes the admin dashboard aggregates.
func (r *BookingRepo) Stats(ctx context.Context) (*DashboardStats, error) {
	var st DashboardStats
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM movies`).Scan(&st.TotalMovies); err != nil {
		return nil, err
	}
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users WHERE role = 'USER'`).Scan(&st.TotalUsers); err != nil {
		return nil, err
	}
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM bookings`).Scan(&st.TotalBookings); err != nil {
		return nil, err
	}
	err := r.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(total_price_cents), 0) FROM bookings WHERE payment_status = ?`,
		string(model.PaymentCompleted),
	).Scan(&st.TotalRevenueCents)
	if err != nil {
		return nil, err
	}
	recent, err := r.ListAll(ctx, 10)
	if err != nil {
		return nil, err
	}
	st.RecentBookings = recent
	return &st, nil
}
