package repository

import (
	"context"
	"database/sql"

	"github.com/cinetix/movie-booking-api/internal/model"
)

// ReservationStore bundles the persistence operations the reservation
// coordinator needs. Every write method applies a compare-and-swap on
// the showtime's seat_version together with its own rows in a single
// transaction, so the coordinator's read-modify-write of one showtime
// is atomic: a stale in-memory copy can never overwrite newer state.
type ReservationStore struct {
	db        *sql.DB
	showtimes *ShowtimeRepo
	bookings  *BookingRepo
	movies    *MovieRepo
}

// NewReservationStore constructs a ReservationStore over the shared DB
// handle and repositories.
func NewReservationStore(db *sql.DB, showtimes *ShowtimeRepo, bookings *BookingRepo, movies *MovieRepo) *ReservationStore {
	if db == nil || showtimes == nil || bookings == nil || movies == nil {
		panic("nil dependency passed to NewReservationStore")
	}
	return &ReservationStore{db: db, showtimes: showtimes, bookings: bookings, movies: movies}
}

// MovieTitle resolves a movie's title, used to enrich events published
// after payment confirmation.
func (s *ReservationStore) MovieTitle(ctx context.Context, id uint64) (string, error) {
	m, err := s.movies.GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	return m.Title, nil
}

// Showtime loads a showtime with its seat array and version.
func (s *ReservationStore) Showtime(ctx context.Context, id uint64) (*model.Showtime, error) {
	return s.showtimes.GetByID(ctx, id)
}

// Booking loads a booking with its seat snapshots.
func (s *ReservationStore) Booking(ctx context.Context, id uint64) (*model.Booking, error) {
	return s.bookings.GetByID(ctx, id)
}

// SaveSeats persists the showtime's in-memory seat array, guarded by
// the version the seats were loaded at. On success the version on the
// given showtime is advanced. Returns ErrVersionConflict when a
// concurrent writer has moved the version.
func (s *ReservationStore) SaveSeats(ctx context.Context, st *model.Showtime) error {
	return s.withTx(ctx, st, func(tx *sql.Tx) error { return nil })
}

// CreateBooking persists a new booking and the showtime's updated seat
// array as one atomic write. The booking row is inserted in the same
// transaction that flips the seats to booked, so a crash can never
// leave seats booked without a booking or vice versa.
func (s *ReservationStore) CreateBooking(ctx context.Context, st *model.Showtime, b *model.Booking) error {
	return s.withTx(ctx, st, func(tx *sql.Tx) error {
		return s.bookings.CreateTx(ctx, tx, b)
	})
}

// SaveBookingAndSeats persists a booking's status columns together with
// the showtime's updated seat array, used by cancellation and refunds
// to release seats and flip the booking in one transaction.
func (s *ReservationStore) SaveBookingAndSeats(ctx context.Context, b *model.Booking, st *model.Showtime) error {
	return s.withTx(ctx, st, func(tx *sql.Tx) error {
		return s.bookings.UpdateStatusTx(ctx, tx, b)
	})
}

// UpdateBookingPayment persists the payment verdict on a booking. Seat
// state is untouched by payment confirmation, so no CAS is involved.
func (s *ReservationStore) UpdateBookingPayment(ctx context.Context, b *model.Booking) error {
	return s.bookings.UpdatePayment(ctx, b)
}

// UpdateBookingStatus persists a booking lifecycle transition that does
// not touch seat state, such as confirmed to completed.
func (s *ReservationStore) UpdateBookingStatus(ctx context.Context, b *model.Booking) error {
	return s.bookings.UpdateStatus(ctx, b)
}

// withTx runs the seat CAS, the seat upsert and the supplied extra work
// in one transaction. st.SeatVersion is advanced only after commit.
func (s *ReservationStore) withTx(ctx context.Context, st *model.Showtime, extra func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if err := casSeatVersionTx(ctx, tx, st.ID, st.SeatVersion); err != nil {
		return err
	}
	if err := upsertSeatsTx(ctx, tx, st.ID, st.Seats); err != nil {
		return err
	}
	if err := extra(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	st.SeatVersion++
	return nil
}
