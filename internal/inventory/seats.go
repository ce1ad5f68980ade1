// Package inventory implements the in-memory seat state machine for a
// showtime's seating map. Functions here mutate a seat slice that the
// caller has loaded from storage; persisting the result atomically is
// the caller's responsibility.
package inventory

import (
	"strconv"
	"time"

	"github.com/cinetix/movie-booking-api/internal/model"
)

// rowLabels are the fixed row letters of every generated layout. A
// layout always spans ten rows; the last row may be partial when the
// seat count is not a multiple of ten.
var rowLabels = [...]string{"A", "B", "C", "D", "E", "F", "G", "H", "I", "J"}

// GenerateLayout builds a deterministic seat layout for the given seat
// count. Seats are filled row-major with ceil(totalSeats/10) seats per
// row and emission stops once totalSeats seats exist. All seats start
// available with no lock or booking metadata.
func GenerateLayout(totalSeats uint32) []model.Seat {
	if totalSeats == 0 {
		return []model.Seat{}
	}
	perRow := (int(totalSeats) + len(rowLabels) - 1) / len(rowLabels)
	seats := make([]model.Seat, 0, totalSeats)
	for _, row := range rowLabels {
		for n := 1; n <= perRow; n++ {
			if len(seats) == int(totalSeats) {
				return seats
			}
			seats = append(seats, model.Seat{
				SeatNumber: row + strconv.Itoa(n),
				Row:        row,
				Status:     model.SeatAvailable,
			})
		}
	}
	return seats
}

// FindSeat returns a pointer to the seat with the given number inside
// the slice, or nil when no such seat exists. The pointer aliases the
// slice element so callers can apply transitions in place.
func FindSeat(seats []model.Seat, seatNumber string) *model.Seat {
	for i := range seats {
		if seats[i].SeatNumber == seatNumber {
			return &seats[i]
		}
	}
	return nil
}

// Sweep releases every seat whose lock has outlived its expiry at the
// given instant. It reports whether any seat changed; when it returns
// true the caller must persist the showtime before relying on the seat
// states. Sweeping twice at the same instant is a no-op the second time.
func Sweep(seats []model.Seat, now time.Time) bool {
	changed := false
	for i := range seats {
		s := &seats[i]
		if s.Status == model.SeatLocked && s.LockedUntil != nil && s.LockedUntil.Before(now) {
			release(s)
			changed = true
		}
	}
	return changed
}

// Lock transitions an available seat to locked for the given user until
// the given expiry. Calling Lock on a seat that is not available is a
// programming error; callers check status first.
func Lock(s *model.Seat, userID uint64, until time.Time) {
	uid := userID
	exp := until
	s.Status = model.SeatLocked
	s.LockedBy = &uid
	s.LockedUntil = &exp
	s.BookedBy = nil
}

// Book transitions a seat to booked for the given user, clearing any
// lock metadata.
func Book(s *model.Seat, userID uint64) {
	uid := userID
	s.Status = model.SeatBooked
	s.BookedBy = &uid
	s.LockedBy = nil
	s.LockedUntil = nil
}

// Release returns a seat to available, clearing all holder metadata.
// Used for lock expiry, cancellation and refunds alike.
func Release(s *model.Seat) { release(s) }

func release(s *model.Seat) {
	s.Status = model.SeatAvailable
	s.LockedBy = nil
	s.LockedUntil = nil
	s.BookedBy = nil
}

// BookableBy reports whether the seat may be included in a booking by
// the given user: either still available, or locked by that same user.
// Seats locked by somebody else are not bookable even before the lock
// expires.
func BookableBy(s *model.Seat, userID uint64) bool {
	switch s.Status {
	case model.SeatAvailable:
		return true
	case model.SeatLocked:
		return s.LockedBy != nil && *s.LockedBy == userID
	default:
		return false
	}
}
