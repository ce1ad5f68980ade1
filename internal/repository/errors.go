// Package repository defines error values shared across repositories.
// These sentinels let handlers and the reservation coordinator translate
// storage-level failures into specific HTTP responses instead of a
// generic 500.
package repository

import "errors"

// ErrMovieNotFound indicates that a movie was not located in the DB.
var ErrMovieNotFound = errors.New("movie not found")

// ErrShowtimeNotFound indicates that a showtime was not located in the DB.
var ErrShowtimeNotFound = errors.New("showtime not found")

// ErrBookingNotFound indicates that a booking was not located in the DB.
var ErrBookingNotFound = errors.New("booking not found")

// ErrForbidden is returned when the caller attempts an operation on a
// resource they do not own. Handlers translate this into HTTP 403.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when a delete or update cannot be performed
// because of conflicting state, such as deleting a showtime that still
// has active bookings. Handlers translate this into HTTP 409.
var ErrConflict = errors.New("conflict")

// ErrVersionConflict is returned when a compare-and-swap write of a
// showtime's seat state lost the race against a concurrent writer. The
// coordinator reloads and retries the whole operation on this error.
var ErrVersionConflict = errors.New("seat version conflict")
