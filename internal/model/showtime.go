package model

import "time"

// SeatStatus is the state of a single seat within a showtime. A seat is
// AVAILABLE until a user locks it during checkout, LOCKED while the lock
// has not expired, and BOOKED once a booking holds it. Transitions are
// performed exclusively by the reservation coordinator.
type SeatStatus string

// Valid seat statuses.
const (
	SeatAvailable SeatStatus = "available"
	SeatLocked    SeatStatus = "locked"
	SeatBooked    SeatStatus = "booked"
)

// Seat is one seat in a showtime's seating map. Seats are embedded in
// their owning showtime and are never addressed outside of it; the pair
// (Row, SeatNumber) is unique within a showtime.
//
// Invariants maintained by the coordinator:
//  status == locked  => LockedBy and LockedUntil set
//  status == booked  => BookedBy set
//  status == available => LockedBy, LockedUntil and BookedBy all nil
//
// Fields:
//  SeatNumber  – row letter plus index, e.g. "A3".
//  Row         – row letter ("A".."J").
//  Status      – availability status.
//  LockedBy    – user currently holding the lock (nil unless locked).
//  LockedUntil – lock expiry timestamp in UTC (nil unless locked).
//  BookedBy    – user the seat is booked for (nil unless booked).
type Seat struct {
	SeatNumber  string     // showtime_seats.seat_number
	Row         string     // showtime_seats.row_label
	Status      SeatStatus // showtime_seats.status
	LockedBy    *uint64    // showtime_seats.locked_by (nullable)
	LockedUntil *time.Time // showtime_seats.locked_until (nullable)
	BookedBy    *uint64    // showtime_seats.booked_by (nullable)
}

// Showtime represents a single scheduled screening of a movie with its
// own seat inventory and price. Date and the wall-clock times are kept
// as strings exactly as entered by the admin ("2006-01-02" and "15:04");
// they label the screening and take no part in seat-state logic.
//
// Fields:
//  ID          – primary key identifier.
//  MovieID     – movie being screened.
//  Date        – screening date ("YYYY-MM-DD").
//  StartTime   – local wall-clock start ("HH:MM").
//  EndTime     – local wall-clock end ("HH:MM").
//  Theater     – free-form theater/screen label.
//  TotalSeats  – number of seats in the layout; len(Seats) equals this.
//  PriceCents  – price per seat in cents at booking time.
//  SeatVersion – optimistic concurrency token guarding the seat array.
//  Seats       – embedded seat inventory, row-major A1..J*.
//  CreatedAt   – creation timestamp.
//  UpdatedAt   – last update timestamp.
type Showtime struct {
	ID          uint64    // showtimes.id
	MovieID     uint64    // showtimes.movie_id
	Date        string    // showtimes.show_date
	StartTime   string    // showtimes.start_time
	EndTime     string    // showtimes.end_time
	Theater     string    // showtimes.theater
	TotalSeats  uint32    // showtimes.total_seats
	PriceCents  uint32    // showtimes.price_cents
	SeatVersion uint64    // showtimes.seat_version
	Seats       []Seat    // showtime_seats rows, ordered by row, number
	CreatedAt   time.Time // showtimes.created_at
	UpdatedAt   time.Time // showtimes.updated_at
}
