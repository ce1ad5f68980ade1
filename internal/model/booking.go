package model

import "time"

// PaymentStatus tracks the payment lifecycle of a booking. It advances
// pending -> completed or pending -> failed via payment confirmation and
// completed -> refunded via an admin refund.
type PaymentStatus string

// Valid payment statuses.
const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
	PaymentRefunded  PaymentStatus = "refunded"
)

// BookingStatus tracks the booking lifecycle independently of payment.
// A booking starts CONFIRMED and moves to CANCELLED on user/admin action
// or to COMPLETED after the show.
type BookingStatus string

// Valid booking statuses.
const (
	BookingConfirmed BookingStatus = "confirmed"
	BookingCancelled BookingStatus = "cancelled"
	BookingCompleted BookingStatus = "completed"
)

// BookingSeat is a snapshot of a seat at booking time. Snapshots are
// copies; later mutation of showtime seats never alters them.
type BookingSeat struct {
	SeatNumber string // booking_seats.seat_number
	Row        string // booking_seats.row_label
}

// Booking is the durable record of a user's claim on specific seats at a
// specific showtime. Bookings are never physically deleted; cancellation
// and refunds are status transitions so that the history stays auditable.
//
// Fields:
//  ID              – primary key identifier.
//  BookingCode     – globally unique human-readable code ("BOOK-...").
//  UserID          – user who made the booking.
//  ShowtimeID      – showtime being booked.
//  MovieID         – movie reference, denormalized for listings.
//  Seats           – seat snapshots captured at creation time.
//  TotalPriceCents – seats × showtime price, snapshotted at creation.
//  PaymentStatus   – payment lifecycle state.
//  PaymentID       – gateway payment reference once completed (nullable).
//  BookingStatus   – booking lifecycle state.
//  CreatedAt       – creation timestamp.
//  ExpiresAt       – payment window deadline (created + 15 minutes).
type Booking struct {
	ID              uint64        // bookings.id
	BookingCode     string        // bookings.booking_code
	UserID          uint64        // bookings.user_id
	ShowtimeID      uint64        // bookings.showtime_id
	MovieID         uint64        // bookings.movie_id
	Seats           []BookingSeat // booking_seats rows
	TotalPriceCents uint32        // bookings.total_price_cents
	PaymentStatus   PaymentStatus // bookings.payment_status
	PaymentID       *string       // bookings.payment_id (nullable)
	BookingStatus   BookingStatus // bookings.booking_status
	CreatedAt       time.Time     // bookings.created_at
	ExpiresAt       time.Time     // bookings.expires_at
}
