// Package queue defines the message payloads exchanged over the broker
// plus the publisher and background consumer for them.
package queue

// BookingConfirmedEvent is published once a booking's payment has been
// verified. It carries enough denormalized detail for downstream
// consumers to log or notify without querying the primary database.
type BookingConfirmedEvent struct {
	EventID         string   `json:"event_id"`
	BookingID       uint64   `json:"booking_id"`
	BookingCode     string   `json:"booking_code"`
	UserID          uint64   `json:"user_id"`
	ShowtimeID      uint64   `json:"showtime_id"`
	MovieTitle      string   `json:"movie_title"`
	ShowDate        string   `json:"show_date"`
	StartTime       string   `json:"start_time"`
	Theater         string   `json:"theater"`
	SeatLabels      []string `json:"seats"`
	TotalPriceCents uint32   `json:"total_price_cents"`
	ConfirmedAt     string   `json:"confirmed_at"`
}
