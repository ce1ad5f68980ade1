// Package service implements the reservation coordinator: the single
// component through which every seat state change flows. Seat state for
// one showtime is always handled as a whole: load the showtime with
// its seats, release expired locks, apply the operation in memory, then
// persist under an optimistic version check. When a concurrent writer
// wins the version race the whole operation is retried on fresh state.
package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/cinetix/movie-booking-api/internal/inventory"
	"github.com/cinetix/movie-booking-api/internal/model"
	"github.com/cinetix/movie-booking-api/internal/payment"
	"github.com/cinetix/movie-booking-api/internal/queue"
	"github.com/cinetix/movie-booking-api/internal/repository"
	"github.com/cinetix/movie-booking-api/internal/utils"
)

// Sentinel errors surfaced to the HTTP layer.
var (
	// ErrNoSeats means the request named no seats to act on.
	ErrNoSeats = errors.New("no seats requested")
	// ErrAlreadyCancelled rejects a repeated cancel of the same booking.
	ErrAlreadyCancelled = errors.New("booking already cancelled")
	// ErrAlreadyPaid rejects payment actions on a completed booking.
	ErrAlreadyPaid = errors.New("booking already paid")
	// ErrAlreadyRefunded rejects a repeated refund.
	ErrAlreadyRefunded = errors.New("booking already refunded")
	// ErrRefundNotPaid rejects refunding a booking that was never paid.
	ErrRefundNotPaid = errors.New("booking payment is not completed")
	// ErrPaymentNotCompleted rejects completing a booking whose payment
	// never went through.
	ErrPaymentNotCompleted = errors.New("payment not completed")
	// ErrPaymentVerification means the payment proof's signature did
	// not verify. The booking is marked failed but keeps its seats.
	ErrPaymentVerification = errors.New("payment verification failed")
)

// SeatUnavailableError reports which requested seats could not be
// booked. Booking is all-or-nothing, so one bad seat fails the request.
type SeatUnavailableError struct {
	Seats []string
}

func (e *SeatUnavailableError) Error() string {
	return fmt.Sprintf("seats unavailable: %v", e.Seats)
}

// Store is the persistence surface the coordinator drives. Write
// methods persist in-memory showtime state under a seat-version check
// and return repository.ErrVersionConflict when a concurrent writer
// got there first. Implemented by repository.ReservationStore.
type Store interface {
	Showtime(ctx context.Context, id uint64) (*model.Showtime, error)
	Booking(ctx context.Context, id uint64) (*model.Booking, error)
	SaveSeats(ctx context.Context, st *model.Showtime) error
	CreateBooking(ctx context.Context, st *model.Showtime, b *model.Booking) error
	SaveBookingAndSeats(ctx context.Context, b *model.Booking, st *model.Showtime) error
	UpdateBookingPayment(ctx context.Context, b *model.Booking) error
	UpdateBookingStatus(ctx context.Context, b *model.Booking) error
	MovieTitle(ctx context.Context, id uint64) (string, error)
}

// EventPublisher delivers a booking-confirmed event to the broker.
// Publish failures must not fail the payment flow.
type EventPublisher func(ctx context.Context, ev queue.BookingConfirmedEvent) error

// LockResult is the outcome of a seat lock request. Locked lists only
// the seats the caller actually obtained; seats that were taken in the
// meantime are silently absent.
type LockResult struct {
	Locked      []string
	LockedUntil time.Time
	Seats       []model.Seat
}

// Reservation coordinates seat locking, booking, payment and release on
// top of a Store.
type Reservation struct {
	store    Store
	gateway  payment.Gateway
	publish  EventPublisher
	lockTTL  time.Duration
	currency string
	retries  int
	now      func() time.Time
}

// NewReservation wires a coordinator with the default 15 minute lock
// TTL. publish may be nil when no broker is configured.
func NewReservation(store Store, gateway payment.Gateway, publish EventPublisher) *Reservation {
	return &Reservation{
		store:    store,
		gateway:  gateway,
		publish:  publish,
		lockTTL:  15 * time.Minute,
		currency: "INR",
		retries:  3,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// SetLockTTL overrides how long a seat lock is held before it expires.
func (r *Reservation) SetLockTTL(ttl time.Duration) {
	if ttl > 0 {
		r.lockTTL = ttl
	}
}

// SetCurrency overrides the currency payment orders are created in.
func (r *Reservation) SetCurrency(code string) {
	if code != "" {
		r.currency = code
	}
}

// withShowtime runs op against a freshly loaded showtime and retries
// the whole operation on a version conflict. op mutates the showtime in
// memory and performs the store write itself.
func (r *Reservation) withShowtime(ctx context.Context, id uint64, op func(st *model.Showtime) error) (*model.Showtime, error) {
	var lastErr error
	for attempt := 0; attempt < r.retries; attempt++ {
		st, err := r.store.Showtime(ctx, id)
		if err != nil {
			return nil, err
		}
		if err := op(st); err != nil {
			if errors.Is(err, repository.ErrVersionConflict) {
				lastErr = err
				continue
			}
			return nil, err
		}
		return st, nil
	}
	return nil, lastErr
}

// SeatMap returns the showtime with current seat state. Expired locks
// are released first and the release is persisted, so every caller
// observes swept state.
func (r *Reservation) SeatMap(ctx context.Context, showtimeID uint64) (*model.Showtime, error) {
	return r.withShowtime(ctx, showtimeID, func(st *model.Showtime) error {
		if inventory.Sweep(st.Seats, r.now()) {
			return r.store.SaveSeats(ctx, st)
		}
		return nil
	})
}

// LockSeats places a temporary hold on the requested seats for the
// user. Only seats currently available are locked; the rest are skipped
// without failing the request. All seats locked in one call share a
// single expiry of now + lock TTL.
func (r *Reservation) LockSeats(ctx context.Context, showtimeID, userID uint64, seatNumbers []string) (*LockResult, error) {
	seatNumbers = dedupe(seatNumbers)
	if len(seatNumbers) == 0 {
		return nil, ErrNoSeats
	}

	var res *LockResult
	_, err := r.withShowtime(ctx, showtimeID, func(st *model.Showtime) error {
		now := r.now()
		changed := inventory.Sweep(st.Seats, now)
		until := now.Add(r.lockTTL)

		locked := make([]string, 0, len(seatNumbers))
		for _, num := range seatNumbers {
			seat := inventory.FindSeat(st.Seats, num)
			if seat == nil || seat.Status != model.SeatAvailable {
				continue
			}
			inventory.Lock(seat, userID, until)
			locked = append(locked, num)
		}

		if changed || len(locked) > 0 {
			if err := r.store.SaveSeats(ctx, st); err != nil {
				return err
			}
		}
		res = &LockResult{Locked: locked, LockedUntil: until, Seats: st.Seats}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// CreateBooking books the requested seats for the user in one
// all-or-nothing step. A seat qualifies when it is available or locked
// by this same user; any other state fails the whole request with
// SeatUnavailableError. The total price is snapshotted from the
// showtime's per-seat price at this moment.
func (r *Reservation) CreateBooking(ctx context.Context, showtimeID, userID uint64, seatNumbers []string) (*model.Booking, error) {
	seatNumbers = dedupe(seatNumbers)
	if len(seatNumbers) == 0 {
		return nil, ErrNoSeats
	}

	var booking *model.Booking
	_, err := r.withShowtime(ctx, showtimeID, func(st *model.Showtime) error {
		now := r.now()
		if inventory.Sweep(st.Seats, now) {
			// Persist the sweep even if validation fails below, so
			// expired locks do not linger after rejected attempts.
			if err := r.store.SaveSeats(ctx, st); err != nil {
				return err
			}
		}

		var unavailable []string
		seats := make([]*model.Seat, 0, len(seatNumbers))
		for _, num := range seatNumbers {
			seat := inventory.FindSeat(st.Seats, num)
			if seat == nil || !inventory.BookableBy(seat, userID) {
				unavailable = append(unavailable, num)
				continue
			}
			seats = append(seats, seat)
		}
		if len(unavailable) > 0 {
			return &SeatUnavailableError{Seats: unavailable}
		}

		code, err := utils.NewBookingCode()
		if err != nil {
			return err
		}

		b := &model.Booking{
			BookingCode:     code,
			UserID:          userID,
			ShowtimeID:      st.ID,
			MovieID:         st.MovieID,
			Seats:           make([]model.BookingSeat, 0, len(seats)),
			TotalPriceCents: st.PriceCents * uint32(len(seats)),
			PaymentStatus:   model.PaymentPending,
			BookingStatus:   model.BookingConfirmed,
			ExpiresAt:       now.Add(r.lockTTL),
		}
		for _, seat := range seats {
			b.Seats = append(b.Seats, model.BookingSeat{SeatNumber: seat.SeatNumber, Row: seat.Row})
			inventory.Book(seat, userID)
		}

		if err := r.store.CreateBooking(ctx, st, b); err != nil {
			return err
		}
		booking = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	return booking, nil
}

// GetBooking returns a booking, restricted to its owner unless the
// caller is an admin.
func (r *Reservation) GetBooking(ctx context.Context, bookingID, userID uint64, isAdmin bool) (*model.Booking, error) {
	b, err := r.store.Booking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if b.UserID != userID && !isAdmin {
		return nil, repository.ErrForbidden
	}
	return b, nil
}

// CreatePaymentOrder registers a gateway order for the booking's full
// amount. Only the booking's owner may pay for it.
func (r *Reservation) CreatePaymentOrder(ctx context.Context, bookingID, userID uint64) (*payment.Order, error) {
	b, err := r.store.Booking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if b.UserID != userID {
		return nil, repository.ErrForbidden
	}
	if b.BookingStatus == model.BookingCancelled {
		return nil, ErrAlreadyCancelled
	}
	if b.PaymentStatus == model.PaymentCompleted {
		return nil, ErrAlreadyPaid
	}
	receipt := "booking_" + strconv.FormatUint(b.ID, 10)
	return r.gateway.CreateOrder(ctx, b.TotalPriceCents, r.currency, receipt)
}

// ConfirmPayment verifies the payment proof for a booking. On success
// the booking's payment moves to completed, the gateway reference is
// recorded and a confirmation event is published. On a bad signature
// the payment is marked failed and ErrPaymentVerification is returned;
// the seats stay booked either way.
func (r *Reservation) ConfirmPayment(ctx context.Context, bookingID, userID uint64, proof payment.Proof) (*model.Booking, error) {
	b, err := r.store.Booking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if b.UserID != userID {
		return nil, repository.ErrForbidden
	}
	if b.BookingStatus == model.BookingCancelled {
		return nil, ErrAlreadyCancelled
	}
	if b.PaymentStatus == model.PaymentCompleted {
		return nil, ErrAlreadyPaid
	}

	if !r.gateway.VerifySignature(proof.OrderRef, proof.PaymentRef, proof.Signature) {
		b.PaymentStatus = model.PaymentFailed
		if err := r.store.UpdateBookingPayment(ctx, b); err != nil {
			return nil, err
		}
		return b, ErrPaymentVerification
	}

	b.PaymentStatus = model.PaymentCompleted
	ref := proof.PaymentRef
	b.PaymentID = &ref
	if err := r.store.UpdateBookingPayment(ctx, b); err != nil {
		return nil, err
	}

	r.publishConfirmed(ctx, b)
	return b, nil
}

// publishConfirmed emits the booking-confirmed event on a best-effort
// basis. Lookup or publish failures are logged and swallowed.
func (r *Reservation) publishConfirmed(ctx context.Context, b *model.Booking) {
	if r.publish == nil {
		return
	}
	ev := queue.BookingConfirmedEvent{
		BookingID:       b.ID,
		BookingCode:     b.BookingCode,
		UserID:          b.UserID,
		ShowtimeID:      b.ShowtimeID,
		TotalPriceCents: b.TotalPriceCents,
		ConfirmedAt:     r.now().Format(time.RFC3339),
	}
	for _, seat := range b.Seats {
		ev.SeatLabels = append(ev.SeatLabels, seat.SeatNumber)
	}
	if st, err := r.store.Showtime(ctx, b.ShowtimeID); err == nil {
		ev.ShowDate = st.Date
		ev.StartTime = st.StartTime
		ev.Theater = st.Theater
	}
	if title, err := r.store.MovieTitle(ctx, b.MovieID); err == nil {
		ev.MovieTitle = title
	}
	if err := r.publish(ctx, ev); err != nil {
		log.Printf("reservation: publish booking.confirmed failed: %v", err)
	}
}

// CompleteBooking marks a paid, confirmed booking completed after the
// show. Seats stay booked; the transition only closes the lifecycle.
// Completing an already completed booking is a no-op.
func (r *Reservation) CompleteBooking(ctx context.Context, bookingID uint64) (*model.Booking, error) {
	b, err := r.store.Booking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if b.BookingStatus == model.BookingCompleted {
		return b, nil
	}
	if b.BookingStatus == model.BookingCancelled {
		return nil, ErrAlreadyCancelled
	}
	if b.PaymentStatus != model.PaymentCompleted {
		return nil, ErrPaymentNotCompleted
	}

	b.BookingStatus = model.BookingCompleted
	if err := r.store.UpdateBookingStatus(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

// CancelBooking cancels a booking and releases its seats back to
// available. Owners may cancel their own bookings; admins may cancel
// any. Payment state is untouched, so refunds remain a separate step.
func (r *Reservation) CancelBooking(ctx context.Context, bookingID, userID uint64, isAdmin bool) (*model.Booking, error) {
	b, err := r.store.Booking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if b.UserID != userID && !isAdmin {
		return nil, repository.ErrForbidden
	}
	if b.BookingStatus == model.BookingCancelled {
		return nil, ErrAlreadyCancelled
	}

	b.BookingStatus = model.BookingCancelled
	if err := r.releaseBookingSeats(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

// RefundBooking marks a completed payment refunded, cancels the booking
// and releases its seats. Bookings that never completed payment cannot
// be refunded.
func (r *Reservation) RefundBooking(ctx context.Context, bookingID uint64) (*model.Booking, error) {
	b, err := r.store.Booking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if b.PaymentStatus == model.PaymentRefunded {
		return nil, ErrAlreadyRefunded
	}
	if b.PaymentStatus == model.PaymentPending {
		return nil, ErrRefundNotPaid
	}

	alreadyCancelled := b.BookingStatus == model.BookingCancelled
	b.PaymentStatus = model.PaymentRefunded
	b.BookingStatus = model.BookingCancelled

	if alreadyCancelled {
		// Seats were released at cancel time and may have been resold;
		// only the payment state changes here.
		if err := r.store.UpdateBookingPayment(ctx, b); err != nil {
			return nil, err
		}
		return b, nil
	}
	if err := r.releaseBookingSeats(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

// releaseBookingSeats persists the booking's new state together with
// the release of its seats on the showtime, in one versioned write.
func (r *Reservation) releaseBookingSeats(ctx context.Context, b *model.Booking) error {
	_, err := r.withShowtime(ctx, b.ShowtimeID, func(st *model.Showtime) error {
		inventory.Sweep(st.Seats, r.now())
		for _, bs := range b.Seats {
			if seat := inventory.FindSeat(st.Seats, bs.SeatNumber); seat != nil {
				inventory.Release(seat)
			}
		}
		return r.store.SaveBookingAndSeats(ctx, b, st)
	})
	return err
}

func dedupe(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
