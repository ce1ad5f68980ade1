package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cinetix/movie-booking-api/internal/inventory"
	"github.com/cinetix/movie-booking-api/internal/model"
	"github.com/cinetix/movie-booking-api/internal/payment"
	"github.com/cinetix/movie-booking-api/internal/queue"
	"github.com/cinetix/movie-booking-api/internal/repository"
)

var testNow = time.Date(2026, 1, 10, 18, 0, 0, 0, time.UTC)

// fakeStore keeps one showtime and its bookings in memory and enforces
// the same seat-version compare-and-swap contract as the SQL store.
type fakeStore struct {
	st       *model.Showtime
	bookings map[uint64]*model.Booking
	nextID   uint64
	title    string

	// beforeWrite, when set, runs once before the next versioned write
	// to simulate a concurrent writer.
	beforeWrite func(f *fakeStore)

	showtimeLoads int
	seatWrites    int
}

func newFakeStore(st *model.Showtime) *fakeStore {
	return &fakeStore{st: st, bookings: make(map[uint64]*model.Booking), nextID: 1, title: "Blade Runner"}
}

func cloneShowtime(st *model.Showtime) *model.Showtime {
	cp := *st
	cp.Seats = make([]model.Seat, len(st.Seats))
	copy(cp.Seats, st.Seats)
	return &cp
}

func cloneBooking(b *model.Booking) *model.Booking {
	cp := *b
	cp.Seats = make([]model.BookingSeat, len(b.Seats))
	copy(cp.Seats, b.Seats)
	if b.PaymentID != nil {
		ref := *b.PaymentID
		cp.PaymentID = &ref
	}
	return &cp
}

func (f *fakeStore) Showtime(ctx context.Context, id uint64) (*model.Showtime, error) {
	if id != f.st.ID {
		return nil, repository.ErrShowtimeNotFound
	}
	f.showtimeLoads++
	return cloneShowtime(f.st), nil
}

func (f *fakeStore) Booking(ctx context.Context, id uint64) (*model.Booking, error) {
	b, ok := f.bookings[id]
	if !ok {
		return nil, repository.ErrBookingNotFound
	}
	return cloneBooking(b), nil
}

func (f *fakeStore) write(st *model.Showtime) error {
	if f.beforeWrite != nil {
		hook := f.beforeWrite
		f.beforeWrite = nil
		hook(f)
	}
	if st.SeatVersion != f.st.SeatVersion {
		return repository.ErrVersionConflict
	}
	f.st = cloneShowtime(st)
	f.st.SeatVersion++
	st.SeatVersion++
	f.seatWrites++
	return nil
}

func (f *fakeStore) SaveSeats(ctx context.Context, st *model.Showtime) error {
	return f.write(st)
}

func (f *fakeStore) CreateBooking(ctx context.Context, st *model.Showtime, b *model.Booking) error {
	if err := f.write(st); err != nil {
		return err
	}
	b.ID = f.nextID
	f.nextID++
	b.CreatedAt = testNow
	f.bookings[b.ID] = cloneBooking(b)
	return nil
}

func (f *fakeStore) SaveBookingAndSeats(ctx context.Context, b *model.Booking, st *model.Showtime) error {
	if err := f.write(st); err != nil {
		return err
	}
	f.bookings[b.ID] = cloneBooking(b)
	return nil
}

func (f *fakeStore) UpdateBookingPayment(ctx context.Context, b *model.Booking) error {
	f.bookings[b.ID] = cloneBooking(b)
	return nil
}

func (f *fakeStore) UpdateBookingStatus(ctx context.Context, b *model.Booking) error {
	f.bookings[b.ID] = cloneBooking(b)
	return nil
}

func (f *fakeStore) MovieTitle(ctx context.Context, id uint64) (string, error) {
	return f.title, nil
}

// fakeGateway accepts exactly one signature value.
type fakeGateway struct {
	validSig string
	orders   int
}

func (g *fakeGateway) CreateOrder(ctx context.Context, amountCents uint32, currency, receipt string) (*payment.Order, error) {
	g.orders++
	return &payment.Order{Ref: "order_test", AmountCents: amountCents, Currency: currency, Receipt: receipt}, nil
}

func (g *fakeGateway) VerifySignature(orderRef, paymentRef, signature string) bool {
	return signature == g.validSig
}

func (g *fakeGateway) RetrieveStatus(ctx context.Context, paymentRef string) (payment.Status, error) {
	return payment.StatusSucceeded, nil
}

func newTestShowtime(totalSeats uint32, priceCents uint32) *model.Showtime {
	return &model.Showtime{
		ID:         7,
		MovieID:    3,
		Date:       "2026-01-15",
		StartTime:  "20:00",
		EndTime:    "22:30",
		Theater:    "Screen 1",
		TotalSeats: totalSeats,
		PriceCents: priceCents,
		Seats:      inventory.GenerateLayout(totalSeats),
	}
}

func newTestReservation(st *model.Showtime) (*Reservation, *fakeStore, *fakeGateway, *[]queue.BookingConfirmedEvent) {
	store := newFakeStore(st)
	gw := &fakeGateway{validSig: "good-sig"}
	var events []queue.BookingConfirmedEvent
	svc := NewReservation(store, gw, func(ctx context.Context, ev queue.BookingConfirmedEvent) error {
		events = append(events, ev)
		return nil
	})
	svc.now = func() time.Time { return testNow }
	return svc, store, gw, &events
}

func TestLockSeatsSharedExpiry(t *testing.T) {
	svc, store, _, _ := newTestReservation(newTestShowtime(4, 25000))
	ctx := context.Background()

	res, err := svc.LockSeats(ctx, 7, 11, []string{"A1", "B1", "B1", ""})
	require.NoError(t, err)
	assert.Equal(t, []string{"A1", "B1"}, res.Locked)
	assert.Equal(t, testNow.Add(15*time.Minute), res.LockedUntil)

	for _, num := range []string{"A1", "B1"} {
		seat := inventory.FindSeat(store.st.Seats, num)
		require.NotNil(t, seat)
		assert.Equal(t, model.SeatLocked, seat.Status)
		require.NotNil(t, seat.LockedBy)
		assert.Equal(t, uint64(11), *seat.LockedBy)
		assert.Equal(t, res.LockedUntil, *seat.LockedUntil)
	}
	assert.Equal(t, model.SeatAvailable, inventory.FindSeat(store.st.Seats, "C1").Status)
}

func TestLockSeatsSkipsTakenAndUnknown(t *testing.T) {
	st := newTestShowtime(4, 25000)
	until := testNow.Add(10 * time.Minute)
	inventory.Lock(inventory.FindSeat(st.Seats, "A1"), 99, until)
	inventory.Book(inventory.FindSeat(st.Seats, "B1"), 99)

	svc, store, _, _ := newTestReservation(st)
	res, err := svc.LockSeats(context.Background(), 7, 11, []string{"A1", "B1", "C1", "Z9"})
	require.NoError(t, err)

	// Only the free seat is obtained; held, booked and unknown seats
	// are skipped without failing the call.
	assert.Equal(t, []string{"C1"}, res.Locked)
	assert.Equal(t, uint64(99), *inventory.FindSeat(store.st.Seats, "A1").LockedBy)
	assert.Equal(t, model.SeatBooked, inventory.FindSeat(store.st.Seats, "B1").Status)
}

func TestLockSeatsReclaimsExpiredHold(t *testing.T) {
	st := newTestShowtime(2, 20000)
	expired := testNow.Add(-time.Second)
	inventory.Lock(inventory.FindSeat(st.Seats, "A1"), 99, expired)

	svc, store, _, _ := newTestReservation(st)
	res, err := svc.LockSeats(context.Background(), 7, 11, []string{"A1"})
	require.NoError(t, err)
	assert.Equal(t, []string{"A1"}, res.Locked)
	assert.Equal(t, uint64(11), *inventory.FindSeat(store.st.Seats, "A1").LockedBy)
}

func TestLockSeatsRejectsEmptyRequest(t *testing.T) {
	svc, _, _, _ := newTestReservation(newTestShowtime(2, 20000))
	_, err := svc.LockSeats(context.Background(), 7, 11, nil)
	assert.ErrorIs(t, err, ErrNoSeats)

	_, err = svc.LockSeats(context.Background(), 7, 11, []string{""})
	assert.ErrorIs(t, err, ErrNoSeats)
}

func TestCreateBookingSnapshotsPrice(t *testing.T) {
	st := newTestShowtime(2, 20000)
	svc, store, _, _ := newTestReservation(st)
	ctx := context.Background()

	_, err := svc.LockSeats(ctx, 7, 11, []string{"A1"})
	require.NoError(t, err)

	// One seat held by the user, one still available: both bookable.
	b, err := svc.CreateBooking(ctx, 7, 11, []string{"A1", "B1"})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(b.BookingCode, "BOOK-"))
	assert.Equal(t, uint32(40000), b.TotalPriceCents)
	assert.Equal(t, model.PaymentPending, b.PaymentStatus)
	assert.Equal(t, model.BookingConfirmed, b.BookingStatus)
	assert.Equal(t, testNow.Add(15*time.Minute), b.ExpiresAt)
	assert.Len(t, b.Seats, 2)

	for _, num := range []string{"A1", "B1"} {
		seat := inventory.FindSeat(store.st.Seats, num)
		assert.Equal(t, model.SeatBooked, seat.Status)
		require.NotNil(t, seat.BookedBy)
		assert.Equal(t, uint64(11), *seat.BookedBy)
		assert.Nil(t, seat.LockedBy)
		assert.Nil(t, seat.LockedUntil)
	}
}

func TestCreateBookingAllOrNothing(t *testing.T) {
	st := newTestShowtime(2, 20000)
	inventory.Lock(inventory.FindSeat(st.Seats, "B1"), 99, testNow.Add(10*time.Minute))

	svc, store, _, _ := newTestReservation(st)
	_, err := svc.CreateBooking(context.Background(), 7, 11, []string{"A1", "B1"})

	var unavailable *SeatUnavailableError
	require.ErrorAs(t, err, &unavailable)
	assert.Equal(t, []string{"B1"}, unavailable.Seats)

	// Nothing was persisted: no booking, A1 untouched, B1 still held
	// by the other user.
	assert.Empty(t, store.bookings)
	assert.Equal(t, model.SeatAvailable, inventory.FindSeat(store.st.Seats, "A1").Status)
	assert.Equal(t, uint64(99), *inventory.FindSeat(store.st.Seats, "B1").LockedBy)
}

func TestCreateBookingRetriesOnVersionConflict(t *testing.T) {
	st := newTestShowtime(2, 20000)
	svc, store, _, _ := newTestReservation(st)

	// A concurrent writer advances the seat version right before the
	// first booking write lands; the operation must retry on fresh
	// state and succeed.
	store.beforeWrite = func(f *fakeStore) {
		f.st.SeatVersion++
	}

	b, err := svc.CreateBooking(context.Background(), 7, 11, []string{"A1"})
	require.NoError(t, err)
	assert.Equal(t, uint32(20000), b.TotalPriceCents)
	assert.GreaterOrEqual(t, store.showtimeLoads, 2)
}

func TestCreateBookingLosesRaceForSeat(t *testing.T) {
	st := newTestShowtime(2, 20000)
	svc, store, _, _ := newTestReservation(st)

	// The concurrent writer does not just bump the version, it books
	// the contested seat. The retry sees the seat gone and fails.
	store.beforeWrite = func(f *fakeStore) {
		inventory.Book(inventory.FindSeat(f.st.Seats, "A1"), 99)
		f.st.SeatVersion++
	}

	_, err := svc.CreateBooking(context.Background(), 7, 11, []string{"A1"})
	var unavailable *SeatUnavailableError
	require.ErrorAs(t, err, &unavailable)
	assert.Equal(t, []string{"A1"}, unavailable.Seats)
	assert.Empty(t, store.bookings)
}

func TestConfirmPayment(t *testing.T) {
	st := newTestShowtime(2, 20000)
	svc, store, _, events := newTestReservation(st)
	ctx := context.Background()

	b, err := svc.CreateBooking(ctx, 7, 11, []string{"A1", "B1"})
	require.NoError(t, err)

	got, err := svc.ConfirmPayment(ctx, b.ID, 11, payment.Proof{
		OrderRef: "order_test", PaymentRef: "pay_1", Signature: "good-sig",
	})
	require.NoError(t, err)
	assert.Equal(t, model.PaymentCompleted, got.PaymentStatus)
	require.NotNil(t, got.PaymentID)
	assert.Equal(t, "pay_1", *got.PaymentID)
	assert.Equal(t, model.PaymentCompleted, store.bookings[b.ID].PaymentStatus)

	require.Len(t, *events, 1)
	ev := (*events)[0]
	assert.Equal(t, b.ID, ev.BookingID)
	assert.Equal(t, b.BookingCode, ev.BookingCode)
	assert.Equal(t, "Blade Runner", ev.MovieTitle)
	assert.Equal(t, []string{"A1", "B1"}, ev.SeatLabels)
	assert.Equal(t, uint32(40000), ev.TotalPriceCents)
}

func TestConfirmPaymentBadSignatureKeepsSeats(t *testing.T) {
	st := newTestShowtime(2, 20000)
	svc, store, _, events := newTestReservation(st)
	ctx := context.Background()

	b, err := svc.CreateBooking(ctx, 7, 11, []string{"A1"})
	require.NoError(t, err)

	_, err = svc.ConfirmPayment(ctx, b.ID, 11, payment.Proof{
		OrderRef: "order_test", PaymentRef: "pay_1", Signature: "forged",
	})
	assert.ErrorIs(t, err, ErrPaymentVerification)
	assert.Equal(t, model.PaymentFailed, store.bookings[b.ID].PaymentStatus)

	// Seats remain booked; the user can retry payment from the app.
	assert.Equal(t, model.SeatBooked, inventory.FindSeat(store.st.Seats, "A1").Status)
	assert.Empty(t, *events)
}

func TestConfirmPaymentOnlyByOwner(t *testing.T) {
	st := newTestShowtime(2, 20000)
	svc, _, _, _ := newTestReservation(st)
	ctx := context.Background()

	b, err := svc.CreateBooking(ctx, 7, 11, []string{"A1"})
	require.NoError(t, err)

	_, err = svc.ConfirmPayment(ctx, b.ID, 12, payment.Proof{Signature: "good-sig"})
	assert.ErrorIs(t, err, repository.ErrForbidden)

	_, err = svc.CreatePaymentOrder(ctx, b.ID, 12)
	assert.ErrorIs(t, err, repository.ErrForbidden)
}

func TestCreatePaymentOrder(t *testing.T) {
	st := newTestShowtime(2, 20000)
	svc, _, gw, _ := newTestReservation(st)
	ctx := context.Background()

	b, err := svc.CreateBooking(ctx, 7, 11, []string{"A1", "B1"})
	require.NoError(t, err)

	order, err := svc.CreatePaymentOrder(ctx, b.ID, 11)
	require.NoError(t, err)
	assert.Equal(t, uint32(40000), order.AmountCents)
	assert.Equal(t, "INR", order.Currency)
	assert.Equal(t, 1, gw.orders)
}

func TestCancelBookingReleasesSeats(t *testing.T) {
	st := newTestShowtime(2, 20000)
	svc, store, _, _ := newTestReservation(st)
	ctx := context.Background()

	b, err := svc.CreateBooking(ctx, 7, 11, []string{"A1", "B1"})
	require.NoError(t, err)

	got, err := svc.CancelBooking(ctx, b.ID, 11, false)
	require.NoError(t, err)
	assert.Equal(t, model.BookingCancelled, got.BookingStatus)
	assert.Equal(t, model.PaymentPending, got.PaymentStatus)

	for _, num := range []string{"A1", "B1"} {
		seat := inventory.FindSeat(store.st.Seats, num)
		assert.Equal(t, model.SeatAvailable, seat.Status)
		assert.Nil(t, seat.BookedBy)
	}

	_, err = svc.CancelBooking(ctx, b.ID, 11, false)
	assert.ErrorIs(t, err, ErrAlreadyCancelled)
}

func TestCancelBookingAuthorization(t *testing.T) {
	st := newTestShowtime(2, 20000)
	svc, _, _, _ := newTestReservation(st)
	ctx := context.Background()

	b, err := svc.CreateBooking(ctx, 7, 11, []string{"A1"})
	require.NoError(t, err)

	_, err = svc.CancelBooking(ctx, b.ID, 12, false)
	assert.ErrorIs(t, err, repository.ErrForbidden)

	// Admins may cancel anyone's booking.
	_, err = svc.CancelBooking(ctx, b.ID, 12, true)
	assert.NoError(t, err)
}

func TestRefundBooking(t *testing.T) {
	st := newTestShowtime(2, 20000)
	svc, store, _, _ := newTestReservation(st)
	ctx := context.Background()

	b, err := svc.CreateBooking(ctx, 7, 11, []string{"A1"})
	require.NoError(t, err)

	// Payment still pending: nothing to refund.
	_, err = svc.RefundBooking(ctx, b.ID)
	assert.ErrorIs(t, err, ErrRefundNotPaid)

	_, err = svc.ConfirmPayment(ctx, b.ID, 11, payment.Proof{
		OrderRef: "order_test", PaymentRef: "pay_1", Signature: "good-sig",
	})
	require.NoError(t, err)

	got, err := svc.RefundBooking(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentRefunded, got.PaymentStatus)
	assert.Equal(t, model.BookingCancelled, got.BookingStatus)
	assert.Equal(t, model.SeatAvailable, inventory.FindSeat(store.st.Seats, "A1").Status)

	_, err = svc.RefundBooking(ctx, b.ID)
	assert.ErrorIs(t, err, ErrAlreadyRefunded)
}

func TestRefundAfterCancelLeavesResoldSeatAlone(t *testing.T) {
	st := newTestShowtime(2, 20000)
	svc, store, _, _ := newTestReservation(st)
	ctx := context.Background()

	b, err := svc.CreateBooking(ctx, 7, 11, []string{"A1"})
	require.NoError(t, err)
	_, err = svc.ConfirmPayment(ctx, b.ID, 11, payment.Proof{
		OrderRef: "order_test", PaymentRef: "pay_1", Signature: "good-sig",
	})
	require.NoError(t, err)
	_, err = svc.CancelBooking(ctx, b.ID, 11, false)
	require.NoError(t, err)

	// Another customer books the freed seat before the refund lands.
	b2, err := svc.CreateBooking(ctx, 7, 12, []string{"A1"})
	require.NoError(t, err)

	got, err := svc.RefundBooking(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentRefunded, got.PaymentStatus)

	seat := inventory.FindSeat(store.st.Seats, "A1")
	assert.Equal(t, model.SeatBooked, seat.Status)
	assert.Equal(t, uint64(12), *seat.BookedBy)
	assert.Equal(t, model.BookingConfirmed, store.bookings[b2.ID].BookingStatus)
}

func TestSeatMapSweepsAndPersists(t *testing.T) {
	st := newTestShowtime(2, 20000)
	inventory.Lock(inventory.FindSeat(st.Seats, "A1"), 99, testNow.Add(-time.Minute))

	svc, store, _, _ := newTestReservation(st)
	got, err := svc.SeatMap(context.Background(), 7)
	require.NoError(t, err)

	assert.Equal(t, model.SeatAvailable, inventory.FindSeat(got.Seats, "A1").Status)
	// The release was written back, not just computed in memory.
	assert.Equal(t, model.SeatAvailable, inventory.FindSeat(store.st.Seats, "A1").Status)
	assert.Equal(t, 1, store.seatWrites)
}

func TestSeatMapNoWriteWhenClean(t *testing.T) {
	svc, store, _, _ := newTestReservation(newTestShowtime(2, 20000))
	_, err := svc.SeatMap(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, 0, store.seatWrites)
}

func TestGetBookingOwnership(t *testing.T) {
	st := newTestShowtime(2, 20000)
	svc, _, _, _ := newTestReservation(st)
	ctx := context.Background()

	b, err := svc.CreateBooking(ctx, 7, 11, []string{"A1"})
	require.NoError(t, err)

	_, err = svc.GetBooking(ctx, b.ID, 11, false)
	assert.NoError(t, err)
	_, err = svc.GetBooking(ctx, b.ID, 12, false)
	assert.ErrorIs(t, err, repository.ErrForbidden)
	_, err = svc.GetBooking(ctx, b.ID, 12, true)
	assert.NoError(t, err)
	_, err = svc.GetBooking(ctx, 999, 11, false)
	assert.ErrorIs(t, err, repository.ErrBookingNotFound)
}

func TestCompleteBooking(t *testing.T) {
	st := newTestShowtime(2, 20000)
	svc, store, _, _ := newTestReservation(st)
	ctx := context.Background()

	b, err := svc.CreateBooking(ctx, 7, 11, []string{"A1"})
	require.NoError(t, err)

	// Unpaid bookings cannot be completed.
	_, err = svc.CompleteBooking(ctx, b.ID)
	assert.ErrorIs(t, err, ErrPaymentNotCompleted)

	_, err = svc.ConfirmPayment(ctx, b.ID, 11, payment.Proof{
		OrderRef: "order_test", PaymentRef: "pay_1", Signature: "good-sig",
	})
	require.NoError(t, err)

	got, err := svc.CompleteBooking(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, model.BookingCompleted, got.BookingStatus)
	assert.Equal(t, model.BookingCompleted, store.bookings[b.ID].BookingStatus)
	// Completion never mutates seats.
	assert.Equal(t, model.SeatBooked, inventory.FindSeat(store.st.Seats, "A1").Status)

	// Completing again is a no-op, not an error.
	again, err := svc.CompleteBooking(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, model.BookingCompleted, again.BookingStatus)
}

func TestCompleteBookingRejectsCancelled(t *testing.T) {
	st := newTestShowtime(2, 20000)
	svc, _, _, _ := newTestReservation(st)
	ctx := context.Background()

	b, err := svc.CreateBooking(ctx, 7, 11, []string{"A1"})
	require.NoError(t, err)
	_, err = svc.CancelBooking(ctx, b.ID, 11, false)
	require.NoError(t, err)

	_, err = svc.CompleteBooking(ctx, b.ID)
	assert.ErrorIs(t, err, ErrAlreadyCancelled)
}
