package inventory

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cinetix/movie-booking-api/internal/model"
)

func TestGenerateLayoutFullRows(t *testing.T) {
	seats := GenerateLayout(100)
	require.Len(t, seats, 100)

	assert.Equal(t, "A1", seats[0].SeatNumber)
	assert.Equal(t, "A10", seats[9].SeatNumber)
	assert.Equal(t, "B1", seats[10].SeatNumber)
	assert.Equal(t, "J10", seats[99].SeatNumber)

	for _, s := range seats {
		assert.Equal(t, model.SeatAvailable, s.Status)
		assert.Nil(t, s.LockedBy)
		assert.Nil(t, s.LockedUntil)
		assert.Nil(t, s.BookedBy)
	}
}

func TestGenerateLayoutTruncatesLastRow(t *testing.T) {
	// 95 seats -> ceil(95/10) = 10 per row, last row stops at J5.
	seats := GenerateLayout(95)
	require.Len(t, seats, 95)
	assert.Equal(t, "J5", seats[94].SeatNumber)
	assert.Equal(t, "J", seats[94].Row)

	// 2 seats -> 1 per row, rows A and B.
	seats = GenerateLayout(2)
	require.Len(t, seats, 2)
	assert.Equal(t, "A1", seats[0].SeatNumber)
	assert.Equal(t, "B1", seats[1].SeatNumber)
}

func TestGenerateLayoutUniqueSeatNumbers(t *testing.T) {
	seats := GenerateLayout(137)
	require.Len(t, seats, 137)
	seen := make(map[string]bool, len(seats))
	for _, s := range seats {
		assert.False(t, seen[s.SeatNumber], "duplicate seat %s", s.SeatNumber)
		seen[s.SeatNumber] = true
	}
}

func TestFindSeat(t *testing.T) {
	seats := GenerateLayout(20)
	s := FindSeat(seats, "B2")
	require.NotNil(t, s)
	assert.Equal(t, "B", s.Row)

	assert.Nil(t, FindSeat(seats, "Z9"))

	// The returned pointer aliases the slice element.
	Lock(s, 7, time.Now().Add(time.Minute))
	assert.Equal(t, model.SeatLocked, FindSeat(seats, "B2").Status)
}

func TestSweepReleasesExpiredLocks(t *testing.T) {
	now := time.Date(2026, 3, 1, 18, 0, 0, 0, time.UTC)
	seats := GenerateLayout(4)

	Lock(&seats[0], 1, now.Add(-time.Second)) // expired
	Lock(&seats[1], 2, now.Add(time.Minute))  // still held
	Book(&seats[2], 3)

	changed := Sweep(seats, now)
	require.True(t, changed)

	assert.Equal(t, model.SeatAvailable, seats[0].Status)
	assert.Nil(t, seats[0].LockedBy)
	assert.Nil(t, seats[0].LockedUntil)

	assert.Equal(t, model.SeatLocked, seats[1].Status)
	assert.Equal(t, model.SeatBooked, seats[2].Status)
	assert.Equal(t, model.SeatAvailable, seats[3].Status)
}

func TestSweepIdempotentAtFixedNow(t *testing.T) {
	now := time.Date(2026, 3, 1, 18, 0, 0, 0, time.UTC)
	seats := GenerateLayout(3)
	Lock(&seats[0], 1, now.Add(-time.Hour))

	require.True(t, Sweep(seats, now))
	assert.False(t, Sweep(seats, now), "second sweep with no time advance must change nothing")
}

func TestSweepExactExpiryBoundary(t *testing.T) {
	now := time.Date(2026, 3, 1, 18, 0, 0, 0, time.UTC)
	seats := GenerateLayout(1)
	Lock(&seats[0], 1, now)

	// lockedUntil < now is the release condition; equality keeps the lock.
	assert.False(t, Sweep(seats, now))
	assert.True(t, Sweep(seats, now.Add(time.Nanosecond)))
}

func TestTransitionsMaintainFieldInvariants(t *testing.T) {
	seats := GenerateLayout(1)
	s := &seats[0]
	until := time.Now().UTC().Add(15 * time.Minute)

	Lock(s, 42, until)
	require.Equal(t, model.SeatLocked, s.Status)
	require.NotNil(t, s.LockedBy)
	assert.EqualValues(t, 42, *s.LockedBy)
	require.NotNil(t, s.LockedUntil)
	assert.True(t, s.LockedUntil.Equal(until))
	assert.Nil(t, s.BookedBy)

	Book(s, 42)
	require.Equal(t, model.SeatBooked, s.Status)
	require.NotNil(t, s.BookedBy)
	assert.EqualValues(t, 42, *s.BookedBy)
	assert.Nil(t, s.LockedBy)
	assert.Nil(t, s.LockedUntil)

	Release(s)
	assert.Equal(t, model.SeatAvailable, s.Status)
	assert.Nil(t, s.LockedBy)
	assert.Nil(t, s.LockedUntil)
	assert.Nil(t, s.BookedBy)
}

func TestBookableBy(t *testing.T) {
	seats := GenerateLayout(3)
	until := time.Now().UTC().Add(15 * time.Minute)

	Lock(&seats[1], 1, until)
	Book(&seats[2], 2)

	assert.True(t, BookableBy(&seats[0], 1), "available seat is bookable by anyone")
	assert.True(t, BookableBy(&seats[1], 1), "lock holder can book their own locked seat")
	assert.False(t, BookableBy(&seats[1], 2), "locked seat is not bookable by another user")
	assert.False(t, BookableBy(&seats[2], 1), "booked seat is never bookable")
}
