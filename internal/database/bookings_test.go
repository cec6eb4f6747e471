package database

import (
	"context"
	"testing"

	"cabanas/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckAvailability_Adjacency(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	seedCabin(t, db, "x", 250, 2)

	require.NoError(t, db.CreateBookingWithLock(ctx, newBooking("x", "user-1", "2024-07-10", "2024-07-12")))

	tests := []struct {
		name      string
		checkIn   string
		checkOut  string
		available bool
	}{
		{"adjacent after", "2024-07-12", "2024-07-14", true},
		{"adjacent before", "2024-07-08", "2024-07-10", true},
		{"overlaps end", "2024-07-11", "2024-07-13", false},
		{"overlaps start", "2024-07-09", "2024-07-11", false},
		{"same range", "2024-07-10", "2024-07-12", false},
		{"contains existing", "2024-07-09", "2024-07-13", false},
		{"inside existing", "2024-07-10", "2024-07-11", false},
		{"far away", "2024-08-01", "2024-08-03", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			available, err := db.CheckAvailability(ctx, "x", day(tt.checkIn), day(tt.checkOut))
			require.NoError(t, err)
			assert.Equal(t, tt.available, available)

			again, err := db.CheckAvailability(ctx, "x", day(tt.checkIn), day(tt.checkOut))
			require.NoError(t, err)
			assert.Equal(t, available, again)
		})
	}
}

func TestCheckAvailability_UnknownCabin(t *testing.T) {
	db := setupTestDB(t)

	_, err := db.CheckAvailability(context.Background(), "missing", day("2024-07-10"), day("2024-07-12"))
	assert.ErrorIs(t, err, ErrCabinNotFound)
}

func TestCheckAvailability_IgnoresCancelled(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	seedCabin(t, db, "x", 250, 2)

	cancelled := newBooking("x", "user-1", "2024-07-10", "2024-07-12")
	cancelled.Status = models.StatusCancelled
	require.NoError(t, db.CreateBookingWithLock(ctx, cancelled))

	available, err := db.CheckAvailability(ctx, "x", day("2024-07-10"), day("2024-07-12"))
	require.NoError(t, err)
	assert.True(t, available)

	overlapping, err := db.FindOverlapping(ctx, "x", day("2024-07-10"), day("2024-07-12"), []string{models.StatusCancelled})
	require.NoError(t, err)
	assert.Len(t, overlapping, 1)
}

func TestCreateBookingWithLock(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	seedCabin(t, db, "x", 250, 2)

	t.Run("Success", func(t *testing.T) {
		b := newBooking("x", "user-1", "2024-07-10", "2024-07-12")
		require.NoError(t, db.CreateBookingWithLock(ctx, b))
		assert.Equal(t, "Cabin x", b.CabinName)
		assert.False(t, b.CreatedAt.IsZero())

		stored, err := db.GetBooking(ctx, b.ID)
		require.NoError(t, err)
		assert.Equal(t, models.StatusConfirmed, stored.Status)
		assert.Equal(t, day("2024-07-10"), stored.CheckIn)
		assert.Equal(t, day("2024-07-12"), stored.CheckOut)
		assert.Equal(t, int64(500), stored.Subtotal)
		assert.Equal(t, int64(60), stored.Taxes)
		assert.Equal(t, int64(560), stored.Total)
	})

	t.Run("Conflict leaves no record", func(t *testing.T) {
		b := newBooking("x", "user-2", "2024-07-11", "2024-07-13")
		err := db.CreateBookingWithLock(ctx, b)
		assert.ErrorIs(t, err, ErrNotAvailable)

		_, err = db.GetBooking(ctx, b.ID)
		assert.ErrorIs(t, err, ErrBookingNotFound)
	})

	t.Run("Adjacent accepted", func(t *testing.T) {
		require.NoError(t, db.CreateBookingWithLock(ctx, newBooking("x", "user-2", "2024-07-12", "2024-07-14")))
		require.NoError(t, db.CreateBookingWithLock(ctx, newBooking("x", "user-3", "2024-07-08", "2024-07-10")))
	})

	t.Run("Unknown cabin", func(t *testing.T) {
		err := db.CreateBookingWithLock(ctx, newBooking("missing", "user-1", "2024-09-01", "2024-09-02"))
		assert.ErrorIs(t, err, ErrCabinNotFound)
	})

	t.Run("Duplicate reference", func(t *testing.T) {
		first := newBooking("x", "user-1", "2024-10-01", "2024-10-02")
		require.NoError(t, db.CreateBookingWithLock(ctx, first))

		second := newBooking("x", "user-1", "2024-10-05", "2024-10-06")
		second.ID = first.ID
		err := db.CreateBookingWithLock(ctx, second)
		assert.ErrorIs(t, err, ErrDuplicateReference)
	})
}

func TestOverlapTrigger(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	seedCabin(t, db, "x", 250, 2)

	require.NoError(t, db.CreateBookingWithLock(ctx, newBooking("x", "user-1", "2024-07-10", "2024-07-12")))

	// bypass the in-transaction check to hit the store-level guard
	insert := `INSERT INTO bookings (` + bookingColumns + `)
               VALUES (?, 'x', 'Cabin x', 'user-2', ?, ?, 2, 'n', 'e@example.com', '123456', '', 2, 250, 500, 60, 560, ?, CURRENT_TIMESTAMP)`

	_, err := db.ExecContext(ctx, insert, "RES-TRIGGER-1", "2024-07-11", "2024-07-13", models.StatusPending)
	require.Error(t, err)
	assert.ErrorIs(t, classify(err), ErrNotAvailable)

	_, err = db.ExecContext(ctx, insert, "RES-TRIGGER-2", "2024-07-12", "2024-07-14", models.StatusPending)
	assert.NoError(t, err)

	_, err = db.ExecContext(ctx, insert, "RES-TRIGGER-3", "2024-07-11", "2024-07-13", models.StatusCancelled)
	assert.NoError(t, err)
}

func TestGetUserBookings(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	seedCabin(t, db, "x", 250, 2)
	seedCabin(t, db, "y", 300, 4)

	require.NoError(t, db.CreateBookingWithLock(ctx, newBooking("x", "user-1", "2024-07-10", "2024-07-12")))
	require.NoError(t, db.CreateBookingWithLock(ctx, newBooking("y", "user-1", "2024-09-01", "2024-09-05")))
	require.NoError(t, db.CreateBookingWithLock(ctx, newBooking("y", "user-2", "2024-10-01", "2024-10-05")))

	bookings, err := db.GetUserBookings(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, bookings, 2)
	assert.Equal(t, "y", bookings[0].CabinID)
	assert.Equal(t, "x", bookings[1].CabinID)

	none, err := db.GetUserBookings(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestGetBookingsByDateRange(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	seedCabin(t, db, "x", 250, 2)

	require.NoError(t, db.CreateBookingWithLock(ctx, newBooking("x", "user-1", "2024-07-10", "2024-07-12")))
	require.NoError(t, db.CreateBookingWithLock(ctx, newBooking("x", "user-1", "2024-07-20", "2024-07-25")))

	bookings, err := db.GetBookingsByDateRange(ctx, day("2024-07-01"), day("2024-07-15"))
	require.NoError(t, err)
	require.Len(t, bookings, 1)
	assert.Equal(t, day("2024-07-10"), bookings[0].CheckIn)

	bookings, err = db.GetBookingsByDateRange(ctx, day("2024-07-01"), day("2024-07-31"))
	require.NoError(t, err)
	assert.Len(t, bookings, 2)
}
