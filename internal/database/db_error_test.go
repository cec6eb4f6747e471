package database

import (
	"context"
	"errors"
	"testing"

	"cabanas/internal/domain"
	"cabanas/internal/models"

	"github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDB_ErrorPaths(t *testing.T) {
	logger := zerolog.Nop()
	db, err := NewDB(":memory:", &logger)
	require.NoError(t, err)
	db.Close() // Close the DB to trigger errors

	ctx := context.Background()

	t.Run("CheckAvailability_Error", func(t *testing.T) {
		_, err := db.CheckAvailability(ctx, "x", day("2024-07-10"), day("2024-07-12"))
		assert.Error(t, err)
	})

	t.Run("CreateBookingWithLock_Error", func(t *testing.T) {
		err := db.CreateBookingWithLock(ctx, &models.Booking{})
		assert.Error(t, err)
	})

	t.Run("GetBookingsByDateRange_Error", func(t *testing.T) {
		_, err := db.GetBookingsByDateRange(ctx, day("2024-07-10"), day("2024-07-12"))
		assert.Error(t, err)
	})

	t.Run("ListCabins_Error", func(t *testing.T) {
		_, err := db.ListCabins(ctx)
		assert.Error(t, err)
	})

	t.Run("Ping_Error", func(t *testing.T) {
		assert.Error(t, db.Ping(ctx))
	})
}

func TestClassify(t *testing.T) {
	t.Run("busy is transient", func(t *testing.T) {
		err := classify(sqlite3.Error{Code: sqlite3.ErrBusy})
		assert.Equal(t, domain.KindTransient, domain.KindOf(err))
	})

	t.Run("locked is transient", func(t *testing.T) {
		err := classify(sqlite3.Error{Code: sqlite3.ErrLocked})
		assert.Equal(t, domain.KindTransient, domain.KindOf(err))
	})

	t.Run("deadline is transient", func(t *testing.T) {
		err := classify(context.DeadlineExceeded)
		assert.Equal(t, domain.KindTransient, domain.KindOf(err))
	})

	t.Run("unknown passes through", func(t *testing.T) {
		plain := errors.New("boom")
		assert.Equal(t, plain, classify(plain))
		assert.Nil(t, classify(nil))
	})
}

func TestCreateBookingWithLock_Cancelled(t *testing.T) {
	db := setupTestDB(t)
	seedCabin(t, db, "x", 250, 2)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	b := newBooking("x", "user-1", "2024-07-10", "2024-07-12")
	err := db.CreateBookingWithLock(ctx, b)
	require.Error(t, err)
	assert.Equal(t, domain.KindTransient, domain.KindOf(err))

	_, err = db.GetBooking(context.Background(), b.ID)
	assert.ErrorIs(t, err, ErrBookingNotFound)
}
