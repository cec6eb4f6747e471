package pgstore

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"cabanas/internal/domain"
	"cabanas/internal/models"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestStore connects to CABANAS_TEST_POSTGRES_DSN and starts from empty tables.
func setupTestStore(t *testing.T) *Store {
	t.Helper()
	dsn := os.Getenv("CABANAS_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("CABANAS_TEST_POSTGRES_DSN not set")
	}

	logger := zerolog.Nop()
	ctx := context.Background()
	s, err := New(ctx, dsn, &logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	_, err = s.pool.Exec(ctx, `TRUNCATE bookings, cabins`)
	require.NoError(t, err)

	require.NoError(t, s.UpsertCabin(ctx, &models.Cabin{
		ID: "x", Name: "Refugio Zen", Price: 290, MaxGuests: 2, Amenities: []string{"WiFi"},
	}))
	return s
}

func day(s string) time.Time {
	d, _ := time.Parse(models.DateLayout, s)
	return d
}

func newBooking(in, out string) *models.Booking {
	p := models.ComputePricing(290, models.NightsBetween(day(in), day(out)))
	return &models.Booking{
		ID:       models.NewReference(time.Now()),
		CabinID:  "x",
		UserID:   "user-1",
		CheckIn:  day(in),
		CheckOut: day(out),
		Guests:   2,
		Name:     "Ana",
		Email:    "ana@example.com",
		Phone:    "5551234567",
		Nights:   p.Nights,
		Price:    p.Price,
		Subtotal: p.Subtotal,
		Taxes:    p.Taxes,
		Total:    p.Total,
		Status:   models.StatusConfirmed,
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"exclusion", &pgconn.PgError{Code: codeExclusionViolation}, domain.ErrNotAvailable},
		{"reference", &pgconn.PgError{Code: codeUniqueViolation, ConstraintName: "bookings_reference_key"}, domain.ErrDuplicateReference},
		{"foreign key", &pgconn.PgError{Code: codeForeignKeyViolation}, domain.ErrCabinNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, classify(tt.err), tt.want)
		})
	}

	assert.Equal(t, domain.KindTransient, domain.KindOf(classify(&pgconn.PgError{Code: codeSerializationFailure})))
	assert.Equal(t, domain.KindTransient, domain.KindOf(classify(&pgconn.PgError{Code: codeDeadlockDetected})))
	assert.Equal(t, domain.KindTransient, domain.KindOf(classify(context.DeadlineExceeded)))

	other := errors.New("syntax error")
	assert.Equal(t, other, classify(other))
	assert.Nil(t, classify(nil))
}

func TestStore_Adjacency(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreateBookingWithLock(ctx, newBooking("2024-07-10", "2024-07-12")))

	free, err := s.CheckAvailability(ctx, "x", day("2024-07-12"), day("2024-07-14"))
	require.NoError(t, err)
	assert.True(t, free)

	free, err = s.CheckAvailability(ctx, "x", day("2024-07-11"), day("2024-07-13"))
	require.NoError(t, err)
	assert.False(t, free)

	err = s.CreateBookingWithLock(ctx, newBooking("2024-07-11", "2024-07-13"))
	assert.ErrorIs(t, err, domain.ErrNotAvailable)

	require.NoError(t, s.CreateBookingWithLock(ctx, newBooking("2024-07-12", "2024-07-14")))

	_, err = s.CheckAvailability(ctx, "missing", day("2024-07-12"), day("2024-07-14"))
	assert.ErrorIs(t, err, domain.ErrCabinNotFound)
}

func TestStore_ExclusionConstraint(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreateBookingWithLock(ctx, newBooking("2024-07-10", "2024-07-12")))

	// bypass the in-transaction check
	b := newBooking("2024-07-11", "2024-07-13")
	_, err := s.pool.Exec(ctx, `
		INSERT INTO bookings (`+bookingColumns+`)
		VALUES ($1, 'x', 'Refugio Zen', 'u', $2, $3, 1, 'n', 'e', 'p', '', 2, 290, 580, 70, 650, 'CONFIRMED', NOW())
	`, b.ID, b.CheckIn, b.CheckOut)
	assert.ErrorIs(t, classify(err), domain.ErrNotAvailable)
}

func TestStore_ConcurrentCreate(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	const n = 10
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = s.CreateBookingWithLock(ctx, newBooking("2024-08-01", "2024-08-03"))
		}(i)
	}
	wg.Wait()

	created := 0
	for _, err := range errs {
		switch {
		case err == nil:
			created++
		case errors.Is(err, domain.ErrNotAvailable), domain.KindOf(err) == domain.KindTransient:
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, created)

	found, err := s.FindOverlapping(ctx, "x", day("2024-08-01"), day("2024-08-03"), nil)
	require.NoError(t, err)
	assert.Len(t, found, 1)
}

func TestStore_Lookups(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	b := newBooking("2024-07-10", "2024-07-12")
	require.NoError(t, s.CreateBookingWithLock(ctx, b))
	assert.False(t, b.CreatedAt.IsZero())

	got, err := s.GetBooking(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, "Refugio Zen", got.CabinName)
	assert.True(t, got.CheckIn.Equal(day("2024-07-10")))
	assert.Equal(t, b.Total, got.Total)

	_, err = s.GetBooking(ctx, "RES-000000-00000000")
	assert.ErrorIs(t, err, domain.ErrBookingNotFound)

	mine, err := s.GetUserBookings(ctx, "user-1")
	require.NoError(t, err)
	assert.Len(t, mine, 1)

	ranged, err := s.GetBookingsByDateRange(ctx, day("2024-07-12"), day("2024-07-20"))
	require.NoError(t, err)
	assert.Len(t, ranged, 1)

	cabins, err := s.ListCabins(ctx)
	require.NoError(t, err)
	require.Len(t, cabins, 1)
	assert.Equal(t, []string{"WiFi"}, cabins[0].Amenities)
}
