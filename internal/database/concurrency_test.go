package database

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"cabanas/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConcurrentBooking(t *testing.T) {
	logger := zerolog.Nop()
	dbPath := filepath.Join(t.TempDir(), "concurrency.db")
	db, err := NewDB(dbPath, &logger)
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()
	seedCabin(t, db, "x", 250, 2)

	const numGoroutines = 10
	var wg sync.WaitGroup
	wg.Add(numGoroutines)

	results := make(chan error, numGoroutines)

	for i := 0; i < numGoroutines; i++ {
		go func() {
			defer wg.Done()
			results <- db.CreateBookingWithLock(ctx, newBooking("x", "user", "2024-08-01", "2024-08-03"))
		}()
	}

	wg.Wait()
	close(results)

	successCount := 0
	conflictCount := 0
	for err := range results {
		if err == nil {
			successCount++
		} else if errors.Is(err, ErrNotAvailable) {
			conflictCount++
		}
	}

	assert.Equal(t, 1, successCount, "only one booking should succeed for the same dates")
	assert.Equal(t, numGoroutines-1, conflictCount)

	overlapping, err := db.FindOverlapping(ctx, "x", day("2024-08-01"), day("2024-08-03"), models.ActiveStatuses)
	require.NoError(t, err)
	assert.Len(t, overlapping, 1)
}

func TestConcurrentBooking_Separate(t *testing.T) {
	logger := zerolog.Nop()
	dbPath := filepath.Join(t.TempDir(), "separate.db")
	db, err := NewDB(dbPath, &logger)
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()
	seedCabin(t, db, "x", 250, 2)

	ranges := [][2]string{
		{"2024-08-01", "2024-08-03"},
		{"2024-08-03", "2024-08-05"},
		{"2024-08-05", "2024-08-07"},
		{"2024-08-07", "2024-08-09"},
	}

	var wg sync.WaitGroup
	errs := make([]error, len(ranges))
	for i, r := range ranges {
		wg.Add(1)
		go func(i int, in, out string) {
			defer wg.Done()
			errs[i] = db.CreateBookingWithLock(ctx, newBooking("x", "user", in, out))
		}(i, r[0], r[1])
	}
	wg.Wait()

	for _, err := range errs {
		assert.NoError(t, err)
	}
}
