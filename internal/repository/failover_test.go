package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"cabanas/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type mockCache struct {
	mock.Mock
}

func (m *mockCache) GetCabins(ctx context.Context) ([]*models.Cabin, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Cabin), args.Error(1)
}

func (m *mockCache) SetCabins(ctx context.Context, cabins []*models.Cabin) error {
	return m.Called(ctx, cabins).Error(0)
}

func (m *mockCache) GetCabin(ctx context.Context, id string) (*models.Cabin, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Cabin), args.Error(1)
}

func (m *mockCache) SetCabin(ctx context.Context, cabin *models.Cabin) error {
	return m.Called(ctx, cabin).Error(0)
}

func (m *mockCache) InvalidateCabin(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockCache) CheckRateLimit(ctx context.Context, userID string, limit int, window time.Duration) (bool, error) {
	args := m.Called(ctx, userID, limit, window)
	return args.Bool(0), args.Error(1)
}

func TestFailoverCatalogCache(t *testing.T) {
	primary := new(mockCache)
	fallback := new(mockCache)
	logger := zerolog.Nop()
	repo := NewFailoverCatalogCache(primary, fallback, &logger)
	ctx := context.Background()

	t.Run("PrimarySuccess", func(t *testing.T) {
		cabin := testCabin("a")
		primary.On("GetCabin", ctx, "a").Return(cabin, nil).Once()

		got, err := repo.GetCabin(ctx, "a")
		assert.NoError(t, err)
		assert.Equal(t, cabin, got)
		primary.AssertExpectations(t)
	})

	t.Run("PrimaryFailFallbackSuccess", func(t *testing.T) {
		cabin := testCabin("b")
		primary.On("GetCabin", ctx, "b").Return(nil, errors.New("fail")).Once()
		fallback.On("GetCabin", ctx, "b").Return(cabin, nil).Once()

		got, err := repo.GetCabin(ctx, "b")
		assert.NoError(t, err)
		assert.Equal(t, cabin, got)
		assert.True(t, repo.isDown.Load())
		primary.AssertExpectations(t)
		fallback.AssertExpectations(t)
	})

	t.Run("StaysOnFallbackWhileDown", func(t *testing.T) {
		fallback.On("CheckRateLimit", ctx, "user-1", 5, time.Minute).Return(true, nil).Once()

		allowed, err := repo.CheckRateLimit(ctx, "user-1", 5, time.Minute)
		assert.NoError(t, err)
		assert.True(t, allowed)
		primary.AssertNotCalled(t, "CheckRateLimit", ctx, "user-1", 5, time.Minute)
	})

	t.Run("InvalidateHitsFallbackWhileDown", func(t *testing.T) {
		fallback.On("InvalidateCabin", ctx, "a").Return(nil).Once()

		assert.NoError(t, repo.InvalidateCabin(ctx, "a"))
		fallback.AssertExpectations(t)
	})

	t.Run("Recovery", func(t *testing.T) {
		repo.mu.Lock()
		repo.lastCheck = time.Now().Add(-2 * recoveryInterval)
		repo.mu.Unlock()

		cabins := []*models.Cabin{testCabin("a")}
		primary.On("SetCabins", ctx, cabins).Return(nil).Once()

		assert.NoError(t, repo.SetCabins(ctx, cabins))
		assert.False(t, repo.isDown.Load())
		primary.AssertExpectations(t)
	})

	t.Run("InvalidateBoth", func(t *testing.T) {
		fallback.On("InvalidateCabin", ctx, "c").Return(nil).Once()
		primary.On("InvalidateCabin", ctx, "c").Return(nil).Once()

		assert.NoError(t, repo.InvalidateCabin(ctx, "c"))
		primary.AssertExpectations(t)
		fallback.AssertExpectations(t)
	})
}
