package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"cabanas/internal/config"
	"cabanas/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCabin(id string) *models.Cabin {
	return &models.Cabin{
		ID:        id,
		Name:      "Refugio Zen",
		Price:     290,
		MaxGuests: 2,
		Amenities: []string{"Yoga deck", "WiFi"},
	}
}

func TestRedisCatalogCache(t *testing.T) {
	s, err := miniredis.Run()
	require.NoError(t, err)
	defer s.Close()

	client := NewRedisClient(config.RedisConfig{Address: s.Addr()})
	defer Close(client)

	repo := NewRedisCatalogCache(client, time.Hour)
	ctx := context.Background()

	require.NoError(t, Ping(ctx, client))

	t.Run("CabinMiss", func(t *testing.T) {
		got, err := repo.GetCabin(ctx, "missing")
		require.NoError(t, err)
		assert.Nil(t, got)

		list, err := repo.GetCabins(ctx)
		require.NoError(t, err)
		assert.Nil(t, list)
	})

	t.Run("SetAndGetCabin", func(t *testing.T) {
		require.NoError(t, repo.SetCabin(ctx, testCabin("refugio-zen")))

		got, err := repo.GetCabin(ctx, "refugio-zen")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, int64(290), got.Price)
		assert.Equal(t, []string{"Yoga deck", "WiFi"}, got.Amenities)
		assert.True(t, s.Exists("cabanas:cabin:refugio-zen"))
	})

	t.Run("SetAndGetCabins", func(t *testing.T) {
		require.NoError(t, repo.SetCabins(ctx, []*models.Cabin{testCabin("a"), testCabin("b")}))

		got, err := repo.GetCabins(ctx)
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, "b", got[1].ID)
	})

	t.Run("InvalidateCabin", func(t *testing.T) {
		require.NoError(t, repo.InvalidateCabin(ctx, "refugio-zen"))

		got, err := repo.GetCabin(ctx, "refugio-zen")
		require.NoError(t, err)
		assert.Nil(t, got)
		assert.False(t, s.Exists("cabanas:cabins"))
	})

	t.Run("TTL", func(t *testing.T) {
		require.NoError(t, repo.SetCabin(ctx, testCabin("ttl")))
		s.FastForward(2 * time.Hour)

		got, err := repo.GetCabin(ctx, "ttl")
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("CorruptEntry", func(t *testing.T) {
		require.NoError(t, s.Set("cabanas:cabin:broken", "{"))
		_, err := repo.GetCabin(ctx, "broken")
		assert.Error(t, err)
	})

	t.Run("RateLimit", func(t *testing.T) {
		limit := 2
		window := time.Minute

		allowed, err := repo.CheckRateLimit(ctx, "user-1", limit, window)
		require.NoError(t, err)
		assert.True(t, allowed)

		allowed, err = repo.CheckRateLimit(ctx, "user-1", limit, window)
		require.NoError(t, err)
		assert.True(t, allowed)

		allowed, err = repo.CheckRateLimit(ctx, "user-1", limit, window)
		require.NoError(t, err)
		assert.False(t, allowed)

		s.FastForward(2 * window)

		allowed, err = repo.CheckRateLimit(ctx, "user-1", limit, window)
		require.NoError(t, err)
		assert.True(t, allowed)
	})

	t.Run("RateLimitWindowAlwaysExpires", func(t *testing.T) {
		allowed, err := repo.CheckRateLimit(ctx, "user-2", 1, time.Minute)
		require.NoError(t, err)
		assert.True(t, allowed)

		key := fmt.Sprintf(keyRateLimit, "user-2")
		ttl := s.TTL(key)
		assert.True(t, ttl > 0 && ttl <= time.Minute, "ttl = %s", ttl)

		// later hits in the same window keep the original expiry
		s.FastForward(30 * time.Second)
		allowed, err = repo.CheckRateLimit(ctx, "user-2", 1, time.Minute)
		require.NoError(t, err)
		assert.False(t, allowed)
		assert.True(t, s.TTL(key) <= 30*time.Second)

		v, err := s.Get(key)
		require.NoError(t, err)
		assert.Equal(t, "2", v)
	})
}

func TestRedisCatalogCache_Errors(t *testing.T) {
	ctx := context.Background()

	t.Run("NilClient", func(t *testing.T) {
		repo := NewRedisCatalogCache(nil, time.Hour)
		_, err := repo.GetCabin(ctx, "x")
		assert.Error(t, err)
		assert.Error(t, repo.SetCabins(ctx, nil))
		assert.Error(t, repo.InvalidateCabin(ctx, "x"))
		_, err = repo.CheckRateLimit(ctx, "u", 1, time.Second)
		assert.Error(t, err)
	})

	t.Run("ServerDown", func(t *testing.T) {
		s, err := miniredis.Run()
		require.NoError(t, err)
		client := redis.NewClient(&redis.Options{Addr: s.Addr(), MaxRetries: -1})
		defer client.Close()
		s.Close()

		repo := NewRedisCatalogCache(client, time.Hour)
		_, err = repo.GetCabins(ctx)
		assert.Error(t, err)
		assert.Error(t, Ping(ctx, client))
	})
}
