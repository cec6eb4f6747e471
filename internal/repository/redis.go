package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"cabanas/internal/config"
	"cabanas/internal/models"

	"github.com/redis/go-redis/v9"
)

const (
	keyCabins    = "cabanas:cabins"
	keyCabinFmt  = "cabanas:cabin:%s"
	keyRateLimit = "cabanas:rate:%s"
)

var errNilClient = errors.New("redis client is nil")

// RedisCatalogCache кэширует каталог и считает заявки на бронь в Redis.
type RedisCatalogCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisClient создает новый клиент Redis на основе конфигурации
func NewRedisClient(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})
}

func NewRedisCatalogCache(client *redis.Client, ttl time.Duration) *RedisCatalogCache {
	return &RedisCatalogCache{
		client: client,
		ttl:    ttl,
	}
}

func (r *RedisCatalogCache) GetCabins(ctx context.Context) ([]*models.Cabin, error) {
	var cabins []*models.Cabin
	found, err := r.getJSON(ctx, keyCabins, &cabins)
	if err != nil || !found {
		return nil, err
	}
	return cabins, nil
}

func (r *RedisCatalogCache) SetCabins(ctx context.Context, cabins []*models.Cabin) error {
	return r.setJSON(ctx, keyCabins, cabins)
}

func (r *RedisCatalogCache) GetCabin(ctx context.Context, id string) (*models.Cabin, error) {
	var cabin models.Cabin
	found, err := r.getJSON(ctx, fmt.Sprintf(keyCabinFmt, id), &cabin)
	if err != nil || !found {
		return nil, err
	}
	return &cabin, nil
}

func (r *RedisCatalogCache) SetCabin(ctx context.Context, cabin *models.Cabin) error {
	return r.setJSON(ctx, fmt.Sprintf(keyCabinFmt, cabin.ID), cabin)
}

// InvalidateCabin удаляет запись кабины и список каталога.
func (r *RedisCatalogCache) InvalidateCabin(ctx context.Context, id string) error {
	if r.client == nil {
		return errNilClient
	}
	if err := r.client.Del(ctx, fmt.Sprintf(keyCabinFmt, id), keyCabins).Err(); err != nil {
		return fmt.Errorf("failed to invalidate cabin in redis: %w", err)
	}
	return nil
}

// CheckRateLimit учитывает заявку пользователя в фиксированном окне.
func (r *RedisCatalogCache) CheckRateLimit(ctx context.Context, userID string, limit int, window time.Duration) (bool, error) {
	if r.client == nil {
		return false, errNilClient
	}
	key := fmt.Sprintf(keyRateLimit, userID)

	// SETNX открывает окно сразу с TTL, поэтому INCR в том же MULTI не увидит ключ без срока.
	var incr *redis.IntCmd
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.SetNX(ctx, key, 0, window)
		incr = pipe.Incr(ctx, key)
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("failed to increment rate limit: %w", err)
	}

	return incr.Val() <= int64(limit), nil
}

func (r *RedisCatalogCache) getJSON(ctx context.Context, key string, dst interface{}) (bool, error) {
	if r.client == nil {
		return false, errNilClient
	}
	val, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to get %s from redis: %w", key, err)
	}
	if err := json.Unmarshal(val, dst); err != nil {
		return false, fmt.Errorf("failed to unmarshal %s: %w", key, err)
	}
	return true, nil
}

func (r *RedisCatalogCache) setJSON(ctx context.Context, key string, v interface{}) error {
	if r.client == nil {
		return errNilClient
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", key, err)
	}
	if err := r.client.Set(ctx, key, data, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set %s in redis: %w", key, err)
	}
	return nil
}

// Ping проверяет соединение с Redis
func Ping(ctx context.Context, client *redis.Client) error {
	if _, err := client.Ping(ctx).Result(); err != nil {
		return fmt.Errorf("failed to ping Redis: %w", err)
	}
	return nil
}

// Close закрывает соединение с Redis
func Close(client *redis.Client) error {
	if client != nil {
		return client.Close()
	}
	return nil
}
