package repository

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"cabanas/internal/domain"
	"cabanas/internal/models"

	"github.com/rs/zerolog"
)

const recoveryInterval = time.Minute

// FailoverCatalogCache uses the primary cache until it fails, then serves from the
// fallback and retries the primary once per recovery interval.
type FailoverCatalogCache struct {
	primary   domain.CatalogCache
	fallback  domain.CatalogCache
	logger    *zerolog.Logger
	isDown    atomic.Bool
	mu        sync.Mutex
	lastCheck time.Time
}

func NewFailoverCatalogCache(primary, fallback domain.CatalogCache, logger *zerolog.Logger) *FailoverCatalogCache {
	return &FailoverCatalogCache{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
	}
}

// usePrimary reports whether the next call should go to the primary.
func (r *FailoverCatalogCache) usePrimary() bool {
	if !r.isDown.Load() {
		return true
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if time.Since(r.lastCheck) > recoveryInterval {
		r.lastCheck = time.Now()
		return true
	}
	return false
}

func (r *FailoverCatalogCache) markDown(err error) {
	if !r.isDown.Swap(true) {
		r.logger.Error().Err(err).Msg("Primary catalog cache failed, falling back to memory")
	}
	r.mu.Lock()
	r.lastCheck = time.Now()
	r.mu.Unlock()
}

func (r *FailoverCatalogCache) markUp() {
	if r.isDown.Swap(false) {
		r.logger.Info().Msg("Primary catalog cache recovered")
	}
}

func (r *FailoverCatalogCache) GetCabins(ctx context.Context) ([]*models.Cabin, error) {
	if r.usePrimary() {
		cabins, err := r.primary.GetCabins(ctx)
		if err == nil {
			r.markUp()
			return cabins, nil
		}
		r.markDown(err)
	}
	return r.fallback.GetCabins(ctx)
}

func (r *FailoverCatalogCache) SetCabins(ctx context.Context, cabins []*models.Cabin) error {
	if r.usePrimary() {
		err := r.primary.SetCabins(ctx, cabins)
		if err == nil {
			r.markUp()
			return nil
		}
		r.markDown(err)
	}
	return r.fallback.SetCabins(ctx, cabins)
}

func (r *FailoverCatalogCache) GetCabin(ctx context.Context, id string) (*models.Cabin, error) {
	if r.usePrimary() {
		cabin, err := r.primary.GetCabin(ctx, id)
		if err == nil {
			r.markUp()
			return cabin, nil
		}
		r.markDown(err)
	}
	return r.fallback.GetCabin(ctx, id)
}

func (r *FailoverCatalogCache) SetCabin(ctx context.Context, cabin *models.Cabin) error {
	if r.usePrimary() {
		err := r.primary.SetCabin(ctx, cabin)
		if err == nil {
			r.markUp()
			return nil
		}
		r.markDown(err)
	}
	return r.fallback.SetCabin(ctx, cabin)
}

// InvalidateCabin clears the fallback as well as the primary.
func (r *FailoverCatalogCache) InvalidateCabin(ctx context.Context, id string) error {
	_ = r.fallback.InvalidateCabin(ctx, id)
	if r.usePrimary() {
		err := r.primary.InvalidateCabin(ctx, id)
		if err == nil {
			r.markUp()
			return nil
		}
		r.markDown(err)
	}
	return nil
}

func (r *FailoverCatalogCache) CheckRateLimit(ctx context.Context, userID string, limit int, window time.Duration) (bool, error) {
	if r.usePrimary() {
		allowed, err := r.primary.CheckRateLimit(ctx, userID, limit, window)
		if err == nil {
			r.markUp()
			return allowed, nil
		}
		r.markDown(err)
	}
	return r.fallback.CheckRateLimit(ctx, userID, limit, window)
}
