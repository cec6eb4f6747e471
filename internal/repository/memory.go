package repository

import (
	"context"
	"sync"
	"time"

	"cabanas/internal/models"
)

// MemoryCatalogCache is the process-local fallback used when Redis is unavailable.
type MemoryCatalogCache struct {
	mu         sync.Mutex
	cabins     map[string]cacheEntry
	list       cacheEntry
	rateLimits map[string]*rateLimitEntry
	nextSweep  time.Time
	ttl        time.Duration
	now        func() time.Time
}

type cacheEntry struct {
	value     interface{}
	expiresAt time.Time
}

type rateLimitEntry struct {
	count     int
	expiresAt time.Time
}

func NewMemoryCatalogCache(ttl time.Duration) *MemoryCatalogCache {
	return &MemoryCatalogCache{
		cabins:     make(map[string]cacheEntry),
		rateLimits: make(map[string]*rateLimitEntry),
		ttl:        ttl,
		now:        time.Now,
	}
}

func (r *MemoryCatalogCache) GetCabins(ctx context.Context) ([]*models.Cabin, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.list.value == nil || r.expired(r.list) {
		return nil, nil
	}
	return r.list.value.([]*models.Cabin), nil
}

func (r *MemoryCatalogCache) SetCabins(ctx context.Context, cabins []*models.Cabin) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.list = cacheEntry{value: cabins, expiresAt: r.now().Add(r.ttl)}
	return nil
}

func (r *MemoryCatalogCache) GetCabin(ctx context.Context, id string) (*models.Cabin, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.cabins[id]
	if !ok || r.expired(entry) {
		return nil, nil
	}
	return entry.value.(*models.Cabin), nil
}

func (r *MemoryCatalogCache) SetCabin(ctx context.Context, cabin *models.Cabin) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cabins[cabin.ID] = cacheEntry{value: cabin, expiresAt: r.now().Add(r.ttl)}
	return nil
}

func (r *MemoryCatalogCache) InvalidateCabin(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.cabins, id)
	r.list = cacheEntry{}
	return nil
}

func (r *MemoryCatalogCache) CheckRateLimit(ctx context.Context, userID string, limit int, window time.Duration) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	if now.After(r.nextSweep) {
		r.sweepRateLimits(now)
		r.nextSweep = now.Add(window)
	}

	entry, ok := r.rateLimits[userID]
	if !ok || now.After(entry.expiresAt) {
		entry = &rateLimitEntry{expiresAt: now.Add(window)}
		r.rateLimits[userID] = entry
	}
	entry.count++

	return entry.count <= limit, nil
}

// sweepRateLimits drops closed windows. Caller holds mu.
func (r *MemoryCatalogCache) sweepRateLimits(now time.Time) {
	for id, entry := range r.rateLimits {
		if now.After(entry.expiresAt) {
			delete(r.rateLimits, id)
		}
	}
}

func (r *MemoryCatalogCache) expired(e cacheEntry) bool {
	return r.ttl > 0 && r.now().After(e.expiresAt)
}
