package service

import (
	"context"

	"cabanas/internal/domain"
	"cabanas/internal/models"

	"github.com/rs/zerolog"
)

// CabinService serves the catalog, reading through the cache when one is configured.
type CabinService struct {
	repo   domain.CabinRepository
	cache  domain.CatalogCache
	logger *zerolog.Logger
}

func NewCabinService(repo domain.CabinRepository, cache domain.CatalogCache, logger *zerolog.Logger) *CabinService {
	return &CabinService{
		repo:   repo,
		cache:  cache,
		logger: logger,
	}
}

func (s *CabinService) ListCabins(ctx context.Context) ([]*models.Cabin, error) {
	if s.cache != nil {
		cabins, err := s.cache.GetCabins(ctx)
		if err != nil {
			s.logger.Warn().Err(err).Msg("catalog cache read failed")
		} else if cabins != nil {
			return cabins, nil
		}
	}

	cabins, err := s.repo.ListCabins(ctx)
	if err != nil {
		return nil, err
	}
	if cabins == nil {
		cabins = []*models.Cabin{}
	}

	if s.cache != nil {
		if err := s.cache.SetCabins(ctx, cabins); err != nil {
			s.logger.Warn().Err(err).Msg("catalog cache write failed")
		}
	}
	return cabins, nil
}

func (s *CabinService) GetCabin(ctx context.Context, id string) (*models.Cabin, error) {
	if s.cache != nil {
		cabin, err := s.cache.GetCabin(ctx, id)
		if err != nil {
			s.logger.Warn().Err(err).Str("cabin_id", id).Msg("catalog cache read failed")
		} else if cabin != nil {
			return cabin, nil
		}
	}

	cabin, err := s.repo.GetCabin(ctx, id)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.SetCabin(ctx, cabin); err != nil {
			s.logger.Warn().Err(err).Str("cabin_id", id).Msg("catalog cache write failed")
		}
	}
	return cabin, nil
}
