// backend-go/internal/service/store_service.go
package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/glowmart/storesight/backend-go/internal/domain"
	"github.com/glowmart/storesight/backend-go/internal/forecast"
	"github.com/glowmart/storesight/backend-go/internal/repository"
)

// StoreService answers the store directory endpoints.
type StoreService struct {
	stores repository.StoreRepository
}

func NewStoreService(stores repository.StoreRepository) *StoreService {
	return &StoreService{stores: stores}
}

func (s *StoreService) GetStores(ctx context.Context, filter *domain.StoreFilter) (*domain.StoresResponse, error) {
	resp, err := s.stores.GetStores(ctx, filter)
	if err != nil {
		log.Error().Err(err).Msg("store service: list stores failed")
		return nil, fmt.Errorf("failed to list stores: %w", err)
	}
	return resp, nil
}

func (s *StoreService) GetStore(ctx context.Context, id int64) (*domain.Store, error) {
	store, err := s.stores.GetStore(ctx, id)
	if err != nil {
		return nil, err
	}
	return store, nil
}

func (s *StoreService) GetAreas(ctx context.Context) ([]string, error) {
	areas, err := s.stores.GetAreas(ctx)
	if err != nil {
		log.Error().Err(err).Msg("store service: list areas failed")
		return nil, fmt.Errorf("failed to list areas: %w", err)
	}
	return areas, nil
}

// GetStoreSeries returns the monthly history of a store decorated with the
// moving annual total. MAT slots without twelve months behind them come back
// nil so the JSON carries null.
func (s *StoreService) GetStoreSeries(ctx context.Context, id int64) (*domain.StoreSeries, error) {
	store, err := s.stores.GetStore(ctx, id)
	if err != nil {
		return nil, err
	}

	series, err := s.stores.GetStoreSeries(ctx, id)
	if err != nil {
		log.Error().Err(err).Int64("store_id", id).Msg("store service: load series failed")
		return nil, fmt.Errorf("failed to load store series: %w", err)
	}
	series.StoreName = store.Name

	values := make([]float64, len(series.Points))
	for i, p := range series.Points {
		values[i] = p.NetSales
	}
	mat := nullableSeries(forecast.MovingAnnualTotal(values))
	for i := range series.Points {
		series.Points[i].MAT = mat[i]
	}

	return series, nil
}
