// backend-go/internal/service/fakes_test.go
package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/glowmart/storesight/backend-go/internal/domain"
	"github.com/glowmart/storesight/backend-go/internal/repository"
)

type fakeStoreRepo struct {
	stores map[int64]*domain.Store
	series map[int64]*domain.StoreSeries
}

func (f *fakeStoreRepo) GetStores(_ context.Context, _ *domain.StoreFilter) (*domain.StoresResponse, error) {
	resp := &domain.StoresResponse{Page: 1, PageSize: 50}
	for _, s := range f.stores {
		resp.Items = append(resp.Items, *s)
	}
	resp.Total = len(resp.Items)
	resp.TotalPages = 1
	return resp, nil
}

func (f *fakeStoreRepo) GetStore(_ context.Context, id int64) (*domain.Store, error) {
	s, ok := f.stores[id]
	if !ok {
		return nil, fmt.Errorf("failed to get store: %w", sql.ErrNoRows)
	}
	return s, nil
}

func (f *fakeStoreRepo) GetAreas(_ context.Context) ([]string, error) {
	seen := make(map[string]bool)
	var areas []string
	for _, s := range f.stores {
		if s.Area != "" && !seen[s.Area] {
			seen[s.Area] = true
			areas = append(areas, s.Area)
		}
	}
	return areas, nil
}

func (f *fakeStoreRepo) GetStoreSeries(_ context.Context, storeID int64) (*domain.StoreSeries, error) {
	if s, ok := f.series[storeID]; ok {
		return s, nil
	}
	return &domain.StoreSeries{StoreID: storeID}, nil
}

type fakeModelRepo struct {
	models map[int64]*domain.StoreModel
}

func (f *fakeModelRepo) GetModel(_ context.Context, storeID int64) (*domain.StoreModel, error) {
	m, ok := f.models[storeID]
	if !ok {
		return nil, fmt.Errorf("failed to get model: %w", sql.ErrNoRows)
	}
	return m, nil
}

func (f *fakeModelRepo) GetModels(_ context.Context) ([]*domain.StoreModel, error) {
	out := make([]*domain.StoreModel, 0, len(f.models))
	for _, m := range f.models {
		out = append(out, m)
	}
	return out, nil
}

type fakeAnalyticsRepo struct {
	rows   []repository.MonthlyRow
	totals []repository.StoreTotal
	cells  []repository.SalesCell

	// totalsByYear overrides totals per window start year when set, so a
	// test can hand the bridge different prior and current years
	totalsByYear map[int][]repository.StoreTotal
}

func (f *fakeAnalyticsRepo) GetMonthlyRows(_ context.Context, _, _ time.Time) ([]repository.MonthlyRow, error) {
	return f.rows, nil
}

func (f *fakeAnalyticsRepo) GetStoreMonthlyRows(_ context.Context, storeID int64, _, _ time.Time) ([]repository.MonthlyRow, error) {
	var out []repository.MonthlyRow
	for _, row := range f.rows {
		if row.StoreID == storeID {
			out = append(out, row)
		}
	}
	return out, nil
}

func (f *fakeAnalyticsRepo) GetStoreTotals(_ context.Context, from, _ time.Time) ([]repository.StoreTotal, error) {
	if f.totalsByYear != nil {
		return f.totalsByYear[from.Year()], nil
	}
	return f.totals, nil
}

func (f *fakeAnalyticsRepo) GetSalesMatrix(_ context.Context, _, _ time.Time) ([]repository.SalesCell, error) {
	return f.cells, nil
}

func month(year int, m time.Month) time.Time {
	return time.Date(year, m, 1, 0, 0, 0, 0, time.UTC)
}
