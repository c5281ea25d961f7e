// backend-go/internal/repository/repository.go
package repository

import (
	"context"
	"time"

	"github.com/glowmart/storesight/backend-go/internal/domain"
)

type StoreRepository interface {
	GetStores(ctx context.Context, filter *domain.StoreFilter) (*domain.StoresResponse, error)
	GetStore(ctx context.Context, id int64) (*domain.Store, error)
	GetAreas(ctx context.Context) ([]string, error)
	GetStoreSeries(ctx context.Context, storeID int64) (*domain.StoreSeries, error)
}

// ModelRepository hands out fitted models; evaluation code never reaches for
// shared state, it asks here.
type ModelRepository interface {
	GetModel(ctx context.Context, storeID int64) (*domain.StoreModel, error)
	GetModels(ctx context.Context) ([]*domain.StoreModel, error)
}

// MonthlyRow is one store-month with the booked actual and its budget.
// HasActual separates a booked zero from a month with no sales row at all.
type MonthlyRow struct {
	StoreID   int64     `db:"store_id"`
	Month     time.Time `db:"month"`
	Actual    float64   `db:"actual"`
	Budget    float64   `db:"budget"`
	HasActual bool      `db:"has_actual"`
}

// StoreTotal is a store's summed net sales over a window.
type StoreTotal struct {
	StoreID int64   `db:"store_id"`
	Name    string  `db:"name"`
	Area    string  `db:"area"`
	Active  bool    `db:"active"`
	Total   float64 `db:"total"`
}

// SalesCell is one store-month observation used to align series.
type SalesCell struct {
	StoreID  int64     `db:"store_id"`
	Month    time.Time `db:"month"`
	NetSales float64   `db:"net_sales"`
}

type AnalyticsRepository interface {
	GetMonthlyRows(ctx context.Context, from, to time.Time) ([]MonthlyRow, error)
	GetStoreMonthlyRows(ctx context.Context, storeID int64, from, to time.Time) ([]MonthlyRow, error)
	GetStoreTotals(ctx context.Context, from, to time.Time) ([]StoreTotal, error)
	GetSalesMatrix(ctx context.Context, from, to time.Time) ([]SalesCell, error)
}
