// backend-go/internal/repository/postgres/store_repository.go
package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/glowmart/storesight/backend-go/internal/domain"
)

type storeRepository struct {
	db *DB
}

func NewStoreRepository(db *DB) *storeRepository {
	return &storeRepository{db: db}
}

var storeSortFields = map[string]string{
	"name":      "name",
	"area":      "area",
	"city":      "city",
	"opened_at": "opened_at",
}

// GetStores lists stores with optional filters, sorted and paginated.
func (r *storeRepository) GetStores(ctx context.Context, filter *domain.StoreFilter) (*domain.StoresResponse, error) {
	baseQuery := `FROM stores WHERE 1=1`
	conditions := []string{}
	args := []interface{}{}
	argCounter := 1

	if filter != nil {
		if len(filter.StoreIDs) > 0 {
			placeholders := make([]string, len(filter.StoreIDs))
			for i, id := range filter.StoreIDs {
				placeholders[i] = fmt.Sprintf("$%d", argCounter)
				args = append(args, id)
				argCounter++
			}
			conditions = append(conditions, fmt.Sprintf("id IN (%s)", strings.Join(placeholders, ",")))
		}

		if len(filter.Areas) > 0 {
			placeholders := make([]string, len(filter.Areas))
			for i, area := range filter.Areas {
				placeholders[i] = fmt.Sprintf("$%d", argCounter)
				args = append(args, area)
				argCounter++
			}
			conditions = append(conditions, fmt.Sprintf("area IN (%s)", strings.Join(placeholders, ",")))
		}

		if filter.Search != "" {
			conditions = append(conditions, fmt.Sprintf("(name ILIKE $%d OR city ILIKE $%d)", argCounter, argCounter))
			args = append(args, "%"+filter.Search+"%")
			argCounter++
		}

		if filter.ActiveOnly {
			conditions = append(conditions, "active = TRUE")
		}
	}

	if len(conditions) > 0 {
		baseQuery += " AND " + strings.Join(conditions, " AND ")
	}

	var total int
	countQuery := "SELECT COUNT(*) " + baseQuery
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, fmt.Errorf("failed to count stores: %w", err)
	}

	sortField := "name"
	sortDir := "ASC"
	if filter != nil {
		if f, ok := storeSortFields[strings.ToLower(filter.SortBy)]; ok {
			sortField = f
		}
		if strings.EqualFold(filter.SortDir, "desc") {
			sortDir = "DESC"
		}
	}

	page, pageSize := 1, 50
	if filter != nil {
		if filter.Page > 0 {
			page = filter.Page
		}
		if filter.PageSize > 0 {
			pageSize = filter.PageSize
		}
	}

	query := fmt.Sprintf(
		"SELECT id, name, area, city, opened_at, active, created_at, updated_at %s ORDER BY %s %s LIMIT $%d OFFSET $%d",
		baseQuery, sortField, sortDir, argCounter, argCounter+1,
	)
	args = append(args, pageSize, (page-1)*pageSize)

	items := []domain.Store{}
	if err := r.db.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list stores: %w", err)
	}

	totalPages := (total + pageSize - 1) / pageSize
	log.Debug().Int("total", total).Int("page", page).Msg("stores: listed")

	return &domain.StoresResponse{
		Items:      items,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	}, nil
}

func (r *storeRepository) GetStore(ctx context.Context, id int64) (*domain.Store, error) {
	var store domain.Store
	query := `
		SELECT id, name, area, city, opened_at, active, created_at, updated_at
		FROM stores
		WHERE id = $1
	`
	if err := r.db.GetContext(ctx, &store, query, id); err != nil {
		return nil, fmt.Errorf("failed to get store %d: %w", id, err)
	}

	return &store, nil
}

func (r *storeRepository) GetAreas(ctx context.Context) ([]string, error) {
	areas := []string{}
	query := `SELECT DISTINCT area FROM stores WHERE area <> '' ORDER BY area`
	if err := r.db.SelectContext(ctx, &areas, query); err != nil {
		return nil, fmt.Errorf("failed to list areas: %w", err)
	}

	return areas, nil
}

type seriesRow struct {
	Month    string  `db:"month"`
	NetSales float64 `db:"net_sales"`
	Budget   float64 `db:"budget"`
}

// GetStoreSeries returns the full monthly history for one store with its
// budget lined up per month.
func (r *storeRepository) GetStoreSeries(ctx context.Context, storeID int64) (*domain.StoreSeries, error) {
	store, err := r.GetStore(ctx, storeID)
	if err != nil {
		return nil, err
	}

	query := `
		SELECT
			to_char(ms.month, 'YYYY-MM') AS month,
			ms.net_sales,
			COALESCE(b.amount, 0) AS budget
		FROM monthly_sales ms
		LEFT JOIN budgets b ON b.store_id = ms.store_id AND b.month = ms.month
		WHERE ms.store_id = $1
		ORDER BY ms.month
	`

	rows := []seriesRow{}
	if err := r.db.SelectContext(ctx, &rows, query, storeID); err != nil {
		return nil, fmt.Errorf("failed to get series for store %d: %w", storeID, err)
	}

	series := &domain.StoreSeries{
		StoreID:   store.ID,
		StoreName: store.Name,
		Points:    make([]domain.SeriesPoint, 0, len(rows)),
	}
	for _, row := range rows {
		series.Points = append(series.Points, domain.SeriesPoint{
			Month:    row.Month,
			NetSales: row.NetSales,
			Budget:   row.Budget,
		})
	}

	return series, nil
}
